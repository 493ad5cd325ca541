package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/Dosada05/agent-league/models"
)

// ManagerConfig хранит все конфигурационные параметры менеджера лиги.
type ManagerConfig struct {
	ServerPort int

	LeagueID   string
	LeagueName string
	GameType   string
	MinPlayers int

	JWTSecretKey string
	TokenTTL     time.Duration

	// DatabaseURL пустой означает файловое хранилище в DataDir.
	DatabaseURL string
	DataDir     string

	StallTimeout     time.Duration
	BroadcastTimeout time.Duration

	AllowedOrigins []string

	// Реквизиты Cloudflare R2 для архива протоколов матчей.
	// Пустые значения выключают архивирование.
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2Bucket          string
	R2PublicBaseURL   string
}

// ArchiveEnabled сообщает, заданы ли все реквизиты R2.
func (c *ManagerConfig) ArchiveEnabled() bool {
	return c.R2AccountID != "" && c.R2AccessKeyID != "" &&
		c.R2SecretAccessKey != "" && c.R2Bucket != "" && c.R2PublicBaseURL != ""
}

// LoadManager загружает конфигурацию менеджера из переменных окружения.
// Опционально подгружает .env файл (полезно для локальной разработки).
func LoadManager() (*ManagerConfig, error) {
	// Загружаем .env файл, если он есть. Ошибку не считаем фатальной.
	_ = godotenv.Load()

	jwtKey := os.Getenv("JWT_SECRET_KEY")
	if jwtKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}

	port, err := portFromEnv("SERVER_PORT", 8080)
	if err != nil {
		return nil, err
	}
	minPlayers, err := intFromEnv("LEAGUE_MIN_PLAYERS", 2)
	if err != nil {
		return nil, err
	}
	tokenTTL, err := durationFromEnv("AUTH_TOKEN_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}
	stall, err := durationFromEnv("ROUND_STALL_TIMEOUT", 2*time.Minute)
	if err != nil {
		return nil, err
	}
	broadcast, err := durationFromEnv("BROADCAST_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}

	cfg := &ManagerConfig{
		ServerPort:       port,
		LeagueID:         envOr("LEAGUE_ID", "LEAGUE001"),
		LeagueName:       envOr("LEAGUE_NAME", "Even/Odd League"),
		GameType:         envOr("LEAGUE_GAME_TYPE", models.GameTypeEvenOdd),
		MinPlayers:       minPlayers,
		JWTSecretKey:     jwtKey,
		TokenTTL:         tokenTTL,
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		DataDir:          envOr("DATA_DIR", "./data"),
		StallTimeout:     stall,
		BroadcastTimeout: broadcast,
		AllowedOrigins:   splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),

		R2AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2Bucket:          os.Getenv("R2_BUCKET_NAME"),
		R2PublicBaseURL:   os.Getenv("R2_PUBLIC_BASE_URL"),
	}

	return cfg, nil
}

// RefereeConfig хранит конфигурацию одного судейского агента.
type RefereeConfig struct {
	ServerPort      int
	ManagerEndpoint string
	SelfEndpoint    string
	DisplayName     string
	Version         string

	MaxConcurrentMatches int
	QueueBound           int

	JoinTimeout   time.Duration
	ChoiceTimeout time.Duration
	ReportTimeout time.Duration
}

// LoadReferee загружает конфигурацию судьи из переменных окружения.
func LoadReferee() (*RefereeConfig, error) {
	_ = godotenv.Load()

	manager := os.Getenv("MANAGER_ENDPOINT")
	if manager == "" {
		return nil, fmt.Errorf("MANAGER_ENDPOINT environment variable is not set")
	}

	port, err := portFromEnv("SERVER_PORT", 8081)
	if err != nil {
		return nil, err
	}
	slots, err := intFromEnv("MAX_CONCURRENT_MATCHES", 2)
	if err != nil {
		return nil, err
	}
	queue, err := intFromEnv("MATCH_QUEUE_BOUND", 32)
	if err != nil {
		return nil, err
	}
	join, err := durationFromEnv("JOIN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}
	choice, err := durationFromEnv("CHOICE_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}
	report, err := durationFromEnv("REPORT_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	cfg := &RefereeConfig{
		ServerPort:           port,
		ManagerEndpoint:      manager,
		SelfEndpoint:         selfEndpoint(port),
		DisplayName:          envOr("DISPLAY_NAME", "Referee"),
		Version:              envOr("AGENT_VERSION", "1.0"),
		MaxConcurrentMatches: slots,
		QueueBound:           queue,
		JoinTimeout:          join,
		ChoiceTimeout:        choice,
		ReportTimeout:        report,
	}

	return cfg, nil
}

// PlayerConfig хранит конфигурацию одного игрового агента.
type PlayerConfig struct {
	ServerPort      int
	ManagerEndpoint string
	SelfEndpoint    string
	DisplayName     string
	Version         string

	// Strategy выбирает тактику: "random" или "counter".
	Strategy string

	// HistoryDir задаёт каталог файлов персональной истории матчей.
	HistoryDir string
}

// LoadPlayer загружает конфигурацию игрока из переменных окружения.
func LoadPlayer() (*PlayerConfig, error) {
	_ = godotenv.Load()

	manager := os.Getenv("MANAGER_ENDPOINT")
	if manager == "" {
		return nil, fmt.Errorf("MANAGER_ENDPOINT environment variable is not set")
	}

	port, err := portFromEnv("SERVER_PORT", 8082)
	if err != nil {
		return nil, err
	}

	cfg := &PlayerConfig{
		ServerPort:      port,
		ManagerEndpoint: manager,
		SelfEndpoint:    selfEndpoint(port),
		DisplayName:     envOr("DISPLAY_NAME", "Player"),
		Version:         envOr("AGENT_VERSION", "1.0"),
		Strategy:        envOr("PLAYER_STRATEGY", "random"),
		HistoryDir:      envOr("DATA_DIR", "./data"),
	}

	return cfg, nil
}

// selfEndpoint строит адрес, под которым агент объявляет себя менеджеру.
// SELF_ENDPOINT обязателен, когда агент стоит за NAT или прокси.
func selfEndpoint(port int) string {
	if self := os.Getenv("SELF_ENDPOINT"); self != "" {
		return self
	}
	return fmt.Sprintf("http://localhost:%d/mcp", port)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func portFromEnv(key string, fallback int) (int, error) {
	port, err := intFromEnv(key, fallback)
	if err != nil {
		return 0, err
	}
	if port <= 0 || port > 65535 {
		return 0, fmt.Errorf("%s must be between 1 and 65535, got %d", key, port)
	}
	return port, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return v, nil
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return v, nil
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
