package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Dosada05/agent-league/models"
)

// Archiver pushes a completed match record to long-term storage and
// returns its public location.
type Archiver interface {
	ArchiveRecord(ctx context.Context, record *models.MatchRecord) (string, error)
}

type recordArchiver struct {
	uploader FileUploader
	logger   *slog.Logger
}

func NewRecordArchiver(uploader FileUploader, logger *slog.Logger) Archiver {
	return &recordArchiver{uploader: uploader, logger: logger}
}

func (a *recordArchiver) ArchiveRecord(ctx context.Context, record *models.MatchRecord) (string, error) {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode match record %s: %w", record.MatchID, err)
	}

	key := fmt.Sprintf("leagues/%s/matches/%s.json", record.LeagueID, record.MatchID)
	result, err := a.uploader.Upload(ctx, key, "application/json", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("archive match record %s: %w", record.MatchID, err)
	}

	a.logger.Info("match record archived",
		slog.String("match_id", record.MatchID),
		slog.String("key", result.Key),
	)
	return result.Location, nil
}

// NopArchiver is used when object storage is not configured; archiving
// becomes a no-op and the local record store stays authoritative.
type NopArchiver struct{}

func (NopArchiver) ArchiveRecord(ctx context.Context, record *models.MatchRecord) (string, error) {
	return "", nil
}
