package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/agent-league/metrics"
	"github.com/Dosada05/agent-league/protocol"
)

// Policy bounds delivery attempts. The delay doubles after every failed
// attempt up to MaxDelay.
type Policy struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// DefaultPolicy: three attempts with 1s and 2s pauses between them.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:   3,
		InitialDelay:  1 * time.Second,
		MaxDelay:      10 * time.Second,
		BackoffFactor: 2.0,
	}
}

// Dispatcher delivers a message and returns the peer's raw reply message.
// All agent-to-agent traffic goes through one of these, so invitations,
// choice calls, reports and broadcasts share the same retry behavior.
type Dispatcher interface {
	Send(ctx context.Context, endpoint string, msg protocol.Message) (json.RawMessage, error)
}

type retryingDispatcher struct {
	client *Client
	policy Policy
	logger *slog.Logger
}

func NewDispatcher(client *Client, policy Policy, logger *slog.Logger) Dispatcher {
	if policy.MaxAttempts < 1 {
		policy = DefaultPolicy()
	}
	return &retryingDispatcher{client: client, policy: policy, logger: logger}
}

// Send tries the delivery up to MaxAttempts times. Cancelling ctx aborts
// both the in-flight request and any pending backoff sleep; a reply that
// arrives after cancellation is discarded by the transport and never
// reaches the caller.
func (d *retryingDispatcher) Send(ctx context.Context, endpoint string, msg protocol.Message) (json.RawMessage, error) {
	delay := d.policy.InitialDelay
	var lastErr error

	for attempt := 1; attempt <= d.policy.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		reply, err := d.client.Call(ctx, endpoint, msg)
		if err == nil {
			return reply, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if attempt == d.policy.MaxAttempts {
			break
		}

		metrics.DispatchRetries.Inc()
		d.logger.Warn("delivery failed, backing off",
			slog.String("endpoint", endpoint),
			slog.String("message_type", string(msg.MessageType)),
			slog.Int("attempt", attempt),
			slog.Duration("delay", delay),
			slog.Any("error", err),
		)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}

		delay = time.Duration(float64(delay) * d.policy.BackoffFactor)
		if delay > d.policy.MaxDelay {
			delay = d.policy.MaxDelay
		}
	}

	metrics.DispatchFailures.Inc()
	return nil, fmt.Errorf("dispatch: %d attempts to %s failed: %w", d.policy.MaxAttempts, endpoint, lastErr)
}
