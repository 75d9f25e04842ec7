package retry

import (
	"context"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"lyriclab-api-go/logcolors"
	"lyriclab-api-go/stats"
)

// Coder is implemented by errors that carry a remote-store error code.
type Coder interface {
	ErrorCode() string
}

// transientCodes are remote-store error codes worth retrying. Everything
// else fails immediately.
var transientCodes = map[string]bool{
	"unavailable":       true,
	"permission-denied": true,
}

// transientSubstrings match transport-level failures that surface without a
// structured code.
var transientSubstrings = []string{
	"client is offline",
	"failed to get document",
	"transport error",
}

// IsTransient reports whether an error is likely to succeed on retry
// (connectivity or availability related).
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if coder, ok := err.(Coder); ok {
		if transientCodes[coder.ErrorCode()] {
			return true
		}
	}
	msg := strings.ToLower(err.Error())
	for _, sub := range transientSubstrings {
		if strings.Contains(msg, sub) {
			return true
		}
	}
	return false
}

// Config holds retrier configuration
type Config struct {
	Name        string        // Name for logging
	MaxAttempts int           // Attempts before giving up
	BaseDelay   time.Duration // Delay before the second attempt
}

// Retrier wraps remote-store operations with exponential backoff on
// transient errors. Non-transient errors propagate after a single attempt;
// there is no jitter and no circuit breaking.
type Retrier struct {
	name        string
	maxAttempts int
	baseDelay   time.Duration
}

// New creates a new retrier
func New(cfg Config) *Retrier {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = time.Second
	}
	if cfg.Name == "" {
		cfg.Name = "default"
	}
	return &Retrier{
		name:        cfg.Name,
		maxAttempts: cfg.MaxAttempts,
		baseDelay:   cfg.BaseDelay,
	}
}

// Delay returns the backoff before retrying after the given attempt:
// baseDelay × 2^(attempt−1).
func (r *Retrier) Delay(attempt int) time.Duration {
	return r.baseDelay << (attempt - 1)
}

// Do invokes op, retrying transient failures up to the attempt ceiling. The
// last error is returned as-is once attempts are exhausted or a
// non-transient error occurs.
func (r *Retrier) Do(ctx context.Context, op func(context.Context) error) error {
	var lastErr error

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}

		if !IsTransient(lastErr) || attempt == r.maxAttempts {
			break
		}

		delay := r.Delay(attempt)
		stats.Get().RecordRetry()
		log.Warnf("%s %s attempt %d/%d failed, retrying in %v: %v",
			logcolors.LogRetry, r.name, attempt, r.maxAttempts, delay, lastErr)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return lastErr
}
