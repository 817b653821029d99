package usage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Predefined usage categories.
const (
	CategoryExamCreated = "exam_created"
)

var (
	ErrLimitExceeded        = errors.New("usage: limit exceeded")
	ErrUnknownCategory      = errors.New("usage: no limit registered for category")
	ErrFailedToCountUsage   = errors.New("usage: failed to count usage")
	ErrFailedToAppendRecord = errors.New("usage: failed to append usage record")
)

// Record is one billable event.
type Record struct {
	ID         uuid.UUID
	AccountID  uuid.UUID
	Category   string
	OccurredAt time.Time
}

// Source is the append-only usage event log.
type Source interface {
	// Append stores one event.
	Append(ctx context.Context, rec Record) error

	// CountInPeriod counts the account's events of a category with
	// OccurredAt in the half-open interval [start, end).
	CountInPeriod(ctx context.Context, accountID uuid.UUID, category string, start, end time.Time) (int64, error)
}
