package subscription

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/billingkit/pkg/catalog"
)

// Status represents the current state of a subscription.
type Status string

const (
	StatusTrial     Status = "trial"
	StatusActive    Status = "active"
	StatusCancelled Status = "cancelled"
	StatusExpired   Status = "expired"
)

// Live reports whether the status grants entitlement (trial or active).
func (s Status) Live() bool {
	return s == StatusTrial || s == StatusActive
}

// Valid reports whether the status is one of the known states.
func (s Status) Valid() bool {
	switch s {
	case StatusTrial, StatusActive, StatusCancelled, StatusExpired:
		return true
	}
	return false
}

// Subscription represents an account's subscription to a plan.
type Subscription struct {
	ID        uuid.UUID
	AccountID uuid.UUID
	PlanID    string
	Status    Status
	Cycle     catalog.Cycle

	// Billing period as a half-open interval [start, end) in UTC.
	CurrentPeriodStart time.Time
	CurrentPeriodEnd   time.Time

	TrialEndsAt       *time.Time // set only while status is trial
	CancelAtPeriodEnd bool       // active but will not renew

	// Deferred downgrade: recorded now, applied at period end by the
	// rollover process.
	ScheduledPlanID   string
	ScheduledCycle    catalog.Cycle
	ScheduledChangeAt *time.Time

	// Version guards compound writes with an optimistic check. Incremented
	// on every successful write.
	Version int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsLive reports whether the subscription currently grants entitlement.
func (s *Subscription) IsLive() bool {
	return s.Status.Live()
}

// IsTrial returns true if the subscription is in trial status.
func (s *Subscription) IsTrial() bool {
	return s.Status == StatusTrial
}

// IsActive returns true if the subscription is active (paid).
func (s *Subscription) IsActive() bool {
	return s.Status == StatusActive
}

// IsCancelled returns true if the subscription is cancelled.
func (s *Subscription) IsCancelled() bool {
	return s.Status == StatusCancelled
}

// TrialActiveAt reports whether the trial is still running at the given
// instant. The boundary is exclusive: at exactly trial end the trial is
// over.
func (s *Subscription) TrialActiveAt(now time.Time) bool {
	if s.Status != StatusTrial || s.TrialEndsAt == nil {
		return false
	}
	return now.Before(*s.TrialEndsAt)
}

// InPeriodAt reports whether now falls inside the current billing period.
func (s *Subscription) InPeriodAt(now time.Time) bool {
	return !now.Before(s.CurrentPeriodStart) && now.Before(s.CurrentPeriodEnd)
}

// DaysUntilPeriodEndAt returns the number of whole UTC days between now and
// the period end, clamped at zero.
func (s *Subscription) DaysUntilPeriodEndAt(now time.Time) int {
	remaining := s.CurrentPeriodEnd.Sub(now)
	if remaining <= 0 {
		return 0
	}
	return int(remaining.Hours() / 24)
}

// HasScheduledChange reports whether a deferred downgrade is recorded.
func (s *Subscription) HasScheduledChange() bool {
	return s.ScheduledPlanID != ""
}

// Clone returns a copy safe to hand across goroutines.
func (s *Subscription) Clone() *Subscription {
	if s == nil {
		return nil
	}
	out := *s
	if s.TrialEndsAt != nil {
		t := *s.TrialEndsAt
		out.TrialEndsAt = &t
	}
	if s.ScheduledChangeAt != nil {
		t := *s.ScheduledChangeAt
		out.ScheduledChangeAt = &t
	}
	return &out
}

// Validate checks internal consistency before a write.
func (s *Subscription) Validate() error {
	if s.AccountID == uuid.Nil {
		return errors.Join(ErrInvalidSubscriptionState, fmt.Errorf("account ID is required"))
	}
	if s.PlanID == "" {
		return errors.Join(ErrInvalidSubscriptionState, fmt.Errorf("plan ID is required"))
	}
	if !s.Status.Valid() {
		return errors.Join(ErrInvalidSubscriptionState, fmt.Errorf("unknown status %q", s.Status))
	}
	if !s.Cycle.Valid() {
		return errors.Join(ErrInvalidSubscriptionState, fmt.Errorf("unknown billing cycle %q", s.Cycle))
	}
	if !s.CurrentPeriodStart.Before(s.CurrentPeriodEnd) {
		return errors.Join(ErrInvalidSubscriptionState, fmt.Errorf("period start must precede period end"))
	}
	return nil
}
