package checkout

import (
	"time"

	"github.com/google/uuid"
)

// Step is the position in the linear checkout flow. Transitions only ever
// move one step at a time.
type Step string

const (
	StepVerify  Step = "verify"
	StepAddress Step = "address"
	StepSummary Step = "summary"
)

// Next returns the following step, or false from the terminal step.
func (s Step) Next() (Step, bool) {
	switch s {
	case StepVerify:
		return StepAddress, true
	case StepAddress:
		return StepSummary, true
	default:
		return s, false
	}
}

// Prev returns the preceding step, or false from the first step.
func (s Step) Prev() (Step, bool) {
	switch s {
	case StepSummary:
		return StepAddress, true
	case StepAddress:
		return StepVerify, true
	default:
		return s, false
	}
}

func (s Step) String() string {
	return string(s)
}

type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusAbandoned Status = "abandoned"
)

// Session is one user's checkout in progress. At most one active session per
// user exists (partial unique index).
type Session struct {
	ID        uuid.UUID `json:"id"`
	UserID    string    `json:"user_id"`
	Step      Step      `json:"step"`
	Status    Status    `json:"status"`
	AddressID *int64    `json:"address_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
