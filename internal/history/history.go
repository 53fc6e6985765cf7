// Package history records how long users spend in manual batch steps such as
// review and validation. One row exists per batch instance, step status and
// user; repeated visits accumulate into it.
package history

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Step is the accumulated time one user spent on one manual step of a batch.
type Step struct {
	ID                  uuid.UUID  `json:"id"`
	BatchInstanceID     string     `json:"batch_instance_id"`
	BatchInstanceStatus string     `json:"batch_instance_status"`
	UserName            string     `json:"user_name"`
	StartTime           time.Time  `json:"start_time"`
	EndTime             *time.Time `json:"end_time"`
	DurationMs          int64      `json:"duration_ms"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// Key identifies a step row.
type Key struct {
	BatchInstanceID     string `json:"batch_instance_id"`
	BatchInstanceStatus string `json:"batch_instance_status"`
	UserName            string `json:"user_name"`
}

func (k Key) validate() error {
	if k.BatchInstanceID == "" || k.BatchInstanceStatus == "" || k.UserName == "" {
		return ErrInvalidKey
	}
	return nil
}

// RecordCommand reports one visit to a manual step.
type RecordCommand struct {
	Key
	StartTime  time.Time  `json:"start_time"`
	EndTime    *time.Time `json:"end_time"`
	DurationMs int64      `json:"duration_ms"`
}

func (c RecordCommand) validate() error {
	if err := c.Key.validate(); err != nil {
		return err
	}
	if c.DurationMs < 0 {
		return ErrNegativeDuration
	}
	return nil
}

// AddDuration adds two non-negative durations, saturating at math.MaxInt64.
func AddDuration(a, b int64) int64 {
	if a > math.MaxInt64-b {
		return math.MaxInt64
	}
	return a + b
}
