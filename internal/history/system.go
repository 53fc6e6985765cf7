package history

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/dcma/pkg/pagination"
)

// System defines the manual step history contract.
type System interface {
	Handler() *Handler

	// Record inserts a step row or, when one exists for the key, replaces its
	// end time and adds the reported duration to the stored total.
	Record(ctx context.Context, cmd RecordCommand) (*Step, error)
	// FindOpen returns the step row for key whose end time is unset.
	FindOpen(ctx context.Context, key Key) (*Step, error)
	// FindExisting returns the step row for key regardless of end time.
	FindExisting(ctx context.Context, key Key) (*Step, error)
	Find(ctx context.Context, id uuid.UUID) (*Step, error)
	List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Step], error)
	Delete(ctx context.Context, id uuid.UUID) error
}
