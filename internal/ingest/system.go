package ingest

import (
	"context"

	"github.com/JaimeStill/dcma/internal/batch"
)

// System creates batch instances from uploads and manages their lifecycle in
// the local batch folders.
type System interface {
	Handler(maxUploadSize int64) *Handler

	Ingest(ctx context.Context, cmd Command) (*batch.Batch, error)
	Delete(ctx context.Context, batchID string) error
	BackUp(ctx context.Context, batchID, stage string) error
	Checkpoints(ctx context.Context, batchID string) ([]string, error)

	Lock(batchID string) (release func() error, err error)
}
