package documents

import (
	"context"
	"io"

	"github.com/JaimeStill/dcma/internal/batch"
)

// System defines the document and page editing contract. Every edit loads the
// batch, applies the change to a copy, performs artifact file work through a
// rollback journal, and persists the tree as its final step. Edits return the
// refreshed batch. Callers are expected to hold the batch lock.
type System interface {
	Handler() *Handler

	Find(ctx context.Context, batchID string) (*batch.Batch, error)
	// Flags reports review and validation state. checkReviewFlag selects
	// between the Reviewed flags and document classification, see
	// batch.Batch.NeedsReview.
	Flags(ctx context.Context, batchID string, checkReviewFlag bool) (Flags, error)
	ReviewRequired(ctx context.Context, batchID string, checkReviewFlag bool) (bool, error)
	ValidationRequired(ctx context.Context, batchID string) (bool, error)

	Merge(ctx context.Context, batchID, docA, docB string) (*batch.Batch, error)
	SwapPages(ctx context.Context, batchID, docA, pageA, docB, pageB string) (*batch.Batch, error)
	SwapPagesWithin(ctx context.Context, batchID, docID, pageA, pageB string) (*batch.Batch, error)
	Split(ctx context.Context, batchID, docID, pageID string) (*batch.Batch, error)
	Reorder(ctx context.Context, batchID, docID string, pageIDs []string) (*batch.Batch, error)
	Duplicate(ctx context.Context, batchID, docID, pageID string) (*batch.Batch, error)
	RemovePage(ctx context.Context, batchID, docID, pageID string) (*batch.Batch, error)
	MovePage(ctx context.Context, batchID, fromDoc, fromPage, toDoc, toPage string, after bool) (*batch.Batch, error)
	UpdateDocType(ctx context.Context, batchID, docID, typeName string, fields []batch.Field) (*batch.Batch, error)

	ThumbnailPath(ctx context.Context, batchID, docID, pageID string) (string, error)
	DisplayImagePath(ctx context.Context, batchID, docID, pageID string) (string, error)
	RenderImages(ctx context.Context, batchID, docID, pageID string) (*batch.Batch, error)
	Export(ctx context.Context, batchID, docID string) (string, error)
	// OpenFile streams a file of the batch folder, or its archived backup.
	OpenFile(ctx context.Context, batchID, name string) (io.ReadCloser, error)

	// Lock takes the batch lock for a caller that runs several edits.
	Lock(batchID string) (release func() error, err error)
}
