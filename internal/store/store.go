// Package store persists batch trees as XML documents in each batch folder and
// archives stage checkpoints to blob storage.
package store

import (
	"context"
	"io"
	"log/slog"

	"github.com/JaimeStill/dcma/internal/batch"
	"github.com/JaimeStill/dcma/internal/paths"
	"github.com/JaimeStill/dcma/pkg/storage"
)

// System defines the persistence contract for batch trees.
type System interface {
	// Get loads the persisted batch. Absent documents fail with ErrNotFound,
	// malformed ones with ErrCorruptData.
	Get(ctx context.Context, batchID string) (*batch.Batch, error)
	// Create writes a new batch document and fails with ErrExists if one is present.
	Create(ctx context.Context, b *batch.Batch) error
	// Update atomically replaces the persisted document. A non-empty stage also
	// writes a checkpoint copy tagged with the stage name and archives it.
	Update(ctx context.Context, b *batch.Batch, stage string) error
	// BackUp copies the currently persisted document to a stage-qualified name.
	BackUp(ctx context.Context, batchID, stage string) error
	// Checkpoints lists the stage names archived for a batch.
	Checkpoints(ctx context.Context, batchID string) ([]string, error)
	// Exists reports whether a batch document is persisted.
	Exists(ctx context.Context, batchID string) (bool, error)
	// Delete removes the batch folder and its archived checkpoints.
	Delete(ctx context.Context, batchID string) error
	// StoreFiles copies external files into the batch folder under their base
	// names, replacing existing files. A failed copy restores the folder.
	StoreFiles(ctx context.Context, batchID string, files []string) error
	// BackUpFiles copies batch folder files into its backup folder and
	// archives them.
	BackUpFiles(ctx context.Context, batchID string, names []string) error
	// File returns the path of a file in the batch folder, failing with
	// ErrNotFound when it is absent.
	File(batchID, name string) (string, error)
	// Open streams a batch folder file, falling back to its archived backup.
	Open(ctx context.Context, batchID, name string) (io.ReadCloser, error)
	// CopyFolder copies the TIFF images under source into a named folder of
	// a batch class and returns the copied relative paths.
	CopyFolder(ctx context.Context, source, folderName, classID string) ([]string, error)
	// CopyEmailFolder copies an inbound email folder into the same named
	// folder of a batch class.
	CopyEmailFolder(ctx context.Context, folderName, classID string) ([]string, error)
	// DeleteDocTypeFolders removes the per document type folders of a batch class.
	DeleteDocTypeFolders(ctx context.Context, classID string, docTypes []string) error
	// Lock creates the batch lock marker. The returned release func removes it.
	// A marker already held fails with ErrLocked.
	Lock(batchID string) (release func() error, err error)
}

type repo struct {
	paths   *paths.Resolver
	archive storage.System
	logger  *slog.Logger
}

// New creates a store over the batch folders resolved by p. archive may be nil,
// in which case checkpoints are kept only in the batch folder.
func New(p *paths.Resolver, archive storage.System, logger *slog.Logger) System {
	return &repo{
		paths:   p,
		archive: archive,
		logger:  logger.With("system", "store"),
	}
}
