package documents

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/JaimeStill/dcma/internal/batch"
	"github.com/JaimeStill/dcma/internal/imaging"
	"github.com/JaimeStill/dcma/internal/paths"
	"github.com/JaimeStill/dcma/internal/store"
	"github.com/JaimeStill/dcma/pkg/fileops"
)

type repo struct {
	store   store.System
	paths   *paths.Resolver
	imaging imaging.Config
	logger  *slog.Logger
}

// New creates a document editing system over the given store and resolver.
func New(s store.System, p *paths.Resolver, img imaging.Config, logger *slog.Logger) System {
	return &repo{
		store:   s,
		paths:   p,
		imaging: img,
		logger:  logger.With("system", "documents"),
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger)
}

func (r *repo) Lock(batchID string) (func() error, error) {
	return r.store.Lock(batchID)
}

func (r *repo) OpenFile(ctx context.Context, batchID, name string) (io.ReadCloser, error) {
	return r.store.Open(ctx, batchID, name)
}

func (r *repo) Find(ctx context.Context, batchID string) (*batch.Batch, error) {
	return r.store.Get(ctx, batchID)
}

func (r *repo) Flags(ctx context.Context, batchID string, checkReviewFlag bool) (Flags, error) {
	b, err := r.store.Get(ctx, batchID)
	if err != nil {
		return Flags{}, err
	}
	return Flags{
		ReviewRequired:     b.NeedsReview(checkReviewFlag),
		ValidationRequired: b.ValidationRequired(),
	}, nil
}

func (r *repo) ReviewRequired(ctx context.Context, batchID string, checkReviewFlag bool) (bool, error) {
	f, err := r.Flags(ctx, batchID, checkReviewFlag)
	return f.ReviewRequired, err
}

func (r *repo) ValidationRequired(ctx context.Context, batchID string) (bool, error) {
	f, err := r.Flags(ctx, batchID, true)
	return f.ValidationRequired, err
}

func (r *repo) Merge(ctx context.Context, batchID, docA, docB string) (*batch.Batch, error) {
	return r.mutate(ctx, "merge documents", batchID, func(b *batch.Batch) (*effects, error) {
		return merge(b, docA, docB)
	})
}

func (r *repo) SwapPages(ctx context.Context, batchID, docA, pageA, docB, pageB string) (*batch.Batch, error) {
	return r.mutate(ctx, "swap pages", batchID, func(b *batch.Batch) (*effects, error) {
		return swapPages(b, docA, pageA, docB, pageB)
	})
}

func (r *repo) SwapPagesWithin(ctx context.Context, batchID, docID, pageA, pageB string) (*batch.Batch, error) {
	return r.mutate(ctx, "swap pages within document", batchID, func(b *batch.Batch) (*effects, error) {
		return swapPagesWithin(b, docID, pageA, pageB)
	})
}

func (r *repo) Split(ctx context.Context, batchID, docID, pageID string) (*batch.Batch, error) {
	return r.mutate(ctx, "split document", batchID, func(b *batch.Batch) (*effects, error) {
		return split(b, docID, pageID)
	})
}

func (r *repo) Reorder(ctx context.Context, batchID, docID string, pageIDs []string) (*batch.Batch, error) {
	return r.mutate(ctx, "reorder pages", batchID, func(b *batch.Batch) (*effects, error) {
		return reorder(b, docID, pageIDs)
	})
}

func (r *repo) Duplicate(ctx context.Context, batchID, docID, pageID string) (*batch.Batch, error) {
	return r.mutate(ctx, "duplicate page", batchID, func(b *batch.Batch) (*effects, error) {
		return duplicate(b, docID, pageID)
	})
}

func (r *repo) RemovePage(ctx context.Context, batchID, docID, pageID string) (*batch.Batch, error) {
	return r.mutate(ctx, "remove page", batchID, func(b *batch.Batch) (*effects, error) {
		return removePage(b, docID, pageID)
	})
}

func (r *repo) MovePage(
	ctx context.Context,
	batchID, fromDoc, fromPage, toDoc, toPage string,
	after bool,
) (*batch.Batch, error) {
	return r.mutate(ctx, "move page", batchID, func(b *batch.Batch) (*effects, error) {
		return movePage(b, fromDoc, fromPage, toDoc, toPage, after)
	})
}

func (r *repo) UpdateDocType(
	ctx context.Context,
	batchID, docID, typeName string,
	fields []batch.Field,
) (*batch.Batch, error) {
	return r.mutate(ctx, "update document type", batchID, func(b *batch.Batch) (*effects, error) {
		return updateDocType(b, docID, typeName, fields)
	})
}

// mutate runs edit against a copy of the persisted batch. File effects are
// journaled and the store write is the last step; any failure before it rolls
// the journal back and leaves the persisted document untouched.
func (r *repo) mutate(
	ctx context.Context,
	op, batchID string,
	edit func(*batch.Batch) (*effects, error),
) (*batch.Batch, error) {
	if batchID == "" {
		return nil, batch.Invalid(op, "", "batch identifier required")
	}

	current, err := r.store.Get(ctx, batchID)
	if err != nil {
		return nil, err
	}

	next := current.Clone()
	next.SyncSequences()
	fx, err := edit(next)
	if err != nil {
		return nil, err
	}
	if fx.unchanged {
		return current, nil
	}

	j := fileops.NewJournal()
	if err := r.apply(op, batchID, fx, j); err != nil {
		r.rollback(op, batchID, j)
		return nil, err
	}

	if err := r.store.Update(ctx, next, ""); err != nil {
		r.rollback(op, batchID, j)
		return nil, err
	}

	if err := j.Commit(); err != nil {
		r.logger.Warn("staged artifacts not removed", "op", op, "batch_id", batchID, "error", err)
	}

	r.logger.Info(op, "batch_id", batchID, "documents", len(next.Documents), "pages", next.PageCount())
	return next, nil
}

func (r *repo) rollback(op, batchID string, j *fileops.Journal) {
	if err := j.Rollback(); err != nil {
		r.logger.Error("artifact rollback incomplete", "op", op, "batch_id", batchID, "error", err)
	}
}

func (r *repo) apply(op, batchID string, fx *effects, j *fileops.Journal) error {
	for _, c := range fx.copies {
		src, err := r.paths.ArtifactPath(batchID, c.src)
		if err != nil {
			return err
		}
		dst, err := r.paths.ArtifactPath(batchID, c.dst)
		if err != nil {
			return err
		}

		ok, err := fileops.Exists(src)
		if err != nil {
			return batch.IO(op, batchID, err)
		}
		if !ok {
			r.logger.Debug("artifact absent, not copied", "op", op, "batch_id", batchID, "file", c.src)
			continue
		}

		if err := j.Copy(src, dst); err != nil {
			return batch.IO(op, batchID, err)
		}
	}

	for _, h := range fx.hocr {
		if err := r.copyHocr(op, batchID, h.src, h.dst, j); err != nil {
			return err
		}
	}

	for _, name := range fx.removals {
		p, err := r.paths.ArtifactPath(batchID, name)
		if err != nil {
			return err
		}
		if err := j.Remove(p); err != nil {
			return batch.IO(op, batchID, err)
		}
	}

	return nil
}

// copyHocr rewrites the structured OCR document of fromPage for toPage.
func (r *repo) copyHocr(op, batchID, fromPage, toPage string, j *fileops.Journal) error {
	src, err := r.paths.ArtifactPath(batchID, batch.HocrXMLName(batchID, fromPage))
	if err != nil {
		return err
	}
	dst, err := r.paths.ArtifactPath(batchID, batch.HocrXMLName(batchID, toPage))
	if err != nil {
		return err
	}

	data, err := os.ReadFile(src)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return batch.IO(op, batchID, err)
	}

	pages, err := batch.DecodeHocr(bytes.NewReader(data))
	if err != nil {
		return err
	}
	for i := range pages.Pages {
		if pages.Pages[i].PageID == fromPage {
			pages.Pages[i].PageID = toPage
		}
	}

	var buf bytes.Buffer
	if err := batch.EncodeHocr(&buf, pages); err != nil {
		return batch.IO(op, batchID, err)
	}

	j.Create(dst)
	if err := fileops.WriteFileAtomic(dst, &buf, 0o644); err != nil {
		return batch.IO(op, batchID, err)
	}
	return nil
}
