package ingest

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/dcma/internal/batch"
	"github.com/JaimeStill/dcma/internal/imaging"
	"github.com/JaimeStill/dcma/internal/paths"
	"github.com/JaimeStill/dcma/internal/store"
)

type repo struct {
	store   store.System
	paths   *paths.Resolver
	imaging imaging.Config
	render  RenderFunc
	logger  *slog.Logger
}

// New creates an ingest system. A nil render uses RenderPDF.
func New(
	s store.System,
	p *paths.Resolver,
	img imaging.Config,
	render RenderFunc,
	logger *slog.Logger,
) System {
	if render == nil {
		render = RenderPDF
	}
	return &repo{
		store:   s,
		paths:   p,
		imaging: img,
		render:  render,
		logger:  logger.With("system", "ingest"),
	}
}

func (r *repo) Handler(maxUploadSize int64) *Handler {
	return NewHandler(r, r.logger, maxUploadSize)
}

func (r *repo) Lock(batchID string) (func() error, error) {
	return r.store.Lock(batchID)
}

func (r *repo) Ingest(ctx context.Context, cmd Command) (*batch.Batch, error) {
	const op = "ingest"

	if cmd.BatchID == "" {
		cmd.BatchID = NewBatchID()
	}
	if err := cmd.validate(); err != nil {
		return nil, err
	}
	id := cmd.BatchID

	release, err := r.store.Lock(id)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := release(); err != nil {
			r.logger.Error("batch lock not released", "batch_id", id, "error", err)
		}
	}()

	dir, err := r.paths.BatchFolder(id, false)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(dir); err == nil {
		return nil, batch.Exists(op, id)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, batch.IO(op, id, err)
	}

	tmpRoot, err := r.paths.TempFolder(true)
	if err != nil {
		return nil, err
	}
	tmp, err := os.MkdirTemp(tmpRoot, id+"-")
	if err != nil {
		return nil, batch.IO(op, id, err)
	}
	defer os.RemoveAll(tmp)

	src := filepath.Join(tmp, sourcePDF)
	if err := os.WriteFile(src, cmd.Data, 0o600); err != nil {
		return nil, batch.IO(op, id, err)
	}

	count, err := api.PageCountFile(src)
	if err != nil {
		return nil, batch.Invalid(op, id, "unreadable pdf: "+err.Error())
	}
	if count == 0 {
		return nil, batch.Invalid(op, id, "pdf has no pages")
	}

	if _, err := r.paths.BatchFolder(id, true); err != nil {
		return nil, err
	}

	b, err := r.build(ctx, cmd, src, dir, count)
	if err != nil {
		r.discard(id, dir)
		return nil, err
	}

	if err := r.store.Create(ctx, b); err != nil {
		r.discard(id, dir)
		return nil, err
	}

	r.logger.Info(
		"batch ingested",
		"batch_id", id,
		"batch_class_id", cmd.BatchClassID,
		"filename", cmd.Filename,
		"page_count", count,
	)
	return b, nil
}

// build renders the page images and assembles the batch tree.
func (r *repo) build(ctx context.Context, cmd Command, pdfPath, dir string, count int) (*batch.Batch, error) {
	const op = "ingest"
	id := cmd.BatchID

	b := &batch.Batch{
		BatchInstanceIdentifier: id,
		BatchClassIdentifier:    cmd.BatchClassID,
		BatchName:               cmd.name(),
		BatchStatus:             StatusReady,
		BatchLocalPath:          dir,
	}
	doc := &batch.Document{Identifier: b.NextDocumentID(), Type: UnknownType}

	dest := make([]string, count)
	for i := range count {
		pid := b.NextPageID()
		p := &batch.Page{
			Identifier:        pid,
			NewFileName:       batch.PageImageName(id, pid),
			ThumbnailFileName: batch.ThumbnailName(id, pid),
			DisplayFileName:   batch.DisplayName(id, pid),
		}
		doc.Pages = append(doc.Pages, p)
		dest[i] = filepath.Join(dir, p.NewFileName)
	}
	b.Documents = []*batch.Document{doc}

	if err := r.render(ctx, pdfPath, dest); err != nil {
		return nil, batch.IO(op, id, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(min(runtime.NumCPU(), count), 1))

	for i, p := range doc.Pages {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return imaging.Render(
				dest[i],
				filepath.Join(dir, p.ThumbnailFileName),
				filepath.Join(dir, p.DisplayFileName),
				r.imaging,
			)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, batch.IO(op, id, err)
	}

	return b, nil
}

func (r *repo) discard(id, dir string) {
	if err := os.RemoveAll(dir); err != nil {
		r.logger.Error("partial batch folder not removed", "batch_id", id, "error", err)
	}
}

func (r *repo) Delete(ctx context.Context, batchID string) error {
	if err := r.store.Delete(ctx, batchID); err != nil {
		return err
	}
	r.logger.Info("batch deleted", "batch_id", batchID)
	return nil
}

func (r *repo) BackUp(ctx context.Context, batchID, stage string) error {
	return r.store.BackUp(ctx, batchID, stage)
}

func (r *repo) Checkpoints(ctx context.Context, batchID string) ([]string, error) {
	return r.store.Checkpoints(ctx, batchID)
}
