package hocr

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/dcma/internal/batch"
	"github.com/JaimeStill/dcma/internal/paths"
	"github.com/JaimeStill/dcma/internal/store"
	"github.com/JaimeStill/dcma/pkg/fileops"
)

type repo struct {
	store  store.System
	paths  *paths.Resolver
	cfg    Config
	logger *slog.Logger
}

// New creates an HOCR system over the given store and resolver.
func New(s store.System, p *paths.Resolver, cfg Config, logger *slog.Logger) System {
	return &repo{
		store:  s,
		paths:  p,
		cfg:    cfg,
		logger: logger.With("system", "hocr"),
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger)
}

func (r *repo) Lock(batchID string) (func() error, error) {
	return r.store.Lock(batchID)
}

func (r *repo) Engine() (Engine, error) {
	return Lookup(r.cfg.Engine)
}

func (r *repo) GeneratePage(ctx context.Context, batchID, pageID string) (*batch.HocrPage, error) {
	b, err := r.store.Get(ctx, batchID)
	if err != nil {
		return nil, err
	}

	_, p := b.FindPage(pageID)
	if p == nil {
		return nil, batch.NotFound("generate hocr", batchID, "", pageID)
	}
	return r.generate(batchID, p)
}

func (r *repo) GenerateBatch(ctx context.Context, batchID string) (*Report, error) {
	b, err := r.store.Get(ctx, batchID)
	if err != nil {
		return nil, err
	}

	var pages []*batch.Page
	for _, d := range b.Documents {
		pages = append(pages, d.Pages...)
	}

	errs := make([]error, len(pages))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Concurrency)

	for i, p := range pages {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			_, errs[i] = r.generate(batchID, p)
			return nil
		})
	}
	g.Wait()

	report := &Report{BatchID: batchID, Generated: []string{}, Failed: []PageFailure{}}
	for i, p := range pages {
		if errs[i] != nil {
			r.logger.Warn("hocr generation failed", "batch_id", batchID, "page_id", p.Identifier, "error", errs[i])
			report.Failed = append(report.Failed, PageFailure{PageID: p.Identifier, Error: errs[i].Error()})
			continue
		}
		report.Generated = append(report.Generated, p.Identifier)
	}

	r.logger.Info(
		"hocr batch generated",
		"batch_id", batchID,
		"generated", len(report.Generated),
		"failed", len(report.Failed),
	)
	return report, nil
}

func (r *repo) generate(batchID string, p *batch.Page) (*batch.HocrPage, error) {
	const op = "generate hocr"

	name := p.HocrFileName
	if name == "" {
		name = batch.HocrHTMLName(batchID, p.Identifier)
	}
	src, err := r.paths.ArtifactPath(batchID, name)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(src)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, batch.NotFound(op, batchID, "", p.Identifier)
		}
		return nil, batch.IO(op, batchID, err)
	}
	defer f.Close()

	page, err := Parse(f, p.Identifier)
	if err != nil {
		var be *batch.Error
		if errors.As(err, &be) {
			be.BatchID = batchID
		}
		return nil, err
	}
	if page.ImageName == "" {
		page.ImageName = p.NewFileName
	}

	if err := r.write(batchID, p.Identifier, &batch.HocrPages{Pages: []batch.HocrPage{*page}}); err != nil {
		return nil, err
	}
	return page, nil
}

func (r *repo) Create(ctx context.Context, batchID, pageID string, pages *batch.HocrPages) error {
	if pages == nil {
		return batch.Invalid("create hocr", batchID, "hocr pages required")
	}
	if ok, err := r.store.Exists(ctx, batchID); err != nil {
		return err
	} else if !ok {
		return batch.NotFound("create hocr", batchID, "", "")
	}
	return r.write(batchID, pageID, pages)
}

func (r *repo) write(batchID, pageID string, pages *batch.HocrPages) error {
	const op = "write hocr"

	dst, err := r.paths.ArtifactPath(batchID, batch.HocrXMLName(batchID, pageID))
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := batch.EncodeHocr(&buf, pages); err != nil {
		return batch.IO(op, batchID, err)
	}
	if err := fileops.WriteFileAtomic(dst, &buf, 0o644); err != nil {
		return batch.IO(op, batchID, err)
	}
	return nil
}

func (r *repo) Get(ctx context.Context, batchID, pageID string) (*batch.HocrPages, error) {
	const op = "get hocr"

	src, err := r.paths.ArtifactPath(batchID, batch.HocrXMLName(batchID, pageID))
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(src)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, batch.NotFound(op, batchID, "", pageID)
		}
		return nil, batch.IO(op, batchID, err)
	}

	pages, err := batch.DecodeHocr(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return pages, nil
}

func (r *repo) Recognize(ctx context.Context, batchID, pageID string, engine Engine) (*batch.HocrPage, error) {
	const op = "recognize page"

	current, err := r.store.Get(ctx, batchID)
	if err != nil {
		return nil, err
	}
	next := current.Clone()

	_, p := next.FindPage(pageID)
	if p == nil {
		return nil, batch.NotFound(op, batchID, "", pageID)
	}

	image := p.OCRInputFileName
	if image == "" {
		image = p.NewFileName
	}
	if image == "" {
		return nil, batch.Invalid(op, batchID, "page "+pageID+" has no image")
	}
	src, err := r.paths.ArtifactPath(batchID, image)
	if err != nil {
		return nil, err
	}

	markup, err := engine.HOCR(ctx, src, r.cfg.Languages)
	if err != nil {
		return nil, batch.IO(op, batchID, err)
	}

	name := batch.HocrHTMLName(batchID, pageID)
	dst, err := r.paths.ArtifactPath(batchID, name)
	if err != nil {
		return nil, err
	}
	xmlPath, err := r.paths.ArtifactPath(batchID, batch.HocrXMLName(batchID, pageID))
	if err != nil {
		return nil, err
	}

	j := fileops.NewJournal()
	for _, path := range []string{dst, xmlPath} {
		if err := j.Remove(path); err != nil {
			r.rollback(batchID, j)
			return nil, batch.IO(op, batchID, err)
		}
		j.Create(path)
	}

	if err := fileops.WriteFileAtomic(dst, bytes.NewReader(markup), 0o644); err != nil {
		r.rollback(batchID, j)
		return nil, batch.IO(op, batchID, err)
	}

	renamed := p.HocrFileName != name
	p.HocrFileName = name

	page, err := r.generate(batchID, p)
	if err != nil {
		r.rollback(batchID, j)
		return nil, err
	}

	if renamed {
		if err := r.store.Update(ctx, next, ""); err != nil {
			r.rollback(batchID, j)
			return nil, err
		}
	}

	if err := j.Commit(); err != nil {
		r.logger.Warn("staged hocr markup not removed", "batch_id", batchID, "error", err)
	}

	r.logger.Info(op, "batch_id", batchID, "page_id", pageID, "engine", engine.Name(), "lines", len(page.Lines))
	return page, nil
}

func (r *repo) rollback(batchID string, j *fileops.Journal) {
	if err := j.Rollback(); err != nil {
		r.logger.Error("hocr rollback incomplete", "batch_id", batchID, "error", err)
	}
}
