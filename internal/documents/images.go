package documents

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/JaimeStill/dcma/internal/batch"
	"github.com/JaimeStill/dcma/internal/imaging"
	"github.com/JaimeStill/dcma/pkg/fileops"
)

func (r *repo) ThumbnailPath(ctx context.Context, batchID, docID, pageID string) (string, error) {
	return r.imagePath(ctx, "thumbnail path", batchID, docID, pageID, func(p *batch.Page) string {
		return p.ThumbnailFileName
	})
}

func (r *repo) DisplayImagePath(ctx context.Context, batchID, docID, pageID string) (string, error) {
	return r.imagePath(ctx, "display image path", batchID, docID, pageID, func(p *batch.Page) string {
		return p.DisplayFileName
	})
}

func (r *repo) imagePath(
	ctx context.Context,
	op, batchID, docID, pageID string,
	name func(*batch.Page) string,
) (string, error) {
	b, err := r.store.Get(ctx, batchID)
	if err != nil {
		return "", err
	}

	_, p, _, err := findPage(b, op, docID, pageID)
	if err != nil {
		return "", err
	}

	file := name(p)
	if file == "" {
		return "", &batch.Error{Op: op, BatchID: batchID, DocumentID: docID, PageID: pageID, Err: ErrNoImage}
	}
	return r.paths.ArtifactPath(batchID, file)
}

// RenderImages regenerates the thumbnail and display images of a page from its
// working image. Existing renditions are staged aside until the store write
// succeeds and restored if it fails.
func (r *repo) RenderImages(ctx context.Context, batchID, docID, pageID string) (*batch.Batch, error) {
	const op = "render images"

	current, err := r.store.Get(ctx, batchID)
	if err != nil {
		return nil, err
	}
	next := current.Clone()

	_, p, _, err := findPage(next, op, docID, pageID)
	if err != nil {
		return nil, err
	}

	source := sourceImage(p)
	if source == "" {
		return nil, &batch.Error{Op: op, BatchID: batchID, DocumentID: docID, PageID: pageID, Err: ErrNoImage}
	}
	src, err := r.paths.ArtifactPath(batchID, source)
	if err != nil {
		return nil, err
	}

	if p.ThumbnailFileName == "" {
		p.ThumbnailFileName = batch.ThumbnailName(batchID, pageID)
	}
	if p.DisplayFileName == "" {
		p.DisplayFileName = batch.DisplayName(batchID, pageID)
	}

	thumb, err := r.paths.ArtifactPath(batchID, p.ThumbnailFileName)
	if err != nil {
		return nil, err
	}
	display, err := r.paths.ArtifactPath(batchID, p.DisplayFileName)
	if err != nil {
		return nil, err
	}

	j := fileops.NewJournal()
	for _, path := range []string{thumb, display} {
		if err := j.Remove(path); err != nil {
			r.rollback(op, batchID, j)
			return nil, batch.IO(op, batchID, err)
		}
		j.Create(path)
	}

	if err := imaging.Render(src, thumb, display, r.imaging); err != nil {
		r.rollback(op, batchID, j)
		return nil, &batch.Error{Op: op, BatchID: batchID, DocumentID: docID, PageID: pageID, Err: fmt.Errorf("%w: %w", batch.ErrIO, err)}
	}

	if err := r.store.Update(ctx, next, ""); err != nil {
		r.rollback(op, batchID, j)
		return nil, err
	}
	if err := j.Commit(); err != nil {
		r.logger.Warn("replaced images not removed", "batch_id", batchID, "page_id", pageID, "error", err)
	}

	r.logger.Info(op, "batch_id", batchID, "document_id", docID, "page_id", pageID)
	return next, nil
}

// Export assembles the page images of a document into a single PDF in the
// batch export folder and returns its path.
func (r *repo) Export(ctx context.Context, batchID, docID string) (string, error) {
	const op = "export document"

	b, err := r.store.Get(ctx, batchID)
	if err != nil {
		return "", err
	}
	d, _, err := findDocument(b, op, docID)
	if err != nil {
		return "", err
	}

	images := make([]string, 0, len(d.Pages))
	for _, p := range d.Pages {
		source := sourceImage(p)
		if source == "" {
			return "", &batch.Error{Op: op, BatchID: batchID, DocumentID: docID, PageID: p.Identifier, Err: ErrNoImage}
		}
		path, err := r.paths.ArtifactPath(batchID, source)
		if err != nil {
			return "", err
		}
		images = append(images, path)
	}

	dir, err := r.paths.ExportFolder(batchID, true)
	if err != nil {
		return "", err
	}

	out := filepath.Join(dir, fmt.Sprintf("%s_%s.pdf", batchID, docID))
	tmp := filepath.Join(dir, ".partial-"+filepath.Base(out))
	_ = os.Remove(tmp)

	if err := api.ImportImagesFile(images, tmp, nil, nil); err != nil {
		_ = os.Remove(tmp)
		return "", batch.IO(op, batchID, fmt.Errorf("assemble pdf: %w", err))
	}
	if err := os.Rename(tmp, out); err != nil {
		_ = os.Remove(tmp)
		return "", batch.IO(op, batchID, err)
	}

	r.logger.Info(op, "batch_id", batchID, "document_id", docID, "pages", len(images), "path", out)
	return out, nil
}

func sourceImage(p *batch.Page) string {
	if p.NewFileName != "" {
		return p.NewFileName
	}
	return p.OldFileName
}
