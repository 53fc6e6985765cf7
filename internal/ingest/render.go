package ingest

import (
	"bytes"
	"context"
	"fmt"
	"runtime"

	"github.com/JaimeStill/document-context/pkg/config"
	"github.com/JaimeStill/document-context/pkg/document"
	"github.com/JaimeStill/document-context/pkg/image"

	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/dcma/pkg/fileops"
)

// RenderFunc rasterizes every page of the PDF at pdfPath, writing page i to dest[i].
type RenderFunc func(ctx context.Context, pdfPath string, dest []string) error

// RenderPDF renders pages through ImageMagick with bounded concurrency.
func RenderPDF(ctx context.Context, pdfPath string, dest []string) error {
	pdfDoc, err := document.OpenPDF(pdfPath)
	if err != nil {
		return fmt.Errorf("open pdf: %w", err)
	}
	defer pdfDoc.Close()

	renderer, err := image.NewImageMagickRenderer(config.DefaultImageConfig())
	if err != nil {
		return fmt.Errorf("create renderer: %w", err)
	}

	pages, err := pdfDoc.ExtractAllPages()
	if err != nil {
		return fmt.Errorf("extract pages: %w", err)
	}
	if len(pages) != len(dest) {
		return fmt.Errorf("pdf has %d pages, expected %d", len(pages), len(dest))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(renderWorkerCount(len(pages)))

	for i, page := range pages {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}

			data, err := page.ToImage(renderer, nil)
			if err != nil {
				return fmt.Errorf("render page %d: %w", i+1, err)
			}
			if err := fileops.WriteFileAtomic(dest[i], bytes.NewReader(data), 0o644); err != nil {
				return fmt.Errorf("write page %d image: %w", i+1, err)
			}
			return nil
		})
	}

	return g.Wait()
}

func renderWorkerCount(pageCount int) int {
	return max(min(runtime.NumCPU(), pageCount), 1)
}
