// Package hocr converts OCR engine hOCR markup into the structured HocrPages
// documents stored next to each page, and drives OCR engines over page images.
package hocr

import (
	"context"

	"github.com/JaimeStill/dcma/internal/batch"
)

// System generates and persists the structured OCR documents of a batch.
type System interface {
	Handler() *Handler

	// GeneratePage parses the page's hOCR markup and writes its HOCR XML document.
	GeneratePage(ctx context.Context, batchID, pageID string) (*batch.HocrPage, error)
	// GenerateBatch runs GeneratePage for every page. A page that fails is
	// reported in the result and does not stop its siblings.
	GenerateBatch(ctx context.Context, batchID string) (*Report, error)

	Create(ctx context.Context, batchID, pageID string, pages *batch.HocrPages) error
	Get(ctx context.Context, batchID, pageID string) (*batch.HocrPages, error)

	// Recognize runs engine over the page image, stores the hOCR markup and
	// generates the page's HOCR XML document from it.
	Recognize(ctx context.Context, batchID, pageID string, engine Engine) (*batch.HocrPage, error)

	// Engine returns the configured default engine.
	Engine() (Engine, error)
	Lock(batchID string) (release func() error, err error)
}

// Report summarizes a batch generation run.
type Report struct {
	BatchID   string        `json:"batch_id"`
	Generated []string      `json:"generated"`
	Failed    []PageFailure `json:"failed"`
}

// PageFailure records why one page could not be generated.
type PageFailure struct {
	PageID string `json:"page_id"`
	Error  string `json:"error"`
}
