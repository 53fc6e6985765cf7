// Package tesseract provides an hOCR engine backed by the Tesseract OCR library.
package tesseract

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"

	"github.com/JaimeStill/dcma/internal/hocr"
)

// Name is the registry name of the engine.
const Name = "tesseract"

func init() {
	hocr.Register(New())
}

// Engine implements hocr.Engine with a gosseract client per call.
type Engine struct {
	clientFactory func() *gosseract.Client
}

// New constructs a Tesseract-backed engine.
func New() *Engine {
	return &Engine{clientFactory: gosseract.NewClient}
}

func (e *Engine) Name() string { return Name }

// HOCR recognizes the image at imagePath and returns the page as hOCR markup.
func (e *Engine) HOCR(ctx context.Context, imagePath string, languages []string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c := e.clientFactory()
	defer c.Close()

	if err := c.SetImage(imagePath); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}
	if len(languages) > 0 {
		if err := c.SetLanguage(languages...); err != nil {
			return nil, fmt.Errorf("set languages: %w", err)
		}
	}

	out, err := c.HOCRText()
	if err != nil {
		return nil, fmt.Errorf("recognize %s: %w", imagePath, err)
	}
	return []byte(out), nil
}
