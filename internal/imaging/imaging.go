// Package imaging derives thumbnail and display images from scanned page images.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"os"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"

	"github.com/JaimeStill/dcma/pkg/fileops"
)

// Render decodes the page image at src and writes PNG thumbnail and display
// renditions scaled to the configured widths. Either destination may be empty
// to skip it.
func Render(src, thumbPath, displayPath string, cfg Config) error {
	img, err := Decode(src)
	if err != nil {
		return err
	}

	targets := []struct {
		path  string
		width int
	}{
		{thumbPath, cfg.ThumbnailWidth},
		{displayPath, cfg.DisplayWidth},
	}

	for _, t := range targets {
		if t.path == "" {
			continue
		}
		if err := WritePNG(t.path, Scale(img, t.width)); err != nil {
			return fmt.Errorf("write %s: %w", t.path, err)
		}
	}

	return nil
}

// Decode reads a PNG, JPEG, or TIFF image from path.
func Decode(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// Scale resizes img to width, preserving aspect ratio. Images already at or
// below width are returned unchanged.
func Scale(img image.Image, width int) image.Image {
	b := img.Bounds()
	if b.Dx() <= width || b.Dx() == 0 {
		return img
	}

	height := max(b.Dy()*width/b.Dx(), 1)

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

// WritePNG encodes img as PNG and writes it atomically to path.
func WritePNG(path string, img image.Image) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return err
	}
	return fileops.WriteFileAtomic(path, &buf, 0o644)
}
