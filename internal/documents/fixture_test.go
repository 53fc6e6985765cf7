package documents_test

import (
	"context"
	"errors"
	"image"
	"image/color"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/JaimeStill/dcma/internal/batch"
	"github.com/JaimeStill/dcma/internal/documents"
	"github.com/JaimeStill/dcma/internal/imaging"
	"github.com/JaimeStill/dcma/internal/paths"
	"github.com/JaimeStill/dcma/internal/store"
)

type fixture struct {
	sys   documents.System
	store store.System
	paths *paths.Resolver
}

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFixture(t *testing.T, seed *batch.Batch) *fixture {
	t.Helper()
	return newFixtureWith(t, seed, nil)
}

// newFixtureWith builds a fixture whose store may be wrapped, for example to
// inject write failures.
func newFixtureWith(t *testing.T, seed *batch.Batch, wrap func(store.System) store.System) *fixture {
	t.Helper()
	root := t.TempDir()

	cfg := paths.Config{
		LocalFolder:  filepath.Join(root, "batches"),
		BaseFolder:   filepath.Join(root, "classes"),
		ExportFolder: filepath.Join(root, "export"),
	}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize paths: %v", err)
	}
	resolver, err := paths.New(cfg)
	if err != nil {
		t.Fatalf("new resolver: %v", err)
	}

	var s store.System = store.New(resolver, nil, quiet())
	if err := s.Create(context.Background(), seed); err != nil {
		t.Fatalf("seed batch: %v", err)
	}
	if wrap != nil {
		s = wrap(s)
	}

	img := imaging.Config{}
	if err := img.Finalize(nil); err != nil {
		t.Fatal(err)
	}

	f := &fixture{
		sys:   documents.New(s, resolver, img, quiet()),
		store: s,
		paths: resolver,
	}

	for _, d := range seed.Documents {
		for _, p := range d.Pages {
			for _, name := range p.Artifacts() {
				f.writeArtifact(t, seed.BatchInstanceIdentifier, name, "content of "+name)
			}
		}
	}

	return f
}

func (f *fixture) artifact(t *testing.T, batchID, name string) string {
	t.Helper()
	p, err := f.paths.ArtifactPath(batchID, name)
	if err != nil {
		t.Fatalf("artifact path: %v", err)
	}
	return p
}

func (f *fixture) writeArtifact(t *testing.T, batchID, name, content string) {
	t.Helper()
	if err := os.WriteFile(f.artifact(t, batchID, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write artifact %s: %v", name, err)
	}
}

func (f *fixture) exists(t *testing.T, batchID, name string) bool {
	t.Helper()
	_, err := os.Stat(f.artifact(t, batchID, name))
	return err == nil
}

func (f *fixture) reload(t *testing.T, batchID string) *batch.Batch {
	t.Helper()
	b, err := f.store.Get(context.Background(), batchID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	return b
}

func page(batchID, id string) *batch.Page {
	return &batch.Page{
		Identifier:        id,
		NewFileName:       batch.PageImageName(batchID, id),
		ThumbnailFileName: batch.ThumbnailName(batchID, id),
		PageLevelFields:   []batch.Field{{Name: "barcode", Value: id}},
	}
}

// scenario is batch B1 with D1 = [P1, P2] and D2 = [P3].
func scenario() *batch.Batch {
	return &batch.Batch{
		BatchInstanceIdentifier: "B1",
		BatchClassIdentifier:    "BC1",
		Documents: []*batch.Document{
			{Identifier: "D1", Type: "Invoice", Pages: []*batch.Page{page("B1", "P1"), page("B1", "P2")}},
			{Identifier: "D2", Type: "Receipt", Pages: []*batch.Page{page("B1", "P3")}},
		},
	}
}

// long is batch BI1 with DOC1 = [PG1..PG4] and DOC2 = [PG5, PG6].
func long() *batch.Batch {
	return &batch.Batch{
		BatchInstanceIdentifier: "BI1",
		BatchClassIdentifier:    "BC1",
		Documents: []*batch.Document{
			{
				Identifier:          "DOC1",
				Type:                "Invoice",
				Pages:               []*batch.Page{page("BI1", "PG1"), page("BI1", "PG2"), page("BI1", "PG3"), page("BI1", "PG4")},
				DocumentLevelFields: []batch.Field{{Name: "InvoiceNumber", Value: "A-17"}},
			},
			{
				Identifier: "DOC2",
				Type:       "Receipt",
				Pages:      []*batch.Page{page("BI1", "PG5"), page("BI1", "PG6")},
			},
		},
	}
}

func docIDs(b *batch.Batch) []string {
	ids := make([]string, len(b.Documents))
	for i, d := range b.Documents {
		ids[i] = d.Identifier
	}
	return ids
}

func pagesOf(t *testing.T, b *batch.Batch, docID string) []string {
	t.Helper()
	d, _ := b.FindDocument(docID)
	if d == nil {
		t.Fatalf("document %s missing; documents are %v", docID, docIDs(b))
	}
	return d.PageIDs()
}

func pngImage(t *testing.T, path string, shade uint8) {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 64, 96))
	for i := range img.Pix {
		img.Pix[i] = shade
	}
	img.Set(0, 0, color.White)
	if err := imaging.WritePNG(path, img); err != nil {
		t.Fatalf("write png: %v", err)
	}
}

// failingStore rejects every Update after delegating reads to the wrapped store.
type failingStore struct {
	store.System
}

var errWriteFailed = errors.New("disk full")

func (failingStore) Update(context.Context, *batch.Batch, string) error {
	return batch.IO("update batch", "", errWriteFailed)
}
