package store_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/JaimeStill/dcma/internal/batch"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func TestStoreFiles(t *testing.T) {
	f := setup(t, false)
	ctx := context.Background()

	src := filepath.Join(f.root, "inbound")
	writeFile(t, filepath.Join(src, "a.tif"), "new a")
	writeFile(t, filepath.Join(src, "b.tif"), "b")

	existing, _ := f.paths.ArtifactPath("BI1", "a.tif")
	writeFile(t, existing, "old a")

	err := f.store.StoreFiles(ctx, "BI1", []string{
		filepath.Join(src, "a.tif"),
		filepath.Join(src, "b.tif"),
	})
	if err != nil {
		t.Fatalf("store files failed: %v", err)
	}

	if got := readFile(t, existing); got != "new a" {
		t.Errorf("a.tif: got %q", got)
	}
	p, err := f.store.File("BI1", "b.tif")
	if err != nil {
		t.Fatalf("file failed: %v", err)
	}
	if got := readFile(t, p); got != "b" {
		t.Errorf("b.tif: got %q", got)
	}
}

func TestStoreFilesRollsBack(t *testing.T) {
	f := setup(t, false)
	ctx := context.Background()

	src := filepath.Join(f.root, "inbound")
	writeFile(t, filepath.Join(src, "a.tif"), "new a")

	existing, _ := f.paths.ArtifactPath("BI1", "a.tif")
	writeFile(t, existing, "old a")

	err := f.store.StoreFiles(ctx, "BI1", []string{
		filepath.Join(src, "a.tif"),
		filepath.Join(src, "missing.tif"),
	})
	if !errors.Is(err, batch.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}

	if got := readFile(t, existing); got != "old a" {
		t.Errorf("a.tif not restored: got %q", got)
	}
	if _, err := f.store.File("BI1", "missing.tif"); !errors.Is(err, batch.ErrNotFound) {
		t.Errorf("missing.tif: got %v", err)
	}
}

func TestStoreFilesRejectsName(t *testing.T) {
	f := setup(t, false)

	err := f.store.StoreFiles(context.Background(), "BI1", []string{string(filepath.Separator)})
	if !errors.Is(err, batch.ErrInvalidArgument) {
		t.Errorf("got %v, want ErrInvalidArgument", err)
	}
}

func TestBackUpFiles(t *testing.T) {
	f := setup(t, false)
	ctx := context.Background()

	if err := f.store.Create(ctx, sample("BI1")); err != nil {
		t.Fatal(err)
	}
	page, _ := f.paths.ArtifactPath("BI1", "PG1.tif")
	writeFile(t, page, "pixels")

	if err := f.store.BackUpFiles(ctx, "BI1", []string{"PG1.tif"}); err != nil {
		t.Fatalf("back up files failed: %v", err)
	}

	dir, _ := f.paths.ArtifactPath("BI1", "backup")
	if got := readFile(t, filepath.Join(dir, "PG1.tif")); got != "pixels" {
		t.Errorf("backup: got %q", got)
	}
	if ok, _ := f.archive.Exists(ctx, "backups/BI1/PG1.tif"); !ok {
		t.Error("backup not archived")
	}

	if err := f.store.BackUpFiles(ctx, "BI1", []string{"PG9.tif"}); !errors.Is(err, batch.ErrNotFound) {
		t.Errorf("missing file: got %v, want ErrNotFound", err)
	}

	if err := f.store.Delete(ctx, "BI1"); err != nil {
		t.Fatal(err)
	}
	if ok, _ := f.archive.Exists(ctx, "backups/BI1/PG1.tif"); ok {
		t.Error("archived backup survived delete")
	}
}

func TestOpen(t *testing.T) {
	f := setup(t, false)
	ctx := context.Background()

	page, _ := f.paths.ArtifactPath("BI1", "PG1.tif")
	writeFile(t, page, "pixels")
	if err := f.store.BackUpFiles(ctx, "BI1", []string{"PG1.tif"}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		prepare func()
		file    string
		want    string
		wantErr error
	}{
		{name: "local", file: "PG1.tif", want: "pixels"},
		{
			name:    "archived backup",
			prepare: func() { os.Remove(page) },
			file:    "PG1.tif",
			want:    "pixels",
		},
		{name: "missing", file: "PG2.tif", wantErr: batch.ErrNotFound},
		{name: "directory", file: "backup", wantErr: batch.ErrNotFound},
		{name: "traversal", file: "..", wantErr: batch.ErrInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.prepare != nil {
				tt.prepare()
			}
			rc, err := f.store.Open(ctx, "BI1", tt.file)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("got %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("open failed: %v", err)
			}
			defer rc.Close()

			data, err := io.ReadAll(rc)
			if err != nil {
				t.Fatal(err)
			}
			if string(data) != tt.want {
				t.Errorf("got %q, want %q", data, tt.want)
			}
		})
	}
}

func TestCopyFolder(t *testing.T) {
	f := setup(t, false)
	ctx := context.Background()

	src := filepath.Join(f.root, "scans")
	writeFile(t, filepath.Join(src, "p1.TIF"), "1")
	writeFile(t, filepath.Join(src, "sub", "p2.tiff"), "2")
	writeFile(t, filepath.Join(src, "notes.txt"), "skip")

	copied, err := f.store.CopyFolder(ctx, src, "unc", "BC1")
	if err != nil {
		t.Fatalf("copy folder failed: %v", err)
	}
	slices.Sort(copied)
	if !slices.Equal(copied, []string{"p1.TIF", "sub/p2.tiff"}) {
		t.Errorf("copied: got %v", copied)
	}

	dst, _ := f.paths.Named("BC1", "unc", false)
	if _, err := os.Stat(filepath.Join(dst, "notes.txt")); !os.IsNotExist(err) {
		t.Error("non image file copied")
	}

	if _, err := f.store.CopyFolder(ctx, filepath.Join(f.root, "none"), "unc", "BC1"); !errors.Is(err, batch.ErrNotFound) {
		t.Errorf("missing source: got %v, want ErrNotFound", err)
	}
	if _, err := f.store.CopyFolder(ctx, src, "../unc", "BC1"); !errors.Is(err, batch.ErrInvalidArgument) {
		t.Errorf("bad folder name: got %v, want ErrInvalidArgument", err)
	}
}

func TestCopyEmailFolder(t *testing.T) {
	f := setup(t, false)
	ctx := context.Background()

	email := f.paths.EmailFolder()
	writeFile(t, filepath.Join(email, "inbox-7", "message.eml"), "mail")
	writeFile(t, filepath.Join(email, "inbox-7", "scan.pdf"), "pdf")

	copied, err := f.store.CopyEmailFolder(ctx, "inbox-7", "BC1")
	if err != nil {
		t.Fatalf("copy email folder failed: %v", err)
	}
	slices.Sort(copied)
	if !slices.Equal(copied, []string{"message.eml", "scan.pdf"}) {
		t.Errorf("copied: got %v", copied)
	}

	dst, _ := f.paths.Named("BC1", "inbox-7", false)
	if got := readFile(t, filepath.Join(dst, "scan.pdf")); got != "pdf" {
		t.Errorf("scan.pdf: got %q", got)
	}

	if _, err := f.store.CopyEmailFolder(ctx, "..", "BC1"); !errors.Is(err, batch.ErrInvalidArgument) {
		t.Errorf("traversal: got %v, want ErrInvalidArgument", err)
	}
}

func TestDeleteDocTypeFolders(t *testing.T) {
	f := setup(t, false)
	ctx := context.Background()

	var folders []string
	for _, dt := range []string{"Invoice", "Receipt"} {
		dirs, err := f.paths.DocTypeFolders("BC1", dt)
		if err != nil {
			t.Fatal(err)
		}
		for _, d := range dirs {
			writeFile(t, filepath.Join(d, "sample.tif"), "x")
		}
		folders = append(folders, dirs...)
	}

	if err := f.store.DeleteDocTypeFolders(ctx, "BC1", []string{"Invoice", "Receipt"}); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	for _, d := range folders {
		if _, err := os.Stat(d); !os.IsNotExist(err) {
			t.Errorf("%s survived delete", d)
		}
	}

	err := f.store.DeleteDocTypeFolders(ctx, "BC1", []string{"Invoice", "../x"})
	if !errors.Is(err, batch.ErrInvalidArgument) {
		t.Errorf("got %v, want ErrInvalidArgument", err)
	}
}
