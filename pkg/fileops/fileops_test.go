package fileops_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JaimeStill/dcma/pkg/fileops"
)

func write(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func read(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func TestWriteFileAtomicReplaces(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "batch.xml")
	write(t, path, "old")

	if err := fileops.WriteFileAtomic(path, strings.NewReader("new"), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	if got := read(t, path); got != "new" {
		t.Errorf("content: got %q, want new", got)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %d entries", len(entries))
	}
}

func TestCopyFileRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a")
	dst := filepath.Join(dir, "b")
	write(t, src, "a")
	write(t, dst, "b")

	if err := fileops.CopyFile(src, dst); err == nil {
		t.Fatal("expected error copying over existing file")
	}
	if got := read(t, dst); got != "b" {
		t.Errorf("destination modified: %q", got)
	}
}

func TestJournalRollback(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.png")
	victim := filepath.Join(dir, "victim.png")
	write(t, src, "image")
	write(t, victim, "keep me")

	j := fileops.NewJournal()
	if err := j.Copy(src, filepath.Join(dir, "copy.png")); err != nil {
		t.Fatalf("copy failed: %v", err)
	}
	if err := j.Remove(victim); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if ok, _ := fileops.Exists(victim); ok {
		t.Fatal("removed file still visible before commit")
	}

	if err := j.Rollback(); err != nil {
		t.Fatalf("rollback failed: %v", err)
	}

	if ok, _ := fileops.Exists(filepath.Join(dir, "copy.png")); ok {
		t.Error("copy survived rollback")
	}
	if got := read(t, victim); got != "keep me" {
		t.Errorf("victim content after rollback: %q", got)
	}
}

func TestJournalCommit(t *testing.T) {
	dir := t.TempDir()
	victim := filepath.Join(dir, "victim.png")
	write(t, victim, "bye")

	j := fileops.NewJournal()
	if err := j.Remove(victim); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if err := j.Remove(filepath.Join(dir, "missing.png")); err != nil {
		t.Fatalf("missing file should be ignored: %v", err)
	}
	if err := j.Commit(); err != nil {
		t.Fatalf("commit failed: %v", err)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("expected empty directory, got %d entries", len(entries))
	}

	if err := j.Rollback(); err != nil {
		t.Errorf("rollback after commit should be a no-op: %v", err)
	}
}
