package fileops

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Extensions returns a filter accepting file names that end in one of exts,
// compared case-insensitively. Extensions include the dot.
func Extensions(exts ...string) func(name string) bool {
	return func(name string) bool {
		ext := strings.ToLower(filepath.Ext(name))
		return slices.ContainsFunc(exts, func(e string) bool {
			return strings.EqualFold(e, ext)
		})
	}
}

// CopyFolder copies the tree under src into dst, creating directories as
// needed. Only files accepted by keep are copied; a nil keep accepts every
// file. Existing destination files are replaced atomically. It returns the
// copied paths relative to dst, using forward slashes.
func CopyFolder(src, dst string, keep func(name string) bool) ([]string, error) {
	info, err := os.Stat(src)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("copy folder %s: not a directory", src)
	}

	var copied []string
	err = filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		switch {
		case d.IsDir():
			return os.MkdirAll(target, 0o755)
		case !d.Type().IsRegular():
			return nil
		case keep != nil && !keep(d.Name()):
			return nil
		}

		if err := replaceFile(path, target); err != nil {
			return fmt.Errorf("copy %s: %w", rel, err)
		}
		copied = append(copied, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return copied, err
	}
	return copied, nil
}

func replaceFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	return WriteFileAtomic(dst, in, info.Mode().Perm())
}
