package store

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/JaimeStill/dcma/internal/batch"
	"github.com/JaimeStill/dcma/pkg/fileops"
	"github.com/JaimeStill/dcma/pkg/storage"
)

const (
	backupFolder = "backup"
	backupPrefix = "backups"
)

func (r *repo) StoreFiles(ctx context.Context, batchID string, files []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := r.paths.BatchFolder(batchID, true); err != nil {
		return err
	}

	targets := make([]string, len(files))
	for i, src := range files {
		dst, err := r.paths.ArtifactPath(batchID, filepath.Base(src))
		if err != nil {
			return err
		}
		targets[i] = dst
	}

	j := fileops.NewJournal()
	for i, src := range files {
		if err := r.replace(j, src, targets[i]); err != nil {
			r.rollback(batchID, j)
			return fileError("store files", batchID, err)
		}
	}
	if err := j.Commit(); err != nil {
		r.logger.Warn("replaced files not removed", "batch_id", batchID, "error", err)
	}

	r.logger.Info("files stored", "batch_id", batchID, "files", len(files))
	return nil
}

func (r *repo) BackUpFiles(ctx context.Context, batchID string, names []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir, err := r.paths.ArtifactPath(batchID, backupFolder)
	if err != nil {
		return err
	}

	sources := make([]string, len(names))
	for i, name := range names {
		if sources[i], err = r.File(batchID, name); err != nil {
			return err
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return batch.IO("back up files", batchID, err)
	}

	j := fileops.NewJournal()
	for i, name := range names {
		if err := r.replace(j, sources[i], filepath.Join(dir, name)); err != nil {
			r.rollback(batchID, j)
			return fileError("back up files", batchID, err)
		}
	}
	if err := j.Commit(); err != nil {
		r.logger.Warn("replaced backups not removed", "batch_id", batchID, "error", err)
	}

	for i, name := range names {
		r.archiveFile(ctx, batchID, name, sources[i])
	}

	r.logger.Info("files backed up", "batch_id", batchID, "files", len(names))
	return nil
}

func (r *repo) File(batchID, name string) (string, error) {
	p, err := r.paths.ArtifactPath(batchID, name)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && !info.Mode().IsRegular()) {
		return "", batch.NotFound("get file "+name, batchID, "", "")
	}
	if err != nil {
		return "", batch.IO("get file", batchID, err)
	}
	return p, nil
}

func (r *repo) Open(ctx context.Context, batchID, name string) (io.ReadCloser, error) {
	p, err := r.File(batchID, name)
	if err == nil {
		f, err := os.Open(p)
		if err != nil {
			return nil, batch.IO("open file", batchID, err)
		}
		return f, nil
	}
	if !errors.Is(err, batch.ErrNotFound) || r.archive == nil {
		return nil, err
	}

	rc, aerr := r.archive.Download(ctx, backupKey(batchID, name))
	if errors.Is(aerr, storage.ErrNotFound) {
		return nil, err
	}
	if aerr != nil {
		return nil, batch.IO("open file", batchID, aerr)
	}
	return rc, nil
}

// replace copies src over dst, staging any existing dst so a rollback
// restores it.
func (r *repo) replace(j *fileops.Journal, src, dst string) error {
	if err := j.Remove(dst); err != nil {
		return err
	}
	return j.Copy(src, dst)
}

// archiveFile uploads a backed up file. The local backup is authoritative so
// failures are only logged.
func (r *repo) archiveFile(ctx context.Context, batchID, name, src string) {
	if r.archive == nil {
		return
	}
	f, err := os.Open(src)
	if err != nil {
		r.logger.Warn("backup archive failed", "batch_id", batchID, "file", name, "error", err)
		return
	}
	defer f.Close()

	if err := r.archive.Upload(ctx, backupKey(batchID, name), f, "application/octet-stream"); err != nil {
		r.logger.Warn("backup archive failed", "batch_id", batchID, "file", name, "error", err)
	}
}

func backupKey(batchID, name string) string {
	return backupPrefix + "/" + batchID + "/" + name
}

func fileError(op, batchID string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return batch.NotFound(op, batchID, "", "")
	}
	return batch.IO(op, batchID, err)
}
