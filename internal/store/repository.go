package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"slices"
	"strings"
	"sync"

	"github.com/JaimeStill/dcma/internal/batch"
	"github.com/JaimeStill/dcma/pkg/fileops"
)

const checkpointPrefix = "checkpoints"

func (r *repo) Get(ctx context.Context, batchID string) (*batch.Batch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := r.readRaw("get batch", batchID)
	if err != nil {
		return nil, err
	}

	b, err := batch.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, batch.Corrupt("get batch", batchID, err)
	}
	if b.BatchInstanceIdentifier != batchID {
		return nil, batch.Corrupt(
			"get batch", batchID,
			fmt.Errorf("document belongs to batch %s", b.BatchInstanceIdentifier),
		)
	}
	if err := b.Validate(); err != nil {
		return nil, batch.Corrupt("get batch", batchID, err)
	}

	return b, nil
}

func (r *repo) Create(ctx context.Context, b *batch.Batch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := b.Validate(); err != nil {
		return err
	}
	b.SyncSequences()

	id := b.BatchInstanceIdentifier
	ok, err := r.Exists(ctx, id)
	if err != nil {
		return err
	}
	if ok {
		return batch.Exists("create batch", id)
	}

	if _, err := r.paths.BatchFolder(id, true); err != nil {
		return err
	}

	data, err := batch.Marshal(b)
	if err != nil {
		return batch.IO("create batch", id, err)
	}
	if err := r.write("create batch", id, data); err != nil {
		return err
	}

	r.logger.Info("batch created", "batch_id", id, "documents", len(b.Documents), "pages", b.PageCount())
	return nil
}

func (r *repo) Update(ctx context.Context, b *batch.Batch, stage string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := b.Validate(); err != nil {
		return err
	}

	id := b.BatchInstanceIdentifier
	ok, err := r.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return batch.NotFound("update batch", id, "", "")
	}

	data, err := batch.Marshal(b)
	if err != nil {
		return batch.IO("update batch", id, err)
	}

	// The checkpoint file is written before the document so the document
	// write stays the final durable step. A failed document write restores
	// the previous checkpoint of that stage.
	j := fileops.NewJournal()
	if stage != "" {
		if err := r.checkpoint(id, stage, data, j); err != nil {
			r.rollback(id, j)
			return err
		}
	}

	if err := r.write("update batch", id, data); err != nil {
		r.rollback(id, j)
		return err
	}
	if err := j.Commit(); err != nil {
		r.logger.Warn("replaced checkpoint not removed", "batch_id", id, "stage", stage, "error", err)
	}

	if stage != "" {
		r.upload(ctx, id, stage, data)
	}

	r.logger.Debug("batch updated", "batch_id", id, "stage", stage)
	return nil
}

func (r *repo) BackUp(ctx context.Context, batchID, stage string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if stage == "" {
		return batch.Invalid("back up batch", batchID, "stage name required")
	}

	data, err := r.readRaw("back up batch", batchID)
	if err != nil {
		return err
	}

	j := fileops.NewJournal()
	if err := r.checkpoint(batchID, stage, data, j); err != nil {
		r.rollback(batchID, j)
		return err
	}
	if err := j.Commit(); err != nil {
		r.logger.Warn("replaced checkpoint not removed", "batch_id", batchID, "stage", stage, "error", err)
	}
	r.upload(ctx, batchID, stage, data)

	r.logger.Info("batch backed up", "batch_id", batchID, "stage", stage)
	return nil
}

func (r *repo) Checkpoints(ctx context.Context, batchID string) ([]string, error) {
	dir, err := r.paths.BatchFolder(batchID, false)
	if err != nil {
		return nil, err
	}

	stages := make(map[string]bool)

	entries, err := os.ReadDir(dir)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, batch.IO("list checkpoints", batchID, err)
	}
	for _, e := range entries {
		if s, ok := stageOf(batchID, e.Name()); ok {
			stages[s] = true
		}
	}

	if r.archive != nil {
		keys, err := r.archive.List(ctx, archivePrefix(batchID))
		if err != nil {
			r.logger.Warn("checkpoint archive listing failed", "batch_id", batchID, "error", err)
		}
		for _, k := range keys {
			stages[strings.TrimSuffix(path.Base(k), ".xml")] = true
		}
	}

	out := make([]string, 0, len(stages))
	for s := range stages {
		out = append(out, s)
	}
	slices.Sort(out)
	return out, nil
}

func (r *repo) Exists(ctx context.Context, batchID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	p, _, err := r.locate(batchID)
	if err != nil {
		return false, err
	}
	return p != "", nil
}

func (r *repo) Delete(ctx context.Context, batchID string) error {
	ok, err := r.Exists(ctx, batchID)
	if err != nil {
		return err
	}
	if !ok {
		return batch.NotFound("delete batch", batchID, "", "")
	}

	dir, err := r.paths.BatchFolder(batchID, false)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(dir); err != nil {
		return batch.IO("delete batch", batchID, err)
	}

	if r.archive != nil {
		for _, prefix := range []string{archivePrefix(batchID), backupKey(batchID, "")} {
			keys, err := r.archive.List(ctx, prefix)
			if err != nil {
				r.logger.Warn("archive listing failed", "batch_id", batchID, "prefix", prefix, "error", err)
			}
			for _, k := range keys {
				if err := r.archive.Delete(ctx, k); err != nil {
					r.logger.Warn("archived file not deleted", "batch_id", batchID, "key", k, "error", err)
				}
			}
		}
	}

	r.logger.Info("batch deleted", "batch_id", batchID)
	return nil
}

func (r *repo) Lock(batchID string) (func() error, error) {
	marker, err := r.paths.LockFolder(batchID)
	if err != nil {
		return nil, err
	}

	if err := os.Mkdir(marker, 0o755); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, batch.Locked("lock batch", batchID)
		}
		return nil, batch.IO("lock batch", batchID, err)
	}

	var once sync.Once
	var releaseErr error
	release := func() error {
		once.Do(func() {
			if err := os.Remove(marker); err != nil && !errors.Is(err, fs.ErrNotExist) {
				releaseErr = batch.IO("unlock batch", batchID, err)
			}
		})
		return releaseErr
	}

	return release, nil
}

func (r *repo) checkpoint(batchID, stage string, data []byte, j *fileops.Journal) error {
	if err := checkStage(batchID, stage); err != nil {
		return err
	}
	p, err := r.paths.ArtifactPath(batchID, CheckpointName(batchID, stage))
	if err != nil {
		return err
	}
	if err := j.Remove(p); err != nil {
		return batch.IO("write checkpoint", batchID, err)
	}
	j.Create(p)
	if err := fileops.WriteFileAtomic(p, bytes.NewReader(data), 0o644); err != nil {
		return batch.IO("write checkpoint", batchID, err)
	}
	return nil
}

func (r *repo) rollback(batchID string, j *fileops.Journal) {
	if err := j.Rollback(); err != nil {
		r.logger.Error("checkpoint rollback incomplete", "batch_id", batchID, "error", err)
	}
}

// upload archives a checkpoint. The local checkpoint is authoritative so
// failures are only logged.
func (r *repo) upload(ctx context.Context, batchID, stage string, data []byte) {
	if r.archive == nil {
		return
	}
	key := archivePrefix(batchID) + stage + ".xml"
	if err := r.archive.Upload(ctx, key, bytes.NewReader(data), "application/xml"); err != nil {
		r.logger.Warn("checkpoint archive failed", "batch_id", batchID, "stage", stage, "error", err)
	}
}

func archivePrefix(batchID string) string {
	return checkpointPrefix + "/" + batchID + "/"
}

func checkStage(batchID, stage string) error {
	if stage == "" || strings.ContainsAny(stage, `/\ `) || strings.Contains(stage, "..") {
		return batch.Invalid("checkpoint", batchID, fmt.Sprintf("invalid stage name %q", stage))
	}
	return nil
}

func stageOf(batchID, name string) (string, bool) {
	rest, ok := strings.CutPrefix(name, batchID+"_")
	if !ok {
		return "", false
	}
	stage, ok := strings.CutSuffix(rest, documentSuffix)
	if !ok || stage == "" {
		return "", false
	}
	return stage, true
}
