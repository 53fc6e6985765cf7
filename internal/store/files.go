package store

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/klauspost/compress/zip"

	"github.com/JaimeStill/dcma/internal/batch"
	"github.com/JaimeStill/dcma/pkg/fileops"
)

const (
	documentSuffix = "_batch.xml"
	zipSuffix      = ".zip"
)

// DocumentName returns the file name of the persisted batch document.
func DocumentName(batchID string, zipped bool) string {
	name := batchID + documentSuffix
	if zipped {
		name += zipSuffix
	}
	return name
}

// CheckpointName returns the file name of a stage checkpoint.
func CheckpointName(batchID, stage string) string {
	return batchID + "_" + stage + documentSuffix
}

func (r *repo) documentPath(batchID string, zipped bool) (string, error) {
	return r.paths.ArtifactPath(batchID, DocumentName(batchID, zipped))
}

// locate returns the path of the persisted document, preferring the form
// selected by the zip switch. The returned path is empty when neither exists.
func (r *repo) locate(batchID string) (path string, zipped bool, err error) {
	preferred := r.paths.ZipSwitch()
	for _, z := range []bool{preferred, !preferred} {
		p, err := r.documentPath(batchID, z)
		if err != nil {
			return "", false, err
		}
		ok, err := fileops.Exists(p)
		if err != nil {
			return "", false, batch.IO("locate batch", batchID, err)
		}
		if ok {
			return p, z, nil
		}
	}
	return "", false, nil
}

// readRaw returns the uncompressed XML bytes of the persisted document.
func (r *repo) readRaw(op, batchID string) ([]byte, error) {
	path, zipped, err := r.locate(batchID)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return nil, batch.NotFound(op, batchID, "", "")
	}

	if !zipped {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, batch.NotFound(op, batchID, "", "")
			}
			return nil, batch.IO(op, batchID, err)
		}
		return data, nil
	}

	return readZipped(op, batchID, path)
}

func readZipped(op, batchID, path string) ([]byte, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, batch.NotFound(op, batchID, "", "")
		}
		return nil, batch.Corrupt(op, batchID, err)
	}
	defer zr.Close()

	want := DocumentName(batchID, false)
	for _, f := range zr.File {
		if f.Name != want {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, batch.Corrupt(op, batchID, err)
		}
		defer rc.Close()

		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, batch.Corrupt(op, batchID, err)
		}
		return data, nil
	}

	return nil, batch.Corrupt(op, batchID, fmt.Errorf("archive has no entry %s", want))
}

// write persists data as the batch document in the configured form and removes
// a stale document of the other form.
func (r *repo) write(op, batchID string, data []byte) error {
	zipped := r.paths.ZipSwitch()
	path, err := r.documentPath(batchID, zipped)
	if err != nil {
		return err
	}

	payload := data
	if zipped {
		if payload, err = compress(batchID, data); err != nil {
			return batch.IO(op, batchID, err)
		}
	}

	if err := fileops.WriteFileAtomic(path, bytes.NewReader(payload), 0o644); err != nil {
		return batch.IO(op, batchID, err)
	}

	stale, err := r.documentPath(batchID, !zipped)
	if err != nil {
		return err
	}
	if err := os.Remove(stale); err != nil && !errors.Is(err, fs.ErrNotExist) {
		r.logger.Warn("stale batch document not removed", "batch_id", batchID, "path", stale, "error", err)
	}

	return nil
}

func compress(batchID string, data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	w, err := zw.Create(DocumentName(batchID, false))
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
