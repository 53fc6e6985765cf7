package store

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/JaimeStill/dcma/internal/batch"
	"github.com/JaimeStill/dcma/pkg/fileops"
)

var tiffOnly = fileops.Extensions(".tif", ".tiff")

func (r *repo) CopyFolder(ctx context.Context, source, folderName, classID string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.copyInto("copy folder", source, folderName, classID, tiffOnly)
}

func (r *repo) CopyEmailFolder(ctx context.Context, folderName, classID string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// Named validates folderName before it is joined to the email root.
	if _, err := r.paths.Named(classID, folderName, false); err != nil {
		return nil, err
	}
	source := filepath.Join(r.paths.EmailFolder(), folderName)
	return r.copyInto("copy email folder", source, folderName, classID, nil)
}

func (r *repo) copyInto(op, source, folderName, classID string, keep func(string) bool) ([]string, error) {
	dst, err := r.paths.Named(classID, folderName, true)
	if err != nil {
		return nil, err
	}

	copied, err := fileops.CopyFolder(source, dst, keep)
	if errors.Is(err, fs.ErrNotExist) && len(copied) == 0 {
		return nil, batch.NotFound(op+" "+source, "", "", "")
	}
	if err != nil {
		return copied, batch.IO(op, "", err)
	}

	r.logger.Info("folder copied", "class_id", classID, "folder", folderName, "files", len(copied))
	return copied, nil
}

func (r *repo) DeleteDocTypeFolders(ctx context.Context, classID string, docTypes []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var folders []string
	for _, dt := range docTypes {
		f, err := r.paths.DocTypeFolders(classID, dt)
		if err != nil {
			return err
		}
		folders = append(folders, f...)
	}

	var errs []error
	for _, dir := range folders {
		if err := os.RemoveAll(dir); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return batch.IO("delete document type folders", "", err)
	}

	r.logger.Info("document type folders deleted", "class_id", classID, "document_types", len(docTypes))
	return nil
}
