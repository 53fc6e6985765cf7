// Package ingest turns an uploaded PDF into a new batch instance: one page
// image per PDF page, derived thumbnail and display images, and a batch tree
// holding a single document with every page in order.
package ingest

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/JaimeStill/dcma/internal/batch"
)

// Defaults applied to newly ingested batches.
const (
	StatusReady  = "READY"
	UnknownType  = batch.UnknownType
	sourcePDF    = "source.pdf"
	batchIDChars = 12
)

// Command carries an upload to ingest. BatchID is optional; a fresh
// identifier is allocated when it is empty.
type Command struct {
	BatchID      string
	BatchClassID string
	BatchName    string
	Filename     string
	Data         []byte
}

func (c *Command) validate() error {
	if c.BatchClassID == "" {
		return batch.Invalid("ingest", c.BatchID, "batch class identifier required")
	}
	if len(c.Data) == 0 {
		return batch.Invalid("ingest", c.BatchID, "empty upload")
	}
	if ext := strings.ToLower(filepath.Ext(c.Filename)); ext != "" && ext != ".pdf" {
		return batch.Invalid("ingest", c.BatchID, "unsupported file type "+ext)
	}
	return nil
}

func (c *Command) name() string {
	if c.BatchName != "" {
		return c.BatchName
	}
	return strings.TrimSuffix(filepath.Base(c.Filename), filepath.Ext(c.Filename))
}

// NewBatchID allocates a batch instance identifier.
func NewBatchID() string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "BI" + strings.ToUpper(hex[:batchIDChars])
}
