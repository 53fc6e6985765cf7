package batch

import (
	"errors"
	"fmt"
	"strings"
)

// Error taxonomy shared by the batch tree, persistence, path and HOCR layers.
var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrCorruptData     = errors.New("corrupt batch data")
	ErrIO              = errors.New("i/o failure")
	ErrParse           = errors.New("parse failure")
	ErrExists          = errors.New("batch already exists")
	ErrLocked          = errors.New("batch is locked")
)

// Error reports a failed operation together with the batch, document and page
// identifiers it involved. Err is always wrapped around one of the sentinel errors
// above so callers can test it with errors.Is.
type Error struct {
	Op         string
	BatchID    string
	DocumentID string
	PageID     string
	Err        error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.BatchID != "" {
		fmt.Fprintf(&b, ": batch %s", e.BatchID)
	}
	if e.DocumentID != "" {
		fmt.Fprintf(&b, " document %s", e.DocumentID)
	}
	if e.PageID != "" {
		fmt.Fprintf(&b, " page %s", e.PageID)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NotFound builds an ErrNotFound error for the identifiers that failed to resolve.
func NotFound(op, batchID, documentID, pageID string) error {
	return &Error{
		Op:         op,
		BatchID:    batchID,
		DocumentID: documentID,
		PageID:     pageID,
		Err:        ErrNotFound,
	}
}

// Invalid builds an ErrInvalidArgument error with a reason.
func Invalid(op, batchID, reason string) error {
	return &Error{
		Op:      op,
		BatchID: batchID,
		Err:     fmt.Errorf("%w: %s", ErrInvalidArgument, reason),
	}
}

// IO wraps a filesystem failure as ErrIO.
func IO(op, batchID string, err error) error {
	return &Error{
		Op:      op,
		BatchID: batchID,
		Err:     fmt.Errorf("%w: %w", ErrIO, err),
	}
}

// Corrupt wraps a decode failure of a persisted document as ErrCorruptData.
func Corrupt(op, batchID string, err error) error {
	return &Error{
		Op:      op,
		BatchID: batchID,
		Err:     fmt.Errorf("%w: %w", ErrCorruptData, err),
	}
}

// Malformed wraps an OCR markup failure for a single page as ErrParse.
func Malformed(op, batchID, pageID string, err error) error {
	return &Error{
		Op:      op,
		BatchID: batchID,
		PageID:  pageID,
		Err:     fmt.Errorf("%w: %w", ErrParse, err),
	}
}

// Exists reports an attempt to create a batch that is already persisted.
func Exists(op, batchID string) error {
	return &Error{Op: op, BatchID: batchID, Err: ErrExists}
}

// Locked reports a batch whose lock marker is held by another operation.
func Locked(op, batchID string) error {
	return &Error{Op: op, BatchID: batchID, Err: ErrLocked}
}
