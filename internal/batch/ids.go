package batch

import (
	"fmt"
	"strconv"
	"strings"
)

// SyncSequences raises the allocation sequences to cover every identifier
// present in the tree. Edits call it before removing anything so a removed
// identifier is still counted as allocated.
func (b *Batch) SyncSequences() {
	for _, d := range b.Documents {
		b.DocumentSequence = max(b.DocumentSequence, idNumber(d.Identifier, DocumentPrefix))
		for _, p := range d.Pages {
			b.PageSequence = max(b.PageSequence, idNumber(p.Identifier, PagePrefix))
		}
	}
}

// NextDocumentID allocates a document identifier that has never been used in the batch.
func (b *Batch) NextDocumentID() string {
	b.SyncSequences()
	b.DocumentSequence++
	return fmt.Sprintf("%s%d", DocumentPrefix, b.DocumentSequence)
}

// NextPageID allocates a page identifier that has never been used in the batch.
func (b *Batch) NextPageID() string {
	b.SyncSequences()
	b.PageSequence++
	return fmt.Sprintf("%s%d", PagePrefix, b.PageSequence)
}

func idNumber(id, prefix string) int {
	rest, ok := strings.CutPrefix(id, prefix)
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
