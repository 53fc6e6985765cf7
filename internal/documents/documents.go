// Package documents implements structural edits over a batch tree: merging,
// splitting, swapping, moving, reordering, duplicating and removing pages, and
// re-typing documents. Every edit keeps the page artifacts in the batch folder
// consistent with the persisted tree.
package documents

import "github.com/JaimeStill/dcma/internal/batch"

// MergeCommand appends the pages of Source to Target and deletes Source.
type MergeCommand struct {
	Target string `json:"target"`
	Source string `json:"source"`
}

// PageRef addresses a page by its claimed parent document.
type PageRef struct {
	Document string `json:"document"`
	Page     string `json:"page"`
}

// SwapCommand exchanges the positions of two pages.
type SwapCommand struct {
	A PageRef `json:"a"`
	B PageRef `json:"b"`
}

// MoveCommand moves From to sit immediately before or after To.
type MoveCommand struct {
	From  PageRef `json:"from"`
	To    PageRef `json:"to"`
	After bool    `json:"after"`
}

// ReorderCommand lists the full new page order of a document.
type ReorderCommand struct {
	Pages []string `json:"pages"`
}

// TypeCommand replaces a document's type and document-level fields.
type TypeCommand struct {
	Type   string        `json:"type"`
	Fields []batch.Field `json:"fields"`
}

// Flags reports the derived review and validation state of a batch.
type Flags struct {
	ReviewRequired     bool `json:"review_required"`
	ValidationRequired bool `json:"validation_required"`
}
