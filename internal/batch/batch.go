// Package batch implements the in-memory batch tree (Batch → Document → Page → Field)
// shared by every DCMA subsystem. It provides identifier allocation, lookups,
// structural validation, deep copies, and the XML codec used by the persistence layer.
package batch

import (
	"encoding/xml"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
)

// Batch is the root of a batch instance tree.
// DocumentSequence and PageSequence record the highest identifier number ever
// allocated so removed identifiers are never handed out again.
type Batch struct {
	XMLName                 xml.Name    `xml:"Batch" json:"-"`
	BatchInstanceIdentifier string      `xml:"BatchInstanceIdentifier" json:"batch_instance_identifier"`
	BatchClassIdentifier    string      `xml:"BatchClassIdentifier" json:"batch_class_identifier"`
	BatchName               string      `xml:"BatchName,omitempty" json:"batch_name,omitempty"`
	BatchStatus             string      `xml:"BatchStatus,omitempty" json:"batch_status,omitempty"`
	BatchLocalPath          string      `xml:"BatchLocalPath,omitempty" json:"batch_local_path,omitempty"`
	DocumentSequence        int         `xml:"DocumentSequence" json:"document_sequence"`
	PageSequence            int         `xml:"PageSequence" json:"page_sequence"`
	Documents               []*Document `xml:"Documents>Document" json:"documents"`
}

// Document is an ordered group of pages classified under a single document type.
type Document struct {
	Identifier          string  `xml:"Identifier" json:"identifier"`
	Type                string  `xml:"Type" json:"type"`
	Description         string  `xml:"Description,omitempty" json:"description,omitempty"`
	Confidence          float64 `xml:"Confidence" json:"confidence"`
	Valid               bool    `xml:"Valid" json:"valid"`
	Reviewed            bool    `xml:"Reviewed" json:"reviewed"`
	ErrorMessage        string  `xml:"ErrorMessage,omitempty" json:"error_message,omitempty"`
	Pages               []*Page `xml:"Pages>Page" json:"pages"`
	DocumentLevelFields []Field `xml:"DocumentLevelFields>DocumentLevelField" json:"document_level_fields"`
}

// Page references the on-disk artifacts of one scanned page. File names are
// relative to the batch folder.
type Page struct {
	Identifier        string  `xml:"Identifier" json:"identifier"`
	OldFileName       string  `xml:"OldFileName,omitempty" json:"old_file_name,omitempty"`
	NewFileName       string  `xml:"NewFileName,omitempty" json:"new_file_name,omitempty"`
	ThumbnailFileName string  `xml:"ThumbnailFileName,omitempty" json:"thumbnail_file_name,omitempty"`
	DisplayFileName   string  `xml:"DisplayFileName,omitempty" json:"display_file_name,omitempty"`
	HocrFileName      string  `xml:"HocrFileName,omitempty" json:"hocr_file_name,omitempty"`
	OCRInputFileName  string  `xml:"OCRInputFileName,omitempty" json:"ocr_input_file_name,omitempty"`
	PageLevelFields   []Field `xml:"PageLevelFields>PageLevelField" json:"page_level_fields"`
}

// Field is a named value extracted for a document or page.
type Field struct {
	Name             string  `xml:"Name" json:"name"`
	Value            string  `xml:"Value" json:"value"`
	Type             string  `xml:"Type,omitempty" json:"type,omitempty"`
	Confidence       float64 `xml:"Confidence" json:"confidence"`
	OcrConfidence    float64 `xml:"OcrConfidence" json:"ocr_confidence"`
	FieldOrderNumber int     `xml:"FieldOrderNumber" json:"field_order_number"`
	Valid            bool    `xml:"Valid" json:"valid"`
}

const (
	DocumentPrefix = "DOC"
	PagePrefix     = "PG"
	// UnknownType marks a document no classifier has typed yet.
	UnknownType = "Unknown"
)

// FindDocument returns the document with the given identifier and its index,
// or nil and -1.
func (b *Batch) FindDocument(id string) (*Document, int) {
	for i, d := range b.Documents {
		if d.Identifier == id {
			return d, i
		}
	}
	return nil, -1
}

// FindPage searches every document for the page identifier.
func (b *Batch) FindPage(pageID string) (*Document, *Page) {
	for _, d := range b.Documents {
		if p, _ := d.FindPage(pageID); p != nil {
			return d, p
		}
	}
	return nil, nil
}

// InsertDocument places doc at index, clamped to the document range.
func (b *Batch) InsertDocument(index int, doc *Document) {
	index = min(max(index, 0), len(b.Documents))
	b.Documents = slices.Insert(b.Documents, index, doc)
}

// RemoveDocument deletes the document at index.
func (b *Batch) RemoveDocument(index int) {
	b.Documents = slices.Delete(b.Documents, index, index+1)
}

// PruneEmpty removes every document that no longer holds pages and returns
// the identifiers removed.
func (b *Batch) PruneEmpty() []string {
	var removed []string
	b.Documents = slices.DeleteFunc(b.Documents, func(d *Document) bool {
		if len(d.Pages) == 0 {
			removed = append(removed, d.Identifier)
			return true
		}
		return false
	})
	return removed
}

// ReviewRequired reports whether any document still awaits review.
func (b *Batch) ReviewRequired() bool {
	return slices.ContainsFunc(b.Documents, func(d *Document) bool {
		return !d.Reviewed
	})
}

// NeedsReview reports whether the batch must pass through review. With
// checkFlag set it follows the Reviewed flags; otherwise only unclassified
// documents require review.
func (b *Batch) NeedsReview(checkFlag bool) bool {
	if checkFlag {
		return b.ReviewRequired()
	}
	return slices.ContainsFunc(b.Documents, func(d *Document) bool {
		return d.Type == "" || d.Type == UnknownType
	})
}

// ValidationRequired reports whether any document is not yet valid.
func (b *Batch) ValidationRequired() bool {
	return slices.ContainsFunc(b.Documents, func(d *Document) bool {
		return !d.Valid
	})
}

// PageCount returns the number of pages across all documents.
func (b *Batch) PageCount() int {
	n := 0
	for _, d := range b.Documents {
		n += len(d.Pages)
	}
	return n
}

// Validate checks the structural invariants of the tree: document and page
// identifiers are unique and every document holds at least one page.
func (b *Batch) Validate() error {
	if b.BatchInstanceIdentifier == "" {
		return Invalid("validate", "", "batch instance identifier required")
	}

	docs := make(map[string]bool, len(b.Documents))
	pages := make(map[string]string)

	for _, d := range b.Documents {
		if d.Identifier == "" {
			return Invalid("validate", b.BatchInstanceIdentifier, "document identifier required")
		}
		if docs[d.Identifier] {
			return Invalid("validate", b.BatchInstanceIdentifier, "duplicate document "+d.Identifier)
		}
		docs[d.Identifier] = true

		if len(d.Pages) == 0 {
			return Invalid("validate", b.BatchInstanceIdentifier, "document "+d.Identifier+" has no pages")
		}

		for _, p := range d.Pages {
			if p.Identifier == "" {
				return Invalid("validate", b.BatchInstanceIdentifier, "page identifier required in "+d.Identifier)
			}
			if owner, ok := pages[p.Identifier]; ok {
				return Invalid(
					"validate", b.BatchInstanceIdentifier,
					fmt.Sprintf("page %s appears in %s and %s", p.Identifier, owner, d.Identifier),
				)
			}
			pages[p.Identifier] = d.Identifier
		}
	}

	return nil
}

// FindPage returns the page with the given identifier and its index, or nil and -1.
func (d *Document) FindPage(id string) (*Page, int) {
	for i, p := range d.Pages {
		if p.Identifier == id {
			return p, i
		}
	}
	return nil, -1
}

// PageIDs returns the page identifiers in document order.
func (d *Document) PageIDs() []string {
	ids := make([]string, len(d.Pages))
	for i, p := range d.Pages {
		ids[i] = p.Identifier
	}
	return ids
}

// InsertPages places pages at index, clamped to the page range.
func (d *Document) InsertPages(index int, pages ...*Page) {
	index = min(max(index, 0), len(d.Pages))
	d.Pages = slices.Insert(d.Pages, index, pages...)
}

// RemovePage deletes and returns the page at index.
func (d *Document) RemovePage(index int) *Page {
	p := d.Pages[index]
	d.Pages = slices.Delete(d.Pages, index, index+1)
	return p
}

// Artifacts returns the distinct non-empty artifact file names referenced by the page.
func (p *Page) Artifacts() []string {
	names := []string{
		p.OldFileName,
		p.NewFileName,
		p.ThumbnailFileName,
		p.DisplayFileName,
		p.HocrFileName,
		p.OCRInputFileName,
	}

	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

// Duplicate copies the page under newID. Artifact names are rewritten for the
// new identifier and the returned map pairs every original artifact name with
// the name used by the copy.
func (p *Page) Duplicate(newID string) (*Page, map[string]string) {
	dup := p.clone()
	dup.Identifier = newID

	renames := make(map[string]string)
	rename := func(name string) string {
		if name == "" {
			return ""
		}
		if n, ok := renames[name]; ok {
			return n
		}
		n := ArtifactName(name, p.Identifier, newID)
		renames[name] = n
		return n
	}

	dup.OldFileName = rename(p.OldFileName)
	dup.NewFileName = rename(p.NewFileName)
	dup.ThumbnailFileName = rename(p.ThumbnailFileName)
	dup.DisplayFileName = rename(p.DisplayFileName)
	dup.HocrFileName = rename(p.HocrFileName)
	dup.OCRInputFileName = rename(p.OCRInputFileName)

	return dup, renames
}

// ArtifactName rewrites an artifact file name from oldID to newID. Names are
// split on underscores; a segment equal to oldID is replaced, otherwise newID
// is appended to the stem.
func ArtifactName(name, oldID, newID string) string {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	parts := strings.Split(stem, "_")
	for i := len(parts) - 1; i >= 0; i-- {
		if parts[i] == oldID {
			parts[i] = newID
			return strings.Join(parts, "_") + ext
		}
	}

	return stem + "_" + newID + ext
}
