package documents

import (
	"fmt"
	"maps"
	"slices"

	"github.com/JaimeStill/dcma/internal/batch"
)

// effects lists the artifact file work an edit requires. Names are relative
// to the batch folder.
type effects struct {
	copies    []fileCopy
	hocr      []fileCopy
	removals  []string
	unchanged bool
}

// fileCopy pairs a source with a destination. For hocr entries the fields
// hold page identifiers rather than file names.
type fileCopy struct {
	src string
	dst string
}

func findDocument(b *batch.Batch, op, docID string) (*batch.Document, int, error) {
	d, i := b.FindDocument(docID)
	if d == nil {
		return nil, -1, batch.NotFound(op, b.BatchInstanceIdentifier, docID, "")
	}
	return d, i, nil
}

func findPage(b *batch.Batch, op, docID, pageID string) (*batch.Document, *batch.Page, int, error) {
	d, _, err := findDocument(b, op, docID)
	if err != nil {
		return nil, nil, -1, err
	}
	p, i := d.FindPage(pageID)
	if p == nil {
		return nil, nil, -1, batch.NotFound(op, b.BatchInstanceIdentifier, docID, pageID)
	}
	return d, p, i, nil
}

func required(op, batchID string, values map[string]string) error {
	for _, name := range slices.Sorted(maps.Keys(values)) {
		if values[name] == "" {
			return batch.Invalid(op, batchID, name+" required")
		}
	}
	return nil
}

// dropIfEmpty removes the document with docID when it holds no pages.
func dropIfEmpty(b *batch.Batch, docID string) {
	if d, i := b.FindDocument(docID); d != nil && len(d.Pages) == 0 {
		b.RemoveDocument(i)
	}
}

func merge(b *batch.Batch, docA, docB string) (*effects, error) {
	const op = "merge documents"
	if err := required(op, b.BatchInstanceIdentifier, map[string]string{"docA": docA, "docB": docB}); err != nil {
		return nil, err
	}
	if docA == docB {
		return nil, batch.Invalid(op, b.BatchInstanceIdentifier, "cannot merge document "+docA+" into itself")
	}

	a, _, err := findDocument(b, op, docA)
	if err != nil {
		return nil, err
	}
	src, si, err := findDocument(b, op, docB)
	if err != nil {
		return nil, err
	}

	a.Pages = append(a.Pages, src.Pages...)
	b.RemoveDocument(si)
	return &effects{}, nil
}

func swapPages(b *batch.Batch, docA, pageA, docB, pageB string) (*effects, error) {
	const op = "swap pages"
	err := required(op, b.BatchInstanceIdentifier, map[string]string{
		"docA": docA, "pageA": pageA, "docB": docB, "pageB": pageB,
	})
	if err != nil {
		return nil, err
	}

	da, pa, ia, err := findPage(b, op, docA, pageA)
	if err != nil {
		return nil, err
	}
	db, pb, ib, err := findPage(b, op, docB, pageB)
	if err != nil {
		return nil, err
	}
	if pa == pb {
		return &effects{unchanged: true}, nil
	}

	da.Pages[ia], db.Pages[ib] = pb, pa
	return &effects{}, nil
}

func swapPagesWithin(b *batch.Batch, docID, pageA, pageB string) (*effects, error) {
	const op = "swap pages within document"
	err := required(op, b.BatchInstanceIdentifier, map[string]string{
		"doc": docID, "pageA": pageA, "pageB": pageB,
	})
	if err != nil {
		return nil, err
	}

	d, _, ia, err := findPage(b, op, docID, pageA)
	if err != nil {
		return nil, err
	}
	_, _, ib, err := findPage(b, op, docID, pageB)
	if err != nil {
		return nil, err
	}
	if ia == ib {
		return &effects{unchanged: true}, nil
	}

	d.Pages[ia], d.Pages[ib] = d.Pages[ib], d.Pages[ia]
	return &effects{}, nil
}

func split(b *batch.Batch, docID, pageID string) (*effects, error) {
	const op = "split document"
	if err := required(op, b.BatchInstanceIdentifier, map[string]string{"doc": docID, "page": pageID}); err != nil {
		return nil, err
	}

	d, _, k, err := findPage(b, op, docID, pageID)
	if err != nil {
		return nil, err
	}
	_, di := b.FindDocument(docID)

	created := &batch.Document{
		Identifier:  b.NextDocumentID(),
		Type:        d.Type,
		Description: d.Description,
		Pages:       slices.Clone(d.Pages[k:]),
	}
	d.Pages = slices.Clone(d.Pages[:k])

	b.InsertDocument(di+1, created)
	dropIfEmpty(b, docID)
	return &effects{}, nil
}

func reorder(b *batch.Batch, docID string, pageIDs []string) (*effects, error) {
	const op = "reorder pages"
	if err := required(op, b.BatchInstanceIdentifier, map[string]string{"doc": docID}); err != nil {
		return nil, err
	}

	d, _, err := findDocument(b, op, docID)
	if err != nil {
		return nil, err
	}

	if len(pageIDs) != len(d.Pages) {
		return nil, batch.Invalid(op, b.BatchInstanceIdentifier, fmt.Sprintf(
			"document %s has %d pages, order lists %d", docID, len(d.Pages), len(pageIDs),
		))
	}

	ordered := make([]*batch.Page, 0, len(pageIDs))
	seen := make(map[string]bool, len(pageIDs))
	for _, id := range pageIDs {
		if seen[id] {
			return nil, batch.Invalid(op, b.BatchInstanceIdentifier, "page "+id+" listed twice")
		}
		seen[id] = true

		p, _ := d.FindPage(id)
		if p == nil {
			return nil, batch.Invalid(op, b.BatchInstanceIdentifier, "page "+id+" is not in document "+docID)
		}
		ordered = append(ordered, p)
	}

	if slices.Equal(d.PageIDs(), pageIDs) {
		return &effects{unchanged: true}, nil
	}

	d.Pages = ordered
	return &effects{}, nil
}

func duplicate(b *batch.Batch, docID, pageID string) (*effects, error) {
	const op = "duplicate page"
	if err := required(op, b.BatchInstanceIdentifier, map[string]string{"doc": docID, "page": pageID}); err != nil {
		return nil, err
	}

	d, p, k, err := findPage(b, op, docID, pageID)
	if err != nil {
		return nil, err
	}

	newID := b.NextPageID()
	dup, renames := p.Duplicate(newID)
	d.InsertPages(k+1, dup)

	fx := &effects{
		hocr: []fileCopy{{src: pageID, dst: newID}},
	}
	for _, src := range slices.Sorted(maps.Keys(renames)) {
		fx.copies = append(fx.copies, fileCopy{src: src, dst: renames[src]})
	}
	return fx, nil
}

func removePage(b *batch.Batch, docID, pageID string) (*effects, error) {
	const op = "remove page"
	if err := required(op, b.BatchInstanceIdentifier, map[string]string{"doc": docID, "page": pageID}); err != nil {
		return nil, err
	}

	d, p, k, err := findPage(b, op, docID, pageID)
	if err != nil {
		return nil, err
	}

	d.RemovePage(k)
	dropIfEmpty(b, docID)

	referenced := make(map[string]bool)
	for _, doc := range b.Documents {
		for _, other := range doc.Pages {
			for _, name := range other.Artifacts() {
				referenced[name] = true
			}
		}
	}

	fx := &effects{}
	for _, name := range p.Artifacts() {
		if !referenced[name] {
			fx.removals = append(fx.removals, name)
		}
	}
	fx.removals = append(fx.removals, batch.HocrXMLName(b.BatchInstanceIdentifier, pageID))
	return fx, nil
}

func movePage(b *batch.Batch, fromDoc, fromPage, toDoc, toPage string, after bool) (*effects, error) {
	const op = "move page"
	err := required(op, b.BatchInstanceIdentifier, map[string]string{
		"fromDoc": fromDoc, "fromPage": fromPage, "toDoc": toDoc, "toPage": toPage,
	})
	if err != nil {
		return nil, err
	}

	src, p, si, err := findPage(b, op, fromDoc, fromPage)
	if err != nil {
		return nil, err
	}
	dst, _, _, err := findPage(b, op, toDoc, toPage)
	if err != nil {
		return nil, err
	}
	if fromPage == toPage {
		return &effects{unchanged: true}, nil
	}

	src.RemovePage(si)

	_, ti := dst.FindPage(toPage)
	if after {
		ti++
	}
	dst.InsertPages(ti, p)

	dropIfEmpty(b, fromDoc)
	return &effects{}, nil
}

func updateDocType(b *batch.Batch, docID, typeName string, fields []batch.Field) (*effects, error) {
	const op = "update document type"
	if err := required(op, b.BatchInstanceIdentifier, map[string]string{"doc": docID, "type": typeName}); err != nil {
		return nil, err
	}

	d, _, err := findDocument(b, op, docID)
	if err != nil {
		return nil, err
	}

	d.Type = typeName
	d.DocumentLevelFields = slices.Clone(fields)
	return &effects{}, nil
}
