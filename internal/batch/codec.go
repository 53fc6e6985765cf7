package batch

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"slices"
)

// Clone returns a deep copy of the batch tree.
func (b *Batch) Clone() *Batch {
	c := *b
	c.Documents = make([]*Document, len(b.Documents))
	for i, d := range b.Documents {
		c.Documents[i] = d.clone()
	}
	return &c
}

func (d *Document) clone() *Document {
	c := *d
	c.DocumentLevelFields = slices.Clone(d.DocumentLevelFields)
	c.Pages = make([]*Page, len(d.Pages))
	for i, p := range d.Pages {
		c.Pages[i] = p.clone()
	}
	return &c
}

func (p *Page) clone() *Page {
	c := *p
	c.PageLevelFields = slices.Clone(p.PageLevelFields)
	return &c
}

// Encode writes the batch as an indented XML document.
func Encode(w io.Writer, b *Batch) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}

	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(b); err != nil {
		return fmt.Errorf("encode batch %s: %w", b.BatchInstanceIdentifier, err)
	}
	if err := enc.Close(); err != nil {
		return err
	}

	_, err := io.WriteString(w, "\n")
	return err
}

// Marshal returns the encoded form of the batch.
func Marshal(b *Batch) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, b); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode reads a batch XML document. Malformed input, including content after
// the Batch element, is reported as ErrCorruptData.
func Decode(r io.Reader) (*Batch, error) {
	var b Batch
	dec := xml.NewDecoder(r)
	if err := dec.Decode(&b); err != nil {
		return nil, Corrupt("decode", "", err)
	}
	if err := expectEOF(dec); err != nil {
		return nil, Corrupt("decode", b.BatchInstanceIdentifier, err)
	}
	if b.BatchInstanceIdentifier == "" {
		return nil, Corrupt("decode", "", fmt.Errorf("missing BatchInstanceIdentifier"))
	}
	return &b, nil
}

// expectEOF consumes the rest of the input, allowing only whitespace,
// comments and processing instructions.
func expectEOF(dec *xml.Decoder) error {
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.CharData:
			if len(bytes.TrimSpace(t)) > 0 {
				return fmt.Errorf("unexpected text after Batch element")
			}
		case xml.Comment, xml.ProcInst:
		default:
			return fmt.Errorf("unexpected content after Batch element")
		}
	}
}
