package batch

import (
	"encoding/xml"
	"fmt"
	"io"
)

// HocrPages is the structured OCR document persisted alongside a page.
type HocrPages struct {
	XMLName xml.Name   `xml:"HocrPages" json:"-"`
	Pages   []HocrPage `xml:"HocrPage" json:"pages"`
}

// HocrPage holds the recognized text and layout of one page.
type HocrPage struct {
	PageID      string      `xml:"PageID" json:"page_id"`
	ImageName   string      `xml:"ImageName,omitempty" json:"image_name,omitempty"`
	Geometry    Coordinates `xml:"Geometry" json:"geometry"`
	HocrContent string      `xml:"HocrContent" json:"hocr_content"`
	Lines       []HocrLine  `xml:"Lines>Line" json:"lines"`
}

// HocrLine is a text line and the word spans it contains.
type HocrLine struct {
	ID          string      `xml:"id,attr,omitempty" json:"id,omitempty"`
	Coordinates Coordinates `xml:"Coordinates" json:"coordinates"`
	Spans       []Span      `xml:"Spans>Span" json:"spans"`
}

// Span is a single recognized word.
type Span struct {
	ID          string      `xml:"id,attr,omitempty" json:"id,omitempty"`
	Value       string      `xml:"Value" json:"value"`
	Coordinates Coordinates `xml:"Coordinates" json:"coordinates"`
	Confidence  float64     `xml:"Confidence" json:"confidence"`
}

// Coordinates is a bounding box in image pixels: (X0,Y0) upper-left, (X1,Y1) lower-right.
type Coordinates struct {
	X0 int `xml:"X0" json:"x0"`
	Y0 int `xml:"Y0" json:"y0"`
	X1 int `xml:"X1" json:"x1"`
	Y1 int `xml:"Y1" json:"y1"`
}

// EncodeHocr writes HocrPages as an indented XML document.
func EncodeHocr(w io.Writer, pages *HocrPages) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}

	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(pages); err != nil {
		return fmt.Errorf("encode hocr pages: %w", err)
	}
	if err := enc.Close(); err != nil {
		return err
	}

	_, err := io.WriteString(w, "\n")
	return err
}

// DecodeHocr reads an HocrPages XML document. Malformed input is reported as ErrCorruptData.
func DecodeHocr(r io.Reader) (*HocrPages, error) {
	var pages HocrPages
	dec := xml.NewDecoder(r)
	if err := dec.Decode(&pages); err != nil {
		return nil, Corrupt("decode hocr", "", err)
	}
	if err := expectEOF(dec); err != nil {
		return nil, Corrupt("decode hocr", "", err)
	}
	return &pages, nil
}
