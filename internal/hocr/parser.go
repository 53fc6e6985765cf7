package hocr

import (
	"errors"
	"fmt"
	"io"
	"path"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/JaimeStill/dcma/internal/batch"
)

// hOCR class names recognized by the parser.
const (
	classPage = "ocr_page"
	classLine = "ocr_line"
	classWord = "ocrx_word"
)

// Tesseract emits headers, captions and floating text as line-level
// containers alongside ocr_line.
var lineClasses = map[string]bool{
	classLine:       true,
	"ocrx_line":     true,
	"ocr_header":    true,
	"ocr_caption":   true,
	"ocr_textfloat": true,
}

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"source": true, "track": true, "wbr": true,
}

type kind int

const (
	kindOther kind = iota
	kindPage
	kindLine
	kindWord
)

type open struct {
	tag  string
	kind kind
}

type parser struct {
	pageID string
	stack  []open

	page   *batch.HocrPage
	line   *batch.HocrLine
	word   *batch.Span
	text   strings.Builder
	inPage bool
}

// Parse converts the hOCR markup of one page into an HocrPage. The markup must
// be balanced and contain exactly one ocr_page. Any failure is reported as
// batch.ErrParse and no partial page is returned.
func Parse(r io.Reader, pageID string) (*batch.HocrPage, error) {
	p := &parser{pageID: pageID}
	if err := p.run(html.NewTokenizer(r)); err != nil {
		return nil, batch.Malformed("parse hocr", "", pageID, err)
	}
	return p.page, nil
}

func (p *parser) run(z *html.Tokenizer) error {
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return err
			}
			return p.finish()

		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			k, err := p.start(tok)
			if err != nil {
				return err
			}
			if tt == html.SelfClosingTagToken || voidElements[tok.Data] {
				if err := p.end(k); err != nil {
					return err
				}
				continue
			}
			p.stack = append(p.stack, open{tag: tok.Data, kind: k})

		case html.EndTagToken:
			tok := z.Token()
			if voidElements[tok.Data] {
				continue
			}
			if len(p.stack) == 0 {
				return fmt.Errorf("unexpected closing tag </%s>", tok.Data)
			}
			top := p.stack[len(p.stack)-1]
			if top.tag != tok.Data {
				return fmt.Errorf("closing tag </%s> does not match <%s>", tok.Data, top.tag)
			}
			p.stack = p.stack[:len(p.stack)-1]
			if err := p.end(top.kind); err != nil {
				return err
			}

		case html.TextToken:
			if p.word != nil {
				p.text.Write(z.Text())
			}
		}
	}
}

func (p *parser) start(tok html.Token) (kind, error) {
	class, title := attrs(tok)
	classes := strings.Fields(class)

	switch {
	case slices.Contains(classes, classPage):
		if p.page != nil {
			return kindOther, errors.New("more than one ocr_page")
		}
		if p.inPage {
			return kindOther, errors.New("ocr_page nested inside another page")
		}
		props, err := parseTitle(title)
		if err != nil {
			return kindOther, err
		}
		p.inPage = true
		p.page = &batch.HocrPage{
			PageID:    p.pageID,
			ImageName: imageName(props["image"]),
			Geometry:  props.bbox(),
		}
		return kindPage, nil

	case containsAny(classes, lineClasses):
		if !p.inPage {
			return kindOther, fmt.Errorf("%s outside ocr_page", class)
		}
		if p.line != nil {
			return kindOther, fmt.Errorf("%s nested inside a line", class)
		}
		props, err := parseTitle(title)
		if err != nil {
			return kindOther, err
		}
		p.line = &batch.HocrLine{ID: id(tok), Coordinates: props.bbox()}
		return kindLine, nil

	case slices.Contains(classes, classWord):
		if p.line == nil {
			return kindOther, errors.New("ocrx_word outside a line")
		}
		if p.word != nil {
			return kindOther, errors.New("ocrx_word nested inside a word")
		}
		props, err := parseTitle(title)
		if err != nil {
			return kindOther, err
		}
		conf, err := props.float("x_wconf")
		if err != nil {
			return kindOther, err
		}
		p.word = &batch.Span{ID: id(tok), Coordinates: props.bbox(), Confidence: conf}
		p.text.Reset()
		return kindWord, nil
	}

	return kindOther, nil
}

func (p *parser) end(k kind) error {
	switch k {
	case kindPage:
		p.inPage = false
		p.page.HocrContent = plainText(p.page.Lines)
	case kindLine:
		p.page.Lines = append(p.page.Lines, *p.line)
		p.line = nil
	case kindWord:
		p.word.Value = strings.TrimSpace(p.text.String())
		if p.word.Value != "" {
			p.line.Spans = append(p.line.Spans, *p.word)
		}
		p.word = nil
	}
	return nil
}

func (p *parser) finish() error {
	if len(p.stack) > 0 {
		return fmt.Errorf("unclosed tag <%s>", p.stack[len(p.stack)-1].tag)
	}
	if p.page == nil {
		return errors.New("no ocr_page element")
	}
	return nil
}

// properties holds the semicolon separated entries of an hOCR title attribute.
type properties map[string]string

func parseTitle(title string) (properties, error) {
	props := make(properties)
	for entry := range strings.SplitSeq(title, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		key, value, _ := strings.Cut(entry, " ")
		props[key] = strings.TrimSpace(value)
	}

	if bbox, ok := props["bbox"]; ok {
		f := strings.Fields(bbox)
		if len(f) != 4 {
			return nil, fmt.Errorf("bbox %q: want 4 coordinates", bbox)
		}
		for _, v := range f {
			if _, err := strconv.Atoi(v); err != nil {
				return nil, fmt.Errorf("bbox %q: %w", bbox, err)
			}
		}
	}
	return props, nil
}

func (p properties) bbox() batch.Coordinates {
	f := strings.Fields(p["bbox"])
	if len(f) != 4 {
		return batch.Coordinates{}
	}
	n := make([]int, 4)
	for i, v := range f {
		n[i], _ = strconv.Atoi(v)
	}
	return batch.Coordinates{X0: n[0], Y0: n[1], X1: n[2], Y1: n[3]}
}

func (p properties) float(key string) (float64, error) {
	v, ok := p[key]
	if !ok {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s %q: %w", key, v, err)
	}
	return f, nil
}

func attrs(tok html.Token) (class, title string) {
	for _, a := range tok.Attr {
		switch a.Key {
		case "class":
			class = a.Val
		case "title":
			title = a.Val
		}
	}
	return class, title
}

func id(tok html.Token) string {
	for _, a := range tok.Attr {
		if a.Key == "id" {
			return a.Val
		}
	}
	return ""
}

func imageName(v string) string {
	v = strings.Trim(v, `"'`)
	if v == "" {
		return ""
	}
	return path.Base(strings.ReplaceAll(v, `\`, "/"))
}

func plainText(lines []batch.HocrLine) string {
	var b strings.Builder
	for i, l := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		for j, s := range l.Spans {
			if j > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(s.Value)
		}
	}
	return b.String()
}

func containsAny(classes []string, set map[string]bool) bool {
	for _, v := range classes {
		if set[v] {
			return true
		}
	}
	return false
}
