package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/nao1215/floorscan/internal/model"
)

// hOCR class names.
const (
	classPage = "ocr_page"
	classWord = "ocrx_word"
)

// HOCRSource reads word tokens from an hOCR file written by an OCR engine.
type HOCRSource struct {
	path string
}

// NewHOCRSource creates an hOCR source.
func NewHOCRSource(path string) *HOCRSource {
	return &HOCRSource{path: path}
}

// Method returns MethodHOCR.
func (s *HOCRSource) Method() string {
	return MethodHOCR
}

// Pages parses the file.
func (s *HOCRSource) Pages(ctx context.Context) ([]model.PageTokens, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open hocr %s: %w", s.path, err)
	}
	defer f.Close()
	return ParseHOCR(f)
}

// ParseHOCR reads ocr_page and ocrx_word elements. Each word becomes a token
// with the box from its title attribute. Page numbers come from ppageno
// (zero based in hOCR) or, when absent, from document order. Words outside
// any ocr_page belong to page 1.
func ParseHOCR(r io.Reader) ([]model.PageTokens, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse hocr: %w", err)
	}

	pages := make([]model.PageTokens, 0)
	current := -1

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			classes := strings.Fields(getAttr(n, "class"))
			title := parseTitle(getAttr(n, "title"))

			switch {
			case slices.Contains(classes, classPage):
				number := len(pages) + 1
				if v, ok := title["ppageno"]; ok && len(v) == 1 {
					if p, err := strconv.Atoi(v[0]); err == nil && p >= 0 {
						number = p + 1
					}
				}
				pages = append(pages, model.PageTokens{Page: number, Tokens: make([]model.Token, 0)})
				current = len(pages) - 1

			case slices.Contains(classes, classWord):
				text := strings.Join(strings.Fields(textContent(n)), " ")
				if text == "" {
					return
				}
				if current < 0 {
					pages = append(pages, model.PageTokens{Page: 1, Tokens: make([]model.Token, 0)})
					current = 0
				}
				bbox, _ := titleBBox(title)
				pages[current].Tokens = append(pages[current].Tokens, model.NewToken(text, bbox))
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return pages, nil
}

// getAttr returns the value of an attribute, or "".
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

// textContent concatenates the text nodes below n.
func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// parseTitle splits an hOCR title such as "bbox 10 20 30 40; x_wconf 93"
// into properties.
func parseTitle(title string) map[string][]string {
	props := make(map[string][]string)
	for part := range strings.SplitSeq(title, ";") {
		fields := strings.Fields(part)
		if len(fields) == 0 {
			continue
		}
		props[fields[0]] = fields[1:]
	}
	return props
}

func titleBBox(props map[string][]string) (model.BBox, bool) {
	v, ok := props["bbox"]
	if !ok || len(v) != 4 {
		return model.BBox{}, false
	}
	var b model.BBox
	for i, s := range v {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return model.BBox{}, false
		}
		b[i] = f
	}
	return b, true
}
