package fetch

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Page is a fetched, parsed HTML document.
type Page struct {
	URL        string
	StatusCode int
	Doc        *goquery.Document
}

// Text returns the document's visible text.
func (p *Page) Text() string {
	return p.Doc.Text()
}

// ParsePage parses raw HTML into a Page.
func ParsePage(r io.Reader, url string, status int) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &Page{URL: url, StatusCode: status, Doc: doc}, nil
}

// ParseHTML parses an HTML fragment or document from a string.
// Used by tests and by adapters that re-parse cached markup.
func ParseHTML(html string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

// SelectCascade tries each selector in order and returns the first
// non-empty match set. This is how adapters cope with inconsistent
// markup across dozens of independently run government sites: a source
// table entry supplies site-specific selectors first and generic ones
// last, and whichever matches wins.
func SelectCascade(doc *goquery.Document, selectors ...string) *goquery.Selection {
	for _, sel := range selectors {
		if s := doc.Find(sel); s.Length() > 0 {
			return s
		}
	}
	// Empty selection from the last selector so callers can Each()
	// without a nil check.
	if len(selectors) == 0 {
		return doc.Find("")
	}
	return doc.Find(selectors[len(selectors)-1])
}

// CleanText collapses runs of whitespace in extracted node text.
func CleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
