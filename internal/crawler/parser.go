package crawler

import (
	"bytes"

	"github.com/PuerkitoBio/goquery"

	"github.com/dealmungchi/jobcrawler/pkg/errors"
)

// Parser splits a result page into posting fragments
type Parser struct {
	// PostingSelector matches the container of one posting
	PostingSelector string
}

// NewParser creates a parser for the given posting container selector
func NewParser(postingSelector string) *Parser {
	return &Parser{PostingSelector: postingSelector}
}

// createDocument creates a goquery document from page text
func createDocument(page *Page) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return nil, errors.NewParsing(page.Target.String(), page.Offset, "failed to parse page", err)
	}
	return doc, nil
}

// Parse returns the page's posting fragments in document order.
// A page without postings yields an empty slice and no error.
func (p *Parser) Parse(page *Page) ([]PostingFragment, error) {
	if page == nil {
		return nil, errors.NewParsing("", 0, "no page to parse", nil)
	}

	doc, err := createDocument(page)
	if err != nil {
		return nil, err
	}

	selections := doc.Find(p.PostingSelector)
	fragments := make([]PostingFragment, 0, selections.Length())
	selections.Each(func(i int, s *goquery.Selection) {
		fragments = append(fragments, PostingFragment{
			Target:    page.Target,
			Offset:    page.Offset,
			Index:     i,
			Selection: s,
		})
	})

	return fragments, nil
}
