package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ppiankov/calscrape/internal/model"
)

// Page is a fetched listing or detail page
type Page struct {
	URL  string
	HTML string
	Doc  *goquery.Document
}

// NewPage parses body into a queryable document
func NewPage(pageURL, body string) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html %s: %w", pageURL, err)
	}
	return &Page{URL: pageURL, HTML: body, Doc: doc}, nil
}

// Fresh returns an independent copy of the document that can be mutated
func (p *Page) Fresh() (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(p.HTML))
}

// Strategy extracts calendar entries from one source's listing page
type Strategy interface {
	// Name returns the strategy name used in logs
	Name() string

	// Extract returns normalized, expanded entries. Failures inside the
	// page degrade to fewer entries; an error means the source as a whole
	// produced nothing usable.
	Extract(ctx context.Context, page *Page, src model.Source) ([]model.Entry, error)
}

// PageFetcher is the transport used for month pages and detail pages
type PageFetcher interface {
	FetchPage(ctx context.Context, url string) (string, error)
}

// Completer is the extraction service. The category selects the model.
type Completer interface {
	Complete(ctx context.Context, category model.Category, prompt string) (string, error)
}

// fetchPage fetches and parses a page in one step
func fetchPage(ctx context.Context, fetcher PageFetcher, pageURL string) (*Page, error) {
	body, err := fetcher.FetchPage(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	return NewPage(pageURL, body)
}
