package adapters

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/ppiankov/calscrape/internal/extract"
	"github.com/ppiankov/calscrape/internal/model"
)

// Adapter is a host-specific listing extractor for sites whose markup is
// stable enough to read without the extraction service
type Adapter interface {
	// Name returns the adapter name
	Name() string

	// CanHandle checks if this adapter knows the page at rawURL
	CanHandle(rawURL string) bool

	// Candidates extracts raw listing items from the page
	Candidates(ctx context.Context, page *extract.Page, category model.Category) []model.Candidate
}

// Registry manages site adapters
type Registry struct {
	adapters []Adapter
}

// NewRegistry creates a registry with the built-in site adapters
func NewRegistry() *Registry {
	registry := &Registry{
		adapters: make([]Adapter, 0),
	}

	registry.Register(NewSplitDateAdapter("visitvaldosta.org"))
	registry.Register(NewPlaceViewAdapter("wanderlog.com"))
	registry.Register(NewHeadingAdapter("exploregeorgia.org"))

	return registry
}

// Register registers a new adapter
func (r *Registry) Register(adapter Adapter) {
	r.adapters = append(r.adapters, adapter)
}

// FindAdapter returns the first adapter that handles rawURL, or nil
func (r *Registry) FindAdapter(rawURL string) Adapter {
	for _, adapter := range r.adapters {
		if adapter.CanHandle(rawURL) {
			return adapter
		}
	}
	return nil
}

// BaseAdapter provides node helpers shared by adapters
type BaseAdapter struct {
	hosts []string
}

// MatchesHost reports whether rawURL is on one of the adapter's hosts or a
// subdomain of one
func (b *BaseAdapter) MatchesHost(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(parsed.Hostname())
	for _, h := range b.hosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}

// Root returns the document node of a page
func (b *BaseAdapter) Root(page *extract.Page) *html.Node {
	if page == nil || page.Doc == nil || len(page.Doc.Nodes) == 0 {
		return nil
	}
	return page.Doc.Nodes[0]
}

// ExtractText extracts whitespace-collapsed text from a node
func (b *BaseAdapter) ExtractText(n *html.Node) string {
	if n == nil {
		return ""
	}
	if n.Type == html.TextNode {
		return strings.TrimSpace(n.Data)
	}
	if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
		return ""
	}

	var buf strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		buf.WriteString(b.ExtractText(c))
		buf.WriteString(" ")
	}
	return strings.Join(strings.Fields(buf.String()), " ")
}

// IsElement checks if a node is an element with one of the given tags
func (b *BaseAdapter) IsElement(n *html.Node, tags ...string) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	for _, tag := range tags {
		if n.Data == tag {
			return true
		}
	}
	return false
}

// HasClass checks if a node has a specific CSS class
func (b *BaseAdapter) HasClass(n *html.Node, className string) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	for _, class := range strings.Fields(b.GetAttribute(n, "class")) {
		if class == className {
			return true
		}
	}
	return false
}

// ClassMatches checks if a node's class attribute matches re
func (b *BaseAdapter) ClassMatches(n *html.Node, re *regexp.Regexp) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	class := b.GetAttribute(n, "class")
	return class != "" && re.MatchString(class)
}

// GetAttribute gets an attribute value from a node
func (b *BaseAdapter) GetAttribute(n *html.Node, attrKey string) string {
	for _, attr := range n.Attr {
		if attr.Key == attrKey {
			return attr.Val
		}
	}
	return ""
}

// FindAll finds all nodes matching a predicate
func (b *BaseAdapter) FindAll(n *html.Node, predicate func(*html.Node) bool) []*html.Node {
	var results []*html.Node
	if n == nil {
		return results
	}

	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if predicate(node) {
			results = append(results, node)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(n)
	return results
}

// FindFirst finds the first node matching a predicate
func (b *BaseAdapter) FindFirst(n *html.Node, predicate func(*html.Node) bool) *html.Node {
	var result *html.Node
	if n == nil {
		return result
	}

	var walk func(*html.Node) bool
	walk = func(node *html.Node) bool {
		if predicate(node) {
			result = node
			return true
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}

	walk(n)
	return result
}

// FirstLink returns the href of the first anchor under n
func (b *BaseAdapter) FirstLink(n *html.Node) string {
	link := b.FindFirst(n, func(node *html.Node) bool {
		return b.IsElement(node, "a") && b.GetAttribute(node, "href") != ""
	})
	if link == nil {
		return ""
	}
	return b.GetAttribute(link, "href")
}
