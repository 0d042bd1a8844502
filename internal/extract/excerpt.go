package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ppiankov/calscrape/internal/model"
)

var (
	mainClass                = regexp.MustCompile(`(?i)main|content|body`)
	attractionContainerClass = regexp.MustCompile(`(?i)place|card|item|entry|post|listing|location|destination|attraction|thing`)
)

const (
	// minMainHTML is the rendered size below which a main/article container
	// is assumed to be an empty client-side rendering shell
	minMainHTML = 1000

	containerLimit           = 100
	attractionContainerLimit = 200
)

// Excerpt is the bounded portion of a page sent to the extraction service
type Excerpt struct {
	Text string
	// Kind records which selection step produced the text
	Kind string
}

// BuildExcerpt selects page content for the extraction service. The document
// is modified; pass a fresh copy. Steps, first hit wins: a large main/article
// container, topical containers, a calendar table with its enclosing block,
// the body. Attraction pages are flattened into numbered ITEM blocks.
func BuildExcerpt(doc *goquery.Document, category model.Category, budget int) Excerpt {
	doc.Find("script, style, nav, footer, header, noscript").Remove()

	scope := doc.Selection
	attractions := category == model.CategoryAttractions

	primary := doc.Find("main, article").First()
	if primary.Length() == 0 {
		primary = doc.Find("div").FilterFunction(func(_ int, s *goquery.Selection) bool {
			return hasClassMatching(s, mainClass.MatchString)
		}).First()
	}
	if primary.Length() > 0 {
		rendered := outerHTML(primary)
		switch {
		case len(rendered) < minMainHTML:
			// fall through to containers
		case attractions:
			scope = primary
		default:
			return Excerpt{Text: prefix(rendered, budget), Kind: "main"}
		}
	}

	if attractions {
		containers := topicalContainers(scope, "article, div, li, section, h2, h3", attractionContainerClass, attractionContainerLimit)
		if len(containers) > 0 {
			return Excerpt{Text: prefix(itemBlocks(scope, containers), budget), Kind: "items"}
		}
	} else {
		containers := topicalContainers(scope, "article, div, li, section", containerClass, containerLimit)
		if len(containers) > 0 {
			parts := make([]string, 0, len(containers))
			for _, c := range containers {
				parts = append(parts, outerHTML(c))
			}
			return Excerpt{Text: prefix(strings.Join(parts, "\n"), budget), Kind: "containers"}
		}
	}

	if table := scope.Find("table").First(); table.Length() > 0 {
		block := table.ParentsFiltered("div, section, main").First()
		if block.Length() == 0 {
			block = table
		}
		return Excerpt{Text: prefix(outerHTML(block), budget), Kind: "table"}
	}

	body := doc.Find("body").First()
	if body.Length() == 0 {
		body = doc.Selection
	}
	return Excerpt{Text: prefix(outerHTML(body), budget), Kind: "body"}
}

func topicalContainers(scope *goquery.Selection, selector string, class *regexp.Regexp, limit int) []*goquery.Selection {
	var out []*goquery.Selection
	scope.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if hasClassMatching(s, class.MatchString) {
			out = append(out, s)
		}
		return len(out) < limit
	})
	return out
}

// itemBlocks flattens attraction containers, then any headings they missed,
// into "ITEM N" blocks with title, description and URL
func itemBlocks(scope *goquery.Selection, containers []*goquery.Selection) string {
	var blocks []string
	seen := make(map[string]bool)

	add := func(title, desc, href string) {
		seen[title] = true
		blocks = append(blocks, fmt.Sprintf("ITEM %d:\nTitle: %s\nDescription: %s\nURL: %s\n", len(blocks)+1, title, desc, href))
	}

	for _, c := range containers {
		title := selectionText(c.Find("h2, h3, h4, a").First())
		if len(title) <= 3 || seen[title] {
			continue
		}
		desc := prefix(selectionText(c.Find("p").First()), 200)
		href, _ := c.Find("a[href]").First().Attr("href")
		add(title, desc, href)
	}

	count := 0
	scope.Find("h2, h3, h4").EachWithBreak(func(_ int, h *goquery.Selection) bool {
		count++
		title := selectionText(h)
		if len(title) < 3 || seen[title] || genericHeadings[strings.ToLower(title)] {
			return count < attractionContainerLimit
		}

		next := h.NextAllFiltered("p, div").First()
		href, ok := h.Find("a[href]").First().Attr("href")
		if !ok {
			href, _ = next.Find("a[href]").First().Attr("href")
		}
		if strings.Contains(href, "/article/") {
			return count < attractionContainerLimit
		}
		add(title, prefix(selectionText(next), 200), href)
		return count < attractionContainerLimit
	})

	return strings.Join(blocks, "\n")
}

// DetailText renders a detail page as plain text for the Stage-2 prompt
func DetailText(doc *goquery.Document, budget int) string {
	doc.Find("script, style, nav, footer, header, noscript").Remove()

	content := doc.Find("main, article").First()
	if content.Length() == 0 || len(selectionText(content)) < 200 {
		content = doc.Find("body").First()
	}
	if content.Length() == 0 {
		content = doc.Selection
	}
	return prefix(selectionText(content), budget)
}

// hasTable reports whether a page contains a table
func hasTable(doc *goquery.Document) bool {
	return doc.Find("table").Length() > 0
}
