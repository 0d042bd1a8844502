package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// nodeText extracts the text of a node tree, separating text nodes with
// spaces so split markup like <b>15</b><i>Mar</i> stays readable
func nodeText(n *html.Node) string {
	var buf strings.Builder

	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode {
			switch node.Data {
			case "script", "style", "noscript", "template":
				return
			}
		}
		if node.Type == html.TextNode {
			if text := strings.TrimSpace(node.Data); text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(n)
	return collapseSpace(buf.String())
}

// selectionText is nodeText over every node of a selection
func selectionText(sel *goquery.Selection) string {
	parts := make([]string, 0, len(sel.Nodes))
	for _, n := range sel.Nodes {
		if t := nodeText(n); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// hasClassMatching reports whether the class attribute matches pattern
func hasClassMatching(sel *goquery.Selection, match func(string) bool) bool {
	class, ok := sel.Attr("class")
	return ok && match(class)
}

// outerHTML renders a selection, returning "" on render errors
func outerHTML(sel *goquery.Selection) string {
	s, err := goquery.OuterHtml(sel)
	if err != nil {
		return ""
	}
	return s
}
