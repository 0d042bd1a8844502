package extract

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// listingOnlyPath matches in-domain paths that enumerate items rather than
// describe one
var listingOnlyPath = regexp.MustCompile(`(?i)/(category|categories|tag|tags|page|calendar/month)/`)

// resolveURL resolves a relative URL against a base URL
func resolveURL(base *url.URL, href string) string {
	// Skip anchors
	if strings.HasPrefix(href, "#") {
		return ""
	}

	// Skip javascript: and mailto: links
	lower := strings.ToLower(href)
	if strings.HasPrefix(lower, "javascript:") || strings.HasPrefix(lower, "mailto:") || strings.HasPrefix(lower, "tel:") {
		return ""
	}

	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}

	resolved := base.ResolveReference(parsed)

	// Only keep http/https URLs
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}

	return resolved.String()
}

// ResolveURL makes href absolute against pageURL. Empty or unusable links
// resolve to the page itself.
func ResolveURL(pageURL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return pageURL
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return href
	}
	if resolved := resolveURL(base, href); resolved != "" {
		return resolved
	}
	return pageURL
}

// HasDetailURL reports whether itemURL points at a page of its own: it must
// differ from the listing and must not be an in-domain listing-only link
// (category/tag/page archives or month and page query variants).
func HasDetailURL(listingURL, itemURL string) bool {
	if strings.TrimSpace(itemURL) == "" {
		return false
	}
	listing, err := url.Parse(listingURL)
	if err != nil {
		return false
	}
	item, err := url.Parse(itemURL)
	if err != nil || (item.Scheme != "http" && item.Scheme != "https") {
		return false
	}

	if !strings.EqualFold(item.Host, listing.Host) {
		return true
	}
	if samePath(item.Path, listing.Path) {
		return false
	}
	if listingOnlyPath.MatchString(item.Path + "/") {
		return false
	}
	q := item.Query()
	if q.Has("month") || q.Has("page") {
		return false
	}
	return true
}

func samePath(a, b string) bool {
	return strings.TrimRight(a, "/") == strings.TrimRight(b, "/")
}

// MonthURL replaces the query of pageURL with ?month=YYYY-MM
func MonthURL(pageURL string, month time.Time) string {
	base := pageURL
	if i := strings.IndexAny(base, "?#"); i >= 0 {
		base = base[:i]
	}
	return fmt.Sprintf("%s?month=%s", base, month.Format("2006-01"))
}

// MonthURLs returns month-paginated variants for the months after today's
func MonthURLs(pageURL string, today time.Time, months int) []string {
	first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	urls := make([]string, 0, months)
	for i := 1; i <= months; i++ {
		urls = append(urls, MonthURL(pageURL, first.AddDate(0, i, 0)))
	}
	return urls
}
