package model

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrBlockedSource is returned for sources on a domain that forbids scraping
var ErrBlockedSource = errors.New("source is not supported due to scraping restrictions")

// Source describes one configured page to extract from. It is read-only
// during a run.
type Source struct {
	ID       string   `yaml:"id" mapstructure:"id" json:"id"`
	Name     string   `yaml:"name,omitempty" mapstructure:"name" json:"name,omitempty"`
	URL      string   `yaml:"url" mapstructure:"url" json:"url"`
	Category Category `yaml:"category" mapstructure:"category" json:"category"`
	Strategy Strategy `yaml:"strategy,omitempty" mapstructure:"strategy" json:"strategy,omitempty"`
	Enabled  *bool    `yaml:"enabled,omitempty" mapstructure:"enabled" json:"enabled,omitempty"`
	Tags     []string `yaml:"tags,omitempty" mapstructure:"tags" json:"tags,omitempty"`
}

// IsEnabled treats a missing flag as enabled
func (s Source) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// Label returns a short name for logs
func (s Source) Label() string {
	if s.ID != "" {
		return s.ID
	}
	if s.Name != "" {
		return s.Name
	}
	return s.URL
}

// Validate checks the descriptor before any fetch
func (s Source) Validate(blockedDomains []string) error {
	if s.URL == "" {
		return fmt.Errorf("source %s: url is required", s.Label())
	}
	parsed, err := url.Parse(s.URL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("source %s: invalid url %q", s.Label(), s.URL)
	}
	if _, err := ParseCategory(string(s.Category)); err != nil {
		return fmt.Errorf("source %s: %w", s.Label(), err)
	}
	if _, err := ParseStrategy(string(s.Strategy)); err != nil {
		return fmt.Errorf("source %s: %w", s.Label(), err)
	}
	if IsBlockedURL(s.URL, blockedDomains) {
		return fmt.Errorf("source %s: %w", s.Label(), ErrBlockedSource)
	}
	return nil
}

// IsBlockedURL reports whether rawURL contains any blocked domain fragment
func IsBlockedURL(rawURL string, blockedDomains []string) bool {
	lower := strings.ToLower(rawURL)
	for _, d := range blockedDomains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" && strings.Contains(lower, d) {
			return true
		}
	}
	return false
}

// SourcesFor returns the enabled sources of one category, preserving config order
func SourcesFor(sources []Source, category Category) []Source {
	var out []Source
	for _, s := range sources {
		if s.Category == category && s.IsEnabled() {
			out = append(out, s)
		}
	}
	return out
}
