package extract

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ppiankov/calscrape/internal/model"
)

// runDate is the fixed "today" used across extractor tests
var runDate = time.Date(2026, time.February, 6, 9, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return runDate }

func newTestFinalizer() *Finalizer {
	return NewFinalizer(fixedNow, DefaultOptions(), zerolog.Nop())
}

func mustPage(t *testing.T, pageURL, body string) *Page {
	t.Helper()
	page, err := NewPage(pageURL, body)
	if err != nil {
		t.Fatalf("NewPage: %v", err)
	}
	return page
}

// fakeFetcher serves canned pages and records requests
type fakeFetcher struct {
	mu     sync.Mutex
	pages  map[string]string
	errs   map[string]error
	called []string
}

func (f *fakeFetcher) FetchPage(ctx context.Context, url string) (string, error) {
	f.mu.Lock()
	f.called = append(f.called, url)
	f.mu.Unlock()

	if err, ok := f.errs[url]; ok {
		return "", err
	}
	if body, ok := f.pages[url]; ok {
		return body, nil
	}
	return "", errors.New("unexpected status: 404 Not Found")
}

// fakeCompleter answers prompts with a function of the prompt
type fakeCompleter struct {
	mu      sync.Mutex
	answer  func(prompt string) (string, error)
	prompts []string
}

func (f *fakeCompleter) Complete(ctx context.Context, category model.Category, prompt string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	return f.answer(prompt)
}

func titles(entries []model.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Title
	}
	return out
}

func findEntry(entries []model.Entry, title string) (model.Entry, bool) {
	for _, e := range entries {
		if strings.EqualFold(e.Title, title) {
			return e, true
		}
	}
	return model.Entry{}, false
}
