package scraper

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"bookinfo/fetcher"
)

// fakeFetch serves canned pages by URL and records every request.
type fakeFetch struct {
	mu    sync.Mutex
	pages map[string]string
	calls map[string]int
}

func newFakeFetch(pages map[string]string) *fakeFetch {
	return &fakeFetch{pages: pages, calls: map[string]int{}}
}

func (f *fakeFetch) fetch(_ context.Context, url string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[url]++
	html, ok := f.pages[url]
	if !ok {
		return "", fmt.Errorf("fetch %s: %w", url, fetcher.ErrNotFound)
	}
	return html, nil
}

func (f *fakeFetch) callCount(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[url]
}

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("failed to parse fixture html: %v", err)
	}
	return doc
}
