// Package scraper turns the source site's HTML pages into normalized entities.
// Each parser works on an already-parsed goquery document and is defensive per
// field: a selector that matches nothing produces the documented default, and
// only a missing structural anchor (no title node at all) fails the parse.
package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const DefaultBaseURL = "https://www.goodreads.com"

// FetchFunc retrieves raw page text. Production wires fetcher.Client.Fetch;
// tests substitute canned documents.
type FetchFunc func(ctx context.Context, url string) (string, error)

// Scraper fetches and parses pages of the source site.
type Scraper struct {
	fetch   FetchFunc
	baseURL string
	log     *slog.Logger
}

func New(fetch FetchFunc, baseURL string) *Scraper {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Scraper{
		fetch:   fetch,
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     slog.With("component", "scraper"),
	}
}

// ParseError marks a document that is structurally unusable for the entity it
// was supposed to produce. It applies to the one id only; batch siblings are
// unaffected.
type ParseError struct {
	Page string
	Id   int64
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s page for id %d: %s", e.Page, e.Id, e.Msg)
}

func (s *Scraper) getDocument(ctx context.Context, url string) (*goquery.Document, error) {
	html, err := s.fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}
	return doc, nil
}

// absURL resolves site-relative hrefs against the configured base.
func (s *Scraper) absURL(href string) string {
	if href == "" || strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if !strings.HasPrefix(href, "/") {
		href = "/" + href
	}
	return s.baseURL + href
}

func (s *Scraper) authorURL(id int64) string {
	return fmt.Sprintf("%s/author/show/%d", s.baseURL, id)
}

func (s *Scraper) bookURL(id int64) string {
	return fmt.Sprintf("%s/book/show/%d", s.baseURL, id)
}

func (s *Scraper) seriesURL(id int64) string {
	return fmt.Sprintf("%s/series/%d", s.baseURL, id)
}

func (s *Scraper) editionsURL(workId int64) string {
	return fmt.Sprintf("%s/work/editions/%d", s.baseURL, workId)
}

// WorkURL is the canonical show URL for a work id.
func (s *Scraper) WorkURL(workId int64) string {
	return fmt.Sprintf("%s/work/show/%d", s.baseURL, workId)
}
