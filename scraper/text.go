package scraper

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Named extraction rules shared by the page parsers. Every helper is
// defensive: malformed or missing text yields the documented default instead
// of an error, so a single broken field never sinks a whole parse.

var (
	avgRatingRe   = regexp.MustCompile(`([\d.]+)\s+avg\s+rating`)
	ratingCountRe = regexp.MustCompile(`([\d,]+)\s+ratings?`)
	numPagesRe    = regexp.MustCompile(`(\d[\d,]*)\s+pages`)
	bookCountRe   = regexp.MustCompile(`\((\d+)\s+books?\)`)
	publishedRe   = regexp.MustCompile(`(?:First\s+)?[Pp]ublished\s+(.+?)(?:\s+by\s+(.+?))?\s*$`)
	seriesTitleRe = regexp.MustCompile(`^(.*?)\s*#([\d.]+)\s*$`)
	ordinalRe     = regexp.MustCompile(`(\d+)(st|nd|rd|th)\b`)
)

// parseFloatDefault parses free text as a float, defaulting to 0.
func parseFloatDefault(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

// parseIntDefault parses free text as an integer after stripping thousands
// separators, defaulting to 0.
func parseIntDefault(s string) int64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// ratingFromText pulls the average out of a "<x> avg rating" blob.
func ratingFromText(s string) float64 {
	m := avgRatingRe.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	return parseFloatDefault(m[1])
}

// ratingCountFromText pulls the count out of a "<n> ratings" blob.
func ratingCountFromText(s string) int64 {
	m := ratingCountRe.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	return parseIntDefault(m[1])
}

// pagesFromText extracts N from a "<N> pages" fragment, nil when absent.
func pagesFromText(s string) *int64 {
	m := numPagesRe.FindStringSubmatch(s)
	if m == nil {
		return nil
	}
	n := parseIntDefault(m[1])
	if n == 0 {
		return nil
	}
	return &n
}

// bookCountFromText extracts N from a "(<N> books)" fragment.
func bookCountFromText(s string) int64 {
	m := bookCountRe.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	return parseIntDefault(m[1])
}

// publishedFromText splits a "Published <date> by <publisher>" row into its
// parts. Either part may come back empty.
func publishedFromText(s string) (date string, publisher string) {
	m := publishedRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return "", ""
	}
	return strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
}

// dateFormats covers the handful of layouts the source renders dates in.
var dateFormats = []string{
	"January 2, 2006",
	"January 2 2006",
	"January 2006",
	"2006-01-02",
	"2006",
}

// normalizeDate parses free-text publication dates into ISO form. Ordinal
// suffixes ("June 1st 2004") and "Published" boilerplate are stripped first.
// Unparsable input yields nil, never an error.
func normalizeDate(s string) *string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "First published")
	s = strings.TrimPrefix(s, "Published")
	s = ordinalRe.ReplaceAllString(s, "$1")
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			iso := t.Format("2006-01-02")
			return &iso
		}
	}
	return nil
}

// idFromPath derives the numeric id from the trailing path segment of a show
// URL, e.g. "/author/show/3389.Stephen_King" or "/book/show/11588-the-shining".
func idFromPath(u string) int64 {
	if u == "" {
		return 0
	}
	u = strings.SplitN(u, "?", 2)[0]
	seg := u[strings.LastIndex(u, "/")+1:]
	if i := strings.IndexAny(seg, ".-"); i > 0 {
		seg = seg[:i]
	}
	return parseIntDefault(seg)
}

// seriesFromTitle splits a "<title> #<n>" series reference. ok is false when
// the text carries no position marker.
func seriesFromTitle(s string) (title string, position string, ok bool) {
	m := seriesTitleRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return strings.TrimSpace(s), "", false
	}
	return strings.TrimSpace(m[1]), m[2], true
}

// isEbookFormat reports whether the edition format text denotes an ebook.
func isEbookFormat(format string) bool {
	f := strings.ToLower(format)
	return strings.Contains(f, "kindle") || strings.Contains(f, "ebook")
}
