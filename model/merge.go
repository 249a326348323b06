package model

import (
	"log/slog"
)

// MergeWorks folds a sequence of partially-overlapping Work records into one
// canonical record per ForeignId. Works for the same id arrive from different
// pages (author book list, series pages, edition lists) with different subsets
// of fields filled in.
//
// Collision rule: array fields union, scalar fields prefer the non-empty side,
// RatingCount takes the maximum. The fold is commutative and idempotent:
// merging a Work with itself, or re-merging merged output, is a fixed point.
func MergeWorks(works []*Work) []*Work {
	byId := make(map[int64]*Work, len(works))
	order := make([]int64, 0, len(works))

	for _, w := range works {
		if w == nil {
			continue
		}
		existing, ok := byId[w.ForeignId]
		if !ok {
			clone := *w
			byId[w.ForeignId] = &clone
			order = append(order, w.ForeignId)
			continue
		}
		mergeInto(existing, w)
	}

	out := make([]*Work, 0, len(order))
	for _, id := range order {
		out = append(out, byId[id])
	}
	return out
}

func mergeInto(dst *Work, src *Work) {
	dst.Genres = unionStrings(dst.Genres, src.Genres)
	dst.RelatedWorks = unionInt64s(dst.RelatedWorks, src.RelatedWorks)
	dst.Series = unionSeries(dst.Series, src.Series)
	dst.Books = dedupBooks(append(dst.Books, src.Books...))

	if src.Title != "" && dst.Title == "" {
		dst.Title = src.Title
		dst.TitleSlug = src.TitleSlug
	}
	if src.Description != "" {
		dst.Description = src.Description
	}
	if src.ImageUrl != "" {
		dst.ImageUrl = src.ImageUrl
	}
	if src.Url != "" && dst.Url == "" {
		dst.Url = src.Url
	}
	if src.ReleaseDate != nil {
		dst.ReleaseDate = src.ReleaseDate
	}
	if src.AverageRating != 0 {
		dst.AverageRating = src.AverageRating
	}
	if src.RatingCount > dst.RatingCount {
		dst.RatingCount = src.RatingCount
	}
}

func dedupBooks(books []*Book) []*Book {
	seen := make(map[int64]bool, len(books))
	out := books[:0]
	for _, b := range books {
		if b == nil || seen[b.ForeignId] {
			continue
		}
		seen[b.ForeignId] = true
		out = append(out, b)
	}
	return out
}

// DedupSeries drops later occurrences of an already-seen series ForeignId.
// Duplicates are discarded with a warning, not merged; the first occurrence
// is authoritative.
func DedupSeries(series []*Series) []*Series {
	seen := make(map[int64]bool, len(series))
	out := make([]*Series, 0, len(series))
	for _, s := range series {
		if s == nil {
			continue
		}
		if seen[s.ForeignId] {
			slog.Warn("dropping duplicate series", "foreignId", s.ForeignId, "title", s.Title)
			continue
		}
		seen[s.ForeignId] = true
		out = append(out, s)
	}
	return out
}

// DedupAuthors keeps the first occurrence of each author ForeignId.
func DedupAuthors(authors []*Author) []*Author {
	seen := make(map[int64]bool, len(authors))
	out := make([]*Author, 0, len(authors))
	for _, a := range authors {
		if a == nil || seen[a.ForeignId] {
			continue
		}
		seen[a.ForeignId] = true
		out = append(out, a)
	}
	return out
}

func unionStrings(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, s := range append(append([]string{}, a...), b...) {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func unionInt64s(a, b []int64) []int64 {
	seen := make(map[int64]bool, len(a)+len(b))
	out := make([]int64, 0, len(a)+len(b))
	for _, v := range append(append([]int64{}, a...), b...) {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func unionSeries(a, b []*Series) []*Series {
	seen := make(map[int64]bool, len(a)+len(b))
	out := make([]*Series, 0, len(a)+len(b))
	for _, s := range append(append([]*Series{}, a...), b...) {
		if s == nil || seen[s.ForeignId] {
			continue
		}
		seen[s.ForeignId] = true
		out = append(out, s)
	}
	return out
}
