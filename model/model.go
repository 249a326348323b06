package model

import (
	"fmt"
	"strings"
)

// Author is the record produced from one author page. Identity is ForeignId,
// the id assigned by the source site. An Author is immutable once returned;
// cache expiry forces a fresh parse instead of an in-place refresh.
type Author struct {
	ForeignId     int64     `json:"ForeignId"`
	Name          string    `json:"Name"`
	Description   string    `json:"Description"`
	ImageUrl      string    `json:"ImageUrl"`
	Url           string    `json:"Url"`
	AverageRating float64   `json:"AverageRating"`
	RatingCount   int64     `json:"RatingCount"`
	Genres        []string  `json:"Genres,omitempty"`
	Series        []*Series `json:"Series"`
	Works         []*Work   `json:"Works"`
}

// Work is the canonical title-level record aggregating one or more editions.
type Work struct {
	ForeignId     int64     `json:"ForeignId"`
	Title         string    `json:"Title"`
	TitleSlug     string    `json:"TitleSlug"`
	ReleaseDate   *string   `json:"ReleaseDate"`
	Url           string    `json:"Url"`
	Genres        []string  `json:"Genres"`
	RelatedWorks  []int64   `json:"RelatedWorks"`
	Books         []*Book   `json:"Books"`
	Series        []*Series `json:"Series"`
	ImageUrl      string    `json:"ImageUrl,omitempty"`
	Description   string    `json:"Description,omitempty"`
	AverageRating float64   `json:"AverageRating,omitempty"`
	RatingCount   int64     `json:"RatingCount,omitempty"`
}

// Book is a single published edition of a Work. ForeignId identifies the
// edition; ForeignWorkId the work it belongs to.
type Book struct {
	ForeignId           int64         `json:"ForeignId"`
	ForeignWorkId       int64         `json:"ForeignWorkId,omitempty"`
	Title               string        `json:"Title"`
	TitleSlug           string        `json:"TitleSlug,omitempty"`
	OriginalTitle       string        `json:"OriginalTitle,omitempty"`
	Description         string        `json:"Description"`
	Language            string        `json:"Language"`
	Format              string        `json:"Format"`
	EditionInformation  string        `json:"EditionInformation"`
	Publisher           string        `json:"Publisher"`
	IsEbook             bool          `json:"IsEbook"`
	NumPages            *int64        `json:"NumPages"`
	Isbn13              *string       `json:"Isbn13"`
	Asin                string        `json:"Asin"`
	RatingCount         int64         `json:"RatingCount"`
	AverageRating       float64       `json:"AverageRating"`
	ImageUrl            string        `json:"ImageUrl"`
	Url                 string        `json:"Url"`
	ReleaseDate         *string       `json:"ReleaseDate"`
	OriginalReleaseDate *string       `json:"OriginalReleaseDate,omitempty"`
	Contributors        []Contributor `json:"Contributors"`
}

// Contributor links a Book to a person by role.
type Contributor struct {
	ForeignId int64  `json:"ForeignId"`
	Role      string `json:"Role"`
}

// Series groups works under a source-assigned series id.
type Series struct {
	ForeignId     int64            `json:"ForeignId"`
	Title         string           `json:"Title"`
	Url           string           `json:"Url,omitempty"`
	Description   string           `json:"Description,omitempty"`
	WorkCount     int64            `json:"WorkCount,omitempty"`
	AverageRating float64          `json:"AverageRating,omitempty"`
	RatingCount   int64            `json:"RatingCount,omitempty"`
	Authors       []AuthorSummary  `json:"Authors,omitempty"`
	LinkItems     []SeriesLinkItem `json:"LinkItems"`
}

// SeriesLinkItem is one work's membership in a series.
type SeriesLinkItem struct {
	ForeignWorkId    int64  `json:"ForeignWorkId"`
	PositionInSeries string `json:"PositionInSeries"`
	SeriesPosition   int    `json:"SeriesPosition"`
	Primary          bool   `json:"Primary"`
}

// AuthorSummary is the short author reference used inside series and search
// results, where only the id and display name are known.
type AuthorSummary struct {
	ForeignId int64  `json:"ForeignId"`
	Name      string `json:"Name"`
	Url       string `json:"Url,omitempty"`
}

// SearchResult is a transient row from the search results page. It is never
// cached or persisted.
type SearchResult struct {
	Qid          string        `json:"qid"`
	WorkId       int64         `json:"workId"`
	BookId       int64         `json:"bookId"`
	BookUrl      string        `json:"bookUrl"`
	Title        string        `json:"title"`
	ImageUrl     string        `json:"imageUrl"`
	AvgRating    float64       `json:"avgRating"`
	RatingsCount int64         `json:"ratingsCount"`
	Author       AuthorSummary `json:"author"`
	Rank         int           `json:"rank"`
}

// TitleSlug derives the url-ish slug "{id}-{title_with_underscores}" used by
// the source site for show pages.
func TitleSlug(id int64, title string) string {
	slug := strings.Join(strings.Fields(title), "_")
	return fmt.Sprintf("%d-%s", id, slug)
}
