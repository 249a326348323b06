package scraper

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"

	"bookinfo/model"
)

// Search runs a query against the site's search page and parses the result
// rows. Zero matching rows is a valid empty result, not an error.
func (s *Scraper) Search(ctx context.Context, query string) ([]*model.SearchResult, error) {
	s.log.Info("searching", "query", query)

	searchURL := fmt.Sprintf("%s/search?q=%s", s.baseURL, url.QueryEscape(query))
	doc, err := s.getDocument(ctx, searchURL)
	if err != nil {
		return nil, err
	}
	return s.parseSearch(doc), nil
}

func (s *Scraper) parseSearch(doc *goquery.Document) []*model.SearchResult {
	results := []*model.SearchResult{}

	doc.Find(".tableList tr").Each(func(_ int, row *goquery.Selection) {
		titleLink := row.Find("a.bookTitle").First()
		href := titleLink.AttrOr("href", "")
		bookId := idFromPath(href)
		if bookId == 0 {
			return
		}

		title := strings.TrimSpace(titleLink.Find("span[itemprop='name']").Text())
		if title == "" {
			title = strings.TrimSpace(titleLink.Text())
		}

		authorLink := row.Find("a.authorName").First()
		authorName := strings.TrimSpace(authorLink.Find("span[itemprop='name']").Text())
		if authorName == "" {
			authorName = strings.TrimSpace(authorLink.Text())
		}
		authorHref := authorLink.AttrOr("href", "")

		// "4.18 avg rating — 1,234,567 ratings"
		rating := row.Find(".minirating").First().Text()

		results = append(results, &model.SearchResult{
			Qid:          uuid.NewString(),
			WorkId:       bookId,
			BookId:       bookId,
			BookUrl:      s.absURL(href),
			Title:        title,
			ImageUrl:     row.Find("img.bookCover").First().AttrOr("src", ""),
			AvgRating:    ratingFromText(rating),
			RatingsCount: ratingCountFromText(rating),
			Author: model.AuthorSummary{
				ForeignId: idFromPath(authorHref),
				Name:      authorName,
				Url:       s.absURL(authorHref),
			},
			Rank: len(results) + 1,
		})
	})

	return results
}
