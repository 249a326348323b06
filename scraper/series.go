package scraper

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"bookinfo/model"
)

// GetSeries fetches and parses one series page.
func (s *Scraper) GetSeries(ctx context.Context, seriesId int64) (*model.Series, error) {
	s.log.Info("getting series", "seriesId", seriesId)

	doc, err := s.getDocument(ctx, s.seriesURL(seriesId))
	if err != nil {
		return nil, err
	}
	return s.parseSeries(doc, seriesId), nil
}

func (s *Scraper) parseSeries(doc *goquery.Document, seriesId int64) *model.Series {
	series := &model.Series{
		ForeignId: seriesId,
		Url:       s.seriesURL(seriesId),
		LinkItems: []model.SeriesLinkItem{},
	}

	series.Title = strings.TrimSpace(doc.Find(".seriesDesc .bookTitle").First().Text())
	if series.Title == "" {
		series.Title = strings.TrimSpace(doc.Find("h1").First().Text())
	}

	series.Description = strings.TrimSpace(doc.Find(".seriesDesc .seriesNotes").First().Text())

	// "(7 books)" next to the title.
	series.WorkCount = bookCountFromText(doc.Find(".seriesDesc .bookMeta").First().Text())

	// "4.25 avg rating — 1,234 ratings"
	rating := doc.Find(".seriesDesc .minirating").First().Text()
	series.AverageRating = ratingFromText(rating)
	series.RatingCount = ratingCountFromText(rating)

	doc.Find(".seriesDesc .authorName__container").Each(func(_ int, el *goquery.Selection) {
		link := el.Find(".authorName").First()
		href := link.AttrOr("href", "")
		name := strings.TrimSpace(link.Find("span[itemprop='name']").Text())
		if name == "" {
			name = strings.TrimSpace(link.Text())
		}
		series.Authors = append(series.Authors, model.AuthorSummary{
			ForeignId: idFromPath(href),
			Name:      name,
			Url:       s.absURL(href),
		})
	})

	series.LinkItems = s.parseSeriesListing(doc)

	return series
}

// parseSeriesListing walks the books-in-series list. Positions render as
// "Book <n>" headings; rows without a work link are skipped.
func (s *Scraper) parseSeriesListing(doc *goquery.Document) []model.SeriesLinkItem {
	items := []model.SeriesLinkItem{}
	seen := map[int64]bool{}

	doc.Find(".listWithDividers__item").Each(func(_ int, el *goquery.Selection) {
		workId := idFromPath(el.Find("a[href*='/book/show/']").First().AttrOr("href", ""))
		if workId == 0 || seen[workId] {
			return
		}
		seen[workId] = true

		position := strings.TrimSpace(strings.TrimPrefix(
			strings.TrimSpace(el.Find("h3").First().Text()), "Book"))

		items = append(items, model.SeriesLinkItem{
			ForeignWorkId:    workId,
			PositionInSeries: position,
			SeriesPosition:   int(parseIntDefault(position)),
			Primary:          !strings.Contains(position, "-") && !strings.Contains(position, "."),
		})
	})

	// Older markup renders the listing as cover links with slugged hrefs.
	if len(items) == 0 {
		doc.Find(".seriesCovers a").Each(func(i int, el *goquery.Selection) {
			workId := idFromPath(el.AttrOr("href", ""))
			if workId == 0 || seen[workId] {
				return
			}
			seen[workId] = true
			items = append(items, model.SeriesLinkItem{
				ForeignWorkId: workId,
				Primary:       true,
			})
		})
	}

	return items
}
