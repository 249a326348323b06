package scraper

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"bookinfo/model"
)

// GetAuthor fetches and parses one author page, including the author's book
// list and any series the listed books belong to. Series pages referenced
// from book rows are resolved with exactly one level of recursion (series →
// series page, no further), bounded by an explicit visited set, and
// deduplicated by series ForeignId within this one parse.
func (s *Scraper) GetAuthor(ctx context.Context, authorId int64) (*model.Author, error) {
	s.log.Info("getting author", "authorId", authorId)

	url := s.authorURL(authorId)
	doc, err := s.getDocument(ctx, url)
	if err != nil {
		return nil, err
	}
	return s.parseAuthor(ctx, doc, authorId)
}

func (s *Scraper) parseAuthor(ctx context.Context, doc *goquery.Document, authorId int64) (*model.Author, error) {
	author := &model.Author{
		ForeignId: authorId,
		Url:       s.authorURL(authorId),
	}

	author.ImageUrl = doc.Find("div[itemtype='http://schema.org/Person'] > div > a > img").AttrOr("src", "")

	author.Name = strings.TrimSpace(doc.Find("h1.authorName > span").First().Text())
	if author.Name == "" {
		author.Name = "Unknown Author"
	}

	doc.Find("div.dataItem > a[href*='/genres/']").Each(func(_ int, sel *goquery.Selection) {
		if genre := strings.TrimSpace(sel.Text()); genre != "" {
			author.Genres = append(author.Genres, genre)
		}
	})

	// Biography keeps its markup; only the first snippet counts.
	if desc, err := doc.Find(".aboutAuthorInfo > span").First().Html(); err == nil {
		author.Description = strings.TrimSpace(desc)
	}

	aggregate := doc.Find("div.hreview-aggregate").First().Text()
	author.AverageRating = ratingFromText(aggregate)
	author.RatingCount = ratingCountFromText(aggregate)
	if author.AverageRating == 0 {
		author.AverageRating = parseFloatDefault(doc.Find("span.average").First().Text())
	}
	if author.RatingCount == 0 {
		author.RatingCount = parseIntDefault(doc.Find("span.votes").First().Text())
	}

	works, seriesIds := s.parseAuthorBookList(doc, authorId)
	author.Works = model.MergeWorks(works)
	author.Series = s.resolveSeries(ctx, seriesIds)

	return author, nil
}

// parseAuthorBookList walks the author page's book table. Each row yields a
// partial Work; series references embedded in row titles are collected for
// one-level resolution by the caller.
func (s *Scraper) parseAuthorBookList(doc *goquery.Document, authorId int64) ([]*model.Work, []int64) {
	var works []*model.Work
	var seriesIds []int64

	doc.Find("tr[itemtype='http://schema.org/Book']").Each(func(_ int, row *goquery.Selection) {
		link := row.Find("a.bookTitle").First()
		href := link.AttrOr("href", "")
		workId := idFromPath(href)
		if workId == 0 {
			return
		}

		title := strings.TrimSpace(link.Find("span[itemprop='name']").Text())
		if title == "" {
			title = strings.TrimSpace(link.Text())
		}

		rating := row.Find("span.minirating").First().Text()

		work := &model.Work{
			ForeignId:     workId,
			Title:         title,
			TitleSlug:     model.TitleSlug(workId, title),
			Url:           s.absURL(href),
			ImageUrl:      row.Find("img.bookCover").AttrOr("src", ""),
			AverageRating: ratingFromText(rating),
			RatingCount:   ratingCountFromText(rating),
			Genres:        []string{},
			RelatedWorks:  []int64{},
			Books:         []*model.Book{},
			Series:        []*model.Series{},
		}
		works = append(works, work)

		row.Find("a[href*='/series/']").Each(func(_ int, sl *goquery.Selection) {
			if id := idFromPath(sl.AttrOr("href", "")); id != 0 {
				seriesIds = append(seriesIds, id)
			}
		})
	})

	return works, seriesIds
}

// resolveSeries fetches each referenced series page once. The visited set
// both deduplicates and bounds the recursion: series pages themselves are
// never expanded further.
func (s *Scraper) resolveSeries(ctx context.Context, seriesIds []int64) []*model.Series {
	if len(seriesIds) == 0 {
		return nil
	}

	visited := make(map[int64]bool, len(seriesIds))
	var series []*model.Series
	for _, id := range seriesIds {
		if visited[id] {
			s.log.Warn("dropping duplicate series reference", "seriesId", id)
			continue
		}
		visited[id] = true

		sr, err := s.GetSeries(ctx, id)
		if err != nil {
			s.log.Warn("failed to resolve series", "seriesId", id, "error", err)
			continue
		}
		series = append(series, sr)
	}
	return model.DedupSeries(series)
}
