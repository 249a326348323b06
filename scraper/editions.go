package scraper

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"bookinfo/model"
)

// GetEditions fetches and parses the alternate-editions listing of a work.
// The returned editions are deduplicated by ForeignId; a page that exists but
// lists no parseable editions yields an empty slice, not an error.
func (s *Scraper) GetEditions(ctx context.Context, workId int64) ([]*model.Book, []*model.Series, error) {
	s.log.Info("getting editions", "workId", workId)

	doc, err := s.getDocument(ctx, s.editionsURL(workId))
	if err != nil {
		return nil, nil, err
	}
	books, series := s.parseEditions(doc, workId)
	return books, series, nil
}

func (s *Scraper) parseEditions(doc *goquery.Document, workId int64) ([]*model.Book, []*model.Series) {
	books := []*model.Book{}
	var series []*model.Series
	seen := map[int64]bool{}

	doc.Find(".elementList .editionData").Each(func(_ int, item *goquery.Selection) {
		book, sr := s.parseEditionItem(item, workId)
		if book == nil || seen[book.ForeignId] {
			return
		}
		seen[book.ForeignId] = true
		books = append(books, book)
		if sr != nil {
			series = append(series, sr)
		}
	})

	return books, dedupSeriesByTitle(series)
}

// dedupSeriesByTitle keeps the first series per title. Series lifted out of
// edition title text carry no ForeignId, so the title is the only key.
func dedupSeriesByTitle(series []*model.Series) []*model.Series {
	seen := map[string]bool{}
	out := []*model.Series{}
	for _, sr := range series {
		if sr == nil || seen[sr.Title] {
			continue
		}
		seen[sr.Title] = true
		out = append(out, sr)
	}
	return out
}

// parseEditionItem extracts one edition row. Every field is optional except
// the edition link that carries the id; rows without it are skipped.
func (s *Scraper) parseEditionItem(item *goquery.Selection, workId int64) (*model.Book, *model.Series) {
	link := item.Find("a.bookTitle").First()
	href := link.AttrOr("href", "")
	bookId := idFromPath(href)
	if bookId == 0 {
		return nil, nil
	}

	rawTitle := strings.TrimSpace(link.Text())
	title := rawTitle
	var series *model.Series

	// Edition titles embed series membership as "Title (Series #1)".
	if open := strings.LastIndex(rawTitle, "("); open >= 0 && strings.HasSuffix(rawTitle, ")") {
		if name, position, ok := seriesFromTitle(rawTitle[open+1 : len(rawTitle)-1]); ok {
			title = strings.TrimSpace(rawTitle[:open])
			series = &model.Series{
				Title: name,
				LinkItems: []model.SeriesLinkItem{{
					ForeignWorkId:    workId,
					PositionInSeries: position,
					SeriesPosition:   int(parseIntDefault(position)),
					Primary:          true,
				}},
			}
		}
	}
	book := &model.Book{
		ForeignId:     bookId,
		ForeignWorkId: workId,
		Title:         title,
		TitleSlug:     model.TitleSlug(bookId, title),
		Url:           s.absURL(href),
		ImageUrl:      item.Parent().Find("img").First().AttrOr("src", ""),
		Language:      "eng",
		Contributors:  []model.Contributor{},
	}

	item.Find(".dataRow").Each(func(_ int, row *goquery.Selection) {
		text := strings.TrimSpace(row.Text())
		switch {
		case strings.HasPrefix(text, "Published"):
			date, publisher := publishedFromText(text)
			book.ReleaseDate = normalizeDate(date)
			book.Publisher = publisher
		case strings.Contains(text, "avg rating"):
			book.AverageRating = ratingFromText(text)
			book.RatingCount = ratingCountFromText(text)
		}
	})

	item.Find(".dataTitle").Each(func(_ int, dt *goquery.Selection) {
		label := strings.TrimSpace(dt.Text())
		value := strings.TrimSpace(dt.Next().Text())
		switch label {
		case "Format:", "Format":
			book.Format = value
			book.IsEbook = isEbookFormat(value)
			book.NumPages = pagesFromText(value)
		case "ISBN13:", "ISBN13":
			if value != "" {
				v := strings.Fields(value)[0]
				book.Isbn13 = &v
			}
		case "ASIN:", "ASIN":
			book.Asin = value
		case "Edition language:", "Edition language":
			book.Language = languageCode(value)
		case "Author(s):", "Author(s)":
			dt.Next().Find("a").Each(func(_ int, al *goquery.Selection) {
				if id := idFromPath(al.AttrOr("href", "")); id != 0 {
					book.Contributors = append(book.Contributors, model.Contributor{ForeignId: id, Role: "Author"})
				}
			})
		}
	})

	return book, series
}

// languageCode maps a display language to the three-letter code the API
// contract uses, defaulting to the display text when unknown.
func languageCode(display string) string {
	switch strings.ToLower(strings.TrimSpace(display)) {
	case "english":
		return "eng"
	case "german", "deutsch":
		return "deu"
	case "french":
		return "fra"
	case "spanish":
		return "spa"
	case "":
		return "eng"
	default:
		return display
	}
}
