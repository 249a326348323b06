package scraper

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"bookinfo/model"
)

// GetBook fetches and parses one edition show page.
func (s *Scraper) GetBook(ctx context.Context, bookId int64) (*model.Book, error) {
	s.log.Info("getting book", "bookId", bookId)

	doc, err := s.getDocument(ctx, s.bookURL(bookId))
	if err != nil {
		return nil, err
	}
	return s.parseBook(doc, bookId)
}

func (s *Scraper) parseBook(doc *goquery.Document, bookId int64) (*model.Book, error) {
	title := strings.TrimSpace(doc.Find("h1[data-testid='bookTitle']").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1#bookTitle").First().Text())
	}
	if title == "" {
		// The title node is the structural anchor; without it the page is
		// not a book page at all.
		return nil, &ParseError{Page: "book", Id: bookId, Msg: "no title node"}
	}

	book := &model.Book{
		ForeignId: bookId,
		Title:     title,
		TitleSlug: model.TitleSlug(bookId, title),
		Language:  "eng",
		Asin:      "",
	}

	book.ImageUrl = doc.Find(".ResponsiveImage").First().AttrOr("src", "")
	if book.ImageUrl == "" {
		book.ImageUrl = doc.Find("img#coverImage").AttrOr("src", "")
	}

	// Canonical URL comes from page metadata when present; the derived show
	// URL is only the fallback.
	book.Url = doc.Find("meta[property='og:url']").AttrOr("content", "")
	if book.Url == "" {
		book.Url = s.bookURL(bookId)
	}

	book.Contributors = s.parseContributors(doc)

	book.AverageRating = parseFloatDefault(doc.Find("div.RatingStatistics__rating").First().Text())
	countText := doc.Find("[data-testid='ratingsCount']").First().Text()
	if i := strings.Index(countText, "rating"); i >= 0 {
		countText = countText[:i]
	}
	book.RatingCount = parseIntDefault(countText)

	book.Description = strings.TrimSpace(doc.Find("[data-testid='description']").First().Text())

	pagesFormat := strings.TrimSpace(doc.Find("[data-testid='pagesFormat']").First().Text())
	book.EditionInformation = pagesFormat
	book.NumPages = pagesFromText(pagesFormat)
	if i := strings.Index(pagesFormat, ","); i >= 0 {
		book.Format = strings.TrimSpace(pagesFormat[i+1:])
	} else if book.NumPages == nil {
		book.Format = pagesFormat
	}
	book.IsEbook = isEbookFormat(pagesFormat)

	pubInfo := doc.Find("[data-testid='publicationInfo']").First().Text()
	if date, publisher := publishedFromText(pubInfo); date != "" || publisher != "" {
		book.Publisher = publisher
		book.ReleaseDate = normalizeDate(date)
	}

	book.Isbn13 = detailRow(doc, "ISBN13", "ISBN")
	if asin := detailRow(doc, "ASIN"); asin != nil {
		book.Asin = *asin
	}

	return book, nil
}

// BookPage bundles everything a single edition show page yields beyond the
// edition itself: work-level genre tags, the series membership block, and
// contributor summaries with names.
type BookPage struct {
	Book    *model.Book
	Genres  []string
	Series  *model.Series
	Authors []model.AuthorSummary
}

// GetBookPage fetches one edition show page and extracts the full page yield.
func (s *Scraper) GetBookPage(ctx context.Context, bookId int64) (*BookPage, error) {
	s.log.Info("getting book page", "bookId", bookId)

	doc, err := s.getDocument(ctx, s.bookURL(bookId))
	if err != nil {
		return nil, err
	}
	book, err := s.parseBook(doc, bookId)
	if err != nil {
		return nil, err
	}
	return &BookPage{
		Book:    book,
		Genres:  parseGenres(doc),
		Series:  s.parseBookSeries(doc),
		Authors: s.contributorSummaries(doc),
	}, nil
}

// parseGenres collects the genre tag links, deduplicated in page order.
func parseGenres(doc *goquery.Document) []string {
	genres := []string{}
	seen := map[string]bool{}
	doc.Find("a[href*='/genres/']").Each(func(_ int, sel *goquery.Selection) {
		g := strings.TrimSpace(sel.Text())
		if g == "" || seen[g] {
			return
		}
		seen[g] = true
		genres = append(genres, g)
	})
	return genres
}

// parseContributors reads the contributor link list: display name plus the
// numeric id hiding in the trailing URL path segment.
func (s *Scraper) parseContributors(doc *goquery.Document) []model.Contributor {
	contributors := []model.Contributor{}
	seen := map[int64]bool{}
	doc.Find(".ContributorLinksList > span > a").Each(func(_ int, sel *goquery.Selection) {
		id := idFromPath(sel.AttrOr("href", ""))
		if id == 0 || seen[id] {
			return
		}
		seen[id] = true
		role := strings.TrimSpace(sel.Find("span.ContributorLink__role").Text())
		if role == "" {
			role = "Author"
		}
		contributors = append(contributors, model.Contributor{ForeignId: id, Role: strings.Trim(role, "()")})
	})
	return contributors
}

// contributorSummaries extracts the same link list as author summaries for
// callers that need names and urls, not just ids.
func (s *Scraper) contributorSummaries(doc *goquery.Document) []model.AuthorSummary {
	var out []model.AuthorSummary
	seen := map[int64]bool{}
	doc.Find(".ContributorLinksList > span > a").Each(func(_ int, sel *goquery.Selection) {
		href := sel.AttrOr("href", "")
		id := idFromPath(href)
		if id == 0 || seen[id] {
			return
		}
		seen[id] = true
		name := strings.TrimSpace(sel.Find("span.ContributorLink__name").Text())
		if name == "" {
			name = strings.TrimSpace(sel.Text())
		}
		out = append(out, model.AuthorSummary{ForeignId: id, Name: name, Url: s.absURL(href)})
	})
	return out
}

// parseBookSeries reads the at-most-one series membership block on a book
// page: a "/series/" link whose text carries "<title> #<n>".
func (s *Scraper) parseBookSeries(doc *goquery.Document) *model.Series {
	link := doc.Find("a[href*='/series/']").First()
	if link.Length() == 0 {
		return nil
	}
	seriesId := idFromPath(link.AttrOr("href", ""))
	if seriesId == 0 {
		return nil
	}
	title, position, _ := seriesFromTitle(link.Text())
	sr := &model.Series{
		ForeignId: seriesId,
		Title:     title,
		Url:       s.seriesURL(seriesId),
		LinkItems: []model.SeriesLinkItem{},
	}
	if position != "" {
		sr.LinkItems = append(sr.LinkItems, model.SeriesLinkItem{
			PositionInSeries: position,
			SeriesPosition:   int(parseIntDefault(position)),
			Primary:          true,
		})
	}
	return sr
}

// detailRow finds a labeled key-value row in the book details box, matching
// the label by exact text against any of the given names.
func detailRow(doc *goquery.Document, labels ...string) *string {
	var value *string
	doc.Find("div.infoBoxRowTitle, dt").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		label := strings.TrimSpace(sel.Text())
		for _, want := range labels {
			if label != want {
				continue
			}
			v := strings.TrimSpace(sel.Next().Text())
			if v != "" {
				// Rows render as "9781234567890 (ISBN10: ...)"; keep the head.
				v = strings.Fields(v)[0]
				value = &v
			}
			return false
		}
		return true
	})
	return value
}
