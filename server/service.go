package server

import (
	"context"
	"sort"

	"bookinfo/fetcher"
	"bookinfo/model"
	"bookinfo/pipeline"
	"bookinfo/scraper"
)

// Service composes the scraper and the orchestration pipeline into the
// operations the HTTP handlers call.
type Service struct {
	scraper *scraper.Scraper
	runner  *pipeline.Runner
}

func NewService(sc *scraper.Scraper, runner *pipeline.Runner) *Service {
	return &Service{scraper: sc, runner: runner}
}

// WorkResponse is a Work joined with the full author records the work's
// editions reference, the shape /v1/work consumers expect.
type WorkResponse struct {
	model.Work
	Authors []*model.Author `json:"Authors"`
}

// editionsResult is the cacheable yield of one editions-page parse.
type editionsResult struct {
	Books  []*model.Book   `json:"Books"`
	Series []*model.Series `json:"Series"`
}

func (s *Service) GetAuthor(ctx context.Context, authorId int64) (*model.Author, error) {
	return pipeline.Do(ctx, s.runner, "getAuthor", func(ctx context.Context) (*model.Author, error) {
		return s.scraper.GetAuthor(ctx, authorId)
	}, authorId)
}

func (s *Service) getBookPage(ctx context.Context, bookId int64) (*scraper.BookPage, error) {
	return pipeline.Do(ctx, s.runner, "getBook", func(ctx context.Context) (*scraper.BookPage, error) {
		return s.scraper.GetBookPage(ctx, bookId)
	}, bookId)
}

func (s *Service) getEditions(ctx context.Context, workId int64) (*editionsResult, error) {
	return pipeline.Do(ctx, s.runner, "getEditions", func(ctx context.Context) (*editionsResult, error) {
		books, series, err := s.scraper.GetEditions(ctx, workId)
		if err != nil {
			return nil, err
		}
		return &editionsResult{Books: books, Series: series}, nil
	}, workId)
}

// GetEditions returns the edition list for a work id.
func (s *Service) GetEditions(ctx context.Context, workId int64) ([]*model.Book, error) {
	res, err := s.getEditions(ctx, workId)
	if err != nil {
		return nil, err
	}
	return res.Books, nil
}

// GetWork resolves an id that may denote either a canonical work or a single
// edition: work-level resolution (the editions listing) is attempted first,
// and edition-level resolution is the fallback when the listing 404s.
func (s *Service) GetWork(ctx context.Context, id int64) (*WorkResponse, error) {
	editions, err := s.getEditions(ctx, id)
	if err == nil && len(editions.Books) > 0 {
		return s.workFromEditions(ctx, id, editions)
	}
	if err != nil && !fetcher.IsNotFound(err) {
		return nil, err
	}

	page, err := s.getBookPage(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.workFromBookPage(ctx, page), nil
}

func (s *Service) workFromEditions(ctx context.Context, workId int64, editions *editionsResult) (*WorkResponse, error) {
	work := model.Work{
		ForeignId:    workId,
		Url:          s.scraper.WorkURL(workId),
		Genres:       []string{},
		RelatedWorks: []int64{},
		Books:        editions.Books,
		Series:       editions.Series,
	}
	var contributorIds []int64
	for _, b := range editions.Books {
		if work.Title == "" && b.Title != "" {
			work.Title = b.Title
			work.TitleSlug = model.TitleSlug(workId, b.Title)
		}
		if work.ImageUrl == "" {
			work.ImageUrl = b.ImageUrl
		}
		if work.ReleaseDate == nil {
			work.ReleaseDate = b.ReleaseDate
		}
		for _, c := range b.Contributors {
			contributorIds = append(contributorIds, c.ForeignId)
		}
	}

	return &WorkResponse{Work: work, Authors: s.fetchAuthors(ctx, contributorIds)}, nil
}

func (s *Service) workFromBookPage(ctx context.Context, page *scraper.BookPage) *WorkResponse {
	book := page.Book
	work := model.Work{
		ForeignId:    book.ForeignId,
		Title:        book.Title,
		TitleSlug:    book.TitleSlug,
		ReleaseDate:  book.ReleaseDate,
		Url:          book.Url,
		Genres:       page.Genres,
		RelatedWorks: []int64{},
		Books:        []*model.Book{book},
		Series:       []*model.Series{},
		ImageUrl:     book.ImageUrl,
	}
	if page.Series != nil {
		work.Series = append(work.Series, page.Series)
	}

	var contributorIds []int64
	for _, c := range book.Contributors {
		contributorIds = append(contributorIds, c.ForeignId)
	}

	return &WorkResponse{Work: work, Authors: s.fetchAuthors(ctx, contributorIds)}
}

// fetchAuthors resolves full author records for the given contributor ids,
// deduplicated. An author that cannot be fetched is dropped, never fatal for
// the surrounding work.
func (s *Service) fetchAuthors(ctx context.Context, ids []int64) []*model.Author {
	batch := pipeline.BatchDo(ctx, s.runner, "getAuthor", ids, func(ctx context.Context, id int64) (*model.Author, error) {
		return s.scraper.GetAuthor(ctx, id)
	})

	authors := []*model.Author{}
	seen := map[int64]bool{}
	for _, id := range ids {
		a, ok := batch.Results[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		authors = append(authors, a)
	}
	return model.DedupAuthors(authors)
}

func (s *Service) Search(ctx context.Context, query string) ([]*model.SearchResult, error) {
	return pipeline.DoUncached(ctx, s.runner, "search", func(ctx context.Context) ([]*model.SearchResult, error) {
		return s.scraper.Search(ctx, query)
	}, query)
}

// BatchFailure marks one identifier that exhausted its attempts in a batch.
type BatchFailure struct {
	ForeignId int64  `json:"ForeignId"`
	Error     string `json:"Error"`
}

// BulkResponse aggregates all requested books, their series, and the
// deduplicated contributor authors.
type BulkResponse struct {
	Works    []*model.Work   `json:"Works"`
	Series   []*model.Series `json:"Series"`
	Authors  []*model.Author `json:"Authors"`
	Failures []BatchFailure  `json:"Failures,omitempty"`
}

// GetBulk serves the POST catch-all: fetch every requested book, wrap each
// into a Work, merge works sharing an id, aggregate series, and resolve the
// deduplicated authors. Per-identifier failures are reported as markers, not
// as a failed batch.
func (s *Service) GetBulk(ctx context.Context, bookIds []int64) *BulkResponse {
	batch := pipeline.BatchDo(ctx, s.runner, "getBook", bookIds, func(ctx context.Context, id int64) (*scraper.BookPage, error) {
		return s.scraper.GetBookPage(ctx, id)
	})

	var works []*model.Work
	var series []*model.Series
	var contributorIds []int64

	for _, id := range bookIds {
		page, ok := batch.Results[id]
		if !ok {
			continue
		}
		wr := s.workFromPageOnly(page)
		works = append(works, wr)
		series = append(series, wr.Series...)
		for _, c := range page.Book.Contributors {
			contributorIds = append(contributorIds, c.ForeignId)
		}
	}

	resp := &BulkResponse{
		Works:   model.MergeWorks(works),
		Series:  model.DedupSeries(series),
		Authors: s.fetchAuthors(ctx, contributorIds),
	}
	if resp.Works == nil {
		resp.Works = []*model.Work{}
	}
	if resp.Series == nil {
		resp.Series = []*model.Series{}
	}

	for _, id := range sortedFailureIds(batch.Failed) {
		resp.Failures = append(resp.Failures, BatchFailure{ForeignId: id, Error: batch.Failed[id].Error()})
	}
	return resp
}

func sortedFailureIds(failed map[int64]error) []int64 {
	ids := make([]int64, 0, len(failed))
	for id := range failed {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// workFromPageOnly shapes a book page into a Work without resolving authors;
// GetBulk resolves authors once across the whole batch.
func (s *Service) workFromPageOnly(page *scraper.BookPage) *model.Work {
	book := page.Book
	work := &model.Work{
		ForeignId:    book.ForeignId,
		Title:        book.Title,
		TitleSlug:    book.TitleSlug,
		ReleaseDate:  book.ReleaseDate,
		Url:          book.Url,
		Genres:       page.Genres,
		RelatedWorks: []int64{},
		Books:        []*model.Book{book},
		Series:       []*model.Series{},
		ImageUrl:     book.ImageUrl,
	}
	if page.Series != nil {
		work.Series = append(work.Series, page.Series)
	}
	return work
}
