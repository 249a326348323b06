package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookinfo/cache"
	"bookinfo/fetcher"
	"bookinfo/model"
	"bookinfo/pipeline"
	"bookinfo/scraper"
)

const base = "https://www.goodreads.com"

var testPages = map[string]string{
	base + "/work/editions/12345": `<html><body>
<div class="elementList"><div class="editionData">
  <a class="bookTitle" href="/book/show/111-it">It</a>
  <div class="dataRow"><div class="dataTitle">Author(s):</div><div class="dataValue"><a href="/author/show/99.Jo_Writer">Jo Writer</a></div></div>
</div></div>
<div class="elementList"><div class="editionData">
  <a class="bookTitle" href="/book/show/222-it">It (Derry #1)</a>
  <div class="dataRow"><div class="dataTitle">Author(s):</div><div class="dataValue"><a href="/author/show/99.Jo_Writer">Jo Writer</a></div></div>
</div></div>
</body></html>`,

	base + "/work/editions/500": `<html><body><p>no editions</p></body></html>`,

	base + "/author/show/99": `<html><body>
<h1 class="authorName"><span>Jo Writer</span></h1>
<div class="hreview-aggregate">4.10 avg rating — 1,000 ratings</div>
</body></html>`,

	base + "/book/show/777": `<html><body>
<h1 data-testid="bookTitle">Standalone Edition</h1>
<div class="ContributorLinksList"><span><a href="/author/show/99.Jo_Writer"><span class="ContributorLink__name">Jo Writer</span></a></span></div>
</body></html>`,

	base + "/book/show/311": `<html><body>
<h1 data-testid="bookTitle">Carrie</h1>
<div class="ContributorLinksList"><span><a href="/author/show/99.Jo_Writer"><span class="ContributorLink__name">Jo Writer</span></a></span></div>
<a href="/genres/horror">Horror</a>
</body></html>`,

	base + "/search?q=zvxqj": `<html><body><h3>No results.</h3></body></html>`,
}

// testFetch serves the canned pages; configured URLs can fail with a
// permanent transient error instead.
type testFetch struct {
	mu       sync.Mutex
	broken   map[string]error
	requests []string
}

func (f *testFetch) fetch(_ context.Context, url string) (string, error) {
	f.mu.Lock()
	f.requests = append(f.requests, url)
	f.mu.Unlock()
	if err, ok := f.broken[url]; ok {
		return "", err
	}
	if html, ok := testPages[url]; ok {
		return html, nil
	}
	return "", fmt.Errorf("fetch %s: %w", url, fetcher.ErrNotFound)
}

func newTestServer(t *testing.T, broken map[string]error) *Server {
	t.Helper()
	store, err := cache.New(t.TempDir(), time.Hour, true)
	require.NoError(t, err)

	fake := &testFetch{broken: broken}
	sc := scraper.New(fake.fetch, base)
	runner := pipeline.NewRunner(store, pipeline.Options{
		MinInterval: time.Millisecond,
		MaxAttempts: 2,
		BaseDelay:   time.Millisecond,
		MaxDelay:    2 * time.Millisecond,
	})
	return New(NewService(sc, runner))
}

func doRequest(t *testing.T, srv *Server, method, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestGetWorkDedupsAuthors(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := doRequest(t, srv, http.MethodGet, "/v1/work/12345", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var work WorkResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &work))

	assert.Equal(t, int64(12345), work.ForeignId)
	assert.Equal(t, "It", work.Title)
	require.Len(t, work.Books, 2)
	require.Len(t, work.Authors, 1, "two editions sharing one author yield exactly one author entry")
	assert.Equal(t, int64(99), work.Authors[0].ForeignId)
	assert.Equal(t, "Jo Writer", work.Authors[0].Name)
}

func TestGetWorkFallsBackToEditionResolution(t *testing.T) {
	srv := newTestServer(t, nil)

	// no editions listing exists for 777, but the edition page does
	rec := doRequest(t, srv, http.MethodGet, "/v1/work/777", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var work WorkResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &work))
	assert.Equal(t, "Standalone Edition", work.Title)
	require.Len(t, work.Books, 1)
	require.Len(t, work.Authors, 1)
}

func TestGetWorkNotFound(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := doRequest(t, srv, http.MethodGet, "/v1/work/424242", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, "{}", rec.Body.String())
}

func TestGetAuthor(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := doRequest(t, srv, http.MethodGet, "/v1/author/99", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var author model.Author
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &author))
	assert.Equal(t, "Jo Writer", author.Name)
	assert.Equal(t, 4.10, author.AverageRating)
}

func TestGetAuthorNotFound(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := doRequest(t, srv, http.MethodGet, "/v1/author/424242", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetAuthorInvalidId(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := doRequest(t, srv, http.MethodGet, "/v1/author/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetEditions(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := doRequest(t, srv, http.MethodGet, "/v1/edition/12345", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var editions []*model.Book
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &editions))
	require.Len(t, editions, 2)
	assert.Equal(t, int64(111), editions[0].ForeignId)
	assert.Equal(t, int64(12345), editions[0].ForeignWorkId)
}

func TestGetEditionsEmptyIs404(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := doRequest(t, srv, http.MethodGet, "/v1/edition/500", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSearchEmptyResult(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := doRequest(t, srv, http.MethodGet, "/v1/search?q=zvxqj", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestSearchMissingQuery(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := doRequest(t, srv, http.MethodGet, "/v1/search", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBulkPartialFailure(t *testing.T) {
	srv := newTestServer(t, map[string]error{
		base + "/book/show/322": errors.New("upstream keeps timing out"),
	})

	body, _ := json.Marshal([]int64{311, 322})
	rec := doRequest(t, srv, http.MethodPost, "/", body)
	require.Equal(t, http.StatusOK, rec.Code, "partial failure is still a 200")

	var resp BulkResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	require.Len(t, resp.Works, 1)
	assert.Equal(t, int64(311), resp.Works[0].ForeignId)
	assert.Equal(t, []string{"Horror"}, resp.Works[0].Genres)

	require.Len(t, resp.Authors, 1)
	assert.Equal(t, int64(99), resp.Authors[0].ForeignId)

	require.Len(t, resp.Failures, 1)
	assert.Equal(t, int64(322), resp.Failures[0].ForeignId)
	assert.NotEmpty(t, resp.Failures[0].Error)
}

func TestBulkInvalidBody(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := doRequest(t, srv, http.MethodPost, "/", []byte(`{"not":"an array"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBulkUsesCacheOnRepeat(t *testing.T) {
	store, err := cache.New(t.TempDir(), time.Hour, true)
	require.NoError(t, err)
	fake := &testFetch{}
	sc := scraper.New(fake.fetch, base)
	runner := pipeline.NewRunner(store, pipeline.Options{
		MinInterval: time.Millisecond,
		MaxAttempts: 2,
		BaseDelay:   time.Millisecond,
	})
	srv := New(NewService(sc, runner))

	body, _ := json.Marshal([]int64{311})
	first := doRequest(t, srv, http.MethodPost, "/anything", body)
	require.Equal(t, http.StatusOK, first.Code)
	fetchesAfterFirst := len(fake.requests)

	second := doRequest(t, srv, http.MethodPost, "/anything", body)
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, fetchesAfterFirst, len(fake.requests), "warm cache bypasses the network entirely")
	assert.JSONEq(t, first.Body.String(), second.Body.String())
}
