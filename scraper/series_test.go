package scraper

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSeriesCoverListingFallback(t *testing.T) {
	html := `<html><body>
<h1>Old Markup Series</h1>
<div class="seriesCovers">
  <a href="/series/830-the-dark-tower" title="The Gunslinger"></a>
</div>
<div class="seriesCovers">
  <a href="/book/show/43615-the-gunslinger"></a>
  <a href="/book/show/5094-the-drawing-of-the-three"></a>
</div>
</body></html>`
	fake := newFakeFetch(map[string]string{
		"https://www.goodreads.com/series/830": html,
	})
	s := New(fake.fetch, "")

	series, err := s.GetSeries(context.Background(), 830)
	require.NoError(t, err)

	assert.Equal(t, int64(830), series.ForeignId)
	assert.Equal(t, "Old Markup Series", series.Title, "h1 is the title fallback")
	assert.Equal(t, "https://www.goodreads.com/series/830", series.Url)

	require.Len(t, series.LinkItems, 3)
	assert.Equal(t, int64(43615), series.LinkItems[1].ForeignWorkId)
	assert.True(t, series.LinkItems[1].Primary)
}

func TestGetSeriesSparsePage(t *testing.T) {
	fake := newFakeFetch(map[string]string{
		"https://www.goodreads.com/series/7": "<html><body></body></html>",
	})
	s := New(fake.fetch, "")

	series, err := s.GetSeries(context.Background(), 7)
	require.NoError(t, err)

	assert.Equal(t, int64(7), series.ForeignId)
	assert.Empty(t, series.Title)
	assert.Equal(t, int64(0), series.WorkCount)
	assert.Equal(t, 0.0, series.AverageRating)
	assert.Empty(t, series.Authors)
	assert.Empty(t, series.LinkItems)
}
