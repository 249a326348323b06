package scraper

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const editionsFixture = `<html><body>
<div class="elementList clearFix">
  <div class="leftAlignedImage"><img src="https://images.example/editions/111.jpg"/></div>
  <div class="editionData">
    <a class="bookTitle" href="/book/show/111-the-gunslinger">The Gunslinger (The Dark Tower #1)</a>
    <div class="dataRow">Published June 1st 2004 by Viking</div>
    <div class="dataRow">4.03 avg rating — 600,123 ratings</div>
    <div class="dataRow"><div class="dataTitle">Format:</div><div class="dataValue">Paperback, 300 pages</div></div>
    <div class="dataRow"><div class="dataTitle">ISBN13:</div><div class="dataValue">9780451210845</div></div>
    <div class="dataRow"><div class="dataTitle">Edition language:</div><div class="dataValue">English</div></div>
    <div class="dataRow"><div class="dataTitle">Author(s):</div><div class="dataValue"><a href="/author/show/3389.Stephen_King">Stephen King</a></div></div>
  </div>
</div>
<div class="elementList clearFix">
  <div class="editionData">
    <a class="bookTitle" href="/book/show/222-the-gunslinger">The Gunslinger</a>
    <div class="dataRow">Published invalid date by Nobody</div>
    <div class="dataRow"><div class="dataTitle">Format:</div><div class="dataValue">Kindle Edition</div></div>
    <div class="dataRow"><div class="dataTitle">ASIN:</div><div class="dataValue">B000FBJCJE</div></div>
  </div>
</div>
<div class="elementList clearFix">
  <div class="editionData">
    <a class="bookTitle" href="/book/show/222-duplicate">The Gunslinger</a>
  </div>
</div>
<div class="elementList clearFix">
  <div class="editionData"><a class="bookTitle" href="/about/no-id-here">broken row</a></div>
</div>
</body></html>`

func TestGetEditions(t *testing.T) {
	fake := newFakeFetch(map[string]string{
		"https://www.goodreads.com/work/editions/999": editionsFixture,
	})
	s := New(fake.fetch, "")

	books, series, err := s.GetEditions(context.Background(), 999)
	require.NoError(t, err)
	require.Len(t, books, 2, "duplicate and id-less rows are dropped")

	first := books[0]
	assert.Equal(t, int64(111), first.ForeignId)
	assert.Equal(t, int64(999), first.ForeignWorkId)
	assert.Equal(t, "The Gunslinger", first.Title, "series suffix stripped from the title")
	assert.Equal(t, "https://www.goodreads.com/book/show/111-the-gunslinger", first.Url)
	assert.Equal(t, "https://images.example/editions/111.jpg", first.ImageUrl)
	require.NotNil(t, first.ReleaseDate)
	assert.Equal(t, "2004-06-01", *first.ReleaseDate, "ordinal suffix stripped before date parsing")
	assert.Equal(t, "Viking", first.Publisher)
	assert.Equal(t, 4.03, first.AverageRating)
	assert.Equal(t, int64(600123), first.RatingCount)
	assert.Equal(t, "Paperback, 300 pages", first.Format)
	require.NotNil(t, first.NumPages)
	assert.Equal(t, int64(300), *first.NumPages)
	assert.False(t, first.IsEbook)
	require.NotNil(t, first.Isbn13)
	assert.Equal(t, "9780451210845", *first.Isbn13)
	assert.Equal(t, "eng", first.Language)
	require.Len(t, first.Contributors, 1)
	assert.Equal(t, int64(3389), first.Contributors[0].ForeignId)

	second := books[1]
	assert.Equal(t, int64(222), second.ForeignId)
	assert.Nil(t, second.ReleaseDate, "unparsable dates become null, never an error")
	assert.Equal(t, "Nobody", second.Publisher)
	assert.True(t, second.IsEbook)
	assert.Equal(t, "B000FBJCJE", second.Asin)
	assert.Nil(t, second.Isbn13)

	require.Len(t, series, 1, "series lifted from the edition title text")
	assert.Equal(t, "The Dark Tower", series[0].Title)
	require.Len(t, series[0].LinkItems, 1)
	assert.Equal(t, int64(999), series[0].LinkItems[0].ForeignWorkId)
	assert.Equal(t, "1", series[0].LinkItems[0].PositionInSeries)
}

func TestGetEditionsEmptyPage(t *testing.T) {
	fake := newFakeFetch(map[string]string{
		"https://www.goodreads.com/work/editions/5": "<html><body><p>no editions listed</p></body></html>",
	})
	s := New(fake.fetch, "")

	books, series, err := s.GetEditions(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, books)
	assert.Empty(t, series)
}
