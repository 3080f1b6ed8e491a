package utils

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFilterFromQuery(t *testing.T) {
	t.Run("значения по умолчанию", func(t *testing.T) {
		filter := ParseFilterFromQuery(url.Values{})
		assert.Equal(t, 10, filter.Limit)
		assert.Equal(t, 1, filter.Page)
		assert.Equal(t, 0, filter.Offset)
		assert.False(t, filter.WithPagination)
	})

	t.Run("фильтры и сортировка в квадратных скобках", func(t *testing.T) {
		query, err := url.ParseQuery("filter[state]=1&filter[queue_id]=3&sort[created_at]=desc&sort[id]=bogus")
		require.NoError(t, err)

		filter := ParseFilterFromQuery(query)
		assert.Equal(t, "1", filter.Filter["state"])
		assert.Equal(t, "3", filter.Filter["queue_id"])
		assert.Equal(t, "desc", filter.Sort["created_at"])
		// Непонятное направление сводится к asc.
		assert.Equal(t, "asc", filter.Sort["id"])
	})

	t.Run("краткая форма сортировки", func(t *testing.T) {
		filter := ParseFilterFromQuery(url.Values{"sort": {"-created_at"}})
		assert.Equal(t, "desc", filter.Sort["created_at"])

		filter = ParseFilterFromQuery(url.Values{"sort": {"code"}})
		assert.Equal(t, "asc", filter.Sort["code"])
	})

	t.Run("page пересчитывается в offset", func(t *testing.T) {
		query, err := url.ParseQuery("page=3&limit=20&withPagination=true")
		require.NoError(t, err)

		filter := ParseFilterFromQuery(query)
		assert.Equal(t, 20, filter.Limit)
		assert.Equal(t, 3, filter.Page)
		assert.Equal(t, 40, filter.Offset)
		assert.True(t, filter.WithPagination)
	})

	t.Run("offset имеет приоритет над page", func(t *testing.T) {
		query, err := url.ParseQuery("offset=25&page=9")
		require.NoError(t, err)

		filter := ParseFilterFromQuery(query)
		assert.Equal(t, 25, filter.Offset)
		assert.Equal(t, 3, filter.Page)
	})

	t.Run("мусор в числовых параметрах игнорируется", func(t *testing.T) {
		query, err := url.ParseQuery("limit=abc&offset=-5&search=macbook")
		require.NoError(t, err)

		filter := ParseFilterFromQuery(query)
		assert.Equal(t, 10, filter.Limit)
		assert.Equal(t, 0, filter.Offset)
		assert.Equal(t, "macbook", filter.Search)
	})
}
