package catalog

import (
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"

	"github.com/workbridge/workbridge/internal/shared"
)

func TestFiltersFromQuery(t *testing.T) {
	f := FiltersFromQuery(httptest.NewRequest("GET", "/?search=+go+&page=0&limit=500&sort=title&dir=desc", nil))
	assert.Equal(t, ListFilters{Page: 1, Limit: 100, Search: "go", SortBy: "title", SortDir: SortDesc}, f)

	f = FiltersFromQuery(httptest.NewRequest("GET", "/?page=3&limit=20", nil))
	assert.Equal(t, 40, f.Offset())
	assert.Equal(t, 0, ListFilters{Page: 3}.Offset())
}

func TestOrderBy(t *testing.T) {
	assert.Equal(t, "title ASC, id ASC", OrderBy(ListFilters{SortBy: "title"}, "id", "title", "rating"))
	assert.Equal(t, "rating DESC, id DESC", OrderBy(ListFilters{SortBy: "rating", SortDir: SortDesc}, "id", "title", "rating"))
	assert.Equal(t, "id ASC, id ASC", OrderBy(ListFilters{SortBy: "password; drop"}, "id", "title"))
}

func TestQuery(t *testing.T) {
	q, args := Query(`SELECT id FROM skills`, ListFilters{}, "id ASC", "title")
	assert.Equal(t, `SELECT id FROM skills WHERE 1=1 ORDER BY id ASC`, q)
	assert.Empty(t, args)

	q, args = Query(`SELECT id FROM skills`, ListFilters{Search: "go", Page: 2, Limit: 10}, "id ASC", "title", "description")
	assert.Equal(t, `SELECT id FROM skills WHERE 1=1 AND (title ILIKE $1 OR description ILIKE $1) ORDER BY id ASC LIMIT $2 OFFSET $3`, q)
	assert.Equal(t, []any{"%go%", 10, 10}, args)
}

func TestWrap(t *testing.T) {
	assert.NoError(t, Wrap(nil, "skill", 1))
	err := Wrap(pgx.ErrNoRows, "skill", 4)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.Equal(t, "not found: skill 4 not found", err.Error())

	boom := errors.New("boom")
	assert.Same(t, boom, Wrap(boom, "skill", 1))
	assert.ErrorIs(t, Deleted(0, "region", 2), shared.ErrNotFound)
	assert.NoError(t, Deleted(1, "region", 2))
}
