// Package catalog holds the reference data of the marketplace: skills,
// order statuses and regions. Reads are mostly public, writes are admin only.
package catalog

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/workbridge/workbridge/internal/shared"
)

// Sort directions.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// ListFilters narrows catalog listings. A zero Limit returns every row.
type ListFilters struct {
	Page    int
	Limit   int
	Search  string
	SortBy  string
	SortDir string
}

// FiltersFromQuery reads ?search, ?sort, ?dir, ?page and ?limit.
func FiltersFromQuery(r *http.Request) ListFilters {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit < 0 {
		limit = 0
	}
	if limit > 100 {
		limit = 100
	}
	return ListFilters{
		Page:    page,
		Limit:   limit,
		Search:  strings.TrimSpace(q.Get("search")),
		SortBy:  q.Get("sort"),
		SortDir: q.Get("dir"),
	}
}

// Offset returns the row offset of the requested page.
func (f ListFilters) Offset() int {
	if f.Limit <= 0 || f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}

// OrderBy renders an ORDER BY expression. sortBy must be one of allowed;
// anything else falls back to def.
func OrderBy(f ListFilters, def string, allowed ...string) string {
	dir := "ASC"
	if f.SortDir == SortDesc {
		dir = "DESC"
	}
	col := def
	for _, a := range allowed {
		if f.SortBy == a {
			col = a
			break
		}
	}
	return col + " " + dir + ", id " + dir
}

// Query builds a filtered listing. base is the SELECT without WHERE and
// searchCols are matched with ILIKE against f.Search.
func Query(base string, f ListFilters, order string, searchCols ...string) (string, []any) {
	query := base + ` WHERE 1=1`
	args := []any{}
	if f.Search != "" && len(searchCols) > 0 {
		args = append(args, "%"+f.Search+"%")
		conds := make([]string, len(searchCols))
		for i, c := range searchCols {
			conds[i] = c + ` ILIKE $1`
		}
		query += ` AND (` + strings.Join(conds, ` OR `) + `)`
	}
	query += ` ORDER BY ` + order
	if f.Limit > 0 {
		args = append(args, f.Limit, f.Offset())
		query += fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)-1, len(args))
	}
	return query, args
}

// Wrap maps driver errors onto the shared taxonomy.
func Wrap(err error, what string, id int64) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return fmt.Errorf("%w: %s %d not found", shared.ErrNotFound, what, id)
	case shared.IsUniqueViolation(err):
		return fmt.Errorf("%w: %s already exists", shared.ErrDuplicate, what)
	case shared.IsForeignKeyViolation(err):
		return fmt.Errorf("%w: %s is still referenced", shared.ErrInvalidInput, what)
	}
	return err
}

// Deleted reports a missing row when a DELETE affected nothing.
func Deleted(rows int64, what string, id int64) error {
	if rows == 0 {
		return fmt.Errorf("%w: %s %d not found", shared.ErrNotFound, what, id)
	}
	return nil
}
