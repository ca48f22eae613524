package search

import (
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/workbridge/workbridge/internal/shared"
)

// term trims a free-text filter and folds it to NFC so decomposed input
// matches composed stored text.
func term(raw string) string {
	return norm.NFC.String(strings.TrimSpace(raw))
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{shared.ErrInvalidInput}, args...)...)
}

// ParseUserQuery reads user search filters from q.
func ParseUserQuery(q url.Values) (UserQuery, error) {
	out := UserQuery{
		Text:   term(q.Get("query")),
		Region: term(q.Get("region")),
	}
	out.Page, out.Limit = shared.PageParams(q, MaxLimit)

	if raw := q.Get("rating"); raw != "" {
		v, err := parseNumber(raw, "rating")
		if err != nil {
			return UserQuery{}, err
		}
		if v < 0 || v > 5 {
			return UserQuery{}, invalid("rating must be between 0 and 5")
		}
		out.MinRating = &v
	}
	if raw := q.Get("role"); raw != "" {
		role := shared.Role(raw)
		if role != shared.RoleCreator && role != shared.RoleCustomer {
			return UserQuery{}, invalid("role must be creator or customer")
		}
		out.Role = role
	}
	skills, err := parseSkills(q.Get("skills"))
	if err != nil {
		return UserQuery{}, err
	}
	out.Skills = skills
	return out, nil
}

// ParseOrderQuery reads order search filters from q.
func ParseOrderQuery(q url.Values) (OrderQuery, error) {
	out := OrderQuery{
		Text:   term(q.Get("query")),
		Region: term(q.Get("region")),
	}
	out.Page, out.Limit = shared.PageParams(q, MaxLimit)

	for _, p := range []struct {
		key string
		dst **float64
	}{{"minPrice", &out.MinPrice}, {"maxPrice", &out.MaxPrice}} {
		raw := q.Get(p.key)
		if raw == "" {
			continue
		}
		v, err := parseNumber(raw, p.key)
		if err != nil {
			return OrderQuery{}, err
		}
		if v < 0 {
			return OrderQuery{}, invalid("%s must not be negative", p.key)
		}
		*p.dst = &v
	}
	if out.MinPrice != nil && out.MaxPrice != nil && *out.MinPrice > *out.MaxPrice {
		return OrderQuery{}, invalid("minPrice exceeds maxPrice")
	}
	if raw := q.Get("worktime"); raw != "" {
		t, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return OrderQuery{}, invalid("worktime must be YYYY-MM-DD")
		}
		out.Worktime = &t
	}
	skills, err := parseSkills(q.Get("skills"))
	if err != nil {
		return OrderQuery{}, err
	}
	out.Skills = skills
	return out, nil
}

func parseNumber(raw, name string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, invalid("%s must be a number", name)
	}
	return v, nil
}

// parseSkills accepts a non-empty JSON array of positive ids, e.g. "[1,4]".
func parseSkills(raw string) ([]int64, error) {
	if raw == "" {
		return nil, nil
	}
	var ids []int64
	if err := json.Unmarshal([]byte(raw), &ids); err != nil || len(ids) == 0 {
		return nil, invalid("invalid skills format")
	}
	for _, id := range ids {
		if id <= 0 {
			return nil, invalid("invalid skills format")
		}
	}
	return ids, nil
}
