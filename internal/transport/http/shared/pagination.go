package shared

import (
	"net/http"
	"strconv"
)

type Pagination struct {
	Limit  int
	Offset int
}

// ParsePagination reads limit/offset from the query string. Bad or negative
// values fall back to the defaults; limit is capped so ledger listings stay
// bounded.
func ParsePagination(r *http.Request, defaultLimit, maxLimit int) Pagination {
	limit := queryInt(r, "limit", defaultLimit, 1)
	offset := queryInt(r, "offset", 0, 0)
	if maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}
	return Pagination{Limit: limit, Offset: offset}
}

func queryInt(r *http.Request, name string, fallback, min int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < min {
		return fallback
	}
	return value
}
