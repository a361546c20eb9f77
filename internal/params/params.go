package params

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// URL: /products?page=2&limit=10
// → ParsePagination() → Pagination{Limit:10, Page:2, Offset:10}
// → SQL: SELECT ... LIMIT 10 OFFSET 10
// → DB returns data + total count
// → ComputeMeta(total) → fills TotalPages, HasNext, etc.
// Pagination holds pagination info and computed metadata.
type Pagination struct {
	Limit      int  `json:"limit"`       // items per page
	Offset     int  `json:"offset"`      // SQL OFFSET value
	Page       int  `json:"page"`        // current page number
	Total      int  `json:"total"`       // total items in database
	TotalPages int  `json:"total_pages"` // total pages available
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// ParsePagination parses ?limit=...&page=... from the query string. Absent
// values take defaults; present-but-invalid values are rejected so callers
// can answer with a 400 instead of silently clamping.
func ParsePagination(q url.Values) (Pagination, error) {
	p := Pagination{
		Limit: DefaultLimit,
		Page:  1,
	}

	if limitStr := strings.TrimSpace(q.Get("limit")); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			return p, fmt.Errorf("invalid limit: %q", limitStr)
		}
		if limit < 1 || limit > MaxLimit {
			return p, fmt.Errorf("limit must be between 1 and %d", MaxLimit)
		}
		p.Limit = limit
	}

	if pageStr := strings.TrimSpace(q.Get("page")); pageStr != "" {
		page, err := strconv.Atoi(pageStr)
		if err != nil {
			return p, fmt.Errorf("invalid page: %q", pageStr)
		}
		if page < 1 {
			return p, fmt.Errorf("page must be >= 1")
		}
		p.Page = page
	}

	p.Offset = (p.Page - 1) * p.Limit
	return p, nil
}

// ComputeMeta updates pagination after fetching total count.
func (p *Pagination) ComputeMeta(total int) {
	p.Total = total
	if p.Limit > 0 {
		p.TotalPages = int(math.Ceil(float64(total) / float64(p.Limit)))
	}
	p.HasPrev = p.Page > 1
	p.HasNext = (p.Page * p.Limit) < total
}
