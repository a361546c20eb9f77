package store

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"bazaar/internal/params"

	"github.com/shopspring/decimal"
)

// sortColumns maps the public sort keys to the actual column names; anything
// outside this set is rejected at parse time, never interpolated into SQL.
var sortColumns = map[string]string{
	"name":       "name",
	"price":      "price",
	"stock":      "stock",
	"created_at": "created_at",
	"createdAt":  "created_at",
}

type ProductFilter struct {
	Search     string           // substring match against product name
	CategoryID string           // exact category reference
	MinPrice   *decimal.Decimal // inclusive lower price bound
	MaxPrice   *decimal.Decimal // inclusive upper price bound
	SortBy     string           // validated column name, default created_at
	SortDir    string           // asc|desc, default desc
	Pagination params.Pagination
}

// Parse extracts query parameters from the request URL and populates the
// ProductFilter. Absent filters are omitted from the query entirely;
// present-but-invalid values fail here so the handler can answer 400.
func (f ProductFilter) Parse(r *http.Request) (ProductFilter, error) {
	// r.URL.Query() drops pairs containing semicolons instead of erroring;
	// parse the raw string so a mangled query is rejected, not ignored
	q, err := url.ParseQuery(r.URL.RawQuery)
	if err != nil {
		return f, fmt.Errorf("invalid query string: %w", err)
	}

	f.SortBy = "created_at"
	f.SortDir = "desc"

	if search := strings.TrimSpace(q.Get("search")); search != "" {
		f.Search = search
	}

	if category := strings.TrimSpace(q.Get("category")); category != "" {
		f.CategoryID = category
	}

	if minStr := strings.TrimSpace(q.Get("min_price")); minStr != "" {
		minPrice, err := decimal.NewFromString(minStr)
		if err != nil {
			return f, fmt.Errorf("invalid min_price: %q", minStr)
		}
		if minPrice.IsNegative() {
			return f, fmt.Errorf("min_price must not be negative")
		}
		f.MinPrice = &minPrice
	}

	if maxStr := strings.TrimSpace(q.Get("max_price")); maxStr != "" {
		maxPrice, err := decimal.NewFromString(maxStr)
		if err != nil {
			return f, fmt.Errorf("invalid max_price: %q", maxStr)
		}
		if maxPrice.IsNegative() {
			return f, fmt.Errorf("max_price must not be negative")
		}
		f.MaxPrice = &maxPrice
	}

	if sortBy := strings.TrimSpace(q.Get("sort_by")); sortBy != "" {
		column, ok := sortColumns[sortBy]
		if !ok {
			return f, fmt.Errorf("invalid sort_by value: %q", sortBy)
		}
		f.SortBy = column
	}

	if sortDir := strings.TrimSpace(q.Get("sort_dir")); sortDir != "" {
		if sortDir != "asc" && sortDir != "desc" {
			return f, fmt.Errorf("invalid sort_dir value: must be 'asc' or 'desc'")
		}
		f.SortDir = sortDir
	}

	p, err := params.ParsePagination(q)
	if err != nil {
		return f, err
	}
	f.Pagination = p

	return f, nil
}
