package main

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"bazaar/internal/params"
	"bazaar/internal/store"
)

const defaultNewestLimit = 8

type ProductListResponse struct {
	Products   []*store.Product  `json:"products"`
	Pagination params.Pagination `json:"pagination"`
}

// listProductsHandler godoc
//
//	@Summary		List products
//	@Description	Paginated catalog listing with optional search, category, price range and sorting.
//	@Tags			products
//	@Produce		json
//	@Param			search		query		string	false	"Substring match on name"
//	@Param			category	query		string	false	"Category ID"
//	@Param			min_price	query		number	false	"Inclusive lower price bound"
//	@Param			max_price	query		number	false	"Inclusive upper price bound"
//	@Param			sort_by		query		string	false	"name | price | stock | created_at"
//	@Param			sort_dir	query		string	false	"asc | desc"
//	@Param			page		query		int		false	"Page number"
//	@Param			limit		query		int		false	"Items per page"
//	@Success		200			{object}	map[string]ProductListResponse
//	@Failure		400			{object}	error
//	@Router			/products [get]
func (app *application) listProductsHandler(w http.ResponseWriter, r *http.Request) {
	filter, err := store.ProductFilter{}.Parse(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	products, total, err := app.store.Products.List(r.Context(), filter)
	if err != nil {
		app.internalServerError(w, r, fmt.Errorf("list products: %w", err))
		return
	}

	filter.Pagination.ComputeMeta(total)

	// a page past the end is an empty list, not an error
	_ = app.jsonResponse(w, http.StatusOK, ProductListResponse{
		Products:   products,
		Pagination: filter.Pagination,
	})
}

func (app *application) newestProductsHandler(w http.ResponseWriter, r *http.Request) {
	q, err := url.ParseQuery(r.URL.RawQuery)
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("invalid query string: %w", err))
		return
	}

	limit := defaultNewestLimit
	if limitStr := strings.TrimSpace(q.Get("limit")); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 || parsed > params.MaxLimit {
			app.badRequestResponse(w, r, fmt.Errorf("invalid limit: %q", limitStr))
			return
		}
		limit = parsed
	}

	products, err := app.store.Products.Newest(r.Context(), limit)
	if err != nil {
		app.internalServerError(w, r, fmt.Errorf("newest products: %w", err))
		return
	}

	_ = app.jsonResponse(w, http.StatusOK, products)
}

func (app *application) getProductHandler(w http.ResponseWriter, r *http.Request) {
	productID, err := parseUUIDParam(r, "productID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	product, err := app.store.Products.GetByID(r.Context(), productID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrProductNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	_ = app.jsonResponse(w, http.StatusOK, product)
}
