package main

import (
	"context"
	"net/http"
	"time"
)

// getDashboardStatsHandler godoc
//
//	@Summary		Admin dashboard totals
//	@Description	Returns catalog totals: products, out of stock, low stock, categories, inventory value.
//	@Tags			dashboard
//	@Produce		json
//	@Success		200	{object}	map[string]store.Stats
//	@Failure		401	{object}	error
//	@Failure		403	{object}	error
//	@Failure		500	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/dashboard/stats [get]
func (app *application) getDashboardStatsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	stats, err := app.store.Dashboard.GetStats(ctx)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	_ = app.jsonResponse(w, http.StatusOK, stats)
}
