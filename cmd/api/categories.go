package main

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"bazaar/internal/params"
	"bazaar/internal/store"
)

type CreateCategoryPayload struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
}

type UpdateCategoryPayload struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
}

type CategoryListResponse struct {
	Categories []*store.Category `json:"categories"`
	Pagination params.Pagination `json:"pagination"`
}

// createCategoryHandler godoc
//
//	@Summary		Create a category
//	@Tags			categories
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		CreateCategoryPayload	true	"Category data"
//	@Success		201		{object}	map[string]store.Category
//	@Failure		400		{object}	error
//	@Failure		409		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/categories [post]
func (app *application) createCategoryHandler(w http.ResponseWriter, r *http.Request) {
	var payload CreateCategoryPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	name := strings.TrimSpace(payload.Name)
	if name == "" {
		app.badRequestResponse(w, r, fmt.Errorf("category name is required"))
		return
	}

	exists, err := app.store.Categories.ExistsByName(r.Context(), name, "")
	if err != nil {
		app.internalServerError(w, r, fmt.Errorf("check category existence: %w", err))
		return
	}
	if exists {
		app.conflictResponse(w, r, fmt.Errorf("category with name '%s' already exists", name))
		return
	}

	category := &store.Category{
		Name:        name,
		Description: payload.Description,
	}

	if err := app.store.Categories.Create(r.Context(), category); err != nil {
		switch {
		case errors.Is(err, store.ErrDuplicateCategory):
			app.conflictResponse(w, r, err)
		default:
			app.internalServerError(w, r, fmt.Errorf("create category: %w", err))
		}
		return
	}

	_ = app.jsonResponse(w, http.StatusCreated, category)
}

// updateCategoryHandler applies a partial update; absent fields keep their
// current values.
func (app *application) updateCategoryHandler(w http.ResponseWriter, r *http.Request) {
	categoryID, err := parseUUIDParam(r, "categoryID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload UpdateCategoryPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	category, err := app.store.Categories.GetByID(r.Context(), categoryID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrCategoryNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if payload.Name != nil {
		name := strings.TrimSpace(*payload.Name)
		if name == "" {
			app.badRequestResponse(w, r, fmt.Errorf("category name must not be blank"))
			return
		}

		exists, err := app.store.Categories.ExistsByName(r.Context(), name, category.ID)
		if err != nil {
			app.internalServerError(w, r, fmt.Errorf("check category existence: %w", err))
			return
		}
		if exists {
			app.conflictResponse(w, r, fmt.Errorf("category with name '%s' already exists", name))
			return
		}
		category.Name = name
	}
	if payload.Description != nil {
		category.Description = payload.Description
	}

	if err := app.store.Categories.Update(r.Context(), category); err != nil {
		switch {
		case errors.Is(err, store.ErrCategoryNotFound):
			app.notFoundResponse(w, r, err)
		case errors.Is(err, store.ErrDuplicateCategory):
			app.conflictResponse(w, r, err)
		default:
			app.internalServerError(w, r, fmt.Errorf("update category: %w", err))
		}
		return
	}

	_ = app.jsonResponse(w, http.StatusOK, category)
}

// deleteCategoryHandler refuses to delete a category that still has
// products attached.
func (app *application) deleteCategoryHandler(w http.ResponseWriter, r *http.Request) {
	categoryID, err := parseUUIDParam(r, "categoryID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	hasProducts, err := app.store.Categories.HasProducts(r.Context(), categoryID)
	if err != nil {
		app.internalServerError(w, r, fmt.Errorf("check category products: %w", err))
		return
	}
	if hasProducts {
		app.conflictResponse(w, r, fmt.Errorf("category still has products assigned"))
		return
	}

	if err := app.store.Categories.Delete(r.Context(), categoryID); err != nil {
		switch {
		case errors.Is(err, store.ErrCategoryNotFound):
			app.notFoundResponse(w, r, err)
		case errors.Is(err, store.ErrCategoryHasProducts):
			app.conflictResponse(w, r, err)
		default:
			app.internalServerError(w, r, fmt.Errorf("delete category: %w", err))
		}
		return
	}

	_ = app.jsonResponse(w, http.StatusOK, map[string]string{"message": "category deleted"})
}

// listCategoriesHandler godoc
//
//	@Summary		List categories
//	@Tags			categories
//	@Produce		json
//	@Param			page	query		int	false	"Page number"
//	@Param			limit	query		int	false	"Items per page"
//	@Success		200		{object}	map[string]CategoryListResponse
//	@Failure		400		{object}	error
//	@Router			/categories [get]
func (app *application) listCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	q, err := url.ParseQuery(r.URL.RawQuery)
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("invalid query string: %w", err))
		return
	}

	pagination, err := params.ParsePagination(q)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	categories, total, err := app.store.Categories.List(r.Context(), pagination.Limit, pagination.Offset)
	if err != nil {
		app.internalServerError(w, r, fmt.Errorf("list categories: %w", err))
		return
	}

	pagination.ComputeMeta(total)

	_ = app.jsonResponse(w, http.StatusOK, CategoryListResponse{
		Categories: categories,
		Pagination: pagination,
	})
}

func (app *application) getCategoryHandler(w http.ResponseWriter, r *http.Request) {
	categoryID, err := parseUUIDParam(r, "categoryID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	category, err := app.store.Categories.GetByID(r.Context(), categoryID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrCategoryNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	_ = app.jsonResponse(w, http.StatusOK, category)
}
