package main

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"bazaar/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const maxProductFormBytes = 5 * 1024 * 1024 // 5MB

func optionalString(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

func parsePrice(raw string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid price: %q", raw)
	}
	if !price.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("price must be greater than zero")
	}
	return price, nil
}

func parseStock(raw string) (int, error) {
	stock, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid stock: %q", raw)
	}
	if stock < 0 {
		return 0, fmt.Errorf("stock must not be negative")
	}
	return stock, nil
}

// createProductHandler godoc
//
//	@Summary		Create a product
//	@Description	Multipart form with name, description, price, stock, category_id and a required image file.
//	@Tags			products
//	@Accept			multipart/form-data
//	@Produce		json
//	@Success		201	{object}	map[string]store.Product
//	@Failure		400	{object}	error
//	@Failure		409	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/admin/products [post]
func (app *application) createProductHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxProductFormBytes)
	if err := r.ParseMultipartForm(maxProductFormBytes); err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("failed to parse form: %w", err))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		app.badRequestResponse(w, r, fmt.Errorf("product name is required"))
		return
	}

	price, err := parsePrice(strings.TrimSpace(r.FormValue("price")))
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	stock, err := parseStock(strings.TrimSpace(r.FormValue("stock")))
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	categoryID := strings.TrimSpace(r.FormValue("category_id"))
	if categoryID == "" {
		app.badRequestResponse(w, r, fmt.Errorf("category_id is required"))
		return
	}
	if _, err := uuid.Parse(categoryID); err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("invalid category_id: %q", categoryID))
		return
	}
	if _, err := app.store.Categories.GetByID(r.Context(), categoryID); err != nil {
		switch {
		case errors.Is(err, store.ErrCategoryNotFound):
			app.badRequestResponse(w, r, fmt.Errorf("category %s does not exist", categoryID))
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	exists, err := app.store.Products.ExistsByName(r.Context(), name, "")
	if err != nil {
		app.internalServerError(w, r, fmt.Errorf("check product existence: %w", err))
		return
	}
	if exists {
		app.conflictResponse(w, r, fmt.Errorf("product with name '%s' already exists", name))
		return
	}

	// --- image upload (required) with MIME sniffing ---
	file, _, err := r.FormFile("image")
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("product image is required"))
		return
	}
	defer file.Close()

	// sniff actual MIME from bytes, never trust the Content-Type header
	mime, err := sniffMIME(file)
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("sniff mime: %w", err))
		return
	}
	if !allowedImageTypes[mime] {
		app.badRequestResponse(w, r, fmt.Errorf("invalid image type: %s", mime))
		return
	}

	skuCode, err := app.sku.Generate()
	if err != nil {
		app.internalServerError(w, r, fmt.Errorf("generate sku: %w", err))
		return
	}

	publicID := fmt.Sprintf("product_%s_%d", skuCode, time.Now().UnixNano())
	imageURL, err := app.uploadToCloudinaryWithID(file, publicID)
	if err != nil {
		app.internalServerError(w, r, fmt.Errorf("upload image: %w", err))
		return
	}
	// --------------------------------------------------

	product := &store.Product{
		Name:        name,
		Description: optionalString(r.FormValue("description")),
		SKU:         skuCode,
		Price:       price,
		Stock:       stock,
		CategoryID:  categoryID,
		ImageURL:    imageURL,
	}

	if err := app.store.Products.Create(r.Context(), product); err != nil {
		// the image is already uploaded, clean it up off the request path
		go func(url string) {
			if delErr := app.deletePhotoFromCloudinary(url); delErr != nil {
				app.logger.Errorw("cloudinary cleanup failed", "url", url, "error", delErr)
			}
		}(imageURL)

		switch {
		case errors.Is(err, store.ErrDuplicateProduct):
			app.conflictResponse(w, r, err)
		case errors.Is(err, store.ErrCategoryNotFound):
			app.badRequestResponse(w, r, err)
		default:
			app.internalServerError(w, r, fmt.Errorf("create product: %w", err))
		}
		return
	}

	_ = app.jsonResponse(w, http.StatusCreated, product)
}

// updateProductHandler applies a partial update from a multipart form.
// The image file is optional; when present the old image is replaced and
// the previous asset is deleted off the request path.
func (app *application) updateProductHandler(w http.ResponseWriter, r *http.Request) {
	productID, err := parseUUIDParam(r, "productID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxProductFormBytes)
	if err := r.ParseMultipartForm(maxProductFormBytes); err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("failed to parse form: %w", err))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

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

	if name := strings.TrimSpace(r.FormValue("name")); name != "" && name != product.Name {
		exists, err := app.store.Products.ExistsByName(r.Context(), name, product.ID)
		if err != nil {
			app.internalServerError(w, r, fmt.Errorf("check product existence: %w", err))
			return
		}
		if exists {
			app.conflictResponse(w, r, fmt.Errorf("product with name '%s' already exists", name))
			return
		}
		product.Name = name
	}

	if desc := r.FormValue("description"); desc != "" {
		product.Description = optionalString(desc)
	}

	if priceStr := strings.TrimSpace(r.FormValue("price")); priceStr != "" {
		price, err := parsePrice(priceStr)
		if err != nil {
			app.badRequestResponse(w, r, err)
			return
		}
		product.Price = price
	}

	if stockStr := strings.TrimSpace(r.FormValue("stock")); stockStr != "" {
		stock, err := parseStock(stockStr)
		if err != nil {
			app.badRequestResponse(w, r, err)
			return
		}
		product.Stock = stock
	}

	if categoryID := strings.TrimSpace(r.FormValue("category_id")); categoryID != "" && categoryID != product.CategoryID {
		if _, err := uuid.Parse(categoryID); err != nil {
			app.badRequestResponse(w, r, fmt.Errorf("invalid category_id: %q", categoryID))
			return
		}
		if _, err := app.store.Categories.GetByID(r.Context(), categoryID); err != nil {
			switch {
			case errors.Is(err, store.ErrCategoryNotFound):
				app.badRequestResponse(w, r, fmt.Errorf("category %s does not exist", categoryID))
			default:
				app.internalServerError(w, r, err)
			}
			return
		}
		product.CategoryID = categoryID
	}

	oldImageURL := ""
	if file, _, err := r.FormFile("image"); err == nil {
		defer file.Close()

		mime, err := sniffMIME(file)
		if err != nil {
			app.badRequestResponse(w, r, fmt.Errorf("sniff mime: %w", err))
			return
		}
		if !allowedImageTypes[mime] {
			app.badRequestResponse(w, r, fmt.Errorf("invalid image type: %s", mime))
			return
		}

		publicID := fmt.Sprintf("product_%s_%d", product.SKU, time.Now().UnixNano())
		imageURL, err := app.uploadToCloudinaryWithID(file, publicID)
		if err != nil {
			app.internalServerError(w, r, fmt.Errorf("upload image: %w", err))
			return
		}

		oldImageURL = product.ImageURL
		product.ImageURL = imageURL
	}

	if err := app.store.Products.Update(r.Context(), product); err != nil {
		switch {
		case errors.Is(err, store.ErrProductNotFound):
			app.notFoundResponse(w, r, err)
		case errors.Is(err, store.ErrDuplicateProduct):
			app.conflictResponse(w, r, err)
		case errors.Is(err, store.ErrCategoryNotFound):
			app.badRequestResponse(w, r, err)
		default:
			app.internalServerError(w, r, fmt.Errorf("update product: %w", err))
		}
		return
	}

	if oldImageURL != "" {
		go func(url string) {
			if delErr := app.deletePhotoFromCloudinary(url); delErr != nil {
				app.logger.Errorw("cloudinary cleanup failed", "url", url, "error", delErr)
			}
		}(oldImageURL)
	}

	_ = app.jsonResponse(w, http.StatusOK, product)
}

// deleteProductHandler removes the row and then the image. A failed image
// delete is logged, not surfaced; the catalog row is already gone.
func (app *application) deleteProductHandler(w http.ResponseWriter, r *http.Request) {
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

	if err := app.store.Products.Delete(r.Context(), product.ID); err != nil {
		switch {
		case errors.Is(err, store.ErrProductNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, fmt.Errorf("delete product: %w", err))
		}
		return
	}

	if product.ImageURL != "" {
		go func(url string) {
			if delErr := app.deletePhotoFromCloudinary(url); delErr != nil {
				app.logger.Errorw("cloudinary cleanup failed", "url", url, "error", delErr)
			}
		}(product.ImageURL)
	}

	_ = app.jsonResponse(w, http.StatusOK, map[string]string{"message": "product deleted"})
}
