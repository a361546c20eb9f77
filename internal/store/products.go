package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrDuplicateProduct = errors.New("a product with that name already exists")
)

type Product struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Description  *string         `json:"description,omitempty"`
	SKU          string          `json:"sku"`
	Price        decimal.Decimal `json:"price"`
	Stock        int             `json:"stock"`
	CategoryID   string          `json:"category_id"`
	CategoryName string          `json:"category_name,omitempty"`
	ImageURL     string          `json:"image_url"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

type ProductsStore struct {
	db *pgxpool.Pool
}

const productColumns = `
	p.id, p.name, p.description, p.sku, p.price::text, p.stock,
	p.category_id, c.name AS category_name, p.image_url,
	p.created_at, p.updated_at`

func scanProduct(row pgx.Row, p *Product, extra ...any) error {
	var priceText string
	dest := []any{
		&p.ID, &p.Name, &p.Description, &p.SKU, &priceText, &p.Stock,
		&p.CategoryID, &p.CategoryName, &p.ImageURL,
		&p.CreatedAt, &p.UpdatedAt,
	}
	dest = append(dest, extra...)

	if err := row.Scan(dest...); err != nil {
		return err
	}

	price, err := decimal.NewFromString(priceText)
	if err != nil {
		return fmt.Errorf("parse price %q: %w", priceText, err)
	}
	p.Price = price
	return nil
}

func (s *ProductsStore) Create(ctx context.Context, product *Product) error {
	query := `
		INSERT INTO products (id, name, description, sku, price, stock, category_id, image_url)
		VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, $8)
		RETURNING created_at, updated_at
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	if product.ID == "" {
		product.ID = uuid.NewString()
	}

	err := s.db.QueryRow(ctx, query,
		product.ID,
		product.Name,
		product.Description,
		product.SKU,
		product.Price.String(),
		product.Stock,
		product.CategoryID,
		product.ImageURL,
	).Scan(&product.CreatedAt, &product.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return ErrDuplicateProduct
			case "23503":
				return ErrCategoryNotFound
			}
		}
		return fmt.Errorf("create product: %w", err)
	}
	return nil
}

func (s *ProductsStore) GetByID(ctx context.Context, productID string) (*Product, error) {
	query := `
		SELECT` + productColumns + `
		FROM products p
		JOIN categories c ON c.id = p.category_id
		WHERE p.id = $1
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	product := &Product{}
	if err := scanProduct(s.db.QueryRow(ctx, query, productID), product); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("get product by id: %w", err)
	}
	return product, nil
}

// List runs the data query and a count query sharing the same predicates.
// Every supplied filter becomes a conjunctive parameterized predicate;
// absent filters contribute nothing to the WHERE clause. SortBy has already
// been validated against the column whitelist by ProductFilter.Parse.
func (s *ProductsStore) List(ctx context.Context, filter ProductFilter) ([]*Product, int, error) {
	where := []string{}
	args := []any{}

	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where = append(where, fmt.Sprintf("p.name ILIKE $%d", len(args)))
	}
	if filter.CategoryID != "" {
		args = append(args, filter.CategoryID)
		where = append(where, fmt.Sprintf("p.category_id = $%d", len(args)))
	}
	if filter.MinPrice != nil {
		args = append(args, filter.MinPrice.String())
		where = append(where, fmt.Sprintf("p.price >= $%d::numeric", len(args)))
	}
	if filter.MaxPrice != nil {
		args = append(args, filter.MaxPrice.String())
		where = append(where, fmt.Sprintf("p.price <= $%d::numeric", len(args)))
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = "WHERE " + strings.Join(where, " AND ")
	}

	dir := "DESC"
	if filter.SortDir == "asc" {
		dir = "ASC"
	}

	countArgs := append([]any{}, args...)

	args = append(args, filter.Pagination.Limit)
	limitPos := len(args)
	args = append(args, filter.Pagination.Offset)
	offsetPos := len(args)

	query := fmt.Sprintf(`
		SELECT`+productColumns+`
		FROM products p
		JOIN categories c ON c.id = p.category_id
		%s
		ORDER BY p.%s %s, p.id %s
		LIMIT $%d OFFSET $%d
	`, whereClause, filter.SortBy, dir, dir, limitPos, offsetPos)

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := make([]*Product, 0, filter.Pagination.Limit)
	for rows.Next() {
		var p Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, 0, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows iteration: %w", err)
	}

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM products p %s`, whereClause)
	var total int
	if err := s.db.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	return products, total, nil
}

func (s *ProductsStore) Newest(ctx context.Context, limit int) ([]*Product, error) {
	query := `
		SELECT` + productColumns + `
		FROM products p
		JOIN categories c ON c.id = p.category_id
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT $1
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("newest products: %w", err)
	}
	defer rows.Close()

	products := make([]*Product, 0, limit)
	for rows.Next() {
		var p Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return products, nil
}

func (s *ProductsStore) Update(ctx context.Context, product *Product) error {
	query := `
		UPDATE products
		SET name = $1, description = $2, price = $3::numeric, stock = $4,
		    category_id = $5, image_url = $6, updated_at = now()
		WHERE id = $7
		RETURNING created_at, updated_at
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	err := s.db.QueryRow(ctx, query,
		product.Name,
		product.Description,
		product.Price.String(),
		product.Stock,
		product.CategoryID,
		product.ImageURL,
		product.ID,
	).Scan(&product.CreatedAt, &product.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrProductNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return ErrDuplicateProduct
			case "23503":
				return ErrCategoryNotFound
			}
		}
		return fmt.Errorf("update product: %w", err)
	}
	return nil
}

func (s *ProductsStore) Delete(ctx context.Context, productID string) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	cmd, err := s.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, productID)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

// ExistsByName reports whether another product already uses this exact name.
func (s *ProductsStore) ExistsByName(ctx context.Context, name, excludeID string) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM products
			WHERE name = $1 AND ($2 = '' OR id <> $2::uuid)
		)
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var exists bool
	err := s.db.QueryRow(ctx, query, name, excludeID).Scan(&exists)
	return exists, err
}
