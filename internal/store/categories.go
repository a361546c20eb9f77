package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrCategoryNotFound    = errors.New("category not found")
	ErrDuplicateCategory   = errors.New("a category with that name already exists")
	ErrCategoryHasProducts = errors.New("cannot delete category with associated products")
)

type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type CategoriesStore struct {
	db *pgxpool.Pool
}

func (s *CategoriesStore) Create(ctx context.Context, category *Category) error {
	query := `
		INSERT INTO categories (id, name, description)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	if category.ID == "" {
		category.ID = uuid.NewString()
	}

	err := s.db.QueryRow(ctx, query, category.ID, category.Name, category.Description).
		Scan(&category.CreatedAt, &category.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateCategory
		}
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

func (s *CategoriesStore) GetByID(ctx context.Context, categoryID string) (*Category, error) {
	query := `
		SELECT id, name, description, created_at, updated_at
		FROM categories
		WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	category := &Category{}
	err := s.db.QueryRow(ctx, query, categoryID).Scan(
		&category.ID,
		&category.Name,
		&category.Description,
		&category.CreatedAt,
		&category.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("get category by id: %w", err)
	}

	return category, nil
}

// List returns a page of categories plus the true total. Totals ride along
// as COUNT(*) OVER(); paging past the end falls back to a separate COUNT so
// the metadata stays correct.
func (s *CategoriesStore) List(ctx context.Context, limit, offset int) ([]*Category, int, error) {
	query := `
		SELECT id, name, description, created_at, updated_at,
		       COUNT(*) OVER() AS total_count
		FROM categories
		ORDER BY name ASC
		LIMIT $1 OFFSET $2
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := make([]*Category, 0, limit)
	var total int

	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt, &total); err != nil {
			return nil, 0, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows iteration: %w", err)
	}

	if len(categories) == 0 && offset > 0 {
		if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM categories`).Scan(&total); err != nil {
			return nil, 0, fmt.Errorf("count categories: %w", err)
		}
	}

	return categories, total, nil
}

func (s *CategoriesStore) Update(ctx context.Context, category *Category) error {
	query := `
		UPDATE categories
		SET name = $1, description = $2, updated_at = now()
		WHERE id = $3
		RETURNING created_at, updated_at
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	err := s.db.QueryRow(ctx, query, category.Name, category.Description, category.ID).
		Scan(&category.CreatedAt, &category.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrCategoryNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateCategory
		}
		return fmt.Errorf("update category: %w", err)
	}
	return nil
}

func (s *CategoriesStore) Delete(ctx context.Context, categoryID string) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	cmd, err := s.db.Exec(ctx, `DELETE FROM categories WHERE id = $1`, categoryID)
	if err != nil {
		// 23503 = foreign_key_violation; products still reference this row
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrCategoryHasProducts
		}
		return fmt.Errorf("delete category: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

// ExistsByName reports whether another category already uses this exact
// name. excludeID is skipped so updates don't collide with themselves.
func (s *CategoriesStore) ExistsByName(ctx context.Context, name, excludeID string) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM categories
			WHERE name = $1 AND ($2 = '' OR id <> $2::uuid)
		)
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var exists bool
	err := s.db.QueryRow(ctx, query, name, excludeID).Scan(&exists)
	return exists, err
}

func (s *CategoriesStore) HasProducts(ctx context.Context, categoryID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM products WHERE category_id = $1)`,
		categoryID,
	).Scan(&exists)
	return exists, err
}
