package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound          = errors.New("resource not found")
	ErrConflict          = errors.New("resource already exists")
	QueryTimeoutDuration = time.Second * 5
)

type Storage struct {
	Users interface {
		Create(context.Context, *User) error
		GetByID(context.Context, string) (*User, error)
		GetByEmail(context.Context, string) (*User, error)
		SaveRefreshToken(ctx context.Context, userID, token string) error
		GetRefreshToken(ctx context.Context, userID string) (string, error)
		DeleteRefreshToken(ctx context.Context, userID string) error
	}
	Categories interface {
		Create(context.Context, *Category) error
		GetByID(context.Context, string) (*Category, error)
		List(ctx context.Context, limit, offset int) ([]*Category, int, error)
		Update(context.Context, *Category) error
		Delete(context.Context, string) error
		ExistsByName(ctx context.Context, name, excludeID string) (bool, error)
		HasProducts(ctx context.Context, categoryID string) (bool, error)
	}
	Products interface {
		Create(context.Context, *Product) error
		GetByID(context.Context, string) (*Product, error)
		List(context.Context, ProductFilter) ([]*Product, int, error)
		Newest(ctx context.Context, limit int) ([]*Product, error)
		Update(context.Context, *Product) error
		Delete(context.Context, string) error
		ExistsByName(ctx context.Context, name, excludeID string) (bool, error)
	}
	Dashboard interface {
		GetStats(context.Context) (*Stats, error)
	}
}

func NewStorage(db *pgxpool.Pool) Storage {
	return Storage{
		Users:      &UsersStore{db},
		Categories: &CategoriesStore{db},
		Products:   &ProductsStore{db},
		Dashboard:  &DashboardStore{db},
	}
}
