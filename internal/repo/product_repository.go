package repo

import (
	"context"
	"errors"
	"time"

	"github.com/rogerio-castellano/stockroom/internal/models"
)

// DefaultQueryTimeout bounds every store call when no timeout is configured.
const DefaultQueryTimeout = 3 * time.Second

// ProductRepository defines the interface for product data operations.
type ProductRepository interface {
	Create(ctx context.Context, product models.Product) (models.Product, error)
	GetAll(ctx context.Context) ([]models.Product, error)
	GetByID(ctx context.Context, id int) (models.Product, error)
	Update(ctx context.Context, product models.Product) (models.Product, error)
	Delete(ctx context.Context, id int) error
	// Reset replaces every stored product with the given ones. Fresh ids are
	// assigned in slice order; on failure the previous contents are kept.
	Reset(ctx context.Context, products []models.Product) ([]models.Product, error)
	Count(ctx context.Context) (int, error)
}

// ErrProductNotFound is returned when a product is not found in the repository.
var ErrProductNotFound = errors.New("product not found")
