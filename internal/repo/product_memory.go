package repo

import (
	"context"
	"sync"
	"time"

	"github.com/rogerio-castellano/stockroom/internal/models"
)

// InMemoryProductRepository is an in-memory implementation of ProductRepository.
type InMemoryProductRepository struct {
	mu       sync.RWMutex
	products []models.Product
	nextID   int
	now      func() time.Time
}

// NewInMemoryProductRepository creates a new instance of InMemoryProductRepository.
func NewInMemoryProductRepository() *InMemoryProductRepository {
	return &InMemoryProductRepository{
		products: []models.Product{},
		nextID:   1,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Create adds a new product to the repository.
func (r *InMemoryProductRepository) Create(_ context.Context, product models.Product) (models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.insert(product), nil
}

func (r *InMemoryProductRepository) insert(product models.Product) models.Product {
	product.ID = r.nextID
	r.nextID++
	product.CreatedAt = r.now()
	product.UpdatedAt = product.CreatedAt
	product.AlertThreshold = copyInt(product.AlertThreshold)
	r.products = append(r.products, product)
	return product
}

// GetAll retrieves all products from the repository.
func (r *InMemoryProductRepository) GetAll(_ context.Context) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Product, len(r.products))
	for i, p := range r.products {
		p.AlertThreshold = copyInt(p.AlertThreshold)
		out[i] = p
	}
	return out, nil
}

// GetByID retrieves a product by its ID.
func (r *InMemoryProductRepository) GetByID(_ context.Context, id int) (models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.products {
		if p.ID == id {
			p.AlertThreshold = copyInt(p.AlertThreshold)
			return p, nil
		}
	}
	return models.Product{}, ErrProductNotFound
}

// Update replaces every editable field of an existing product.
func (r *InMemoryProductRepository) Update(_ context.Context, product models.Product) (models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, p := range r.products {
		if p.ID == product.ID {
			product.CreatedAt = p.CreatedAt
			product.UpdatedAt = r.now()
			product.AlertThreshold = copyInt(product.AlertThreshold)
			r.products[i] = product
			return product, nil
		}
	}
	return models.Product{}, ErrProductNotFound
}

// Delete removes a product from the repository by its ID.
func (r *InMemoryProductRepository) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, p := range r.products {
		if p.ID == id {
			r.products = append(r.products[:i], r.products[i+1:]...)
			return nil
		}
	}
	return ErrProductNotFound
}

// Reset drops every product and inserts the given ones.
func (r *InMemoryProductRepository) Reset(_ context.Context, products []models.Product) ([]models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.products = []models.Product{}
	created := make([]models.Product, 0, len(products))
	for _, p := range products {
		created = append(created, r.insert(p))
	}
	return created, nil
}

func (r *InMemoryProductRepository) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.products), nil
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
