package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/rogerio-castellano/stockroom/internal/models"
)

const resetBatchSize = 200

// GormProductRepository stores products in a relational database through GORM.
type GormProductRepository struct {
	db      *gorm.DB
	timeout time.Duration
}

func NewGormProductRepository(db *gorm.DB, timeout time.Duration) *GormProductRepository {
	if timeout <= 0 {
		timeout = DefaultQueryTimeout
	}
	return &GormProductRepository{db: db, timeout: timeout}
}

func (r *GormProductRepository) conn(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	return r.db.WithContext(ctx), cancel
}

func (r *GormProductRepository) Create(ctx context.Context, p models.Product) (models.Product, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	p.ID = 0
	if err := db.Create(&p).Error; err != nil {
		return models.Product{}, fmt.Errorf("insert product: %w", err)
	}
	return p, nil
}

func (r *GormProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	products := []models.Product{}
	if err := db.Order("id").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

func (r *GormProductRepository) GetByID(ctx context.Context, id int) (models.Product, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	return findByID(db, id)
}

func findByID(db *gorm.DB, id int) (models.Product, error) {
	var p models.Product
	err := db.First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Product{}, ErrProductNotFound
	}
	if err != nil {
		return models.Product{}, fmt.Errorf("get product %d: %w", id, err)
	}
	return p, nil
}

func (r *GormProductRepository) Update(ctx context.Context, p models.Product) (models.Product, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	res := db.Model(&models.Product{}).Where("id = ?", p.ID).Updates(map[string]any{
		"name":            p.Name,
		"quantity":        p.Quantity,
		"alert_threshold": p.AlertThreshold,
		"location":        p.Location,
		"price":           p.Price,
		"updated_at":      time.Now().UTC(),
	})
	if res.Error != nil {
		return models.Product{}, fmt.Errorf("update product %d: %w", p.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return models.Product{}, ErrProductNotFound
	}
	return findByID(db, p.ID)
}

func (r *GormProductRepository) Delete(ctx context.Context, id int) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	res := db.Delete(&models.Product{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete product %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

// Reset wipes the table and inserts products inside a single transaction.
func (r *GormProductRepository) Reset(ctx context.Context, products []models.Product) ([]models.Product, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	created := make([]models.Product, len(products))
	for i, p := range products {
		p.ID = 0
		created[i] = p
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.Product{}).Error; err != nil {
			return fmt.Errorf("clear products: %w", err)
		}
		if len(created) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(&created, resetBatchSize).Error; err != nil {
			return fmt.Errorf("insert products: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *GormProductRepository) Count(ctx context.Context) (int, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var n int64
	if err := db.Model(&models.Product{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return int(n), nil
}
