package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"dockerlab/pkg/domain"
)

// ProductStats aggregates the products table.
type ProductStats struct {
	Total      int64
	ByCategory map[string]int64
}

// ProductStore reads and writes products.
type ProductStore struct {
	provider *Provider
}

// NewProductStore builds a ProductStore on top of p.
func NewProductStore(p *Provider) *ProductStore {
	return &ProductStore{provider: p}
}

// List returns all products, newest first.
func (s *ProductStore) List(ctx context.Context) ([]domain.Product, error) {
	var models []ProductModel
	err := s.provider.With(ctx, func(tx *gorm.DB) error {
		return tx.Order("created_at DESC").Order("id DESC").Find(&models).Error
	})
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	out := make([]domain.Product, 0, len(models))
	for _, m := range models {
		out = append(out, productFromModel(m))
	}
	return out, nil
}

// Get returns a product by ID.
func (s *ProductStore) Get(ctx context.Context, id int64) (domain.Product, bool, error) {
	var model ProductModel
	err := s.provider.With(ctx, func(tx *gorm.DB) error {
		return tx.First(&model, "id = ?", id).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Product{}, false, nil
		}
		return domain.Product{}, false, fmt.Errorf("get product: %w", err)
	}
	return productFromModel(model), true, nil
}

// Create inserts p and returns the stored row with its generated ID and timestamp.
func (s *ProductStore) Create(ctx context.Context, p domain.Product) (domain.Product, error) {
	model := productToModel(p)
	err := s.provider.With(ctx, func(tx *gorm.DB) error {
		if err := returningID(tx).Create(&model).Error; err != nil {
			return err
		}
		return tx.First(&model, "id = ?", model.ID).Error
	})
	if err != nil {
		return domain.Product{}, fmt.Errorf("create product: %w", err)
	}
	return productFromModel(model), nil
}

// Stats counts products in total and per category.
func (s *ProductStore) Stats(ctx context.Context) (ProductStats, error) {
	stats := ProductStats{ByCategory: map[string]int64{}}
	var rows []struct {
		Category string
		Total    int64
	}
	err := s.provider.With(ctx, func(tx *gorm.DB) error {
		if err := tx.Model(&ProductModel{}).Count(&stats.Total).Error; err != nil {
			return err
		}
		return tx.Model(&ProductModel{}).
			Select("category, COUNT(*) AS total").
			Group("category").
			Scan(&rows).Error
	})
	if err != nil {
		return ProductStats{}, fmt.Errorf("product stats: %w", err)
	}
	for _, row := range rows {
		stats.ByCategory[row.Category] = row.Total
	}
	return stats, nil
}
