package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"dockerlab/pkg/domain"
)

const seedMessageContent = "Welcome to the DevOps lab!"

func seedProducts() []ProductModel {
	return []ProductModel{
		{Name: "Laptop Dell XPS", Description: "High-performance laptop", Price: decimal.RequireFromString("1299.99"), Category: "Electronics"},
		{Name: "iPhone 14", Description: "Latest generation Apple smartphone", Price: decimal.RequireFromString("999.99"), Category: "Electronics"},
		{Name: "Office Chair", Description: "Ergonomic chair for working", Price: decimal.RequireFromString("299.99"), Category: "Furniture"},
		{Name: "Python Book", Description: "Complete guide to Python programming", Price: decimal.RequireFromString("49.99"), Category: "Books"},
		{Name: "Bluetooth Headset", Description: "Wireless headset with noise cancellation", Price: decimal.RequireFromString("199.99"), Category: "Electronics"},
	}
}

// EnsureProductSchema creates the products table and seeds it when empty.
// Seeding is count-then-insert; concurrent initializers can both seed.
func EnsureProductSchema(ctx context.Context, p *Provider) error {
	return p.With(ctx, func(tx *gorm.DB) error {
		if err := tx.AutoMigrate(&ProductModel{}); err != nil {
			return fmt.Errorf("migrate products: %w", err)
		}
		var count int64
		if err := tx.Model(&ProductModel{}).Count(&count).Error; err != nil {
			return fmt.Errorf("count products: %w", err)
		}
		if count > 0 {
			return nil
		}
		seeds := seedProducts()
		if err := returningID(tx).Create(&seeds).Error; err != nil {
			return fmt.Errorf("seed products: %w", err)
		}
		slog.Info("seeded products", "count", len(seeds))
		return nil
	})
}

// EnsureMessageSchema creates the messages table and inserts the system
// message unless one already exists.
func EnsureMessageSchema(ctx context.Context, p *Provider) error {
	return p.With(ctx, func(tx *gorm.DB) error {
		if err := tx.AutoMigrate(&MessageModel{}); err != nil {
			return fmt.Errorf("migrate messages: %w", err)
		}
		res := tx.Exec(
			"INSERT INTO messages (content, author) SELECT ?, ? WHERE NOT EXISTS (SELECT 1 FROM messages WHERE author = ?)",
			seedMessageContent, domain.SeedAuthor, domain.SeedAuthor,
		)
		if res.Error != nil {
			return fmt.Errorf("seed messages: %w", res.Error)
		}
		if res.RowsAffected > 0 {
			slog.Info("seeded messages", "count", res.RowsAffected)
		}
		return nil
	})
}

// returningID limits RETURNING to the primary key; rows are re-read for
// store-assigned columns.
func returningID(tx *gorm.DB) *gorm.DB {
	return tx.Clauses(clause.Returning{Columns: []clause.Column{{Name: "id"}}})
}
