package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry. ID and CreatedAt are assigned by the store.
type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Message is a message-board post.
type Message struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"created_at"`
}

// NewProduct carries the caller-supplied fields of a product.
type NewProduct struct {
	Name        string           `json:"name" validate:"required"`
	Description string           `json:"description"`
	Price       *decimal.Decimal `json:"price" validate:"required"`
	Category    string           `json:"category"`
}

// NewMessage carries the caller-supplied fields of a message.
type NewMessage struct {
	Content string `json:"content" validate:"required"`
	Author  string `json:"author" validate:"required"`
}

// SeedAuthor marks the single message inserted at schema initialization.
const SeedAuthor = "System"
