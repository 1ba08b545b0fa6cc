package store

import (
	"time"

	"github.com/shopspring/decimal"

	"dockerlab/pkg/domain"
)

// GORM models used for persistence. CreatedAt is filled by the column default.
type ProductModel struct {
	ID          int64           `gorm:"primaryKey;autoIncrement"`
	Name        string          `gorm:"type:varchar(100);not null"`
	Description string          `gorm:"type:text;not null"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Category    string          `gorm:"type:varchar(50);not null"`
	CreatedAt   time.Time       `gorm:"autoCreateTime:false;not null;default:CURRENT_TIMESTAMP"`
}

func (ProductModel) TableName() string { return "products" }

type MessageModel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	Content   string    `gorm:"type:text;not null"`
	Author    string    `gorm:"type:varchar(100);not null"`
	CreatedAt time.Time `gorm:"autoCreateTime:false;not null;default:CURRENT_TIMESTAMP"`
}

func (MessageModel) TableName() string { return "messages" }

func productFromModel(m ProductModel) domain.Product {
	return domain.Product{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		Price:       m.Price,
		Category:    m.Category,
		CreatedAt:   m.CreatedAt,
	}
}

func productToModel(p domain.Product) ProductModel {
	return ProductModel{
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Category:    p.Category,
	}
}

func messageFromModel(m MessageModel) domain.Message {
	return domain.Message{
		ID:        m.ID,
		Content:   m.Content,
		Author:    m.Author,
		CreatedAt: m.CreatedAt,
	}
}
