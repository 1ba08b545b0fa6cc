package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"dockerlab/pkg/domain"
)

// MessageStore reads and writes board messages.
type MessageStore struct {
	provider *Provider
}

// NewMessageStore builds a MessageStore on top of p.
func NewMessageStore(p *Provider) *MessageStore {
	return &MessageStore{provider: p}
}

// List returns all messages, newest first.
func (s *MessageStore) List(ctx context.Context) ([]domain.Message, error) {
	var models []MessageModel
	err := s.provider.With(ctx, func(tx *gorm.DB) error {
		return tx.Order("created_at DESC").Order("id DESC").Find(&models).Error
	})
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	out := make([]domain.Message, 0, len(models))
	for _, m := range models {
		out = append(out, messageFromModel(m))
	}
	return out, nil
}

// Create inserts a message and returns the stored row.
func (s *MessageStore) Create(ctx context.Context, content, author string) (domain.Message, error) {
	model := MessageModel{Content: content, Author: author}
	err := s.provider.With(ctx, func(tx *gorm.DB) error {
		if err := returningID(tx).Create(&model).Error; err != nil {
			return err
		}
		return tx.First(&model, "id = ?", model.ID).Error
	})
	if err != nil {
		return domain.Message{}, fmt.Errorf("create message: %w", err)
	}
	return messageFromModel(model), nil
}
