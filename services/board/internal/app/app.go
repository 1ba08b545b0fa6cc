package app

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"

	"dockerlab/internal/util"
	"dockerlab/pkg/domain"
)

// Health states.
const (
	StatusHealthy     = "healthy"
	StatusUnhealthy   = "unhealthy"
	StateConnected    = "connected"
	StateDisconnected = "disconnected"
)

var validate = validator.New()

// MessageStore persists board messages.
type MessageStore interface {
	List(ctx context.Context) ([]domain.Message, error)
	Create(ctx context.Context, content, author string) (domain.Message, error)
}

// Pinger probes a dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

// App implements the message-board operations.
type App struct {
	messages MessageStore
	db       Pinger
}

// Config wires the board dependencies.
type Config struct {
	Messages MessageStore
	DB       Pinger
}

// New constructs the application.
func New(cfg Config) *App {
	return &App{messages: cfg.Messages, db: cfg.DB}
}

// ListMessages returns every message, newest first.
func (a *App) ListMessages(ctx context.Context) ([]domain.Message, error) {
	messages, err := a.messages.List(ctx)
	if err != nil {
		return nil, domain.StoreFailure("Failed to fetch messages", err)
	}
	return messages, nil
}

// CreateMessage validates and stores a message.
func (a *App) CreateMessage(ctx context.Context, in domain.NewMessage) (domain.Message, error) {
	in.Content = strings.TrimSpace(in.Content)
	in.Author = strings.TrimSpace(in.Author)
	if err := validate.Struct(in); err != nil {
		return domain.Message{}, domain.Invalid("Content and author are required")
	}
	msg, err := a.messages.Create(ctx, in.Content, in.Author)
	if err != nil {
		return domain.Message{}, domain.StoreFailure("Failed to create message", err)
	}
	return msg, nil
}

// DatabaseState probes the store.
func (a *App) DatabaseState(ctx context.Context) string {
	if a.db == nil {
		return StateDisconnected
	}
	if err := a.db.Ping(ctx); err != nil {
		util.LoggerFromContext(ctx).Warn("database health check failed", "err", err)
		return StateDisconnected
	}
	return StateConnected
}
