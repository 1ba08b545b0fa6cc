package store

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"dockerlab/pkg/domain"
)

const defaultOpTimeout = 3 * time.Second

// Options tunes Open.
type Options struct {
	LogLevel  string
	OpTimeout time.Duration
}

// Option mutates Options.
type Option func(*Options)

// WithLogLevel sets the gorm log level ("debug" logs every statement).
func WithLogLevel(level string) Option {
	return func(opts *Options) {
		opts.LogLevel = level
	}
}

// WithOpTimeout bounds every With call.
func WithOpTimeout(d time.Duration) Option {
	return func(opts *Options) {
		opts.OpTimeout = d
	}
}

// Provider hands out one dedicated connection per operation.
// Connections are not kept idle between operations.
type Provider struct {
	db      *gorm.DB
	timeout time.Duration
}

// Open prepares a Provider for dsn without connecting.
// DSNs prefixed with "sqlite:" use the embedded driver; everything else is Postgres.
func Open(dsn string, options ...Option) (*Provider, error) {
	opts := Options{OpTimeout: defaultOpTimeout}
	for _, option := range options {
		if option != nil {
			option(&opts)
		}
	}
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("database dsn required")
	}

	level := gormlogger.Warn
	if opts.LogLevel == "debug" {
		level = gormlogger.Info
	}
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	var dialector gorm.Dialector
	if path, ok := strings.CutPrefix(dsn, "sqlite:"); ok {
		dialector = sqlite.Open(path)
	} else {
		dialector = postgres.Open(dsn)
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 gormLog,
		DisableAutomaticPing:   true,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}
	sqlDB.SetMaxIdleConns(0)

	timeout := opts.OpTimeout
	if timeout <= 0 {
		timeout = defaultOpTimeout
	}
	return &Provider{db: db, timeout: timeout}, nil
}

// With acquires a connection, runs fn on it and releases it on every path.
// A failure to acquire is logged and reported as domain.ErrUnavailable.
func (p *Provider) With(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if p == nil || p.db == nil {
		return domain.ErrUnavailable
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	acquired := false
	err := p.db.WithContext(ctx).Connection(func(tx *gorm.DB) error {
		acquired = true
		return fn(tx.Session(&gorm.Session{NewDB: true}))
	})
	if err != nil && !acquired {
		slog.Warn("database unavailable", "err", err)
		return fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}
	return err
}

// Ping checks that a connection can be acquired and used.
func (p *Provider) Ping(ctx context.Context) error {
	return p.With(ctx, func(tx *gorm.DB) error {
		return tx.Exec("SELECT 1").Error
	})
}

// Close releases the underlying pool.
func (p *Provider) Close() error {
	if p == nil || p.db == nil {
		return nil
	}
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
