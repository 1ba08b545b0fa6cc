package app

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"dockerlab/internal/metrics"
	"dockerlab/internal/util"
	"dockerlab/pkg/cache"
	"dockerlab/pkg/domain"
	"dockerlab/pkg/store"
)

const (
	// ProductsCacheKey holds the serialized product listing.
	ProductsCacheKey = "products"
	// VisitsKey counts /api/stats calls.
	VisitsKey = "api_visits"
	// PageCounterKey counts /api/counter calls.
	PageCounterKey = "page_counter"

	defaultCacheTTL = 300 * time.Second
)

// Listing sources.
const (
	SourceCache    = "cache"
	SourceDatabase = "database"
)

// Dependency states reported by Health.
const (
	StateConnected    = "connected"
	StateDisconnected = "disconnected"
)

// Overall health states.
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

var validate = validator.New()

// ProductStore is the relational side of the catalog.
type ProductStore interface {
	List(ctx context.Context) ([]domain.Product, error)
	Get(ctx context.Context, id int64) (domain.Product, bool, error)
	Create(ctx context.Context, p domain.Product) (domain.Product, error)
	Stats(ctx context.Context) (store.ProductStats, error)
}

// Cache is the optional key-value tier.
type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (bool, error)
	SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Incr(ctx context.Context, key string) (int64, error)
	Info(ctx context.Context) (cache.ServerInfo, error)
	Ping(ctx context.Context) error
}

// Pinger probes a dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config wires the catalog dependencies.
type Config struct {
	Products ProductStore
	DB       Pinger
	Cache    Cache
	CacheTTL time.Duration
}

// App implements the catalog operations.
type App struct {
	products  ProductStore
	db        Pinger
	cache     Cache
	cacheTTL  time.Duration
	startedAt time.Time
}

// Listing is the result of ListProducts.
type Listing struct {
	Products []domain.Product
	Source   string
}

// Stats aggregates catalog and cache figures. APIVisits is nil when the
// counter could not be incremented, RedisInfo when INFO failed.
type Stats struct {
	TotalProducts      int64             `json:"total_products"`
	ProductsByCategory map[string]int64  `json:"products_by_category"`
	APIVisits          *int64            `json:"api_visits,omitempty"`
	RedisInfo          *cache.ServerInfo `json:"redis_info,omitempty"`
}

// Health is the result of a dependency probe.
type Health struct {
	Status   string
	Database string
	Redis    string
	Uptime   time.Duration
}

// New constructs the application.
func New(cfg Config) *App {
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	c := cfg.Cache
	if c == nil {
		c = (*cache.RedisCache)(nil)
	}
	return &App{
		products:  cfg.Products,
		db:        cfg.DB,
		cache:     c,
		cacheTTL:  ttl,
		startedAt: time.Now(),
	}
}

// ListProducts serves the listing from the cache when present and refills it otherwise.
func (a *App) ListProducts(ctx context.Context) (Listing, error) {
	logger := util.LoggerFromContext(ctx)
	var cached []domain.Product
	hit, err := a.cache.GetJSON(ctx, ProductsCacheKey, &cached)
	if err != nil {
		logger.Warn("product cache read failed", "err", err)
	}
	if hit {
		metrics.CacheHit()
		if cached == nil {
			cached = []domain.Product{}
		}
		return Listing{Products: cached, Source: SourceCache}, nil
	}
	metrics.CacheMiss()

	products, err := a.products.List(ctx)
	if err != nil {
		return Listing{}, domain.StoreFailure("Failed to fetch products", err)
	}
	if err := a.cache.SetJSON(ctx, ProductsCacheKey, products, a.cacheTTL); err != nil {
		logger.Warn("product cache write failed", "err", err)
	}
	return Listing{Products: products, Source: SourceDatabase}, nil
}

// GetProduct returns one product.
func (a *App) GetProduct(ctx context.Context, id int64) (domain.Product, error) {
	product, ok, err := a.products.Get(ctx, id)
	if err != nil {
		return domain.Product{}, domain.StoreFailure("Failed to fetch product", err)
	}
	if !ok {
		return domain.Product{}, domain.NotFound("Product not found")
	}
	return product, nil
}

// CreateProduct validates input, stores the product and drops the cached listing.
func (a *App) CreateProduct(ctx context.Context, in domain.NewProduct) (domain.Product, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validate.Struct(in); err != nil {
		return domain.Product{}, domain.Invalid("Name and price are required")
	}
	created, err := a.products.Create(ctx, domain.Product{
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price.Round(2),
		Category:    in.Category,
	})
	if err != nil {
		return domain.Product{}, domain.StoreFailure("Failed to create product", err)
	}
	if err := a.cache.Delete(ctx, ProductsCacheKey); err != nil {
		util.LoggerFromContext(ctx).Warn("product cache invalidation failed", "err", err)
	}
	return created, nil
}

// Stats gathers store aggregates, the visit counter and cache server figures concurrently.
// Only a store failure fails the call. An INFO failure drops only RedisInfo.
func (a *App) Stats(ctx context.Context) (Stats, error) {
	logger := util.LoggerFromContext(ctx)
	var (
		out       Stats
		visits    int64
		info      cache.ServerInfo
		counted   bool
		described bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		stats, err := a.products.Stats(gctx)
		if err != nil {
			return domain.StoreFailure("Failed to compute stats", err)
		}
		out.TotalProducts = stats.Total
		out.ProductsByCategory = stats.ByCategory
		return nil
	})
	g.Go(func() error {
		n, err := a.cache.Incr(gctx, VisitsKey)
		if err != nil {
			logger.Warn("visit counter unavailable", "err", err)
			return nil
		}
		visits, counted = n, true
		snapshot, err := a.cache.Info(gctx)
		if err != nil {
			logger.Warn("cache info unavailable", "err", err)
			return nil
		}
		info, described = snapshot, true
		return nil
	})
	if err := g.Wait(); err != nil {
		return Stats{}, err
	}
	if counted {
		out.APIVisits = &visits
	}
	if described {
		out.RedisInfo = &info
	}
	return out, nil
}

// Counter increments the page counter. It needs the cache.
func (a *App) Counter(ctx context.Context) (int64, error) {
	n, err := a.cache.Incr(ctx, PageCounterKey)
	if err != nil {
		return 0, domain.Unavailable("Redis connection failed", err)
	}
	return n, nil
}

// Health probes the store and the cache concurrently.
func (a *App) Health(ctx context.Context) Health {
	h := Health{Database: StateDisconnected, Redis: StateDisconnected, Uptime: time.Since(a.startedAt)}
	logger := util.LoggerFromContext(ctx)
	var g errgroup.Group
	g.Go(func() error {
		if a.db == nil {
			return nil
		}
		if err := a.db.Ping(ctx); err != nil {
			logger.Warn("database health check failed", "err", err)
			return nil
		}
		h.Database = StateConnected
		return nil
	})
	g.Go(func() error {
		if err := a.cache.Ping(ctx); err != nil {
			logger.Warn("redis health check failed", "err", err)
			return nil
		}
		h.Redis = StateConnected
		return nil
	})
	_ = g.Wait()

	switch {
	case h.Database != StateConnected:
		h.Status = StatusUnhealthy
	case h.Redis != StateConnected:
		h.Status = StatusDegraded
	default:
		h.Status = StatusHealthy
	}
	return h
}
