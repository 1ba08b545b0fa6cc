package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"dockerlab/internal/metrics"
	"dockerlab/internal/ratelimit"
	"dockerlab/internal/util"
	"dockerlab/pkg/domain"
	"dockerlab/services/catalog/internal/app"
)

const (
	serviceName = "catalog"
	version     = "1.0.0"
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	App            *app.App
	Environment    string
	Debug          bool
	CreateLimiter  *ratelimit.FixedWindowLimiter
	TrustedProxies *util.TrustedProxies
}

// Server exposes HTTP endpoints for the product catalog.
type Server struct {
	app            *app.App
	mux            *http.ServeMux
	environment    string
	debug          bool
	hostname       string
	createLimiter  *ratelimit.FixedWindowLimiter
	trustedProxies *util.TrustedProxies
}

// New constructs the server with routes configured.
func New(cfg Config) (*Server, error) {
	if cfg.App == nil {
		return nil, errors.New("catalog app is required")
	}
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	s := &Server{
		app:            cfg.App,
		mux:            http.NewServeMux(),
		environment:    cfg.Environment,
		debug:          cfg.Debug,
		hostname:       hostname,
		createLimiter:  cfg.CreateLimiter,
		trustedProxies: cfg.TrustedProxies,
	}
	s.routes()
	return s, nil
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(
		util.WithRequestLog(serviceName,
			metrics.Instrument(serviceName,
				util.WithRecover(util.WithSecurityHeaders(util.WithCORS(s.mux))))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/", s.handleRoot)
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/products", s.handleProducts)
	s.mux.HandleFunc("/api/products/", s.handleProductByID)
	s.mux.HandleFunc("/api/stats", s.handleStats)
	s.mux.HandleFunc("/api/info", s.handleInfo)
	s.mux.HandleFunc("/api/counter", s.handleCounter)
	s.mux.Handle("/metrics", metrics.Handler())
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		notFound(w, "Not Found")
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":     "Product Catalog API",
		"version":     version,
		"timestamp":   util.Timestamp(),
		"environment": s.environment,
		"hostname":    s.hostname,
		"endpoints": map[string]string{
			"health":   "/health",
			"products": "/api/products",
			"product":  "/api/products/{id}",
			"stats":    "/api/stats",
			"info":     "/api/info",
			"counter":  "/api/counter",
			"metrics":  "/metrics",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	h := s.app.Health(r.Context())
	// A cache outage degrades the catalog but it keeps serving.
	status := http.StatusOK
	if h.Status == app.StatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]any{
		"status": h.Status,
		"services": map[string]string{
			"database": h.Database,
			"redis":    h.Redis,
		},
		"timestamp": util.Timestamp(),
		"hostname":  s.hostname,
		"uptime":    h.Uptime.Round(time.Second).String(),
	})
}

func (s *Server) handleProducts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleListProducts(w, r)
	case http.MethodPost:
		s.handleCreateProduct(w, r)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	listing, err := s.app.ListProducts(r.Context())
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"data":      listing.Products,
		"source":    listing.Source,
		"count":     len(listing.Products),
		"timestamp": util.Timestamp(),
	})
}

func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	if s.createLimiter != nil && !s.createLimiter.Allow(r.Context(), util.ClientIP(r, s.trustedProxies)) {
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}
	var req domain.NewProduct
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	product, err := s.app.CreateProduct(r.Context(), req)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Product created successfully",
		"product": product,
	})
}

// /api/products/{id}
func (s *Server) handleProductByID(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimPrefix(r.URL.Path, "/api/products/")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 0 {
		notFound(w, "Not Found")
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	product, err := s.app.GetProduct(r.Context(), id)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"data":      product,
		"timestamp": util.Timestamp(),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	stats, err := s.app.Stats(r.Context())
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"stats":     stats,
		"timestamp": util.Timestamp(),
		"hostname":  s.hostname,
	})
}

type infoResponse struct {
	Application string `json:"application"`
	Version     string `json:"version"`
	Environment string `json:"environment"`
	app.RuntimeInfo
	Timestamp string `json:"timestamp"`
	Hostname  string `json:"hostname"`
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, infoResponse{
		Application: "Product Catalog API",
		Version:     version,
		Environment: s.environment,
		RuntimeInfo: s.app.RuntimeInfo(r.Context()),
		Timestamp:   util.Timestamp(),
		Hostname:    s.hostname,
	})
}

func (s *Server) handleCounter(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	visits, err := s.app.Counter(r.Context())
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"visits":  visits,
		"message": "Counter incremented",
	})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func notFound(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusNotFound, msg)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	util.WriteJSON(w, status, payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	util.WriteError(w, status, msg, errorCodeForCatalog(status, msg), "")
}

// writeAppError maps an operation failure to its status. Server-side
// failures are logged; their cause is shown only in debug mode.
func (s *Server) writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	status := util.StatusForKind(domain.KindOf(err))
	msg := "Internal Server Error"
	var de *domain.Error
	if errors.As(err, &de) && de.Message != "" {
		msg = de.Message
	}
	detail := ""
	if status >= http.StatusInternalServerError {
		util.LoggerFromContext(r.Context()).Error("request failed", "err", err)
		if s.debug {
			detail = err.Error()
		}
	}
	util.WriteError(w, status, msg, errorCodeForCatalog(status, msg), detail)
}

func errorCodeForCatalog(status int, msg string) string {
	message := strings.ToLower(strings.TrimSpace(msg))
	switch {
	case message == "name and price are required":
		return "PRODUCT_FIELDS_REQUIRED"
	case message == "product not found":
		return "PRODUCT_NOT_FOUND"
	case message == "invalid json body":
		return "PRODUCT_INVALID_REQUEST"
	case message == "database connection failed":
		return "SYSTEM_DATABASE_UNAVAILABLE"
	case message == "redis connection failed":
		return "SYSTEM_CACHE_UNAVAILABLE"
	case message == "rate limit exceeded":
		return "SYSTEM_RATE_LIMITED"
	case message == "method not allowed":
		return "SYSTEM_METHOD_NOT_ALLOWED"
	case message == "not found":
		return "SYSTEM_NOT_FOUND"
	}

	switch status {
	case http.StatusBadRequest:
		return "PRODUCT_INVALID_REQUEST"
	case http.StatusNotFound:
		return "SYSTEM_NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "SYSTEM_METHOD_NOT_ALLOWED"
	case http.StatusTooManyRequests:
		return "SYSTEM_RATE_LIMITED"
	default:
		return "SYSTEM_INTERNAL_ERROR"
	}
}
