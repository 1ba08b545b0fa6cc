package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"runtime"
	"strings"

	"dockerlab/internal/metrics"
	"dockerlab/internal/util"
	"dockerlab/pkg/domain"
	"dockerlab/services/board/internal/app"
)

const (
	serviceName = "board"
	version     = "1.0.0"
)

// DatabaseInfo is the non-secret part of the store configuration shown by /api/info.
type DatabaseInfo struct {
	Host string `json:"host"`
	Name string `json:"database"`
	User string `json:"user"`
}

// Config wires required dependencies for the HTTP server.
type Config struct {
	App         *app.App
	Environment string
	Debug       bool
	Port        string
	Database    DatabaseInfo
}

// Server exposes HTTP endpoints for the message board.
type Server struct {
	app         *app.App
	mux         *http.ServeMux
	environment string
	debug       bool
	port        string
	database    DatabaseInfo
	hostname    string
}

// New constructs the server with routes configured.
func New(cfg Config) (*Server, error) {
	if cfg.App == nil {
		return nil, errors.New("board app is required")
	}
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	s := &Server{
		app:         cfg.App,
		mux:         http.NewServeMux(),
		environment: cfg.Environment,
		debug:       cfg.Debug,
		port:        cfg.Port,
		database:    cfg.Database,
		hostname:    hostname,
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
	s.mux.HandleFunc("/api/messages", s.handleMessages)
	s.mux.HandleFunc("/api/info", s.handleInfo)
	s.mux.Handle("/metrics", metrics.Handler())
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeError(w, http.StatusNotFound, "Not Found")
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":     "Message Board API",
		"version":     version,
		"timestamp":   util.Timestamp(),
		"environment": s.environment,
		"hostname":    s.hostname,
		"endpoints": map[string]string{
			"health":   "/health",
			"messages": "/api/messages",
			"info":     "/api/info",
			"metrics":  "/metrics",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	database := s.app.DatabaseState(r.Context())
	status, code := app.StatusHealthy, http.StatusOK
	if database != app.StateConnected {
		status, code = app.StatusUnhealthy, http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{
		"status":      status,
		"services":    map[string]string{"database": database},
		"timestamp":   util.Timestamp(),
		"hostname":    s.hostname,
		"environment": s.environment,
	})
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		messages, err := s.app.ListMessages(r.Context())
		if err != nil {
			s.writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"messages":  messages,
			"count":     len(messages),
			"timestamp": util.Timestamp(),
		})
	case http.MethodPost:
		var req domain.NewMessage
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		msg, err := s.app.CreateMessage(r.Context(), req)
		if err != nil {
			s.writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{
			"message": "Message created successfully",
			"data":    msg,
		})
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"application": "Message Board API",
		"version":     version,
		"environment": s.environment,
		"go_version":  runtime.Version(),
		"database":    s.database,
		"container_info": map[string]string{
			"hostname": s.hostname,
			"port":     s.port,
		},
		"timestamp": util.Timestamp(),
	})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	util.WriteJSON(w, status, payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	util.WriteError(w, status, msg, errorCodeForBoard(status, msg), "")
}

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
	util.WriteError(w, status, msg, errorCodeForBoard(status, msg), detail)
}

func errorCodeForBoard(status int, msg string) string {
	switch strings.ToLower(strings.TrimSpace(msg)) {
	case "content and author are required":
		return "MESSAGE_FIELDS_REQUIRED"
	case "invalid json body":
		return "MESSAGE_INVALID_REQUEST"
	case "database connection failed":
		return "SYSTEM_DATABASE_UNAVAILABLE"
	case "method not allowed":
		return "SYSTEM_METHOD_NOT_ALLOWED"
	case "not found":
		return "SYSTEM_NOT_FOUND"
	}
	switch status {
	case http.StatusBadRequest:
		return "MESSAGE_INVALID_REQUEST"
	case http.StatusNotFound:
		return "SYSTEM_NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "SYSTEM_METHOD_NOT_ALLOWED"
	default:
		return "SYSTEM_INTERNAL_ERROR"
	}
}
