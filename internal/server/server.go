// Package server implements the NYRA development backend: every capability
// endpoint the client consumes, backed by a chat provider and a SQLite store.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/nyra-ai/nyra/internal/api"
	"github.com/nyra-ai/nyra/internal/llm"
	nlog "github.com/nyra-ai/nyra/internal/log"
	"github.com/nyra-ai/nyra/internal/store"
)

const (
	generationTimeout = 120 * time.Second
	healthTimeout     = 10 * time.Second
	maxBodyBytes      = 16 << 20
)

// Config wires the backend dependencies.
type Config struct {
	Chat    llm.ChatProvider
	Store   *store.Store
	Version string

	// RateLimit is the per-IP request budget on /api per RateWindow; zero disables it.
	RateLimit  int
	RateWindow time.Duration
}

// Server serves the capability endpoints.
type Server struct {
	chat    llm.ChatProvider
	store   *store.Store
	version string
	limit   int
	window  time.Duration
	logger  zerolog.Logger
	now     func() time.Time
}

// New creates a Server.
func New(cfg Config) *Server {
	if cfg.Version == "" {
		cfg.Version = "dev"
	}
	if cfg.RateWindow <= 0 {
		cfg.RateWindow = time.Minute
	}
	return &Server{
		chat:    cfg.Chat,
		store:   cfg.Store,
		version: cfg.Version,
		limit:   cfg.RateLimit,
		window:  cfg.RateWindow,
		logger:  nlog.WithComponent("server"),
		now:     time.Now,
	}
}

// Handler builds the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(chimw.RequestID)
	r.Use(securityHeaders)
	r.Use(s.accessLog)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not found", "Resource not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed", r.Method+" "+r.URL.Path)
	})

	handlers := map[string]http.HandlerFunc{
		api.OpPrompt:        s.handlePrompt,
		api.OpSummarize:     s.handleSummarize,
		api.OpTranslate:     s.handleTranslate,
		api.OpWrite:         s.handleWrite,
		api.OpProofread:     s.handleProofread,
		api.OpRewrite:       s.handleRewrite,
		api.OpGenerate:      s.handleGenerate,
		api.OpAnalyzeDevOps: s.handleAnalyzeDevOps,
		api.OpMultiAgent:    s.handleMultiAgent,
		api.OpOptimizeSQL:   s.handleOptimizeSQL,
		api.OpAnalytics:     s.handleAnalytics,
		api.OpSaveData:      s.handleSaveData,
		api.OpGetData:       s.handleGetData,
		api.OpHealth:        s.handleHealth,
	}

	limited := r.With()
	if s.limit > 0 {
		limited = r.With(rateLimit(s.limit, s.window))
	}
	for op, ep := range api.Operations {
		h, ok := handlers[op]
		if !ok {
			continue
		}
		if ep.Path == "/health" {
			r.Method(string(ep.Method), ep.Path, h)
			continue
		}
		limited.Method(string(ep.Method), ep.Path, h)
	}

	r.Get("/api/status", s.handleStatus)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// generate runs one completion and reports which provider served it.
func (s *Server) generate(ctx context.Context, messages []llm.ChatMessage, opts llm.ChatOptions) (string, string, error) {
	if s.chat == nil {
		return "", "", llm.ErrNoChatProvider
	}
	ctx, cancel := context.WithTimeout(ctx, generationTimeout)
	defer cancel()

	if routed, ok := s.chat.(*llm.FallbackChat); ok {
		return routed.ChatServed(ctx, messages, opts)
	}
	reply, err := s.chat.Chat(ctx, messages, opts)
	return reply, s.chat.Name(), err
}

func (s *Server) timestamp() string {
	return s.now().UTC().Format(time.RFC3339Nano)
}
