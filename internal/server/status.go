package server

import (
	"context"
	"net/http"

	"github.com/nyra-ai/nyra/internal/api"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	services := map[string]string{
		"chat":  "unavailable",
		"store": "unavailable",
	}
	if s.chat != nil {
		if res, err := s.chat.Health(ctx); err == nil && res.Ok {
			services["chat"] = "available"
		}
	}
	if s.store != nil && s.store.Ping(ctx) == nil {
		services["store"] = "connected"
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": s.timestamp(),
		"version":   s.version,
		"services":  services,
	})
}

type apiStatus struct {
	Status   string `json:"status"`
	Endpoint string `json:"endpoint"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	apis := make(map[string]apiStatus, len(api.Operations))
	for _, name := range api.OperationNames() {
		apis[name] = apiStatus{Status: "active", Endpoint: api.Operations[name].Path}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"apis": apis,
		"features": map[string]bool{
			"offline_mode": true,
			"hybrid_ai":    true,
			"multi_agent":  true,
			"analytics":    s.store != nil,
		},
	})
}
