package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/nyra-ai/nyra/internal/orchestrate"
	"github.com/nyra-ai/nyra/internal/store"
)

func (s *Server) handleSaveData(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusInternalServerError, "Store not initialized", "")
		return
	}
	body, ok := readBody(w, r)
	if !ok || !requireFields(w, body, "Collection and document are required", "collection", "document") {
		return
	}

	collection := body.Get("collection").String()
	document := body.Get("document").String()

	data := map[string]any{}
	if v := body.Get("data"); v.Exists() {
		m, isObject := v.Value().(map[string]any)
		if !isObject {
			writeError(w, http.StatusBadRequest, "Data must be a JSON object", "")
			return
		}
		data = m
	}

	saved, err := s.store.Save(r.Context(), collection, document, data)
	if err != nil {
		s.logger.Error().Err(err).Str("collection", collection).Msg("data save failed")
		writeError(w, http.StatusInternalServerError, "Data save failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"collection": collection,
		"document":   document,
		"timestamp":  saved.Format(time.RFC3339Nano),
	})
}

func (s *Server) handleGetData(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusInternalServerError, "Store not initialized", "")
		return
	}
	body, ok := readBody(w, r)
	if !ok || !requireFields(w, body, "Collection and document are required", "collection", "document") {
		return
	}

	collection := body.Get("collection").String()
	document := body.Get("document").String()

	doc, err := s.store.Get(r.Context(), collection, document)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Document not found", collection+"/"+document)
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Str("collection", collection).Msg("data retrieval failed")
		writeError(w, http.StatusInternalServerError, "Data retrieval failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"data":     doc.Data,
		"document": document,
	})
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusInternalServerError, "Store not initialized", "")
		return
	}

	stats, err := s.store.DailyAnalytics(r.Context(), orchestrate.InteractionsCollection)
	if err != nil {
		s.logger.Error().Err(err).Msg("analytics retrieval failed")
		writeError(w, http.StatusInternalServerError, "Analytics retrieval failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    stats,
		"period":  "30_days",
	})
}
