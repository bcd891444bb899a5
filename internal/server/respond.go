package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/tidwall/gjson"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, ErrorResponse{Error: message, Details: details})
}

// readBody parses the request body as a JSON object. An empty or invalid body
// writes a 400 and reports false.
func readBody(w http.ResponseWriter, r *http.Request) (gjson.Result, bool) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Bad request", err.Error())
		return gjson.Result{}, false
	}
	if !gjson.ValidBytes(raw) {
		writeError(w, http.StatusBadRequest, "Invalid JSON", "request body must be a JSON object")
		return gjson.Result{}, false
	}
	body := gjson.ParseBytes(raw)
	if !body.IsObject() {
		writeError(w, http.StatusBadRequest, "Invalid JSON", "request body must be a JSON object")
		return gjson.Result{}, false
	}
	return body, true
}

// requireFields reports whether every named field is present, writing a 400 with
// message otherwise.
func requireFields(w http.ResponseWriter, body gjson.Result, message string, fields ...string) bool {
	for _, f := range fields {
		if !body.Get(f).Exists() {
			writeError(w, http.StatusBadRequest, message, "")
			return false
		}
	}
	return true
}

func stringField(body gjson.Result, field, fallback string) string {
	if v := body.Get(field); v.Exists() && v.String() != "" {
		return v.String()
	}
	return fallback
}

func floatField(body gjson.Result, field string, fallback float64) float64 {
	if v := body.Get(field); v.Exists() && v.Type == gjson.Number {
		return v.Float()
	}
	return fallback
}

func intField(body gjson.Result, field string, fallback int) int {
	if v := body.Get(field); v.Exists() && v.Type == gjson.Number {
		return int(v.Int())
	}
	return fallback
}

func boolField(body gjson.Result, field string, fallback bool) bool {
	if v := body.Get(field); v.IsBool() {
		return v.Bool()
	}
	return fallback
}
