package log

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestWithComponentAddsFields(t *testing.T) {
	var buf bytes.Buffer
	Reconfigure(Config{Level: "debug", Output: &buf, Service: "nyra-test"})
	t.Cleanup(func() { Reconfigure(Config{}) })

	l := WithComponent("transport")
	l.Info().Str(FieldEndpoint, "/health").Msg("hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v (%q)", err, buf.String())
	}
	if entry[FieldService] != "nyra-test" {
		t.Errorf("expected service nyra-test, got %v", entry[FieldService])
	}
	if entry[FieldComponent] != "transport" {
		t.Errorf("expected component transport, got %v", entry[FieldComponent])
	}
	if entry[FieldEndpoint] != "/health" {
		t.Errorf("expected endpoint /health, got %v", entry[FieldEndpoint])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	Reconfigure(Config{Level: "warn", Output: &buf})
	t.Cleanup(func() { Reconfigure(Config{}) })

	l := Base()
	l.Info().Msg("dropped")
	if buf.Len() != 0 {
		t.Fatalf("expected info to be filtered at warn level, got %q", buf.String())
	}
	l.Warn().Msg("kept")
	if buf.Len() == 0 {
		t.Fatal("expected warn entry to be written")
	}
}
