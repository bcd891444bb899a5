package clientid

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
)

func TestGetOrCreateIsStable(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".nyra", "client_id")

	first, err := GetOrCreate(path)
	if err != nil {
		t.Fatalf("GetOrCreate() error: %v", err)
	}
	if _, err := uuid.Parse(first); err != nil {
		t.Errorf("expected a UUID, got %q", first)
	}

	second, err := GetOrCreate(path)
	if err != nil {
		t.Fatalf("GetOrCreate() error: %v", err)
	}
	if first != second {
		t.Errorf("expected stable id, got %q then %q", first, second)
	}
}

func TestGetMissing(t *testing.T) {
	id, err := Get(filepath.Join(t.TempDir(), "client_id"))
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if id != "" {
		t.Errorf("expected empty id, got %q", id)
	}
}

func TestCorruptFileIsReplaced(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client_id")
	if err := os.WriteFile(path, []byte("not-a-uuid"), 0600); err != nil {
		t.Fatal(err)
	}

	id, err := GetOrCreate(path)
	if err != nil {
		t.Fatalf("GetOrCreate() error: %v", err)
	}
	if id == "not-a-uuid" {
		t.Error("expected corrupt id to be replaced")
	}
}
