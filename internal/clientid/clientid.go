// Package clientid provides the persistent identifier attached to interaction records.
package clientid

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"
	"github.com/google/uuid"
)

// GetOrCreate returns the client ID stored at path, creating one if it doesn't exist.
func GetOrCreate(path string) (string, error) {
	id, err := Get(path)
	if err != nil {
		return "", err
	}
	if id != "" {
		return id, nil
	}

	id = uuid.New().String()

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return "", fmt.Errorf("create client id directory: %w", err)
	}
	if err := renameio.WriteFile(path, []byte(id+"\n"), 0600); err != nil {
		return "", fmt.Errorf("write client id: %w", err)
	}
	return id, nil
}

// Get returns the client ID at path, or empty string if none is stored.
// A file holding anything but a UUID is treated as absent.
func Get(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("read client id: %w", err)
	}

	id := strings.TrimSpace(string(data))
	if _, err := uuid.Parse(id); err != nil {
		return "", nil
	}
	return id, nil
}
