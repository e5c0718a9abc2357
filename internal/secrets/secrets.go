// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads credentials from a directory of plain-text files.
// Each file in the directory represents one secret: the filename is the key name and the
// file contents (trimmed) are the value.
//
// Known keys: upload-access-key, upload-secret-key, google-application-credentials.
package secrets

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// DefaultDir is the secrets directory used when none is configured.
const DefaultDir = ".secrets"

// Known key names.
const (
	UploadAccessKey = "upload-access-key"
	UploadSecretKey = "upload-secret-key"
)

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files are logged and skipped.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			slog.Warn("could not read secret", "name", name, "err", err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// Get returns the value of EnvName(key) when set, otherwise secrets[key].
func Get(secrets map[string]string, key string) string {
	if v := strings.TrimSpace(os.Getenv(EnvName(key))); v != "" {
		return v
	}
	return secrets[key]
}

// EnvName returns the environment variable that overrides key.
func EnvName(key string) string {
	return "DOCUTILS_" + strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
}
