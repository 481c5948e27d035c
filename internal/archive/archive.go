// Package archive saves raw provider payloads to disk for offline
// inspection. Writes are best-effort: the authoritative copy lives in
// Postgres, so a failed archive write is logged and swallowed.
package archive

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

const subdir = "pokemon_data"

// Store writes payload files under a media root directory.
type Store struct {
	root   string
	logger *slog.Logger
}

// NewStore creates an archive store rooted at dir.
func NewStore(dir string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{root: dir, logger: logger}
}

// Filename returns the deterministic archive path for one entity,
// relative to the media root.
func Filename(name string, id int) string {
	return filepath.Join(subdir, fmt.Sprintf("%s_%d.json", name, id))
}

// Save writes the indented payload for one entity. The returned error is
// informational; callers treat archive failures as non-fatal.
func (s *Store) Save(name string, id int, raw []byte) error {
	// The name must stay a single filename component under the media root.
	if name == "" || name == "." || name == ".." || name != filepath.Base(name) {
		return fmt.Errorf("refuse archive name %q", name)
	}
	rel := Filename(name, id)
	path := filepath.Join(s.root, rel)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create archive dir: %w", err)
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		// Not JSON after all; archive the bytes as received.
		buf.Reset()
		buf.Write(raw)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write archive file: %w", err)
	}

	s.logger.Info("Saved raw payload", "file", rel, "bytes", buf.Len())
	return nil
}
