package config

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/kart-io/chatpush/pkg/logger"
)

// Store persists per-identity configuration documents. Load always
// returns a fully defaulted document: missing or corrupt backing storage
// is treated identically to "file absent" and never propagated. Save
// returns false on I/O failure, never panics.
type Store interface {
	Load(identity string) *NotificationConfig
	Save(identity string, cfg *NotificationConfig) bool
}

// FileStore keeps one JSON document per identity under a base directory.
type FileStore struct {
	dir string
	log logger.Logger
}

// NewFileStore creates a file-backed store rooted at dir.
func NewFileStore(dir string, log logger.Logger) *FileStore {
	if log == nil {
		log = logger.Discard
	}
	return &FileStore{dir: dir, log: log}
}

// Load reads the identity's document, substituting defaults field by
// field when the file is missing or corrupt.
func (s *FileStore) Load(identity string) *NotificationConfig {
	path := s.path(identity)
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn("Failed to read config, using defaults", "identity", identity, "error", err)
		}
		return Default()
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		s.log.Warn("Corrupt config, using defaults", "identity", identity, "error", err)
		return Default()
	}
	cfg.Normalize()
	return cfg
}

// Save writes the identity's document atomically via a temp file rename.
func (s *FileStore) Save(identity string, cfg *NotificationConfig) bool {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		s.log.Error("Failed to create config directory", "dir", s.dir, "error", err)
		return false
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		s.log.Error("Failed to encode config", "identity", identity, "error", err)
		return false
	}

	path := s.path(identity)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		s.log.Error("Failed to write config", "identity", identity, "error", err)
		return false
	}
	if err := os.Rename(tmp, path); err != nil {
		s.log.Error("Failed to replace config", "identity", identity, "error", err)
		_ = os.Remove(tmp)
		return false
	}
	return true
}

// Watch reports external modifications to identity documents until ctx is
// cancelled. onChange receives the identity whose file was written.
func (s *FileStore) Watch(ctx context.Context, onChange func(identity string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(s.dir); err != nil {
		_ = watcher.Close()
		return err
	}

	go func() {
		defer func() { _ = watcher.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				name := filepath.Base(ev.Name)
				if !strings.HasSuffix(name, ".json") {
					continue
				}
				identity := strings.TrimSuffix(name, ".json")
				s.log.Debug("Config file changed", "identity", identity)
				onChange(identity)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.log.Warn("Config watcher error", "error", err)
			}
		}
	}()
	return nil
}

func (s *FileStore) path(identity string) string {
	// Identities may contain separators (user@network); keep the file
	// name flat.
	safe := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':':
			return '_'
		}
		return r
	}, identity)
	return filepath.Join(s.dir, safe+".json")
}
