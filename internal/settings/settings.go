// Package settings persists the per-device preferences that live outside the
// task store: the category set and the daily reminder toggle.
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sandeepkv93/taskly/internal/model"
)

type Settings struct {
	Categories    model.Categories
	DailyReminder bool
}

func Default() Settings {
	return Settings{Categories: model.DefaultCategories.Clone()}
}

type fileState struct {
	Categories    []string `json:"categories"`
	DailyReminder bool     `json:"daily_reminder"`
}

// FileStore keeps Settings in a JSON file. Writes go to a temporary file
// that is renamed over the target so readers never see a partial file.
type FileStore struct {
	mu   sync.Mutex
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: strings.TrimSpace(path)}
}

func (s *FileStore) Path() string {
	return s.path
}

// Load returns the saved settings, or defaults when nothing was saved. A
// saved category set without exactly four valid symbols is replaced by the
// defaults.
func (s *FileStore) Load() (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *FileStore) Save(in Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(in)
}

// SetCategory replaces one slot and returns the updated settings together
// with the symbol that was replaced.
func (s *FileStore) SetCategory(slot int, symbol string) (Settings, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, err := s.load()
	if err != nil {
		return Settings{}, "", err
	}
	old := cur.Categories.At(slot)
	next, err := cur.Categories.Set(slot, symbol)
	if err != nil {
		return Settings{}, "", err
	}
	cur.Categories = next
	if err := s.save(cur); err != nil {
		return Settings{}, "", err
	}
	return cur, old, nil
}

func (s *FileStore) SetDailyReminder(enabled bool) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, err := s.load()
	if err != nil {
		return Settings{}, err
	}
	cur.DailyReminder = enabled
	if err := s.save(cur); err != nil {
		return Settings{}, err
	}
	return cur, nil
}

func (s *FileStore) load() (Settings, error) {
	if s.path == "" {
		return Default(), nil
	}
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return Settings{}, fmt.Errorf("settings: read %s: %w", s.path, err)
	}
	if strings.TrimSpace(string(raw)) == "" {
		return Default(), nil
	}
	var state fileState
	if err := json.Unmarshal(raw, &state); err != nil {
		return Settings{}, fmt.Errorf("settings: decode %s: %w", s.path, err)
	}
	return Settings{
		Categories:    model.NormalizeCategories(state.Categories),
		DailyReminder: state.DailyReminder,
	}, nil
}

func (s *FileStore) save(in Settings) error {
	if s.path == "" {
		return nil
	}
	dir := filepath.Dir(s.path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("settings: create dir: %w", err)
		}
	}
	payload, err := json.MarshalIndent(fileState{
		Categories:    model.NormalizeCategories(in.Categories),
		DailyReminder: in.DailyReminder,
	}, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, append(payload, '\n'), 0o644); err != nil {
		return fmt.Errorf("settings: write: %w", err)
	}
	return os.Rename(tmp, s.path)
}
