package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bytedance/sonic"

	"tg-automod/internal/logger"
	"tg-automod/internal/models"
)

// File names of the JSON stores inside storage.data_dir.
const (
	WarningsFileName = "warnings.json"
	MutesFileName    = "mutes.json"
	SettingsFileName = "moderation_config.json"
)

// jsonFile persists one document as a whole-file rewrite.
type jsonFile[T any] struct {
	path string
}

// load decodes the file into a fresh T. A missing file yields the zero value; an
// unreadable or malformed one is logged and also yields the zero value.
func (f jsonFile[T]) load() T {
	var doc T

	data, err := os.ReadFile(f.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Warningf("Failed to read %s, starting empty: %v", f.path, err)
		}
		return doc
	}
	if len(data) == 0 {
		return doc
	}

	if err := sonic.Unmarshal(data, &doc); err != nil {
		logger.Warningf("Malformed %s, starting empty: %v", f.path, err)
		var empty T
		return empty
	}
	return doc
}

func (f jsonFile[T]) flush(doc T) error {
	data, err := sonic.ConfigStd.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(f.path), err)
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(f.path), err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replace %s: %w", filepath.Base(f.path), err)
	}
	return nil
}

// nested is the {"<community>": {"<user>": value}} layout shared by the member stores.
type nested[V any] map[string]map[string]V

func (n nested[V]) get(community, user int64) (V, bool) {
	v, ok := n[models.FormatID(community)][models.FormatID(user)]
	return v, ok
}

func (n nested[V]) set(community, user int64, v V) {
	c := models.FormatID(community)
	if n[c] == nil {
		n[c] = make(map[string]V)
	}
	n[c][models.FormatID(user)] = v
}

// remove deletes one entry, dropping the community map when it becomes empty.
func (n nested[V]) remove(community, user int64) bool {
	c := models.FormatID(community)
	users, ok := n[c]
	if !ok {
		return false
	}
	u := models.FormatID(user)
	if _, ok := users[u]; !ok {
		return false
	}
	delete(users, u)
	if len(users) == 0 {
		delete(n, c)
	}
	return true
}
