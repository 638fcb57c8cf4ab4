package loader

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-viewer/engine/logger"
	"github.com/google/uuid"
)

// Locator identifies one model file. A locator is issued once per base filename.
type Locator struct {
	ID   uuid.UUID
	Name string
	Path string
}

// modelExtensions are the extensions ingestion accepts, compared case-insensitively.
var modelExtensions = []string{".glb", ".gltf"}

// IsModelFile reports whether path has a model extension.
//
// Parameters:
//   - path: the file path
//
// Returns:
//   - bool: true for .glb and .gltf in any case
func IsModelFile(path string) bool {
	ext := filepath.Ext(path)
	for _, e := range modelExtensions {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}

// Ingestor turns dropped or command-line paths into locators. It remembers every filename it has
// issued a locator for, so adding a same-named file again yields the existing locator.
type Ingestor struct {
	mu     *sync.Mutex
	byName map[string]Locator
	log    logger.Logger
}

// NewIngestor creates an empty Ingestor.
//
// Parameters:
//   - log: receives warnings for unreadable paths; nil discards them
//
// Returns:
//   - *Ingestor: the ingestor
func NewIngestor(log logger.Logger) *Ingestor {
	if log == nil {
		log = logger.Nop()
	}
	return &Ingestor{
		mu:     &sync.Mutex{},
		byName: make(map[string]Locator),
		log:    log,
	}
}

// Ingest expands directories recursively, keeps model files only and dedupes by base filename.
// The first path seen for a filename wins. Unreadable paths are logged and skipped.
//
// Parameters:
//   - paths: files or directories
//
// Returns:
//   - []Locator: one locator per distinct filename, in discovery order
func (i *Ingestor) Ingest(paths ...string) []Locator {
	i.mu.Lock()
	defer i.mu.Unlock()

	var out []Locator
	seen := make(map[string]bool)
	add := func(path string) {
		if !IsModelFile(path) {
			return
		}
		name := filepath.Base(path)
		if seen[name] {
			return
		}
		seen[name] = true
		loc, ok := i.byName[name]
		if !ok {
			loc = Locator{ID: uuid.New(), Name: name, Path: path}
			i.byName[name] = loc
		}
		out = append(out, loc)
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			i.log.Warnf("skipping %s: %v", p, err)
			continue
		}
		if !info.IsDir() {
			add(p)
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				i.log.Warnf("skipping %s: %v", path, err)
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if !d.IsDir() {
				add(path)
			}
			return nil
		})
		if err != nil {
			i.log.Warnf("failed to walk %s: %v", p, err)
		}
	}
	return out
}

// Known returns the locator issued for a filename.
//
// Parameters:
//   - name: the base filename
//
// Returns:
//   - Locator: the locator
//   - bool: false if no locator was issued for name
func (i *Ingestor) Known(name string) (Locator, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	loc, ok := i.byName[name]
	return loc, ok
}

// Ingest runs a one-off ingestion with a fresh Ingestor.
//
// Parameters:
//   - paths: files or directories
//
// Returns:
//   - []Locator: one locator per distinct filename
func Ingest(paths ...string) []Locator {
	return NewIngestor(nil).Ingest(paths...)
}
