// Package macros holds the named macro library the console and /runmacro look
// macros up in. Libraries load from YAML and can follow their file on disk.
package macros

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"peon/internal/logger"
	"peon/pkg/macrotypes"
)

// ErrNoPath is returned by Reload and Watch on a library not loaded from a file.
var ErrNoPath = errors.New("library has no backing file")

// file is the on-disk layout.
type file struct {
	Macros []macrotypes.MacroDefinition `yaml:"macros"`
}

// Parser is the subset of the macro parser Check needs.
type Parser interface {
	Parse(text string) ([]macrotypes.Command, error)
}

// Library is a thread-safe set of macro definitions keyed by name.
type Library struct {
	mu     sync.RWMutex
	macros map[string]macrotypes.MacroDefinition
	path   string
	logger *log.Logger
}

var _ macrotypes.MacroSource = (*Library)(nil)

// NewLibrary creates a library holding defs.
func NewLibrary(defs ...macrotypes.MacroDefinition) *Library {
	l := &Library{
		macros: make(map[string]macrotypes.MacroDefinition),
		logger: logger.NewStyledLogger("Library"),
	}
	for _, def := range defs {
		l.macros[def.Name] = def
	}
	return l
}

// LoadFile creates a library from a YAML file.
func LoadFile(path string) (*Library, error) {
	l := NewLibrary()
	l.path = path
	if err := l.Reload(); err != nil {
		return nil, err
	}
	return l, nil
}

// Parse decodes a library document and validates every definition.
func Parse(data []byte) ([]macrotypes.MacroDefinition, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(f.Macros))
	for i := range f.Macros {
		def := &f.Macros[i]
		def.Name = strings.TrimSpace(def.Name)
		if def.Name == "" {
			return nil, fmt.Errorf("macro %d: name is required", i+1)
		}
		if _, dup := seen[def.Name]; dup {
			return nil, fmt.Errorf("duplicate macro %q", def.Name)
		}
		seen[def.Name] = struct{}{}
		if def.CraftLoopCount < macrotypes.InfiniteLoops {
			return nil, fmt.Errorf("macro %q: craft_loop_count must be -1 or greater", def.Name)
		}
	}
	return f.Macros, nil
}

// Path returns the backing file, if any.
func (l *Library) Path() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.path
}

// Reload re-reads the backing file. On error the current contents are kept.
func (l *Library) Reload() error {
	path := l.Path()
	if path == "" {
		return ErrNoPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read macros %s: %w", path, err)
	}
	defs, err := Parse(data)
	if err != nil {
		return fmt.Errorf("parse macros %s: %w", path, err)
	}

	macros := make(map[string]macrotypes.MacroDefinition, len(defs))
	for _, def := range defs {
		macros[def.Name] = def
	}

	l.mu.Lock()
	l.macros = macros
	l.mu.Unlock()

	l.logger.Debug("Macro library loaded", "path", path, "count", len(defs))
	return nil
}

// Get looks a macro up by name.
func (l *Library) Get(name string) (macrotypes.MacroDefinition, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	def, ok := l.macros[name]
	return def, ok
}

// Put adds or replaces a macro.
func (l *Library) Put(def macrotypes.MacroDefinition) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.macros[def.Name] = def
}

// Names returns every macro name, sorted.
func (l *Library) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	names := make([]string, 0, len(l.macros))
	for name := range l.macros {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Check parses every macro and returns one error per macro that fails, in
// name order.
func (l *Library) Check(p Parser) []error {
	var errs []error
	for _, name := range l.Names() {
		def, _ := l.Get(name)
		if _, err := p.Parse(def.Contents); err != nil {
			errs = append(errs, fmt.Errorf("macro %q: %w", name, err))
		}
	}
	return errs
}

// Watch reloads the library whenever its file changes, until ctx is done.
// onReload, if non-nil, is called after every reload attempt with its result.
func (l *Library) Watch(ctx context.Context, onReload func(error)) error {
	path := l.Path()
	if path == "" {
		return ErrNoPath
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	// Editors often replace the file, so watch the directory.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	target := filepath.Clean(path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			l.logger.Debug("Macro file changed", "event", event.Op.String(), "path", event.Name)
			err := l.Reload()
			if err != nil {
				l.logger.Warn("Keeping previous macros", "error", err)
			}
			if onReload != nil {
				onReload(err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			l.logger.Error("fsnotify error", "error", err)
		}
	}
}
