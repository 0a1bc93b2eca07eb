// Package ordinals resolves imports bound by ordinal to their export names.
//
// Tables are YAML documents of the form
//
//	library: ws2_32
//	ordinals:
//	  23: socket
//
// and are loaded the first time a library is queried: from the override
// directory when one is configured, layered over the tables built into the
// binary.
package ordinals

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/dshills/listview/internal/logging"
)

//go:embed tables/*.yaml
var builtin embed.FS

// Table maps ordinals to export names for one library.
type Table map[uint16]string

type tableFile struct {
	Library  string            `yaml:"library"`
	Ordinals map[uint16]string `yaml:"ordinals"`
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithDir adds a directory of override tables named <library>.yaml.
func WithDir(dir string) Option {
	return func(r *Resolver) {
		if dir != "" {
			r.override = os.DirFS(dir)
		}
	}
}

// WithFS adds override tables from an arbitrary file system.
func WithFS(fsys fs.FS) Option {
	return func(r *Resolver) {
		r.override = fsys
	}
}

// WithLogger sets the logger used to report unreadable tables.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = l
	}
}

// Resolver caches ordinal tables per library. It is safe for concurrent use.
type Resolver struct {
	mu       sync.RWMutex
	tables   map[string]Table // a nil Table records a library with no table
	override fs.FS
	logger   *slog.Logger
}

// New creates a resolver. Nothing is loaded until the first query.
func New(opts ...Option) *Resolver {
	r := &Resolver{tables: make(map[string]Table)}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = logging.WithComponent(r.logger, "ordinals")
	return r
}

// Name returns the export name for ordinal in library.
func (r *Resolver) Name(library string, ordinal uint16) (string, bool) {
	t := r.table(NormalizeLibrary(library))
	name, ok := t[ordinal]
	return name, ok
}

// Resolve returns the export name, or FallbackName(ordinal) when unknown.
func (r *Resolver) Resolve(library string, ordinal uint16) string {
	if name, ok := r.Name(library, ordinal); ok {
		return name
	}
	return FallbackName(ordinal)
}

// Loaded returns the normalized names of the libraries queried so far that
// have a table.
func (r *Resolver) Loaded() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []string
	for lib, t := range r.tables {
		if t != nil {
			out = append(out, lib)
		}
	}
	sort.Strings(out)
	return out
}

// FallbackName is the synthetic name of an unresolved ordinal import.
func FallbackName(ordinal uint16) string {
	return "Ordinal_" + strconv.Itoa(int(ordinal))
}

// NormalizeLibrary lower-cases a library name and strips any directory and
// ".dll" suffix.
func NormalizeLibrary(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	return strings.TrimSuffix(name, ".dll")
}

func (r *Resolver) table(lib string) Table {
	r.mu.RLock()
	t, ok := r.tables[lib]
	r.mu.RUnlock()
	if ok {
		return t
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.tables[lib]; ok {
		return t
	}
	t = r.load(lib)
	r.tables[lib] = t
	return t
}

type tableSource struct {
	name string
	fsys fs.FS
	path string
}

// load merges the override table over the built-in one.
func (r *Resolver) load(lib string) Table {
	if lib == "" {
		return nil
	}
	file := lib + ".yaml"
	sources := []tableSource{{"builtin", builtin, path.Join("tables", file)}}
	if r.override != nil {
		sources = append(sources, tableSource{"override", r.override, file})
	}

	var merged Table
	for _, src := range sources {
		t, err := readTable(src.fsys, src.path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			r.logger.Warn("ordinal table unreadable", "library", lib, "source", src.name, "error", err)
			continue
		}
		if merged == nil {
			merged = make(Table, len(t))
		}
		for k, v := range t {
			merged[k] = v
		}
	}
	if merged != nil {
		r.logger.Debug("ordinal table loaded", "library", lib, "entries", len(merged))
	}
	return merged
}

func readTable(fsys fs.FS, name string) (Table, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, err
	}
	var tf tableFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	return Table(tf.Ordinals), nil
}
