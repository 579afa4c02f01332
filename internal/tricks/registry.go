package tricks

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/blackwell-systems/decktricks/internal/failure"
)

//go:embed default_tricks.toml
var defaultTricks []byte

// Format is the encoding of a registry file.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// FormatFor picks the format from a file extension. Anything that is not
// .yaml or .yml is read as TOML.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatTOML
	}
}

// file is the on-disk layout shared by both formats.
type file struct {
	Tricks []Trick `toml:"tricks" yaml:"tricks"`
}

// Registry is the read-only set of tricks for one invocation.
type Registry struct {
	order []string
	byID  map[string]Trick
}

// NewRegistry validates tricks and builds a registry preserving their order.
func NewRegistry(tricks []Trick) (*Registry, error) {
	r := &Registry{byID: make(map[string]Trick, len(tricks))}
	for i, t := range tricks {
		if t.ID == "" {
			return nil, fmt.Errorf("trick #%d has no id", i+1)
		}
		if strings.ContainsAny(t.ID, " \t\n") {
			return nil, fmt.Errorf("trick id %q contains whitespace", t.ID)
		}
		if _, dup := r.byID[t.ID]; dup {
			return nil, fmt.Errorf("duplicate trick id %q", t.ID)
		}
		if err := t.Provider.validate(); err != nil {
			return nil, fmt.Errorf("trick %q: %w", t.ID, err)
		}
		r.order = append(r.order, t.ID)
		r.byID[t.ID] = t
	}
	return r, nil
}

// Get looks up a trick by id.
func (r *Registry) Get(id string) (Trick, bool) {
	t, ok := r.byID[id]
	return t, ok
}

// All returns every trick in declaration order.
func (r *Registry) All() []Trick {
	out := make([]Trick, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// IDs returns every trick id in declaration order.
func (r *Registry) IDs() []string {
	return append([]string(nil), r.order...)
}

// Len returns the number of tricks.
func (r *Registry) Len() int {
	return len(r.order)
}

// Parse decodes and validates a registry. Every failure is a ConfigParsing error.
func Parse(data []byte, format Format) (*Registry, error) {
	var f file
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil {
			return nil, failure.ConfigParse(fmt.Errorf("invalid yaml: %w", err))
		}
	case FormatTOML:
		md, err := toml.Decode(string(data), &f)
		if err != nil {
			return nil, failure.ConfigParse(fmt.Errorf("invalid toml: %w", err))
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, failure.ConfigParse(fmt.Errorf("unknown key %q", undecoded[0].String()))
		}
	default:
		return nil, failure.ConfigParse(fmt.Errorf("unsupported format %q", format))
	}

	r, err := NewRegistry(f.Tricks)
	if err != nil {
		return nil, failure.ConfigParse(err)
	}
	return r, nil
}

// Load reads the registry at path, choosing the format from its extension.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, failure.ConfigParse(fmt.Errorf("failed to read %s: %w", path, err))
	}
	r, err := Parse(data, FormatFor(path))
	if err != nil {
		return nil, err
	}
	return r, nil
}

// LoadOrDefault loads path when it exists and falls back to the built-in
// registry otherwise. An empty path always yields the built-in registry.
func LoadOrDefault(path string) (*Registry, error) {
	if path == "" {
		return Default()
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default()
	}
	return Load(path)
}

// Default returns the built-in registry.
func Default() (*Registry, error) {
	return Parse(defaultTricks, FormatTOML)
}
