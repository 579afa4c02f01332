// Package shortcuts is the Steam shortcut registry collaborator.
//
// decktricks only needs two things from it: the set of tags already
// registered (to decide whether add-to-steam is still possible) and a way to
// register a new target. The tag of a trick's shortcut is its trick id.
package shortcuts

import (
	"context"
	"sort"
	"sync"
)

// Target is a non-Steam game entry.
type Target struct {
	Tag           string `json:"tag"`
	AppName       string `json:"app_name"`
	Exe           string `json:"exe"`
	StartDir      string `json:"start_dir,omitempty"`
	LaunchOptions string `json:"launch_options,omitempty"`
}

// Registry is implemented by shortcut stores.
type Registry interface {
	// AllShortcuts returns the tags of every registered shortcut.
	AllShortcuts(ctx context.Context) ([]string, error)
	// Register adds target, replacing any shortcut with the same tag.
	Register(ctx context.Context, target Target) error
}

// Memory is an in-process Registry. The zero value is ready to use.
type Memory struct {
	mu      sync.RWMutex
	targets map[string]Target
}

// NewMemory returns a Memory registry preloaded with targets.
func NewMemory(targets ...Target) *Memory {
	m := &Memory{}
	for _, t := range targets {
		_ = m.Register(context.Background(), t)
	}
	return m
}

// AllShortcuts implements Registry. Tags are sorted.
func (m *Memory) AllShortcuts(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	tags := make([]string, 0, len(m.targets))
	for tag := range m.targets {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags, nil
}

// Register implements Registry.
func (m *Memory) Register(ctx context.Context, target Target) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := target.validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.targets == nil {
		m.targets = make(map[string]Target)
	}
	m.targets[target.Tag] = target
	return nil
}

// Get returns the target registered under tag.
func (m *Memory) Get(tag string) (Target, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.targets[tag]
	return t, ok
}

var (
	_ Registry = (*Memory)(nil)
	_ Registry = (*Store)(nil)
)
