package shortcuts

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAllShortcuts_NoSchema_ReturnsErrNotInitialized(t *testing.T) {
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer s.Close()

	_, err = s.AllShortcuts(context.Background())
	if !errors.Is(err, ErrNotInitialized) {
		t.Errorf("AllShortcuts() error = %v; want ErrNotInitialized", err)
	}
}

func TestRegisterAndList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	targets := []Target{
		{Tag: "warehouse", AppName: "Warehouse", Exe: "flatpak", LaunchOptions: "run io.github.flattool.Warehouse"},
		{Tag: "emudeck", AppName: "EmuDeck", Exe: "/home/deck/Applications/EmuDeck.AppImage", StartDir: "/home/deck"},
	}
	for _, tgt := range targets {
		if err := s.Register(ctx, tgt); err != nil {
			t.Fatalf("Register(%s) failed: %v", tgt.Tag, err)
		}
	}

	tags, err := s.AllShortcuts(ctx)
	if err != nil {
		t.Fatalf("AllShortcuts() failed: %v", err)
	}
	if len(tags) != 2 || tags[0] != "emudeck" || tags[1] != "warehouse" {
		t.Errorf("AllShortcuts() = %v, want [emudeck warehouse]", tags)
	}

	entries, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("List() returned %d entries, want 2", len(entries))
	}
	if entries[0].Tag != "warehouse" {
		t.Errorf("oldest entry = %s, want warehouse", entries[0].Tag)
	}
	if entries[1].StartDir != "/home/deck" {
		t.Errorf("StartDir = %q, want /home/deck", entries[1].StartDir)
	}
	if !entries[0].AddedAt.Equal(base.Add(time.Minute)) {
		t.Errorf("AddedAt = %v, want %v", entries[0].AddedAt, base.Add(time.Minute))
	}
}

func TestRegisterReplacesSameTag(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_ = s.Register(ctx, Target{Tag: "heroic", AppName: "Heroic", Exe: "old"})
	if err := s.Register(ctx, Target{Tag: "heroic", AppName: "Heroic", Exe: "flatpak"}); err != nil {
		t.Fatalf("Register() failed: %v", err)
	}

	entries, _ := s.List(ctx)
	if len(entries) != 1 || entries[0].Exe != "flatpak" {
		t.Errorf("entries = %+v, want single replaced entry", entries)
	}
}

func TestRemove(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_ = s.Register(ctx, Target{Tag: "heroic", AppName: "Heroic", Exe: "flatpak"})
	if err := s.Remove(ctx, "heroic"); err != nil {
		t.Fatalf("Remove() failed: %v", err)
	}
	if err := s.Remove(ctx, "heroic"); err != nil {
		t.Errorf("Remove() of missing tag should succeed, got %v", err)
	}

	tags, _ := s.AllShortcuts(ctx)
	if len(tags) != 0 {
		t.Errorf("AllShortcuts() = %v, want empty", tags)
	}
}

func TestRegisterValidates(t *testing.T) {
	tests := []struct {
		name   string
		target Target
	}{
		{"no tag", Target{AppName: "x", Exe: "x"}},
		{"no name", Target{Tag: "x", Exe: "x"}},
		{"no exe", Target{Tag: "x", AppName: "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)
			if err := s.Register(context.Background(), tt.target); !errors.Is(err, ErrInvalidTarget) {
				t.Errorf("Store.Register() error = %v, want ErrInvalidTarget", err)
			}
			if err := NewMemory().Register(context.Background(), tt.target); !errors.Is(err, ErrInvalidTarget) {
				t.Errorf("Memory.Register() error = %v, want ErrInvalidTarget", err)
			}
		})
	}
}

func TestOpenCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "shortcuts.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if err := s.Register(context.Background(), Target{Tag: "a", AppName: "A", Exe: "a"}); err != nil {
		t.Fatalf("Register() failed: %v", err)
	}
}

func TestMemory(t *testing.T) {
	m := NewMemory(Target{Tag: "b", AppName: "B", Exe: "b"}, Target{Tag: "a", AppName: "A", Exe: "a"})

	tags, err := m.AllShortcuts(context.Background())
	if err != nil {
		t.Fatalf("AllShortcuts() failed: %v", err)
	}
	if len(tags) != 2 || tags[0] != "a" {
		t.Errorf("AllShortcuts() = %v, want [a b]", tags)
	}

	if _, ok := m.Get("b"); !ok {
		t.Error("Get(b) should find the preloaded target")
	}

	var zero Memory
	if err := zero.Register(context.Background(), Target{Tag: "z", AppName: "Z", Exe: "z"}); err != nil {
		t.Errorf("zero Memory should accept registrations: %v", err)
	}
}

func TestMemoryHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewMemory().AllShortcuts(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("AllShortcuts() error = %v, want context.Canceled", err)
	}
}
