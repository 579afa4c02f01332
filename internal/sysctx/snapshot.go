// Package sysctx gathers the per-invocation system context snapshot.
//
// A Snapshot is built once by Gather from a fixed set of independent probes
// that run concurrently. A probe that fails leaves its part of the snapshot
// empty and logs the failure; it never affects the other parts. Nothing
// mutates a Snapshot after Gather returns, so it is shared without locking.
package sysctx

import "sort"

// Set is a set of strings.
type Set map[string]struct{}

// NewSet builds a Set from items.
func NewSet(items ...string) Set {
	s := make(Set, len(items))
	for _, it := range items {
		s[it] = struct{}{}
	}
	return s
}

// Has reports membership. A nil Set is empty.
func (s Set) Has(item string) bool {
	_, ok := s[item]
	return ok
}

// Sorted returns the members in lexical order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for it := range s {
		out = append(out, it)
	}
	sort.Strings(out)
	return out
}

// Flatpak holds installed and running application ids.
type Flatpak struct {
	Installed Set
	Running   Set
}

// Decky reflects the plugin_loader service.
type Decky struct {
	Installed bool
	Running   bool
}

// EmuDeck reflects the EmuDeck AppImage.
type EmuDeck struct {
	Installed bool
	Pids      []string
}

// GeForce reflects the GeForce NOW launcher.
type GeForce struct {
	Installed bool
	Pids      []string
}

// Systemd holds running user units, without the ".service" suffix.
type Systemd struct {
	RunningUnits Set
}

// Procs maps trick ids to the pids tagged as running or installing them.
type Procs struct {
	Running    map[string][]string
	Installing map[string][]string
}

// Steam holds the tags of registered shortcuts.
type Steam struct {
	Shortcuts Set
}

// Snapshot is the merged result of every probe. The zero value means
// "nothing found" everywhere.
type Snapshot struct {
	Flatpak Flatpak
	Decky   Decky
	EmuDeck EmuDeck
	GeForce GeForce
	Systemd Systemd
	Procs   Procs
	Steam   Steam
}

// RunningPids returns the pids tagged as running trickID.
func (s *Snapshot) RunningPids(trickID string) []string {
	return s.Procs.Running[trickID]
}

// InstallingPids returns the pids tagged as installing trickID.
func (s *Snapshot) InstallingPids(trickID string) []string {
	return s.Procs.Installing[trickID]
}

// HasShortcut reports whether a shortcut tagged tag is registered.
func (s *Snapshot) HasShortcut(tag string) bool {
	return s.Steam.Shortcuts.Has(tag)
}
