package providers

import (
	"context"

	"github.com/blackwell-systems/decktricks/internal/logging"
	"github.com/blackwell-systems/decktricks/internal/syscmd"
	"github.com/blackwell-systems/decktricks/internal/sysctx"
	"github.com/blackwell-systems/decktricks/internal/tricks"
)

// SystemUpdater is one backend's whole-system update step.
type SystemUpdater struct {
	Name   string
	Update func(ctx context.Context) (string, error)
}

// FlatpakUpdateAllCmd updates every installed flatpak.
var FlatpakUpdateAllCmd = syscmd.New("flatpak", "update", "--noninteractive").WithLive()

// SystemUpdaters lists the backends with a whole-system update, in a fixed
// order: flatpak first, then Decky when a Decky trick is installed.
func SystemUpdaters(registry *tricks.Registry, snap *sysctx.Snapshot, deps Deps) []SystemUpdater {
	updaters := []SystemUpdater{{
		Name: "flatpak",
		Update: func(ctx context.Context) (string, error) {
			out, err := syscmd.Exec(ctx, deps.Runner, FlatpakUpdateAllCmd, deps.Logger, "flatpak")
			if err != nil {
				return "", err
			}
			if _, err := out.AsSuccess(FlatpakUpdateAllCmd); err != nil {
				return "", err
			}
			return "Updated all flatpaks", nil
		},
	}}

	if registry == nil {
		return updaters
	}
	for _, t := range registry.All() {
		if t.Provider.Kind != tricks.KindDeckyInstaller {
			continue
		}
		p, err := For(t, snap, deps)
		if err != nil {
			logging.Logf(deps.Logger, logging.Error, logging.GeneralChannel, "skipping %s update: %v", t.ID, err)
			continue
		}
		if !p.CanUpdate() {
			continue
		}
		updaters = append(updaters, SystemUpdater{Name: t.ID, Update: p.Update})
	}
	return updaters
}
