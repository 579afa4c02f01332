package actions

import (
	"github.com/blackwell-systems/decktricks/internal/providers"
	"github.com/blackwell-systems/decktricks/internal/sysctx"
)

// Gate reports whether kind is currently allowed for p and, when it is not,
// the hint shown to the user.
func Gate(p providers.Provider, snap *sysctx.Snapshot, kind Kind) (bool, string) {
	installManaged := p.Trick().Provider.InstallManaged()

	switch kind {
	case Info, GetAvailableActions:
		return true, ""
	case Run:
		return p.CanRun(), "not installed"
	case Install:
		if !installManaged {
			return false, "it is not managed by an installer"
		}
		return p.CanInstall(), "already installed"
	case Uninstall:
		if !installManaged {
			return false, "it is not managed by an installer"
		}
		return p.CanUninstall(), "not installed"
	case Kill:
		return p.CanKill(), "not running"
	case Update:
		if !p.IsInstalled() {
			return false, "not installed"
		}
		return p.CanUpdate(), "updates are not supported"
	case AddToSteam:
		switch {
		case p.CanAddToSteam():
			return true, ""
		case !p.IsInstalled():
			return false, "not installed"
		case snap != nil && snap.HasShortcut(p.Trick().ID):
			return false, "already added to Steam"
		default:
			return false, "it adds itself to Steam"
		}
	default:
		return false, "not an action on a single trick"
	}
}

// Available lists the trick actions whose gate is open for p, in TrickKinds order.
func Available(p providers.Provider, snap *sysctx.Snapshot) []Kind {
	var out []Kind
	for _, k := range TrickKinds {
		if ok, _ := Gate(p, snap, k); ok {
			out = append(out, k)
		}
	}
	return out
}
