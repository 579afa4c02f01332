// Package actions is the single entry point front-ends use to act on tricks.
package actions

import (
	"fmt"
	"strings"
)

// Kind is an action name as accepted on the command line.
type Kind string

const (
	Run        Kind = "run"
	Install    Kind = "install"
	Uninstall  Kind = "uninstall"
	Kill       Kind = "kill"
	Update     Kind = "update"
	AddToSteam Kind = "add-to-steam"
	Info       Kind = "info"

	List                        Kind = "list"
	UpdateAll                   Kind = "update-all"
	GetActionDisplayNameMapping Kind = "get-action-display-name-mapping"
	GetAvailableActions         Kind = "get-available-actions"
	SeeAllAvailableActions      Kind = "see-all-available-actions"
)

// TrickKinds are the actions performed on a single trick, in menu order.
var TrickKinds = []Kind{Run, Install, Kill, Update, Uninstall, AddToSteam, Info}

// SystemKinds are the actions that do not name a trick.
var SystemKinds = []Kind{List, UpdateAll, GetActionDisplayNameMapping, SeeAllAvailableActions}

var displayNames = map[Kind]string{
	Run:        "Run",
	Install:    "Install",
	Uninstall:  "Uninstall",
	Kill:       "Kill",
	Update:     "Update",
	AddToSteam: "Add to Steam",
	Info:       "Info",

	List:                        "List",
	UpdateAll:                   "Update All",
	GetActionDisplayNameMapping: "Action Names",
	GetAvailableActions:         "Available Actions",
	SeeAllAvailableActions:      "All Available Actions",
}

// DisplayName is the label front-ends show for k.
func (k Kind) DisplayName() string {
	if name, ok := displayNames[k]; ok {
		return name
	}
	return string(k)
}

// TrickScoped reports whether k needs a trick id. GetAvailableActions is
// trick scoped even though it does not act on the trick.
func (k Kind) TrickScoped() bool {
	switch k {
	case Run, Install, Uninstall, Kill, Update, AddToSteam, Info, GetAvailableActions:
		return true
	}
	return false
}

// ParseKind validates a command-line action name.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := displayNames[k]; !ok {
		return "", fmt.Errorf("unknown action %q", s)
	}
	return k, nil
}

// DisplayNameMapping returns the label of every trick action.
func DisplayNameMapping() map[Kind]string {
	out := make(map[Kind]string, len(TrickKinds))
	for _, k := range TrickKinds {
		out[k] = k.DisplayName()
	}
	return out
}

// Request asks for one action.
type Request struct {
	// TrickID is empty for system-wide actions.
	TrickID string
	Kind    Kind
	// InstalledOnly restricts List to installed tricks.
	InstalledOnly bool
}

// Result is the outcome of one action, or of one item of a fan-out.
type Result struct {
	Message string
	Err     error
}

// Ok reports success.
func (r Result) Ok() bool {
	return r.Err == nil
}
