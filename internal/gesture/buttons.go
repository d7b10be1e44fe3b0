package gesture

import (
	"fmt"
	"sort"

	"github.com/banshee-data/wallinput/internal/omicron"
)

// Action is the logical meaning of a wand button.
type Action int

const (
	ActionNone Action = iota
	ActionClickDrag
	ActionMenu
	ActionShowHide
	ActionScaleUp
	ActionScaleDown
	ActionMaximize
	ActionPrevious
	ActionNext
	ActionPlay
	ActionMovePointerHold
	ActionToggleMode
)

var actionNames = map[Action]string{
	ActionNone:            "none",
	ActionClickDrag:       "clickDrag",
	ActionMenu:            "menu",
	ActionShowHide:        "showHide",
	ActionScaleUp:         "scaleUp",
	ActionScaleDown:       "scaleDown",
	ActionMaximize:        "maximize",
	ActionPrevious:        "previous",
	ActionNext:            "next",
	ActionPlay:            "play",
	ActionMovePointerHold: "movePointerHold",
	ActionToggleMode:      "toggleMode",
}

func (a Action) String() string {
	if n, ok := actionNames[a]; ok {
		return n
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// ParseAction resolves an action by its configuration name.
func ParseAction(name string) (Action, bool) {
	for a, n := range actionNames {
		if n == name {
			return a, true
		}
	}
	return ActionNone, false
}

// ButtonMap assigns an action to each wand button flag.
type ButtonMap map[omicron.Flag]Action

// DefaultButtonMap is the stock layout for the navigation controller.
func DefaultButtonMap() ButtonMap {
	return ButtonMap{
		omicron.FlagButton1:        ActionShowHide,
		omicron.FlagButton2:        ActionMenu,
		omicron.FlagButton3:        ActionClickDrag,
		omicron.FlagSpecialButton1: ActionPlay,
		omicron.FlagButton4:        ActionMaximize,
		omicron.FlagButton5:        ActionMovePointerHold,
		omicron.FlagButton7:        ActionToggleMode,
		omicron.FlagButtonUp:       ActionScaleUp,
		omicron.FlagButtonDown:     ActionScaleDown,
		omicron.FlagButtonLeft:     ActionPrevious,
		omicron.FlagButtonRight:    ActionNext,
	}
}

// Remap returns a copy of m with each named action moved to the named flag.
// The flag previously holding the action loses it. Two actions may not be
// remapped onto the same flag.
func (m ButtonMap) Remap(actionToFlag map[string]string) (ButtonMap, error) {
	out := make(ButtonMap, len(m))
	for f, a := range m {
		out[f] = a
	}
	names := make([]string, 0, len(actionToFlag))
	for name := range actionToFlag {
		names = append(names, name)
	}
	sort.Strings(names)

	claimed := make(map[omicron.Flag]string, len(names))
	for _, actionName := range names {
		flagName := actionToFlag[actionName]
		a, ok := ParseAction(actionName)
		if !ok {
			return nil, fmt.Errorf("unknown wand action %q", actionName)
		}
		f, ok := omicron.ParseFlag(flagName)
		if !ok {
			return nil, fmt.Errorf("unknown wand button %q for action %q", flagName, actionName)
		}
		if other, dup := claimed[f]; dup {
			return nil, fmt.Errorf("wand actions %q and %q both mapped to %s", other, actionName, flagName)
		}
		claimed[f] = actionName
		for old, oa := range out {
			if oa == a {
				delete(out, old)
			}
		}
		out[f] = a
	}
	return out, nil
}

// Flag returns the button bound to a, if any.
func (m ButtonMap) Flag(a Action) (omicron.Flag, bool) {
	for f, fa := range m {
		if fa == a {
			return f, true
		}
	}
	return 0, false
}

// ordered lists the bindings in ascending bit order so edges are processed
// deterministically.
func (m ButtonMap) ordered() []omicron.Flag {
	flags := make([]omicron.Flag, 0, len(m))
	for f := range m {
		flags = append(flags, f)
	}
	sort.Slice(flags, func(i, j int) bool { return flags[i] < flags[j] })
	return flags
}
