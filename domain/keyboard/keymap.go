package keyboard

import (
	"fmt"
	"sort"
	"strings"
)

// Action is what a key asks the dispatcher to do
type Action string

const (
	ActionForward        Action = "forward"
	ActionBackward       Action = "backward"
	ActionStrafeLeft     Action = "strafe_left"
	ActionStrafeRight    Action = "strafe_right"
	ActionRotateLeft     Action = "rotate_left"
	ActionRotateRight    Action = "rotate_right"
	ActionAscend         Action = "ascend"
	ActionDescend        Action = "descend"
	ActionStop           Action = "stop"
	ActionCustomPower    Action = "custom_power"
	ActionCustomRotation Action = "custom_rotation"
	ActionExit           Action = "exit"
)

var actionHelp = map[Action]string{
	ActionForward:        "forwards",
	ActionBackward:       "backwards",
	ActionStrafeLeft:     "left",
	ActionStrafeRight:    "right",
	ActionRotateLeft:     "counter-clockwise",
	ActionRotateRight:    "clockwise",
	ActionAscend:         "up",
	ActionDescend:        "down",
	ActionStop:           "stop",
	ActionCustomPower:    "custom power",
	ActionCustomRotation: "custom rotation",
	ActionExit:           "exit",
}

// helpOrder is the order keys are listed in the help text
var helpOrder = []Action{
	ActionForward, ActionRotateLeft, ActionBackward, ActionRotateRight,
	ActionStrafeLeft, ActionStrafeRight, ActionAscend, ActionDescend,
	ActionStop, ActionCustomPower, ActionCustomRotation, ActionExit,
}

// KeyMap binds keys to actions. Digits are handled separately as magnitudes
// unless a binding claims them.
type KeyMap map[rune]Action

// DefaultKeyMap returns the standard WASD layout
func DefaultKeyMap() KeyMap {
	return KeyMap{
		'w': ActionForward,
		'a': ActionRotateLeft,
		's': ActionBackward,
		'd': ActionRotateRight,
		'q': ActionStrafeLeft,
		'e': ActionStrafeRight,
		'r': ActionAscend,
		'f': ActionDescend,
		'`': ActionStop,
		'c': ActionCustomPower,
		'v': ActionCustomRotation,
		'x': ActionExit,
	}
}

// ParseAction validates an action name
func ParseAction(name string) (Action, error) {
	a := Action(name)
	if _, ok := actionHelp[a]; !ok {
		return "", fmt.Errorf("unknown key action %q", name)
	}
	return a, nil
}

// WithBindings returns a copy of m with overrides applied on top
func (m KeyMap) WithBindings(overrides map[rune]string) (KeyMap, error) {
	result := make(KeyMap, len(m)+len(overrides))
	for k, a := range m {
		result[k] = a
	}
	for k, name := range overrides {
		a, err := ParseAction(name)
		if err != nil {
			return nil, fmt.Errorf("binding for key %q: %w", k, err)
		}
		result[k] = a
	}
	return result, nil
}

// Help renders the key reference shown when a session starts
func (m KeyMap) Help() string {
	byAction := make(map[Action][]string)
	for k, a := range m {
		byAction[a] = append(byAction[a], string(k))
	}

	var b strings.Builder
	for _, a := range helpOrder {
		keys := byAction[a]
		if len(keys) == 0 {
			continue
		}
		sort.Strings(keys)
		fmt.Fprintf(&b, "%s: %s\n", strings.Join(keys, ","), actionHelp[a])
		if a == ActionDescend {
			b.WriteString("[0-9]: power [1]: 10% [0]: 100%\n")
		}
	}
	return b.String()
}
