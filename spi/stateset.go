package spi

import (
	"context"
	"strconv"
)

// State is a single boolean property of an element.
type State int32

const (
	StateInvalid State = iota
	StateActive
	StateArmed
	StateBusy
	StateChecked
	StateCollapsed
	StateEditable
	StateExpandable
	StateExpanded
	StateFocusable
	StateFocused
	StateHorizontal
	StateIconified
	StateModal
	StateMultiLine
	StateMultiselectable
	StateOpaque
	StatePressed
	StateResizable
	StateSelectable
	StateSelected
	StateSensitive
	StateShowing
	StateSingleLine
	StateTransient
	StateVertical
	StateVisible
	StateLastDefined
)

var stateNames = [...]string{
	StateInvalid:         "invalid",
	StateActive:          "active",
	StateArmed:           "armed",
	StateBusy:            "busy",
	StateChecked:         "checked",
	StateCollapsed:       "collapsed",
	StateEditable:        "editable",
	StateExpandable:      "expandable",
	StateExpanded:        "expanded",
	StateFocusable:       "focusable",
	StateFocused:         "focused",
	StateHorizontal:      "horizontal",
	StateIconified:       "iconified",
	StateModal:           "modal",
	StateMultiLine:       "multi line",
	StateMultiselectable: "multiselectable",
	StateOpaque:          "opaque",
	StatePressed:         "pressed",
	StateResizable:       "resizable",
	StateSelectable:      "selectable",
	StateSelected:        "selected",
	StateSensitive:       "sensitive",
	StateShowing:         "showing",
	StateSingleLine:      "single line",
	StateTransient:       "transient",
	StateVertical:        "vertical",
	StateVisible:         "visible",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "state(" + strconv.Itoa(int(s)) + ")"
}

// ParseState maps a state name back to its value.
func ParseState(name string) (State, bool) {
	for i, n := range stateNames {
		if n == name {
			return State(i), true
		}
	}
	return StateInvalid, false
}

// StateSet is a remote set of states. Sets returned by Accessible.StateSet
// are snapshots; Add and Remove change only the set itself.
type StateSet struct {
	*Object
}

func asStateSet(o *Object) *StateSet {
	if o == nil {
		return nil
	}
	return &StateSet{o}
}

// Handle returns the underlying handle, nil for a nil StateSet.
func (s *StateSet) Handle() *Object {
	if s == nil {
		return nil
	}
	return s.Object
}

func (s *StateSet) Contains(ctx context.Context, state State) bool {
	return s.Handle().getBool(ctx, "contains", state)
}

func (s *StateSet) Add(ctx context.Context, state State) {
	s.Handle().call(ctx, "add", SeverityError, "add", []interface{}{state})
}

func (s *StateSet) Remove(ctx context.Context, state State) {
	s.Handle().call(ctx, "remove", SeverityError, "remove", []interface{}{state})
}

// Equals reports whether both sets hold the same states.
func (s *StateSet) Equals(ctx context.Context, other *StateSet) bool {
	return s.Handle().getBool(ctx, "equals", other.Handle().Reference())
}

// Compare returns a new set holding the states present in exactly one of
// s and other.
func (s *StateSet) Compare(ctx context.Context, other *StateSet) *StateSet {
	return asStateSet(s.Handle().getObject(ctx, "compare", other.Handle().Reference()))
}

func (s *StateSet) IsEmpty(ctx context.Context) bool {
	return s.Handle().getBool(ctx, "isEmpty")
}

// States lists the members in ascending order.
func (s *StateSet) States(ctx context.Context) []State {
	var states []State
	if !s.Handle().call(ctx, "getStates", SeverityError, "getStates", nil, &states) {
		return nil
	}
	return states
}
