package domain

import "strings"

// ActionKind identifies an interaction for dispatch and cooldown bookkeeping
type ActionKind string

const (
	ActionFeed  ActionKind = "feed"
	ActionPlay  ActionKind = "play"
	ActionClean ActionKind = "clean"
	ActionColor ActionKind = "color"
)

// colorPrefix introduces a cosmetic action on the wire, e.g. "color:pink"
const colorPrefix = "color:"

// IsCare reports whether the kind changes stats
func (k ActionKind) IsCare() bool {
	return k == ActionFeed || k == ActionPlay || k == ActionClean
}

// Action is a parsed interaction. Color is only set for ActionColor.
type Action struct {
	Kind  ActionKind
	Color Color
}

// String renders the action in its wire form
func (a Action) String() string {
	if a.Kind == ActionColor {
		return colorPrefix + string(a.Color)
	}
	return string(a.Kind)
}

// ParseAction turns a wire action string into a tagged Action.
// Rejections are *ValidationError values.
func ParseAction(raw string) (Action, error) {
	raw = strings.TrimSpace(raw)

	switch ActionKind(strings.ToLower(raw)) {
	case ActionFeed:
		return Action{Kind: ActionFeed}, nil
	case ActionPlay:
		return Action{Kind: ActionPlay}, nil
	case ActionClean:
		return Action{Kind: ActionClean}, nil
	}

	if len(raw) >= len(colorPrefix) && strings.EqualFold(raw[:len(colorPrefix)], colorPrefix) {
		c := Color(strings.ToLower(strings.TrimSpace(raw[len(colorPrefix):])))
		if !c.IsValid() {
			return Action{}, NewValidationError(ReasonInvalidColor, "invalid color: "+string(c))
		}
		return Action{Kind: ActionColor, Color: c}, nil
	}

	return Action{}, NewValidationError(ReasonUnknownAction, "unknown action: "+raw)
}
