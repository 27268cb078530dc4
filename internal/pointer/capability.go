package pointer

import (
	"fmt"
	"strings"
)

// Capability is the cursor control level chosen by the user. Every level
// above Disabled moves the cursor; clicking and scrolling are exclusive.
type Capability int

const (
	Disabled Capability = iota
	MoveOnly
	MoveClick
	MoveScroll
)

func (c Capability) String() string {
	switch c {
	case Disabled:
		return "disabled"
	case MoveOnly:
		return "move"
	case MoveClick:
		return "move_click"
	case MoveScroll:
		return "move_scroll"
	default:
		return "unknown"
	}
}

// ParseCapability converts a name produced by String back to a Capability.
func ParseCapability(s string) (Capability, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "disabled", "off":
		return Disabled, nil
	case "move":
		return MoveOnly, nil
	case "move_click", "click":
		return MoveClick, nil
	case "move_scroll", "scroll":
		return MoveScroll, nil
	default:
		return Disabled, fmt.Errorf("unknown cursor capability %q", s)
	}
}

// CanMove reports whether cursor moves are emitted.
func (c Capability) CanMove() bool { return c >= MoveOnly }

// CanClick reports whether button presses are emitted.
func (c Capability) CanClick() bool { return c == MoveClick }

// CanScroll reports whether the scroll strip is active.
func (c Capability) CanScroll() bool { return c == MoveScroll }

// Next cycles to the following level, wrapping to Disabled.
func (c Capability) Next() Capability {
	if c >= MoveScroll {
		return Disabled
	}
	return c + 1
}
