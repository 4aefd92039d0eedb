package decision

import (
	"fmt"

	"github.com/a-bouts/dinghy-sim/angle"
)

type Action int

const (
	SailOn Action = iota
	Turn
	MarkRounding
	Stop
)

func (a Action) String() string {
	switch a {
	case SailOn:
		return "SAILON"
	case Turn:
		return "TURN"
	case MarkRounding:
		return "MARKROUNDING"
	case Stop:
		return "STOP"
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Action) UnmarshalText(text []byte) error {
	for _, v := range []Action{SailOn, Turn, MarkRounding, Stop} {
		if v.String() == string(text) {
			*a = v
			return nil
		}
	}
	return fmt.Errorf("unknown action '%s'", text)
}

type Importance int

const (
	Major Importance = iota
	Minor
)

func (i Importance) String() string {
	if i == Minor {
		return "MINOR"
	}
	return "MAJOR"
}

func (i Importance) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

func (i *Importance) UnmarshalText(text []byte) error {
	switch string(text) {
	case "MAJOR":
		*i = Major
	case "MINOR":
		*i = Minor
	default:
		return fmt.Errorf("unknown importance '%s'", text)
	}
	return nil
}

// Decision is the maneuver chosen for a boat for one tick.
type Decision struct {
	Action     Action      `json:"action"`
	Target     angle.Angle `json:"target"`
	Side       angle.Side  `json:"side"`
	Importance Importance  `json:"importance"`
	Rationale  string      `json:"rationale"`
	// Final is the heading of the second phase of a split mark rounding.
	Final *angle.Angle `json:"final,omitempty"`
	// Continued is set when the decision carries on an unfinished maneuver.
	Continued bool `json:"continued,omitempty"`
}

func SailingOn(rationale string) Decision {
	return Decision{Action: SailOn, Importance: Minor, Rationale: rationale}
}

func Stopped(rationale string) Decision {
	return Decision{Action: Stop, Importance: Major, Rationale: rationale}
}

func Turning(target angle.Angle, side angle.Side, importance Importance, rationale string) Decision {
	return Decision{Action: Turn, Target: target, Side: side, Importance: importance, Rationale: rationale}
}

func Rounding(target angle.Angle, side angle.Side, rationale string) Decision {
	return Decision{Action: MarkRounding, Target: target, Side: side, Importance: Major, Rationale: rationale}
}

// IsManeuver reports whether the decision rotates the heading.
func (d Decision) IsManeuver() bool {
	return d.Action == Turn || d.Action == MarkRounding
}

// Same reports whether two decisions describe the same maneuver, ignoring the rationale.
func (d Decision) Same(o Decision) bool {
	if d.Action != o.Action {
		return false
	}
	if !d.IsManeuver() {
		return true
	}
	return d.Side == o.Side && d.Target.AbsAngleDiff(o.Target).Degrees() < 1e-9
}

func (d Decision) String() string {
	if d.IsManeuver() {
		return fmt.Sprintf("%s %s to %s (%s): %s", d.Action, d.Side, d.Target, d.Importance, d.Rationale)
	}
	return fmt.Sprintf("%s: %s", d.Action, d.Rationale)
}
