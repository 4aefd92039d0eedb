package angle

import "fmt"

// Side is a board of the boat, also used as a rotation direction:
// Starboard turns clockwise and Port turns counter-clockwise.
type Side int

const (
	Starboard Side = iota
	Port
)

func (s Side) String() string {
	switch s {
	case Starboard:
		return "starboard"
	case Port:
		return "port"
	}
	return fmt.Sprintf("side(%d)", int(s))
}

func (s Side) Opposite() Side {
	if s == Port {
		return Starboard
	}
	return Port
}

// Sign is +1 for Starboard and -1 for Port.
func (s Side) Sign() float64 {
	if s == Port {
		return -1
	}
	return 1
}

// ParseSide accepts "port" or "starboard".
func ParseSide(s string) (Side, error) {
	switch s {
	case "port", "PORT", "Port":
		return Port, nil
	case "starboard", "STARBOARD", "Starboard":
		return Starboard, nil
	}
	return Starboard, fmt.Errorf("unknown side '%s'", s)
}

// Rotate turns a toward target in the direction of side, by at most step degrees.
// It returns the new angle and whether the target was reached.
func Rotate(a, target Angle, side Side, step float64) (Angle, bool) {
	if Rotation(a, target, side) <= step {
		return target, true
	}
	return a.AddFloat(side.Sign() * step), false
}

// Rotation returns the degrees turned going from a to target in the direction of side, in [0, 360).
func Rotation(a, target Angle, side Side) float64 {
	if side == Starboard {
		return a.Clockwise(target)
	}
	return target.Clockwise(a)
}

// ShortestSide returns the side of the shortest rotation from a to b.
// Ties, including a == b, go to Starboard.
func ShortestSide(a, b Angle) Side {
	if a.AngleDiff(b).Lt(Angle{}) {
		return Port
	}
	return Starboard
}

func (s Side) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Side) UnmarshalText(text []byte) error {
	v, err := ParseSide(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

func (s *Side) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var text string
	if err := unmarshal(&text); err != nil {
		return err
	}
	return s.UnmarshalText([]byte(text))
}
