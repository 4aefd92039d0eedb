package race

import (
	"errors"
	"fmt"
	"math"

	"github.com/a-bouts/dinghy-sim/angle"
	"github.com/a-bouts/dinghy-sim/vector"
)

type LegType int

const (
	Windward LegType = iota
	Offwind
	GybingDownwind
)

func (t LegType) String() string {
	switch t {
	case Windward:
		return "WINDWARD"
	case Offwind:
		return "OFFWIND"
	case GybingDownwind:
		return "GYBING_DOWNWIND"
	}
	return fmt.Sprintf("LegType(%d)", int(t))
}

func (t LegType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

type Mark struct {
	Name     string          `json:"name" yaml:"name"`
	Location vector.Location `json:"location" yaml:"location"`
}

// Leg runs from the previous mark, or the start, to a mark rounded on the given side.
type Leg struct {
	Index    int             `json:"index"`
	Mark     string          `json:"mark"`
	Start    vector.Location `json:"start"`
	End      vector.Location `json:"end"`
	Rounding angle.Side      `json:"rounding"`
}

// Bearing of a zero length leg is 0°.
func (l Leg) Bearing() angle.Angle {
	return l.Start.BearingTo(l.End)
}

func (l Leg) Length() float64 {
	return l.Start.DistanceTo(l.End)
}

// Type classifies the leg against the wind direction and the boat's sailing angles.
func (l Leg) Type(wind angle.Angle, upwind, downwind float64) LegType {
	delta := l.Bearing().AbsAngleDiff(wind).Degrees()
	if delta <= upwind {
		return Windward
	}
	if delta >= downwind {
		return GybingDownwind
	}
	return Offwind
}

func (l Leg) DistanceToMark(from vector.Location) float64 {
	return from.DistanceTo(l.End)
}

func (l Leg) BearingToMark(from vector.Location) angle.Angle {
	return from.BearingTo(l.End)
}

// CrossTrack returns the lateral distance from the leg's direct line,
// positive to the right of the line when looking toward the mark.
func (l Leg) CrossTrack(loc vector.Location) float64 {
	d, b := l.Start.DistanceAndBearingTo(loc)
	return d * math.Sin(l.Bearing().AngleDiff(b).Radians())
}

// Course is the ordered set of legs of a race. Boats refer to their current leg by index.
type Course struct {
	start vector.Location
	marks []Mark
	legs  []Leg
}

var ErrNoMarks = errors.New("course has no marks")

func NewCourse(start vector.Location, marks []Mark, sides []angle.Side) (*Course, error) {
	if len(marks) == 0 {
		return nil, ErrNoMarks
	}
	if len(sides) != len(marks) {
		return nil, fmt.Errorf("course has %d marks but %d rounding sides", len(marks), len(sides))
	}

	c := &Course{
		start: start,
		marks: make([]Mark, len(marks)),
		legs:  make([]Leg, len(marks)),
	}
	copy(c.marks, marks)

	from := start
	for i, m := range marks {
		c.legs[i] = Leg{
			Index:    i,
			Mark:     m.Name,
			Start:    from,
			End:      m.Location,
			Rounding: sides[i],
		}
		from = m.Location
	}
	return c, nil
}

func (c *Course) Start() vector.Location {
	return c.start
}

func (c *Course) Len() int {
	return len(c.legs)
}

func (c *Course) Leg(i int) (Leg, bool) {
	if i < 0 || i >= len(c.legs) {
		return Leg{}, false
	}
	return c.legs[i], true
}

func (c *Course) Next(i int) (Leg, bool) {
	return c.Leg(i + 1)
}

// IsLast reports whether i is the final leg.
func (c *Course) IsLast(i int) bool {
	return i == len(c.legs)-1
}

func (c *Course) Legs() []Leg {
	legs := make([]Leg, len(c.legs))
	copy(legs, c.legs)
	return legs
}

func (c *Course) Marks() []Mark {
	marks := make([]Mark, len(c.marks))
	copy(marks, c.marks)
	return marks
}

// MoveMark relocates a mark and the two legs that share it.
func (c *Course) MoveMark(i int, loc vector.Location) error {
	if i < 0 || i >= len(c.marks) {
		return fmt.Errorf("no mark %d", i)
	}
	c.marks[i].Location = loc
	c.legs[i].End = loc
	if i+1 < len(c.legs) {
		c.legs[i+1].Start = loc
	}
	return nil
}
