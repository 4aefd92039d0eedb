package vector

import (
	"math"

	"github.com/a-bouts/dinghy-sim/angle"
)

// KnotsToMetresPerSecond converts a speed in knots to m/s.
const KnotsToMetresPerSecond = 1852.0 / 3600.0

// SpeedVector is a velocity: a speed in knots and the bearing it is measured along.
// Flow vectors use the bearing the flow comes from.
type SpeedVector struct {
	Speed float64     `json:"speed"`
	Angle angle.Angle `json:"angle"`
}

// DistanceVector is a displacement: a distance in metres and a bearing.
type DistanceVector struct {
	Distance float64     `json:"distance"`
	Angle    angle.Angle `json:"angle"`
}

// NewSpeed keeps the magnitude non negative by turning a negative speed into the opposite bearing.
func NewSpeed(speed float64, a angle.Angle) SpeedVector {
	m, b := positive(speed, a)
	return SpeedVector{Speed: m, Angle: b}
}

func NewDistance(distance float64, a angle.Angle) DistanceVector {
	m, b := positive(distance, a)
	return DistanceVector{Distance: m, Angle: b}
}

// SpeedFromComponents builds a speed vector from its east (x) and north (y) components.
func SpeedFromComponents(x, y float64) SpeedVector {
	m, b := fromComponents(x, y)
	return SpeedVector{Speed: m, Angle: b}
}

func DistanceFromComponents(x, y float64) DistanceVector {
	m, b := fromComponents(x, y)
	return DistanceVector{Distance: m, Angle: b}
}

func (v SpeedVector) Components() (float64, float64) {
	return components(v.Speed, v.Angle)
}

func (v SpeedVector) Add(w SpeedVector) SpeedVector {
	x1, y1 := v.Components()
	x2, y2 := w.Components()
	return SpeedFromComponents(x1+x2, y1+y2)
}

func (v SpeedVector) Sub(w SpeedVector) SpeedVector {
	x1, y1 := v.Components()
	x2, y2 := w.Components()
	return SpeedFromComponents(x1-x2, y1-y2)
}

func (v SpeedVector) Mult(f float64) SpeedVector {
	return NewSpeed(v.Speed*f, v.Angle)
}

// Over returns the displacement covered at this velocity during the given seconds.
func (v SpeedVector) Over(seconds float64) DistanceVector {
	return NewDistance(v.Speed*KnotsToMetresPerSecond*seconds, v.Angle)
}

func (v DistanceVector) Components() (float64, float64) {
	return components(v.Distance, v.Angle)
}

func (v DistanceVector) Add(w DistanceVector) DistanceVector {
	x1, y1 := v.Components()
	x2, y2 := w.Components()
	return DistanceFromComponents(x1+x2, y1+y2)
}

func (v DistanceVector) Sub(w DistanceVector) DistanceVector {
	x1, y1 := v.Components()
	x2, y2 := w.Components()
	return DistanceFromComponents(x1-x2, y1-y2)
}

func (v DistanceVector) Mult(f float64) DistanceVector {
	return NewDistance(v.Distance*f, v.Angle)
}

// ToLocation moves origin by the displacement.
func (v DistanceVector) ToLocation(origin Location) Location {
	x, y := v.Components()
	return Location{X: origin.X + x, Y: origin.Y + y}
}

func positive(m float64, a angle.Angle) (float64, angle.Angle) {
	if m < 0 {
		return -m, a.Inverse()
	}
	return m, a
}

func components(m float64, a angle.Angle) (float64, float64) {
	r := a.Radians()
	return m * math.Sin(r), m * math.Cos(r)
}

// A zero result points to 0°.
func fromComponents(x, y float64) (float64, angle.Angle) {
	d := math.Sqrt(x*x + y*y)
	if d == 0 {
		return 0, angle.New(0)
	}
	return d, angle.New(toDegrees(math.Atan2(x, y)))
}
