package vector

import (
	"math"

	"github.com/a-bouts/dinghy-sim/angle"
)

// Location is a Cartesian position in metres, x towards east and y towards north.
type Location struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

func (l Location) DistanceTo(to Location) float64 {
	x := to.X - l.X
	y := to.Y - l.Y

	return math.Sqrt(x*x + y*y)
}

// BearingTo returns the bearing from l to the given location.
// The bearing between two identical locations is 0°.
func (l Location) BearingTo(to Location) angle.Angle {
	_, b := l.DistanceAndBearingTo(to)
	return b
}

func (l Location) DistanceAndBearingTo(to Location) (float64, angle.Angle) {
	x := to.X - l.X
	y := to.Y - l.Y

	d := math.Sqrt(x*x + y*y)
	if d == 0 {
		return 0, angle.New(0)
	}

	return d, angle.New(toDegrees(math.Atan2(x, y)))
}

// Between returns the displacement from one location to another.
func Between(from, to Location) DistanceVector {
	d, b := from.DistanceAndBearingTo(to)
	return DistanceVector{Distance: d, Angle: b}
}

func toDegrees(a float64) float64 {
	return a * 180.0 / math.Pi
}
