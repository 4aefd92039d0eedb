package angle

import (
	"encoding/json"
	"math"
	"strconv"
)

// Angle is a bearing in degrees, stored as a value in range (-180, 180].
// All operations normalize their output into range.
type Angle struct {
	deg float64
}

// New converts a float of any magnitude to an Angle by calculating
// f mod 360 and shifting into range.
func New(f float64) Angle {
	d := math.Mod(f, 360)
	if d <= -180 {
		d += 360
	} else if d > 180 {
		d -= 360
	}
	return Angle{d}
}

// Degrees returns the angle in degrees, range (-180, 180].
func (a Angle) Degrees() float64 {
	return a.deg
}

// Radians returns the angle in radians, range (-π, π].
func (a Angle) Radians() float64 {
	return a.deg * math.Pi / 180
}

// Bearing360 returns the angle as a compass bearing in [0, 360).
func (a Angle) Bearing360() float64 {
	if a.deg < 0 {
		return a.deg + 360
	}
	return a.deg
}

func (a Angle) Add(b Angle) Angle {
	return New(a.deg + b.deg)
}

func (a Angle) Sub(b Angle) Angle {
	return New(a.deg - b.deg)
}

func (a Angle) AddFloat(f float64) Angle {
	return New(a.deg + f)
}

func (a Angle) Mult(f float64) Angle {
	return New(a.deg * f)
}

func (a Angle) Div(f float64) Angle {
	return New(a.deg / f)
}

// DivAngle returns the ratio of the two normalized angles.
func (a Angle) DivAngle(b Angle) float64 {
	return a.deg / b.deg
}

func (a Angle) Negate() Angle {
	return New(-a.deg)
}

func (a Angle) NegateIf(negate bool) Angle {
	if negate {
		return a.Negate()
	}
	return a
}

// Abs returns the magnitude of the angle, in [0, 180].
func (a Angle) Abs() Angle {
	return Angle{math.Abs(a.deg)}
}

// Inverse returns the opposite bearing.
func (a Angle) Inverse() Angle {
	return New(a.deg + 180)
}

// ReflectHorizontal mirrors the bearing across the east-west axis.
func (a Angle) ReflectHorizontal() Angle {
	return New(180 - a.deg)
}

// ReflectVertical mirrors the bearing across the north-south axis.
func (a Angle) ReflectVertical() Angle {
	return New(-a.deg)
}

// AngleDiff returns the signed shortest rotation from a to b, range (-180, 180].
// A positive result is a clockwise rotation.
func (a Angle) AngleDiff(b Angle) Angle {
	return New(b.deg - a.deg)
}

// AbsAngleDiff returns the unsigned shortest rotation between a and b, range [0, 180].
func (a Angle) AbsAngleDiff(b Angle) Angle {
	return a.AngleDiff(b).Abs()
}

func (a Angle) Gt(b Angle) bool {
	return a.deg > b.deg
}

func (a Angle) Gteq(b Angle) bool {
	return a.deg >= b.deg
}

func (a Angle) Lt(b Angle) bool {
	return a.deg < b.deg
}

func (a Angle) Lteq(b Angle) bool {
	return a.deg <= b.deg
}

// Between reports whether a lies on the arc that starts at min and runs
// clockwise to max. The arc may cross the ±180° seam.
func (a Angle) Between(min, max Angle) bool {
	if min.deg <= max.deg {
		return a.deg >= min.deg && a.deg <= max.deg
	}
	return a.deg >= min.deg || a.deg <= max.deg
}

// Clockwise returns the clockwise rotation needed to go from a to b, in [0, 360).
func (a Angle) Clockwise(b Angle) float64 {
	d := b.deg - a.deg
	if d < 0 {
		d += 360
	}
	return d
}

// CircularMean returns the direction of the sum of unit vectors at each angle.
// It returns 0° when the angles cancel out or when none is given.
func CircularMean(angles ...Angle) Angle {
	x, y := 0.0, 0.0
	for _, a := range angles {
		x += math.Sin(a.Radians())
		y += math.Cos(a.Radians())
	}
	if math.Abs(x) < 1e-12 && math.Abs(y) < 1e-12 {
		return Angle{}
	}
	return New(math.Atan2(x, y) * 180 / math.Pi)
}

func (a Angle) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.deg)
}

func (a *Angle) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*a = New(f)
	return nil
}

// UnmarshalYAML reads a bearing in degrees.
func (a *Angle) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var f float64
	if err := unmarshal(&f); err != nil {
		return err
	}
	*a = New(f)
	return nil
}

func (a Angle) String() string {
	return strconv.FormatFloat(a.deg, 'f', 1, 64) + "°"
}
