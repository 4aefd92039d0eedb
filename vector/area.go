package vector

import "fmt"

// Area is an axis aligned rectangle, Origin being its south west corner.
type Area struct {
	Origin Location `json:"origin" yaml:"origin"`
	Width  float64  `json:"width" yaml:"width"`
	Height float64  `json:"height" yaml:"height"`
}

func NewArea(x, y, width, height float64) Area {
	return Area{Origin: Location{X: x, Y: y}, Width: width, Height: height}
}

func (a Area) Validate() error {
	if a.Width <= 0 || a.Height <= 0 {
		return fmt.Errorf("area %s has no surface", a)
	}
	return nil
}

// Contains reports whether l is inside the area, edges included.
func (a Area) Contains(l Location) bool {
	return l.X >= a.Origin.X && l.X <= a.Origin.X+a.Width &&
		l.Y >= a.Origin.Y && l.Y <= a.Origin.Y+a.Height
}

// ContainsArea reports whether b lies entirely inside a.
func (a Area) ContainsArea(b Area) bool {
	return a.Contains(b.Origin) && a.Contains(Location{X: b.Origin.X + b.Width, Y: b.Origin.Y + b.Height})
}

// Fraction returns the position of l inside the area, both in [0, 1] for inside points.
func (a Area) Fraction(l Location) (float64, float64) {
	return (l.X - a.Origin.X) / a.Width, (l.Y - a.Origin.Y) / a.Height
}

func (a Area) Centroid() Location {
	return Location{X: a.Origin.X + a.Width/2, Y: a.Origin.Y + a.Height/2}
}

// Corners returns the south west, south east, north west and north east corners.
func (a Area) Corners() (Location, Location, Location, Location) {
	sw := a.Origin
	se := Location{X: a.Origin.X + a.Width, Y: a.Origin.Y}
	nw := Location{X: a.Origin.X, Y: a.Origin.Y + a.Height}
	ne := Location{X: a.Origin.X + a.Width, Y: a.Origin.Y + a.Height}
	return sw, se, nw, ne
}

func (a Area) String() string {
	return fmt.Sprintf("(%.1f,%.1f %.1fx%.1f)", a.Origin.X, a.Origin.Y, a.Width, a.Height)
}
