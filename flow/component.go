package flow

import (
	"fmt"

	"github.com/a-bouts/dinghy-sim/angle"
	"github.com/a-bouts/dinghy-sim/vector"
)

type Kind string

const (
	KindConstant Kind = "constant"
	KindGradient Kind = "gradient"
	KindComplex  Kind = "complex"
	KindGrid     Kind = "grid"
)

// Component is a named sub field, defined only inside its area.
type Component interface {
	Describe() Scope
	Kind() Kind
	// FlowAt evaluates the component at a location inside its area.
	FlowAt(l vector.Location) vector.SpeedVector
	// Vectors returns the configured vectors, used for the mean flow.
	Vectors() []vector.SpeedVector
	Validate() error
}

// Scope holds what every component has: a name, the area it covers and its z-level.
type Scope struct {
	Name  string      `json:"name"`
	Area  vector.Area `json:"area"`
	Level int         `json:"level"`
}

func (s Scope) Describe() Scope {
	return s
}

func (s Scope) validate() error {
	if err := s.Area.Validate(); err != nil {
		return fmt.Errorf("component '%s': %w", s.Name, err)
	}
	return nil
}

func validateVectors(s Scope, vs ...vector.SpeedVector) error {
	for _, v := range vs {
		if v.Speed < 0 {
			return fmt.Errorf("component '%s': negative speed %f", s.Name, v.Speed)
		}
	}
	return nil
}

// Constant returns the same flow everywhere in its area.
type Constant struct {
	Scope
	Flow vector.SpeedVector `json:"flow"`
}

func (c Constant) Kind() Kind {
	return KindConstant
}

func (c Constant) FlowAt(_ vector.Location) vector.SpeedVector {
	return c.Flow
}

func (c Constant) Vectors() []vector.SpeedVector {
	return []vector.SpeedVector{c.Flow}
}

func (c Constant) Validate() error {
	if err := c.Scope.validate(); err != nil {
		return err
	}
	return validateVectors(c.Scope, c.Flow)
}

type Axis int

const (
	// AxisAuto interpolates along the longer side of the area.
	AxisAuto Axis = iota
	AxisX
	AxisY
)

// Gradient interpolates linearly from the west (or south) edge to the east (or north) edge.
type Gradient struct {
	Scope
	From vector.SpeedVector `json:"from"`
	To   vector.SpeedVector `json:"to"`
	Axis Axis               `json:"axis"`
}

func (g Gradient) Kind() Kind {
	return KindGradient
}

func (g Gradient) axis() Axis {
	if g.Axis != AxisAuto {
		return g.Axis
	}
	if g.Area.Height > g.Area.Width {
		return AxisY
	}
	return AxisX
}

func (g Gradient) FlowAt(l vector.Location) vector.SpeedVector {
	fx, fy := g.Area.Fraction(l)
	t := fx
	if g.axis() == AxisY {
		t = fy
	}
	t = clamp(t)

	speed := g.From.Speed + t*(g.To.Speed-g.From.Speed)
	a := g.From.Angle.Add(g.From.Angle.AngleDiff(g.To.Angle).Mult(t))

	return vector.NewSpeed(speed, a)
}

func (g Gradient) Vectors() []vector.SpeedVector {
	return []vector.SpeedVector{g.From, g.To}
}

func (g Gradient) Validate() error {
	if err := g.Scope.validate(); err != nil {
		return err
	}
	return validateVectors(g.Scope, g.From, g.To)
}

// Complex interpolates bilinearly between the four corner flows.
type Complex struct {
	Scope
	SW vector.SpeedVector `json:"sw"`
	SE vector.SpeedVector `json:"se"`
	NW vector.SpeedVector `json:"nw"`
	NE vector.SpeedVector `json:"ne"`
}

func (c Complex) Kind() Kind {
	return KindComplex
}

func (c Complex) FlowAt(l vector.Location) vector.SpeedVector {
	fx, fy := c.Area.Fraction(l)

	g00 := components(c.SW)
	g10 := components(c.SE)
	g01 := components(c.NW)
	g11 := components(c.NE)

	u, v := bilinearInterpolate(clamp(fx), clamp(fy), g00, g10, g01, g11)

	return vector.SpeedFromComponents(u, v)
}

func (c Complex) Vectors() []vector.SpeedVector {
	return []vector.SpeedVector{c.SW, c.SE, c.NW, c.NE}
}

func (c Complex) Validate() error {
	if err := c.Scope.validate(); err != nil {
		return err
	}
	return validateVectors(c.Scope, c.SW, c.SE, c.NW, c.NE)
}

func components(v vector.SpeedVector) []float64 {
	x, y := v.Components()
	return []float64{x, y}
}

func bilinearInterpolate(x float64, y float64, g00 []float64, g10 []float64, g01 []float64, g11 []float64) (float64, float64) {

	rx := (1 - x)
	ry := (1 - y)

	a := rx * ry
	b := x * ry
	c := rx * y
	d := x * y

	u := g00[0]*a + g10[0]*b + g01[0]*c + g11[0]*d
	v := g00[1]*a + g10[1]*b + g01[1]*c + g11[1]*d

	return u, v
}

func clamp(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// plainAngle is the direction of a component ignoring any shift.
// Components without flow have no direction.
func plainAngle(c Component) (angle.Angle, bool) {
	var dirs []angle.Angle
	for _, v := range c.Vectors() {
		if v.Speed > 0 {
			dirs = append(dirs, v.Angle)
		}
	}
	if len(dirs) == 0 {
		return angle.Angle{}, false
	}
	return angle.CircularMean(dirs...), true
}

// Grid generalizes Complex to a regular grid of flows stretched over its
// area. Row 0 is the northern edge and column 0 the western edge.
type Grid struct {
	Scope
	Rows [][]vector.SpeedVector `json:"rows"`
}

func (g Grid) Kind() Kind {
	return KindGrid
}

func (g Grid) FlowAt(l vector.Location) vector.SpeedVector {
	fx, fy := g.Area.Fraction(l)
	nLat := len(g.Rows)
	nLon := len(g.Rows[0])

	i := clamp(fx) * float64(nLon-1)
	j := (1 - clamp(fy)) * float64(nLat-1)

	fi := int(i)
	fj := int(j)
	if fi > nLon-2 {
		fi = nLon - 2
	}
	if fj > nLat-2 {
		fj = nLat - 2
	}

	u, v := bilinearInterpolate(i-float64(fi), j-float64(fj),
		components(g.Rows[fj][fi]), components(g.Rows[fj][fi+1]),
		components(g.Rows[fj+1][fi]), components(g.Rows[fj+1][fi+1]))

	return vector.SpeedFromComponents(u, v)
}

func (g Grid) Vectors() []vector.SpeedVector {
	var res []vector.SpeedVector
	for _, row := range g.Rows {
		res = append(res, row...)
	}
	return res
}

func (g Grid) Validate() error {
	if err := g.Scope.validate(); err != nil {
		return err
	}
	if len(g.Rows) < 2 || len(g.Rows[0]) < 2 {
		return fmt.Errorf("component '%s': grid needs at least 2x2 flows", g.Name)
	}
	for _, row := range g.Rows {
		if len(row) != len(g.Rows[0]) {
			return fmt.Errorf("component '%s': grid rows differ in length", g.Name)
		}
		if err := validateVectors(g.Scope, row...); err != nil {
			return err
		}
	}
	return nil
}
