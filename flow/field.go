package flow

import (
	"errors"
	"fmt"
	"sort"

	"github.com/a-bouts/dinghy-sim/angle"
	"github.com/a-bouts/dinghy-sim/vector"
)

var (
	// ErrNoFlow is returned for a location covered by no component.
	ErrNoFlow = errors.New("no flow component covers location")
	// ErrNoCoverage is returned when no component covers the whole display area.
	ErrNoCoverage = errors.New("no flow component covers the display area")
)

// Field composes flow components and a time based shift.
type Field struct {
	display    vector.Area
	shift      Shift
	components []Component
	mean       angle.Angle
}

// NewField validates the components. One of them must cover the whole display
// area so that every point a boat can reach has a defined flow.
func NewField(display vector.Area, shift Shift, components ...Component) (*Field, error) {
	if err := display.Validate(); err != nil {
		return nil, fmt.Errorf("display: %w", err)
	}
	if err := shift.Validate(); err != nil {
		return nil, err
	}

	covered := false
	var dirs []angle.Angle
	for _, c := range components {
		if err := c.Validate(); err != nil {
			return nil, err
		}
		if c.Describe().Area.ContainsArea(display) {
			covered = true
		}
		if a, ok := plainAngle(c); ok {
			dirs = append(dirs, a)
		}
	}
	if !covered {
		return nil, fmt.Errorf("%w %s", ErrNoCoverage, display)
	}

	sorted := make([]Component, len(components))
	copy(sorted, components)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Describe().Level < sorted[j].Describe().Level
	})

	return &Field{
		display:    display,
		shift:      shift,
		components: sorted,
		mean:       angle.CircularMean(dirs...),
	}, nil
}

// FlowAt sums, level by level, the components covering l and applies the shift.
func (f *Field) FlowAt(l vector.Location, seconds float64) (vector.SpeedVector, error) {
	var x, y float64
	found := false

	for _, c := range f.components {
		if !c.Describe().Area.Contains(l) {
			continue
		}
		cx, cy := c.FlowAt(l).Components()
		x += cx
		y += cy
		found = true
	}

	if !found {
		return vector.SpeedVector{}, fmt.Errorf("%w (%.1f,%.1f)", ErrNoFlow, l.X, l.Y)
	}

	v := vector.SpeedFromComponents(x, y)
	v.Angle = v.Angle.AddFloat(f.shift.Delta(seconds))

	return v, nil
}

// MeanFlowAngle is the circular mean of the components' plain directions.
// The shift is left out so that it can be used as the forecast direction.
func (f *Field) MeanFlowAngle() angle.Angle {
	return f.mean
}

func (f *Field) Display() vector.Area {
	return f.display
}

func (f *Field) Shift() Shift {
	return f.shift
}

func (f *Field) Components() []Component {
	res := make([]Component, len(f.components))
	copy(res, f.components)
	return res
}
