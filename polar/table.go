package polar

import (
	"errors"
	"fmt"
	"math"

	"github.com/a-bouts/dinghy-sim/angle"
)

const (
	// MaxWindSpeed is the wind speed of the extrapolation row.
	MaxWindSpeed = 100.0
)

// ErrOutOfRange is returned for a wind speed outside the table backstops.
var ErrOutOfRange = errors.New("wind speed outside performance table")

// Table maps a wind speed and a relative wind angle to a boat speed, all in knots and degrees.
type Table struct {
	Tws   []float64   `json:"tws"`
	Twa   []float64   `json:"twa"`
	Speed [][]float64 `json:"speed"`
}

// NewTable validates the measured polar and surrounds it with a wind speed 0
// backstop row and a wind speed 100 row copied from the fastest measured row.
// speeds is indexed by angle then by wind speed.
func NewTable(windSpeeds []float64, angles []float64, speeds [][]float64) (*Table, error) {
	if len(windSpeeds) == 0 || len(angles) == 0 {
		return nil, errors.New("performance table is empty")
	}
	if err := increasing("wind speed", windSpeeds); err != nil {
		return nil, err
	}
	if err := increasing("angle", angles); err != nil {
		return nil, err
	}
	if windSpeeds[0] <= 0 || windSpeeds[len(windSpeeds)-1] >= MaxWindSpeed {
		return nil, fmt.Errorf("wind speeds must be within (0, %.0f)", MaxWindSpeed)
	}
	if angles[0] < 0 || angles[len(angles)-1] > 180 {
		return nil, errors.New("angles must be within [0, 180]")
	}
	if len(speeds) != len(angles) {
		return nil, fmt.Errorf("performance table has %d rows for %d angles", len(speeds), len(angles))
	}

	t := &Table{
		Tws:   make([]float64, 0, len(windSpeeds)+2),
		Twa:   make([]float64, len(angles)),
		Speed: make([][]float64, len(angles)),
	}
	t.Tws = append(t.Tws, 0)
	t.Tws = append(t.Tws, windSpeeds...)
	t.Tws = append(t.Tws, MaxWindSpeed)
	copy(t.Twa, angles)

	for i, row := range speeds {
		if len(row) != len(windSpeeds) {
			return nil, fmt.Errorf("performance table row %.0f° has %d speeds for %d wind speeds", angles[i], len(row), len(windSpeeds))
		}
		for _, s := range row {
			if s < 0 || math.IsNaN(s) {
				return nil, fmt.Errorf("performance table row %.0f° has invalid speed %f", angles[i], s)
			}
		}
		r := make([]float64, 0, len(row)+2)
		r = append(r, 0)
		r = append(r, row...)
		r = append(r, row[len(row)-1])
		t.Speed[i] = r
	}

	return t, nil
}

func increasing(name string, values []float64) error {
	for i := 1; i < len(values); i++ {
		if values[i] <= values[i-1] {
			return fmt.Errorf("%s breakpoints not strictly increasing at %f", name, values[i])
		}
	}
	return nil
}

func interpolationIndex(values []float64, value float64) (int, int, float64) {

	i := 0
	for values[i] < value {
		i++
		if i == len(values) {
			return i - 1, 0, 1
		}
	}

	if i > 0 {
		return i - 1, i, (values[i] - value) / (values[i] - values[i-1])
	}

	return 0, 0, 0
}

// PotentialSpeed returns the boat speed for a relative wind angle, either side,
// and a wind speed. Angles beyond the table clamp to the nearest column.
func (t *Table) PotentialSpeed(relative angle.Angle, ws float64) (float64, error) {
	if !(ws >= 0 && ws <= MaxWindSpeed) {
		return 0, fmt.Errorf("%w: %f kt", ErrOutOfRange, ws)
	}

	twa := relative.Abs().Degrees()

	twsIndex0, twsIndex1, twsFactor := interpolationIndex(t.Tws, ws)
	twaIndex0, twaIndex1, twaFactor := interpolationIndex(t.Twa, twa)

	ti0 := t.Speed[twaIndex0]
	ti1 := t.Speed[twaIndex1]
	bs := (ti0[twsIndex0]*twsFactor+ti0[twsIndex1]*(1-twsFactor))*twaFactor + (ti1[twsIndex0]*twsFactor+ti1[twsIndex1]*(1-twsFactor))*(1-twaFactor)

	return bs, nil
}
