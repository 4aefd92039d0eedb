package polar

import (
	"errors"
	"math"
	"testing"

	"github.com/a-bouts/dinghy-sim/angle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterpolationIndex(t *testing.T) {
	values := []float64{0, 4, 8}

	i0, i1, f := interpolationIndex(values, 1)
	if i0 != 0 || i1 != 1 || f != 0.75 {
		t.Errorf("interpolationIndex(1) = %d, %d, %f; want 0, 1, 0.75", i0, i1, f)
	}

	i0, i1, f = interpolationIndex(values, 8)
	if i0 != 1 || i1 != 2 || f != 0 {
		t.Errorf("interpolationIndex(8) = %d, %d, %f; want 1, 2, 0", i0, i1, f)
	}

	i0, _, f = interpolationIndex(values, 9)
	if i0 != 2 || f != 1 {
		t.Errorf("interpolationIndex(9) = %d, _, %f; want 2, _, 1", i0, f)
	}

	i0, i1, f = interpolationIndex(values, -1)
	if i0 != 0 || i1 != 0 || f != 0 {
		t.Errorf("interpolationIndex(-1) = %d, %d, %f; want 0, 0, 0", i0, i1, f)
	}
}

func dinghy(t *testing.T) *Metrics {
	m, err := Load("testdata/dinghy.json")
	require.NoError(t, err)
	return m
}

func TestLoad(t *testing.T) {
	m := dinghy(t)
	assert.Equal(t, "dinghy", m.Name)
	assert.Equal(t, 0.3, m.Inertia)
	assert.Equal(t, 20.0, m.MaxTurnRate)
	assert.Equal(t, []float64{0, 6, 12, 20, 100}, m.Table.Tws)
	assert.Equal(t, []float64{0, 3.5, 4.6, 5.2, 5.2}, m.Table.Speed[3])
}

func TestPotentialSpeed(t *testing.T) {
	table := dinghy(t).Table

	cases := []struct {
		twa, tws, want float64
	}{
		{45, 12, 4.0},
		{45, 9, 3.5},
		{45, 3, 1.5},
		{45, 0, 0},
		{90, 50, 6.0},
		{90, 100, 6.0},
		{-45, 12, 4.0},
		{200, 12, 4.6},
		{0, 20, 0},
	}
	for _, c := range cases {
		got, err := table.PotentialSpeed(angle.New(c.twa), c.tws)
		if err != nil {
			t.Errorf("PotentialSpeed(%f, %f) failed: %v", c.twa, c.tws, err)
			continue
		}
		if math.Abs(got-c.want) > 1e-9 {
			t.Errorf("PotentialSpeed(%f, %f) = %f; want %f", c.twa, c.tws, got, c.want)
		}
	}
}

func TestPotentialSpeedOutOfRange(t *testing.T) {
	table := dinghy(t).Table

	for _, ws := range []float64{-0.1, 100.1, math.NaN()} {
		_, err := table.PotentialSpeed(angle.New(90), ws)
		assert.True(t, errors.Is(err, ErrOutOfRange), "wind speed %f", ws)
	}
}

func TestPotentialSpeedMonotonicInWindSpeed(t *testing.T) {
	table := dinghy(t).Table

	for twa := 0.0; twa <= 180; twa += 5 {
		previous := 0.0
		for ws := 0.0; ws <= 100; ws += 0.5 {
			s, err := table.PotentialSpeed(angle.New(twa), ws)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, s+1e-12, previous, "twa %f tws %f", twa, ws)
			previous = s
		}
	}
}

func TestAnglesClampToTable(t *testing.T) {
	table, err := NewTable([]float64{10}, []float64{40, 170}, [][]float64{{3}, {5}})
	require.NoError(t, err)

	low, err := table.PotentialSpeed(angle.New(20), 10)
	require.NoError(t, err)
	assert.Equal(t, 3.0, low)

	high, err := table.PotentialSpeed(angle.New(180), 10)
	require.NoError(t, err)
	assert.Equal(t, 5.0, high)
}

func TestNewTableErrors(t *testing.T) {
	_, err := NewTable(nil, []float64{0}, nil)
	assert.Error(t, err)

	_, err = NewTable([]float64{6, 6}, []float64{0}, [][]float64{{1, 1}})
	assert.Error(t, err, "wind speeds not increasing")

	_, err = NewTable([]float64{6}, []float64{90, 45}, [][]float64{{1}, {1}})
	assert.Error(t, err, "angles not increasing")

	_, err = NewTable([]float64{0, 6}, []float64{0}, [][]float64{{1, 1}})
	assert.Error(t, err, "wind speed 0 is the backstop")

	_, err = NewTable([]float64{6}, []float64{0, 190}, [][]float64{{1}, {1}})
	assert.Error(t, err, "angle above 180")

	_, err = NewTable([]float64{6, 12}, []float64{0}, [][]float64{{1}})
	assert.Error(t, err, "short row")

	_, err = NewTable([]float64{6}, []float64{0}, [][]float64{{-1}})
	assert.Error(t, err, "negative speed")
}

func TestMetricsValidate(t *testing.T) {
	m := *dinghy(t)
	require.NoError(t, m.Validate())

	bad := m
	bad.Inertia = 0
	assert.Error(t, bad.Validate())

	bad = m
	bad.Inertia = 1.5
	assert.Error(t, bad.Validate())

	bad = m
	bad.UpwindAngle = 160
	assert.Error(t, bad.Validate())

	bad = m
	bad.MaxTurnRate = 0
	assert.Error(t, bad.Validate())

	bad = m
	bad.Table = nil
	assert.Error(t, bad.Validate())
}

func TestParseRejectsBadTable(t *testing.T) {
	_, err := Parse([]byte(`{"label":"x","inertia":0.5,"maxTurnRate":10,"upwindAngle":45,"downwindAngle":150,"length":4,"width":1,"tws":[6],"twa":[0],"speed":[]}`))
	assert.Error(t, err)

	_, err = Parse([]byte(`{`))
	assert.Error(t, err)
}
