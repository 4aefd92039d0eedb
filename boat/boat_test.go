package boat

import (
	"math"
	"sync"
	"testing"

	"github.com/a-bouts/dinghy-sim/angle"
	"github.com/a-bouts/dinghy-sim/decision"
	"github.com/a-bouts/dinghy-sim/polar"
	"github.com/a-bouts/dinghy-sim/vector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dinghy(t *testing.T) *polar.Metrics {
	m, err := polar.Load("../polar/testdata/dinghy.json")
	require.NoError(t, err)
	return m
}

var calm = vector.SpeedVector{}

func TestTack(t *testing.T) {
	assert.Equal(t, angle.Starboard, Tack(angle.New(45), angle.New(90)))
	assert.Equal(t, angle.Port, Tack(angle.New(45), angle.New(0)))
	assert.Equal(t, angle.Port, Tack(angle.New(-45), angle.New(180)))
	assert.Equal(t, angle.Starboard, Tack(angle.New(0), angle.New(0)))
	assert.Equal(t, angle.Starboard, Tack(angle.New(0), angle.New(180)))
}

func TestTurnTicks(t *testing.T) {
	assert.Equal(t, 5, TurnTicks(angle.New(45), angle.New(-45), angle.Port, 20))
	assert.Equal(t, 14, TurnTicks(angle.New(45), angle.New(-45), angle.Starboard, 20))
	assert.Equal(t, 0, TurnTicks(angle.New(10), angle.New(10), angle.Port, 20))
}

func TestSpeedConverges(t *testing.T) {
	m := dinghy(t)
	s := NewState("a", vector.Location{}, angle.New(90))
	wind := vector.NewSpeed(12, angle.New(0))

	potential, err := m.Table.PotentialSpeed(angle.New(90), 12)
	require.NoError(t, err)

	gap := math.Abs(s.Speed - potential)
	for i := 0; i < 30; i++ {
		require.NoError(t, Advance(m, s, decision.SailingOn("test"), wind, calm, 1))
		g := math.Abs(s.Speed - potential)
		assert.Less(t, g, gap, "tick %d", i)
		assert.LessOrEqual(t, s.Speed, potential, "tick %d", i)
		gap = g
	}
}

func TestSpeedSlowsDown(t *testing.T) {
	m := dinghy(t)
	s := NewState("a", vector.Location{}, angle.New(90))
	s.Speed = 8
	wind := vector.NewSpeed(12, angle.New(0))

	for i := 0; i < 20; i++ {
		require.NoError(t, Advance(m, s, decision.SailingOn("test"), wind, calm, 1))
		assert.GreaterOrEqual(t, s.Speed, 5.2)
	}
}

func TestTurnCompletesInTime(t *testing.T) {
	m := dinghy(t)
	s := NewState("a", vector.Location{}, angle.New(45))
	s.Speed = 4
	wind := vector.NewSpeed(12, angle.New(0))
	d := decision.Turning(angle.New(-45), angle.Port, decision.Major, "tack")

	want := TurnTicks(s.Heading, d.Target, d.Side, m.MaxTurnRate)
	ticks := 0
	for s.Heading != d.Target {
		require.NoError(t, Advance(m, s, d, wind, calm, 1))
		ticks++
		require.LessOrEqual(t, ticks, 20)
	}
	assert.Equal(t, want, ticks)
	assert.Equal(t, 5, ticks)
}

func TestTurnIsSlowerAtLowSpeed(t *testing.T) {
	m := dinghy(t)
	s := NewState("a", vector.Location{}, angle.New(45))
	d := decision.Turning(angle.New(-45), angle.Port, decision.Major, "tack")

	ticks := 0
	for s.Heading != d.Target {
		require.NoError(t, Advance(m, s, d, calm, calm, 1))
		require.Less(t, s.Speed, 1.0)
		ticks++
		require.LessOrEqual(t, ticks, 20)
	}
	assert.Equal(t, TurnTicks(angle.New(45), d.Target, d.Side, m.MaxTurnRate/2), ticks)
	assert.Equal(t, 9, ticks)
}

func TestTackingScenario(t *testing.T) {
	m := dinghy(t)
	s := NewState("a", vector.Location{}, angle.New(45))
	wind := vector.NewSpeed(12, angle.New(0))

	for i := 0; i < 12; i++ {
		require.NoError(t, Advance(m, s, decision.SailingOn("reach speed"), wind, calm, 1))
	}
	assert.InDelta(t, 3.9446348511959997, s.Speed, 1e-9)
	assert.InDelta(t, 14.112656721051838, s.Location.X, 1e-6)
	assert.InDelta(t, 14.11265672105184, s.Location.Y, 1e-6)

	d := decision.Turning(angle.New(-45), angle.Port, decision.Major, "tack")
	for s.Heading != d.Target {
		require.NoError(t, Advance(m, s, d, wind, calm, 1))
	}
	assert.InDelta(t, 15.515389170965229, s.Location.X, 0.005)
	assert.InDelta(t, 19.925223985171403, s.Location.Y, 0.005)
	assert.InDelta(t, 1.9739697794405116, s.Speed, 1e-9)
	assert.Equal(t, 18, s.Track.Len())
}

func TestCurrentDrift(t *testing.T) {
	m := dinghy(t)
	s := NewState("a", vector.Location{}, angle.New(0))
	// current from the north pushes the boat south
	water := vector.NewSpeed(2, angle.New(0))

	require.NoError(t, Advance(m, s, decision.SailingOn("drift"), calm, water, 10))
	assert.InDelta(t, 0, s.Location.X, 1e-9)
	assert.InDelta(t, -2*vector.KnotsToMetresPerSecond*10, s.Location.Y, 1e-9)
}

func TestStopHoldsPosition(t *testing.T) {
	m := dinghy(t)
	s := NewState("a", vector.Location{X: 3, Y: 4}, angle.New(0))
	s.Speed = 4

	require.NoError(t, Advance(m, s, decision.Stopped("penalty"), vector.NewSpeed(12, angle.New(90)), vector.NewSpeed(3, angle.New(0)), 1))
	assert.Equal(t, vector.Location{X: 3, Y: 4}, s.Location)
	assert.Equal(t, 0.0, s.Speed)
	assert.Equal(t, decision.Stop, s.Decision.Action)
}

func TestOutOfRangeWind(t *testing.T) {
	m := dinghy(t)
	s := NewState("a", vector.Location{}, angle.New(0))

	before := s.Snapshot()
	err := Advance(m, s, decision.Turning(angle.New(-45), angle.Port, decision.Major, "storm"), vector.NewSpeed(120, angle.New(0)), calm, 1)
	assert.ErrorIs(t, err, polar.ErrOutOfRange)
	assert.Equal(t, before, s.Snapshot())
	assert.Equal(t, 1, s.Track.Len())
}

func TestMoveLeavesTheStatusUntouched(t *testing.T) {
	m := dinghy(t)
	s := NewState("a", vector.Location{}, angle.New(45))
	before := s.Snapshot()

	next, err := Move(m, s.Status, decision.SailingOn("go"), vector.NewSpeed(12, angle.New(0)), calm, 1)
	require.NoError(t, err)
	assert.Equal(t, before, s.Snapshot())
	assert.Equal(t, 1, s.Track.Len())
	assert.Greater(t, next.Speed, 0.0)

	s.Commit(next)
	assert.Equal(t, next, s.Snapshot())
	assert.Equal(t, []vector.Location{{}, next.Location}, s.Track.Points())
}

func TestReset(t *testing.T) {
	m := dinghy(t)
	s := NewState("a", vector.Location{X: 1, Y: 2}, angle.New(30))
	for i := 0; i < 3; i++ {
		require.NoError(t, Advance(m, s, decision.SailingOn("go"), vector.NewSpeed(12, angle.New(-60)), calm, 1))
	}
	s.Leg = 2
	require.Equal(t, 4, s.Track.Len())

	s.Reset()
	assert.Equal(t, vector.Location{X: 1, Y: 2}, s.Location)
	assert.Equal(t, 30.0, s.Heading.Degrees())
	assert.Equal(t, 0, s.Leg)
	assert.Equal(t, 0.0, s.Speed)
	assert.Equal(t, 1, s.Track.Len())
	assert.Equal(t, "a", s.Snapshot().ID)
}

func TestTrackConcurrentReaders(t *testing.T) {
	tr := &Track{}
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			tr.Append(vector.Location{X: float64(i)})
		}
	}()
	for i := 0; i < 100; i++ {
		points := tr.Points()
		for j, p := range points {
			require.Equal(t, float64(j), p.X)
		}
	}
	wg.Wait()
	assert.Equal(t, 1000, tr.Len())
}
