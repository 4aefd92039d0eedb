package sim

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/a-bouts/dinghy-sim/angle"
	"github.com/a-bouts/dinghy-sim/boat"
	"github.com/a-bouts/dinghy-sim/decision"
	"github.com/a-bouts/dinghy-sim/flow"
	"github.com/a-bouts/dinghy-sim/polar"
	"github.com/a-bouts/dinghy-sim/race"
	"github.com/a-bouts/dinghy-sim/tactics"
	"github.com/a-bouts/dinghy-sim/vector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func constantField(t *testing.T, area vector.Area, speed, from float64) *flow.Field {
	f, err := flow.NewField(area, flow.Shift{}, flow.Constant{
		Scope: flow.Scope{Name: "base", Area: area},
		Flow:  vector.NewSpeed(speed, angle.New(from)),
	})
	require.NoError(t, err)
	return f
}

// reach builds a single leg reach to the north with the wind from the east.
func reach(t *testing.T, area vector.Area) *Clock {
	m, err := polar.Load("../polar/testdata/dinghy.json")
	require.NoError(t, err)

	course, err := race.NewCourse(vector.Location{}, []race.Mark{
		{Name: "finish", Location: vector.Location{X: 0, Y: 300}},
	}, []angle.Side{angle.Starboard})
	require.NoError(t, err)

	c, err := New(
		constantField(t, area, 12, 90),
		nil,
		course,
		tactics.NewEngine(tactics.DefaultConfig()),
		[]*Boat{{State: boat.NewState("a", vector.Location{}, angle.New(0)), Metrics: m}},
		Options{SecondsPerDisplay: 2, SpeedUp: 2},
	)
	require.NoError(t, err)
	return c
}

func TestSchedule(t *testing.T) {
	cases := []struct {
		opts  Options
		every uint64
		ticks int
	}{
		{Options{SecondsPerDisplay: 1, SpeedUp: 1}, 1, 1},
		{Options{SecondsPerDisplay: 10, SpeedUp: 5}, 2, 10},
		{Options{SecondsPerDisplay: 1, SpeedUp: 4}, 1, 4},
		{Options{SecondsPerDisplay: 1, SpeedUp: 0.5}, 2, 1},
	}
	for _, c := range cases {
		every, ticks := c.opts.schedule()
		if every != c.every || ticks != c.ticks {
			t.Errorf("%+v.schedule() = %d, %d; want %d, %d", c.opts, every, ticks, c.every, c.ticks)
		}
	}
}

func TestNewErrors(t *testing.T) {
	c := reach(t, vector.NewArea(-500, -500, 1000, 1000))
	b := c.boats[0]

	_, err := New(nil, nil, c.course, c.engine, c.boats, c.opts)
	assert.Error(t, err)

	_, err = New(c.wind, nil, c.course, c.engine, nil, c.opts)
	assert.Error(t, err)

	_, err = New(c.wind, nil, c.course, c.engine, []*Boat{b, b}, c.opts)
	assert.Error(t, err)

	_, err = New(c.wind, nil, c.course, c.engine, c.boats, Options{})
	assert.Error(t, err)
}

func TestRunToTheFinish(t *testing.T) {
	c := reach(t, vector.NewArea(-500, -500, 1000, 1000))
	events, unsub := c.Subscribe(context.Background())
	defer unsub()

	var finished []string
	for i := 0; i < 300 && len(finished) == 0; i++ {
		require.NoError(t, c.Tick())
		ev := <-events
		assert.Equal(t, float64(i+1), ev.Seconds)
		finished = append(finished, ev.Finished...)
	}
	require.Equal(t, []string{"a"}, finished)

	snapshot := c.Snapshot()
	assert.True(t, snapshot.Boats[0].Finished)
	assert.InDelta(t, 300, snapshot.Boats[0].Location.Y, 30)

	entries := c.Log()
	require.Len(t, entries, 2)
	assert.Equal(t, decision.MarkRounding, entries[0].Decision.Action)
	assert.Equal(t, decision.Stop, entries[1].Decision.Action)
	assert.Equal(t, entries[0].Seconds+1, entries[1].Seconds)

	// a finished boat holds its position
	before := c.Snapshot().Boats[0].Location
	require.NoError(t, c.Tick())
	assert.Equal(t, before, c.Snapshot().Boats[0].Location)
	assert.Len(t, c.Log(), 2)

	track, ok := c.Track("a")
	require.True(t, ok)
	assert.Equal(t, int(c.Seconds())+1, len(track))
	_, ok = c.Track("z")
	assert.False(t, ok)
}

func TestLeavingTheFieldAbortsTheRun(t *testing.T) {
	c := reach(t, vector.NewArea(-50, -50, 100, 100))

	var err error
	for i := 0; i < 100 && err == nil; i++ {
		err = c.Tick()
	}
	require.ErrorIs(t, err, flow.ErrNoFlow)
	assert.ErrorIs(t, c.Err(), flow.ErrNoFlow)

	seconds := c.Seconds()
	assert.ErrorIs(t, c.Tick(), flow.ErrNoFlow)
	assert.Equal(t, seconds, c.Seconds())
	assert.Error(t, c.Start())
	assert.NotEmpty(t, c.Snapshot().Err)

	c.Reset()
	assert.NoError(t, c.Err())
	assert.Equal(t, 0.0, c.Seconds())
	assert.Equal(t, vector.Location{}, c.Snapshot().Boats[0].Location)
	assert.NoError(t, c.Tick())
}

func TestStartAndStop(t *testing.T) {
	c := reach(t, vector.NewArea(-500, -500, 1000, 1000))

	require.NoError(t, c.Start())
	require.NoError(t, c.Start())
	assert.True(t, c.Running())
	require.Eventually(t, func() bool { return c.Seconds() >= 2 }, 5*time.Second, 50*time.Millisecond)

	c.Stop()
	assert.False(t, c.Running())
	seconds := c.Seconds()
	time.Sleep(1500 * time.Millisecond)
	assert.Equal(t, seconds, c.Seconds())
}

func TestResetPublishes(t *testing.T) {
	c := reach(t, vector.NewArea(-500, -500, 1000, 1000))
	require.NoError(t, c.Tick())

	ctx, cancel := context.WithCancel(context.Background())
	events, _ := c.Subscribe(ctx)
	c.Reset()
	ev := <-events
	assert.True(t, ev.Reset)
	assert.Equal(t, 0.0, ev.Seconds)

	cancel()
	require.Eventually(t, func() bool {
		select {
		case _, open := <-events:
			return !open
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
}

func TestMoveMarkAndFlow(t *testing.T) {
	c := reach(t, vector.NewArea(-500, -500, 1000, 1000))

	require.NoError(t, c.MoveMark(0, vector.Location{X: 100, Y: 300}))
	marks, legs := c.Course()
	assert.Equal(t, vector.Location{X: 100, Y: 300}, marks[0].Location)
	assert.Equal(t, vector.Location{X: 100, Y: 300}, legs[0].End)
	assert.Error(t, c.MoveMark(5, vector.Location{}))

	w, water, err := c.FlowAt(vector.Location{X: 10, Y: 10})
	require.NoError(t, err)
	assert.InDelta(t, 12, w.Speed, 1e-9)
	assert.InDelta(t, 90, w.Angle.Degrees(), 1e-9)
	assert.Equal(t, 0.0, water.Speed)

	_, _, err = c.FlowAt(vector.Location{X: 1000, Y: 1000})
	assert.ErrorIs(t, err, flow.ErrNoFlow)
}

func TestFailedTickLeavesEveryBoatUnchanged(t *testing.T) {
	m, err := polar.Load("../polar/testdata/dinghy.json")
	require.NoError(t, err)

	area := vector.NewArea(-500, -500, 1000, 1000)
	wind, err := flow.NewField(area, flow.Shift{},
		flow.Constant{
			Scope: flow.Scope{Name: "base", Area: area},
			Flow:  vector.NewSpeed(12, angle.New(90)),
		},
		flow.Constant{
			Scope: flow.Scope{Name: "storm", Area: vector.NewArea(50, -50, 100, 100), Level: 1},
			Flow:  vector.NewSpeed(150, angle.New(90)),
		})
	require.NoError(t, err)

	course, err := race.NewCourse(vector.Location{}, []race.Mark{
		{Name: "finish", Location: vector.Location{X: 0, Y: 300}},
	}, []angle.Side{angle.Starboard})
	require.NoError(t, err)

	c, err := New(wind, nil, course, tactics.NewEngine(tactics.DefaultConfig()), []*Boat{
		{State: boat.NewState("a", vector.Location{X: -100}, angle.New(0)), Metrics: m},
		{State: boat.NewState("b", vector.Location{X: 100}, angle.New(0)), Metrics: m},
	}, Options{SecondsPerDisplay: 1, SpeedUp: 1})
	require.NoError(t, err)

	before := c.Snapshot().Boats

	err = c.Tick()
	require.ErrorIs(t, err, polar.ErrOutOfRange)
	assert.Equal(t, 0.0, c.Seconds())
	assert.Empty(t, c.Log())

	after := c.Snapshot()
	assert.Equal(t, before, after.Boats)
	assert.NotEmpty(t, after.Err)
	for _, id := range []string{"a", "b"} {
		track, ok := c.Track(id)
		require.True(t, ok)
		assert.Len(t, track, 1, "track of %s", id)
	}
}

func TestTrackWhileResetting(t *testing.T) {
	c := reach(t, vector.NewArea(-500, -500, 1000, 1000))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			_ = c.Tick()
			c.Reset()
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			track, ok := c.Track("a")
			assert.True(t, ok)
			assert.NotEmpty(t, track)
		}
	}()
	wg.Wait()
}
