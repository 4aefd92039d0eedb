package sim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/a-bouts/dinghy-sim/boat"
	"github.com/a-bouts/dinghy-sim/flow"
	"github.com/a-bouts/dinghy-sim/polar"
	"github.com/a-bouts/dinghy-sim/race"
	"github.com/a-bouts/dinghy-sim/tactics"
	"github.com/a-bouts/dinghy-sim/vector"
	"github.com/jasonlvhit/gocron"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/metric"
)

// Step is the simulated time of one tick, in seconds.
const Step = 1.0

type Options struct {
	// SecondsPerDisplay is the simulated time between two displays.
	SecondsPerDisplay float64 `yaml:"secondsPerDisplay" json:"secondsPerDisplay"`
	// SpeedUp is the ratio of simulated time to real time.
	SpeedUp float64 `yaml:"speedUp" json:"speedUp"`
}

func (o Options) Validate() error {
	if o.SecondsPerDisplay <= 0 || o.SpeedUp <= 0 {
		return fmt.Errorf("seconds per display and speed up must be positive")
	}
	return nil
}

// schedule converts the options into a whole number of real seconds between
// two scheduler runs and the number of ticks each run advances.
func (o Options) schedule() (uint64, int) {
	every := math.Max(1, math.Round(o.SecondsPerDisplay/o.SpeedUp))
	ticks := math.Max(1, math.Round(every*o.SpeedUp))
	return uint64(every), int(ticks)
}

type Boat struct {
	State   *boat.State
	Metrics *polar.Metrics
}

// Clock owns the simulation state. Ticks and mutations are serialized;
// readers get copies of the last completed tick.
type Clock struct {
	mu      sync.Mutex
	wind    *flow.Field
	water   *flow.Field
	course  *race.Course
	engine  *tactics.Engine
	boats   []*Boat
	tracks  map[string]*boat.Track
	opts    Options
	seconds float64
	log     []Entry
	err     error

	scheduler *gocron.Scheduler
	stopped   chan bool

	subMu sync.Mutex
	subs  map[chan Event]struct{}

	ticks     metric.Int64Counter
	decisions metric.Int64Counter
}

// New builds a clock. water may be nil for still water.
func New(wind, water *flow.Field, course *race.Course, engine *tactics.Engine, boats []*Boat, opts Options) (*Clock, error) {
	if wind == nil {
		return nil, errors.New("missing wind field")
	}
	if course == nil {
		return nil, errors.New("missing course")
	}
	if len(boats) == 0 {
		return nil, errors.New("no boats")
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	tracks := map[string]*boat.Track{}
	for _, b := range boats {
		if _, ok := tracks[b.State.ID]; ok {
			return nil, fmt.Errorf("duplicate boat '%s'", b.State.ID)
		}
		tracks[b.State.ID] = b.State.Track
		if err := b.Metrics.Validate(); err != nil {
			return nil, err
		}
	}

	c := &Clock{
		wind:   wind,
		water:  water,
		course: course,
		engine: engine,
		boats:  boats,
		tracks: tracks,
		opts:   opts,
		subs:   make(map[chan Event]struct{}),
	}

	m := meter()
	var err error
	c.ticks, err = m.Int64Counter("sim.ticks", metric.WithDescription("Simulated seconds"))
	if err != nil {
		return nil, fmt.Errorf("creating ticks counter: %w", err)
	}
	c.decisions, err = m.Int64Counter("sim.decisions", metric.WithDescription("Decision log entries"))
	if err != nil {
		return nil, fmt.Errorf("creating decisions counter: %w", err)
	}

	return c, nil
}

// Tick advances every boat by one step.
func (c *Clock) Tick() error {
	c.mu.Lock()
	ev, err := c.tick()
	c.mu.Unlock()

	c.publish(ev)
	return err
}

func (c *Clock) tick() (Event, error) {
	if c.err != nil {
		return c.event(), c.err
	}

	type flows struct {
		wind, water vector.SpeedVector
	}
	at := make([]flows, len(c.boats))
	for i, b := range c.boats {
		w, err := c.wind.FlowAt(b.State.Location, c.seconds)
		if err != nil {
			return c.fail(fmt.Errorf("wind at boat %s: %w", b.State.ID, err))
		}
		at[i].wind = w
		if c.water != nil {
			if at[i].water, err = c.water.FlowAt(b.State.Location, c.seconds); err != nil {
				return c.fail(fmt.Errorf("water at boat %s: %w", b.State.ID, err))
			}
		}
	}

	mean := c.wind.MeanFlowAngle()
	// every boat moves on a copy, nothing is committed unless all succeed
	next := make([]boat.Status, len(c.boats))
	for i, b := range c.boats {
		work := &boat.State{Status: b.State.Snapshot()}
		d := c.engine.Next(work, b.Metrics, c.course, at[i].wind, mean)
		moved, err := boat.Move(b.Metrics, work.Status, d, at[i].wind, at[i].water, Step)
		if err != nil {
			return c.fail(err)
		}
		next[i] = moved
	}

	var entries []Entry
	var finished []string
	for i, b := range c.boats {
		s := b.State
		previous := s.Decision
		wasFinished := s.Finished

		s.Commit(next[i])

		d := s.Decision
		if !d.Continued && !d.Same(previous) {
			entries = append(entries, Entry{Boat: s.ID, Seconds: c.seconds, Decision: d})
			log.WithFields(log.Fields{"boat": s.ID, "seconds": c.seconds}).Debug(d)
		}
		if s.Finished && !wasFinished {
			finished = append(finished, s.ID)
		}
	}

	c.seconds += Step
	c.log = append(c.log, entries...)

	ctx := context.Background()
	c.ticks.Add(ctx, 1)
	c.decisions.Add(ctx, int64(len(entries)))

	ev := c.event()
	ev.Entries = entries
	ev.Finished = finished
	return ev, nil
}

// fail aborts the run. The clock keeps failing until reset.
func (c *Clock) fail(err error) (Event, error) {
	c.err = err
	log.WithError(err).Error("Simulation aborted")
	c.stop()
	return c.event(), err
}

func (c *Clock) event() Event {
	ev := Event{Seconds: c.seconds, Boats: make([]boat.Status, len(c.boats))}
	for i, b := range c.boats {
		ev.Boats[i] = b.State.Snapshot()
	}
	if c.err != nil {
		ev.Err = c.err.Error()
	}
	return ev
}

// Start drives the clock in real time until Stop, Reset or an error.
func (c *Clock) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.err != nil {
		return c.err
	}
	if c.scheduler != nil {
		return nil
	}

	every, ticks := c.opts.schedule()
	s := gocron.NewScheduler()
	if err := s.Every(every).Seconds().Do(c.fire, s, ticks); err != nil {
		return err
	}
	c.scheduler = s
	c.stopped = s.Start()

	log.WithFields(log.Fields{"every": every, "ticks": ticks}).Info("Start simulation")
	return nil
}

func (c *Clock) fire(s *gocron.Scheduler, ticks int) {
	for i := 0; i < ticks; i++ {
		c.mu.Lock()
		if c.scheduler != s {
			c.mu.Unlock()
			return
		}
		ev, err := c.tick()
		c.mu.Unlock()

		c.publish(ev)
		if err != nil {
			return
		}
	}
}

// Stop waits for the tick in progress, if any.
func (c *Clock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stop()
}

func (c *Clock) stop() {
	if c.scheduler == nil {
		return
	}
	c.scheduler.Clear()
	close(c.stopped)
	c.scheduler = nil
	log.WithField("seconds", c.seconds).Info("Stop simulation")
}

func (c *Clock) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scheduler != nil
}

// Reset stops the clock and puts every boat back at the start.
func (c *Clock) Reset() {
	c.mu.Lock()
	c.stop()
	c.seconds = 0
	c.log = nil
	c.err = nil
	for _, b := range c.boats {
		b.State.Reset()
	}
	ev := c.event()
	ev.Reset = true
	c.mu.Unlock()

	c.publish(ev)
}

func (c *Clock) Seconds() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seconds
}

func (c *Clock) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Log returns the decision log, oldest first.
func (c *Clock) Log() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	entries := make([]Entry, len(c.log))
	copy(entries, c.log)
	return entries
}

func (c *Clock) Snapshot() Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.event()
}

// Track returns the locations of a boat. It does not wait for a running tick.
func (c *Clock) Track(id string) ([]vector.Location, bool) {
	t, ok := c.tracks[id]
	if !ok {
		return nil, false
	}
	return t.Points(), true
}

func (c *Clock) Course() ([]race.Mark, []race.Leg) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.course.Marks(), c.course.Legs()
}

func (c *Clock) MoveMark(i int, l vector.Location) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.course.MoveMark(i, l)
}

// FlowAt returns the wind and the water flow at a location at the current time.
func (c *Clock) FlowAt(l vector.Location) (vector.SpeedVector, vector.SpeedVector, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	w, err := c.wind.FlowAt(l, c.seconds)
	if err != nil {
		return w, vector.SpeedVector{}, err
	}
	if c.water == nil {
		return w, vector.SpeedVector{}, nil
	}
	water, err := c.water.FlowAt(l, c.seconds)
	return w, water, err
}

// Subscribe returns a channel of events, closed by the returned function or when ctx is done.
// Slow subscribers miss events.
func (c *Clock) Subscribe(ctx context.Context) (<-chan Event, func()) {
	ch := make(chan Event, 32)

	c.subMu.Lock()
	c.subs[ch] = struct{}{}
	c.subMu.Unlock()

	done := make(chan struct{})
	var once sync.Once
	unsub := func() {
		once.Do(func() {
			c.subMu.Lock()
			delete(c.subs, ch)
			close(ch)
			c.subMu.Unlock()
			close(done)
		})
	}

	go func() {
		select {
		case <-ctx.Done():
			unsub()
		case <-done:
		}
	}()

	return ch, unsub
}

func (c *Clock) publish(ev Event) {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	for ch := range c.subs {
		select {
		case ch <- ev:
		default:
			log.Debug("Subscriber too slow, event dropped")
		}
	}
}
