package boat

import (
	"fmt"
	"math"

	"github.com/a-bouts/dinghy-sim/angle"
	"github.com/a-bouts/dinghy-sim/decision"
	"github.com/a-bouts/dinghy-sim/polar"
	"github.com/a-bouts/dinghy-sim/vector"
)

// Status is the per tick state of a boat. Copies of it are the snapshots handed to readers.
type Status struct {
	ID       string            `json:"id"`
	Location vector.Location   `json:"location"`
	Heading  angle.Angle       `json:"heading"`
	Speed    float64           `json:"speed"`
	Leg      int               `json:"leg"`
	Finished bool              `json:"finished"`
	Decision decision.Decision `json:"decision"`
}

// State is owned by the tick loop.
type State struct {
	Status
	Track *Track

	startLocation vector.Location
	startHeading  angle.Angle
}

func NewState(id string, l vector.Location, heading angle.Angle) *State {
	s := &State{Track: &Track{}}
	s.ID = id
	s.startLocation = l
	s.startHeading = heading
	s.Reset()
	return s
}

// Reset puts the boat back on the start line, stopped.
func (s *State) Reset() {
	s.Status = Status{
		ID:       s.ID,
		Location: s.startLocation,
		Heading:  s.startHeading,
		Decision: decision.SailingOn("start"),
	}
	s.Track.reset(s.startLocation)
}

func (s *State) Snapshot() Status {
	return s.Status
}

// Tack returns the side the wind comes over. Head to wind and dead downwind are starboard.
func Tack(heading, wind angle.Angle) angle.Side {
	if heading.AngleDiff(wind).Lt(angle.New(0)) {
		return angle.Port
	}
	return angle.Starboard
}

// TurnTicks is the number of ticks needed to rotate from one heading to another at the given rate.
func TurnTicks(from, to angle.Angle, side angle.Side, rate float64) int {
	return int(math.Ceil(angle.Rotation(from, to, side) / rate))
}

// Advance moves the boat through one time step of dt seconds.
// On error the state is left as it was.
func Advance(m *polar.Metrics, s *State, d decision.Decision, wind, water vector.SpeedVector, dt float64) error {
	next, err := Move(m, s.Status, d, wind, water, dt)
	if err != nil {
		return err
	}
	s.Commit(next)
	return nil
}

// Commit makes next the current status and extends the track.
func (s *State) Commit(next Status) {
	s.Status = next
	s.Track.Append(next.Location)
}

// Move returns the status after one time step of dt seconds, applying d.
// Wind and water are the flows at the boat, in knots, with the bearing they come from.
func Move(m *polar.Metrics, s Status, d decision.Decision, wind, water vector.SpeedVector, dt float64) (Status, error) {
	if d.Action == decision.Stop {
		s.Decision = d
		s.Speed = 0
		return s, nil
	}

	potential, err := m.Table.PotentialSpeed(s.Heading.AbsAngleDiff(wind.Angle), wind.Speed)
	if err != nil {
		return s, fmt.Errorf("boat %s: %w", s.ID, err)
	}

	s.Decision = d
	s.Speed += m.Inertia * (potential - s.Speed)

	displacement := vector.NewSpeed(s.Speed, s.Heading).Over(dt).Sub(water.Over(dt))
	s.Location = displacement.ToLocation(s.Location)

	if d.IsManeuver() {
		rate := m.MaxTurnRate * dt
		if s.Speed < 1 {
			rate /= 2
		}
		s.Heading, _ = angle.Rotate(s.Heading, d.Target, d.Side, rate)
	}

	return s, nil
}
