package tactics

import (
	"github.com/a-bouts/dinghy-sim/angle"
	"github.com/a-bouts/dinghy-sim/boat"
	"github.com/a-bouts/dinghy-sim/decision"
	"github.com/a-bouts/dinghy-sim/polar"
	"github.com/a-bouts/dinghy-sim/race"
	"github.com/a-bouts/dinghy-sim/vector"
	log "github.com/sirupsen/logrus"
)

// Engine chooses what each boat does next.
type Engine struct {
	cfg   Config
	rules map[ruleKey]rule
}

func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg, rules: newRules()}
}

func (e *Engine) Config() Config {
	return e.cfg
}

// Next returns the decision for the coming tick. Wind is the flow at the boat
// and mean the mean wind direction of the field. The leg type is taken against
// the mean so that oscillations do not switch the rules in use.
// It only modifies the boat's leg index and finished flag, when a rounding completes.
func (e *Engine) Next(s *boat.State, m *polar.Metrics, course *race.Course, wind vector.SpeedVector, mean angle.Angle) decision.Decision {
	if s.Finished {
		return decision.Stopped("finished")
	}

	previous := s.Decision
	if previous.IsManeuver() && s.Heading != previous.Target {
		previous.Continued = true
		return previous
	}

	if previous.Action == decision.MarkRounding {
		if previous.Final != nil {
			return decision.Rounding(*previous.Final, previous.Side, previous.Rationale)
		}
		if course.IsLast(s.Leg) {
			s.Finished = true
			log.WithField("boat", s.ID).Info("Finished")
			return decision.Stopped("finished")
		}
		s.Leg++
		log.WithFields(log.Fields{"boat": s.ID, "leg": s.Leg}).Debug("Next leg")
	}

	leg, ok := course.Leg(s.Leg)
	if !ok {
		return decision.Stopped("no leg")
	}

	sit := situation{
		cfg:     e.cfg,
		metrics: m,
		boat:    s.Snapshot(),
		leg:     leg,
		wind:    wind,
		mean:    mean,
	}
	if next, ok := course.Next(s.Leg); ok {
		sit.next = &next
	}

	key := ruleKey{
		leg:      leg.Type(mean, m.UpwindAngle, m.DownwindAngle),
		tack:     boat.Tack(s.Heading, wind.Angle),
		rounding: leg.Rounding,
	}
	return e.rules[key](sit)
}
