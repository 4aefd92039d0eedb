package tactics

import (
	"fmt"
	"math"

	"github.com/a-bouts/dinghy-sim/angle"
	"github.com/a-bouts/dinghy-sim/boat"
	"github.com/a-bouts/dinghy-sim/decision"
	"github.com/a-bouts/dinghy-sim/polar"
	"github.com/a-bouts/dinghy-sim/race"
	"github.com/a-bouts/dinghy-sim/vector"
)

const (
	// rearQuadrant is the smallest angle off the bow at which a mark counts as passed.
	rearQuadrant = 135.0
	// splitRotation is the largest rounding turn made in one phase.
	splitRotation = 90.0
)

// situation is everything a rule reads. Rules never modify it.
type situation struct {
	cfg     Config
	metrics *polar.Metrics
	boat    boat.Status
	leg     race.Leg
	next    *race.Leg
	wind    vector.SpeedVector
	mean    angle.Angle
	legType race.LegType
	tack    angle.Side
}

// step returns a decision and true when it fires.
type step func(s situation) (decision.Decision, bool)

type rule func(s situation) decision.Decision

type ruleKey struct {
	leg      race.LegType
	tack     angle.Side
	rounding angle.Side
}

var chains = map[race.LegType][]step{
	race.Windward:       {markRounding, windwardLayline, channel, bestTack, header},
	race.Offwind:        {markRounding, steerAtMark},
	race.GybingDownwind: {markRounding, downwindLayline, channel, bestTack, header},
}

// newRules builds one rule per leg type, tack and rounding side. Each evaluates
// the leg type's steps in order and returns the first that fires, or sails on.
func newRules() map[ruleKey]rule {
	rules := map[ruleKey]rule{}
	for legType, steps := range chains {
		for _, t := range []angle.Side{angle.Starboard, angle.Port} {
			for _, r := range []angle.Side{angle.Starboard, angle.Port} {
				rules[ruleKey{legType, t, r}] = chain(legType, t, r, steps)
			}
		}
	}
	return rules
}

func chain(legType race.LegType, tack, rounding angle.Side, steps []step) rule {
	return func(s situation) decision.Decision {
		s.legType = legType
		s.tack = tack
		s.leg.Rounding = rounding
		for _, st := range steps {
			if d, ok := st(s); ok {
				return d
			}
		}
		return decision.SailingOn("nothing to change")
	}
}

// optimal is the heading sailed at the given angle to the wind on the given tack.
func optimal(wind angle.Angle, tack angle.Side, rel float64) angle.Angle {
	return wind.AddFloat(-tack.Sign() * rel)
}

// sailable returns the heading closest to bearing that the boat can sail.
func sailable(bearing, wind angle.Angle, m *polar.Metrics) angle.Angle {
	r := bearing.AbsAngleDiff(wind).Degrees()
	switch {
	case r < m.UpwindAngle:
		return closest(bearing, optimal(wind, angle.Starboard, m.UpwindAngle), optimal(wind, angle.Port, m.UpwindAngle))
	case r > m.DownwindAngle:
		return closest(bearing, optimal(wind, angle.Starboard, m.DownwindAngle), optimal(wind, angle.Port, m.DownwindAngle))
	}
	return bearing
}

func closest(to, starboard, port angle.Angle) angle.Angle {
	if to.AbsAngleDiff(port).Lt(to.AbsAngleDiff(starboard)) {
		return port
	}
	return starboard
}

// tackTurn turns through the wind, which means rotating toward the side the wind comes from.
func tackTurn(s situation, importance decision.Importance, rationale string) decision.Decision {
	target := optimal(s.wind.Angle, s.tack.Opposite(), s.metrics.UpwindAngle)
	return decision.Turning(target, s.tack, importance, rationale)
}

// gybeTurn turns through the dead downwind direction.
func gybeTurn(s situation, importance decision.Importance, rationale string) decision.Decision {
	target := optimal(s.wind.Angle, s.tack.Opposite(), s.metrics.DownwindAngle)
	return decision.Turning(target, s.tack.Opposite(), importance, rationale)
}

func changeTack(s situation, legType race.LegType, importance decision.Importance, rationale string) decision.Decision {
	if legType == race.GybingDownwind {
		return gybeTurn(s, importance, rationale)
	}
	return tackTurn(s, importance, rationale)
}

// correct turns the short way to the target, or sails on when already there.
func correct(s situation, target angle.Angle, rationale string) decision.Decision {
	if s.boat.Heading.AbsAngleDiff(target).Degrees() <= s.cfg.Tolerance {
		return decision.SailingOn(rationale)
	}
	return decision.Turning(target, angle.ShortestSide(s.boat.Heading, target), decision.Minor, rationale)
}

func markRounding(s situation) (decision.Decision, bool) {
	distance := s.leg.DistanceToMark(s.boat.Location)
	if distance > s.cfg.MarkZone {
		return decision.Decision{}, false
	}
	bearing := s.leg.BearingToMark(s.boat.Location)
	if distance > 0 && s.boat.Heading.AbsAngleDiff(bearing).Degrees() < rearQuadrant {
		return decision.Decision{}, false
	}

	side := s.leg.Rounding
	if s.next == nil {
		return decision.Rounding(s.boat.Heading, side, fmt.Sprintf("finish at %s", s.leg.Mark)), true
	}

	target := sailable(s.boat.Location.BearingTo(s.next.End), s.wind.Angle, s.metrics)
	rationale := fmt.Sprintf("round %s to %s", s.leg.Mark, side)
	if angle.Rotation(s.boat.Heading, target, side) > splitRotation {
		d := decision.Rounding(s.boat.Heading.AddFloat(side.Sign()*splitRotation), side, rationale)
		d.Final = &target
		return d, true
	}
	return decision.Rounding(target, side, rationale), true
}

func windwardLayline(s situation) (decision.Decision, bool) {
	bearing := s.leg.BearingToMark(s.boat.Location)
	if bearing.AbsAngleDiff(s.wind.Angle).Degrees() < s.metrics.UpwindAngle-s.cfg.Tolerance {
		return decision.Decision{}, false
	}
	if boat.Tack(bearing, s.wind.Angle) == s.tack {
		return correct(s, bearing, "on the layline, steer at the mark"), true
	}
	return tackTurn(s, decision.Major, "reached the layline"), true
}

func downwindLayline(s situation) (decision.Decision, bool) {
	bearing := s.leg.BearingToMark(s.boat.Location)
	if bearing.AbsAngleDiff(s.wind.Angle).Degrees() > s.metrics.DownwindAngle+s.cfg.Tolerance {
		return decision.Decision{}, false
	}
	if boat.Tack(bearing, s.wind.Angle) == s.tack {
		return correct(s, bearing, "on the layline, steer at the mark"), true
	}
	return gybeTurn(s, decision.Major, "reached the layline"), true
}

func steerAtMark(s situation) (decision.Decision, bool) {
	bearing := s.leg.BearingToMark(s.boat.Location)
	return correct(s, sailable(bearing, s.wind.Angle, s.metrics), "reach to the mark"), true
}

// awayFromLine reports whether heading increases the distance to the leg's direct line.
func awayFromLine(s situation, heading angle.Angle) bool {
	ct := s.leg.CrossTrack(s.boat.Location)
	off := s.leg.Bearing().AngleDiff(heading).Degrees()
	return ct*off > 0
}

func channel(s situation) (decision.Decision, bool) {
	ct := s.leg.CrossTrack(s.boat.Location)
	if math.Abs(ct) <= 1.5*s.cfg.ChannelOffset || !awayFromLine(s, s.boat.Heading) {
		return decision.Decision{}, false
	}
	return changeTack(s, s.legType, decision.Major, fmt.Sprintf("%.0fm out of the channel", math.Abs(ct))), true
}

func sailingAngle(s situation, legType race.LegType) float64 {
	if legType == race.GybingDownwind {
		return s.metrics.DownwindAngle
	}
	return s.metrics.UpwindAngle
}

func bestTack(s situation) (decision.Decision, bool) {
	if s.wind.Angle.AbsAngleDiff(s.mean).Degrees() < s.cfg.ShiftThreshold {
		return decision.Decision{}, false
	}

	legType := s.legType
	ideal := s.mean
	if legType == race.GybingDownwind {
		ideal = s.mean.Inverse()
	}
	rel := sailingAngle(s, legType)
	current := optimal(s.wind.Angle, s.tack, rel)
	other := optimal(s.wind.Angle, s.tack.Opposite(), rel)
	if !ideal.AbsAngleDiff(other).Lt(ideal.AbsAngleDiff(current)) {
		return decision.Decision{}, false
	}
	if math.Abs(s.leg.CrossTrack(s.boat.Location)) > s.cfg.ChannelOffset && awayFromLine(s, other) {
		return decision.Decision{}, false
	}
	return changeTack(s, legType, decision.Major, fmt.Sprintf("wind shifted %s from the mean, change to the better tack", s.mean.AngleDiff(s.wind.Angle))), true
}

func header(s situation) (decision.Decision, bool) {
	legType := s.legType
	rel := sailingAngle(s, legType)
	actual := s.boat.Heading.AbsAngleDiff(s.wind.Angle).Degrees()
	if math.Abs(actual-rel) <= s.cfg.HeaderAngle {
		return decision.Decision{}, false
	}

	headed := actual < rel
	if legType == race.GybingDownwind {
		headed = actual > rel
	}
	if headed && s.cfg.TackIfHeaded {
		return changeTack(s, legType, decision.Minor, "headed"), true
	}

	rationale := "lifted"
	if headed {
		rationale = "headed"
	}
	if actual < rel {
		rationale += ", bear away"
	} else {
		rationale += ", luff up"
	}
	target := optimal(s.wind.Angle, s.tack, rel)
	return decision.Turning(target, angle.ShortestSide(s.boat.Heading, target), decision.Minor, rationale), true
}
