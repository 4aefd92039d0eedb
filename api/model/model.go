package model

import (
	"github.com/a-bouts/dinghy-sim/race"
	"github.com/a-bouts/dinghy-sim/vector"
)

type Flow struct {
	Location vector.Location    `json:"location"`
	Wind     vector.SpeedVector `json:"wind"`
	Water    vector.SpeedVector `json:"water"`
}

type Course struct {
	Marks []race.Mark `json:"marks"`
	Legs  []race.Leg  `json:"legs"`
}

type Track struct {
	Boat   string            `json:"boat"`
	Points []vector.Location `json:"points"`
}

type Tick struct {
	Count int `json:"count"`
}

type Status struct {
	Running bool    `json:"running"`
	Seconds float64 `json:"seconds"`
	Error   string  `json:"error,omitempty"`
}
