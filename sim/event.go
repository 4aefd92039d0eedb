package sim

import (
	"github.com/a-bouts/dinghy-sim/boat"
	"github.com/a-bouts/dinghy-sim/decision"
)

// Entry is a line of the decision log.
type Entry struct {
	Boat     string            `json:"boat"`
	Seconds  float64           `json:"seconds"`
	Decision decision.Decision `json:"decision"`
}

// Event is published after every completed tick and after a reset.
type Event struct {
	Seconds float64       `json:"seconds"`
	Boats   []boat.Status `json:"boats"`
	// Entries are the log lines added by this tick.
	Entries []Entry `json:"entries,omitempty"`
	// Finished lists the boats that finished during this tick.
	Finished []string `json:"finished,omitempty"`
	Reset    bool     `json:"reset,omitempty"`
	Err      string   `json:"error,omitempty"`
}
