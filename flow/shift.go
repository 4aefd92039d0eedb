package flow

import (
	"fmt"
	"math"
)

type Waveform int

const (
	Sinusoidal Waveform = iota
	Triangular
)

func ParseWaveform(s string) (Waveform, error) {
	switch s {
	case "", "sine", "sinusoidal":
		return Sinusoidal, nil
	case "triangle", "triangular":
		return Triangular, nil
	}
	return Sinusoidal, fmt.Errorf("unknown waveform '%s'", s)
}

// Shift oscillates the flow direction with the simulation time.
// Amplitude is in degrees and Period in seconds; a zero amplitude disables it.
type Shift struct {
	Amplitude float64  `json:"amplitude"`
	Period    float64  `json:"period"`
	Waveform  Waveform `json:"waveform"`
}

func (s Shift) Validate() error {
	if s.Amplitude != 0 && s.Period <= 0 {
		return fmt.Errorf("shift of %.1f° needs a positive period, got %f", s.Amplitude, s.Period)
	}
	return nil
}

// Delta returns the angle, in degrees, added to the flow after the given seconds.
func (s Shift) Delta(seconds float64) float64 {
	if s.Amplitude == 0 || s.Period <= 0 {
		return 0
	}

	phase := seconds / s.Period
	phase -= math.Floor(phase)

	switch s.Waveform {
	case Triangular:
		var tri float64
		if phase < 0.25 {
			tri = 4 * phase
		} else if phase < 0.75 {
			tri = 2 - 4*phase
		} else {
			tri = 4*phase - 4
		}
		return s.Amplitude * tri
	default:
		return s.Amplitude * math.Sin(2*math.Pi*phase)
	}
}
