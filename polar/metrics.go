package polar

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
)

// Metrics are the constants of a boat class.
type Metrics struct {
	Name   string  `json:"label"`
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	// Inertia is the fraction of the gap to the potential speed closed each second.
	Inertia float64 `json:"inertia"`
	// MaxTurnRate is in degrees per second.
	MaxTurnRate float64 `json:"maxTurnRate"`
	// UpwindAngle is the close hauled angle to the wind.
	UpwindAngle float64 `json:"upwindAngle"`
	// DownwindAngle is the angle to the wind sailed when gybing downwind.
	DownwindAngle float64 `json:"downwindAngle"`
	Table         *Table  `json:"-"`
}

func (m *Metrics) Validate() error {
	if m.Inertia <= 0 || m.Inertia > 1 {
		return fmt.Errorf("boat '%s': inertia %f not in (0, 1]", m.Name, m.Inertia)
	}
	if m.MaxTurnRate <= 0 {
		return fmt.Errorf("boat '%s': max turn rate must be positive", m.Name)
	}
	if m.UpwindAngle <= 0 || m.UpwindAngle >= m.DownwindAngle || m.DownwindAngle >= 180 {
		return fmt.Errorf("boat '%s': expected 0 < upwind angle (%.1f) < downwind angle (%.1f) < 180", m.Name, m.UpwindAngle, m.DownwindAngle)
	}
	if m.Length <= 0 || m.Width <= 0 {
		return fmt.Errorf("boat '%s': hull dimensions must be positive", m.Name)
	}
	if m.Table == nil {
		return fmt.Errorf("boat '%s': %w", m.Name, errors.New("missing performance table"))
	}
	return nil
}

type polarFile struct {
	Metrics
	Tws   []float64   `json:"tws"`
	Twa   []float64   `json:"twa"`
	Speed [][]float64 `json:"speed"`
}

// Load reads a boat class from a JSON polar file.
func Load(path string) (*Metrics, error) {
	log.Infof("Load %s", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return Parse(data)
}

func Parse(data []byte) (*Metrics, error) {
	var f polarFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decoding polar: %w", err)
	}

	t, err := NewTable(f.Tws, f.Twa, f.Speed)
	if err != nil {
		return nil, fmt.Errorf("boat '%s': %w", f.Name, err)
	}

	m := f.Metrics
	m.Table = t
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}
