package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/a-bouts/dinghy-sim/angle"
	"github.com/a-bouts/dinghy-sim/boat"
	"github.com/a-bouts/dinghy-sim/flow"
	"github.com/a-bouts/dinghy-sim/polar"
	"github.com/a-bouts/dinghy-sim/race"
	"github.com/a-bouts/dinghy-sim/sim"
	"github.com/a-bouts/dinghy-sim/tactics"
	"github.com/a-bouts/dinghy-sim/vector"
	log "github.com/sirupsen/logrus"
	yaml "gopkg.in/yaml.v2"
)

type Scenario struct {
	Name    string          `yaml:"name"`
	Display vector.Area     `yaml:"display"`
	Options sim.Options     `yaml:"options"`
	Tactics *tactics.Config `yaml:"tactics"`
	Wind    Field           `yaml:"wind"`
	Water   *Field          `yaml:"water"`
	Course  Course          `yaml:"course"`
	Boats   []Boat          `yaml:"boats"`

	// dir resolves the relative paths of polar and GRIB files.
	dir string
}

type Field struct {
	Shift      Shift       `yaml:"shift"`
	Grib       *Grib       `yaml:"grib"`
	Components []Component `yaml:"components"`
}

type Shift struct {
	Amplitude float64 `yaml:"amplitude"`
	Period    float64 `yaml:"period"`
	Waveform  string  `yaml:"waveform"`
}

type Grib struct {
	File  string `yaml:"file"`
	Level int    `yaml:"level"`
}

type Flow struct {
	Speed float64     `yaml:"speed"`
	Angle angle.Angle `yaml:"angle"`
}

func (f *Flow) vector() vector.SpeedVector {
	if f == nil {
		return vector.SpeedVector{}
	}
	return vector.SpeedVector{Speed: f.Speed, Angle: f.Angle}
}

type Component struct {
	Name  string      `yaml:"name"`
	Kind  flow.Kind   `yaml:"kind"`
	Level int         `yaml:"level"`
	Area  vector.Area `yaml:"area"`

	Flow *Flow  `yaml:"flow"`
	From *Flow  `yaml:"from"`
	To   *Flow  `yaml:"to"`
	Axis string `yaml:"axis"`
	SW   *Flow  `yaml:"sw"`
	SE   *Flow  `yaml:"se"`
	NW   *Flow  `yaml:"nw"`
	NE   *Flow  `yaml:"ne"`
}

type Mark struct {
	Name     string          `yaml:"name"`
	Location vector.Location `yaml:"location"`
	Rounding angle.Side      `yaml:"rounding"`
}

type Course struct {
	Start vector.Location `yaml:"start"`
	Marks []Mark          `yaml:"marks"`
}

type Boat struct {
	ID      string          `yaml:"id"`
	Polar   string          `yaml:"polar"`
	Start   vector.Location `yaml:"start"`
	Heading angle.Angle     `yaml:"heading"`
}

// Load reads a scenario file.
func Load(path string) (*Scenario, error) {
	log.Infof("Load scenario %s", path)

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := Parse(content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	s.dir = filepath.Dir(path)
	return s, nil
}

func Parse(content []byte) (*Scenario, error) {
	s := &Scenario{dir: "."}
	if err := yaml.UnmarshalStrict(content, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scenario) path(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(s.dir, p)
}

// Build validates the scenario and assembles a simulation clock.
func (s *Scenario) Build() (*sim.Clock, error) {
	cfg := tactics.DefaultConfig()
	if s.Tactics != nil {
		cfg = *s.Tactics
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	wind, err := s.field(s.Wind)
	if err != nil {
		return nil, fmt.Errorf("wind: %w", err)
	}
	var water *flow.Field
	if s.Water != nil {
		if water, err = s.field(*s.Water); err != nil {
			return nil, fmt.Errorf("water: %w", err)
		}
	}

	course, err := s.course()
	if err != nil {
		return nil, err
	}

	polars := map[string]*polar.Metrics{}
	boats := make([]*sim.Boat, 0, len(s.Boats))
	for _, b := range s.Boats {
		if b.ID == "" {
			return nil, fmt.Errorf("boat without id")
		}
		m, ok := polars[b.Polar]
		if !ok {
			if m, err = polar.Load(s.path(b.Polar)); err != nil {
				return nil, fmt.Errorf("boat '%s': %w", b.ID, err)
			}
			polars[b.Polar] = m
		}
		boats = append(boats, &sim.Boat{State: boat.NewState(b.ID, b.Start, b.Heading), Metrics: m})
	}

	return sim.New(wind, water, course, tactics.NewEngine(cfg), boats, s.Options)
}

func (s *Scenario) course() (*race.Course, error) {
	marks := make([]race.Mark, len(s.Course.Marks))
	sides := make([]angle.Side, len(s.Course.Marks))
	for i, m := range s.Course.Marks {
		marks[i] = race.Mark{Name: m.Name, Location: m.Location}
		sides[i] = m.Rounding
	}
	return race.NewCourse(s.Course.Start, marks, sides)
}

func (s *Scenario) field(f Field) (*flow.Field, error) {
	waveform, err := flow.ParseWaveform(f.Shift.Waveform)
	if err != nil {
		return nil, err
	}
	shift := flow.Shift{Amplitude: f.Shift.Amplitude, Period: f.Shift.Period, Waveform: waveform}

	components := make([]flow.Component, 0, len(f.Components)+1)
	if f.Grib != nil {
		c, err := s.grib(*f.Grib)
		if err != nil {
			return nil, err
		}
		components = append(components, c)
	}
	for _, c := range f.Components {
		fc, err := c.component()
		if err != nil {
			return nil, err
		}
		components = append(components, fc)
	}

	return flow.NewField(s.Display, shift, components...)
}

func (s *Scenario) grib(g Grib) (flow.Component, error) {
	f, err := os.Open(s.path(g.File))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return flow.ReadGrib(f, s.Display, g.Level)
}

func parseAxis(s string) (flow.Axis, error) {
	switch s {
	case "", "auto":
		return flow.AxisAuto, nil
	case "x":
		return flow.AxisX, nil
	case "y":
		return flow.AxisY, nil
	}
	return flow.AxisAuto, fmt.Errorf("unknown axis '%s'", s)
}

func (c Component) component() (flow.Component, error) {
	scope := flow.Scope{Name: c.Name, Area: c.Area, Level: c.Level}

	switch c.Kind {
	case flow.KindConstant:
		if c.Flow == nil {
			return nil, fmt.Errorf("component '%s': missing flow", c.Name)
		}
		return flow.Constant{Scope: scope, Flow: c.Flow.vector()}, nil
	case flow.KindGradient:
		if c.From == nil || c.To == nil {
			return nil, fmt.Errorf("component '%s': missing from or to", c.Name)
		}
		axis, err := parseAxis(c.Axis)
		if err != nil {
			return nil, fmt.Errorf("component '%s': %w", c.Name, err)
		}
		return flow.Gradient{Scope: scope, From: c.From.vector(), To: c.To.vector(), Axis: axis}, nil
	case flow.KindComplex:
		if c.SW == nil || c.SE == nil || c.NW == nil || c.NE == nil {
			return nil, fmt.Errorf("component '%s': missing corner", c.Name)
		}
		return flow.Complex{Scope: scope, SW: c.SW.vector(), SE: c.SE.vector(), NW: c.NW.vector(), NE: c.NE.vector()}, nil
	}
	return nil, fmt.Errorf("component '%s': unknown kind '%s'", c.Name, c.Kind)
}
