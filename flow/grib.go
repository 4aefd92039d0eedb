package flow

import (
	"errors"
	"fmt"
	"io"

	"github.com/nilsmagnus/grib/griblib"
	log "github.com/sirupsen/logrus"

	"github.com/a-bouts/dinghy-sim/vector"
)

const metresPerSecondToKnots = 1.9438444924406

type gribGrid struct {
	nLat uint32
	nLon uint32
	u    [][]float64
	v    [][]float64
}

func (g gribGrid) buildGrid(data []float64) [][]float64 {
	grid := make([][]float64, g.nLat)

	p := 0
	for j := uint32(0); j < g.nLat; j++ {
		grid[j] = make([]float64, g.nLon)
		for i := uint32(0); i < g.nLon; i++ {
			grid[j][i] = data[p]
			p++
		}
	}
	return grid
}

// ReadGrib stretches the 10 m wind grid of a GRIB2 file over the display area
// and returns it as a Grid component at the given level.
// The first grid row is taken as the northern edge.
func ReadGrib(r io.Reader, display vector.Area, level int) (Component, error) {
	if err := display.Validate(); err != nil {
		return nil, err
	}

	messages, err := griblib.ReadMessages(r)
	if err != nil {
		return nil, fmt.Errorf("reading grib messages: %w", err)
	}

	var g gribGrid
	for _, message := range messages {
		if message.Section0.Discipline != uint8(0) ||
			message.Section4.ProductDefinitionTemplate.ParameterCategory != uint8(2) ||
			message.Section4.ProductDefinitionTemplate.FirstSurface.Type != 103 ||
			message.Section4.ProductDefinitionTemplate.FirstSurface.Value != 10 {
			continue
		}
		grid0, ok := message.Section3.Definition.(*griblib.Grid0)
		if !ok {
			continue
		}
		g.nLat = grid0.Nj
		g.nLon = grid0.Ni
		if len(message.Section7.Data) < int(g.nLat*g.nLon) {
			return nil, fmt.Errorf("grib message has %d values for a %dx%d grid", len(message.Section7.Data), g.nLon, g.nLat)
		}
		switch message.Section4.ProductDefinitionTemplate.ParameterNumber {
		case 2:
			g.u = g.buildGrid(message.Section7.Data)
		case 3:
			g.v = g.buildGrid(message.Section7.Data)
		}
	}

	if g.u == nil || g.v == nil {
		return nil, errors.New("grib file has no 10 m wind")
	}

	return g.component(display, level)
}

func (g gribGrid) component(display vector.Area, level int) (Component, error) {
	if g.nLat < 2 || g.nLon < 2 {
		return nil, fmt.Errorf("grib grid %dx%d is too small", g.nLon, g.nLat)
	}
	if len(g.u) != len(g.v) {
		return nil, errors.New("grib u and v grids differ")
	}

	rows := make([][]vector.SpeedVector, g.nLat)
	for j := uint32(0); j < g.nLat; j++ {
		rows[j] = make([]vector.SpeedVector, g.nLon)
		for i := uint32(0); i < g.nLon; i++ {
			// u/v blow towards, flows are stored as the direction they come from
			rows[j][i] = vector.SpeedFromComponents(-g.u[j][i]*metresPerSecondToKnots, -g.v[j][i]*metresPerSecondToKnots)
		}
	}

	log.Debugf("Read %dx%d grib grid over %s", g.nLon, g.nLat, display)

	return Grid{
		Scope: Scope{Name: "grib", Area: display, Level: level},
		Rows:  rows,
	}, nil
}
