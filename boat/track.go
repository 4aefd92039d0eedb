package boat

import (
	"sync"

	"github.com/a-bouts/dinghy-sim/vector"
)

// Track is the append-only history of a boat's locations.
// Readers get copies and may run concurrently with the writer.
type Track struct {
	sync.RWMutex
	points []vector.Location
}

func (t *Track) Append(l vector.Location) {
	t.Lock()
	defer t.Unlock()
	t.points = append(t.points, l)
}

func (t *Track) Points() []vector.Location {
	t.RLock()
	defer t.RUnlock()
	points := make([]vector.Location, len(t.points))
	copy(points, t.points)
	return points
}

func (t *Track) Len() int {
	t.RLock()
	defer t.RUnlock()
	return len(t.points)
}

func (t *Track) reset(l vector.Location) {
	t.Lock()
	defer t.Unlock()
	t.points = []vector.Location{l}
}
