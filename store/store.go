package store

import (
	"context"
	"fmt"

	"github.com/a-bouts/dinghy-sim/sim"
	"github.com/glebarez/sqlite"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Decision is a persisted decision log entry.
type Decision struct {
	ID         uint   `gorm:"primaryKey"`
	Run        int    `gorm:"index"`
	Boat       string `gorm:"index"`
	Seconds    float64
	Action     string
	Target     float64
	Side       string
	Importance string
	Rationale  string
}

// Position is a boat state at the end of a tick.
type Position struct {
	ID       uint   `gorm:"primaryKey"`
	Run      int    `gorm:"index"`
	Boat     string `gorm:"index"`
	Seconds  float64
	X        float64
	Y        float64
	Heading  float64
	Speed    float64
	Leg      int
	Finished bool
}

// Recorder writes simulation events to a SQLite database.
// A reset starts a new run.
type Recorder struct {
	db  *gorm.DB
	run int
}

func Open(path string) (*Recorder, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		SkipDefaultTransaction: true,
		CreateBatchSize:        500,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&Decision{}, &Position{}); err != nil {
		return nil, fmt.Errorf("migrating %s: %w", path, err)
	}

	r := &Recorder{db: db}
	var last struct{ Run int }
	if err := db.Model(&Position{}).Select("coalesce(max(run), 0) as run").Scan(&last).Error; err != nil {
		return nil, err
	}
	r.run = last.Run + 1

	log.WithFields(log.Fields{"path": path, "run": r.run}).Info("Recording simulation")
	return r, nil
}

func (r *Recorder) CurrentRun() int {
	return r.run
}

// Record stores the log entries and boat positions of one event.
func (r *Recorder) Record(ev sim.Event) error {
	if ev.Reset {
		r.run++
		return nil
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		if len(ev.Entries) > 0 {
			decisions := make([]Decision, len(ev.Entries))
			for i, e := range ev.Entries {
				decisions[i] = Decision{
					Run:        r.run,
					Boat:       e.Boat,
					Seconds:    e.Seconds,
					Action:     e.Decision.Action.String(),
					Target:     e.Decision.Target.Degrees(),
					Side:       e.Decision.Side.String(),
					Importance: e.Decision.Importance.String(),
					Rationale:  e.Decision.Rationale,
				}
			}
			if err := tx.Create(&decisions).Error; err != nil {
				return err
			}
		}

		if len(ev.Boats) == 0 {
			return nil
		}
		positions := make([]Position, len(ev.Boats))
		for i, b := range ev.Boats {
			positions[i] = Position{
				Run:      r.run,
				Boat:     b.ID,
				Seconds:  ev.Seconds,
				X:        b.Location.X,
				Y:        b.Location.Y,
				Heading:  b.Heading.Degrees(),
				Speed:    b.Speed,
				Leg:      b.Leg,
				Finished: b.Finished,
			}
		}
		return tx.Create(&positions).Error
	})
}

// Run records events until the channel is closed or ctx is done.
func (r *Recorder) Run(ctx context.Context, events <-chan sim.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := r.Record(ev); err != nil {
				log.WithError(err).WithField("seconds", ev.Seconds).Warn("Cannot record event")
			}
		}
	}
}

func (r *Recorder) Decisions(run int) ([]Decision, error) {
	var decisions []Decision
	err := r.db.Where("run = ?", run).Order("seconds, id").Find(&decisions).Error
	return decisions, err
}

func (r *Recorder) Positions(run int, boat string) ([]Position, error) {
	var positions []Position
	err := r.db.Where("run = ? AND boat = ?", run, boat).Order("seconds").Find(&positions).Error
	return positions, err
}

func (r *Recorder) Close() error {
	db, err := r.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}
