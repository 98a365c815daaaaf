package janitor

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"socialhub/infrastructure/logger"
)

type TempSweeper interface {
	Sweep(maxAge time.Duration, now time.Time) (int, error)
}

type PendingSweeper interface {
	Sweep() int
}

// Janitor periodically removes abandoned staged media and expired OAuth
// flow state.
type Janitor struct {
	cron    *cron.Cron
	temp    TempSweeper
	pending PendingSweeper
	maxAge  time.Duration
	now     func() time.Time
}

// New schedules the sweep; pending may be nil when flow state lives in Redis.
func New(schedule string, maxAge time.Duration, temp TempSweeper, pending PendingSweeper) (*Janitor, error) {
	j := &Janitor{
		cron:    cron.New(),
		temp:    temp,
		pending: pending,
		maxAge:  maxAge,
		now:     time.Now,
	}
	if _, err := j.cron.AddFunc(schedule, j.RunOnce); err != nil {
		return nil, fmt.Errorf("janitor schedule %q: %w", schedule, err)
	}
	return j, nil
}

func (j *Janitor) RunOnce() {
	lg := logger.GetLogger()
	if j.temp != nil {
		removed, err := j.temp.Sweep(j.maxAge, j.now())
		if err != nil {
			lg.WithField("error", err).Error("Error while sweeping staged files")
		} else if removed > 0 {
			lg.WithField("removed", removed).Info("Removed stale staged files")
		}
	}
	if j.pending != nil {
		if removed := j.pending.Sweep(); removed > 0 {
			lg.WithField("removed", removed).Info("Removed expired oauth states")
		}
	}
}

func (j *Janitor) Start() {
	j.cron.Start()
}

// Stop waits for a running sweep to finish or ctx to end.
func (j *Janitor) Stop(ctx context.Context) {
	select {
	case <-j.cron.Stop().Done():
	case <-ctx.Done():
	}
}
