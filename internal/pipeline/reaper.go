package pipeline

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"github.com/user/vidscript-go/internal/config"
	"github.com/user/vidscript-go/internal/store"
)

// Reaper periodically fails processing jobs that outlived their deadline.
// Jobs orphaned by a host restart would otherwise stay in processing forever.
type Reaper struct {
	store      store.Store
	staleAfter time.Duration
	cron       *cron.Cron
}

// NewReaper creates a reaper sweeping on the configured cron schedule
func NewReaper(st store.Store, cfg *config.JobsConfig) (*Reaper, error) {
	r := &Reaper{
		store:      st,
		staleAfter: cfg.StaleAfter,
		cron:       cron.New(),
	}
	if _, err := r.cron.AddFunc(cfg.ReaperSchedule, r.sweep); err != nil {
		return nil, err
	}
	return r, nil
}

// Start begins the periodic sweep
func (r *Reaper) Start() {
	r.cron.Start()
}

// Stop halts scheduling and waits for a running sweep to finish
func (r *Reaper) Stop() {
	<-r.cron.Stop().Done()
}

// Sweep fails all processing jobs created before the staleness cutoff and
// returns how many were affected
func (r *Reaper) Sweep(ctx context.Context) (int64, error) {
	cutoff := time.Now().Add(-r.staleAfter)
	reaped, err := r.store.FailStaleProcessing(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if reaped > 0 {
		staleJobsReaped.Add(float64(reaped))
		log.Warn().Int64("count", reaped).Msg("Failed stale processing jobs")
	}
	return reaped, nil
}

func (r *Reaper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if _, err := r.Sweep(ctx); err != nil {
		log.Error().Err(err).Msg("Stale job sweep failed")
	}
}
