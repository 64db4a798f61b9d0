package scheduler

import (
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/PrairieAster-Ai/nearest-nice-weather-sub005/internal/weather"
)

// Janitor periodically sweeps cache entries whose staleness window has
// closed and logs budget consumption, so unqueried keys do not sit in memory
// until LRU pressure reaches them.
type Janitor struct {
	scheduler *gocron.Scheduler
	cache     *weather.Cache
	budget    *weather.RateBudget
	interval  time.Duration
}

// New creates a Janitor.
func New(cache *weather.Cache, budget *weather.RateBudget, interval time.Duration) *Janitor {
	s := gocron.NewScheduler(time.UTC)
	return &Janitor{
		scheduler: s,
		cache:     cache,
		budget:    budget,
		interval:  interval,
	}
}

// Start schedules the periodic sweep and starts the underlying scheduler.
func (j *Janitor) Start() error {
	minutes := int(j.interval.Minutes())
	if minutes <= 0 {
		minutes = 10
	}

	_, err := j.scheduler.Every(minutes).Minutes().Do(func() {
		removed := j.cache.SweepExpired()
		log.Printf("janitor: swept %d expired cache entries; budget used %d, remaining %d (window %s)",
			removed, j.budget.Used(), j.budget.Remaining(),
			j.budget.WindowStart().Format("2006-01-02"))
	})
	if err != nil {
		return err
	}

	j.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future sweeps.
func (j *Janitor) Stop() {
	if j.scheduler != nil {
		j.scheduler.Stop()
	}
}
