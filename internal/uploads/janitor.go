package uploads

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

const (
	DefaultSweepSchedule = "@every 10m"
	DefaultMaxAge        = time.Hour
)

// Janitor periodically removes spool files left behind by aborted requests.
type Janitor struct {
	dir      string
	maxAge   time.Duration
	schedule string

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
	logger  zerolog.Logger
	now     func() time.Time
}

// NewJanitor validates schedule and prepares a janitor for dir.
func NewJanitor(dir, schedule string, maxAge time.Duration, logger zerolog.Logger) (*Janitor, error) {
	if schedule == "" {
		schedule = DefaultSweepSchedule
	}
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}

	j := &Janitor{
		dir:      dir,
		maxAge:   maxAge,
		schedule: schedule,
		cron:     cron.New(),
		logger:   logger.With().Str("component", "uploads-janitor").Logger(),
		now:      time.Now,
	}

	if _, err := j.cron.AddFunc(schedule, j.run); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	return j, nil
}

func (j *Janitor) run() {
	removed, err := j.Sweep()
	if err != nil {
		j.logger.Error().Err(err).Msg("Upload sweep failed")
		return
	}
	if removed > 0 {
		j.logger.Info().Int("removed", removed).Msg("Stale uploads removed")
	}
}

// Sweep removes spool files older than the configured max age and returns how many went.
func (j *Janitor) Sweep() (int, error) {
	entries, err := os.ReadDir(j.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read spool dir: %w", err)
	}

	cutoff := j.now().Add(-j.maxAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), filePrefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(j.dir, entry.Name())
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			j.logger.Warn().Err(err).Str("path", path).Msg("Failed to remove stale upload")
			continue
		}
		removed++
	}
	return removed, nil
}

// Start starts the sweep schedule.
func (j *Janitor) Start() {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.running {
		return
	}
	j.running = true
	j.cron.Start()
	j.logger.Info().Str("schedule", j.schedule).Dur("max_age", j.maxAge).Msg("Upload janitor started")
}

// Stop stops the schedule and returns a context that is done once a running sweep finishes.
func (j *Janitor) Stop() context.Context {
	j.mu.Lock()
	defer j.mu.Unlock()
	if !j.running {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		return ctx
	}
	j.running = false
	return j.cron.Stop()
}
