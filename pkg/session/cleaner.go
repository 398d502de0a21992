package session

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// DefaultCleanupSchedule sweeps once an hour
const DefaultCleanupSchedule = "@hourly"

// Cleaner runs CleanupExpired on a cron schedule. The after-login
// opportunistic sweep already bounds stale rows under normal traffic;
// the cleaner additionally bounds them when no logins happen for a
// long time.
type Cleaner struct {
	registry *Registry
	cron     *cron.Cron
	schedule string
	log      *logrus.Entry
}

// NewCleaner creates a cleaner with the given cron schedule spec
// (e.g. "@hourly" or "*/30 * * * *")
func NewCleaner(registry *Registry, schedule string) *Cleaner {
	if schedule == "" {
		schedule = DefaultCleanupSchedule
	}
	return &Cleaner{
		registry: registry,
		cron:     cron.New(),
		schedule: schedule,
		log:      logrus.WithField("component", "session-cleaner"),
	}
}

// Start registers the sweep job and starts the scheduler
func (c *Cleaner) Start() error {
	_, err := c.cron.AddFunc(c.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		removed, err := c.registry.CleanupExpired(ctx)
		if err != nil {
			c.log.WithError(err).Warn("session sweep failed")
			return
		}
		if removed > 0 {
			c.log.WithField("removed", removed).Info("swept expired sessions")
		}
	})
	if err != nil {
		return fmt.Errorf("scheduling session cleanup: %w", err)
	}
	c.cron.Start()
	return nil
}

// Stop halts the scheduler, waiting for a running sweep to finish or
// the context to expire.
func (c *Cleaner) Stop(ctx context.Context) error {
	select {
	case <-c.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
