package utils

import (
	"time"

	"gemhall/internal/session"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// CronCleaner sweeps rooms past their lifetime once an hour. Age is measured
// from creation, so even an active room ends within the bound.
func CronCleaner(registry *session.Registry, maxAge time.Duration, logger *zap.Logger) {
	c := cron.New()

	c.AddFunc("@every 1h", func() {
		removed := registry.SweepExpired(maxAge)
		if removed > 0 {
			logger.Info("Swept expired rooms",
				zap.Int("removed", removed),
				zap.Int("remaining", registry.Count()),
			)
		}
	})

	c.Start()
}
