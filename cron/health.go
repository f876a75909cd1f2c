package cron

import (
	"context"

	"appointly/utils"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// StartHealthMonitor pings MongoDB and Redis on spec and stores the result
// for the health endpoint. The first check runs immediately.
func StartHealthMonitor(spec string, mongo, redis utils.Pinger, logger *zap.Logger) (*cron.Cron, error) {
	check := func() {
		status := utils.CheckHealth(context.Background(), mongo, redis)
		if !status.Healthy() {
			logger.Warn("Dependency health check failed",
				zap.Bool("mongo", status.Mongo), zap.Bool("redis", status.Redis))
		}
	}

	c := cron.New()
	if _, err := c.AddFunc(spec, check); err != nil {
		return nil, err
	}
	check()
	c.Start()
	return c, nil
}
