package app

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Sweeper periodically evicts rooms that nobody is connected to.
type Sweeper struct {
	service  *RoomService
	interval time.Duration
	idleTTL  time.Duration
	log      logrus.FieldLogger
}

func NewSweeper(service *RoomService, interval, idleTTL time.Duration, logger logrus.FieldLogger) *Sweeper {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Sweeper{
		service:  service,
		interval: interval,
		idleTTL:  idleTTL,
		log:      logger.WithField("component", "sweeper"),
	}
}

// Run blocks until ctx is done. A non-positive interval disables sweeping.
func (w *Sweeper) Run(ctx context.Context) {
	if w.interval <= 0 || w.idleTTL <= 0 {
		w.log.Info("idle room sweep disabled")
		return
	}
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if evicted := w.service.EvictIdle(w.idleTTL); len(evicted) > 0 {
				w.log.WithField("rooms", len(evicted)).Info("evicted idle rooms")
			}
		}
	}
}
