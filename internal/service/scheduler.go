package service

import (
	"context"
	"errors"
	"time"

	"github.com/spiffcs/prwatch/internal/constants"
	"github.com/spiffcs/prwatch/internal/log"
)

// Run refreshes immediately and then on every refresh interval until ctx is
// done. UpdateSettings restarts the interval.
func (s *Service) Run(ctx context.Context) error {
	s.refreshLogged(ctx)

	ticker := time.NewTicker(s.interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.reset:
			ticker.Reset(s.interval())
			log.Debug("refresh timer restarted", "interval", s.interval())
		case <-ticker.C:
			s.refreshLogged(ctx)
		}
	}
}

func (s *Service) interval() time.Duration {
	d := s.Settings().RefreshInterval
	if d <= 0 {
		return constants.DefaultRefreshIntervalMinutes * time.Minute
	}
	return d
}

func (s *Service) refreshLogged(ctx context.Context) {
	err := s.Refresh(ctx)
	switch {
	case err == nil:
	case errors.Is(err, ErrRefreshInProgress):
		log.Debug("skipping scheduled refresh", "reason", err)
	case ctx.Err() != nil:
	default:
		// Already recorded in the snapshot.
		log.Debug("scheduled refresh failed", "error", err)
	}
}
