package bridge

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/mhacwifi/internal/logging"
)

// pollLoop refreshes the accessory state until ctx is cancelled
func (s *Server) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	s.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.poll(ctx)
		}
	}
}

// poll reads every characteristic once and broadcasts the changed ones
func (s *Server) poll(ctx context.Context) {
	pollCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	state, err := s.accessory.Snapshot(pollCtx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		logging.Warn("Poll failed", zap.Error(err))
		if s.registry != nil {
			s.registry.Metrics.PollFailed()
		}
		return
	}

	if s.registry != nil {
		for name, value := range state.Values {
			s.registry.Metrics.CharacteristicValue(name, value)
		}
	}

	changed := s.hub.apply(state.Values)
	if len(changed) > 0 {
		logging.Debug("Characteristics changed", zap.Int("count", len(changed)))
		s.hub.broadcast(changed...)
	}
}
