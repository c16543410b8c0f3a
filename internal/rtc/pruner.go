package rtc

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// PruneConfig sets the relay's expiry policy.
type PruneConfig struct {
	Interval       time.Duration
	ParticipantTTL time.Duration
	SignalTTL      time.Duration
}

// RunPruner prunes on every tick until ctx is done. Errors are logged and
// the next tick tries again.
func RunPruner(ctx context.Context, s *Store, cfg PruneConfig, log zerolog.Logger) {
	t := time.NewTicker(cfg.Interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			res, err := s.Prune(ctx, cfg.ParticipantTTL, cfg.SignalTTL)
			if err != nil {
				if ctx.Err() == nil {
					log.Warn().Err(err).Msg("pruning relay")
				}

				continue
			}

			if res.Participants > 0 || res.Signals > 0 {
				log.Debug().
					Int64("participants", res.Participants).
					Int64("signals", res.Signals).
					Msg("pruned relay")
			}
		}
	}
}
