package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/certiva/certiva-backend/internal/service"
)

const DeadlineSweepBatch = 100

// DeadlineWorker periodically sweeps for IN_PROGRESS sessions whose
// deadline has passed and force-submits them. It is a recovery path, not
// the primary mechanism: any API access to an overdue session settles it
// lazily, and the idempotent submit makes the race between sweep and API
// harmless. One ticker covers every session, no per-session timers.
type DeadlineWorker struct {
	sessions *service.SessionService
	interval time.Duration
	log      zerolog.Logger
}

func NewDeadlineWorker(sessions *service.SessionService, interval time.Duration, log zerolog.Logger) *DeadlineWorker {
	return &DeadlineWorker{
		sessions: sessions,
		interval: interval,
		log:      log.With().Str("component", "deadline_worker").Logger(),
	}
}

func (w *DeadlineWorker) Start(ctx context.Context) {
	w.log.Info().Dur("interval", w.interval).Msg("DeadlineWorker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *DeadlineWorker) sweep(ctx context.Context) {
	ids, err := w.sessions.ListOverdue(ctx, DeadlineSweepBatch)
	if err != nil {
		w.log.Error().Err(err).Msg("Overdue scan failed")
		return
	}
	if len(ids) == 0 {
		return
	}

	submitted := 0
	for _, id := range ids {
		if _, err := w.sessions.ForceSubmit(ctx, id); err != nil {
			// Losing the race to an API caller is fine; anything else is not.
			w.log.Warn().Err(err).Str("session_id", id.String()).Msg("Force submit failed")
			continue
		}
		submitted++
	}

	w.log.Info().
		Int("overdue", len(ids)).
		Int("submitted", submitted).
		Msg("Deadline sweep complete")
}
