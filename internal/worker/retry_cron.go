package worker

// retry_cron.go
// Background goroutine that re-attempts reports left in statut='echec' with
// a next_retry_at in the past. Skips whole ticks while the SMTP circuit is open.

import (
	"context"
	"time"

	"pvcaisse/internal/infra"
	"pvcaisse/internal/repository"

	"github.com/rs/zerolog/log"
)

const (
	retryTickInterval = 30 * time.Second
	retryBatchSize    = 10
)

// RetryCronConfig holds all dependencies for the retry goroutine.
type RetryCronConfig struct {
	Rapports repository.RapportRepository
	Worker   *RapportWorker
	CB       *infra.CircuitBreaker
}

// StartRetryCron ticks every 30s until ctx is cancelled.
func StartRetryCron(ctx context.Context, cfg RetryCronConfig) {
	go func() {
		ticker := time.NewTicker(retryTickInterval)
		defer ticker.Stop()

		log.Info().Msg("retry_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("retry_cron: shutting down")
				return
			case <-ticker.C:
				processRetries(ctx, cfg, time.Now())
			}
		}
	}()
}

func processRetries(ctx context.Context, cfg RetryCronConfig, now time.Time) {
	if cfg.CB.State() == infra.CBOpen {
		log.Debug().Msg("retry_cron: circuit breaker is open, skipping tick")
		return
	}

	rapports, err := cfg.Rapports.ListPendingRetries(ctx, now, retryBatchSize)
	if err != nil {
		log.Error().Err(err).Msg("retry_cron: failed to query pending retries")
		return
	}
	if len(rapports) == 0 {
		return
	}

	log.Info().Int("count", len(rapports)).Msg("retry_cron: processing pending rapports")

	for i := range rapports {
		// it may have tripped mid-batch
		if cfg.CB.State() == infra.CBOpen {
			log.Debug().Msg("retry_cron: circuit breaker opened mid-batch, stopping")
			return
		}
		_ = cfg.Worker.Envoyer(ctx, &rapports[i])
	}
}
