package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/veilcare/counsel-relay-go/internal/repository"
)

// LedgerSweepJob purges reconciled orphaned-pair incidents once they are
// older than the retention window.
type LedgerSweepJob struct {
	orphanRepo repository.OrphanedPairRepository
	retention  time.Duration
	interval   time.Duration
	done       chan struct{}
}

func NewLedgerSweepJob(orphanRepo repository.OrphanedPairRepository, retention, interval time.Duration) *LedgerSweepJob {
	return &LedgerSweepJob{
		orphanRepo: orphanRepo,
		retention:  retention,
		interval:   interval,
		done:       make(chan struct{}),
	}
}

func (j *LedgerSweepJob) Start() {
	go j.run()
	log.Info().Dur("interval", j.interval).Msg("ledger sweep job started")
}

func (j *LedgerSweepJob) Stop() {
	close(j.done)
	log.Info().Msg("ledger sweep job stopped")
}

func (j *LedgerSweepJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.sweep()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			j.sweep()
		}
	}
}

func (j *LedgerSweepJob) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cutoff := time.Now().Add(-j.retention)
	count, err := j.orphanRepo.DeleteReconciledBefore(ctx, cutoff)
	if err != nil {
		log.Error().Err(err).Msg("failed to sweep reconciled orphaned pairs")
	} else if count > 0 {
		log.Info().Int64("count", count).Msg("swept reconciled orphaned pairs")
	}
}
