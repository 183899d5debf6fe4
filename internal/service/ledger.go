package service

import (
	"context"

	"github.com/rs/zerolog/log"

	apperrors "github.com/veilcare/counsel-relay-go/internal/errors"
	"github.com/veilcare/counsel-relay-go/internal/model"
	"github.com/veilcare/counsel-relay-go/internal/repository"
)

// Ledger is the reconciliation surface for orphaned channel pairs.
type Ledger struct {
	repo repository.OrphanedPairRepository
}

func NewLedger(repo repository.OrphanedPairRepository) *Ledger {
	return &Ledger{repo: repo}
}

func (l *Ledger) Record(ctx context.Context, params model.CreateOrphanedPairParams) error {
	incident, err := l.repo.Create(ctx, params)
	if err != nil {
		return apperrors.Database(err)
	}

	log.Warn().
		Str("incidentId", incident.ID).
		Int64("userChannelId", params.UserChannelID).
		Int64("counselorChannelId", params.CounselorChannelID).
		Msg("orphaned channel pair recorded for reconciliation")
	return nil
}

func (l *Ledger) ListUnreconciled(ctx context.Context, limit int) ([]model.OrphanedPair, error) {
	pairs, err := l.repo.ListUnreconciled(ctx, limit)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return pairs, nil
}

func (l *Ledger) MarkReconciled(ctx context.Context, id string) error {
	pair, err := l.repo.FindByID(ctx, id)
	if err != nil {
		return apperrors.Database(err)
	}
	if pair == nil {
		return apperrors.NotFound("orphaned pair")
	}

	if err := l.repo.MarkReconciled(ctx, id); err != nil {
		return apperrors.Database(err)
	}

	log.Info().Str("incidentId", id).Msg("orphaned pair reconciled")
	return nil
}
