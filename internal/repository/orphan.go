package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/veilcare/counsel-relay-go/internal/model"
)

// OrphanedPairRepository persists provisioned channel pairs whose routing
// registration failed, so operators can reconcile them.
type OrphanedPairRepository interface {
	Create(ctx context.Context, params model.CreateOrphanedPairParams) (*model.OrphanedPair, error)
	FindByID(ctx context.Context, id string) (*model.OrphanedPair, error)
	ListUnreconciled(ctx context.Context, limit int) ([]model.OrphanedPair, error)
	MarkReconciled(ctx context.Context, id string) error
	DeleteReconciledBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type orphanedPairRepo struct {
	db *sqlx.DB
}

func NewOrphanedPairRepository(db *sqlx.DB) OrphanedPairRepository {
	return &orphanedPairRepo{db: db}
}

func (r *orphanedPairRepo) Create(ctx context.Context, params model.CreateOrphanedPairParams) (*model.OrphanedPair, error) {
	var op model.OrphanedPair
	err := r.db.GetContext(ctx, &op, `
		INSERT INTO orphaned_pairs (id, user_alias, counselor_id, user_channel_id, counselor_channel_id, failure_reason)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING *
	`, uuid.NewString(), params.UserAlias, params.CounselorID, params.UserChannelID, params.CounselorChannelID, params.FailureReason)
	if err != nil {
		return nil, err
	}
	return &op, nil
}

func (r *orphanedPairRepo) FindByID(ctx context.Context, id string) (*model.OrphanedPair, error) {
	var op model.OrphanedPair
	err := r.db.GetContext(ctx, &op, `
		SELECT * FROM orphaned_pairs WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &op, nil
}

func (r *orphanedPairRepo) ListUnreconciled(ctx context.Context, limit int) ([]model.OrphanedPair, error) {
	var pairs []model.OrphanedPair
	err := r.db.SelectContext(ctx, &pairs, `
		SELECT * FROM orphaned_pairs
		WHERE reconciled_at IS NULL
		ORDER BY created_at ASC
		LIMIT $1
	`, limit)
	return pairs, err
}

func (r *orphanedPairRepo) MarkReconciled(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE orphaned_pairs SET reconciled_at = NOW()
		WHERE id = $1 AND reconciled_at IS NULL
	`, id)
	return err
}

func (r *orphanedPairRepo) DeleteReconciledBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM orphaned_pairs
		WHERE reconciled_at IS NOT NULL AND reconciled_at < $1
	`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
