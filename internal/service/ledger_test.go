package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/veilcare/counsel-relay-go/internal/errors"
	"github.com/veilcare/counsel-relay-go/internal/model"
)

type mockOrphanRepo struct {
	mock.Mock
}

func (m *mockOrphanRepo) Create(ctx context.Context, params model.CreateOrphanedPairParams) (*model.OrphanedPair, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OrphanedPair), args.Error(1)
}

func (m *mockOrphanRepo) FindByID(ctx context.Context, id string) (*model.OrphanedPair, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OrphanedPair), args.Error(1)
}

func (m *mockOrphanRepo) ListUnreconciled(ctx context.Context, limit int) ([]model.OrphanedPair, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.OrphanedPair), args.Error(1)
}

func (m *mockOrphanRepo) MarkReconciled(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockOrphanRepo) DeleteReconciledBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

func TestLedgerRecord(t *testing.T) {
	params := model.CreateOrphanedPairParams{
		UserAlias:          "anon-1",
		CounselorID:        1,
		UserChannelID:      200,
		CounselorChannelID: 100,
		FailureReason:      "core api returned status 500",
	}

	t.Run("persists the incident", func(t *testing.T) {
		repo := new(mockOrphanRepo)
		repo.On("Create", mock.Anything, params).Return(&model.OrphanedPair{ID: "inc-1"}, nil)

		require.NoError(t, NewLedger(repo).Record(context.Background(), params))
		repo.AssertExpectations(t)
	})

	t.Run("wraps a database failure", func(t *testing.T) {
		repo := new(mockOrphanRepo)
		repo.On("Create", mock.Anything, params).Return(nil, assert.AnError)

		err := NewLedger(repo).Record(context.Background(), params)
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeDatabase, apperrors.GetCode(err))
	})
}

func TestLedgerMarkReconciled(t *testing.T) {
	t.Run("marks a known incident", func(t *testing.T) {
		repo := new(mockOrphanRepo)
		repo.On("FindByID", mock.Anything, "inc-1").Return(&model.OrphanedPair{ID: "inc-1"}, nil)
		repo.On("MarkReconciled", mock.Anything, "inc-1").Return(nil)

		require.NoError(t, NewLedger(repo).MarkReconciled(context.Background(), "inc-1"))
		repo.AssertExpectations(t)
	})

	t.Run("unknown incident is NOT_FOUND, nothing marked", func(t *testing.T) {
		repo := new(mockOrphanRepo)
		repo.On("FindByID", mock.Anything, "missing").Return(nil, nil)

		err := NewLedger(repo).MarkReconciled(context.Background(), "missing")
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.GetCode(err))
		repo.AssertNotCalled(t, "MarkReconciled", mock.Anything, mock.Anything)
	})

	t.Run("wraps a lookup failure", func(t *testing.T) {
		repo := new(mockOrphanRepo)
		repo.On("FindByID", mock.Anything, "inc-1").Return(nil, assert.AnError)

		err := NewLedger(repo).MarkReconciled(context.Background(), "inc-1")
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeDatabase, apperrors.GetCode(err))
	})
}
