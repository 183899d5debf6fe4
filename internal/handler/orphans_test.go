package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	apperrors "github.com/veilcare/counsel-relay-go/internal/errors"
	"github.com/veilcare/counsel-relay-go/internal/model"
)

type mockOrphanLedger struct {
	mock.Mock
}

func (m *mockOrphanLedger) ListUnreconciled(ctx context.Context, limit int) ([]model.OrphanedPair, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.OrphanedPair), args.Error(1)
}

func (m *mockOrphanLedger) MarkReconciled(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func orphanRouter(ledger *mockOrphanLedger) *chi.Mux {
	h := NewOrphanHandler(ledger)
	r := chi.NewRouter()
	r.Get("/internal/orphans", h.List)
	r.Post("/internal/orphans/{id}/reconcile", h.Reconcile)
	return r
}

func TestOrphanList(t *testing.T) {
	t.Run("lists open incidents with the default page size", func(t *testing.T) {
		ledger := new(mockOrphanLedger)
		ledger.On("ListUnreconciled", mock.Anything, 50).Return([]model.OrphanedPair{
			{ID: "inc-1", UserAlias: "anon-1", CounselorID: 1, UserChannelID: 200, CounselorChannelID: 100},
		}, nil)

		rec := httptest.NewRecorder()
		orphanRouter(ledger).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/internal/orphans", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"inc-1"`)
		ledger.AssertExpectations(t)
	})

	t.Run("caps an oversized limit", func(t *testing.T) {
		ledger := new(mockOrphanLedger)
		ledger.On("ListUnreconciled", mock.Anything, 200).Return([]model.OrphanedPair(nil), nil)

		rec := httptest.NewRecorder()
		orphanRouter(ledger).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/internal/orphans?limit=9999", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"orphans":[]}`, rec.Body.String())
		ledger.AssertExpectations(t)
	})

	t.Run("rejects a malformed limit", func(t *testing.T) {
		ledger := new(mockOrphanLedger)

		rec := httptest.NewRecorder()
		orphanRouter(ledger).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/internal/orphans?limit=abc", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		ledger.AssertNotCalled(t, "ListUnreconciled", mock.Anything, mock.Anything)
	})

	t.Run("maps a ledger failure to 500", func(t *testing.T) {
		ledger := new(mockOrphanLedger)
		ledger.On("ListUnreconciled", mock.Anything, 50).Return(nil, apperrors.Database(assert.AnError))

		rec := httptest.NewRecorder()
		orphanRouter(ledger).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/internal/orphans", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestOrphanReconcile(t *testing.T) {
	t.Run("marks an incident reconciled", func(t *testing.T) {
		ledger := new(mockOrphanLedger)
		ledger.On("MarkReconciled", mock.Anything, "inc-1").Return(nil)

		rec := httptest.NewRecorder()
		orphanRouter(ledger).ServeHTTP(rec,
			httptest.NewRequest(http.MethodPost, "/internal/orphans/inc-1/reconcile", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
		ledger.AssertExpectations(t)
	})

	t.Run("404s an unknown incident", func(t *testing.T) {
		ledger := new(mockOrphanLedger)
		ledger.On("MarkReconciled", mock.Anything, "missing").Return(apperrors.NotFound("orphaned pair"))

		rec := httptest.NewRecorder()
		orphanRouter(ledger).ServeHTTP(rec,
			httptest.NewRequest(http.MethodPost, "/internal/orphans/missing/reconcile", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("maps a ledger failure to 500", func(t *testing.T) {
		ledger := new(mockOrphanLedger)
		ledger.On("MarkReconciled", mock.Anything, "inc-1").Return(apperrors.Database(assert.AnError))

		rec := httptest.NewRecorder()
		orphanRouter(ledger).ServeHTTP(rec,
			httptest.NewRequest(http.MethodPost, "/internal/orphans/inc-1/reconcile", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
