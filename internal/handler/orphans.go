package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	apperrors "github.com/veilcare/counsel-relay-go/internal/errors"
	"github.com/veilcare/counsel-relay-go/internal/model"
)

const (
	defaultOrphanPageSize = 50
	maxOrphanPageSize     = 200
)

// OrphanLedgerAdmin is the reconciliation slice of the ledger the operator
// endpoints use.
type OrphanLedgerAdmin interface {
	ListUnreconciled(ctx context.Context, limit int) ([]model.OrphanedPair, error)
	MarkReconciled(ctx context.Context, id string) error
}

// OrphanHandler serves the operator endpoints for orphaned channel pairs:
// listing open incidents and marking them reconciled once the stranded
// channels have been dealt with by hand.
type OrphanHandler struct {
	ledger OrphanLedgerAdmin
}

func NewOrphanHandler(ledger OrphanLedgerAdmin) *OrphanHandler {
	return &OrphanHandler{ledger: ledger}
}

// List returns the unreconciled incidents, oldest first.
func (h *OrphanHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := defaultOrphanPageSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid limit"})
			return
		}
		if parsed > maxOrphanPageSize {
			parsed = maxOrphanPageSize
		}
		limit = parsed
	}

	pairs, err := h.ledger.ListUnreconciled(r.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("failed to list orphaned pairs")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
		return
	}
	if pairs == nil {
		pairs = []model.OrphanedPair{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"orphans": pairs})
}

// Reconcile marks one incident as handled.
func (h *OrphanHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.ledger.MarkReconciled(r.Context(), id); err != nil {
		if apperrors.GetCode(err) == apperrors.ErrCodeNotFound {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "Orphaned pair not found"})
			return
		}
		log.Error().Err(err).Str("incidentId", id).Msg("failed to reconcile orphaned pair")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
