package backend

import (
	"net/http"

	apperrors "github.com/veilcare/counsel-relay-go/internal/errors"
)

func rejected(operation string, status int) error {
	if status == http.StatusNotFound {
		return apperrors.NotFound(operation + " target")
	}
	return apperrors.BackendRejected(operation, status)
}
