package handler

import (
	"net/http"

	"github.com/veilcare/counsel-relay-go/internal/httputil"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	httputil.WriteJSON(w, status, data)
}
