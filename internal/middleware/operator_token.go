package middleware

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/veilcare/counsel-relay-go/internal/util"
)

// OperatorTokenMiddleware guards the operator endpoints with a static bearer
// token, compared in constant time.
type OperatorTokenMiddleware struct {
	token string
}

func NewOperatorTokenMiddleware(token string) *OperatorTokenMiddleware {
	return &OperatorTokenMiddleware{token: token}
}

func (m *OperatorTokenMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		provided, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || !util.ConstantTimeEqual(provided, m.token) {
			log.Warn().Msg("operator request with invalid token")
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "Unauthorized",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}
