package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/veilcare/counsel-relay-go/internal/util"
)

// WebhookSecretMiddleware authenticates the platform's webhook deliveries:
// the update endpoint lives under a secret-bearing path that only the
// platform was told about when the webhook was registered.
type WebhookSecretMiddleware struct {
	secret string
}

func NewWebhookSecretMiddleware(secret string) *WebhookSecretMiddleware {
	return &WebhookSecretMiddleware{secret: secret}
}

func (m *WebhookSecretMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		provided := chi.URLParam(r, "secret")
		if provided == "" || !util.ConstantTimeEqual(provided, m.secret) {
			log.Warn().Msg("webhook request with invalid path secret")
			writeJSON(w, http.StatusForbidden, map[string]string{
				"error": "Invalid webhook secret",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}
