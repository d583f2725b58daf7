package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/routine-advisor/advisor/internal/session"
)

type ctxKey int

const controllerKey ctxKey = iota

const cookieMaxAge = 365 * 24 * 60 * 60

// withVisitor resolves the visitor cookie, issuing a new id when it is
// missing or malformed, and attaches the visitor's controller to the request.
func (h *Handler) withVisitor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		visitor := ""
		if c, err := r.Cookie(h.cookie); err == nil && session.ValidVisitorID(c.Value) {
			visitor = c.Value
		}
		if visitor == "" {
			visitor = session.NewVisitorID()
			http.SetCookie(w, &http.Cookie{
				Name:     h.cookie,
				Value:    visitor,
				Path:     "/",
				MaxAge:   cookieMaxAge,
				HttpOnly: true,
				Secure:   r.TLS != nil,
				SameSite: http.SameSiteLaxMode,
			})
		}

		ctrl, err := h.sessions.Get(r.Context(), visitor)
		if err != nil {
			slog.Error("Unable to open visitor session", "visitor", visitor, "err", err)
			h.writeError(w, "Product catalog unavailable", http.StatusServiceUnavailable)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), controllerKey, ctrl)))
	})
}

func controllerFrom(r *http.Request) *session.Controller {
	ctrl, _ := r.Context().Value(controllerKey).(*session.Controller)
	return ctrl
}
