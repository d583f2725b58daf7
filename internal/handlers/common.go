package handlers

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/routine-advisor/advisor/internal/assistant"
	"github.com/routine-advisor/advisor/internal/render"
	"github.com/routine-advisor/advisor/internal/session"
	"github.com/routine-advisor/advisor/internal/transcript"
)

// DefaultCookie names the visitor cookie when none is configured
const DefaultCookie = "advisor_visitor"

type Handler struct {
	sessions   *session.Manager
	assistant  *assistant.Service
	cookie     string
	transcript transcript.Config
	now        func() time.Time
}

// Options configures a Handler. Assistant may be nil, in which case
// POST /api/assistant is not served.
type Options struct {
	Sessions   *session.Manager
	Assistant  *assistant.Service
	Cookie     string
	Transcript transcript.Config
}

func New(opts Options) *Handler {
	if opts.Cookie == "" {
		opts.Cookie = DefaultCookie
	}
	return &Handler{
		sessions:   opts.Sessions,
		assistant:  opts.Assistant,
		cookie:     opts.Cookie,
		transcript: opts.Transcript,
		now:        time.Now,
	}
}

// Routes returns the router serving the page, its fragments and the API
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			slog.Error("Unable to write healthcheck", "err", err)
		}
	})
	r.Handle("/static/*", h.HandleStatic())

	if h.assistant != nil {
		r.Post("/api/assistant", h.HandleAssistant)
	}

	r.Group(func(r chi.Router) {
		r.Use(h.withVisitor)

		r.Get("/", h.HandleIndex)
		r.Get("/products", h.HandleProducts)
		r.Get("/products/{id}/detail", h.HandleDetail)
		r.Get("/products/{id}/detail/close", h.HandleDetailClose)

		r.Post("/selection/{id}/toggle", h.HandleToggle)
		r.Delete("/selection/{id}", h.HandleRemove)
		r.Post("/selection/clear", h.HandleClear)
		r.Get("/selection", h.HandleSummary)
		r.Get("/api/selection", h.HandleSelectionJSON)

		r.Post("/chat", h.HandleChat)
		r.Get("/chat", h.HandleTranscript)
		r.Get("/chat/export", h.HandleExport)
		r.Post("/routine", h.HandleRoutine)
	})

	return r
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	h.writeJSONStatus(w, data, http.StatusOK)
}

func (h *Handler) writeJSONStatus(w http.ResponseWriter, data interface{}, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	if code >= http.StatusInternalServerError {
		slog.Error(message, "status", code)
	} else {
		slog.Warn(message, "status", code)
	}
	http.Error(w, message, code)
}

// writeHTML renders into a buffer; on failure nothing partial is written and
// the response is a 500.
func (h *Handler) writeHTML(w http.ResponseWriter, fn func(*bytes.Buffer) error) {
	var buf bytes.Buffer
	if err := fn(&buf); err != nil {
		slog.Error("Unable to render response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	h.writeFragment(w, &buf)
}

func (h *Handler) writeFragment(w http.ResponseWriter, buf *bytes.Buffer) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("Unable to write response", "err", err)
	}
}

// HandleStatic serves the embedded stylesheet and assets
func (h *Handler) HandleStatic() http.Handler {
	return http.StripPrefix("/static/", http.FileServer(http.FS(render.Static())))
}
