package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/routine-advisor/advisor/internal/chat"
	"github.com/routine-advisor/advisor/internal/transcript"
)

// HandleChat sends the "message" form field and renders the chat window. A
// request made while a reply is pending answers 409 and leaves the
// transcript unchanged.
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.writeError(w, "Invalid form: "+err.Error(), http.StatusBadRequest)
		return
	}
	var buf bytes.Buffer
	err := controllerFrom(r).Send(r.Context(), &buf, r.FormValue("message"))
	if !h.chatOK(w, err) {
		return
	}
	h.writeFragment(w, &buf)
}

// HandleRoutine asks for a routine built from the current selection
func (h *Handler) HandleRoutine(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	err := controllerFrom(r).Routine(r.Context(), &buf)
	if !h.chatOK(w, err) {
		return
	}
	h.writeFragment(w, &buf)
}

func (h *Handler) chatOK(w http.ResponseWriter, err error) bool {
	switch {
	case err == nil:
		return true
	case errors.Is(err, chat.ErrBusy):
		h.writeError(w, "Still waiting for the previous reply", http.StatusConflict)
	case errors.Is(err, chat.ErrEmptyMessage):
		h.writeError(w, "Message is empty", http.StatusBadRequest)
	default:
		h.writeError(w, "Unable to render chat: "+err.Error(), http.StatusInternalServerError)
	}
	return false
}

func (h *Handler) HandleTranscript(w http.ResponseWriter, r *http.Request) {
	h.writeHTML(w, func(buf *bytes.Buffer) error {
		return controllerFrom(r).Chat(buf)
	})
}

// HandleExport downloads the conversation as YAML
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	ctrl := controllerFrom(r)
	now := h.now()
	t := transcript.New(h.transcript, ctrl.Selected(), ctrl.Messages(), now)
	slog.Info("Exporting conversation", "visitor", ctrl.Visitor(), "messages", len(t.Messages))

	var buf bytes.Buffer
	if err := transcript.Write(&buf, t); err != nil {
		h.writeError(w, "Unable to export conversation: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", transcript.Filename(now)))
	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("Unable to write export", "err", err)
	}
}
