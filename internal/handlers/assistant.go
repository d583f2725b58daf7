package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/routine-advisor/advisor/internal/assistant"
	"github.com/routine-advisor/advisor/internal/chat"
)

const maxAssistantBody = 1 << 20

// HandleAssistant implements the chat endpoint contract: it accepts
// {"chatHistory": [...]} and answers {"reply": "..."}. Failures answer
// {"error": "..."} without a reply field.
func (h *Handler) HandleAssistant(w http.ResponseWriter, r *http.Request) {
	var req chat.Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAssistantBody)).Decode(&req); err != nil {
		h.writeJSONStatus(w, chat.Response{Error: "invalid request body: " + err.Error()}, http.StatusBadRequest)
		return
	}

	reply, err := h.assistant.Reply(r.Context(), req.ChatHistory)
	switch {
	case errors.Is(err, assistant.ErrEmptyConversation):
		h.writeJSONStatus(w, chat.Response{Error: err.Error()}, http.StatusBadRequest)
		return
	case err != nil:
		slog.Error("Assistant reply failed", "provider", h.assistant.Provider(), "model", h.assistant.Model(), "err", err)
		h.writeJSONStatus(w, chat.Response{Error: "assistant unavailable"}, http.StatusBadGateway)
		return
	}

	h.writeJSON(w, chat.Response{Reply: reply})
}
