package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/bowerhall/rumbo/internal/agent"
	"github.com/bowerhall/rumbo/internal/assistant"
	"github.com/bowerhall/rumbo/internal/logger"
)

const (
	detailSessionNotFound = "Sesión no encontrada o expirada."
	detailIncomplete      = "El flujo del agente no devolvió un estado válido."
	detailEmptyMessage    = "El mensaje no puede estar vacío."
	detailInvalidBody     = "Cuerpo JSON inválido."
	detailInternal        = "Error interno del servidor."
)

const maxBodyBytes = 64 << 10

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": bannerMessage})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, detailInvalidBody)
		return
	}

	reply, err := s.assistant.SubmitUtterance(r.Context(), req.SessionID, req.Message)
	if err != nil {
		s.writeAssistantError(w, "chat", req.SessionID, err)
		return
	}

	writeJSON(w, http.StatusOK, toMessageResponse(reply))
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	var req ApprovalRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, detailInvalidBody)
		return
	}

	reply, err := s.assistant.SubmitApproval(r.Context(), req.SessionID, req.Approved)
	if err != nil {
		s.writeAssistantError(w, "approve", req.SessionID, err)
		return
	}

	writeJSON(w, http.StatusOK, toMessageResponse(reply))
}

// decodeBody reads at most maxBodyBytes of JSON into v.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

func (s *Server) handleApprovals(w http.ResponseWriter, r *http.Request) {
	pending := s.assistant.PendingApprovals()

	out := make([]ApprovalInfo, 0, len(pending))
	for _, p := range pending {
		out = append(out, ApprovalInfo{
			ID:          p.ID,
			SessionID:   p.SessionID,
			Description: p.Description,
			CreatedAt:   p.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) writeAssistantError(w http.ResponseWriter, op, sessionID string, err error) {
	switch {
	case errors.Is(err, assistant.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, detailSessionNotFound)
	case errors.Is(err, assistant.ErrEmptyMessage):
		writeError(w, http.StatusBadRequest, detailEmptyMessage)
	case errors.Is(err, agent.ErrIncomplete):
		logger.Error("agent returned no usable state", "op", op, "session", sessionID, "error", err)
		writeError(w, http.StatusInternalServerError, detailIncomplete)
	default:
		logger.Error("request failed", "op", op, "session", sessionID, "error", err)
		writeError(w, http.StatusInternalServerError, detailInternal)
	}
}

func toMessageResponse(reply *assistant.Reply) MessageResponse {
	history := make([]HistoryEntry, 0, len(reply.History))
	for _, msg := range reply.History {
		history = append(history, HistoryEntry{Type: string(msg.Role), Content: msg.Content})
	}

	return MessageResponse{
		SessionID:        reply.SessionID,
		Response:         reply.Response,
		RequiresApproval: reply.RequiresApproval,
		ApprovalID:       reply.ApprovalID,
		FullHistory:      history,
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, detail string) {
	writeJSON(w, code, ErrorResponse{Detail: detail})
}
