package bot

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/bowerhall/rumbo/internal/approval"
	"github.com/bowerhall/rumbo/internal/logger"
)

const (
	callbackApprove = "approve"
	callbackReject  = "reject"

	approveLabel = "✅ Aprobar"
	rejectLabel  = "❌ Rechazar"

	welcomeText = "¡Hola! Soy Rumbo, tu asistente de viaje. Pregúntame por el clima o por actividades en cualquier ciudad."
	failureText = "Algo salió mal. Inténtalo de nuevo en unos minutos."
	staleText   = "Esta solicitud ya no está pendiente."
)

// dispatcher holds the frontend-independent part of both bots.
type dispatcher struct {
	assistant Assistant
}

func (d dispatcher) handleText(ctx context.Context, sessionID, text string) outgoing {
	text = strings.TrimSpace(text)
	if text == "" {
		return outgoing{}
	}
	if text == "/start" || text == "/ayuda" {
		return outgoing{Text: welcomeText}
	}

	reply, err := d.assistant.SubmitUtterance(ctx, sessionID, text)
	if err != nil {
		logger.Error("assistant failed", "session", sessionID, "error", err)
		return outgoing{Text: failureText}
	}

	out := outgoing{Text: reply.Response}
	if reply.RequiresApproval {
		out.ApprovalID = reply.ApprovalID
	}
	return out
}

// handleDecision applies a button press and returns the text to show.
func (d dispatcher) handleDecision(ctx context.Context, data string) string {
	approvalID, approved, ok := parseCallback(data)
	if !ok {
		logger.Warn("unknown callback data", "data", data)
		return staleText
	}

	reply, err := d.assistant.SubmitDecision(ctx, approvalID, approved)
	if err != nil {
		if errors.Is(err, approval.ErrNotFound) {
			return staleText
		}
		logger.Error("approval decision failed", "approval", approvalID, "error", err)
		return failureText
	}

	logger.Info("approval decided from chat", "approval", approvalID, "approved", approved)
	return reply.Response
}

func callbackData(approved bool, approvalID string) string {
	if approved {
		return callbackApprove + ":" + approvalID
	}
	return callbackReject + ":" + approvalID
}

func parseCallback(data string) (approvalID string, approved bool, ok bool) {
	action, id, found := strings.Cut(data, ":")
	if !found || id == "" {
		return "", false, false
	}

	switch action {
	case callbackApprove:
		return id, true, true
	case callbackReject:
		return id, false, true
	default:
		return "", false, false
	}
}

// splitMessage breaks text into chunks of at most limit runes, preferring
// line boundaries.
func splitMessage(text string, limit int) []string {
	if utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder
	currentLen := 0

	flush := func() {
		if currentLen > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
			currentLen = 0
		}
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		lineLen := utf8.RuneCountInString(line)
		if currentLen+lineLen > limit {
			flush()
		}
		for lineLen > limit {
			runes := []rune(line)
			chunks = append(chunks, string(runes[:limit]))
			line = string(runes[limit:])
			lineLen -= limit
		}
		current.WriteString(line)
		currentLen += lineLen
	}
	flush()

	return chunks
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}

	return string([]rune(s)[:max]) + "..."
}
