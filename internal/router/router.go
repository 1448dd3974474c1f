package router

import (
	"strings"

	"github.com/bowerhall/rumbo/internal/conversation"
)

type Decision int

const (
	NoHuman Decision = iota
	ExecuteTools
	RequestApproval
	Reply
)

func (d Decision) String() string {
	switch d {
	case NoHuman:
		return "no_human"
	case ExecuteTools:
		return "execute_tools"
	case RequestApproval:
		return "request_approval"
	case Reply:
		return "reply"
	default:
		return "unknown"
	}
}

// checked in order; the first hit wins
var toolKeywords = []string{
	"clima", "tiempo", "temperatura",
	"actividad", "actividades", "recomienda", "lugares", "visitar",
}

var interventionKeywords = []string{
	"reserva", "reservar", "pago", "pagar",
}

// Route classifies the latest human message. Tool keywords take priority
// over intervention keywords. The matched keyword is returned for logging
// and is empty for Reply and NoHuman.
func Route(state conversation.State) (Decision, string) {
	msg, ok := state.LastHuman()
	if !ok {
		return NoHuman, ""
	}

	text := strings.ToLower(msg.Content)

	if kw := firstMatch(text, toolKeywords); kw != "" {
		return ExecuteTools, kw
	}
	if kw := firstMatch(text, interventionKeywords); kw != "" {
		return RequestApproval, kw
	}
	return Reply, ""
}

func firstMatch(text string, keywords []string) string {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return kw
		}
	}
	return ""
}
