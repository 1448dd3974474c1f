package agent

const DefaultSystemPrompt = "Eres un asistente de viajes en español. " +
	"Ayudas a los usuarios a planificar viajes, recomendar actividades, " +
	"y dar información útil sobre destinos. " +
	"Responde siempre en español, de manera natural y breve."

// Fixed assistant notices
const (
	ApprovalNotice   = "Esperando aprobación humana..."
	ApprovedFeedback = "APROBADO. El plan fue confirmado y la reserva completada."
	RejectedFeedback = "PROPUESTA RECHAZADA. Por favor, ajusta tu solicitud."
	NoHumanNotice    = "No hay mensaje humano para procesar."
	ModelErrorNotice = "Lo siento, ahora mismo no puedo generar una respuesta. Inténtalo de nuevo en unos minutos."
	BudgetNotice     = "He alcanzado el límite diario de uso. Inténtalo de nuevo mañana."
)
