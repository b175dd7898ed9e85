// Keyword-matching strategy.
package intent

import (
	"context"
	"strings"
)

// intentKeywords pairs an intent with the substrings that trigger it.
// Evaluation order matters: appointment-query phrases contain "cita", so
// they must be checked before the appointment booking keywords.
type intentKeywords struct {
	intent   Intent
	keywords []string
}

var defaultKeywords = []intentKeywords{
	{IntentCheckAppointments, []string{
		"mis citas", "citas pendientes", "consultar cita", "ver citas",
		"qué citas", "que citas", "tengo alguna cita",
	}},
	{IntentAppointment, []string{
		"cita", "agendar", "agenda", "reservar", "reserva",
		"turno", "disponibilidad", "horario", "fecha",
		"programar", "programación",
	}},
	{IntentFAQ, []string{
		"pregunta", "duda", "ayuda", "información", "info", "faq",
		"preguntas", "frecuentes", "cómo", "qué", "cuál", "cuando",
		"cuándo", "por qué",
	}},
	{IntentSupport, []string{
		"soporte", "problema", "reclamo", "queja", "no funciona",
		"error", "falla",
	}},
	{IntentEndConversation, []string{
		"gracias", "adiós", "adios", "chao", "hasta luego",
		"nos vemos", "bye", "terminar", "finalizar", "salir",
	}},
}

// KeywordClassifier matches messages against fixed Spanish keyword sets.
// It is the terminal link of every classifier chain and never errors.
type KeywordClassifier struct {
	sets []intentKeywords
}

// NewKeywordClassifier returns a classifier over the default keyword sets.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{sets: defaultKeywords}
}

// Classify returns the first intent whose keyword set hits the message.
func (c *KeywordClassifier) Classify(_ context.Context, text, _ string) (Intent, error) {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return IntentUnknown, nil
	}
	for _, set := range c.sets {
		for _, kw := range set.keywords {
			if strings.Contains(lower, kw) {
				return set.intent, nil
			}
		}
	}
	return IntentUnknown, nil
}
