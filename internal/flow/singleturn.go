package flow

import (
	"context"

	"github.com/agendabot/agendabot/internal/models"
)

// singleTurn answers with a fixed message and completes immediately. The
// FAQ, support, and farewell flows share this shape.
type singleTurn struct {
	flowType models.FlowType
	body     string
}

func (f singleTurn) Type() models.FlowType { return f.flowType }

func (f singleTurn) ProcessMessage(_ context.Context, _ models.FlowState, _, _ string) (models.FlowState, models.Reply, bool, error) {
	return models.FlowState{}, models.TextReply(f.body), true, nil
}

// NewFAQ builds the frequently-asked-questions flow.
func NewFAQ() Flow {
	return singleTurn{
		flowType: models.FlowTypeFAQ,
		body: "Bienvenido al sistema de preguntas frecuentes. " +
			"Aquí podrás encontrar respuestas a las dudas más comunes.\n\n" +
			"Por el momento, este módulo está en desarrollo.",
	}
}

// NewSupport builds the technical-support handoff flow.
func NewSupport() Flow {
	return singleTurn{
		flowType: models.FlowTypeSupport,
		body: "Entiendo que tienes un problema técnico. 🛠️\n\n" +
			"Por favor describe detalladamente tu problema y " +
			"un miembro de nuestro equipo de soporte te contactará pronto.\n\n" +
			"¿Hay algo más en lo que pueda ayudarte?",
	}
}

// NewEndConversation builds the farewell flow.
func NewEndConversation() Flow {
	return singleTurn{
		flowType: models.FlowTypeEndConversation,
		body: "¡Gracias por contactarnos! Esperamos haberte ayudado. " +
			"Si necesitas algo más, no dudes en escribirnos nuevamente. " +
			"¡Hasta pronto! 👋",
	}
}
