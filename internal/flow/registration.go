package flow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/agendabot/agendabot/internal/models"
)

// Registration collects the identity document and first name of a new
// contact and creates the client record. A creation failure restarts the
// flow at the document step, keeping only the phone.
type Registration struct {
	backend Backend
}

// NewRegistration builds the registration flow over the given backend.
func NewRegistration(backend Backend) *Registration {
	return &Registration{backend: backend}
}

// Type implements Flow.
func (f *Registration) Type() models.FlowType { return models.FlowTypeRegistration }

// ProcessMessage implements Flow.
func (f *Registration) ProcessMessage(ctx context.Context, state models.FlowState, message, contactID string) (models.FlowState, models.Reply, bool, error) {
	switch state.Step {
	case models.StepWaitingDocument:
		return f.handleDocument(state, message)
	case models.StepWaitingName:
		return f.handleName(ctx, state, message)
	default:
		return f.greet(state)
	}
}

func (f *Registration) greet(state models.FlowState) (models.FlowState, models.Reply, bool, error) {
	body := "¡Hola! 👋 Soy el asistente virtual de agendamiento.\n\n" +
		"Para atenderte necesito registrarte primero.\n\n" +
		"Por favor, escribe tu número de documento de identidad:"
	return state.At(models.StepWaitingDocument), models.TextReply(body), false, nil
}

func (f *Registration) handleDocument(state models.FlowState, message string) (models.FlowState, models.Reply, bool, error) {
	document, ok := validDocument(message)
	if !ok {
		return state, models.TextReply("❌ Ese documento no parece válido. Debe tener solo números y al menos 6 dígitos.\n\nInténtalo de nuevo:"), false, nil
	}
	next := state.At(models.StepWaitingName).With(models.DataKeyDocument, document)
	return next, models.TextReply("Perfecto. Ahora, por favor escribe tu primer nombre:"), false, nil
}

func (f *Registration) handleName(ctx context.Context, state models.FlowState, message string) (models.FlowState, models.Reply, bool, error) {
	name, ok := validName(message)
	if !ok {
		return state, models.TextReply("❌ Ese nombre no parece válido. Usa solo letras, por favor.\n\nInténtalo de nuevo:"), false, nil
	}

	phone, ok := validPhone(state.Str(models.DataKeyPhone))
	if !ok {
		slog.Warn("Registration phone invalid", "phone", state.Str(models.DataKeyPhone))
		return f.restart(state, "No pude validar tu número de teléfono.")
	}
	fields := models.Record{
		"VcIdentificationNumber": state.Str(models.DataKeyDocument),
		"VcPhone":                phone,
		"VcFirstName":            name,
	}
	created, err := f.backend.CreateClient(ctx, fields)
	if err != nil || created == nil {
		slog.Error("Registration client creation failed", "phone", phone, "error", err)
		return f.restart(state, "No se pudo crear tu cuenta. Intenta nuevamente.")
	}

	slog.Info("Registration completed", "clientID", created.Int("Id"))
	body := fmt.Sprintf("¡Registro completado! 🎉\n\n"+
		"Bienvenido/a %s, tu cuenta ha sido creada correctamente.\n\n"+
		"Ya puedes agendar citas o hacer preguntas. ¿En qué puedo ayudarte?", name)
	return models.FlowState{}, models.TextReply(body), true, nil
}

// restart returns the flow to the document step, keeping only the phone.
func (f *Registration) restart(state models.FlowState, reason string) (models.FlowState, models.Reply, bool, error) {
	next := models.NewFlowState(models.StepWaitingDocument).
		With(models.DataKeyPhone, state.Str(models.DataKeyPhone))
	body := fmt.Sprintf("❌ %s\n\nEmpecemos de nuevo el registro.\n\nPor favor, escribe tu número de documento de identidad:", reason)
	return next, models.TextReply(body), false, nil
}
