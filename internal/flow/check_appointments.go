package flow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/agendabot/agendabot/internal/interactive"
	"github.com/agendabot/agendabot/internal/models"
)

// CheckAppointments looks up the pending appointments of the contact's
// client record and lists them. A single follow-up step lets the user
// return to the main menu.
type CheckAppointments struct {
	backend Backend
}

// NewCheckAppointments builds the lookup flow over the given backend.
func NewCheckAppointments(backend Backend) *CheckAppointments {
	return &CheckAppointments{backend: backend}
}

// Type implements Flow.
func (f *CheckAppointments) Type() models.FlowType { return models.FlowTypeCheckAppointments }

// ProcessMessage implements Flow.
func (f *CheckAppointments) ProcessMessage(ctx context.Context, state models.FlowState, message, contactID string) (models.FlowState, models.Reply, bool, error) {
	if state.Step == models.StepWaitingAction {
		return f.handleAction(state, message)
	}
	return f.showAppointments(ctx, contactID)
}

func (f *CheckAppointments) showAppointments(ctx context.Context, contactID string) (models.FlowState, models.Reply, bool, error) {
	contact, err := f.backend.GetContactByID(ctx, contactID)
	if err != nil || contact == nil {
		slog.Error("CheckAppointments contact lookup failed", "contactID", contactID, "error", err)
		return models.FlowState{}, models.TextReply("❌ No pude obtener tu información. Por favor intenta nuevamente."), true, nil
	}
	client, err := f.backend.GetClientByPhone(ctx, contact.Str("phone"))
	if err != nil {
		slog.Error("CheckAppointments client lookup failed", "contactID", contactID, "error", err)
		return models.FlowState{}, models.TextReply("❌ Hubo un error al consultar tus citas. Por favor intenta nuevamente."), true, nil
	}
	if client == nil {
		return models.FlowState{}, models.TextReply("❌ No tienes un perfil de cliente registrado. Para consultar citas, primero debes agendar una."), true, nil
	}

	appointments, err := f.backend.ListClientAppointments(ctx, client.Int("Id"), true)
	if err != nil {
		slog.Error("CheckAppointments listing failed", "clientID", client.Int("Id"), "error", err)
		return models.FlowState{}, models.TextReply("❌ Hubo un error al consultar tus citas. Por favor intenta nuevamente."), true, nil
	}
	if len(appointments) == 0 {
		return models.FlowState{}, models.TextReply("📅 No tienes citas pendientes en este momento.\n\n💡 Si deseas agendar una nueva cita, escribe 'agendar' 😊"), true, nil
	}

	if len(appointments) > models.MaxListRows {
		appointments = appointments[:models.MaxListRows]
	}
	var b strings.Builder
	b.WriteString("📋 *TUS CITAS PENDIENTES*\n\n")
	for _, appt := range appointments {
		fmt.Fprintf(&b, "🗓️ *Cita #%d*\n", appt.Int("Id"))
		if name := appt.Str("ProfessionalName"); name != "" {
			fmt.Fprintf(&b, "👨‍⚕️ Profesional: %s\n", name)
		}
		if name := appt.Str("ServiceName"); name != "" {
			fmt.Fprintf(&b, "💼 Servicio: %s\n", name)
		}
		fmt.Fprintf(&b, "📅 Fecha: %s\n", appointmentDate(appt.Str("DtDate")))
		fmt.Fprintf(&b, "🕐 Hora: %s\n", appointmentTime(appt.Str("TStartTime")))
		b.WriteString("─────────────────\n\n")
	}
	b.WriteString("💬 Si necesitas cancelar o reprogramar alguna cita, contáctanos.")

	options := []models.Option{{ID: "exit_check_appointments", Title: "🏠 Menú principal"}}
	reply := interactive.Render(b.String(), options, interactive.ModeAuto)
	return models.NewFlowState(models.StepWaitingAction), reply, false, nil
}

var exitInputs = map[string]bool{"exit_check_appointments": true, "menu": true, "menú": true, "salir": true, "volver": true}

func (f *CheckAppointments) handleAction(state models.FlowState, message string) (models.FlowState, models.Reply, bool, error) {
	if exitInputs[strings.ToLower(strings.TrimSpace(message))] {
		body := "🏠 Has vuelto al menú principal.\n\n" +
			"💬 Escribe 'agendar' para agendar una cita\n" +
			"📋 Escribe 'consultar' para ver tus citas\n" +
			"📞 Escribe 'contacto' para hablar con un representante"
		return models.FlowState{}, models.TextReply(body), true, nil
	}
	body := "❓ No entendí tu mensaje.\n\n" +
		"Selecciona una de las opciones disponibles o escribe:\n" +
		"🏠 'menu' para volver al menú principal\n" +
		"📞 'contacto' para hablar con un representante"
	return state, models.TextReply(body), false, nil
}

// appointmentDate renders a stored appointment date in Spanish, passing
// unparseable values through untouched.
func appointmentDate(raw string) string {
	if raw == "" {
		return "Fecha no disponible"
	}
	value := raw
	if len(value) > 10 {
		value = value[:10]
	}
	for _, layout := range []string{"2006-01-02", "2006/01/02", "02/01/2006", "2006-1-2"} {
		if t, err := time.Parse(layout, value); err == nil {
			return fullSpanishDate(t.Format("2006-01-02"))
		}
	}
	return raw
}

// appointmentTime renders a stored start time in 12-hour form.
func appointmentTime(raw string) string {
	if raw == "" {
		return "Hora no disponible"
	}
	for _, layout := range []string{"15:04:05", "15:04", "3:04 PM"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("3:04 PM")
		}
	}
	return raw
}
