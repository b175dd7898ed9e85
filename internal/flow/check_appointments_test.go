package flow

import (
	"strings"
	"testing"

	"github.com/agendabot/agendabot/internal/models"
)

func TestCheckAppointmentsListsPending(t *testing.T) {
	backend := newMockBackend()
	backend.appointments = []models.Record{
		{"Id": 41, "ServiceName": "Corte de cabello", "ProfessionalName": "Ana García", "DtDate": "2025-05-27", "TStartTime": "10:00:00"},
		{"Id": 42, "ServiceName": "Tinte", "DtDate": "2025-06-03", "TStartTime": "14:30"},
	}
	f := NewCheckAppointments(backend)

	state, reply, done := advance(t, f, models.FlowState{}, "mis citas")
	if done || state.Step != models.StepWaitingAction {
		t.Fatalf("step=%q done=%v, want waiting_action", state.Step, done)
	}
	for _, want := range []string{"Cita #41", "Ana García", "Martes 27 de mayo", "10:00 AM", "Cita #42", "2:30 PM"} {
		if !strings.Contains(reply.Body, want) {
			t.Errorf("listing missing %q:\n%s", want, reply.Body)
		}
	}
	if reply.Kind != models.ReplyKindButtons || len(reply.Buttons) != 1 {
		t.Fatalf("expected a single menu button, got kind=%q buttons=%d", reply.Kind, len(reply.Buttons))
	}

	_, reply, done = advance(t, f, state, "menu")
	if !done {
		t.Fatal("menu should end the flow")
	}
	if !strings.Contains(reply.Body, "menú principal") {
		t.Errorf("expected the menu message, got %q", reply.Body)
	}
}

func TestCheckAppointmentsActionReprompt(t *testing.T) {
	f := NewCheckAppointments(newMockBackend())
	state := models.NewFlowState(models.StepWaitingAction)
	next, reply, done := advance(t, f, state, "qué opciones hay")
	if done || next.Step != models.StepWaitingAction {
		t.Fatalf("step=%q done=%v, want to stay at waiting_action", next.Step, done)
	}
	if !strings.Contains(reply.Body, "No entendí") {
		t.Errorf("expected the re-prompt, got %q", reply.Body)
	}
}

func TestCheckAppointmentsNoPending(t *testing.T) {
	f := NewCheckAppointments(newMockBackend())
	_, reply, done := advance(t, f, models.FlowState{}, "mis citas")
	if !done {
		t.Fatal("empty listing should end the flow")
	}
	if !strings.Contains(reply.Body, "No tienes citas pendientes") {
		t.Errorf("expected the empty notice, got %q", reply.Body)
	}
}

func TestCheckAppointmentsWithoutClient(t *testing.T) {
	backend := newMockBackend()
	backend.clients = map[string]models.Record{}
	f := NewCheckAppointments(backend)

	_, reply, done := advance(t, f, models.FlowState{}, "mis citas")
	if !done {
		t.Fatal("missing client should end the flow")
	}
	if !strings.Contains(reply.Body, "perfil de cliente") {
		t.Errorf("expected the unregistered notice, got %q", reply.Body)
	}
}
