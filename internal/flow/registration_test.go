package flow

import (
	"errors"
	"strings"
	"testing"

	"github.com/agendabot/agendabot/internal/models"
)

func registrationStart() models.FlowState {
	return models.NewFlowState(models.StepWaitingDocument).
		With(models.DataKeyPhone, "573001112233")
}

func TestRegistrationGreeting(t *testing.T) {
	f := NewRegistration(newMockBackend())
	state := models.NewFlowState(models.StepInitial).With(models.DataKeyPhone, "573001112233")
	next, reply, done := advance(t, f, state, "hola")
	if done || next.Step != models.StepWaitingDocument {
		t.Fatalf("step=%q done=%v, want waiting_document", next.Step, done)
	}
	if !strings.Contains(reply.Body, "documento") {
		t.Errorf("greeting should ask for the document: %q", reply.Body)
	}
}

func TestRegistrationHappyPath(t *testing.T) {
	backend := newMockBackend()
	f := NewRegistration(backend)

	state, reply, done := advance(t, f, registrationStart(), "10.234.567")
	if done || state.Step != models.StepWaitingName {
		t.Fatalf("after document: step=%q done=%v", state.Step, done)
	}
	if !strings.Contains(reply.Body, "nombre") {
		t.Errorf("expected the name prompt, got %q", reply.Body)
	}

	state, reply, done = advance(t, f, state, "  Ana  ")
	if !done {
		t.Fatal("valid name should complete registration")
	}
	if len(state.Data) != 0 {
		t.Errorf("terminal state should be empty, got %v", state.Data)
	}
	if !strings.Contains(reply.Body, "Bienvenido/a Ana") {
		t.Errorf("welcome missing name: %q", reply.Body)
	}

	if len(backend.createdClients) != 1 {
		t.Fatalf("created %d clients, want 1", len(backend.createdClients))
	}
	got := backend.createdClients[0]
	if got["VcIdentificationNumber"] != "10234567" {
		t.Errorf("document = %v, want separators stripped", got["VcIdentificationNumber"])
	}
	if got["VcPhone"] != "573001112233" || got["VcFirstName"] != "Ana" {
		t.Errorf("unexpected client fields %v", got)
	}
}

func TestRegistrationRejectsBadInput(t *testing.T) {
	f := NewRegistration(newMockBackend())

	next, reply, done := advance(t, f, registrationStart(), "abc123")
	if done || next.Step != models.StepWaitingDocument {
		t.Fatalf("bad document: step=%q done=%v", next.Step, done)
	}
	if !strings.Contains(reply.Body, "no parece válido") {
		t.Errorf("expected a validation message, got %q", reply.Body)
	}

	state := registrationStart().At(models.StepWaitingName).With(models.DataKeyDocument, "10234567")
	next, _, done = advance(t, f, state, "1234")
	if done || next.Step != models.StepWaitingName {
		t.Fatalf("bad name: step=%q done=%v", next.Step, done)
	}
}

func TestRegistrationCreateFailureRestarts(t *testing.T) {
	backend := newMockBackend()
	backend.errs["createClient"] = errors.New("backend down")
	f := NewRegistration(backend)

	state := registrationStart().At(models.StepWaitingName).With(models.DataKeyDocument, "10234567")
	next, reply, done := advance(t, f, state, "Ana")
	if done || next.Step != models.StepWaitingDocument {
		t.Fatalf("step=%q done=%v, want restart at waiting_document", next.Step, done)
	}
	if next.Str(models.DataKeyPhone) != "573001112233" {
		t.Error("restart should keep the phone")
	}
	if next.Str(models.DataKeyDocument) != "" {
		t.Error("restart should drop the collected document")
	}
	if !strings.Contains(reply.Body, "Empecemos de nuevo") {
		t.Errorf("expected the restart prompt, got %q", reply.Body)
	}
}
