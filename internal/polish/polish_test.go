package polish

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/agendabot/agendabot/internal/models"
	"github.com/agendabot/agendabot/internal/tone"
)

type mockCompleter struct {
	out        string
	err        error
	lastSystem string
}

func (m *mockCompleter) Complete(_ context.Context, systemPrompt, _ string) (string, error) {
	m.lastSystem = systemPrompt
	return m.out, m.err
}

func TestGenAI_Polish(t *testing.T) {
	g := NewGenAI(&mockCompleter{out: "  ¡Hola! ¿En qué te ayudo?  "})
	out, err := g.Polish(context.Background(), "Hola. ¿En qué puedo ayudarte?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "¡Hola! ¿En qué te ayudo?" {
		t.Errorf("unexpected rewrite: %q", out)
	}
}

func TestGenAI_KeepsOriginalOnFailure(t *testing.T) {
	g := NewGenAI(&mockCompleter{err: errors.New("down")})
	out, err := g.Polish(context.Background(), "texto original")
	if err != nil {
		t.Fatalf("failure must not surface: %v", err)
	}
	if out != "texto original" {
		t.Errorf("expected original text, got %q", out)
	}
}

func TestGenAI_KeepsOriginalOnEmptyRewrite(t *testing.T) {
	g := NewGenAI(&mockCompleter{out: "   "})
	out, _ := g.Polish(context.Background(), "texto original")
	if out != "texto original" {
		t.Errorf("expected original text, got %q", out)
	}
}

func TestGenAI_StyleGuideExtendsPrompt(t *testing.T) {
	completer := &mockCompleter{out: "reescrito"}
	g := NewGenAI(completer, WithStyleGuide(tone.BuildGuide([]string{"concise"})))
	if _, err := g.Polish(context.Background(), "texto"); err != nil {
		t.Fatalf("Polish: %v", err)
	}
	if !strings.Contains(completer.lastSystem, "conciso") {
		t.Errorf("system prompt missing style guide: %q", completer.lastSystem)
	}
}

func TestApply_SkipsInteractiveReplies(t *testing.T) {
	g := NewGenAI(&mockCompleter{out: "reescrito"})
	reply := models.Reply{Kind: models.ReplyKindButtons, Body: "Elige:",
		Buttons: []models.Button{{ID: "a", Title: "A"}}}
	got := Apply(context.Background(), g, reply)
	if got.Body != "Elige:" {
		t.Errorf("interactive reply was rewritten: %q", got.Body)
	}
}

func TestApply_PolishesText(t *testing.T) {
	g := NewGenAI(&mockCompleter{out: "reescrito"})
	got := Apply(context.Background(), g, models.TextReply("original"))
	if got.Body != "reescrito" {
		t.Errorf("expected rewrite, got %q", got.Body)
	}
}

func TestNoop(t *testing.T) {
	out, err := Noop{}.Polish(context.Background(), "igual")
	if err != nil || out != "igual" {
		t.Errorf("noop changed text: %q, %v", out, err)
	}
}
