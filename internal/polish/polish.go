// Package polish optionally rewrites outgoing plain text for tone.
//
// The enhancer is pluggable and possibly absent: interactive payloads pass
// through untouched because their labels and control ids are load-bearing,
// and any enhancer failure returns the original text unchanged.
package polish

import (
	"context"
	"log/slog"
	"strings"

	"github.com/agendabot/agendabot/internal/models"
)

// Enhancer rewrites a message while preserving its meaning.
type Enhancer interface {
	Polish(ctx context.Context, text string) (string, error)
}

// completer is the chat capability the GenAI enhancer consumes.
// *genai.Client satisfies it.
type completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

const systemPrompt = "Eres un asistente que pule mensajes de WhatsApp de una " +
	"asistente de agendamiento. Reescribe el mensaje con un tono cálido y " +
	"natural en español. Conserva exactamente el significado, los datos " +
	"(fechas, horas, nombres, números) y la longitud aproximada. Responde " +
	"solo con el mensaje reescrito."

// GenAI polishes text through a chat completion.
type GenAI struct {
	completer completer
	prompt    string
}

// Option configures the GenAI enhancer.
type Option func(*GenAI)

// WithStyleGuide appends extra style instructions to the system prompt,
// typically built with tone.BuildGuide.
func WithStyleGuide(guide string) Option {
	return func(g *GenAI) { g.prompt = systemPrompt + guide }
}

// NewGenAI returns an enhancer backed by the given chat service.
func NewGenAI(c completer, opts ...Option) *GenAI {
	g := &GenAI{completer: c, prompt: systemPrompt}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Polish rewrites text, returning the input unchanged on any failure or
// an empty rewrite.
func (g *GenAI) Polish(ctx context.Context, text string) (string, error) {
	out, err := g.completer.Complete(ctx, g.prompt, text)
	if err != nil {
		slog.Warn("Polish enhancer failed, keeping original text", "error", err)
		return text, nil
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return text, nil
	}
	return out, nil
}

// Noop returns text unchanged. Used when no enhancer is configured.
type Noop struct{}

// Polish implements Enhancer.
func (Noop) Polish(_ context.Context, text string) (string, error) {
	return text, nil
}

// Apply runs the enhancer over a reply when it is plain text. Interactive
// replies are returned as-is.
func Apply(ctx context.Context, e Enhancer, reply models.Reply) models.Reply {
	if e == nil || reply.Kind != models.ReplyKindText {
		return reply
	}
	out, err := e.Polish(ctx, reply.Body)
	if err != nil || strings.TrimSpace(out) == "" {
		return reply
	}
	reply.Body = out
	return reply
}
