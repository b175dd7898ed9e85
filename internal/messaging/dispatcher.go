package messaging

import (
	"context"
	"log/slog"

	"github.com/agendabot/agendabot/internal/models"
	"github.com/agendabot/agendabot/internal/util"
)

// Handler processes one inbound envelope and produces the reply to send.
// Satisfied by conversation.Manager.
type Handler interface {
	HandleMessage(ctx context.Context, env models.Envelope) models.Reply
}

// Dispatcher pumps responses from a channel service through the handler and
// sends the resulting replies back out on the same channel.
type Dispatcher struct {
	service Service
	handler Handler
}

// NewDispatcher creates a dispatcher over the given service and handler.
func NewDispatcher(service Service, handler Handler) *Dispatcher {
	return &Dispatcher{service: service, handler: handler}
}

// Run consumes responses until the context is cancelled or the service's
// channel closes. Each message is handled synchronously so a contact's
// turns stay ordered.
func (d *Dispatcher) Run(ctx context.Context) {
	slog.Info("Dispatcher started")
	for {
		select {
		case <-ctx.Done():
			slog.Info("Dispatcher stopping", "reason", ctx.Err())
			return
		case response, ok := <-d.service.Responses():
			if !ok {
				slog.Info("Dispatcher stopping, responses channel closed")
				return
			}
			d.dispatch(ctx, response)
		}
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, response models.Response) {
	env := envelopeFromResponse(response)
	reply := d.handler.HandleMessage(ctx, env)
	if reply.IsZero() {
		return
	}
	if err := d.service.SendReply(ctx, response.From, reply); err != nil {
		slog.Error("Dispatcher failed to send reply", "to", response.From, "error", err)
	}
}

// envelopeFromResponse converts a channel-level response into the engine's
// envelope. A tap carries its control id as the selection. Transports that
// deliver no message id get a synthetic one so dedupe still has a key.
func envelopeFromResponse(response models.Response) models.Envelope {
	messageID := response.MessageID
	if messageID == "" {
		messageID = util.GenerateRandomID("msg_", 16)
	}
	env := models.Envelope{
		OwnerID:     response.From,
		MessageID:   messageID,
		Type:        models.MessageTypeText,
		Text:        response.Body,
		SelectionID: response.SelectionID,
		Timestamp:   response.Time,
	}
	if canonical, err := canonicalizePhone(response.From); err == nil {
		env.OwnerID = canonical
	}
	if response.SelectionID != "" {
		env.Type = models.MessageTypeInteractive
	}
	return env
}
