// Package conversation orchestrates one inbound message end to end:
// deduplication, contact resolution, flow routing, state persistence,
// reply polishing, and the audit trail. It owns the store; flows never
// touch it.
package conversation

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/agendabot/agendabot/internal/botapi"
	"github.com/agendabot/agendabot/internal/models"
	"github.com/agendabot/agendabot/internal/polish"
)

const apologyMessage = "😓 Lo siento, estoy teniendo problemas técnicos en este momento. Por favor intenta de nuevo en unos minutos."

// Store is the orchestrator's view of the backend. *botapi.Client
// satisfies it.
type Store interface {
	IsMessageProcessed(ctx context.Context, messageID string) (bool, error)
	GetOrCreateContact(ctx context.Context, phone string) (models.Record, error)
	GetConversationState(ctx context.Context, contactID string) (*models.StoredState, error)
	SaveConversationState(ctx context.Context, contactID string, flow models.FlowType, state models.FlowState) error
	ClearConversationState(ctx context.Context, contactID string) error
	GetClientByPhone(ctx context.Context, phone string) (models.Record, error)
	LogInbound(ctx context.Context, contactID, messageID, content string, fc botapi.FlowContext) error
	LogOutbound(ctx context.Context, contactID, messageID, content string, fc botapi.FlowContext, waMessageID string) error
}

// Manager drives a full conversation turn. HandleMessage never lets a flow
// failure reach the transport: any error or panic degrades to an apology.
type Manager struct {
	store    Store
	router   *Router
	enhancer polish.Enhancer
}

// NewManager builds the orchestrator. Pass polish.Noop{} to disable reply
// polishing.
func NewManager(store Store, router *Router, enhancer polish.Enhancer) *Manager {
	if enhancer == nil {
		enhancer = polish.Noop{}
	}
	return &Manager{store: store, router: router, enhancer: enhancer}
}

// HandleMessage processes one inbound envelope and returns the reply to
// send. A zero reply means nothing should be sent: duplicates, status
// receipts, and invalid envelopes are dropped silently.
func (m *Manager) HandleMessage(ctx context.Context, env models.Envelope) (reply models.Reply) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Conversation turn panicked", "ownerID", env.OwnerID, "panic", r)
			reply = models.TextReply(apologyMessage)
		}
	}()

	if err := env.Validate(); err != nil {
		slog.Warn("Conversation dropping invalid envelope", "error", err)
		return models.Reply{}
	}
	if env.Type == models.MessageTypeStatus {
		return models.Reply{}
	}

	if processed, err := m.store.IsMessageProcessed(ctx, env.MessageID); err != nil {
		slog.Warn("Conversation dedupe check failed", "messageID", env.MessageID, "error", err)
	} else if processed {
		slog.Debug("Conversation skipping duplicate message", "messageID", env.MessageID)
		return models.Reply{}
	}

	contact, err := m.store.GetOrCreateContact(ctx, env.OwnerID)
	if err != nil || contact == nil {
		slog.Error("Conversation contact resolution failed", "ownerID", env.OwnerID, "error", err)
		return models.TextReply(apologyMessage)
	}
	contactID := contact.Str("_id")

	// The client record and the conversation state live on different
	// endpoints; fetch them together.
	var (
		wg        sync.WaitGroup
		client    models.Record
		clientErr error
		stored    *models.StoredState
		stateErr  error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		client, clientErr = m.store.GetClientByPhone(ctx, env.OwnerID)
	}()
	go func() {
		defer wg.Done()
		stored, stateErr = m.store.GetConversationState(ctx, contactID)
	}()
	wg.Wait()
	if clientErr != nil || stateErr != nil {
		slog.Error("Conversation context load failed", "contactID", contactID, "clientError", clientErr, "stateError", stateErr)
		return models.TextReply(apologyMessage)
	}

	inboundFC := botapi.FlowContext{}
	if stored != nil {
		inboundFC = botapi.FlowContext{Flow: string(stored.Flow), Step: string(stored.State.Step)}
	}
	if err := m.store.LogInbound(ctx, contactID, env.MessageID, env.EffectiveText(), inboundFC); err != nil {
		slog.Warn("Conversation inbound audit failed", "messageID", env.MessageID, "error", err)
	}

	reply, outboundFC, err := m.router.Route(ctx, env, contactID, client, stored)
	if err != nil {
		slog.Error("Conversation routing failed", "contactID", contactID, "error", err)
		reply = models.TextReply(apologyMessage)
	}
	if reply.IsZero() {
		return reply
	}
	reply = polish.Apply(ctx, m.enhancer, reply)

	botMessageID := "bot_" + uuid.NewString()[:8]
	if err := m.store.LogOutbound(ctx, contactID, botMessageID, reply.Fallback(), outboundFC, ""); err != nil {
		slog.Warn("Conversation outbound audit failed", "messageID", botMessageID, "error", err)
	}
	return reply
}
