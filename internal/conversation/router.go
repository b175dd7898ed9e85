package conversation

import (
	"context"
	"log/slog"
	"strings"

	"github.com/agendabot/agendabot/internal/botapi"
	"github.com/agendabot/agendabot/internal/flow"
	"github.com/agendabot/agendabot/internal/intent"
	"github.com/agendabot/agendabot/internal/models"
)

const (
	recoveryMessage = "🔄 Parece que tu conversación anterior ya no está disponible. Empecemos de nuevo.\n\n" +
		"💬 Escribe 'agendar' para programar una cita\n" +
		"📋 Escribe 'consultar' para ver tus citas"
	staleOptionMessage = "🤖 Esa opción ya no está activa.\n\n" +
		"Escribe 'agendar' si deseas programar una cita. 😊"
)

// flowForIntent maps a detected intent to the flow that serves it.
func flowForIntent(it intent.Intent) (models.FlowType, bool) {
	switch it {
	case intent.IntentAppointment:
		return models.FlowTypeAppointment, true
	case intent.IntentCheckAppointments:
		return models.FlowTypeCheckAppointments, true
	case intent.IntentFAQ:
		return models.FlowTypeFAQ, true
	case intent.IntentSupport:
		return models.FlowTypeSupport, true
	case intent.IntentEndConversation:
		return models.FlowTypeEndConversation, true
	default:
		return "", false
	}
}

// Router decides which flow handles a turn. An active flow always wins;
// otherwise unregistered contacts are sent through registration and
// registered ones are routed by detected intent.
type Router struct {
	store    Store
	registry *flow.Registry
	detector intent.Classifier
	unknown  *unknownResponder
}

// NewRouter builds a router over the given store, flows, and intent
// detector.
func NewRouter(store Store, registry *flow.Registry, detector intent.Classifier) *Router {
	return &Router{
		store:    store,
		registry: registry,
		detector: detector,
		unknown:  newUnknownResponder(),
	}
}

// Route handles one turn and returns the reply together with the flow
// position it was produced at, for the audit trail.
func (r *Router) Route(ctx context.Context, env models.Envelope, contactID string, client models.Record, stored *models.StoredState) (models.Reply, botapi.FlowContext, error) {
	if stored != nil {
		return r.continueFlow(ctx, env, contactID, stored)
	}
	// Unknown users always register first, even when their message is a
	// tap left over from an older conversation.
	if client == nil {
		return r.startRegistration(ctx, env, contactID)
	}
	if env.SelectionID != "" {
		return r.recoverSelection(ctx, env, contactID)
	}
	return r.routeByIntent(ctx, env, contactID)
}

func (r *Router) continueFlow(ctx context.Context, env models.Envelope, contactID string, stored *models.StoredState) (models.Reply, botapi.FlowContext, error) {
	machine, ok := r.registry.Get(stored.Flow)
	if !ok {
		slog.Warn("Router clearing state with unknown flow", "contactID", contactID, "flow", stored.Flow)
		if err := r.store.ClearConversationState(ctx, contactID); err != nil {
			slog.Error("Router state clear failed", "contactID", contactID, "error", err)
		}
		return models.TextReply(recoveryMessage), botapi.FlowContext{}, nil
	}
	return r.run(ctx, machine, stored.State, env.EffectiveText(), contactID)
}

// recoverSelection handles an interactive tap that arrives without an
// active flow, usually from a message older than the stored state. A
// category tap restarts booking and replays the selection; anything else
// is declared stale.
func (r *Router) recoverSelection(ctx context.Context, env models.Envelope, contactID string) (models.Reply, botapi.FlowContext, error) {
	if !strings.HasPrefix(env.SelectionID, "cat_id_") {
		return models.TextReply(staleOptionMessage), botapi.FlowContext{}, nil
	}
	machine, ok := r.registry.Get(models.FlowTypeAppointment)
	if !ok {
		return models.TextReply(staleOptionMessage), botapi.FlowContext{}, nil
	}
	slog.Info("Router replaying stray category tap", "contactID", contactID, "selection", env.SelectionID)
	seed, seedReply, seedDone, err := machine.ProcessMessage(ctx, models.FlowState{}, "", contactID)
	if err != nil {
		return models.Reply{}, botapi.FlowContext{}, err
	}
	if seedDone {
		return seedReply, botapi.FlowContext{Flow: string(models.FlowTypeAppointment)}, nil
	}
	return r.run(ctx, machine, seed, env.SelectionID, contactID)
}

func (r *Router) startRegistration(ctx context.Context, env models.Envelope, contactID string) (models.Reply, botapi.FlowContext, error) {
	machine, ok := r.registry.Get(models.FlowTypeRegistration)
	if !ok {
		return models.TextReply(recoveryMessage), botapi.FlowContext{}, nil
	}
	state := models.NewFlowState(models.StepInitial).With(models.DataKeyPhone, env.OwnerID)
	return r.run(ctx, machine, state, env.EffectiveText(), contactID)
}

func (r *Router) routeByIntent(ctx context.Context, env models.Envelope, contactID string) (models.Reply, botapi.FlowContext, error) {
	detected, err := r.detector.Classify(ctx, env.EffectiveText(), "")
	if err != nil {
		slog.Warn("Router intent detection failed", "contactID", contactID, "error", err)
		detected = intent.IntentUnknown
	}
	flowType, ok := flowForIntent(detected)
	if !ok {
		return models.TextReply(r.unknown.Reply(env.OwnerID, env.EffectiveText())), botapi.FlowContext{}, nil
	}
	r.unknown.Reset(env.OwnerID)

	machine, ok := r.registry.Get(flowType)
	if !ok {
		slog.Error("Router intent maps to unregistered flow", "intent", detected, "flow", flowType)
		return models.TextReply(r.unknown.Reply(env.OwnerID, env.EffectiveText())), botapi.FlowContext{}, nil
	}
	return r.run(ctx, machine, models.FlowState{}, env.EffectiveText(), contactID)
}

// PruneUnknownEntries drops expired escalation counters. Meant to run
// periodically so the per-owner map does not grow without bound.
func (r *Router) PruneUnknownEntries() int {
	return r.unknown.PruneExpired()
}

// run advances a machine one turn and persists the outcome. A persistence
// failure is logged but never swallows the reply; the next message simply
// restarts routing.
func (r *Router) run(ctx context.Context, machine flow.Flow, state models.FlowState, message, contactID string) (models.Reply, botapi.FlowContext, error) {
	next, reply, done, err := machine.ProcessMessage(ctx, state, message, contactID)
	fc := botapi.FlowContext{Flow: string(machine.Type()), Step: string(next.Step)}
	if err != nil {
		return models.Reply{}, fc, err
	}
	if done {
		if clearErr := r.store.ClearConversationState(ctx, contactID); clearErr != nil {
			slog.Error("Router state clear failed", "contactID", contactID, "error", clearErr)
		}
		fc.Step = "response"
	} else if saveErr := r.store.SaveConversationState(ctx, contactID, machine.Type(), next); saveErr != nil {
		slog.Error("Router state save failed", "contactID", contactID, "flow", machine.Type(), "error", saveErr)
	}
	return reply, fc, nil
}
