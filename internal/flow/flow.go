// Package flow implements the multi-step business processes of the
// scheduling assistant: appointment booking, client registration, pending
// appointment lookup, and the single-turn FAQ, support, and farewell flows.
//
// Every flow satisfies the same step contract. State machines receive and
// return conversation state by value; they never touch the store, which is
// owned by the orchestrator. An unrecognized step id behaves as the initial
// step, so the machine always makes forward progress even from corrupted
// or foreign state.
package flow

import (
	"context"

	"github.com/agendabot/agendabot/internal/models"
)

// Backend is the narrow view of the business API the flows consume.
// *botapi.Client satisfies it.
type Backend interface {
	ListCategories(ctx context.Context) ([]models.Record, error)
	ListServicesByCategory(ctx context.Context, categoryID int) ([]models.Record, error)
	ListProfessionalsByService(ctx context.Context, serviceID int) ([]models.Record, error)
	ListAvailableDates(ctx context.Context, professionalID, serviceID, daysAhead int, startDate string) ([]models.Record, error)
	ListSlotsByDate(ctx context.Context, professionalID, serviceID int, date string) (map[string][]string, error)
	CreateAppointment(ctx context.Context, fields models.Record) (models.Record, error)
	ListClientAppointments(ctx context.Context, clientID int, pendingOnly bool) ([]models.Record, error)
	GetContactByID(ctx context.Context, contactID string) (models.Record, error)
	GetClientByPhone(ctx context.Context, phone string) (models.Record, error)
	CreateClient(ctx context.Context, fields models.Record) (models.Record, error)
}

// Flow is the common step contract. ProcessMessage advances the machine by
// one turn and returns the next state, the outgoing reply, and whether the
// flow reached a terminal outcome. A terminal outcome carries a zero state,
// signalling state deletion.
type Flow interface {
	Type() models.FlowType
	ProcessMessage(ctx context.Context, state models.FlowState, message, contactID string) (models.FlowState, models.Reply, bool, error)
}

// Registry maps flow names to state machines. Unknown names are rejected at
// the router boundary, never dispatched by bare string comparison.
type Registry struct {
	flows map[models.FlowType]Flow
}

// NewRegistry builds a registry over the given flows.
func NewRegistry(flows ...Flow) *Registry {
	r := &Registry{flows: make(map[models.FlowType]Flow, len(flows))}
	for _, f := range flows {
		r.flows[f.Type()] = f
	}
	return r
}

// Get returns the machine registered under name.
func (r *Registry) Get(name models.FlowType) (Flow, bool) {
	f, ok := r.flows[name]
	return f, ok
}

// optionsFrom rehydrates the options offered on the previous screen from
// persisted state. Options that traveled through the backend come back as
// generic JSON maps.
func optionsFrom(state models.FlowState) []models.Option {
	switch vs := state.Get(models.DataKeyOptions).(type) {
	case []models.Option:
		return vs
	case []any:
		out := make([]models.Option, 0, len(vs))
		for _, v := range vs {
			r := models.AsRecord(v)
			if r == nil {
				continue
			}
			out = append(out, models.Option{
				ID:          r.Str("id"),
				Title:       r.Str("title"),
				Description: r.Str("description"),
				Payload:     models.AsRecord(r["payload"]),
			})
		}
		return out
	default:
		return nil
	}
}

// slotsFrom rehydrates the per-period start times from persisted state.
func slotsFrom(state models.FlowState) map[string][]string {
	switch v := state.Get(models.DataKeySlots).(type) {
	case map[string][]string:
		return v
	case map[string]any:
		out := make(map[string][]string, len(v))
		for period, raw := range v {
			switch times := raw.(type) {
			case []string:
				out[period] = times
			case []any:
				ts := make([]string, 0, len(times))
				for _, t := range times {
					if s, ok := t.(string); ok {
						ts = append(ts, s)
					}
				}
				out[period] = ts
			}
		}
		return out
	default:
		return nil
	}
}
