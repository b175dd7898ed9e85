// Package intent maps free text to a closed intent set.
//
// Classification is polymorphic over strategy: an embedding-similarity
// classifier when the GenAI service is reachable, a keyword classifier
// always available as the last link. The chain is assembled once at
// startup by availability probing, never by conditionals at call sites.
package intent

import "context"

// Intent is the closed set of conversation intents. Computed once per
// inbound message only when no flow claims it; never persisted.
type Intent string

const (
	IntentUnknown           Intent = "unknown"
	IntentAppointment       Intent = "appointment"
	IntentCheckAppointments Intent = "check_appointments"
	IntentFAQ               Intent = "faq"
	IntentSupport           Intent = "support"
	IntentEndConversation   Intent = "end_conversation"
)

// Classifier maps a message to an intent. recentContext carries the last
// few conversation lines for strategies that can use them; implementations
// may ignore it.
type Classifier interface {
	Classify(ctx context.Context, text, recentContext string) (Intent, error)
}
