// Package models defines the core data structures for agendabot.
//
// It includes the inbound message envelope, the per-turn option catalog,
// outgoing reply shapes, and conversation state, which are shared across modules.
package models

import (
	"errors"
	"fmt"
	"strconv"
)

// MessageType identifies the kind of inbound webhook envelope.
type MessageType string

const (
	// MessageTypeText carries free text typed by the user.
	MessageTypeText MessageType = "text"
	// MessageTypeInteractive carries a button or list selection.
	MessageTypeInteractive MessageType = "interactive"
	// MessageTypeStatus carries delivery/read acknowledgements only.
	MessageTypeStatus MessageType = "status"
)

// Error variables for better error handling and testability
var (
	ErrEmptyRecipient  = errors.New("recipient cannot be empty")
	ErrEmptyMessageID  = errors.New("message id cannot be empty")
	ErrInvalidEnvelope = errors.New("invalid inbound envelope")
)

// Envelope is an inbound message normalized from the webhook payload.
// SelectionID is set only for interactive taps and takes precedence over
// Text when resolving options.
type Envelope struct {
	OwnerID     string      `json:"ownerId"`
	MessageID   string      `json:"messageId"`
	Type        MessageType `json:"type"`
	Text        string      `json:"text,omitempty"`
	SelectionID string      `json:"selectionId,omitempty"`
	Timestamp   int64       `json:"timestamp,omitempty"`
}

// EffectiveText returns the input the flow engine should resolve:
// the tapped control id when present, the typed text otherwise.
func (e Envelope) EffectiveText() string {
	if e.SelectionID != "" {
		return e.SelectionID
	}
	return e.Text
}

// Validate checks that an envelope can enter the engine.
func (e Envelope) Validate() error {
	switch e.Type {
	case MessageTypeStatus:
		return nil
	case MessageTypeText, MessageTypeInteractive:
	default:
		return fmt.Errorf("%w: unrecognized type %q", ErrInvalidEnvelope, e.Type)
	}
	if e.OwnerID == "" {
		return ErrEmptyRecipient
	}
	if e.MessageID == "" {
		return ErrEmptyMessageID
	}
	return nil
}

// Record is a backend row decoded without a fixed schema. Values stored in
// conversation state round-trip exactly as the backend returned them, so
// later steps can read fields by their original names.
type Record map[string]any

// Str returns the named field as a string, or "" when absent.
func (r Record) Str(key string) string {
	switch v := r[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	default:
		return ""
	}
}

// Int returns the named field as an int, or 0 when absent or non-numeric.
// JSON numbers decode as float64, so both forms are handled.
func (r Record) Int(key string) int {
	switch v := r[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

// AsRecord converts a decoded JSON value back into a Record. State data
// that traveled through the backend comes back as map[string]any.
func AsRecord(v any) Record {
	switch m := v.(type) {
	case Record:
		return m
	case map[string]any:
		return Record(m)
	default:
		return nil
	}
}

// Option is an ephemeral per-turn catalog entry the user can select.
// IDs must stay stable within one rendered screen so the next inbound
// message can be resolved against them.
type Option struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Payload     Record `json:"payload,omitempty"`
}

// Response represents an incoming message from a transport channel.
type Response struct {
	From        string `json:"from"`
	Body        string `json:"body"`
	MessageID   string `json:"message_id"`
	SelectionID string `json:"selection_id,omitempty"`
	Time        int64  `json:"time"`
}
