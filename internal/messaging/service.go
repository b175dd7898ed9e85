// Package messaging abstracts message delivery behind a channel-agnostic
// Service. The WhatsApp implementation sends native interactive payloads;
// the Twilio implementation degrades them to numbered text.
package messaging

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/agendabot/agendabot/internal/models"
)

const (
	// DefaultChannelBufferSize is the buffer of the responses channel.
	DefaultChannelBufferSize = 100
	// DefaultChannelTimeout bounds non-blocking channel sends.
	DefaultChannelTimeout = 1 * time.Second
)

// ErrServiceStopped is returned when sending through a stopped service.
var ErrServiceStopped = errors.New("messaging service stopped")

var phoneNumberRegex = regexp.MustCompile(`\D`)

// Service is a pluggable message delivery abstraction.
type Service interface {
	// ValidateAndCanonicalizeRecipient validates and canonicalizes a
	// recipient identifier for this channel.
	ValidateAndCanonicalizeRecipient(recipient string) (string, error)

	// SendReply delivers an engine reply to a recipient.
	SendReply(ctx context.Context, to string, reply models.Reply) error

	// Start begins background processing (event polling, webhooks).
	Start(ctx context.Context) error

	// Stop stops background processing and closes the channels.
	Stop() error

	// Responses returns the channel of incoming messages.
	Responses() <-chan models.Response
}

// canonicalizePhone strips everything but digits and requires at least six
// of them.
func canonicalizePhone(recipient string) (string, error) {
	if recipient == "" {
		return "", models.ErrEmptyRecipient
	}
	canonical := phoneNumberRegex.ReplaceAllString(recipient, "")
	if canonical == "" {
		return "", fmt.Errorf("invalid phone number: no digits in %q", recipient)
	}
	if len(canonical) < 6 {
		return "", fmt.Errorf("invalid phone number: %q is too short", canonical)
	}
	return canonical, nil
}
