package messaging

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/agendabot/agendabot/internal/models"
	"github.com/agendabot/agendabot/internal/twiliowhatsapp"
)

// TwilioService implements Service over the Twilio REST API. Twilio has no
// interactive controls, so every reply is flattened to its numbered text
// fallback. Inbound traffic arrives through the webhook handler rather than
// a persistent connection.
type TwilioService struct {
	sender    twiliowhatsapp.Sender
	responses chan models.Response

	mu      sync.Mutex
	stopped bool
}

// NewTwilioService creates a TwilioService wrapping the given sender.
func NewTwilioService(sender twiliowhatsapp.Sender) *TwilioService {
	return &TwilioService{
		sender:    sender,
		responses: make(chan models.Response, DefaultChannelBufferSize),
	}
}

// ValidateAndCanonicalizeRecipient reduces the recipient to bare digits.
func (s *TwilioService) ValidateAndCanonicalizeRecipient(recipient string) (string, error) {
	return canonicalizePhone(recipient)
}

// Start is a no-op: inbound messages arrive via WebhookHandler.
func (s *TwilioService) Start(ctx context.Context) error {
	slog.Debug("TwilioService started")
	return nil
}

// Stop closes the responses channel. Further webhook deliveries are dropped.
func (s *TwilioService) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil
	}
	s.stopped = true
	close(s.responses)
	slog.Info("TwilioService stopped")
	return nil
}

// SendReply delivers the reply as numbered plain text.
func (s *TwilioService) SendReply(ctx context.Context, to string, reply models.Reply) error {
	s.mu.Lock()
	stopped := s.stopped
	s.mu.Unlock()
	if stopped {
		return ErrServiceStopped
	}
	canonical, err := s.ValidateAndCanonicalizeRecipient(to)
	if err != nil {
		return err
	}
	return s.sender.SendMessage(ctx, "+"+canonical, reply.Fallback())
}

// Responses returns the channel of incoming messages.
func (s *TwilioService) Responses() <-chan models.Response {
	return s.responses
}

// WebhookHandler returns an http.HandlerFunc that accepts Twilio inbound
// message callbacks (form-encoded From, Body, MessageSid fields).
func (s *TwilioService) WebhookHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		from := r.FormValue("From")
		body := r.FormValue("Body")
		if from == "" || body == "" {
			http.Error(w, "missing From or Body", http.StatusBadRequest)
			return
		}
		canonical, err := canonicalizePhone(from)
		if err != nil {
			http.Error(w, "invalid From", http.StatusBadRequest)
			return
		}
		response := models.Response{
			From:      canonical,
			Body:      body,
			MessageID: r.FormValue("MessageSid"),
			Time:      time.Now().Unix(),
		}
		if s.emit(response) {
			slog.Debug("TwilioService webhook message forwarded", "from", canonical)
		} else {
			slog.Warn("TwilioService webhook message dropped", "from", canonical)
		}
		w.WriteHeader(http.StatusOK)
	}
}

// emit pushes a response onto the channel unless the service has stopped
// or the channel stays full past the timeout.
func (s *TwilioService) emit(response models.Response) bool {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return false
	}
	s.mu.Unlock()

	select {
	case s.responses <- response:
		return true
	case <-time.After(DefaultChannelTimeout):
		return false
	}
}
