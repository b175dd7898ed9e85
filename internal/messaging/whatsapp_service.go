package messaging

import (
	"context"
	"log/slog"
	"time"

	"go.mau.fi/whatsmeow/types/events"

	"github.com/agendabot/agendabot/internal/models"
	"github.com/agendabot/agendabot/internal/whatsapp"
)

// WhatsAppService implements Service over the Whatsmeow-based client.
type WhatsAppService struct {
	sender    whatsapp.Sender
	waClient  *whatsapp.Client // nil when constructed with a mock sender
	responses chan models.Response
	done      chan struct{}
}

// NewWhatsAppService creates a WhatsAppService wrapping the given sender.
// Event handling is only available when the sender is a full
// *whatsapp.Client.
func NewWhatsAppService(sender whatsapp.Sender) *WhatsAppService {
	service := &WhatsAppService{
		sender:    sender,
		responses: make(chan models.Response, DefaultChannelBufferSize),
		done:      make(chan struct{}),
	}
	if waClient, ok := sender.(*whatsapp.Client); ok {
		service.waClient = waClient
	} else {
		slog.Debug("WhatsAppService created without a full client, event handling disabled")
	}
	return service
}

// ValidateAndCanonicalizeRecipient reduces the recipient to bare digits,
// the form WhatsApp JIDs use.
func (s *WhatsAppService) ValidateAndCanonicalizeRecipient(recipient string) (string, error) {
	return canonicalizePhone(recipient)
}

// Start registers the event handler that feeds inbound messages into the
// responses channel.
func (s *WhatsAppService) Start(ctx context.Context) error {
	if s.waClient == nil || s.waClient.GetClient() == nil {
		slog.Debug("WhatsAppService Start without event source")
		return nil
	}
	s.waClient.GetClient().AddEventHandler(func(evt any) {
		if msg, ok := evt.(*events.Message); ok {
			s.handleIncomingMessage(msg)
		}
	})
	go func() {
		select {
		case <-ctx.Done():
		case <-s.done:
		}
		s.waClient.Disconnect()
	}()
	slog.Debug("WhatsAppService event handler registered")
	return nil
}

// Stop stops background processing.
func (s *WhatsAppService) Stop() error {
	close(s.done)
	close(s.responses)
	slog.Info("WhatsAppService stopped")
	return nil
}

// SendReply delivers a reply in its native shape.
func (s *WhatsAppService) SendReply(ctx context.Context, to string, reply models.Reply) error {
	select {
	case <-s.done:
		return ErrServiceStopped
	default:
	}
	canonical, err := s.ValidateAndCanonicalizeRecipient(to)
	if err != nil {
		return err
	}
	switch reply.Kind {
	case models.ReplyKindButtons:
		return s.sender.SendButtons(ctx, canonical, reply.Body, reply.Buttons)
	case models.ReplyKindList:
		return s.sender.SendList(ctx, canonical, reply.Body, reply.ButtonText, reply.SectionTitle, reply.Rows)
	default:
		return s.sender.SendText(ctx, canonical, reply.Body)
	}
}

// Responses returns the channel of incoming messages.
func (s *WhatsAppService) Responses() <-chan models.Response {
	return s.responses
}

// handleIncomingMessage translates a Whatsmeow event into a Response.
// Interactive taps carry the selected control id; media and other
// non-text content is dropped.
func (s *WhatsAppService) handleIncomingMessage(evt *events.Message) {
	if evt.Message == nil || evt.Info.IsFromMe || evt.Info.IsGroup {
		return
	}

	response := models.Response{
		From:      evt.Info.Sender.User,
		MessageID: evt.Info.ID,
		Time:      evt.Info.Timestamp.Unix(),
	}
	switch {
	case evt.Message.GetButtonsResponseMessage() != nil:
		btn := evt.Message.GetButtonsResponseMessage()
		response.SelectionID = btn.GetSelectedButtonID()
		response.Body = btn.GetSelectedDisplayText()
	case evt.Message.GetListResponseMessage() != nil:
		list := evt.Message.GetListResponseMessage()
		response.SelectionID = list.GetSingleSelectReply().GetSelectedRowID()
		response.Body = list.GetTitle()
	case evt.Message.GetConversation() != "":
		response.Body = evt.Message.GetConversation()
	case evt.Message.GetExtendedTextMessage().GetText() != "":
		response.Body = evt.Message.GetExtendedTextMessage().GetText()
	default:
		slog.Debug("WhatsAppService ignoring non-text message", "from", evt.Info.Sender.String())
		return
	}

	select {
	case s.responses <- response:
		slog.Debug("WhatsAppService inbound message forwarded", "from", response.From, "selection", response.SelectionID != "")
	case <-time.After(DefaultChannelTimeout):
		slog.Warn("WhatsAppService responses channel blocked, dropping message", "from", response.From)
	}
}
