package messaging

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/agendabot/agendabot/internal/models"
	"github.com/agendabot/agendabot/internal/twiliowhatsapp"
	"github.com/agendabot/agendabot/internal/whatsapp"
)

type sentCall struct {
	kind string
	to   string
	body string
}

// recordingSender implements whatsapp.Sender and records each call.
type recordingSender struct {
	calls []sentCall
}

func (r *recordingSender) SendText(ctx context.Context, to, body string) error {
	r.calls = append(r.calls, sentCall{kind: "text", to: to, body: body})
	return nil
}

func (r *recordingSender) SendButtons(ctx context.Context, to, body string, buttons []models.Button) error {
	r.calls = append(r.calls, sentCall{kind: "buttons", to: to, body: body})
	return nil
}

func (r *recordingSender) SendList(ctx context.Context, to, body, buttonText, sectionTitle string, rows []models.ListRow) error {
	r.calls = append(r.calls, sentCall{kind: "list", to: to, body: body})
	return nil
}

func TestCanonicalizePhone(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"+57 300 111-2233", "573001112233", false},
		{"whatsapp:+573001112233", "573001112233", false},
		{"573001112233", "573001112233", false},
		{"", "", true},
		{"abc", "", true},
		{"123", "", true},
	}
	for _, tc := range cases {
		got, err := canonicalizePhone(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("canonicalizePhone(%q) expected error, got %q", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("canonicalizePhone(%q) unexpected error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("canonicalizePhone(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestWhatsAppServiceSendReplyDispatchesByKind(t *testing.T) {
	sender := &recordingSender{}
	service := NewWhatsAppService(sender)
	ctx := context.Background()

	replies := []models.Reply{
		models.TextReply("hola"),
		{Kind: models.ReplyKindButtons, Body: "elige", Buttons: []models.Button{{ID: "a", Title: "A"}}},
		{Kind: models.ReplyKindList, Body: "lista", ButtonText: "Ver", Rows: []models.ListRow{{ID: "r", Title: "R"}}},
	}
	for _, reply := range replies {
		if err := service.SendReply(ctx, "+57 300 111 2233", reply); err != nil {
			t.Fatalf("SendReply(%s): %v", reply.Kind, err)
		}
	}

	if len(sender.calls) != 3 {
		t.Fatalf("expected 3 sends, got %d", len(sender.calls))
	}
	wantKinds := []string{"text", "buttons", "list"}
	for i, call := range sender.calls {
		if call.kind != wantKinds[i] {
			t.Errorf("call %d kind = %q, want %q", i, call.kind, wantKinds[i])
		}
		if call.to != "573001112233" {
			t.Errorf("call %d to = %q, want canonical digits", i, call.to)
		}
	}
}

func TestWhatsAppServiceRejectsBadRecipient(t *testing.T) {
	service := NewWhatsAppService(whatsapp.NewMockClient())
	if err := service.SendReply(context.Background(), "not-a-number", models.TextReply("x")); err == nil {
		t.Fatal("expected error for invalid recipient")
	}
}

func TestTwilioServiceSendReplyFlattens(t *testing.T) {
	sender := twiliowhatsapp.NewMockClient()
	service := NewTwilioService(sender)
	reply := models.Reply{
		Kind: models.ReplyKindButtons,
		Body: "¿Confirmas?",
		Buttons: []models.Button{
			{ID: "confirm_yes", Title: "Confirmar"},
			{ID: "confirm_no", Title: "Cancelar"},
		},
	}
	if err := service.SendReply(context.Background(), "573001112233", reply); err != nil {
		t.Fatalf("SendReply: %v", err)
	}
	if len(sender.SentMessages) != 1 {
		t.Fatalf("expected 1 send, got %d", len(sender.SentMessages))
	}
	if sender.SentMessages[0].To != "+573001112233" {
		t.Errorf("to = %q, want +573001112233", sender.SentMessages[0].To)
	}
	body := sender.SentMessages[0].Body
	if !strings.Contains(body, "1. Confirmar") || !strings.Contains(body, "2. Cancelar") {
		t.Errorf("fallback body missing numbered options: %q", body)
	}
}

func TestTwilioWebhookHandler(t *testing.T) {
	service := NewTwilioService(twiliowhatsapp.NewMockClient())
	handler := service.WebhookHandler()

	form := url.Values{}
	form.Set("From", "whatsapp:+573001112233")
	form.Set("Body", "hola")
	form.Set("MessageSid", "SM123")
	req := httptest.NewRequest(http.MethodPost, "/twilio/webhook", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	select {
	case response := <-service.Responses():
		if response.From != "573001112233" {
			t.Errorf("From = %q, want digits", response.From)
		}
		if response.Body != "hola" || response.MessageID != "SM123" {
			t.Errorf("unexpected response: %+v", response)
		}
	case <-time.After(time.Second):
		t.Fatal("no response emitted")
	}
}

func TestTwilioWebhookRejectsMissingFields(t *testing.T) {
	service := NewTwilioService(twiliowhatsapp.NewMockClient())
	handler := service.WebhookHandler()

	req := httptest.NewRequest(http.MethodPost, "/twilio/webhook", strings.NewReader("Body=hi"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/twilio/webhook", nil)
	rec = httptest.NewRecorder()
	handler(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET status = %d, want 405", rec.Code)
	}
}

func TestTwilioServiceStopDropsWebhook(t *testing.T) {
	service := NewTwilioService(twiliowhatsapp.NewMockClient())
	if err := service.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	// Stop twice must not panic.
	if err := service.Stop(); err != nil {
		t.Fatalf("second Stop: %v", err)
	}
	if service.emit(models.Response{From: "573001112233", Body: "x"}) {
		t.Error("emit after Stop should report dropped")
	}
	if err := service.SendReply(context.Background(), "573001112233", models.TextReply("x")); !errors.Is(err, ErrServiceStopped) {
		t.Errorf("SendReply after Stop = %v, want ErrServiceStopped", err)
	}
}

// stubService feeds canned responses and records replies sent back.
type stubService struct {
	responses chan models.Response
	sent      []sentCall
}

func newStubService() *stubService {
	return &stubService{responses: make(chan models.Response, 4)}
}

func (s *stubService) ValidateAndCanonicalizeRecipient(recipient string) (string, error) {
	return canonicalizePhone(recipient)
}

func (s *stubService) SendReply(ctx context.Context, to string, reply models.Reply) error {
	s.sent = append(s.sent, sentCall{kind: string(reply.Kind), to: to, body: reply.Body})
	return nil
}

func (s *stubService) Start(ctx context.Context) error { return nil }
func (s *stubService) Stop() error                     { close(s.responses); return nil }

func (s *stubService) Responses() <-chan models.Response { return s.responses }

type handlerFunc func(ctx context.Context, env models.Envelope) models.Reply

func (f handlerFunc) HandleMessage(ctx context.Context, env models.Envelope) models.Reply {
	return f(ctx, env)
}

func TestDispatcherRoundTrip(t *testing.T) {
	service := newStubService()
	var got models.Envelope
	handler := handlerFunc(func(ctx context.Context, env models.Envelope) models.Reply {
		got = env
		return models.TextReply("respuesta")
	})
	dispatcher := NewDispatcher(service, handler)

	service.responses <- models.Response{
		From:        "whatsapp:+573001112233",
		Body:        "Peluquería",
		MessageID:   "wamid.1",
		SelectionID: "cat_id_10",
		Time:        1748300000,
	}
	close(service.responses)
	dispatcher.Run(context.Background())

	if got.OwnerID != "573001112233" {
		t.Errorf("OwnerID = %q, want canonical digits", got.OwnerID)
	}
	if got.Type != models.MessageTypeInteractive {
		t.Errorf("Type = %q, want interactive", got.Type)
	}
	if got.EffectiveText() != "cat_id_10" {
		t.Errorf("EffectiveText = %q, want selection id", got.EffectiveText())
	}
	if len(service.sent) != 1 || service.sent[0].body != "respuesta" {
		t.Fatalf("expected reply sent back, got %+v", service.sent)
	}
}

func TestDispatcherSynthesizesMessageID(t *testing.T) {
	service := newStubService()
	var got models.Envelope
	handler := handlerFunc(func(ctx context.Context, env models.Envelope) models.Reply {
		got = env
		return models.Reply{}
	})
	dispatcher := NewDispatcher(service, handler)

	service.responses <- models.Response{From: "573001112233", Body: "hola"}
	close(service.responses)
	dispatcher.Run(context.Background())

	if !strings.HasPrefix(got.MessageID, "msg_") || len(got.MessageID) != len("msg_")+16 {
		t.Errorf("MessageID = %q, want synthetic msg_ id", got.MessageID)
	}
}

func TestDispatcherSkipsZeroReply(t *testing.T) {
	service := newStubService()
	handler := handlerFunc(func(ctx context.Context, env models.Envelope) models.Reply {
		return models.Reply{}
	})
	dispatcher := NewDispatcher(service, handler)

	service.responses <- models.Response{From: "573001112233", Body: "estado", MessageID: "m1"}
	close(service.responses)
	dispatcher.Run(context.Background())

	if len(service.sent) != 0 {
		t.Fatalf("expected no replies, got %+v", service.sent)
	}
}
