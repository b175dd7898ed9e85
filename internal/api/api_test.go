package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/agendabot/agendabot/internal/models"
	"github.com/agendabot/agendabot/internal/testutil"
)

type handlerFunc func(ctx context.Context, env models.Envelope) models.Reply

func (f handlerFunc) HandleMessage(ctx context.Context, env models.Envelope) models.Reply {
	return f(ctx, env)
}

func newTestServer(t *testing.T, f handlerFunc) *Server {
	t.Helper()
	return NewServer(f, nil, WithVerifyToken("secreto"))
}

func TestWebhookVerification(t *testing.T) {
	server := newTestServer(t, func(ctx context.Context, env models.Envelope) models.Reply {
		t.Error("handler should not run during verification")
		return models.Reply{}
	})

	req := httptest.NewRequest(http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=secreto&hub.challenge=12345", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "12345" {
		t.Errorf("challenge echo = %q, want 12345", rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=12345", nil)
	rec = httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("wrong token status = %d, want 403", rec.Code)
	}
}

func TestWebhookMessageReachesHandler(t *testing.T) {
	var got models.Envelope
	server := newTestServer(t, func(ctx context.Context, env models.Envelope) models.Reply {
		got = env
		return models.TextReply("hola")
	})

	payload := `{
		"ownerId": "573001112233",
		"messageId": "wamid.1",
		"type": "interactive",
		"interactivePayload": {"selectedId": "cat_id_10"}
	}`
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got.OwnerID != "573001112233" || got.SelectionID != "cat_id_10" {
		t.Errorf("unexpected envelope: %+v", got)
	}
	if got.EffectiveText() != "cat_id_10" {
		t.Errorf("EffectiveText = %q, want selection id", got.EffectiveText())
	}

	var response models.APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if response.Status != models.APIStatusOK {
		t.Errorf("response status = %q, want ok", response.Status)
	}
}

func TestWebhookStatusOnlyAcknowledged(t *testing.T) {
	calls := 0
	server := newTestServer(t, func(ctx context.Context, env models.Envelope) models.Reply {
		calls++
		return models.Reply{}
	})

	payload := `[
		{"messageId": "wamid.1", "status": "delivered", "timestamp": 1748300000},
		{"messageId": "wamid.2", "status": "read", "timestamp": 1748300001}
	]`
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if calls != 0 {
		t.Errorf("handler invoked %d times for status-only payload", calls)
	}
	var response map[string]int
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if response["acknowledged"] != 2 {
		t.Errorf("acknowledged = %d, want 2", response["acknowledged"])
	}
}

func TestWebhookRejectsBadJSON(t *testing.T) {
	server := newTestServer(t, func(ctx context.Context, env models.Envelope) models.Reply {
		return models.Reply{}
	})
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	server := newTestServer(t, func(ctx context.Context, env models.Envelope) models.Reply {
		return models.Reply{}
	})
	req := testutil.CreateHTTPRequest(t, http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	testutil.AssertHTTPStatus(t, http.StatusOK, rec.Code, "health endpoint")
	testutil.AssertJSONResponse(t, rec, models.APIStatusOK)
}
