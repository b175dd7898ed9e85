// Package api provides the webhook HTTP server for agendabot.
//
// It exposes the inbound message webhook (with the hub.challenge
// verification handshake), a status-acknowledgement path and a health
// endpoint. Conversation processing is delegated to the orchestrator and
// replies go back out through the messaging service.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/agendabot/agendabot/internal/messaging"
	"github.com/agendabot/agendabot/internal/models"
)

// DefaultAddr is the listen address used when none is configured.
const DefaultAddr = ":8080"

// DefaultHandleTimeout bounds one webhook envelope's trip through the engine.
const DefaultHandleTimeout = 30 * time.Second

// Opts holds configuration options for the API server.
type Opts struct {
	Addr        string
	VerifyToken string
}

// Option defines a configuration option for the API server.
type Option func(*Opts)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// WithVerifyToken sets the token expected by the webhook verification
// handshake.
func WithVerifyToken(token string) Option {
	return func(o *Opts) { o.VerifyToken = token }
}

// Server is the agendabot webhook HTTP server.
type Server struct {
	addr        string
	verifyToken string
	handler     messaging.Handler
	msgService  messaging.Service
	httpServer  *http.Server
}

// NewServer creates a webhook server. The messaging service may be nil, in
// which case replies are returned in the webhook response body only.
func NewServer(handler messaging.Handler, msgService messaging.Service, opts ...Option) *Server {
	cfg := Opts{Addr: DefaultAddr}
	for _, opt := range opts {
		opt(&cfg)
	}
	s := &Server{
		addr:        cfg.Addr,
		verifyToken: cfg.VerifyToken,
		handler:     handler,
		msgService:  msgService,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/webhook", s.webhookHandler)
	mux.HandleFunc("/health", s.healthHandler)
	if ts, ok := msgService.(*messaging.TwilioService); ok && ts != nil {
		mux.Handle("/twilio/webhook", ts.WebhookHandler())
	}
	s.httpServer = &http.Server{Addr: cfg.Addr, Handler: mux}
	return s
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server listening", "addr", s.addr)
		errCh <- s.httpServer.ListenAndServe()
	}()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Handler exposes the server's routing for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// webhookEnvelope is the wire shape of one inbound webhook item. Text and
// interactive payloads are nested objects; status items carry only the
// message id, status and timestamp.
type webhookEnvelope struct {
	OwnerID   string `json:"ownerId"`
	MessageID string `json:"messageId"`
	Type      string `json:"type"`
	Text      *struct {
		Body string `json:"body"`
	} `json:"text,omitempty"`
	InteractivePayload *struct {
		SelectedID string `json:"selectedId"`
	} `json:"interactivePayload,omitempty"`
	Status    string `json:"status,omitempty"`
	Timestamp int64  `json:"timestamp,omitempty"`
}

func (e webhookEnvelope) isStatus() bool {
	return e.Type == string(models.MessageTypeStatus) || (e.Type == "" && e.Status != "")
}

func (e webhookEnvelope) toEnvelope() models.Envelope {
	env := models.Envelope{
		OwnerID:   e.OwnerID,
		MessageID: e.MessageID,
		Type:      models.MessageType(e.Type),
		Timestamp: e.Timestamp,
	}
	if e.Text != nil {
		env.Text = e.Text.Body
	}
	if e.InteractivePayload != nil {
		env.SelectionID = e.InteractivePayload.SelectedID
	}
	if env.Type == "" {
		if env.SelectionID != "" {
			env.Type = models.MessageTypeInteractive
		} else {
			env.Type = models.MessageTypeText
		}
	}
	return env
}

func (s *Server) webhookHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	switch r.Method {
	case http.MethodGet:
		s.verifyWebhook(w, r)
	case http.MethodPost:
		s.receiveWebhook(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		slog.Warn("Server.webhookHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// verifyWebhook answers the subscription handshake: echo hub.challenge when
// the verify token matches.
func (s *Server) verifyWebhook(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	mode := query.Get("hub.mode")
	token := query.Get("hub.verify_token")
	challenge := query.Get("hub.challenge")
	if mode != "subscribe" || token == "" || token != s.verifyToken {
		slog.Warn("Server.verifyWebhook: verification rejected", "mode", mode)
		w.WriteHeader(http.StatusForbidden)
		return
	}
	slog.Info("Server.verifyWebhook: verification accepted")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(challenge)); err != nil {
		slog.Error("Server.verifyWebhook: failed to write challenge", "error", err)
	}
}

// receiveWebhook accepts a single envelope or a batch. Status items are
// counted and acknowledged without touching the engine; message items run
// through the orchestrator and replies go out on the messaging service.
func (s *Server) receiveWebhook(w http.ResponseWriter, r *http.Request) {
	body := json.RawMessage{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		slog.Warn("Server.receiveWebhook: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}

	var items []webhookEnvelope
	if len(body) > 0 && body[0] == '[' {
		if err := json.Unmarshal(body, &items); err != nil {
			writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
			return
		}
	} else {
		var single webhookEnvelope
		if err := json.Unmarshal(body, &single); err != nil {
			writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
			return
		}
		items = append(items, single)
	}

	acknowledged := 0
	processed := 0
	for _, item := range items {
		if item.isStatus() {
			acknowledged++
			continue
		}
		env := item.toEnvelope()
		if err := env.Validate(); err != nil {
			slog.Warn("Server.receiveWebhook: invalid envelope", "error", err, "messageId", env.MessageID)
			continue
		}
		ctx, cancel := context.WithTimeout(r.Context(), DefaultHandleTimeout)
		reply := s.handler.HandleMessage(ctx, env)
		cancel()
		processed++
		if reply.IsZero() || s.msgService == nil {
			continue
		}
		if err := s.msgService.SendReply(r.Context(), env.OwnerID, reply); err != nil {
			slog.Error("Server.receiveWebhook: failed to send reply", "error", err, "to", env.OwnerID)
		}
	}

	if processed == 0 {
		writeJSONResponse(w, http.StatusOK, map[string]int{"acknowledged": acknowledged})
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(map[string]int{
		"processed":    processed,
		"acknowledged": acknowledged,
	}))
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("agendabot is healthy", nil))
}
