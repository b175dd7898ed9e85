// Package botapi is the client for the backend business API: identity,
// conversation state, catalog, availability, booking, and message audit.
//
// All lookups treat 404 as "no data" rather than an error, matching the
// read-step recovery rules: a missing record re-prompts the user, it never
// crashes the turn. Timeouts are short and bounded because every call sits
// inside a live conversation turn.
package botapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/agendabot/agendabot/internal/models"
)

const (
	defaultRequestTimeout = 10 * time.Second
	defaultConnectTimeout = 5 * time.Second
)

// Error describes a failed backend call.
type Error struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("botapi: %s: status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("botapi: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// FlowContext tags an audited message with the flow position it belonged to.
type FlowContext struct {
	Flow string `json:"flow"`
	Step string `json:"step"`
}

// Opts holds configuration options for the backend client.
type Opts struct {
	Token      string
	HTTPClient *http.Client
}

// Option configures the backend client.
type Option func(*Opts)

// WithToken sets the x-api-token header value.
func WithToken(token string) Option {
	return func(o *Opts) { o.Token = token }
}

// WithHTTPClient overrides the HTTP client, mainly for tests.
func WithHTTPClient(c *http.Client) Option {
	return func(o *Opts) { o.HTTPClient = c }
}

// Client talks to the backend business API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient creates a backend client rooted at baseURL (including the
// /api/vN prefix).
func NewClient(baseURL string, opts ...Option) *Client {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: defaultRequestTimeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{Timeout: defaultConnectTimeout}).DialContext,
			},
		}
	}
	return &Client{baseURL: baseURL, token: cfg.Token, http: httpClient}
}

// do performs one request and returns the status code and raw body. Network
// failures and timeouts come back as *Error with no status code.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload any) (int, []byte, error) {
	u := c.baseURL + "/" + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	var body io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, &Error{Op: method + " " + path, Err: err}
		}
		body = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return 0, nil, &Error{Op: method + " " + path, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("x-api-token", c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, &Error{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, &Error{Op: method + " " + path, Err: err}
	}
	return resp.StatusCode, raw, nil
}

// envelope is the backend's uniform response wrapper.
type envelope struct {
	Data json.RawMessage `json:"data"`
}

func decodeData(raw []byte, out any) error {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return err
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}

// IsMessageProcessed reports whether the channel message id was already
// handled. Errors are returned so the caller can choose to proceed.
func (c *Client) IsMessageProcessed(ctx context.Context, messageID string) (bool, error) {
	status, raw, err := c.do(ctx, http.MethodGet, "message-history/whatsapp/"+url.PathEscape(messageID), nil, nil)
	if err != nil {
		return false, err
	}
	switch {
	case status == http.StatusOK:
		var data models.Record
		if err := decodeData(raw, &data); err != nil {
			return false, &Error{Op: "decode message-history", Err: err}
		}
		return data != nil, nil
	case status == http.StatusNotFound:
		return false, nil
	default:
		return false, &Error{Op: "get message-history", StatusCode: status}
	}
}

// auditPayload is the message-history write shape.
type auditPayload struct {
	ContactID   string         `json:"contactId"`
	MessageID   string         `json:"messageId"`
	Direction   string         `json:"direction"`
	Content     map[string]any `json:"content"`
	FlowContext FlowContext    `json:"flowContext"`
	WaMessageID string         `json:"waMessageId,omitempty"`
}

func (c *Client) logMessage(ctx context.Context, direction, contactID, messageID, content string, fc FlowContext, waMessageID string) error {
	if fc.Flow == "" {
		fc.Flow = "general"
	}
	if fc.Step == "" {
		if direction == "inbound" {
			fc.Step = "initial"
		} else {
			fc.Step = "response"
		}
	}
	payload := auditPayload{
		ContactID:   contactID,
		MessageID:   messageID,
		Direction:   direction,
		Content:     map[string]any{"type": "text", "text": content},
		FlowContext: fc,
		WaMessageID: waMessageID,
	}
	status, _, err := c.do(ctx, http.MethodPost, "message-history", nil, payload)
	if err != nil {
		return err
	}
	// 409 means the entry already exists, which is fine for an audit log.
	if status == http.StatusOK || status == http.StatusCreated || status == http.StatusConflict {
		return nil
	}
	return &Error{Op: "post message-history", StatusCode: status}
}

// LogInbound records an inbound message for audit. Best-effort; callers
// must not fail the turn on error.
func (c *Client) LogInbound(ctx context.Context, contactID, messageID, content string, fc FlowContext) error {
	return c.logMessage(ctx, "inbound", contactID, messageID, content, fc, "")
}

// LogOutbound records an outbound message for audit. Best-effort.
func (c *Client) LogOutbound(ctx context.Context, contactID, messageID, content string, fc FlowContext, waMessageID string) error {
	return c.logMessage(ctx, "outbound", contactID, messageID, content, fc, waMessageID)
}

// GetOrCreateContact resolves the durable contact for a channel phone,
// creating it when absent. A create conflict re-fetches once.
func (c *Client) GetOrCreateContact(ctx context.Context, phone string) (models.Record, error) {
	status, raw, err := c.do(ctx, http.MethodGet, "contacts/phone/"+url.PathEscape(phone), nil, nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusOK {
		var contact models.Record
		if err := decodeData(raw, &contact); err != nil {
			return nil, &Error{Op: "decode contact", Err: err}
		}
		if contact != nil {
			return contact, nil
		}
	}

	status, raw, err = c.do(ctx, http.MethodPost, "contacts", nil, map[string]any{"phone": phone})
	if err != nil {
		return nil, err
	}
	switch {
	case status == http.StatusOK || status == http.StatusCreated:
		var contact models.Record
		if err := decodeData(raw, &contact); err != nil {
			return nil, &Error{Op: "decode contact", Err: err}
		}
		return contact, nil
	case status == http.StatusConflict:
		status, raw, err = c.do(ctx, http.MethodGet, "contacts/phone/"+url.PathEscape(phone), nil, nil)
		if err != nil {
			return nil, err
		}
		if status == http.StatusOK {
			var contact models.Record
			if err := decodeData(raw, &contact); err != nil {
				return nil, &Error{Op: "decode contact", Err: err}
			}
			return contact, nil
		}
		return nil, &Error{Op: "refetch contact after conflict", StatusCode: status}
	default:
		return nil, &Error{Op: "create contact", StatusCode: status}
	}
}

// GetContactByID fetches a contact document, or nil when it is gone.
func (c *Client) GetContactByID(ctx context.Context, contactID string) (models.Record, error) {
	status, raw, err := c.do(ctx, http.MethodGet, "contacts/"+url.PathEscape(contactID), nil, nil)
	if err != nil {
		return nil, err
	}
	switch {
	case status == http.StatusOK:
		var contact models.Record
		if err := decodeData(raw, &contact); err != nil {
			return nil, &Error{Op: "decode contact", Err: err}
		}
		return contact, nil
	case status == http.StatusNotFound:
		return nil, nil
	default:
		return nil, &Error{Op: "get contact", StatusCode: status}
	}
}

// GetConversationState loads the persisted flow state for a contact.
// Returns (nil, nil) when no flow is mid-progress.
func (c *Client) GetConversationState(ctx context.Context, contactID string) (*models.StoredState, error) {
	status, raw, err := c.do(ctx, http.MethodGet, "conversation-states/contact/"+url.PathEscape(contactID), nil, nil)
	if err != nil {
		return nil, err
	}
	switch {
	case status == http.StatusOK:
		var decoded models.Record
		if err := decodeData(raw, &decoded); err != nil {
			return nil, &Error{Op: "decode conversation state", Err: err}
		}
		if decoded == nil {
			return nil, nil
		}
		// Some backend versions nest the document under _doc.
		if doc := models.AsRecord(decoded["_doc"]); doc != nil {
			decoded = doc
		}
		stored := &models.StoredState{
			ContactID: decoded.Str("contactId"),
			Flow:      models.FlowType(decoded.Str("flow")),
		}
		if st := models.AsRecord(decoded["state"]); st != nil {
			stored.State = models.FlowState{
				Step: models.StepType(st.Str("step")),
				Data: models.AsRecord(st["data"]),
			}
		}
		return stored, nil
	case status == http.StatusNotFound:
		return nil, nil
	default:
		return nil, &Error{Op: "get conversation state", StatusCode: status}
	}
}

// SaveConversationState persists the state for a contact. The backend keeps
// at most one active state per contact, so any existing one is cleared first.
func (c *Client) SaveConversationState(ctx context.Context, contactID string, flow models.FlowType, state models.FlowState) error {
	if err := c.ClearConversationState(ctx, contactID); err != nil {
		return err
	}
	payload := map[string]any{
		"contactId": contactID,
		"flow":      string(flow),
		"state":     state,
	}
	status, _, err := c.do(ctx, http.MethodPost, "conversation-states", nil, payload)
	if err != nil {
		return err
	}
	if status == http.StatusOK || status == http.StatusCreated {
		return nil
	}
	return &Error{Op: "save conversation state", StatusCode: status}
}

// ClearConversationState deletes the state for a contact. A 404 is success:
// there was nothing to clear.
func (c *Client) ClearConversationState(ctx context.Context, contactID string) error {
	status, _, err := c.do(ctx, http.MethodDelete, "conversation-states/contact/"+url.PathEscape(contactID), nil, nil)
	if err != nil {
		return err
	}
	if status == http.StatusOK || status == http.StatusNoContent || status == http.StatusNotFound {
		return nil
	}
	return &Error{Op: "clear conversation state", StatusCode: status}
}

// GetClientByPhone finds the registered client for a phone, or nil.
func (c *Client) GetClientByPhone(ctx context.Context, phone string) (models.Record, error) {
	status, raw, err := c.do(ctx, http.MethodGet, "clients/cellphone/"+url.PathEscape(phone), nil, nil)
	if err != nil {
		return nil, err
	}
	switch {
	case status == http.StatusOK:
		var client models.Record
		if err := decodeData(raw, &client); err != nil {
			return nil, &Error{Op: "decode client", Err: err}
		}
		return client, nil
	case status == http.StatusNotFound, status == http.StatusConflict:
		return nil, nil
	default:
		return nil, &Error{Op: "get client by phone", StatusCode: status}
	}
}

// CreateClient registers a new client account.
func (c *Client) CreateClient(ctx context.Context, fields models.Record) (models.Record, error) {
	status, raw, err := c.do(ctx, http.MethodPost, "clients", nil, fields)
	if err != nil {
		return nil, err
	}
	if status == http.StatusOK || status == http.StatusCreated {
		var client models.Record
		if err := decodeData(raw, &client); err != nil {
			return nil, &Error{Op: "decode created client", Err: err}
		}
		return client, nil
	}
	return nil, &Error{Op: "create client", StatusCode: status}
}

func (c *Client) getRecords(ctx context.Context, op, path string, query url.Values) ([]models.Record, error) {
	status, raw, err := c.do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, &Error{Op: op, StatusCode: status}
	}
	var records []models.Record
	if err := decodeData(raw, &records); err != nil {
		return nil, &Error{Op: "decode " + op, Err: err}
	}
	return records, nil
}

// ListCategories returns all service categories.
func (c *Client) ListCategories(ctx context.Context) ([]models.Record, error) {
	return c.getRecords(ctx, "list categories", "category-services", nil)
}

// ListServicesByCategory returns the services of one category.
func (c *Client) ListServicesByCategory(ctx context.Context, categoryID int) ([]models.Record, error) {
	return c.getRecords(ctx, "list services", "services/category/"+strconv.Itoa(categoryID), nil)
}

// ListProfessionalsByService returns the professionals offering a service.
func (c *Client) ListProfessionalsByService(ctx context.Context, serviceID int) ([]models.Record, error) {
	return c.getRecords(ctx, "list professionals", "professional/service/"+strconv.Itoa(serviceID), nil)
}

// ListAvailableDates returns upcoming availability for a professional and
// service. startDate (MM/DD/YYYY) is the pagination cursor: pass the last
// shown date to fetch the window after it, empty for the first page.
func (c *Client) ListAvailableDates(ctx context.Context, professionalID, serviceID, daysAhead int, startDate string) ([]models.Record, error) {
	query := url.Values{}
	query.Set("serviceId", strconv.Itoa(serviceID))
	query.Set("daysAhead", strconv.Itoa(daysAhead))
	if startDate != "" {
		query.Set("startDate", startDate)
	}
	path := "professional/" + strconv.Itoa(professionalID) + "/general-availability"
	return c.getRecords(ctx, "list available dates", path, query)
}

// backendPeriods maps the backend's period keys to the engine's ids.
var backendPeriods = map[string]string{
	"mañana": models.PeriodMorning,
	"tarde":  models.PeriodAfternoon,
	"noche":  models.PeriodEvening,
}

// ListSlotsByDate returns the free start times of one date grouped by
// period of day, keyed by the engine's period ids. Times come back in the
// backend's 12-hour display format.
func (c *Client) ListSlotsByDate(ctx context.Context, professionalID, serviceID int, date string) (map[string][]string, error) {
	query := url.Values{}
	query.Set("serviceId", strconv.Itoa(serviceID))
	query.Set("date", date)
	path := "professional/" + strconv.Itoa(professionalID) + "/available-slots"
	status, raw, err := c.do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, &Error{Op: "list slots", StatusCode: status}
	}
	var byBackendKey map[string][]string
	if err := decodeData(raw, &byBackendKey); err != nil {
		return nil, &Error{Op: "decode slots", Err: err}
	}
	slots := make(map[string][]string, len(backendPeriods))
	for backendKey, period := range backendPeriods {
		slots[period] = byBackendKey[backendKey]
	}
	return slots, nil
}

// CreateAppointment books an appointment and returns the created record.
func (c *Client) CreateAppointment(ctx context.Context, fields models.Record) (models.Record, error) {
	status, raw, err := c.do(ctx, http.MethodPost, "appointments", nil, fields)
	if err != nil {
		return nil, err
	}
	if status == http.StatusOK || status == http.StatusCreated {
		var appointment models.Record
		if err := decodeData(raw, &appointment); err != nil {
			return nil, &Error{Op: "decode created appointment", Err: err}
		}
		return appointment, nil
	}
	return nil, &Error{Op: "create appointment", StatusCode: status}
}

// ListClientAppointments returns a client's appointments, optionally only
// the pending ones.
func (c *Client) ListClientAppointments(ctx context.Context, clientID int, pendingOnly bool) ([]models.Record, error) {
	var query url.Values
	if pendingOnly {
		query = url.Values{"status": []string{"pending"}}
	}
	return c.getRecords(ctx, "list client appointments", "appointments/client/"+strconv.Itoa(clientID), query)
}

// IsTimeout reports whether err is a timeout-flavored backend failure.
func IsTimeout(err error) bool {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return false
	}
	var netErr net.Error
	return errors.As(apiErr.Err, &netErr) && netErr.Timeout()
}
