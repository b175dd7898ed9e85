// Package whatsapp wraps the Whatsmeow client for the scheduling assistant.
//
// It handles device login, session storage, and the three outgoing message
// shapes the engine produces: plain text, button sets, and selection lists.
package whatsapp

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mdp/qrterminal/v3"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	waLog "go.mau.fi/whatsmeow/util/log"
	"google.golang.org/protobuf/proto"

	"github.com/agendabot/agendabot/internal/models"
	"github.com/agendabot/agendabot/internal/store"
)

const (
	// DefaultSQLitePath is the default whatsmeow session database path.
	DefaultSQLitePath = "/var/lib/agendabot/whatsmeow.db"
	// JIDSuffix is the WhatsApp JID suffix for regular users.
	JIDSuffix = "s.whatsapp.net"
)

// Sender sends the reply shapes the engine produces. Implemented by Client
// and by mocks in tests.
type Sender interface {
	SendText(ctx context.Context, to string, body string) error
	SendButtons(ctx context.Context, to string, body string, buttons []models.Button) error
	SendList(ctx context.Context, to string, body, buttonText, sectionTitle string, rows []models.ListRow) error
}

// Opts holds configuration options for the WhatsApp client.
type Opts struct {
	DBDSN       string // whatsmeow session database connection string
	QRPath      string // path to write the login QR code
	NumericCode bool   // print the numeric pairing code instead of a QR
}

// Option defines a configuration option for the WhatsApp client.
type Option func(*Opts)

// WithDBDSN sets the whatsmeow session database connection string.
func WithDBDSN(dsn string) Option {
	return func(o *Opts) { o.DBDSN = dsn }
}

// WithQRCodeOutput writes the login QR code to the given path instead of
// stdout.
func WithQRCodeOutput(path string) Option {
	return func(o *Opts) { o.QRPath = path }
}

// WithNumericCode prints the numeric pairing code instead of a QR code.
func WithNumericCode() Option {
	return func(o *Opts) { o.NumericCode = true }
}

// Client wraps the Whatsmeow client for modular use.
type Client struct {
	waClient *whatsmeow.Client
}

// NewClient opens the session store, logs the device in if needed, and
// connects to WhatsApp.
func NewClient(opts ...Option) (*Client, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}

	dbDSN := cfg.DBDSN
	if dbDSN == "" {
		dbDSN = DefaultSQLitePath
		slog.Debug("WhatsApp no session DSN provided, using default SQLite path", "path", dbDSN)
	}
	dbDriver := store.DriverFor(dbDSN)
	if dbDriver == "sqlite3" && !strings.Contains(dbDSN, "foreign_keys") {
		slog.Warn("WhatsApp SQLite session store without foreign keys enabled; "+
			"whatsmeow recommends adding '?_foreign_keys=on' to the connection string",
			"dsn_example", "file:"+dbDSN+"?_foreign_keys=on")
	}

	ctx := context.Background()
	container, err := sqlstore.New(ctx, dbDriver, dbDSN, waLog.Stdout("Database", "INFO", true))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize WhatsApp session store: %w", err)
	}
	deviceStore, err := container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get device from WhatsApp store: %w", err)
	}
	waClient := whatsmeow.NewClient(deviceStore, waLog.Stdout("Client", "INFO", true))

	if waClient.Store.ID == nil {
		slog.Info("WhatsApp login required, starting pairing flow")
		qrChan, _ := waClient.GetQRChannel(context.Background())
		if err := waClient.Connect(); err != nil {
			return nil, fmt.Errorf("failed to connect to WhatsApp during login: %w", err)
		}
		writer := io.Writer(os.Stdout)
		if cfg.QRPath != "" {
			f, ferr := os.Create(cfg.QRPath)
			if ferr != nil {
				return nil, fmt.Errorf("failed to create QR file: %w", ferr)
			}
			defer f.Close()
			writer = f
		}
		for evt := range qrChan {
			if evt.Event == "code" {
				if cfg.NumericCode {
					fmt.Fprintln(writer, evt.Code)
				} else {
					qrterminal.GenerateHalfBlock(evt.Code, qrterminal.L, writer)
				}
			} else {
				slog.Debug("WhatsApp login event", "event", evt.Event)
			}
		}
	} else {
		slog.Debug("WhatsApp already paired, connecting")
		if err := waClient.Connect(); err != nil {
			return nil, fmt.Errorf("failed to connect to WhatsApp server: %w", err)
		}
	}
	slog.Info("WhatsApp client connected")
	return &Client{waClient: waClient}, nil
}

func (c *Client) send(ctx context.Context, to string, msg *waE2E.Message) error {
	if c.waClient == nil {
		return fmt.Errorf("whatsapp client not initialized")
	}
	if to == "" {
		return models.ErrEmptyRecipient
	}
	jid := types.NewJID(to, JIDSuffix)
	if _, err := c.waClient.SendMessage(ctx, jid, msg); err != nil {
		return fmt.Errorf("failed to send message to %s: %w", to, err)
	}
	return nil
}

// SendText sends a plain text message.
func (c *Client) SendText(ctx context.Context, to string, body string) error {
	if body == "" {
		return fmt.Errorf("message body cannot be empty")
	}
	slog.Debug("WhatsApp sending text", "to", to, "body_length", len(body))
	return c.send(ctx, to, &waE2E.Message{Conversation: &body})
}

// SendButtons sends a message with up to three inline reply buttons.
func (c *Client) SendButtons(ctx context.Context, to string, body string, buttons []models.Button) error {
	if len(buttons) == 0 || len(buttons) > models.MaxButtons {
		return fmt.Errorf("button count %d outside 1..%d", len(buttons), models.MaxButtons)
	}
	waButtons := make([]*waE2E.ButtonsMessage_Button, 0, len(buttons))
	for _, b := range buttons {
		waButtons = append(waButtons, &waE2E.ButtonsMessage_Button{
			ButtonID:   proto.String(b.ID),
			ButtonText: &waE2E.ButtonsMessage_Button_ButtonText{DisplayText: proto.String(b.Title)},
			Type:       waE2E.ButtonsMessage_Button_RESPONSE.Enum(),
		})
	}
	slog.Debug("WhatsApp sending buttons", "to", to, "buttons", len(waButtons))
	return c.send(ctx, to, &waE2E.Message{
		ButtonsMessage: &waE2E.ButtonsMessage{
			ContentText: proto.String(body),
			HeaderType:  waE2E.ButtonsMessage_EMPTY.Enum(),
			Buttons:     waButtons,
		},
	})
}

// SendList sends a single-section selection list.
func (c *Client) SendList(ctx context.Context, to string, body, buttonText, sectionTitle string, rows []models.ListRow) error {
	if len(rows) == 0 || len(rows) > models.MaxListRows {
		return fmt.Errorf("row count %d outside 1..%d", len(rows), models.MaxListRows)
	}
	waRows := make([]*waE2E.ListMessage_Row, 0, len(rows))
	for _, r := range rows {
		waRows = append(waRows, &waE2E.ListMessage_Row{
			RowID:       proto.String(r.ID),
			Title:       proto.String(r.Title),
			Description: proto.String(r.Description),
		})
	}
	slog.Debug("WhatsApp sending list", "to", to, "rows", len(waRows))
	return c.send(ctx, to, &waE2E.Message{
		ListMessage: &waE2E.ListMessage{
			Description: proto.String(body),
			ButtonText:  proto.String(buttonText),
			ListType:    waE2E.ListMessage_SINGLE_SELECT.Enum(),
			Sections: []*waE2E.ListMessage_Section{{
				Title: proto.String(sectionTitle),
				Rows:  waRows,
			}},
		},
	})
}

// GetClient returns the underlying whatsmeow client for event handling.
func (c *Client) GetClient() *whatsmeow.Client {
	return c.waClient
}

// Disconnect closes the connection to WhatsApp.
func (c *Client) Disconnect() {
	if c.waClient != nil {
		c.waClient.Disconnect()
	}
}

// MockClient is a Sender that records nothing and always succeeds, for
// tests that must not open real WhatsApp connections.
type MockClient struct{}

// NewMockClient returns a no-op Sender.
func NewMockClient() *MockClient { return &MockClient{} }

func (m *MockClient) SendText(context.Context, string, string) error { return nil }

func (m *MockClient) SendButtons(context.Context, string, string, []models.Button) error {
	return nil
}

func (m *MockClient) SendList(context.Context, string, string, string, string, []models.ListRow) error {
	return nil
}
