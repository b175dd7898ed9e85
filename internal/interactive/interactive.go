// Package interactive builds platform-constrained UI payloads and resolves
// raw user input against the option set offered on the previous screen.
//
// Both halves are pure: no I/O, no clock, no shared state. Flows own
// pagination; this package only guarantees the per-screen caps.
package interactive

import (
	"strings"

	"github.com/agendabot/agendabot/internal/models"
)

// Mode selects the rendered shape.
type Mode string

const (
	// ModeAuto picks inline buttons when the options fit, a list otherwise.
	ModeAuto Mode = "auto"
	// ModeList forces the list shape regardless of option count.
	ModeList Mode = "list"
)

// Opts holds optional renderer configuration.
type Opts struct {
	SectionTitle string
	ButtonText   string
}

// Option configures rendering via functional options.
type Option func(*Opts)

// WithSectionTitle overrides the list section title.
func WithSectionTitle(title string) Option {
	return func(o *Opts) { o.SectionTitle = title }
}

// WithButtonText overrides the list open-control label.
func WithButtonText(text string) Option {
	return func(o *Opts) { o.ButtonText = text }
}

// Truncate clamps s to max runes. Truncation never errors; over-long input
// is cut, not rejected.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

// Render builds the outgoing reply for a set of options. Inline buttons are
// used when the set fits in three controls and mode does not force a list;
// a single-section list otherwise. All labels are clamped to the platform
// limits and overflow rows beyond the list cap are dropped.
func Render(body string, options []models.Option, mode Mode, opts ...Option) models.Reply {
	cfg := Opts{SectionTitle: "Opciones", ButtonText: "Ver opciones"}
	for _, opt := range opts {
		opt(&cfg)
	}

	if len(options) == 0 {
		return models.TextReply(body)
	}

	if mode != ModeList && len(options) <= models.MaxButtons {
		buttons := make([]models.Button, 0, len(options))
		for _, o := range options {
			buttons = append(buttons, models.Button{
				ID:    o.ID,
				Title: Truncate(o.Title, models.MaxButtonTitleLen),
			})
		}
		return models.Reply{Kind: models.ReplyKindButtons, Body: body, Buttons: buttons}
	}

	rows := options
	if len(rows) > models.MaxListRows {
		rows = rows[:models.MaxListRows]
	}
	listRows := make([]models.ListRow, 0, len(rows))
	for _, o := range rows {
		listRows = append(listRows, models.ListRow{
			ID:          o.ID,
			Title:       Truncate(o.Title, models.MaxRowTitleLen),
			Description: Truncate(o.Description, models.MaxRowDescLen),
		})
	}
	return models.Reply{
		Kind:         models.ReplyKindList,
		Body:         body,
		ButtonText:   Truncate(cfg.ButtonText, models.MaxListButtonLen),
		SectionTitle: Truncate(cfg.SectionTitle, models.MaxSectionTitleLen),
		Rows:         listRows,
	}
}

// professionalNameKeys are the backend name parts assembled for full-name
// matching, in display order.
var professionalNameKeys = []string{"VcFirstName", "VcSecondName", "VcFirstLastName", "VcSecondLastName"}

// FullName assembles a professional's display name from the backend record's
// name parts, skipping blanks.
func FullName(r models.Record) string {
	parts := make([]string, 0, len(professionalNameKeys))
	for _, key := range professionalNameKeys {
		if p := strings.TrimSpace(r.Str(key)); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}
