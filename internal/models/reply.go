// Outgoing reply shapes.
package models

import "strconv"

// ReplyKind identifies how a reply is rendered on the channel.
type ReplyKind string

const (
	// ReplyKindText is a plain text message.
	ReplyKindText ReplyKind = "text"
	// ReplyKindButtons is a bounded inline control set (at most three).
	ReplyKindButtons ReplyKind = "buttons"
	// ReplyKindList is a single-section paginated list (at most ten rows).
	ReplyKindList ReplyKind = "list"
)

// Platform limits for interactive payloads. Violating them causes outright
// rejection by the transport, so the renderer clamps to these values.
const (
	MaxButtons         = 3
	MaxButtonTitleLen  = 20
	MaxListRows        = 10
	MaxRowTitleLen     = 20
	MaxRowDescLen      = 72
	MaxSectionTitleLen = 24
	MaxListButtonLen   = 20
)

// Button is one inline control of a buttons reply.
type Button struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// ListRow is one selectable row of a list reply.
type ListRow struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// Reply is the outgoing content produced by one turn: plain text, a bounded
// button set, or a single-section list.
type Reply struct {
	Kind         ReplyKind `json:"kind"`
	Body         string    `json:"body"`
	Buttons      []Button  `json:"buttons,omitempty"`
	ButtonText   string    `json:"button_text,omitempty"`
	SectionTitle string    `json:"section_title,omitempty"`
	Rows         []ListRow `json:"rows,omitempty"`
}

// TextReply builds a plain text reply.
func TextReply(body string) Reply {
	return Reply{Kind: ReplyKindText, Body: body}
}

// IsZero reports whether the reply carries no content at all.
func (r Reply) IsZero() bool {
	return r.Kind == "" && r.Body == ""
}

// Fallback returns a numbered plain-text rendering for channels without
// interactive controls. Numeric input still resolves through the selector.
func (r Reply) Fallback() string {
	switch r.Kind {
	case ReplyKindButtons:
		out := r.Body
		for i, b := range r.Buttons {
			out += "\n" + strconv.Itoa(i+1) + ". " + b.Title
		}
		return out
	case ReplyKindList:
		out := r.Body
		for i, row := range r.Rows {
			out += "\n" + strconv.Itoa(i+1) + ". " + row.Title
			if row.Description != "" {
				out += " - " + row.Description
			}
		}
		return out
	default:
		return r.Body
	}
}
