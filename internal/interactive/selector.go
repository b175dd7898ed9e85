// Option resolution.
package interactive

import (
	"strconv"
	"strings"

	"github.com/agendabot/agendabot/internal/models"
)

// Resolve matches raw user input against the offered options. Stages run in
// order of precision and the first match wins: control id, exact title,
// 1-based index, substring either direction, professional full name. The
// same logical choice can arrive as a tap, a typed number, or free text, so
// higher-precision stages must run first to avoid false-positive advancement.
// The second return is false when nothing matches; the caller re-prompts
// with the same option set and never advances.
func Resolve(raw string, options []models.Option) (models.Option, bool) {
	input := strings.TrimSpace(raw)
	if input == "" || len(options) == 0 {
		return models.Option{}, false
	}

	for _, o := range options {
		if input == o.ID {
			return o, true
		}
	}

	lower := strings.ToLower(input)
	for _, o := range options {
		if lower == strings.ToLower(strings.TrimSpace(o.Title)) {
			return o, true
		}
	}

	if n, err := strconv.Atoi(input); err == nil && n >= 1 && n <= len(options) {
		return options[n-1], true
	}

	for _, o := range options {
		title := strings.ToLower(strings.TrimSpace(o.Title))
		if title == "" {
			continue
		}
		if strings.Contains(title, lower) || strings.Contains(lower, title) {
			return o, true
		}
	}

	for _, o := range options {
		if o.Payload == nil {
			continue
		}
		full := strings.ToLower(FullName(o.Payload))
		if full == "" {
			continue
		}
		if lower == full || strings.Contains(full, lower) {
			return o, true
		}
	}

	return models.Option{}, false
}
