// Package tone defines the whitelist of style tags an operator can apply to
// the outgoing-message polisher, and builds the prompt guide those tags
// translate into.
package tone

import (
	"fmt"
	"strings"
)

// AllTags is the hard-coded set of accepted style tags.
var AllTags = map[string]bool{
	// Style
	"concise":   true,
	"detailed":  true,
	"formal":    true,
	"casual":    true,
	"no_emojis": true,
	"emojis_ok": true,
	// Stance
	"warm_supportive":      true,
	"neutral_professional": true,
}

// mutuallyExclusivePairs defines tags where at most one may be active.
// The first tag named wins.
var mutuallyExclusivePairs = [][2]string{
	{"concise", "detailed"},
	{"formal", "casual"},
	{"no_emojis", "emojis_ok"},
	{"warm_supportive", "neutral_professional"},
}

// Normalize lowercases, trims and deduplicates tags, rejecting any tag
// outside the whitelist. When both tags of an exclusive pair are present,
// the one listed first is kept.
func Normalize(tags []string) ([]string, error) {
	seen := make(map[string]bool, len(tags))
	cleaned := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(strings.ToLower(t))
		if t == "" || seen[t] {
			continue
		}
		if !AllTags[t] {
			return nil, fmt.Errorf("unknown tone tag %q", t)
		}
		seen[t] = true
		cleaned = append(cleaned, t)
	}
	for _, pair := range mutuallyExclusivePairs {
		if seen[pair[0]] && seen[pair[1]] {
			seen[pair[1]] = false
			cleaned = remove(cleaned, pair[1])
		}
	}
	return cleaned, nil
}

// BuildGuide produces the instruction snippet the polisher appends to its
// system prompt. Returns an empty string when there are no tags.
func BuildGuide(tags []string) string {
	if len(tags) == 0 {
		return ""
	}

	set := make(map[string]bool, len(tags))
	for _, t := range tags {
		set[t] = true
	}

	var b strings.Builder
	b.WriteString("\nAjusta el estilo del mensaje:\n")

	if set["concise"] {
		b.WriteString("- Sé conciso: frases cortas, sin relleno.\n")
	}
	if set["detailed"] {
		b.WriteString("- Explica con algo más de detalle, sin divagar.\n")
	}
	if set["formal"] {
		b.WriteString("- Usa un registro formal (trata de usted).\n")
	}
	if set["casual"] {
		b.WriteString("- Usa un lenguaje cercano y amistoso (tutea).\n")
	}
	if set["no_emojis"] {
		b.WriteString("- NO uses emojis.\n")
	} else if set["emojis_ok"] {
		b.WriteString("- Puedes usar emojis donde aporten.\n")
	}

	switch {
	case set["warm_supportive"]:
		b.WriteString("- Mantén un tono cálido y acogedor.\n")
	case set["neutral_professional"]:
		b.WriteString("- Mantén un tono neutro y profesional.\n")
	}

	b.WriteString("- Nunca copies hostilidad, sarcasmo ni lenguaje inseguro del usuario.\n")

	return b.String()
}

func remove(tags []string, tag string) []string {
	out := tags[:0]
	for _, t := range tags {
		if t != tag {
			out = append(out, t)
		}
	}
	return out
}
