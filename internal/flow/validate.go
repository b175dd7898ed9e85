package flow

import (
	"strings"
	"unicode"
)

// validDocument reports whether the input looks like an identification
// number: at least six digits after stripping common separators.
func validDocument(input string) (string, bool) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '.', '-':
			return -1
		}
		return r
	}, strings.TrimSpace(input))
	if len(cleaned) < 6 {
		return "", false
	}
	for _, r := range cleaned {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	return cleaned, true
}

// validPhone reports whether the input looks like a dialable phone number:
// seven to fifteen digits after stripping a leading plus and separators.
func validPhone(input string) (string, bool) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')', '+':
			return -1
		}
		return r
	}, strings.TrimSpace(input))
	if len(cleaned) < 7 || len(cleaned) > 15 {
		return "", false
	}
	for _, r := range cleaned {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	return cleaned, true
}

// validName reports whether the input looks like a person's name: letters
// and spaces only, at least two letters.
func validName(input string) (string, bool) {
	cleaned := strings.Join(strings.Fields(input), " ")
	letters := 0
	for _, r := range cleaned {
		if unicode.IsLetter(r) {
			letters++
			continue
		}
		if r != ' ' {
			return "", false
		}
	}
	if letters < 2 {
		return "", false
	}
	return cleaned, true
}
