package conversation

import (
	"math/rand/v2"
	"strings"
	"sync"
	"time"
)

// unknownWindow is how long consecutive unrecognized messages keep
// escalating before the counter resets.
const unknownWindow = 5 * time.Minute

// tierOpeners holds the opening lines per escalation tier. One is picked
// at random so repeated misses do not read like a broken record.
var tierOpeners = [][]string{
	{
		"Hmm, no estoy seguro de entender completamente lo que necesitas. 🤔",
		"Disculpa, no logré captar exactamente qué buscas. 😅",
		"Perdón, no me queda del todo claro lo que necesitas. 🤷‍♀️",
		"Lo siento, no entendí bien tu mensaje. 😊",
	},
	{
		"Veo que no he logrado entenderte bien. 😔 Déjame ayudarte de otra manera:",
		"Parece que no estoy captando lo que necesitas. 🤨 Te doy algunas opciones:",
		"Creo que no nos estamos entendiendo bien. 😅 ¿Será que alguna de estas opciones te sirve?",
	},
	{
		"Definitivamente no estoy entendiendo lo que necesitas. 😰",
		"Parece que tengo dificultades para ayudarte. 🆘",
		"No logro comprender qué buscas exactamente. 😞",
	},
}

// keywordHints suggest the most likely flow from words in the failed
// message. First match wins.
var keywordHints = []struct {
	keywords   []string
	suggestion string
}{
	{
		keywords:   []string{"cita", "turno", "consulta", "doctor", "médico", "agendar", "reservar", "programar"},
		suggestion: "¿Quizás necesitas *agendar una cita*? 📅",
	},
	{
		keywords:   []string{"precio", "costo", "horario", "servicio", "información", "dónde", "cuánto"},
		suggestion: "¿Tal vez tienes *preguntas sobre nuestros servicios*? 📋",
	},
	{
		keywords:   []string{"problema", "error", "falla", "no funciona", "soporte", "dificultad"},
		suggestion: "¿Necesitas *soporte técnico*? 🛠️",
	},
}

const (
	optionsMenu = "📋 Preguntas frecuentes\n" +
		"📅 Agendar una cita\n" +
		"🛠️ Soporte técnico\n" +
		"💬 Finalizar conversación"
	explicitMenu = "Escribe una de estas opciones:\n" +
		"• \"Preguntas\" para dudas generales 📋\n" +
		"• \"Cita\" para agendamiento 📅\n" +
		"• \"Soporte\" para problemas técnicos 🛠️\n" +
		"• \"Finalizar\" para terminar 💬\n\n" +
		"¿Cuál te sirve mejor?"
	handOffMessage = "Te voy a conectar con un miembro de nuestro equipo humano " +
		"que podrá ayudarte mejor. 👩‍💼\n\n" +
		"Por favor, describe brevemente lo que necesitas y alguien se " +
		"comunicará contigo pronto.\n\n" +
		"¡Gracias por tu paciencia! 🙏"
)

type unknownEntry struct {
	count int
	last  time.Time
}

// unknownResponder escalates the help offered to a user whose messages
// keep resolving to no intent. Counters are per owner and expire after a
// quiet period.
type unknownResponder struct {
	mu      sync.Mutex
	entries map[string]unknownEntry
	now     func() time.Time
	pick    func(n int) int
}

func newUnknownResponder() *unknownResponder {
	return &unknownResponder{
		entries: make(map[string]unknownEntry),
		now:     time.Now,
		pick:    rand.IntN,
	}
}

// Reply returns the escalation tier message for the owner and advances the
// counter. Serving the hand-off tier clears the counter, so the next miss
// starts over at tier one.
func (u *unknownResponder) Reply(ownerID, message string) string {
	u.mu.Lock()
	defer u.mu.Unlock()

	now := u.now()
	entry := u.entries[ownerID]
	if !entry.last.IsZero() && now.Sub(entry.last) > unknownWindow {
		entry = unknownEntry{}
	}
	tier := entry.count
	if tier >= len(tierOpeners)-1 {
		tier = len(tierOpeners) - 1
		delete(u.entries, ownerID)
	} else {
		u.entries[ownerID] = unknownEntry{count: entry.count + 1, last: now}
	}

	opener := tierOpeners[tier][u.pick(len(tierOpeners[tier]))]
	switch tier {
	case 0:
		return firstTierMessage(opener, hintFor(message))
	case 1:
		return secondTierMessage(opener, hintFor(message))
	default:
		return opener + "\n\n" + handOffMessage
	}
}

// Reset clears the owner's counter once a message routes successfully.
func (u *unknownResponder) Reset(ownerID string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.entries, ownerID)
}

// PruneExpired drops counters past the escalation window so the map stays
// bounded. Returns how many entries were removed.
func (u *unknownResponder) PruneExpired() int {
	u.mu.Lock()
	defer u.mu.Unlock()

	now := u.now()
	pruned := 0
	for ownerID, entry := range u.entries {
		if now.Sub(entry.last) > unknownWindow {
			delete(u.entries, ownerID)
			pruned++
		}
	}
	return pruned
}

// hintFor maps words in the failed message to a flow suggestion, or ""
// when nothing matches.
func hintFor(message string) string {
	lower := strings.ToLower(message)
	for _, h := range keywordHints {
		for _, kw := range h.keywords {
			if strings.Contains(lower, kw) {
				return h.suggestion
			}
		}
	}
	return ""
}

func firstTierMessage(opener, hint string) string {
	var b strings.Builder
	b.WriteString(opener)
	if hint != "" {
		b.WriteString("\n\n" + hint + "\n\nO también puedo ayudarte con:\n")
	} else {
		b.WriteString("\n\n¿En qué puedo ayudarte?\n\nPuedo colaborarte con:\n")
	}
	b.WriteString(optionsMenu)
	b.WriteString("\n\nSolo dime qué necesitas. 😊")
	return b.String()
}

func secondTierMessage(opener, hint string) string {
	var b strings.Builder
	b.WriteString(opener + "\n\n")
	if hint != "" {
		b.WriteString(hint + "\n\n")
	}
	b.WriteString(explicitMenu)
	return b.String()
}
