// Display and wire formatting for backend date and time data.
package flow

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/agendabot/agendabot/internal/models"
)

var spanishDays = map[time.Weekday]string{
	time.Monday:    "Lunes",
	time.Tuesday:   "Martes",
	time.Wednesday: "Miércoles",
	time.Thursday:  "Jueves",
	time.Friday:    "Viernes",
	time.Saturday:  "Sábado",
	time.Sunday:    "Domingo",
}

var spanishMonths = map[time.Month]string{
	time.January:   "enero",
	time.February:  "febrero",
	time.March:     "marzo",
	time.April:     "abril",
	time.May:       "mayo",
	time.June:      "junio",
	time.July:      "julio",
	time.August:    "agosto",
	time.September: "septiembre",
	time.October:   "octubre",
	time.November:  "noviembre",
	time.December:  "diciembre",
}

var monthNumbers = map[string]string{
	"enero": "01", "febrero": "02", "marzo": "03", "abril": "04",
	"mayo": "05", "junio": "06", "julio": "07", "agosto": "08",
	"septiembre": "09", "octubre": "10", "noviembre": "11", "diciembre": "12",
}

var dayOfMonthRe = regexp.MustCompile(`(\d+) de ([a-z]+)`)

// dateTitle builds the short list title for an availability record, working
// from the backend's pre-formatted "fecha" field.
func dateTitle(date models.Record) string {
	if fecha := date.Str("fecha"); fecha != "" {
		// "Martes 27 de mayo" reads fine without the connector.
		return strings.ReplaceAll(fecha, " de ", " ")
	}
	if completa := date.Str("fechaCompleta"); completa != "" {
		return strings.Fields(completa)[0]
	}
	return "Fecha disponible"
}

// dateDescription summarizes the working hours of an availability record.
func dateDescription(date models.Record) string {
	inicio, fin := date.Str("horaInicio"), date.Str("horaFin")
	if inicio == "" || fin == "" {
		return "Disponible para reservar"
	}
	desc := inicio + " - " + fin
	if di, df := date.Str("descansoInicio"), date.Str("descansoFin"); di != "" && df != "" {
		desc += " (pausa " + di + "-" + df + ")"
	}
	return desc
}

// isoDate extracts YYYY-MM-DD from an availability record. fechaCompleta
// ("29/05/2025 00:00") is authoritative; explicit ISO fields and the
// spelled-out "fecha" text are fallbacks.
func isoDate(date models.Record) string {
	var segments []string
	if completa := date.Str("fechaCompleta"); completa != "" {
		if fields := strings.Fields(completa); len(fields) > 0 {
			segments = strings.Split(fields[0], "/")
		}
	}
	if len(segments) == 3 {
		d, errD := strconv.Atoi(segments[0])
		m, errM := strconv.Atoi(segments[1])
		if errD == nil && errM == nil {
			return fmt.Sprintf("%s-%02d-%02d", segments[2], m, d)
		}
	}
	for _, key := range []string{"date", "fecha_iso", "iso_date"} {
		if v := date.Str(key); isValidISODate(v) {
			return v
		}
	}
	// Last resort: the spelled-out fecha plus the year from fechaCompleta.
	if fecha := strings.ToLower(date.Str("fecha")); fecha != "" && len(segments) == 3 {
		if m := dayOfMonthRe.FindStringSubmatch(fecha); m != nil {
			if month, ok := monthNumbers[m[2]]; ok {
				day, _ := strconv.Atoi(m[1])
				return fmt.Sprintf("%s-%s-%02d", segments[2], month, day)
			}
		}
	}
	return ""
}

var isoDateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

func isValidISODate(s string) bool {
	return isoDateRe.MatchString(s)
}

// availabilityCursor converts a record's fechaCompleta to the MM/DD/YYYY
// form the availability endpoint takes as startDate.
func availabilityCursor(date models.Record) string {
	completa := date.Str("fechaCompleta")
	if completa == "" {
		return ""
	}
	part := strings.Fields(completa)[0]
	segments := strings.Split(part, "/")
	if len(segments) != 3 {
		return ""
	}
	return segments[1] + "/" + segments[0] + "/" + segments[2]
}

// fullSpanishDate renders an ISO date as "Miércoles 28 de mayo".
func fullSpanishDate(iso string) string {
	t, err := time.Parse("2006-01-02", iso)
	if err != nil {
		return iso
	}
	return fmt.Sprintf("%s %d de %s", spanishDays[t.Weekday()], t.Day(), spanishMonths[t.Month()])
}

// to12Hour renders a start time for display. Times already carrying an
// AM/PM marker pass through.
func to12Hour(start string) string {
	if start == "" || strings.Contains(start, "AM") || strings.Contains(start, "PM") {
		return start
	}
	t, err := time.Parse("15:04", start)
	if err != nil {
		return start
	}
	return t.Format("3:04 PM")
}

// to24Hour converts a 12-hour start time to the HH:MM form the booking
// endpoint requires.
func to24Hour(start string) string {
	t, err := time.Parse("3:04 PM", start)
	if err != nil {
		// Assume it is already 24-hour; keep the time part only.
		return strings.Fields(start)[0]
	}
	return t.Format("15:04")
}

// apiDate converts a date in ISO or DD/MM/YYYY form (with optional time
// suffix) to the YYYY-M-D shape the booking endpoint requires, without
// zero padding.
func apiDate(input string) string {
	if input == "" {
		return input
	}
	part := strings.Fields(input)[0]
	if strings.Contains(part, "/") {
		segments := strings.Split(part, "/")
		if len(segments) != 3 {
			return input
		}
		d, _ := strconv.Atoi(segments[0])
		m, _ := strconv.Atoi(segments[1])
		return fmt.Sprintf("%s-%d-%d", segments[2], m, d)
	}
	if strings.Contains(part, "-") {
		segments := strings.Split(part, "-")
		if len(segments) != 3 {
			return input
		}
		m, _ := strconv.Atoi(segments[1])
		d, _ := strconv.Atoi(segments[2])
		return fmt.Sprintf("%s-%d-%d", segments[0], m, d)
	}
	return input
}

// professionalDisplayName builds a list-row name from the first name and
// first last name, abbreviating the surname when the pair runs long.
func professionalDisplayName(p models.Record, max int) string {
	first := strings.TrimSpace(p.Str("VcFirstName"))
	last := strings.TrimSpace(p.Str("VcFirstLastName"))
	if last == "" {
		return truncateRunes(first, max)
	}
	full := first + " " + last
	if len([]rune(full)) <= max {
		return full
	}
	return truncateRunes(first+" "+string([]rune(last)[0])+".", max)
}

// professionalDetail renders the descriptive block shown when presenting a
// professional: specialization, profession, and experience when available.
func professionalDetail(p models.Record, name string) string {
	detail := "👨‍⚕️ *" + name + "*"
	specialization := p.Str("VcSpecialization")
	profession := p.Str("VcProfession")
	switch {
	case specialization != "" && profession != "" && !strings.EqualFold(specialization, profession):
		detail += "\n   📋 " + profession + " - Especialista en " + specialization
	case specialization != "":
		detail += "\n   📋 Especialista en " + specialization
	case profession != "":
		detail += "\n   📋 " + profession
	}
	if years := p.Int("IYearsOfExperience"); years > 0 {
		detail += fmt.Sprintf("\n   🎯 %d años de experiencia", years)
	}
	return detail
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
