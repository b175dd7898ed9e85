package flow

import (
	"testing"

	"github.com/agendabot/agendabot/internal/models"
)

func TestISODate(t *testing.T) {
	tests := []struct {
		name string
		date models.Record
		want string
	}{
		{"from fechaCompleta", models.Record{"fechaCompleta": "29/05/2025 00:00"}, "2025-05-29"},
		{"single digit day", models.Record{"fechaCompleta": "3/6/2025 00:00"}, "2025-06-03"},
		{"explicit iso field", models.Record{"date": "2025-05-29"}, "2025-05-29"},
		{"from spelled-out fecha", models.Record{"fecha": "Jueves 29 de mayo", "fechaCompleta": "bad/value"}, ""},
		{"nothing usable", models.Record{"fecha": "Jueves 29 de mayo"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isoDate(tt.date); got != tt.want {
				t.Errorf("isoDate(%v) = %q, want %q", tt.date, got, tt.want)
			}
		})
	}
}

func TestAvailabilityCursor(t *testing.T) {
	date := models.Record{"fechaCompleta": "29/05/2025 00:00"}
	if got := availabilityCursor(date); got != "05/29/2025" {
		t.Errorf("availabilityCursor = %q, want 05/29/2025", got)
	}
	if got := availabilityCursor(models.Record{}); got != "" {
		t.Errorf("availabilityCursor on empty record = %q, want empty", got)
	}
}

func TestDateTitleAndDescription(t *testing.T) {
	date := models.Record{
		"fecha":          "Martes 27 de mayo",
		"horaInicio":     "08:00",
		"horaFin":        "18:00",
		"descansoInicio": "12:00",
		"descansoFin":    "13:00",
	}
	if got := dateTitle(date); got != "Martes 27 mayo" {
		t.Errorf("dateTitle = %q", got)
	}
	if got := dateDescription(date); got != "08:00 - 18:00 (pausa 12:00-13:00)" {
		t.Errorf("dateDescription = %q", got)
	}
	if got := dateDescription(models.Record{}); got != "Disponible para reservar" {
		t.Errorf("dateDescription fallback = %q", got)
	}
}

func TestFullSpanishDate(t *testing.T) {
	if got := fullSpanishDate("2025-05-28"); got != "Miércoles 28 de mayo" {
		t.Errorf("fullSpanishDate = %q", got)
	}
	if got := fullSpanishDate("not-a-date"); got != "not-a-date" {
		t.Errorf("unparseable input should pass through, got %q", got)
	}
}

func TestTimeConversions(t *testing.T) {
	if got := to12Hour("14:30"); got != "2:30 PM" {
		t.Errorf("to12Hour(14:30) = %q", got)
	}
	if got := to12Hour("8:00 AM"); got != "8:00 AM" {
		t.Errorf("to12Hour should pass 12-hour input through, got %q", got)
	}
	if got := to24Hour("8:00 AM"); got != "08:00" {
		t.Errorf("to24Hour(8:00 AM) = %q", got)
	}
	if got := to24Hour("2:30 PM"); got != "14:30" {
		t.Errorf("to24Hour(2:30 PM) = %q", got)
	}
	if got := to24Hour("14:30"); got != "14:30" {
		t.Errorf("to24Hour should keep 24-hour input, got %q", got)
	}
}

func TestAPIDate(t *testing.T) {
	tests := []struct{ in, want string }{
		{"2025-05-07", "2025-5-7"},
		{"2025-11-23", "2025-11-23"},
		{"07/05/2025 00:00", "2025-5-7"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := apiDate(tt.in); got != tt.want {
			t.Errorf("apiDate(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatCOP(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{500, "$500"},
		{50000, "$50.000"},
		{1250000, "$1.250.000"},
	}
	for _, tt := range tests {
		if got := formatCOP(tt.in); got != tt.want {
			t.Errorf("formatCOP(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestProfessionalDisplayName(t *testing.T) {
	long := models.Record{"VcFirstName": "Margarita", "VcFirstLastName": "Hinestroza Palacios"}
	if got := professionalDisplayName(long, 20); got != "Margarita H." {
		t.Errorf("long name = %q, want abbreviated surname", got)
	}
	short := models.Record{"VcFirstName": "Ana", "VcFirstLastName": "García"}
	if got := professionalDisplayName(short, 20); got != "Ana García" {
		t.Errorf("short name = %q", got)
	}
}
