package flow

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/agendabot/agendabot/internal/interactive"
	"github.com/agendabot/agendabot/internal/models"
)

// Defaults for the paginated screens. Both stay under the list-row cap
// once navigation rows are added.
const (
	defaultDatePageSize = 5
	defaultTimePageSize = models.MaxListRows - 2
	defaultDaysAhead    = 30
)

// AppointmentOpts holds optional configuration for the appointment flow.
type AppointmentOpts struct {
	DatePageSize int
	TimePageSize int
	DaysAhead    int
}

// AppointmentOption configures the appointment flow via functional options.
type AppointmentOption func(*AppointmentOpts)

// WithDatePageSize sets how many dates are offered per page.
func WithDatePageSize(n int) AppointmentOption {
	return func(o *AppointmentOpts) { o.DatePageSize = n }
}

// WithTimePageSize sets how many start times are offered per page.
func WithTimePageSize(n int) AppointmentOption {
	return func(o *AppointmentOpts) { o.TimePageSize = n }
}

// WithDaysAhead sets how far into the future availability is searched.
func WithDaysAhead(n int) AppointmentOption {
	return func(o *AppointmentOpts) { o.DaysAhead = n }
}

// Appointment is the booking state machine: category, service, professional,
// date, period, start time, confirmation. Every selection screen stores the
// offered options in state so the next turn can resolve taps, numbers, and
// free text against them.
type Appointment struct {
	backend      Backend
	datePageSize int
	timePageSize int
	daysAhead    int
}

// NewAppointment builds the booking flow over the given backend.
func NewAppointment(backend Backend, opts ...AppointmentOption) *Appointment {
	cfg := AppointmentOpts{
		DatePageSize: defaultDatePageSize,
		TimePageSize: defaultTimePageSize,
		DaysAhead:    defaultDaysAhead,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.DatePageSize < 1 || cfg.DatePageSize > models.MaxListRows-2 {
		cfg.DatePageSize = defaultDatePageSize
	}
	if cfg.TimePageSize < 1 || cfg.TimePageSize > models.MaxListRows-2 {
		cfg.TimePageSize = defaultTimePageSize
	}
	if cfg.DaysAhead < 1 {
		cfg.DaysAhead = defaultDaysAhead
	}
	return &Appointment{
		backend:      backend,
		datePageSize: cfg.DatePageSize,
		timePageSize: cfg.TimePageSize,
		daysAhead:    cfg.DaysAhead,
	}
}

// Type implements Flow.
func (f *Appointment) Type() models.FlowType { return models.FlowTypeAppointment }

// ProcessMessage implements Flow.
func (f *Appointment) ProcessMessage(ctx context.Context, state models.FlowState, message, contactID string) (models.FlowState, models.Reply, bool, error) {
	switch state.Step {
	case models.StepWaitingCategory:
		return f.handleCategory(ctx, state, message)
	case models.StepWaitingService:
		return f.handleService(ctx, state, message)
	case models.StepWaitingProfessional:
		return f.handleProfessional(ctx, state, message)
	case models.StepWaitingDate:
		return f.handleDate(ctx, state, message)
	case models.StepWaitingPeriod:
		return f.handlePeriod(state, message)
	case models.StepWaitingTime:
		return f.handleTime(state, message)
	case models.StepWaitingConfirmation:
		return f.handleConfirmation(ctx, state, message, contactID)
	default:
		return f.showCategories(ctx, state)
	}
}

func (f *Appointment) showCategories(ctx context.Context, state models.FlowState) (models.FlowState, models.Reply, bool, error) {
	categories, err := f.backend.ListCategories(ctx)
	if err != nil {
		slog.Error("Appointment category lookup failed", "error", err)
		return models.FlowState{}, models.TextReply("😔 No pude consultar los servicios en este momento. Intenta de nuevo en unos minutos."), true, nil
	}
	if len(categories) == 0 {
		return models.FlowState{}, models.TextReply("Por ahora no tenemos servicios disponibles para agendar. 🙏"), true, nil
	}

	options := make([]models.Option, 0, len(categories))
	for _, cat := range categories {
		options = append(options, models.Option{
			ID:      fmt.Sprintf("cat_id_%d", cat.Int("Id")),
			Title:   cat.Str("VcName"),
			Payload: cat,
		})
	}
	body := "¡Hola! 👋 Con gusto te ayudo a agendar tu cita.\n\n¿Qué tipo de servicio estás buscando?"
	reply := interactive.Render(body, options, interactive.ModeAuto,
		interactive.WithSectionTitle("Categorías"))
	next := state.At(models.StepWaitingCategory).With(models.DataKeyOptions, options)
	return next, reply, false, nil
}

func (f *Appointment) handleCategory(ctx context.Context, state models.FlowState, message string) (models.FlowState, models.Reply, bool, error) {
	opt, ok := interactive.Resolve(message, optionsFrom(state))
	if !ok {
		return state, models.TextReply("🤔 No encontré esa opción. Elige una categoría de la lista, por favor."), false, nil
	}
	return f.showServices(ctx, state.With(models.DataKeyCategory, opt.Payload))
}

func (f *Appointment) showServices(ctx context.Context, state models.FlowState) (models.FlowState, models.Reply, bool, error) {
	category := state.RecordAt(models.DataKeyCategory)
	services, err := f.backend.ListServicesByCategory(ctx, category.Int("Id"))
	if err != nil {
		slog.Error("Appointment service lookup failed", "categoryID", category.Int("Id"), "error", err)
		return state.At(models.StepWaitingCategory), models.TextReply("😔 No pude consultar los servicios de esa categoría. Intenta de nuevo."), false, nil
	}
	if len(services) == 0 {
		return state.At(models.StepWaitingCategory), models.TextReply("Esa categoría no tiene servicios disponibles por ahora. ¿Quieres elegir otra?"), false, nil
	}

	options := make([]models.Option, 0, len(services))
	for _, svc := range services {
		options = append(options, models.Option{
			ID:          fmt.Sprintf("srv_id_%d", svc.Int("Id")),
			Title:       svc.Str("VcName"),
			Description: serviceDescription(svc),
			Payload:     svc,
		})
	}
	body := fmt.Sprintf("Estos son nuestros servicios de *%s*:\n\nElige el que necesitas 👇", category.Str("VcName"))
	reply := interactive.Render(body, options, interactive.ModeAuto,
		interactive.WithSectionTitle("Servicios"))
	next := state.At(models.StepWaitingService).With(models.DataKeyOptions, options)
	return next, reply, false, nil
}

func (f *Appointment) handleService(ctx context.Context, state models.FlowState, message string) (models.FlowState, models.Reply, bool, error) {
	opt, ok := interactive.Resolve(message, optionsFrom(state))
	if !ok {
		return state, models.TextReply("🤔 No encontré ese servicio. Elige uno de la lista, por favor."), false, nil
	}
	return f.showProfessionals(ctx, state.With(models.DataKeyService, opt.Payload))
}

func (f *Appointment) showProfessionals(ctx context.Context, state models.FlowState) (models.FlowState, models.Reply, bool, error) {
	service := state.RecordAt(models.DataKeyService)
	professionals, err := f.backend.ListProfessionalsByService(ctx, service.Int("Id"))
	if err != nil {
		slog.Error("Appointment professional lookup failed", "serviceID", service.Int("Id"), "error", err)
		return state.At(models.StepWaitingService), models.TextReply("😔 No pude consultar los profesionales para ese servicio. Intenta de nuevo."), false, nil
	}
	if len(professionals) == 0 {
		return state.At(models.StepWaitingService), models.TextReply("Ese servicio no tiene profesionales disponibles por ahora. ¿Quieres elegir otro?"), false, nil
	}

	if len(professionals) == 1 {
		p := professionals[0]
		notice := fmt.Sprintf("👨‍⚕️ Tu cita será con *%s*.\n\n", interactive.FullName(p))
		next := state.
			With(models.DataKeyProfessional, p).
			With(models.DataKeyAutoNotice, notice).
			With(models.DataKeyDatePage, 1).
			Without(models.DataKeyNextStartDate)
		return f.showDates(ctx, next, notice)
	}

	options := make([]models.Option, 0, len(professionals))
	var details strings.Builder
	for _, p := range professionals {
		name := interactive.FullName(p)
		options = append(options, models.Option{
			ID:          fmt.Sprintf("prof_id_%d", p.Int("Id")),
			Title:       professionalDisplayName(p, models.MaxRowTitleLen),
			Description: professionalRowDescription(p),
			Payload:     p,
		})
		details.WriteString(professionalDetail(p, name))
		details.WriteString("\n\n")
	}
	body := fmt.Sprintf("Estos profesionales pueden atenderte con *%s*:\n\n%sElige tu profesional 👇", service.Str("VcName"), details.String())
	reply := interactive.Render(body, options, interactive.ModeAuto,
		interactive.WithSectionTitle("Profesionales"))
	next := state.At(models.StepWaitingProfessional).With(models.DataKeyOptions, options)
	return next, reply, false, nil
}

func (f *Appointment) handleProfessional(ctx context.Context, state models.FlowState, message string) (models.FlowState, models.Reply, bool, error) {
	opt, ok := interactive.Resolve(message, optionsFrom(state))
	if !ok {
		return state, models.TextReply("🤔 No encontré ese profesional. Elige uno de la lista, por favor."), false, nil
	}
	next := state.
		With(models.DataKeyProfessional, opt.Payload).
		With(models.DataKeyDatePage, 1).
		Without(models.DataKeyNextStartDate)
	return f.showDates(ctx, next, "")
}

// showDates renders one page of available dates. The cursor stored under
// next_start_date is the position the backend resumes from when the user
// asks for more dates; going back always returns to the first page.
func (f *Appointment) showDates(ctx context.Context, state models.FlowState, notice string) (models.FlowState, models.Reply, bool, error) {
	professional := state.RecordAt(models.DataKeyProfessional)
	service := state.RecordAt(models.DataKeyService)
	page := state.Int(models.DataKeyDatePage)
	if page < 1 {
		page = 1
	}
	cursor := state.Str(models.DataKeyNextStartDate)

	dates, err := f.backend.ListAvailableDates(ctx, professional.Int("Id"), service.Int("Id"), f.daysAhead, cursor)
	if err != nil {
		slog.Error("Appointment availability lookup failed", "professionalID", professional.Int("Id"), "page", page, "error", err)
		return state.At(models.StepWaitingDate), models.TextReply("😔 No pude consultar las fechas disponibles. Intenta de nuevo en un momento."), false, nil
	}
	if len(dates) == 0 {
		if page > 1 {
			back := []models.Option{{ID: "dates_back", Title: "⬅️ Fechas anteriores"}}
			reply := interactive.Render("No hay más fechas disponibles en este rango. 📅", back, interactive.ModeAuto)
			return state.At(models.StepWaitingDate), reply, false, nil
		}
		return models.FlowState{}, models.TextReply("😔 No encontré fechas disponibles próximamente para este servicio. Intenta de nuevo más adelante."), true, nil
	}

	shown := dates
	hasMore := false
	if len(shown) > f.datePageSize {
		shown = shown[:f.datePageSize]
		hasMore = true
	}

	options := make([]models.Option, 0, len(shown))
	for i, date := range shown {
		id := fmt.Sprintf("date_%d", i+1)
		if page > 1 {
			id = fmt.Sprintf("date_%d_%d", page, i+1)
		}
		options = append(options, models.Option{
			ID:          id,
			Title:       dateTitle(date),
			Description: dateDescription(date),
			Payload:     date,
		})
	}
	rows := make([]models.Option, len(options), len(options)+2)
	copy(rows, options)
	if hasMore {
		rows = append(rows, models.Option{ID: "dates_next", Title: "➡️ Ver más fechas"})
	}
	if page > 1 {
		rows = append(rows, models.Option{ID: "dates_back", Title: "⬅️ Fechas anteriores"})
	}

	body := notice + "📅 Estas son las fechas disponibles:\n\nElige la que prefieras 👇"
	reply := interactive.Render(body, rows, interactive.ModeList,
		interactive.WithSectionTitle("Fechas disponibles"),
		interactive.WithButtonText("Ver fechas"))
	next := state.At(models.StepWaitingDate).
		With(models.DataKeyOptions, options).
		With(models.DataKeyDatePage, page).
		With(models.DataKeyNextStartDate, availabilityCursor(shown[len(shown)-1]))
	return next, reply, false, nil
}

func (f *Appointment) handleDate(ctx context.Context, state models.FlowState, message string) (models.FlowState, models.Reply, bool, error) {
	input := strings.TrimSpace(message)
	switch input {
	case "dates_next":
		return f.showDates(ctx, state.With(models.DataKeyDatePage, state.Int(models.DataKeyDatePage)+1), "")
	case "dates_back":
		return f.showDates(ctx, state.With(models.DataKeyDatePage, 1).Without(models.DataKeyNextStartDate), "")
	}

	opt, ok := interactive.Resolve(input, optionsFrom(state))
	if !ok {
		return state, models.TextReply("🤔 No encontré esa fecha. Elige una fecha de la lista, por favor."), false, nil
	}
	iso := isoDate(opt.Payload)
	if iso == "" {
		slog.Warn("Appointment date record missing parseable date", "optionID", opt.ID)
		return state, models.TextReply("😔 No pude procesar esa fecha. Elige otra de la lista, por favor."), false, nil
	}

	professional := state.RecordAt(models.DataKeyProfessional)
	service := state.RecordAt(models.DataKeyService)
	slots, err := f.backend.ListSlotsByDate(ctx, professional.Int("Id"), service.Int("Id"), iso)
	if err != nil {
		slog.Error("Appointment slot lookup failed", "date", iso, "error", err)
		return state, models.TextReply("😔 No pude consultar los horarios de esa fecha. Intenta de nuevo."), false, nil
	}
	total := 0
	for _, times := range slots {
		total += len(times)
	}
	if total == 0 {
		return state, models.TextReply("😔 No hay horarios disponibles para esa fecha. Elige otra fecha, por favor."), false, nil
	}

	next := state.
		With(models.DataKeyDate, iso).
		With(models.DataKeyDateInfo, opt.Payload).
		With(models.DataKeySlots, slots)
	return f.showPeriods(next, "")
}

// periodCatalog is the render order of the day periods and their labels.
var periodCatalog = []struct {
	id    string
	label string
	emoji string
}{
	{models.PeriodMorning, "Mañana", "🌅"},
	{models.PeriodAfternoon, "Tarde", "☀️"},
	{models.PeriodEvening, "Noche", "🌙"},
}

func periodLabel(id string) string {
	for _, p := range periodCatalog {
		if p.id == id {
			return p.label
		}
	}
	return id
}

func (f *Appointment) showPeriods(state models.FlowState, notice string) (models.FlowState, models.Reply, bool, error) {
	slots := slotsFrom(state)
	options := make([]models.Option, 0, len(periodCatalog))
	for _, p := range periodCatalog {
		if len(slots[p.id]) == 0 {
			continue
		}
		options = append(options, models.Option{
			ID:    "period_" + p.id,
			Title: fmt.Sprintf("%s %s (%d)", p.emoji, p.label, len(slots[p.id])),
		})
	}
	body := fmt.Sprintf("%s🗓️ *%s*\n\n¿En qué momento del día prefieres tu cita?", notice, fullSpanishDate(state.Str(models.DataKeyDate)))
	reply := interactive.Render(body, options, interactive.ModeAuto)
	next := state.At(models.StepWaitingPeriod).With(models.DataKeyOptions, options)
	return next, reply, false, nil
}

func (f *Appointment) handlePeriod(state models.FlowState, message string) (models.FlowState, models.Reply, bool, error) {
	opt, ok := interactive.Resolve(message, optionsFrom(state))
	if !ok {
		return state, models.TextReply("🤔 Elige uno de los momentos del día que te mostré, por favor."), false, nil
	}
	next := state.
		With(models.DataKeyPeriod, strings.TrimPrefix(opt.ID, "period_")).
		With(models.DataKeyTimePage, 0)
	return f.showTimes(next, "")
}

func (f *Appointment) showTimes(state models.FlowState, notice string) (models.FlowState, models.Reply, bool, error) {
	period := state.Str(models.DataKeyPeriod)
	all := slotsFrom(state)[period]
	page := state.Int(models.DataKeyTimePage)
	start := page * f.timePageSize
	if start < 0 || start >= len(all) {
		page, start = 0, 0
	}
	end := start + f.timePageSize
	if end > len(all) {
		end = len(all)
	}
	shown := all[start:end]

	options := make([]models.Option, 0, len(shown))
	for i, t := range shown {
		id := fmt.Sprintf("time_%s_%d", period, i+1)
		if page > 0 {
			id = fmt.Sprintf("time_%s_p%d_%d", period, page, i+1)
		}
		options = append(options, models.Option{ID: id, Title: to12Hour(t)})
	}
	rows := make([]models.Option, len(options), len(options)+2)
	copy(rows, options)
	if end < len(all) {
		rows = append(rows, models.Option{ID: fmt.Sprintf("more_times_%d", page+1), Title: "➡️ Más horarios"})
	}
	if page > 0 {
		rows = append(rows, models.Option{ID: fmt.Sprintf("prev_times_%d", page-1), Title: "⬅️ Horarios anteriores"})
	} else {
		rows = append(rows, models.Option{ID: "back_to_periods", Title: "🔙 Cambiar momento"})
	}

	body := fmt.Sprintf("%s⏰ Horarios de la *%s* para el *%s*:\n\nElige tu horario 👇",
		notice, strings.ToLower(periodLabel(period)), fullSpanishDate(state.Str(models.DataKeyDate)))
	reply := interactive.Render(body, rows, interactive.ModeList,
		interactive.WithSectionTitle("Horarios"),
		interactive.WithButtonText("Ver horarios"))
	next := state.At(models.StepWaitingTime).
		With(models.DataKeyTimePage, page).
		With(models.DataKeyOptions, options)
	return next, reply, false, nil
}

func (f *Appointment) handleTime(state models.FlowState, message string) (models.FlowState, models.Reply, bool, error) {
	input := strings.TrimSpace(message)
	if input == "back_to_periods" {
		return f.showPeriods(state, "")
	}
	if target, ok := strings.CutPrefix(input, "more_times_"); ok {
		if page, err := strconv.Atoi(target); err == nil {
			return f.showTimes(state.With(models.DataKeyTimePage, page), "")
		}
	}
	if target, ok := strings.CutPrefix(input, "prev_times_"); ok {
		if page, err := strconv.Atoi(target); err == nil {
			if page < 0 {
				page = 0
			}
			return f.showTimes(state.With(models.DataKeyTimePage, page), "")
		}
	}

	opt, ok := interactive.Resolve(input, optionsFrom(state))
	if !ok {
		return state, models.TextReply("🤔 No encontré ese horario. Elige uno de la lista, por favor."), false, nil
	}
	return f.showConfirmation(state.With(models.DataKeySlot, opt.Title))
}

func (f *Appointment) showConfirmation(state models.FlowState) (models.FlowState, models.Reply, bool, error) {
	service := state.RecordAt(models.DataKeyService)
	professional := state.RecordAt(models.DataKeyProfessional)

	var b strings.Builder
	b.WriteString("📋 *Resumen de tu cita*\n\n")
	fmt.Fprintf(&b, "💼 Servicio: %s\n", service.Str("VcName"))
	fmt.Fprintf(&b, "👨‍⚕️ Profesional: %s\n", interactive.FullName(professional))
	fmt.Fprintf(&b, "📅 Fecha: %s\n", fullSpanishDate(state.Str(models.DataKeyDate)))
	fmt.Fprintf(&b, "⏰ Hora: %s\n", state.Str(models.DataKeySlot))
	if price := service.Int("IRegularPrice"); price > 0 {
		fmt.Fprintf(&b, "💲 Valor: %s\n", formatCOP(price))
	}
	b.WriteString("\n¿Confirmas tu cita?")

	options := []models.Option{
		{ID: "confirm_yes", Title: "✅ Confirmar"},
		{ID: "confirm_no", Title: "❌ Cancelar"},
	}
	reply := interactive.Render(b.String(), options, interactive.ModeAuto)
	next := state.At(models.StepWaitingConfirmation).With(models.DataKeyOptions, options)
	return next, reply, false, nil
}

var (
	confirmYesInputs = map[string]bool{"confirm_yes": true, "si": true, "sí": true, "yes": true, "1": true, "confirmar": true}
	confirmNoInputs  = map[string]bool{"confirm_no": true, "no": true, "2": true, "cancelar": true}
)

func (f *Appointment) handleConfirmation(ctx context.Context, state models.FlowState, message, contactID string) (models.FlowState, models.Reply, bool, error) {
	input := strings.ToLower(strings.TrimSpace(message))
	switch {
	case confirmYesInputs[input]:
		return f.createAppointment(ctx, state, contactID)
	case confirmNoInputs[input]:
		return models.FlowState{}, models.TextReply("He cancelado la solicitud. Si deseas agendar en otro momento, aquí estaré. 😊"), true, nil
	default:
		// Anything else re-offers the same summary without touching the
		// collected data.
		return f.showConfirmation(state)
	}
}

func (f *Appointment) createAppointment(ctx context.Context, state models.FlowState, contactID string) (models.FlowState, models.Reply, bool, error) {
	retryPrompt := "\n\nResponde *sí* para intentar de nuevo o *no* para cancelar."

	contact, err := f.backend.GetContactByID(ctx, contactID)
	if err != nil || contact == nil {
		slog.Error("Appointment contact lookup failed", "contactID", contactID, "error", err)
		return state, models.TextReply("😔 No pude verificar tus datos en este momento." + retryPrompt), false, nil
	}
	phone := contact.Str("phone")
	client, err := f.backend.GetClientByPhone(ctx, phone)
	if err != nil {
		slog.Error("Appointment client lookup failed", "phone", phone, "error", err)
		return state, models.TextReply("😔 No pude verificar tu registro de cliente." + retryPrompt), false, nil
	}
	if client == nil {
		return state, models.TextReply("😔 No encontré tu registro de cliente. Escríbeme *hola* para completar tu registro y vuelve a intentarlo."), false, nil
	}

	service := state.RecordAt(models.DataKeyService)
	professional := state.RecordAt(models.DataKeyProfessional)
	fields := models.Record{
		"ClientId":       client.Int("Id"),
		"ServiceId":      service.Int("Id"),
		"ProfessionalId": professional.Int("Id"),
		"DtDate":         apiDate(state.Str(models.DataKeyDate)),
		"TStartTime":     to24Hour(state.Str(models.DataKeySlot)),
		"BIsCompleted":   false,
		"BIsAbsent":      false,
		"CurrentStateId": 1,
		"phoneNumber":    phone,
	}
	created, err := f.backend.CreateAppointment(ctx, fields)
	if err != nil {
		slog.Error("Appointment creation failed", "contactID", contactID, "error", err)
		return state, models.TextReply("😔 No pude crear la cita en este momento." + retryPrompt), false, nil
	}

	slog.Info("Appointment created", "appointmentID", created.Int("Id"), "contactID", contactID)
	var b strings.Builder
	b.WriteString("🎉 *¡Tu cita quedó agendada!*\n\n")
	fmt.Fprintf(&b, "💼 Servicio: %s\n", service.Str("VcName"))
	fmt.Fprintf(&b, "👨‍⚕️ Profesional: %s\n", interactive.FullName(professional))
	fmt.Fprintf(&b, "📅 Fecha: %s\n", fullSpanishDate(state.Str(models.DataKeyDate)))
	fmt.Fprintf(&b, "⏰ Hora: %s\n", state.Str(models.DataKeySlot))
	if id := created.Int("Id"); id > 0 {
		fmt.Fprintf(&b, "🆔 Número de cita: %d\n", id)
	}
	b.WriteString("\n¡Te esperamos! 😊")
	return models.FlowState{}, models.TextReply(b.String()), true, nil
}

// serviceDescription builds the price and duration line shown under a
// service row.
func serviceDescription(svc models.Record) string {
	parts := make([]string, 0, 2)
	if price := svc.Int("IRegularPrice"); price > 0 {
		parts = append(parts, "💲 "+formatCOP(price))
	}
	if d := svc.Str("VcTime"); d != "" {
		parts = append(parts, "⏱️ "+d)
	} else if n := svc.Int("NnDuration"); n > 0 {
		parts = append(parts, fmt.Sprintf("⏱️ %d min", n))
	}
	return strings.Join(parts, " - ")
}

func professionalRowDescription(p models.Record) string {
	desc := p.Str("VcSpecialization")
	if desc == "" {
		desc = p.Str("VcProfession")
	}
	if years := p.Int("IYearsOfExperience"); years > 0 {
		if desc != "" {
			desc += " - "
		}
		desc += fmt.Sprintf("%d años de experiencia", years)
	}
	return desc
}

// formatCOP renders a peso amount with dot thousand separators.
func formatCOP(v int) string {
	digits := strconv.Itoa(v)
	var b strings.Builder
	b.WriteByte('$')
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}
	return b.String()
}
