// Flow type identifiers, defined here to avoid circular imports.
package models

// FlowType identifies a multi-step business process.
type FlowType string

// StepType identifies a single state within a flow's machine.
type StepType string

// DataKey is a key into the accumulated per-flow state data.
type DataKey string

// Flow type constants.
const (
	FlowTypeAppointment       FlowType = "appointment"
	FlowTypeRegistration      FlowType = "registration"
	FlowTypeFAQ               FlowType = "faq"
	FlowTypeSupport           FlowType = "support"
	FlowTypeEndConversation   FlowType = "end_conversation"
	FlowTypeCheckAppointments FlowType = "check_appointments"
)

// Step constants for the appointment flow.
const (
	StepInitial             StepType = "initial"
	StepWaitingCategory     StepType = "waiting_category"
	StepWaitingService      StepType = "waiting_service"
	StepWaitingProfessional StepType = "waiting_professional"
	StepWaitingDate         StepType = "waiting_date"
	StepWaitingPeriod       StepType = "waiting_period"
	StepWaitingTime         StepType = "waiting_time"
	StepWaitingConfirmation StepType = "waiting_confirmation"
)

// Step constants for the registration flow.
const (
	StepWaitingDocument StepType = "waiting_document"
	StepWaitingName     StepType = "waiting_name"
)

// Step constants for the pending-appointment lookup flow.
const (
	StepWaitingAction StepType = "waiting_action"
)

// Data key constants for accumulated flow data.
const (
	DataKeyPhone         DataKey = "phone"           // channel phone of the owner
	DataKeyDocument      DataKey = "document"        // normalized identity document
	DataKeyCategory      DataKey = "category"        // selected category record
	DataKeyService       DataKey = "service"         // selected service record
	DataKeyProfessional  DataKey = "professional"    // selected professional record
	DataKeyAutoNotice    DataKey = "auto_notice"     // single-professional auto-selection notice
	DataKeyOptions       DataKey = "options"         // options offered on the current screen
	DataKeyDate          DataKey = "date"            // selected date, ISO YYYY-MM-DD
	DataKeyDateInfo      DataKey = "date_info"       // backend record of the selected date
	DataKeyDatePage      DataKey = "date_page"       // 1-based page of the date list
	DataKeyNextStartDate DataKey = "next_start_date" // availability cursor, MM/DD/YYYY of last shown date
	DataKeySlots         DataKey = "slots"           // start times by period for the selected date
	DataKeyPeriod        DataKey = "period"          // selected period id
	DataKeyTimePage      DataKey = "time_page"       // 0-based page within the period's slots
	DataKeySlot          DataKey = "slot"            // selected start time
)

// Periods of the day offered at the waiting_period step, in render order.
const (
	PeriodMorning   = "morning"
	PeriodAfternoon = "afternoon"
	PeriodEvening   = "evening"
)
