package booking

import "github.com/primestageprime/wellappoint-ui-sub000/internal/wellappoint"

// Step is one of the seven mutually-exclusive phases of the booking flow.
type Step string

const (
	StepChooseServices       Step = "choose_services"
	StepChooseDuration       Step = "choose_duration"
	StepLoadingSlots         Step = "loading_slots"
	StepChooseSlot           Step = "choose_slot"
	StepConfirmation         Step = "confirmation"
	StepCreatingAppointment  Step = "creating_appointment"
	StepAppointmentConfirmed Step = "appointment_confirmed"
)

// Selection is the mutable state of one in-progress booking attempt. Zero
// values mean "absent": empty service, zero duration, nil slot. Confirmed is
// three-valued: nil = no submission attempted, false = submission in flight
// or failed, true = submission succeeded.
type Selection struct {
	Service      string                     `json:"service,omitempty"`
	Duration     int                        `json:"duration,omitempty"`
	Slot         *wellappoint.AvailableSlot `json:"slot,omitempty"`
	LoadingSlots bool                       `json:"loadingSlots"`
	Submitting   bool                       `json:"submitting"`
	Confirmed    *bool                      `json:"confirmed,omitempty"`
}

// StepView is the derived step plus one visibility flag per step. Exactly one
// flag is true. Separate flags keep the rendering layer purely declarative
// and the transition logic testable in one place.
type StepView struct {
	Step             Step `json:"step"`
	ShowServices     bool `json:"showServices"`
	ShowDurations    bool `json:"showDurations"`
	ShowLoadingSlots bool `json:"showLoadingSlots"`
	ShowSlots        bool `json:"showSlots"`
	ShowConfirmation bool `json:"showConfirmation"`
	ShowCreating     bool `json:"showCreating"`
	ShowConfirmed    bool `json:"showConfirmed"`
}

// DeriveStep maps a selection to its current step. Pure and total: every
// reachable field combination yields exactly one step, and the rule order
// encodes precedence.
func DeriveStep(sel Selection) StepView {
	step := deriveStep(sel)
	return StepView{
		Step:             step,
		ShowServices:     step == StepChooseServices,
		ShowDurations:    step == StepChooseDuration,
		ShowLoadingSlots: step == StepLoadingSlots,
		ShowSlots:        step == StepChooseSlot,
		ShowConfirmation: step == StepConfirmation,
		ShowCreating:     step == StepCreatingAppointment,
		ShowConfirmed:    step == StepAppointmentConfirmed,
	}
}

func deriveStep(sel Selection) Step {
	switch {
	case sel.Service == "":
		return StepChooseServices
	case sel.Duration == 0:
		return StepChooseDuration
	// Loading wins even when a stale slot from a previous duration is still
	// present.
	case sel.LoadingSlots:
		return StepLoadingSlots
	case sel.Slot == nil:
		return StepChooseSlot
	case sel.Confirmed == nil:
		return StepConfirmation
	// A resubmission attempt shows "creating" even after a prior success.
	case sel.Submitting:
		return StepCreatingAppointment
	default:
		// Covers Confirmed true and false alike. A failed submission lands on
		// the confirmed screen; the failure itself is surfaced through the
		// side-channel error, not through the step.
		return StepAppointmentConfirmed
	}
}
