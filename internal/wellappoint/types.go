package wellappoint

import (
	"errors"
	"fmt"
	"time"
)

// ErrProviderNotFound is returned when the upstream reports the
// PROVIDER_NOT_FOUND sentinel for an unknown provider username.
var ErrProviderNotFound = errors.New("wellappoint: provider not found")

// APIError is a normalized non-2xx upstream response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("wellappoint: status %d: %s", e.Status, e.Message)
}

// Service is one bookable service row. The same name may appear several times
// with different durations and prices, one row per offered duration.
type Service struct {
	Name                string  `json:"name"`
	Duration            int     `json:"duration"` // minutes
	Price               float64 `json:"price"`
	Description         string  `json:"description,omitempty"`
	DurationDescription string  `json:"durationDescription,omitempty"`
}

// AvailableSlot is a bookable time interval. Produced fresh per availability
// query; never persisted across queries.
type AvailableSlot struct {
	StartTime       time.Time `json:"startTime"`
	EndTime         time.Time `json:"endTime"`
	Location        string    `json:"location"`
	DurationMinutes int       `json:"durationMinutes"`
	IsOptimal       bool      `json:"isOptimal"`
}

// AvailabilityQuery is the input to ListAvailability. Start and End bound the
// search window; dates go on the wire as YYYY-MM-DD.
type AvailabilityQuery struct {
	Service  string
	Duration int
	Email    string
	Username string
	Start    time.Time
	End      time.Time
}

// ClientProfile carries optional identity hints forwarded with an
// appointment request.
type ClientProfile struct {
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// CreateAppointmentRequest is the input to CreateAppointment. Start is
// serialized as naive local wall-clock time, not UTC (see FormatNaiveLocal).
type CreateAppointmentRequest struct {
	Service  string
	Duration int
	Start    time.Time
	Location string
	Email    string
	Username string
	Profile  ClientProfile
}

// CreateAppointmentResponse is the outcome of an appointment request.
type CreateAppointmentResponse struct {
	Success       bool   `json:"success"`
	AppointmentID string `json:"appointmentId,omitempty"`
	Error         string `json:"error,omitempty"`
}

// UserAppointment is a read-only projection of one server-side appointment.
// Date and Time are display strings formatted once at the client boundary.
type UserAppointment struct {
	Service   string    `json:"service"`
	Duration  int       `json:"duration"`
	Date      string    `json:"date"`
	Time      string    `json:"time"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
}

// UserAppointmentsResponse wraps a user's appointments plus the per-user
// appointment-request cap enforced by the limit policy.
type UserAppointmentsResponse struct {
	Appointments          []UserAppointment `json:"appointments"`
	AppointmentRequestCap int               `json:"appointmentRequestCap"`
}

// Wire payloads. Timestamps arrive as RFC3339 strings and are parsed at this
// boundary; rows that fail to parse are dropped.
type slotPayload struct {
	StartTime       string `json:"startTime"`
	EndTime         string `json:"endTime"`
	Location        string `json:"location"`
	DurationMinutes int    `json:"durationMinutes"`
	IsOptimal       bool   `json:"isOptimal"`
}

type appointmentPayload struct {
	Service   string `json:"service"`
	Duration  int    `json:"duration"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

type userAppointmentsPayload struct {
	Appointments          []appointmentPayload `json:"appointments"`
	AppointmentRequestCap int                  `json:"appointmentRequestCap"`
}

type createAppointmentPayload struct {
	Service  string         `json:"service"`
	Duration int            `json:"duration"`
	Start    string         `json:"start"`
	Location string         `json:"location"`
	Email    string         `json:"email"`
	Username string         `json:"username,omitempty"`
	Profile  *ClientProfile `json:"profile,omitempty"`
}
