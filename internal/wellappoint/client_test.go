package wellappoint

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/primestageprime/wellappoint-ui-sub000/pkg/logging"
)

func TestListServices(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/services" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("username"); got != "drsmith" {
			t.Fatalf("unexpected username param: %q", got)
		}
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"name": "Massage", "duration": 60, "price": 120.0},
			{"name": "Massage", "duration": 90, "price": 160.0, "durationDescription": "extended"},
		})
	}))
	defer ts.Close()

	c := NewClient(ts.URL, 0, nil, nil)
	services, err := c.ListServices(context.Background(), "drsmith")
	if err != nil {
		t.Fatalf("ListServices error: %v", err)
	}
	if len(services) != 2 {
		t.Fatalf("unexpected services: %+v", services)
	}
	if services[0].Name != "Massage" || services[0].Duration != 60 {
		t.Fatalf("unexpected first row: %+v", services[0])
	}
	if services[1].Duration != 90 || services[1].DurationDescription != "extended" {
		t.Fatalf("unexpected second row: %+v", services[1])
	}
}

func TestListServicesStatusError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream broke", http.StatusBadGateway)
	}))
	defer ts.Close()

	c := NewClient(ts.URL, 0, nil, nil)
	_, err := c.ListServices(context.Background(), "")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T: %v", err, err)
	}
	if apiErr.Status != http.StatusBadGateway {
		t.Fatalf("unexpected status: %d", apiErr.Status)
	}
}

func TestListServicesProviderNotFound(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"PROVIDER_NOT_FOUND"}`, http.StatusNotFound)
	}))
	defer ts.Close()

	c := NewClient(ts.URL, 0, nil, nil)
	_, err := c.ListServices(context.Background(), "ghost")
	if !errors.Is(err, ErrProviderNotFound) {
		t.Fatalf("expected ErrProviderNotFound, got %v", err)
	}
}

func TestListAvailability(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("service") != "Massage" || q.Get("duration") != "60" {
			t.Fatalf("unexpected query: %v", q)
		}
		if q.Get("start") != "2025-10-20" || q.Get("end") != "2025-11-03" {
			t.Fatalf("unexpected window: start=%s end=%s", q.Get("start"), q.Get("end"))
		}
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"startTime": "2025-10-21T09:00:00-07:00", "endTime": "2025-10-21T10:00:00-07:00", "location": "Main St", "durationMinutes": 60},
			{"startTime": "not-a-time", "endTime": "2025-10-21T10:00:00-07:00"},
			{"startTime": "2025-10-20T14:00:00-07:00", "endTime": "2025-10-20T15:00:00-07:00", "location": "Main St", "durationMinutes": 60, "isOptimal": true},
		})
	}))
	defer ts.Close()

	var logs bytes.Buffer
	c := NewClient(ts.URL, 0, logging.NewWithWriter("warn", &logs), nil)
	start := time.Date(2025, 10, 20, 0, 0, 0, 0, time.UTC)
	slots, err := c.ListAvailability(context.Background(), AvailabilityQuery{
		Service:  "Massage",
		Duration: 60,
		Email:    "jane@example.com",
		Start:    start,
		End:      start.AddDate(0, 0, 14),
	})
	if err != nil {
		t.Fatalf("ListAvailability error: %v", err)
	}
	// The malformed row is dropped at the boundary, with a warning so
	// upstream contract drift stays visible.
	if len(slots) != 2 {
		t.Fatalf("expected 2 slots, got %d: %+v", len(slots), slots)
	}
	if !slots[1].IsOptimal {
		t.Fatalf("expected optimal flag preserved: %+v", slots[1])
	}
	if !strings.Contains(logs.String(), "dropping slot with bad startTime") {
		t.Fatalf("expected dropped-row warning, got logs: %s", logs.String())
	}
}

func TestCreateAppointmentNaiveLocalStart(t *testing.T) {
	var captured map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/appointment_request" {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "appointmentId": "appt_1"})
	}))
	defer ts.Close()

	// 2pm Pacific must serialize as "2025-10-20 14:00", never UTC-shifted.
	start, err := time.Parse(time.RFC3339, "2025-10-20T14:00:00-07:00")
	if err != nil {
		t.Fatal(err)
	}

	c := NewClient(ts.URL, 0, nil, nil)
	resp, err := c.CreateAppointment(context.Background(), CreateAppointmentRequest{
		Service:  "Massage",
		Duration: 60,
		Start:    start,
		Location: "Main St",
		Email:    "jane@example.com",
		Username: "drsmith",
		Profile:  ClientProfile{FirstName: "Jane", LastName: "Doe"},
	})
	if err != nil {
		t.Fatalf("CreateAppointment error: %v", err)
	}
	if !resp.Success || resp.AppointmentID != "appt_1" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if captured["start"] != "2025-10-20 14:00" {
		t.Fatalf("expected naive local start, got %v", captured["start"])
	}
	profile, ok := captured["profile"].(map[string]any)
	if !ok || profile["firstName"] != "Jane" {
		t.Fatalf("expected profile hints forwarded, got %v", captured["profile"])
	}
}

func TestCreateAppointmentFailureBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "slot already taken"})
	}))
	defer ts.Close()

	c := NewClient(ts.URL, 0, nil, nil)
	resp, err := c.CreateAppointment(context.Background(), CreateAppointmentRequest{Service: "Massage"})
	if err != nil {
		t.Fatalf("CreateAppointment error: %v", err)
	}
	if resp.Success {
		t.Fatal("expected success=false")
	}
	if resp.Error != "slot already taken" {
		t.Fatalf("unexpected error message: %q", resp.Error)
	}
}

func TestListUserAppointments(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/appointments/user" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("provider"); got != "drsmith" {
			t.Fatalf("unexpected provider param: %q", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"appointments": []map[string]any{
				{"service": "Massage", "duration": 60, "startTime": "2025-10-20T14:00:00-07:00", "endTime": "2025-10-20T15:00:00-07:00"},
			},
			"appointmentRequestCap": 2,
		})
	}))
	defer ts.Close()

	c := NewClient(ts.URL, 0, nil, nil)
	resp, err := c.ListUserAppointments(context.Background(), "jane@example.com", "drsmith")
	if err != nil {
		t.Fatalf("ListUserAppointments error: %v", err)
	}
	if resp.AppointmentRequestCap != 2 {
		t.Fatalf("unexpected cap: %d", resp.AppointmentRequestCap)
	}
	if len(resp.Appointments) != 1 {
		t.Fatalf("unexpected appointments: %+v", resp.Appointments)
	}
	appt := resp.Appointments[0]
	if appt.Date != "Mon Oct 20" || appt.Time != "2:00 PM" {
		t.Fatalf("unexpected display formatting: date=%q time=%q", appt.Date, appt.Time)
	}
}
