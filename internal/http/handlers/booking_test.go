package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/primestageprime/wellappoint-ui-sub000/internal/booking"
	"github.com/primestageprime/wellappoint-ui-sub000/internal/http/middleware"
	"github.com/primestageprime/wellappoint-ui-sub000/internal/session"
	"github.com/primestageprime/wellappoint-ui-sub000/internal/wellappoint"
	"github.com/primestageprime/wellappoint-ui-sub000/pkg/logging"
)

const testSecret = "handler-test-secret"

// errClient lets each test choose which upstream call fails and how.
type errClient struct {
	servicesErr error
	appts       *wellappoint.UserAppointmentsResponse
}

func (c *errClient) ListServices(context.Context, string) ([]wellappoint.Service, error) {
	if c.servicesErr != nil {
		return nil, c.servicesErr
	}
	return []wellappoint.Service{{Name: "Massage", Duration: 60}}, nil
}

func (c *errClient) ListAvailability(context.Context, wellappoint.AvailabilityQuery) ([]wellappoint.AvailableSlot, error) {
	return nil, nil
}

func (c *errClient) CreateAppointment(context.Context, wellappoint.CreateAppointmentRequest) (*wellappoint.CreateAppointmentResponse, error) {
	return &wellappoint.CreateAppointmentResponse{Success: true, AppointmentID: "appt_1"}, nil
}

func (c *errClient) ListUserAppointments(context.Context, string, string) (*wellappoint.UserAppointmentsResponse, error) {
	if c.appts != nil {
		return c.appts, nil
	}
	return &wellappoint.UserAppointmentsResponse{AppointmentRequestCap: 5}, nil
}

func newHandler(client booking.DataClient, store booking.StateStore) *BookingHandler {
	logger := logging.New("error")
	manager := booking.NewManager(booking.ManagerConfig{
		Client:           client,
		Store:            store,
		ProviderUsername: "drsmith",
		Logger:           logger,
	})
	return NewBookingHandler(manager, logger)
}

func authed(h http.HandlerFunc) http.Handler {
	return middleware.UserJWT(testSecret)(h)
}

func request(t *testing.T, method, path, sessionID string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email": "jane@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+signed)
	if sessionID != "" {
		req.Header.Set("X-Session-ID", sessionID)
	}
	return req
}

func TestStateEchoesSessionID(t *testing.T) {
	h := newHandler(&errClient{}, session.NewMemoryStore())

	rec := httptest.NewRecorder()
	authed(h.State).ServeHTTP(rec, request(t, http.MethodGet, "/api/booking/state", "sess-1", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "sess-1", rec.Header().Get("X-Session-ID"))
}

func TestStateMintsSessionIDWhenAbsent(t *testing.T) {
	h := newHandler(&errClient{}, session.NewMemoryStore())

	rec := httptest.NewRecorder()
	authed(h.State).ServeHTTP(rec, request(t, http.MethodGet, "/api/booking/state", "", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Session-ID"))
}

func TestStateProviderNotFoundMapsTo404(t *testing.T) {
	h := newHandler(&errClient{servicesErr: wellappoint.ErrProviderNotFound}, session.NewMemoryStore())

	rec := httptest.NewRecorder()
	authed(h.State).ServeHTTP(rec, request(t, http.MethodGet, "/api/booking/state", "sess-1", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStateUpstreamErrorMapsTo502(t *testing.T) {
	h := newHandler(&errClient{servicesErr: &wellappoint.APIError{Status: 500, Message: "boom"}}, session.NewMemoryStore())

	rec := httptest.NewRecorder()
	authed(h.State).ServeHTTP(rec, request(t, http.MethodGet, "/api/booking/state", "sess-1", nil))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "upstream request failed", resp.Error)
}

func TestSelectServiceLimitReachedMapsTo403(t *testing.T) {
	store := session.NewMemoryStore()
	require.NoError(t, store.Put(context.Background(), "sess-1", &booking.State{
		AppointmentCount: 2,
		RequestCap:       2,
	}))
	h := newHandler(&errClient{}, store)

	rec := httptest.NewRecorder()
	authed(h.SelectService).ServeHTTP(rec, request(t, http.MethodPost, "/api/booking/service", "sess-1", map[string]string{"service": "Massage"}))

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSelectServiceRequiresName(t *testing.T) {
	h := newHandler(&errClient{}, session.NewMemoryStore())

	rec := httptest.NewRecorder()
	authed(h.SelectService).ServeHTTP(rec, request(t, http.MethodPost, "/api/booking/service", "sess-1", map[string]string{}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSelectDurationRequiresPositiveValue(t *testing.T) {
	h := newHandler(&errClient{}, session.NewMemoryStore())

	rec := httptest.NewRecorder()
	authed(h.SelectDuration).ServeHTTP(rec, request(t, http.MethodPost, "/api/booking/duration", "sess-1", map[string]int{"duration": -5}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSelectSlotOutOfOrderMapsTo409(t *testing.T) {
	h := newHandler(&errClient{}, session.NewMemoryStore())

	rec := httptest.NewRecorder()
	authed(h.SelectSlot).ServeHTTP(rec, request(t, http.MethodPost, "/api/booking/slot", "sess-1", map[string]any{
		"startTime":       "2025-10-20T09:00:00Z",
		"durationMinutes": 60,
	}))

	assert.Equal(t, http.StatusConflict, rec.Code)
}
