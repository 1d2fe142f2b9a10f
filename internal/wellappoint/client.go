package wellappoint

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/primestageprime/wellappoint-ui-sub000/internal/observability/metrics"
	"github.com/primestageprime/wellappoint-ui-sub000/pkg/logging"
)

const (
	defaultTimeout = 20 * time.Second

	pathServices           = "/services"
	pathAvailability       = "/availability"
	pathAppointmentRequest = "/appointment_request"
	pathUserAppointments   = "/api/appointments/user"

	// providerNotFoundSentinel is the one structured error code the upstream
	// defines, sent in the body of a provider-lookup 404.
	providerNotFoundSentinel = "PROVIDER_NOT_FOUND"
)

// Client is an HTTP client for the WellAppoint booking endpoints. Each call
// is an independent request/response pair; there is no caching beyond the
// returned result.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
	metrics    *metrics.BookingMetrics
}

// NewClient creates a client for the given base URL. A zero timeout falls
// back to the default.
func NewClient(baseURL string, timeout time.Duration, logger *logging.Logger, m *metrics.BookingMetrics) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		metrics:    m,
	}
}

// ListServices returns the provider's bookable services in server order.
func (c *Client) ListServices(ctx context.Context, username string) ([]Service, error) {
	q := url.Values{}
	if username != "" {
		q.Set("username", username)
	}
	var out []Service
	if err := c.getJSON(ctx, pathServices, q, &out); err != nil {
		return nil, fmt.Errorf("wellappoint: list services: %w", err)
	}
	return out, nil
}

// ListAvailability returns available slots for the query window. The result
// is chronologically unsorted at the source; callers group and sort it.
func (c *Client) ListAvailability(ctx context.Context, query AvailabilityQuery) ([]AvailableSlot, error) {
	q := url.Values{}
	q.Set("service", query.Service)
	q.Set("duration", strconv.Itoa(query.Duration))
	q.Set("email", query.Email)
	if query.Username != "" {
		q.Set("username", query.Username)
	}
	q.Set("start", FormatDate(query.Start))
	q.Set("end", FormatDate(query.End))

	var payload []slotPayload
	if err := c.getJSON(ctx, pathAvailability, q, &payload); err != nil {
		return nil, fmt.Errorf("wellappoint: list availability: %w", err)
	}

	slots := make([]AvailableSlot, 0, len(payload))
	for _, p := range payload {
		start, err := time.Parse(time.RFC3339, p.StartTime)
		if err != nil {
			c.logger.Warn("dropping slot with bad startTime", "startTime", p.StartTime, "error", err)
			continue
		}
		end, err := time.Parse(time.RFC3339, p.EndTime)
		if err != nil {
			c.logger.Warn("dropping slot with bad endTime", "endTime", p.EndTime, "error", err)
			continue
		}
		slots = append(slots, AvailableSlot{
			StartTime:       start,
			EndTime:         end,
			Location:        p.Location,
			DurationMinutes: p.DurationMinutes,
			IsOptimal:       p.IsOptimal,
		})
	}
	return slots, nil
}

// CreateAppointment submits an appointment request. The start time goes on
// the wire as naive local wall-clock time. A {success:false} body is returned
// as a non-nil response, not an error; transport and status failures are
// errors.
func (c *Client) CreateAppointment(ctx context.Context, req CreateAppointmentRequest) (*CreateAppointmentResponse, error) {
	payload := createAppointmentPayload{
		Service:  req.Service,
		Duration: req.Duration,
		Start:    FormatNaiveLocal(req.Start),
		Location: req.Location,
		Email:    req.Email,
		Username: req.Username,
	}
	if req.Profile != (ClientProfile{}) {
		p := req.Profile
		payload.Profile = &p
	}

	var out CreateAppointmentResponse
	if err := c.postJSON(ctx, pathAppointmentRequest, payload, &out); err != nil {
		return nil, fmt.Errorf("wellappoint: create appointment: %w", err)
	}
	return &out, nil
}

// ListUserAppointments returns the user's appointments plus the provider's
// appointment-request cap. Display date/time strings are formatted here in
// one pass; the raw wire timestamps are discarded.
func (c *Client) ListUserAppointments(ctx context.Context, email, provider string) (*UserAppointmentsResponse, error) {
	q := url.Values{}
	q.Set("email", email)
	if provider != "" {
		q.Set("provider", provider)
	}

	var payload userAppointmentsPayload
	if err := c.getJSON(ctx, pathUserAppointments, q, &payload); err != nil {
		return nil, fmt.Errorf("wellappoint: list user appointments: %w", err)
	}

	out := &UserAppointmentsResponse{
		Appointments:          make([]UserAppointment, 0, len(payload.Appointments)),
		AppointmentRequestCap: payload.AppointmentRequestCap,
	}
	for _, a := range payload.Appointments {
		start, err := time.Parse(time.RFC3339, a.StartTime)
		if err != nil {
			c.logger.Warn("dropping appointment with bad startTime", "service", a.Service, "startTime", a.StartTime, "error", err)
			continue
		}
		end, err := time.Parse(time.RFC3339, a.EndTime)
		if err != nil {
			end = start.Add(time.Duration(a.Duration) * time.Minute)
		}
		out.Appointments = append(out.Appointments, UserAppointment{
			Service:   a.Service,
			Duration:  a.Duration,
			Date:      FormatDisplayDate(start),
			Time:      FormatDisplayTime(start),
			StartTime: start,
			EndTime:   end,
		})
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.do(req, path, out)
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, path, out)
}

func (c *Client) do(req *http.Request, path string, out any) error {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.ObserveUpstreamLatency(path, time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(respBody))
		if resp.StatusCode == http.StatusNotFound && strings.Contains(msg, providerNotFoundSentinel) {
			return ErrProviderNotFound
		}
		if len(msg) > 300 {
			msg = msg[:300]
		}
		c.logger.Warn("upstream error", "path", path, "status", resp.StatusCode)
		return &APIError{Status: resp.StatusCode, Message: msg}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}
