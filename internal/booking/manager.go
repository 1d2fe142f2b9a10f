package booking

import (
	"context"
	"errors"
	"time"

	"github.com/primestageprime/wellappoint-ui-sub000/internal/observability/metrics"
	"github.com/primestageprime/wellappoint-ui-sub000/internal/wellappoint"
	"github.com/primestageprime/wellappoint-ui-sub000/pkg/logging"
)

var (
	// ErrLimitReached rejects service selection once the appointment cap is hit.
	ErrLimitReached = errors.New("booking: appointment request limit reached")
	// ErrNoService rejects duration selection before a service is chosen.
	ErrNoService = errors.New("booking: no service selected")
	// ErrNoDuration rejects slot selection before a duration is chosen.
	ErrNoDuration = errors.New("booking: no duration selected")
	// ErrNoSlot rejects submission before a slot is chosen.
	ErrNoSlot = errors.New("booking: no slot selected")
	// ErrInvalidSlot rejects slots that fail shape validation.
	ErrInvalidSlot = errors.New("booking: invalid slot")
)

const (
	defaultSlotFetchTimeout = 30 * time.Second
	defaultSubmitTimeout    = 30 * time.Second

	slotFetchErrorMessage = "Could not load available times. Please pick the duration again to retry."
)

// DataClient is the data-access contract the orchestrator depends on,
// implemented by wellappoint.Client.
type DataClient interface {
	ListServices(ctx context.Context, username string) ([]wellappoint.Service, error)
	ListAvailability(ctx context.Context, query wellappoint.AvailabilityQuery) ([]wellappoint.AvailableSlot, error)
	CreateAppointment(ctx context.Context, req wellappoint.CreateAppointmentRequest) (*wellappoint.CreateAppointmentResponse, error)
	ListUserAppointments(ctx context.Context, email, provider string) (*wellappoint.UserAppointmentsResponse, error)
}

// StateStore persists per-session booking state between requests. Get returns
// (nil, nil) for an unknown session.
type StateStore interface {
	Get(ctx context.Context, sessionID string) (*State, error)
	Put(ctx context.Context, sessionID string, st *State) error
	Delete(ctx context.Context, sessionID string) error
}

// State is everything the orchestrator owns for one booking session: the
// selection driving the state machine, the session-scoped service cache, the
// grouped slot results, and the side-channel error message. SlotDays carries
// no omitempty: an empty-but-present slot list means "fetch completed,
// nothing available" and must survive the store's JSON round trip.
type State struct {
	Selection        Selection             `json:"selection"`
	Services         []wellappoint.Service `json:"services,omitempty"`
	ServicesLoaded   bool                  `json:"servicesLoaded"`
	SlotDays         []SlotDay             `json:"slotDays"`
	SlotGeneration   uint64                `json:"slotGeneration"`
	AppointmentCount int                   `json:"appointmentCount"`
	RequestCap       int                   `json:"requestCap"`
	AppointmentID    string                `json:"appointmentId,omitempty"`
	LastError        string                `json:"lastError,omitempty"`
}

// View is the orchestrator's output for the rendering layer: the derived step
// plus everything the active step needs.
type View struct {
	StepView
	LimitReached          bool                  `json:"limitReached"`
	Selection             Selection             `json:"selection"`
	Services              []wellappoint.Service `json:"services,omitempty"`
	SlotDays              []SlotDay             `json:"slotDays"`
	AppointmentCount      int                   `json:"appointmentCount"`
	AppointmentRequestCap int                   `json:"appointmentRequestCap"`
	AppointmentID         string                `json:"appointmentId,omitempty"`
	Error                 string                `json:"error,omitempty"`
}

// ManagerConfig wires a Manager's collaborators.
type ManagerConfig struct {
	Client           DataClient
	Store            StateStore
	ProviderUsername string
	SlotFetchTimeout time.Duration
	SubmitTimeout    time.Duration
	Logger           *logging.Logger
	Metrics          *metrics.BookingMetrics
}

// Manager orchestrates booking sessions: it applies named transitions to the
// session state, drives the data-access layer, and re-derives the current
// step after every mutation.
type Manager struct {
	client           DataClient
	store            StateStore
	providerUsername string
	slotFetchTimeout time.Duration
	submitTimeout    time.Duration
	logger           *logging.Logger
	metrics          *metrics.BookingMetrics

	// launch runs slot-fetch completions; tests swap it to run inline.
	launch func(func())
}

func NewManager(cfg ManagerConfig) *Manager {
	if cfg.Client == nil {
		panic("booking: data client required")
	}
	if cfg.Store == nil {
		panic("booking: state store required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	slotTimeout := cfg.SlotFetchTimeout
	if slotTimeout <= 0 {
		slotTimeout = defaultSlotFetchTimeout
	}
	submitTimeout := cfg.SubmitTimeout
	if submitTimeout <= 0 {
		submitTimeout = defaultSubmitTimeout
	}
	return &Manager{
		client:           cfg.Client,
		store:            cfg.Store,
		providerUsername: cfg.ProviderUsername,
		slotFetchTimeout: slotTimeout,
		submitTimeout:    submitTimeout,
		logger:           logger,
		metrics:          cfg.Metrics,
		launch:           func(fn func()) { go fn() },
	}
}

// Start ensures a session is hydrated: services are fetched once per session,
// and the appointment-limit check runs whenever the user is at the services
// step. A services fetch failure is returned to the caller (the UI shows a
// retry affordance); an appointments fetch failure degrades to the
// side-channel error without blocking the flow.
func (m *Manager) Start(ctx context.Context, sessionID, email string) (*View, error) {
	st, err := m.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if !st.ServicesLoaded {
		services, err := m.client.ListServices(ctx, m.providerUsername)
		if err != nil {
			return nil, err
		}
		st.Services = services
		st.ServicesLoaded = true
	}

	if st.Selection.Service == "" {
		resp, err := m.client.ListUserAppointments(ctx, email, m.providerUsername)
		if err != nil {
			m.logger.Warn("appointment limit check failed", "session", sessionID, "error", err)
			st.LastError = "Could not load your existing appointments."
		} else {
			st.AppointmentCount = len(resp.Appointments)
			st.RequestCap = resp.AppointmentRequestCap
		}
	}

	if err := m.store.Put(ctx, sessionID, st); err != nil {
		return nil, err
	}
	return m.viewOf(st), nil
}

// SelectService sets the service and clears duration, slot, and confirmation.
// Rejected with ErrLimitReached once the appointment cap is hit.
func (m *Manager) SelectService(ctx context.Context, sessionID, name string) (*View, error) {
	st, err := m.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if ReachedRequestCap(st.AppointmentCount, st.RequestCap) {
		return nil, ErrLimitReached
	}

	st.Selection.Service = name
	st.Selection.Duration = 0
	st.Selection.Slot = nil
	st.Selection.Confirmed = nil
	st.Selection.LoadingSlots = false
	st.SlotDays = nil
	st.SlotGeneration++ // invalidate any in-flight slot fetch
	st.AppointmentID = ""
	st.LastError = ""
	return m.save(ctx, sessionID, st)
}

// UnselectService clears the whole selection, returning to the services step.
func (m *Manager) UnselectService(ctx context.Context, sessionID string) (*View, error) {
	st, err := m.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	st.Selection.Service = ""
	st.Selection.Duration = 0
	st.Selection.Slot = nil
	st.Selection.Confirmed = nil
	st.Selection.LoadingSlots = false
	st.SlotDays = nil
	st.SlotGeneration++
	st.LastError = ""
	return m.save(ctx, sessionID, st)
}

// SelectDuration sets the duration, clears the slot, and starts an
// asynchronous availability fetch over the fixed two-week horizon. The fetch
// completion only applies if no later mutation superseded it.
func (m *Manager) SelectDuration(ctx context.Context, sessionID, email string, minutes int) (*View, error) {
	st, err := m.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if st.Selection.Service == "" {
		return nil, ErrNoService
	}

	st.Selection.Duration = minutes
	st.Selection.Slot = nil
	st.Selection.LoadingSlots = true
	st.SlotDays = nil
	st.SlotGeneration++
	st.LastError = ""
	gen := st.SlotGeneration

	view, err := m.save(ctx, sessionID, st)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	query := wellappoint.AvailabilityQuery{
		Service:  st.Selection.Service,
		Duration: minutes,
		Email:    email,
		Username: m.providerUsername,
		Start:    now,
		End:      now.AddDate(0, 0, BookingHorizonDays),
	}
	m.launch(func() { m.completeSlotFetch(sessionID, gen, query) })

	return view, nil
}

// UnselectDuration clears the duration and slot.
func (m *Manager) UnselectDuration(ctx context.Context, sessionID string) (*View, error) {
	st, err := m.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	st.Selection.Duration = 0
	st.Selection.Slot = nil
	st.Selection.LoadingSlots = false
	st.SlotDays = nil
	st.SlotGeneration++
	return m.save(ctx, sessionID, st)
}

// SelectSlot sets the chosen slot. The slot shape is validated at this
// boundary: a start time and positive duration are required.
func (m *Manager) SelectSlot(ctx context.Context, sessionID string, slot wellappoint.AvailableSlot) (*View, error) {
	st, err := m.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if st.Selection.Duration == 0 {
		return nil, ErrNoDuration
	}
	if slot.StartTime.IsZero() || slot.DurationMinutes <= 0 {
		return nil, ErrInvalidSlot
	}
	st.Selection.Slot = &slot
	return m.save(ctx, sessionID, st)
}

// BackToSlots clears only the slot, returning to the slot picker.
func (m *Manager) BackToSlots(ctx context.Context, sessionID string) (*View, error) {
	st, err := m.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	st.Selection.Slot = nil
	st.Selection.Confirmed = nil
	return m.save(ctx, sessionID, st)
}

// Submit runs the submission sequence: mark submitting, create the
// appointment, and on success mark confirmed and refresh the user's
// appointment list. Failures never advance to the confirmed step silently;
// the error is recorded on the side channel and returned.
func (m *Manager) Submit(ctx context.Context, sessionID, email string, profile wellappoint.ClientProfile) (*View, error) {
	st, err := m.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if st.Selection.Slot == nil {
		return nil, ErrNoSlot
	}

	slot := *st.Selection.Slot
	st.Selection.Submitting = true
	inFlight := false
	st.Selection.Confirmed = &inFlight
	st.LastError = ""
	if err := m.store.Put(ctx, sessionID, st); err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, m.submitTimeout)
	defer cancel()
	resp, err := m.client.CreateAppointment(callCtx, wellappoint.CreateAppointmentRequest{
		Service:  st.Selection.Service,
		Duration: st.Selection.Duration,
		Start:    slot.StartTime,
		Location: slot.Location,
		Email:    email,
		Username: m.providerUsername,
		Profile:  profile,
	})
	if err != nil || !resp.Success {
		msg := "Could not create the appointment. Please try again."
		if err == nil && resp.Error != "" {
			msg = resp.Error
		}
		st.Selection.Submitting = false
		st.LastError = msg
		m.metrics.ObserveSubmission("failed")
		m.logger.Warn("appointment submission failed", "session", sessionID, "error", err, "message", msg)
		view, saveErr := m.save(ctx, sessionID, st)
		if saveErr != nil {
			return nil, saveErr
		}
		if err == nil {
			err = errors.New("booking: " + msg)
		}
		return view, err
	}

	confirmed := true
	st.Selection.Confirmed = &confirmed
	st.AppointmentID = resp.AppointmentID

	// Refresh the appointment list so the cap check sees the new booking.
	// Best effort: a refresh failure does not undo the confirmation.
	if refreshed, err := m.client.ListUserAppointments(ctx, email, m.providerUsername); err != nil {
		m.logger.Warn("appointment refresh failed", "session", sessionID, "error", err)
	} else {
		st.AppointmentCount = len(refreshed.Appointments)
		st.RequestCap = refreshed.AppointmentRequestCap
	}

	st.Selection.Submitting = false
	m.metrics.ObserveSubmission("success")
	return m.save(ctx, sessionID, st)
}

// Reset clears the selection back to initial values. The session-scoped
// service cache and the last known cap survive a reset.
func (m *Manager) Reset(ctx context.Context, sessionID string) (*View, error) {
	st, err := m.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	st.Selection = Selection{}
	st.SlotDays = nil
	st.SlotGeneration++
	st.AppointmentID = ""
	st.LastError = ""
	return m.save(ctx, sessionID, st)
}

// Appointments fetches the user's current appointments and cap.
func (m *Manager) Appointments(ctx context.Context, email string) (*wellappoint.UserAppointmentsResponse, error) {
	return m.client.ListUserAppointments(ctx, email, m.providerUsername)
}

// completeSlotFetch is the availability fetch completion handler. It applies
// the result only when the stored generation still matches; a later duration
// change or reset discards the stale result. Fetch failure degrades to an
// empty slot list plus a side-channel error message so the UI renders "no
// slots found" rather than crashing.
func (m *Manager) completeSlotFetch(sessionID string, gen uint64, query wellappoint.AvailabilityQuery) {
	ctx, cancel := context.WithTimeout(context.Background(), m.slotFetchTimeout)
	defer cancel()

	slots, fetchErr := m.client.ListAvailability(ctx, query)

	st, err := m.load(ctx, sessionID)
	if err != nil {
		m.logger.Error("slot fetch completion: load state", "session", sessionID, "error", err)
		return
	}
	if st.SlotGeneration != gen {
		m.metrics.ObserveSlotFetch("stale")
		m.logger.Debug("discarding stale slot fetch", "session", sessionID, "generation", gen)
		return
	}

	if fetchErr != nil {
		st.SlotDays = []SlotDay{}
		st.LastError = slotFetchErrorMessage
		m.metrics.ObserveSlotFetch("error")
		m.logger.Warn("slot fetch failed", "session", sessionID, "error", fetchErr)
	} else {
		st.SlotDays = GroupSlotsByDay(slots)
		m.metrics.ObserveSlotFetch("ok")
	}
	st.Selection.LoadingSlots = false

	if err := m.store.Put(ctx, sessionID, st); err != nil {
		m.logger.Error("slot fetch completion: save state", "session", sessionID, "error", err)
	}
}

// View derives the current view without any upstream calls.
func (m *Manager) View(ctx context.Context, sessionID string) (*View, error) {
	st, err := m.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return m.viewOf(st), nil
}

func (m *Manager) load(ctx context.Context, sessionID string) (*State, error) {
	st, err := m.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if st == nil {
		st = &State{}
	}
	return st, nil
}

func (m *Manager) save(ctx context.Context, sessionID string, st *State) (*View, error) {
	if err := m.store.Put(ctx, sessionID, st); err != nil {
		return nil, err
	}
	return m.viewOf(st), nil
}

func (m *Manager) viewOf(st *State) *View {
	v := &View{
		StepView:              DeriveStep(st.Selection),
		Selection:             st.Selection,
		Services:              st.Services,
		SlotDays:              st.SlotDays,
		AppointmentCount:      st.AppointmentCount,
		AppointmentRequestCap: st.RequestCap,
		AppointmentID:         st.AppointmentID,
		Error:                 st.LastError,
	}
	// The limit notice replaces the services step outright.
	if v.Step == StepChooseServices && ReachedRequestCap(st.AppointmentCount, st.RequestCap) {
		v.LimitReached = true
		v.ShowServices = false
	}
	return v
}
