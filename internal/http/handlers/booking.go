// Package handlers exposes the booking flow over HTTP. Every endpoint reads
// the session from the X-Session-ID header, applies one transition, and
// responds with the full derived view so the client never tracks state itself.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/primestageprime/wellappoint-ui-sub000/internal/booking"
	"github.com/primestageprime/wellappoint-ui-sub000/internal/http/middleware"
	"github.com/primestageprime/wellappoint-ui-sub000/internal/wellappoint"
	"github.com/primestageprime/wellappoint-ui-sub000/pkg/logging"
)

const sessionHeader = "X-Session-ID"

// BookingHandler hosts the booking flow endpoints.
type BookingHandler struct {
	manager *booking.Manager
	logger  *logging.Logger
}

func NewBookingHandler(manager *booking.Manager, logger *logging.Logger) *BookingHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &BookingHandler{manager: manager, logger: logger}
}

type selectServiceRequest struct {
	Service string `json:"service"`
}

type selectDurationRequest struct {
	Duration int `json:"duration"`
}

type confirmRequest struct {
	Profile wellappoint.ClientProfile `json:"profile"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// State hydrates the session and returns the current view.
func (h *BookingHandler) State(w http.ResponseWriter, r *http.Request) {
	sessionID := h.sessionID(w, r)
	email, ok := middleware.UserEmailFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "not authenticated"})
		return
	}

	view, err := h.manager.Start(r.Context(), sessionID, email)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// SelectService sets the chosen service.
func (h *BookingHandler) SelectService(w http.ResponseWriter, r *http.Request) {
	sessionID := h.sessionID(w, r)

	var req selectServiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Service == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "service name required"})
		return
	}

	view, err := h.manager.SelectService(r.Context(), sessionID, req.Service)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// UnselectService clears the selection back to the services step.
func (h *BookingHandler) UnselectService(w http.ResponseWriter, r *http.Request) {
	sessionID := h.sessionID(w, r)

	view, err := h.manager.UnselectService(r.Context(), sessionID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// SelectDuration sets the duration and kicks off the availability fetch.
func (h *BookingHandler) SelectDuration(w http.ResponseWriter, r *http.Request) {
	sessionID := h.sessionID(w, r)
	email, ok := middleware.UserEmailFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "not authenticated"})
		return
	}

	var req selectDurationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Duration <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "positive duration required"})
		return
	}

	view, err := h.manager.SelectDuration(r.Context(), sessionID, email, req.Duration)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// UnselectDuration clears the duration and slot.
func (h *BookingHandler) UnselectDuration(w http.ResponseWriter, r *http.Request) {
	sessionID := h.sessionID(w, r)

	view, err := h.manager.UnselectDuration(r.Context(), sessionID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// SelectSlot sets the chosen slot.
func (h *BookingHandler) SelectSlot(w http.ResponseWriter, r *http.Request) {
	sessionID := h.sessionID(w, r)

	var slot wellappoint.AvailableSlot
	if err := json.NewDecoder(r.Body).Decode(&slot); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid slot payload"})
		return
	}

	view, err := h.manager.SelectSlot(r.Context(), sessionID, slot)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// UnselectSlot returns to the slot picker, keeping service and duration.
func (h *BookingHandler) UnselectSlot(w http.ResponseWriter, r *http.Request) {
	sessionID := h.sessionID(w, r)

	view, err := h.manager.BackToSlots(r.Context(), sessionID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Confirm submits the appointment request.
func (h *BookingHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	sessionID := h.sessionID(w, r)
	email, ok := middleware.UserEmailFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "not authenticated"})
		return
	}

	var req confirmRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid profile payload"})
			return
		}
	}

	view, err := h.manager.Submit(r.Context(), sessionID, email, req.Profile)
	if err != nil {
		// A failed submission still carries a renderable view.
		if view != nil {
			writeJSON(w, http.StatusBadGateway, view)
			return
		}
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Reset clears the selection for a fresh booking.
func (h *BookingHandler) Reset(w http.ResponseWriter, r *http.Request) {
	sessionID := h.sessionID(w, r)

	view, err := h.manager.Reset(r.Context(), sessionID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Appointments lists the signed-in user's appointments and cap.
func (h *BookingHandler) Appointments(w http.ResponseWriter, r *http.Request) {
	email, ok := middleware.UserEmailFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "not authenticated"})
		return
	}

	resp, err := h.manager.Appointments(r.Context(), email)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// sessionID returns the request's session ID, minting one when absent. The ID
// is always echoed on the response so the client can persist it.
func (h *BookingHandler) sessionID(w http.ResponseWriter, r *http.Request) string {
	sessionID := r.Header.Get(sessionHeader)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	w.Header().Set(sessionHeader, sessionID)
	return sessionID
}

func (h *BookingHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *wellappoint.APIError
	switch {
	case errors.Is(err, booking.ErrLimitReached):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: err.Error()})
	case errors.Is(err, booking.ErrNoService),
		errors.Is(err, booking.ErrNoDuration),
		errors.Is(err, booking.ErrNoSlot),
		errors.Is(err, booking.ErrInvalidSlot):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, wellappoint.ErrProviderNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.As(err, &apiErr):
		h.logger.Warn("upstream error", "path", r.URL.Path, "status", apiErr.Status, "error", err)
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "upstream request failed"})
	default:
		h.logger.Error("request failed", "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
