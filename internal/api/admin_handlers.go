package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"lockerbox/internal/auth"
	apperrors "lockerbox/internal/errors"
	"lockerbox/internal/repository"
	"lockerbox/internal/service"
)

// AdminHandler serves the partner dashboard listing and detail views.
type AdminHandler struct {
	Service *service.ReservationService
}

func NewAdminHandler(svc *service.ReservationService) *AdminHandler {
	return &AdminHandler{Service: svc}
}

func (h *AdminHandler) ListReservations(w http.ResponseWriter, r *http.Request) {
	tenantID := auth.TenantID(r.Context())
	if tenantID == "" {
		respondError(w, apperrors.Unauthorized("no tenant in token"))
		return
	}

	q := r.URL.Query()
	filter := repository.ListFilter{
		TenantID:   tenantID,
		Status:     q.Get("status"),
		LockerCode: q.Get("locker_code"),
		Limit:      parsePositiveInt(q.Get("limit"), 50),
		Offset:     parsePositiveInt(q.Get("offset"), 0),
	}
	if from := q.Get("from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			respondError(w, apperrors.BadRequest("invalid 'from' timestamp"))
			return
		}
		filter.From = &t
	}
	if to := q.Get("to"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			respondError(w, apperrors.BadRequest("invalid 'to' timestamp"))
			return
		}
		filter.To = &t
	}

	list, err := h.Service.ListReservations(filter)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

func (h *AdminHandler) GetReservation(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	resp, err := h.Service.LookupReservation(code)
	if err != nil {
		respondError(w, err)
		return
	}
	if !resp.Valid || resp.Reservation.TenantID != auth.TenantID(r.Context()) {
		respondError(w, apperrors.NotFound("reservation not found"))
		return
	}
	respondJSON(w, http.StatusOK, resp.Reservation)
}

func (h *AdminHandler) CancelReservation(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	resp, err := h.Service.LookupReservation(code)
	if err != nil {
		respondError(w, err)
		return
	}
	if !resp.Valid || resp.Reservation.TenantID != auth.TenantID(r.Context()) {
		respondError(w, apperrors.NotFound("reservation not found"))
		return
	}
	if err := h.Service.CancelReservation(code); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Reservation cancelled"})
}

func parsePositiveInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
