package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"lockerbox/internal/entities"
	apperrors "lockerbox/internal/errors"
	"lockerbox/internal/service"
)

// SelfServiceHandler serves the guest-facing reservation lifecycle:
// price estimate, create, lookup by code, handover, return.
type SelfServiceHandler struct {
	Reservations *service.ReservationService
	Pricing      *service.PricingService
}

func NewSelfServiceHandler(reservations *service.ReservationService, pricing *service.PricingService) *SelfServiceHandler {
	return &SelfServiceHandler{Reservations: reservations, Pricing: pricing}
}

func (h *SelfServiceHandler) EstimatePrice(w http.ResponseWriter, r *http.Request) {
	var req entities.EstimateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, apperrors.BadRequest("invalid request body"))
		return
	}
	estimate, err := h.Pricing.Estimate(req)
	if err != nil {
		respondError(w, apperrors.BadRequest(err.Error()))
		return
	}
	respondJSON(w, http.StatusOK, estimate)
}

func (h *SelfServiceHandler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	var req entities.ReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, apperrors.BadRequest("invalid request body"))
		return
	}
	resp, err := h.Reservations.CreateReservation(&req)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, resp)
}

// LookupReservation resolves a confirmation code. An unknown code yields
// 200 with valid:false rather than 404: it is a normal answer, not an error.
func (h *SelfServiceHandler) LookupReservation(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	resp, err := h.Reservations.LookupReservation(code)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *SelfServiceHandler) RecordHandover(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	var req entities.OperationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, apperrors.BadRequest("invalid request body"))
		return
	}
	resp, err := h.Reservations.RecordHandover(code, &req)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *SelfServiceHandler) ConfirmReturn(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	var req entities.OperationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, apperrors.BadRequest("invalid request body"))
		return
	}
	resp, err := h.Reservations.ConfirmReturn(code, &req)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *SelfServiceHandler) CancelReservation(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	if err := h.Reservations.CancelReservation(code); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Reservation cancelled"})
}

func (h *SelfServiceHandler) GetPrices(w http.ResponseWriter, r *http.Request) {
	tenantID := r.URL.Query().Get("tenant_id")
	if tenantID == "" {
		respondError(w, apperrors.BadRequest("tenant_id is required"))
		return
	}
	prices, err := h.Pricing.ListTierPrices(tenantID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, prices)
}
