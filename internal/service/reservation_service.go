package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"lockerbox/internal/db"
	"lockerbox/internal/entities"
	apperrors "lockerbox/internal/errors"
	"lockerbox/internal/logger"
	"lockerbox/internal/repository"
)

const (
	ContractPrivacy = "privacy"
	ContractTerms   = "terms"
)

type ReservationService struct {
	Repo        *repository.ReservationRepository
	ConsentRepo *repository.ConsentRepository
	Pricing     *PricingService
	Sender      *SenderService
	Stripe      *StripeService
}

func NewReservationService(
	repo *repository.ReservationRepository,
	consentRepo *repository.ConsentRepository,
	pricing *PricingService,
	sender *SenderService,
	stripeService *StripeService,
) *ReservationService {
	return &ReservationService{
		Repo:        repo,
		ConsentRepo: consentRepo,
		Pricing:     pricing,
		Sender:      sender,
		Stripe:      stripeService,
	}
}

// validateCreate checks the request in a fixed order: identifiers, then
// dates, then contract acceptances. The first unmet condition wins.
func validateCreate(req *entities.ReservationRequest) *apperrors.HTTPError {
	if req.TenantID == "" {
		return apperrors.BadRequest("tenant_id is required")
	}
	if req.LockerCode == "" {
		return apperrors.BadRequest("locker_code is required")
	}
	if req.StartTime.IsZero() || req.EndTime.IsZero() {
		return apperrors.BadRequest("start_time and end_time are required")
	}
	if !req.EndTime.After(req.StartTime) {
		return apperrors.BadRequest("end_time must be after start_time")
	}
	if req.ItemCount < 0 {
		return apperrors.BadRequest("item_count must not be negative")
	}
	if !req.PrivacyAccepted {
		return apperrors.BadRequest("privacy notice must be accepted")
	}
	if !req.TermsAccepted {
		return apperrors.BadRequest("terms of service must be accepted")
	}
	return nil
}

func (s *ReservationService) CreateReservation(req *entities.ReservationRequest) (*entities.CreateReservationResponse, error) {
	if err := validateCreate(req); err != nil {
		return nil, err
	}

	overlapping, err := s.Repo.CountOverlappingActive(req.TenantID, req.LockerCode, req.StartTime.UTC(), req.EndTime.UTC())
	if err != nil {
		return nil, err
	}
	if overlapping > 0 {
		return nil, apperrors.Conflict(fmt.Sprintf("locker %s is not available for the requested time", req.LockerCode))
	}

	total := 0
	if req.ItemCount > 0 {
		estimate, err := s.Pricing.Estimate(entities.EstimateRequest{
			TenantID:  req.TenantID,
			StartTime: req.StartTime,
			EndTime:   req.EndTime,
			ItemCount: req.ItemCount,
		})
		if err != nil {
			return nil, fmt.Errorf("could not price reservation: %w", err)
		}
		total = estimate.TotalMinorUnits
	}

	code := fmt.Sprintf("%08X", time.Now().UnixNano()%100000000)
	now := time.Now().UTC()

	reservation := &db.Reservation{
		ID:            uuid.NewString(),
		Code:          code,
		TenantID:      req.TenantID,
		LockerCode:    req.LockerCode,
		GuestName:     req.GuestName,
		GuestPhone:    req.GuestPhone,
		GuestEmail:    req.GuestEmail,
		ItemCount:     req.ItemCount,
		ItemType:      req.ItemType,
		ItemWeightKg:  req.ItemWeightKg,
		Notes:         req.Notes,
		Status:        db.StatusActive,
		StartTime:     req.StartTime.UTC(),
		EndTime:       req.EndTime.UTC(),
		PriceTotal:    total,
		PaymentStatus: db.PaymentOnsite,
		Language:      req.Language,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	checkoutURL := ""
	if req.PaymentMethod == "online" && s.Stripe != nil && total > 0 {
		url, sessionID, err := s.Stripe.CreateCheckoutSession(int64(total), code, req.GuestEmail)
		if err != nil {
			return nil, fmt.Errorf("could not create checkout session: %w", err)
		}
		checkoutURL = url
		reservation.StripeSessionID = sessionID
		reservation.PaymentStatus = db.PaymentPending
	}

	if err := s.Repo.CreateReservation(reservation); err != nil {
		logger.Error("error creating reservation", "code", code, "error", err)
		return nil, err
	}

	s.recordConsents(reservation)

	if s.Sender != nil {
		resp := toReservationResponse(reservation)
		s.Sender.SendReservationEmail(*resp, "confirmed")
		s.Sender.SendReservationSMS(*resp, "confirmed")
	}

	return &entities.CreateReservationResponse{
		ReservationID: reservation.ID,
		Code:          code,
		LockerCode:    reservation.LockerCode,
		PriceTotal:    total,
		CheckoutURL:   checkoutURL,
		Message:       "Reservation confirmed.",
	}, nil
}

// recordConsents persists the audit trail for both accepted contracts.
// Best-effort: a failed audit write does not undo the reservation.
func (s *ReservationService) recordConsents(res *db.Reservation) {
	if s.ConsentRepo == nil {
		return
	}
	acceptedBy := res.GuestEmail
	if acceptedBy == "" {
		acceptedBy = res.GuestName
	}
	for _, contractID := range []string{ContractPrivacy, ContractTerms} {
		if err := s.ConsentRepo.RecordAcceptance(res.Code, contractID, acceptedBy, res.CreatedAt); err != nil {
			logger.Warn("could not record consent", "code", res.Code, "contract", contractID, "error", err)
		}
	}
}

// LookupReservation resolves a confirmation code. An unknown code is a normal
// response with Valid false, not an error.
func (s *ReservationService) LookupReservation(code string) (*entities.LookupResponse, error) {
	reservation, err := s.Repo.GetReservationByCode(code)
	if err != nil {
		return nil, err
	}
	if reservation == nil {
		return &entities.LookupResponse{Valid: false}, nil
	}
	return &entities.LookupResponse{Valid: true, Reservation: toReservationResponse(reservation)}, nil
}

// RecordHandover marks the luggage as received into storage.
func (s *ReservationService) RecordHandover(code string, req *entities.OperationRequest) (*entities.ReservationResponse, error) {
	reservation, err := s.Repo.GetReservationByCode(code)
	if err != nil {
		return nil, err
	}
	if reservation == nil {
		return nil, apperrors.NotFound("reservation not found")
	}
	if reservation.Status != db.StatusActive {
		return nil, apperrors.ErrNotActive
	}
	if reservation.HandoverAt.Valid {
		return nil, apperrors.ErrAlreadyHandedOver
	}

	by := req.By
	if by == "" {
		by = "self-service"
	}
	at := req.At
	if at.IsZero() {
		at = time.Now().UTC()
	}

	updated, err := s.Repo.MarkHandedOver(code, by, req.Notes, req.EvidenceURL, at.UTC())
	if err != nil {
		return nil, err
	}
	if updated == nil {
		// Lost the race to another recorder.
		return nil, apperrors.ErrAlreadyHandedOver
	}
	logger.Info("handover recorded", "code", code, "by", by)
	return toReservationResponse(updated), nil
}

// ConfirmReturn marks the luggage as given back and closes the reservation.
func (s *ReservationService) ConfirmReturn(code string, req *entities.OperationRequest) (*entities.ReservationResponse, error) {
	reservation, err := s.Repo.GetReservationByCode(code)
	if err != nil {
		return nil, err
	}
	if reservation == nil {
		return nil, apperrors.NotFound("reservation not found")
	}
	if !reservation.HandoverAt.Valid {
		return nil, apperrors.ErrNotHandedOver
	}
	if reservation.ReturnedAt.Valid {
		return nil, apperrors.ErrAlreadyReturned
	}

	by := req.By
	if by == "" {
		by = "guest"
	}
	at := req.At
	if at.IsZero() {
		at = time.Now().UTC()
	}

	updated, err := s.Repo.MarkReturned(code, by, req.Notes, req.EvidenceURL, at.UTC())
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, apperrors.ErrAlreadyReturned
	}
	logger.Info("return recorded", "code", code, "by", by)
	return toReservationResponse(updated), nil
}

// CancelReservation cancels an active reservation whose luggage was never
// handed over, refunding an online payment when one exists.
func (s *ReservationService) CancelReservation(code string) error {
	reservation, err := s.Repo.GetReservationByCode(code)
	if err != nil {
		return err
	}
	if reservation == nil {
		return apperrors.NotFound("reservation not found")
	}
	if reservation.Status != db.StatusActive {
		return apperrors.ErrNotActive
	}
	if reservation.HandoverAt.Valid {
		return apperrors.Conflict("cannot cancel after handover")
	}

	if reservation.PaymentStatus == db.PaymentPaid && reservation.StripeSessionID != "" && s.Stripe != nil {
		if err := s.Stripe.RefundPaymentBySessionID(reservation.StripeSessionID); err != nil {
			return fmt.Errorf("could not refund payment: %w", err)
		}
		if err := s.Repo.UpdatePaymentStatus(reservation.ID, db.PaymentRefunded); err != nil {
			logger.Warn("could not mark payment refunded", "code", code, "error", err)
		}
	}

	if _, err := s.Repo.CancelReservation(code); err != nil {
		return err
	}

	if s.Sender != nil {
		resp := toReservationResponse(reservation)
		resp.Status = db.StatusCancelled
		s.Sender.SendReservationEmail(*resp, "cancelled")
		s.Sender.SendReservationSMS(*resp, "cancelled")
	}
	return nil
}

func (s *ReservationService) ListReservations(f repository.ListFilter) (*entities.ReservationsList, error) {
	rows, total, err := s.Repo.ListReservations(f)
	if err != nil {
		return nil, err
	}
	list := &entities.ReservationsList{
		Total:  total,
		Limit:  f.Limit,
		Offset: f.Offset,
	}
	for _, row := range rows {
		list.Reservations = append(list.Reservations, *toReservationResponse(row))
	}
	return list, nil
}

// MarkPaymentPaidBySessionID is called from the checkout webhook.
func (s *ReservationService) MarkPaymentPaidBySessionID(sessionID string) (*entities.ReservationResponse, error) {
	reservation, err := s.Repo.GetReservationByStripeSessionID(sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.UpdatePaymentStatus(reservation.ID, db.PaymentPaid); err != nil {
		return nil, err
	}
	reservation.PaymentStatus = db.PaymentPaid
	return toReservationResponse(reservation), nil
}

func toReservationResponse(res *db.Reservation) *entities.ReservationResponse {
	out := &entities.ReservationResponse{
		ReservationID: res.ID,
		Code:          res.Code,
		TenantID:      res.TenantID,
		LockerCode:    res.LockerCode,
		Status:        res.Status,
		GuestName:     res.GuestName,
		GuestPhone:    res.GuestPhone,
		GuestEmail:    res.GuestEmail,
		ItemCount:     res.ItemCount,
		ItemType:      res.ItemType,
		ItemWeightKg:  res.ItemWeightKg,
		Notes:         res.Notes,
		StartTime:     res.StartTime,
		EndTime:       res.EndTime,
		PriceTotal:    res.PriceTotal,
		PaymentStatus: res.PaymentStatus,
		Language:      res.Language,
		CreatedAt:     res.CreatedAt,
		UpdatedAt:     res.UpdatedAt,
	}
	if res.HandoverAt.Valid {
		t := res.HandoverAt.Time
		out.HandoverAt = &t
	}
	if res.HandoverBy.Valid {
		v := res.HandoverBy.String
		out.HandoverBy = &v
	}
	if res.ReturnedAt.Valid {
		t := res.ReturnedAt.Time
		out.ReturnedAt = &t
	}
	if res.ReturnedBy.Valid {
		v := res.ReturnedBy.String
		out.ReturnedBy = &v
	}
	return out
}
