package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	"lockerbox/internal/logger"
	"lockerbox/internal/service"
)

type StripeWebhookHandler struct {
	StripeSecret       string
	reservationService *service.ReservationService
	senderService      *service.SenderService
}

func NewStripeWebhookHandler(stripeSecret string, reservationService *service.ReservationService, senderService *service.SenderService) *StripeWebhookHandler {
	return &StripeWebhookHandler{
		StripeSecret:       stripeSecret,
		reservationService: reservationService,
		senderService:      senderService,
	}
}

func (h *StripeWebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	const maxBodyBytes = int64(65536)
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		logger.Error("error reading webhook body", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	sigHeader := r.Header.Get("Stripe-Signature")
	event, err := webhook.ConstructEvent(payload, sigHeader, h.StripeSecret)
	if err != nil {
		logger.Warn("webhook signature verification failed", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	switch event.Type {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			logger.Warn("error parsing checkout.session", "error", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if sess.ID == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		reservation, err := h.reservationService.MarkPaymentPaidBySessionID(sess.ID)
		if err != nil {
			logger.Error("could not mark payment paid", "session_id", sess.ID, "error", err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		if h.senderService != nil {
			h.senderService.SendReservationEmail(*reservation, "paid")
		}
	default:
		logger.Debug("unhandled stripe event", "type", event.Type)
	}

	w.WriteHeader(http.StatusOK)
}
