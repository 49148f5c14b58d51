package service

import (
	"fmt"
	"time"

	"lockerbox/internal/config"
	"lockerbox/internal/entities"
	"lockerbox/internal/logger"
)

// SenderService fans reservation updates out to email and SMS. Sends run on
// goroutines and are best-effort; a delivery failure is logged, never returned.
type SenderService struct {
	sendGridAPIKey string
	emailFrom      string
	emailFromName  string

	twilioAccountSID string
	twilioAuthToken  string
	twilioFromNumber string
}

func NewSenderService(cfg *config.Config) *SenderService {
	return &SenderService{
		sendGridAPIKey:   cfg.SendGridAPIKey,
		emailFrom:        cfg.EmailFrom,
		emailFromName:    cfg.EmailFromName,
		twilioAccountSID: cfg.TwilioAccountSID,
		twilioAuthToken:  cfg.TwilioAuthToken,
		twilioFromNumber: cfg.TwilioFromNumber,
	}
}

func (s *SenderService) SendReservationEmail(reservation entities.ReservationResponse, status string) {
	if reservation.GuestEmail == "" {
		return
	}

	emailData := entities.ReservationEmailData{
		GuestName:          reservation.GuestName,
		ReservationCode:    reservation.Code,
		LockerCode:         reservation.LockerCode,
		ItemSummary:        itemSummary(reservation),
		StartTimeFormatted: reservation.StartTime.Format("02 Jan 2006 15:04 MST"),
		EndTimeFormatted:   reservation.EndTime.Format("02 Jan 2006 15:04 MST"),
		CurrentYear:        time.Now().UTC().Year(),
		Language:           reservation.Language,
		Status:             status,
	}

	var emailSubject, plainTextBody string
	switch reservation.Language {
	case "it":
		emailSubject = fmt.Sprintf("La tua prenotazione LockerBox è %s - Codice: %s", status, emailData.ReservationCode)
		plainTextBody = fmt.Sprintf(
			"Ciao %s,\n\nLa tua prenotazione presso LockerBox è %s.\n\n"+
				"Dettagli della prenotazione:\n"+
				"Codice prenotazione: %s\n"+
				"Armadietto: %s\n"+
				"Bagagli: %s\n"+
				"Deposito: %s\n"+
				"Ritiro: %s\n\n"+
				"Grazie per aver scelto LockerBox.\n\n"+
				"%d LockerBox. Tutti i diritti riservati.",
			emailData.GuestName, status, emailData.ReservationCode, emailData.LockerCode, emailData.ItemSummary,
			emailData.StartTimeFormatted, emailData.EndTimeFormatted, emailData.CurrentYear,
		)
	default:
		emailSubject = fmt.Sprintf("Your LockerBox reservation is %s - Code: %s", status, emailData.ReservationCode)
		plainTextBody = fmt.Sprintf(
			"Hello %s,\n\nYour reservation at LockerBox is %s.\n\n"+
				"Reservation Details:\n"+
				"Reservation Code: %s\n"+
				"Locker: %s\n"+
				"Luggage: %s\n"+
				"Drop-off: %s\n"+
				"Pick-up: %s\n\n"+
				"Thank you for choosing LockerBox.\n\n"+
				"%d LockerBox. All rights reserved.",
			emailData.GuestName, status, emailData.ReservationCode, emailData.LockerCode, emailData.ItemSummary,
			emailData.StartTimeFormatted, emailData.EndTimeFormatted, emailData.CurrentYear,
		)
	}

	go func(toEmail, guestName, subject, plainBody string) {
		if errEmail := s.sendEmailWithSendGrid(toEmail, guestName, subject, plainBody, ""); errEmail != nil {
			logger.Warn("reservation email failed", "code", emailData.ReservationCode, "error", errEmail)
		}
	}(reservation.GuestEmail, emailData.GuestName, emailSubject, plainTextBody)
}

func (s *SenderService) SendReservationSMS(reservation entities.ReservationResponse, status string) {
	if reservation.GuestPhone == "" {
		return
	}

	var smsMessage string
	switch reservation.Language {
	case "it":
		smsMessage = fmt.Sprintf("LockerBox: La tua prenotazione %s è %s!\nDeposito: %s.\nAltri dettagli nella tua email.",
			reservation.Code, status,
			reservation.StartTime.Format("02/01 15:04"),
		)
	default:
		smsMessage = fmt.Sprintf("LockerBox: Reservation %s is %s!\nDrop-off: %s.\nMore details in your email.",
			reservation.Code, status,
			reservation.StartTime.Format("02/01 15:04"),
		)
	}

	go func(phone, body, code string) {
		if errSMS := s.sendSMS(phone, body); errSMS != nil {
			logger.Warn("reservation SMS failed", "code", code, "error", errSMS)
		}
	}(reservation.GuestPhone, smsMessage, reservation.Code)
}

func itemSummary(reservation entities.ReservationResponse) string {
	if reservation.ItemType != "" {
		return fmt.Sprintf("%d x %s", reservation.ItemCount, reservation.ItemType)
	}
	return fmt.Sprintf("%d item(s)", reservation.ItemCount)
}
