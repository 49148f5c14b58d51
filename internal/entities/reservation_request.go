package entities

import "time"

type ReservationRequest struct {
	TenantID        string    `json:"tenant_id"`
	LockerCode      string    `json:"locker_code"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	GuestName       string    `json:"guest_name"`
	GuestPhone      string    `json:"guest_phone"`
	GuestEmail      string    `json:"guest_email"`
	ItemCount       int       `json:"item_count"`
	ItemType        string    `json:"item_type,omitempty"`
	ItemWeightKg    float64   `json:"item_weight_kg,omitempty"`
	Notes           string    `json:"notes,omitempty"`
	PrivacyAccepted bool      `json:"privacy_accepted"`
	TermsAccepted   bool      `json:"terms_accepted"`
	PaymentMethod   string    `json:"payment_method,omitempty"` // onsite (default) or online
	Language        string    `json:"language,omitempty"`
}

// OperationRequest carries a handover or return record.
type OperationRequest struct {
	By          string    `json:"by"`
	At          time.Time `json:"at"`
	Notes       string    `json:"notes,omitempty"`
	EvidenceURL string    `json:"evidence_url,omitempty"`
}
