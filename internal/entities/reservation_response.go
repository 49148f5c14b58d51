package entities

import "time"

type ReservationResponse struct {
	ReservationID   string     `json:"reservation_id"`
	Code            string     `json:"confirmation_code"`
	TenantID        string     `json:"tenant_id"`
	LockerCode      string     `json:"locker_code"`
	Status          string     `json:"status"`
	GuestName       string     `json:"guest_name"`
	GuestPhone      string     `json:"guest_phone"`
	GuestEmail      string     `json:"guest_email"`
	ItemCount       int        `json:"item_count"`
	ItemType        string     `json:"item_type,omitempty"`
	ItemWeightKg    float64    `json:"item_weight_kg,omitempty"`
	Notes           string     `json:"notes,omitempty"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         time.Time  `json:"end_time"`
	HandoverAt      *time.Time `json:"handover_at"`
	HandoverBy      *string    `json:"handover_by"`
	ReturnedAt      *time.Time `json:"returned_at"`
	ReturnedBy      *string    `json:"returned_by"`
	PriceTotal      int        `json:"price_total_minor_units"`
	PaymentStatus   string     `json:"payment_status,omitempty"`
	Language        string     `json:"language,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// LookupResponse wraps a lookup result. Valid false means "no such
// reservation" and is a normal response, not an error.
type LookupResponse struct {
	Valid       bool                 `json:"valid"`
	Reservation *ReservationResponse `json:"reservation,omitempty"`
}

type CreateReservationResponse struct {
	ReservationID string `json:"reservation_id"`
	Code          string `json:"confirmation_code"`
	LockerCode    string `json:"locker_code"`
	PriceTotal    int    `json:"price_total_minor_units,omitempty"`
	CheckoutURL   string `json:"checkout_url,omitempty"`
	Message       string `json:"message"`
}
