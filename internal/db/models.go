package db

import (
	"database/sql"
	"time"
)

const (
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

const (
	PaymentOnsite   = "onsite"
	PaymentPending  = "pending"
	PaymentPaid     = "paid"
	PaymentRefunded = "refunded"
)

type Reservation struct {
	ID              string
	Code            string
	TenantID        string
	LockerCode      string
	GuestName       string
	GuestPhone      string
	GuestEmail      string
	ItemCount       int
	ItemType        string
	ItemWeightKg    float64
	Notes           string
	Status          string
	StartTime       time.Time
	EndTime         time.Time
	HandoverAt      sql.NullTime
	HandoverBy      sql.NullString
	HandoverNotes   sql.NullString
	HandoverEvidURL sql.NullString
	ReturnedAt      sql.NullTime
	ReturnedBy      sql.NullString
	ReturnNotes     sql.NullString
	ReturnEvidURL   sql.NullString
	PriceTotal      int
	PaymentStatus   string
	StripeSessionID string
	Language        string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type TierPrice struct {
	ID       int
	TenantID string
	Tier     string
	Price    int
}

type ConsentLog struct {
	ID         int
	Code       string
	ContractID string
	AcceptedAt time.Time
	AcceptedBy string
}
