// Package selfservice implements the guest-facing reservation lifecycle:
// a typed client for the reservation API plus the flow state kept on the
// kiosk side (draft, price estimate, contract gate, lifecycle guards).
// It holds no rendering concerns; a UI binds to it.
package selfservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// defaultTimeout bounds every request. A timeout surfaces as a plain
// request failure; there is no retry machinery here.
const defaultTimeout = 15 * time.Second

type EstimateRequest struct {
	TenantID  string    `json:"tenant_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	ItemCount int       `json:"item_count"`
}

type Estimate struct {
	TotalMinorUnits int    `json:"total_minor_units"`
	TotalFormatted  string `json:"total_formatted"`
	DurationHours   int    `json:"duration_hours"`
	ItemCount       int    `json:"item_count"`
	PricingTier     string `json:"pricing_tier,omitempty"`
}

type CreateRequest struct {
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
	Language        string    `json:"language,omitempty"`
}

type CreateResult struct {
	ReservationID string `json:"reservation_id"`
	Code          string `json:"confirmation_code"`
	LockerCode    string `json:"locker_code"`
	PriceTotal    int    `json:"price_total_minor_units,omitempty"`
	CheckoutURL   string `json:"checkout_url,omitempty"`
	Message       string `json:"message"`
}

type Reservation struct {
	ReservationID string     `json:"reservation_id"`
	Code          string     `json:"confirmation_code"`
	TenantID      string     `json:"tenant_id"`
	LockerCode    string     `json:"locker_code"`
	Status        string     `json:"status"`
	GuestName     string     `json:"guest_name"`
	GuestPhone    string     `json:"guest_phone"`
	GuestEmail    string     `json:"guest_email"`
	ItemCount     int        `json:"item_count"`
	ItemType      string     `json:"item_type,omitempty"`
	Notes         string     `json:"notes,omitempty"`
	StartTime     time.Time  `json:"start_time"`
	EndTime       time.Time  `json:"end_time"`
	HandoverAt    *time.Time `json:"handover_at"`
	HandoverBy    *string    `json:"handover_by"`
	ReturnedAt    *time.Time `json:"returned_at"`
	ReturnedBy    *string    `json:"returned_by"`
	PriceTotal    int        `json:"price_total_minor_units"`
}

const (
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// LookupResult is what a code resolves to. Valid false means the code
// matched nothing; that is an answer, not an error.
type LookupResult struct {
	Valid       bool         `json:"valid"`
	Reservation *Reservation `json:"reservation,omitempty"`
}

// OperationRecord is the payload of a handover or return.
type OperationRecord struct {
	By          string    `json:"by"`
	At          time.Time `json:"at"`
	Notes       string    `json:"notes,omitempty"`
	EvidenceURL string    `json:"evidence_url,omitempty"`
}

// API is what the flow needs from the backend. *Client satisfies it.
type API interface {
	EstimatePrice(ctx context.Context, req EstimateRequest) (*Estimate, error)
	CreateReservation(ctx context.Context, req CreateRequest) (*CreateResult, error)
	Lookup(ctx context.Context, code string) (*LookupResult, error)
	RecordHandover(ctx context.Context, code string, rec OperationRecord) (*Reservation, error)
	ConfirmReturn(ctx context.Context, code string, rec OperationRecord) (*Reservation, error)
}

// APIError is a non-2xx response with the backend's message when it sent one.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

type Client struct {
	baseURL string
	httpc   *http.Client
}

type ClientOption func(*Client)

// WithHTTPClient overrides the default client (and with it the timeout).
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) { c.httpc = h }
}

func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) EstimatePrice(ctx context.Context, req EstimateRequest) (*Estimate, error) {
	var out Estimate
	if err := c.do(ctx, http.MethodPost, "/api/price-estimate", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateReservation(ctx context.Context, req CreateRequest) (*CreateResult, error) {
	var out CreateResult
	if err := c.do(ctx, http.MethodPost, "/api/reservations", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Lookup(ctx context.Context, code string) (*LookupResult, error) {
	var out LookupResult
	if err := c.do(ctx, http.MethodGet, "/api/reservations/"+url.PathEscape(code), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RecordHandover(ctx context.Context, code string, rec OperationRecord) (*Reservation, error) {
	var out Reservation
	if err := c.do(ctx, http.MethodPost, "/api/reservations/"+url.PathEscape(code)+"/handover", rec, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ConfirmReturn(ctx context.Context, code string, rec OperationRecord) (*Reservation, error) {
	var out Reservation
	if err := c.do(ctx, http.MethodPost, "/api/reservations/"+url.PathEscape(code)+"/return", rec, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("could not encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var payload errorPayload
		msg := fmt.Sprintf("request failed with status %d", resp.StatusCode)
		if decodeErr := json.NewDecoder(resp.Body).Decode(&payload); decodeErr == nil && payload.Error != "" {
			msg = payload.Error
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("could not decode response: %w", err)
	}
	return nil
}

type errorPayload struct {
	Error string `json:"error"`
}
