package entities

import "time"

type EstimateRequest struct {
	TenantID  string    `json:"tenant_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	ItemCount int       `json:"item_count"`
}

type EstimateResponse struct {
	TotalMinorUnits int    `json:"total_minor_units"`
	TotalFormatted  string `json:"total_formatted"`
	DurationHours   int    `json:"duration_hours"`
	ItemCount       int    `json:"item_count"`
	PricingTier     string `json:"pricing_tier,omitempty"`
}
