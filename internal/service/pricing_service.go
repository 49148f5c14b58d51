package service

import (
	"fmt"
	"math"
	"time"

	"lockerbox/internal/entities"
	"lockerbox/internal/repository"
	"lockerbox/internal/utils"
)

const (
	TierHour  = "hour"
	TierDay   = "day"
	TierWeek  = "week"
	TierMonth = "month"
)

type PricingService struct {
	Repo     *repository.PricingRepository
	Currency string
}

func NewPricingService(repo *repository.PricingRepository, currency string) *PricingService {
	return &PricingService{Repo: repo, Currency: currency}
}

// Estimate quotes a stay. The total is per-item unit price for the best
// billing tier times billed units times item count, in minor units.
func (s *PricingService) Estimate(req entities.EstimateRequest) (*entities.EstimateResponse, error) {
	if req.TenantID == "" {
		return nil, fmt.Errorf("tenant_id is required")
	}
	if !req.EndTime.After(req.StartTime) {
		return nil, fmt.Errorf("end_time must be after start_time")
	}
	if req.ItemCount <= 0 {
		return nil, fmt.Errorf("item_count must be positive")
	}

	tier, units := bestTierAndUnits(req.StartTime, req.EndTime)
	unitPrice, err := s.Repo.GetPriceForTier(req.TenantID, tier)
	if err != nil {
		return nil, fmt.Errorf("could not get price per %s: %w", tier, err)
	}

	total := unitPrice * units * req.ItemCount
	return &entities.EstimateResponse{
		TotalMinorUnits: total,
		TotalFormatted:  utils.FormatMinorUnits(total, s.Currency),
		DurationHours:   int(math.Ceil(req.EndTime.Sub(req.StartTime).Hours())),
		ItemCount:       req.ItemCount,
		PricingTier:     tier,
	}, nil
}

func (s *PricingService) ListTierPrices(tenantID string) ([]repository.TierPriceRow, error) {
	return s.Repo.ListTierPrices(tenantID)
}

// bestTierAndUnits picks the billing unit for a stay and how many of it to
// charge, rounding partial units up.
func bestTierAndUnits(startTime, endTime time.Time) (tier string, units int) {
	d := endTime.Sub(startTime)
	switch {
	case d.Hours() < 24:
		units = int(d.Hours())
		if d.Minutes() > float64(units*60) {
			units++
		}
		if units == 0 {
			units = 1
		}
		return TierHour, units
	case d.Hours() < 24*7:
		units = int(d.Hours() / 24)
		if d.Hours() > float64(units*24) {
			units++
		}
		return TierDay, units
	case d.Hours() < 24*30:
		units = int(d.Hours() / (24 * 7))
		if d.Hours() > float64(units*24*7) {
			units++
		}
		return TierWeek, units
	default:
		units = int(d.Hours() / (24 * 30))
		if d.Hours() > float64(units*24*30) {
			units++
		}
		return TierMonth, units
	}
}
