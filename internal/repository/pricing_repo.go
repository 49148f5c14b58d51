package repository

import (
	"database/sql"
	"errors"
	"fmt"
)

type PricingRepository struct {
	DB *sql.DB
}

func NewPricingRepository(database *sql.DB) *PricingRepository {
	return &PricingRepository{DB: database}
}

// GetPriceForTier returns the per-item unit price in minor units for one
// billing tier of a tenant.
func (r *PricingRepository) GetPriceForTier(tenantID, tier string) (int, error) {
	var price int
	err := r.DB.QueryRow(
		`SELECT price FROM tier_prices WHERE tenant_id = $1 AND tier = $2`,
		tenantID, tier,
	).Scan(&price)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("no price configured for tenant %s tier %s", tenantID, tier)
		}
		return 0, err
	}
	return price, nil
}

type TierPriceRow struct {
	Tier  string `json:"tier"`
	Price int    `json:"price_minor_units"`
}

func (r *PricingRepository) ListTierPrices(tenantID string) ([]TierPriceRow, error) {
	rows, err := r.DB.Query(`SELECT tier, price FROM tier_prices WHERE tenant_id = $1 ORDER BY price`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var prices []TierPriceRow
	for rows.Next() {
		var p TierPriceRow
		if err := rows.Scan(&p.Tier, &p.Price); err != nil {
			return nil, err
		}
		prices = append(prices, p)
	}
	return prices, rows.Err()
}
