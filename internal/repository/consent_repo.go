package repository

import (
	"database/sql"
	"fmt"
	"time"
)

type ConsentRepository struct {
	DB *sql.DB
}

func NewConsentRepository(database *sql.DB) *ConsentRepository {
	return &ConsentRepository{DB: database}
}

// RecordAcceptance keeps an audit row per accepted contract for a reservation.
func (r *ConsentRepository) RecordAcceptance(code, contractID, acceptedBy string, at time.Time) error {
	query := `INSERT INTO consent_logs (reservation_code, contract_id, accepted_by, accepted_at) VALUES ($1, $2, $3, $4)`
	_, err := r.DB.Exec(query, code, contractID, acceptedBy, at)
	if err != nil {
		return fmt.Errorf("error recording consent for %s/%s: %w", code, contractID, err)
	}
	return nil
}
