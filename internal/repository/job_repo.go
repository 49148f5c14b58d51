package repository

import (
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"lockerbox/internal/logger"
)

type JobRepository struct {
	DB *sql.DB
}

func NewJobRepository(database *sql.DB) *JobRepository {
	return &JobRepository{DB: database}
}

// GetUnclaimedReservationIDsPastEndTime finds active reservations whose stay
// ended without the luggage ever being handed over.
func (r *JobRepository) GetUnclaimedReservationIDsPastEndTime() ([]string, error) {
	query := `SELECT id FROM reservations WHERE status = 'active' AND handover_at IS NULL AND end_time < NOW()`
	rows, err := r.DB.Query(query)
	if err != nil {
		return nil, fmt.Errorf("error querying unclaimed reservations: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning reservation ID: %w", err)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating rows: %w", err)
	}
	return ids, nil
}

// GetReturnedButActiveReservationIDs finds reservations whose return was
// recorded while the status flip to completed did not land.
func (r *JobRepository) GetReturnedButActiveReservationIDs() ([]string, error) {
	query := `SELECT id FROM reservations WHERE status = 'active' AND returned_at IS NOT NULL`
	rows, err := r.DB.Query(query)
	if err != nil {
		return nil, fmt.Errorf("error querying returned-but-active reservations: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning reservation ID: %w", err)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating rows: %w", err)
	}
	return ids, nil
}

// UpdateReservationStatuses sets the status of a batch of reservations.
func (r *JobRepository) UpdateReservationStatuses(ids []string, newStatus string) error {
	if len(ids) == 0 {
		return nil
	}
	query := `UPDATE reservations SET status = $1, updated_at = NOW() WHERE id = ANY($2)`
	result, err := r.DB.Exec(query, newStatus, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("error updating reservation statuses: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		logger.Warn("could not get rows affected", "error", err)
	} else {
		logger.Info("updated reservation statuses", "count", rowsAffected, "status", newStatus)
	}
	return nil
}
