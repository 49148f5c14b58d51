package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"lockerbox/internal/db"
)

type ReservationRepository struct {
	DB *sql.DB
}

func NewReservationRepository(database *sql.DB) *ReservationRepository {
	return &ReservationRepository{DB: database}
}

const reservationColumns = `id, code, tenant_id, locker_code, guest_name, guest_phone, guest_email,
	item_count, item_type, item_weight_kg, notes, status, start_time, end_time,
	handover_at, handover_by, handover_notes, handover_evidence_url,
	returned_at, returned_by, return_notes, return_evidence_url,
	price_total, payment_status, stripe_session_id, language, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(row rowScanner) (*db.Reservation, error) {
	var res db.Reservation
	err := row.Scan(
		&res.ID, &res.Code, &res.TenantID, &res.LockerCode, &res.GuestName, &res.GuestPhone, &res.GuestEmail,
		&res.ItemCount, &res.ItemType, &res.ItemWeightKg, &res.Notes, &res.Status, &res.StartTime, &res.EndTime,
		&res.HandoverAt, &res.HandoverBy, &res.HandoverNotes, &res.HandoverEvidURL,
		&res.ReturnedAt, &res.ReturnedBy, &res.ReturnNotes, &res.ReturnEvidURL,
		&res.PriceTotal, &res.PaymentStatus, &res.StripeSessionID, &res.Language, &res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *ReservationRepository) CreateReservation(res *db.Reservation) error {
	query := `
		INSERT INTO reservations
		(id, code, tenant_id, locker_code, guest_name, guest_phone, guest_email,
		 item_count, item_type, item_weight_kg, notes, status, start_time, end_time,
		 price_total, payment_status, stripe_session_id, language, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		RETURNING created_at, updated_at`
	return r.DB.QueryRow(query,
		res.ID,
		res.Code,
		res.TenantID,
		res.LockerCode,
		res.GuestName,
		res.GuestPhone,
		res.GuestEmail,
		res.ItemCount,
		res.ItemType,
		res.ItemWeightKg,
		res.Notes,
		res.Status,
		res.StartTime,
		res.EndTime,
		res.PriceTotal,
		res.PaymentStatus,
		res.StripeSessionID,
		res.Language,
		res.CreatedAt,
		res.UpdatedAt,
	).Scan(&res.CreatedAt, &res.UpdatedAt)
}

// CountOverlappingActive counts active reservations holding the locker for
// any part of [start, end). A zero count means the locker is free to book.
func (r *ReservationRepository) CountOverlappingActive(tenantID, lockerCode string, start, end time.Time) (int, error) {
	query := `
		SELECT COUNT(*) FROM reservations
		WHERE tenant_id = $1 AND locker_code = $2 AND status = 'active'
		AND start_time < $4 AND end_time > $3`
	var count int
	if err := r.DB.QueryRow(query, tenantID, lockerCode, start, end).Scan(&count); err != nil {
		return 0, fmt.Errorf("error counting overlapping reservations: %w", err)
	}
	return count, nil
}

// GetReservationByCode returns (nil, nil) when no reservation carries the code.
func (r *ReservationRepository) GetReservationByCode(code string) (*db.Reservation, error) {
	query := fmt.Sprintf(`SELECT %s FROM reservations WHERE code = $1`, reservationColumns)
	res, err := scanReservation(r.DB.QueryRow(query, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error querying reservation: %w", err)
	}
	return res, nil
}

func (r *ReservationRepository) GetReservationByStripeSessionID(sessionID string) (*db.Reservation, error) {
	query := fmt.Sprintf(`SELECT %s FROM reservations WHERE stripe_session_id = $1`, reservationColumns)
	res, err := scanReservation(r.DB.QueryRow(query, sessionID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("reservation for session '%s' not found: %w", sessionID, err)
		}
		return nil, fmt.Errorf("error querying reservation: %w", err)
	}
	return res, nil
}

// MarkHandedOver records the handover. The status and handover_at predicates
// keep a concurrent duplicate from overwriting the first record; zero rows
// means the precondition no longer holds.
func (r *ReservationRepository) MarkHandedOver(code, by, notes, evidenceURL string, at time.Time) (*db.Reservation, error) {
	query := fmt.Sprintf(`
		UPDATE reservations
		SET handover_at = $2, handover_by = $3, handover_notes = $4, handover_evidence_url = $5, updated_at = NOW()
		WHERE code = $1 AND status = 'active' AND handover_at IS NULL
		RETURNING %s`, reservationColumns)
	res, err := scanReservation(r.DB.QueryRow(query, code, at, by, notes, evidenceURL))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error recording handover: %w", err)
	}
	return res, nil
}

// MarkReturned records the return and closes the reservation.
func (r *ReservationRepository) MarkReturned(code, by, notes, evidenceURL string, at time.Time) (*db.Reservation, error) {
	query := fmt.Sprintf(`
		UPDATE reservations
		SET returned_at = $2, returned_by = $3, return_notes = $4, return_evidence_url = $5,
		    status = 'completed', updated_at = NOW()
		WHERE code = $1 AND handover_at IS NOT NULL AND returned_at IS NULL
		RETURNING %s`, reservationColumns)
	res, err := scanReservation(r.DB.QueryRow(query, code, at, by, notes, evidenceURL))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error recording return: %w", err)
	}
	return res, nil
}

func (r *ReservationRepository) CancelReservation(code string) (string, error) {
	query := `UPDATE reservations SET status = 'cancelled', updated_at = NOW() WHERE code = $1 RETURNING status`
	var status string
	err := r.DB.QueryRow(query, code).Scan(&status)
	if err != nil {
		return "", fmt.Errorf("error cancelling reservation: %w", err)
	}
	return status, nil
}

func (r *ReservationRepository) UpdatePaymentStatus(id, paymentStatus string) error {
	query := `UPDATE reservations SET payment_status = $2, updated_at = NOW() WHERE id = $1`
	_, err := r.DB.Exec(query, id, paymentStatus)
	return err
}

// ListFilter narrows the partner dashboard listing.
type ListFilter struct {
	TenantID   string
	Status     string
	LockerCode string
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}

func (r *ReservationRepository) ListReservations(f ListFilter) ([]*db.Reservation, int64, error) {
	where := "WHERE tenant_id = $1"
	args := []any{f.TenantID}
	if f.Status != "" {
		args = append(args, f.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if f.LockerCode != "" {
		args = append(args, f.LockerCode)
		where += fmt.Sprintf(" AND locker_code = $%d", len(args))
	}
	if f.From != nil {
		args = append(args, *f.From)
		where += fmt.Sprintf(" AND end_time >= $%d", len(args))
	}
	if f.To != nil {
		args = append(args, *f.To)
		where += fmt.Sprintf(" AND start_time <= $%d", len(args))
	}

	var total int64
	countQuery := "SELECT COUNT(*) FROM reservations " + where
	if err := r.DB.QueryRow(countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error counting reservations: %w", err)
	}

	args = append(args, f.Limit)
	limitPos := len(args)
	args = append(args, f.Offset)
	offsetPos := len(args)
	query := fmt.Sprintf(`SELECT %s FROM reservations %s ORDER BY start_time DESC LIMIT $%d OFFSET $%d`,
		reservationColumns, where, limitPos, offsetPos)

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("error listing reservations: %w", err)
	}
	defer rows.Close()

	var out []*db.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("error scanning reservation row: %w", err)
		}
		out = append(out, res)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error after iterating reservation rows: %w", err)
	}
	return out, total, nil
}
