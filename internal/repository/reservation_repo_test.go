package repository

import (
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lockerbox/internal/db"
)

func fullReservationRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "code", "tenant_id", "locker_code", "guest_name", "guest_phone", "guest_email",
		"item_count", "item_type", "item_weight_kg", "notes", "status", "start_time", "end_time",
		"handover_at", "handover_by", "handover_notes", "handover_evidence_url",
		"returned_at", "returned_by", "return_notes", "return_evidence_url",
		"price_total", "payment_status", "stripe_session_id", "language", "created_at", "updated_at",
	})
}

func addActiveRow(rows *sqlmock.Rows) *sqlmock.Rows {
	now := time.Now().UTC()
	return rows.AddRow(
		"res-1", "A1B2C3D4", "demo-hotel", "LK-01", "Ada Guest", "+390000000", "ada@example.com",
		2, "suitcase", 12.5, "", db.StatusActive, now, now.Add(24*time.Hour),
		nil, nil, nil, nil,
		nil, nil, nil, nil,
		1200, db.PaymentOnsite, "", "en", now, now,
	)
}

func TestReservationRepository_CreateReservation(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	repo := NewReservationRepository(mockDB)
	now := time.Now().UTC()

	res := &db.Reservation{
		ID:            "res-1",
		Code:          "A1B2C3D4",
		TenantID:      "demo-hotel",
		LockerCode:    "LK-01",
		GuestName:     "Ada Guest",
		GuestPhone:    "+390000000",
		GuestEmail:    "ada@example.com",
		ItemCount:     2,
		ItemType:      "suitcase",
		ItemWeightKg:  12.5,
		Status:        db.StatusActive,
		StartTime:     now,
		EndTime:       now.Add(24 * time.Hour),
		PriceTotal:    1200,
		PaymentStatus: db.PaymentOnsite,
		Language:      "en",
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	mock.ExpectQuery("INSERT INTO reservations").
		WithArgs(res.ID, res.Code, res.TenantID, res.LockerCode, res.GuestName, res.GuestPhone, res.GuestEmail,
			res.ItemCount, res.ItemType, res.ItemWeightKg, res.Notes, res.Status, res.StartTime, res.EndTime,
			res.PriceTotal, res.PaymentStatus, res.StripeSessionID, res.Language, res.CreatedAt, res.UpdatedAt).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	require.NoError(t, repo.CreateReservation(res))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepository_CountOverlappingActive(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	repo := NewReservationRepository(mockDB)
	start := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	mock.ExpectQuery("SELECT COUNT").
		WithArgs("demo-hotel", "LK-01", start, end).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	count, err := repo.CountOverlappingActive("demo-hotel", "LK-01", start, end)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepository_GetReservationByCode(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	repo := NewReservationRepository(mockDB)

	t.Run("Found", func(t *testing.T) {
		mock.ExpectQuery("FROM reservations WHERE code").
			WithArgs("A1B2C3D4").
			WillReturnRows(addActiveRow(fullReservationRows()))

		res, err := repo.GetReservationByCode("A1B2C3D4")
		require.NoError(t, err)
		require.NotNil(t, res)
		assert.Equal(t, "LK-01", res.LockerCode)
		assert.False(t, res.HandoverAt.Valid)
	})

	t.Run("NotFoundIsNilNil", func(t *testing.T) {
		mock.ExpectQuery("FROM reservations WHERE code").
			WithArgs("DOES-NOT-EXIST").
			WillReturnRows(fullReservationRows())

		res, err := repo.GetReservationByCode("DOES-NOT-EXIST")
		require.NoError(t, err, "an unknown code is not an error at this layer")
		assert.Nil(t, res)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepository_MarkHandedOver(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	repo := NewReservationRepository(mockDB)
	at := time.Now().UTC()

	t.Run("Success", func(t *testing.T) {
		rows := fullReservationRows()
		now := time.Now().UTC()
		rows.AddRow(
			"res-1", "A1B2C3D4", "demo-hotel", "LK-01", "Ada Guest", "+390000000", "ada@example.com",
			2, "suitcase", 12.5, "", db.StatusActive, now, now.Add(24*time.Hour),
			at, "self-service", "two suitcases", nil,
			nil, nil, nil, nil,
			1200, db.PaymentOnsite, "", "en", now, now,
		)
		mock.ExpectQuery("UPDATE reservations").
			WithArgs("A1B2C3D4", at, "self-service", "two suitcases", "").
			WillReturnRows(rows)

		res, err := repo.MarkHandedOver("A1B2C3D4", "self-service", "two suitcases", "", at)
		require.NoError(t, err)
		require.NotNil(t, res)
		assert.True(t, res.HandoverAt.Valid)
		assert.Equal(t, "self-service", res.HandoverBy.String)
	})

	t.Run("PreconditionGoneReturnsNil", func(t *testing.T) {
		mock.ExpectQuery("UPDATE reservations").
			WithArgs("A1B2C3D4", at, "self-service", "", "").
			WillReturnError(sql.ErrNoRows)

		res, err := repo.MarkHandedOver("A1B2C3D4", "self-service", "", "", at)
		require.NoError(t, err)
		assert.Nil(t, res, "zero rows means the guard predicate no longer held")
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepository_ListReservations(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	repo := NewReservationRepository(mockDB)

	mock.ExpectQuery("SELECT COUNT").
		WithArgs("demo-hotel", db.StatusActive).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("FROM reservations WHERE tenant_id").
		WithArgs("demo-hotel", db.StatusActive, 50, 0).
		WillReturnRows(addActiveRow(fullReservationRows()))

	out, total, err := repo.ListReservations(ListFilter{
		TenantID: "demo-hotel",
		Status:   db.StatusActive,
		Limit:    50,
		Offset:   0,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, out, 1)
	assert.Equal(t, "A1B2C3D4", out[0].Code)
	require.NoError(t, mock.ExpectationsWereMet())
}
