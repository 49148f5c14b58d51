package api

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lockerbox/internal/db"
	"lockerbox/internal/entities"
	"lockerbox/internal/repository"
	"lockerbox/internal/service"
)

// newTestRouter wires the guest routes against a mocked database, with
// notifications and online payment switched off.
func newTestRouter(t *testing.T) (*mux.Router, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	pricing := service.NewPricingService(repository.NewPricingRepository(mockDB), "EUR")
	reservations := service.NewReservationService(
		repository.NewReservationRepository(mockDB),
		repository.NewConsentRepository(mockDB),
		pricing,
		nil,
		nil,
	)
	h := NewSelfServiceHandler(reservations, pricing)

	r := mux.NewRouter()
	r.HandleFunc("/api/price-estimate", h.EstimatePrice).Methods(http.MethodPost)
	r.HandleFunc("/api/reservations", h.CreateReservation).Methods(http.MethodPost)
	r.HandleFunc("/api/reservations/{code}", h.LookupReservation).Methods(http.MethodGet)
	r.HandleFunc("/api/reservations/{code}", h.CancelReservation).Methods(http.MethodDelete)
	r.HandleFunc("/api/reservations/{code}/handover", h.RecordHandover).Methods(http.MethodPost)
	r.HandleFunc("/api/reservations/{code}/return", h.ConfirmReturn).Methods(http.MethodPost)
	return r, mock
}

func doJSON(t *testing.T, r *mux.Router, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestEstimatePriceEndpoint(t *testing.T) {
	r, mock := newTestRouter(t)
	start := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT price FROM tier_prices").
		WithArgs("demo-hotel", "day").
		WillReturnRows(sqlmock.NewRows([]string{"price"}).AddRow(600))

	rec := doJSON(t, r, http.MethodPost, "/api/price-estimate", entities.EstimateRequest{
		TenantID:  "demo-hotel",
		StartTime: start,
		EndTime:   start.Add(48 * time.Hour),
		ItemCount: 2,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var got entities.EstimateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 2400, got.TotalMinorUnits)
	assert.Equal(t, "€24.00", got.TotalFormatted)
	assert.Equal(t, "day", got.PricingTier)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateReservationEndpoint(t *testing.T) {
	r, mock := newTestRouter(t)
	start := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	now := time.Now().UTC()

	req := entities.ReservationRequest{
		TenantID:        "demo-hotel",
		LockerCode:      "LK-01",
		StartTime:       start,
		EndTime:         start.Add(48 * time.Hour),
		GuestName:       "Ada Guest",
		GuestEmail:      "ada@example.com",
		ItemCount:       2,
		ItemType:        "suitcase",
		PrivacyAccepted: true,
		TermsAccepted:   true,
	}

	t.Run("RejectedWithoutTerms", func(t *testing.T) {
		bad := req
		bad.TermsAccepted = false
		rec := doJSON(t, r, http.MethodPost, "/api/reservations", bad)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "terms of service must be accepted")
	})

	t.Run("Created", func(t *testing.T) {
		mock.ExpectQuery("SELECT COUNT").
			WithArgs("demo-hotel", "LK-01", req.StartTime, req.EndTime).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectQuery("SELECT price FROM tier_prices").
			WithArgs("demo-hotel", "day").
			WillReturnRows(sqlmock.NewRows([]string{"price"}).AddRow(600))
		mock.ExpectQuery("INSERT INTO reservations").
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
		mock.ExpectExec("INSERT INTO consent_logs").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec("INSERT INTO consent_logs").
			WillReturnResult(sqlmock.NewResult(1, 1))

		rec := doJSON(t, r, http.MethodPost, "/api/reservations", req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var got entities.CreateReservationResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.NotEmpty(t, got.ReservationID)
		assert.Len(t, got.Code, 8)
		assert.Equal(t, "LK-01", got.LockerCode)
		assert.Equal(t, 2400, got.PriceTotal)
		assert.Empty(t, got.CheckoutURL)
	})

	t.Run("SameLockerTwiceIsRejected", func(t *testing.T) {
		mock.ExpectQuery("SELECT COUNT").
			WithArgs("demo-hotel", "LK-01", req.StartTime, req.EndTime).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		rec := doJSON(t, r, http.MethodPost, "/api/reservations", req)
		require.Equal(t, http.StatusConflict, rec.Code)
		assert.Contains(t, rec.Body.String(), "locker LK-01 is not available")
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLookupEndpointUnknownCode(t *testing.T) {
	r, mock := newTestRouter(t)

	mock.ExpectQuery("FROM reservations WHERE code").
		WithArgs("NOPE1234").
		WillReturnError(sql.ErrNoRows)

	rec := doJSON(t, r, http.MethodGet, "/api/reservations/NOPE1234", nil)
	require.Equal(t, http.StatusOK, rec.Code, "an unknown code is an answer, not an error")

	var got entities.LookupResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.False(t, got.Valid)
	assert.Nil(t, got.Reservation)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHandoverEndpointRejectsDuplicate(t *testing.T) {
	r, mock := newTestRouter(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows([]string{
		"id", "code", "tenant_id", "locker_code", "guest_name", "guest_phone", "guest_email",
		"item_count", "item_type", "item_weight_kg", "notes", "status", "start_time", "end_time",
		"handover_at", "handover_by", "handover_notes", "handover_evidence_url",
		"returned_at", "returned_by", "return_notes", "return_evidence_url",
		"price_total", "payment_status", "stripe_session_id", "language", "created_at", "updated_at",
	}).AddRow(
		"res-1", "A1B2C3D4", "demo-hotel", "LK-01", "Ada Guest", "", "ada@example.com",
		2, "suitcase", 0.0, "", db.StatusActive, now, now.Add(24*time.Hour),
		now, "self-service", "", "",
		nil, nil, nil, nil,
		1200, db.PaymentOnsite, "", "en", now, now,
	)
	mock.ExpectQuery("FROM reservations WHERE code").
		WithArgs("A1B2C3D4").
		WillReturnRows(rows)

	rec := doJSON(t, r, http.MethodPost, "/api/reservations/A1B2C3D4/handover", entities.OperationRequest{})
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "handover already recorded")
	require.NoError(t, mock.ExpectationsWereMet())
}
