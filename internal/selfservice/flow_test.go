package selfservice

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	estimateCalls int
	createCalls   int
	lookupCalls   int
	handoverCalls int
	returnCalls   int

	createErr    error
	lookupResult *LookupResult
}

func (f *fakeAPI) EstimatePrice(ctx context.Context, req EstimateRequest) (*Estimate, error) {
	f.estimateCalls++
	return &Estimate{
		TotalMinorUnits: 1200 * req.ItemCount,
		TotalFormatted:  "€24.00",
		DurationHours:   24,
		ItemCount:       req.ItemCount,
		PricingTier:     "day",
	}, nil
}

func (f *fakeAPI) CreateReservation(ctx context.Context, req CreateRequest) (*CreateResult, error) {
	f.createCalls++
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &CreateResult{
		ReservationID: "res-1",
		Code:          "A1B2C3D4",
		LockerCode:    req.LockerCode,
		PriceTotal:    1200 * req.ItemCount,
		Message:       "Reservation confirmed.",
	}, nil
}

func (f *fakeAPI) Lookup(ctx context.Context, code string) (*LookupResult, error) {
	f.lookupCalls++
	if f.lookupResult != nil {
		return f.lookupResult, nil
	}
	return &LookupResult{Valid: false}, nil
}

func (f *fakeAPI) RecordHandover(ctx context.Context, code string, rec OperationRecord) (*Reservation, error) {
	f.handoverCalls++
	at := rec.At
	by := rec.By
	r := *f.lookupResult.Reservation
	r.HandoverAt = &at
	r.HandoverBy = &by
	return &r, nil
}

func (f *fakeAPI) ConfirmReturn(ctx context.Context, code string, rec OperationRecord) (*Reservation, error) {
	f.returnCalls++
	at := rec.At
	by := rec.By
	r := *f.lookupResult.Reservation
	r.ReturnedAt = &at
	r.ReturnedBy = &by
	r.Status = StatusCompleted
	return &r, nil
}

type recordingNotifier struct {
	messages []string
	levels   []Level
}

func (n *recordingNotifier) Notify(level Level, message string) {
	n.levels = append(n.levels, level)
	n.messages = append(n.messages, message)
}

func (n *recordingNotifier) Confirm(string) bool { return true }

func (n *recordingNotifier) last() string {
	if len(n.messages) == 0 {
		return ""
	}
	return n.messages[len(n.messages)-1]
}

func newTestFlow(api API) (*Flow, *recordingNotifier) {
	notifier := &recordingNotifier{}
	flow := NewFlow(api, notifier, WithEstimatorOptions(WithDebounce(time.Millisecond)))
	return flow, notifier
}

func fillValidDraft(flow *Flow) {
	start := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	flow.EditDraft(func(d *Draft) {
		d.TenantID = "demo-hotel"
		d.LockerCode = "LK-01"
		d.Start = start
		d.End = start.Add(24 * time.Hour)
		d.GuestName = "Ada Guest"
		d.GuestPhone = "+390000000"
		d.GuestEmail = "ada@example.com"
		d.ItemCount = 2
	})
}

func acceptBoth(flow *Flow) {
	flow.Gate().MarkRead(ContractPrivacy)
	_ = flow.Gate().Accept(ContractPrivacy)
	flow.Gate().MarkRead(ContractTerms)
	_ = flow.Gate().Accept(ContractTerms)
}

func waitForEstimate(t *testing.T, flow *Flow) {
	t.Helper()
	require.Eventually(t, func() bool { return flow.Estimator().Estimate() != nil },
		time.Second, time.Millisecond)
}

func TestFlow_SubmitRejectedWithoutContracts(t *testing.T) {
	api := &fakeAPI{}
	flow, notifier := newTestFlow(api)

	fillValidDraft(flow)
	waitForEstimate(t, flow)

	_, err := flow.Submit(context.Background())
	require.Error(t, err)
	assert.Contains(t, notifier.last(), "privacy notice")
	assert.Equal(t, 0, api.createCalls, "validation failures never reach the network")

	// Accepting only one contract is still not enough.
	flow.Gate().MarkRead(ContractPrivacy)
	require.NoError(t, flow.Gate().Accept(ContractPrivacy))
	_, err = flow.Submit(context.Background())
	require.Error(t, err)
	assert.Contains(t, notifier.last(), "terms")
	assert.Equal(t, 0, api.createCalls)
}

func TestFlow_ValidationOrder(t *testing.T) {
	api := &fakeAPI{}
	flow, notifier := newTestFlow(api)

	_, err := flow.Submit(context.Background())
	require.Error(t, err)
	assert.Contains(t, notifier.last(), "storage location")

	flow.EditDraft(func(d *Draft) { d.TenantID = "demo-hotel" })
	_, err = flow.Submit(context.Background())
	require.Error(t, err)
	assert.Contains(t, notifier.last(), "storage unit")

	flow.EditDraft(func(d *Draft) { d.LockerCode = "LK-01" })
	_, err = flow.Submit(context.Background())
	require.Error(t, err)
	assert.Contains(t, notifier.last(), "times are required")

	start := time.Now()
	flow.EditDraft(func(d *Draft) {
		d.Start = start
		d.End = start.Add(-time.Hour)
	})
	_, err = flow.Submit(context.Background())
	require.Error(t, err)
	assert.Contains(t, notifier.last(), "after drop-off")
}

func TestFlow_StrictPricePolicy(t *testing.T) {
	api := &fakeAPI{}
	notifier := &recordingNotifier{}
	// A one-hour debounce keeps the estimate from ever arriving.
	flow := NewFlow(api, notifier, WithEstimatorOptions(WithDebounce(time.Hour)))

	fillValidDraft(flow)
	acceptBoth(flow)

	_, err := flow.Submit(context.Background())
	require.Error(t, err)
	assert.Contains(t, notifier.last(), "price estimate")
	assert.Equal(t, 0, api.createCalls, "no price, no submit")
}

func TestFlow_SuccessfulSubmitResetsDraftAndGate(t *testing.T) {
	api := &fakeAPI{}
	flow, _ := newTestFlow(api)

	fillValidDraft(flow)
	acceptBoth(flow)
	waitForEstimate(t, flow)

	result, err := flow.Submit(context.Background())
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.NotEmpty(t, result.Code)
	assert.Equal(t, "LK-01", result.LockerCode)

	assert.Equal(t, Draft{}, flow.Draft(), "draft returns to its empty defaults")
	assert.Equal(t, ContractUnopened, flow.Gate().State(ContractPrivacy))
	assert.Equal(t, ContractUnopened, flow.Gate().State(ContractTerms))
	assert.Nil(t, flow.Estimator().Estimate())
	assert.Equal(t, result.Code, flow.LookupCode(), "lookup is pre-filled with the new code")
}

func TestFlow_FailedSubmitPreservesDraft(t *testing.T) {
	api := &fakeAPI{createErr: &APIError{StatusCode: 409, Message: "locker LK-01 is not available"}}
	flow, notifier := newTestFlow(api)

	fillValidDraft(flow)
	acceptBoth(flow)
	waitForEstimate(t, flow)

	_, err := flow.Submit(context.Background())
	require.Error(t, err)
	assert.Equal(t, "locker LK-01 is not available", notifier.last(), "backend message is surfaced")
	assert.Equal(t, "demo-hotel", flow.Draft().TenantID, "draft is kept for a retry")
	assert.True(t, flow.Gate().BothAccepted())
}

func TestFlow_LookupNotFoundShowsNoActions(t *testing.T) {
	api := &fakeAPI{}
	flow, notifier := newTestFlow(api)

	flow.SetLookupCode("DOES-NOT-EXIST")
	result, err := flow.Lookup(context.Background())
	require.NoError(t, err, "valid:false is an answer, not an error")
	assert.False(t, result.Valid)
	assert.Contains(t, notifier.last(), "No reservation found")
	assert.Equal(t, Actions{}, flow.Actions())
}

func activeReservation() *Reservation {
	start := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	return &Reservation{
		ReservationID: "res-1",
		Code:          "A1B2C3D4",
		TenantID:      "demo-hotel",
		LockerCode:    "LK-01",
		Status:        StatusActive,
		ItemCount:     2,
		StartTime:     start,
		EndTime:       start.Add(24 * time.Hour),
	}
}

func TestFlow_ActionRendering(t *testing.T) {
	now := time.Now().UTC()
	operator := "self-service"

	cases := []struct {
		name        string
		mutate      func(*Reservation)
		canHandover bool
		canReturn   bool
	}{
		{"active untouched", func(r *Reservation) {}, true, false},
		{"handed over", func(r *Reservation) {
			r.HandoverAt = &now
			r.HandoverBy = &operator
		}, false, true},
		{"handed over and returned, still active", func(r *Reservation) {
			r.HandoverAt = &now
			r.ReturnedAt = &now
		}, false, false},
		{"completed", func(r *Reservation) { r.Status = StatusCompleted }, false, false},
		{"cancelled", func(r *Reservation) { r.Status = StatusCancelled }, false, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := activeReservation()
			tc.mutate(r)
			api := &fakeAPI{lookupResult: &LookupResult{Valid: true, Reservation: r}}
			flow, _ := newTestFlow(api)
			flow.SetLookupCode(r.Code)
			_, err := flow.Lookup(context.Background())
			require.NoError(t, err)

			actions := flow.Actions()
			assert.Equal(t, tc.canHandover, actions.CanHandover)
			assert.Equal(t, tc.canReturn, actions.CanReturn)
		})
	}
}

func TestFlow_HandoverThenReturn(t *testing.T) {
	api := &fakeAPI{lookupResult: &LookupResult{Valid: true, Reservation: activeReservation()}}
	flow, _ := newTestFlow(api)
	flow.SetLookupCode("A1B2C3D4")
	_, err := flow.Lookup(context.Background())
	require.NoError(t, err)

	updated, err := flow.RecordHandover(context.Background(), OperationRecord{Notes: "two suitcases"})
	require.NoError(t, err)
	require.NotNil(t, updated.HandoverAt)
	assert.Equal(t, "self-service", *updated.HandoverBy, "operator identity defaults for handover")

	// The displayed reservation is replaced by the server response.
	api.lookupResult = &LookupResult{Valid: true, Reservation: updated}
	returned, err := flow.ConfirmReturn(context.Background(), OperationRecord{})
	require.NoError(t, err)
	require.NotNil(t, returned.ReturnedAt)
	assert.Equal(t, "guest", *returned.ReturnedBy, "operator identity defaults for return")
	assert.Equal(t, StatusCompleted, returned.Status)
}

func TestFlow_SecondHandoverBlockedClientSide(t *testing.T) {
	api := &fakeAPI{lookupResult: &LookupResult{Valid: true, Reservation: activeReservation()}}
	flow, notifier := newTestFlow(api)
	flow.SetLookupCode("A1B2C3D4")
	_, err := flow.Lookup(context.Background())
	require.NoError(t, err)

	_, err = flow.RecordHandover(context.Background(), OperationRecord{})
	require.NoError(t, err)
	require.Equal(t, 1, api.handoverCalls)

	_, err = flow.RecordHandover(context.Background(), OperationRecord{})
	require.ErrorIs(t, err, ErrAlreadyHandedOver)
	assert.Equal(t, "handover already recorded", notifier.last())
	assert.Equal(t, 1, api.handoverCalls, "the guard stops the second network call")
}

func TestFlow_ReturnRequiresHandoverFirst(t *testing.T) {
	api := &fakeAPI{lookupResult: &LookupResult{Valid: true, Reservation: activeReservation()}}
	flow, notifier := newTestFlow(api)
	flow.SetLookupCode("A1B2C3D4")
	_, err := flow.Lookup(context.Background())
	require.NoError(t, err)

	_, err = flow.ConfirmReturn(context.Background(), OperationRecord{})
	require.ErrorIs(t, err, ErrNotHandedOver)
	assert.Equal(t, "must hand over first", notifier.last())
	assert.Equal(t, 0, api.returnCalls)
}

func TestFlow_OperationsNeedALoadedReservation(t *testing.T) {
	api := &fakeAPI{}
	flow, _ := newTestFlow(api)

	_, err := flow.RecordHandover(context.Background(), OperationRecord{})
	assert.ErrorIs(t, err, ErrNoReservation)

	_, err = flow.ConfirmReturn(context.Background(), OperationRecord{})
	assert.ErrorIs(t, err, ErrNoReservation)
	assert.Equal(t, 0, api.handoverCalls)
	assert.Equal(t, 0, api.returnCalls)
}
