package selfservice

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Guard violations are caught before any network call.
var (
	ErrNoReservation     = errors.New("no reservation loaded")
	ErrAlreadyHandedOver = errors.New("handover already recorded")
	ErrNotHandedOver     = errors.New("must hand over first")
	ErrAlreadyReturned   = errors.New("return already recorded")
	ErrReservationClosed = errors.New("reservation is no longer active")
)

// Draft holds the reservation form until submission. It is discarded on
// success and kept on failure so the guest can retry.
type Draft struct {
	TenantID     string
	LockerCode   string
	Start        time.Time
	End          time.Time
	GuestName    string
	GuestPhone   string
	GuestEmail   string
	ItemCount    int
	ItemType     string
	ItemWeightKg float64
	Notes        string
	Language     string
}

// Flow drives the self-service lifecycle: build a draft with a live price
// estimate and contract gate, submit it, then look reservations up by code
// and record handover/return. All durable state lives server-side; the flow
// only mirrors the last server response.
type Flow struct {
	api       API
	notifier  Notifier
	gate      *ContractGate
	estimator *PriceEstimator

	draft       Draft
	lastCreated *CreateResult
	lookupCode  string
	current     *LookupResult
}

type FlowOption func(*Flow)

// WithEstimatorOptions forwards options to the embedded price estimator.
func WithEstimatorOptions(opts ...EstimatorOption) FlowOption {
	return func(f *Flow) {
		f.estimator = NewPriceEstimator(f.fetchEstimate, opts...)
	}
}

func NewFlow(api API, notifier Notifier, opts ...FlowOption) *Flow {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	f := &Flow{
		api:      api,
		notifier: notifier,
		gate:     NewContractGate(),
	}
	f.estimator = NewPriceEstimator(f.fetchEstimate)
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Flow) fetchEstimate(ctx context.Context, in EstimateInput) (*Estimate, error) {
	return f.api.EstimatePrice(ctx, EstimateRequest{
		TenantID:  in.TenantID,
		StartTime: in.Start.UTC(),
		EndTime:   in.End.UTC(),
		ItemCount: in.ItemCount,
	})
}

// Gate exposes the contract gate for the agreement UI.
func (f *Flow) Gate() *ContractGate { return f.gate }

// Estimator exposes the live price estimate state.
func (f *Flow) Estimator() *PriceEstimator { return f.estimator }

// Draft returns a copy of the current draft.
func (f *Flow) Draft() Draft { return f.draft }

// EditDraft applies a mutation to the draft and refreshes the price
// estimate from the pricing-relevant fields.
func (f *Flow) EditDraft(mutate func(*Draft)) {
	mutate(&f.draft)
	f.estimator.SetInput(EstimateInput{
		TenantID:  f.draft.TenantID,
		Start:     f.draft.Start,
		End:       f.draft.End,
		ItemCount: f.draft.ItemCount,
	})
}

// validateDraft checks identifiers, then dates, then contracts, then the
// price policy. The first unmet condition is returned.
func (f *Flow) validateDraft() error {
	switch {
	case f.draft.TenantID == "":
		return errors.New("storage location is required")
	case f.draft.LockerCode == "":
		return errors.New("a storage unit must be selected")
	case f.draft.Start.IsZero() || f.draft.End.IsZero():
		return errors.New("drop-off and pick-up times are required")
	case !f.draft.End.After(f.draft.Start):
		return errors.New("pick-up time must be after drop-off time")
	case !f.gate.Accepted(ContractPrivacy):
		return errors.New("the privacy notice must be read and accepted")
	case !f.gate.Accepted(ContractTerms):
		return errors.New("the terms of service must be read and accepted")
	}
	// Strict pricing policy: without a current estimate there is no submit.
	if f.draft.ItemCount > 0 && f.estimator.Estimate() == nil {
		if msg := f.estimator.ErrMessage(); msg != "" {
			return errors.New(msg)
		}
		return errors.New("waiting for the price estimate")
	}
	return nil
}

// Submit validates and creates the reservation. On success the draft and
// contract gate reset and the lookup code is pre-filled with the new
// confirmation code; on failure the draft is preserved for a retry.
func (f *Flow) Submit(ctx context.Context) (*CreateResult, error) {
	if err := f.validateDraft(); err != nil {
		f.notifier.Notify(LevelError, err.Error())
		return nil, err
	}

	req := CreateRequest{
		TenantID:        f.draft.TenantID,
		LockerCode:      f.draft.LockerCode,
		StartTime:       f.draft.Start.UTC(),
		EndTime:         f.draft.End.UTC(),
		GuestName:       f.draft.GuestName,
		GuestPhone:      f.draft.GuestPhone,
		GuestEmail:      f.draft.GuestEmail,
		ItemCount:       f.draft.ItemCount,
		ItemType:        f.draft.ItemType,
		ItemWeightKg:    f.draft.ItemWeightKg,
		Notes:           f.draft.Notes,
		PrivacyAccepted: true,
		TermsAccepted:   true,
		Language:        f.draft.Language,
	}

	result, err := f.api.CreateReservation(ctx, req)
	if err != nil {
		f.notifier.Notify(LevelError, requestErrorMessage(err))
		return nil, err
	}

	f.lastCreated = result
	f.lookupCode = result.Code
	f.ResetDraft()
	f.notifier.Notify(LevelSuccess, "Reservation confirmed. Your code is "+result.Code)
	return result, nil
}

// ResetDraft clears the form, the contract gate, and the price estimate.
func (f *Flow) ResetDraft() {
	f.draft = Draft{}
	f.gate.Reset()
	f.estimator.Reset()
}

// LastCreated returns the confirmation of the most recent submission.
func (f *Flow) LastCreated() *CreateResult { return f.lastCreated }

func (f *Flow) SetLookupCode(code string) { f.lookupCode = code }

func (f *Flow) LookupCode() string { return f.lookupCode }

// Lookup resolves the current code. An unknown code is reported through the
// notifier as "not found", not treated as a failure.
func (f *Flow) Lookup(ctx context.Context) (*LookupResult, error) {
	code := strings.TrimSpace(f.lookupCode)
	if code == "" {
		err := errors.New("enter a reservation code")
		f.notifier.Notify(LevelError, err.Error())
		return nil, err
	}

	result, err := f.api.Lookup(ctx, code)
	if err != nil {
		f.notifier.Notify(LevelError, requestErrorMessage(err))
		return nil, err
	}

	f.current = result
	if !result.Valid {
		f.notifier.Notify(LevelInfo, "No reservation found for this code")
	}
	return result, nil
}

// Current returns the last looked-up result, nil before any lookup.
func (f *Flow) Current() *LookupResult { return f.current }

// Actions says which lifecycle actions apply to the current reservation.
type Actions struct {
	CanHandover bool
	CanReturn   bool
}

// Actions derives the allowed actions from the server-reported state:
// active and never handed over allows handover; handed over but not yet
// returned allows return; anything else allows neither.
func (f *Flow) Actions() Actions {
	if f.current == nil || !f.current.Valid {
		return Actions{}
	}
	r := f.current.Reservation
	if r.Status != StatusActive {
		return Actions{}
	}
	switch {
	case r.HandoverAt == nil:
		return Actions{CanHandover: true}
	case r.ReturnedAt == nil:
		return Actions{CanReturn: true}
	default:
		return Actions{}
	}
}

// RecordHandover marks the luggage as received into storage. Guard
// violations never reach the network.
func (f *Flow) RecordHandover(ctx context.Context, rec OperationRecord) (*Reservation, error) {
	r, err := f.currentReservation()
	if err != nil {
		return nil, err
	}
	if r.Status != StatusActive {
		f.notifier.Notify(LevelError, ErrReservationClosed.Error())
		return nil, ErrReservationClosed
	}
	if r.HandoverAt != nil {
		f.notifier.Notify(LevelError, ErrAlreadyHandedOver.Error())
		return nil, ErrAlreadyHandedOver
	}

	if rec.By == "" {
		rec.By = "self-service"
	}
	return f.recordOperation(ctx, r.Code, rec, f.api.RecordHandover, "Handover recorded")
}

// ConfirmReturn marks the luggage as given back to its owner.
func (f *Flow) ConfirmReturn(ctx context.Context, rec OperationRecord) (*Reservation, error) {
	r, err := f.currentReservation()
	if err != nil {
		return nil, err
	}
	if r.HandoverAt == nil {
		f.notifier.Notify(LevelError, ErrNotHandedOver.Error())
		return nil, ErrNotHandedOver
	}
	if r.ReturnedAt != nil {
		f.notifier.Notify(LevelError, ErrAlreadyReturned.Error())
		return nil, ErrAlreadyReturned
	}

	if rec.By == "" {
		rec.By = "guest"
	}
	return f.recordOperation(ctx, r.Code, rec, f.api.ConfirmReturn, "Return recorded")
}

func (f *Flow) currentReservation() (*Reservation, error) {
	if f.current == nil || !f.current.Valid {
		f.notifier.Notify(LevelError, ErrNoReservation.Error())
		return nil, ErrNoReservation
	}
	return f.current.Reservation, nil
}

type operationCall func(ctx context.Context, code string, rec OperationRecord) (*Reservation, error)

func (f *Flow) recordOperation(ctx context.Context, code string, rec OperationRecord, call operationCall, successMsg string) (*Reservation, error) {
	if rec.At.IsZero() {
		rec.At = time.Now().UTC()
	}
	rec.At = rec.At.UTC()

	updated, err := call(ctx, code, rec)
	if err != nil {
		f.notifier.Notify(LevelError, requestErrorMessage(err))
		return nil, err
	}
	f.current = &LookupResult{Valid: true, Reservation: updated}
	f.notifier.Notify(LevelSuccess, successMsg)
	return updated, nil
}

// requestErrorMessage extracts the backend's message when one was sent,
// otherwise falls back to a generic string.
func requestErrorMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return "request failed, please try again"
}
