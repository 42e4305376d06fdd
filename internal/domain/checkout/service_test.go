package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	domainpayment "github.com/clinichq/clinic-api/internal/domain/payment"
	"github.com/clinichq/clinic-api/internal/platform/payments"
)

type mockProvider struct {
	failIntent bool
	failRecord bool
	intents    []payments.IntentRequest
	records    []payments.RecordRequest
}

func (m *mockProvider) CreateIntent(_ context.Context, req payments.IntentRequest) (*payments.Intent, error) {
	if m.failIntent {
		return nil, payments.ErrUpstream
	}
	m.intents = append(m.intents, req)
	return &payments.Intent{PaymentIntentID: "pi_test"}, nil
}

func (m *mockProvider) RecordPayment(_ context.Context, req payments.RecordRequest) (*payments.Receipt, error) {
	if m.failRecord {
		return nil, payments.ErrUpstream
	}
	m.records = append(m.records, req)
	return &payments.Receipt{TransactionID: "txn_test", Amount: req.Amount, RecordedAt: time.Now().UTC()}, nil
}

type mockLedger struct {
	failNext bool
	recorded []*domainpayment.Payment
}

func (m *mockLedger) Record(_ context.Context, p *domainpayment.Payment) error {
	if m.failNext {
		m.failNext = false
		return errors.New("ledger unavailable")
	}
	m.recorded = append(m.recorded, p)
	return nil
}

func newFixture() (*Service, *mockProvider, *mockLedger) {
	provider := &mockProvider{}
	ledger := &mockLedger{}
	return NewService(provider, ledger), provider, ledger
}

func openWithCart(t *testing.T, svc *Service, lines ...CartLine) *Session {
	t.Helper()
	ctx := context.Background()
	s := svc.Open(ctx)
	for _, l := range lines {
		if _, err := svc.AddLine(ctx, s.ID, l); err != nil {
			t.Fatalf("AddLine: %v", err)
		}
	}
	got, err := svc.Get(ctx, s.ID)
	if err != nil {
		t.Fatal(err)
	}
	return got
}

func TestOpenDefaults(t *testing.T) {
	svc, _, _ := newFixture()
	s := svc.Open(context.Background())
	if s.Stage != StageCart {
		t.Errorf("Stage = %q", s.Stage)
	}
	if s.PaymentMethod != MethodCredit {
		t.Errorf("PaymentMethod = %q", s.PaymentMethod)
	}
	if s.TipMode != TipPercent {
		t.Errorf("TipMode = %q", s.TipMode)
	}
	if len(s.Lines) != 0 {
		t.Errorf("Lines = %v", s.Lines)
	}
}

func TestCheckoutEmptyCartRejected(t *testing.T) {
	svc, _, _ := newFixture()
	ctx := context.Background()
	s := svc.Open(ctx)

	if _, err := svc.Checkout(ctx, s.ID); !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("err = %v, want ErrEmptyCart", err)
	}
	got, _ := svc.Get(ctx, s.ID)
	if got.Stage != StageCart {
		t.Errorf("Stage = %q after rejected checkout", got.Stage)
	}
}

func TestConfirmFailureStaysInPayment(t *testing.T) {
	svc, provider, _ := newFixture()
	ctx := context.Background()
	s := openWithCart(t, svc, line("Facial", "60", 1))
	svc.Checkout(ctx, s.ID)

	provider.failIntent = true
	if _, err := svc.Confirm(ctx, s.ID); !errors.Is(err, payments.ErrUpstream) {
		t.Fatalf("err = %v, want ErrUpstream", err)
	}
	got, _ := svc.Get(ctx, s.ID)
	if got.Stage != StagePayment {
		t.Errorf("Stage = %q, failed confirm must not advance", got.Stage)
	}
	if got.PaymentIntentRef != "" {
		t.Errorf("PaymentIntentRef = %q, failed confirm must not store a ref", got.PaymentIntentRef)
	}

	provider.failIntent = false
	got, err := svc.Confirm(ctx, s.ID)
	if err != nil {
		t.Fatalf("retry confirm: %v", err)
	}
	if got.Stage != StageReceipt || got.PaymentIntentRef != "pi_test" {
		t.Errorf("after retry: stage=%q ref=%q", got.Stage, got.PaymentIntentRef)
	}
}

func TestDoneFailureStaysInReceiptAndRetries(t *testing.T) {
	svc, provider, ledger := newFixture()
	ctx := context.Background()
	s := openWithCart(t, svc, line("Facial", "60", 1))
	svc.Checkout(ctx, s.ID)
	svc.Confirm(ctx, s.ID)

	ledger.failNext = true
	if _, err := svc.Done(ctx, s.ID); err == nil {
		t.Fatal("expected ledger failure")
	}
	got, _ := svc.Get(ctx, s.ID)
	if got.Stage != StageReceipt {
		t.Errorf("Stage = %q, failed done must stay at receipt", got.Stage)
	}

	got, err := svc.Done(ctx, s.ID)
	if err != nil {
		t.Fatalf("retry done: %v", err)
	}
	if got.Stage != StageCart {
		t.Errorf("Stage = %q after retry", got.Stage)
	}
	if len(ledger.recorded) != 1 {
		t.Fatalf("ledger recorded %d payments", len(ledger.recorded))
	}
	rec := ledger.recorded[0]
	if rec.StripePaymentIntentID == nil || *rec.StripePaymentIntentID != "pi_test" {
		t.Errorf("intent ref = %v, retries must carry the same ref", rec.StripePaymentIntentID)
	}
	// The provider is re-invoked per attempt; only the ledger dedupes.
	if len(provider.records) != 2 {
		t.Errorf("provider record calls = %d, want one per attempt", len(provider.records))
	}
}

func TestBackIsPureNavigation(t *testing.T) {
	svc, provider, _ := newFixture()
	ctx := context.Background()
	s := openWithCart(t, svc, line("Facial", "60", 1))
	svc.SetTip(ctx, s.ID, TipPercent, d("20"))
	svc.Checkout(ctx, s.ID)
	svc.Confirm(ctx, s.ID)
	intentCalls := len(provider.intents)

	got, err := svc.Back(ctx, s.ID)
	if err != nil {
		t.Fatalf("Back: %v", err)
	}
	if got.Stage != StagePayment {
		t.Errorf("Stage = %q, want payment", got.Stage)
	}
	got, _ = svc.Back(ctx, s.ID)
	if got.Stage != StageCart {
		t.Errorf("Stage = %q, want cart", got.Stage)
	}
	if _, err := svc.Back(ctx, s.ID); !errors.Is(err, ErrInvalidStage) {
		t.Errorf("back from cart: err = %v, want ErrInvalidStage", err)
	}

	if len(got.Lines) != 1 || !got.TipValue.Equal(d("20")) {
		t.Errorf("back discarded cart state: %+v", got)
	}
	if len(provider.intents) != intentCalls {
		t.Errorf("back re-triggered intent creation")
	}
	if got.PaymentIntentRef != "pi_test" {
		t.Errorf("back lost the intent ref: %q", got.PaymentIntentRef)
	}
}

func TestMutatorsLockedOutsideCart(t *testing.T) {
	svc, _, _ := newFixture()
	ctx := context.Background()
	s := openWithCart(t, svc, line("Facial", "60", 1))
	svc.Checkout(ctx, s.ID)

	if _, err := svc.AddLine(ctx, s.ID, line("Serum", "20", 1)); !errors.Is(err, ErrInvalidStage) {
		t.Errorf("AddLine: err = %v", err)
	}
	if _, err := svc.SetDiscount(ctx, s.ID, true, d("10")); !errors.Is(err, ErrInvalidStage) {
		t.Errorf("SetDiscount: err = %v", err)
	}
	if _, err := svc.SetTip(ctx, s.ID, TipFixed, d("5")); !errors.Is(err, ErrInvalidStage) {
		t.Errorf("SetTip: err = %v", err)
	}
}

func TestAddLineValidation(t *testing.T) {
	svc, _, _ := newFixture()
	ctx := context.Background()
	s := svc.Open(ctx)

	cases := []CartLine{
		{Name: "", UnitPrice: d("10"), Quantity: 1, Category: "service"},
		{Name: "Facial", UnitPrice: d("-1"), Quantity: 1, Category: "service"},
		{Name: "Facial", UnitPrice: d("10"), Quantity: 0, Category: "service"},
		{Name: "Facial", UnitPrice: d("10"), Quantity: 1, Category: "membership"},
	}
	for _, bad := range cases {
		if _, err := svc.AddLine(ctx, s.ID, bad); err == nil {
			t.Errorf("AddLine(%+v) accepted", bad)
		}
	}
}

func TestFullFlowResetsSession(t *testing.T) {
	svc, provider, ledger := newFixture()
	ctx := context.Background()
	customerID := uuid.New()

	s := openWithCart(t, svc, line("Massage", "80", 1))
	svc.SetTip(ctx, s.ID, TipPercent, d("18"))
	svc.SetCustomer(ctx, s.ID, &customerID)
	svc.SetPaymentMethod(ctx, s.ID, MethodCash)

	totals, _ := svc.Totals(ctx, s.ID)
	assertTotals(t, totals, "80", "0", "6.4", "14.4", "100.8")

	if _, err := svc.Checkout(ctx, s.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Confirm(ctx, s.ID); err != nil {
		t.Fatal(err)
	}
	if len(provider.intents) != 1 || !provider.intents[0].Amount.Equal(d("100.80")) {
		t.Fatalf("intents = %+v", provider.intents)
	}

	got, err := svc.Done(ctx, s.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(provider.records) != 1 {
		t.Fatalf("records = %+v", provider.records)
	}
	rec := provider.records[0]
	if !rec.Amount.Equal(d("100.80")) || rec.PaymentMethod != MethodCash || rec.PaymentIntentID != "pi_test" {
		t.Errorf("record request = %+v", rec)
	}
	if len(ledger.recorded) != 1 {
		t.Fatalf("ledger recorded %d payments", len(ledger.recorded))
	}
	if p := ledger.recorded[0]; p.PatientID == nil || *p.PatientID != customerID || !p.Amount.Equal(d("100.80")) {
		t.Errorf("ledger payment = %+v", p)
	}

	if got.Stage != StageCart || len(got.Lines) != 0 {
		t.Errorf("session not reset: stage=%q lines=%d", got.Stage, len(got.Lines))
	}
	if got.CustomerID != nil || !got.TipValue.IsZero() || got.PaymentMethod != MethodCredit || got.DiscountEnabled {
		t.Errorf("defaults not restored: %+v", got)
	}
	if got.PaymentIntentRef != "" {
		t.Errorf("intent ref survived reset: %q", got.PaymentIntentRef)
	}
}

func TestDoneCompletesZeroTotalSale(t *testing.T) {
	provider := &mockProvider{}
	books := domainpayment.NewService(domainpayment.NewRepoMemory(), nil, nil, nil, nil)
	svc := NewService(provider, books)
	ctx := context.Background()

	s := openWithCart(t, svc, line("Complimentary consult", "0", 1))
	if _, err := svc.Checkout(ctx, s.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Confirm(ctx, s.ID); err != nil {
		t.Fatal(err)
	}

	got, err := svc.Done(ctx, s.ID)
	if err != nil {
		t.Fatalf("Done: %v", err)
	}
	if got.Stage != StageCart {
		t.Errorf("Stage = %q, comped sale must finish and reset", got.Stage)
	}
	recorded, total, err := books.List(ctx, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 || !recorded[0].Amount.IsZero() {
		t.Errorf("ledger = %d payments, %+v", total, recorded)
	}
}

func TestGetUnknownSession(t *testing.T) {
	svc, _, _ := newFixture()
	if _, err := svc.Get(context.Background(), uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
