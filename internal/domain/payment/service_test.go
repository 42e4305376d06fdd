package payment

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clinichq/clinic-api/internal/domain/activity"
	"github.com/clinichq/clinic-api/internal/domain/appointment"
)

type mockRecorder struct {
	entries []string
}

func (m *mockRecorder) Record(_ context.Context, typ, _ string, _ *uuid.UUID) error {
	m.entries = append(m.entries, typ)
	return nil
}

type mockAwarder struct {
	awards []decimal.Decimal
}

func (m *mockAwarder) AwardDollars(_ context.Context, _ uuid.UUID, amount decimal.Decimal, _ string) error {
	m.awards = append(m.awards, amount)
	return nil
}

type fixture struct {
	svc    *Service
	appts  appointment.Repository
	points *mockAwarder
	rec    *mockRecorder
}

func newFixture() *fixture {
	appts := appointment.NewRepoMemory()
	points := &mockAwarder{}
	rec := &mockRecorder{}
	return &fixture{
		svc:    NewService(NewRepoMemory(), appts, points, rec, nil),
		appts:  appts,
		points: points,
		rec:    rec,
	}
}

func (f *fixture) createAppointment(t *testing.T) *appointment.Appointment {
	t.Helper()
	a := &appointment.Appointment{
		ServiceID:     uuid.New(),
		Date:          time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		Time:          "10:00",
		Duration:      30,
		Status:        appointment.StatusCheckedIn,
		PaymentStatus: appointment.PaymentPending,
	}
	if err := f.appts.Create(context.Background(), a); err != nil {
		t.Fatal(err)
	}
	return a
}

func money(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestRecordMarksLinkedAppointmentPaid(t *testing.T) {
	f := newFixture()
	a := f.createAppointment(t)
	ctx := context.Background()

	p := &Payment{
		AppointmentID: &a.ID,
		Amount:        money("86.40"),
		PaymentMethod: "credit",
		Status:        StatusCompleted,
	}
	if err := f.svc.Record(ctx, p); err != nil {
		t.Fatalf("Record: %v", err)
	}

	got, err := f.appts.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.PaymentStatus != appointment.PaymentPaid {
		t.Errorf("PaymentStatus = %q, want paid", got.PaymentStatus)
	}
	if got.PaymentAmount == nil || !got.PaymentAmount.Equal(p.Amount) {
		t.Errorf("PaymentAmount = %v, want %s", got.PaymentAmount, p.Amount)
	}
	if got.PaymentMethod == nil || *got.PaymentMethod != "credit" {
		t.Errorf("PaymentMethod = %v", got.PaymentMethod)
	}
	if len(f.rec.entries) != 1 || f.rec.entries[0] != activity.TypePaymentRecorded {
		t.Errorf("activity entries = %v", f.rec.entries)
	}
}

func TestRecordPendingLeavesAppointmentUntouched(t *testing.T) {
	f := newFixture()
	a := f.createAppointment(t)
	ctx := context.Background()

	p := &Payment{AppointmentID: &a.ID, Amount: money("50"), PaymentMethod: "cash", Status: StatusPending}
	if err := f.svc.Record(ctx, p); err != nil {
		t.Fatal(err)
	}
	got, _ := f.appts.GetByID(ctx, a.ID)
	if got.PaymentStatus != appointment.PaymentPending {
		t.Errorf("PaymentStatus = %q, pending payment must not mark paid", got.PaymentStatus)
	}
	if len(f.points.awards) != 0 {
		t.Errorf("pending payment awarded points: %v", f.points.awards)
	}
}

func TestRecordAwardsLoyaltyForPatient(t *testing.T) {
	f := newFixture()
	patientID := uuid.New()

	p := &Payment{PatientID: &patientID, Amount: money("42.75"), PaymentMethod: "cash"}
	if err := f.svc.Record(context.Background(), p); err != nil {
		t.Fatal(err)
	}
	if p.Status != StatusCompleted {
		t.Errorf("Status = %q, want default completed", p.Status)
	}
	if len(f.points.awards) != 1 || !f.points.awards[0].Equal(money("42.75")) {
		t.Errorf("awards = %v", f.points.awards)
	}
}

func TestRecordRetryIsIdempotent(t *testing.T) {
	f := newFixture()
	patientID := uuid.New()
	intent := "pi_test_123"
	ctx := context.Background()

	first := &Payment{PatientID: &patientID, Amount: money("100"), PaymentMethod: "credit", StripePaymentIntentID: &intent}
	if err := f.svc.Record(ctx, first); err != nil {
		t.Fatal(err)
	}
	retry := &Payment{PatientID: &patientID, Amount: money("100"), PaymentMethod: "credit", StripePaymentIntentID: &intent}
	if err := f.svc.Record(ctx, retry); err != nil {
		t.Fatalf("retry: %v", err)
	}

	if retry.ID != first.ID {
		t.Errorf("retry created a second payment: %s vs %s", retry.ID, first.ID)
	}
	if len(f.points.awards) != 1 {
		t.Errorf("retry awarded points again: %v", f.points.awards)
	}
	if len(f.rec.entries) != 1 {
		t.Errorf("retry wrote a second activity entry: %v", f.rec.entries)
	}
}

func TestRecordZeroAmountCompletes(t *testing.T) {
	f := newFixture()
	a := f.createAppointment(t)
	ctx := context.Background()

	p := &Payment{AppointmentID: &a.ID, Amount: money("0"), PaymentMethod: "comp"}
	if err := f.svc.Record(ctx, p); err != nil {
		t.Fatalf("Record: %v", err)
	}
	got, _ := f.appts.GetByID(ctx, a.ID)
	if got.PaymentStatus != appointment.PaymentPaid {
		t.Errorf("PaymentStatus = %q, comped sale must still mark paid", got.PaymentStatus)
	}
	if len(f.rec.entries) != 1 {
		t.Errorf("activity entries = %v", f.rec.entries)
	}
}

func TestRecordValidation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if err := f.svc.Record(ctx, &Payment{Amount: money("-5"), PaymentMethod: "cash"}); err == nil {
		t.Error("expected error for negative amount")
	}
	if err := f.svc.Record(ctx, &Payment{Amount: money("10")}); err == nil {
		t.Error("expected error for missing payment_method")
	}
	if err := f.svc.Record(ctx, &Payment{Amount: money("10"), PaymentMethod: "cash", Status: "refunded"}); err == nil {
		t.Error("expected error for unknown status")
	}
	if len(f.points.awards) != 0 {
		t.Errorf("rejected payments awarded points: %v", f.points.awards)
	}
}

func TestGetNotFound(t *testing.T) {
	f := newFixture()
	if _, err := f.svc.Get(context.Background(), uuid.New()); err != ErrNotFound {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
