package appointment

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Appointment statuses. An appointment is created as scheduled, is checked in
// at the front desk, and completes at checkout. Cancellation is a status
// change, never a delete; canceled is terminal.
const (
	StatusScheduled = "scheduled"
	StatusCheckedIn = "checked-in"
	StatusComplete  = "complete"
	StatusCanceled  = "canceled"
)

// Payment statuses. Orthogonal to the appointment status: only payment
// creation moves it to paid.
const (
	PaymentPending = "pending"
	PaymentPaid    = "paid"
)

type Appointment struct {
	ID            uuid.UUID        `db:"id" json:"id"`
	PatientID     *uuid.UUID       `db:"patient_id" json:"patient_id,omitempty"`
	ServiceID     uuid.UUID        `db:"service_id" json:"service_id"`
	RoomID        *uuid.UUID       `db:"room_id" json:"room_id,omitempty"`
	Date          time.Time        `db:"date" json:"date"`
	Time          string           `db:"time" json:"time"`
	Duration      int              `db:"duration_minutes" json:"duration_minutes"`
	Status        string           `db:"status" json:"status"`
	PaymentStatus string           `db:"payment_status" json:"payment_status"`
	PaymentAmount *decimal.Decimal `db:"payment_amount" json:"payment_amount,omitempty"`
	PaymentMethod *string          `db:"payment_method" json:"payment_method,omitempty"`
	Notes         *string          `db:"notes" json:"notes,omitempty"`
	CreatedAt     time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time        `db:"updated_at" json:"updated_at"`
}

// FormattedDate is the date rendering used in activity descriptions.
func (a *Appointment) FormattedDate() string {
	return a.Date.Format("Jan 2, 2006")
}
