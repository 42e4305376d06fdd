package payment

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment status values.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Payment is one recorded charge. A payment may be linked to an appointment,
// in which case recording a completed payment also marks the appointment paid
// in the same transaction.
type Payment struct {
	ID                    uuid.UUID       `json:"id"`
	PatientID             *uuid.UUID      `json:"patient_id,omitempty"`
	AppointmentID         *uuid.UUID      `json:"appointment_id,omitempty"`
	Amount                decimal.Decimal `json:"amount"`
	PaymentMethod         string          `json:"payment_method"`
	Status                string          `json:"status"`
	Date                  time.Time       `json:"date"`
	TransactionID         *string         `json:"transaction_id,omitempty"`
	StripePaymentIntentID *string         `json:"stripe_payment_intent_id,omitempty"`
	CreatedAt             time.Time       `json:"created_at"`
}
