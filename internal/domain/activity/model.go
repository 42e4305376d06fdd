package activity

import (
	"time"

	"github.com/google/uuid"
)

// Activity is one entry in the append-only audit trail. Every appointment
// status mutation, payment, and loyalty event writes exactly one.
type Activity struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	Type        string     `db:"type" json:"type"`
	Description string     `db:"description" json:"description"`
	EntityID    *uuid.UUID `db:"entity_id" json:"entity_id,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

// Activity types written by the transactional core.
const (
	TypeAppointmentCreated    = "appointment.created"
	TypeAppointmentUpdated    = "appointment.updated"
	TypeAppointmentCanceled   = "appointment.canceled"
	TypePaymentRecorded       = "payment.recorded"
	TypeLoyaltyEarned         = "loyalty.earned"
	TypeLoyaltyRedeemed       = "loyalty.redeemed"
	TypeSubscriptionStarted   = "subscription.started"
	TypeSubscriptionCancelled = "subscription.cancelled"
)
