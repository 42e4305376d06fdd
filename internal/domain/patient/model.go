package patient

import (
	"time"

	"github.com/google/uuid"
)

// Patient is a clinic patient record.
type Patient struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	FirstName   string     `db:"first_name" json:"first_name"`
	LastName    string     `db:"last_name" json:"last_name"`
	Email       *string    `db:"email" json:"email,omitempty"`
	Phone       *string    `db:"phone" json:"phone,omitempty"`
	DateOfBirth *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Notes       *string    `db:"notes" json:"notes,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// FullName returns the display name used in receipts and activity entries.
func (p *Patient) FullName() string {
	return p.FirstName + " " + p.LastName
}
