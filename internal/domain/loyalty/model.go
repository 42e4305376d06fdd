package loyalty

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Membership tiers, lowest to highest. A tier never goes down once reached.
const (
	LevelNone     = "none"
	LevelBronze   = "bronze"
	LevelSilver   = "silver"
	LevelGold     = "gold"
	LevelPlatinum = "platinum"
)

// Lifetime-points thresholds for the upper tiers.
const (
	SilverThreshold   = 200
	GoldThreshold     = 500
	PlatinumThreshold = 1000
)

// Transaction types.
const (
	TxEarned              = "earned"
	TxRedeemed            = "redeemed"
	TxReferral            = "referral"
	TxBirthday            = "birthday"
	TxSubscriptionStarted = "subscription_started"
	TxExpired             = "expired"
)

// Subscription plans and statuses.
const (
	PlanBasic   = "basic"
	PlanPremium = "premium"

	SubscriptionActive    = "active"
	SubscriptionCancelled = "cancelled"
)

// Account is a patient's loyalty balance, created lazily on the first
// transaction. Points is the spendable balance; TotalEarned only ever grows
// and drives the tier.
type Account struct {
	ID                  uuid.UUID `json:"id"`
	PatientID           uuid.UUID `json:"patient_id"`
	Points              int       `json:"points"`
	TotalEarned         int       `json:"total_earned"`
	MonthlyPointsEarned int       `json:"monthly_points_earned"`
	Level               string    `json:"level"`
	ReferralsCount      int       `json:"referrals_count"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// Transaction is one append-only ledger entry. Points is a signed delta.
type Transaction struct {
	ID           uuid.UUID        `json:"id"`
	PatientID    uuid.UUID        `json:"patient_id"`
	Points       int              `json:"points"`
	Type         string           `json:"type"`
	Source       string           `json:"source,omitempty"`
	Description  string           `json:"description,omitempty"`
	DollarsSpent *decimal.Decimal `json:"dollars_spent,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
}

// Subscription is a recurring membership. At most one active subscription
// exists per patient.
type Subscription struct {
	ID               uuid.UUID       `json:"id"`
	PatientID        uuid.UUID       `json:"patient_id"`
	PlanType         string          `json:"plan_type"`
	MonthlyFee       decimal.Decimal `json:"monthly_fee"`
	IncludedSessions int             `json:"included_sessions"`
	IncludesReiki    bool            `json:"includes_reiki"`
	IncludesPetAddOn bool            `json:"includes_pet_add_on"`
	Status           string          `json:"status"`
	StartDate        time.Time       `json:"start_date"`
	NextBillingDate  time.Time       `json:"next_billing_date"`
	CancelReason     *string         `json:"cancel_reason,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

var levelRank = map[string]int{
	LevelNone:     0,
	LevelBronze:   1,
	LevelSilver:   2,
	LevelGold:     3,
	LevelPlatinum: 4,
}

// levelFor maps lifetime earnings to a tier, never below the current one.
// Below the silver threshold an account that has earned anything at all sits
// at bronze.
func levelFor(totalEarned int, current string) string {
	var computed string
	switch {
	case totalEarned >= PlatinumThreshold:
		computed = LevelPlatinum
	case totalEarned >= GoldThreshold:
		computed = LevelGold
	case totalEarned >= SilverThreshold:
		computed = LevelSilver
	case totalEarned > 0:
		computed = LevelBronze
	default:
		computed = LevelNone
	}
	if levelRank[computed] < levelRank[current] {
		return current
	}
	return computed
}
