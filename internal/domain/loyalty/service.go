package loyalty

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clinichq/clinic-api/internal/domain/activity"
)

var (
	// ErrNotFound is returned when the account or subscription does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInsufficientPoints is returned when a redemption exceeds the balance.
	ErrInsufficientPoints = errors.New("insufficient points")
	// ErrDuplicateSubscription is returned when the patient already has an
	// active subscription.
	ErrDuplicateSubscription = errors.New("patient already has an active subscription")
)

var validTxTypes = map[string]bool{
	TxEarned:              true,
	TxRedeemed:            true,
	TxReferral:            true,
	TxBirthday:            true,
	TxSubscriptionStarted: true,
	TxExpired:             true,
}

// plan holds the fee and entitlements of a subscription tier.
type plan struct {
	monthlyFee       decimal.Decimal
	includedSessions int
	includesReiki    bool
	includesPetAddOn bool
}

var plans = map[string]plan{
	PlanBasic:   {monthlyFee: decimal.NewFromInt(150), includedSessions: 3},
	PlanPremium: {monthlyFee: decimal.NewFromInt(250), includedSessions: 4, includesReiki: true, includesPetAddOn: true},
}

// TxRunner runs fn atomically. The postgres backend wraps db.WithTx; the
// memory backend runs fn directly.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

type Service struct {
	repo     Repository
	recorder activity.Recorder
	runTx    TxRunner
}

func NewService(repo Repository, recorder activity.Recorder, runTx TxRunner) *Service {
	if runTx == nil {
		runTx = func(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }
	}
	return &Service{repo: repo, recorder: recorder, runTx: runTx}
}

// AddPoints credits points to a patient, creating the account on first use.
// Lifetime earnings only grow, and the tier derived from them never drops.
func (s *Service) AddPoints(ctx context.Context, patientID uuid.UUID, points int, typ, source, description string, dollarsSpent *decimal.Decimal) (*Account, error) {
	if points <= 0 {
		return nil, fmt.Errorf("points must be positive")
	}
	if !validTxTypes[typ] {
		return nil, fmt.Errorf("invalid transaction type %q", typ)
	}

	var account *Account
	err := s.runTx(ctx, func(ctx context.Context) error {
		var err error
		account, err = s.loadOrInit(ctx, patientID)
		if err != nil {
			return err
		}
		account.Points += points
		account.TotalEarned += points
		account.MonthlyPointsEarned += points
		account.Level = levelFor(account.TotalEarned, account.Level)
		if typ == TxReferral {
			account.ReferralsCount++
		}
		if err := s.repo.SaveAccount(ctx, account); err != nil {
			return err
		}
		return s.repo.AppendTransaction(ctx, &Transaction{
			PatientID:    patientID,
			Points:       points,
			Type:         typ,
			Source:       source,
			Description:  description,
			DollarsSpent: dollarsSpent,
		})
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, activity.TypeLoyaltyEarned,
		fmt.Sprintf("%d loyalty points earned", points), patientID)
	return account, nil
}

// AwardDollars earns one point per whole dollar spent. Implements the
// payment service's PointsAwarder.
func (s *Service) AwardDollars(ctx context.Context, patientID uuid.UUID, amount decimal.Decimal, description string) error {
	points := int(amount.IntPart())
	if points <= 0 {
		return nil
	}
	_, err := s.AddPoints(ctx, patientID, points, TxEarned, "payment", description, &amount)
	return err
}

// RedeemPoints debits points from the balance. A redemption that exceeds the
// balance fails without touching the account.
func (s *Service) RedeemPoints(ctx context.Context, patientID uuid.UUID, points int, description string) (*Account, error) {
	if points <= 0 {
		return nil, fmt.Errorf("points must be positive")
	}

	var account *Account
	err := s.runTx(ctx, func(ctx context.Context) error {
		var err error
		account, err = s.repo.GetAccount(ctx, patientID)
		if errors.Is(err, ErrNotFound) {
			return ErrInsufficientPoints
		}
		if err != nil {
			return err
		}
		if points > account.Points {
			return ErrInsufficientPoints
		}
		account.Points -= points
		if account.Points < 0 {
			account.Points = 0
		}
		if err := s.repo.SaveAccount(ctx, account); err != nil {
			return err
		}
		return s.repo.AppendTransaction(ctx, &Transaction{
			PatientID:   patientID,
			Points:      -points,
			Type:        TxRedeemed,
			Description: description,
		})
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, activity.TypeLoyaltyRedeemed,
		fmt.Sprintf("%d loyalty points redeemed", points), patientID)
	return account, nil
}

// GetAccount returns the patient's loyalty account, or ErrNotFound before the
// first transaction.
func (s *Service) GetAccount(ctx context.Context, patientID uuid.UUID) (*Account, error) {
	return s.repo.GetAccount(ctx, patientID)
}

func (s *Service) Transactions(ctx context.Context, patientID uuid.UUID, limit int) ([]*Transaction, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.repo.ListTransactions(ctx, patientID, limit)
}

// Subscribe starts a membership on the named plan. A patient can hold only
// one active subscription at a time.
func (s *Service) Subscribe(ctx context.Context, patientID uuid.UUID, planType string) (*Subscription, error) {
	p, ok := plans[planType]
	if !ok {
		return nil, fmt.Errorf("invalid plan type %q", planType)
	}

	var sub *Subscription
	err := s.runTx(ctx, func(ctx context.Context) error {
		if _, err := s.repo.ActiveSubscription(ctx, patientID); err == nil {
			return ErrDuplicateSubscription
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}

		now := time.Now().UTC()
		sub = &Subscription{
			PatientID:        patientID,
			PlanType:         planType,
			MonthlyFee:       p.monthlyFee,
			IncludedSessions: p.includedSessions,
			IncludesReiki:    p.includesReiki,
			IncludesPetAddOn: p.includesPetAddOn,
			Status:           SubscriptionActive,
			StartDate:        now,
			NextBillingDate:  now.AddDate(0, 1, 0),
		}
		if err := s.repo.CreateSubscription(ctx, sub); err != nil {
			return err
		}
		return s.repo.AppendTransaction(ctx, &Transaction{
			PatientID:   patientID,
			Type:        TxSubscriptionStarted,
			Source:      planType,
			Description: fmt.Sprintf("Started %s membership", planType),
		})
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, activity.TypeSubscriptionStarted,
		fmt.Sprintf("%s membership started", planType), patientID)
	return sub, nil
}

// CancelSubscription marks a subscription cancelled. Cancelling one that is
// already cancelled is a no-op returning the stored record.
func (s *Service) CancelSubscription(ctx context.Context, id uuid.UUID, reason string) (*Subscription, error) {
	sub, err := s.repo.GetSubscription(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.Status == SubscriptionCancelled {
		return sub, nil
	}
	sub.Status = SubscriptionCancelled
	if reason != "" {
		sub.CancelReason = &reason
	}
	if err := s.repo.UpdateSubscription(ctx, sub); err != nil {
		return nil, err
	}
	s.record(ctx, activity.TypeSubscriptionCancelled,
		fmt.Sprintf("%s membership cancelled", sub.PlanType), sub.PatientID)
	return sub, nil
}

// ActiveSubscription returns the patient's active subscription, or
// ErrNotFound when there is none.
func (s *Service) ActiveSubscription(ctx context.Context, patientID uuid.UUID) (*Subscription, error) {
	return s.repo.ActiveSubscription(ctx, patientID)
}

func (s *Service) loadOrInit(ctx context.Context, patientID uuid.UUID) (*Account, error) {
	account, err := s.repo.GetAccount(ctx, patientID)
	if errors.Is(err, ErrNotFound) {
		return &Account{PatientID: patientID, Level: LevelNone}, nil
	}
	return account, err
}

func (s *Service) record(ctx context.Context, typ, description string, patientID uuid.UUID) {
	if s.recorder == nil {
		return
	}
	_ = s.recorder.Record(ctx, typ, description, &patientID)
}
