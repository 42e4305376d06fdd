package loyalty

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func newService() *Service {
	return NewService(NewRepoMemory(), nil, nil)
}

func earn(t *testing.T, svc *Service, patientID uuid.UUID, points int) *Account {
	t.Helper()
	a, err := svc.AddPoints(context.Background(), patientID, points, TxEarned, "visit", "", nil)
	if err != nil {
		t.Fatalf("AddPoints(%d): %v", points, err)
	}
	return a
}

func TestAddPointsCreatesAccountLazily(t *testing.T) {
	svc := newService()
	patientID := uuid.New()
	ctx := context.Background()

	if _, err := svc.GetAccount(ctx, patientID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("fresh patient: err = %v, want ErrNotFound", err)
	}

	a := earn(t, svc, patientID, 50)
	if a.Points != 50 || a.TotalEarned != 50 {
		t.Errorf("account = %+v", a)
	}
	if a.Level != LevelBronze {
		t.Errorf("Level = %q, first earnings should land at bronze", a.Level)
	}

	txs, err := svc.Transactions(ctx, patientID, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(txs) != 1 || txs[0].Points != 50 || txs[0].Type != TxEarned {
		t.Errorf("transactions = %+v", txs)
	}
}

func TestTierThresholds(t *testing.T) {
	cases := []struct {
		earned int
		level  string
	}{
		{1, LevelBronze},
		{199, LevelBronze},
		{200, LevelSilver},
		{499, LevelSilver},
		{500, LevelGold},
		{999, LevelGold},
		{1000, LevelPlatinum},
		{5000, LevelPlatinum},
	}
	for _, tc := range cases {
		svc := newService()
		a := earn(t, svc, uuid.New(), tc.earned)
		if a.Level != tc.level {
			t.Errorf("earned %d: level = %q, want %q", tc.earned, a.Level, tc.level)
		}
	}
}

func TestTierNeverDecreases(t *testing.T) {
	svc := newService()
	patientID := uuid.New()
	ctx := context.Background()

	earn(t, svc, patientID, 1200)
	if _, err := svc.RedeemPoints(ctx, patientID, 1100, "massage package"); err != nil {
		t.Fatal(err)
	}
	a, _ := svc.GetAccount(ctx, patientID)
	if a.Points != 100 {
		t.Errorf("Points = %d, want 100", a.Points)
	}
	if a.Level != LevelPlatinum {
		t.Errorf("Level = %q, redemption must not demote", a.Level)
	}
	if a.TotalEarned != 1200 {
		t.Errorf("TotalEarned = %d, redemption must not reduce lifetime earnings", a.TotalEarned)
	}

	earn(t, svc, patientID, 10)
	a, _ = svc.GetAccount(ctx, patientID)
	if a.Level != LevelPlatinum {
		t.Errorf("Level = %q after further earnings", a.Level)
	}
}

func TestRedeemInsufficientLeavesBalance(t *testing.T) {
	svc := newService()
	patientID := uuid.New()
	ctx := context.Background()

	earn(t, svc, patientID, 30)
	for i := 0; i < 2; i++ {
		if _, err := svc.RedeemPoints(ctx, patientID, 31, "too much"); !errors.Is(err, ErrInsufficientPoints) {
			t.Fatalf("attempt %d: err = %v, want ErrInsufficientPoints", i, err)
		}
	}
	a, _ := svc.GetAccount(ctx, patientID)
	if a.Points != 30 {
		t.Errorf("Points = %d, failed redemption must not change the balance", a.Points)
	}
	txs, _ := svc.Transactions(ctx, patientID, 10)
	if len(txs) != 1 {
		t.Errorf("failed redemptions wrote ledger entries: %+v", txs)
	}
}

func TestRedeemUnknownPatient(t *testing.T) {
	svc := newService()
	if _, err := svc.RedeemPoints(context.Background(), uuid.New(), 10, ""); !errors.Is(err, ErrInsufficientPoints) {
		t.Fatalf("err = %v, want ErrInsufficientPoints", err)
	}
}

func TestRedeemWritesNegativeDelta(t *testing.T) {
	svc := newService()
	patientID := uuid.New()
	ctx := context.Background()

	earn(t, svc, patientID, 100)
	if _, err := svc.RedeemPoints(ctx, patientID, 40, "facial"); err != nil {
		t.Fatal(err)
	}
	txs, _ := svc.Transactions(ctx, patientID, 10)
	if len(txs) != 2 {
		t.Fatalf("transactions = %+v", txs)
	}
	if txs[0].Type != TxRedeemed || txs[0].Points != -40 {
		t.Errorf("redeem entry = %+v", txs[0])
	}
}

func TestAwardDollarsWholeDollarsOnly(t *testing.T) {
	svc := newService()
	patientID := uuid.New()
	ctx := context.Background()

	amount := decimal.RequireFromString("42.75")
	if err := svc.AwardDollars(ctx, patientID, amount, "payment"); err != nil {
		t.Fatal(err)
	}
	a, _ := svc.GetAccount(ctx, patientID)
	if a.Points != 42 {
		t.Errorf("Points = %d, want 42", a.Points)
	}
	txs, _ := svc.Transactions(ctx, patientID, 10)
	if txs[0].DollarsSpent == nil || !txs[0].DollarsSpent.Equal(amount) {
		t.Errorf("DollarsSpent = %v", txs[0].DollarsSpent)
	}

	if err := svc.AwardDollars(ctx, patientID, decimal.RequireFromString("0.99"), "tiny"); err != nil {
		t.Fatal(err)
	}
	a, _ = svc.GetAccount(ctx, patientID)
	if a.Points != 42 {
		t.Errorf("Points = %d, sub-dollar payment must not earn", a.Points)
	}
}

func TestReferralIncrementsCount(t *testing.T) {
	svc := newService()
	patientID := uuid.New()

	a, err := svc.AddPoints(context.Background(), patientID, 25, TxReferral, "referral", "Referred a friend", nil)
	if err != nil {
		t.Fatal(err)
	}
	if a.ReferralsCount != 1 {
		t.Errorf("ReferralsCount = %d", a.ReferralsCount)
	}
}

func TestSubscribePlans(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	basic, err := svc.Subscribe(ctx, uuid.New(), PlanBasic)
	if err != nil {
		t.Fatal(err)
	}
	if !basic.MonthlyFee.Equal(decimal.NewFromInt(150)) || basic.IncludedSessions != 3 || basic.IncludesReiki || basic.IncludesPetAddOn {
		t.Errorf("basic = %+v", basic)
	}

	premium, err := svc.Subscribe(ctx, uuid.New(), PlanPremium)
	if err != nil {
		t.Fatal(err)
	}
	if !premium.MonthlyFee.Equal(decimal.NewFromInt(250)) || premium.IncludedSessions != 4 || !premium.IncludesReiki || !premium.IncludesPetAddOn {
		t.Errorf("premium = %+v", premium)
	}

	if _, err := svc.Subscribe(ctx, uuid.New(), "deluxe"); err == nil {
		t.Error("unknown plan accepted")
	}
}

func TestSubscribeDuplicateRejected(t *testing.T) {
	svc := newService()
	patientID := uuid.New()
	ctx := context.Background()

	first, err := svc.Subscribe(ctx, patientID, PlanBasic)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Subscribe(ctx, patientID, PlanPremium); !errors.Is(err, ErrDuplicateSubscription) {
		t.Fatalf("err = %v, want ErrDuplicateSubscription", err)
	}

	if _, err := svc.CancelSubscription(ctx, first.ID, "moving away"); err != nil {
		t.Fatal(err)
	}
	second, err := svc.Subscribe(ctx, patientID, PlanPremium)
	if err != nil {
		t.Fatalf("subscribe after cancel: %v", err)
	}
	if second.PlanType != PlanPremium || second.Status != SubscriptionActive {
		t.Errorf("second = %+v", second)
	}
}

func TestCancelSubscriptionIdempotent(t *testing.T) {
	svc := newService()
	patientID := uuid.New()
	ctx := context.Background()

	sub, err := svc.Subscribe(ctx, patientID, PlanBasic)
	if err != nil {
		t.Fatal(err)
	}
	first, err := svc.CancelSubscription(ctx, sub.ID, "unused")
	if err != nil {
		t.Fatal(err)
	}
	if first.Status != SubscriptionCancelled {
		t.Errorf("Status = %q", first.Status)
	}
	second, err := svc.CancelSubscription(ctx, sub.ID, "again")
	if err != nil {
		t.Fatalf("second cancel: %v", err)
	}
	if second.Status != SubscriptionCancelled {
		t.Errorf("Status = %q", second.Status)
	}
	if second.CancelReason == nil || *second.CancelReason != "unused" {
		t.Errorf("CancelReason = %v, re-cancel must not overwrite", second.CancelReason)
	}
}

func TestCancelSubscriptionNotFound(t *testing.T) {
	svc := newService()
	if _, err := svc.CancelSubscription(context.Background(), uuid.New(), ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSubscriptionStartedLedgerEntry(t *testing.T) {
	svc := newService()
	patientID := uuid.New()
	ctx := context.Background()

	if _, err := svc.Subscribe(ctx, patientID, PlanBasic); err != nil {
		t.Fatal(err)
	}
	txs, _ := svc.Transactions(ctx, patientID, 10)
	if len(txs) != 1 || txs[0].Type != TxSubscriptionStarted {
		t.Errorf("transactions = %+v", txs)
	}
}
