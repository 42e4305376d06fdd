package checkout

import (
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func line(name, price string, qty int) CartLine {
	return CartLine{Name: name, UnitPrice: d(price), Quantity: qty, Category: "service"}
}

func assertTotals(t *testing.T, got Totals, subtotal, discount, tax, tip, total string) {
	t.Helper()
	for _, check := range []struct {
		name string
		got  decimal.Decimal
		want string
	}{
		{"subtotal", got.Subtotal, subtotal},
		{"discount", got.Discount, discount},
		{"tax", got.Tax, tax},
		{"tip", got.Tip, tip},
		{"total", got.Total, total},
	} {
		if !check.got.Equal(d(check.want)) {
			t.Errorf("%s = %s, want %s", check.name, check.got, check.want)
		}
	}
}

func TestPriceEmptyCart(t *testing.T) {
	s := &Session{TipMode: TipPercent}
	assertTotals(t, Price(s), "0", "0", "0", "0", "0")
}

func TestPriceDiscountAndPercentTip(t *testing.T) {
	s := &Session{
		Lines:           []CartLine{line("Facial", "10", 2), line("Serum", "5", 1)},
		DiscountEnabled: true,
		DiscountPercent: d("10"),
		TipMode:         TipPercent,
		TipValue:        d("15"),
	}
	// Tip rides on the 25 subtotal, not the 22.50 discounted base.
	assertTotals(t, Price(s), "25", "2.5", "1.8", "3.75", "28.05")
}

func TestPriceTipIgnoresDiscount(t *testing.T) {
	with := &Session{
		Lines:           []CartLine{line("Massage", "100", 1)},
		DiscountEnabled: true,
		DiscountPercent: d("50"),
		TipMode:         TipPercent,
		TipValue:        d("20"),
	}
	without := &Session{
		Lines:    []CartLine{line("Massage", "100", 1)},
		TipMode:  TipPercent,
		TipValue: d("20"),
	}
	if !Price(with).Tip.Equal(Price(without).Tip) {
		t.Errorf("tip changed with discount: %s vs %s", Price(with).Tip, Price(without).Tip)
	}
	if !Price(with).Tip.Equal(d("20")) {
		t.Errorf("tip = %s, want 20", Price(with).Tip)
	}
}

func TestPriceFixedTip(t *testing.T) {
	s := &Session{
		Lines:    []CartLine{line("Massage", "80", 1)},
		TipMode:  TipFixed,
		TipValue: d("10"),
	}
	assertTotals(t, Price(s), "80", "0", "6.4", "10", "96.4")
}

func TestPriceDiscountDisabledIgnoresPercent(t *testing.T) {
	s := &Session{
		Lines:           []CartLine{line("Facial", "50", 1)},
		DiscountEnabled: false,
		DiscountPercent: d("25"),
		TipMode:         TipPercent,
	}
	assertTotals(t, Price(s), "50", "0", "4", "0", "54")
}

func TestRounded(t *testing.T) {
	s := &Session{
		Lines:   []CartLine{line("Adjustment", "9.99", 3)},
		TipMode: TipPercent,
	}
	got := Price(s).Rounded()
	if !got.Tax.Equal(d("2.40")) {
		t.Errorf("rounded tax = %s, want 2.40", got.Tax)
	}
	if !got.Total.Equal(d("32.37")) {
		t.Errorf("rounded total = %s, want 32.37", got.Total)
	}
}
