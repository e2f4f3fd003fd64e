package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decEq(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), append([]interface{}{"want %s got %s", want, got.String()}, msgAndArgs...)...)
}

func TestCalculateTotals_SingleItemWithPurchase(t *testing.T) {
	totals := CalculateTotals([]ItemInput{item("2", "1000", "600")}, decimal.Zero)

	decEq(t, "2000", totals.TotalAmount)
	decEq(t, "1200", totals.TotalPurchaseAmount)
	decEq(t, "800", totals.TotalProfitAmount)
	decEq(t, "2000", totals.FinalAmount)
	decEq(t, "0", totals.DiscountAmount)

	require.Len(t, totals.Items, 1)
	it := totals.Items[0]
	decEq(t, "2000", it.TotalPrice)
	decEq(t, "600", it.PurchasePrice)
	decEq(t, "800", it.ProfitAmount)
	decEq(t, "66.67", it.ProfitPercentage)
	assert.Equal(t, 0, it.Position)
}

func TestCalculateTotals_RoundsLinesToCents(t *testing.T) {
	totals := CalculateTotals([]ItemInput{item("0.3333", "1.11", "0.99")}, decimal.Zero)

	require.Len(t, totals.Items, 1)
	it := totals.Items[0]
	decEq(t, "0.37", it.TotalPrice)
	decEq(t, "0.33", it.PurchasePrice.Mul(it.Quantity).Round(2))
	decEq(t, "0.04", it.ProfitAmount)
	decEq(t, "12.12", it.ProfitPercentage)
	decEq(t, "0.37", totals.TotalAmount)
	decEq(t, "0.33", totals.TotalPurchaseAmount)
	decEq(t, "0.37", totals.FinalAmount)
}

func TestCalculateTotals_Aggregates(t *testing.T) {
	items := []ItemInput{
		item("3", "250.50", "200"),
		item("1.5", "100", ""),
		item("10", "0", "0"),
	}
	totals := CalculateTotals(items, dec("51.50"))

	// 751.50 + 150 + 0
	decEq(t, "901.5", totals.TotalAmount)
	decEq(t, "600", totals.TotalPurchaseAmount)
	decEq(t, "301.5", totals.TotalProfitAmount)
	decEq(t, "850", totals.FinalAmount)

	for i, it := range totals.Items {
		assert.Equal(t, i, it.Position)
		assert.True(t, it.TotalPrice.Equal(it.Quantity.Mul(it.UnitPrice)))
	}
	decEq(t, "0", totals.Items[1].ProfitPercentage, "no purchase price means no percentage")
	decEq(t, "0", totals.Items[2].ProfitPercentage)
}

func TestCalculateTotals_ManualPercentage(t *testing.T) {
	pct := dec("35")

	manual := item("1", "1000", "800")
	manual.IsManualPrice = true
	manual.ProfitPercentage = &pct

	ignored := item("1", "1000", "800")
	ignored.ProfitPercentage = &pct

	totals := CalculateTotals([]ItemInput{manual, ignored}, decimal.Zero)

	decEq(t, "35", totals.Items[0].ProfitPercentage)
	assert.True(t, totals.Items[0].IsManualPrice)
	decEq(t, "200", totals.Items[0].ProfitAmount, "override does not change the amount")
	decEq(t, "25", totals.Items[1].ProfitPercentage, "override needs is_manual_price")
}

func TestCalculateTotals_NegativeProfit(t *testing.T) {
	totals := CalculateTotals([]ItemInput{item("4", "90", "100")}, decimal.Zero)

	decEq(t, "-40", totals.TotalProfitAmount)
	decEq(t, "-10", totals.Items[0].ProfitPercentage)
}

func TestCheckDiscount(t *testing.T) {
	assert.NoError(t, checkDiscount(dec("100"), dec("0")))
	assert.NoError(t, checkDiscount(dec("100"), dec("100")))

	err := checkDiscount(dec("100"), dec("100.01"))
	assert.ErrorIs(t, err, ErrBadRequest)
	assert.Contains(t, err.Error(), "exceeds total amount")

	assert.ErrorIs(t, checkDiscount(dec("100"), dec("-1")), ErrBadRequest)
}

func TestFormatAmount(t *testing.T) {
	tests := map[string]string{
		"0":           "0",
		"999":         "999",
		"1000":        "1,000",
		"150000000":   "150,000,000",
		"1234.5":      "1,234.50",
		"-1234567.89": "-1,234,567.89",
	}
	for in, want := range tests {
		assert.Equal(t, want, formatAmount(dec(in)), in)
	}
}
