package service

import (
	"github.com/shopspring/decimal"

	"docflow/internal/model"
)

var hundred = decimal.NewFromInt(100)

// ItemInput is one line of a document as submitted by a client.
type ItemInput struct {
	Description      string           `json:"description" validate:"required,max=1000"`
	Quantity         decimal.Decimal  `json:"quantity" validate:"gt=0"`
	UnitPrice        decimal.Decimal  `json:"unit_price" validate:"gte=0"`
	PurchasePrice    *decimal.Decimal `json:"purchase_price" validate:"omitempty,gte=0"`
	ProfitPercentage *decimal.Decimal `json:"profit_percentage" validate:"omitempty,gte=0,lte=100"`
	IsManualPrice    bool             `json:"is_manual_price"`
}

// Totals is the calculator output: aggregates plus the priced items.
type Totals struct {
	TotalAmount         decimal.Decimal
	DiscountAmount      decimal.Decimal
	FinalAmount         decimal.Decimal
	TotalPurchaseAmount decimal.Decimal
	TotalProfitAmount   decimal.Decimal
	Items               []model.DocumentItem
}

// CalculateTotals prices every item and sums the document totals.
//
// lineTotal = quantity * unitPrice, linePurchase = quantity * purchasePrice,
// both rounded to cents, profit = lineTotal - linePurchase. The profit percentage is relative to the
// purchase cost, or the caller's value when the item is manually priced.
// finalAmount = totalAmount - discount; the caller validates the discount.
func CalculateTotals(items []ItemInput, discount decimal.Decimal) Totals {
	t := Totals{
		TotalAmount:         decimal.Zero,
		DiscountAmount:      discount,
		TotalPurchaseAmount: decimal.Zero,
		TotalProfitAmount:   decimal.Zero,
		Items:               make([]model.DocumentItem, 0, len(items)),
	}

	for i, in := range items {
		purchasePrice := decimal.Zero
		if in.PurchasePrice != nil {
			purchasePrice = *in.PurchasePrice
		}

		lineTotal := in.Quantity.Mul(in.UnitPrice).Round(2)
		linePurchase := in.Quantity.Mul(purchasePrice).Round(2)
		lineProfit := lineTotal.Sub(linePurchase)

		percentage := decimal.Zero
		if linePurchase.IsPositive() {
			percentage = lineProfit.Div(linePurchase).Mul(hundred).Round(2)
		}
		if in.IsManualPrice && in.ProfitPercentage != nil {
			percentage = in.ProfitPercentage.Round(2)
		}

		t.Items = append(t.Items, model.DocumentItem{
			Position:         i,
			Description:      in.Description,
			Quantity:         in.Quantity,
			UnitPrice:        in.UnitPrice,
			TotalPrice:       lineTotal,
			PurchasePrice:    purchasePrice,
			ProfitAmount:     lineProfit,
			ProfitPercentage: percentage,
			IsManualPrice:    in.IsManualPrice,
		})

		t.TotalAmount = t.TotalAmount.Add(lineTotal)
		t.TotalPurchaseAmount = t.TotalPurchaseAmount.Add(linePurchase)
		t.TotalProfitAmount = t.TotalProfitAmount.Add(lineProfit)
	}

	t.FinalAmount = t.TotalAmount.Sub(discount)
	return t
}

// checkDiscount enforces 0 <= discount <= total.
func checkDiscount(total, discount decimal.Decimal) error {
	if discount.IsNegative() {
		return badRequest("Discount amount cannot be negative")
	}
	if discount.GreaterThan(total) {
		return badRequest("Discount amount %s exceeds total amount %s", formatAmount(discount), formatAmount(total))
	}
	return nil
}
