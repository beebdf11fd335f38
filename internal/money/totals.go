package money

import "github.com/shopspring/decimal"

// BpsDenominator converts basis points to a fraction (10000 bps = 100%).
const BpsDenominator int64 = 10000

// LineTotals is the derived arithmetic for one invoice line.
type LineTotals struct {
	Subtotal int64
	Discount int64
	Tax      int64
	Total    int64
}

// Totals is the full invoice-level breakdown. The identity
// total = subtotal - itemDiscount + itemTax - invoiceDiscount + invoiceTax
// holds with every intermediate clamped at zero.
type Totals struct {
	Subtotal        int64
	ItemDiscount    int64
	ItemTax         int64
	InvoiceDiscount int64
	InvoiceTax      int64
	Total           int64
}

// LineInput describes one line item for total computation. Quantity is a
// decimal because hourly and metered billing produce fractional counts.
type LineInput struct {
	Quantity       decimal.Decimal
	UnitPriceMinor int64
	TaxRateBps     int64
	DiscountMinor  int64
}

// LineItemTotal computes one line's subtotal, discount, tax and total.
// The quantity multiplication rounds exactly once, on the final product;
// the discount is clamped at zero before tax is charged on the remainder.
func LineItemTotal(quantity decimal.Decimal, unitPriceMinor, taxRateBps, discountMinor int64) LineTotals {
	subtotal := quantity.
		Mul(decimal.NewFromInt(unitPriceMinor)).
		Round(0).
		IntPart()

	afterDiscount := subtotal - discountMinor
	if afterDiscount < 0 {
		afterDiscount = 0
	}

	tax := roundBps(afterDiscount, taxRateBps)

	return LineTotals{
		Subtotal: subtotal,
		Discount: discountMinor,
		Tax:      tax,
		Total:    afterDiscount + tax,
	}
}

// InvoiceTotals folds the line items and then applies invoice-level
// discount and tax, in that order. Item-level effects always resolve
// before invoice-level effects; reassociating changes the result.
func InvoiceTotals(lines []LineInput, invoiceDiscountMinor, invoiceTaxRateBps int64) Totals {
	var subtotal, itemDiscount, itemTax int64
	for _, line := range lines {
		lt := LineItemTotal(line.Quantity, line.UnitPriceMinor, line.TaxRateBps, line.DiscountMinor)
		subtotal += lt.Subtotal
		itemDiscount += lt.Discount
		itemTax += lt.Tax
	}

	base := subtotal - itemDiscount + itemTax
	if base < 0 {
		base = 0
	}

	afterInvoiceDiscount := base - invoiceDiscountMinor
	if afterInvoiceDiscount < 0 {
		afterInvoiceDiscount = 0
	}

	invoiceTax := roundBps(afterInvoiceDiscount, invoiceTaxRateBps)

	return Totals{
		Subtotal:        subtotal,
		ItemDiscount:    itemDiscount,
		ItemTax:         itemTax,
		InvoiceDiscount: invoiceDiscountMinor,
		InvoiceTax:      invoiceTax,
		Total:           afterInvoiceDiscount + invoiceTax,
	}
}

// BalanceDue returns the unpaid remainder of an invoice, never negative
// even when payments overshoot the total.
func BalanceDue(totalMinor int64, paymentsMinor []int64) int64 {
	var paid int64
	for _, p := range paymentsMinor {
		paid += p
	}
	balance := totalMinor - paid
	if balance < 0 {
		return 0
	}
	return balance
}

// roundBps applies a basis-point rate to a minor-unit base, rounding half
// away from zero.
func roundBps(baseMinor, rateBps int64) int64 {
	if rateBps == 0 || baseMinor == 0 {
		return 0
	}
	return decimal.NewFromInt(baseMinor).
		Mul(decimal.NewFromInt(rateBps)).
		Div(decimal.NewFromInt(BpsDenominator)).
		Round(0).
		IntPart()
}
