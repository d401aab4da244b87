package orders

import "github.com/shopspring/decimal"

// Totals carries the monetary summary of an order.
type Totals struct {
	Subtotal  float64
	TaxAmount float64
	Total     float64
}

// lineAmounts computes net, tax, and gross for one line, rounding at
// the line boundary only.
func lineAmounts(unitPrice, quantity, taxRatePct float64) (net, tax, total float64) {
	price := decimal.NewFromFloat(unitPrice)
	qty := decimal.NewFromFloat(quantity)
	rate := decimal.NewFromFloat(taxRatePct).Div(decimal.NewFromInt(100))

	netD := price.Mul(qty).Round(2)
	taxD := netD.Mul(rate).Round(2)
	totalD := netD.Add(taxD)

	net, _ = netD.Float64()
	tax, _ = taxD.Float64()
	total, _ = totalD.Float64()
	return net, tax, total
}

// computeTotals fills line amounts and returns the order totals:
// subtotal is the sum of line nets, tax is subtotal times the rate,
// rounding applied only at line and order boundaries.
func computeTotals(lines []Line, taxRatePct float64) Totals {
	subtotal := decimal.Zero
	for i := range lines {
		lines[i].TaxPct = taxRatePct
		net, tax, total := lineAmounts(lines[i].UnitPrice, lines[i].Quantity, taxRatePct)
		lines[i].AmountNet = net
		lines[i].AmountTax = tax
		lines[i].AmountTotal = total
		subtotal = subtotal.Add(decimal.NewFromFloat(net))
	}

	rate := decimal.NewFromFloat(taxRatePct).Div(decimal.NewFromInt(100))
	subtotal = subtotal.Round(2)
	taxAmount := subtotal.Mul(rate).Round(2)
	total := subtotal.Add(taxAmount).Round(2)

	sub, _ := subtotal.Float64()
	tax, _ := taxAmount.Float64()
	tot, _ := total.Float64()
	return Totals{Subtotal: sub, TaxAmount: tax, Total: tot}
}
