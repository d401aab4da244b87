package orders

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComputeTotalsSpecScenario(t *testing.T) {
	// Two selections: unit price 50 qty 3, unit price 80 qty 2, 20% tax.
	lines := []Line{
		{UnitPrice: 50, Quantity: 3},
		{UnitPrice: 80, Quantity: 2},
	}

	totals := computeTotals(lines, 20)
	require.InDelta(t, 310.00, totals.Subtotal, 0.001)
	require.InDelta(t, 62.00, totals.TaxAmount, 0.001)
	require.InDelta(t, 372.00, totals.Total, 0.001)

	require.InDelta(t, 150.00, lines[0].AmountNet, 0.001)
	require.InDelta(t, 30.00, lines[0].AmountTax, 0.001)
	require.InDelta(t, 180.00, lines[0].AmountTotal, 0.001)
	require.InDelta(t, 160.00, lines[1].AmountNet, 0.001)
	require.InDelta(t, 192.00, lines[1].AmountTotal, 0.001)
}

func TestComputeTotalsRoundsAtBoundariesOnly(t *testing.T) {
	// 3 × 33.333 = 99.999 → 100.00 at the line boundary.
	lines := []Line{{UnitPrice: 33.333, Quantity: 3}}

	totals := computeTotals(lines, 20)
	require.InDelta(t, 100.00, lines[0].AmountNet, 0.001)
	require.InDelta(t, 100.00, totals.Subtotal, 0.001)
	require.InDelta(t, 20.00, totals.TaxAmount, 0.001)
	require.InDelta(t, 120.00, totals.Total, 0.001)
}

func TestComputeTotalsMatchesLineSum(t *testing.T) {
	lines := []Line{
		{UnitPrice: 12.34, Quantity: 7},
		{UnitPrice: 0.99, Quantity: 13},
		{UnitPrice: 250, Quantity: 1},
	}

	totals := computeTotals(lines, 20)
	var lineTotalSum float64
	for _, l := range lines {
		lineTotalSum += l.AmountTotal
	}
	require.InDelta(t, lineTotalSum, totals.Total, 0.005)
}

func TestComputeTotalsZeroTaxRate(t *testing.T) {
	lines := []Line{{UnitPrice: 10, Quantity: 2}}

	totals := computeTotals(lines, 0)
	require.InDelta(t, 20.00, totals.Subtotal, 0.001)
	require.Zero(t, totals.TaxAmount)
	require.InDelta(t, 20.00, totals.Total, 0.001)
}
