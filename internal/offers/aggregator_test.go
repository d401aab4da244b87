package offers

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func rawRow(article string, requestID int64, supplier string, headerID int64, manual bool, price, qty float64) RawRow {
	return RawRow{
		RequestID:     requestID,
		RequestNumber: "DA-2026-0001",
		ArticleCode:   article,
		Designation:   "Widget " + article,
		DemandedQty:   10,
		SupplierCode:  supplier,
		SupplierName:  "Supplier " + supplier,
		HeaderID:      headerID,
		Manual:        manual,
		UnitPrice:     price,
		AvailableQty:  qty,
		Currency:      "EUR",
	}
}

func TestAggregateDeduplicatesSameEnvelope(t *testing.T) {
	// Same supplier, same response header, same origin, split across
	// two request lines: one offer, quantity summed.
	rows := []RawRow{
		rawRow("A100", 1, "SUP-A", 7, false, 50, 3),
		rawRow("A100", 2, "SUP-A", 7, false, 50, 4),
	}

	aggregates := Aggregate(rows)
	require.Len(t, aggregates, 1)
	require.Len(t, aggregates[0].Offers, 1)
	require.InDelta(t, 7.0, aggregates[0].Offers[0].AvailableQty, 0.001)
}

func TestAggregateKeepsDistinctEnvelopesApart(t *testing.T) {
	rows := []RawRow{
		rawRow("A100", 1, "SUP-A", 7, false, 50, 3),
		rawRow("A100", 1, "SUP-A", 8, false, 55, 3),  // second envelope
		rawRow("A100", 1, "SUP-A", 7, true, 50, 2),   // manual origin
		rawRow("A100", 1, "SUP-B", 9, false, 60, 10), // other supplier
	}

	aggregates := Aggregate(rows)
	require.Len(t, aggregates, 1)
	require.Len(t, aggregates[0].Offers, 4)
}

func TestAggregateDedupKeepsFirstSeenFields(t *testing.T) {
	first := rawRow("A100", 1, "SUP-A", 7, false, 50, 3)
	first.Brand = "OEM"
	second := rawRow("A100", 2, "SUP-A", 7, false, 50, 4)
	second.Brand = "generic"

	aggregates := Aggregate([]RawRow{first, second})
	require.Len(t, aggregates[0].Offers, 1)
	require.Equal(t, "OEM", aggregates[0].Offers[0].Brand)
	require.InDelta(t, 50.0, aggregates[0].Offers[0].UnitPrice, 0.001)
}

func TestAggregateSumsDemandAcrossDistinctRequests(t *testing.T) {
	r1 := rawRow("A100", 1, "SUP-A", 7, false, 50, 3)
	r1.DemandedQty = 10
	r2 := rawRow("A100", 2, "SUP-B", 8, false, 60, 3)
	r2.RequestNumber = "DA-2026-0002"
	r2.DemandedQty = 5
	// Same request seen again through another supplier must not
	// double-count demand.
	r3 := rawRow("A100", 1, "SUP-C", 9, false, 70, 3)
	r3.DemandedQty = 10

	aggregates := Aggregate([]RawRow{r1, r2, r3})
	require.Len(t, aggregates, 1)
	require.InDelta(t, 15.0, aggregates[0].DemandedQty, 0.001)
	require.Len(t, aggregates[0].Requests, 2)
}

func TestAggregateSplitsArticles(t *testing.T) {
	rows := []RawRow{
		rawRow("A100", 1, "SUP-A", 7, false, 50, 3),
		rawRow("B200", 1, "SUP-A", 7, false, 80, 1),
	}

	aggregates := Aggregate(rows)
	require.Len(t, aggregates, 2)
	require.Equal(t, "A100", aggregates[0].ArticleCode)
	require.Equal(t, "B200", aggregates[1].ArticleCode)
}

func TestAggregateEmptyInput(t *testing.T) {
	require.Empty(t, Aggregate(nil))
}
