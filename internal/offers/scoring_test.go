package offers

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func days(n int) *int { return &n }

func scoredOffer(supplier string, price float64, leadDays *int) Offer {
	return Offer{SupplierCode: supplier, UnitPrice: price, LeadTimeDays: leadDays}
}

func TestScoreThreeOfferScenario(t *testing.T) {
	// Prices [100, 120, 150], lead times [5, 20, unknown].
	agg := &ArticleAggregate{
		ArticleCode: "A100",
		Offers: []Offer{
			scoredOffer("SUP-A", 100, days(5)),
			scoredOffer("SUP-B", 120, days(20)),
			scoredOffer("SUP-C", 150, nil),
		},
	}
	ScoreArticle(agg)

	// 120 sits 40% into the [100,150] window: 100 - 40 = 60.
	require.InDelta(t, 100.0, agg.Offers[0].PriceScore, 0.001)
	require.InDelta(t, 60.0, agg.Offers[1].PriceScore, 0.001)
	require.InDelta(t, 0.0, agg.Offers[2].PriceScore, 0.001)

	require.InDelta(t, 100.0, agg.Offers[0].LeadTimeScore, 0.001)
	require.InDelta(t, 60.0, agg.Offers[1].LeadTimeScore, 0.001)
	require.InDelta(t, 50.0, agg.Offers[2].LeadTimeScore, 0.001)

	require.InDelta(t, 100.0, agg.Offers[0].GlobalScore, 0.001)
	require.InDelta(t, 60.0, agg.Offers[1].GlobalScore, 0.001)
	require.InDelta(t, 15.0, agg.Offers[2].GlobalScore, 0.001)

	require.Equal(t, "SUP-A", agg.RecommendedSupplier)
	require.Equal(t, "SUP-A", agg.BestPriceSupplier)
	require.Equal(t, "SUP-A", agg.BestLeadTimeSupplier)
	require.InDelta(t, 100.0, agg.BestPrice, 0.001)
	require.InDelta(t, 50.0, agg.SpreadPct, 0.001)
}

func TestScoreAllEqualPrices(t *testing.T) {
	agg := &ArticleAggregate{
		Offers: []Offer{
			scoredOffer("SUP-A", 42, nil),
			scoredOffer("SUP-B", 42, nil),
			scoredOffer("SUP-C", 42, nil),
		},
	}
	ScoreArticle(agg)

	for _, o := range agg.Offers {
		require.InDelta(t, 100.0, o.PriceScore, 0.001)
	}
	require.InDelta(t, 0.0, agg.SpreadPct, 0.001)
}

func TestScoreMonotonicInPrice(t *testing.T) {
	agg := &ArticleAggregate{
		Offers: []Offer{
			scoredOffer("SUP-A", 10, nil),
			scoredOffer("SUP-B", 20, nil),
			scoredOffer("SUP-C", 30, nil),
			scoredOffer("SUP-D", 25, nil),
		},
	}
	ScoreArticle(agg)

	for i, a := range agg.Offers {
		for _, b := range agg.Offers[i+1:] {
			if a.UnitPrice < b.UnitPrice {
				require.GreaterOrEqual(t, a.PriceScore, b.PriceScore)
			}
		}
	}
	require.InDelta(t, 100.0, agg.Offers[0].PriceScore, 0.001)
}

func TestScoreLeadTimeBands(t *testing.T) {
	require.InDelta(t, 100.0, leadTimeScore(days(7)), 0.001)
	require.InDelta(t, 80.0, leadTimeScore(days(8)), 0.001)
	require.InDelta(t, 80.0, leadTimeScore(days(14)), 0.001)
	require.InDelta(t, 60.0, leadTimeScore(days(15)), 0.001)
	require.InDelta(t, 60.0, leadTimeScore(days(30)), 0.001)
	require.InDelta(t, 40.0, leadTimeScore(days(31)), 0.001)
	require.InDelta(t, 50.0, leadTimeScore(nil), 0.001)
}

func TestScoreSpreadGuardsZeroMin(t *testing.T) {
	agg := &ArticleAggregate{
		Offers: []Offer{
			scoredOffer("SUP-A", 0, nil),
			scoredOffer("SUP-B", 10, nil),
		},
	}
	ScoreArticle(agg)
	require.InDelta(t, 0.0, agg.SpreadPct, 0.001)
}

func TestScoreTieBrokenByLowerPrice(t *testing.T) {
	// Equal prices and same lead band produce a genuine tie.
	agg := &ArticleAggregate{
		Offers: []Offer{
			scoredOffer("SUP-A", 42, days(5)),
			scoredOffer("SUP-B", 42, days(6)),
		},
	}
	ScoreArticle(agg)
	require.Equal(t, agg.Offers[0].GlobalScore, agg.Offers[1].GlobalScore)
	// Equal global and equal price: first encountered wins.
	require.Equal(t, "SUP-A", agg.RecommendedSupplier)
}

func TestScoreBestLeadTimeExcludesUnknown(t *testing.T) {
	agg := &ArticleAggregate{
		Offers: []Offer{
			scoredOffer("SUP-A", 10, nil),
			scoredOffer("SUP-B", 20, days(12)),
		},
	}
	ScoreArticle(agg)
	require.Equal(t, "SUP-B", agg.BestLeadTimeSupplier)
	require.NotNil(t, agg.BestLeadTimeDays)
	require.Equal(t, 12, *agg.BestLeadTimeDays)
}

func TestScoreNoLeadTimesAtAll(t *testing.T) {
	agg := &ArticleAggregate{
		Offers: []Offer{scoredOffer("SUP-A", 10, nil)},
	}
	ScoreArticle(agg)
	require.Empty(t, agg.BestLeadTimeSupplier)
	require.Nil(t, agg.BestLeadTimeDays)
}

func TestScoreEmptyAggregateNoop(t *testing.T) {
	agg := &ArticleAggregate{ArticleCode: "A100"}
	ScoreArticle(agg)
	require.Empty(t, agg.RecommendedSupplier)
}
