package offers

// Score weights: price dominates, lead time moderates.
const (
	priceWeight    = 0.7
	leadTimeWeight = 0.3
)

// neutralLeadScore applies when an offer carries no lead time.
const neutralLeadScore = 50.0

// leadTimeScore bands delivery delays into 0-100.
func leadTimeScore(days *int) float64 {
	if days == nil {
		return neutralLeadScore
	}
	switch {
	case *days <= 7:
		return 100
	case *days <= 14:
		return 80
	case *days <= 30:
		return 60
	default:
		return 40
	}
}

// ScoreArticle computes price, lead-time, and global scores for every
// offer of the aggregate and fills the derived recommendation fields.
// The minimum-priced offer always scores 100 on price; other offers
// interpolate linearly down to 0 at the maximum price. Equal prices
// across the board all score 100.
func ScoreArticle(agg *ArticleAggregate) {
	if len(agg.Offers) == 0 {
		return
	}

	minPrice := agg.Offers[0].UnitPrice
	maxPrice := agg.Offers[0].UnitPrice
	for _, o := range agg.Offers[1:] {
		if o.UnitPrice < minPrice {
			minPrice = o.UnitPrice
		}
		if o.UnitPrice > maxPrice {
			maxPrice = o.UnitPrice
		}
	}

	priceRange := maxPrice - minPrice
	for i := range agg.Offers {
		o := &agg.Offers[i]
		if priceRange == 0 {
			o.PriceScore = 100
		} else {
			o.PriceScore = 100 - (o.UnitPrice-minPrice)/priceRange*100
		}
		o.LeadTimeScore = leadTimeScore(o.LeadTimeDays)
		o.GlobalScore = priceWeight*o.PriceScore + leadTimeWeight*o.LeadTimeScore
	}

	agg.BestPrice = minPrice
	if minPrice == 0 {
		agg.SpreadPct = 0
	} else {
		agg.SpreadPct = priceRange / minPrice * 100
	}

	bestPriceIdx := 0
	recommendedIdx := 0
	bestLeadIdx := -1
	for i, o := range agg.Offers {
		if o.UnitPrice < agg.Offers[bestPriceIdx].UnitPrice {
			bestPriceIdx = i
		}
		if o.LeadTimeDays != nil && (bestLeadIdx == -1 || *o.LeadTimeDays < *agg.Offers[bestLeadIdx].LeadTimeDays) {
			bestLeadIdx = i
		}
		if i == 0 {
			continue
		}
		// Highest global score wins; ties go to the cheaper offer,
		// then to the first one encountered.
		current := agg.Offers[recommendedIdx]
		switch {
		case o.GlobalScore > current.GlobalScore:
			recommendedIdx = i
		case o.GlobalScore == current.GlobalScore && o.UnitPrice < current.UnitPrice:
			recommendedIdx = i
		}
	}

	agg.BestPriceSupplier = agg.Offers[bestPriceIdx].SupplierCode
	if bestLeadIdx >= 0 {
		agg.BestLeadTimeDays = agg.Offers[bestLeadIdx].LeadTimeDays
		agg.BestLeadTimeSupplier = agg.Offers[bestLeadIdx].SupplierCode
	}
	agg.RecommendedSupplier = agg.Offers[recommendedIdx].SupplierCode
}
