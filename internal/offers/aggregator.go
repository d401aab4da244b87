package offers

// offerKey identifies one deduplicated offer: rows from the same
// supplier, response envelope, and origin collapse into one offer.
type offerKey struct {
	supplierCode string
	headerID     int64
	manual       bool
}

// Aggregate groups raw response rows by article, sums demanded
// quantity across distinct requests, and deduplicates offers by
// (supplier code, response header, manual flag), summing available
// quantity across collapsed rows. Article and offer order follow
// first encounter in the input.
func Aggregate(rows []RawRow) []ArticleAggregate {
	var order []string
	byArticle := map[string]*ArticleAggregate{}
	seenRequests := map[string]map[int64]bool{}
	offerIndex := map[string]map[offerKey]int{}

	for _, row := range rows {
		agg, ok := byArticle[row.ArticleCode]
		if !ok {
			agg = &ArticleAggregate{
				ArticleCode: row.ArticleCode,
				Designation: row.Designation,
			}
			byArticle[row.ArticleCode] = agg
			seenRequests[row.ArticleCode] = map[int64]bool{}
			offerIndex[row.ArticleCode] = map[offerKey]int{}
			order = append(order, row.ArticleCode)
		}

		if !seenRequests[row.ArticleCode][row.RequestID] {
			seenRequests[row.ArticleCode][row.RequestID] = true
			agg.DemandedQty += row.DemandedQty
			agg.Requests = append(agg.Requests, RequestRef{
				ID:       row.RequestID,
				Number:   row.RequestNumber,
				Quantity: row.DemandedQty,
			})
		}

		key := offerKey{supplierCode: row.SupplierCode, headerID: row.HeaderID, manual: row.Manual}
		if idx, dup := offerIndex[row.ArticleCode][key]; dup {
			// Same offer split across request lines: sum quantity,
			// keep every other field from the first-seen row.
			agg.Offers[idx].AvailableQty += row.AvailableQty
			continue
		}
		offerIndex[row.ArticleCode][key] = len(agg.Offers)
		agg.Offers = append(agg.Offers, Offer{
			SupplierID:     row.SupplierID,
			SupplierCode:   row.SupplierCode,
			SupplierName:   row.SupplierName,
			HeaderID:       row.HeaderID,
			ResponseLineID: row.ResponseLineID,
			Manual:         row.Manual,
			UnitPrice:      row.UnitPrice,
			AvailableQty:   row.AvailableQty,
			Currency:       row.Currency,
			Brand:          row.Brand,
			BrandConforms:  row.BrandConforms,
			DeliveryDate:   row.DeliveryDate,
			LeadTimeDays:   row.LeadTimeDays,
			ReferencePrice: row.ReferencePrice,
		})
	}

	out := make([]ArticleAggregate, 0, len(order))
	for _, code := range order {
		out = append(out, *byArticle[code])
	}
	return out
}
