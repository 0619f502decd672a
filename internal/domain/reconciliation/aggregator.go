package reconciliation

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Aggregate sums resolved sales per admin code. The result is ordered by code.
func Aggregate(sales []ResolvedSale) []AggregatedSale {
	totals := make(map[int64]decimal.Decimal)
	for _, s := range sales {
		totals[s.AdminCode] = totals[s.AdminCode].Add(s.QuantitySold)
	}

	out := make([]AggregatedSale, 0, len(totals))
	for code, total := range totals {
		out = append(out, AggregatedSale{AdminCode: code, TotalSold: total})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].AdminCode < out[j].AdminCode
	})
	return out
}
