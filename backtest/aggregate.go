package backtest

import (
	"sort"
	"time"

	"github.com/rustyeddy/signalbt/market"
)

// Aggregate sums PortfolioValue across symbols per timestamp. A timestamp
// contributes only the symbols that have a state at it; nothing is forward
// filled. The result is ascending in UTC with one point per distinct
// instant and does not depend on the order of the inputs.
func Aggregate(series ...[]market.AccountState) []market.PortfolioPoint {
	byTime := make(map[time.Time][]float64)
	for _, states := range series {
		for _, s := range states {
			k := s.Time.UTC()
			byTime[k] = append(byTime[k], s.PortfolioValue)
		}
	}

	keys := make([]time.Time, 0, len(byTime))
	for k := range byTime {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })

	out := make([]market.PortfolioPoint, 0, len(keys))
	for _, k := range keys {
		out = append(out, market.PortfolioPoint{Time: k, TotalValue: sum(byTime[k])})
	}
	return out
}

// sum adds in ascending order so the total is the same however the inputs
// were ordered.
func sum(values []float64) float64 {
	sort.Float64s(values)
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}
