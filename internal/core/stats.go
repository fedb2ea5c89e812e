// Portfolio statistics over an arbitrary subset of the collection. The
// functions here are filter-agnostic: callers decide which statuses or
// sources to include and pass the subset in.

package core

import "github.com/shopspring/decimal"

// PortfolioStats is the summary view served by the stats endpoints.
type PortfolioStats struct {
	Count              int              `json:"count"`
	TotalPrincipal     int64            `json:"totalPrincipal"`
	WeightedAnnualRate float64          `json:"weightedAnnualRate"`
	MonthlyInterest    int64            `json:"monthlyInterest"`
	CollectedInterest  int64            `json:"collectedInterest"`
	Allocation         map[string]int64 `json:"allocation"`
	StatusCounts       map[Status]int   `json:"statusCounts"`
}

// WeightedAnnualRate returns the principal-weighted annualized yield in
// percent: (Σ principal × monthlyRate / Σ principal) × 12. An empty
// set, or one whose principal sums to zero, yields 0 rather than a
// division by zero.
func WeightedAnnualRate(investments []Investment) float64 {
	var totalPrincipal int64
	weighted := decimal.Zero
	for _, inv := range investments {
		totalPrincipal += inv.Principal
		weighted = weighted.Add(decimal.NewFromInt(inv.Principal).Mul(decimal.NewFromFloat(inv.MonthlyRate)))
	}
	if totalPrincipal == 0 {
		return 0
	}
	annual := weighted.Div(decimal.NewFromInt(totalPrincipal)).Mul(decimal.NewFromInt(12))
	rate, _ := annual.Float64()
	return rate
}

// SourceAllocation groups principal by source name.
func SourceAllocation(investments []Investment) map[string]int64 {
	allocation := make(map[string]int64)
	for _, inv := range investments {
		allocation[inv.Source] += inv.Principal
	}
	return allocation
}

// Stats computes the full summary for the given subset.
func Stats(investments []Investment) PortfolioStats {
	stats := PortfolioStats{
		Count:        len(investments),
		Allocation:   SourceAllocation(investments),
		StatusCounts: make(map[Status]int),
	}
	for _, inv := range investments {
		stats.TotalPrincipal += inv.Principal
		stats.MonthlyInterest += inv.MonthlyInterest()
		stats.CollectedInterest += inv.CollectedInterest()
		stats.StatusCounts[inv.Status]++
	}
	stats.WeightedAnnualRate = WeightedAnnualRate(investments)
	return stats
}
