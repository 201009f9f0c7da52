package dashboard

import "time"

// MonthlyStats aggregates payment transactions created within one month.
// Amounts only count successful transactions.
type MonthlyStats struct {
	Month               string `json:"month"`
	SuccessCount        int64  `json:"success_count"`
	PendingCount        int64  `json:"pending_count"`
	FailedCount         int64  `json:"failed_count"`
	TotalAmountCentimes int64  `json:"total_amount_centimes"`
}

// RepositoryAPI is the read-only aggregation contract. StatsForRange
// covers [start, end).
type RepositoryAPI interface {
	StatsForRange(start, end time.Time) (*MonthlyStats, error)
}

// Report compares a month with the one before it.
type Report struct {
	Current          *MonthlyStats `json:"current"`
	Previous         *MonthlyStats `json:"previous"`
	SuccessVariation float64       `json:"success_variation_pct"`
	AmountVariation  float64       `json:"amount_variation_pct"`
	FailedVariation  float64       `json:"failed_variation_pct"`
}
