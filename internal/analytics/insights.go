// Package analytics derives verified spending insights from raw transaction
// records. Every figure it produces is computed directly from transactions
// with fixed-point decimal arithmetic; results are rebuilt on every call so
// that two calls over the same history return identical values. Nothing in
// this package talks to a network or holds mutable state between calls.
package analytics

import (
	"github.com/shopspring/decimal"
)

// Trend labels for month-over-month spend movement.
const (
	TrendIncreasing = "increasing"
	TrendDecreasing = "decreasing"
	TrendStable     = "stable"
)

// CategorySummary aggregates the debits of one category over the analysis
// window. Amounts are positive magnitudes.
type CategorySummary struct {
	Category           string          `json:"category"`
	TotalSpend         decimal.Decimal `json:"total_spend"`
	TransactionCount   int             `json:"transaction_count"`
	AveragePerTxn      decimal.Decimal `json:"average_per_transaction"`
	LargestSingleSpend decimal.Decimal `json:"largest_single_spend"`
	Merchants          []string        `json:"merchants"`
}

// MonthlySummary aggregates one calendar month inside the window.
type MonthlySummary struct {
	Year        int                        `json:"year"`
	Month       int                        `json:"month"`
	TotalDebit  decimal.Decimal            `json:"total_debit"`
	TotalCredit decimal.Decimal            `json:"total_credit"`
	Net         decimal.Decimal            `json:"net"`
	Breakdown   map[string]decimal.Decimal `json:"category_breakdown"`
}

// Label renders the month as "YYYY-MM".
func (m MonthlySummary) Label() string {
	return monthLabel(m.Year, m.Month)
}

// SpendingInsights is the canonical verified-facts object. Every derived
// calculator consumes it and every narrated number traces back to one of
// its fields. Surplus always equals income minus spend within rounding.
type SpendingInsights struct {
	CustomerID            string            `json:"customer_id"`
	PeriodMonths          int               `json:"analysis_period_months"`
	AvgMonthlySpend       decimal.Decimal   `json:"average_monthly_spend"`
	AvgMonthlyIncome      decimal.Decimal   `json:"average_monthly_income"`
	AvgMonthlySurplus     decimal.Decimal   `json:"average_monthly_surplus"`
	CurrentBalance        decimal.Decimal   `json:"current_balance_estimate"`
	TopCategories         []CategorySummary `json:"top_categories"`
	MonthlySummaries      []MonthlySummary  `json:"monthly_summaries"`
	SpendTrend            string            `json:"spend_trend"`
	HighestSpendMonth     string            `json:"highest_spend_month"`
	LowestSpendMonth      string            `json:"lowest_spend_month"`
	EatingOutGroceryRatio *decimal.Decimal  `json:"eating_out_vs_groceries_ratio,omitempty"`
	SubscriptionCost      decimal.Decimal   `json:"subscription_monthly_cost"`
}

// MerchantSpend ranks one merchant inside a category drill-down.
type MerchantSpend struct {
	Merchant string          `json:"merchant"`
	Total    decimal.Decimal `json:"total"`
}

// CategoryDetail is the drill-down result for a single category. An unknown
// or unused category yields a zero-count detail, not an error.
type CategoryDetail struct {
	Category         string              `json:"category"`
	PeriodMonths     int                 `json:"period_months"`
	TotalSpend       decimal.Decimal     `json:"total_spend"`
	TransactionCount int                 `json:"transaction_count"`
	AveragePerMonth  decimal.Decimal     `json:"average_per_month"`
	TopMerchants     []MerchantSpend     `json:"top_merchants"`
	Transactions     []DetailTransaction `json:"transactions"`
}

// DetailTransaction is one matching transaction in a drill-down, newest first.
type DetailTransaction struct {
	Date     string          `json:"date"`
	Merchant string          `json:"merchant"`
	Amount   decimal.Decimal `json:"amount"`
}

// Opportunity is one fired savings-opportunity rule.
type Opportunity struct {
	Area                   string          `json:"area"`
	MonthlySpend           decimal.Decimal `json:"monthly_spend,omitempty"`
	PotentialMonthlySaving decimal.Decimal `json:"potential_monthly_saving,omitempty"`
	AnnualSaving           decimal.Decimal `json:"annual_saving,omitempty"`
	CurrentRatePct         decimal.Decimal `json:"current_rate_pct,omitempty"`
	TargetRatePct          decimal.Decimal `json:"target_rate_pct,omitempty"`
	GapMonthly             decimal.Decimal `json:"gap_monthly,omitempty"`
	Tip                    string          `json:"tip"`
}

// SavingsReport bundles the fired opportunities for one customer.
type SavingsReport struct {
	MonthlySurplus decimal.Decimal `json:"monthly_surplus"`
	Opportunities  []Opportunity   `json:"opportunities"`
}

// TimelineEntry is one month of the long-term trend view.
type TimelineEntry struct {
	Month   string          `json:"month"`
	Income  decimal.Decimal `json:"income"`
	Spend   decimal.Decimal `json:"spend"`
	Surplus decimal.Decimal `json:"surplus"`
}

// PeriodCategory ranks a category over the whole long-term window.
type PeriodCategory struct {
	Category   string          `json:"category"`
	Total      decimal.Decimal `json:"total"`
	MonthlyAvg decimal.Decimal `json:"monthly_avg"`
}

// SurplusTrend compares the first and second half of the window.
type SurplusTrend struct {
	Direction         string          `json:"direction"` // improving | declining | stable
	Change            decimal.Decimal `json:"change_vs_earlier_period"`
	RecentAvgSurplus  decimal.Decimal `json:"recent_avg_monthly_surplus"`
	EarlierAvgSurplus decimal.Decimal `json:"earlier_avg_monthly_surplus"`
}

// MonthAmount names a month and an amount together.
type MonthAmount struct {
	Month  string          `json:"month"`
	Amount decimal.Decimal `json:"amount"`
}

// LongTermTrends is the extended 3-12 month trend analysis.
type LongTermTrends struct {
	PeriodMonths      int              `json:"analysis_period_months"`
	Timeline          []TimelineEntry  `json:"timeline"`
	Surplus           SurplusTrend     `json:"surplus_trend"`
	HighestSpendMonth MonthAmount      `json:"highest_spend_month"`
	LowestSpendMonth  MonthAmount      `json:"lowest_spend_month"`
	TopCategories     []PeriodCategory `json:"top_categories_over_period"`
	YearOnYear        string           `json:"year_on_year_comparison,omitempty"`
}
