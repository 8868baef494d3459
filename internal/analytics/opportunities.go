package analytics

import (
	"github.com/shopspring/decimal"

	"github.com/fincoach/coach/internal/domain"
	"github.com/fincoach/coach/internal/money"
)

// Savings-opportunity rule thresholds. Each rule fires or it doesn't;
// there is no partial credit and no randomness.
var (
	eatingOutRatioLimit = decimal.RequireFromString("0.30")
	eatingOutCut        = decimal.RequireFromString("0.3") // suggest capping at 70% of current
	subscriptionLimit   = decimal.NewFromInt(50)
	subscriptionCut     = decimal.RequireFromString("0.25")
	savingsRateFloor    = decimal.RequireFromString("0.10")
	savingsRateTarget   = decimal.RequireFromString("0.20")
)

// SavingsOpportunities evaluates the three deterministic savings rules
// against a fresh 3-month insight window.
func (e *Engine) SavingsOpportunities() SavingsReport {
	insights := e.Insights(3)
	report := SavingsReport{MonthlySurplus: insights.AvgMonthlySurplus}

	// Rule 1: eating out above 30% of grocery spend.
	if insights.EatingOutGroceryRatio != nil && insights.EatingOutGroceryRatio.GreaterThan(eatingOutRatioLimit) {
		for _, c := range insights.TopCategories {
			if c.Category != string(domain.CategoryEatingOut) {
				continue
			}
			monthly := c.TotalSpend.Div(decimal.NewFromInt(int64(insights.PeriodMonths)))
			saving := money.Round2(monthly.Mul(eatingOutCut))
			report.Opportunities = append(report.Opportunities, Opportunity{
				Area:                   "Eating Out",
				MonthlySpend:           money.Round2(monthly),
				PotentialMonthlySaving: saving,
				AnnualSaving:           money.Round2(saving.Mul(decimal.NewFromInt(12))),
				Tip:                    "Reducing eating out by 30% could free up significant funds.",
			})
			break
		}
	}

	// Rule 2: subscriptions above £50 a month.
	if insights.SubscriptionCost.GreaterThan(subscriptionLimit) {
		saving := money.Round2(insights.SubscriptionCost.Mul(subscriptionCut))
		report.Opportunities = append(report.Opportunities, Opportunity{
			Area:                   "Subscriptions",
			MonthlySpend:           insights.SubscriptionCost,
			PotentialMonthlySaving: saving,
			AnnualSaving:           money.Round2(saving.Mul(decimal.NewFromInt(12))),
			Tip:                    "Review unused subscriptions — a common source of silent spending.",
		})
	}

	// Rule 3: savings rate below 10% of income.
	if insights.AvgMonthlyIncome.IsPositive() {
		rate := insights.AvgMonthlySurplus.Div(insights.AvgMonthlyIncome)
		if rate.LessThan(savingsRateFloor) {
			gap := money.Round2(savingsRateTarget.Sub(rate).Mul(insights.AvgMonthlyIncome))
			report.Opportunities = append(report.Opportunities, Opportunity{
				Area:           "Savings Rate",
				CurrentRatePct: rate.Mul(decimal.NewFromInt(100)).Round(1),
				TargetRatePct:  savingsRateTarget.Mul(decimal.NewFromInt(100)),
				GapMonthly:     gap,
				Tip:            "Financial best practice suggests saving at least 20% of take-home pay.",
			})
		}
	}

	return report
}
