// Package health computes the five-pillar financial health score. Scoring
// is rule-based and fully auditable: every pillar explanation embeds the
// exact computed figure that produced its score, so any score can be traced
// back to a cited number with no generative step involved.
package health

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/fincoach/coach/internal/analytics"
	"github.com/fincoach/coach/internal/domain"
	"github.com/fincoach/coach/internal/money"
)

// MaxScore is the overall ceiling; pillar ceilings sum to it.
const MaxScore = 100

// Pillar ceilings.
const (
	MaxSavingsRate      = 30
	MaxSpendStability   = 20
	MaxEssentialsRatio  = 20
	MaxSubscriptionLoad = 15
	MaxSurplusBuffer    = 15
)

// EssentialCategories are the categories the essentials-ratio pillar
// treats as non-discretionary.
var EssentialCategories = map[domain.Category]bool{
	domain.CategoryGroceries: true,
	domain.CategoryUtilities: true,
	domain.CategoryTransport: true,
	domain.CategoryHealth:    true,
}

// Pillar is one scored dimension of the report.
type Pillar struct {
	Name        string `json:"name"`
	Score       int    `json:"score"`
	MaxScore    int    `json:"max_score"`
	Grade       string `json:"grade"`
	Explanation string `json:"explanation"`
}

// Report is the full health score. Raw metrics are surfaced alongside the
// pillars for auditability.
type Report struct {
	CustomerID      string          `json:"customer_id"`
	OverallScore    int             `json:"overall_score"`
	OverallGrade    string          `json:"overall_grade"`
	Summary         string          `json:"summary"`
	Pillars         []Pillar        `json:"pillars"`
	SavingsRatePct  decimal.Decimal `json:"savings_rate_pct"`
	EssentialsPct   decimal.Decimal `json:"essentials_pct"`
	SubscriptionPct decimal.Decimal `json:"subscription_pct"`
	MonthsBuffer    decimal.Decimal `json:"months_buffer"`
}

var gradeSummaries = map[string]string{
	"A": "Your finances are in great shape. Keep it up.",
	"B": "Good financial health with a few areas to optimise.",
	"C": "Some improvements could significantly boost your position.",
	"D": "Your finances need attention — let's identify quick wins.",
}

// grade applies the fixed threshold table, identical at pillar and overall
// level: >=85% A, >=70% B, >=50% C, else D.
func grade(score, max int) string {
	ratio := float64(score) / float64(max)
	switch {
	case ratio >= 0.85:
		return "A"
	case ratio >= 0.70:
		return "B"
	case ratio >= 0.50:
		return "C"
	default:
		return "D"
	}
}

// Compute derives the health report from verified spending insights. Pure
// function: same insights, same report.
func Compute(insights analytics.SpendingInsights) Report {
	income := insights.AvgMonthlyIncome
	spend := insights.AvgMonthlySpend
	pillars := make([]Pillar, 0, 5)

	// 1. Savings rate (0-30).
	savingsRate := money.SafeDiv(income.Sub(spend), income)
	savingsRatePct := savingsRate.Mul(decimal.NewFromInt(100)).Round(1)
	var srScore int
	var srExplanation string
	switch {
	case savingsRate.GreaterThanOrEqual(decimal.RequireFromString("0.20")):
		srScore = 30
		srExplanation = fmt.Sprintf("Excellent — saving %s%% of income (target: ≥20%%).", savingsRatePct)
	case savingsRate.GreaterThanOrEqual(decimal.RequireFromString("0.10")):
		srScore = 20
		srExplanation = fmt.Sprintf("Good — saving %s%% of income. Aim for 20%% to score higher.", savingsRatePct)
	case savingsRate.GreaterThanOrEqual(decimal.RequireFromString("0.05")):
		srScore = 10
		srExplanation = fmt.Sprintf("Fair — saving %s%% of income. Small increases make a big difference.", savingsRatePct)
	default:
		srScore = int(savingsRate.Mul(decimal.NewFromInt(100)).IntPart())
		if srScore < 0 {
			srScore = 0
		}
		srExplanation = fmt.Sprintf("Needs attention — saving only %s%% of income. Consider a savings pot.", savingsRatePct)
	}
	pillars = append(pillars, Pillar{
		Name: "Savings Rate", Score: srScore, MaxScore: MaxSavingsRate,
		Grade: grade(srScore, MaxSavingsRate), Explanation: srExplanation,
	})

	// 2. Spend stability (0-20): coefficient of variation of monthly debit
	// totals. A single month of history reads as maximally stable.
	cv := spendCV(insights.MonthlySummaries)
	var ssScore int
	var ssExplanation string
	switch {
	case cv.LessThan(decimal.NewFromInt(10)):
		ssScore = 20
		ssExplanation = fmt.Sprintf("Very stable spending (variation: %s%%). Great budgeting consistency.", cv)
	case cv.LessThan(decimal.NewFromInt(20)):
		ssScore = 15
		ssExplanation = fmt.Sprintf("Mostly stable (variation: %s%%). Minor month-to-month swings.", cv)
	case cv.LessThan(decimal.NewFromInt(35)):
		ssScore = 8
		ssExplanation = fmt.Sprintf("Moderate variation (%s%%) — some months spend significantly more.", cv)
	default:
		ssScore = 3
		ssExplanation = fmt.Sprintf("High variation (%s%%) — spending is unpredictable. A monthly budget could help.", cv)
	}
	pillars = append(pillars, Pillar{
		Name: "Spend Stability", Score: ssScore, MaxScore: MaxSpendStability,
		Grade: grade(ssScore, MaxSpendStability), Explanation: ssExplanation,
	})

	// 3. Essentials ratio (0-20).
	totalSpend := decimal.Zero
	essentials := decimal.Zero
	for _, c := range insights.TopCategories {
		totalSpend = totalSpend.Add(c.TotalSpend)
		if EssentialCategories[domain.Category(c.Category)] {
			essentials = essentials.Add(c.TotalSpend)
		}
	}
	essentialsPct := money.SafeDiv(essentials, totalSpend).Mul(decimal.NewFromInt(100)).Round(1)
	var erScore int
	var erExplanation string
	switch {
	case essentialsPct.LessThanOrEqual(decimal.NewFromInt(60)):
		erScore = 20
		erExplanation = fmt.Sprintf("Healthy balance — %s%% on essentials, leaving room for savings.", essentialsPct)
	case essentialsPct.LessThanOrEqual(decimal.NewFromInt(75)):
		erScore = 13
		erExplanation = fmt.Sprintf("%s%% of spend on essentials — limited discretionary headroom.", essentialsPct)
	default:
		erScore = 5
		erExplanation = fmt.Sprintf("%s%% on essentials is high. Review fixed costs where possible.", essentialsPct)
	}
	pillars = append(pillars, Pillar{
		Name: "Essentials Balance", Score: erScore, MaxScore: MaxEssentialsRatio,
		Grade: grade(erScore, MaxEssentialsRatio), Explanation: erExplanation,
	})

	// 4. Subscription load (0-15).
	subPct := money.SafeDiv(insights.SubscriptionCost, income).Mul(decimal.NewFromInt(100)).Round(1)
	var subScore int
	var subExplanation string
	switch {
	case subPct.LessThanOrEqual(decimal.NewFromInt(3)):
		subScore = 15
		subExplanation = fmt.Sprintf("Low subscription load (%s%% of income = %s/mo).", subPct, money.GBP(insights.SubscriptionCost))
	case subPct.LessThanOrEqual(decimal.NewFromInt(6)):
		subScore = 10
		subExplanation = fmt.Sprintf("Moderate subscriptions (%s%% of income = %s/mo). Worth an annual review.", subPct, money.GBP(insights.SubscriptionCost))
	default:
		subScore = 4
		subExplanation = fmt.Sprintf("High subscription load (%s%% of income = %s/mo). Consider consolidating.", subPct, money.GBP(insights.SubscriptionCost))
	}
	pillars = append(pillars, Pillar{
		Name: "Subscription Load", Score: subScore, MaxScore: MaxSubscriptionLoad,
		Grade: grade(subScore, MaxSubscriptionLoad), Explanation: subExplanation,
	})

	// 5. Surplus buffer (0-15): months of runway in the current balance.
	monthsBuffer := money.SafeDiv(insights.CurrentBalance, spend).Round(1)
	var bufScore int
	var bufExplanation string
	switch {
	case monthsBuffer.GreaterThanOrEqual(decimal.NewFromInt(3)):
		bufScore = 15
		bufExplanation = fmt.Sprintf("Strong buffer — %s months of expenses in account (target: ≥3 months).", monthsBuffer)
	case monthsBuffer.GreaterThanOrEqual(decimal.NewFromInt(1)):
		bufScore = 8
		bufExplanation = fmt.Sprintf("%s months buffer. Building to 3 months provides a solid safety net.", monthsBuffer)
	default:
		bufScore = 3
		bufExplanation = fmt.Sprintf("Low buffer (%s months). Priority: build an emergency fund.", monthsBuffer)
	}
	pillars = append(pillars, Pillar{
		Name: "Emergency Buffer", Score: bufScore, MaxScore: MaxSurplusBuffer,
		Grade: grade(bufScore, MaxSurplusBuffer), Explanation: bufExplanation,
	})

	overall := 0
	for _, p := range pillars {
		overall += p.Score
	}
	overallGrade := grade(overall, MaxScore)

	return Report{
		CustomerID:      insights.CustomerID,
		OverallScore:    overall,
		OverallGrade:    overallGrade,
		Summary:         gradeSummaries[overallGrade],
		Pillars:         pillars,
		SavingsRatePct:  savingsRatePct,
		EssentialsPct:   essentialsPct,
		SubscriptionPct: subPct,
		MonthsBuffer:    monthsBuffer,
	}
}

// spendCV is the population coefficient of variation of monthly debit
// totals, as a percentage with one decimal place. The square root runs
// through float64; the result is a display percentage, not a monetary
// value, and the conversion is deterministic for fixed input.
func spendCV(summaries []analytics.MonthlySummary) decimal.Decimal {
	if len(summaries) < 2 {
		return decimal.Zero
	}
	totals := make([]decimal.Decimal, 0, len(summaries))
	for _, s := range summaries {
		totals = append(totals, s.TotalDebit)
	}
	mean := money.Avg(totals)
	if !mean.IsPositive() {
		return decimal.Zero
	}
	variance := decimal.Zero
	for _, v := range totals {
		d := v.Sub(mean)
		variance = variance.Add(d.Mul(d))
	}
	variance = variance.Div(decimal.NewFromInt(int64(len(totals))))
	stdDev := math.Sqrt(variance.InexactFloat64())
	return decimal.NewFromFloat(stdDev).Div(mean).Mul(decimal.NewFromInt(100)).Round(1)
}
