package analytics

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fincoach/coach/internal/domain"
	"github.com/fincoach/coach/internal/money"
)

// Window clamps for the two query families. Routine insight queries look at
// a short window; trend queries need at least a quarter of history.
const (
	MinInsightMonths = 1
	MaxInsightMonths = 6
	MinTrendMonths   = 3
	MaxTrendMonths   = 12
)

// trendDelta is the average month-over-month debit movement, in pounds,
// beyond which spend is classified as increasing or decreasing.
var trendDelta = decimal.NewFromInt(50)

// Engine computes SpendingInsights from one customer's transaction history.
// It holds no mutable state: every query recomputes from the raw records,
// which is the correctness guarantee for grounding.
type Engine struct {
	profile *domain.CustomerProfile
	now     func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock fixes the engine's notion of "today". Tests use this to make
// window cutoffs reproducible.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates an analytics engine over a customer profile.
func NewEngine(profile *domain.CustomerProfile, opts ...Option) *Engine {
	e := &Engine{
		profile: profile,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// monthsAgo returns the first day of the month `months` back from today,
// walking backward with calendar-correct year rollover.
func (e *Engine) monthsAgo(months int) time.Time {
	today := e.now().UTC()
	year, month := today.Year(), int(today.Month())
	month -= months
	for month <= 0 {
		month += 12
		year--
	}
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
}

func monthLabel(year, month int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}

// Insights computes the full verified-facts object over the last `months`
// months. The window is clamped to [1,6].
func (e *Engine) Insights(months int) SpendingInsights {
	months = clamp(months, MinInsightMonths, MaxInsightMonths)
	cutoff := e.monthsAgo(months)

	monthly := e.buildMonthlySummaries(cutoff)
	categories := e.buildCategorySummaries(cutoff)

	spendTotals := make([]decimal.Decimal, 0, len(monthly))
	creditTotals := make([]decimal.Decimal, 0, len(monthly))
	for _, m := range monthly {
		spendTotals = append(spendTotals, m.TotalDebit)
		creditTotals = append(creditTotals, m.TotalCredit)
	}
	avgSpend := money.Avg(spendTotals)
	avgIncome := money.Avg(creditTotals)
	avgSurplus := avgIncome.Sub(avgSpend)

	highest, lowest := minMaxMonths(monthly)

	var eatingOut, groceries decimal.Decimal
	for _, c := range categories {
		switch c.Category {
		case string(domain.CategoryEatingOut):
			eatingOut = c.TotalSpend
		case string(domain.CategoryGroceries):
			groceries = c.TotalSpend
		}
	}
	var ratio *decimal.Decimal
	if eatingOut.IsPositive() && groceries.IsPositive() {
		r := money.Round2(eatingOut.Div(groceries))
		ratio = &r
	}

	subscriptionTotal := decimal.Zero
	for _, t := range e.profile.Transactions {
		if t.IsDebit() && t.Category == domain.CategorySubscriptions && !t.Date.Before(cutoff) {
			subscriptionTotal = subscriptionTotal.Add(t.AbsAmount())
		}
	}
	subscriptionCost := subscriptionTotal.Div(decimal.NewFromInt(int64(months)))

	top := categories
	if len(top) > 6 {
		top = top[:6]
	}

	return SpendingInsights{
		CustomerID:            e.profile.CustomerID,
		PeriodMonths:          months,
		AvgMonthlySpend:       money.Round2(avgSpend),
		AvgMonthlyIncome:      money.Round2(avgIncome),
		AvgMonthlySurplus:     money.Round2(avgSurplus),
		CurrentBalance:        money.Round2(e.profile.CurrentBalance()),
		TopCategories:         top,
		MonthlySummaries:      monthly,
		SpendTrend:            classifyTrend(spendTotals),
		HighestSpendMonth:     highest,
		LowestSpendMonth:      lowest,
		EatingOutGroceryRatio: ratio,
		SubscriptionCost:      money.Round2(subscriptionCost),
	}
}

// buildMonthlySummaries buckets transactions on or after cutoff by calendar
// month, returned in chronological order.
func (e *Engine) buildMonthlySummaries(cutoff time.Time) []MonthlySummary {
	type bucket struct {
		debit, credit decimal.Decimal
		cats          map[string]decimal.Decimal
	}
	buckets := make(map[[2]int]*bucket)

	for _, t := range e.profile.Transactions {
		if t.Date.Before(cutoff) {
			continue
		}
		key := [2]int{t.Date.Year(), int(t.Date.Month())}
		b, ok := buckets[key]
		if !ok {
			b = &bucket{cats: make(map[string]decimal.Decimal)}
			buckets[key] = b
		}
		if t.IsDebit() {
			b.debit = b.debit.Add(t.AbsAmount())
			b.cats[string(t.Category)] = b.cats[string(t.Category)].Add(t.AbsAmount())
		} else {
			b.credit = b.credit.Add(t.Amount)
		}
	}

	keys := make([][2]int, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i][0] != keys[j][0] {
			return keys[i][0] < keys[j][0]
		}
		return keys[i][1] < keys[j][1]
	})

	summaries := make([]MonthlySummary, 0, len(keys))
	for _, k := range keys {
		b := buckets[k]
		breakdown := make(map[string]decimal.Decimal, len(b.cats))
		for cat, v := range b.cats {
			breakdown[cat] = money.Round2(v)
		}
		summaries = append(summaries, MonthlySummary{
			Year:        k[0],
			Month:       k[1],
			TotalDebit:  money.Round2(b.debit),
			TotalCredit: money.Round2(b.credit),
			Net:         money.Round2(b.credit.Sub(b.debit)),
			Breakdown:   breakdown,
		})
	}
	return summaries
}

// buildCategorySummaries aggregates debits on or after cutoff per category,
// sorted by total spend descending.
func (e *Engine) buildCategorySummaries(cutoff time.Time) []CategorySummary {
	type agg struct {
		total, largest decimal.Decimal
		count          int
		merchants      map[string]struct{}
	}
	byCat := make(map[string]*agg)

	for _, t := range e.profile.Transactions {
		if !t.IsDebit() || t.Date.Before(cutoff) {
			continue
		}
		a, ok := byCat[string(t.Category)]
		if !ok {
			a = &agg{merchants: make(map[string]struct{})}
			byCat[string(t.Category)] = a
		}
		amt := t.AbsAmount()
		a.total = a.total.Add(amt)
		a.count++
		if amt.GreaterThan(a.largest) {
			a.largest = amt
		}
		a.merchants[t.Merchant] = struct{}{}
	}

	summaries := make([]CategorySummary, 0, len(byCat))
	for cat, a := range byCat {
		merchants := make([]string, 0, len(a.merchants))
		for m := range a.merchants {
			merchants = append(merchants, m)
		}
		sort.Strings(merchants)
		summaries = append(summaries, CategorySummary{
			Category:           cat,
			TotalSpend:         money.Round2(a.total),
			TransactionCount:   a.count,
			AveragePerTxn:      money.Round2(a.total.Div(decimal.NewFromInt(int64(a.count)))),
			LargestSingleSpend: money.Round2(a.largest),
			Merchants:          merchants,
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		if !summaries[i].TotalSpend.Equal(summaries[j].TotalSpend) {
			return summaries[i].TotalSpend.GreaterThan(summaries[j].TotalSpend)
		}
		return summaries[i].Category < summaries[j].Category
	})
	return summaries
}

// classifyTrend labels the movement of consecutive monthly debit totals.
// Fewer than two months of data reads as stable.
func classifyTrend(monthlyTotals []decimal.Decimal) string {
	if len(monthlyTotals) < 2 {
		return TrendStable
	}
	diffSum := decimal.Zero
	for i := 1; i < len(monthlyTotals); i++ {
		diffSum = diffSum.Add(monthlyTotals[i].Sub(monthlyTotals[i-1]))
	}
	avgDiff := diffSum.Div(decimal.NewFromInt(int64(len(monthlyTotals) - 1)))
	switch {
	case avgDiff.GreaterThan(trendDelta):
		return TrendIncreasing
	case avgDiff.LessThan(trendDelta.Neg()):
		return TrendDecreasing
	default:
		return TrendStable
	}
}

func minMaxMonths(summaries []MonthlySummary) (highest, lowest string) {
	if len(summaries) == 0 {
		return "N/A", "N/A"
	}
	hi, lo := summaries[0], summaries[0]
	for _, s := range summaries[1:] {
		if s.TotalDebit.GreaterThan(hi.TotalDebit) {
			hi = s
		}
		if s.TotalDebit.LessThan(lo.TotalDebit) {
			lo = s
		}
	}
	return hi.Label(), lo.Label()
}
