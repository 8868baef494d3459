package analytics

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/fincoach/coach/internal/money"
)

// Trends computes the long-term view over up to a year of history. The
// window is clamped to [3,12] months.
func (e *Engine) Trends(months int) LongTermTrends {
	months = clamp(months, MinTrendMonths, MaxTrendMonths)
	cutoff := e.monthsAgo(months)
	summaries := e.buildMonthlySummaries(cutoff)

	result := LongTermTrends{PeriodMonths: months}
	if len(summaries) == 0 {
		return result
	}

	for _, s := range summaries {
		result.Timeline = append(result.Timeline, TimelineEntry{
			Month:   s.Label(),
			Income:  s.TotalCredit,
			Spend:   s.TotalDebit,
			Surplus: s.Net,
		})
	}

	// Surplus direction: first half of the window vs second half.
	mid := len(summaries) / 2
	firstHalf := make([]decimal.Decimal, 0, mid)
	secondHalf := make([]decimal.Decimal, 0, len(summaries)-mid)
	for i, s := range summaries {
		if i < mid {
			firstHalf = append(firstHalf, s.Net)
		} else {
			secondHalf = append(secondHalf, s.Net)
		}
	}
	earlier := money.Avg(firstHalf)
	recent := money.Avg(secondHalf)
	direction := TrendStable
	if recent.GreaterThan(earlier) {
		direction = "improving"
	} else if recent.LessThan(earlier) {
		direction = "declining"
	}
	result.Surplus = SurplusTrend{
		Direction:         direction,
		Change:            money.Round2(recent.Sub(earlier).Abs()),
		RecentAvgSurplus:  money.Round2(recent),
		EarlierAvgSurplus: money.Round2(earlier),
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
	result.HighestSpendMonth = MonthAmount{Month: hi.Label(), Amount: hi.TotalDebit}
	result.LowestSpendMonth = MonthAmount{Month: lo.Label(), Amount: lo.TotalDebit}

	// Category totals over the whole window.
	totals := make(map[string]decimal.Decimal)
	for _, t := range e.profile.Transactions {
		if t.IsDebit() && !t.Date.Before(cutoff) {
			totals[string(t.Category)] = totals[string(t.Category)].Add(t.AbsAmount())
		}
	}
	cats := make([]PeriodCategory, 0, len(totals))
	for cat, total := range totals {
		cats = append(cats, PeriodCategory{
			Category:   cat,
			Total:      money.Round2(total),
			MonthlyAvg: money.Round2(total.Div(decimal.NewFromInt(int64(months)))),
		})
	}
	sort.Slice(cats, func(i, j int) bool {
		if !cats[i].Total.Equal(cats[j].Total) {
			return cats[i].Total.GreaterThan(cats[j].Total)
		}
		return cats[i].Category < cats[j].Category
	})
	if len(cats) > 6 {
		cats = cats[:6]
	}
	result.TopCategories = cats

	// Year on year: last 3 months against the same 3 months a year earlier,
	// only when a full year was requested and both periods have data.
	if months >= 12 {
		recentCutoff := e.monthsAgo(3)
		priorStart := e.monthsAgo(15)
		priorEnd := e.monthsAgo(12)

		recentTotal, priorTotal := decimal.Zero, decimal.Zero
		recentSeen, priorSeen := false, false
		for _, t := range e.profile.Transactions {
			if !t.IsDebit() {
				continue
			}
			if !t.Date.Before(recentCutoff) {
				recentTotal = recentTotal.Add(t.AbsAmount())
				recentSeen = true
			} else if !t.Date.Before(priorStart) && t.Date.Before(priorEnd) {
				priorTotal = priorTotal.Add(t.AbsAmount())
				priorSeen = true
			}
		}
		if recentSeen && priorSeen && priorTotal.IsPositive() {
			changePct := recentTotal.Sub(priorTotal).Div(priorTotal).Mul(decimal.NewFromInt(100)).Round(1)
			direction := "higher"
			if changePct.IsNegative() {
				direction = "lower"
			}
			result.YearOnYear = fmt.Sprintf(
				"Spending over the last 3 months is %s%% %s than the same period last year (%s vs %s).",
				changePct.Abs().String(), direction,
				money.GBP(recentTotal), money.GBP(priorTotal),
			)
		}
	}

	return result
}
