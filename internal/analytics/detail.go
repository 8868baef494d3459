package analytics

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/fincoach/coach/internal/domain"
	"github.com/fincoach/coach/internal/money"
)

// Detail returns the drill-down for a single category over the last
// `months` months: total, per-month average, merchant ranking and the raw
// matching transactions newest first. A category with no matching debits
// yields a zero-count detail rather than an error.
func (e *Engine) Detail(category domain.Category, months int) CategoryDetail {
	months = clamp(months, MinInsightMonths, MaxInsightMonths)
	cutoff := e.monthsAgo(months)

	var matching []domain.Transaction
	for _, t := range e.profile.Transactions {
		if t.IsDebit() && t.Category == category && !t.Date.Before(cutoff) {
			matching = append(matching, t)
		}
	}

	detail := CategoryDetail{
		Category:     string(category),
		PeriodMonths: months,
	}
	if len(matching) == 0 {
		return detail
	}

	total := decimal.Zero
	byMerchant := make(map[string]decimal.Decimal)
	for _, t := range matching {
		total = total.Add(t.AbsAmount())
		byMerchant[t.Merchant] = byMerchant[t.Merchant].Add(t.AbsAmount())
	}

	merchants := make([]MerchantSpend, 0, len(byMerchant))
	for m, v := range byMerchant {
		merchants = append(merchants, MerchantSpend{Merchant: m, Total: money.Round2(v)})
	}
	sort.Slice(merchants, func(i, j int) bool {
		if !merchants[i].Total.Equal(merchants[j].Total) {
			return merchants[i].Total.GreaterThan(merchants[j].Total)
		}
		return merchants[i].Merchant < merchants[j].Merchant
	})

	sort.SliceStable(matching, func(i, j int) bool {
		return matching[i].Date.After(matching[j].Date)
	})
	txns := make([]DetailTransaction, 0, len(matching))
	for _, t := range matching {
		txns = append(txns, DetailTransaction{
			Date:     t.Date.Format("2006-01-02"),
			Merchant: t.Merchant,
			Amount:   t.AbsAmount(),
		})
	}

	detail.TotalSpend = money.Round2(total)
	detail.TransactionCount = len(matching)
	detail.AveragePerMonth = money.Round2(total.Div(decimal.NewFromInt(int64(months))))
	detail.TopMerchants = merchants
	detail.Transactions = txns
	return detail
}
