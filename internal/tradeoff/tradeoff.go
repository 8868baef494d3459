// Package tradeoff compares directing a monthly amount at debt repayment
// versus savings and recommends an allocation. Both projections are simple
// month-by-month simulations with monthly compounding.
package tradeoff

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/fincoach/coach/internal/money"
)

// Decision is the recommended allocation of the monthly amount.
type Decision string

const (
	PayDebtFirst Decision = "pay_debt_first"
	SaveFirst    Decision = "save_first"
	Split        Decision = "split"
)

// maxPayoffMonths bounds the amortisation walk. Payments that never
// outrun interest are reported with the sentinel values below.
const maxPayoffMonths = 600

// Sentinels for a debt the payment cannot clear within the bound.
var (
	NeverClearsMonths   = 9999
	NeverClearsInterest = decimal.RequireFromString("999999.99")
)

// decisionUpper and decisionLower are the asymmetric thresholds on the
// debt-rate minus savings-rate gap, in percentage points. Paying down
// debt has to win clearly; saving wins on any modest advantage.
var (
	decisionUpper = decimal.RequireFromString("2")
	decisionLower = decimal.RequireFromString("-0.5")
)

// DebtProjection is the outcome of one repayment schedule.
type DebtProjection struct {
	MonthsToClear int             `json:"months_to_clear"`
	TotalInterest decimal.Decimal `json:"total_interest"`
	NeverClears   bool            `json:"never_clears"`
}

// SavingsProjection is the outcome of saving the surplus instead.
type SavingsProjection struct {
	Years        int             `json:"years"`
	FutureValue  decimal.Decimal `json:"future_value"`
	Contributed  decimal.Decimal `json:"contributed"`
	GrowthEarned decimal.Decimal `json:"growth_earned"`
}

// Input describes the debt and the money available to throw at it.
// Rates are annual fractions (0.20 for 20%). MinimumPayment may be zero
// when the customer only knows the balance and rate; OriginalTermMonths
// only matters for mortgages, where clearing early shortens the term.
type Input struct {
	DebtBalance        decimal.Decimal
	DebtAnnualRate     decimal.Decimal
	MinimumPayment     decimal.Decimal
	MonthlySurplus     decimal.Decimal
	SavingsAnnualRate  decimal.Decimal
	IsMortgage         bool
	OriginalTermMonths int
}

// Result is the full comparison. MinimumOnly, InterestSaved and
// TermReductionMonths are present only when the input supports them.
type Result struct {
	Debt                DebtProjection    `json:"debt"`
	MinimumOnly         *DebtProjection   `json:"minimum_only,omitempty"`
	InterestSaved       *decimal.Decimal  `json:"interest_saved,omitempty"`
	TermReductionMonths *int              `json:"term_reduction_months,omitempty"`
	Savings             SavingsProjection `json:"savings"`
	RateGapPts          decimal.Decimal   `json:"rate_gap_pts"`
	Recommendation      Decision          `json:"recommendation"`
	Rationale           string            `json:"rationale"`
}

// PayoffSchedule walks the amortisation of balance at annualRate with a
// fixed monthly payment. When the payment does not exceed the first
// month's interest the debt never shrinks and the sentinels are
// returned.
func PayoffSchedule(balance, annualRate, monthlyPayment decimal.Decimal) DebtProjection {
	if !balance.IsPositive() {
		return DebtProjection{MonthsToClear: 0, TotalInterest: decimal.Zero}
	}
	r := money.MonthlyRate(annualRate)
	remaining := balance
	totalInterest := decimal.Zero
	for month := 1; month <= maxPayoffMonths; month++ {
		interest := money.Round2(remaining.Mul(r))
		if monthlyPayment.LessThanOrEqual(interest) {
			return DebtProjection{
				MonthsToClear: NeverClearsMonths,
				TotalInterest: NeverClearsInterest,
				NeverClears:   true,
			}
		}
		totalInterest = totalInterest.Add(interest)
		remaining = remaining.Add(interest).Sub(monthlyPayment)
		if !remaining.IsPositive() {
			return DebtProjection{MonthsToClear: month, TotalInterest: money.Round2(totalInterest)}
		}
	}
	return DebtProjection{
		MonthsToClear: NeverClearsMonths,
		TotalInterest: NeverClearsInterest,
		NeverClears:   true,
	}
}

// FutureValue accumulates a monthly contribution at annualRate for the
// given number of months, compounding monthly, contribution at month end.
func FutureValue(monthly, annualRate decimal.Decimal, months int) decimal.Decimal {
	r := money.MonthlyRate(annualRate)
	balance := decimal.Zero
	for i := 0; i < months; i++ {
		balance = balance.Add(balance.Mul(r)).Add(monthly)
	}
	return money.Round2(balance)
}

// Analyse projects three uses of the surplus: keep paying the minimum,
// overpay the debt by the surplus, or save the surplus instead. The
// savings horizon mirrors the overpayment payoff time so the two sides
// cover comparable periods, with a one year floor.
func Analyse(in Input) Result {
	payment := in.MinimumPayment.Add(in.MonthlySurplus)
	debt := PayoffSchedule(in.DebtBalance, in.DebtAnnualRate, payment)

	var minOnly *DebtProjection
	if in.MinimumPayment.IsPositive() {
		p := PayoffSchedule(in.DebtBalance, in.DebtAnnualRate, in.MinimumPayment)
		minOnly = &p
	}

	var interestSaved *decimal.Decimal
	if minOnly != nil && !minOnly.NeverClears && !debt.NeverClears {
		saved := minOnly.TotalInterest.Sub(debt.TotalInterest)
		interestSaved = &saved
	}

	var termReduction *int
	if in.IsMortgage && in.OriginalTermMonths > 0 && !debt.NeverClears {
		tr := in.OriginalTermMonths - debt.MonthsToClear
		if tr > 0 {
			termReduction = &tr
		}
	}

	horizonMonths := debt.MonthsToClear
	if debt.NeverClears {
		horizonMonths = maxPayoffMonths
	}
	years := horizonMonths / 12
	if years < 1 {
		years = 1
	}
	months := years * 12
	contributed := money.Round2(in.MonthlySurplus.Mul(decimal.NewFromInt(int64(months))))
	fv := FutureValue(in.MonthlySurplus, in.SavingsAnnualRate, months)
	growth := fv.Sub(contributed)

	hundred := decimal.NewFromInt(100)
	gap := in.DebtAnnualRate.Sub(in.SavingsAnnualRate).Mul(hundred).Round(2)

	var decision Decision
	var rationale string
	switch {
	case gap.GreaterThan(decisionUpper):
		decision = PayDebtFirst
		if interestSaved != nil {
			rationale = fmt.Sprintf(
				"the debt rate is %s percentage points above the savings rate; overpaying saves %s in interest against the %s a savings pot would earn over the same period",
				gap, money.GBP(*interestSaved), money.GBP(growth))
		} else {
			rationale = fmt.Sprintf(
				"the debt rate is %s percentage points above the savings rate, so every pound paid down avoids more interest than it could earn saved",
				gap)
		}
	case gap.LessThan(decisionLower):
		decision = SaveFirst
		rationale = fmt.Sprintf(
			"savings earn %s percentage points more than the debt costs; %s of growth outpaces the interest the debt accrues",
			gap.Neg(), money.GBP(growth))
	default:
		decision = Split
		if debt.NeverClears {
			rationale = fmt.Sprintf(
				"the gap is only %s percentage points, so splitting the money balances interest cost against potential growth",
				gap)
		} else {
			rationale = fmt.Sprintf(
				"the gap is only %s percentage points, so splitting the money balances %s of debt interest against %s of potential growth",
				gap, money.GBP(debt.TotalInterest), money.GBP(growth))
		}
	}

	return Result{
		Debt:                debt,
		MinimumOnly:         minOnly,
		InterestSaved:       interestSaved,
		TermReductionMonths: termReduction,
		Savings: SavingsProjection{
			Years:        years,
			FutureValue:  fv,
			Contributed:  contributed,
			GrowthEarned: growth,
		},
		RateGapPts:     gap,
		Recommendation: decision,
		Rationale:      rationale,
	}
}

// Compare projects both uses of the monthly amount with no minimum
// payment in play. It is the two-way form of Analyse.
func Compare(debtBalance, debtRate, savingsRate, monthly decimal.Decimal) Result {
	return Analyse(Input{
		DebtBalance:       debtBalance,
		DebtAnnualRate:    debtRate,
		SavingsAnnualRate: savingsRate,
		MonthlySurplus:    monthly,
	})
}
