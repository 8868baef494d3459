// Package mortgage models mortgage affordability from verified spending
// insights. The loan-to-income multiple and the +3% stress add-on follow
// the standard UK regulatory conventions; the gross-income derivation is an
// approximation from net monthly income, not a tax computation. Everything
// is a pure function of its inputs plus these fixed constants.
package mortgage

import (
	"github.com/shopspring/decimal"

	"github.com/fincoach/coach/internal/analytics"
	"github.com/fincoach/coach/internal/money"
)

// Regulatory and guidance constants.
var (
	// MaxLTIMultiple caps the loan at 4.5x gross annual income.
	MaxLTIMultiple = decimal.RequireFromString("4.5")

	// StressRateAddOn is the affordability stress test add-on: repayments
	// must stay affordable at the product rate plus 3 percentage points.
	StressRateAddOn = decimal.RequireFromString("0.03")

	// netOfTaxFactor approximates net pay as a share of gross for a
	// typical income band. Documented approximation, not a tax engine.
	netOfTaxFactor = decimal.RequireFromString("0.72")

	// paymentCeilingShare is the widely used benchmark: repayments should
	// not exceed 35% of net monthly income.
	paymentCeilingShare = decimal.RequireFromString("0.35")
)

// DefaultTermYears is the standard repayment period when none is requested.
const DefaultTermYears = 25

// RateProduct is one indicative product used to build scenarios. Rates are
// guidance figures, never to be quoted as an offer.
type RateProduct struct {
	Name string
	Rate decimal.Decimal // annual fraction, e.g. 0.0499
}

// IndicativeRates lists the scenario products in presentation order.
var IndicativeRates = []RateProduct{
	{Name: "2yr_fixed", Rate: decimal.RequireFromString("0.0499")},
	{Name: "5yr_fixed", Rate: decimal.RequireFromString("0.0479")},
	{Name: "tracker", Rate: decimal.RequireFromString("0.0519")},
}

// referenceProduct anchors the requested-loan assessment.
const referenceProduct = "5yr_fixed"

// Scenario is one rate product's repayment picture.
type Scenario struct {
	RateType        string           `json:"rate_type"`
	AnnualRatePct   decimal.Decimal  `json:"annual_rate_pct"`
	StressedRatePct decimal.Decimal  `json:"stressed_rate_pct"`
	MonthlyPayment  decimal.Decimal  `json:"monthly_payment"`
	StressedPayment decimal.Decimal  `json:"stressed_monthly_payment"`
	Affordable      bool             `json:"affordable_at_stress"`
	LTVPct          *decimal.Decimal `json:"ltv_pct,omitempty"`
}

// Request carries the optional caller-supplied parameters. Zero values
// mean "not supplied".
type Request struct {
	LoanAmount    decimal.Decimal
	PropertyValue decimal.Decimal
	TermYears     int
}

// Result is the full affordability assessment.
type Result struct {
	GrossAnnualIncome    decimal.Decimal  `json:"gross_annual_income"`
	NetMonthlyIncome     decimal.Decimal  `json:"net_monthly_income"`
	AvgMonthlySpend      decimal.Decimal  `json:"average_monthly_spend"`
	AvgMonthlySurplus    decimal.Decimal  `json:"average_monthly_surplus"`
	MaxLoanByLTI         decimal.Decimal  `json:"max_loan_by_lti"`
	MaxAffordablePayment decimal.Decimal  `json:"max_affordable_payment"`
	RequestedLoan        *decimal.Decimal `json:"requested_loan,omitempty"`
	RequestedAffordable  *bool            `json:"requested_affordable,omitempty"`
	Scenarios            []Scenario       `json:"scenarios"`
	SurplusAfterMortgage *decimal.Decimal `json:"surplus_after_mortgage,omitempty"`
	DepositRequired5Pct  *decimal.Decimal `json:"deposit_required_5pct,omitempty"`
	DepositRequired10Pct *decimal.Decimal `json:"deposit_required_10pct,omitempty"`
	StressPass           *bool            `json:"stress_pass,omitempty"`
}

// MonthlyRepayment computes the fixed-rate annuity repayment
// M = P*r(1+r)^n / ((1+r)^n - 1) with monthly compounding, quantized to
// two decimal places. A zero rate degrades to straight-line repayment.
func MonthlyRepayment(principal, annualRate decimal.Decimal, years int) decimal.Decimal {
	n := int64(years) * 12
	if n <= 0 {
		return decimal.Zero
	}
	if annualRate.IsZero() {
		return money.Round2(principal.Div(decimal.NewFromInt(n)))
	}
	r := money.MonthlyRate(annualRate)
	factor := decimal.NewFromInt(1).Add(r).Pow(decimal.NewFromInt(n))
	payment := principal.Mul(r.Mul(factor)).Div(factor.Sub(decimal.NewFromInt(1)))
	return money.Round2(payment)
}

// Assess computes affordability from verified insights plus optional
// requested loan, property value and term.
func Assess(insights analytics.SpendingInsights, req Request) Result {
	netMonthly := insights.AvgMonthlyIncome
	grossAnnual := money.Round2(netMonthly.Mul(decimal.NewFromInt(12)).Div(netOfTaxFactor))
	maxLoanLTI := money.Round2(grossAnnual.Mul(MaxLTIMultiple))
	maxPayment := money.Round2(netMonthly.Mul(paymentCeilingShare))

	termYears := req.TermYears
	if termYears <= 0 {
		termYears = DefaultTermYears
	}

	loan := maxLoanLTI
	requested := req.LoanAmount.IsPositive()
	if requested {
		loan = req.LoanAmount
	}

	hundred := decimal.NewFromInt(100)
	scenarios := make([]Scenario, 0, len(IndicativeRates))
	var reference *Scenario
	for _, product := range IndicativeRates {
		stressedRate := product.Rate.Add(StressRateAddOn)
		s := Scenario{
			RateType:        product.Name,
			AnnualRatePct:   product.Rate.Mul(hundred).Round(2),
			StressedRatePct: stressedRate.Mul(hundred).Round(2),
			MonthlyPayment:  MonthlyRepayment(loan, product.Rate, termYears),
			StressedPayment: MonthlyRepayment(loan, stressedRate, termYears),
		}
		s.Affordable = s.StressedPayment.LessThanOrEqual(maxPayment)
		if req.PropertyValue.IsPositive() {
			ltv := loan.Div(req.PropertyValue).Mul(hundred).Round(1)
			s.LTVPct = &ltv
		}
		scenarios = append(scenarios, s)
		if product.Name == referenceProduct {
			reference = &scenarios[len(scenarios)-1]
		}
	}

	result := Result{
		GrossAnnualIncome:    grossAnnual,
		NetMonthlyIncome:     netMonthly,
		AvgMonthlySpend:      insights.AvgMonthlySpend,
		AvgMonthlySurplus:    insights.AvgMonthlySurplus,
		MaxLoanByLTI:         maxLoanLTI,
		MaxAffordablePayment: maxPayment,
		Scenarios:            scenarios,
	}

	if requested && reference != nil {
		result.RequestedLoan = &req.LoanAmount
		affordable := reference.Affordable
		result.RequestedAffordable = &affordable
		surplus := money.Round2(netMonthly.Sub(insights.AvgMonthlySpend).Sub(reference.MonthlyPayment))
		result.SurplusAfterMortgage = &surplus
		stressPass := reference.StressedPayment.LessThanOrEqual(maxPayment)
		result.StressPass = &stressPass
	}

	if req.PropertyValue.IsPositive() {
		d5 := money.Round2(req.PropertyValue.Mul(decimal.RequireFromString("0.05")))
		d10 := money.Round2(req.PropertyValue.Mul(decimal.RequireFromString("0.10")))
		result.DepositRequired5Pct = &d5
		result.DepositRequired10Pct = &d10
	}

	return result
}
