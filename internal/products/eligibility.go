// Package products checks a customer's verified figures against
// indicative product eligibility criteria. Outputs are guidance only:
// "appears to meet" language, never an offer, a decision in principle,
// or a credit decision. Actual eligibility is the lender's underwriting
// process.
package products

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/fincoach/coach/internal/money"
)

// criteria are the deterministic thresholds one product checks. Nil
// fields are not checked.
type criteria struct {
	MinMonthlyIncome  *decimal.Decimal
	MinMonthlySurplus *decimal.Decimal
	MaxMonthlySurplus *decimal.Decimal
	RequiresCredit    bool // debt-to-income needs a credit check we cannot run
}

type product struct {
	ID          string
	Name        string
	Type        string
	Description string
	Benefit     string
	Criteria    criteria
}

func amount(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

// catalogue is illustrative of typical banking criteria, not live
// product terms. Kept as data so product changes never touch logic.
var catalogue = []product{
	{
		ID:          "club_sage_account",
		Name:        "Club Sage Current Account",
		Type:        "current_account",
		Description: "Earn lifestyle benefits and preferential savings rates",
		Benefit:     "Lifestyle benefit (cinema tickets, magazine subscription or dining card) + preferential savings rates",
		Criteria:    criteria{MinMonthlyIncome: amount("1500")},
	},
	{
		ID:          "easy_saver",
		Name:        "Easy Saver Account",
		Type:        "savings",
		Description: "Flexible easy-access savings",
		Benefit:     "Accessible savings pot for short-term goals and emergency funds",
		Criteria:    criteria{MinMonthlySurplus: amount("50")},
	},
	{
		ID:          "monthly_saver",
		Name:        "Monthly Saver",
		Type:        "savings",
		Description: "Regular monthly savings with attractive rate",
		Benefit:     "Save £25–£400/month at a preferential rate",
		Criteria:    criteria{MinMonthlySurplus: amount("25"), MaxMonthlySurplus: amount("400")},
	},
	{
		ID:          "cash_isa",
		Name:        "Cash ISA",
		Type:        "isa",
		Description: "Tax-free savings up to £20,000 per tax year",
		Benefit:     "Tax-free interest on savings — ideal if you pay income tax on savings interest",
		Criteria:    criteria{MinMonthlySurplus: amount("50")},
	},
	{
		ID:          "personal_loan",
		Name:        "Personal Loan",
		Type:        "credit",
		Description: "Fixed-rate personal loan",
		Benefit:     "Fixed monthly repayments — predictable cost",
		Criteria:    criteria{MinMonthlyIncome: amount("1000"), MinMonthlySurplus: amount("100"), RequiresCredit: true},
	},
}

// StandardCaveat accompanies every outcome.
const StandardCaveat = "This is indicative guidance only, based on your transaction data. " +
	"It is not a product offer or guarantee of eligibility. Actual eligibility is subject " +
	"to a full application, credit check and affordability assessment by the bank. " +
	"Terms and conditions apply."

// Disclaimer accompanies the recommendation summary.
const Disclaimer = "Product suggestions are based on your spending profile only. " +
	"They are not personalised financial advice. Speak to an adviser for a full product assessment."

// creditGap is the fixed wording for the unverifiable debt criterion.
const creditGap = "Debt-to-income ratio requires credit assessment — cannot be verified from transactions alone"

// Outcome is one product's indicative assessment.
type Outcome struct {
	ProductID       string   `json:"product_id"`
	ProductName     string   `json:"product_name"`
	ProductType     string   `json:"product_type"`
	Description     string   `json:"description"`
	AppearsEligible bool     `json:"appears_eligible"`
	Indicators      []string `json:"eligibility_indicators"`
	Gaps            []string `json:"eligibility_gaps"`
	Benefit         string   `json:"benefit_summary"`
	Caveat          string   `json:"caveat"`
}

// Recommendation is the filtered view surfaced in conversation.
type Recommendation struct {
	EligibleCount int              `json:"eligible_count"`
	Products      []ProductSummary `json:"products"`
	Disclaimer    string           `json:"disclaimer"`
}

// ProductSummary is one recommended product in brief.
type ProductSummary struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Benefit     string   `json:"benefit"`
	WhyEligible []string `json:"why_eligible"`
	Caveat      string   `json:"caveat"`
}

// CheckEligibility assesses every catalogue product against the
// verified figures. Eligible products sort first, then by type.
func CheckEligibility(income, surplus, balance decimal.Decimal) []Outcome {
	outcomes := make([]Outcome, 0, len(catalogue))
	for _, p := range catalogue {
		var met, gaps []string

		if p.Criteria.MinMonthlyIncome != nil {
			threshold := *p.Criteria.MinMonthlyIncome
			if income.GreaterThanOrEqual(threshold) {
				met = append(met, fmt.Sprintf("Monthly income (%s) meets %s minimum", money.GBP(income), money.GBP(threshold)))
			} else {
				gaps = append(gaps, fmt.Sprintf("Monthly income (%s) is below %s minimum", money.GBP(income), money.GBP(threshold)))
			}
		}
		if p.Criteria.MinMonthlySurplus != nil {
			threshold := *p.Criteria.MinMonthlySurplus
			if surplus.GreaterThanOrEqual(threshold) {
				met = append(met, fmt.Sprintf("Monthly surplus (%s) meets %s minimum", money.GBP(surplus), money.GBP(threshold)))
			} else {
				gaps = append(gaps, fmt.Sprintf("Monthly surplus (%s) is below %s minimum", money.GBP(surplus), money.GBP(threshold)))
			}
		}
		if p.Criteria.MaxMonthlySurplus != nil {
			ceiling := *p.Criteria.MaxMonthlySurplus
			if surplus.LessThanOrEqual(ceiling) {
				met = append(met, fmt.Sprintf("Monthly surplus within %s deposit limit", money.GBP(ceiling)))
			}
			// Over the ceiling is fine, the customer chooses the deposit.
		}
		if p.Criteria.RequiresCredit {
			gaps = append(gaps, creditGap)
		}

		eligible := len(gaps) == 0 || (len(met) > 0 && onlyCreditGaps(gaps))
		outcomes = append(outcomes, Outcome{
			ProductID:       p.ID,
			ProductName:     p.Name,
			ProductType:     p.Type,
			Description:     p.Description,
			AppearsEligible: eligible,
			Indicators:      met,
			Gaps:            gaps,
			Benefit:         p.Benefit,
			Caveat:          StandardCaveat,
		})
	}

	sort.SliceStable(outcomes, func(i, j int) bool {
		if outcomes[i].AppearsEligible != outcomes[j].AppearsEligible {
			return outcomes[i].AppearsEligible
		}
		return outcomes[i].ProductType < outcomes[j].ProductType
	})
	return outcomes
}

func onlyCreditGaps(gaps []string) bool {
	for _, g := range gaps {
		if g != creditGap {
			return false
		}
	}
	return true
}

// maxRecommended caps the conversational summary.
const maxRecommended = 3

// Recommend returns only the products the customer appears eligible
// for, capped to the most relevant few.
func Recommend(income, surplus, balance decimal.Decimal) Recommendation {
	outcomes := CheckEligibility(income, surplus, balance)

	var products []ProductSummary
	count := 0
	for _, o := range outcomes {
		if !o.AppearsEligible {
			continue
		}
		count++
		if len(products) == maxRecommended {
			continue
		}
		why := o.Indicators
		if len(why) > 2 {
			why = why[:2]
		}
		products = append(products, ProductSummary{
			Name:        o.ProductName,
			Type:        o.ProductType,
			Description: o.Description,
			Benefit:     o.Benefit,
			WhyEligible: why,
			Caveat:      o.Caveat,
		})
	}

	return Recommendation{
		EligibleCount: count,
		Products:      products,
		Disclaimer:    Disclaimer,
	}
}
