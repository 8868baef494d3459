package agent

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fincoach/coach/internal/analytics"
	"github.com/fincoach/coach/internal/budget"
	"github.com/fincoach/coach/internal/domain"
	"github.com/fincoach/coach/internal/handoff"
	"github.com/fincoach/coach/internal/health"
	"github.com/fincoach/coach/internal/memory"
	"github.com/fincoach/coach/internal/money"
	"github.com/fincoach/coach/internal/mortgage"
	"github.com/fincoach/coach/internal/products"
	"github.com/fincoach/coach/internal/tradeoff"
)

// defaultAnalysisMonths is the window behind routine queries.
const defaultAnalysisMonths = 3

// defaultSavingsRatePct is the indicative easy-access rate assumed when
// the customer doesn't name one.
var defaultSavingsRatePct = decimal.RequireFromString("4.5")

// mortgageCaveat and tradeoffCaveat ride along with the respective fact
// payloads so the narrator always has the regulatory framing to hand.
const (
	mortgageCaveat = "These are indicative figures for guidance only. Not a mortgage offer or " +
		"Decision in Principle. Actual affordability is determined by a full application and " +
		"credit assessment. Speak to a qualified mortgage adviser for personalised advice."
	tradeoffCaveat = "This comparison is for guidance only and does not constitute regulated " +
		"financial advice. Your optimal strategy depends on your full financial circumstances, " +
		"tax position and risk appetite."
)

// toolContext bundles the per-turn collaborators a tool needs. It is
// rebuilt for every turn from the customer's current history.
type toolContext struct {
	engine   *analytics.Engine
	profile  *domain.CustomerProfile
	customer *memory.CustomerMemory
}

// toolResult is what a tool hands back to the orchestrator: a
// JSON-serialisable fact payload plus any side signals worth persisting.
// Grounds carries amounts verified by the tool but deliberately kept out
// of the narrated facts, such as the adviser handoff snapshot.
type toolResult struct {
	Facts       map[string]any
	Grounds     []string
	HealthScore *int // set by the health tool for customer memory
}

func titleCategory(cat string) string {
	words := strings.Split(strings.ReplaceAll(cat, "_", " "), " ")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

func (a *Agent) insightsFacts(tc toolContext, months int) toolResult {
	insights := tc.engine.Insights(months)

	cats := make([]map[string]any, 0, len(insights.TopCategories))
	period := decimal.NewFromInt(int64(insights.PeriodMonths))
	for _, c := range insights.TopCategories {
		cats = append(cats, map[string]any{
			"category":          titleCategory(c.Category),
			"monthly_average":   money.GBP(money.SafeDiv(c.TotalSpend, period)),
			"total_over_period": money.GBP(c.TotalSpend),
			"transaction_count": c.TransactionCount,
		})
	}

	return toolResult{Facts: map[string]any{
		"average_monthly_income":  money.GBP(insights.AvgMonthlyIncome),
		"average_monthly_spend":   money.GBP(insights.AvgMonthlySpend),
		"average_monthly_surplus": money.GBP(insights.AvgMonthlySurplus),
		"current_balance":         money.GBP(insights.CurrentBalance),
		"spend_trend":             insights.SpendTrend,
		"analysis_months":         insights.PeriodMonths,
		"highest_spend_month":     insights.HighestSpendMonth,
		"lowest_spend_month":      insights.LowestSpendMonth,
		"top_categories":          cats,
	}}
}

func (a *Agent) healthFacts(tc toolContext) toolResult {
	insights := tc.engine.Insights(defaultAnalysisMonths)
	report := health.Compute(insights)

	pillars := make([]map[string]any, 0, len(report.Pillars))
	for _, p := range report.Pillars {
		pillars = append(pillars, map[string]any{
			"name":        p.Name,
			"score":       fmt.Sprintf("%d/%d", p.Score, p.MaxScore),
			"grade":       p.Grade,
			"explanation": p.Explanation,
		})
	}

	score := report.OverallScore
	return toolResult{
		Facts: map[string]any{
			"overall_score":           report.OverallScore,
			"overall_grade":           report.OverallGrade,
			"summary":                 report.Summary,
			"savings_rate":            report.SavingsRatePct.String() + "%",
			"essentials_percentage":   report.EssentialsPct.String() + "%",
			"months_emergency_buffer": report.MonthsBuffer.String(),
			"pillars":                 pillars,
		},
		HealthScore: &score,
	}
}

func (a *Agent) detailFacts(tc toolContext, category domain.Category, months int) toolResult {
	detail := tc.engine.Detail(category, months)

	merchants := make([]map[string]any, 0, len(detail.TopMerchants))
	for _, m := range detail.TopMerchants {
		merchants = append(merchants, map[string]any{
			"merchant": m.Merchant,
			"total":    money.GBP(m.Total),
		})
	}
	recent := make([]map[string]any, 0, len(detail.Transactions))
	for _, t := range detail.Transactions {
		recent = append(recent, map[string]any{
			"date":     t.Date,
			"merchant": t.Merchant,
			"amount":   money.GBP(t.Amount),
		})
	}

	return toolResult{Facts: map[string]any{
		"category":            titleCategory(detail.Category),
		"period_months":       detail.PeriodMonths,
		"total_spend":         money.GBP(detail.TotalSpend),
		"average_per_month":   money.GBP(detail.AveragePerMonth),
		"transaction_count":   detail.TransactionCount,
		"top_merchants":       merchants,
		"recent_transactions": recent,
	}}
}

func (a *Agent) opportunitiesFacts(tc toolContext) toolResult {
	report := tc.engine.SavingsOpportunities()

	opps := make([]map[string]any, 0, len(report.Opportunities))
	for _, o := range report.Opportunities {
		entry := map[string]any{
			"area": o.Area,
			"tip":  o.Tip,
		}
		if !o.MonthlySpend.IsZero() {
			entry["monthly_spend"] = money.GBP(o.MonthlySpend)
		}
		if !o.PotentialMonthlySaving.IsZero() {
			entry["potential_monthly_saving"] = money.GBP(o.PotentialMonthlySaving)
		}
		if !o.AnnualSaving.IsZero() {
			entry["annual_saving"] = money.GBP(o.AnnualSaving)
		}
		if !o.GapMonthly.IsZero() {
			entry["gap_monthly"] = money.GBP(o.GapMonthly)
		}
		opps = append(opps, entry)
	}

	return toolResult{Facts: map[string]any{
		"monthly_surplus": money.GBP(report.MonthlySurplus),
		"opportunities":   opps,
	}}
}

func (a *Agent) trendsFacts(tc toolContext, months int) toolResult {
	trends := tc.engine.Trends(months)

	timeline := make([]map[string]any, 0, len(trends.Timeline))
	for _, t := range trends.Timeline {
		timeline = append(timeline, map[string]any{
			"month":   t.Month,
			"income":  money.GBP(t.Income),
			"spend":   money.GBP(t.Spend),
			"surplus": money.GBP(t.Surplus),
		})
	}
	topCats := make([]map[string]any, 0, len(trends.TopCategories))
	for _, c := range trends.TopCategories {
		topCats = append(topCats, map[string]any{
			"category":        titleCategory(c.Category),
			"total":           money.GBP(c.Total),
			"monthly_average": money.GBP(c.MonthlyAvg),
		})
	}

	facts := map[string]any{
		"analysis_period_months": trends.PeriodMonths,
		"timeline":               timeline,
		"surplus_trend": map[string]any{
			"direction":                  trends.Surplus.Direction,
			"change_vs_earlier_period":   money.GBP(trends.Surplus.Change),
			"recent_avg_monthly_surplus": money.GBP(trends.Surplus.RecentAvgSurplus),
		},
		"highest_spend_month": map[string]any{
			"month":  trends.HighestSpendMonth.Month,
			"amount": money.GBP(trends.HighestSpendMonth.Amount),
		},
		"lowest_spend_month": map[string]any{
			"month":  trends.LowestSpendMonth.Month,
			"amount": money.GBP(trends.LowestSpendMonth.Amount),
		},
		"top_categories_over_period": topCats,
	}
	if trends.YearOnYear != "" {
		facts["year_on_year_comparison"] = trends.YearOnYear
	}
	return toolResult{Facts: facts}
}

func (a *Agent) mortgageFacts(tc toolContext, r routing) toolResult {
	insights := tc.engine.Insights(defaultAnalysisMonths)

	req := mortgage.Request{TermYears: mortgage.DefaultTermYears}
	if len(r.Amounts) > 0 {
		req.LoanAmount = r.Amounts[0]
	}
	if len(r.Amounts) > 1 {
		req.PropertyValue = r.Amounts[1]
	}
	result := mortgage.Assess(insights, req)

	scenarios := make([]map[string]any, 0, len(result.Scenarios))
	for _, s := range result.Scenarios {
		entry := map[string]any{
			"rate_type":                s.RateType,
			"indicative_rate":          s.AnnualRatePct.String() + "%",
			"stressed_rate":            s.StressedRatePct.String() + "%",
			"monthly_payment":          money.GBP(s.MonthlyPayment),
			"stressed_monthly_payment": money.GBP(s.StressedPayment),
			"affordable_at_stress":     s.Affordable,
		}
		if s.LTVPct != nil {
			entry["ltv"] = s.LTVPct.String() + "%"
		}
		scenarios = append(scenarios, entry)
	}

	facts := map[string]any{
		"net_monthly_income":             money.GBP(result.NetMonthlyIncome),
		"estimated_gross_annual_income":  money.GBP(result.GrossAnnualIncome),
		"max_loan_by_income_multiple":    money.GBP(result.MaxLoanByLTI),
		"income_multiple_used":           mortgage.MaxLTIMultiple.String() + "x (PRA guideline)",
		"max_affordable_monthly_payment": money.GBP(result.MaxAffordablePayment),
		"scenarios":                      scenarios,
		"caveat":                         mortgageCaveat,
	}
	if result.RequestedLoan != nil {
		facts["requested_loan"] = money.GBP(*result.RequestedLoan)
	}
	if result.RequestedAffordable != nil {
		facts["requested_loan_affordable"] = *result.RequestedAffordable
	}
	if result.StressPass != nil {
		facts["stress_test_pass"] = *result.StressPass
	}
	if result.SurplusAfterMortgage != nil {
		facts["surplus_after_mortgage"] = money.GBP(*result.SurplusAfterMortgage)
	}
	if result.DepositRequired5Pct != nil {
		facts["deposit_required_5pct_ltv"] = money.GBP(*result.DepositRequired5Pct)
	}
	if result.DepositRequired10Pct != nil {
		facts["deposit_required_10pct_ltv"] = money.GBP(*result.DepositRequired10Pct)
	}
	return toolResult{Facts: facts}
}

// termYearsPattern pulls a stated mortgage term out of the message, as
// in "20 years left" or "a 25-year mortgage".
var termYearsPattern = regexp.MustCompile(`(?i)(\d{1,2})[\s-]*year`)

func (a *Agent) tradeoffFacts(tc toolContext, r routing, message string) toolResult {
	if len(r.Amounts) == 0 || len(r.RatesPct) == 0 {
		return toolResult{Facts: map[string]any{
			"error": "to compare overpaying debt against saving I need the outstanding balance " +
				"(e.g. £3,000) and the interest rate (e.g. 19.9%)",
		}}
	}

	insights := tc.engine.Insights(defaultAnalysisMonths)
	monthly := insights.AvgMonthlySurplus
	if !monthly.IsPositive() {
		return toolResult{Facts: map[string]any{
			"error": "there is no monthly surplus available to allocate, so the comparison " +
				"does not apply; reducing spending comes first",
		}}
	}

	hundred := decimal.NewFromInt(100)
	in := tradeoff.Input{
		DebtBalance:       r.Amounts[0],
		DebtAnnualRate:    r.RatesPct[0].Div(hundred),
		MonthlySurplus:    monthly,
		SavingsAnnualRate: defaultSavingsRatePct.Div(hundred),
	}
	if len(r.RatesPct) > 1 {
		in.SavingsAnnualRate = r.RatesPct[1].Div(hundred)
	}
	// A second amount well below the balance reads as the current
	// minimum payment rather than a second balance.
	if len(r.Amounts) > 1 && r.Amounts[1].LessThan(r.Amounts[0]) {
		in.MinimumPayment = r.Amounts[1]
	}
	if strings.Contains(strings.ToLower(message), "mortgage") {
		in.IsMortgage = true
		if m := termYearsPattern.FindStringSubmatch(message); m != nil {
			years, _ := strconv.Atoi(m[1])
			in.OriginalTermMonths = years * 12
		}
	}

	result := tradeoff.Analyse(in)

	debtScenario := map[string]any{
		"monthly_payment": money.GBP(in.MinimumPayment.Add(monthly)),
		"never_clears":    result.Debt.NeverClears,
	}
	if result.Debt.NeverClears {
		debtScenario["note"] = "at this payment the balance never clears; interest outruns the payment"
	} else {
		debtScenario["months_to_clear"] = result.Debt.MonthsToClear
		debtScenario["total_interest_paid"] = money.GBP(result.Debt.TotalInterest)
	}

	facts := map[string]any{
		"monthly_surplus_available": money.GBP(monthly),
		"debt_balance":              money.GBP(r.Amounts[0]),
		"debt_rate":                 r.RatesPct[0].String() + "%",
		"savings_rate":              in.SavingsAnnualRate.Mul(hundred).String() + "%",
		"rate_differential":         result.RateGapPts.String() + " percentage points",
		"overpay_debt_scenario":     debtScenario,
		"save_instead_scenario": map[string]any{
			"monthly_saving":        money.GBP(monthly),
			"over_years":            result.Savings.Years,
			"final_savings_balance": money.GBP(result.Savings.FutureValue),
			"total_contributed":     money.GBP(result.Savings.Contributed),
			"interest_earned":       money.GBP(result.Savings.GrowthEarned),
		},
		"recommendation":        string(result.Recommendation),
		"recommendation_reason": result.Rationale,
		"caveat":                tradeoffCaveat,
	}
	if result.MinimumOnly != nil {
		minScenario := map[string]any{
			"monthly_payment": money.GBP(in.MinimumPayment),
			"never_clears":    result.MinimumOnly.NeverClears,
		}
		if !result.MinimumOnly.NeverClears {
			minScenario["months_to_clear"] = result.MinimumOnly.MonthsToClear
			minScenario["total_interest_paid"] = money.GBP(result.MinimumOnly.TotalInterest)
		}
		facts["minimum_only_scenario"] = minScenario
	}
	if result.InterestSaved != nil {
		facts["interest_saved_by_overpaying"] = money.GBP(*result.InterestSaved)
	}
	if result.TermReductionMonths != nil {
		facts["mortgage_term_reduction_months"] = *result.TermReductionMonths
	}
	return toolResult{Facts: facts}
}

func (a *Agent) budgetFacts(tc toolContext) toolResult {
	insights := tc.engine.Insights(defaultAnalysisMonths)

	actuals := make(map[domain.Category]decimal.Decimal, len(insights.TopCategories))
	period := decimal.NewFromInt(int64(insights.PeriodMonths))
	for _, c := range insights.TopCategories {
		cat, _ := domain.ParseCategory(c.Category)
		actuals[cat] = actuals[cat].Add(money.SafeDiv(c.TotalSpend, period))
	}

	var goals []budget.Goal
	if tc.customer != nil {
		for _, g := range tc.customer.ActiveGoals() {
			goals = append(goals, budget.Goal{
				ID:           g.ID,
				Description:  g.Description,
				TargetAmount: g.TargetAmount,
				TargetDate:   g.TargetDate,
			})
		}
	}

	plan := a.planner.Build(insights.AvgMonthlyIncome, actuals, goals)

	allocations := make([]map[string]any, 0, len(plan.Allocations))
	for _, al := range plan.Allocations {
		allocations = append(allocations, map[string]any{
			"bucket":              al.Bucket,
			"recommended_monthly": money.GBP(al.RecommendedMonthly),
			"actual_monthly":      money.GBP(al.ActualMonthly),
			"variance":            money.GBP(al.Variance),
			"status":              al.Status,
			"categories_included": al.Categories,
		})
	}
	goalPlans := make([]map[string]any, 0, len(plan.GoalPlans))
	for _, g := range plan.GoalPlans {
		goalPlans = append(goalPlans, map[string]any{
			"goal":              g.Description,
			"target_amount":     money.GBP(g.TargetAmount),
			"monthly_required":  money.GBP(g.MonthlyRequired),
			"months_to_target":  g.MonthsToTarget,
			"achievable":        g.Achievable,
			"shortfall_monthly": money.GBP(g.ShortfallMonthly),
		})
	}

	return toolResult{Facts: map[string]any{
		"net_monthly_income":          money.GBP(plan.NetMonthlyIncome),
		"framework":                   plan.Framework,
		"budget_is_viable":            plan.Viable,
		"allocations":                 allocations,
		"goal_plans":                  goalPlans,
		"total_goal_monthly_required": money.GBP(plan.TotalGoalRequired),
		"surplus_after_goals":         money.GBP(plan.SurplusAfterGoals),
		"recommendations":             plan.Recommendations,
	}}
}

func (a *Agent) lifeEventFacts(tc toolContext) toolResult {
	report := a.detector.Scan(tc.profile.CustomerID, tc.profile.Transactions)

	events := make([]map[string]any, 0, len(report.DetectedEvents))
	for _, e := range report.DetectedEvents {
		events = append(events, map[string]any{
			"event_type":                     e.EventType,
			"confidence":                     fmt.Sprintf("%.0f%%", e.Confidence*100),
			"detected_date":                  e.DetectedDate.Format("2006-01-02"),
			"evidence":                       e.Evidence,
			"suggested_coaching":             e.SuggestedCoaching,
			"requires_customer_confirmation": e.RequiresConfirmation,
		})
	}

	return toolResult{Facts: map[string]any{
		"events_detected":        len(report.DetectedEvents),
		"high_confidence_events": len(report.HighConfidenceEvents),
		"detected_events":        events,
	}}
}

func (a *Agent) productsFacts(tc toolContext) toolResult {
	insights := tc.engine.Insights(defaultAnalysisMonths)
	rec := products.Recommend(insights.AvgMonthlyIncome, insights.AvgMonthlySurplus, insights.CurrentBalance)

	list := make([]map[string]any, 0, len(rec.Products))
	for _, p := range rec.Products {
		list = append(list, map[string]any{
			"name":         p.Name,
			"type":         p.Type,
			"description":  p.Description,
			"benefit":      p.Benefit,
			"why_eligible": p.WhyEligible,
			"caveat":       p.Caveat,
		})
	}

	return toolResult{Facts: map[string]any{
		"net_monthly_income":      money.GBP(insights.AvgMonthlyIncome),
		"average_monthly_surplus": money.GBP(insights.AvgMonthlySurplus),
		"eligible_count":          rec.EligibleCount,
		"products":                list,
		"disclaimer":              rec.Disclaimer,
	}}
}

// handoffReasonPatterns classify the escalation topic; first match wins,
// falling through to an explicit customer request.
var handoffReasonPatterns = []struct {
	pattern *regexp.Regexp
	reason  handoff.Reason
}{
	{regexp.MustCompile(`(?i)\b(re)?mortgage\b`), handoff.ReasonMortgageEnquiry},
	{regexp.MustCompile(`(?i)\b(invest(ing|ment)?|isa|stocks?|shares?|portfolio)\b`), handoff.ReasonInvestmentAdvice},
	{regexp.MustCompile(`(?i)\b(pension|retire(ment)?)\b`), handoff.ReasonPensionAdvice},
	{regexp.MustCompile(`(?i)\b(iva|debt management|consolidat)\b`), handoff.ReasonComplexDebt},
	{regexp.MustCompile(`(?i)\bcomplain(t|ing)?\b`), handoff.ReasonComplaint},
}

func inferHandoffReason(message string) handoff.Reason {
	for _, p := range handoffReasonPatterns {
		if p.pattern.MatchString(message) {
			return p.reason
		}
	}
	return handoff.ReasonCustomerRequest
}

// handoffFacts builds the warm adviser handoff: snapshot, goals and life
// events assembled deterministically, then only the customer-facing view
// narrated. The snapshot amounts are grounded even though they stay out
// of the facts, so a narrator that mentions them is not blocked.
func (a *Agent) handoffFacts(tc toolContext, sess *memory.SessionMemory, message string) toolResult {
	insights := tc.engine.Insights(defaultAnalysisMonths)

	req := handoff.Request{
		Reason:             inferHandoffReason(message),
		TriggeringQuestion: message,
		CustomerID:         tc.profile.CustomerID,
		CustomerName:       tc.profile.Name,
		Snapshot: handoff.Snapshot{
			NetMonthlyIncome:  money.GBP(insights.AvgMonthlyIncome),
			AvgMonthlySpend:   money.GBP(insights.AvgMonthlySpend),
			AvgMonthlySurplus: money.GBP(insights.AvgMonthlySurplus),
			CurrentBalance:    money.GBP(insights.CurrentBalance),
		},
	}
	for _, turn := range sess.Messages {
		req.Conversation = append(req.Conversation, handoff.Turn{Role: turn.Role, Content: turn.Content})
	}
	if tc.customer != nil {
		req.HealthScore = tc.customer.LastHealthScore
		for _, g := range tc.customer.ActiveGoals() {
			req.Goals = append(req.Goals, g.Description)
		}
	}
	scan := a.detector.Scan(tc.profile.CustomerID, tc.profile.Transactions)
	for _, e := range scan.HighConfidenceEvents {
		req.LifeEvents = append(req.LifeEvents, e.EventType)
	}
	req.SavingsOpps = len(tc.engine.SavingsOpportunities().Opportunities)

	pkg := a.handoffs.Build(req)
	view := pkg.ForCustomer()

	return toolResult{
		Facts: map[string]any{
			"handoff_created":             true,
			"handoff_reference":           view.Reference,
			"reason":                      view.Reason,
			"next_step":                   view.NextStep,
			"contact":                     view.Contact,
			"priority":                    view.Priority,
			"context_shared_with_adviser": view.AdviserHas,
			"message_for_customer":        view.ContextShared,
		},
		Grounds: []string{
			req.Snapshot.NetMonthlyIncome,
			req.Snapshot.AvgMonthlySpend,
			req.Snapshot.AvgMonthlySurplus,
			req.Snapshot.CurrentBalance,
		},
	}
}

func (a *Agent) guidanceFacts(message string) toolResult {
	chunks := a.knowledge.Retrieve(message, 0)

	rendered := make([]map[string]any, 0, len(chunks))
	for _, c := range chunks {
		rendered = append(rendered, map[string]any{
			"source":  c.Source,
			"content": c.Content,
		})
	}

	return toolResult{Facts: map[string]any{
		"guidance_retrieved": len(rendered) > 0,
		"source":             "financial guidance knowledge base",
		"chunks":             rendered,
	}}
}

// runTool dispatches a routing verdict to the matching tool.
func (a *Agent) runTool(tc toolContext, r routing, message string) toolResult {
	switch r.Tool {
	case toolHealth:
		return a.healthFacts(tc)
	case toolDetail:
		return a.detailFacts(tc, r.Category, r.Months)
	case toolOpportunities:
		return a.opportunitiesFacts(tc)
	case toolTrends:
		return a.trendsFacts(tc, r.Months)
	case toolMortgage:
		return a.mortgageFacts(tc, r)
	case toolTradeoff:
		return a.tradeoffFacts(tc, r, message)
	case toolBudget:
		return a.budgetFacts(tc)
	case toolLifeEvents:
		return a.lifeEventFacts(tc)
	case toolProducts:
		return a.productsFacts(tc)
	case toolGuidance:
		return a.guidanceFacts(message)
	default:
		return a.insightsFacts(tc, r.Months)
	}
}
