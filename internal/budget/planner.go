// Package budget maps verified category actuals onto the 50/30/20
// framework and plans stated goals against the resulting savings
// capacity. Allocations, goal feasibility and recommendations are all
// deterministic functions of the inputs.
package budget

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fincoach/coach/internal/domain"
	"github.com/fincoach/coach/internal/money"
)

// Framework is the allocation model this planner implements.
const Framework = "50/30/20"

// Bucket target shares of net monthly income.
var bucketShares = []struct {
	Name  string
	Share decimal.Decimal
}{
	{"needs", decimal.RequireFromString("0.50")},
	{"wants", decimal.RequireFromString("0.30")},
	{"savings", decimal.RequireFromString("0.20")},
}

// onTrackTolerancePct is the variance band treated as on target.
var onTrackTolerancePct = decimal.RequireFromString("5")

// NeedsCategories and WantsCategories partition spending categories
// into the needs and wants buckets. Savings is the residual. Salary is
// income, not spend, so it appears in neither.
var (
	NeedsCategories = []domain.Category{
		domain.CategoryRent,
		domain.CategoryGroceries,
		domain.CategoryUtilities,
		domain.CategoryTransport,
		domain.CategoryHealth,
	}
	WantsCategories = []domain.Category{
		domain.CategoryEatingOut,
		domain.CategoryEntertainment,
		domain.CategoryShopping,
		domain.CategorySubscriptions,
		domain.CategoryCashWithdrawal,
		domain.CategoryOther,
	}
)

// Allocation is one bucket of the plan.
type Allocation struct {
	Bucket             string          `json:"bucket"`
	RecommendedMonthly decimal.Decimal `json:"recommended_monthly"`
	ActualMonthly      decimal.Decimal `json:"actual_monthly"`
	Variance           decimal.Decimal `json:"variance"`
	VariancePct        decimal.Decimal `json:"variance_pct"`
	Status             string          `json:"status"` // on_track | over | under
	Categories         []string        `json:"categories_included"`
}

// Goal is a stated target the plan must fund.
type Goal struct {
	ID           string
	Description  string
	TargetAmount decimal.Decimal
	TargetDate   *time.Time
}

// GoalPlan is the funding assessment for one goal.
type GoalPlan struct {
	GoalID           string          `json:"goal_id"`
	Description      string          `json:"description"`
	TargetAmount     decimal.Decimal `json:"target_amount"`
	TargetDate       string          `json:"target_date,omitempty"`
	MonthlyRequired  decimal.Decimal `json:"monthly_required"`
	MonthsToTarget   int             `json:"months_to_target"`
	Achievable       bool            `json:"achievable"`
	ShortfallMonthly decimal.Decimal `json:"shortfall_monthly"`
}

// Plan is the full budget result.
type Plan struct {
	NetMonthlyIncome  decimal.Decimal `json:"net_monthly_income"`
	Framework         string          `json:"framework"`
	Allocations       []Allocation    `json:"allocations"`
	GoalPlans         []GoalPlan      `json:"goal_plans"`
	TotalGoalRequired decimal.Decimal `json:"total_goal_monthly_required"`
	SurplusAfterGoals decimal.Decimal `json:"surplus_after_goals"`
	Viable            bool            `json:"budget_is_viable"`
	Recommendations   []string        `json:"recommendations"`
}

// Planner builds plans relative to an injectable clock so goal horizons
// are testable.
type Planner struct {
	now func() time.Time
}

// Option configures a Planner.
type Option func(*Planner)

// WithClock overrides the planner's notion of today.
func WithClock(now func() time.Time) Option {
	return func(p *Planner) { p.now = now }
}

// NewPlanner returns a Planner using the wall clock unless overridden.
func NewPlanner(opts ...Option) *Planner {
	p := &Planner{now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// defaultGoalHorizonMonths applies when a goal has no target date.
const defaultGoalHorizonMonths = 12

func monthsBetween(start, end time.Time) int {
	return (end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month())
}

func sumCategories(actuals map[domain.Category]decimal.Decimal, cats []domain.Category) decimal.Decimal {
	total := decimal.Zero
	for _, c := range cats {
		total = total.Add(actuals[c])
	}
	return total
}

func categoryNames(cats []domain.Category) []string {
	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = string(c)
	}
	return names
}

// Build produces the plan for verified income and per-category monthly
// actuals plus stated goals, processed in the order given.
func (p *Planner) Build(income decimal.Decimal, actuals map[domain.Category]decimal.Decimal, goals []Goal) Plan {
	today := p.now()

	needsActual := money.Round2(sumCategories(actuals, NeedsCategories))
	wantsActual := money.Round2(sumCategories(actuals, WantsCategories))
	savingsActual := income.Sub(needsActual).Sub(wantsActual)
	if savingsActual.IsNegative() {
		savingsActual = decimal.Zero
	}
	savingsActual = money.Round2(savingsActual)

	bucketActuals := map[string]decimal.Decimal{
		"needs":   needsActual,
		"wants":   wantsActual,
		"savings": savingsActual,
	}
	bucketCategories := map[string][]string{
		"needs":   categoryNames(NeedsCategories),
		"wants":   categoryNames(WantsCategories),
		"savings": {"savings_transfer", "debt_repayment"},
	}

	hundred := decimal.NewFromInt(100)
	allocations := make([]Allocation, 0, len(bucketShares))
	for _, bucket := range bucketShares {
		recommended := money.Round2(income.Mul(bucket.Share))
		actual := bucketActuals[bucket.Name]
		variance := actual.Sub(recommended)
		variancePct := decimal.Zero
		if recommended.IsPositive() {
			variancePct = variance.Div(recommended).Mul(hundred).Round(1)
		}
		status := "on_track"
		switch {
		case variancePct.Abs().LessThanOrEqual(onTrackTolerancePct):
			// within tolerance
		case variance.IsPositive():
			status = "over"
		default:
			status = "under"
		}
		allocations = append(allocations, Allocation{
			Bucket:             bucket.Name,
			RecommendedMonthly: recommended,
			ActualMonthly:      actual,
			Variance:           variance,
			VariancePct:        variancePct,
			Status:             status,
			Categories:         bucketCategories[bucket.Name],
		})
	}

	// Goals claim savings capacity in the order given. Each goal sees
	// only what earlier goals have left behind.
	remaining := savingsActual
	totalRequired := decimal.Zero
	goalPlans := make([]GoalPlan, 0, len(goals))
	for _, g := range goals {
		if !g.TargetAmount.IsPositive() {
			continue
		}
		months := defaultGoalHorizonMonths
		dateLabel := ""
		if g.TargetDate != nil {
			months = monthsBetween(today, *g.TargetDate)
			if months < 1 {
				months = 1
			}
			dateLabel = g.TargetDate.Format("2006-01-02")
		}
		required := money.Round2(g.TargetAmount.Div(decimal.NewFromInt(int64(months))))
		achievable := required.LessThanOrEqual(remaining)
		shortfall := decimal.Zero
		if !achievable {
			shortfall = money.Round2(required.Sub(remaining))
		}
		remaining = remaining.Sub(required)
		if remaining.IsNegative() {
			remaining = decimal.Zero
		}
		totalRequired = totalRequired.Add(required)

		goalPlans = append(goalPlans, GoalPlan{
			GoalID:           g.ID,
			Description:      g.Description,
			TargetAmount:     g.TargetAmount,
			TargetDate:       dateLabel,
			MonthlyRequired:  required,
			MonthsToTarget:   months,
			Achievable:       achievable,
			ShortfallMonthly: shortfall,
		})
	}

	surplusAfterGoals := money.Round2(savingsActual.Sub(totalRequired))
	viable := !surplusAfterGoals.IsNegative()

	return Plan{
		NetMonthlyIncome:  income,
		Framework:         Framework,
		Allocations:       allocations,
		GoalPlans:         goalPlans,
		TotalGoalRequired: money.Round2(totalRequired),
		SurplusAfterGoals: surplusAfterGoals,
		Viable:            viable,
		Recommendations:   recommendations(allocations, savingsActual, totalRequired, viable),
	}
}

func recommendations(allocations []Allocation, savings, totalRequired decimal.Decimal, viable bool) []string {
	byBucket := make(map[string]Allocation, len(allocations))
	for _, a := range allocations {
		byBucket[a.Bucket] = a
	}
	var recs []string
	if wants := byBucket["wants"]; wants.Status == "over" {
		recs = append(recs, fmt.Sprintf(
			"Discretionary spending is %s/mo over the 30%% target. Reducing this would free up %s per year.",
			money.GBP(wants.Variance), money.GBP(wants.Variance.Mul(decimal.NewFromInt(12)))))
	}
	if sav := byBucket["savings"]; sav.Status == "under" {
		recs = append(recs, fmt.Sprintf(
			"Savings are %s/mo below the 20%% target. Even a small standing order increase on payday would close this gap.",
			money.GBP(sav.Variance.Abs())))
	}
	if !viable {
		recs = append(recs, fmt.Sprintf(
			"Your goals require %s/mo but your current surplus is %s/mo. Consider extending goal timelines or reducing discretionary spend.",
			money.GBP(totalRequired), money.GBP(savings)))
	}
	if needs := byBucket["needs"]; needs.Status == "over" && needs.VariancePct.GreaterThan(decimal.NewFromInt(15)) {
		recs = append(recs, fmt.Sprintf(
			"Essential spending is %s%% above target. Review fixed costs like utilities and subscriptions for savings.",
			needs.VariancePct))
	}
	if len(recs) == 0 {
		recs = append(recs, "Your budget is well-balanced. Keep up the consistent approach.")
	}
	return recs
}
