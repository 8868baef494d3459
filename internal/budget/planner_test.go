package budget

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fincoach/coach/internal/domain"
)

var fixedNow = time.Date(2025, time.August, 15, 12, 0, 0, 0, time.UTC)

func testPlanner() *Planner {
	return NewPlanner(WithClock(func() time.Time { return fixedNow }))
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func balancedActuals() map[domain.Category]decimal.Decimal {
	// Needs 1600, wants 960 against 3200 income: exactly 50% and 30%.
	return map[domain.Category]decimal.Decimal{
		domain.CategoryRent:          dec("1000"),
		domain.CategoryGroceries:     dec("350"),
		domain.CategoryUtilities:     dec("150"),
		domain.CategoryTransport:     dec("100"),
		domain.CategoryEatingOut:     dec("400"),
		domain.CategoryEntertainment: dec("260"),
		domain.CategoryShopping:      dec("200"),
		domain.CategorySubscriptions: dec("100"),
	}
}

func findBucket(t *testing.T, plan Plan, name string) Allocation {
	t.Helper()
	for _, a := range plan.Allocations {
		if a.Bucket == name {
			return a
		}
	}
	t.Fatalf("bucket %q missing", name)
	return Allocation{}
}

func TestBuildBalancedBudget(t *testing.T) {
	plan := testPlanner().Build(dec("3200"), balancedActuals(), nil)

	if plan.Framework != "50/30/20" {
		t.Errorf("framework = %q", plan.Framework)
	}
	needs := findBucket(t, plan, "needs")
	if !needs.RecommendedMonthly.Equal(dec("1600.00")) {
		t.Errorf("needs target = %s, want 1600.00", needs.RecommendedMonthly)
	}
	if needs.Status != "on_track" {
		t.Errorf("needs status = %q, want on_track", needs.Status)
	}
	wants := findBucket(t, plan, "wants")
	if wants.Status != "on_track" || !wants.ActualMonthly.Equal(dec("960.00")) {
		t.Errorf("wants = %s %q, want 960.00 on_track", wants.ActualMonthly, wants.Status)
	}
	savings := findBucket(t, plan, "savings")
	if !savings.ActualMonthly.Equal(dec("640.00")) {
		t.Errorf("savings actual = %s, want residual 640.00", savings.ActualMonthly)
	}
	if savings.Status != "on_track" {
		t.Errorf("savings status = %q, want on_track", savings.Status)
	}
	if len(plan.Recommendations) != 1 || plan.Recommendations[0] != "Your budget is well-balanced. Keep up the consistent approach." {
		t.Errorf("balanced budget should get the fallback recommendation, got %v", plan.Recommendations)
	}
	if !plan.Viable {
		t.Error("plan with no goals must be viable")
	}
}

func TestBuildOverspentWants(t *testing.T) {
	actuals := balancedActuals()
	actuals[domain.CategoryShopping] = dec("700") // wants now 1460, 52% over

	plan := testPlanner().Build(dec("3200"), actuals, nil)
	wants := findBucket(t, plan, "wants")
	if wants.Status != "over" {
		t.Fatalf("wants status = %q, want over", wants.Status)
	}
	if !wants.Variance.Equal(dec("500.00")) {
		t.Errorf("wants variance = %s, want 500.00", wants.Variance)
	}
	found := false
	for _, r := range plan.Recommendations {
		if r == "Discretionary spending is £500.00/mo over the 30% target. Reducing this would free up £6,000.00 per year." {
			found = true
		}
	}
	if !found {
		t.Errorf("missing overspend recommendation, got %v", plan.Recommendations)
	}
}

func TestGoalOrderingClaimsCapacity(t *testing.T) {
	// Residual savings 640. First goal takes 500/mo, leaving 140 for the
	// second which needs 250/mo.
	first := Goal{ID: "g1", Description: "emergency fund", TargetAmount: dec("6000")}
	second := Goal{ID: "g2", Description: "holiday fund", TargetAmount: dec("3000")}

	plan := testPlanner().Build(dec("3200"), balancedActuals(), []Goal{first, second})
	if len(plan.GoalPlans) != 2 {
		t.Fatalf("expected 2 goal plans, got %d", len(plan.GoalPlans))
	}
	g1 := plan.GoalPlans[0]
	if !g1.MonthlyRequired.Equal(dec("500.00")) || !g1.Achievable {
		t.Errorf("g1 = %s achievable=%v, want 500.00 achievable", g1.MonthlyRequired, g1.Achievable)
	}
	if g1.MonthsToTarget != 12 {
		t.Errorf("dateless goal horizon = %d, want 12", g1.MonthsToTarget)
	}
	g2 := plan.GoalPlans[1]
	if g2.Achievable {
		t.Error("second goal should not fit the residual capacity")
	}
	if !g2.ShortfallMonthly.Equal(dec("110.00")) {
		t.Errorf("g2 shortfall = %s, want 110.00", g2.ShortfallMonthly)
	}
	if plan.Viable {
		t.Error("plan requiring 750 from 640 savings is not viable")
	}
	if !plan.SurplusAfterGoals.Equal(dec("-110.00")) {
		t.Errorf("surplus after goals = %s, want -110.00", plan.SurplusAfterGoals)
	}
}

func TestGoalWithTargetDate(t *testing.T) {
	target := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC) // 6 months out
	goal := Goal{ID: "g1", Description: "boiler", TargetAmount: dec("600"), TargetDate: &target}

	plan := testPlanner().Build(dec("3200"), balancedActuals(), []Goal{goal})
	g := plan.GoalPlans[0]
	if g.MonthsToTarget != 6 {
		t.Errorf("months to target = %d, want 6", g.MonthsToTarget)
	}
	if !g.MonthlyRequired.Equal(dec("100.00")) {
		t.Errorf("monthly required = %s, want 100.00", g.MonthlyRequired)
	}
	if g.TargetDate != "2026-02-01" {
		t.Errorf("target date label = %q", g.TargetDate)
	}
}

func TestPastTargetDateFloorsAtOneMonth(t *testing.T) {
	past := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	goal := Goal{ID: "g1", Description: "overdue", TargetAmount: dec("300"), TargetDate: &past}

	plan := testPlanner().Build(dec("3200"), balancedActuals(), []Goal{goal})
	if plan.GoalPlans[0].MonthsToTarget != 1 {
		t.Errorf("months = %d, want floor of 1", plan.GoalPlans[0].MonthsToTarget)
	}
	if !plan.GoalPlans[0].MonthlyRequired.Equal(dec("300.00")) {
		t.Errorf("required = %s, want full 300.00", plan.GoalPlans[0].MonthlyRequired)
	}
}

func TestZeroTargetGoalSkipped(t *testing.T) {
	plan := testPlanner().Build(dec("3200"), balancedActuals(), []Goal{{ID: "g1", TargetAmount: decimal.Zero}})
	if len(plan.GoalPlans) != 0 {
		t.Errorf("zero-target goal should be skipped, got %d plans", len(plan.GoalPlans))
	}
}

func TestSpendingAboveIncomeClampsSavings(t *testing.T) {
	actuals := balancedActuals()
	actuals[domain.CategoryRent] = dec("2200")

	plan := testPlanner().Build(dec("3200"), actuals, nil)
	savings := findBucket(t, plan, "savings")
	if !savings.ActualMonthly.IsZero() {
		t.Errorf("savings actual = %s, want clamp to zero", savings.ActualMonthly)
	}
	if savings.Status != "under" {
		t.Errorf("savings status = %q, want under", savings.Status)
	}
}
