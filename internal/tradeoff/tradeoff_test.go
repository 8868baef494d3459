package tradeoff

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestPayoffSchedule(t *testing.T) {
	t.Run("clears within bound", func(t *testing.T) {
		// 2000 at 20% APR with 200/month clears in under a year.
		got := PayoffSchedule(dec("2000"), dec("0.20"), dec("200"))
		if got.NeverClears {
			t.Fatal("expected debt to clear")
		}
		if got.MonthsToClear < 10 || got.MonthsToClear > 12 {
			t.Errorf("months to clear = %d, want 10..12", got.MonthsToClear)
		}
		if !got.TotalInterest.IsPositive() || got.TotalInterest.GreaterThan(dec("250")) {
			t.Errorf("total interest = %s, want positive and under 250", got.TotalInterest)
		}
	})

	t.Run("payment below interest never clears", func(t *testing.T) {
		// 10000 at 24% accrues 200/month interest; 150 can never win.
		got := PayoffSchedule(dec("10000"), dec("0.24"), dec("150"))
		if !got.NeverClears {
			t.Fatal("expected never-clears")
		}
		if got.MonthsToClear != NeverClearsMonths {
			t.Errorf("months = %d, want sentinel %d", got.MonthsToClear, NeverClearsMonths)
		}
		if !got.TotalInterest.Equal(NeverClearsInterest) {
			t.Errorf("interest = %s, want sentinel %s", got.TotalInterest, NeverClearsInterest)
		}
	})

	t.Run("zero balance", func(t *testing.T) {
		got := PayoffSchedule(decimal.Zero, dec("0.20"), dec("100"))
		if got.MonthsToClear != 0 || !got.TotalInterest.IsZero() {
			t.Errorf("zero balance should clear immediately, got %+v", got)
		}
	})
}

func TestFutureValue(t *testing.T) {
	// Zero rate is just the contributions.
	if got := FutureValue(dec("100"), decimal.Zero, 12); !got.Equal(dec("1200.00")) {
		t.Errorf("zero-rate FV = %s, want 1200.00", got)
	}
	// Positive rate must beat contributions.
	got := FutureValue(dec("100"), dec("0.045"), 12)
	if !got.GreaterThan(dec("1200")) {
		t.Errorf("FV = %s, want above 1200 contributed", got)
	}
	if got.GreaterThan(dec("1250")) {
		t.Errorf("FV = %s, unreasonably high for 4.5%% over one year", got)
	}
}

func TestCompareCardDebtBeatsSavings(t *testing.T) {
	// 20% card debt versus 4.5% savings is a clear pay-debt-first case.
	res := Compare(dec("3000"), dec("0.20"), dec("0.045"), dec("250"))
	if res.Recommendation != PayDebtFirst {
		t.Errorf("recommendation = %s, want %s", res.Recommendation, PayDebtFirst)
	}
	if !res.RateGapPts.Equal(dec("15.5")) {
		t.Errorf("rate gap = %s, want 15.5", res.RateGapPts)
	}
	if res.Debt.NeverClears {
		t.Error("250/month should clear a 3000 balance")
	}
	if res.Savings.Years < 1 {
		t.Errorf("savings horizon = %d years, want at least 1", res.Savings.Years)
	}
	if !res.Savings.GrowthEarned.Equal(res.Savings.FutureValue.Sub(res.Savings.Contributed)) {
		t.Error("growth earned must equal future value minus contributions")
	}
}

func TestCompareSaveFirst(t *testing.T) {
	// 0% promotional balance against 4.5% savings favours saving.
	res := Compare(dec("3000"), decimal.Zero, dec("0.045"), dec("250"))
	if res.Recommendation != SaveFirst {
		t.Errorf("recommendation = %s, want %s", res.Recommendation, SaveFirst)
	}
}

func TestCompareSplit(t *testing.T) {
	// A 5% loan against 4.5% savings sits inside the split band.
	res := Compare(dec("3000"), dec("0.05"), dec("0.045"), dec("250"))
	if res.Recommendation != Split {
		t.Errorf("recommendation = %s, want %s", res.Recommendation, Split)
	}
}

func TestAnalyseMinimumOnlyProjection(t *testing.T) {
	// A 90/month minimum against a 150 surplus: the overpay schedule
	// clears far sooner and pays far less interest.
	res := Analyse(Input{
		DebtBalance:       dec("3000"),
		DebtAnnualRate:    dec("0.199"),
		MinimumPayment:    dec("90"),
		MonthlySurplus:    dec("150"),
		SavingsAnnualRate: dec("0.045"),
	})
	if res.MinimumOnly == nil {
		t.Fatal("expected a minimum-only projection")
	}
	if res.MinimumOnly.NeverClears {
		t.Fatal("90/month should eventually clear 3000 at 19.9%")
	}
	if res.Debt.MonthsToClear >= res.MinimumOnly.MonthsToClear {
		t.Errorf("overpaying clears in %d months, minimum in %d; overpay must be faster",
			res.Debt.MonthsToClear, res.MinimumOnly.MonthsToClear)
	}
	if res.InterestSaved == nil {
		t.Fatal("expected interest saved when both schedules clear")
	}
	want := res.MinimumOnly.TotalInterest.Sub(res.Debt.TotalInterest)
	if !res.InterestSaved.Equal(want) {
		t.Errorf("interest saved = %s, want %s", res.InterestSaved, want)
	}
	if !res.InterestSaved.IsPositive() {
		t.Errorf("interest saved = %s, want positive", res.InterestSaved)
	}
}

func TestAnalyseNoMinimumOmitsProjection(t *testing.T) {
	res := Analyse(Input{
		DebtBalance:       dec("3000"),
		DebtAnnualRate:    dec("0.199"),
		MonthlySurplus:    dec("250"),
		SavingsAnnualRate: dec("0.045"),
	})
	if res.MinimumOnly != nil {
		t.Error("no minimum payment given, minimum-only projection should be nil")
	}
	if res.InterestSaved != nil {
		t.Error("interest saved needs a minimum schedule to compare against")
	}
}

func TestAnalyseMinimumNeverClearsStillRecommends(t *testing.T) {
	// A minimum below the interest accrual never clears, so there is no
	// interest-saved figure, but the overpay schedule still resolves.
	res := Analyse(Input{
		DebtBalance:       dec("10000"),
		DebtAnnualRate:    dec("0.24"),
		MinimumPayment:    dec("150"),
		MonthlySurplus:    dec("300"),
		SavingsAnnualRate: dec("0.045"),
	})
	if res.MinimumOnly == nil || !res.MinimumOnly.NeverClears {
		t.Fatal("expected a never-clears minimum projection")
	}
	if res.Debt.NeverClears {
		t.Fatal("450/month should clear 10000 at 24%")
	}
	if res.InterestSaved != nil {
		t.Error("no interest-saved figure when the minimum schedule never clears")
	}
	if res.Recommendation != PayDebtFirst {
		t.Errorf("recommendation = %s, want %s", res.Recommendation, PayDebtFirst)
	}
}

func TestAnalyseMortgageTermReduction(t *testing.T) {
	res := Analyse(Input{
		DebtBalance:        dec("120000"),
		DebtAnnualRate:     dec("0.045"),
		MinimumPayment:     dec("760"),
		MonthlySurplus:     dec("300"),
		SavingsAnnualRate:  dec("0.045"),
		IsMortgage:         true,
		OriginalTermMonths: 240,
	})
	if res.Debt.NeverClears {
		t.Fatal("1060/month should clear 120000 at 4.5%")
	}
	if res.TermReductionMonths == nil {
		t.Fatal("expected a term reduction for a mortgage with a known term")
	}
	want := 240 - res.Debt.MonthsToClear
	if *res.TermReductionMonths != want {
		t.Errorf("term reduction = %d months, want %d", *res.TermReductionMonths, want)
	}
	if *res.TermReductionMonths <= 0 {
		t.Errorf("term reduction = %d, want positive", *res.TermReductionMonths)
	}
}

func TestAnalyseNonMortgageOmitsTermReduction(t *testing.T) {
	res := Analyse(Input{
		DebtBalance:        dec("3000"),
		DebtAnnualRate:     dec("0.199"),
		MonthlySurplus:     dec("250"),
		SavingsAnnualRate:  dec("0.045"),
		OriginalTermMonths: 240,
	})
	if res.TermReductionMonths != nil {
		t.Error("term reduction only applies to mortgages")
	}
}

func TestAnalyseRationaleCitesFigures(t *testing.T) {
	res := Analyse(Input{
		DebtBalance:       dec("3000"),
		DebtAnnualRate:    dec("0.199"),
		MinimumPayment:    dec("90"),
		MonthlySurplus:    dec("150"),
		SavingsAnnualRate: dec("0.045"),
	})
	if res.Recommendation != PayDebtFirst {
		t.Fatalf("recommendation = %s, want %s", res.Recommendation, PayDebtFirst)
	}
	if !strings.Contains(res.Rationale, "15.4 percentage points") {
		t.Errorf("rationale should cite the rate gap, got %q", res.Rationale)
	}
	if !strings.Contains(res.Rationale, "£") {
		t.Errorf("rationale should cite pound figures, got %q", res.Rationale)
	}
}

func TestCompareNeverClearsUsesBoundedHorizon(t *testing.T) {
	res := Compare(dec("10000"), dec("0.24"), dec("0.045"), dec("150"))
	if !res.Debt.NeverClears {
		t.Fatal("expected never-clears debt")
	}
	if res.Savings.Years != 50 {
		t.Errorf("savings horizon = %d years, want 50 from the 600-month bound", res.Savings.Years)
	}
	if !res.Savings.FutureValue.GreaterThan(res.Savings.Contributed) {
		t.Error("future value should exceed contributions at a positive rate")
	}
}
