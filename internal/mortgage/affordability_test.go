package mortgage

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/fincoach/coach/internal/analytics"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func insightsWithIncome(net, spend string) analytics.SpendingInsights {
	income := dec(net)
	spent := dec(spend)
	return analytics.SpendingInsights{
		AvgMonthlyIncome:  income,
		AvgMonthlySpend:   spent,
		AvgMonthlySurplus: income.Sub(spent),
	}
}

func TestMonthlyRepaymentAnnuity(t *testing.T) {
	tests := []struct {
		name      string
		principal string
		rate      string
		years     int
		want      string
	}{
		// 200000 at 5% over 25 years is the textbook annuity example.
		{"textbook", "200000", "0.05", 25, "1169.18"},
		{"zero rate straight line", "120000", "0", 10, "1000.00"},
		{"short term", "10000", "0.0479", 2, "437.78"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MonthlyRepayment(dec(tt.principal), dec(tt.rate), tt.years)
			if !got.Equal(dec(tt.want)) {
				t.Errorf("MonthlyRepayment(%s, %s, %d) = %s, want %s",
					tt.principal, tt.rate, tt.years, got, tt.want)
			}
		})
	}
}

func TestAssessDerivedFigures(t *testing.T) {
	in := insightsWithIncome("3200", "2400")
	res := Assess(in, Request{})

	// gross = 3200*12/0.72 = 53333.33
	if !res.GrossAnnualIncome.Equal(dec("53333.33")) {
		t.Errorf("gross annual = %s, want 53333.33", res.GrossAnnualIncome)
	}
	wantMaxLoan := res.GrossAnnualIncome.Mul(dec("4.5")).Round(2)
	if !res.MaxLoanByLTI.Equal(wantMaxLoan) {
		t.Errorf("max loan = %s, want %s", res.MaxLoanByLTI, wantMaxLoan)
	}
	// 35% of 3200
	if !res.MaxAffordablePayment.Equal(dec("1120.00")) {
		t.Errorf("max payment = %s, want 1120.00", res.MaxAffordablePayment)
	}
	if len(res.Scenarios) != 3 {
		t.Fatalf("expected 3 scenarios, got %d", len(res.Scenarios))
	}
	if res.RequestedLoan != nil || res.RequestedAffordable != nil {
		t.Error("no requested loan should leave requested fields nil")
	}
}

func TestAssessStressedExceedsBase(t *testing.T) {
	in := insightsWithIncome("3200", "2400")
	res := Assess(in, Request{LoanAmount: dec("180000"), TermYears: 25})
	for _, s := range res.Scenarios {
		if !s.StressedPayment.GreaterThan(s.MonthlyPayment) {
			t.Errorf("%s: stressed payment %s not greater than base %s",
				s.RateType, s.StressedPayment, s.MonthlyPayment)
		}
		if !s.StressedRatePct.Sub(s.AnnualRatePct).Equal(dec("3")) {
			t.Errorf("%s: stress add-on = %s, want 3",
				s.RateType, s.StressedRatePct.Sub(s.AnnualRatePct))
		}
	}
}

func TestAssessRequestedLoanVerdict(t *testing.T) {
	in := insightsWithIncome("3200", "2400")

	small := Assess(in, Request{LoanAmount: dec("100000"), TermYears: 25})
	if small.RequestedAffordable == nil || !*small.RequestedAffordable {
		t.Error("100k loan on 3200/month net should be affordable at stress")
	}
	if small.SurplusAfterMortgage == nil {
		t.Fatal("surplus after mortgage missing")
	}
	if !small.SurplusAfterMortgage.LessThan(in.AvgMonthlySurplus) {
		t.Error("surplus after mortgage should be below pre-mortgage surplus")
	}

	huge := Assess(in, Request{LoanAmount: dec("400000"), TermYears: 25})
	if huge.RequestedAffordable == nil || *huge.RequestedAffordable {
		t.Error("400k loan on 3200/month net should fail the stress test")
	}
	if huge.StressPass == nil || *huge.StressPass {
		t.Error("stress pass should be false for 400k loan")
	}
}

func TestAssessDepositsAndLTV(t *testing.T) {
	in := insightsWithIncome("3200", "2400")
	res := Assess(in, Request{
		LoanAmount:    dec("180000"),
		PropertyValue: dec("200000"),
		TermYears:     25,
	})
	if res.DepositRequired5Pct == nil || !res.DepositRequired5Pct.Equal(dec("10000.00")) {
		t.Errorf("5%% deposit = %v, want 10000.00", res.DepositRequired5Pct)
	}
	if res.DepositRequired10Pct == nil || !res.DepositRequired10Pct.Equal(dec("20000.00")) {
		t.Errorf("10%% deposit = %v, want 20000.00", res.DepositRequired10Pct)
	}
	for _, s := range res.Scenarios {
		if s.LTVPct == nil {
			t.Fatalf("%s: LTV missing with property value set", s.RateType)
		}
		if !s.LTVPct.Equal(dec("90")) {
			t.Errorf("%s: LTV = %s, want 90", s.RateType, s.LTVPct)
		}
	}
}

func TestAssessDefaultTerm(t *testing.T) {
	in := insightsWithIncome("3200", "2400")
	explicit := Assess(in, Request{LoanAmount: dec("180000"), TermYears: DefaultTermYears})
	implicit := Assess(in, Request{LoanAmount: dec("180000")})
	for i := range explicit.Scenarios {
		if !explicit.Scenarios[i].MonthlyPayment.Equal(implicit.Scenarios[i].MonthlyPayment) {
			t.Errorf("default term should equal %d years", DefaultTermYears)
		}
	}
}
