package products

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func outcomeByID(outcomes []Outcome, id string) *Outcome {
	for i := range outcomes {
		if outcomes[i].ProductID == id {
			return &outcomes[i]
		}
	}
	return nil
}

func TestCheckEligibilityHealthyProfile(t *testing.T) {
	outcomes := CheckEligibility(dec("3200"), dec("800"), dec("5000"))
	if len(outcomes) != 5 {
		t.Fatalf("expected 5 outcomes, got %d", len(outcomes))
	}

	for _, id := range []string{"club_sage_account", "easy_saver", "cash_isa"} {
		o := outcomeByID(outcomes, id)
		if o == nil || !o.AppearsEligible {
			t.Errorf("%s should appear eligible for income 3200 / surplus 800", id)
		}
	}

	// Personal loan meets income and surplus but carries the
	// unverifiable credit criterion; still indicatively eligible.
	loan := outcomeByID(outcomes, "personal_loan")
	if loan == nil {
		t.Fatal("personal_loan missing")
	}
	if !loan.AppearsEligible {
		t.Error("loan with met thresholds and only a credit gap should appear eligible")
	}
	if len(loan.Gaps) != 1 || !strings.Contains(loan.Gaps[0], "credit assessment") {
		t.Errorf("loan gaps = %v, want the single credit-assessment gap", loan.Gaps)
	}
}

func TestCheckEligibilityLowIncome(t *testing.T) {
	outcomes := CheckEligibility(dec("900"), dec("10"), dec("100"))

	club := outcomeByID(outcomes, "club_sage_account")
	if club.AppearsEligible {
		t.Error("900 income is below the 1500 current-account minimum")
	}
	if len(club.Gaps) != 1 || !strings.Contains(club.Gaps[0], "below £1,500.00 minimum") {
		t.Errorf("club gaps = %v", club.Gaps)
	}
	saver := outcomeByID(outcomes, "easy_saver")
	if saver.AppearsEligible {
		t.Error("10 surplus is below the 50 easy-saver minimum")
	}
	loan := outcomeByID(outcomes, "personal_loan")
	if loan.AppearsEligible {
		t.Error("loan should not appear eligible with income and surplus gaps")
	}
}

func TestCheckEligibilityOrdersEligibleFirst(t *testing.T) {
	outcomes := CheckEligibility(dec("1200"), dec("60"), dec("500"))
	seenIneligible := false
	for _, o := range outcomes {
		if !o.AppearsEligible {
			seenIneligible = true
		} else if seenIneligible {
			t.Fatalf("eligible product %s sorted after an ineligible one", o.ProductID)
		}
	}
}

func TestEveryOutcomeCarriesCaveat(t *testing.T) {
	for _, o := range CheckEligibility(dec("3200"), dec("800"), dec("5000")) {
		if o.Caveat != StandardCaveat {
			t.Errorf("%s missing standard caveat", o.ProductID)
		}
	}
}

func TestRecommendCapsAtThree(t *testing.T) {
	rec := Recommend(dec("3200"), dec("300"), dec("5000"))
	// Surplus 300 is inside the monthly-saver band, so all five products
	// appear eligible; the summary still caps at three.
	if rec.EligibleCount != 5 {
		t.Errorf("eligible count = %d, want 5", rec.EligibleCount)
	}
	if len(rec.Products) != 3 {
		t.Errorf("recommended = %d products, want cap of 3", len(rec.Products))
	}
	if rec.Disclaimer != Disclaimer {
		t.Error("recommendation must carry the adviser disclaimer")
	}
	for _, p := range rec.Products {
		if len(p.WhyEligible) > 2 {
			t.Errorf("%s: why-eligible should be trimmed to 2 entries", p.Name)
		}
	}
}

func TestRecommendEmptyForThinProfile(t *testing.T) {
	rec := Recommend(dec("0"), dec("0"), dec("0"))
	if rec.EligibleCount != 0 || len(rec.Products) != 0 {
		t.Errorf("zero-figure profile should recommend nothing, got %+v", rec)
	}
}
