package lifeevent

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fincoach/coach/internal/domain"
)

var fixedNow = time.Date(2025, time.August, 15, 12, 0, 0, 0, time.UTC)

func testDetector() *Detector {
	return New(WithClock(func() time.Time { return fixedNow }))
}

func tx(daysAgo int, amount, merchant string, category domain.Category) domain.Transaction {
	return domain.Transaction{
		ID:       uuid.NewString(),
		Date:     fixedNow.AddDate(0, 0, -daysAgo),
		Amount:   decimal.RequireFromString(amount),
		Merchant: merchant,
		Category: category,
	}
}

func signalByType(report Report, eventType string) *Signal {
	for i := range report.DetectedEvents {
		if report.DetectedEvents[i].EventType == eventType {
			return &report.DetectedEvents[i]
		}
	}
	return nil
}

func TestDetectNewBaby(t *testing.T) {
	t.Run("nursery payments alone", func(t *testing.T) {
		txns := []domain.Transaction{
			tx(40, "-850.00", "Little Stars Nursery", domain.CategoryOther),
			tx(10, "-850.00", "Little Stars Nursery", domain.CategoryOther),
		}
		report := testDetector().Scan("cust-1", txns)
		s := signalByType(report, EventNewBaby)
		if s == nil {
			t.Fatal("expected new_baby signal")
		}
		if s.Confidence != 0.60 {
			t.Errorf("confidence = %v, want 0.60", s.Confidence)
		}
		if !s.RequiresConfirmation {
			t.Error("life events must require confirmation")
		}
		if !s.DetectedDate.Equal(fixedNow.AddDate(0, 0, -40)) {
			t.Errorf("detected date = %v, want earliest nursery payment", s.DetectedDate)
		}
	})

	t.Run("nursery plus equipment", func(t *testing.T) {
		txns := []domain.Transaction{
			tx(60, "-320.00", "Mamas and Papas", domain.CategoryShopping),
			tx(40, "-850.00", "Busy Bees Daycare", domain.CategoryOther),
			tx(10, "-850.00", "Busy Bees Daycare", domain.CategoryOther),
		}
		report := testDetector().Scan("cust-1", txns)
		s := signalByType(report, EventNewBaby)
		if s == nil {
			t.Fatal("expected new_baby signal")
		}
		if s.Confidence != 0.85 {
			t.Errorf("confidence = %v, want 0.85", s.Confidence)
		}
		if len(report.HighConfidenceEvents) != 1 {
			t.Errorf("0.85 should be flagged high confidence")
		}
		if !s.DetectedDate.Equal(fixedNow.AddDate(0, 0, -60)) {
			t.Errorf("detected date should be the earliest equipment purchase")
		}
	})

	t.Run("single nursery payment does not fire", func(t *testing.T) {
		txns := []domain.Transaction{
			tx(10, "-850.00", "Little Stars Nursery", domain.CategoryOther),
		}
		report := testDetector().Scan("cust-1", txns)
		if signalByType(report, EventNewBaby) != nil {
			t.Error("one nursery payment should not fire")
		}
	})

	t.Run("equipment alone under threshold", func(t *testing.T) {
		txns := []domain.Transaction{
			tx(10, "-450.00", "Bugaboo Store", domain.CategoryShopping),
		}
		report := testDetector().Scan("cust-1", txns)
		if signalByType(report, EventNewBaby) != nil {
			t.Error("0.25 confidence is below the 0.40 surfacing floor")
		}
	})
}

func TestDetectPropertyPurchase(t *testing.T) {
	txns := []domain.Transaction{
		tx(80, "-1500.00", "Smith & Co Solicitors", domain.CategoryOther),
		tx(70, "-600.00", "Cityview Surveyors", domain.CategoryOther),
		tx(60, "-12000.00", "HM Land Registry SDLT", domain.CategoryOther),
	}
	report := testDetector().Scan("cust-1", txns)
	s := signalByType(report, EventPropertyPurchase)
	if s == nil {
		t.Fatal("expected property_purchase signal")
	}
	if s.Confidence != 0.80 {
		t.Errorf("confidence = %v, want 0.55 + 0.25", s.Confidence)
	}
	if len(s.Evidence) != 2 {
		t.Errorf("evidence = %v, want keyword and large-payment entries", s.Evidence)
	}

	// A large payment alone stays below the floor.
	large := []domain.Transaction{tx(30, "-8000.00", "Garden Landscaping Ltd", domain.CategoryOther)}
	if signalByType(testDetector().Scan("cust-1", large), EventPropertyPurchase) != nil {
		t.Error("large payment without property keywords should not fire")
	}
}

func TestDetectIncomeChange(t *testing.T) {
	salary := func(daysAgo int, amount string) domain.Transaction {
		return tx(daysAgo, amount, "Acme Corp Payroll", domain.CategorySalary)
	}

	t.Run("raise fires scaled confidence", func(t *testing.T) {
		txns := []domain.Transaction{
			salary(120, "3000.00"), salary(90, "3000.00"),
			salary(60, "3300.00"), salary(30, "3300.00"),
		}
		s := signalByType(testDetector().Scan("cust-1", txns), EventIncomeChange)
		if s == nil {
			t.Fatal("expected income_change signal for a 10% raise")
		}
		// 10% change scales to 10/20 = 0.50.
		if s.Confidence != 0.50 {
			t.Errorf("confidence = %v, want 0.50", s.Confidence)
		}
	})

	t.Run("confidence capped at 0.90", func(t *testing.T) {
		txns := []domain.Transaction{
			salary(120, "2000.00"), salary(90, "2000.00"),
			salary(60, "3500.00"), salary(30, "3500.00"),
		}
		s := signalByType(testDetector().Scan("cust-1", txns), EventIncomeChange)
		if s == nil {
			t.Fatal("expected income_change signal")
		}
		if s.Confidence != 0.90 {
			t.Errorf("confidence = %v, want cap 0.90", s.Confidence)
		}
	})

	t.Run("small change ignored", func(t *testing.T) {
		txns := []domain.Transaction{
			salary(120, "3000.00"), salary(90, "3000.00"),
			salary(60, "3050.00"), salary(30, "3050.00"),
		}
		if signalByType(testDetector().Scan("cust-1", txns), EventIncomeChange) != nil {
			t.Error("sub-5% change should not fire")
		}
	})

	t.Run("needs four credits", func(t *testing.T) {
		txns := []domain.Transaction{
			salary(90, "3000.00"), salary(60, "3300.00"), salary(30, "3300.00"),
		}
		if signalByType(testDetector().Scan("cust-1", txns), EventIncomeChange) != nil {
			t.Error("three salary credits are not enough history")
		}
	})
}

func TestDetectNewRent(t *testing.T) {
	t.Run("fresh recurring rent fires", func(t *testing.T) {
		txns := []domain.Transaction{
			tx(45, "-1100.00", "Openrent Ltd", domain.CategoryRent),
			tx(15, "-1100.00", "Openrent Ltd", domain.CategoryRent),
		}
		s := signalByType(testDetector().Scan("cust-1", txns), EventNewRental)
		if s == nil {
			t.Fatal("expected new_rental signal")
		}
		if s.Confidence != 0.75 {
			t.Errorf("confidence = %v, want fixed 0.75", s.Confidence)
		}
	})

	t.Run("existing rent history suppresses", func(t *testing.T) {
		txns := []domain.Transaction{
			tx(100, "-1100.00", "Openrent Ltd", domain.CategoryRent),
			tx(45, "-1100.00", "Openrent Ltd", domain.CategoryRent),
			tx(15, "-1100.00", "Openrent Ltd", domain.CategoryRent),
		}
		if signalByType(testDetector().Scan("cust-1", txns), EventNewRental) != nil {
			t.Error("rent present in the prior window is not a new rental")
		}
	})

	t.Run("single payment not recurring", func(t *testing.T) {
		txns := []domain.Transaction{
			tx(15, "-1100.00", "Openrent Ltd", domain.CategoryRent),
		}
		if signalByType(testDetector().Scan("cust-1", txns), EventNewRental) != nil {
			t.Error("one rent debit is not a recurring pattern")
		}
	})
}

func TestDetectorsCoFire(t *testing.T) {
	txns := []domain.Transaction{
		// New baby.
		tx(40, "-850.00", "Little Stars Nursery", domain.CategoryOther),
		tx(10, "-850.00", "Little Stars Nursery", domain.CategoryOther),
		// New rental.
		tx(45, "-1100.00", "Brighton Lettings", domain.CategoryRent),
		tx(15, "-1100.00", "Brighton Lettings", domain.CategoryRent),
	}
	report := testDetector().Scan("cust-1", txns)
	if len(report.DetectedEvents) != 2 {
		t.Fatalf("expected both detectors to fire, got %d events", len(report.DetectedEvents))
	}
	if report.CustomerID != "cust-1" {
		t.Errorf("customer id = %q", report.CustomerID)
	}
	if report.ScanPeriodDays != 120 {
		t.Errorf("scan period = %d, want 120", report.ScanPeriodDays)
	}
}

func TestEmptyHistory(t *testing.T) {
	report := testDetector().Scan("cust-1", nil)
	if len(report.DetectedEvents) != 0 || len(report.HighConfidenceEvents) != 0 {
		t.Errorf("empty history should detect nothing, got %+v", report)
	}
}
