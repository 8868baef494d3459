// Package lifeevent detects probable life events from transaction
// patterns. Every rule is an explicit, auditable pattern match over the
// history; confidences are fixed additive weights, never model output.
// Detections are surfaced to the customer for confirmation only, never
// used for unsolicited marketing.
package lifeevent

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fincoach/coach/internal/domain"
	"github.com/fincoach/coach/internal/money"
)

// Event types a detector can report.
const (
	EventNewBaby          = "new_baby"
	EventPropertyPurchase = "property_purchase"
	EventIncomeChange     = "income_change"
	EventNewRental        = "new_rental"
)

// Confidence thresholds: signals below MinConfidence are discarded,
// signals at or above HighConfidence are flagged for proactive coaching.
const (
	MinConfidence  = 0.40
	HighConfidence = 0.70
)

// Merchant keyword registries, matched case-insensitively as substrings.
var (
	nurseryKeywords = []string{
		"nursery", "daycare", "day care", "childcare", "child care",
		"little stars", "tiny tots", "happy days", "busy bees",
	}
	babyEquipmentKeywords = []string{
		"mothercare", "john lewis baby", "kiddicare", "mamas and papas",
		"babies r us", "pram", "bugaboo", "icandy", "stokke",
	}
	propertyKeywords = []string{
		"solicitor", "conveyancer", "conveyancing", "surveyor", "survey",
		"stamp duty", "sdlt", "land registry", "mortgage fee",
		"arrangement fee", "valuation fee",
	}
	rentKeywords = []string{
		"rent", "letting", "landlord", "estate agent", "rightmove",
		"zoopla", "openrent", "spareroom",
	}
)

// largePaymentThreshold marks debits suggestive of a deposit or fees.
var largePaymentThreshold = decimal.NewFromInt(5000)

// Signal is one detected event with its supporting evidence.
type Signal struct {
	EventType            string    `json:"event_type"`
	Confidence           float64   `json:"confidence"`
	DetectedDate         time.Time `json:"detected_date"`
	Evidence             []string  `json:"evidence"`
	SuggestedCoaching    string    `json:"suggested_coaching"`
	RequiresConfirmation bool      `json:"requires_confirmation"`
}

// Report collects all signals from one scan.
type Report struct {
	CustomerID           string   `json:"customer_id"`
	DetectedEvents       []Signal `json:"detected_events"`
	HighConfidenceEvents []Signal `json:"high_confidence_events"`
	ScanPeriodDays       int      `json:"scan_period_days"`
}

// Detector runs the rules against a history relative to an injectable
// clock.
type Detector struct {
	now func() time.Time
}

// Option configures a Detector.
type Option func(*Detector)

// WithClock overrides the detector's notion of today.
func WithClock(now func() time.Time) Option {
	return func(d *Detector) { d.now = now }
}

// New returns a Detector using the wall clock unless overridden.
func New(opts ...Option) *Detector {
	d := &Detector{now: time.Now}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// defaultScanDays is the nominal scan period recorded on reports.
const defaultScanDays = 120

// Scan runs every rule over the history. Rules are independent and can
// all fire in the same scan.
func (d *Detector) Scan(customerID string, txns []domain.Transaction) Report {
	rules := []func([]domain.Transaction) *Signal{
		d.detectNewBaby,
		d.detectPropertyPurchase,
		d.detectIncomeChange,
		d.detectNewRent,
	}

	detected := make([]Signal, 0, len(rules))
	for _, rule := range rules {
		if signal := rule(txns); signal != nil {
			detected = append(detected, *signal)
		}
	}

	high := make([]Signal, 0, len(detected))
	for _, s := range detected {
		if s.Confidence >= HighConfidence {
			high = append(high, s)
		}
	}

	return Report{
		CustomerID:           customerID,
		DetectedEvents:       detected,
		HighConfidenceEvents: high,
		ScanPeriodDays:       defaultScanDays,
	}
}

func merchantMatches(merchant string, keywords []string) bool {
	m := strings.ToLower(merchant)
	for _, k := range keywords {
		if strings.Contains(m, k) {
			return true
		}
	}
	return false
}

func recentDebits(txns []domain.Transaction, since time.Time) []domain.Transaction {
	var out []domain.Transaction
	for _, t := range txns {
		if !t.Date.Before(since) && t.IsDebit() {
			out = append(out, t)
		}
	}
	return out
}

func earliestDate(txns []domain.Transaction) time.Time {
	first := txns[0].Date
	for _, t := range txns[1:] {
		if t.Date.Before(first) {
			first = t.Date
		}
	}
	return first
}

func (d *Detector) detectNewBaby(txns []domain.Transaction) *Signal {
	cutoff := d.now().AddDate(0, 0, -90)
	recent := recentDebits(txns, cutoff)

	var nursery, equipment []domain.Transaction
	for _, t := range recent {
		if merchantMatches(t.Merchant, nurseryKeywords) {
			nursery = append(nursery, t)
		}
		if merchantMatches(t.Merchant, babyEquipmentKeywords) {
			equipment = append(equipment, t)
		}
	}

	confidence := 0.0
	var evidence []string
	firstDate := d.now()

	if len(nursery) >= 2 {
		confidence += 0.60
		evidence = append(evidence, fmt.Sprintf("%d nursery/childcare payments detected", len(nursery)))
		firstDate = earliestDate(nursery)
	}
	if len(equipment) > 0 {
		confidence = capConfidence(confidence+0.25, 1.0)
		total := decimal.Zero
		for _, t := range equipment {
			total = total.Add(t.AbsAmount())
		}
		evidence = append(evidence, fmt.Sprintf("Baby equipment purchases totalling %s", money.GBP(total)))
		if first := earliestDate(equipment); first.Before(firstDate) {
			firstDate = first
		}
	}

	if confidence < MinConfidence {
		return nil
	}
	return &Signal{
		EventType:    EventNewBaby,
		Confidence:   round2(confidence),
		DetectedDate: firstDate,
		Evidence:     evidence,
		SuggestedCoaching: "Starting a family changes your financial picture significantly. " +
			"I can help you review your budget for childcare costs, check your emergency fund, " +
			"and explore whether any government support (Tax-Free Childcare, Child Benefit) " +
			"applies to your situation.",
		RequiresConfirmation: true,
	}
}

func (d *Detector) detectPropertyPurchase(txns []domain.Transaction) *Signal {
	cutoff := d.now().AddDate(0, 0, -120)
	recent := recentDebits(txns, cutoff)

	var property, large []domain.Transaction
	for _, t := range recent {
		if merchantMatches(t.Merchant, propertyKeywords) {
			property = append(property, t)
		}
		if t.AbsAmount().GreaterThan(largePaymentThreshold) {
			large = append(large, t)
		}
	}

	confidence := 0.0
	var evidence []string
	firstDate := d.now()

	if len(property) > 0 {
		confidence += 0.55
		names := make([]string, 0, 3)
		for i, t := range property {
			if i == 3 {
				break
			}
			names = append(names, t.Merchant)
		}
		evidence = append(evidence, "Property-related payments: "+strings.Join(names, ", "))
		firstDate = earliestDate(property)
	}
	if len(large) > 0 {
		confidence = capConfidence(confidence+0.25, 1.0)
		evidence = append(evidence, fmt.Sprintf("%d large payment(s) over £5,000 detected", len(large)))
	}

	if confidence < MinConfidence {
		return nil
	}
	return &Signal{
		EventType:    EventPropertyPurchase,
		Confidence:   round2(confidence),
		DetectedDate: firstDate,
		Evidence:     evidence,
		SuggestedCoaching: "Buying a home is one of the biggest financial events in your life. " +
			"I can help you review your new monthly budget including mortgage, utility and " +
			"maintenance costs, and ensure your emergency fund accounts for homeownership.",
		RequiresConfirmation: true,
	}
}

func (d *Detector) detectIncomeChange(txns []domain.Transaction) *Signal {
	var credits []domain.Transaction
	for _, t := range txns {
		if t.Amount.IsPositive() && t.Category == domain.CategorySalary {
			credits = append(credits, t)
		}
	}
	if len(credits) < 4 {
		return nil
	}
	sort.Slice(credits, func(i, j int) bool { return credits[i].Date.Before(credits[j].Date) })

	recent := credits[len(credits)-2:]
	older := credits[len(credits)-4 : len(credits)-2]
	recentAvg := money.Avg([]decimal.Decimal{recent[0].Amount, recent[1].Amount})
	olderAvg := money.Avg([]decimal.Decimal{older[0].Amount, older[1].Amount})

	changePct := money.SafeDiv(recentAvg.Sub(olderAvg), olderAvg).Mul(decimal.NewFromInt(100)).Abs()
	if changePct.LessThan(decimal.NewFromInt(5)) {
		return nil
	}

	direction := "increased"
	coaching := "An increase is a great opportunity to boost savings or pay down debt faster."
	if recentAvg.LessThan(olderAvg) {
		direction = "decreased"
		coaching = "A drop in income may mean reviewing your budget to protect essential spending."
	}
	pctFloat, _ := changePct.Float64()
	confidence := capConfidence(pctFloat/20, 0.90)

	return &Signal{
		EventType:    EventIncomeChange,
		Confidence:   round2(confidence),
		DetectedDate: recent[0].Date,
		Evidence: []string{
			fmt.Sprintf("Income %s by approximately %s%%", direction, changePct.Round(1)),
			fmt.Sprintf("Previous average: %s, Recent average: %s", money.GBP(olderAvg), money.GBP(recentAvg)),
		},
		SuggestedCoaching:    fmt.Sprintf("Your income appears to have %s recently. %s", direction, coaching),
		RequiresConfirmation: true,
	}
}

func (d *Detector) detectNewRent(txns []domain.Transaction) *Signal {
	cutoff := d.now().AddDate(0, 0, -60)
	olderCutoff := d.now().AddDate(0, 0, -120)

	var recentRent []domain.Transaction
	for _, t := range recentDebits(txns, cutoff) {
		if merchantMatches(t.Merchant, rentKeywords) {
			recentRent = append(recentRent, t)
		}
	}
	if len(recentRent) < 2 {
		return nil
	}

	// A recurring rent payment is only a life event if the prior
	// comparable window has none.
	for _, t := range txns {
		if !t.Date.Before(olderCutoff) && t.Date.Before(cutoff) && merchantMatches(t.Merchant, rentKeywords) {
			return nil
		}
	}

	total := decimal.Zero
	for _, t := range recentRent {
		total = total.Add(t.AbsAmount())
	}
	monthlyRent := total.Div(decimal.NewFromInt(int64(len(recentRent)))).Round(2)

	return &Signal{
		EventType:    EventNewRental,
		Confidence:   0.75,
		DetectedDate: recentRent[0].Date,
		Evidence: []string{
			fmt.Sprintf("New recurring rent payment detected (~%s/month)", money.GBP(monthlyRent)),
			"No rent payments in the previous period",
		},
		SuggestedCoaching: fmt.Sprintf("It looks like you've recently started renting. "+
			"A monthly rent of ~%s is a significant fixed cost. I can help you adjust your "+
			"budget to account for this and ensure you still have adequate savings headroom.",
			money.GBP(monthlyRent)),
		RequiresConfirmation: true,
	}
}

func capConfidence(v, limit float64) float64 {
	if v > limit {
		return limit
	}
	return v
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
