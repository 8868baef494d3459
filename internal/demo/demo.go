// Package demo generates deterministic UK banking transaction histories so
// the CLI and API run without any external data source. Generation is
// seeded, so the same persona always produces the same figures.
package demo

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fincoach/coach/internal/domain"
)

// merchants maps each category to its demo merchant pool.
var merchants = map[domain.Category][]string{
	domain.CategoryGroceries:      {"Tesco", "Sainsbury's", "Aldi", "Asda", "Waitrose", "M&S Food"},
	domain.CategoryEatingOut:      {"Pret a Manger", "Greggs", "McDonald's", "Nando's", "Deliveroo", "Uber Eats", "Costa Coffee"},
	domain.CategoryTransport:      {"TfL", "National Rail", "Shell", "BP Fuel", "Uber", "Trainline"},
	domain.CategoryUtilities:      {"British Gas", "EDF Energy", "Thames Water", "BT Broadband", "Sky TV"},
	domain.CategorySubscriptions:  {"Netflix", "Spotify", "Amazon Prime", "Apple iCloud", "Disney+", "Gym Membership"},
	domain.CategoryShopping:       {"Amazon", "ASOS", "Next", "John Lewis", "Marks & Spencer", "eBay"},
	domain.CategoryEntertainment:  {"Odeon Cinema", "Vue Cinema", "Ticketmaster", "Steam", "PlayStation Store"},
	domain.CategoryHealth:         {"Boots", "Day Lewis Pharmacy", "Bupa", "Nuffield Health"},
	domain.CategoryCashWithdrawal: {"ATM Withdrawal"},
	domain.CategoryOther:          {"Misc Charge", "Bank Fee"},
}

// spendRange bounds one category's per-transaction amounts in pounds.
type spendRange struct{ Lo, Hi float64 }

var defaultRanges = map[domain.Category]spendRange{
	domain.CategoryGroceries:      {60, 200},
	domain.CategoryEatingOut:      {8, 45},
	domain.CategoryTransport:      {5, 150},
	domain.CategoryUtilities:      {30, 120},
	domain.CategorySubscriptions:  {4.99, 14.99},
	domain.CategoryShopping:       {15, 180},
	domain.CategoryEntertainment:  {10, 60},
	domain.CategoryHealth:         {5, 40},
	domain.CategoryCashWithdrawal: {20, 100},
	domain.CategoryOther:          {5, 25},
}

// defaultFrequencies is transactions per category per month.
var defaultFrequencies = map[domain.Category]int{
	domain.CategoryGroceries:      6,
	domain.CategoryEatingOut:      5,
	domain.CategoryTransport:      6,
	domain.CategoryUtilities:      3,
	domain.CategorySubscriptions:  4,
	domain.CategoryShopping:       3,
	domain.CategoryEntertainment:  2,
	domain.CategoryHealth:         1,
	domain.CategoryCashWithdrawal: 1,
	domain.CategoryOther:          1,
}

// generationOrder fixes the per-month category iteration so a given seed
// always yields the same history.
var generationOrder = []domain.Category{
	domain.CategoryGroceries,
	domain.CategoryEatingOut,
	domain.CategoryTransport,
	domain.CategoryUtilities,
	domain.CategorySubscriptions,
	domain.CategoryShopping,
	domain.CategoryEntertainment,
	domain.CategoryHealth,
	domain.CategoryCashWithdrawal,
	domain.CategoryOther,
}

const (
	salaryDay       = 25
	startingBalance = "2500.00"
)

// Config drives one generated persona. Ranges and Frequencies merge over
// the defaults, so personas only specify what makes them distinctive.
type Config struct {
	CustomerID    string
	Name          string
	MonthlySalary decimal.Decimal
	MonthlyRent   decimal.Decimal // zero = not renting
	Months        int
	Seed          int64
	Now           func() time.Time
	Ranges        map[domain.Category]spendRange
	Frequencies   map[domain.Category]int
}

// Generate builds a chronologically ordered profile from a Config.
func Generate(cfg Config) *domain.CustomerProfile {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	if cfg.Months <= 0 {
		cfg.Months = 6
	}

	ranges := make(map[domain.Category]spendRange, len(defaultRanges))
	for k, v := range defaultRanges {
		ranges[k] = v
	}
	for k, v := range cfg.Ranges {
		ranges[k] = v
	}
	frequencies := make(map[domain.Category]int, len(defaultFrequencies))
	for k, v := range defaultFrequencies {
		frequencies[k] = v
	}
	for k, v := range cfg.Frequencies {
		frequencies[k] = v
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	profile := &domain.CustomerProfile{
		CustomerID: cfg.CustomerID,
		Name:       cfg.Name,
	}

	today := now().UTC()
	startYear, startMonth := today.Year(), int(today.Month())-cfg.Months
	for startMonth <= 0 {
		startMonth += 12
		startYear--
	}

	balance := decimal.RequireFromString(startingBalance)
	counter := 0
	next := func() string {
		counter++
		return fmt.Sprintf("TXN_%05d", counter)
	}

	for offset := 0; offset < cfg.Months; offset++ {
		month := (startMonth+offset-1)%12 + 1
		year := startYear + (startMonth+offset-1)/12

		balance = balance.Add(cfg.MonthlySalary)
		profile.Transactions = append(profile.Transactions, domain.Transaction{
			ID:           next(),
			Date:         time.Date(year, time.Month(month), salaryDay, 0, 0, 0, 0, time.UTC),
			Amount:       cfg.MonthlySalary,
			Merchant:     "BACS PAYROLL - Employer Ltd",
			Category:     domain.CategorySalary,
			Channel:      "bacs",
			BalanceAfter: balance,
		})

		if cfg.MonthlyRent.IsPositive() {
			balance = balance.Sub(cfg.MonthlyRent)
			profile.Transactions = append(profile.Transactions, domain.Transaction{
				ID:           next(),
				Date:         time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC),
				Amount:       cfg.MonthlyRent.Neg(),
				Merchant:     "Letting Agent Standing Order",
				Category:     domain.CategoryRent,
				Channel:      "direct_debit",
				BalanceAfter: balance,
			})
		}

		for _, cat := range generationOrder {
			r := ranges[cat]
			for i := 0; i < frequencies[cat]; i++ {
				amount := decimal.NewFromFloat(r.Lo + rng.Float64()*(r.Hi-r.Lo)).Round(2)
				day := 1 + rng.Intn(daysInMonth(year, month))
				balance = balance.Sub(amount)
				pool := merchants[cat]
				profile.Transactions = append(profile.Transactions, domain.Transaction{
					ID:           next(),
					Date:         time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC),
					Amount:       amount.Neg(),
					Merchant:     pool[rng.Intn(len(pool))],
					Category:     cat,
					Channel:      "card",
					BalanceAfter: balance,
				})
			}
		}
	}

	sort.SliceStable(profile.Transactions, func(i, j int) bool {
		return profile.Transactions[i].Date.Before(profile.Transactions[j].Date)
	})
	return profile
}

func daysInMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// DefaultCustomerID is the persona the CLI uses unless told otherwise.
const DefaultCustomerID = "CUST_001"

// AlexJohnson is the balanced default persona.
func AlexJohnson(now func() time.Time) *domain.CustomerProfile {
	return Generate(Config{
		CustomerID:    DefaultCustomerID,
		Name:          "Alex Johnson",
		MonthlySalary: decimal.RequireFromString("3200.00"),
		MonthlyRent:   decimal.RequireFromString("950.00"),
		Months:        6,
		Seed:          42,
		Now:           now,
	})
}

// JordanLee is a high-discretionary-spend persona with minimal headroom.
func JordanLee(now func() time.Time) *domain.CustomerProfile {
	return Generate(Config{
		CustomerID:    "CUST_DEMO_003",
		Name:          "Jordan Lee",
		MonthlySalary: decimal.RequireFromString("3800.00"),
		MonthlyRent:   decimal.RequireFromString("1400.00"),
		Months:        12,
		Seed:          123,
		Now:           now,
		Ranges: map[domain.Category]spendRange{
			domain.CategoryEatingOut:      {30, 95},
			domain.CategoryShopping:       {80, 380},
			domain.CategoryEntertainment:  {35, 130},
			domain.CategoryCashWithdrawal: {60, 200},
			domain.CategorySubscriptions:  {9.99, 24.99},
		},
		Frequencies: map[domain.Category]int{
			domain.CategoryEatingOut:      9,
			domain.CategoryShopping:       6,
			domain.CategoryEntertainment:  5,
			domain.CategoryCashWithdrawal: 3,
			domain.CategorySubscriptions:  7,
		},
	})
}

// SamCarter is a disciplined high earner with a large monthly surplus.
func SamCarter(now func() time.Time) *domain.CustomerProfile {
	return Generate(Config{
		CustomerID:    "CUST_DEMO_004",
		Name:          "Sam Carter",
		MonthlySalary: decimal.RequireFromString("5200.00"),
		MonthlyRent:   decimal.RequireFromString("1100.00"),
		Months:        12,
		Seed:          456,
		Now:           now,
		Ranges: map[domain.Category]spendRange{
			domain.CategoryEatingOut:      {5, 18},
			domain.CategoryShopping:       {10, 55},
			domain.CategoryEntertainment:  {5, 25},
			domain.CategoryCashWithdrawal: {20, 50},
		},
		Frequencies: map[domain.Category]int{
			domain.CategoryEatingOut:      2,
			domain.CategoryShopping:       2,
			domain.CategoryEntertainment:  1,
			domain.CategoryCashWithdrawal: 1,
		},
	})
}

// Source serves generated profiles by customer id. It satisfies the
// agent's transaction source contract for demo and test runs.
type Source struct {
	profiles map[string]*domain.CustomerProfile
}

// NewSource indexes the given profiles by customer id.
func NewSource(profiles ...*domain.CustomerProfile) *Source {
	s := &Source{profiles: make(map[string]*domain.CustomerProfile, len(profiles))}
	for _, p := range profiles {
		s.profiles[p.CustomerID] = p
	}
	return s
}

// Personas returns a source covering every built-in persona.
func Personas(now func() time.Time) *Source {
	return NewSource(AlexJohnson(now), JordanLee(now), SamCarter(now))
}

// Profile returns the profile for a customer id.
func (s *Source) Profile(_ context.Context, customerID string) (*domain.CustomerProfile, error) {
	p, ok := s.profiles[customerID]
	if !ok {
		return nil, fmt.Errorf("demo: unknown customer %q", customerID)
	}
	return p, nil
}
