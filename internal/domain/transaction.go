package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Category classifies a transaction. The set is closed: the analytics
// engine aggregates by category and the budget planner maps categories onto
// needs/wants buckets, so free-form values are normalised to CategoryOther.
type Category string

const (
	CategoryGroceries      Category = "groceries"
	CategoryEatingOut      Category = "eating_out"
	CategoryTransport      Category = "transport"
	CategoryUtilities      Category = "utilities"
	CategorySubscriptions  Category = "subscriptions"
	CategoryShopping       Category = "shopping"
	CategoryEntertainment  Category = "entertainment"
	CategoryHealth         Category = "health"
	CategoryCashWithdrawal Category = "cash_withdrawal"
	CategorySalary         Category = "salary"
	CategoryRent           Category = "rent"
	CategoryOther          Category = "other"
)

// Categories lists every valid category.
var Categories = []Category{
	CategoryGroceries,
	CategoryEatingOut,
	CategoryTransport,
	CategoryUtilities,
	CategorySubscriptions,
	CategoryShopping,
	CategoryEntertainment,
	CategoryHealth,
	CategoryCashWithdrawal,
	CategorySalary,
	CategoryRent,
	CategoryOther,
}

// ParseCategory normalises user or upstream input ("Eating Out") to a
// Category. Unknown values return CategoryOther and ok=false; callers
// resolve unknown categories to empty results, never errors.
func ParseCategory(s string) (Category, bool) {
	norm := Category(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "_"))
	for _, c := range Categories {
		if c == norm {
			return c, true
		}
	}
	return CategoryOther, false
}

// Transaction is one signed monetary event. Amount is negative for debits
// and positive for credits; BalanceAfter is the running balance once the
// amount has been applied.
type Transaction struct {
	ID           string          `json:"id"`
	Date         time.Time       `json:"date"`
	Amount       decimal.Decimal `json:"amount"`
	Merchant     string          `json:"merchant"`
	Category     Category        `json:"category"`
	Channel      string          `json:"channel"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
}

// IsDebit reports whether the transaction took money out of the account.
func (t Transaction) IsDebit() bool {
	return t.Amount.IsNegative()
}

// AbsAmount returns the positive magnitude of the transaction.
func (t Transaction) AbsAmount() decimal.Decimal {
	return t.Amount.Abs()
}

// CustomerProfile is an ordered transaction history for one customer.
// Transactions are chronologically ordered, oldest first.
type CustomerProfile struct {
	CustomerID   string        `json:"customer_id"`
	Name         string        `json:"name"`
	Transactions []Transaction `json:"transactions"`
}

// CurrentBalance returns the running balance after the latest transaction,
// or zero for an empty history.
func (p *CustomerProfile) CurrentBalance() decimal.Decimal {
	if len(p.Transactions) == 0 {
		return decimal.Zero
	}
	return p.Transactions[len(p.Transactions)-1].BalanceAfter
}
