package bigquery

import (
	"math/big"
	"testing"
	"time"

	bq "cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/fincoach/coach/internal/domain"
)

func TestRowToTransaction(t *testing.T) {
	row := &TransactionRow{
		TransactionID:   "TXN_00001",
		CustomerID:      "CUST_001",
		TransactionDate: civil.Date{Year: 2025, Month: 8, Day: 1},
		Amount:          big.NewRat(-4550, 100), // -45.50
		BalanceAfter:    big.NewRat(215450, 100),
		Merchant:        "Tesco",
		Category:        "groceries",
		Channel:         bq.NullString{StringVal: "card", Valid: true},
	}

	txn, err := rowToTransaction(row)
	if err != nil {
		t.Fatalf("rowToTransaction: %v", err)
	}
	if !txn.Amount.Equal(decimal.RequireFromString("-45.50")) {
		t.Errorf("amount = %s, want -45.50", txn.Amount)
	}
	if !txn.BalanceAfter.Equal(decimal.RequireFromString("2154.50")) {
		t.Errorf("balance = %s, want 2154.50", txn.BalanceAfter)
	}
	if txn.Category != domain.CategoryGroceries {
		t.Errorf("category = %s, want groceries", txn.Category)
	}
	if !txn.Date.Equal(time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("date = %s", txn.Date)
	}
	if !txn.IsDebit() {
		t.Error("negative amount should be a debit")
	}
}

func TestRowToTransactionRequiredFields(t *testing.T) {
	if _, err := rowToTransaction(&TransactionRow{TransactionID: "TXN_00002"}); err == nil {
		t.Error("expected error for missing numeric fields")
	}
}

func TestRowToTransactionUnknownCategory(t *testing.T) {
	row := &TransactionRow{
		TransactionID:   "TXN_00003",
		TransactionDate: civil.Date{Year: 2025, Month: 8, Day: 2},
		Amount:          big.NewRat(-10, 1),
		BalanceAfter:    big.NewRat(100, 1),
		Merchant:        "Mystery Shop",
		Category:        "crypto_winnings",
	}
	txn, err := rowToTransaction(row)
	if err != nil {
		t.Fatalf("rowToTransaction: %v", err)
	}
	if txn.Category != domain.CategoryOther {
		t.Errorf("unknown category should normalise to other, got %s", txn.Category)
	}
}

func TestTransactionRowRoundTrip(t *testing.T) {
	txn := domain.Transaction{
		ID:           "TXN_00004",
		Date:         time.Date(2025, 7, 25, 0, 0, 0, 0, time.UTC),
		Amount:       decimal.RequireFromString("3200.00"),
		Merchant:     "BACS PAYROLL - Employer Ltd",
		Category:     domain.CategorySalary,
		Channel:      "bacs",
		BalanceAfter: decimal.RequireFromString("5400.00"),
	}

	row := transactionToRow("CUST_001", "Alex Johnson", txn, time.Now())
	back, err := rowToTransaction(row)
	if err != nil {
		t.Fatalf("rowToTransaction: %v", err)
	}
	if !back.Amount.Equal(txn.Amount) || !back.BalanceAfter.Equal(txn.BalanceAfter) {
		t.Errorf("amounts changed in round trip: %s / %s", back.Amount, back.BalanceAfter)
	}
	if back.Category != txn.Category || back.Merchant != txn.Merchant {
		t.Errorf("fields changed in round trip: %+v", back)
	}
}
