package bigquery

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"google.golang.org/api/iterator"

	"github.com/fincoach/coach/internal/domain"
)

// TransactionRow mirrors the coach.transactions schema.
type TransactionRow struct {
	TransactionID string `bigquery:"transaction_id"` // REQUIRED
	CustomerID    string `bigquery:"customer_id"`    // REQUIRED

	TransactionDate civil.Date `bigquery:"transaction_date"` // REQUIRED

	Amount       *big.Rat `bigquery:"amount"`        // REQUIRED NUMERIC, negative = debit
	BalanceAfter *big.Rat `bigquery:"balance_after"` // REQUIRED NUMERIC

	Merchant string              `bigquery:"merchant"` // REQUIRED
	Category string              `bigquery:"category"` // REQUIRED
	Channel  bigquery.NullString `bigquery:"channel"`  // NULLABLE

	CustomerName bigquery.NullString `bigquery:"customer_name"` // NULLABLE

	CreatedTS time.Time `bigquery:"created_ts"` // REQUIRED (default CURRENT_TIMESTAMP)
}

// InsertTransactions inserts a batch of rows into coach.transactions.
func (r *Repository) InsertTransactions(ctx context.Context, rows []*TransactionRow) error {
	if len(rows) == 0 {
		return nil
	}
	if err := r.table(transactionsTable).Inserter().Put(ctx, rows); err != nil {
		return fmt.Errorf("InsertTransactions: inserting rows: %w", err)
	}
	return nil
}

// Profile loads a customer's full transaction history in chronological
// order, satisfying the agent's transaction source contract.
func (r *Repository) Profile(ctx context.Context, customerID string) (*domain.CustomerProfile, error) {
	q := r.client.Query(fmt.Sprintf(`
		SELECT
			t.transaction_id,
			t.customer_id,
			t.transaction_date,
			t.amount,
			t.balance_after,
			t.merchant,
			t.category,
			t.channel,
			t.customer_name,
			t.created_ts
		FROM %s.%s t
		WHERE t.customer_id = @customer_id
		ORDER BY t.transaction_date, t.created_ts
	`, r.dataset, transactionsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "customer_id", Value: customerID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("Profile: query read: %w", err)
	}

	profile := &domain.CustomerProfile{CustomerID: customerID}
	for {
		var row TransactionRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("Profile: iter next: %w", err)
		}
		if profile.Name == "" && row.CustomerName.Valid {
			profile.Name = row.CustomerName.StringVal
		}
		txn, err := rowToTransaction(&row)
		if err != nil {
			return nil, fmt.Errorf("Profile: row %s: %w", row.TransactionID, err)
		}
		profile.Transactions = append(profile.Transactions, txn)
	}

	if len(profile.Transactions) == 0 {
		return nil, fmt.Errorf("Profile: no transactions for customer %q", customerID)
	}
	return profile, nil
}

// rowToTransaction converts a row to the domain type. NUMERIC comes back
// as a big.Rat; rendering at two decimal places preserves penny
// precision through the decimal conversion.
func rowToTransaction(row *TransactionRow) (domain.Transaction, error) {
	if row.Amount == nil || row.BalanceAfter == nil {
		return domain.Transaction{}, fmt.Errorf("amount and balance_after are required")
	}

	amount, err := decimal.NewFromString(row.Amount.FloatString(2))
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("parse amount: %w", err)
	}
	balance, err := decimal.NewFromString(row.BalanceAfter.FloatString(2))
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("parse balance_after: %w", err)
	}

	category, _ := domain.ParseCategory(row.Category)

	channel := ""
	if row.Channel.Valid {
		channel = row.Channel.StringVal
	}

	return domain.Transaction{
		ID:           row.TransactionID,
		Date:         row.TransactionDate.In(time.UTC),
		Amount:       amount,
		Merchant:     row.Merchant,
		Category:     category,
		Channel:      channel,
		BalanceAfter: balance,
	}, nil
}

// transactionToRow converts a domain transaction for insertion.
func transactionToRow(customerID, customerName string, txn domain.Transaction, now time.Time) *TransactionRow {
	row := &TransactionRow{
		TransactionID:   txn.ID,
		CustomerID:      customerID,
		TransactionDate: civil.DateOf(txn.Date),
		Amount:          txn.Amount.Rat(),
		BalanceAfter:    txn.BalanceAfter.Rat(),
		Merchant:        txn.Merchant,
		Category:        string(txn.Category),
		CreatedTS:       now,
	}
	if txn.Channel != "" {
		row.Channel = bigquery.NullString{StringVal: txn.Channel, Valid: true}
	}
	if customerName != "" {
		row.CustomerName = bigquery.NullString{StringVal: customerName, Valid: true}
	}
	return row
}

// ImportProfile inserts an entire profile, used to seed demo data into a
// live dataset.
func (r *Repository) ImportProfile(ctx context.Context, profile *domain.CustomerProfile) error {
	rows := make([]*TransactionRow, 0, len(profile.Transactions))
	now := time.Now().UTC()
	for _, txn := range profile.Transactions {
		rows = append(rows, transactionToRow(profile.CustomerID, profile.Name, txn, now))
	}
	return r.InsertTransactions(ctx, rows)
}
