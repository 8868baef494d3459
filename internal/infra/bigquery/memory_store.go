package bigquery

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/fincoach/coach/internal/memory"
)

// CustomerMemoryRow mirrors the coach.customer_memory schema. The memory
// itself rides as a JSON payload; the table is append-only and reads take
// the most recent row per customer.
type CustomerMemoryRow struct {
	CustomerID string    `bigquery:"customer_id"` // REQUIRED
	Payload    string    `bigquery:"payload"`     // REQUIRED JSON-encoded memory.CustomerMemory
	UpdatedTS  time.Time `bigquery:"updated_ts"`  // REQUIRED
}

var _ memory.CustomerStore = (*Repository)(nil)

// GetOrCreate loads the latest memory snapshot for a customer, creating a
// fresh one when none exists yet.
func (r *Repository) GetOrCreate(ctx context.Context, customerID, name string) (*memory.CustomerMemory, error) {
	if customerID == "" {
		return nil, fmt.Errorf("GetOrCreate: customer ID is required")
	}

	q := r.client.Query(fmt.Sprintf(`
		SELECT m.customer_id, m.payload, m.updated_ts
		FROM %s.%s m
		WHERE m.customer_id = @customer_id
		ORDER BY m.updated_ts DESC
		LIMIT 1
	`, r.dataset, customerMemoryTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "customer_id", Value: customerID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("GetOrCreate: query read: %w", err)
	}

	var row CustomerMemoryRow
	switch err := it.Next(&row); err {
	case nil:
		var mem memory.CustomerMemory
		if err := json.Unmarshal([]byte(row.Payload), &mem); err != nil {
			return nil, fmt.Errorf("GetOrCreate: decode payload: %w", err)
		}
		return &mem, nil
	case iterator.Done:
		mem := memory.NewCustomerMemory(customerID, name)
		if err := r.Save(ctx, mem); err != nil {
			return nil, fmt.Errorf("GetOrCreate: %w", err)
		}
		return mem, nil
	default:
		return nil, fmt.Errorf("GetOrCreate: iter next: %w", err)
	}
}

// Save appends a new snapshot for the customer.
func (r *Repository) Save(ctx context.Context, mem *memory.CustomerMemory) error {
	if mem == nil || mem.CustomerID == "" {
		return fmt.Errorf("Save: customer ID is required")
	}

	payload, err := json.Marshal(mem)
	if err != nil {
		return fmt.Errorf("Save: encode payload: %w", err)
	}

	row := &CustomerMemoryRow{
		CustomerID: mem.CustomerID,
		Payload:    string(payload),
		UpdatedTS:  time.Now().UTC(),
	}
	if err := r.table(customerMemoryTable).Inserter().Put(ctx, row); err != nil {
		return fmt.Errorf("Save: inserting row: %w", err)
	}
	return nil
}
