// Package bigquery backs the coach's transaction source and customer
// memory store with BigQuery. The in-memory implementations in
// internal/memory and internal/demo cover tests and local runs; this
// package is the durable production wiring.
package bigquery

import (
	"context"
	"fmt"
	"os"

	"cloud.google.com/go/bigquery"
)

const (
	defaultDatasetID = "coach"

	transactionsTable   = "transactions"
	customerMemoryTable = "customer_memory"

	dateFormat = "2006-01-02"
)

// Repository holds one BigQuery client for all coach tables.
type Repository struct {
	client  *bigquery.Client
	project string
	dataset string
}

// NewRepository creates a repository. Empty projectID falls back to the
// GOOGLE_CLOUD_PROJECT environment variable; empty datasetID falls back
// to the default dataset.
func NewRepository(ctx context.Context, projectID, datasetID string) (*Repository, error) {
	if projectID == "" {
		projectID = os.Getenv("GOOGLE_CLOUD_PROJECT")
	}
	if projectID == "" {
		return nil, fmt.Errorf("bigquery: project ID is required (set GOOGLE_CLOUD_PROJECT)")
	}
	if datasetID == "" {
		datasetID = defaultDatasetID
	}

	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("bigquery: create client: %w", err)
	}

	return &Repository{client: client, project: projectID, dataset: datasetID}, nil
}

// Close releases the underlying client.
func (r *Repository) Close() error {
	return r.client.Close()
}

func (r *Repository) table(name string) *bigquery.Table {
	return r.client.DatasetInProject(r.project, r.dataset).Table(name)
}
