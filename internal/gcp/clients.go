package gcp

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/storage"
	executions "cloud.google.com/go/workflows/executions/apiv1"
)

// ClientOptions selects which optional clients NewClients builds.
type ClientOptions struct {
	ProjectID     string
	WithFirestore bool
	WithWorkflows bool
}

// Clients bundles the Google Cloud clients used by the watermark functions.
// Optional clients are nil unless requested.
type Clients struct {
	Storage    *storage.Client
	Firestore  *firestore.Client
	Executions *executions.Client
}

// NewClients creates the storage client and any optional clients. On error every
// client created so far is closed.
func NewClients(ctx context.Context, opts ClientOptions) (*Clients, error) {
	c := &Clients{}

	var err error
	c.Storage, err = storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Storage client: %w", err)
	}

	if opts.WithFirestore {
		if opts.ProjectID == "" {
			_ = c.Close()
			return nil, fmt.Errorf("projectID must be provided to create a firestore client")
		}
		c.Firestore, err = firestore.NewClient(ctx, opts.ProjectID)
		if err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("failed to create Firestore client: %w", err)
		}
	}

	if opts.WithWorkflows {
		c.Executions, err = executions.NewClient(ctx)
		if err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("failed to create Workflows Executions client: %w", err)
		}
	}
	return c, nil
}

// Close closes every client that was created.
func (c *Clients) Close() error {
	var errs []error
	if c.Storage != nil {
		errs = append(errs, c.Storage.Close())
	}
	if c.Firestore != nil {
		errs = append(errs, c.Firestore.Close())
	}
	if c.Executions != nil {
		errs = append(errs, c.Executions.Close())
	}
	return errors.Join(errs...)
}
