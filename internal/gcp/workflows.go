package gcp

import (
	"context"
	"encoding/json"
	"fmt"

	executions "cloud.google.com/go/workflows/executions/apiv1"
	"cloud.google.com/go/workflows/executions/apiv1/executionspb"

	"github.com/Lllllllleong/watermarkflow/internal/models"
)

// WorkflowTrigger starts an execution of a Cloud Workflow for each finished job.
type WorkflowTrigger struct {
	client *executions.Client
	parent string
}

// NewWorkflowTrigger targets projects/<project>/locations/<location>/workflows/<workflowID>.
func NewWorkflowTrigger(client *executions.Client, projectID, location, workflowID string) *WorkflowTrigger {
	return &WorkflowTrigger{
		client: client,
		parent: fmt.Sprintf("projects/%s/locations/%s/workflows/%s", projectID, location, workflowID),
	}
}

// Trigger creates one execution whose argument is arg encoded as JSON.
func (t *WorkflowTrigger) Trigger(ctx context.Context, arg models.WorkflowArgument) error {
	payload, err := json.Marshal(arg)
	if err != nil {
		return fmt.Errorf("failed to marshal workflow payload: %w", err)
	}
	req := &executionspb.CreateExecutionRequest{
		Parent: t.parent,
		Execution: &executionspb.Execution{
			Argument: string(payload),
		},
	}
	if _, err := t.client.CreateExecution(ctx, req); err != nil {
		return fmt.Errorf("failed to trigger workflow execution: %w", err)
	}
	return nil
}
