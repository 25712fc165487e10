package temporal

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/kidtango/need2reefbackend/internal/config"
)

// ReconcileScheduleID identifies the periodic reconciliation schedule.
const ReconcileScheduleID = "reconcile-profiles"

// Client wraps the Temporal client with helper methods.
type Client struct {
	client    client.Client
	taskQueue string
}

// NewClient creates a new Temporal client.
func NewClient(cfg *config.Config, logger logrus.FieldLogger) (*Client, error) {
	c, err := client.Dial(client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
		Logger:    NewLogger(logger),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Temporal: %w", err)
	}

	return &Client{
		client:    c,
		taskQueue: cfg.TemporalTaskQueue,
	}, nil
}

// Close closes the Temporal client connection.
func (c *Client) Close() {
	c.client.Close()
}

// TaskQueue returns the default task queue name.
func (c *Client) TaskQueue() string {
	return c.taskQueue
}

// NewWorker returns a worker on the client's task queue with the
// reconciliation workflow and activities registered.
func (c *Client) NewWorker(activities *ProfileActivities) worker.Worker {
	w := worker.New(c.client, c.taskQueue, worker.Options{})
	Register(w, activities)
	return w
}

// Register adds the workflows and activities to r.
func Register(r worker.Registry, activities *ProfileActivities) {
	r.RegisterWorkflowWithOptions(ReconcileProfilesWorkflowFunc, workflow.RegisterOptions{Name: ReconcileProfilesWorkflow})
	r.RegisterActivity(activities)
}

// =============================================================================
// WORKFLOW EXECUTION HELPERS
// =============================================================================

// WorkflowOptions creates standard workflow options.
func (c *Client) WorkflowOptions(workflowID string) client.StartWorkflowOptions {
	return client.StartWorkflowOptions{
		ID:                       workflowID,
		TaskQueue:                c.taskQueue,
		WorkflowExecutionTimeout: 30 * time.Minute,
		WorkflowTaskTimeout:      10 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    time.Minute,
			MaximumAttempts:    3,
		},
	}
}

// ReconcileProfiles starts a reconciliation run and waits for its result.
func (c *Client) ReconcileProfiles(ctx context.Context, batchSize int) (*ReconcileResult, error) {
	workflowID := ReconcileScheduleID + "-" + uuid.NewString()
	run, err := c.client.ExecuteWorkflow(ctx, c.WorkflowOptions(workflowID), ReconcileProfilesWorkflow, ReconcileInput{
		BatchSize: batchSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start reconciliation: %w", err)
	}

	var result ReconcileResult
	if err := run.Get(ctx, &result); err != nil {
		return nil, fmt.Errorf("reconciliation %s failed: %w", run.GetRunID(), err)
	}
	return &result, nil
}

// =============================================================================
// SCHEDULE HELPERS
// =============================================================================

// ScheduleReconcile creates or updates the periodic reconciliation schedule.
func (c *Client) ScheduleReconcile(ctx context.Context, cronExpr string, batchSize int) error {
	spec := client.ScheduleSpec{CronExpressions: []string{cronExpr}}
	action := &client.ScheduleWorkflowAction{
		ID:        ReconcileScheduleID + "-run",
		Workflow:  ReconcileProfilesWorkflow,
		Args:      []interface{}{ReconcileInput{BatchSize: batchSize}},
		TaskQueue: c.taskQueue,
	}

	handle := c.client.ScheduleClient().GetHandle(ctx, ReconcileScheduleID)
	if _, err := handle.Describe(ctx); err == nil {
		return handle.Update(ctx, client.ScheduleUpdateOptions{
			DoUpdate: func(input client.ScheduleUpdateInput) (*client.ScheduleUpdate, error) {
				input.Description.Schedule.Spec = &spec
				input.Description.Schedule.Action = action
				return &client.ScheduleUpdate{Schedule: &input.Description.Schedule}, nil
			},
		})
	}

	_, err := c.client.ScheduleClient().Create(ctx, client.ScheduleOptions{
		ID:     ReconcileScheduleID,
		Spec:   spec,
		Action: action,
	})
	if err != nil {
		return fmt.Errorf("failed to create schedule: %w", err)
	}
	return nil
}
