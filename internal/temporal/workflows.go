// Package temporal provides the Temporal workflows that keep need2reef data
// consistent outside the request path.
package temporal

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// =============================================================================
// WORKFLOW NAMES
// =============================================================================

const (
	ReconcileProfilesWorkflow = "reconcileProfilesWorkflow"
)

// DefaultBatchSize is used when a reconciliation run does not set one.
const DefaultBatchSize = 100

// =============================================================================
// ACTIVITY OPTIONS
// =============================================================================

var defaultActivityOptions = workflow.ActivityOptions{
	StartToCloseTimeout: time.Minute,
	RetryPolicy: &temporal.RetryPolicy{
		InitialInterval:    time.Second,
		BackoffCoefficient: 2.0,
		MaximumInterval:    30 * time.Second,
		MaximumAttempts:    3,
	},
}

// =============================================================================
// WORKFLOW INPUTS/OUTPUTS
// =============================================================================

// ReconcileInput is the input for ReconcileProfilesWorkflow.
type ReconcileInput struct {
	BatchSize int `json:"batchSize,omitempty"`
}

// ReconcileResult summarizes one reconciliation run. Checked counts the users
// found without a profile; Repaired those that received one during this run.
type ReconcileResult struct {
	Checked  int      `json:"checked"`
	Repaired int      `json:"repaired"`
	Failed   []string `json:"failed,omitempty"`
}

// =============================================================================
// RECONCILE PROFILES WORKFLOW
// =============================================================================

// ReconcileProfilesWorkflowFunc creates the missing profile of every user
// found without one. A user whose repair still fails after retries is
// reported in Failed and does not stop the run.
func ReconcileProfilesWorkflowFunc(ctx workflow.Context, input ReconcileInput) (*ReconcileResult, error) {
	logger := workflow.GetLogger(ctx)
	actCtx := workflow.WithActivityOptions(ctx, defaultActivityOptions)

	limit := input.BatchSize
	if limit <= 0 {
		limit = DefaultBatchSize
	}

	var found FindUsersWithoutProfileOutput
	err := workflow.ExecuteActivity(actCtx, "FindUsersWithoutProfile", FindUsersWithoutProfileInput{
		Limit: limit,
	}).Get(ctx, &found)
	if err != nil {
		return nil, err
	}

	result := &ReconcileResult{Checked: len(found.UserIDs)}
	for _, userID := range found.UserIDs {
		var out CreateMissingProfileOutput
		err := workflow.ExecuteActivity(actCtx, "CreateMissingProfile", CreateMissingProfileInput{
			UserID: userID,
		}).Get(ctx, &out)
		if err != nil {
			logger.Warn("profile repair failed", "userId", userID, "error", err)
			result.Failed = append(result.Failed, userID)
			continue
		}
		if out.Created {
			result.Repaired++
		}
	}

	logger.Info("profile reconciliation finished",
		"checked", result.Checked,
		"repaired", result.Repaired,
		"failed", len(result.Failed))
	return result, nil
}
