package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// BackfillInput is the input for the coordinate backfill workflow.
type BackfillInput struct {
	BatchSize int
	// Pause between geocoding calls; public providers throttle to ~1 req/s.
	Pause time.Duration
}

// BackfillReport summarises one backfill run.
type BackfillReport struct {
	Processed int
	Updated   int
	Failed    []string
}

// CoordinateBackfillWorkflow lists active workshops without coordinates and
// geocodes them one at a time. A workshop that cannot be located is
// recorded and skipped; it will be retried on the next run.
func CoordinateBackfillWorkflow(ctx workflow.Context, input BackfillInput) (BackfillReport, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting coordinate backfill", "batchSize", input.BatchSize)

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	var report BackfillReport

	var ids []string
	if err := workflow.ExecuteActivity(ctx, "ListWorkshopsMissingLocation", input.BatchSize).Get(ctx, &ids); err != nil {
		return report, err
	}

	for i, id := range ids {
		if i > 0 && input.Pause > 0 {
			if err := workflow.Sleep(ctx, input.Pause); err != nil {
				return report, err
			}
		}

		report.Processed++
		var updated bool
		if err := workflow.ExecuteActivity(ctx, "BackfillWorkshopLocation", id).Get(ctx, &updated); err != nil {
			logger.Warn("backfill failed", "workshopID", id, "error", err)
			report.Failed = append(report.Failed, id)
			continue
		}
		if updated {
			report.Updated++
		}
	}

	logger.Info("Coordinate backfill finished", "processed", report.Processed, "updated", report.Updated, "failed", len(report.Failed))
	return report, nil
}
