package workflows

import (
	"context"
	"errors"
	"fmt"

	"go.temporal.io/sdk/temporal"

	"github.com/mechlink/mechlink/internal/core/domain"
	"github.com/mechlink/mechlink/internal/core/usecases"
)

// BackfillActivities holds the activity implementations for the backfill workflow.
type BackfillActivities struct {
	Backfill *usecases.BackfillService
}

// ListWorkshopsMissingLocation returns ids of workshops that need geocoding.
func (a *BackfillActivities) ListWorkshopsMissingLocation(ctx context.Context, limit int) ([]string, error) {
	return a.Backfill.MissingLocation(ctx, limit)
}

// BackfillWorkshopLocation geocodes one workshop. It reports false when the
// address could not be resolved; such failures are not retried.
func (a *BackfillActivities) BackfillWorkshopLocation(ctx context.Context, workshopID string) (bool, error) {
	_, err := a.Backfill.BackfillWorkshop(ctx, workshopID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrInvalidInput):
		return false, nil
	case errors.Is(err, domain.ErrProviderUnavailable):
		return false, err
	default:
		return false, temporal.NewNonRetryableApplicationError(
			fmt.Sprintf("backfill workshop %s", workshopID), "BackfillError", err)
	}
}
