package fulfillment

import (
	"context"
	"fmt"
	"log"

	"smmpanel/internal/models"
	"smmpanel/internal/repositories"
	"smmpanel/internal/services/jobqueue"
	"smmpanel/internal/services/provider"
)

// ProviderCancelHandler returns the job handler for best-effort upstream
// cancellation. The refund has already committed by the time this runs, so a
// retryable upstream failure is retried by the queue and a permanent one is
// logged and absorbed.
func ProviderCancelHandler(providers repositories.ProviderRepository, gateway provider.Gateway) jobqueue.Handler {
	return func(ctx context.Context, job *models.Job) error {
		providerID := job.Payload.Uint("provider_id")
		providerOrderID := job.Payload.String("provider_order_id")
		if providerID == 0 || providerOrderID == "" {
			return fmt.Errorf("malformed provider cancel payload: %v", job.Payload)
		}

		prov, err := providers.GetProviderByID(providerID)
		if err != nil {
			return fmt.Errorf("failed to load provider %d: %w", providerID, err)
		}

		if err := gateway.CancelOrder(ctx, prov, providerOrderID); err != nil {
			if provider.IsRetryable(err) {
				return err
			}
			log.Printf("upstream cancel permanently rejected for provider order %s: %v", providerOrderID, err)
		}
		return nil
	}
}
