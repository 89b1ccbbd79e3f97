package job

import (
	"context"
	"log"
	"time"

	"trxmining/internal/service"
)

const sweepBatchSize = 200

// MiningSweep completes running nodes whose duration has elapsed, so
// payouts land even when nobody reads the node list.
type MiningSweep struct {
	purchases *service.PurchaseService
	interval  time.Duration
}

func NewMiningSweep(purchases *service.PurchaseService, interval time.Duration) *MiningSweep {
	return &MiningSweep{purchases: purchases, interval: interval}
}

func (j *MiningSweep) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()
		log.Println("[MiningSweep] started")
		for {
			select {
			case <-ctx.Done():
				log.Println("[MiningSweep] stopped")
				return
			case now := <-ticker.C:
				completed, err := j.purchases.CompleteElapsed(ctx, now, sweepBatchSize)
				if err != nil {
					log.Printf("[MiningSweep] sweep failed: %v", err)
				}
				if completed > 0 {
					log.Printf("[MiningSweep] completed %d nodes", completed)
				}
			}
		}
	}()
}
