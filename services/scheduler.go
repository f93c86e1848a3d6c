// services/scheduler.go
package services

import (
	"log"
	"time"

	"vibetrax-service/models"

	"github.com/go-co-op/gocron/v2"
)

// StartIntentSweeper expires pending claim intents that never made it
// on-chain. Their snapshotted rows stay unclaimed, so the user simply claims
// again later. Submitted intents are left alone - those belong to the
// reconciler, which can still settle them against a confirmed transaction.
func (o *ClaimOrchestrator) StartIntentSweeper(ttl time.Duration) {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	// Every minute: expire pending intents past their TTL
	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			cutoff := time.Now().Add(-ttl)
			res := o.DB.Model(&models.ClaimIntent{}).
				Where("status = ? AND created_at <= ?", models.IntentStatusPending, cutoff).
				Update("status", models.IntentStatusExpired)
			if res.Error != nil {
				log.Printf("[Sweeper] DB error: %v", res.Error)
				return
			}
			if res.RowsAffected > 0 {
				log.Printf("✅ Expired %d stale claim intents", res.RowsAffected)
			}
		}),
	)
}
