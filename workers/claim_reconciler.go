package workers

import (
	"context"
	"errors"
	"log"
	"time"

	"vibetrax-service/chain"
	"vibetrax-service/models"
	"vibetrax-service/services"

	"gorm.io/gorm"
)

// ClaimReconciler repairs the gap between on-chain settlement and off-chain
// bookkeeping. If a claim transaction confirmed but the finalize call never
// arrived (client crash, network partition), tokens were minted while the
// source rows stayed unclaimed - a double-credit waiting to happen on the
// next claim. The reconciler chases every submitted intent: confirmed →
// settle it, reverted → mark failed, unknown past the TTL → expire it.
type ClaimReconciler struct {
	DB           *gorm.DB
	Chain        chain.Client
	Orchestrator *services.ClaimOrchestrator

	// SubmittedTTL is how long an unconfirmed submitted intent may linger
	// before being expired.
	SubmittedTTL time.Duration
}

func NewClaimReconciler(db *gorm.DB, chainClient chain.Client, orchestrator *services.ClaimOrchestrator) *ClaimReconciler {
	return &ClaimReconciler{
		DB:           db,
		Chain:        chainClient,
		Orchestrator: orchestrator,
		SubmittedTTL: 30 * time.Minute,
	}
}

// ReconcileOnce processes the current backlog of submitted intents.
func (r *ClaimReconciler) ReconcileOnce(ctx context.Context) error {
	var intents []models.ClaimIntent
	err := r.DB.
		Where("status = ? AND transaction_hash <> ''", models.IntentStatusSubmitted).
		Order("created_at ASC").
		Find(&intents).Error
	if err != nil {
		return err
	}

	for _, intent := range intents {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := r.reconcileIntent(ctx, intent); err != nil {
			log.Printf("[Reconciler] Failed to reconcile intent %s: %v", intent.ID, err)
		}
	}
	return nil
}

func (r *ClaimReconciler) reconcileIntent(ctx context.Context, intent models.ClaimIntent) error {
	if r.Chain == nil {
		// No fullnode to ask; trust the recorded hash once the intent has
		// sat long enough that the client clearly went away.
		if time.Since(intent.CreatedAt) >= r.SubmittedTTL {
			_, err := r.Orchestrator.SettleIntent(&intent, intent.TransactionHash)
			if errors.Is(err, services.ErrIntentNotFound) {
				// A finalize call got there first.
				return nil
			}
			if err != nil {
				return err
			}
			log.Printf("✅ Settled orphaned claim intent %s (unverified, no chain client)", intent.ID)
		}
		return nil
	}

	info, err := r.Chain.TransactionByHash(ctx, intent.TransactionHash)
	if errors.Is(err, chain.ErrTxNotFound) {
		if time.Since(intent.CreatedAt) >= r.SubmittedTTL {
			log.Printf("⚠️  Expiring claim intent %s: transaction %s never confirmed", intent.ID, intent.TransactionHash)
			return r.DB.Model(&intent).Update("status", models.IntentStatusExpired).Error
		}
		return nil
	}
	if err != nil {
		return err
	}

	if !info.Success {
		log.Printf("⚠️  Claim intent %s: transaction %s reverted (%s)", intent.ID, intent.TransactionHash, info.VMStatus)
		return r.DB.Model(&intent).Update("status", models.IntentStatusFailed).Error
	}

	if _, err := r.Orchestrator.SettleIntent(&intent, intent.TransactionHash); err != nil {
		if errors.Is(err, services.ErrIntentNotFound) {
			// A finalize call got there first.
			return nil
		}
		return err
	}
	log.Printf("✅ Settled orphaned claim intent %s against confirmed tx %s", intent.ID, intent.TransactionHash)
	return nil
}

// PollClaimIntents runs the reconciler until the context is cancelled.
func PollClaimIntents(ctx context.Context, reconciler *ClaimReconciler, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Printf("Claim reconciler polling every %s", interval)

	for {
		select {
		case <-ctx.Done():
			log.Println("Claim reconciler stopped")
			return
		case <-ticker.C:
			if err := reconciler.ReconcileOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("[Reconciler] Pass failed: %v", err)
			}
		}
	}
}
