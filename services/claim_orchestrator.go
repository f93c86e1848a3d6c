// services/claim_orchestrator.go
package services

import (
	"context"
	"errors"
	"log"

	"vibetrax-service/chain"
	"vibetrax-service/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ClaimOrchestrator drives the reward-settlement saga:
//
//	intent (snapshot) → on-chain transaction → settle (flip rows + RewardClaim)
//
// The intent is persisted before anything touches the chain, so a crash at
// any point leaves a record the reconciler can resolve instead of silently
// drifting state. Chain may be nil when no fullnode is configured; the
// service then runs store-only and treats every user as eligible.
type ClaimOrchestrator struct {
	DB      *gorm.DB
	Rewards *RewardsService
	Chain   chain.Client
}

func NewClaimOrchestrator(db *gorm.DB, rewards *RewardsService, chainClient chain.Client) *ClaimOrchestrator {
	return &ClaimOrchestrator{DB: db, Rewards: rewards, Chain: chainClient}
}

// Eligibility asks the contract whether the user's claim cooldown has elapsed.
func (o *ClaimOrchestrator) Eligibility(ctx context.Context, userAddress string) (bool, error) {
	if o.Chain == nil {
		return true, nil
	}
	return o.Chain.CanClaimRewards(ctx, userAddress)
}

// CreateIntent snapshots the user's unclaimed rows into a pending intent.
// Any previous pending intent for the user is superseded: its snapshot is
// stale the moment a new one is taken. A submitted intent is different: its
// transaction may already be on-chain, so opening a second snapshot over the
// same rows is refused until the reconciler resolves the first one.
func (o *ClaimOrchestrator) CreateIntent(ctx context.Context, userAddress string) (*models.ClaimIntent, error) {
	eligible, err := o.Eligibility(ctx, userAddress)
	if err != nil {
		return nil, err
	}
	if !eligible {
		return nil, ErrCooldownActive
	}

	snapshot, err := o.Rewards.UnclaimedRewards(userAddress)
	if err != nil {
		return nil, err
	}
	if snapshot.TokensEarned == 0 {
		return nil, ErrNothingToClaim
	}

	intent := &models.ClaimIntent{
		ID:           uuid.NewString(),
		UserAddress:  userAddress,
		StreamsCount: snapshot.Streams,
		LikesCount:   snapshot.Likes,
		TokensEarned: snapshot.TokensEarned,
		NftAddresses: models.StringList(snapshot.NftAddresses),
		StreamIDs:    models.StringList(snapshot.StreamIDs),
		LikeIDs:      models.StringList(snapshot.LikeIDs),
		Status:       models.IntentStatusPending,
	}

	err = o.DB.Transaction(func(tx *gorm.DB) error {
		var inFlight int64
		if err := tx.Model(&models.ClaimIntent{}).
			Where("user_address = ? AND status = ?", userAddress, models.IntentStatusSubmitted).
			Count(&inFlight).Error; err != nil {
			return err
		}
		if inFlight > 0 {
			return ErrClaimInFlight
		}
		if err := tx.Model(&models.ClaimIntent{}).
			Where("user_address = ? AND status = ?", userAddress, models.IntentStatusPending).
			Update("status", models.IntentStatusExpired).Error; err != nil {
			return err
		}
		return tx.Create(intent).Error
	})
	if err != nil {
		return nil, err
	}
	return intent, nil
}

// Finalize settles a claim after the on-chain transaction went through.
// It prefers the open intent's snapshot; when no intent exists (a client
// that skipped the intent step) it falls back to a fresh snapshot, which is
// the historical single-call behavior.
func (o *ClaimOrchestrator) Finalize(ctx context.Context, userAddress, transactionHash string) (*models.RewardClaim, error) {
	if err := o.verifyTransaction(ctx, transactionHash); err != nil {
		return nil, err
	}

	var intent models.ClaimIntent
	err := o.DB.
		Where("user_address = ? AND status IN ?", userAddress,
			[]models.IntentStatus{models.IntentStatusPending, models.IntentStatusSubmitted}).
		Order("created_at DESC").
		First(&intent).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return o.Rewards.MarkClaimed(userAddress, transactionHash)
	}
	if err != nil {
		return nil, err
	}

	return o.SettleIntent(&intent, transactionHash)
}

// SettleIntent flips the intent's snapshotted rows, records the RewardClaim
// and completes the intent - all in one transaction, so a crash can never
// leave rows claimed without a claim record or vice versa. The completion is
// a conditional update on the intent's status, so when the reconciler and a
// late finalize race, only one of them settles; the loser gets
// ErrIntentNotFound and no second RewardClaim is written.
func (o *ClaimOrchestrator) SettleIntent(intent *models.ClaimIntent, transactionHash string) (*models.RewardClaim, error) {
	snapshot := &UnclaimedRewards{
		Streams:      intent.StreamsCount,
		Likes:        intent.LikesCount,
		TokensEarned: intent.TokensEarned,
		NftAddresses: intent.NftAddresses,
		StreamIDs:    intent.StreamIDs,
		LikeIDs:      intent.LikeIDs,
	}

	var claim *models.RewardClaim
	err := o.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.ClaimIntent{}).
			Where("id = ? AND status IN ?", intent.ID,
				[]models.IntentStatus{models.IntentStatusPending, models.IntentStatusSubmitted}).
			Updates(map[string]interface{}{
				"status":           models.IntentStatusCompleted,
				"transaction_hash": transactionHash,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrIntentNotFound
		}
		var err error
		claim, err = o.Rewards.settleSnapshot(tx, snapshot, intent.UserAddress, transactionHash)
		return err
	})
	if err != nil {
		return nil, err
	}
	return claim, nil
}

// MarkSubmitted records the transaction hash on an intent once the client
// has broadcast the claim, so the reconciler can chase it if finalize never
// arrives.
func (o *ClaimOrchestrator) MarkSubmitted(intentID, transactionHash string) error {
	res := o.DB.Model(&models.ClaimIntent{}).
		Where("id = ? AND status = ?", intentID, models.IntentStatusPending).
		Updates(map[string]interface{}{
			"status":           models.IntentStatusSubmitted,
			"transaction_hash": transactionHash,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrIntentNotFound
	}
	return nil
}

// verifyTransaction rejects settlement against a hash the chain says failed
// or does not know. Transport errors are logged and waved through: the
// historical behavior never verified at all, and refusing settlement because
// the fullnode is briefly unreachable would strand confirmed claims.
func (o *ClaimOrchestrator) verifyTransaction(ctx context.Context, transactionHash string) error {
	if o.Chain == nil {
		return nil
	}

	info, err := o.Chain.TransactionByHash(ctx, transactionHash)
	if errors.Is(err, chain.ErrTxNotFound) {
		return ErrTransactionUnknown
	}
	if err != nil {
		log.Printf("[CLAIM] Transaction lookup failed for %s, proceeding unverified: %v", transactionHash, err)
		return nil
	}
	if !info.Success {
		return ErrTransactionFailed
	}
	return nil
}
