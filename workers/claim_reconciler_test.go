package workers

import (
	"context"
	"fmt"
	"testing"
	"time"

	"vibetrax-service/chain"
	"vibetrax-service/models"
	"vibetrax-service/services"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubChain struct {
	txs map[string]*chain.TransactionInfo
}

func (s *stubChain) CanClaimRewards(ctx context.Context, userAddress string) (bool, error) {
	return true, nil
}

func (s *stubChain) TransactionByHash(ctx context.Context, hash string) (*chain.TransactionInfo, error) {
	tx, ok := s.txs[hash]
	if !ok {
		return nil, chain.ErrTxNotFound
	}
	return tx, nil
}

func setup(t *testing.T, chainClient chain.Client) (*ClaimReconciler, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.StreamEvent{},
		&models.LikeEvent{},
		&models.RewardClaim{},
		&models.ClaimIntent{},
	))

	rewards := services.NewRewardsService(db)
	orchestrator := services.NewClaimOrchestrator(db, rewards, chainClient)
	return NewClaimReconciler(db, chainClient, orchestrator), db
}

// seedIntent writes one unclaimed stream plus a submitted intent snapshotting it.
func seedIntent(t *testing.T, db *gorm.DB, txHash string, age time.Duration) *models.ClaimIntent {
	t.Helper()

	stream := &models.StreamEvent{
		ID:             uuid.NewString(),
		UserAddress:    "0xuser",
		NftAddress:     "0xnft",
		StreamDuration: 45,
	}
	require.NoError(t, db.Create(stream).Error)

	intent := &models.ClaimIntent{
		ID:              uuid.NewString(),
		UserAddress:     "0xuser",
		StreamsCount:    1,
		TokensEarned:    1,
		NftAddresses:    models.StringList{"0xnft"},
		StreamIDs:       models.StringList{stream.ID},
		LikeIDs:         models.StringList{},
		TransactionHash: txHash,
		Status:          models.IntentStatusSubmitted,
		CreatedAt:       time.Now().Add(-age),
	}
	require.NoError(t, db.Create(intent).Error)
	return intent
}

func TestReconcileSettlesConfirmedIntent(t *testing.T) {
	reconciler, db := setup(t, &stubChain{txs: map[string]*chain.TransactionInfo{
		"0xHASH": {Hash: "0xHASH", Success: true},
	}})
	intent := seedIntent(t, db, "0xHASH", time.Minute)

	require.NoError(t, reconciler.ReconcileOnce(context.Background()))

	var reloaded models.ClaimIntent
	require.NoError(t, db.First(&reloaded, "id = ?", intent.ID).Error)
	assert.Equal(t, models.IntentStatusCompleted, reloaded.Status)

	var claims []models.RewardClaim
	require.NoError(t, db.Find(&claims).Error)
	require.Len(t, claims, 1)
	assert.Equal(t, "0xHASH", claims[0].TransactionHash)

	var unclaimed int64
	require.NoError(t, db.Model(&models.StreamEvent{}).
		Where("claimed = ?", false).Count(&unclaimed).Error)
	assert.Zero(t, unclaimed)
}

func TestReconcileSkipsAlreadySettledIntent(t *testing.T) {
	reconciler, db := setup(t, &stubChain{txs: map[string]*chain.TransactionInfo{
		"0xHASH": {Hash: "0xHASH", Success: true},
	}})
	intent := seedIntent(t, db, "0xHASH", time.Minute)

	// A late finalize call lands after the reconciler loaded its batch
	_, err := reconciler.Orchestrator.SettleIntent(intent, "0xHASH")
	require.NoError(t, err)

	require.NoError(t, reconciler.reconcileIntent(context.Background(), *intent))

	var claims []models.RewardClaim
	require.NoError(t, db.Find(&claims).Error)
	assert.Len(t, claims, 1, "the stale batch entry must not settle a second time")
}

func TestReconcileMarksRevertedIntentFailed(t *testing.T) {
	reconciler, db := setup(t, &stubChain{txs: map[string]*chain.TransactionInfo{
		"0xBAD": {Hash: "0xBAD", Success: false, VMStatus: "Move abort"},
	}})
	intent := seedIntent(t, db, "0xBAD", time.Minute)

	require.NoError(t, reconciler.ReconcileOnce(context.Background()))

	var reloaded models.ClaimIntent
	require.NoError(t, db.First(&reloaded, "id = ?", intent.ID).Error)
	assert.Equal(t, models.IntentStatusFailed, reloaded.Status)

	var unclaimed int64
	require.NoError(t, db.Model(&models.StreamEvent{}).
		Where("claimed = ?", false).Count(&unclaimed).Error)
	assert.EqualValues(t, 1, unclaimed, "rows stay claimable after a reverted claim")
}

func TestReconcileLeavesYoungUnknownIntent(t *testing.T) {
	reconciler, db := setup(t, &stubChain{})
	intent := seedIntent(t, db, "0xUNKNOWN", time.Minute)

	require.NoError(t, reconciler.ReconcileOnce(context.Background()))

	var reloaded models.ClaimIntent
	require.NoError(t, db.First(&reloaded, "id = ?", intent.ID).Error)
	assert.Equal(t, models.IntentStatusSubmitted, reloaded.Status,
		"recent intents wait for the transaction to confirm")
}

func TestReconcileExpiresStaleUnknownIntent(t *testing.T) {
	reconciler, db := setup(t, &stubChain{})
	intent := seedIntent(t, db, "0xUNKNOWN", time.Hour)

	require.NoError(t, reconciler.ReconcileOnce(context.Background()))

	var reloaded models.ClaimIntent
	require.NoError(t, db.First(&reloaded, "id = ?", intent.ID).Error)
	assert.Equal(t, models.IntentStatusExpired, reloaded.Status)
}
