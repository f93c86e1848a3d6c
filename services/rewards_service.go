// services/rewards_service.go
package services

import (
	"vibetrax-service/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Token weights: 1 VIBE per stream, 2 VIBE per like.
const (
	TokensPerStream = 1
	TokensPerLike   = 2
)

// UnclaimedRewards is the derived aggregate over a user's unclaimed rows.
// StreamIDs/LikeIDs pin the exact rows that were counted so a later
// settlement flips those rows and only those rows.
type UnclaimedRewards struct {
	Streams      int64    `json:"streams"`
	Likes        int64    `json:"likes"`
	TokensEarned int64    `json:"tokensEarned"`
	NftAddresses []string `json:"nftAddresses"`

	StreamIDs []string `json:"-"`
	LikeIDs   []string `json:"-"`
}

type RewardsService struct {
	DB *gorm.DB
}

func NewRewardsService(db *gorm.DB) *RewardsService {
	return &RewardsService{DB: db}
}

// UnclaimedRewards recomputes the aggregate from source rows on every call.
// No cache: staleness is bounded only by request latency.
func (s *RewardsService) UnclaimedRewards(userAddress string) (*UnclaimedRewards, error) {
	var streams []models.StreamEvent
	if err := s.DB.Select("id", "nft_address").
		Where("user_address = ? AND claimed = ?", userAddress, false).
		Find(&streams).Error; err != nil {
		return nil, err
	}

	var likes []models.LikeEvent
	if err := s.DB.Select("id", "nft_address").
		Where("user_address = ? AND claimed = ?", userAddress, false).
		Find(&likes).Error; err != nil {
		return nil, err
	}

	agg := &UnclaimedRewards{
		Streams:      int64(len(streams)),
		Likes:        int64(len(likes)),
		NftAddresses: make([]string, 0),
		StreamIDs:    make([]string, 0, len(streams)),
		LikeIDs:      make([]string, 0, len(likes)),
	}
	agg.TokensEarned = agg.Streams*TokensPerStream + agg.Likes*TokensPerLike

	seen := make(map[string]struct{})
	for _, ev := range streams {
		agg.StreamIDs = append(agg.StreamIDs, ev.ID)
		if _, ok := seen[ev.NftAddress]; !ok {
			seen[ev.NftAddress] = struct{}{}
			agg.NftAddresses = append(agg.NftAddresses, ev.NftAddress)
		}
	}
	for _, like := range likes {
		agg.LikeIDs = append(agg.LikeIDs, like.ID)
		if _, ok := seen[like.NftAddress]; !ok {
			seen[like.NftAddress] = struct{}{}
			agg.NftAddresses = append(agg.NftAddresses, like.NftAddress)
		}
	}

	return agg, nil
}

// MarkClaimed snapshots the user's unclaimed rows and settles them against
// the supplied transaction hash.
func (s *RewardsService) MarkClaimed(userAddress, transactionHash string) (*models.RewardClaim, error) {
	snapshot, err := s.UnclaimedRewards(userAddress)
	if err != nil {
		return nil, err
	}

	var claim *models.RewardClaim
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		claim, err = s.settleSnapshot(tx, snapshot, userAddress, transactionHash)
		return err
	})
	if err != nil {
		return nil, err
	}
	return claim, nil
}

// settleSnapshot flips exactly the snapshotted rows to claimed=true and
// records the RewardClaim, inside the caller's transaction. Updating by row
// ID (not by claimed=false) keeps events that arrived after the snapshot out
// of this claim; stream/like rows are append-only so the IDs cannot vanish
// (un-like of a counted row is caught by RowsAffected drift being harmless:
// the claim records what was counted at snapshot time, which is what the
// on-chain transaction was paid out against).
func (s *RewardsService) settleSnapshot(tx *gorm.DB, snapshot *UnclaimedRewards, userAddress, transactionHash string) (*models.RewardClaim, error) {
	if snapshot.TokensEarned == 0 {
		return nil, ErrNothingToClaim
	}

	if len(snapshot.StreamIDs) > 0 {
		if err := tx.Model(&models.StreamEvent{}).
			Where("id IN ?", snapshot.StreamIDs).
			Update("claimed", true).Error; err != nil {
			return nil, err
		}
	}
	if len(snapshot.LikeIDs) > 0 {
		if err := tx.Model(&models.LikeEvent{}).
			Where("id IN ?", snapshot.LikeIDs).
			Update("claimed", true).Error; err != nil {
			return nil, err
		}
	}

	claim := &models.RewardClaim{
		ID:              uuid.NewString(),
		UserAddress:     userAddress,
		StreamsCount:    snapshot.Streams,
		LikesCount:      snapshot.Likes,
		TokensEarned:    snapshot.TokensEarned,
		TransactionHash: transactionHash,
		Status:          models.ClaimStatusCompleted,
	}
	if err := tx.Create(claim).Error; err != nil {
		return nil, err
	}
	return claim, nil
}

// ClaimHistory returns the user's claims, newest first.
func (s *RewardsService) ClaimHistory(userAddress string) ([]models.RewardClaim, error) {
	claims := make([]models.RewardClaim, 0)
	err := s.DB.Where("user_address = ?", userAddress).
		Order("created_at DESC").
		Find(&claims).Error
	if err != nil {
		return nil, err
	}
	return claims, nil
}
