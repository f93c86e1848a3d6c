package models

import "time"

// ClaimStatus indicates the settlement state of a recorded claim
type ClaimStatus string

const (
	ClaimStatusCompleted ClaimStatus = "completed"
)

// RewardClaim is the immutable record of one successful reward settlement:
// the counts that were flipped to claimed and the on-chain transaction that
// minted the tokens. Exactly one row per successful claim.
type RewardClaim struct {
	ID              string      `json:"id" gorm:"primaryKey"`
	UserAddress     string      `json:"user_address" gorm:"index;not null"`
	StreamsCount    int64       `json:"streams_count"`
	LikesCount      int64       `json:"likes_count"`
	TokensEarned    int64       `json:"tokens_earned"`
	TransactionHash string      `json:"transaction_hash"`
	Status          ClaimStatus `json:"status" gorm:"not null;default:'completed'"`
	CreatedAt       time.Time   `json:"created_at" gorm:"autoCreateTime"`
}

func (RewardClaim) TableName() string {
	return "reward_claims"
}
