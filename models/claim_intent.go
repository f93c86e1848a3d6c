package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// StringList stores a JSON-encoded string slice in a text column.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("cannot scan %T into StringList", value)
	}
}

// IntentStatus tracks a claim intent through the settlement saga
type IntentStatus string

const (
	IntentStatusPending   IntentStatus = "pending"   // snapshot taken, transaction not yet submitted
	IntentStatusSubmitted IntentStatus = "submitted" // transaction hash known, awaiting confirmation
	IntentStatusCompleted IntentStatus = "completed" // rows flipped, RewardClaim written
	IntentStatusFailed    IntentStatus = "failed"    // transaction reverted on-chain
	IntentStatusExpired   IntentStatus = "expired"   // abandoned; rows remain claimable
)

// ClaimIntent is the persisted saga record written before a claim transaction
// is submitted on-chain. StreamIDs/LikeIDs pin the exact rows the snapshot
// counted, so settlement flips those rows and nothing else - events arriving
// mid-claim are never swept into a claim that did not count them. A crash
// between transaction confirmation and settlement leaves a submitted intent
// behind, which the reconciler resolves.
type ClaimIntent struct {
	ID              string       `json:"id" gorm:"primaryKey"`
	UserAddress     string       `json:"user_address" gorm:"index;not null"`
	StreamsCount    int64        `json:"streams_count"`
	LikesCount      int64        `json:"likes_count"`
	TokensEarned    int64        `json:"tokens_earned"`
	NftAddresses    StringList   `json:"nft_addresses" gorm:"type:text"`
	StreamIDs       StringList   `json:"-" gorm:"type:text"`
	LikeIDs         StringList   `json:"-" gorm:"type:text"`
	TransactionHash string       `json:"transaction_hash"`
	Status          IntentStatus `json:"status" gorm:"not null;default:'pending';index"`
	CreatedAt       time.Time    `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt       time.Time    `json:"updated_at" gorm:"autoUpdateTime"`
}

func (ClaimIntent) TableName() string {
	return "claim_intents"
}
