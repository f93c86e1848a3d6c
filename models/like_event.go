package models

import "time"

// LikeEvent = user liked a track. At most one row may exist per
// (user_address, nft_address) pair - enforced by the composite unique index,
// not by a pre-read, so two concurrent likes cannot both land.
// Un-liking hard-deletes the row (intentionally asymmetric with streams).
type LikeEvent struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	UserAddress string    `json:"user_address" gorm:"not null;uniqueIndex:idx_likes_user_nft"`
	NftAddress  string    `json:"nft_address" gorm:"not null;uniqueIndex:idx_likes_user_nft"`
	Claimed     bool      `json:"claimed" gorm:"default:false;index"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (LikeEvent) TableName() string {
	return "likes"
}
