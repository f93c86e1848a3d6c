package models

import "time"

// StreamEvent records one completed playback (≥30s) of a track by a listener.
// Rows are append-only: Claimed is the only field that ever changes, and rows
// are never deleted (audit trail for reward settlement).
type StreamEvent struct {
	ID             string    `json:"id" gorm:"primaryKey"`
	UserAddress    string    `json:"user_address" gorm:"index;not null"`
	NftAddress     string    `json:"nft_address" gorm:"index;not null"`
	StreamDuration int       `json:"stream_duration" gorm:"not null"` // seconds
	IPAddress      string    `json:"ip_address,omitempty"`
	UserAgent      string    `json:"user_agent,omitempty"`
	Claimed        bool      `json:"claimed" gorm:"default:false;index"`
	CreatedAt      time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (StreamEvent) TableName() string {
	return "streams"
}
