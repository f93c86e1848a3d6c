package models

import (
	"time"

	"gorm.io/gorm"
)

// Track is the off-chain registry entry for a minted music NFT: metadata plus
// the object-storage URLs for the audio file and cover art. The NFT itself
// lives on-chain; NftAddress links the two.
type Track struct {
	ID              string `json:"id" gorm:"primaryKey"`
	NftAddress      string `json:"nft_address" gorm:"uniqueIndex;not null"`
	Title           string `json:"title" gorm:"not null"`
	Artist          string `json:"artist"`
	Genre           string `json:"genre"`
	Slug            string `json:"slug" gorm:"index"`
	AudioURL        string `json:"audio_url"`
	CoverURL        string `json:"cover_url"`
	DurationSeconds int    `json:"duration_seconds"`
	CreatorAddress  string `json:"creator_address" gorm:"index"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Track) TableName() string {
	return "tracks"
}
