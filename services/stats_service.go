// services/stats_service.go
package services

import (
	"vibetrax-service/models"

	"gorm.io/gorm"
)

// NftStats are the public engagement counters for one track. Recomputed per
// call; nothing is cached.
type NftStats struct {
	TotalStreams    int64 `json:"totalStreams"`
	TotalLikes      int64 `json:"totalLikes"`
	UniqueListeners int64 `json:"uniqueListeners"`
}

type StatsService struct {
	DB *gorm.DB
}

func NewStatsService(db *gorm.DB) *StatsService {
	return &StatsService{DB: db}
}

func (s *StatsService) NftStats(nftAddress string) (*NftStats, error) {
	stats := &NftStats{}

	if err := s.DB.Model(&models.StreamEvent{}).
		Where("nft_address = ?", nftAddress).
		Count(&stats.TotalStreams).Error; err != nil {
		return nil, err
	}

	if err := s.DB.Model(&models.LikeEvent{}).
		Where("nft_address = ?", nftAddress).
		Count(&stats.TotalLikes).Error; err != nil {
		return nil, err
	}

	if err := s.DB.Model(&models.StreamEvent{}).
		Where("nft_address = ?", nftAddress).
		Distinct("user_address").
		Count(&stats.UniqueListeners).Error; err != nil {
		return nil, err
	}

	return stats, nil
}
