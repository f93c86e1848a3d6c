// services/tracking_service.go
package services

import (
	"errors"
	"strings"

	"vibetrax-service/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MinStreamDuration is the shortest playback (seconds) that counts as a stream.
const MinStreamDuration = 30

type TrackingService struct {
	DB *gorm.DB
}

func NewTrackingService(db *gorm.DB) *TrackingService {
	return &TrackingService{DB: db}
}

// RecordStream appends a StreamEvent with claimed=false. The HTTP edge also
// validates duration, but direct callers get the same guard.
func (s *TrackingService) RecordStream(userAddress, nftAddress string, duration int, ipAddress, userAgent string) (*models.StreamEvent, error) {
	if duration < MinStreamDuration {
		return nil, ErrStreamTooShort
	}

	event := &models.StreamEvent{
		ID:             uuid.NewString(),
		UserAddress:    userAddress,
		NftAddress:     nftAddress,
		StreamDuration: duration,
		IPAddress:      ipAddress,
		UserAgent:      userAgent,
		Claimed:        false,
	}

	if err := s.DB.Create(event).Error; err != nil {
		return nil, err
	}
	return event, nil
}

// RecordLike inserts a LikeEvent for the pair. The point lookup gives the
// common case a clean answer; the unique index on (user_address, nft_address)
// is what actually closes the race between two concurrent likes.
func (s *TrackingService) RecordLike(userAddress, nftAddress string) (*models.LikeEvent, error) {
	var existing models.LikeEvent
	err := s.DB.Where("user_address = ? AND nft_address = ?", userAddress, nftAddress).
		First(&existing).Error
	if err == nil {
		return nil, ErrAlreadyLiked
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	like := &models.LikeEvent{
		ID:          uuid.NewString(),
		UserAddress: userAddress,
		NftAddress:  nftAddress,
		Claimed:     false,
	}

	if err := s.DB.Create(like).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAlreadyLiked
		}
		return nil, err
	}
	return like, nil
}

// RemoveLike hard-deletes the like for the pair. Success when nothing matched.
func (s *TrackingService) RemoveLike(userAddress, nftAddress string) error {
	return s.DB.Where("user_address = ? AND nft_address = ?", userAddress, nftAddress).
		Delete(&models.LikeEvent{}).Error
}

// HasLiked reports whether the pair currently has a like row.
func (s *TrackingService) HasLiked(userAddress, nftAddress string) (bool, error) {
	var count int64
	err := s.DB.Model(&models.LikeEvent{}).
		Where("user_address = ? AND nft_address = ?", userAddress, nftAddress).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// isUniqueViolation matches the constraint error text of both Postgres and
// sqlite, since gorm does not normalize driver errors.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "UNIQUE constraint failed") ||
		errors.Is(err, gorm.ErrDuplicatedKey)
}
