// services/track_service.go
package services

import (
	"errors"
	"fmt"
	"mime/multipart"
	"path/filepath"

	"vibetrax-service/models"
	"vibetrax-service/utils"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

var ErrTrackExists = errors.New("A track is already registered for this NFT address")

type TrackService struct {
	DB *gorm.DB
}

func NewTrackService(db *gorm.DB) *TrackService {
	return &TrackService{DB: db}
}

// TrackInput is the metadata half of a track registration; the audio and
// cover files arrive as multipart parts alongside it.
type TrackInput struct {
	NftAddress      string
	Title           string
	Artist          string
	Genre           string
	DurationSeconds int
	CreatorAddress  string
}

// CreateTrack registers a minted NFT's metadata and pushes its assets to R2.
// Uploads happen before the insert so a storage failure never leaves a track
// row pointing at nothing.
func (s *TrackService) CreateTrack(input TrackInput, audio, cover *multipart.FileHeader) (*models.Track, error) {
	var existing models.Track
	err := s.DB.Where("nft_address = ?", input.NftAddress).First(&existing).Error
	if err == nil {
		return nil, ErrTrackExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	track := &models.Track{
		ID:              uuid.NewString(),
		NftAddress:      input.NftAddress,
		Title:           input.Title,
		Artist:          input.Artist,
		Genre:           input.Genre,
		Slug:            slug.Make(input.Title),
		DurationSeconds: input.DurationSeconds,
		CreatorAddress:  input.CreatorAddress,
	}

	if audio != nil {
		key := fmt.Sprintf("audio/%s%s", track.ID, filepath.Ext(audio.Filename))
		url, err := utils.UploadFileToR2(audio, key)
		if err != nil {
			return nil, err
		}
		track.AudioURL = url
	}
	if cover != nil {
		key := fmt.Sprintf("covers/%s%s", track.ID, filepath.Ext(cover.Filename))
		url, err := utils.UploadFileToR2(cover, key)
		if err != nil {
			return nil, err
		}
		track.CoverURL = url
	}

	if err := s.DB.Create(track).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrTrackExists
		}
		return nil, err
	}
	return track, nil
}

// ListTracks returns the registry, newest first.
func (s *TrackService) ListTracks(limit int) ([]models.Track, error) {
	tracks := make([]models.Track, 0)
	query := s.DB.Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&tracks).Error; err != nil {
		return nil, err
	}
	return tracks, nil
}

// GetTrackByNftAddress resolves one track by its on-chain address.
func (s *TrackService) GetTrackByNftAddress(nftAddress string) (*models.Track, error) {
	var track models.Track
	err := s.DB.Where("nft_address = ?", nftAddress).First(&track).Error
	if err != nil {
		return nil, err
	}
	return &track, nil
}
