// handlers/tracks.go
package handlers

import (
	"errors"
	"log"
	"strconv"

	"vibetrax-service/services"
	"vibetrax-service/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupTrackRoutes(api fiber.Router, tracks *services.TrackService, stats *services.StatsService) {
	// GET /api/nfts/:nftAddress/stats - live engagement counters
	api.Get("/nfts/:nftAddress/stats", func(c *fiber.Ctx) error {
		nftAddress := c.Params("nftAddress")

		nftStats, err := stats.NftStats(nftAddress)
		if err != nil {
			log.Printf("DB Error fetching NFT stats: %v", err)
			return respondError(c, fiber.StatusInternalServerError, "Failed to fetch NFT stats")
		}
		return respondOK(c, nftStats)
	})

	// GET /api/tracks - registry listing, newest first
	api.Get("/tracks", func(c *fiber.Ctx) error {
		limit := 0
		if limitStr := c.Query("limit"); limitStr != "" {
			l, err := strconv.Atoi(limitStr)
			if err != nil || l <= 0 {
				return respondError(c, fiber.StatusBadRequest, "Invalid limit parameter")
			}
			limit = l
		}

		list, err := tracks.ListTracks(limit)
		if err != nil {
			log.Printf("DB Error listing tracks: %v", err)
			return respondError(c, fiber.StatusInternalServerError, "Failed to list tracks")
		}
		return respondOK(c, list)
	})

	// GET /api/tracks/:nftAddress - one track with its live stats
	api.Get("/tracks/:nftAddress", func(c *fiber.Ctx) error {
		nftAddress := c.Params("nftAddress")

		track, err := tracks.GetTrackByNftAddress(nftAddress)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respondError(c, fiber.StatusNotFound, "Track not found")
		}
		if err != nil {
			log.Printf("DB Error fetching track: %v", err)
			return respondError(c, fiber.StatusInternalServerError, "Failed to fetch track")
		}

		nftStats, err := stats.NftStats(nftAddress)
		if err != nil {
			log.Printf("DB Error fetching track stats: %v", err)
			return respondError(c, fiber.StatusInternalServerError, "Failed to fetch track stats")
		}

		return respondOK(c, fiber.Map{"track": track, "stats": nftStats})
	})

	// POST /api/tracks - register a minted track (multipart: metadata +
	// audio + optional cover)
	api.Post("/tracks", func(c *fiber.Ctx) error {
		input := services.TrackInput{
			NftAddress:     c.FormValue("nftAddress"),
			Title:          c.FormValue("title"),
			Artist:         c.FormValue("artist"),
			Genre:          c.FormValue("genre"),
			CreatorAddress: c.FormValue("creatorAddress"),
		}
		if durationStr := c.FormValue("duration"); durationStr != "" {
			d, err := strconv.Atoi(durationStr)
			if err != nil || d < 0 {
				return respondError(c, fiber.StatusBadRequest, "Invalid duration")
			}
			input.DurationSeconds = d
		}

		if input.NftAddress == "" || input.Title == "" {
			return respondError(c, fiber.StatusBadRequest,
				"Missing required fields: nftAddress, title")
		}

		audio, _ := c.FormFile("audio")
		cover, _ := c.FormFile("cover")
		if (audio != nil || cover != nil) && !utils.StorageReady() {
			return respondError(c, fiber.StatusServiceUnavailable,
				"Object storage is not configured")
		}

		track, err := tracks.CreateTrack(input, audio, cover)
		if errors.Is(err, services.ErrTrackExists) {
			return respondError(c, fiber.StatusBadRequest, err.Error())
		}
		if err != nil {
			log.Printf("Error creating track: %v", err)
			return respondError(c, fiber.StatusInternalServerError, "Failed to create track")
		}
		return respondOK(c, track)
	})
}
