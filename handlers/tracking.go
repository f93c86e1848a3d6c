// handlers/tracking.go
package handlers

import (
	"errors"
	"log"

	"vibetrax-service/services"

	"github.com/gofiber/fiber/v2"
)

type streamRequest struct {
	UserAddress string `json:"userAddress"`
	NftAddress  string `json:"nftAddress"`
	Duration    int    `json:"duration"`
}

type likeRequest struct {
	UserAddress string `json:"userAddress"`
	NftAddress  string `json:"nftAddress"`
}

func SetupTrackingRoutes(api fiber.Router, tracking *services.TrackingService) {
	// POST /api/streams - record a completed playback
	api.Post("/streams", func(c *fiber.Ctx) error {
		var req streamRequest
		if err := c.BodyParser(&req); err != nil {
			return respondError(c, fiber.StatusBadRequest, "Invalid request body")
		}
		if req.UserAddress == "" || req.NftAddress == "" || req.Duration == 0 {
			return respondError(c, fiber.StatusBadRequest,
				"Missing required fields: userAddress, nftAddress, duration")
		}
		if req.Duration < services.MinStreamDuration {
			return respondError(c, fiber.StatusBadRequest,
				"Stream duration must be at least 30 seconds")
		}

		event, err := tracking.RecordStream(req.UserAddress, req.NftAddress, req.Duration,
			c.IP(), c.Get("User-Agent"))
		if err != nil {
			log.Printf("DB Error recording stream: %v", err)
			return respondError(c, fiber.StatusInternalServerError, "Failed to record stream")
		}
		return respondOK(c, event)
	})

	// POST /api/likes - record a like
	api.Post("/likes", func(c *fiber.Ctx) error {
		var req likeRequest
		if err := c.BodyParser(&req); err != nil {
			return respondError(c, fiber.StatusBadRequest, "Invalid request body")
		}
		if req.UserAddress == "" || req.NftAddress == "" {
			return respondError(c, fiber.StatusBadRequest,
				"Missing required fields: userAddress, nftAddress")
		}

		like, err := tracking.RecordLike(req.UserAddress, req.NftAddress)
		if errors.Is(err, services.ErrAlreadyLiked) {
			return respondError(c, fiber.StatusBadRequest, err.Error())
		}
		if err != nil {
			log.Printf("DB Error recording like: %v", err)
			return respondError(c, fiber.StatusInternalServerError, "Failed to record like")
		}
		return respondOK(c, like)
	})

	// DELETE /api/likes - un-like (no-op success when nothing matched)
	api.Delete("/likes", func(c *fiber.Ctx) error {
		var req likeRequest
		if err := c.BodyParser(&req); err != nil {
			return respondError(c, fiber.StatusBadRequest, "Invalid request body")
		}
		if req.UserAddress == "" || req.NftAddress == "" {
			return respondError(c, fiber.StatusBadRequest,
				"Missing required fields: userAddress, nftAddress")
		}

		if err := tracking.RemoveLike(req.UserAddress, req.NftAddress); err != nil {
			log.Printf("DB Error removing like: %v", err)
			return respondError(c, fiber.StatusInternalServerError, "Failed to remove like")
		}
		return respondOK(c, nil)
	})
}
