// handlers/rewards.go
package handlers

import (
	"errors"
	"log"

	"vibetrax-service/services"

	"github.com/gofiber/fiber/v2"
)

type claimRequest struct {
	UserAddress     string `json:"userAddress"`
	TransactionHash string `json:"transactionHash"`
}

type intentRequest struct {
	UserAddress string `json:"userAddress"`
}

type submitRequest struct {
	IntentID        string `json:"intentId"`
	TransactionHash string `json:"transactionHash"`
}

func SetupRewardRoutes(api fiber.Router, rewards *services.RewardsService, orchestrator *services.ClaimOrchestrator) {
	// GET /api/rewards/eligibility/:userAddress - contract cooldown check
	api.Get("/rewards/eligibility/:userAddress", func(c *fiber.Ctx) error {
		userAddress := c.Params("userAddress")

		eligible, err := orchestrator.Eligibility(c.Context(), userAddress)
		if err != nil {
			log.Printf("Chain error checking eligibility for %s: %v", userAddress, err)
			return respondError(c, fiber.StatusInternalServerError, "Failed to check claim eligibility")
		}
		return respondOK(c, fiber.Map{"canClaim": eligible})
	})

	// GET /api/rewards/history/:userAddress - claims, newest first
	api.Get("/rewards/history/:userAddress", func(c *fiber.Ctx) error {
		userAddress := c.Params("userAddress")

		claims, err := rewards.ClaimHistory(userAddress)
		if err != nil {
			log.Printf("DB Error fetching claim history: %v", err)
			return respondError(c, fiber.StatusInternalServerError, "Failed to fetch claim history")
		}
		return respondOK(c, claims)
	})

	// POST /api/rewards/claim/intent - snapshot unclaimed rows before the
	// on-chain transaction is built
	api.Post("/rewards/claim/intent", func(c *fiber.Ctx) error {
		var req intentRequest
		if err := c.BodyParser(&req); err != nil {
			return respondError(c, fiber.StatusBadRequest, "Invalid request body")
		}
		if req.UserAddress == "" {
			return respondError(c, fiber.StatusBadRequest, "Missing required field: userAddress")
		}

		intent, err := orchestrator.CreateIntent(c.Context(), req.UserAddress)
		if errors.Is(err, services.ErrCooldownActive) ||
			errors.Is(err, services.ErrNothingToClaim) ||
			errors.Is(err, services.ErrClaimInFlight) {
			return respondError(c, fiber.StatusBadRequest, err.Error())
		}
		if err != nil {
			log.Printf("Error creating claim intent: %v", err)
			return respondError(c, fiber.StatusInternalServerError, "Failed to create claim intent")
		}
		return respondOK(c, intent)
	})

	// POST /api/rewards/claim/submit - record the broadcast tx hash on an
	// intent so the reconciler can chase it
	api.Post("/rewards/claim/submit", func(c *fiber.Ctx) error {
		var req submitRequest
		if err := c.BodyParser(&req); err != nil {
			return respondError(c, fiber.StatusBadRequest, "Invalid request body")
		}
		if req.IntentID == "" || req.TransactionHash == "" {
			return respondError(c, fiber.StatusBadRequest,
				"Missing required fields: intentId, transactionHash")
		}

		err := orchestrator.MarkSubmitted(req.IntentID, req.TransactionHash)
		if errors.Is(err, services.ErrIntentNotFound) {
			return respondError(c, fiber.StatusBadRequest, err.Error())
		}
		if err != nil {
			log.Printf("Error marking intent submitted: %v", err)
			return respondError(c, fiber.StatusInternalServerError, "Failed to update claim intent")
		}
		return respondOK(c, nil)
	})

	// POST /api/rewards/claim - settle after the transaction succeeded
	api.Post("/rewards/claim", func(c *fiber.Ctx) error {
		var req claimRequest
		if err := c.BodyParser(&req); err != nil {
			return respondError(c, fiber.StatusBadRequest, "Invalid request body")
		}
		if req.UserAddress == "" || req.TransactionHash == "" {
			return respondError(c, fiber.StatusBadRequest,
				"Missing required fields: userAddress, transactionHash")
		}

		claim, err := orchestrator.Finalize(c.Context(), req.UserAddress, req.TransactionHash)
		switch {
		case errors.Is(err, services.ErrNothingToClaim),
			errors.Is(err, services.ErrTransactionFailed),
			errors.Is(err, services.ErrTransactionUnknown),
			errors.Is(err, services.ErrIntentNotFound):
			return respondError(c, fiber.StatusBadRequest, err.Error())
		case err != nil:
			log.Printf("Error finalizing claim for %s: %v", req.UserAddress, err)
			return respondError(c, fiber.StatusInternalServerError, "Failed to mark rewards claimed")
		}
		return respondOK(c, claim)
	})

	// GET /api/rewards/:userAddress - unclaimed aggregate
	// Registered last so the specific /rewards/* routes above win.
	api.Get("/rewards/:userAddress", func(c *fiber.Ctx) error {
		userAddress := c.Params("userAddress")

		agg, err := rewards.UnclaimedRewards(userAddress)
		if err != nil {
			log.Printf("DB Error fetching unclaimed rewards: %v", err)
			return respondError(c, fiber.StatusInternalServerError, "Failed to fetch unclaimed rewards")
		}
		return respondOK(c, agg)
	})
}
