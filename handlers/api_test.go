package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"vibetrax-service/models"
	"vibetrax-service/services"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func newTestApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.StreamEvent{},
		&models.LikeEvent{},
		&models.RewardClaim{},
		&models.ClaimIntent{},
		&models.Track{},
	))

	tracking := services.NewTrackingService(db)
	rewards := services.NewRewardsService(db)
	stats := services.NewStatsService(db)
	tracks := services.NewTrackService(db)
	orchestrator := services.NewClaimOrchestrator(db, rewards, nil)

	app := fiber.New()
	api := app.Group("/api")
	SetupTrackingRoutes(api, tracking)
	SetupRewardRoutes(api, rewards, orchestrator)
	SetupTrackRoutes(api, tracks, stats)

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "Route not found",
		})
	})

	return app, db
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}) (*http.Response, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp, env
}

func TestPostStreamRejectsShortDuration(t *testing.T) {
	app, db := newTestApp(t)

	resp, env := doJSON(t, app, http.MethodPost, "/api/streams", fiber.Map{
		"userAddress": "0xuser",
		"nftAddress":  "0xnft",
		"duration":    10,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.False(t, env.Success)
	assert.Contains(t, env.Error, "30 seconds")

	var count int64
	require.NoError(t, db.Model(&models.StreamEvent{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestPostStreamRejectsMissingFields(t *testing.T) {
	app, _ := newTestApp(t)

	resp, env := doJSON(t, app, http.MethodPost, "/api/streams", fiber.Map{
		"userAddress": "0xuser",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, env.Error, "Missing required fields")
}

func TestEngagementScenario(t *testing.T) {
	app, _ := newTestApp(t)

	// User A streams X for 45s, then likes X
	resp, env := doJSON(t, app, http.MethodPost, "/api/streams", fiber.Map{
		"userAddress": "A", "nftAddress": "X", "duration": 45,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, env.Success)

	resp, env = doJSON(t, app, http.MethodPost, "/api/likes", fiber.Map{
		"userAddress": "A", "nftAddress": "X",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, env.Success)

	resp, env = doJSON(t, app, http.MethodGet, "/api/rewards/A", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var agg services.UnclaimedRewards
	require.NoError(t, json.Unmarshal(env.Data, &agg))
	assert.EqualValues(t, 1, agg.Streams)
	assert.EqualValues(t, 1, agg.Likes)
	assert.EqualValues(t, 3, agg.TokensEarned)
	assert.Equal(t, []string{"X"}, agg.NftAddresses)
}

func TestDoubleLikeOverHTTP(t *testing.T) {
	app, _ := newTestApp(t)

	body := fiber.Map{"userAddress": "A", "nftAddress": "X"}
	resp, _ := doJSON(t, app, http.MethodPost, "/api/likes", body)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, env := doJSON(t, app, http.MethodPost, "/api/likes", body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Already liked this track", env.Error)
}

func TestUnlikeOverHTTP(t *testing.T) {
	app, _ := newTestApp(t)

	body := fiber.Map{"userAddress": "A", "nftAddress": "X"}
	resp, _ := doJSON(t, app, http.MethodPost, "/api/likes", body)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodDelete, "/api/likes", body)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_, env := doJSON(t, app, http.MethodGet, "/api/rewards/A", nil)
	var agg services.UnclaimedRewards
	require.NoError(t, json.Unmarshal(env.Data, &agg))
	assert.Zero(t, agg.Likes)
}

func TestClaimFlowOverHTTP(t *testing.T) {
	app, _ := newTestApp(t)

	resp, _ := doJSON(t, app, http.MethodPost, "/api/streams", fiber.Map{
		"userAddress": "A", "nftAddress": "X", "duration": 60,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, env := doJSON(t, app, http.MethodPost, "/api/rewards/claim/intent", fiber.Map{
		"userAddress": "A",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var intent models.ClaimIntent
	require.NoError(t, json.Unmarshal(env.Data, &intent))
	assert.Equal(t, models.IntentStatusPending, intent.Status)

	resp, _ = doJSON(t, app, http.MethodPost, "/api/rewards/claim/submit", fiber.Map{
		"intentId": intent.ID, "transactionHash": "0xHASH",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, env = doJSON(t, app, http.MethodPost, "/api/rewards/claim", fiber.Map{
		"userAddress": "A", "transactionHash": "0xHASH",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var claim models.RewardClaim
	require.NoError(t, json.Unmarshal(env.Data, &claim))
	assert.Equal(t, "0xHASH", claim.TransactionHash)
	assert.EqualValues(t, 1, claim.StreamsCount)

	// Aggregate drained, history has exactly the one claim
	_, env = doJSON(t, app, http.MethodGet, "/api/rewards/A", nil)
	var agg services.UnclaimedRewards
	require.NoError(t, json.Unmarshal(env.Data, &agg))
	assert.Zero(t, agg.TokensEarned)

	_, env = doJSON(t, app, http.MethodGet, "/api/rewards/history/A", nil)
	var history []models.RewardClaim
	require.NoError(t, json.Unmarshal(env.Data, &history))
	require.Len(t, history, 1)
	assert.Equal(t, "0xHASH", history[0].TransactionHash)
}

func TestClaimRequiresBothFields(t *testing.T) {
	app, _ := newTestApp(t)

	resp, env := doJSON(t, app, http.MethodPost, "/api/rewards/claim", fiber.Map{
		"userAddress": "A",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, env.Error, "transactionHash")
}

func TestClaimWithNothingUnclaimed(t *testing.T) {
	app, _ := newTestApp(t)

	resp, env := doJSON(t, app, http.MethodPost, "/api/rewards/claim", fiber.Map{
		"userAddress": "A", "transactionHash": "0xHASH",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "No unclaimed rewards to claim", env.Error)
}

func TestNftStatsOverHTTP(t *testing.T) {
	app, _ := newTestApp(t)

	for _, user := range []string{"A", "B"} {
		resp, _ := doJSON(t, app, http.MethodPost, "/api/streams", fiber.Map{
			"userAddress": user, "nftAddress": "X", "duration": 45,
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	_, env := doJSON(t, app, http.MethodGet, "/api/nfts/X/stats", nil)
	var stats services.NftStats
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.EqualValues(t, 2, stats.TotalStreams)
	assert.EqualValues(t, 2, stats.UniqueListeners)
	assert.Zero(t, stats.TotalLikes)
}

func TestEligibilityWithoutChain(t *testing.T) {
	app, _ := newTestApp(t)

	_, env := doJSON(t, app, http.MethodGet, "/api/rewards/eligibility/A", nil)
	require.True(t, env.Success)

	var data struct {
		CanClaim bool `json:"canClaim"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.True(t, data.CanClaim, "no chain client means no cooldown gate")
}

func TestUnknownRoute(t *testing.T) {
	app, _ := newTestApp(t)

	resp, env := doJSON(t, app, http.MethodGet, "/api/does-not-exist", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Route not found", env.Error)
}
