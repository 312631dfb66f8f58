package controller

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/must-canteen/internal/app/model"
	"github.com/ikkim/must-canteen/internal/app/repository"
	"github.com/ikkim/must-canteen/internal/app/service"
	"github.com/ikkim/must-canteen/internal/db"
	"github.com/ikkim/must-canteen/internal/middleware"
	"github.com/ikkim/must-canteen/pkg/util"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testDeviceHeader = "X-Test-Device"

func init() {
	util.BcryptCost = bcrypt.MinCost
}

func testStalls() []model.Stall {
	return []model.Stall{
		{
			ID:          "S1",
			Name:        "Noodle Bar",
			CuisineType: "中式",
			Rating:      4.5,
			Reviews: []model.Review{
				{ID: "r-s1-a", AuthorID: "u-other", AuthorName: "Bob", OverallRating: 5, Comment: "great", LikeCount: 2},
			},
			Menu: []model.Dish{
				{ID: "D1", Name: "Beef Noodles", Price: 40, Rating: 4.8},
				{ID: "D2", Name: "Dumplings", Price: 15, Rating: 4.1},
			},
		},
		{
			ID:          "S2",
			Name:        "Rice House",
			CuisineType: "日式",
			Rating:      4.0,
			Menu: []model.Dish{
				{ID: "D3", Name: "Curry Rice", Price: 30, Rating: 4.9},
			},
		},
	}
}

type testApp struct {
	router   *gin.Engine
	sessions *service.SessionManager
	catalog  service.CatalogService
}

// setupTestApp wires every controller on a fresh test database. The device id
// comes from the X-Test-Device header, "dev-1" when absent.
func setupTestApp(t *testing.T, opts service.GatewayOptions) *testApp {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	catalogRepo := repository.NewCatalogRepository(testStalls())
	if opts.Sleep == nil {
		opts.Sleep = func(time.Duration) {}
	}
	store := func(scope string) repository.KVStore {
		return repository.NewDeviceStore(testDB, scope)
	}
	factory := service.SessionFactory{
		Store:       store,
		Credentials: repository.NewCredentialRepository(store(repository.SharedScope)),
		Catalog:     catalogRepo,
		Gateway:     service.NewGatewayService(catalogRepo, opts),
	}
	sessions := service.NewSessionManager(factory.New, time.Hour)
	catalog := service.NewCatalogService(catalogRepo)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		deviceID := c.GetHeader(testDeviceHeader)
		if deviceID == "" {
			deviceID = "dev-1"
		}
		c.Set(middleware.DeviceIDKey, deviceID)
		c.Next()
	})

	auth := NewAuthController(sessions)
	router.POST("/auth/register", auth.Register)
	router.POST("/auth/login", auth.Login)
	router.POST("/auth/guest", auth.Guest)
	router.POST("/auth/logout", auth.Logout)
	router.GET("/auth/me", auth.GetMe)
	router.PUT("/auth/me", auth.UpdateMe)
	router.PUT("/auth/password", auth.ChangePassword)

	cart := NewCartController(sessions, catalog)
	router.GET("/cart", cart.GetCart)
	router.DELETE("/cart", cart.ClearCart)
	router.POST("/cart/items", cart.AddItem)
	router.PATCH("/cart/items/:dish_id", cart.UpdateQuantity)
	router.DELETE("/cart/items/:dish_id", cart.RemoveItem)
	router.POST("/cart/checkout", cart.Checkout)

	reviews := NewReviewController(sessions)
	router.GET("/targets/:target_id/reviews", reviews.ListReviews)
	router.POST("/targets/:target_id/reviews", reviews.SubmitReview)
	router.POST("/targets/:target_id/reviews/:review_id/like", reviews.LikeReview)
	router.GET("/me/reviews", reviews.MyReviews)
	router.DELETE("/reviews/:review_id", reviews.DeleteReview)
	router.POST("/reviews/:review_id/append", reviews.AppendReview)

	favorites := NewFavoritesController(sessions, catalog)
	router.GET("/favorites", favorites.GetFavorites)
	router.POST("/favorites/stalls/:id", favorites.ToggleStall)
	router.POST("/favorites/dishes/:id", favorites.ToggleDish)

	catalogCtrl := NewCatalogController(catalog)
	router.GET("/stalls", catalogCtrl.ListStalls)
	router.GET("/stalls/:id", catalogCtrl.GetStall)
	router.GET("/dishes/:id", catalogCtrl.GetDish)
	router.GET("/search", catalogCtrl.Search)
	router.GET("/cuisines", catalogCtrl.ListCuisines)
	router.GET("/leaderboard/:kind", catalogCtrl.Leaderboard)

	return &testApp{router: router, sessions: sessions, catalog: catalog}
}

// do sends a JSON request as deviceID and decodes the JSON response.
func (a *testApp) do(t *testing.T, deviceID, method, path string, body interface{}) (int, map[string]interface{}) {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if deviceID != "" {
		req.Header.Set(testDeviceHeader, deviceID)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var response map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	}
	return w.Code, response
}

// loginAs registers email on deviceID and logs in.
func (a *testApp) loginAs(t *testing.T, deviceID, email string) {
	code, _ := a.do(t, deviceID, http.MethodPost, "/auth/register", gin.H{"email": email, "password": "pass1234"})
	require.Equal(t, http.StatusCreated, code)
	code, _ = a.do(t, deviceID, http.MethodPost, "/auth/login", gin.H{"identifier": email, "password": "pass1234"})
	require.Equal(t, http.StatusOK, code)
}

func noticeMessages(response map[string]interface{}) []string {
	raw, _ := response["notices"].([]interface{})
	messages := make([]string, 0, len(raw))
	for _, n := range raw {
		if notice, ok := n.(map[string]interface{}); ok {
			messages = append(messages, notice["message"].(string))
		}
	}
	return messages
}
