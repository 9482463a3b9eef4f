package controller

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/savoryhq/savory-backend/config"
	"github.com/savoryhq/savory-backend/internal/app/model"
	"github.com/savoryhq/savory-backend/internal/app/repository"
	"github.com/savoryhq/savory-backend/internal/app/service"
	"github.com/savoryhq/savory-backend/internal/db"
	"github.com/savoryhq/savory-backend/internal/middleware"
)

type storeControllerFixture struct {
	router       *gin.Engine
	storeService service.StoreService
	authService  service.AuthService
	db           *gorm.DB
}

func setupStoreControllerTest(t *testing.T) *storeControllerFixture {
	gin.SetMode(gin.TestMode)

	testDB, err := db.SetupTestDB()
	require.NoError(t, err)

	userRepo := repository.NewUserRepository(testDB)
	storeRepo := repository.NewStoreRepository(testDB)
	reviewRepo := repository.NewReviewRepository(testDB)

	authService := service.NewAuthService(userRepo, &config.JWTConfig{
		Secret:             "test-secret",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 7 * 24 * time.Hour,
	})
	storeService := service.NewStoreService(storeRepo, userRepo, nil, 0)
	reviewService := service.NewReviewService(reviewRepo, storeRepo, nil)

	storeCtrl := NewStoreController(storeService)
	reviewCtrl := NewReviewController(reviewService)
	authMiddleware := middleware.NewAuthMiddleware("test-secret")

	router := gin.New()
	stores := router.Group("/api/v1/stores")
	{
		stores.GET("", storeCtrl.ListStores)
		stores.GET("/page/:page", storeCtrl.ListStores)
		stores.GET("/slug/:slug", authMiddleware.OptionalAuthenticate(), storeCtrl.GetStoreBySlug)
		stores.GET("/search", storeCtrl.Search)
		stores.GET("/near", storeCtrl.Near)
		stores.GET("/top", storeCtrl.TopStores)
		stores.GET("/export", authMiddleware.Authenticate(), authMiddleware.RequireRole("admin"), storeCtrl.ExportStores)
		stores.POST("", authMiddleware.Authenticate(), storeCtrl.CreateStore)
		stores.PUT("/:id", authMiddleware.Authenticate(), storeCtrl.UpdateStore)
		stores.POST("/:id/heart", authMiddleware.Authenticate(), storeCtrl.ToggleHeart)
		stores.POST("/:id/reviews", authMiddleware.Authenticate(), reviewCtrl.AddReview)
	}
	router.GET("/api/v1/hearts", authMiddleware.Authenticate(), storeCtrl.HeartedStores)
	router.GET("/api/v1/tags/:tag", storeCtrl.ListTags)

	return &storeControllerFixture{
		router:       router,
		storeService: storeService,
		authService:  authService,
		db:           testDB,
	}
}

func (f *storeControllerFixture) registerUser(t *testing.T, email string) (uint, string) {
	user, tokens, err := f.authService.Register(&service.RegisterInput{
		Name:            "Test User",
		Email:           email,
		Password:        "password123",
		PasswordConfirm: "password123",
	})
	require.NoError(t, err)
	return user.ID, tokens.AccessToken
}

func (f *storeControllerFixture) do(method, path, token string, payload interface{}) *httptest.ResponseRecorder {
	var body *bytes.Buffer
	if payload != nil {
		data, _ := json.Marshal(payload)
		body = bytes.NewBuffer(data)
	} else {
		body = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestStoreController_CreateAndFetchBySlug(t *testing.T) {
	f := setupStoreControllerTest(t)
	_, token := f.registerUser(t, "owner@example.com")

	w := f.do("POST", "/api/v1/stores", token, gin.H{
		"name":        "Harbour Grill",
		"description": "Seafood by the water",
		"tags":        []string{"Restaurant"},
		"location": gin.H{
			"coordinates": []float64{-79.38, 43.64},
			"address":     "1 Harbour Sq",
		},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = f.do("GET", "/api/v1/stores/slug/harbour-grill", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Store model.Store `json:"store"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "Harbour Grill", response.Store.Name)
	assert.Equal(t, "Point", response.Store.Location.Type)
	assert.NotZero(t, response.Store.Author.ID)

	w = f.do("GET", "/api/v1/stores/slug/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStoreController_CreateRequiresAuth(t *testing.T) {
	f := setupStoreControllerTest(t)

	w := f.do("POST", "/api/v1/stores", "", gin.H{"name": "Nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestStoreController_UpdateOwnershipForbidden(t *testing.T) {
	f := setupStoreControllerTest(t)
	ownerID, _ := f.registerUser(t, "owner@example.com")
	_, intruderToken := f.registerUser(t, "intruder@example.com")

	store, err := f.storeService.CreateStore(ownerID, &service.CreateStoreInput{Name: "Owned"})
	require.NoError(t, err)

	w := f.do("PUT", fmt.Sprintf("/api/v1/stores/%d", store.ID), intruderToken, gin.H{
		"name": "Hijacked",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "You must own a store in order to edit it", response["message"])
}

func TestStoreController_PaginationRedirect(t *testing.T) {
	f := setupStoreControllerTest(t)
	userID, _ := f.registerUser(t, "owner@example.com")

	for i := 0; i < 6; i++ {
		_, err := f.storeService.CreateStore(userID, &service.CreateStoreInput{
			Name: fmt.Sprintf("Store %d", i),
		})
		require.NoError(t, err)
	}

	// Pages past the end bounce to the last page
	w := f.do("GET", "/api/v1/stores/page/9", "", nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/api/v1/stores/page/2", w.Header().Get("Location"))

	w = f.do("GET", "/api/v1/stores/page/2", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var list service.StoreList
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list.Stores, 2)
	assert.Equal(t, 2, list.Pages)
}

func TestStoreController_HeartToggleReturnsUser(t *testing.T) {
	f := setupStoreControllerTest(t)
	userID, token := f.registerUser(t, "owner@example.com")

	store, err := f.storeService.CreateStore(userID, &service.CreateStoreInput{Name: "Heartable"})
	require.NoError(t, err)

	w := f.do("POST", fmt.Sprintf("/api/v1/stores/%d/heart", store.ID), token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var user model.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &user))
	assert.Equal(t, []uint{store.ID}, user.Hearts)

	// Toggling again empties the list
	w = f.do("POST", fmt.Sprintf("/api/v1/stores/%d/heart", store.ID), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &user))
	assert.Empty(t, user.Hearts)
}

func TestStoreController_Search(t *testing.T) {
	f := setupStoreControllerTest(t)
	userID, _ := f.registerUser(t, "owner@example.com")

	_, err := f.storeService.CreateStore(userID, &service.CreateStoreInput{Name: "Coffee Corner"})
	require.NoError(t, err)

	w := f.do("GET", "/api/v1/stores/search?q=coffee", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var hits []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &hits))
	require.Len(t, hits, 1)
	assert.Equal(t, "Coffee Corner", hits[0]["name"])
	assert.NotZero(t, hits[0]["score"])
}

func TestStoreController_NearMalformedParams(t *testing.T) {
	f := setupStoreControllerTest(t)
	userID, _ := f.registerUser(t, "owner@example.com")

	_, err := f.storeService.CreateStore(userID, &service.CreateStoreInput{
		Name: "Geo Store",
		Location: model.Location{
			Coordinates: []float64{-79.38, 43.65},
		},
	})
	require.NoError(t, err)

	// Garbage coordinates answer 200 with an empty list, not an error
	w := f.do("GET", "/api/v1/stores/near?lng=abc&lat=43.65", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())

	w = f.do("GET", "/api/v1/stores/near?lng=-79.38&lat=43.65", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var near []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &near))
	assert.Len(t, near, 1)
}

func TestStoreController_TopStores(t *testing.T) {
	f := setupStoreControllerTest(t)
	userID, token := f.registerUser(t, "owner@example.com")

	store, err := f.storeService.CreateStore(userID, &service.CreateStoreInput{Name: "Rated"})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		w := f.do("POST", fmt.Sprintf("/api/v1/stores/%d/reviews", store.ID), token, gin.H{
			"text":   "Nice",
			"rating": 5,
		})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := f.do("GET", "/api/v1/stores/top", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Stores []map[string]interface{} `json:"stores"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Len(t, response.Stores, 1)
	assert.Equal(t, "Rated", response.Stores[0]["name"])
}

func TestStoreController_ExportAdminOnly(t *testing.T) {
	f := setupStoreControllerTest(t)
	userID, userToken := f.registerUser(t, "member@example.com")

	_, err := f.storeService.CreateStore(userID, &service.CreateStoreInput{Name: "Exported"})
	require.NoError(t, err)

	w := f.do("GET", "/api/v1/stores/export", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do("GET", "/api/v1/stores/export", userToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	adminID, _ := f.registerUser(t, "admin@example.com")
	require.NoError(t, f.db.Model(&model.User{}).Where("id = ?", adminID).Update("role", "admin").Error)

	// A fresh login picks up the promoted role in the token claims
	_, tokens, err := f.authService.Login("admin@example.com", "password123")
	require.NoError(t, err)

	w = f.do("GET", "/api/v1/stores/export", tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", w.Header().Get("Content-Type"))
	assert.NotZero(t, w.Body.Len())
}

func TestStoreController_SlugHeartedFlag(t *testing.T) {
	f := setupStoreControllerTest(t)
	userID, token := f.registerUser(t, "owner@example.com")

	store, err := f.storeService.CreateStore(userID, &service.CreateStoreInput{Name: "Hearted Corner"})
	require.NoError(t, err)
	_, err = f.storeService.ToggleHeart(userID, store.ID)
	require.NoError(t, err)

	w := f.do("GET", "/api/v1/stores/slug/hearted-corner", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var signedIn map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &signedIn))
	assert.Equal(t, true, signedIn["hearted"])

	// Guests get the store without a hearted flag
	w = f.do("GET", "/api/v1/stores/slug/hearted-corner", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var guest map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &guest))
	_, present := guest["hearted"]
	assert.False(t, present)
}

func TestStoreController_TagPage(t *testing.T) {
	f := setupStoreControllerTest(t)
	userID, _ := f.registerUser(t, "owner@example.com")

	_, err := f.storeService.CreateStore(userID, &service.CreateStoreInput{
		Name: "Cafe One",
		Tags: []string{"Cafe"},
	})
	require.NoError(t, err)

	w := f.do("GET", "/api/v1/tags/Cafe", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var page service.TagPage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, "Cafe", page.Tag)
	require.Len(t, page.Stores, 1)
	assert.Equal(t, "Cafe One", page.Stores[0].Name)
}
