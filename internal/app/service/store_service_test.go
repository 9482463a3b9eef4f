package service

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/savoryhq/savory-backend/internal/app/model"
	"github.com/savoryhq/savory-backend/internal/app/repository"
	"github.com/savoryhq/savory-backend/internal/db"
)

func setupStoreServiceTest(t *testing.T) (*gorm.DB, StoreService, *model.User) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)

	storeRepo := repository.NewStoreRepository(testDB)
	userRepo := repository.NewUserRepository(testDB)
	svc := NewStoreService(storeRepo, userRepo, nil, 0)

	user := &model.User{
		Name:     "Owner",
		Email:    "owner@example.com",
		Password: "hash",
	}
	require.NoError(t, testDB.Create(user).Error)

	return testDB, svc, user
}

func TestStoreService_CreateStore(t *testing.T) {
	testDB, svc, user := setupStoreServiceTest(t)
	defer db.CleanupTestDB(testDB)

	store, err := svc.CreateStore(user.ID, &CreateStoreInput{
		Name:        "Fresh Greens",
		Description: "Salads and bowls",
		Tags:        []string{"Restaurant"},
		Location: model.Location{
			Coordinates: []float64{-79.38, 43.65},
			Address:     "1 Main St",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, user.ID, store.AuthorID)
	assert.Equal(t, "fresh-greens", store.Slug)
	// The location type is pinned regardless of input
	assert.Equal(t, "Point", store.Location.Type)
}

func TestStoreService_ListStores(t *testing.T) {
	testDB, svc, user := setupStoreServiceTest(t)
	defer db.CleanupTestDB(testDB)

	for i := 0; i < 6; i++ {
		_, err := svc.CreateStore(user.ID, &CreateStoreInput{Name: fmt.Sprintf("Store %d", i)})
		require.NoError(t, err)
	}

	list, err := svc.ListStores(1)
	require.NoError(t, err)
	assert.Len(t, list.Stores, 4)
	assert.Equal(t, 1, list.Page)
	assert.Equal(t, 2, list.Pages)
	assert.Equal(t, int64(6), list.Total)
	assert.False(t, list.OutOfRange)

	last, err := svc.ListStores(2)
	require.NoError(t, err)
	assert.Len(t, last.Stores, 2)
}

func TestStoreService_ListStoresOutOfRange(t *testing.T) {
	testDB, svc, user := setupStoreServiceTest(t)
	defer db.CleanupTestDB(testDB)

	for i := 0; i < 6; i++ {
		_, err := svc.CreateStore(user.ID, &CreateStoreInput{Name: fmt.Sprintf("Store %d", i)})
		require.NoError(t, err)
	}

	list, err := svc.ListStores(9)
	require.NoError(t, err)
	assert.True(t, list.OutOfRange)
	// Page points at the last real page for the redirect
	assert.Equal(t, 2, list.Page)
	assert.Empty(t, list.Stores)
}

func TestStoreService_ListStoresInvalidPage(t *testing.T) {
	testDB, svc, _ := setupStoreServiceTest(t)
	defer db.CleanupTestDB(testDB)

	_, err := svc.ListStores(0)
	assert.ErrorIs(t, err, ErrInvalidPage)
}

func TestStoreService_ListStoresEmptyDirectory(t *testing.T) {
	testDB, svc, _ := setupStoreServiceTest(t)
	defer db.CleanupTestDB(testDB)

	list, err := svc.ListStores(1)
	require.NoError(t, err)
	assert.Empty(t, list.Stores)
	assert.False(t, list.OutOfRange)
	assert.Equal(t, int64(0), list.Total)
}

func TestStoreService_UpdateStoreOwnership(t *testing.T) {
	testDB, svc, owner := setupStoreServiceTest(t)
	defer db.CleanupTestDB(testDB)

	intruder := &model.User{Name: "Intruder", Email: "intruder@example.com", Password: "hash"}
	require.NoError(t, testDB.Create(intruder).Error)

	store, err := svc.CreateStore(owner.ID, &CreateStoreInput{Name: "Owned Store"})
	require.NoError(t, err)

	newName := "Hijacked"
	_, err = svc.UpdateStore(intruder.ID, store.ID, &UpdateStoreInput{Name: &newName})
	assert.ErrorIs(t, err, ErrStoreAccessDenied)

	// The owner can still edit
	updated, err := svc.UpdateStore(owner.ID, store.ID, &UpdateStoreInput{Name: &newName})
	require.NoError(t, err)
	assert.Equal(t, "Hijacked", updated.Name)
	assert.Equal(t, "hijacked", updated.Slug)
}

func TestStoreService_UpdateStorePinsLocationType(t *testing.T) {
	testDB, svc, owner := setupStoreServiceTest(t)
	defer db.CleanupTestDB(testDB)

	store, err := svc.CreateStore(owner.ID, &CreateStoreInput{Name: "Geo Store"})
	require.NoError(t, err)

	loc := model.Location{
		Type:        "Polygon",
		Coordinates: []float64{-79.38, 43.65},
		Address:     "1 Main St",
	}
	updated, err := svc.UpdateStore(owner.ID, store.ID, &UpdateStoreInput{Location: &loc})
	require.NoError(t, err)
	assert.Equal(t, "Point", updated.Location.Type)
}

func TestStoreService_UpdateStoreNotFound(t *testing.T) {
	testDB, svc, owner := setupStoreServiceTest(t)
	defer db.CleanupTestDB(testDB)

	name := "Nope"
	_, err := svc.UpdateStore(owner.ID, 9999, &UpdateStoreInput{Name: &name})
	assert.ErrorIs(t, err, ErrStoreNotFound)
}

func TestStoreService_NearMalformedCoordinates(t *testing.T) {
	testDB, svc, owner := setupStoreServiceTest(t)
	defer db.CleanupTestDB(testDB)

	_, err := svc.CreateStore(owner.ID, &CreateStoreInput{
		Name: "Geo Store",
		Location: model.Location{
			Coordinates: []float64{-79.38, 43.65},
		},
	})
	require.NoError(t, err)

	// Malformed floats parse to NaN and match nothing
	near, err := svc.Near("not-a-number", "43.65")
	require.NoError(t, err)
	assert.Empty(t, near)

	near, err = svc.Near("-79.38", "43.65")
	require.NoError(t, err)
	assert.Len(t, near, 1)
}

func TestStoreService_ToggleHeart(t *testing.T) {
	testDB, svc, user := setupStoreServiceTest(t)
	defer db.CleanupTestDB(testDB)

	store, err := svc.CreateStore(user.ID, &CreateStoreInput{Name: "Heartable"})
	require.NoError(t, err)

	withHeart, err := svc.ToggleHeart(user.ID, store.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{store.ID}, withHeart.Hearts)

	withoutHeart, err := svc.ToggleHeart(user.ID, store.ID)
	require.NoError(t, err)
	assert.Empty(t, withoutHeart.Hearts)
}

func TestStoreService_ToggleHeartUnknownStore(t *testing.T) {
	testDB, svc, user := setupStoreServiceTest(t)
	defer db.CleanupTestDB(testDB)

	_, err := svc.ToggleHeart(user.ID, 404)
	assert.ErrorIs(t, err, ErrStoreNotFound)
}

func TestStoreService_HeartedStores(t *testing.T) {
	testDB, svc, user := setupStoreServiceTest(t)
	defer db.CleanupTestDB(testDB)

	first, err := svc.CreateStore(user.ID, &CreateStoreInput{Name: "First"})
	require.NoError(t, err)
	_, err = svc.CreateStore(user.ID, &CreateStoreInput{Name: "Second"})
	require.NoError(t, err)

	_, err = svc.ToggleHeart(user.ID, first.ID)
	require.NoError(t, err)

	stores, err := svc.HeartedStores(user.ID)
	require.NoError(t, err)
	require.Len(t, stores, 1)
	assert.Equal(t, "First", stores[0].Name)
}

func TestStoreService_StoresByTag(t *testing.T) {
	testDB, svc, user := setupStoreServiceTest(t)
	defer db.CleanupTestDB(testDB)

	_, err := svc.CreateStore(user.ID, &CreateStoreInput{Name: "Cafe One", Tags: []string{"Cafe"}})
	require.NoError(t, err)
	_, err = svc.CreateStore(user.ID, &CreateStoreInput{Name: "Bar One", Tags: []string{"Bar"}})
	require.NoError(t, err)

	page, err := svc.StoresByTag("Cafe")
	require.NoError(t, err)
	assert.Equal(t, "Cafe", page.Tag)
	assert.Len(t, page.Tags, 2)
	require.Len(t, page.Stores, 1)
	assert.Equal(t, "Cafe One", page.Stores[0].Name)
}

func TestStoreService_ExportStores(t *testing.T) {
	testDB, svc, user := setupStoreServiceTest(t)
	defer db.CleanupTestDB(testDB)

	_, err := svc.CreateStore(user.ID, &CreateStoreInput{
		Name: "Exported",
		Tags: []string{"Cafe"},
	})
	require.NoError(t, err)

	f, err := svc.ExportStores()
	require.NoError(t, err)
	defer f.Close()

	name, err := f.GetCellValue("Stores", "B2")
	require.NoError(t, err)
	assert.Equal(t, "Exported", name)
}
