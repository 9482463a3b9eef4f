package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/savoryhq/savory-backend/internal/app/model"
	"github.com/savoryhq/savory-backend/internal/app/repository"
	"github.com/savoryhq/savory-backend/internal/db"
)

func setupReviewTest(t *testing.T) (*gorm.DB, ReviewService, *model.User, *model.Store) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)

	storeRepo := repository.NewStoreRepository(testDB)
	reviewRepo := repository.NewReviewRepository(testDB)
	svc := NewReviewService(reviewRepo, storeRepo, nil)

	user := &model.User{Name: "Reviewer", Email: "reviewer@example.com", Password: "hash"}
	require.NoError(t, testDB.Create(user).Error)

	store := &model.Store{Name: "Reviewed Store", AuthorID: user.ID}
	require.NoError(t, testDB.Create(store).Error)

	return testDB, svc, user, store
}

func TestReviewService_AddReview(t *testing.T) {
	testDB, svc, user, store := setupReviewTest(t)
	defer db.CleanupTestDB(testDB)

	review, err := svc.AddReview(user.ID, store.ID, &AddReviewInput{
		Text:   "Lovely spot",
		Rating: 4,
	})
	require.NoError(t, err)

	assert.NotZero(t, review.ID)
	assert.Equal(t, store.ID, review.StoreID)
	assert.Equal(t, 4, review.Rating)
	// The author comes back populated for rendering
	assert.Equal(t, user.ID, review.Author.ID)
}

func TestReviewService_AddReviewInvalidRating(t *testing.T) {
	testDB, svc, user, store := setupReviewTest(t)
	defer db.CleanupTestDB(testDB)

	for _, rating := range []int{0, 6, -1} {
		_, err := svc.AddReview(user.ID, store.ID, &AddReviewInput{Text: "x", Rating: rating})
		assert.ErrorIs(t, err, ErrInvalidRating)
	}
}

func TestReviewService_AddReviewUnknownStore(t *testing.T) {
	testDB, svc, user, _ := setupReviewTest(t)
	defer db.CleanupTestDB(testDB)

	_, err := svc.AddReview(user.ID, 9999, &AddReviewInput{Text: "x", Rating: 3})
	assert.ErrorIs(t, err, ErrStoreNotFound)
}

func TestReviewService_ListByStore(t *testing.T) {
	testDB, svc, user, store := setupReviewTest(t)
	defer db.CleanupTestDB(testDB)

	_, err := svc.AddReview(user.ID, store.ID, &AddReviewInput{Text: "First", Rating: 3})
	require.NoError(t, err)
	_, err = svc.AddReview(user.ID, store.ID, &AddReviewInput{Text: "Second", Rating: 5})
	require.NoError(t, err)

	reviews, err := svc.ListByStore(store.ID)
	require.NoError(t, err)
	assert.Len(t, reviews, 2)

	_, err = svc.ListByStore(9999)
	assert.ErrorIs(t, err, ErrStoreNotFound)
}
