package service

import (
	"errors"

	"gorm.io/gorm"

	"github.com/savoryhq/savory-backend/internal/app/model"
	"github.com/savoryhq/savory-backend/internal/app/repository"
)

var ErrInvalidRating = errors.New("rating must be between 1 and 5")

// AddReviewInput carries the review form fields
type AddReviewInput struct {
	Text   string `json:"text" binding:"required"`
	Rating int    `json:"rating" binding:"required,min=1,max=5"`
}

type ReviewService interface {
	AddReview(userID, storeID uint, input *AddReviewInput) (*model.Review, error)
	ListByStore(storeID uint) ([]model.Review, error)
}

type reviewService struct {
	reviewRepo repository.ReviewRepository
	storeRepo  repository.StoreRepository
	publisher  ActivityPublisher
}

func NewReviewService(
	reviewRepo repository.ReviewRepository,
	storeRepo repository.StoreRepository,
	publisher ActivityPublisher,
) ReviewService {
	return &reviewService{
		reviewRepo: reviewRepo,
		storeRepo:  storeRepo,
		publisher:  publisher,
	}
}

// AddReview posts a review to the store and drops the top stores cache
// so the ranking reflects the new rating.
func (s *reviewService) AddReview(userID, storeID uint, input *AddReviewInput) (*model.Review, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, ErrInvalidRating
	}

	store, err := s.storeRepo.FindByID(storeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStoreNotFound
		}
		return nil, err
	}

	review := &model.Review{
		StoreID:  store.ID,
		AuthorID: userID,
		Text:     input.Text,
		Rating:   input.Rating,
	}
	if err := s.reviewRepo.Create(review); err != nil {
		return nil, err
	}

	InvalidateStoreCaches()
	if s.publisher != nil {
		s.publisher.Publish("review_posted", map[string]interface{}{
			"store_id":   store.ID,
			"store_slug": store.Slug,
			"rating":     review.Rating,
		})
	}

	return s.reviewRepo.FindByID(review.ID)
}

func (s *reviewService) ListByStore(storeID uint) ([]model.Review, error) {
	if _, err := s.storeRepo.FindByID(storeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStoreNotFound
		}
		return nil, err
	}
	return s.reviewRepo.FindByStoreID(storeID)
}
