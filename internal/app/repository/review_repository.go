package repository

import (
	"gorm.io/gorm"

	"github.com/savoryhq/savory-backend/internal/app/model"
)

type ReviewRepository interface {
	Create(review *model.Review) error
	FindByID(id uint) (*model.Review, error)
	FindByStoreID(storeID uint) ([]model.Review, error)
}

type reviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) Create(review *model.Review) error {
	return r.db.Create(review).Error
}

func (r *reviewRepository) FindByID(id uint) (*model.Review, error) {
	var review model.Review
	if err := r.db.Preload("Author").First(&review, id).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

// FindByStoreID lists a store's reviews with authors, newest first
func (r *reviewRepository) FindByStoreID(storeID uint) ([]model.Review, error) {
	reviews := []model.Review{}
	err := r.db.
		Preload("Author").
		Where("store_id = ?", storeID).
		Order("created_at DESC").
		Find(&reviews).Error
	return reviews, err
}
