package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/savoryhq/savory-backend/internal/app/model"
)

type UserRepository interface {
	Create(user *model.User) error
	Update(user *model.User) error
	FindByID(id uint) (*model.User, error)
	FindByEmail(email string) (*model.User, error)
	FindByResetToken(token string) (*model.User, error)
	HeartedStoreIDs(userID uint) ([]uint, error)
	ToggleHeart(userID, storeID uint) (hearted bool, err error)
	ClearExpiredResetTokens(now time.Time) (int64, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(user *model.User) error {
	return r.db.Create(user).Error
}

func (r *userRepository) Update(user *model.User) error {
	return r.db.Save(user).Error
}

// FindByID loads the user with their hearted store ids attached
func (r *userRepository) FindByID(id uint) (*model.User, error) {
	var user model.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, err
	}

	hearts, err := r.HeartedStoreIDs(user.ID)
	if err != nil {
		return nil, err
	}
	user.Hearts = hearts
	return &user, nil
}

func (r *userRepository) FindByEmail(email string) (*model.User, error) {
	var user model.User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByResetToken(token string) (*model.User, error) {
	var user model.User
	if err := r.db.Where("reset_token = ?", token).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// HeartedStoreIDs lists the ids of every store the user has hearted,
// most recently hearted first.
func (r *userRepository) HeartedStoreIDs(userID uint) ([]uint, error) {
	ids := []uint{}
	err := r.db.Model(&model.Heart{}).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Pluck("store_id", &ids).Error
	return ids, err
}

// ToggleHeart adds the store to the user's hearts when absent and
// removes it when present. Returns whether the store is hearted after
// the call.
func (r *userRepository) ToggleHeart(userID, storeID uint) (bool, error) {
	var existing model.Heart
	err := r.db.Where("user_id = ? AND store_id = ?", userID, storeID).First(&existing).Error

	if err == nil {
		if err := r.db.Delete(&existing).Error; err != nil {
			return false, err
		}
		return false, nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	heart := model.Heart{UserID: userID, StoreID: storeID}
	if err := r.db.Create(&heart).Error; err != nil {
		return false, err
	}
	return true, nil
}

// ClearExpiredResetTokens blanks tokens past their expiry
func (r *userRepository) ClearExpiredResetTokens(now time.Time) (int64, error) {
	result := r.db.Model(&model.User{}).
		Where("reset_token != '' AND reset_token_expiry IS NOT NULL AND reset_token_expiry < ?", now).
		Updates(map[string]interface{}{
			"reset_token":        "",
			"reset_token_expiry": nil,
		})
	return result.RowsAffected, result.Error
}
