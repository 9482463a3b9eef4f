package repository

import (
	"sort"

	"gorm.io/gorm"

	"github.com/savoryhq/savory-backend/internal/app/model"
	"github.com/savoryhq/savory-backend/pkg/util"
)

// TagCount is one bucket of the tag histogram
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// RatedStore is a store with its review aggregates
type RatedStore struct {
	model.Store
	AverageRating float64 `json:"average_rating"`
	ReviewCount   int     `json:"review_count"`
}

// ScoredStore is a search hit with its relevance score
type ScoredStore struct {
	model.Store
	Score float64 `json:"score"`
}

// NearStore is a store annotated with its distance from the query point
type NearStore struct {
	model.Store
	DistanceMeters float64 `json:"distance_meters"`
}

type StoreRepository interface {
	Create(store *model.Store) error
	Update(store *model.Store) error
	Delete(id uint) error
	FindByID(id uint) (*model.Store, error)
	FindBySlug(slug string) (*model.Store, error)
	FindPage(page, pageSize int) ([]model.Store, error)
	Count() (int64, error)
	FindByTag(tag string) ([]model.Store, error)
	FindByIDs(ids []uint) ([]model.Store, error)
	FindAll() ([]model.Store, error)
	TagHistogram() ([]TagCount, error)
	TopRated(minReviews, limit int) ([]RatedStore, error)
	Search(query string, limit int) ([]ScoredStore, error)
	Near(lng, lat, maxDistanceMeters float64, limit int) ([]NearStore, error)
}

type storeRepository struct {
	db *gorm.DB
}

func NewStoreRepository(db *gorm.DB) StoreRepository {
	return &storeRepository{db: db}
}

// Create inserts the store and flattens its tags in one transaction
func (r *storeRepository) Create(store *model.Store) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(store).Error; err != nil {
			return err
		}
		return syncTags(tx, store.ID, store.Tags)
	})
}

// Update saves the store and re-flattens its tags in one transaction
func (r *storeRepository) Update(store *model.Store) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(store).Error; err != nil {
			return err
		}
		return syncTags(tx, store.ID, store.Tags)
	})
}

func (r *storeRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("store_id = ?", id).Delete(&model.StoreTag{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Store{}, id).Error
	})
}

// withReviews preloads the reviews relation. Store reads always carry
// their reviews, so every finder goes through this scope.
func withReviews(db *gorm.DB) *gorm.DB {
	return db.Preload("Reviews", func(db *gorm.DB) *gorm.DB {
		return db.Order("reviews.created_at DESC")
	})
}

func (r *storeRepository) FindByID(id uint) (*model.Store, error) {
	var store model.Store
	if err := r.db.Scopes(withReviews).First(&store, id).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

// FindBySlug loads the store with its author and reviews, review authors
// included, newest review first.
func (r *storeRepository) FindBySlug(slug string) (*model.Store, error) {
	var store model.Store
	err := r.db.
		Scopes(withReviews).
		Preload("Author").
		Preload("Reviews.Author").
		Where("slug = ?", slug).
		First(&store).Error
	if err != nil {
		return nil, err
	}
	return &store, nil
}

func (r *storeRepository) FindPage(page, pageSize int) ([]model.Store, error) {
	var stores []model.Store
	offset := (page - 1) * pageSize
	err := r.db.
		Scopes(withReviews).
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&stores).Error
	return stores, err
}

func (r *storeRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&model.Store{}).Count(&count).Error
	return count, err
}

// FindByTag returns stores carrying the tag, name order. An empty tag
// matches every store that has at least one tag.
func (r *storeRepository) FindByTag(tag string) ([]model.Store, error) {
	var stores []model.Store
	query := r.db.
		Scopes(withReviews).
		Joins("JOIN store_tags ON store_tags.store_id = stores.id").
		Group("stores.id").
		Order("stores.name ASC")
	if tag != "" {
		query = query.Where("store_tags.tag = ?", tag)
	}
	err := query.Find(&stores).Error
	return stores, err
}

func (r *storeRepository) FindByIDs(ids []uint) ([]model.Store, error) {
	var stores []model.Store
	if len(ids) == 0 {
		return stores, nil
	}
	err := r.db.Scopes(withReviews).Where("id IN ?", ids).Order("created_at DESC").Find(&stores).Error
	return stores, err
}

func (r *storeRepository) FindAll() ([]model.Store, error) {
	var stores []model.Store
	err := r.db.Scopes(withReviews).Order("created_at DESC").Find(&stores).Error
	return stores, err
}

// TagHistogram groups the flattened tag rows, most used tag first
func (r *storeRepository) TagHistogram() ([]TagCount, error) {
	var counts []TagCount
	err := r.db.Model(&model.StoreTag{}).
		Select("store_tags.tag AS tag, COUNT(*) AS count").
		Joins("JOIN stores ON stores.id = store_tags.store_id AND stores.deleted_at IS NULL").
		Group("store_tags.tag").
		Order("count DESC, tag ASC").
		Scan(&counts).Error
	return counts, err
}

// TopRated returns stores holding at least minReviews reviews, best
// average rating first.
func (r *storeRepository) TopRated(minReviews, limit int) ([]RatedStore, error) {
	var rated []RatedStore
	err := r.db.Model(&model.Store{}).
		Select("stores.*, AVG(reviews.rating) AS average_rating, COUNT(reviews.id) AS review_count").
		Joins("JOIN reviews ON reviews.store_id = stores.id AND reviews.deleted_at IS NULL").
		Group("stores.id").
		Having("COUNT(reviews.id) >= ?", minReviews).
		Order("average_rating DESC").
		Limit(limit).
		Scan(&rated).Error
	return rated, err
}

// Search matches the query against name and description, case-insensitive
// on every driver. A name hit weighs twice a description hit, best score
// first.
func (r *storeRepository) Search(query string, limit int) ([]ScoredStore, error) {
	var hits []ScoredStore
	pattern := "%" + query + "%"
	err := r.db.Model(&model.Store{}).
		Select(
			"stores.*, "+
				"(CASE WHEN LOWER(stores.name) LIKE LOWER(?) THEN 2.0 ELSE 0.0 END + "+
				"CASE WHEN LOWER(stores.description) LIKE LOWER(?) THEN 1.0 ELSE 0.0 END) AS score",
			pattern, pattern,
		).
		Where("LOWER(stores.name) LIKE LOWER(?) OR LOWER(stores.description) LIKE LOWER(?)", pattern, pattern).
		Order("score DESC, stores.created_at DESC").
		Limit(limit).
		Scan(&hits).Error
	return hits, err
}

// Near filters stores by great-circle distance from the query point,
// nearest first. Distances are computed in Go so the query stays
// portable across drivers. A NaN coordinate matches nothing.
func (r *storeRepository) Near(lng, lat, maxDistanceMeters float64, limit int) ([]NearStore, error) {
	var stores []model.Store
	if err := r.db.Find(&stores).Error; err != nil {
		return nil, err
	}

	var near []NearStore
	for _, store := range stores {
		if !store.Location.HasCoordinates() {
			continue
		}
		distance := util.DistanceMeters(lat, lng, store.Location.Lat(), store.Location.Lng())
		if distance <= maxDistanceMeters {
			near = append(near, NearStore{Store: store, DistanceMeters: distance})
		}
	}

	sort.Slice(near, func(i, j int) bool {
		return near[i].DistanceMeters < near[j].DistanceMeters
	})

	if len(near) > limit {
		near = near[:limit]
	}
	return near, nil
}

// syncTags replaces the flattened tag rows for a store
func syncTags(tx *gorm.DB, storeID uint, tags model.StringArray) error {
	if err := tx.Where("store_id = ?", storeID).Delete(&model.StoreTag{}).Error; err != nil {
		return err
	}

	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		if err := tx.Create(&model.StoreTag{StoreID: storeID, Tag: tag}).Error; err != nil {
			return err
		}
	}
	return nil
}
