package service

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/savoryhq/savory-backend/internal/app/model"
	"github.com/savoryhq/savory-backend/internal/app/repository"
	"github.com/savoryhq/savory-backend/pkg/redis"
)

var (
	ErrStoreNotFound     = errors.New("store not found")
	ErrStoreAccessDenied = errors.New("store access denied")
	ErrInvalidPage       = errors.New("invalid page number")
)

const (
	storePageSize    = 4
	searchLimit      = 5
	nearLimit        = 10
	nearMaxDistanceM = 10000.0
	topStoresLimit   = 10
	topStoresMinRevs = 2

	cacheKeyTopStores    = "cache:stores:top"
	cacheKeyTagHistogram = "cache:tags:histogram"
)

// CreateStoreInput carries the writable store fields
type CreateStoreInput struct {
	Name        string         `json:"name" binding:"required"`
	Description string         `json:"description"`
	Tags        []string       `json:"tags"`
	Location    model.Location `json:"location"`
	Photo       string         `json:"photo"`
}

// UpdateStoreInput mirrors CreateStoreInput for partial updates
type UpdateStoreInput struct {
	Name        *string         `json:"name"`
	Description *string         `json:"description"`
	Tags        []string        `json:"tags"`
	Location    *model.Location `json:"location"`
	Photo       *string         `json:"photo"`
}

// StoreList is one page of the store directory
type StoreList struct {
	Stores []model.Store `json:"stores"`
	Page   int           `json:"page"`
	Pages  int           `json:"pages"`
	Total  int64         `json:"total"`

	// OutOfRange is set when the requested page lies past the last
	// one; Page then holds the page to redirect to.
	OutOfRange bool `json:"-"`
}

// TagPage pairs the tag histogram with the stores matching one tag
type TagPage struct {
	Tag    string                `json:"tag"`
	Tags   []repository.TagCount `json:"tags"`
	Stores []model.Store         `json:"stores"`
}

// ActivityPublisher pushes domain events to feed subscribers
type ActivityPublisher interface {
	Publish(event string, payload interface{})
}

type StoreService interface {
	CreateStore(userID uint, input *CreateStoreInput) (*model.Store, error)
	UpdateStore(userID, storeID uint, input *UpdateStoreInput) (*model.Store, error)
	ListStores(page int) (*StoreList, error)
	GetStoreBySlug(slug string) (*model.Store, error)
	StoresByTag(tag string) (*TagPage, error)
	TagHistogram() ([]repository.TagCount, error)
	TopStores() ([]repository.RatedStore, error)
	Search(query string) ([]repository.ScoredStore, error)
	Near(lngParam, latParam string) ([]repository.NearStore, error)
	ToggleHeart(userID, storeID uint) (*model.User, error)
	IsHearted(userID, storeID uint) (bool, error)
	HeartedStores(userID uint) ([]model.Store, error)
	ExportStores() (*excelize.File, error)
}

type storeService struct {
	storeRepo repository.StoreRepository
	userRepo  repository.UserRepository
	publisher ActivityPublisher
	cacheTTL  time.Duration
}

func NewStoreService(
	storeRepo repository.StoreRepository,
	userRepo repository.UserRepository,
	publisher ActivityPublisher,
	cacheTTL time.Duration,
) StoreService {
	return &storeService{
		storeRepo: storeRepo,
		userRepo:  userRepo,
		publisher: publisher,
		cacheTTL:  cacheTTL,
	}
}

func (s *storeService) CreateStore(userID uint, input *CreateStoreInput) (*model.Store, error) {
	store := &model.Store{
		Name:        input.Name,
		Description: input.Description,
		Tags:        model.StringArray(input.Tags),
		Location:    input.Location,
		Photo:       input.Photo,
		AuthorID:    userID,
	}
	store.Location.Type = "Point"

	if err := s.storeRepo.Create(store); err != nil {
		return nil, err
	}

	s.invalidateCaches()
	if s.publisher != nil {
		s.publisher.Publish("store_created", map[string]interface{}{
			"id":   store.ID,
			"name": store.Name,
			"slug": store.Slug,
		})
	}
	return store, nil
}

// UpdateStore applies the changes after checking the caller owns the
// store. The location type tag is pinned back to "Point" whenever the
// location is touched.
func (s *storeService) UpdateStore(userID, storeID uint, input *UpdateStoreInput) (*model.Store, error) {
	existing, err := s.storeRepo.FindByID(storeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStoreNotFound
		}
		return nil, err
	}

	if existing.AuthorID != userID {
		return nil, ErrStoreAccessDenied
	}

	if input.Name != nil {
		existing.Name = *input.Name
	}
	if input.Description != nil {
		existing.Description = *input.Description
	}
	if input.Tags != nil {
		existing.Tags = model.StringArray(input.Tags)
	}
	if input.Location != nil {
		existing.Location = *input.Location
		existing.Location.Type = "Point"
	}
	if input.Photo != nil {
		existing.Photo = *input.Photo
	}

	if err := s.storeRepo.Update(existing); err != nil {
		return nil, err
	}

	s.invalidateCaches()
	return existing, nil
}

// ListStores fetches one directory page, running the page query and the
// total count concurrently.
func (s *storeService) ListStores(page int) (*StoreList, error) {
	if page < 1 {
		return nil, ErrInvalidPage
	}

	var (
		stores []model.Store
		total  int64
	)

	g := new(errgroup.Group)
	g.Go(func() error {
		var err error
		stores, err = s.storeRepo.FindPage(page, storePageSize)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.storeRepo.Count()
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	pages := int((total + storePageSize - 1) / storePageSize)
	if total > 0 && page > pages {
		return &StoreList{Page: pages, Pages: pages, Total: total, OutOfRange: true}, nil
	}

	return &StoreList{Stores: stores, Page: page, Pages: pages, Total: total}, nil
}

func (s *storeService) GetStoreBySlug(slug string) (*model.Store, error) {
	store, err := s.storeRepo.FindBySlug(slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStoreNotFound
		}
		return nil, err
	}
	return store, nil
}

// StoresByTag loads the histogram and the matching stores concurrently.
// An empty tag selects every tagged store.
func (s *storeService) StoresByTag(tag string) (*TagPage, error) {
	var (
		tags   []repository.TagCount
		stores []model.Store
	)

	g := new(errgroup.Group)
	g.Go(func() error {
		var err error
		tags, err = s.TagHistogram()
		return err
	})
	g.Go(func() error {
		var err error
		stores, err = s.storeRepo.FindByTag(tag)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &TagPage{Tag: tag, Tags: tags, Stores: stores}, nil
}

func (s *storeService) TagHistogram() ([]repository.TagCount, error) {
	ctx := context.Background()

	var cached []repository.TagCount
	if hit, err := redis.GetJSON(ctx, cacheKeyTagHistogram, &cached); err == nil && hit {
		return cached, nil
	}

	counts, err := s.storeRepo.TagHistogram()
	if err != nil {
		return nil, err
	}

	_ = redis.SetJSON(ctx, cacheKeyTagHistogram, counts, s.cacheTTL)
	return counts, nil
}

func (s *storeService) TopStores() ([]repository.RatedStore, error) {
	ctx := context.Background()

	var cached []repository.RatedStore
	if hit, err := redis.GetJSON(ctx, cacheKeyTopStores, &cached); err == nil && hit {
		return cached, nil
	}

	rated, err := s.storeRepo.TopRated(topStoresMinRevs, topStoresLimit)
	if err != nil {
		return nil, err
	}

	_ = redis.SetJSON(ctx, cacheKeyTopStores, rated, s.cacheTTL)
	return rated, nil
}

func (s *storeService) Search(query string) ([]repository.ScoredStore, error) {
	if query == "" {
		return []repository.ScoredStore{}, nil
	}
	return s.storeRepo.Search(query, searchLimit)
}

// Near parses the raw coordinate parameters and returns stores within
// range. Malformed floats parse to NaN, which no distance comparison
// satisfies, so the result is empty rather than an error.
func (s *storeService) Near(lngParam, latParam string) ([]repository.NearStore, error) {
	lng := parseCoordinate(lngParam)
	lat := parseCoordinate(latParam)
	return s.storeRepo.Near(lng, lat, nearMaxDistanceM, nearLimit)
}

// ToggleHeart flips the heart for the store and returns the user with
// the refreshed hearts list.
func (s *storeService) ToggleHeart(userID, storeID uint) (*model.User, error) {
	if _, err := s.storeRepo.FindByID(storeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStoreNotFound
		}
		return nil, err
	}

	if _, err := s.userRepo.ToggleHeart(userID, storeID); err != nil {
		return nil, err
	}

	return s.userRepo.FindByID(userID)
}

// IsHearted reports whether the user has hearted the store
func (s *storeService) IsHearted(userID, storeID uint) (bool, error) {
	ids, err := s.userRepo.HeartedStoreIDs(userID)
	if err != nil {
		return false, err
	}
	for _, id := range ids {
		if id == storeID {
			return true, nil
		}
	}
	return false, nil
}

func (s *storeService) HeartedStores(userID uint) ([]model.Store, error) {
	ids, err := s.userRepo.HeartedStoreIDs(userID)
	if err != nil {
		return nil, err
	}
	return s.storeRepo.FindByIDs(ids)
}

// ExportStores renders the full directory as an XLSX workbook
func (s *storeService) ExportStores() (*excelize.File, error) {
	stores, err := s.storeRepo.FindAll()
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	sheet := "Stores"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"ID", "Name", "Slug", "Description", "Tags", "Address", "Longitude", "Latitude", "Created At"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, header)
	}

	for row, store := range stores {
		values := []interface{}{
			store.ID,
			store.Name,
			store.Slug,
			store.Description,
			joinTags(store.Tags),
			store.Location.Address,
			store.Location.Lng(),
			store.Location.Lat(),
			store.CreatedAt.Format(time.RFC3339),
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, value)
		}
	}

	return f, nil
}

func (s *storeService) invalidateCaches() {
	redis.Invalidate(context.Background(), cacheKeyTagHistogram, cacheKeyTopStores)
}

func parseCoordinate(raw string) float64 {
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return math.NaN()
	}
	return value
}

func joinTags(tags model.StringArray) string {
	return strings.Join([]string(tags), ", ")
}

// InvalidateStoreCaches drops the aggregate caches, exposed for callers
// outside this service that change review data.
func InvalidateStoreCaches() {
	redis.Invalidate(context.Background(), cacheKeyTagHistogram, cacheKeyTopStores)
}
