package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"gorm.io/gorm"
)

// StringArray stores a JSON array in a TEXT column
type StringArray []string

// Value implements database/sql/driver.Valuer
func (s StringArray) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

// Scan implements database/sql.Scanner
func (s *StringArray) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		if str, isString := value.(string); isString {
			bytes = []byte(str)
		} else {
			return errors.New("failed to scan StringArray")
		}
	}

	return json.Unmarshal(bytes, s)
}

// Location is a GeoJSON Point with a display address, stored as JSON in a
// TEXT column so the persisted shape stays {type, coordinates, address}.
// Coordinates are [longitude, latitude].
type Location struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
	Address     string    `json:"address"`
}

// Value implements database/sql/driver.Valuer
func (l Location) Value() (driver.Value, error) {
	return json.Marshal(l)
}

// Scan implements database/sql.Scanner
func (l *Location) Scan(value interface{}) error {
	if value == nil {
		*l = Location{}
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		if str, isString := value.(string); isString {
			bytes = []byte(str)
		} else {
			return errors.New("failed to scan Location")
		}
	}

	return json.Unmarshal(bytes, l)
}

// Lng returns the longitude, 0 when no coordinates are set
func (l Location) Lng() float64 {
	if len(l.Coordinates) < 2 {
		return 0
	}
	return l.Coordinates[0]
}

// Lat returns the latitude, 0 when no coordinates are set
func (l Location) Lat() float64 {
	if len(l.Coordinates) < 2 {
		return 0
	}
	return l.Coordinates[1]
}

// HasCoordinates reports whether a coordinate pair is present
func (l Location) HasCoordinates() bool {
	return len(l.Coordinates) >= 2
}

type Store struct {
	ID          uint           `gorm:"primarykey" json:"id"`
	Name        string         `gorm:"not null" json:"name"`
	Slug        string         `gorm:"uniqueIndex" json:"slug"` // URL identifier, derived from Name
	Description string         `gorm:"type:text" json:"description"`
	Tags        StringArray    `gorm:"type:text" json:"tags"`
	Location    Location       `gorm:"type:text" json:"location"`
	Photo       string         `json:"photo"`
	AuthorID    uint           `gorm:"not null;index" json:"author_id"`
	Author      User           `gorm:"foreignKey:AuthorID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"author,omitempty"`
	Reviews     []Review       `gorm:"foreignKey:StoreID" json:"reviews"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Store) TableName() string {
	return "stores"
}

// StoreTag is one (store, tag) occurrence, maintained by the store
// repository as a flattened copy of Store.Tags. The tag histogram and
// tag filtering run as plain SQL aggregations over this table.
type StoreTag struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	StoreID   uint      `gorm:"not null;index:idx_store_tag,unique" json:"store_id"`
	Tag       string    `gorm:"not null;index:idx_store_tag,unique;index" json:"tag"`
	CreatedAt time.Time `json:"created_at"`

	Store Store `gorm:"foreignKey:StoreID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

func (StoreTag) TableName() string {
	return "store_tags"
}

// Heart marks a store as a favorite of a user. The unique index over
// (user_id, store_id) gives the hearts list set semantics.
type Heart struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	UserID    uint      `gorm:"not null;index:idx_user_store_heart,unique" json:"user_id"`
	StoreID   uint      `gorm:"not null;index:idx_user_store_heart,unique" json:"store_id"`
	CreatedAt time.Time `json:"created_at"`

	User  User  `gorm:"foreignKey:UserID" json:"-"`
	Store Store `gorm:"foreignKey:StoreID" json:"-"`
}

func (Heart) TableName() string {
	return "hearts"
}

var (
	slugInvalidChars = regexp.MustCompile(`[^\p{L}\p{N}-]+`)
	slugDashRuns     = regexp.MustCompile(`-+`)
)

// Slugify derives a URL-safe slug from a store name
func Slugify(name string) string {
	slug := strings.TrimSpace(name)
	slug = slugInvalidChars.ReplaceAllString(slug, "-")
	slug = slugDashRuns.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	return strings.ToLower(slug)
}

// assignSlug computes a unique slug for the store from its name.
// Uniqueness follows the count-of-matches rule: fetch slugs matching
// ^(base)(-[0-9]*)?$ case-insensitively and, when any exist, append
// -(count+1). Concurrent creations with the same name can still collide
// on the unique index; the domain tolerates that.
func (s *Store) assignSlug(tx *gorm.DB) error {
	base := Slugify(s.Name)
	s.Slug = base

	query := tx.Model(&Store{}).Where("slug = ? OR slug LIKE ?", base, base+"-%")
	if s.ID != 0 {
		query = query.Where("id != ?", s.ID)
	}

	var candidates []string
	if err := query.Pluck("slug", &candidates).Error; err != nil {
		return err
	}

	pattern, err := regexp.Compile(`(?i)^(` + regexp.QuoteMeta(base) + `)(-[0-9]*)?$`)
	if err != nil {
		return err
	}

	count := 0
	for _, candidate := range candidates {
		if pattern.MatchString(candidate) {
			count++
		}
	}

	if count > 0 {
		s.Slug = fmt.Sprintf("%s-%d", base, count+1)
	}
	return nil
}

// BeforeSave trims the name and pins the location type tag
func (s *Store) BeforeSave(tx *gorm.DB) error {
	s.Name = strings.TrimSpace(s.Name)
	if s.Location.Type == "" {
		s.Location.Type = "Point"
	}
	return nil
}

// BeforeCreate assigns the slug for a new store
func (s *Store) BeforeCreate(tx *gorm.DB) error {
	return s.assignSlug(tx)
}

// BeforeUpdate recomputes the slug only when the name changed
func (s *Store) BeforeUpdate(tx *gorm.DB) error {
	if s.ID == 0 {
		return nil
	}

	var old Store
	if err := tx.Session(&gorm.Session{NewDB: true}).First(&old, s.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	if old.Name != s.Name {
		return s.assignSlug(tx)
	}
	return nil
}
