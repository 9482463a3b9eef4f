package model

import (
	"time"

	"gorm.io/gorm"
)

type Review struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	StoreID   uint           `gorm:"not null;index" json:"store_id"`
	AuthorID  uint           `gorm:"not null;index" json:"author_id"`
	Text      string         `gorm:"type:text;not null" json:"text"`
	Rating    int            `gorm:"not null" json:"rating"` // 1 to 5
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Store  Store `gorm:"foreignKey:StoreID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Author User  `gorm:"foreignKey:AuthorID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"author,omitempty"`
}

func (Review) TableName() string {
	return "reviews"
}
