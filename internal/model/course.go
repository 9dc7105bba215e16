package model

import "time"

// swagger:model Course
type Course struct {
	BaseModel
	Title       string     `gorm:"size:255;not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	CoverImage  string     `gorm:"size:255" json:"coverImage"`
	CreatorID   uint       `gorm:"index;type:bigint unsigned" json:"creatorId"`
	IsPublished bool       `gorm:"default:false" json:"isPublished"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
}

func (Course) TableName() string {
	return "courses"
}
