package model

import "time"

// swagger:model Quiz
type Quiz struct {
	BaseModel
	CourseID         uint       `gorm:"index;type:bigint unsigned" json:"courseId"`
	Title            string     `gorm:"size:255;not null" json:"title"`
	Description      string     `gorm:"type:text" json:"description"`
	TimeLimitSeconds *int       `json:"timeLimitSeconds,omitempty"` // nil 表示不限时
	PassingScore     int        `gorm:"default:60" json:"passingScore"`
	ShuffleQuestions bool       `gorm:"default:false" json:"shuffleQuestions"`
	IsPublished      bool       `gorm:"default:false" json:"isPublished"`
	PublishedAt      *time.Time `json:"publishedAt,omitempty"`
	CreatorID        uint       `gorm:"index;type:bigint unsigned" json:"creatorId"`
}

func (Quiz) TableName() string {
	return "quizzes"
}
