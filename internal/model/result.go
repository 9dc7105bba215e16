package model

import (
	"encoding/json"
	"time"
)

// QuizResult 评分结果，每次答题只评一次
type QuizResult struct {
	UUIDBase
	AttemptID    string           `gorm:"uniqueIndex;type:varchar(36)" json:"attemptId"`
	QuizID       uint             `gorm:"index;type:bigint unsigned" json:"quizId"`
	UserID       uint             `gorm:"index;type:bigint unsigned" json:"userId"`
	TotalPoints  int              `gorm:"not null" json:"totalPoints"`
	EarnedPoints float64          `gorm:"not null" json:"earnedPoints"`
	Percentage   int              `gorm:"not null" json:"percentage"`
	Passed       bool             `gorm:"default:false" json:"passed"`
	NeedsReview  bool             `gorm:"default:false" json:"needsReview"` // 含待人工评分的问答题
	GradedAt     time.Time        `json:"gradedAt"`
	PerQuestion  []QuestionResult `gorm:"foreignKey:ResultID;references:ID" json:"perQuestion"`
}

func (QuizResult) TableName() string {
	return "quiz_results"
}

// QuestionResult 单题评分。IsCorrect 为 nil 表示待人工评分（问答题），
// 与 false 含义不同。
type QuestionResult struct {
	UUIDBase
	ResultID   string  `gorm:"index;type:varchar(36)" json:"-"`
	AttemptID  string  `gorm:"index;type:varchar(36)" json:"-"`
	QuestionID uint    `gorm:"index;type:bigint unsigned" json:"questionId"`
	IsCorrect  *bool   `json:"isCorrect"`
	Earned     float64 `gorm:"default:0" json:"earned"`
	Max        int     `gorm:"default:0" json:"max"`
	UserAnswer string  `gorm:"type:json" json:"userAnswer,omitempty"` // 提交答案的 JSON 快照
}

func (QuestionResult) TableName() string {
	return "question_results"
}

// AnswersSnapshot 从单题明细还原提交时的最终答案快照
func (r *QuizResult) AnswersSnapshot() map[uint]json.RawMessage {
	out := make(map[uint]json.RawMessage, len(r.PerQuestion))
	for _, q := range r.PerQuestion {
		if q.UserAnswer != "" {
			out[q.QuestionID] = json.RawMessage(q.UserAnswer)
		}
	}
	return out
}
