package model

import "time"

type AttemptStatus string

const (
	AttemptNotStarted AttemptStatus = "not_started"
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptSubmitted  AttemptStatus = "submitted"
	AttemptExpired    AttemptStatus = "expired"
	AttemptAbandoned  AttemptStatus = "abandoned"
)

// Terminal 终态不可再变更
func (s AttemptStatus) Terminal() bool {
	switch s {
	case AttemptSubmitted, AttemptExpired, AttemptAbandoned:
		return true
	}
	return false
}

// QuizAttempt 一次答题记录。ID 由引擎在 start 时生成，
// 同一 (user, quiz) 的重考会产生新的 ID。
type QuizAttempt struct {
	UUIDBase
	QuizID               uint          `gorm:"index;type:bigint unsigned" json:"quizId"`
	UserID               uint          `gorm:"index;type:bigint unsigned" json:"userId"`
	Status               AttemptStatus `gorm:"size:20;default:'not_started';index" json:"status"`
	StartedAt            time.Time     `json:"startedAt"`
	EndedAt              *time.Time    `json:"endedAt,omitempty"`
	TimeLimitSeconds     *int          `json:"timeLimitSeconds,omitempty"`
	RemainingSeconds     int           `json:"remainingSeconds"`
	CurrentQuestionIndex int           `gorm:"default:0" json:"currentQuestionIndex"`
	AnswersJSON          string        `gorm:"type:json" json:"-"` // 提交时的最终答案快照
	LastPersistedAt      *time.Time    `json:"lastPersistedAt,omitempty"`
}

func (QuizAttempt) TableName() string {
	return "quiz_attempts"
}
