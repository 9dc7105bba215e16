package model

import "encoding/json"

type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	SingleChoice   QuestionType = "single_choice"
	TrueFalse      QuestionType = "true_false"
	FillBlank      QuestionType = "fill_blank"
	Essay          QuestionType = "essay"
	Matching       QuestionType = "matching"
	Ordering       QuestionType = "ordering"
)

// AllQuestionTypes 题型是封闭集合，新增题型必须同时扩展
// 编解码、校验和评分三处的 switch 分支。
var AllQuestionTypes = []QuestionType{
	MultipleChoice,
	SingleChoice,
	TrueFalse,
	FillBlank,
	Essay,
	Matching,
	Ordering,
}

func (t QuestionType) Valid() bool {
	for _, k := range AllQuestionTypes {
		if t == k {
			return true
		}
	}
	return false
}

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// MatchItem 匹配/排序题的条目
type MatchItem struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// MatchPair 匹配题的左右配对
type MatchPair struct {
	LeftID  string `json:"leftId"`
	RightID string `json:"rightId"`
}

// Question 题目。正确答案按题型拆分存储在三个槽位中：
// AnswerIndex（single_choice/true_false）、AnswerText（fill_blank/essay）、
// AnswerJSON（multiple_choice/matching/ordering，JSON 序列化）。
// 槽位只允许 service 层的编解码器读写。
type Question struct {
	BaseModel
	QuizID       uint         `gorm:"index;type:bigint unsigned" json:"quizId"`
	QuestionType QuestionType `gorm:"size:50;not null" json:"questionType"`
	Prompt       string       `gorm:"type:text;not null" json:"prompt"`
	Points       int          `gorm:"default:1" json:"points"`
	Difficulty   Difficulty   `gorm:"size:20;default:'medium'" json:"difficulty"`
	Order        int          `gorm:"default:0" json:"order"`
	Explanation  string       `gorm:"type:text" json:"explanation"`
	ImageURL     string       `gorm:"size:255" json:"imageUrl"`

	// 题型专有字段
	Options       string `gorm:"type:json" json:"options,omitempty"`    // 选择题选项（JSON: []string）
	LeftItems     string `gorm:"type:json" json:"leftItems,omitempty"`  // 匹配题左列（JSON: []MatchItem）
	RightItems    string `gorm:"type:json" json:"rightItems,omitempty"` // 匹配题右列（JSON: []MatchItem）
	Items         string `gorm:"type:json" json:"items,omitempty"`      // 排序题条目（JSON: []MatchItem）
	Shuffle       bool   `gorm:"default:false" json:"shuffle"`
	CaseSensitive bool   `gorm:"default:false" json:"caseSensitive"`
	PartialCredit bool   `gorm:"default:false" json:"partialCredit"` // 仅 matching/ordering
	MinWords      int    `gorm:"default:0" json:"minWords,omitempty"`
	MaxWords      int    `gorm:"default:0" json:"maxWords,omitempty"`

	// 正确答案的三个存储槽位
	AnswerIndex int    `gorm:"default:0" json:"-"`
	AnswerText  string `gorm:"type:text" json:"-"`
	AnswerJSON  string `gorm:"type:json" json:"-"`
}

func (Question) TableName() string {
	return "questions"
}

// OptionList 解析选择题选项，解析失败返回 nil
func (q *Question) OptionList() []string {
	if q.Options == "" {
		return nil
	}
	var opts []string
	if err := json.Unmarshal([]byte(q.Options), &opts); err != nil {
		return nil
	}
	return opts
}

// MatchColumns 解析匹配题左右两列，解析失败返回 nil
func (q *Question) MatchColumns() ([]MatchItem, []MatchItem) {
	return parseItems(q.LeftItems), parseItems(q.RightItems)
}

// OrderItems 解析排序题条目，解析失败返回 nil
func (q *Question) OrderItems() []MatchItem {
	return parseItems(q.Items)
}

func parseItems(raw string) []MatchItem {
	if raw == "" {
		return nil
	}
	var items []MatchItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil
	}
	return items
}
