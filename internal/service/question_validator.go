package service

import (
	"course_quiz_backend/internal/model"
	"fmt"
	"strings"
)

// ValidationIssue 单条校验信息
type ValidationIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult 校验结果。Errors 阻止保存，Warnings 仅提示。
type ValidationResult struct {
	Errors   []ValidationIssue `json:"errors"`
	Warnings []ValidationIssue `json:"warnings"`
}

func (r *ValidationResult) IsValid() bool {
	return len(r.Errors) == 0
}

func (r *ValidationResult) addError(field, format string, args ...interface{}) {
	r.Errors = append(r.Errors, ValidationIssue{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (r *ValidationResult) addWarning(field, format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, ValidationIssue{Field: field, Message: fmt.Sprintf(format, args...)})
}

// ValidateQuestion 出题保存前的结构完整性校验，纯函数无副作用。
func ValidateQuestion(q *model.Question) ValidationResult {
	var res ValidationResult

	if strings.TrimSpace(q.Prompt) == "" {
		res.addError("prompt", "prompt is required")
	}
	if q.QuestionType == "" {
		res.addError("questionType", "question type is required")
		return res
	}
	if !q.QuestionType.Valid() {
		res.addError("questionType", "unknown question type %q", q.QuestionType)
		return res
	}

	if q.Points <= 0 {
		res.addWarning("points", "points is not positive, 1 will be used")
	}
	if q.PartialCredit && q.QuestionType != model.Matching && q.QuestionType != model.Ordering {
		res.addWarning("partialCredit", "partial credit only applies to matching and ordering questions")
	}

	canonical, err := DecodeCorrectAnswer(q)
	if err != nil {
		res.addError("questionType", err.Error())
		return res
	}

	switch q.QuestionType {
	case model.SingleChoice:
		opts := q.OptionList()
		if len(opts) < 2 {
			res.addError("options", "at least 2 options are required")
		}
		idx, _ := canonical.(int)
		if idx < 0 || (len(opts) > 0 && idx >= len(opts)) {
			res.addError("answer", "correct answer index %d is out of range", idx)
		}

	case model.MultipleChoice:
		opts := q.OptionList()
		if len(opts) < 2 {
			res.addError("options", "at least 2 options are required")
		}
		indices, _ := canonical.([]int)
		if len(indices) == 0 {
			res.addError("answer", "at least one correct option index is required")
		}
		for _, idx := range indices {
			if idx < 0 || (len(opts) > 0 && idx >= len(opts)) {
				res.addError("answer", "correct answer index %d is out of range", idx)
			}
		}

	case model.TrueFalse:
		// 数值槽必须恰好是 0 或 1，其他值不视为布尔
		if q.AnswerIndex != 0 && q.AnswerIndex != 1 {
			res.addError("answer", "correct answer must be exactly true or false")
		}

	case model.FillBlank:
		switch a := canonical.(type) {
		case string:
			if strings.TrimSpace(a) == "" {
				res.addError("answer", "a correct text answer is required")
			}
		case []string:
			if len(a) == 0 {
				res.addError("answer", "a correct text answer is required")
			}
		}

	case model.Essay:
		// 问答题可人工评分，缺答案只提示
		if strings.TrimSpace(q.AnswerText) == "" {
			res.addWarning("answer", "no model answer provided; essay will need manual review")
		}
		if q.MinWords > 0 && q.MaxWords > 0 && q.MinWords > q.MaxWords {
			res.addError("minWords", "minWords is greater than maxWords")
		}

	case model.Matching:
		left, right := q.MatchColumns()
		if len(left) < 2 || len(right) < 2 {
			res.addError("leftItems", "at least 2 items are required on each side")
		}
		pairs, _ := canonical.([]model.MatchPair)
		if len(pairs) == 0 {
			res.addError("answer", "at least one correct pair is required")
		}

	case model.Ordering:
		items := q.OrderItems()
		if len(items) < 2 {
			res.addError("items", "at least 2 items are required")
		}
		order, _ := canonical.([]string)
		if len(order) == 0 {
			res.addError("answer", "the correct order is required")
		} else if len(items) > 0 && len(order) != len(items) {
			// 长度不符是错误，不做静默截断
			res.addError("answer", "correct order has %d entries but the question has %d items", len(order), len(items))
		}
	}

	return res
}

// QuizIssue 带题目位置的校验信息
type QuizIssue struct {
	Position int    `json:"position"` // 题目在试卷中的序号，-1 表示试卷级
	Field    string `json:"field"`
	Message  string `json:"message"`
}

// QuizValidationResult 试卷级聚合校验结果
type QuizValidationResult struct {
	Errors   []QuizIssue `json:"errors"`
	Warnings []QuizIssue `json:"warnings"`
}

func (r *QuizValidationResult) IsValid() bool {
	return len(r.Errors) == 0
}

// ValidateQuiz 聚合所有题目的校验结果，并对题量和限时做试卷级提示。
// 试卷级问题永远只是警告，不阻止保存。
func ValidateQuiz(quiz *model.Quiz, questions []model.Question) QuizValidationResult {
	var res QuizValidationResult

	for i := range questions {
		qr := ValidateQuestion(&questions[i])
		for _, e := range qr.Errors {
			res.Errors = append(res.Errors, QuizIssue{Position: i, Field: e.Field, Message: e.Message})
		}
		for _, w := range qr.Warnings {
			res.Warnings = append(res.Warnings, QuizIssue{Position: i, Field: w.Field, Message: w.Message})
		}
	}

	if len(questions) < 3 {
		res.Warnings = append(res.Warnings, QuizIssue{
			Position: -1,
			Field:    "questions",
			Message:  fmt.Sprintf("quiz has only %d question(s)", len(questions)),
		})
	}

	if quiz.TimeLimitSeconds != nil && len(questions) > 0 {
		perQuestion := *quiz.TimeLimitSeconds / len(questions)
		if perQuestion < 30 {
			res.Warnings = append(res.Warnings, QuizIssue{
				Position: -1,
				Field:    "timeLimitSeconds",
				Message:  fmt.Sprintf("time limit allows only %ds per question", perQuestion),
			})
		}
	}

	return res
}
