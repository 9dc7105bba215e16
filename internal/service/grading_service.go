package service

import (
	"course_quiz_backend/internal/model"
	"encoding/json"
	"math"
	"strings"
	"time"
)

// Grade 对一次提交评分，纯函数：只依赖题目和最终答案集。
// answers 中缺失的题目按未作答计 0 分（问答题除外，IsCorrect 记 nil）。
// 每次答题只允许调用一次，幂等性由答题引擎保证。
func Grade(questions []model.Question, answers map[uint]interface{}) *model.QuizResult {
	result := &model.QuizResult{
		GradedAt: time.Now(),
	}

	for i := range questions {
		q := &questions[i]
		points := q.Points
		if points <= 0 {
			points = 1
		}
		result.TotalPoints += points

		qr := model.QuestionResult{
			QuestionID: q.ID,
			Max:        points,
		}

		answer, answered := answers[q.ID]
		if raw, err := json.Marshal(answer); err == nil && answered {
			qr.UserAnswer = string(raw)
		}

		if q.QuestionType == model.Essay {
			// 问答题不自动评分，留给人工复核
			qr.IsCorrect = nil
			qr.Earned = 0
			result.NeedsReview = true
			result.PerQuestion = append(result.PerQuestion, qr)
			continue
		}

		if !answered {
			qr.IsCorrect = boolPtr(false)
			result.PerQuestion = append(result.PerQuestion, qr)
			continue
		}

		earned, correct := gradeQuestion(q, answer, points)
		qr.Earned = earned
		qr.IsCorrect = boolPtr(correct)
		result.EarnedPoints += earned
		result.PerQuestion = append(result.PerQuestion, qr)
	}

	if result.TotalPoints > 0 {
		pct := math.Round(100 * result.EarnedPoints / float64(result.TotalPoints))
		if pct < 0 {
			pct = 0
		}
		if pct > 100 {
			pct = 100
		}
		result.Percentage = int(pct)
	}

	return result
}

// gradeQuestion 单题评分，answer 已经过 NormalizeAnswer 规范化
func gradeQuestion(q *model.Question, answer interface{}, points int) (earned float64, correct bool) {
	canonical, err := DecodeCorrectAnswer(q)
	if err != nil {
		// 封闭集合之外的题型在校验阶段就被拒绝，这里兜底计 0 分
		return 0, false
	}

	switch q.QuestionType {
	case model.SingleChoice:
		want, _ := canonical.(int)
		got, ok := asInt(answer)
		if ok && got == want {
			return float64(points), true
		}

	case model.MultipleChoice:
		want, _ := canonical.([]int)
		got, ok := asIntSlice(answer)
		if ok && sameIntSet(want, got) {
			return float64(points), true
		}

	case model.TrueFalse:
		want, _ := canonical.(bool)
		got, ok := answer.(bool)
		if ok && got == want {
			return float64(points), true
		}

	case model.FillBlank:
		got, ok := answer.(string)
		if !ok {
			return 0, false
		}
		switch want := canonical.(type) {
		case string:
			if textMatches(got, want, q.CaseSensitive) {
				return float64(points), true
			}
		case []string:
			for _, w := range want {
				if textMatches(got, w, q.CaseSensitive) {
					return float64(points), true
				}
			}
		}

	case model.Matching:
		want, _ := canonical.([]model.MatchPair)
		got, ok := asPairs(answer)
		if !ok || len(want) == 0 {
			return 0, false
		}
		matched := 0
		wantSet := make(map[model.MatchPair]bool, len(want))
		for _, p := range want {
			wantSet[p] = true
		}
		seen := make(map[model.MatchPair]bool, len(got))
		for _, p := range got {
			if wantSet[p] && !seen[p] {
				matched++
				seen[p] = true
			}
		}
		if matched == len(want) && len(got) == len(want) {
			return float64(points), true
		}
		if q.PartialCredit {
			return float64(points) * float64(matched) / float64(len(want)), false
		}

	case model.Ordering:
		want, _ := canonical.([]string)
		got, ok := asStringSlice(answer)
		if !ok || len(want) == 0 {
			return 0, false
		}
		matched := 0
		for i, id := range want {
			if i < len(got) && got[i] == id {
				matched++
			}
		}
		if matched == len(want) && len(got) == len(want) {
			return float64(points), true
		}
		if q.PartialCredit {
			return float64(points) * float64(matched) / float64(len(want)), false
		}
	}

	return 0, false
}

func textMatches(got, want string, caseSensitive bool) bool {
	got = strings.TrimSpace(got)
	want = strings.TrimSpace(want)
	if caseSensitive {
		return got == want
	}
	return strings.EqualFold(got, want)
}

func sameIntSet(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	counts := make(map[int]int, len(a))
	for _, n := range a {
		counts[n]++
	}
	for _, n := range b {
		counts[n]--
		if counts[n] < 0 {
			return false
		}
	}
	return true
}

func boolPtr(b bool) *bool {
	return &b
}
