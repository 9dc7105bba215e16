package service

import (
	"course_quiz_backend/internal/model"
	"testing"
)

func question(id uint, qtype model.QuestionType, points int) model.Question {
	return model.Question{
		BaseModel:    model.BaseModel{ID: id},
		QuestionType: qtype,
		Prompt:       "q",
		Points:       points,
	}
}

func TestGradeSingleChoice(t *testing.T) {
	q := question(1, model.SingleChoice, 2)
	q.Options = `["a","b","c","d"]`
	q.AnswerIndex = 2

	result := Grade([]model.Question{q}, map[uint]interface{}{1: 2})
	if result.EarnedPoints != 2 || result.Percentage != 100 {
		t.Errorf("earned=%v pct=%d, want 2/100", result.EarnedPoints, result.Percentage)
	}

	result = Grade([]model.Question{q}, map[uint]interface{}{1: 1})
	if result.EarnedPoints != 0 {
		t.Errorf("wrong index earned %v, want 0", result.EarnedPoints)
	}
}

// 多选题按无序集合比较，顺序不影响判分
func TestGradeMultipleChoiceOrderIndependent(t *testing.T) {
	q := question(1, model.MultipleChoice, 3)
	q.Options = `["a","b","c","d"]`
	q.AnswerJSON = `[0,1,3]`

	result := Grade([]model.Question{q}, map[uint]interface{}{1: []int{1, 0, 3}})
	if result.EarnedPoints != 3 {
		t.Errorf("reordered correct set earned %v, want 3", result.EarnedPoints)
	}

	// 部分命中不给分
	result = Grade([]model.Question{q}, map[uint]interface{}{1: []int{0, 1}})
	if result.EarnedPoints != 0 {
		t.Errorf("subset earned %v, want 0", result.EarnedPoints)
	}
	// 多选了也不给分
	result = Grade([]model.Question{q}, map[uint]interface{}{1: []int{0, 1, 2, 3}})
	if result.EarnedPoints != 0 {
		t.Errorf("superset earned %v, want 0", result.EarnedPoints)
	}
}

func TestGradeTrueFalse(t *testing.T) {
	q := question(1, model.TrueFalse, 1)
	q.AnswerIndex = 1 // true

	result := Grade([]model.Question{q}, map[uint]interface{}{1: false})
	if result.EarnedPoints != 0 {
		t.Errorf("mismatch earned %v, want 0", result.EarnedPoints)
	}
	result = Grade([]model.Question{q}, map[uint]interface{}{1: true})
	if result.EarnedPoints != 1 {
		t.Errorf("match earned %v, want 1", result.EarnedPoints)
	}
}

func TestGradeFillBlankCaseAndSpace(t *testing.T) {
	q := question(1, model.FillBlank, 1)
	q.AnswerText = "brown"

	result := Grade([]model.Question{q}, map[uint]interface{}{1: " Brown "})
	if result.EarnedPoints != 1 {
		t.Errorf("case-insensitive trimmed match earned %v, want 1", result.EarnedPoints)
	}

	q.CaseSensitive = true
	result = Grade([]model.Question{q}, map[uint]interface{}{1: " Brown "})
	if result.EarnedPoints != 0 {
		t.Errorf("case-sensitive mismatch earned %v, want 0", result.EarnedPoints)
	}

	// 多个可接受答案
	q2 := question(2, model.FillBlank, 1)
	q2.AnswerText = `["colour","color"]`
	result = Grade([]model.Question{q2}, map[uint]interface{}{2: "Color"})
	if result.EarnedPoints != 1 {
		t.Errorf("accepted list match earned %v, want 1", result.EarnedPoints)
	}
}

func TestGradeEssayNeedsReview(t *testing.T) {
	q := question(1, model.Essay, 5)
	result := Grade([]model.Question{q}, map[uint]interface{}{1: "my answer"})

	if !result.NeedsReview {
		t.Error("essay submission should flag NeedsReview")
	}
	if len(result.PerQuestion) != 1 {
		t.Fatalf("expected 1 per-question row, got %d", len(result.PerQuestion))
	}
	if result.PerQuestion[0].IsCorrect != nil {
		t.Error("essay IsCorrect should be nil (pending manual review), not false")
	}

	// 未作答的问答题同样是 nil，而不是 false
	result = Grade([]model.Question{q}, map[uint]interface{}{})
	if result.PerQuestion[0].IsCorrect != nil {
		t.Error("unanswered essay IsCorrect should be nil")
	}
}

func TestGradeMatchingPartialCredit(t *testing.T) {
	q := question(1, model.Matching, 4)
	q.LeftItems = `[{"id":"l1","text":"a"},{"id":"l2","text":"b"},{"id":"l3","text":"c"},{"id":"l4","text":"d"}]`
	q.RightItems = `[{"id":"r1","text":"w"},{"id":"r2","text":"x"},{"id":"r3","text":"y"},{"id":"r4","text":"z"}]`
	q.AnswerJSON = `[{"leftId":"l1","rightId":"r1"},{"leftId":"l2","rightId":"r2"},{"leftId":"l3","rightId":"r3"},{"leftId":"l4","rightId":"r4"}]`
	q.PartialCredit = true

	half := []model.MatchPair{
		{LeftID: "l1", RightID: "r1"},
		{LeftID: "l2", RightID: "r3"},
		{LeftID: "l3", RightID: "r2"},
		{LeftID: "l4", RightID: "r4"},
	}
	result := Grade([]model.Question{q}, map[uint]interface{}{1: half})
	if result.EarnedPoints != 2 {
		t.Errorf("2/4 pairs earned %v, want 2", result.EarnedPoints)
	}
	if *result.PerQuestion[0].IsCorrect {
		t.Error("partially correct matching should not be marked correct")
	}

	// 不开部分给分时全错
	q.PartialCredit = false
	result = Grade([]model.Question{q}, map[uint]interface{}{1: half})
	if result.EarnedPoints != 0 {
		t.Errorf("all-or-nothing earned %v, want 0", result.EarnedPoints)
	}
}

func TestGradeOrderingPartialCredit(t *testing.T) {
	q := question(1, model.Ordering, 3)
	q.Items = `[{"id":"a","text":"1"},{"id":"b","text":"2"},{"id":"c","text":"3"}]`
	q.AnswerJSON = `["a","b","c"]`
	q.PartialCredit = true

	// 只有第一个位置正确：1/3 的分
	result := Grade([]model.Question{q}, map[uint]interface{}{1: []string{"a", "c", "b"}})
	if got := result.EarnedPoints; got != 1 {
		t.Errorf("1/3 positions earned %v, want 1", got)
	}

	result = Grade([]model.Question{q}, map[uint]interface{}{1: []string{"a", "b", "c"}})
	if result.EarnedPoints != 3 {
		t.Errorf("exact order earned %v, want 3", result.EarnedPoints)
	}
}

func TestGradeUnansweredAndTotals(t *testing.T) {
	q1 := question(1, model.TrueFalse, 1)
	q1.AnswerIndex = 1
	q2 := question(2, model.SingleChoice, 0) // 非正分值按 1 计
	q2.Options = `["a","b"]`
	q2.AnswerIndex = 0

	result := Grade([]model.Question{q1, q2}, map[uint]interface{}{1: true})
	if result.TotalPoints != 2 {
		t.Errorf("TotalPoints = %d, want 2", result.TotalPoints)
	}
	if result.EarnedPoints != 1 {
		t.Errorf("EarnedPoints = %v, want 1", result.EarnedPoints)
	}
	if result.Percentage != 50 {
		t.Errorf("Percentage = %d, want 50", result.Percentage)
	}
	unanswered := result.PerQuestion[1]
	if unanswered.IsCorrect == nil || *unanswered.IsCorrect {
		t.Error("unanswered closed question should be marked incorrect")
	}
}

// 空试卷不评出非零百分比，也不除零
func TestGradeEmptyQuiz(t *testing.T) {
	result := Grade(nil, map[uint]interface{}{})
	if result.TotalPoints != 0 || result.Percentage != 0 {
		t.Errorf("empty quiz: total=%d pct=%d, want 0/0", result.TotalPoints, result.Percentage)
	}
}

func TestGradePercentageRounding(t *testing.T) {
	qs := []model.Question{}
	for i := uint(1); i <= 3; i++ {
		q := question(i, model.TrueFalse, 1)
		q.AnswerIndex = 1
		qs = append(qs, q)
	}

	// 1/3 = 33.33 -> 33
	result := Grade(qs, map[uint]interface{}{1: true})
	if result.Percentage != 33 {
		t.Errorf("1/3 pct = %d, want 33", result.Percentage)
	}
	// 2/3 = 66.67 -> 67
	result = Grade(qs, map[uint]interface{}{1: true, 2: true})
	if result.Percentage != 67 {
		t.Errorf("2/3 pct = %d, want 67", result.Percentage)
	}
}
