package service

import (
	"course_quiz_backend/internal/model"
	"testing"
)

func TestValidateDraft(t *testing.T) {
	svc := NewQuizService(nil, nil)

	title := "daily check"
	req := &QuizReq{
		Title: &title,
		Questions: &[]QuestionReq{
			{QuestionType: model.TrueFalse, Prompt: "sky is blue", Answer: true},
		},
	}

	res := svc.ValidateDraft(req)
	if !res.IsValid() {
		t.Fatalf("expected valid draft, got %v", res.Errors)
	}
	// 题量不足是试卷级警告
	found := false
	for _, w := range res.Warnings {
		if w.Position == -1 && w.Field == "questions" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected quiz-level warning, got %v", res.Warnings)
	}
}

// 答案形态与题型不符在构建阶段转成该题位置上的校验错误
func TestValidateDraftBadAnswerShape(t *testing.T) {
	svc := NewQuizService(nil, nil)

	title := "bad"
	req := &QuizReq{
		Title: &title,
		Questions: &[]QuestionReq{
			{QuestionType: model.TrueFalse, Prompt: "ok", Answer: true},
			{QuestionType: model.SingleChoice, Prompt: "oops", Options: []string{"a", "b"}, Answer: "not an index"},
		},
	}

	res := svc.ValidateDraft(req)
	if res.IsValid() {
		t.Fatal("expected errors for mis-shaped answer")
	}
	found := false
	for _, e := range res.Errors {
		if e.Position == 1 && e.Field == "answer" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected answer error at position 1, got %v", res.Errors)
	}
}

func TestBuildQuestionDefaults(t *testing.T) {
	req := &QuestionReq{
		QuestionType: model.FillBlank,
		Prompt:       "the quick ___ fox",
		Answer:       "brown",
	}
	q, issue := buildQuestion(req)
	if issue != nil {
		t.Fatalf("unexpected issue: %v", issue)
	}
	if q.Points != 1 {
		t.Errorf("points default = %d, want 1", q.Points)
	}
	if q.Difficulty != model.DifficultyMedium {
		t.Errorf("difficulty default = %s, want medium", q.Difficulty)
	}
	if q.AnswerText != "brown" {
		t.Errorf("answer slot = %q, want brown", q.AnswerText)
	}
}
