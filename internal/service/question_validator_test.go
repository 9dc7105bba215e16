package service

import (
	"course_quiz_backend/internal/model"
	"testing"
)

func hasIssue(issues []ValidationIssue, field string) bool {
	for _, i := range issues {
		if i.Field == field {
			return true
		}
	}
	return false
}

func TestValidateQuestionErrors(t *testing.T) {
	cases := []struct {
		name  string
		q     model.Question
		field string
	}{
		{
			"empty prompt",
			model.Question{QuestionType: model.TrueFalse, AnswerIndex: 1},
			"prompt",
		},
		{
			"unknown type",
			model.Question{Prompt: "p", QuestionType: "short_answer"},
			"questionType",
		},
		{
			"single_choice too few options",
			model.Question{Prompt: "p", QuestionType: model.SingleChoice, Options: `["only"]`},
			"options",
		},
		{
			"single_choice index out of range",
			model.Question{Prompt: "p", QuestionType: model.SingleChoice, Options: `["a","b"]`, AnswerIndex: 5},
			"answer",
		},
		{
			"multiple_choice no correct options",
			model.Question{Prompt: "p", QuestionType: model.MultipleChoice, Options: `["a","b"]`},
			"answer",
		},
		{
			"true_false slot not boolean",
			model.Question{Prompt: "p", QuestionType: model.TrueFalse, AnswerIndex: 2},
			"answer",
		},
		{
			"fill_blank empty answer",
			model.Question{Prompt: "p", QuestionType: model.FillBlank, AnswerText: "  "},
			"answer",
		},
		{
			"matching one-sided",
			model.Question{
				Prompt: "p", QuestionType: model.Matching,
				LeftItems:  `[{"id":"l1","text":"a"},{"id":"l2","text":"b"}]`,
				RightItems: `[{"id":"r1","text":"x"}]`,
				AnswerJSON: `[{"leftId":"l1","rightId":"r1"}]`,
			},
			"leftItems",
		},
		{
			"ordering length mismatch",
			model.Question{
				Prompt: "p", QuestionType: model.Ordering,
				Items:      `[{"id":"a","text":"1"},{"id":"b","text":"2"},{"id":"c","text":"3"}]`,
				AnswerJSON: `["a","b"]`,
			},
			"answer",
		},
		{
			"essay min greater than max",
			model.Question{Prompt: "p", QuestionType: model.Essay, AnswerText: "m", MinWords: 100, MaxWords: 10},
			"minWords",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := ValidateQuestion(&tc.q)
			if res.IsValid() {
				t.Fatalf("expected errors, got none (warnings: %v)", res.Warnings)
			}
			if !hasIssue(res.Errors, tc.field) {
				t.Errorf("expected error on field %q, got %v", tc.field, res.Errors)
			}
		})
	}
}

func TestValidateQuestionWarnings(t *testing.T) {
	// 问答题缺少参考答案只警告，不阻止保存
	essay := model.Question{Prompt: "explain", QuestionType: model.Essay}
	res := ValidateQuestion(&essay)
	if !res.IsValid() {
		t.Fatalf("essay without model answer should be valid, got %v", res.Errors)
	}
	if !hasIssue(res.Warnings, "answer") {
		t.Errorf("expected warning on answer, got %v", res.Warnings)
	}

	// 非零分但非正的分值只警告
	q := model.Question{Prompt: "p", QuestionType: model.TrueFalse, AnswerIndex: 1, Points: -3}
	res = ValidateQuestion(&q)
	if !res.IsValid() {
		t.Fatalf("negative points should not be an error, got %v", res.Errors)
	}
	if !hasIssue(res.Warnings, "points") {
		t.Errorf("expected warning on points, got %v", res.Warnings)
	}

	// partial credit 对不支持的题型只警告
	q = model.Question{Prompt: "p", QuestionType: model.SingleChoice, Options: `["a","b"]`, AnswerIndex: 0, PartialCredit: true}
	res = ValidateQuestion(&q)
	if !hasIssue(res.Warnings, "partialCredit") {
		t.Errorf("expected warning on partialCredit, got %v", res.Warnings)
	}
}

func TestValidateQuizAggregates(t *testing.T) {
	limit := 50
	quiz := &model.Quiz{Title: "t", TimeLimitSeconds: &limit}
	questions := []model.Question{
		{Prompt: "ok", QuestionType: model.TrueFalse, AnswerIndex: 1},
		{Prompt: "", QuestionType: model.TrueFalse, AnswerIndex: 0},
	}

	res := ValidateQuiz(quiz, questions)
	if res.IsValid() {
		t.Fatal("expected aggregated errors")
	}

	foundAtPosition := false
	for _, e := range res.Errors {
		if e.Position == 1 && e.Field == "prompt" {
			foundAtPosition = true
		}
	}
	if !foundAtPosition {
		t.Errorf("expected prompt error at position 1, got %v", res.Errors)
	}

	// 题量少和限时紧是试卷级警告（Position = -1）
	var fewQuestions, tightLimit bool
	for _, w := range res.Warnings {
		if w.Position == -1 && w.Field == "questions" {
			fewQuestions = true
		}
		if w.Position == -1 && w.Field == "timeLimitSeconds" {
			tightLimit = true
		}
	}
	if !fewQuestions {
		t.Errorf("expected quiz-level warning about question count, got %v", res.Warnings)
	}
	if !tightLimit {
		t.Errorf("expected quiz-level warning about time limit, got %v", res.Warnings)
	}
}
