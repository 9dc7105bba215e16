package service

import (
	"course_quiz_backend/internal/model"
	"reflect"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []struct {
		name   string
		qtype  model.QuestionType
		answer interface{}
	}{
		{"single_choice", model.SingleChoice, 2},
		{"multiple_choice", model.MultipleChoice, []int{0, 1, 3}},
		{"true_false", model.TrueFalse, true},
		{"fill_blank single", model.FillBlank, "Brown"},
		{"fill_blank list", model.FillBlank, []string{"colour", "color"}},
		{"essay", model.Essay, "a model answer"},
		{"matching", model.Matching, []model.MatchPair{{LeftID: "l1", RightID: "r2"}, {LeftID: "l2", RightID: "r1"}}},
		{"ordering", model.Ordering, []string{"b", "a", "c"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q := &model.Question{QuestionType: tc.qtype}
			if err := EncodeCorrectAnswer(q, tc.answer); err != nil {
				t.Fatalf("encode: %v", err)
			}
			got, err := DecodeCorrectAnswer(q)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if !reflect.DeepEqual(got, tc.answer) {
				t.Errorf("round trip mismatch: want %#v, got %#v", tc.answer, got)
			}
		})
	}
}

// 编码必须先清空全部槽位，换题型后不允许残留旧内容
func TestEncodeClearsStaleSlots(t *testing.T) {
	q := &model.Question{QuestionType: model.MultipleChoice}
	if err := EncodeCorrectAnswer(q, []int{1, 2}); err != nil {
		t.Fatalf("encode multiple_choice: %v", err)
	}

	q.QuestionType = model.SingleChoice
	if err := EncodeCorrectAnswer(q, 1); err != nil {
		t.Fatalf("encode single_choice: %v", err)
	}
	if q.AnswerJSON != "" || q.AnswerText != "" {
		t.Errorf("stale slots not cleared: json=%q text=%q", q.AnswerJSON, q.AnswerText)
	}
	if q.AnswerIndex != 1 {
		t.Errorf("AnswerIndex = %d, want 1", q.AnswerIndex)
	}
}

func TestEncodeRejectsWrongShape(t *testing.T) {
	cases := []struct {
		qtype  model.QuestionType
		answer interface{}
	}{
		{model.SingleChoice, "not an index"},
		{model.MultipleChoice, "nope"},
		{model.TrueFalse, 1},
		{model.FillBlank, 42},
		{model.Matching, []string{"l1"}},
		{model.Ordering, 7},
	}
	for _, tc := range cases {
		q := &model.Question{QuestionType: tc.qtype}
		if err := EncodeCorrectAnswer(q, tc.answer); err == nil {
			t.Errorf("%s: expected error for %#v", tc.qtype, tc.answer)
		}
	}
}

// 槽位里的坏数据解码成空值而不是报错，答题流程不能被历史脏数据打断
func TestDecodeFailSoft(t *testing.T) {
	cases := []struct {
		name string
		q    model.Question
		want interface{}
	}{
		{"multiple_choice garbage", model.Question{QuestionType: model.MultipleChoice, AnswerJSON: "{not json"}, []int{}},
		{"multiple_choice empty", model.Question{QuestionType: model.MultipleChoice}, []int{}},
		{"matching garbage", model.Question{QuestionType: model.Matching, AnswerJSON: "[[]"}, []model.MatchPair{}},
		{"ordering garbage", model.Question{QuestionType: model.Ordering, AnswerJSON: "oops"}, []string{}},
		{"fill_blank broken list", model.Question{QuestionType: model.FillBlank, AnswerText: "[broken"}, "[broken"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DecodeCorrectAnswer(&tc.q)
			if err != nil {
				t.Fatalf("decode should not fail: %v", err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("want %#v, got %#v", tc.want, got)
			}
		})
	}
}

func TestDecodeUnknownTypeErrors(t *testing.T) {
	q := &model.Question{QuestionType: "short_answer"}
	if _, err := DecodeCorrectAnswer(q); err == nil {
		t.Error("expected error for unknown question type")
	}
}

// 每个封闭集合内的题型都必须能被解码器处理
func TestDecodeCoversAllTypes(t *testing.T) {
	for _, qt := range model.AllQuestionTypes {
		q := &model.Question{QuestionType: qt}
		if _, err := DecodeCorrectAnswer(q); err != nil {
			t.Errorf("%s: decode on empty slots failed: %v", qt, err)
		}
	}
}

func TestNormalizeAnswerJSONShapes(t *testing.T) {
	single := &model.Question{QuestionType: model.SingleChoice, Options: `["a","b","c"]`}
	if got, ok := NormalizeAnswer(single, float64(2)); !ok || got != 2 {
		t.Errorf("float64 index: got %#v ok=%v", got, ok)
	}
	if _, ok := NormalizeAnswer(single, float64(5)); ok {
		t.Error("out of range index accepted")
	}
	if _, ok := NormalizeAnswer(single, 2.5); ok {
		t.Error("fractional index accepted")
	}

	multi := &model.Question{QuestionType: model.MultipleChoice, Options: `["a","b","c","d"]`}
	got, ok := NormalizeAnswer(multi, []interface{}{float64(0), float64(3)})
	if !ok || !reflect.DeepEqual(got, []int{0, 3}) {
		t.Errorf("interface slice: got %#v ok=%v", got, ok)
	}

	matching := &model.Question{QuestionType: model.Matching}
	pairs, ok := NormalizeAnswer(matching, []interface{}{
		map[string]interface{}{"leftId": "l1", "rightId": "r1"},
	})
	if !ok || !reflect.DeepEqual(pairs, []model.MatchPair{{LeftID: "l1", RightID: "r1"}}) {
		t.Errorf("pair maps: got %#v ok=%v", pairs, ok)
	}

	if _, ok := NormalizeAnswer(matching, "nonsense"); ok {
		t.Error("wrong shape accepted for matching")
	}
	if _, ok := NormalizeAnswer(single, nil); ok {
		t.Error("nil answer accepted")
	}
}
