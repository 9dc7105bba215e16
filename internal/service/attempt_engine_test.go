package service

import (
	"course_quiz_backend/internal/model"
	"testing"
	"time"
)

func testQuiz(limit *int) *model.Quiz {
	quiz := &model.Quiz{
		Title:            "test quiz",
		PassingScore:     60,
		IsPublished:      true,
		TimeLimitSeconds: limit,
	}
	quiz.ID = 10
	return quiz
}

func testQuestions() []model.Question {
	q1 := question(1, model.TrueFalse, 1)
	q1.AnswerIndex = 1
	q2 := question(2, model.SingleChoice, 1)
	q2.Options = `["a","b","c"]`
	q2.AnswerIndex = 0
	return []model.Question{q1, q2}
}

// stopTimer 停掉后台定时器协程，让测试手动驱动 tick
func stopTimer(e *AttemptEngine) {
	e.mu.Lock()
	e.stopTimerLocked()
	e.mu.Unlock()
}

func TestEngineStartState(t *testing.T) {
	limit := 30
	e := NewAttemptEngine(testQuiz(&limit), testQuestions(), 7, nil)

	attempt, err := e.Start()
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	stopTimer(e)

	if attempt.Status != model.AttemptInProgress {
		t.Errorf("status = %s, want in_progress", attempt.Status)
	}
	if attempt.ID == "" {
		t.Error("attempt ID not assigned")
	}
	state := e.State()
	if state.RemainingSeconds == nil || *state.RemainingSeconds != 30 {
		t.Errorf("remaining = %v, want 30", state.RemainingSeconds)
	}
	if len(state.Answers) != 0 {
		t.Error("new attempt must start with empty answers")
	}
}

func TestEngineCountdownToExpiry(t *testing.T) {
	limit := 3
	e := NewAttemptEngine(testQuiz(&limit), testQuestions(), 7, nil)

	var expiredAttempt *model.QuizAttempt
	var expiredResult *model.QuizResult
	e.SetOnExpire(func(a *model.QuizAttempt, r *model.QuizResult) {
		expiredAttempt = a
		expiredResult = r
	})

	if _, err := e.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	stopTimer(e)
	e.Answer(1, true)

	// 剩余秒数单调递减
	prev := 3
	for i := 0; i < 2; i++ {
		if done := e.tick(); done {
			t.Fatalf("tick %d ended the attempt early", i)
		}
		state := e.State()
		if *state.RemainingSeconds >= prev {
			t.Errorf("remaining did not decrease: %d -> %d", prev, *state.RemainingSeconds)
		}
		prev = *state.RemainingSeconds
	}

	// 最后一次 tick 归零并强制按超时提交
	if done := e.tick(); !done {
		t.Fatal("final tick should end the attempt")
	}

	state := e.State()
	if state.Status != model.AttemptExpired {
		t.Errorf("status = %s, want expired", state.Status)
	}
	if *state.RemainingSeconds != 0 {
		t.Errorf("remaining = %d, want 0", *state.RemainingSeconds)
	}
	if state.Result == nil {
		t.Fatal("expired attempt must carry a graded result")
	}
	if state.Result.EarnedPoints != 1 {
		t.Errorf("earned = %v, want 1 (answer recorded before expiry)", state.Result.EarnedPoints)
	}
	if expiredAttempt == nil || expiredResult == nil {
		t.Error("onExpire callback not invoked")
	}

	// 过期后的 tick 直接要求协程退出
	if done := e.tick(); !done {
		t.Error("tick after expiry should report done")
	}
}

func TestEngineSubmitIdempotent(t *testing.T) {
	e := NewAttemptEngine(testQuiz(nil), testQuestions(), 7, nil)
	if _, err := e.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	e.Answer(1, true)
	e.Answer(2, 0)

	first, err := e.Submit(SubmitManual)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if first.Percentage != 100 || !first.Passed {
		t.Errorf("pct=%d passed=%v, want 100/true", first.Percentage, first.Passed)
	}

	second, err := e.Submit(SubmitManual)
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if first != second {
		t.Error("repeated submit must return the same result, not re-grade")
	}
}

func TestEngineAnswerLifecycle(t *testing.T) {
	e := NewAttemptEngine(testQuiz(nil), testQuestions(), 7, nil)

	// 开考前写入被忽略
	e.Answer(1, true)
	if _, err := e.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if len(e.State().Answers) != 0 {
		t.Error("answer before start should be dropped")
	}

	// 形状不合法被忽略
	e.Answer(2, 99)       // 选项越界
	e.Answer(2, "hello")  // 类型不对
	e.Answer(42, 0)       // 不存在的题
	if len(e.State().Answers) != 0 {
		t.Errorf("invalid answers should be dropped, got %v", e.State().Answers)
	}

	e.Answer(1, false)
	e.Answer(1, true) // 覆盖
	if got := e.State().Answers[1]; got != true {
		t.Errorf("answer[1] = %v, want true", got)
	}

	if _, err := e.Submit(SubmitManual); err != nil {
		t.Fatalf("submit: %v", err)
	}

	// 提交后的写入静默忽略，不改变已评分的答案
	e.Answer(1, false)
	if got := e.State().Answers[1]; got != true {
		t.Errorf("answer mutated after submit: %v", got)
	}
}

func TestEngineNavigateClamps(t *testing.T) {
	e := NewAttemptEngine(testQuiz(nil), testQuestions(), 7, nil)
	if _, err := e.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	e.Navigate(-5)
	if got := e.State().CurrentQuestionIndex; got != 0 {
		t.Errorf("negative index clamped to %d, want 0", got)
	}
	e.Navigate(99)
	if got := e.State().CurrentQuestionIndex; got != 1 {
		t.Errorf("overflow index clamped to %d, want 1", got)
	}
	e.Navigate(1)

	if _, err := e.Submit(SubmitManual); err != nil {
		t.Fatalf("submit: %v", err)
	}
	e.Navigate(0)
	if got := e.State().CurrentQuestionIndex; got != 1 {
		t.Error("navigate after submit should be ignored")
	}
}

func TestEngineAbandonResets(t *testing.T) {
	e := NewAttemptEngine(testQuiz(nil), testQuestions(), 7, nil)
	first, err := e.Start()
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	e.Answer(1, true)

	abandoned := e.Abandon()
	if abandoned.Status != model.AttemptAbandoned {
		t.Errorf("status = %s, want abandoned", abandoned.Status)
	}
	if abandoned.ID != first.ID {
		t.Error("abandon should return the attempt that was in progress")
	}

	// 引擎回到 not_started，可重新开考，答案清空且 ID 不同
	second, err := e.Start()
	if err != nil {
		t.Fatalf("restart after abandon: %v", err)
	}
	if second.ID == first.ID {
		t.Error("new attempt must get a fresh ID")
	}
	if len(e.State().Answers) != 0 {
		t.Error("answers must be cleared after abandon")
	}
}

func TestEngineResumeRecomputesRemaining(t *testing.T) {
	limit := 60
	e := NewAttemptEngine(testQuiz(&limit), testQuestions(), 7, nil)

	started := time.Now().Add(-10 * time.Second)
	row := &model.QuizAttempt{
		UUIDBase:         model.UUIDBase{ID: "resume-1"},
		QuizID:           10,
		UserID:           7,
		Status:           model.AttemptInProgress,
		StartedAt:        started,
		TimeLimitSeconds: &limit,
	}

	if err := e.Resume(row); err != nil {
		t.Fatalf("resume: %v", err)
	}
	stopTimer(e)

	state := e.State()
	if state.AttemptID != "resume-1" {
		t.Errorf("attempt ID = %s, want resume-1", state.AttemptID)
	}
	got := *state.RemainingSeconds
	if got < 48 || got > 50 {
		t.Errorf("remaining = %d, want about 50", got)
	}
}

func TestEngineRestoreOnlySameAttempt(t *testing.T) {
	e := NewAttemptEngine(testQuiz(nil), testQuestions(), 7, nil)
	attempt, err := e.Start()
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	// attemptId 不匹配的条目不恢复
	e.Restore(&SavedAnswers{
		AttemptID: "someone-else",
		Answers:   map[uint]interface{}{1: true},
	})
	if len(e.State().Answers) != 0 {
		t.Error("answers from a different attempt must not be restored")
	}

	// 匹配的条目逐条走形状校验
	e.Restore(&SavedAnswers{
		AttemptID: attempt.ID,
		Answers: map[uint]interface{}{
			1:  true,
			2:  float64(1), // JSON 解码出的数字形态
			42: "ghost",    // 不存在的题
		},
	})
	answers := e.State().Answers
	if answers[1] != true || answers[2] != 1 {
		t.Errorf("restored answers = %v", answers)
	}
	if _, ok := answers[42]; ok {
		t.Error("unknown question restored")
	}
}
