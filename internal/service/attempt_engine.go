package service

import (
	"course_quiz_backend/internal/model"
	"course_quiz_backend/internal/util"
	"course_quiz_backend/pkg/logger"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SubmitReason 提交原因
type SubmitReason string

const (
	SubmitManual  SubmitReason = "manual"
	SubmitTimeout SubmitReason = "expired"
)

var attemptSeq uint64

// newAttemptID 生成答题 ID。优先用加密随机的 UUID，
// 熵池不可用时退回时间戳+序号，不允许开考动作 panic。
func newAttemptID() string {
	if id, err := uuid.NewRandom(); err == nil {
		return id.String()
	}
	return fmt.Sprintf("att-%d-%d", time.Now().UnixNano(), atomic.AddUint64(&attemptSeq, 1))
}

// AttemptEngine 驱动一个学生在一份试卷上的单次答题。
// 计时器和自动保存的防抖都归引擎实例所有，Close 负责确定性回收，
// 不存在包级的环境定时器。所有状态变更都在引擎锁内完成。
type AttemptEngine struct {
	mu        sync.Mutex
	quiz      *model.Quiz
	questions []model.Question
	byID      map[uint]*model.Question
	userID    uint

	attempt  *model.QuizAttempt
	answers  map[uint]interface{}
	result   *model.QuizResult
	autosave *AutosaveService
	now      func() time.Time

	stopTick chan struct{}

	// onExpire 在计时归零强制提交后回调（持锁之外），用于落库
	onExpire func(attempt *model.QuizAttempt, result *model.QuizResult)
}

func NewAttemptEngine(quiz *model.Quiz, questions []model.Question, userID uint, autosave *AutosaveService) *AttemptEngine {
	byID := make(map[uint]*model.Question, len(questions))
	for i := range questions {
		byID[questions[i].ID] = &questions[i]
	}
	return &AttemptEngine{
		quiz:      quiz,
		questions: questions,
		byID:      byID,
		userID:    userID,
		autosave:  autosave,
		now:       time.Now,
		answers:   make(map[uint]interface{}),
		attempt: &model.QuizAttempt{
			QuizID: quiz.ID,
			UserID: userID,
			Status: model.AttemptNotStarted,
		},
	}
}

// SetOnExpire 注册超时强制提交后的回调，必须在 Start 之前调用。
func (e *AttemptEngine) SetOnExpire(fn func(*model.QuizAttempt, *model.QuizResult)) {
	e.mu.Lock()
	e.onExpire = fn
	e.mu.Unlock()
}

// Start 开始答题：not_started -> in_progress。
// 生成新的答题 ID，新答题永远从空答案开始；顺带触发本试卷
// 过期自动保存条目的清理（Load 内部完成）。
func (e *AttemptEngine) Start() (*model.QuizAttempt, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.attempt.Status != model.AttemptNotStarted {
		return nil, util.ErrAttemptFinished
	}

	if e.autosave != nil {
		// 过期条目在读取时被丢弃；新鲜条目也不会载入新答题，
		// 它只服务于同一次答题的页面刷新恢复
		e.autosave.Load(e.userID, e.quiz.ID)
	}

	e.attempt = &model.QuizAttempt{
		UUIDBase:  model.UUIDBase{ID: newAttemptID()},
		QuizID:    e.quiz.ID,
		UserID:    e.userID,
		Status:    model.AttemptInProgress,
		StartedAt: e.now(),
	}
	e.answers = make(map[uint]interface{})
	e.result = nil

	if e.quiz.TimeLimitSeconds != nil {
		limit := *e.quiz.TimeLimitSeconds
		e.attempt.TimeLimitSeconds = &limit
		e.attempt.RemainingSeconds = limit
		e.startTimerLocked()
	}

	return e.attempt, nil
}

func (e *AttemptEngine) startTimerLocked() {
	stop := make(chan struct{})
	e.stopTick = stop
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if e.tick() {
					return
				}
			case <-stop:
				return
			}
		}
	}()
}

func (e *AttemptEngine) stopTimerLocked() {
	if e.stopTick != nil {
		close(e.stopTick)
		e.stopTick = nil
	}
}

// tick 每秒推进一次计时，归零时强制按超时提交。
// 返回 true 表示计时结束，定时器协程应退出。
func (e *AttemptEngine) tick() bool {
	e.mu.Lock()
	if e.attempt.Status != model.AttemptInProgress || e.attempt.TimeLimitSeconds == nil {
		e.mu.Unlock()
		return true
	}

	if e.attempt.RemainingSeconds > 0 {
		e.attempt.RemainingSeconds--
	}
	if e.attempt.RemainingSeconds > 0 {
		e.mu.Unlock()
		return false
	}

	result := e.submitLocked(SubmitTimeout)
	attempt := e.attempt
	cb := e.onExpire
	e.mu.Unlock()

	if e.autosave != nil {
		e.autosave.Invalidate(e.userID, e.quiz.ID)
	}
	if cb != nil {
		cb(attempt, result)
	}
	return true
}

// Answer 记录一题的作答。仅 in_progress 状态接受写入，其余状态
// 静默忽略 —— 防止迟到的定时回调在提交后篡改答案。形状不合法的
// 值同样丢弃。
func (e *AttemptEngine) Answer(questionID uint, value interface{}) {
	e.mu.Lock()

	if e.attempt.Status != model.AttemptInProgress {
		e.mu.Unlock()
		return
	}

	q, ok := e.byID[questionID]
	if !ok {
		e.mu.Unlock()
		return
	}

	normalized, ok := NormalizeAnswer(q, value)
	if !ok {
		if logger.Log != nil {
			logger.Log.Debug("rejecting answer with invalid shape",
				zap.Uint("questionId", questionID),
				zap.String("questionType", string(q.QuestionType)),
			)
		}
		e.mu.Unlock()
		return
	}

	e.answers[questionID] = normalized
	snapshot := e.snapshotAnswersLocked()
	attemptID := e.attempt.ID
	e.mu.Unlock()

	if e.autosave != nil {
		e.autosave.Schedule(e.userID, e.quiz.ID, SavedAnswers{
			AttemptID: attemptID,
			Answers:   snapshot,
		})
	}
}

// Navigate 移动当前题目游标，越界值收敛到 [0, len-1]。
// 终态下忽略；游标移动不触碰答案。
func (e *AttemptEngine) Navigate(index int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.attempt.Status.Terminal() {
		return
	}
	if index < 0 {
		index = 0
	}
	if max := len(e.questions) - 1; index > max {
		if max < 0 {
			max = 0
		}
		index = max
	}
	e.attempt.CurrentQuestionIndex = index
}

// Submit 结束答题并评分。对已终结的答题是幂等 no-op，
// 返回第一次计算出的 Result，绝不重新评分。
func (e *AttemptEngine) Submit(reason SubmitReason) (*model.QuizResult, error) {
	e.mu.Lock()

	if e.attempt.Status.Terminal() {
		result := e.result
		e.mu.Unlock()
		if result == nil {
			return nil, util.ErrAttemptFinished
		}
		return result, nil
	}
	if e.attempt.Status != model.AttemptInProgress {
		e.mu.Unlock()
		return nil, util.ErrAttemptNotActive
	}

	result := e.submitLocked(reason)
	e.mu.Unlock()

	if e.autosave != nil {
		e.autosave.Invalidate(e.userID, e.quiz.ID)
	}
	return result, nil
}

// submitLocked 冻结答案、评分并进入终态。调用方必须持有 e.mu。
func (e *AttemptEngine) submitLocked(reason SubmitReason) *model.QuizResult {
	e.stopTimerLocked()

	now := e.now()
	e.attempt.EndedAt = &now
	if reason == SubmitTimeout {
		e.attempt.Status = model.AttemptExpired
		e.attempt.RemainingSeconds = 0
	} else {
		e.attempt.Status = model.AttemptSubmitted
	}

	frozen := e.snapshotAnswersLocked()
	result := Grade(e.questions, frozen)
	result.AttemptID = e.attempt.ID
	result.QuizID = e.quiz.ID
	result.UserID = e.userID
	result.Passed = result.Percentage >= e.quiz.PassingScore
	for i := range result.PerQuestion {
		result.PerQuestion[i].AttemptID = e.attempt.ID
	}

	e.result = result
	return result
}

// Abandon 显式放弃：当前答题进入 abandoned 终态并被交还给调用方
// 落库，引擎自身重置回 not_started，可再次 Start。
func (e *AttemptEngine) Abandon() *model.QuizAttempt {
	e.mu.Lock()

	abandoned := e.attempt
	if !abandoned.Status.Terminal() {
		e.stopTimerLocked()
		now := e.now()
		abandoned.Status = model.AttemptAbandoned
		abandoned.EndedAt = &now
	}

	e.attempt = &model.QuizAttempt{
		QuizID: e.quiz.ID,
		UserID: e.userID,
		Status: model.AttemptNotStarted,
	}
	e.answers = make(map[uint]interface{})
	e.result = nil
	e.mu.Unlock()

	if e.autosave != nil {
		e.autosave.Invalidate(e.userID, e.quiz.ID)
	}
	return abandoned
}

// Close 答题界面销毁时的确定性回收：停掉计时器，把挂起的
// 自动保存冲刷出去。不改变答题状态。
func (e *AttemptEngine) Close() {
	e.mu.Lock()
	e.stopTimerLocked()
	inProgress := e.attempt.Status == model.AttemptInProgress
	e.mu.Unlock()

	if e.autosave != nil && inProgress {
		e.autosave.Flush(e.userID, e.quiz.ID)
	}
}

// Resume 接管一条进行中的答题记录（进程重启后重建引擎用）。
// 剩余时间按开考时刻重新推算，已经超时的记录会在下一次 tick
// 被强制按超时提交。
func (e *AttemptEngine) Resume(row *model.QuizAttempt) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.attempt.Status != model.AttemptNotStarted {
		return util.ErrAttemptFinished
	}
	if row.Status != model.AttemptInProgress {
		return util.ErrAttemptNotActive
	}

	e.attempt = row
	e.answers = make(map[uint]interface{})
	e.result = nil

	if row.TimeLimitSeconds != nil {
		elapsed := int(e.now().Sub(row.StartedAt).Seconds())
		remaining := *row.TimeLimitSeconds - elapsed
		if remaining < 0 {
			remaining = 0
		}
		row.RemainingSeconds = remaining
		e.startTimerLocked()
	}
	return nil
}

// Restore 把恢复出来的答案灌回 in_progress 的答题（服务重启后，
// 自动保存条目与同一 attemptId 匹配时使用）。逐条走形状校验。
func (e *AttemptEngine) Restore(saved *SavedAnswers) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.attempt.Status != model.AttemptInProgress || saved == nil || saved.AttemptID != e.attempt.ID {
		return
	}
	for qid, v := range saved.Answers {
		q, ok := e.byID[qid]
		if !ok {
			continue
		}
		if normalized, ok := NormalizeAnswer(q, v); ok {
			e.answers[qid] = normalized
		}
	}
}

// AttemptState 对外暴露的答题快照（不含正确答案）
type AttemptState struct {
	AttemptID            string               `json:"attemptId"`
	QuizID               uint                 `json:"quizId"`
	Status               model.AttemptStatus  `json:"status"`
	StartedAt            time.Time            `json:"startedAt"`
	RemainingSeconds     *int                 `json:"remainingSeconds,omitempty"`
	CurrentQuestionIndex int                  `json:"currentQuestionIndex"`
	Answers              map[uint]interface{} `json:"answers"`
	Result               *model.QuizResult    `json:"result,omitempty"`
}

// State 返回当前状态的拷贝
func (e *AttemptEngine) State() AttemptState {
	e.mu.Lock()
	defer e.mu.Unlock()

	state := AttemptState{
		AttemptID:            e.attempt.ID,
		QuizID:               e.quiz.ID,
		Status:               e.attempt.Status,
		StartedAt:            e.attempt.StartedAt,
		CurrentQuestionIndex: e.attempt.CurrentQuestionIndex,
		Answers:              e.snapshotAnswersLocked(),
	}
	if e.attempt.TimeLimitSeconds != nil {
		remaining := e.attempt.RemainingSeconds
		if remaining < 0 {
			remaining = 0
		}
		state.RemainingSeconds = &remaining
	}
	if e.attempt.Status.Terminal() {
		state.Result = e.result
	}
	return state
}

// Attempt 返回底层答题记录（落库用）
func (e *AttemptEngine) Attempt() *model.QuizAttempt {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.attempt
}

// Result 返回已计算的结果，未提交时为 nil
func (e *AttemptEngine) Result() *model.QuizResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.result
}

func (e *AttemptEngine) snapshotAnswersLocked() map[uint]interface{} {
	snapshot := make(map[uint]interface{}, len(e.answers))
	for k, v := range e.answers {
		snapshot[k] = v
	}
	return snapshot
}
