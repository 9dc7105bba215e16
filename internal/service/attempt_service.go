package service

import (
	"course_quiz_backend/internal/model"
	"course_quiz_backend/internal/repository"
	"course_quiz_backend/internal/util"
	"course_quiz_backend/pkg/logger"
	"course_quiz_backend/pkg/monitoring"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AttemptService 管理活动中的答题引擎并负责结果落库。
// 每个引擎独占自己的计时器；服务只做注册表和持久化编排。
type AttemptService struct {
	QuizRepo    *repository.QuizRepository
	AttemptRepo *repository.AttemptRepository
	Autosave    *AutosaveService

	mu      sync.Mutex
	engines map[string]*engineEntry // attemptID -> entry
	active  map[string]string       // "userID:quizID" -> attemptID
}

type engineEntry struct {
	engine    *AttemptEngine
	userID    uint
	quizID    uint
	persisted bool
}

func NewAttemptService(quizRepo *repository.QuizRepository, attemptRepo *repository.AttemptRepository, autosave *AutosaveService) *AttemptService {
	return &AttemptService{
		QuizRepo:    quizRepo,
		AttemptRepo: attemptRepo,
		Autosave:    autosave,
		engines:     make(map[string]*engineEntry),
		active:      make(map[string]string),
	}
}

// StudentQuestion 学生侧的题目视图，绝不携带正确答案槽位
type StudentQuestion struct {
	ID            uint               `json:"id"`
	QuestionType  model.QuestionType `json:"questionType"`
	Prompt        string             `json:"prompt"`
	Points        int                `json:"points"`
	Difficulty    model.Difficulty   `json:"difficulty"`
	Order         int                `json:"order"`
	ImageURL      string             `json:"imageUrl,omitempty"`
	Options       []string           `json:"options,omitempty"`
	LeftItems     []model.MatchItem  `json:"leftItems,omitempty"`
	RightItems    []model.MatchItem  `json:"rightItems,omitempty"`
	Items         []model.MatchItem  `json:"items,omitempty"`
	Shuffle       bool               `json:"shuffle"`
	CaseSensitive bool               `json:"caseSensitive"`
	PartialCredit bool               `json:"partialCredit"`
	MinWords      int                `json:"minWords,omitempty"`
	MaxWords      int                `json:"maxWords,omitempty"`
}

func studentView(qs []model.Question) []StudentQuestion {
	out := make([]StudentQuestion, len(qs))
	for i := range qs {
		q := &qs[i]
		left, right := q.MatchColumns()
		out[i] = StudentQuestion{
			ID:            q.ID,
			QuestionType:  q.QuestionType,
			Prompt:        q.Prompt,
			Points:        q.Points,
			Difficulty:    q.Difficulty,
			Order:         q.Order,
			ImageURL:      q.ImageURL,
			Options:       q.OptionList(),
			LeftItems:     left,
			RightItems:    right,
			Items:         q.OrderItems(),
			Shuffle:       q.Shuffle,
			CaseSensitive: q.CaseSensitive,
			PartialCredit: q.PartialCredit,
			MinWords:      q.MinWords,
			MaxWords:      q.MaxWords,
		}
	}
	return out
}

// StartedAttempt start 接口的响应载荷
type StartedAttempt struct {
	State     AttemptState      `json:"state"`
	Questions []StudentQuestion `json:"questions"`
}

func activeKey(userID, quizID uint) string {
	return fmt.Sprintf("%d:%d", userID, quizID)
}

// StartAttempt 开始（或恢复）一次答题。
// 同一 (user, quiz) 已有进行中的引擎时直接返回其状态，覆盖页面
// 刷新场景；进程重启后遗留的 in_progress 记录会被接管并从自动
// 保存条目恢复答案。
func (s *AttemptService) StartAttempt(userID, quizID uint) (*StartedAttempt, error) {
	quiz, err := s.QuizRepo.FindQuizByID(quizID)
	if err != nil {
		return nil, util.ErrQuizNotFound
	}
	if !quiz.IsPublished {
		return nil, util.ErrQuizNotPublished
	}

	questions, err := s.QuizRepo.ListQuestions(quizID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if attemptID, ok := s.active[activeKey(userID, quizID)]; ok {
		if entry, ok := s.engines[attemptID]; ok {
			state := entry.engine.State()
			if state.Status == model.AttemptInProgress {
				s.mu.Unlock()
				return &StartedAttempt{State: state, Questions: studentView(questions)}, nil
			}
		}
	}
	s.mu.Unlock()

	engine := NewAttemptEngine(quiz, questions, userID, s.Autosave)
	engine.SetOnExpire(func(attempt *model.QuizAttempt, result *model.QuizResult) {
		s.persistTerminal(attempt, result)
		monitoring.AttemptCounter.WithLabelValues("expired").Inc()
	})

	// 进程重启后遗留的进行中记录：接管而不是丢弃
	if stale, err := s.AttemptRepo.FindActive(userID, quizID); err == nil {
		if err := engine.Resume(stale); err == nil {
			if saved, ok := s.Autosave.Load(userID, quizID); ok {
				engine.Restore(saved)
			}
			s.register(engine, userID, quizID, stale.ID)
			return &StartedAttempt{State: engine.State(), Questions: studentView(questions)}, nil
		}
	}

	attempt, err := engine.Start()
	if err != nil {
		return nil, err
	}
	if err := s.AttemptRepo.Create(attempt); err != nil {
		engine.Close()
		return nil, err
	}

	s.register(engine, userID, quizID, attempt.ID)
	monitoring.AttemptCounter.WithLabelValues("started").Inc()

	return &StartedAttempt{State: engine.State(), Questions: studentView(questions)}, nil
}

func (s *AttemptService) register(engine *AttemptEngine, userID, quizID uint, attemptID string) {
	s.mu.Lock()
	s.engines[attemptID] = &engineEntry{engine: engine, userID: userID, quizID: quizID}
	s.active[activeKey(userID, quizID)] = attemptID
	s.mu.Unlock()
}

func (s *AttemptService) entry(userID uint, attemptID string) (*engineEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.engines[attemptID]
	if !ok {
		return nil, util.ErrAttemptNotFound
	}
	if entry.userID != userID {
		return nil, util.ErrPermissionDenied
	}
	return entry, nil
}

// GetState 返回答题快照。活动引擎不存在时回退到数据库里的
// 已终结记录。
func (s *AttemptService) GetState(userID uint, attemptID string) (*AttemptState, error) {
	if entry, err := s.entry(userID, attemptID); err == nil {
		state := entry.engine.State()
		return &state, nil
	}

	attempt, err := s.AttemptRepo.FindByID(attemptID)
	if err != nil {
		return nil, util.ErrAttemptNotFound
	}
	if attempt.UserID != userID {
		return nil, util.ErrPermissionDenied
	}

	state := &AttemptState{
		AttemptID:            attempt.ID,
		QuizID:               attempt.QuizID,
		Status:               attempt.Status,
		StartedAt:            attempt.StartedAt,
		CurrentQuestionIndex: attempt.CurrentQuestionIndex,
		Answers:              map[uint]interface{}{},
	}
	if attempt.AnswersJSON != "" {
		if err := json.Unmarshal([]byte(attempt.AnswersJSON), &state.Answers); err != nil {
			logger.Log.Warn("malformed answers snapshot", zap.String("attemptId", attemptID), zap.Error(err))
		}
	}
	if result, err := s.AttemptRepo.FindResultByAttempt(attemptID); err == nil {
		state.Result = result
	}
	return state, nil
}

// SubmitAnswer 记录一题作答；生命周期之外的写入由引擎静默忽略
func (s *AttemptService) SubmitAnswer(userID uint, attemptID string, questionID uint, value interface{}) error {
	entry, err := s.entry(userID, attemptID)
	if err != nil {
		return err
	}
	entry.engine.Answer(questionID, value)
	return nil
}

// Navigate 移动当前题目游标
func (s *AttemptService) Navigate(userID uint, attemptID string, index int) error {
	entry, err := s.entry(userID, attemptID)
	if err != nil {
		return err
	}
	entry.engine.Navigate(index)
	return nil
}

// Submit 手动交卷。评分只发生一次；结果落库失败时评分结果保留
// 在内存中并返回 ErrResultPersistFailed，调用方可用 RetryPersist
// 重试持久化而不会触发二次评分。
func (s *AttemptService) Submit(userID uint, attemptID string) (*model.QuizResult, error) {
	entry, err := s.entry(userID, attemptID)
	if err != nil {
		return nil, err
	}

	result, err := entry.engine.Submit(SubmitManual)
	if err != nil {
		return nil, err
	}
	monitoring.AttemptCounter.WithLabelValues("submitted").Inc()

	if err := s.persistTerminal(entry.engine.Attempt(), result); err != nil {
		return result, util.ErrResultPersistFailed
	}
	return result, nil
}

// RetryPersist 重试结果落库，不重新评分
func (s *AttemptService) RetryPersist(userID uint, attemptID string) (*model.QuizResult, error) {
	entry, err := s.entry(userID, attemptID)
	if err != nil {
		return nil, err
	}
	result := entry.engine.Result()
	if result == nil {
		return nil, util.ErrAttemptNotActive
	}
	if err := s.persistTerminal(entry.engine.Attempt(), result); err != nil {
		return result, util.ErrResultPersistFailed
	}
	return result, nil
}

// persistTerminal 把终态答题和评分结果写入数据库，幂等。
func (s *AttemptService) persistTerminal(attempt *model.QuizAttempt, result *model.QuizResult) error {
	s.mu.Lock()
	entry, ok := s.engines[attempt.ID]
	if ok && entry.persisted {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	if raw, err := json.Marshal(result.AnswersSnapshot()); err == nil {
		attempt.AnswersJSON = string(raw)
	}
	now := time.Now()
	attempt.LastPersistedAt = &now

	if err := s.AttemptRepo.SaveResult(attempt, result); err != nil {
		logger.Log.Error("failed to persist attempt result",
			zap.String("attemptId", attempt.ID),
			zap.Error(err),
		)
		return err
	}

	s.mu.Lock()
	if entry, ok := s.engines[attempt.ID]; ok {
		entry.persisted = true
	}
	s.mu.Unlock()
	return nil
}

// Abandon 显式放弃答题；记录落库为 abandoned，引擎注销
func (s *AttemptService) Abandon(userID uint, attemptID string) error {
	entry, err := s.entry(userID, attemptID)
	if err != nil {
		return err
	}

	abandoned := entry.engine.Abandon()
	monitoring.AttemptCounter.WithLabelValues("abandoned").Inc()

	s.mu.Lock()
	delete(s.engines, attemptID)
	delete(s.active, activeKey(entry.userID, entry.quizID))
	s.mu.Unlock()

	if abandoned.Status == model.AttemptAbandoned {
		if err := s.AttemptRepo.Update(abandoned); err != nil && err != gorm.ErrRecordNotFound {
			logger.Log.Warn("failed to persist abandoned attempt",
				zap.String("attemptId", abandoned.ID),
				zap.Error(err),
			)
		}
	}
	return nil
}

// History 学生答题历史
func (s *AttemptService) History(userID uint, page, limit int) ([]repository.AttemptHistoryRow, int64, error) {
	return s.AttemptRepo.ListByUser(userID, page, limit)
}

// Submissions 教师侧某试卷的全部提交
func (s *AttemptService) Submissions(quizID uint, page, limit int, studentName string) ([]repository.QuizSubmissionRow, int64, error) {
	return s.AttemptRepo.ListByQuiz(quizID, page, limit, studentName)
}

// Shutdown 进程退出时回收所有活动引擎：停计时器、冲刷自动保存
func (s *AttemptService) Shutdown() {
	s.mu.Lock()
	entries := make([]*engineEntry, 0, len(s.engines))
	for _, entry := range s.engines {
		entries = append(entries, entry)
	}
	s.mu.Unlock()

	for _, entry := range entries {
		entry.engine.Close()
	}
}
