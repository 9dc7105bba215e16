package service

import (
	"context"
	"course_quiz_backend/pkg/logger"
	"course_quiz_backend/pkg/monitoring"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// SavedAnswers 自动保存的载荷
type SavedAnswers struct {
	AttemptID string               `json:"attemptId"`
	Answers   map[uint]interface{} `json:"answers"`
	SavedAt   time.Time            `json:"savedAt"`
}

var errEntryMissing = errors.New("autosave entry missing")

// answerStore 自动保存的底层存储。生产环境由 redis 实现，
// 测试用内存 map 替身。
type answerStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

type redisAnswerStore struct {
	rdb *redis.Client
}

func (s *redisAnswerStore) Get(ctx context.Context, key string) (string, error) {
	val, err := s.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", errEntryMissing
	}
	return val, err
}

func (s *redisAnswerStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.rdb.Set(ctx, key, value, ttl).Err()
}

func (s *redisAnswerStore) Del(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}

type pendingSave struct {
	timer   *time.Timer
	payload SavedAnswers
}

// AutosaveService 答题过程中的尽力而为持久化。写入按 key 防抖合并，
// 任何存储故障只记日志并对该条 key 停用自动保存，绝不影响答题。
type AutosaveService struct {
	store    answerStore
	debounce time.Duration
	ttl      time.Duration // 新鲜期，超过即视为过期条目
	now      func() time.Time

	mu       sync.Mutex
	pending  map[string]*pendingSave
	disabled map[string]bool // 存储故障后对该 key 降级为 no-op
}

func NewAutosaveService(rdb *redis.Client, debounce, ttl time.Duration) *AutosaveService {
	return newAutosaveService(&redisAnswerStore{rdb: rdb}, debounce, ttl)
}

func newAutosaveService(store answerStore, debounce, ttl time.Duration) *AutosaveService {
	return &AutosaveService{
		store:    store,
		debounce: debounce,
		ttl:      ttl,
		now:      time.Now,
		pending:  make(map[string]*pendingSave),
		disabled: make(map[string]bool),
	}
}

func autosaveKey(userID, quizID uint) string {
	return fmt.Sprintf("autosave:%d:%d:answers", userID, quizID)
}

// Schedule 记录一次待写入的答案快照。同一 key 在防抖窗口内的
// 多次调用只产生一次写入，写入的是最后一份快照。
func (s *AutosaveService) Schedule(userID, quizID uint, payload SavedAnswers) {
	key := autosaveKey(userID, quizID)
	payload.SavedAt = s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disabled[key] {
		return
	}

	if p, ok := s.pending[key]; ok {
		p.payload = payload
		return
	}

	p := &pendingSave{payload: payload}
	p.timer = time.AfterFunc(s.debounce, func() {
		s.flushKey(key)
	})
	s.pending[key] = p
}

// Flush 立即写出挂起的快照，用于答题界面销毁时收尾。
func (s *AutosaveService) Flush(userID, quizID uint) {
	s.flushKey(autosaveKey(userID, quizID))
}

func (s *AutosaveService) flushKey(key string) {
	s.mu.Lock()
	p, ok := s.pending[key]
	if ok {
		p.timer.Stop()
		delete(s.pending, key)
	}
	s.mu.Unlock()

	if !ok {
		return
	}

	raw, err := json.Marshal(p.payload)
	if err != nil {
		s.fail(key, "marshal autosave payload", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := s.store.Set(ctx, key, string(raw), s.ttl); err != nil {
		s.fail(key, "write autosave entry", err)
	}
}

// Load 读取某个 quiz 的保存条目。过期或损坏的条目当场丢弃，
// 返回 (nil, false)；新条目原样返回，由调用方决定是否恢复。
func (s *AutosaveService) Load(userID, quizID uint) (*SavedAnswers, bool) {
	key := autosaveKey(userID, quizID)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	raw, err := s.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, errEntryMissing) {
			s.fail(key, "read autosave entry", err)
		}
		return nil, false
	}

	var saved SavedAnswers
	if err := json.Unmarshal([]byte(raw), &saved); err != nil {
		// 损坏的载荷直接丢弃，答题继续
		if logger.Log != nil {
			logger.Log.Warn("discarding corrupt autosave entry", zap.String("key", key), zap.Error(err))
		}
		s.deleteKey(key)
		return nil, false
	}

	if s.now().Sub(saved.SavedAt) > s.ttl {
		s.deleteKey(key)
		return nil, false
	}

	return &saved, true
}

// Invalidate 取消挂起的写入并删除已存条目（提交、放弃或开新答题时调用）。
func (s *AutosaveService) Invalidate(userID, quizID uint) {
	key := autosaveKey(userID, quizID)

	s.mu.Lock()
	if p, ok := s.pending[key]; ok {
		p.timer.Stop()
		delete(s.pending, key)
	}
	delete(s.disabled, key)
	s.mu.Unlock()

	s.deleteKey(key)
}

func (s *AutosaveService) deleteKey(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := s.store.Del(ctx, key); err != nil {
		s.fail(key, "delete autosave entry", err)
	}
}

func (s *AutosaveService) fail(key, op string, err error) {
	monitoring.AutosaveFailures.Inc()
	if logger.Log != nil {
		logger.Log.Warn("autosave degraded to no-op",
			zap.String("op", op),
			zap.String("key", key),
			zap.Error(err),
		)
	}
	s.mu.Lock()
	s.disabled[key] = true
	s.mu.Unlock()
}
