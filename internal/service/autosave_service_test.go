package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// memStore answerStore 的内存替身
type memStore struct {
	mu      sync.Mutex
	data    map[string]string
	sets    int
	failSet bool
	failGet bool
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string]string)}
}

func (s *memStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failGet {
		return "", errors.New("store down")
	}
	val, ok := s.data[key]
	if !ok {
		return "", errEntryMissing
	}
	return val, nil
}

func (s *memStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSet {
		return errors.New("store down")
	}
	s.data[key] = value
	s.sets++
	return nil
}

func (s *memStore) Del(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

func (s *memStore) setCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sets
}

func TestAutosaveDebounceCoalesces(t *testing.T) {
	store := newMemStore()
	svc := newAutosaveService(store, 20*time.Millisecond, time.Hour)

	// 防抖窗口内的连续写入只产生一次存储写
	for i := 0; i < 5; i++ {
		svc.Schedule(1, 10, SavedAnswers{
			AttemptID: "a1",
			Answers:   map[uint]interface{}{1: i},
		})
	}

	time.Sleep(100 * time.Millisecond)
	if got := store.setCount(); got != 1 {
		t.Errorf("store writes = %d, want 1", got)
	}

	// 写出的是最后一份快照
	saved, ok := svc.Load(1, 10)
	if !ok {
		t.Fatal("expected saved entry")
	}
	if got := saved.Answers[1]; got != float64(4) {
		t.Errorf("answers[1] = %v, want 4 (last snapshot wins)", got)
	}
}

func TestAutosaveFlushWritesImmediately(t *testing.T) {
	store := newMemStore()
	svc := newAutosaveService(store, time.Hour, time.Hour) // 防抖窗口长到不会自己触发

	svc.Schedule(1, 10, SavedAnswers{AttemptID: "a1", Answers: map[uint]interface{}{1: true}})
	svc.Flush(1, 10)

	if got := store.setCount(); got != 1 {
		t.Errorf("store writes = %d, want 1 after flush", got)
	}
	// 没有挂起内容时 Flush 是 no-op
	svc.Flush(1, 10)
	if got := store.setCount(); got != 1 {
		t.Errorf("store writes = %d, flush without pending should not write", got)
	}
}

func TestAutosaveLoadEvictsStale(t *testing.T) {
	store := newMemStore()
	svc := newAutosaveService(store, time.Millisecond, time.Hour)

	svc.Schedule(1, 10, SavedAnswers{AttemptID: "a1", Answers: map[uint]interface{}{1: true}})
	svc.Flush(1, 10)

	// 把时钟拨到新鲜期之后
	svc.now = func() time.Time { return time.Now().Add(25 * time.Hour) }

	if _, ok := svc.Load(1, 10); ok {
		t.Error("stale entry must be discarded")
	}
	// 过期条目被当场删除
	if _, err := store.Get(context.Background(), autosaveKey(1, 10)); !errors.Is(err, errEntryMissing) {
		t.Error("stale entry should be deleted from the store")
	}
}

func TestAutosaveLoadDiscardsCorrupt(t *testing.T) {
	store := newMemStore()
	store.data[autosaveKey(1, 10)] = "{definitely not json"
	svc := newAutosaveService(store, time.Millisecond, time.Hour)

	if _, ok := svc.Load(1, 10); ok {
		t.Error("corrupt entry must not be returned")
	}
	if _, err := store.Get(context.Background(), autosaveKey(1, 10)); !errors.Is(err, errEntryMissing) {
		t.Error("corrupt entry should be deleted")
	}
}

// 存储故障把该 key 的自动保存降级为 no-op，绝不打断答题
func TestAutosaveFailureDisablesKey(t *testing.T) {
	store := newMemStore()
	store.failSet = true
	svc := newAutosaveService(store, time.Millisecond, time.Hour)

	svc.Schedule(1, 10, SavedAnswers{AttemptID: "a1", Answers: map[uint]interface{}{1: true}})
	svc.Flush(1, 10)

	svc.mu.Lock()
	disabled := svc.disabled[autosaveKey(1, 10)]
	svc.mu.Unlock()
	if !disabled {
		t.Fatal("key should be disabled after a store failure")
	}

	// 降级后的 Schedule 不再排队
	svc.Schedule(1, 10, SavedAnswers{AttemptID: "a1"})
	svc.mu.Lock()
	pending := len(svc.pending)
	svc.mu.Unlock()
	if pending != 0 {
		t.Error("disabled key should not queue new saves")
	}

	// 其他 key 不受影响
	store.mu.Lock()
	store.failSet = false
	store.mu.Unlock()
	svc.Schedule(2, 10, SavedAnswers{AttemptID: "a2", Answers: map[uint]interface{}{1: true}})
	svc.Flush(2, 10)
	if got := store.setCount(); got != 1 {
		t.Errorf("unaffected key writes = %d, want 1", got)
	}

	// Invalidate 重新启用该 key（新答题重新拿到自动保存）
	svc.Invalidate(1, 10)
	svc.Schedule(1, 10, SavedAnswers{AttemptID: "a3", Answers: map[uint]interface{}{1: true}})
	svc.Flush(1, 10)
	if got := store.setCount(); got != 2 {
		t.Errorf("writes after re-enable = %d, want 2", got)
	}
}

func TestAutosaveInvalidateCancelsPending(t *testing.T) {
	store := newMemStore()
	svc := newAutosaveService(store, time.Hour, time.Hour)

	svc.Schedule(1, 10, SavedAnswers{AttemptID: "a1", Answers: map[uint]interface{}{1: true}})
	svc.Invalidate(1, 10)

	if got := store.setCount(); got != 0 {
		t.Errorf("invalidated pending save still wrote: %d", got)
	}
	if _, ok := svc.Load(1, 10); ok {
		t.Error("entry should be gone after invalidate")
	}
}
