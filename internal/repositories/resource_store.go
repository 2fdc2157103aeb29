package repositories

import (
	"sync"

	"github.com/bionicotaku/lingo-media-dashboard/internal/models/po"
)

// ResourceKey 唯一定位缓存中的一个资源。
type ResourceKey struct {
	Kind po.ResourceKind
	ID   string
}

// Listener 在更新被接受后同步收到最新快照。
type Listener[T any] func(key ResourceKey, value T)

type resourceEntry[T any] struct {
	value   T
	present bool
	// applied 为最近一次被接受写入的序号。
	applied uint64
	// issued 为已签发的最大序号，NextSequence 在此基础上递增。
	issued uint64
}

type subscription[T any] struct {
	id       uint64
	listener Listener[T]
}

// ResourceStore 是按 (kind, id) 索引的类型化资源缓存，进程内唯一数据来源。
//
// 写入按序号排序：序号小于已应用序号的写入被丢弃，避免慢响应把状态回退到旧快照。
// 所有写入经 writeMu 串行化，订阅者在写锁内按接受顺序同步收到通知；
// 订阅者可以调用 Get，但不能同步写入同一个 Store。
type ResourceStore[T any] struct {
	writeMu sync.Mutex

	mu      sync.RWMutex
	entries map[ResourceKey]*resourceEntry[T]
	subs    map[ResourceKey][]subscription[T]
	nextSub uint64
}

// NewResourceStore 创建空的 ResourceStore。
func NewResourceStore[T any]() *ResourceStore[T] {
	return &ResourceStore[T]{
		entries: make(map[ResourceKey]*resourceEntry[T]),
		subs:    make(map[ResourceKey][]subscription[T]),
	}
}

// Get 返回缓存的快照。
func (s *ResourceStore[T]) Get(kind po.ResourceKind, id string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[ResourceKey{Kind: kind, ID: id}]
	if !ok || !entry.present {
		var zero T
		return zero, false
	}
	return entry.value, true
}

// LastSequence 返回 (kind, id) 最近一次被接受写入的序号，未写入时为 0。
func (s *ResourceStore[T]) LastSequence(kind po.ResourceKind, id string) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if entry, ok := s.entries[ResourceKey{Kind: kind, ID: id}]; ok {
		return entry.applied
	}
	return 0
}

// NextSequence 为即将发出的请求签发序号。请求发出前取号，响应按取号顺序生效。
func (s *ResourceStore[T]) NextSequence(kind po.ResourceKind, id string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := s.entryLocked(ResourceKey{Kind: kind, ID: id})
	if entry.issued < entry.applied {
		entry.issued = entry.applied
	}
	entry.issued++
	return entry.issued
}

// Set 在 seq >= 已应用序号时整体替换快照并通知订阅者，返回是否被接受。
func (s *ResourceStore[T]) Set(kind po.ResourceKind, id string, value T, seq uint64) bool {
	key := ResourceKey{Kind: kind, ID: id}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	entry := s.entryLocked(key)
	if seq < entry.applied {
		s.mu.Unlock()
		return false
	}
	entry.value = value
	entry.present = true
	entry.applied = seq
	if entry.issued < seq {
		entry.issued = seq
	}
	listeners := append([]subscription[T](nil), s.subs[key]...)
	s.mu.Unlock()

	for _, sub := range listeners {
		sub.listener(key, value)
	}
	return true
}

// Subscribe 订阅 (kind, id) 的更新，返回取消订阅函数（可重复调用）。
func (s *ResourceStore[T]) Subscribe(kind po.ResourceKind, id string, listener Listener[T]) func() {
	if listener == nil {
		return func() {}
	}
	key := ResourceKey{Kind: kind, ID: id}

	s.mu.Lock()
	s.nextSub++
	subID := s.nextSub
	s.subs[key] = append(s.subs[key], subscription[T]{id: subID, listener: listener})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			current := s.subs[key]
			for i, sub := range current {
				if sub.id == subID {
					s.subs[key] = append(current[:i:i], current[i+1:]...)
					break
				}
			}
			if len(s.subs[key]) == 0 {
				delete(s.subs, key)
			}
		})
	}
}

// Reset 清空全部条目与订阅者，用于登出或会话销毁。
func (s *ResourceStore[T]) Reset() {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[ResourceKey]*resourceEntry[T])
	s.subs = make(map[ResourceKey][]subscription[T])
}

func (s *ResourceStore[T]) entryLocked(key ResourceKey) *resourceEntry[T] {
	entry, ok := s.entries[key]
	if !ok {
		entry = &resourceEntry[T]{}
		s.entries[key] = entry
	}
	return entry
}
