package repositories

import "sync"

// ProgressUpdate 为进度订阅者收到的事件；Cleared 为 true 表示条目已移除。
type ProgressUpdate struct {
	ID      string
	Percent int
	Cleared bool
}

// ProgressListener 接收进度事件。
type ProgressListener func(update ProgressUpdate)

// ProgressSink 是上传编排使用的单方法事件接收器。
type ProgressSink interface {
	OnProgress(percent int)
}

// ProgressSinkFunc 适配普通函数为 ProgressSink。
type ProgressSinkFunc func(percent int)

// OnProgress 实现 ProgressSink。
func (f ProgressSinkFunc) OnProgress(percent int) {
	if f != nil {
		f(percent)
	}
}

type progressSubscription struct {
	id       uint64
	listener ProgressListener
}

// ProgressChannel 是进程内的对象上传进度发布/订阅注册表。
//
// 与 ResourceStore 分离：进度按字节流节奏高频触发，不能引起资源级刷新，也不代表服务端权威状态。
// 单次上传会话内百分比单调不减；Begin 开始新会话并归零，Clear 在会话结束时移除条目。
type ProgressChannel struct {
	writeMu sync.Mutex

	mu      sync.RWMutex
	values  map[string]int
	subs    map[string][]progressSubscription
	nextSub uint64
}

// NewProgressChannel 创建空的 ProgressChannel。
func NewProgressChannel() *ProgressChannel {
	return &ProgressChannel{
		values: make(map[string]int),
		subs:   make(map[string][]progressSubscription),
	}
}

// Get 返回当前进度；条目不存在时 ok 为 false（而非 0）。
func (c *ProgressChannel) Get(id string) (int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	value, ok := c.values[id]
	return value, ok
}

// Begin 开始新的上传会话，进度重置为 0。
func (c *ProgressChannel) Begin(id string) {
	c.publish(id, func(_ int, _ bool) (int, bool, bool) {
		return 0, true, true
	})
}

// Set 写入进度：截断到 [0,100]，会话内小于当前值的写入被忽略。
// 若尚无会话则以该值隐式开始。
func (c *ProgressChannel) Set(id string, percent int) {
	percent = clampPercent(percent)
	c.publish(id, func(current int, exists bool) (int, bool, bool) {
		if exists && percent <= current {
			return current, true, false
		}
		return percent, true, true
	})
}

// Clear 结束上传会话并移除条目。
func (c *ProgressChannel) Clear(id string) {
	c.publish(id, func(_ int, exists bool) (int, bool, bool) {
		return 0, false, exists
	})
}

// Sink 返回写入指定对象进度的 ProgressSink。
func (c *ProgressChannel) Sink(id string) ProgressSink {
	return ProgressSinkFunc(func(percent int) {
		c.Set(id, percent)
	})
}

// Subscribe 订阅指定对象的进度事件，返回取消订阅函数。
func (c *ProgressChannel) Subscribe(id string, listener ProgressListener) func() {
	if listener == nil {
		return func() {}
	}
	c.mu.Lock()
	c.nextSub++
	subID := c.nextSub
	c.subs[id] = append(c.subs[id], progressSubscription{id: subID, listener: listener})
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			current := c.subs[id]
			for i, sub := range current {
				if sub.id == subID {
					c.subs[id] = append(current[:i:i], current[i+1:]...)
					break
				}
			}
			if len(c.subs[id]) == 0 {
				delete(c.subs, id)
			}
		})
	}
}

// Reset 清空所有条目与订阅者。
func (c *ProgressChannel) Reset() {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values = make(map[string]int)
	c.subs = make(map[string][]progressSubscription)
}

// publish 在写锁内计算新值；mutate 返回 (新值, 是否保留条目, 是否通知)。
func (c *ProgressChannel) publish(id string, mutate func(current int, exists bool) (int, bool, bool)) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.mu.Lock()
	current, exists := c.values[id]
	next, keep, notify := mutate(current, exists)
	if keep {
		c.values[id] = next
	} else {
		delete(c.values, id)
	}
	var listeners []progressSubscription
	if notify {
		listeners = append(listeners, c.subs[id]...)
	}
	c.mu.Unlock()

	update := ProgressUpdate{ID: id, Percent: next, Cleared: !keep}
	for _, sub := range listeners {
		sub.listener(update)
	}
}

func clampPercent(percent int) int {
	switch {
	case percent < 0:
		return 0
	case percent > 100:
		return 100
	default:
		return percent
	}
}
