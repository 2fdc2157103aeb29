package polling

// State 为轮询会话的状态。Terminal、Cancelled、Failed 为吸收态。
type State int32

const (
	StateIdle State = iota
	StateScheduled
	StateFetching
	StateTerminal
	StateCancelled
	StateFailed
)

// String 返回状态名称，用于日志与 CLI 输出。
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateScheduled:
		return "scheduled"
	case StateFetching:
		return "fetching"
	case StateTerminal:
		return "terminal"
	case StateCancelled:
		return "cancelled"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// IsFinal 判断状态是否为吸收态。
func (s State) IsFinal() bool {
	return s == StateTerminal || s == StateCancelled || s == StateFailed
}
