package repositories

import "github.com/google/wire"

// ProviderSet 暴露进程级缓存（资源缓存与进度通道）的构造函数供 Wire 依赖注入使用。
var ProviderSet = wire.NewSet(
	NewStoreRegistry,
	NewProgressChannel,
)
