package domain

import "time"

// Clock 是可注入的“当前时间”来源。
//
// 时间戳解析失败时的兜底值必须来自 Clock，而不是在管道中途直接读墙钟；
// 这样测试可以注入固定时钟，断言兜底行为是确定性的。
type Clock func() time.Time
