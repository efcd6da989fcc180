package domain

import "time"

// UnknownActor 是无法确认发送者身份时使用的占位名
const UnknownActor = "unknown"

// Credentials 是请求中携带的身份凭证，均可能为空
type Credentials struct {
	SessionToken  string
	BasicUsername string
	BasicPassword string
	HasBasicAuth  bool
}

type NotifyRequest struct {
	WeekKey     string
	Recipients  []string
	Note        string
	Current     Snapshot          // 为 nil 时从 weeks 存储中读取
	CrewNames   map[string]string // 两位行号 -> 显示名，覆盖从设置中推导的结果
	Actor       string            // 客户端声称的发送者，仅用于日志
	Credentials Credentials
}

type NotifyResult struct {
	OK                bool   `json:"ok"`
	Sent              int    `json:"sent"`
	Changes           int    `json:"changes"`
	FirstNotification bool   `json:"firstNotification"`
	BaselineCommitted bool   `json:"baselineCommitted"`
	NotificationID    string `json:"notificationId,omitempty"`
	Error             string `json:"error,omitempty"`
}

// BaselineMeta 记录基线是由谁、在什么时候发送的通知所确立的
type BaselineMeta struct {
	Actor  string
	SentAt time.Time
}
