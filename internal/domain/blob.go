package domain

import "time"

const (
	NamespaceWeeks      = "weeks"
	NamespacePersistent = "persistent"
	NamespaceBaselines  = "baselines"

	PersistentSettingsKey = "v1"
)

// Blob 是键值存储中的一条记录，Version 用于乐观锁
type Blob struct {
	Namespace string            `json:"namespace"`
	Key       string            `json:"key"`
	Data      Snapshot          `json:"data"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	UpdatedAt time.Time         `json:"updatedAt"`
	Version   int32             `json:"-"`
}
