package baseline

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hvac-crew/schedule/backend/internal/domain"
	"github.com/hvac-crew/schedule/backend/internal/repository"
	"go.uber.org/zap"
)

// ErrEditConflict 表示提交时发现基线已被其他通知推进
var ErrEditConflict = errors.New("baseline was advanced by another notification")

// Store 是基线管理所需的最小存储接口
type Store interface {
	GetBlob(ctx context.Context, namespace, key string) (*domain.Blob, error)
	PutBlob(ctx context.Context, blob *domain.Blob) error
}

// Resolution 是读取基线的结果
type Resolution struct {
	WeekKey  string
	Snapshot domain.Snapshot // 首次通知时为 nil
	Meta     domain.BaselineMeta
	// First 为 true 表示该周没有可用的历史基线（不存在或存储不可用）
	First bool
	// StoreUnavailable 表示读取时存储未配置或出错
	StoreUnavailable bool

	version int32
}

type Manager struct {
	store  Store
	logger *zap.Logger
}

func NewManager(store Store, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{store: store, logger: logger}
}

// Resolve 读取某周最近一次成功通知时的快照，从不返回错误：
// 没有记录或存储不可用时都按首次通知处理
func (m *Manager) Resolve(ctx context.Context, weekKey string) Resolution {
	res := Resolution{WeekKey: weekKey}
	if m.store == nil {
		res.First = true
		res.StoreUnavailable = true
		return res
	}

	blob, err := m.store.GetBlob(ctx, domain.NamespaceBaselines, weekKey)
	if err != nil {
		res.First = true
		switch {
		case errors.Is(err, sql.ErrNoRows):
			// 该周还没有发过通知
		case errors.Is(err, repository.ErrStoreNotConfigured):
			res.StoreUnavailable = true
			m.logger.Warn("存储未配置，按首次通知处理", zap.String("week", weekKey))
		default:
			res.StoreUnavailable = true
			m.logger.Warn("无法读取基线，按首次通知处理", zap.String("week", weekKey), zap.Error(err))
		}
		return res
	}

	res.Snapshot = blob.Data
	res.Meta = decodeMeta(blob.Metadata)
	res.version = blob.Version
	return res
}

// Commit 把 snapshot 写为新的基线。只能在邮件发送成功之后调用。
// 写入时检查读取时的版本，期间被其他通知推进过则返回 ErrEditConflict
func (m *Manager) Commit(ctx context.Context, res Resolution, snapshot domain.Snapshot, meta domain.BaselineMeta) error {
	if m.store == nil {
		return repository.ErrStoreNotConfigured
	}

	blob := &domain.Blob{
		Namespace: domain.NamespaceBaselines,
		Key:       res.WeekKey,
		Data:      snapshot,
		Metadata:  encodeMeta(meta),
		Version:   res.version,
	}

	if err := m.store.PutBlob(ctx, blob); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrEditConflict
		}
		return fmt.Errorf("commit baseline %s: %w", res.WeekKey, err)
	}
	return nil
}

func encodeMeta(meta domain.BaselineMeta) map[string]string {
	return map[string]string{
		"actor":  meta.Actor,
		"sentAt": meta.SentAt.UTC().Format(time.RFC3339),
	}
}

func decodeMeta(metadata map[string]string) domain.BaselineMeta {
	meta := domain.BaselineMeta{Actor: metadata["actor"]}
	if sentAt, err := time.Parse(time.RFC3339, metadata["sentAt"]); err == nil {
		meta.SentAt = sentAt
	}
	return meta
}
