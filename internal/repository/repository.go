package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/hvac-crew/schedule/backend/internal/config"
	"github.com/hvac-crew/schedule/backend/internal/domain"
)

// ErrStoreNotConfigured 表示没有配置数据库，调用方应当降级处理而不是报错
var ErrStoreNotConfigured = errors.New("snapshot store not configured")

// BlobStore 是按命名空间划分的键值存储
type BlobStore interface {
	// GetBlob 在记录不存在时返回 sql.ErrNoRows
	GetBlob(ctx context.Context, namespace, key string) (*domain.Blob, error)
	// PutBlob 按 blob.Version 做乐观锁写入：Version 为 0 表示新建，版本不匹配时返回 sql.ErrNoRows
	PutBlob(ctx context.Context, blob *domain.Blob) error
	// SaveBlob 无条件覆盖写入
	SaveBlob(ctx context.Context, blob *domain.Blob) error
	ListBlobKeys(ctx context.Context, namespace string) ([]string, error)
	Ping(ctx context.Context) error
}

var (
	_ BlobStore = (*Repository)(nil)
	_ BlobStore = (*MemoryStore)(nil)
)

type Repository struct {
	cfg    *config.Config
	dbpool *sql.DB
}

// NewRepository 创建 repository，dbpool 为 nil 时所有操作返回 ErrStoreNotConfigured
func NewRepository(cfg *config.Config, dbpool *sql.DB) *Repository {
	return &Repository{
		cfg:    cfg,
		dbpool: dbpool,
	}
}

func (r *Repository) queryContext(ctx context.Context) (context.Context, context.CancelFunc, error) {
	if r.dbpool == nil {
		return nil, nil, ErrStoreNotConfigured
	}
	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	return ctx, cancel, nil
}

func (r *Repository) Ping(ctx context.Context) error {
	ctx, cancel, err := r.queryContext(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	return r.dbpool.PingContext(ctx)
}
