package repository

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/hvac-crew/schedule/backend/internal/domain"
)

// MemoryStore 是 BlobStore 的内存实现，用于测试和未配置数据库的开发环境
type MemoryStore struct {
	mu    sync.Mutex
	blobs map[string]map[string]domain.Blob
	clock func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		blobs: make(map[string]map[string]domain.Blob),
		clock: time.Now,
	}
}

func (s *MemoryStore) GetBlob(_ context.Context, namespace, key string) (*domain.Blob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	blob, ok := s.blobs[namespace][key]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return copyBlob(blob), nil
}

func (s *MemoryStore) PutBlob(_ context.Context, blob *domain.Blob) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.blobs[blob.Namespace][blob.Key]
	switch {
	case blob.Version == 0 && ok:
		return sql.ErrNoRows
	case blob.Version != 0 && (!ok || existing.Version != blob.Version):
		return sql.ErrNoRows
	}

	s.store(blob, existing.Version+1)
	return nil
}

func (s *MemoryStore) SaveBlob(_ context.Context, blob *domain.Blob) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.blobs[blob.Namespace][blob.Key]
	s.store(blob, existing.Version+1)
	return nil
}

func (s *MemoryStore) ListBlobKeys(_ context.Context, namespace string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := []string{}
	for key := range s.blobs[namespace] {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

// 调用方需持有锁
func (s *MemoryStore) store(blob *domain.Blob, version int32) {
	if s.blobs[blob.Namespace] == nil {
		s.blobs[blob.Namespace] = make(map[string]domain.Blob)
	}
	blob.Version = version
	blob.UpdatedAt = s.clock()
	s.blobs[blob.Namespace][blob.Key] = *copyBlob(*blob)
}

func copyBlob(blob domain.Blob) *domain.Blob {
	out := blob
	out.Data = blob.Data.Clone()
	if blob.Metadata != nil {
		out.Metadata = make(map[string]string, len(blob.Metadata))
		for k, v := range blob.Metadata {
			out.Metadata[k] = v
		}
	}
	return &out
}
