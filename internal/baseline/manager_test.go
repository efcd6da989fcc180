package baseline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hvac-crew/schedule/backend/internal/domain"
	"github.com/hvac-crew/schedule/backend/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testWeek = "2025-W36"

var sentAt = time.Date(2025, time.September, 2, 15, 4, 0, 0, time.UTC)

type failingStore struct {
	getErr error
	putErr error
}

func (s failingStore) GetBlob(context.Context, string, string) (*domain.Blob, error) {
	return nil, s.getErr
}

func (s failingStore) PutBlob(context.Context, *domain.Blob) error {
	return s.putErr
}

func TestResolveFirstNotification(t *testing.T) {
	m := NewManager(repository.NewMemoryStore(), nil)

	res := m.Resolve(context.Background(), testWeek)
	assert.True(t, res.First)
	assert.False(t, res.StoreUnavailable)
	assert.Nil(t, res.Snapshot)
}

func TestCommitThenResolve(t *testing.T) {
	ctx := context.Background()
	m := NewManager(repository.NewMemoryStore(), nil)

	current := domain.Snapshot{"Mon:01:job": domain.String("Install")}
	require.NoError(t, m.Commit(ctx, m.Resolve(ctx, testWeek), current, domain.BaselineMeta{Actor: "dana", SentAt: sentAt}))

	res := m.Resolve(ctx, testWeek)
	assert.False(t, res.First)
	assert.Equal(t, current, res.Snapshot)
	assert.Equal(t, "dana", res.Meta.Actor)
	assert.True(t, sentAt.Equal(res.Meta.SentAt))

	next := domain.Snapshot{"Mon:01:job": domain.String("Repair")}
	require.NoError(t, m.Commit(ctx, res, next, domain.BaselineMeta{Actor: "lee", SentAt: sentAt.Add(time.Hour)}))
	assert.Equal(t, next, m.Resolve(ctx, testWeek).Snapshot)
}

func TestResolveStoreUnavailable(t *testing.T) {
	tests := []struct {
		name  string
		store Store
	}{
		{"nil store", nil},
		{"store not configured", failingStore{getErr: repository.ErrStoreNotConfigured}},
		{"store error", failingStore{getErr: errors.New("connection refused")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := NewManager(tt.store, nil).Resolve(context.Background(), testWeek)
			assert.True(t, res.First)
			assert.True(t, res.StoreUnavailable)
		})
	}
}

func TestCommitStoreError(t *testing.T) {
	m := NewManager(failingStore{getErr: repository.ErrStoreNotConfigured, putErr: repository.ErrStoreNotConfigured}, nil)
	ctx := context.Background()

	err := m.Commit(ctx, m.Resolve(ctx, testWeek), domain.Snapshot{}, domain.BaselineMeta{})
	assert.ErrorIs(t, err, repository.ErrStoreNotConfigured)
}

// 两个通知读到同一个基线后先后提交：后提交者必须被识别为冲突，而不是静默覆盖
func TestConcurrentCommitIsDetected(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	m := NewManager(store, nil)

	seed := domain.Snapshot{"Mon:01:job": domain.String("Install")}
	require.NoError(t, m.Commit(ctx, m.Resolve(ctx, testWeek), seed, domain.BaselineMeta{Actor: "seed", SentAt: sentAt}))

	first := m.Resolve(ctx, testWeek)
	second := m.Resolve(ctx, testWeek)

	winner := domain.Snapshot{"Mon:01:job": domain.String("Repair")}
	require.NoError(t, m.Commit(ctx, first, winner, domain.BaselineMeta{Actor: "dana", SentAt: sentAt}))

	loser := domain.Snapshot{"Mon:01:job": domain.String("Inspect")}
	err := m.Commit(ctx, second, loser, domain.BaselineMeta{Actor: "lee", SentAt: sentAt})
	assert.ErrorIs(t, err, ErrEditConflict)

	assert.Equal(t, winner, m.Resolve(ctx, testWeek).Snapshot)
}

// 两个首次通知同时提交同样会冲突
func TestConcurrentFirstCommitIsDetected(t *testing.T) {
	ctx := context.Background()
	m := NewManager(repository.NewMemoryStore(), nil)

	first := m.Resolve(ctx, testWeek)
	second := m.Resolve(ctx, testWeek)

	require.NoError(t, m.Commit(ctx, first, domain.Snapshot{"a": domain.String("1")}, domain.BaselineMeta{}))
	assert.ErrorIs(t, m.Commit(ctx, second, domain.Snapshot{"a": domain.String("2")}, domain.BaselineMeta{}), ErrEditConflict)
}
