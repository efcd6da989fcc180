package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/hvac-crew/schedule/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorePutBlobVersions(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.GetBlob(ctx, domain.NamespaceBaselines, "2025-W36")
	require.ErrorIs(t, err, sql.ErrNoRows)

	first := &domain.Blob{Namespace: domain.NamespaceBaselines, Key: "2025-W36", Data: domain.Snapshot{"Mon:01:job": domain.String("Install")}}
	require.NoError(t, store.PutBlob(ctx, first))
	assert.Equal(t, int32(1), first.Version)

	// 再次以版本 0 写入视为冲突
	again := &domain.Blob{Namespace: domain.NamespaceBaselines, Key: "2025-W36"}
	require.ErrorIs(t, store.PutBlob(ctx, again), sql.ErrNoRows)

	loaded, err := store.GetBlob(ctx, domain.NamespaceBaselines, "2025-W36")
	require.NoError(t, err)
	loaded.Data = domain.Snapshot{"Mon:01:job": domain.String("Repair")}
	require.NoError(t, store.PutBlob(ctx, loaded))
	assert.Equal(t, int32(2), loaded.Version)

	stale := &domain.Blob{Namespace: domain.NamespaceBaselines, Key: "2025-W36", Version: 1}
	require.ErrorIs(t, store.PutBlob(ctx, stale), sql.ErrNoRows)
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	blob := &domain.Blob{Namespace: domain.NamespaceWeeks, Key: "2025-W36", Data: domain.Snapshot{"Mon:01:job": domain.String("Install")}}
	require.NoError(t, store.SaveBlob(ctx, blob))
	blob.Data["Mon:01:job"] = domain.String("Changed")

	loaded, err := store.GetBlob(ctx, domain.NamespaceWeeks, "2025-W36")
	require.NoError(t, err)
	assert.Equal(t, domain.String("Install"), loaded.Data["Mon:01:job"])
}

func TestMemoryStoreSaveAndList(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	for _, key := range []string{"2025-W37", "2025-W36"} {
		require.NoError(t, store.SaveBlob(ctx, &domain.Blob{Namespace: domain.NamespaceWeeks, Key: key}))
	}
	require.NoError(t, store.SaveBlob(ctx, &domain.Blob{Namespace: domain.NamespaceWeeks, Key: "2025-W36"}))

	keys, err := store.ListBlobKeys(ctx, domain.NamespaceWeeks)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-W36", "2025-W37"}, keys)

	blob, err := store.GetBlob(ctx, domain.NamespaceWeeks, "2025-W36")
	require.NoError(t, err)
	assert.Equal(t, int32(2), blob.Version)
}

func TestRepositoryWithoutDatabase(t *testing.T) {
	repo := NewRepository(nil, nil)
	ctx := context.Background()

	_, err := repo.GetBlob(ctx, domain.NamespaceWeeks, "2025-W36")
	assert.ErrorIs(t, err, ErrStoreNotConfigured)
	assert.ErrorIs(t, repo.SaveBlob(ctx, &domain.Blob{Namespace: domain.NamespaceWeeks, Key: "k"}), ErrStoreNotConfigured)
	assert.ErrorIs(t, repo.Ping(ctx), ErrStoreNotConfigured)
	_, err = repo.ListBlobKeys(ctx, domain.NamespaceWeeks)
	assert.ErrorIs(t, err, ErrStoreNotConfigured)
}
