package repository

import (
	"context"
	"encoding/json"

	"github.com/hvac-crew/schedule/backend/internal/domain"
)

func (r *Repository) GetBlob(ctx context.Context, namespace, key string) (*domain.Blob, error) {
	query := `
		SELECT data, metadata, updated_at, version
		FROM blobs
		WHERE namespace = $1 AND key = $2
	`

	ctx, cancel, err := r.queryContext(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	blob := &domain.Blob{
		Namespace: namespace,
		Key:       key,
	}

	var data, metadata []byte
	dst := []any{&data, &metadata, &blob.UpdatedAt, &blob.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, namespace, key).Scan(dst...); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(data, &blob.Data); err != nil {
		return nil, err
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &blob.Metadata); err != nil {
			return nil, err
		}
	}

	return blob, nil
}

func (r *Repository) PutBlob(ctx context.Context, blob *domain.Blob) error {
	data, metadata, err := encodeBlob(blob)
	if err != nil {
		return err
	}

	ctx, cancel, err := r.queryContext(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	if blob.Version == 0 {
		// 记录已存在时不插入也不返回行，QueryRow 会得到 sql.ErrNoRows
		query := `
			INSERT INTO blobs (namespace, key, data, metadata)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (namespace, key) DO NOTHING
			RETURNING updated_at, version
		`
		params := []any{blob.Namespace, blob.Key, data, metadata}
		return r.dbpool.QueryRowContext(ctx, query, params...).Scan(&blob.UpdatedAt, &blob.Version)
	}

	query := `
		UPDATE blobs
		SET
			data = $1,
			metadata = $2,
			updated_at = NOW(),
			version = version + 1
		WHERE namespace = $3 AND key = $4 AND version = $5
		RETURNING updated_at, version
	`
	params := []any{data, metadata, blob.Namespace, blob.Key, blob.Version}
	return r.dbpool.QueryRowContext(ctx, query, params...).Scan(&blob.UpdatedAt, &blob.Version)
}

func (r *Repository) SaveBlob(ctx context.Context, blob *domain.Blob) error {
	query := `
		INSERT INTO blobs (namespace, key, data, metadata)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (namespace, key) DO UPDATE
		SET
			data = EXCLUDED.data,
			metadata = EXCLUDED.metadata,
			updated_at = NOW(),
			version = blobs.version + 1
		RETURNING updated_at, version
	`

	data, metadata, err := encodeBlob(blob)
	if err != nil {
		return err
	}

	ctx, cancel, err := r.queryContext(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	params := []any{blob.Namespace, blob.Key, data, metadata}
	return r.dbpool.QueryRowContext(ctx, query, params...).Scan(&blob.UpdatedAt, &blob.Version)
}

func (r *Repository) ListBlobKeys(ctx context.Context, namespace string) ([]string, error) {
	query := `
		SELECT key FROM blobs WHERE namespace = $1 ORDER BY key
	`

	ctx, cancel, err := r.queryContext(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, namespace)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return keys, nil
}

// jsonb 参数以字符串形式传入
func encodeBlob(blob *domain.Blob) (string, string, error) {
	snapshot := blob.Data
	if snapshot == nil {
		snapshot = domain.Snapshot{}
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return "", "", err
	}

	metadata := blob.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}
	meta, err := json.Marshal(metadata)
	if err != nil {
		return "", "", err
	}

	return string(data), string(meta), nil
}
