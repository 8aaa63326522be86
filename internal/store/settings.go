package store

import (
	"context"
	"fmt"

	"github.com/caryardhq/caryard/pkg/models"
)

func (s *PostgresStore) ListSettings(ctx context.Context, ownerUID string) ([]*models.Setting, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, owner_uid, key, value, updated_at FROM settings WHERE owner_uid = $1 ORDER BY key`, ownerUID)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	var out []*models.Setting
	for rows.Next() {
		var st models.Setting
		if err := rows.Scan(&st.ID, &st.OwnerUID, &st.Key, &st.Value, &st.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		out = append(out, &st)
	}
	return out, rows.Err()
}

// PutSetting writes a key for the owner, replacing any previous value.
func (s *PostgresStore) PutSetting(ctx context.Context, ownerUID, key, value string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO settings (owner_uid, key, value) VALUES ($1, $2, $3)
		 ON CONFLICT (owner_uid, key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
		ownerUID, key, value)
	if err != nil {
		return fmt.Errorf("put setting: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteSetting(ctx context.Context, ownerUID, key string) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM settings WHERE owner_uid = $1 AND key = $2`, ownerUID, key)
	if err != nil {
		return 0, fmt.Errorf("delete setting: %w", err)
	}
	return tag.RowsAffected(), nil
}
