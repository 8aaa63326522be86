package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/caryardhq/caryard/pkg/models"
	"github.com/jackc/pgx/v5"
)

const requestCols = `id, owner_uid, customer_name, phone, requested_car, status, notes, created_at, updated_at`

func (s *PostgresStore) ListRequests(ctx context.Context, ownerUID string) ([]*models.Request, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+requestCols+` FROM requests WHERE owner_uid = $1 ORDER BY id`, ownerUID)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	defer rows.Close()

	var out []*models.Request
	for rows.Next() {
		var r models.Request
		if err := rows.Scan(&r.ID, &r.OwnerUID, &r.CustomerName, &r.Phone, &r.RequestedCar,
			&r.Status, &r.Notes, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan request: %w", err)
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}

func (s *PostgresStore) GetRequest(ctx context.Context, id int64, ownerUID string) (*models.Request, error) {
	var r models.Request
	err := s.pool.QueryRow(ctx,
		`SELECT `+requestCols+` FROM requests WHERE id = $1 AND owner_uid = $2`, id, ownerUID,
	).Scan(&r.ID, &r.OwnerUID, &r.CustomerName, &r.Phone, &r.RequestedCar,
		&r.Status, &r.Notes, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get request: %w", err)
	}
	return &r, nil
}

func (s *PostgresStore) UpsertRequest(ctx context.Context, r *models.Request, ownerUID string) (int64, error) {
	uid, err := stampOwner(r.OwnerUID, ownerUID)
	if err != nil {
		return 0, err
	}

	tx, err := s.begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	id := r.ID
	if r.ID != 0 {
		switch err := checkWriteOwner(ctx, tx, "requests", r.ID, uid); {
		case err == nil:
			if _, err2 := tx.Exec(ctx,
				`UPDATE requests SET customer_name = $1, phone = $2, requested_car = $3, status = $4, notes = $5, updated_at = NOW()
				 WHERE id = $6 AND owner_uid = $7`,
				r.CustomerName, r.Phone, r.RequestedCar, r.Status, r.Notes, r.ID, uid); err2 != nil {
				return 0, fmt.Errorf("update request: %w", err2)
			}
		case errors.Is(err, ErrNotFound):
			if _, err2 := tx.Exec(ctx,
				`INSERT INTO requests (id, owner_uid, customer_name, phone, requested_car, status, notes)
				 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				r.ID, uid, r.CustomerName, r.Phone, r.RequestedCar, r.Status, r.Notes); err2 != nil {
				return 0, fmt.Errorf("insert request: %w", err2)
			}
			if err2 := syncIDSeq(ctx, tx, "requests"); err2 != nil {
				return 0, err2
			}
		default:
			return 0, err
		}
	} else {
		if err := tx.QueryRow(ctx,
			`INSERT INTO requests (owner_uid, customer_name, phone, requested_car, status, notes)
			 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
			uid, r.CustomerName, r.Phone, r.RequestedCar, r.Status, r.Notes).Scan(&id); err != nil {
			return 0, fmt.Errorf("insert request: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit request upsert: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) DeleteRequest(ctx context.Context, id int64, ownerUID string) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM requests WHERE id = $1 AND owner_uid = $2`, id, ownerUID)
	if err != nil {
		return 0, fmt.Errorf("delete request: %w", err)
	}
	return tag.RowsAffected(), nil
}
