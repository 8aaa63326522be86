package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/caryardhq/caryard/pkg/models"
	"github.com/jackc/pgx/v5"
)

const customerCols = `id, owner_uid, name, phone, email, id_number, address, notes, created_at, updated_at`

func (s *PostgresStore) ListCustomers(ctx context.Context, ownerUID string) ([]*models.Customer, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+customerCols+` FROM customers WHERE owner_uid = $1 ORDER BY id`, ownerUID)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	var out []*models.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) GetCustomer(ctx context.Context, id int64, ownerUID string) (*models.Customer, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+customerCols+` FROM customers WHERE id = $1 AND owner_uid = $2`, id, ownerUID)
	c, err := scanCustomer(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *PostgresStore) UpsertCustomer(ctx context.Context, c *models.Customer, ownerUID string) (int64, error) {
	uid, err := stampOwner(c.OwnerUID, ownerUID)
	if err != nil {
		return 0, err
	}

	tx, err := s.begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	id := c.ID
	if c.ID != 0 {
		switch err := checkWriteOwner(ctx, tx, "customers", c.ID, uid); {
		case err == nil:
			_, err2 := tx.Exec(ctx,
				`UPDATE customers SET name = $1, phone = $2, email = $3, id_number = $4, address = $5, notes = $6, updated_at = NOW()
				 WHERE id = $7 AND owner_uid = $8`,
				c.Name, c.Phone, c.Email, c.IDNumber, c.Address, c.Notes, c.ID, uid)
			if err2 != nil {
				return 0, fmt.Errorf("update customer: %w", err2)
			}
		case errors.Is(err, ErrNotFound):
			// Snapshot restore path: the row arrives with its original id.
			_, err2 := tx.Exec(ctx,
				`INSERT INTO customers (id, owner_uid, name, phone, email, id_number, address, notes)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				c.ID, uid, c.Name, c.Phone, c.Email, c.IDNumber, c.Address, c.Notes)
			if err2 != nil {
				return 0, fmt.Errorf("insert customer: %w", err2)
			}
			if err2 := syncIDSeq(ctx, tx, "customers"); err2 != nil {
				return 0, err2
			}
		default:
			return 0, err
		}
	} else {
		err := tx.QueryRow(ctx,
			`INSERT INTO customers (owner_uid, name, phone, email, id_number, address, notes)
			 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
			uid, c.Name, c.Phone, c.Email, c.IDNumber, c.Address, c.Notes).Scan(&id)
		if err != nil {
			return 0, fmt.Errorf("insert customer: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit customer upsert: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) DeleteCustomer(ctx context.Context, id int64, ownerUID string) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM customers WHERE id = $1 AND owner_uid = $2`, id, ownerUID)
	if err != nil {
		return 0, fmt.Errorf("delete customer: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanCustomer(row pgx.Row) (*models.Customer, error) {
	var c models.Customer
	if err := row.Scan(&c.ID, &c.OwnerUID, &c.Name, &c.Phone, &c.Email, &c.IDNumber,
		&c.Address, &c.Notes, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, pgx.ErrNoRows
		}
		return nil, fmt.Errorf("scan customer: %w", err)
	}
	return &c, nil
}

// syncIDSeq realigns a table's id sequence after an explicit-id insert so the
// next generated id does not collide with restored rows.
func syncIDSeq(ctx context.Context, q querier, table string) error {
	_, err := q.Exec(ctx, fmt.Sprintf(
		`SELECT setval(pg_get_serial_sequence('%s', 'id'), GREATEST((SELECT COALESCE(MAX(id), 0) FROM %s), 1))`,
		table, table))
	if err != nil {
		return fmt.Errorf("sync %s id sequence: %w", table, err)
	}
	return nil
}
