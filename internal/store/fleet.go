package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/caryardhq/caryard/pkg/models"
	"github.com/jackc/pgx/v5"
)

// --- Car types ---

const carTypeCols = `id, owner_uid, brand, model, year, transmission, seats, daily_rate, active, created_at, updated_at`

func (s *PostgresStore) ListCarTypes(ctx context.Context, ownerUID string) ([]*models.CarType, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+carTypeCols+` FROM car_types WHERE owner_uid = $1 ORDER BY id`, ownerUID)
	if err != nil {
		return nil, fmt.Errorf("list car types: %w", err)
	}
	defer rows.Close()

	var out []*models.CarType
	for rows.Next() {
		var ct models.CarType
		if err := rows.Scan(&ct.ID, &ct.OwnerUID, &ct.Brand, &ct.Model, &ct.Year, &ct.Transmission,
			&ct.Seats, &ct.DailyRate, &ct.Active, &ct.CreatedAt, &ct.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan car type: %w", err)
		}
		out = append(out, &ct)
	}
	return out, rows.Err()
}

func (s *PostgresStore) GetCarType(ctx context.Context, id int64, ownerUID string) (*models.CarType, error) {
	var ct models.CarType
	err := s.pool.QueryRow(ctx,
		`SELECT `+carTypeCols+` FROM car_types WHERE id = $1 AND owner_uid = $2`, id, ownerUID,
	).Scan(&ct.ID, &ct.OwnerUID, &ct.Brand, &ct.Model, &ct.Year, &ct.Transmission,
		&ct.Seats, &ct.DailyRate, &ct.Active, &ct.CreatedAt, &ct.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get car type: %w", err)
	}
	return &ct, nil
}

func (s *PostgresStore) UpsertCarType(ctx context.Context, ct *models.CarType, ownerUID string) (int64, error) {
	uid, err := stampOwner(ct.OwnerUID, ownerUID)
	if err != nil {
		return 0, err
	}

	tx, err := s.begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	id := ct.ID
	if ct.ID != 0 {
		switch err := checkWriteOwner(ctx, tx, "car_types", ct.ID, uid); {
		case err == nil:
			if _, err2 := tx.Exec(ctx,
				`UPDATE car_types SET brand = $1, model = $2, year = $3, transmission = $4, seats = $5, daily_rate = $6, active = $7, updated_at = NOW()
				 WHERE id = $8 AND owner_uid = $9`,
				ct.Brand, ct.Model, ct.Year, ct.Transmission, ct.Seats, ct.DailyRate, ct.Active, ct.ID, uid); err2 != nil {
				return 0, fmt.Errorf("update car type: %w", err2)
			}
		case errors.Is(err, ErrNotFound):
			if _, err2 := tx.Exec(ctx,
				`INSERT INTO car_types (id, owner_uid, brand, model, year, transmission, seats, daily_rate, active)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
				ct.ID, uid, ct.Brand, ct.Model, ct.Year, ct.Transmission, ct.Seats, ct.DailyRate, ct.Active); err2 != nil {
				return 0, fmt.Errorf("insert car type: %w", err2)
			}
			if err2 := syncIDSeq(ctx, tx, "car_types"); err2 != nil {
				return 0, err2
			}
		default:
			return 0, err
		}
	} else {
		if err := tx.QueryRow(ctx,
			`INSERT INTO car_types (owner_uid, brand, model, year, transmission, seats, daily_rate, active)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
			uid, ct.Brand, ct.Model, ct.Year, ct.Transmission, ct.Seats, ct.DailyRate, ct.Active).Scan(&id); err != nil {
			return 0, fmt.Errorf("insert car type: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit car type upsert: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) DeleteCarType(ctx context.Context, id int64, ownerUID string) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM car_types WHERE id = $1 AND owner_uid = $2`, id, ownerUID)
	if err != nil {
		return 0, fmt.Errorf("delete car type: %w", err)
	}
	return tag.RowsAffected(), nil
}

// --- Car sales ---

const carSaleCols = `id, owner_uid, car_type_id, agent_id, buyer_name, price, sold_at, created_at, updated_at`

func (s *PostgresStore) ListCarSales(ctx context.Context, ownerUID string) ([]*models.CarSale, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+carSaleCols+` FROM car_sales WHERE owner_uid = $1 ORDER BY id`, ownerUID)
	if err != nil {
		return nil, fmt.Errorf("list car sales: %w", err)
	}
	defer rows.Close()

	var out []*models.CarSale
	for rows.Next() {
		var cs models.CarSale
		if err := rows.Scan(&cs.ID, &cs.OwnerUID, &cs.CarTypeID, &cs.AgentID, &cs.BuyerName,
			&cs.Price, &cs.SoldAt, &cs.CreatedAt, &cs.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan car sale: %w", err)
		}
		out = append(out, &cs)
	}
	return out, rows.Err()
}

func (s *PostgresStore) GetCarSale(ctx context.Context, id int64, ownerUID string) (*models.CarSale, error) {
	var cs models.CarSale
	err := s.pool.QueryRow(ctx,
		`SELECT `+carSaleCols+` FROM car_sales WHERE id = $1 AND owner_uid = $2`, id, ownerUID,
	).Scan(&cs.ID, &cs.OwnerUID, &cs.CarTypeID, &cs.AgentID, &cs.BuyerName,
		&cs.Price, &cs.SoldAt, &cs.CreatedAt, &cs.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get car sale: %w", err)
	}
	return &cs, nil
}

func (s *PostgresStore) UpsertCarSale(ctx context.Context, cs *models.CarSale, ownerUID string) (int64, error) {
	uid, err := stampOwner(cs.OwnerUID, ownerUID)
	if err != nil {
		return 0, err
	}

	tx, err := s.begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	// A sale inherits its owner from the car type it references.
	if err := checkParentOwner(ctx, tx, "car_types", cs.CarTypeID, uid); err != nil {
		return 0, err
	}
	if cs.AgentID != nil {
		if err := checkParentOwner(ctx, tx, "agents", *cs.AgentID, uid); err != nil {
			return 0, err
		}
	}

	id := cs.ID
	if cs.ID != 0 {
		switch err := checkWriteOwner(ctx, tx, "car_sales", cs.ID, uid); {
		case err == nil:
			if _, err2 := tx.Exec(ctx,
				`UPDATE car_sales SET car_type_id = $1, agent_id = $2, buyer_name = $3, price = $4, sold_at = $5, updated_at = NOW()
				 WHERE id = $6 AND owner_uid = $7`,
				cs.CarTypeID, cs.AgentID, cs.BuyerName, cs.Price, cs.SoldAt, cs.ID, uid); err2 != nil {
				return 0, fmt.Errorf("update car sale: %w", err2)
			}
		case errors.Is(err, ErrNotFound):
			if _, err2 := tx.Exec(ctx,
				`INSERT INTO car_sales (id, owner_uid, car_type_id, agent_id, buyer_name, price, sold_at)
				 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				cs.ID, uid, cs.CarTypeID, cs.AgentID, cs.BuyerName, cs.Price, cs.SoldAt); err2 != nil {
				return 0, fmt.Errorf("insert car sale: %w", err2)
			}
			if err2 := syncIDSeq(ctx, tx, "car_sales"); err2 != nil {
				return 0, err2
			}
		default:
			return 0, err
		}
	} else {
		if err := tx.QueryRow(ctx,
			`INSERT INTO car_sales (owner_uid, car_type_id, agent_id, buyer_name, price, sold_at)
			 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
			uid, cs.CarTypeID, cs.AgentID, cs.BuyerName, cs.Price, cs.SoldAt).Scan(&id); err != nil {
			return 0, fmt.Errorf("insert car sale: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit car sale upsert: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) DeleteCarSale(ctx context.Context, id int64, ownerUID string) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM car_sales WHERE id = $1 AND owner_uid = $2`, id, ownerUID)
	if err != nil {
		return 0, fmt.Errorf("delete car sale: %w", err)
	}
	return tag.RowsAffected(), nil
}
