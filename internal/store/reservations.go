package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/caryardhq/caryard/pkg/models"
	"github.com/jackc/pgx/v5"
)

// --- Reservations ---

const reservationCols = `id, owner_uid, customer_id, car_type_id, branch_id, start_date, end_date, status, daily_rate, total, notes, created_at, updated_at`

func (s *PostgresStore) ListReservations(ctx context.Context, ownerUID string) ([]*models.Reservation, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+reservationCols+` FROM reservations WHERE owner_uid = $1 ORDER BY id`, ownerUID)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	defer rows.Close()

	var out []*models.Reservation
	for rows.Next() {
		var r models.Reservation
		if err := rows.Scan(&r.ID, &r.OwnerUID, &r.CustomerID, &r.CarTypeID, &r.BranchID,
			&r.StartDate, &r.EndDate, &r.Status, &r.DailyRate, &r.Total, &r.Notes,
			&r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}

func (s *PostgresStore) GetReservation(ctx context.Context, id int64, ownerUID string) (*models.Reservation, error) {
	var r models.Reservation
	err := s.pool.QueryRow(ctx,
		`SELECT `+reservationCols+` FROM reservations WHERE id = $1 AND owner_uid = $2`, id, ownerUID,
	).Scan(&r.ID, &r.OwnerUID, &r.CustomerID, &r.CarTypeID, &r.BranchID,
		&r.StartDate, &r.EndDate, &r.Status, &r.DailyRate, &r.Total, &r.Notes,
		&r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get reservation: %w", err)
	}
	return &r, nil
}

func (s *PostgresStore) UpsertReservation(ctx context.Context, r *models.Reservation, ownerUID string) (int64, error) {
	uid, err := stampOwner(r.OwnerUID, ownerUID)
	if err != nil {
		return 0, err
	}

	tx, err := s.begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	// A reservation inherits its owner from the customer it is booked for.
	if err := checkParentOwner(ctx, tx, "customers", r.CustomerID, uid); err != nil {
		return 0, err
	}
	if err := checkParentOwner(ctx, tx, "car_types", r.CarTypeID, uid); err != nil {
		return 0, err
	}
	if r.BranchID != nil {
		if err := checkParentOwner(ctx, tx, "branches", *r.BranchID, uid); err != nil {
			return 0, err
		}
	}

	id := r.ID
	if r.ID != 0 {
		switch err := checkWriteOwner(ctx, tx, "reservations", r.ID, uid); {
		case err == nil:
			if _, err2 := tx.Exec(ctx,
				`UPDATE reservations SET customer_id = $1, car_type_id = $2, branch_id = $3, start_date = $4, end_date = $5,
				        status = $6, daily_rate = $7, total = $8, notes = $9, updated_at = NOW()
				 WHERE id = $10 AND owner_uid = $11`,
				r.CustomerID, r.CarTypeID, r.BranchID, r.StartDate, r.EndDate,
				r.Status, r.DailyRate, r.Total, r.Notes, r.ID, uid); err2 != nil {
				return 0, fmt.Errorf("update reservation: %w", err2)
			}
		case errors.Is(err, ErrNotFound):
			if _, err2 := tx.Exec(ctx,
				`INSERT INTO reservations (id, owner_uid, customer_id, car_type_id, branch_id, start_date, end_date, status, daily_rate, total, notes)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
				r.ID, uid, r.CustomerID, r.CarTypeID, r.BranchID, r.StartDate, r.EndDate,
				r.Status, r.DailyRate, r.Total, r.Notes); err2 != nil {
				return 0, fmt.Errorf("insert reservation: %w", err2)
			}
			if err2 := syncIDSeq(ctx, tx, "reservations"); err2 != nil {
				return 0, err2
			}
		default:
			return 0, err
		}
	} else {
		if err := tx.QueryRow(ctx,
			`INSERT INTO reservations (owner_uid, customer_id, car_type_id, branch_id, start_date, end_date, status, daily_rate, total, notes)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`,
			uid, r.CustomerID, r.CarTypeID, r.BranchID, r.StartDate, r.EndDate,
			r.Status, r.DailyRate, r.Total, r.Notes).Scan(&id); err != nil {
			return 0, fmt.Errorf("insert reservation: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit reservation upsert: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) DeleteReservation(ctx context.Context, id int64, ownerUID string) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM reservations WHERE id = $1 AND owner_uid = $2`, id, ownerUID)
	if err != nil {
		return 0, fmt.Errorf("delete reservation: %w", err)
	}
	return tag.RowsAffected(), nil
}

// --- Payments ---

const paymentCols = `id, owner_uid, reservation_id, amount, method, reference, paid_at, created_at, updated_at`

func (s *PostgresStore) ListPayments(ctx context.Context, ownerUID string) ([]*models.Payment, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+paymentCols+` FROM payments WHERE owner_uid = $1 ORDER BY id`, ownerUID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var out []*models.Payment
	for rows.Next() {
		var p models.Payment
		if err := rows.Scan(&p.ID, &p.OwnerUID, &p.ReservationID, &p.Amount, &p.Method,
			&p.Reference, &p.PaidAt, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

func (s *PostgresStore) GetPayment(ctx context.Context, id int64, ownerUID string) (*models.Payment, error) {
	var p models.Payment
	err := s.pool.QueryRow(ctx,
		`SELECT `+paymentCols+` FROM payments WHERE id = $1 AND owner_uid = $2`, id, ownerUID,
	).Scan(&p.ID, &p.OwnerUID, &p.ReservationID, &p.Amount, &p.Method,
		&p.Reference, &p.PaidAt, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get payment: %w", err)
	}
	return &p, nil
}

func (s *PostgresStore) UpsertPayment(ctx context.Context, p *models.Payment, ownerUID string) (int64, error) {
	uid, err := stampOwner(p.OwnerUID, ownerUID)
	if err != nil {
		return 0, err
	}

	tx, err := s.begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	// A payment always shares its reservation's owner.
	if err := checkParentOwner(ctx, tx, "reservations", p.ReservationID, uid); err != nil {
		return 0, err
	}

	id := p.ID
	if p.ID != 0 {
		switch err := checkWriteOwner(ctx, tx, "payments", p.ID, uid); {
		case err == nil:
			if _, err2 := tx.Exec(ctx,
				`UPDATE payments SET reservation_id = $1, amount = $2, method = $3, reference = $4, paid_at = $5, updated_at = NOW()
				 WHERE id = $6 AND owner_uid = $7`,
				p.ReservationID, p.Amount, p.Method, p.Reference, p.PaidAt, p.ID, uid); err2 != nil {
				return 0, fmt.Errorf("update payment: %w", err2)
			}
		case errors.Is(err, ErrNotFound):
			if _, err2 := tx.Exec(ctx,
				`INSERT INTO payments (id, owner_uid, reservation_id, amount, method, reference, paid_at)
				 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				p.ID, uid, p.ReservationID, p.Amount, p.Method, p.Reference, p.PaidAt); err2 != nil {
				return 0, fmt.Errorf("insert payment: %w", err2)
			}
			if err2 := syncIDSeq(ctx, tx, "payments"); err2 != nil {
				return 0, err2
			}
		default:
			return 0, err
		}
	} else {
		if err := tx.QueryRow(ctx,
			`INSERT INTO payments (owner_uid, reservation_id, amount, method, reference, paid_at)
			 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
			uid, p.ReservationID, p.Amount, p.Method, p.Reference, p.PaidAt).Scan(&id); err != nil {
			return 0, fmt.Errorf("insert payment: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit payment upsert: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) DeletePayment(ctx context.Context, id int64, ownerUID string) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM payments WHERE id = $1 AND owner_uid = $2`, id, ownerUID)
	if err != nil {
		return 0, fmt.Errorf("delete payment: %w", err)
	}
	return tag.RowsAffected(), nil
}

// --- Card stubs ---

const cardStubCols = `id, owner_uid, customer_id, brand, last4, exp_month, exp_year, created_at, updated_at`

func (s *PostgresStore) ListCardStubs(ctx context.Context, ownerUID string) ([]*models.CardStub, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+cardStubCols+` FROM card_stubs WHERE owner_uid = $1 ORDER BY id`, ownerUID)
	if err != nil {
		return nil, fmt.Errorf("list card stubs: %w", err)
	}
	defer rows.Close()

	var out []*models.CardStub
	for rows.Next() {
		var cs models.CardStub
		if err := rows.Scan(&cs.ID, &cs.OwnerUID, &cs.CustomerID, &cs.Brand, &cs.Last4,
			&cs.ExpMonth, &cs.ExpYear, &cs.CreatedAt, &cs.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan card stub: %w", err)
		}
		out = append(out, &cs)
	}
	return out, rows.Err()
}

func (s *PostgresStore) GetCardStub(ctx context.Context, id int64, ownerUID string) (*models.CardStub, error) {
	var cs models.CardStub
	err := s.pool.QueryRow(ctx,
		`SELECT `+cardStubCols+` FROM card_stubs WHERE id = $1 AND owner_uid = $2`, id, ownerUID,
	).Scan(&cs.ID, &cs.OwnerUID, &cs.CustomerID, &cs.Brand, &cs.Last4,
		&cs.ExpMonth, &cs.ExpYear, &cs.CreatedAt, &cs.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get card stub: %w", err)
	}
	return &cs, nil
}

func (s *PostgresStore) UpsertCardStub(ctx context.Context, cs *models.CardStub, ownerUID string) (int64, error) {
	uid, err := stampOwner(cs.OwnerUID, ownerUID)
	if err != nil {
		return 0, err
	}

	tx, err := s.begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	if err := checkParentOwner(ctx, tx, "customers", cs.CustomerID, uid); err != nil {
		return 0, err
	}

	id := cs.ID
	if cs.ID != 0 {
		switch err := checkWriteOwner(ctx, tx, "card_stubs", cs.ID, uid); {
		case err == nil:
			if _, err2 := tx.Exec(ctx,
				`UPDATE card_stubs SET customer_id = $1, brand = $2, last4 = $3, exp_month = $4, exp_year = $5, updated_at = NOW()
				 WHERE id = $6 AND owner_uid = $7`,
				cs.CustomerID, cs.Brand, cs.Last4, cs.ExpMonth, cs.ExpYear, cs.ID, uid); err2 != nil {
				return 0, fmt.Errorf("update card stub: %w", err2)
			}
		case errors.Is(err, ErrNotFound):
			if _, err2 := tx.Exec(ctx,
				`INSERT INTO card_stubs (id, owner_uid, customer_id, brand, last4, exp_month, exp_year)
				 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				cs.ID, uid, cs.CustomerID, cs.Brand, cs.Last4, cs.ExpMonth, cs.ExpYear); err2 != nil {
				return 0, fmt.Errorf("insert card stub: %w", err2)
			}
			if err2 := syncIDSeq(ctx, tx, "card_stubs"); err2 != nil {
				return 0, err2
			}
		default:
			return 0, err
		}
	} else {
		if err := tx.QueryRow(ctx,
			`INSERT INTO card_stubs (owner_uid, customer_id, brand, last4, exp_month, exp_year)
			 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
			uid, cs.CustomerID, cs.Brand, cs.Last4, cs.ExpMonth, cs.ExpYear).Scan(&id); err != nil {
			return 0, fmt.Errorf("insert card stub: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit card stub upsert: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) DeleteCardStub(ctx context.Context, id int64, ownerUID string) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM card_stubs WHERE id = $1 AND owner_uid = $2`, id, ownerUID)
	if err != nil {
		return 0, fmt.Errorf("delete card stub: %w", err)
	}
	return tag.RowsAffected(), nil
}
