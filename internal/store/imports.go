package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/caryardhq/caryard/pkg/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// validRunTransitions is the import-run state machine. Terminal states have
// no outgoing edges; FAILED is reachable from any non-terminal working state.
var validRunTransitions = map[string][]string{
	models.ImportStatusUploaded:     {models.ImportStatusProcessing, models.ImportStatusFailed},
	models.ImportStatusProcessing:   {models.ImportStatusPreviewReady, models.ImportStatusFailed},
	models.ImportStatusPreviewReady: {models.ImportStatusCommitting, models.ImportStatusFailed},
	models.ImportStatusCommitting:   {models.ImportStatusCommitted, models.ImportStatusFailed},
}

const importRunCols = `id, owner_uid, entity, source_file, status, rows_total, rows_valid, rows_warning, rows_error, created, updated, skipped, error_message, completed_at, created_at, updated_at`

func (s *PostgresStore) CreateImportRun(ctx context.Context, run *models.ImportRun) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO import_runs (id, owner_uid, entity, source_file, status)
		 VALUES ($1, $2, $3, $4, $5)`,
		run.ID, run.OwnerUID, run.Entity, run.SourceFile, run.Status)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create import run: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetImportRun(ctx context.Context, id uuid.UUID, ownerUID string) (*models.ImportRun, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+importRunCols+` FROM import_runs WHERE id = $1 AND owner_uid = $2`, id, ownerUID)
	run, err := scanImportRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

func (s *PostgresStore) ListImportRuns(ctx context.Context, ownerUID string) ([]*models.ImportRun, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+importRunCols+` FROM import_runs WHERE owner_uid = $1 ORDER BY created_at DESC`, ownerUID)
	if err != nil {
		return nil, fmt.Errorf("list import runs: %w", err)
	}
	defer rows.Close()

	var out []*models.ImportRun
	for rows.Next() {
		run, err := scanImportRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

// UpdateImportRunStatus advances a run through the state machine. Invalid
// transitions fail before any write.
func (s *PostgresStore) UpdateImportRunStatus(ctx context.Context, id uuid.UUID, ownerUID, status string, opts ...RunUpdateOption) error {
	params := &runUpdateParams{}
	for _, opt := range opts {
		opt(params)
	}

	tx, err := s.begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var current string
	err = tx.QueryRow(ctx,
		`SELECT status FROM import_runs WHERE id = $1 AND owner_uid = $2 FOR UPDATE`, id, ownerUID).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get import run status: %w", err)
	}

	if !transitionAllowed(current, status) {
		return fmt.Errorf("invalid import run transition: %s -> %s", current, status)
	}

	query := `UPDATE import_runs SET status = $3, updated_at = NOW()`
	args := []any{id, ownerUID, status}
	argIdx := 4

	if params.Counts != nil {
		query += fmt.Sprintf(", rows_total = $%d, rows_valid = $%d, rows_warning = $%d, rows_error = $%d",
			argIdx, argIdx+1, argIdx+2, argIdx+3)
		args = append(args, params.Counts.Total, params.Counts.Valid, params.Counts.Warning, params.Counts.Error)
		argIdx += 4
	}
	if params.ErrorMessage != nil {
		query += fmt.Sprintf(", error_message = $%d", argIdx)
		args = append(args, *params.ErrorMessage)
		argIdx++
	}
	if status == models.ImportStatusCommitted || status == models.ImportStatusFailed {
		query += ", completed_at = NOW()"
	}

	query += " WHERE id = $1 AND owner_uid = $2"

	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("update import run status: %w", err)
	}
	return tx.Commit(ctx)
}

func transitionAllowed(from, to string) bool {
	for _, allowed := range validRunTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func (s *PostgresStore) ListImportRowLogs(ctx context.Context, runID uuid.UUID, ownerUID string) ([]*models.ImportRowLog, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, owner_uid, run_id, row_index, outcome, note, created_at
		 FROM import_row_logs WHERE run_id = $1 AND owner_uid = $2 ORDER BY row_index`, runID, ownerUID)
	if err != nil {
		return nil, fmt.Errorf("list import row logs: %w", err)
	}
	defer rows.Close()

	var out []*models.ImportRowLog
	for rows.Next() {
		var l models.ImportRowLog
		if err := rows.Scan(&l.ID, &l.OwnerUID, &l.RunID, &l.RowIndex, &l.Outcome, &l.Note, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan import row log: %w", err)
		}
		out = append(out, &l)
	}
	return out, rows.Err()
}

// CommitImport reconciles a run's validated rows into live inventory in a
// single transaction: matched rows with no changes are skipped, changed rows
// updated, new rows created. The audit trail, the run counters, and the final
// COMMITTED status land in the same transaction, so a failure leaves no
// partial import behind. The run must be in COMMITTING state.
func (s *PostgresStore) CommitImport(ctx context.Context, runID uuid.UUID, ownerUID string, set CommitSet) (*models.ImportRun, error) {
	tx, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var status string
	err = tx.QueryRow(ctx,
		`SELECT status FROM import_runs WHERE id = $1 AND owner_uid = $2 FOR UPDATE`, runID, ownerUID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get import run: %w", err)
	}
	if status != models.ImportStatusCommitting {
		return nil, fmt.Errorf("invalid import run transition: %s -> %s", status, models.ImportStatusCommitted)
	}

	var created, updated, skipped int
	logRow := func(idx int, outcome, note string) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO import_row_logs (owner_uid, run_id, row_index, outcome, note)
			 VALUES ($1, $2, $3, $4, $5)`, ownerUID, runID, idx, outcome, note)
		if err != nil {
			return fmt.Errorf("append import row log: %w", err)
		}
		return nil
	}

	apply := func(idx int, outcome string) error {
		switch outcome {
		case models.ImportRowCreated:
			created++
		case models.ImportRowUpdated:
			updated++
		case models.ImportRowSkipped:
			skipped++
		}
		return logRow(idx, outcome, "")
	}

	for i, c := range set.Customers {
		outcome, err := reconcileCustomer(ctx, tx, ownerUID, c)
		if err != nil {
			return nil, err
		}
		if err := apply(set.RowIndexes[i], outcome); err != nil {
			return nil, err
		}
	}
	for i, ct := range set.CarTypes {
		outcome, err := reconcileCarType(ctx, tx, ownerUID, ct)
		if err != nil {
			return nil, err
		}
		if err := apply(set.RowIndexes[i], outcome); err != nil {
			return nil, err
		}
	}
	for i, sp := range set.Suppliers {
		outcome, err := reconcileSupplier(ctx, tx, ownerUID, sp)
		if err != nil {
			return nil, err
		}
		if err := apply(set.RowIndexes[i], outcome); err != nil {
			return nil, err
		}
	}

	for _, el := range set.ErrorLogs {
		if err := logRow(el.RowIndex, models.ImportRowError, el.Note); err != nil {
			return nil, err
		}
	}

	row := tx.QueryRow(ctx,
		`UPDATE import_runs
		 SET status = $3, created = $4, updated = $5, skipped = $6, completed_at = NOW(), updated_at = NOW()
		 WHERE id = $1 AND owner_uid = $2
		 RETURNING `+importRunCols,
		runID, ownerUID, models.ImportStatusCommitted, created, updated, skipped)
	run, err := scanImportRun(row)
	if err != nil {
		return nil, fmt.Errorf("finalize import run: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit import: %w", err)
	}
	return run, nil
}

// reconcileCustomer matches by national id number when present, otherwise by
// name + phone, then creates, updates, or skips.
func reconcileCustomer(ctx context.Context, tx pgx.Tx, ownerUID string, c models.Customer) (string, error) {
	var existing models.Customer
	var err error
	if c.IDNumber != "" {
		err = tx.QueryRow(ctx,
			`SELECT `+customerCols+` FROM customers WHERE owner_uid = $1 AND id_number = $2`, ownerUID, c.IDNumber,
		).Scan(&existing.ID, &existing.OwnerUID, &existing.Name, &existing.Phone, &existing.Email,
			&existing.IDNumber, &existing.Address, &existing.Notes, &existing.CreatedAt, &existing.UpdatedAt)
	} else {
		err = tx.QueryRow(ctx,
			`SELECT `+customerCols+` FROM customers WHERE owner_uid = $1 AND name = $2 AND phone = $3`, ownerUID, c.Name, c.Phone,
		).Scan(&existing.ID, &existing.OwnerUID, &existing.Name, &existing.Phone, &existing.Email,
			&existing.IDNumber, &existing.Address, &existing.Notes, &existing.CreatedAt, &existing.UpdatedAt)
	}

	switch {
	case errors.Is(err, pgx.ErrNoRows):
		if _, err := tx.Exec(ctx,
			`INSERT INTO customers (owner_uid, name, phone, email, id_number, address, notes)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			ownerUID, c.Name, c.Phone, c.Email, c.IDNumber, c.Address, c.Notes); err != nil {
			return "", fmt.Errorf("import insert customer: %w", err)
		}
		return models.ImportRowCreated, nil
	case err != nil:
		return "", fmt.Errorf("import match customer: %w", err)
	}

	if existing.Name == c.Name && existing.Phone == c.Phone && existing.Email == c.Email &&
		existing.IDNumber == c.IDNumber && existing.Address == c.Address && existing.Notes == c.Notes {
		return models.ImportRowSkipped, nil
	}

	if _, err := tx.Exec(ctx,
		`UPDATE customers SET name = $1, phone = $2, email = $3, id_number = $4, address = $5, notes = $6, updated_at = NOW()
		 WHERE id = $7 AND owner_uid = $8`,
		c.Name, c.Phone, c.Email, c.IDNumber, c.Address, c.Notes, existing.ID, ownerUID); err != nil {
		return "", fmt.Errorf("import update customer: %w", err)
	}
	return models.ImportRowUpdated, nil
}

// reconcileCarType matches by brand + model + year.
func reconcileCarType(ctx context.Context, tx pgx.Tx, ownerUID string, ct models.CarType) (string, error) {
	var existing models.CarType
	err := tx.QueryRow(ctx,
		`SELECT `+carTypeCols+` FROM car_types WHERE owner_uid = $1 AND brand = $2 AND model = $3 AND year = $4`,
		ownerUID, ct.Brand, ct.Model, ct.Year,
	).Scan(&existing.ID, &existing.OwnerUID, &existing.Brand, &existing.Model, &existing.Year,
		&existing.Transmission, &existing.Seats, &existing.DailyRate, &existing.Active,
		&existing.CreatedAt, &existing.UpdatedAt)

	switch {
	case errors.Is(err, pgx.ErrNoRows):
		if _, err := tx.Exec(ctx,
			`INSERT INTO car_types (owner_uid, brand, model, year, transmission, seats, daily_rate, active)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			ownerUID, ct.Brand, ct.Model, ct.Year, ct.Transmission, ct.Seats, ct.DailyRate, ct.Active); err != nil {
			return "", fmt.Errorf("import insert car type: %w", err)
		}
		return models.ImportRowCreated, nil
	case err != nil:
		return "", fmt.Errorf("import match car type: %w", err)
	}

	if existing.Transmission == ct.Transmission && existing.Seats == ct.Seats &&
		existing.DailyRate == ct.DailyRate && existing.Active == ct.Active {
		return models.ImportRowSkipped, nil
	}

	if _, err := tx.Exec(ctx,
		`UPDATE car_types SET transmission = $1, seats = $2, daily_rate = $3, active = $4, updated_at = NOW()
		 WHERE id = $5 AND owner_uid = $6`,
		ct.Transmission, ct.Seats, ct.DailyRate, ct.Active, existing.ID, ownerUID); err != nil {
		return "", fmt.Errorf("import update car type: %w", err)
	}
	return models.ImportRowUpdated, nil
}

// reconcileSupplier matches by name.
func reconcileSupplier(ctx context.Context, tx pgx.Tx, ownerUID string, sp models.Supplier) (string, error) {
	var existing models.Supplier
	err := tx.QueryRow(ctx,
		`SELECT `+supplierCols+` FROM suppliers WHERE owner_uid = $1 AND name = $2`, ownerUID, sp.Name,
	).Scan(&existing.ID, &existing.OwnerUID, &existing.Name, &existing.Phone, &existing.ContactName,
		&existing.Category, &existing.Notes, &existing.CreatedAt, &existing.UpdatedAt)

	switch {
	case errors.Is(err, pgx.ErrNoRows):
		if _, err := tx.Exec(ctx,
			`INSERT INTO suppliers (owner_uid, name, phone, contact_name, category, notes)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			ownerUID, sp.Name, sp.Phone, sp.ContactName, sp.Category, sp.Notes); err != nil {
			return "", fmt.Errorf("import insert supplier: %w", err)
		}
		return models.ImportRowCreated, nil
	case err != nil:
		return "", fmt.Errorf("import match supplier: %w", err)
	}

	if existing.Phone == sp.Phone && existing.ContactName == sp.ContactName &&
		existing.Category == sp.Category && existing.Notes == sp.Notes {
		return models.ImportRowSkipped, nil
	}

	if _, err := tx.Exec(ctx,
		`UPDATE suppliers SET phone = $1, contact_name = $2, category = $3, notes = $4, updated_at = NOW()
		 WHERE id = $5 AND owner_uid = $6`,
		sp.Phone, sp.ContactName, sp.Category, sp.Notes, existing.ID, ownerUID); err != nil {
		return "", fmt.Errorf("import update supplier: %w", err)
	}
	return models.ImportRowUpdated, nil
}

func scanImportRun(row pgx.Row) (*models.ImportRun, error) {
	var r models.ImportRun
	if err := row.Scan(&r.ID, &r.OwnerUID, &r.Entity, &r.SourceFile, &r.Status,
		&r.RowsTotal, &r.RowsValid, &r.RowsWarning, &r.RowsError,
		&r.Created, &r.Updated, &r.Skipped,
		&r.ErrorMessage, &r.CompletedAt, &r.CreatedAt, &r.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, pgx.ErrNoRows
		}
		return nil, fmt.Errorf("scan import run: %w", err)
	}
	return &r, nil
}
