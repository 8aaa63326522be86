package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/caryardhq/caryard/pkg/models"
	"github.com/jackc/pgx/v5"
)

// --- Suppliers ---

const supplierCols = `id, owner_uid, name, phone, contact_name, category, notes, created_at, updated_at`

func (s *PostgresStore) ListSuppliers(ctx context.Context, ownerUID string) ([]*models.Supplier, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+supplierCols+` FROM suppliers WHERE owner_uid = $1 ORDER BY id`, ownerUID)
	if err != nil {
		return nil, fmt.Errorf("list suppliers: %w", err)
	}
	defer rows.Close()

	var out []*models.Supplier
	for rows.Next() {
		var sp models.Supplier
		if err := rows.Scan(&sp.ID, &sp.OwnerUID, &sp.Name, &sp.Phone, &sp.ContactName,
			&sp.Category, &sp.Notes, &sp.CreatedAt, &sp.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan supplier: %w", err)
		}
		out = append(out, &sp)
	}
	return out, rows.Err()
}

func (s *PostgresStore) GetSupplier(ctx context.Context, id int64, ownerUID string) (*models.Supplier, error) {
	var sp models.Supplier
	err := s.pool.QueryRow(ctx,
		`SELECT `+supplierCols+` FROM suppliers WHERE id = $1 AND owner_uid = $2`, id, ownerUID,
	).Scan(&sp.ID, &sp.OwnerUID, &sp.Name, &sp.Phone, &sp.ContactName,
		&sp.Category, &sp.Notes, &sp.CreatedAt, &sp.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get supplier: %w", err)
	}
	return &sp, nil
}

func (s *PostgresStore) UpsertSupplier(ctx context.Context, sp *models.Supplier, ownerUID string) (int64, error) {
	uid, err := stampOwner(sp.OwnerUID, ownerUID)
	if err != nil {
		return 0, err
	}

	tx, err := s.begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	id := sp.ID
	if sp.ID != 0 {
		switch err := checkWriteOwner(ctx, tx, "suppliers", sp.ID, uid); {
		case err == nil:
			if _, err2 := tx.Exec(ctx,
				`UPDATE suppliers SET name = $1, phone = $2, contact_name = $3, category = $4, notes = $5, updated_at = NOW()
				 WHERE id = $6 AND owner_uid = $7`,
				sp.Name, sp.Phone, sp.ContactName, sp.Category, sp.Notes, sp.ID, uid); err2 != nil {
				return 0, fmt.Errorf("update supplier: %w", err2)
			}
		case errors.Is(err, ErrNotFound):
			if _, err2 := tx.Exec(ctx,
				`INSERT INTO suppliers (id, owner_uid, name, phone, contact_name, category, notes)
				 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				sp.ID, uid, sp.Name, sp.Phone, sp.ContactName, sp.Category, sp.Notes); err2 != nil {
				return 0, fmt.Errorf("insert supplier: %w", err2)
			}
			if err2 := syncIDSeq(ctx, tx, "suppliers"); err2 != nil {
				return 0, err2
			}
		default:
			return 0, err
		}
	} else {
		if err := tx.QueryRow(ctx,
			`INSERT INTO suppliers (owner_uid, name, phone, contact_name, category, notes)
			 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
			uid, sp.Name, sp.Phone, sp.ContactName, sp.Category, sp.Notes).Scan(&id); err != nil {
			return 0, fmt.Errorf("insert supplier: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit supplier upsert: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) DeleteSupplier(ctx context.Context, id int64, ownerUID string) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM suppliers WHERE id = $1 AND owner_uid = $2`, id, ownerUID)
	if err != nil {
		return 0, fmt.Errorf("delete supplier: %w", err)
	}
	return tag.RowsAffected(), nil
}

// --- Branches ---

const branchCols = `id, owner_uid, name, city, address, phone, created_at, updated_at`

func (s *PostgresStore) ListBranches(ctx context.Context, ownerUID string) ([]*models.Branch, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+branchCols+` FROM branches WHERE owner_uid = $1 ORDER BY id`, ownerUID)
	if err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}
	defer rows.Close()

	var out []*models.Branch
	for rows.Next() {
		var b models.Branch
		if err := rows.Scan(&b.ID, &b.OwnerUID, &b.Name, &b.City, &b.Address, &b.Phone,
			&b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan branch: %w", err)
		}
		out = append(out, &b)
	}
	return out, rows.Err()
}

func (s *PostgresStore) GetBranch(ctx context.Context, id int64, ownerUID string) (*models.Branch, error) {
	var b models.Branch
	err := s.pool.QueryRow(ctx,
		`SELECT `+branchCols+` FROM branches WHERE id = $1 AND owner_uid = $2`, id, ownerUID,
	).Scan(&b.ID, &b.OwnerUID, &b.Name, &b.City, &b.Address, &b.Phone, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get branch: %w", err)
	}
	return &b, nil
}

func (s *PostgresStore) UpsertBranch(ctx context.Context, b *models.Branch, ownerUID string) (int64, error) {
	uid, err := stampOwner(b.OwnerUID, ownerUID)
	if err != nil {
		return 0, err
	}

	tx, err := s.begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	id := b.ID
	if b.ID != 0 {
		switch err := checkWriteOwner(ctx, tx, "branches", b.ID, uid); {
		case err == nil:
			if _, err2 := tx.Exec(ctx,
				`UPDATE branches SET name = $1, city = $2, address = $3, phone = $4, updated_at = NOW()
				 WHERE id = $5 AND owner_uid = $6`,
				b.Name, b.City, b.Address, b.Phone, b.ID, uid); err2 != nil {
				return 0, fmt.Errorf("update branch: %w", err2)
			}
		case errors.Is(err, ErrNotFound):
			if _, err2 := tx.Exec(ctx,
				`INSERT INTO branches (id, owner_uid, name, city, address, phone)
				 VALUES ($1, $2, $3, $4, $5, $6)`,
				b.ID, uid, b.Name, b.City, b.Address, b.Phone); err2 != nil {
				return 0, fmt.Errorf("insert branch: %w", err2)
			}
			if err2 := syncIDSeq(ctx, tx, "branches"); err2 != nil {
				return 0, err2
			}
		default:
			return 0, err
		}
	} else {
		if err := tx.QueryRow(ctx,
			`INSERT INTO branches (owner_uid, name, city, address, phone)
			 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
			uid, b.Name, b.City, b.Address, b.Phone).Scan(&id); err != nil {
			return 0, fmt.Errorf("insert branch: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit branch upsert: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) DeleteBranch(ctx context.Context, id int64, ownerUID string) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM branches WHERE id = $1 AND owner_uid = $2`, id, ownerUID)
	if err != nil {
		return 0, fmt.Errorf("delete branch: %w", err)
	}
	return tag.RowsAffected(), nil
}

// --- Agents ---

const agentCols = `id, owner_uid, name, phone, commission_rule_id, created_at, updated_at`

func (s *PostgresStore) ListAgents(ctx context.Context, ownerUID string) ([]*models.Agent, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+agentCols+` FROM agents WHERE owner_uid = $1 ORDER BY id`, ownerUID)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	defer rows.Close()

	var out []*models.Agent
	for rows.Next() {
		var a models.Agent
		if err := rows.Scan(&a.ID, &a.OwnerUID, &a.Name, &a.Phone, &a.CommissionRuleID,
			&a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan agent: %w", err)
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

func (s *PostgresStore) GetAgent(ctx context.Context, id int64, ownerUID string) (*models.Agent, error) {
	var a models.Agent
	err := s.pool.QueryRow(ctx,
		`SELECT `+agentCols+` FROM agents WHERE id = $1 AND owner_uid = $2`, id, ownerUID,
	).Scan(&a.ID, &a.OwnerUID, &a.Name, &a.Phone, &a.CommissionRuleID, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get agent: %w", err)
	}
	return &a, nil
}

func (s *PostgresStore) UpsertAgent(ctx context.Context, a *models.Agent, ownerUID string) (int64, error) {
	uid, err := stampOwner(a.OwnerUID, ownerUID)
	if err != nil {
		return 0, err
	}

	tx, err := s.begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	if a.CommissionRuleID != nil {
		if err := checkParentOwner(ctx, tx, "commission_rules", *a.CommissionRuleID, uid); err != nil {
			return 0, err
		}
	}

	id := a.ID
	if a.ID != 0 {
		switch err := checkWriteOwner(ctx, tx, "agents", a.ID, uid); {
		case err == nil:
			if _, err2 := tx.Exec(ctx,
				`UPDATE agents SET name = $1, phone = $2, commission_rule_id = $3, updated_at = NOW()
				 WHERE id = $4 AND owner_uid = $5`,
				a.Name, a.Phone, a.CommissionRuleID, a.ID, uid); err2 != nil {
				return 0, fmt.Errorf("update agent: %w", err2)
			}
		case errors.Is(err, ErrNotFound):
			if _, err2 := tx.Exec(ctx,
				`INSERT INTO agents (id, owner_uid, name, phone, commission_rule_id)
				 VALUES ($1, $2, $3, $4, $5)`,
				a.ID, uid, a.Name, a.Phone, a.CommissionRuleID); err2 != nil {
				return 0, fmt.Errorf("insert agent: %w", err2)
			}
			if err2 := syncIDSeq(ctx, tx, "agents"); err2 != nil {
				return 0, err2
			}
		default:
			return 0, err
		}
	} else {
		if err := tx.QueryRow(ctx,
			`INSERT INTO agents (owner_uid, name, phone, commission_rule_id)
			 VALUES ($1, $2, $3, $4) RETURNING id`,
			uid, a.Name, a.Phone, a.CommissionRuleID).Scan(&id); err != nil {
			return 0, fmt.Errorf("insert agent: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit agent upsert: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) DeleteAgent(ctx context.Context, id int64, ownerUID string) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM agents WHERE id = $1 AND owner_uid = $2`, id, ownerUID)
	if err != nil {
		return 0, fmt.Errorf("delete agent: %w", err)
	}
	return tag.RowsAffected(), nil
}

// --- Commission rules ---

const commissionRuleCols = `id, owner_uid, name, tier, percent, min_deals, created_at, updated_at`

func (s *PostgresStore) ListCommissionRules(ctx context.Context, ownerUID string) ([]*models.CommissionRule, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+commissionRuleCols+` FROM commission_rules WHERE owner_uid = $1 ORDER BY id`, ownerUID)
	if err != nil {
		return nil, fmt.Errorf("list commission rules: %w", err)
	}
	defer rows.Close()

	var out []*models.CommissionRule
	for rows.Next() {
		var r models.CommissionRule
		if err := rows.Scan(&r.ID, &r.OwnerUID, &r.Name, &r.Tier, &r.Percent, &r.MinDeals,
			&r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan commission rule: %w", err)
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}

func (s *PostgresStore) GetCommissionRule(ctx context.Context, id int64, ownerUID string) (*models.CommissionRule, error) {
	var r models.CommissionRule
	err := s.pool.QueryRow(ctx,
		`SELECT `+commissionRuleCols+` FROM commission_rules WHERE id = $1 AND owner_uid = $2`, id, ownerUID,
	).Scan(&r.ID, &r.OwnerUID, &r.Name, &r.Tier, &r.Percent, &r.MinDeals, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get commission rule: %w", err)
	}
	return &r, nil
}

func (s *PostgresStore) UpsertCommissionRule(ctx context.Context, r *models.CommissionRule, ownerUID string) (int64, error) {
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
		switch err := checkWriteOwner(ctx, tx, "commission_rules", r.ID, uid); {
		case err == nil:
			if _, err2 := tx.Exec(ctx,
				`UPDATE commission_rules SET name = $1, tier = $2, percent = $3, min_deals = $4, updated_at = NOW()
				 WHERE id = $5 AND owner_uid = $6`,
				r.Name, r.Tier, r.Percent, r.MinDeals, r.ID, uid); err2 != nil {
				return 0, fmt.Errorf("update commission rule: %w", err2)
			}
		case errors.Is(err, ErrNotFound):
			if _, err2 := tx.Exec(ctx,
				`INSERT INTO commission_rules (id, owner_uid, name, tier, percent, min_deals)
				 VALUES ($1, $2, $3, $4, $5, $6)`,
				r.ID, uid, r.Name, r.Tier, r.Percent, r.MinDeals); err2 != nil {
				return 0, fmt.Errorf("insert commission rule: %w", err2)
			}
			if err2 := syncIDSeq(ctx, tx, "commission_rules"); err2 != nil {
				return 0, err2
			}
		default:
			return 0, err
		}
	} else {
		if err := tx.QueryRow(ctx,
			`INSERT INTO commission_rules (owner_uid, name, tier, percent, min_deals)
			 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
			uid, r.Name, r.Tier, r.Percent, r.MinDeals).Scan(&id); err != nil {
			return 0, fmt.Errorf("insert commission rule: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit commission rule upsert: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) DeleteCommissionRule(ctx context.Context, id int64, ownerUID string) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM commission_rules WHERE id = $1 AND owner_uid = $2`, id, ownerUID)
	if err != nil {
		return 0, fmt.Errorf("delete commission rule: %w", err)
	}
	return tag.RowsAffected(), nil
}
