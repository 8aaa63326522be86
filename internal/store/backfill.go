package store

import (
	"context"
	"fmt"
)

// ownedTables is the fixed set of tenant-scoped tables the backfill sweeps.
// import_runs and import_row_logs are created post-migration and only ever
// written with an owner, but they are swept anyway so a restored backup of
// unknown vintage cannot leave orphans.
var ownedTables = []string{
	"customers",
	"suppliers",
	"branches",
	"car_types",
	"commission_rules",
	"agents",
	"reservations",
	"payments",
	"card_stubs",
	"car_sales",
	"requests",
	"settings",
	"import_runs",
	"import_row_logs",
}

// BackfillOwner claims every unowned row for ownerUID in one transaction and
// returns the number of rows claimed per table. Calling it again is a no-op:
// no rows match the NULL predicate after the first successful run. If the
// transaction fails partway nothing is committed and a retry on next sign-in
// is safe.
//
// When several principals share one database, whichever signs in first claims
// all pre-migration rows. Later sign-ins find nothing left to claim.
func (s *PostgresStore) BackfillOwner(ctx context.Context, ownerUID string) (map[string]int64, error) {
	if ownerUID == "" {
		return nil, fmt.Errorf("backfill: owner uid is required")
	}

	tx, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	claimed := make(map[string]int64, len(ownedTables))
	for _, table := range ownedTables {
		tag, err := tx.Exec(ctx,
			fmt.Sprintf(`UPDATE %s SET owner_uid = $1 WHERE owner_uid IS NULL`, table), ownerUID)
		if err != nil {
			return nil, fmt.Errorf("backfill %s: %w", table, err)
		}
		if n := tag.RowsAffected(); n > 0 {
			claimed[table] = n
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit backfill: %w", err)
	}
	return claimed, nil
}
