// Package store is the exclusive gateway between application logic and
// tenant-scoped storage. Every query it emits carries an equality predicate
// on owner_uid; there is no code path that can express an unscoped read or
// write against a tenant table.
package store

import (
	"context"
	"errors"

	"github.com/caryardhq/caryard/pkg/models"
	"github.com/google/uuid"
)

var (
	// ErrNotFound covers both truly absent rows and rows owned by someone
	// else: through this layer they are indistinguishable.
	ErrNotFound = errors.New("resource not found")
	// ErrOwnershipMismatch means a write targeted a row whose stored owner
	// differs from the caller. Ownership is never silently reassigned.
	ErrOwnershipMismatch = errors.New("ownership mismatch")
	ErrDuplicateKey      = errors.New("duplicate key violation")
)

// Store is the data access contract. All database operations go through here.
type Store interface {
	Ping(ctx context.Context) error

	GetAPIKeyByPrefix(ctx context.Context, prefix string) ([]*models.APIKey, error)
	UpdateAPIKeyLastUsed(ctx context.Context, id uuid.UUID) error
	CreateAPIKey(ctx context.Context, key *models.APIKey) error
	ListAPIKeys(ctx context.Context, ownerUID string) ([]*models.APIKey, error)
	RevokeAPIKey(ctx context.Context, id uuid.UUID, ownerUID string) error

	ListCustomers(ctx context.Context, ownerUID string) ([]*models.Customer, error)
	GetCustomer(ctx context.Context, id int64, ownerUID string) (*models.Customer, error)
	UpsertCustomer(ctx context.Context, c *models.Customer, ownerUID string) (int64, error)
	DeleteCustomer(ctx context.Context, id int64, ownerUID string) (int64, error)

	ListSuppliers(ctx context.Context, ownerUID string) ([]*models.Supplier, error)
	GetSupplier(ctx context.Context, id int64, ownerUID string) (*models.Supplier, error)
	UpsertSupplier(ctx context.Context, s *models.Supplier, ownerUID string) (int64, error)
	DeleteSupplier(ctx context.Context, id int64, ownerUID string) (int64, error)

	ListBranches(ctx context.Context, ownerUID string) ([]*models.Branch, error)
	GetBranch(ctx context.Context, id int64, ownerUID string) (*models.Branch, error)
	UpsertBranch(ctx context.Context, b *models.Branch, ownerUID string) (int64, error)
	DeleteBranch(ctx context.Context, id int64, ownerUID string) (int64, error)

	ListCarTypes(ctx context.Context, ownerUID string) ([]*models.CarType, error)
	GetCarType(ctx context.Context, id int64, ownerUID string) (*models.CarType, error)
	UpsertCarType(ctx context.Context, ct *models.CarType, ownerUID string) (int64, error)
	DeleteCarType(ctx context.Context, id int64, ownerUID string) (int64, error)

	ListCommissionRules(ctx context.Context, ownerUID string) ([]*models.CommissionRule, error)
	GetCommissionRule(ctx context.Context, id int64, ownerUID string) (*models.CommissionRule, error)
	UpsertCommissionRule(ctx context.Context, r *models.CommissionRule, ownerUID string) (int64, error)
	DeleteCommissionRule(ctx context.Context, id int64, ownerUID string) (int64, error)

	ListAgents(ctx context.Context, ownerUID string) ([]*models.Agent, error)
	GetAgent(ctx context.Context, id int64, ownerUID string) (*models.Agent, error)
	UpsertAgent(ctx context.Context, a *models.Agent, ownerUID string) (int64, error)
	DeleteAgent(ctx context.Context, id int64, ownerUID string) (int64, error)

	ListReservations(ctx context.Context, ownerUID string) ([]*models.Reservation, error)
	GetReservation(ctx context.Context, id int64, ownerUID string) (*models.Reservation, error)
	UpsertReservation(ctx context.Context, r *models.Reservation, ownerUID string) (int64, error)
	DeleteReservation(ctx context.Context, id int64, ownerUID string) (int64, error)

	ListPayments(ctx context.Context, ownerUID string) ([]*models.Payment, error)
	GetPayment(ctx context.Context, id int64, ownerUID string) (*models.Payment, error)
	UpsertPayment(ctx context.Context, p *models.Payment, ownerUID string) (int64, error)
	DeletePayment(ctx context.Context, id int64, ownerUID string) (int64, error)

	ListCardStubs(ctx context.Context, ownerUID string) ([]*models.CardStub, error)
	GetCardStub(ctx context.Context, id int64, ownerUID string) (*models.CardStub, error)
	UpsertCardStub(ctx context.Context, cs *models.CardStub, ownerUID string) (int64, error)
	DeleteCardStub(ctx context.Context, id int64, ownerUID string) (int64, error)

	ListCarSales(ctx context.Context, ownerUID string) ([]*models.CarSale, error)
	GetCarSale(ctx context.Context, id int64, ownerUID string) (*models.CarSale, error)
	UpsertCarSale(ctx context.Context, cs *models.CarSale, ownerUID string) (int64, error)
	DeleteCarSale(ctx context.Context, id int64, ownerUID string) (int64, error)

	ListRequests(ctx context.Context, ownerUID string) ([]*models.Request, error)
	GetRequest(ctx context.Context, id int64, ownerUID string) (*models.Request, error)
	UpsertRequest(ctx context.Context, r *models.Request, ownerUID string) (int64, error)
	DeleteRequest(ctx context.Context, id int64, ownerUID string) (int64, error)

	ListSettings(ctx context.Context, ownerUID string) ([]*models.Setting, error)
	PutSetting(ctx context.Context, ownerUID, key, value string) error
	DeleteSetting(ctx context.Context, ownerUID, key string) (int64, error)

	CreateImportRun(ctx context.Context, run *models.ImportRun) error
	GetImportRun(ctx context.Context, id uuid.UUID, ownerUID string) (*models.ImportRun, error)
	ListImportRuns(ctx context.Context, ownerUID string) ([]*models.ImportRun, error)
	UpdateImportRunStatus(ctx context.Context, id uuid.UUID, ownerUID, status string, opts ...RunUpdateOption) error
	ListImportRowLogs(ctx context.Context, runID uuid.UUID, ownerUID string) ([]*models.ImportRowLog, error)
	CommitImport(ctx context.Context, runID uuid.UUID, ownerUID string, set CommitSet) (*models.ImportRun, error)

	BackfillOwner(ctx context.Context, ownerUID string) (map[string]int64, error)
}

// CommitSet carries the validated rows of one import run, ready to be
// reconciled into live inventory in a single transaction. Exactly one of the
// entity slices is populated, matching the run's entity kind. ErrorLogs holds
// the audit entries for rows excluded during preview.
type CommitSet struct {
	Customers []models.Customer
	CarTypes  []models.CarType
	Suppliers []models.Supplier

	// RowIndexes aligns 1:1 with the populated entity slice.
	RowIndexes []int
	ErrorLogs  []models.ImportRowLog
}

type runUpdateParams struct {
	ErrorMessage *string
	Counts       *RunCounts
}

// RunCounts is the preview summary stamped onto a run.
type RunCounts struct {
	Total, Valid, Warning, Error int
}

type RunUpdateOption func(*runUpdateParams)

func WithRunError(msg string) RunUpdateOption {
	return func(p *runUpdateParams) {
		p.ErrorMessage = &msg
	}
}

func WithRunCounts(c RunCounts) RunUpdateOption {
	return func(p *runUpdateParams) {
		p.Counts = &c
	}
}
