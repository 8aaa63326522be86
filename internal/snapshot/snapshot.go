// Package snapshot serializes one owner's complete yard data into a portable
// JSON document and restores it through the scoped data layer.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/caryardhq/caryard/pkg/models"
)

// Version is the current snapshot document version.
const Version = 1

// Snapshot is the portable export document: one array per entity plus the
// settings map. Omitted arrays mean "no rows", not "delete".
type Snapshot struct {
	Version int `json:"version"`

	Customers       []models.Customer       `json:"customers,omitempty"`
	Suppliers       []models.Supplier       `json:"suppliers,omitempty"`
	Branches        []models.Branch         `json:"branches,omitempty"`
	CarTypes        []models.CarType        `json:"car_types,omitempty"`
	CommissionRules []models.CommissionRule `json:"commission_rules,omitempty"`
	Agents          []models.Agent          `json:"agents,omitempty"`
	Reservations    []models.Reservation    `json:"reservations,omitempty"`
	Payments        []models.Payment        `json:"payments,omitempty"`
	CardStubs       []models.CardStub       `json:"card_stubs,omitempty"`
	CarSales        []models.CarSale        `json:"car_sales,omitempty"`
	Requests        []models.Request        `json:"requests,omitempty"`
	Settings        []models.Setting        `json:"settings,omitempty"`
}

// Decode parses a snapshot document. Container keys are matched
// case-insensitively ("Customers", "CUSTOMERS" and "customers" are the same
// array) because older exports were not consistent about casing. Unknown keys
// are ignored. A missing version field is treated as version 1.
func Decode(data []byte) (*Snapshot, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}

	lower := make(map[string]json.RawMessage, len(raw))
	for k, v := range raw {
		lower[strings.ToLower(k)] = v
	}

	snap := &Snapshot{Version: Version}
	if v, ok := lower["version"]; ok {
		if err := json.Unmarshal(v, &snap.Version); err != nil {
			return nil, fmt.Errorf("parse snapshot version: %w", err)
		}
	}
	if snap.Version > Version {
		return nil, fmt.Errorf("unsupported snapshot version %d", snap.Version)
	}

	for key, target := range map[string]any{
		"customers":        &snap.Customers,
		"suppliers":        &snap.Suppliers,
		"branches":         &snap.Branches,
		"car_types":        &snap.CarTypes,
		"commission_rules": &snap.CommissionRules,
		"agents":           &snap.Agents,
		"reservations":     &snap.Reservations,
		"payments":         &snap.Payments,
		"card_stubs":       &snap.CardStubs,
		"car_sales":        &snap.CarSales,
		"requests":         &snap.Requests,
		"settings":         &snap.Settings,
	} {
		if v, ok := lower[key]; ok {
			if err := json.Unmarshal(v, target); err != nil {
				return nil, fmt.Errorf("parse snapshot %s: %w", key, err)
			}
		}
	}

	return snap, nil
}

// Store is the slice of the data layer the snapshot service needs.
type Store interface {
	ListCustomers(ctx context.Context, ownerUID string) ([]*models.Customer, error)
	UpsertCustomer(ctx context.Context, c *models.Customer, ownerUID string) (int64, error)
	ListSuppliers(ctx context.Context, ownerUID string) ([]*models.Supplier, error)
	UpsertSupplier(ctx context.Context, s *models.Supplier, ownerUID string) (int64, error)
	ListBranches(ctx context.Context, ownerUID string) ([]*models.Branch, error)
	UpsertBranch(ctx context.Context, b *models.Branch, ownerUID string) (int64, error)
	ListCarTypes(ctx context.Context, ownerUID string) ([]*models.CarType, error)
	UpsertCarType(ctx context.Context, ct *models.CarType, ownerUID string) (int64, error)
	ListCommissionRules(ctx context.Context, ownerUID string) ([]*models.CommissionRule, error)
	UpsertCommissionRule(ctx context.Context, r *models.CommissionRule, ownerUID string) (int64, error)
	ListAgents(ctx context.Context, ownerUID string) ([]*models.Agent, error)
	UpsertAgent(ctx context.Context, a *models.Agent, ownerUID string) (int64, error)
	ListReservations(ctx context.Context, ownerUID string) ([]*models.Reservation, error)
	UpsertReservation(ctx context.Context, r *models.Reservation, ownerUID string) (int64, error)
	ListPayments(ctx context.Context, ownerUID string) ([]*models.Payment, error)
	UpsertPayment(ctx context.Context, p *models.Payment, ownerUID string) (int64, error)
	ListCardStubs(ctx context.Context, ownerUID string) ([]*models.CardStub, error)
	UpsertCardStub(ctx context.Context, cs *models.CardStub, ownerUID string) (int64, error)
	ListCarSales(ctx context.Context, ownerUID string) ([]*models.CarSale, error)
	UpsertCarSale(ctx context.Context, cs *models.CarSale, ownerUID string) (int64, error)
	ListRequests(ctx context.Context, ownerUID string) ([]*models.Request, error)
	UpsertRequest(ctx context.Context, r *models.Request, ownerUID string) (int64, error)
	ListSettings(ctx context.Context, ownerUID string) ([]*models.Setting, error)
	PutSetting(ctx context.Context, ownerUID, key, value string) error
}

// Service exports and restores snapshots for one owner at a time.
type Service struct {
	store  Store
	logger *slog.Logger
}

func NewService(s Store, logger *slog.Logger) *Service {
	return &Service{store: s, logger: logger}
}

// Export collects everything the owner can see into one document.
func (s *Service) Export(ctx context.Context, ownerUID string) (*Snapshot, error) {
	snap := &Snapshot{Version: Version}

	customers, err := s.store.ListCustomers(ctx, ownerUID)
	if err != nil {
		return nil, err
	}
	for _, c := range customers {
		snap.Customers = append(snap.Customers, *c)
	}

	suppliers, err := s.store.ListSuppliers(ctx, ownerUID)
	if err != nil {
		return nil, err
	}
	for _, sp := range suppliers {
		snap.Suppliers = append(snap.Suppliers, *sp)
	}

	branches, err := s.store.ListBranches(ctx, ownerUID)
	if err != nil {
		return nil, err
	}
	for _, b := range branches {
		snap.Branches = append(snap.Branches, *b)
	}

	carTypes, err := s.store.ListCarTypes(ctx, ownerUID)
	if err != nil {
		return nil, err
	}
	for _, ct := range carTypes {
		snap.CarTypes = append(snap.CarTypes, *ct)
	}

	rules, err := s.store.ListCommissionRules(ctx, ownerUID)
	if err != nil {
		return nil, err
	}
	for _, r := range rules {
		snap.CommissionRules = append(snap.CommissionRules, *r)
	}

	agents, err := s.store.ListAgents(ctx, ownerUID)
	if err != nil {
		return nil, err
	}
	for _, a := range agents {
		snap.Agents = append(snap.Agents, *a)
	}

	reservations, err := s.store.ListReservations(ctx, ownerUID)
	if err != nil {
		return nil, err
	}
	for _, r := range reservations {
		snap.Reservations = append(snap.Reservations, *r)
	}

	payments, err := s.store.ListPayments(ctx, ownerUID)
	if err != nil {
		return nil, err
	}
	for _, p := range payments {
		snap.Payments = append(snap.Payments, *p)
	}

	stubs, err := s.store.ListCardStubs(ctx, ownerUID)
	if err != nil {
		return nil, err
	}
	for _, cs := range stubs {
		snap.CardStubs = append(snap.CardStubs, *cs)
	}

	sales, err := s.store.ListCarSales(ctx, ownerUID)
	if err != nil {
		return nil, err
	}
	for _, cs := range sales {
		snap.CarSales = append(snap.CarSales, *cs)
	}

	requests, err := s.store.ListRequests(ctx, ownerUID)
	if err != nil {
		return nil, err
	}
	for _, r := range requests {
		snap.Requests = append(snap.Requests, *r)
	}

	settings, err := s.store.ListSettings(ctx, ownerUID)
	if err != nil {
		return nil, err
	}
	for _, st := range settings {
		snap.Settings = append(snap.Settings, *st)
	}

	return snap, nil
}

// Result reports how many rows each entity restored.
type Result struct {
	Restored map[string]int `json:"restored"`
}

// Import restores a snapshot through the scoped upsert path. Rows keep their
// original ids, but ownership is re-stamped to the importing owner, so a
// snapshot exported on one account restores cleanly onto another. Entities
// restore in dependency order: parents before the rows that reference them.
func (s *Service) Import(ctx context.Context, ownerUID string, data []byte) (*Result, error) {
	snap, err := Decode(data)
	if err != nil {
		return nil, err
	}

	res := &Result{Restored: make(map[string]int)}
	count := func(entity string, n int) {
		if n > 0 {
			res.Restored[entity] = n
		}
	}

	for i := range snap.Customers {
		c := snap.Customers[i]
		c.OwnerUID = nil
		if _, err := s.store.UpsertCustomer(ctx, &c, ownerUID); err != nil {
			return nil, fmt.Errorf("restore customer %d: %w", c.ID, err)
		}
	}
	count("customers", len(snap.Customers))

	for i := range snap.Suppliers {
		sp := snap.Suppliers[i]
		sp.OwnerUID = nil
		if _, err := s.store.UpsertSupplier(ctx, &sp, ownerUID); err != nil {
			return nil, fmt.Errorf("restore supplier %d: %w", sp.ID, err)
		}
	}
	count("suppliers", len(snap.Suppliers))

	for i := range snap.Branches {
		b := snap.Branches[i]
		b.OwnerUID = nil
		if _, err := s.store.UpsertBranch(ctx, &b, ownerUID); err != nil {
			return nil, fmt.Errorf("restore branch %d: %w", b.ID, err)
		}
	}
	count("branches", len(snap.Branches))

	for i := range snap.CarTypes {
		ct := snap.CarTypes[i]
		ct.OwnerUID = nil
		if _, err := s.store.UpsertCarType(ctx, &ct, ownerUID); err != nil {
			return nil, fmt.Errorf("restore car type %d: %w", ct.ID, err)
		}
	}
	count("car_types", len(snap.CarTypes))

	for i := range snap.CommissionRules {
		r := snap.CommissionRules[i]
		r.OwnerUID = nil
		if _, err := s.store.UpsertCommissionRule(ctx, &r, ownerUID); err != nil {
			return nil, fmt.Errorf("restore commission rule %d: %w", r.ID, err)
		}
	}
	count("commission_rules", len(snap.CommissionRules))

	for i := range snap.Agents {
		a := snap.Agents[i]
		a.OwnerUID = nil
		if _, err := s.store.UpsertAgent(ctx, &a, ownerUID); err != nil {
			return nil, fmt.Errorf("restore agent %d: %w", a.ID, err)
		}
	}
	count("agents", len(snap.Agents))

	for i := range snap.Reservations {
		r := snap.Reservations[i]
		r.OwnerUID = nil
		if _, err := s.store.UpsertReservation(ctx, &r, ownerUID); err != nil {
			return nil, fmt.Errorf("restore reservation %d: %w", r.ID, err)
		}
	}
	count("reservations", len(snap.Reservations))

	for i := range snap.Payments {
		p := snap.Payments[i]
		p.OwnerUID = nil
		if _, err := s.store.UpsertPayment(ctx, &p, ownerUID); err != nil {
			return nil, fmt.Errorf("restore payment %d: %w", p.ID, err)
		}
	}
	count("payments", len(snap.Payments))

	for i := range snap.CardStubs {
		cs := snap.CardStubs[i]
		cs.OwnerUID = nil
		if _, err := s.store.UpsertCardStub(ctx, &cs, ownerUID); err != nil {
			return nil, fmt.Errorf("restore card stub %d: %w", cs.ID, err)
		}
	}
	count("card_stubs", len(snap.CardStubs))

	for i := range snap.CarSales {
		cs := snap.CarSales[i]
		cs.OwnerUID = nil
		if _, err := s.store.UpsertCarSale(ctx, &cs, ownerUID); err != nil {
			return nil, fmt.Errorf("restore car sale %d: %w", cs.ID, err)
		}
	}
	count("car_sales", len(snap.CarSales))

	for i := range snap.Requests {
		r := snap.Requests[i]
		r.OwnerUID = nil
		if _, err := s.store.UpsertRequest(ctx, &r, ownerUID); err != nil {
			return nil, fmt.Errorf("restore request %d: %w", r.ID, err)
		}
	}
	count("requests", len(snap.Requests))

	for _, st := range snap.Settings {
		if err := s.store.PutSetting(ctx, ownerUID, st.Key, st.Value); err != nil {
			return nil, fmt.Errorf("restore setting %q: %w", st.Key, err)
		}
	}
	count("settings", len(snap.Settings))

	s.logger.Info("snapshot restored", "entities", len(res.Restored))
	return res, nil
}
