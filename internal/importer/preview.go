package importer

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/caryardhq/caryard/internal/store"
	"github.com/caryardhq/caryard/pkg/models"
)

// Importable entity kinds.
const (
	EntityCustomers = "customers"
	EntityCarTypes  = "car_types"
	EntitySuppliers = "suppliers"
)

// RowResult is the preview verdict for one source row.
type RowResult struct {
	Index  int     `json:"index"`
	Status string  `json:"status"` // valid | warning | error
	Issues []Issue `json:"issues,omitempty"`
}

// Preview is the full result of parsing an upload, produced before any write
// touches live inventory. The decoded entities line up with RowIndexes: only
// rows without errors appear there.
type Preview struct {
	Entity string          `json:"entity"`
	Rows   []RowResult     `json:"rows"`
	Counts store.RunCounts `json:"counts"`

	Customers []models.Customer `json:"-"`
	CarTypes  []models.CarType  `json:"-"`
	Suppliers []models.Supplier `json:"-"`

	RowIndexes []int `json:"-"`
}

// ErrTooManyRows is returned when an upload exceeds the configured row cap.
type ErrTooManyRows struct {
	Max int
}

func (e ErrTooManyRows) Error() string {
	return fmt.Sprintf("import exceeds maximum of %d rows", e.Max)
}

// Parse reads a CSV upload and produces a preview. The first line is the
// header; column names are matched against legacy alias lists, so files from
// older exports decode without manual renaming. Short rows are tolerated:
// missing trailing cells decode as empty optional fields.
func Parse(entity string, r io.Reader, maxRows int) (*Preview, error) {
	switch entity {
	case EntityCustomers, EntityCarTypes, EntitySuppliers:
	default:
		return nil, fmt.Errorf("unsupported import entity: %q", entity)
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty file")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i, h := range header {
		header[i] = normalizeHeader(h)
	}

	p := &Preview{Entity: entity}
	rowIdx := 0
	for {
		cells, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", rowIdx, err)
		}
		if rowIdx >= maxRows {
			return nil, ErrTooManyRows{Max: maxRows}
		}

		rec := record{}
		for i, cell := range cells {
			if i < len(header) {
				rec[header[i]] = cell
			}
		}

		var issues []Issue
		switch entity {
		case EntityCustomers:
			c, is := decodeCustomer(rec)
			issues = is
			if !hasError(is) {
				p.Customers = append(p.Customers, c)
				p.RowIndexes = append(p.RowIndexes, rowIdx)
			}
		case EntityCarTypes:
			ct, is := decodeCarType(rec)
			issues = is
			if !hasError(is) {
				p.CarTypes = append(p.CarTypes, ct)
				p.RowIndexes = append(p.RowIndexes, rowIdx)
			}
		case EntitySuppliers:
			sp, is := decodeSupplier(rec)
			issues = is
			if !hasError(is) {
				p.Suppliers = append(p.Suppliers, sp)
				p.RowIndexes = append(p.RowIndexes, rowIdx)
			}
		}

		result := RowResult{Index: rowIdx, Issues: issues}
		switch {
		case hasError(issues):
			result.Status = "error"
			p.Counts.Error++
		case hasWarning(issues):
			result.Status = "warning"
			p.Counts.Warning++
		default:
			result.Status = "valid"
			p.Counts.Valid++
		}
		p.Counts.Total++
		p.Rows = append(p.Rows, result)
		rowIdx++
	}

	return p, nil
}

// reportCapped returns a copy whose per-row reasons are capped at max problem
// rows. The receiver keeps everything: the full row list feeds the audit
// trail at commit, the cap only trims the API response.
func (p *Preview) reportCapped(max int) *Preview {
	if max <= 0 {
		return p
	}
	capped := *p
	capped.Rows = nil
	reported := 0
	for _, row := range p.Rows {
		if len(row.Issues) > 0 {
			if reported >= max {
				continue
			}
			reported++
		}
		capped.Rows = append(capped.Rows, row)
	}
	return &capped
}

// errorLogs converts the preview's rejected rows into audit entries for the
// commit transaction.
func (p *Preview) errorLogs() []models.ImportRowLog {
	var logs []models.ImportRowLog
	for _, row := range p.Rows {
		if row.Status == "error" {
			logs = append(logs, models.ImportRowLog{
				RowIndex: row.Index,
				Note:     firstError(row.Issues),
			})
		}
	}
	return logs
}

// commitSet packages the preview's committable rows for the store.
func (p *Preview) commitSet() store.CommitSet {
	return store.CommitSet{
		Customers:  p.Customers,
		CarTypes:   p.CarTypes,
		Suppliers:  p.Suppliers,
		RowIndexes: p.RowIndexes,
		ErrorLogs:  p.errorLogs(),
	}
}
