package snapshot

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/caryardhq/caryard/pkg/models"
)

// Fixed CSV headers, one file per entity. Header order is part of the export
// contract and never changes.
var csvHeaders = map[string][]string{
	"customers": {"id", "name", "phone", "email", "id_number", "address", "notes"},
	"suppliers": {"id", "name", "phone", "contact_name", "category", "notes"},
	"car_types": {"id", "brand", "model", "year", "transmission", "seats", "daily_rate", "active"},
	"requests":  {"id", "customer_name", "phone", "requested_car", "status", "notes"},
	"settings":  {"key", "value"},
}

// CSVEntities lists the entity kinds that export to CSV.
func CSVEntities() []string {
	return []string{"customers", "suppliers", "car_types", "requests", "settings"}
}

// WriteCSV renders one entity's rows from a snapshot as CSV.
func WriteCSV(w io.Writer, entity string, snap *Snapshot) error {
	header, ok := csvHeaders[entity]
	if !ok {
		return fmt.Errorf("no csv export for entity %q", entity)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}

	switch entity {
	case "customers":
		for _, c := range snap.Customers {
			if err := cw.Write([]string{
				strconv.FormatInt(c.ID, 10), c.Name, c.Phone, c.Email, c.IDNumber, c.Address, c.Notes,
			}); err != nil {
				return err
			}
		}
	case "suppliers":
		for _, s := range snap.Suppliers {
			if err := cw.Write([]string{
				strconv.FormatInt(s.ID, 10), s.Name, s.Phone, s.ContactName, s.Category, s.Notes,
			}); err != nil {
				return err
			}
		}
	case "car_types":
		for _, ct := range snap.CarTypes {
			if err := cw.Write([]string{
				strconv.FormatInt(ct.ID, 10), ct.Brand, ct.Model,
				strconv.Itoa(ct.Year), ct.Transmission, strconv.Itoa(ct.Seats),
				strconv.FormatFloat(ct.DailyRate, 'f', -1, 64), strconv.FormatBool(ct.Active),
			}); err != nil {
				return err
			}
		}
	case "requests":
		for _, r := range snap.Requests {
			if err := cw.Write([]string{
				strconv.FormatInt(r.ID, 10), r.CustomerName, r.Phone, r.RequestedCar, r.Status, r.Notes,
			}); err != nil {
				return err
			}
		}
	case "settings":
		for _, st := range snap.Settings {
			if err := cw.Write([]string{st.Key, st.Value}); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadSettingsCSV parses a settings CSV back into key/value pairs. Rows with
// a missing value cell default to the empty string; rows with no key are
// skipped.
func ReadSettingsCSV(r io.Reader) ([]models.Setting, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty file")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) < 1 || header[0] != "key" {
		return nil, fmt.Errorf("unexpected settings header: %v", header)
	}

	var out []models.Setting
	for {
		cells, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(cells) == 0 || cells[0] == "" {
			continue
		}
		st := models.Setting{Key: cells[0]}
		if len(cells) > 1 {
			st.Value = cells[1]
		}
		out = append(out, st)
	}
	return out, nil
}
