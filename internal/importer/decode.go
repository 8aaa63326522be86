package importer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/caryardhq/caryard/pkg/models"
)

// Issue is one validation finding on one row. Warnings are advisory and the
// row still commits; a single error excludes the row.
type Issue struct {
	Field    string `json:"field"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

const (
	SeverityWarning = "warning"
	SeverityError   = "error"
)

func warnIssue(field, format string, args ...any) Issue {
	return Issue{Field: field, Severity: SeverityWarning, Message: fmt.Sprintf(format, args...)}
}

func errIssue(field, format string, args ...any) Issue {
	return Issue{Field: field, Severity: SeverityError, Message: fmt.Sprintf(format, args...)}
}

// record is one CSV row keyed by normalized header name.
type record map[string]string

// pick resolves a logical field against its legacy source keys, in priority
// order. Older exports used different column names for the same attribute;
// the first present non-empty key wins.
func (r record) pick(aliases ...string) (string, bool) {
	for _, key := range aliases {
		if v, ok := r[key]; ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), true
		}
	}
	return "", false
}

// normalizeHeader lowercases and underscores a CSV header cell so that
// "Daily Rate", "daily-rate" and "DAILY_RATE" all resolve to "daily_rate".
func normalizeHeader(h string) string {
	h = strings.TrimSpace(strings.ToLower(h))
	h = strings.ReplaceAll(h, " ", "_")
	h = strings.ReplaceAll(h, "-", "_")
	return h
}

// coerceInt accepts plain integers, numeric strings with junk characters
// ("1,200", "5 seats"), and 0/1 booleans.
func coerceInt(raw string) (int, error) {
	cleaned := stripNonNumeric(raw, false)
	if cleaned == "" {
		return 0, fmt.Errorf("not a number: %q", raw)
	}
	n, err := strconv.Atoi(cleaned)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", raw)
	}
	return n, nil
}

// coerceFloat accepts plain numbers and numeric strings with currency or
// grouping characters ("$150.00", "1,200.50").
func coerceFloat(raw string) (float64, error) {
	cleaned := stripNonNumeric(raw, true)
	if cleaned == "" {
		return 0, fmt.Errorf("not a number: %q", raw)
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", raw)
	}
	return f, nil
}

// coerceBool accepts true/false, yes/no, and 0/1.
func coerceBool(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "yes", "1":
		return true, nil
	case "false", "no", "0":
		return false, nil
	}
	return false, fmt.Errorf("not a boolean: %q", raw)
}

// stripNonNumeric keeps digits, an optional leading minus, and (for floats)
// the first decimal point.
func stripNonNumeric(raw string, allowDot bool) string {
	var b strings.Builder
	dotSeen := false
	for i, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' && i == 0:
			b.WriteRune(r)
		case r == '.' && allowDot && !dotSeen:
			dotSeen = true
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Source-key alias tables. Order is priority: the canonical name first, then
// legacy spellings seen in older spreadsheet exports.
var (
	customerNameKeys  = []string{"name", "customer_name", "full_name"}
	customerPhoneKeys = []string{"phone", "phone_number", "mobile", "tel"}
	customerEmailKeys = []string{"email", "mail", "email_address"}
	customerIDKeys    = []string{"id_number", "national_id", "identity"}
	customerAddrKeys  = []string{"address", "addr", "city"}
	customerNotesKeys = []string{"notes", "comments", "remarks"}

	carTypeBrandKeys  = []string{"brand", "make", "manufacturer"}
	carTypeModelKeys  = []string{"model", "car_model"}
	carTypeYearKeys   = []string{"year", "model_year"}
	carTypeTransKeys  = []string{"transmission", "gearbox", "gear"}
	carTypeSeatsKeys  = []string{"seats", "seat_count", "num_seats"}
	carTypeRateKeys   = []string{"daily_rate", "rate", "price_per_day", "price"}
	carTypeActiveKeys = []string{"active", "is_active", "available"}

	supplierNameKeys    = []string{"name", "supplier_name", "company"}
	supplierPhoneKeys   = []string{"phone", "phone_number", "tel"}
	supplierContactKeys = []string{"contact_name", "contact", "contact_person"}
	supplierCatKeys     = []string{"category", "type", "kind"}
	supplierNotesKeys   = []string{"notes", "comments", "remarks"}
)

func decodeCustomer(rec record) (models.Customer, []Issue) {
	var c models.Customer
	var issues []Issue

	name, ok := rec.pick(customerNameKeys...)
	if !ok {
		issues = append(issues, errIssue("name", "missing required field: name"))
	}
	c.Name = name

	c.Phone, _ = rec.pick(customerPhoneKeys...)
	c.Email, _ = rec.pick(customerEmailKeys...)
	c.Address, _ = rec.pick(customerAddrKeys...)
	c.Notes, _ = rec.pick(customerNotesKeys...)

	if idNum, ok := rec.pick(customerIDKeys...); ok {
		// National id numbers sometimes arrive as numerics with grouping
		// characters. Keep the digits only.
		cleaned := stripNonNumeric(idNum, false)
		if cleaned != idNum {
			issues = append(issues, warnIssue("id_number", "id number %q normalized to %q", idNum, cleaned))
		}
		c.IDNumber = cleaned
	}

	return c, issues
}

func decodeCarType(rec record) (models.CarType, []Issue) {
	var ct models.CarType
	var issues []Issue

	brand, ok := rec.pick(carTypeBrandKeys...)
	if !ok {
		issues = append(issues, errIssue("brand", "missing required field: brand"))
	}
	ct.Brand = brand

	model, ok := rec.pick(carTypeModelKeys...)
	if !ok {
		issues = append(issues, errIssue("model", "missing required field: model"))
	}
	ct.Model = model

	if raw, ok := rec.pick(carTypeYearKeys...); ok {
		year, err := coerceInt(raw)
		if err != nil {
			issues = append(issues, warnIssue("year", "unparseable year %q, defaulting to 0", raw))
		} else {
			ct.Year = year
		}
	}

	ct.Transmission, _ = rec.pick(carTypeTransKeys...)

	ct.Seats = 5
	if raw, ok := rec.pick(carTypeSeatsKeys...); ok {
		seats, err := coerceInt(raw)
		if err != nil {
			issues = append(issues, warnIssue("seats", "unparseable seats %q, defaulting to 5", raw))
		} else {
			ct.Seats = seats
		}
	}

	if raw, ok := rec.pick(carTypeRateKeys...); ok {
		rate, err := coerceFloat(raw)
		if err != nil {
			issues = append(issues, errIssue("daily_rate", "unparseable daily rate %q", raw))
		} else {
			ct.DailyRate = rate
			if cleaned := stripNonNumeric(raw, true); cleaned != strings.TrimSpace(raw) {
				issues = append(issues, warnIssue("daily_rate", "daily rate %q coerced to %v", raw, rate))
			}
		}
	} else {
		issues = append(issues, errIssue("daily_rate", "missing required field: daily_rate"))
	}

	ct.Active = true
	if raw, ok := rec.pick(carTypeActiveKeys...); ok {
		active, err := coerceBool(raw)
		if err != nil {
			issues = append(issues, warnIssue("active", "unparseable active flag %q, defaulting to true", raw))
		} else {
			ct.Active = active
		}
	}

	return ct, issues
}

func decodeSupplier(rec record) (models.Supplier, []Issue) {
	var sp models.Supplier
	var issues []Issue

	name, ok := rec.pick(supplierNameKeys...)
	if !ok {
		issues = append(issues, errIssue("name", "missing required field: name"))
	}
	sp.Name = name

	sp.Phone, _ = rec.pick(supplierPhoneKeys...)
	sp.ContactName, _ = rec.pick(supplierContactKeys...)
	sp.Category, _ = rec.pick(supplierCatKeys...)
	sp.Notes, _ = rec.pick(supplierNotesKeys...)

	return sp, issues
}

func hasError(issues []Issue) bool {
	for _, is := range issues {
		if is.Severity == SeverityError {
			return true
		}
	}
	return false
}

func hasWarning(issues []Issue) bool {
	for _, is := range issues {
		if is.Severity == SeverityWarning {
			return true
		}
	}
	return false
}

func firstError(issues []Issue) string {
	for _, is := range issues {
		if is.Severity == SeverityError {
			return is.Message
		}
	}
	return ""
}
