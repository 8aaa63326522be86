package models

import "time"

// Setting is a per-owner key/value preference. Keys are unique per owner and
// the whole set round-trips through JSON and CSV export.
type Setting struct {
	ID       int64   `db:"id"        json:"id"`
	OwnerUID *string `db:"owner_uid" json:"owner_uid,omitempty"`

	Key   string `db:"key"   json:"key"`
	Value string `db:"value" json:"value"`

	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
