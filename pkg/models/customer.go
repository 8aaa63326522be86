// Package models contains shared data models used across the CarYard codebase.
//
// Every tenant-scoped entity carries an OwnerUID pointer: nil means the row
// predates the ownership migration and is invisible to scoped reads until the
// backfill claims it. Once set, ownership never changes.
package models

import "time"

// Customer is a renter or buyer on file at the yard.
type Customer struct {
	ID       int64   `db:"id"        json:"id"`
	OwnerUID *string `db:"owner_uid" json:"owner_uid,omitempty"`

	Name     string `db:"name"      json:"name"`
	Phone    string `db:"phone"     json:"phone"`
	Email    string `db:"email"     json:"email,omitempty"`
	IDNumber string `db:"id_number" json:"id_number,omitempty"`
	Address  string `db:"address"   json:"address,omitempty"`
	Notes    string `db:"notes"     json:"notes,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// CardStub holds the non-sensitive tail of a customer's payment card.
// Full card numbers are never stored.
type CardStub struct {
	ID       int64   `db:"id"        json:"id"`
	OwnerUID *string `db:"owner_uid" json:"owner_uid,omitempty"`

	CustomerID int64  `db:"customer_id" json:"customer_id"`
	Brand      string `db:"brand"       json:"brand"`
	Last4      string `db:"last4"       json:"last4"`
	ExpMonth   int    `db:"exp_month"   json:"exp_month"`
	ExpYear    int    `db:"exp_year"    json:"exp_year"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
