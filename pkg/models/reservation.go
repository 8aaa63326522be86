package models

import "time"

const (
	ReservationStatusOpen      = "open"
	ReservationStatusActive    = "active"
	ReservationStatusClosed    = "closed"
	ReservationStatusCancelled = "cancelled"
)

// Reservation is a rental booking: a customer, a car class, a branch, and a
// date range. Payments hang off the reservation and share its owner.
type Reservation struct {
	ID       int64   `db:"id"        json:"id"`
	OwnerUID *string `db:"owner_uid" json:"owner_uid,omitempty"`

	CustomerID int64     `db:"customer_id" json:"customer_id"`
	CarTypeID  int64     `db:"car_type_id" json:"car_type_id"`
	BranchID   *int64    `db:"branch_id"   json:"branch_id,omitempty"`
	StartDate  time.Time `db:"start_date"  json:"start_date"`
	EndDate    time.Time `db:"end_date"    json:"end_date"`
	Status     string    `db:"status"      json:"status"`
	DailyRate  float64   `db:"daily_rate"  json:"daily_rate"`
	Total      float64   `db:"total"       json:"total"`
	Notes      string    `db:"notes"       json:"notes,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Payment is money received against a reservation.
type Payment struct {
	ID       int64   `db:"id"        json:"id"`
	OwnerUID *string `db:"owner_uid" json:"owner_uid,omitempty"`

	ReservationID int64     `db:"reservation_id" json:"reservation_id"`
	Amount        float64   `db:"amount"         json:"amount"`
	Method        string    `db:"method"         json:"method"`
	Reference     string    `db:"reference"      json:"reference,omitempty"`
	PaidAt        time.Time `db:"paid_at"        json:"paid_at"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
