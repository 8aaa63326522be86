package models

import "time"

const (
	RequestStatusNew       = "new"
	RequestStatusContacted = "contacted"
	RequestStatusConverted = "converted"
	RequestStatusDropped   = "dropped"
)

// Request is an inbound lead: someone asking after a car before any
// reservation exists. View counts are tracked out-of-band in the cache.
type Request struct {
	ID       int64   `db:"id"        json:"id"`
	OwnerUID *string `db:"owner_uid" json:"owner_uid,omitempty"`

	CustomerName string `db:"customer_name" json:"customer_name"`
	Phone        string `db:"phone"         json:"phone"`
	RequestedCar string `db:"requested_car" json:"requested_car,omitempty"`
	Status       string `db:"status"        json:"status"`
	Notes        string `db:"notes"         json:"notes,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
