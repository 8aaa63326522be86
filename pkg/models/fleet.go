package models

import "time"

// CarType is a rentable vehicle class in the catalog (brand + model + year).
type CarType struct {
	ID       int64   `db:"id"        json:"id"`
	OwnerUID *string `db:"owner_uid" json:"owner_uid,omitempty"`

	Brand        string  `db:"brand"        json:"brand"`
	Model        string  `db:"model"        json:"model"`
	Year         int     `db:"year"         json:"year,omitempty"`
	Transmission string  `db:"transmission" json:"transmission,omitempty"`
	Seats        int     `db:"seats"        json:"seats,omitempty"`
	DailyRate    float64 `db:"daily_rate"   json:"daily_rate"`
	Active       bool    `db:"active"       json:"active"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// CarSale records a completed vehicle sale, optionally credited to an agent.
type CarSale struct {
	ID       int64   `db:"id"        json:"id"`
	OwnerUID *string `db:"owner_uid" json:"owner_uid,omitempty"`

	CarTypeID int64     `db:"car_type_id" json:"car_type_id"`
	AgentID   *int64    `db:"agent_id"    json:"agent_id,omitempty"`
	BuyerName string    `db:"buyer_name"  json:"buyer_name"`
	Price     float64   `db:"price"       json:"price"`
	SoldAt    time.Time `db:"sold_at"     json:"sold_at"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
