package models

import "time"

// Supplier is an upstream vendor (garages, parts, detailing, towing).
type Supplier struct {
	ID       int64   `db:"id"        json:"id"`
	OwnerUID *string `db:"owner_uid" json:"owner_uid,omitempty"`

	Name        string `db:"name"         json:"name"`
	Phone       string `db:"phone"        json:"phone"`
	ContactName string `db:"contact_name" json:"contact_name,omitempty"`
	Category    string `db:"category"     json:"category,omitempty"`
	Notes       string `db:"notes"        json:"notes,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Branch is a physical yard location cars are picked up from and returned to.
type Branch struct {
	ID       int64   `db:"id"        json:"id"`
	OwnerUID *string `db:"owner_uid" json:"owner_uid,omitempty"`

	Name    string `db:"name"    json:"name"`
	City    string `db:"city"    json:"city"`
	Address string `db:"address" json:"address,omitempty"`
	Phone   string `db:"phone"   json:"phone,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Agent is a salesperson credited with deals for commission purposes.
type Agent struct {
	ID       int64   `db:"id"        json:"id"`
	OwnerUID *string `db:"owner_uid" json:"owner_uid,omitempty"`

	Name             string `db:"name"               json:"name"`
	Phone            string `db:"phone"              json:"phone,omitempty"`
	CommissionRuleID *int64 `db:"commission_rule_id" json:"commission_rule_id,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// CommissionRule is a tiered commission configuration applied to agents.
type CommissionRule struct {
	ID       int64   `db:"id"        json:"id"`
	OwnerUID *string `db:"owner_uid" json:"owner_uid,omitempty"`

	Name     string  `db:"name"      json:"name"`
	Tier     string  `db:"tier"      json:"tier"`
	Percent  float64 `db:"percent"   json:"percent"`
	MinDeals int     `db:"min_deals" json:"min_deals"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
