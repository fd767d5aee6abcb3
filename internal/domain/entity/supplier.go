package entity

import "time"

// Supplier proveedor resuelto por nombre normalizado (NameKey).
type Supplier struct {
	ID            string
	Name          string
	NameKey       string
	TaxID         string // CIF / NIF
	Email         string
	Phone         string
	Address       string
	City          string
	ContactPerson string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
