package types

import "strings"

// Address is a postal address block embedded into orders. Country is an
// ISO 3166-1 alpha-2 code.
type Address struct {
	Name       string `gorm:"column:name" json:"name"`
	Line       string `gorm:"column:address" json:"address"`
	City       string `gorm:"column:city" json:"city"`
	Country    string `gorm:"column:country" json:"country"`
	PostalCode string `gorm:"column:postal_code" json:"postal_code"`
}

// IsZero reports whether every field is blank.
func (a Address) IsZero() bool {
	return a.Name == "" && a.Line == "" && a.City == "" && a.Country == "" && a.PostalCode == ""
}

// Normalize trims whitespace and upper-cases the country code.
func (a Address) Normalize() Address {
	return Address{
		Name:       strings.TrimSpace(a.Name),
		Line:       strings.TrimSpace(a.Line),
		City:       strings.TrimSpace(a.City),
		Country:    strings.ToUpper(strings.TrimSpace(a.Country)),
		PostalCode: strings.TrimSpace(a.PostalCode),
	}
}
