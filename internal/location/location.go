// Package location holds the processing-location reference data attached to
// order tracking entries. The data is read-only for the order core.
package location

import "fmt"

type Type string

const (
	TypeWarehouse        Type = "warehouse"
	TypeProcessingCenter Type = "processing_center"
	TypeShippingCenter   Type = "shipping_center"
)

type Location struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Address    string `json:"address"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	Type       Type   `json:"type"`
}

// Label is the form recorded on tracking entries.
func (l Location) Label() string {
	return fmt.Sprintf("%s, %s", l.Name, l.City)
}
