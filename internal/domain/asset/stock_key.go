package asset

import "fmt"

// StockKey groups interchangeable tires for the stock aggregator
type StockKey struct {
	Size  string
	Brand string
	Model string
	Kind  TireKind
}

// String renders the key for logs and metric attributes
func (k StockKey) String() string {
	return fmt.Sprintf("%s/%s/%s/%s", k.Size, k.Brand, k.Model, k.Kind)
}
