// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer free from
// ORM concerns.
//
// Structure:
//   - base.go: BaseModel and AggregateModel
//   - tire.go: tires and the append-only tire_movements ledger
//   - stock.go: tire_catalog stock counters
//   - purchasing.go: purchase orders, lines and GRNs
//   - retread.go: retread orders, lines and RRNs
//   - finance.go: accounting transactions, journal entries and the supplier ledger
//   - partner.go, identity.go: suppliers and actors
//   - sequence.go: document number counters
package models
