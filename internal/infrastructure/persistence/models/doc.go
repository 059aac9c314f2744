// Package models contains GORM persistence models that map to database tables.
// Domain entities carry no ORM tags; each model converts to and from its
// domain type with ToDomain and a FromDomain constructor.
//
// Structure:
//   - base.go: shared id, version and tenant columns
//   - stock.go: materials and stock movements
//   - project.go: quotes, projects, construction sites and tasks
//   - sales.go: sales and receivables
//   - kit.go: kits and kit line items
package models
