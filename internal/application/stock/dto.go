package stock

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/solarerp/backend/internal/domain/stock"
)

// MaterialResponse represents a material in API responses
type MaterialResponse struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	Unit          string          `json:"unit"`
	OnHand        decimal.Decimal `json:"on_hand"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	SalePrice     decimal.Decimal `json:"sale_price"`
	Version       int             `json:"version"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// ToMaterialResponse converts a domain material to a response
func ToMaterialResponse(m *stock.Material) MaterialResponse {
	return MaterialResponse{
		ID:            m.ID,
		Name:          m.Name,
		Unit:          m.Unit,
		OnHand:        m.OnHand,
		PurchasePrice: m.PurchasePrice,
		SalePrice:     m.SalePrice,
		Version:       m.Version,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

// MovementResponse represents a stock movement in API responses
type MovementResponse struct {
	ID            uuid.UUID       `json:"id"`
	MaterialID    uuid.UUID       `json:"material_id"`
	Direction     string          `json:"direction"`
	Kind          string          `json:"kind"`
	Quantity      decimal.Decimal `json:"quantity"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	ReasonDetail  string          `json:"reason_detail"`
	ReferenceID   uuid.UUID       `json:"reference_id"`
	ReferenceType string          `json:"reference_type"`
	Notes         string          `json:"notes,omitempty"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// ToMovementResponse converts a domain movement to a response
func ToMovementResponse(mv *stock.StockMovement) MovementResponse {
	return MovementResponse{
		ID:            mv.ID,
		MaterialID:    mv.MaterialID,
		Direction:     string(mv.Direction),
		Kind:          string(mv.Kind),
		Quantity:      mv.Quantity,
		BalanceAfter:  mv.BalanceAfter,
		ReasonDetail:  mv.ReasonDetail,
		ReferenceID:   mv.ReferenceID,
		ReferenceType: string(mv.ReferenceType),
		Notes:         mv.Notes,
		OccurredAt:    mv.OccurredAt,
	}
}

// AllocationResponse is the outcome of allocating a material to a project
type AllocationResponse struct {
	Material MaterialResponse `json:"material"`
	Movement MovementResponse `json:"movement"`
}

// AllocatedMaterialResponse is one allocation of a project with a snapshot of the material.
// Reversed allocations stay listed for audit with Reversed set.
type AllocatedMaterialResponse struct {
	Movement   MovementResponse  `json:"movement"`
	Material   *MaterialResponse `json:"material,omitempty"`
	Reversed   bool              `json:"reversed"`
	ReversedAt *time.Time        `json:"reversed_at,omitempty"`
}

// CreateMaterialInput creates a material with optional opening stock
type CreateMaterialInput struct {
	Name           string
	Unit           string
	PurchasePrice  decimal.Decimal
	SalePrice      decimal.Decimal
	InitialOnHand  decimal.Decimal
	OpeningComment string
}

// UpdatePricesInput updates material prices
type UpdatePricesInput struct {
	PurchasePrice decimal.Decimal
	SalePrice     decimal.Decimal
}

// AdjustStockInput books a manual credit or debit
type AdjustStockInput struct {
	Direction stock.Direction
	Quantity  decimal.Decimal
	Reason    string
	Notes     string
}

// AllocateMaterialInput commits a material to a project
type AllocateMaterialInput struct {
	ProjectID  uuid.UUID
	MaterialID uuid.UUID
	Quantity   decimal.Decimal
	QuoteID    *uuid.UUID
	Notes      string
}

// MaterialListFilter filters material listings
type MaterialListFilter struct {
	Search   string
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
}
