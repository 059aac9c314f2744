package kit

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/solarerp/backend/internal/domain/kit"
)

// KitInput carries the full state of a kit on create and update
type KitInput struct {
	Name               string
	Category           string
	Price              decimal.Decimal
	Lines              []kit.LineInput
	InformationalItems kit.InformationalItems
}

// KitListFilter filters kit listings
type KitListFilter struct {
	Category string
	Search   string
	Page     int
	PageSize int
}

// LineItemResponse is a real kit line with the material it draws from
type LineItemResponse struct {
	ID           uuid.UUID       `json:"id"`
	MaterialID   uuid.UUID       `json:"material_id"`
	MaterialName string          `json:"material_name,omitempty"`
	Unit         string          `json:"unit,omitempty"`
	Quantity     decimal.Decimal `json:"quantity"`
	OnHand       decimal.Decimal `json:"on_hand"`
}

// KitResponse represents a kit in API responses
type KitResponse struct {
	ID                 uuid.UUID               `json:"id"`
	Name               string                  `json:"name"`
	Category           string                  `json:"category,omitempty"`
	Price              decimal.Decimal         `json:"price"`
	Items              []LineItemResponse      `json:"items"`
	InformationalItems []kit.InformationalItem `json:"informational_items"`
	HasQuotedItems     bool                    `json:"has_quoted_items"`
	StockStatus        string                  `json:"stock_status"`
	CreatedAt          time.Time               `json:"created_at"`
	UpdatedAt          time.Time               `json:"updated_at"`
}
