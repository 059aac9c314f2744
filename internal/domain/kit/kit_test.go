package kit

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/solarerp/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestKit(t *testing.T) *Kit {
	t.Helper()
	k, err := NewKit(uuid.New(), "Kit 5kWp", "Residencial", decimal.RequireFromString("18990.90"))
	require.NoError(t, err)
	return k
}

func TestNewKit(t *testing.T) {
	k := newTestKit(t)
	assert.Equal(t, "Kit 5kWp", k.Name)
	assert.Equal(t, StockStatusUnknown, k.StockStatus)
	assert.NotNil(t, k.InformationalItems)

	_, err := NewKit(uuid.New(), "  ", "", decimal.Zero)
	assert.Error(t, err)
	_, err = NewKit(uuid.New(), "Kit", "", decimal.NewFromInt(-1))
	assert.Error(t, err)
}

func TestKit_ReplaceLines(t *testing.T) {
	k := newTestKit(t)
	m1, m2 := uuid.New(), uuid.New()

	require.NoError(t, k.ReplaceLines([]LineInput{
		{MaterialID: m1, Quantity: decimal.NewFromInt(10)},
		{MaterialID: m2, Quantity: decimal.NewFromInt(1)},
	}))
	assert.Len(t, k.Items, 2)
	assert.Equal(t, []uuid.UUID{m1, m2}, k.MaterialIDs())

	err := k.ReplaceLines([]LineInput{
		{MaterialID: m1, Quantity: decimal.NewFromInt(1)},
		{MaterialID: m1, Quantity: decimal.NewFromInt(2)},
	})
	assert.Equal(t, "DUPLICATE_LINE", shared.ErrorCode(err))
	assert.Len(t, k.Items, 2, "failed replace keeps previous lines")

	err = k.ReplaceLines([]LineInput{{MaterialID: m1, Quantity: decimal.Zero}})
	assert.Equal(t, "INVALID_QUANTITY", shared.ErrorCode(err))
}

func TestKit_EvaluateStockNeverBlocks(t *testing.T) {
	k := newTestKit(t)
	m1, m2 := uuid.New(), uuid.New()
	require.NoError(t, k.ReplaceLines([]LineInput{
		{MaterialID: m1, Quantity: decimal.NewFromInt(10)},
		{MaterialID: m2, Quantity: decimal.NewFromInt(2)},
	}))

	tests := []struct {
		name   string
		onHand map[uuid.UUID]decimal.Decimal
		want   StockStatus
	}{
		{"all covered", map[uuid.UUID]decimal.Decimal{m1: decimal.NewFromInt(10), m2: decimal.NewFromInt(5)}, StockStatusAvailable},
		{"one short", map[uuid.UUID]decimal.Decimal{m1: decimal.NewFromInt(9), m2: decimal.NewFromInt(5)}, StockStatusPartial},
		{"none", map[uuid.UUID]decimal.Decimal{}, StockStatusUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, k.EvaluateStock(tt.onHand))
		})
	}

	empty := newTestKit(t)
	assert.Equal(t, StockStatusUnknown, empty.EvaluateStock(nil))
}

func TestKit_ReplaceInformationalItems(t *testing.T) {
	k := newTestKit(t)

	require.NoError(t, k.ReplaceInformationalItems(InformationalItems{
		{Type: ItemTypeService, Description: "Instalacao", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(1500), Provider: "Equipe A"},
	}))
	assert.False(t, k.HasQuotedItems)

	require.NoError(t, k.ReplaceInformationalItems(InformationalItems{
		{Type: ItemTypeService, Description: "Instalacao", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(1500)},
		{Type: ItemTypeQuoted, Description: "Estrutura de solo", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(800), Supplier: "Metal Sul"},
	}))
	assert.True(t, k.HasQuotedItems)
	assert.Len(t, k.InformationalItems, 2)

	require.NoError(t, k.ReplaceInformationalItems(nil))
	assert.NotNil(t, k.InformationalItems)
	assert.Empty(t, k.InformationalItems)
	assert.False(t, k.HasQuotedItems)

	err := k.ReplaceInformationalItems(InformationalItems{{Type: "OTHER", Description: "x", Quantity: decimal.NewFromInt(1)}})
	assert.ErrorIs(t, err, shared.ErrInvalidKitItems)
}
