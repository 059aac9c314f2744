package kit

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/solarerp/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInformationalItems_ValueWritesArray(t *testing.T) {
	var nilItems InformationalItems
	v, err := nilItems.Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)

	items := InformationalItems{
		{Type: ItemTypeQuoted, Description: "Inversor 5kW", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(4200), Supplier: "WEG"},
	}
	v, err = items.Value()
	require.NoError(t, err)
	assert.Contains(t, v, `"type":"COTACAO"`)
	assert.Contains(t, v, `"supplier":"WEG"`)

	bad := InformationalItems{{Type: ItemTypeService, Description: "", Quantity: decimal.NewFromInt(1)}}
	_, err = bad.Value()
	assert.ErrorIs(t, err, shared.ErrInvalidKitItems)
}

func TestInformationalItems_Scan(t *testing.T) {
	tests := []struct {
		name    string
		input   interface{}
		wantLen int
		wantErr bool
	}{
		{"nil column", nil, 0, false},
		{"empty array", "[]", 0, false},
		{"array from bytes", []byte(`[{"type":"SERVICO","description":"Projeto","quantity":"1","unit_price":"900"}]`), 1, false},
		{"two items", `[{"type":"SERVICO","description":"A","quantity":1,"unit_price":1},{"type":"COTACAO","description":"B","quantity":2,"unit_price":3,"supplier":"S"}]`, 2, false},
		{"single object", `{"type":"SERVICO","description":"A","quantity":1,"unit_price":1}`, 0, true},
		{"json string", `"[]"`, 0, true},
		{"json null", `null`, 0, true},
		{"empty", ``, 0, true},
		{"unknown tag", `[{"type":"BRINDE","description":"A","quantity":1,"unit_price":1}]`, 0, true},
		{"unknown field", `[{"type":"SERVICO","description":"A","quantity":1,"unit_price":1,"legacy":true}]`, 0, true},
		{"unsupported type", 42, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var items InformationalItems
			err := items.Scan(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, items)
			assert.Len(t, items, tt.wantLen)
		})
	}
}

func TestInformationalItem_Validate(t *testing.T) {
	one := decimal.NewFromInt(1)
	tests := []struct {
		name string
		item InformationalItem
		ok   bool
	}{
		{"quoted with supplier", InformationalItem{Type: ItemTypeQuoted, Description: "x", Quantity: one, UnitPrice: one, Supplier: "s"}, true},
		{"service with provider", InformationalItem{Type: ItemTypeService, Description: "x", Quantity: one, UnitPrice: decimal.Zero, Provider: "p"}, true},
		{"quoted with provider", InformationalItem{Type: ItemTypeQuoted, Description: "x", Quantity: one, Provider: "p"}, false},
		{"service with supplier", InformationalItem{Type: ItemTypeService, Description: "x", Quantity: one, Supplier: "s"}, false},
		{"zero quantity", InformationalItem{Type: ItemTypeService, Description: "x"}, false},
		{"negative price", InformationalItem{Type: ItemTypeService, Description: "x", Quantity: one, UnitPrice: decimal.NewFromInt(-1)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.item.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, shared.ErrInvalidKitItems)
			}
		})
	}
	assert.True(t, InformationalItem{Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(3)}.Total().Equal(decimal.NewFromInt(6)))
}
