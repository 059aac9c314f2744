package handler

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	kitapp "github.com/solarerp/backend/internal/application/kit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKitHandler_CRUD(t *testing.T) {
	f := newAPIFixture(t)
	panel := f.createMaterial(t, "Painel 550W", "4")
	inverter := f.createMaterial(t, "Inversor 5kW", "3")

	w := f.do(t, http.MethodPost, "/kits", map[string]any{
		"name":     "Kit 5kWp",
		"category": "Residencial",
		"price":    "18990.90",
		"lines": []map[string]any{
			{"material_id": panel.ID, "quantity": "10"},
			{"material_id": inverter.ID, "quantity": "1"},
		},
		"informational_items": []map[string]any{
			{"type": "COTACAO", "description": "Estrutura de solo", "quantity": "1", "unit_price": "2500", "supplier": "Metal Sul"},
			{"type": "SERVICO", "description": "Instalacao", "quantity": "1", "unit_price": "1800", "provider": "Equipe Norte"},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[kitapp.KitResponse](t, w).Data
	assert.Equal(t, "PARTIAL", created.StockStatus)
	assert.True(t, created.HasQuotedItems)
	require.Len(t, created.Items, 2)
	require.Len(t, created.InformationalItems, 2)
	assert.Equal(t, "Equipe Norte", created.InformationalItems[1].Provider)

	stored, _ := f.materials.Get(panel.ID)
	assert.Equal(t, "4", stored.OnHand.String(), "kits never touch stock")

	path := "/kits/" + created.ID.String()
	w = f.do(t, http.MethodPut, path, map[string]any{
		"name":     "Kit 5kWp Compacto",
		"category": "Residencial",
		"price":    "15000",
		"lines":    []map[string]any{{"material_id": panel.ID, "quantity": "4"}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[kitapp.KitResponse](t, w).Data
	assert.Equal(t, "AVAILABLE", updated.StockStatus)
	assert.False(t, updated.HasQuotedItems)
	assert.Empty(t, updated.InformationalItems)

	w = f.do(t, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Kit 5kWp Compacto", decode[kitapp.KitResponse](t, w).Data.Name)

	w = f.do(t, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = f.do(t, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = f.do(t, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestKitHandler_Rejections(t *testing.T) {
	f := newAPIFixture(t)
	panel := f.createMaterial(t, "Painel 550W", "4")

	tests := []struct {
		name   string
		body   any
		status int
		code   string
	}{
		{
			name: "unknown item type",
			body: map[string]any{"name": "Kit", "informational_items": []map[string]any{
				{"type": "BRINDE", "description": "Camiseta", "quantity": "1"},
			}},
			status: http.StatusUnprocessableEntity,
			code:   "ERR_INVALID_KIT_ITEMS",
		},
		{
			name: "service with a supplier",
			body: map[string]any{"name": "Kit", "informational_items": []map[string]any{
				{"type": "SERVICO", "description": "Instalacao", "quantity": "1", "supplier": "Metal Sul"},
			}},
			status: http.StatusUnprocessableEntity,
			code:   "ERR_INVALID_KIT_ITEMS",
		},
		{
			name:   "informational items not an array",
			body:   `{"name":"Kit","informational_items":{"type":"COTACAO"}}`,
			status: http.StatusBadRequest,
			code:   "ERR_VALIDATION",
		},
		{
			name: "material listed twice",
			body: map[string]any{"name": "Kit", "lines": []map[string]any{
				{"material_id": panel.ID, "quantity": "1"},
				{"material_id": panel.ID, "quantity": "2"},
			}},
			status: http.StatusUnprocessableEntity,
			code:   "ERR_DUPLICATE_LINE",
		},
		{
			name:   "unknown material",
			body:   map[string]any{"name": "Kit", "lines": []map[string]any{{"material_id": uuid.New(), "quantity": "1"}}},
			status: http.StatusNotFound,
			code:   "ERR_NOT_FOUND",
		},
		{
			name:   "line without quantity",
			body:   map[string]any{"name": "Kit", "lines": []map[string]any{{"material_id": panel.ID}}},
			status: http.StatusBadRequest,
			code:   "ERR_VALIDATION",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, http.MethodPost, "/kits", tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, tt.code, errorCode(t, w))
		})
	}
}

func TestKitHandler_ListKits(t *testing.T) {
	f := newAPIFixture(t)
	for _, body := range []map[string]any{
		{"name": "Kit Telhado 3kWp", "category": "Residencial"},
		{"name": "Kit Solo 10kWp", "category": "Comercial"},
		{"name": "Kit Telhado 5kWp", "category": "Residencial"},
	} {
		w := f.do(t, http.MethodPost, "/kits", body)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w := f.do(t, http.MethodGet, "/kits?category=Residencial", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[[]kitapp.KitResponse](t, w)
	assert.Len(t, resp.Data, 2)
	assert.Equal(t, int64(2), resp.Meta.Total)

	w = f.do(t, http.MethodGet, "/kits?search=Solo", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp = decode[[]kitapp.KitResponse](t, w)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "Kit Solo 10kWp", resp.Data[0].Name)

	w = f.do(t, http.MethodGet, "/kits?page_size=101", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
