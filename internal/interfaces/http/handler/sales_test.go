package handler

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	salesapp "github.com/solarerp/backend/internal/application/sales"
	"github.com/solarerp/backend/internal/domain/project"
	"github.com/solarerp/backend/internal/infrastructure/export"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *apiFixture) realize(t *testing.T, q *project.Quote, body map[string]any) salesapp.SaleDetailResponse {
	t.Helper()
	body["quote_id"] = q.ID
	w := f.do(t, http.MethodPost, "/sales", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[salesapp.SaleDetailResponse](t, w).Data
}

func entryPlan() map[string]any {
	return map[string]any{
		"total_amount":      "10000",
		"payment_method":    "INSTALLMENT",
		"installment_count": 3,
		"entry_amount":      "3000",
		"first_due_date":    "2026-11-10",
		"site_address":      "Rua das Flores 100",
	}
}

func TestSalesHandler_RealizeSale(t *testing.T) {
	f := newAPIFixture(t)
	q := f.approvedQuote(t, 10000)

	detail := f.realize(t, q, entryPlan())
	assert.Equal(t, "PENDING", detail.Sale.Status)
	assert.Equal(t, q.ClientID, detail.Sale.ClientID)
	require.NotNil(t, detail.Sale.ProjectID)

	require.Len(t, detail.Receivables, 4)
	assert.True(t, detail.Receivables[0].IsEntry)
	want := []string{"3000.00", "2333.33", "2333.33", "2333.34"}
	for i, r := range detail.Receivables {
		assert.Equal(t, want[i], r.Amount.StringFixed(2))
		assert.Equal(t, "PENDING", r.Status)
	}

	w := f.do(t, http.MethodPost, "/sales", map[string]any{
		"quote_id": q.ID, "total_amount": "10000", "payment_method": "CASH", "installment_count": 1,
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "ERR_DUPLICATE_SALE", errorCode(t, w))
	assert.Equal(t, 1, f.sales.Len())
}

func TestSalesHandler_RealizeSaleRejections(t *testing.T) {
	f := newAPIFixture(t)
	q := f.approvedQuote(t, 5000)

	tests := []struct {
		name   string
		body   map[string]any
		status int
		code   string
	}{
		{
			name:   "cash split in three",
			body:   map[string]any{"quote_id": q.ID, "total_amount": "5000", "payment_method": "CASH", "installment_count": 3},
			status: http.StatusUnprocessableEntity,
			code:   "ERR_INVALID_INSTALLMENT_PLAN",
		},
		{
			name:   "entry covers the total",
			body:   map[string]any{"quote_id": q.ID, "total_amount": "5000", "payment_method": "INSTALLMENT", "installment_count": 2, "entry_amount": "5000"},
			status: http.StatusUnprocessableEntity,
			code:   "ERR_INVALID_INSTALLMENT_PLAN",
		},
		{
			name:   "unknown quote",
			body:   map[string]any{"quote_id": uuid.New(), "total_amount": "5000", "payment_method": "CASH", "installment_count": 1},
			status: http.StatusNotFound,
			code:   "ERR_NOT_FOUND",
		},
		{
			name:   "unknown payment method",
			body:   map[string]any{"quote_id": q.ID, "total_amount": "5000", "payment_method": "BARTER", "installment_count": 1},
			status: http.StatusBadRequest,
			code:   "ERR_VALIDATION",
		},
		{
			name:   "zero total",
			body:   map[string]any{"quote_id": q.ID, "total_amount": "0", "payment_method": "CASH", "installment_count": 1},
			status: http.StatusBadRequest,
			code:   "ERR_VALIDATION",
		},
		{
			name:   "too many installments",
			body:   map[string]any{"quote_id": q.ID, "total_amount": "5000", "payment_method": "INSTALLMENT", "installment_count": 121},
			status: http.StatusBadRequest,
			code:   "ERR_VALIDATION",
		},
		{
			name:   "malformed due date",
			body:   map[string]any{"quote_id": q.ID, "total_amount": "5000", "payment_method": "INSTALLMENT", "installment_count": 2, "first_due_date": "10/11/2026"},
			status: http.StatusBadRequest,
			code:   "ERR_VALIDATION",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, http.MethodPost, "/sales", tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, tt.code, errorCode(t, w))
		})
	}
	assert.Equal(t, 0, f.sales.Len())
}

func TestSalesHandler_SettlementLifecycle(t *testing.T) {
	f := newAPIFixture(t)
	detail := f.realize(t, f.approvedQuote(t, 10000), entryPlan())
	salePath := "/sales/" + detail.Sale.ID.String()

	w := f.do(t, http.MethodDelete, salePath, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "ERR_OUTSTANDING_RECEIVABLES", errorCode(t, w))

	// the empty-body pay uses the current time
	w = f.do(t, http.MethodPost, "/receivables/"+detail.Receivables[0].ID.String()+"/pay", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	paid := decode[salesapp.ReceivableResponse](t, w).Data
	assert.Equal(t, "PAID", paid.Status)
	require.NotNil(t, paid.PaidAt)

	for _, r := range detail.Receivables[1:] {
		w = f.do(t, http.MethodPost, "/receivables/"+r.ID.String()+"/pay", map[string]any{
			"paid_at": "2026-11-09T14:00:00Z",
			"notes":   "pix",
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	w = f.do(t, http.MethodGet, salePath, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[salesapp.SaleDetailResponse](t, w).Data
	assert.Equal(t, "COMPLETED", got.Sale.Status)
	assert.NotNil(t, got.Sale.CompletedAt)

	w = f.do(t, http.MethodPost, "/receivables/"+detail.Receivables[2].ID.String()+"/pay", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "ERR_ALREADY_PAID", errorCode(t, w))

	w = f.do(t, http.MethodDelete, salePath, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, 0, f.sales.Len())

	w = f.do(t, http.MethodGet, salePath, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSalesHandler_CancelSale(t *testing.T) {
	f := newAPIFixture(t)
	detail := f.realize(t, f.approvedQuote(t, 10000), entryPlan())
	path := "/sales/" + detail.Sale.ID.String() + "/cancel"

	w := f.do(t, http.MethodPost, path, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, path, map[string]any{"reason": "financing denied"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	sale := decode[salesapp.SaleResponse](t, w).Data
	assert.Equal(t, "CANCELLED", sale.Status)
	assert.Equal(t, "financing denied", sale.CancelReason)

	w = f.do(t, http.MethodPost, path, map[string]any{"reason": "again"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "ERR_INVALID_STATE", errorCode(t, w))

	w = f.do(t, http.MethodPost, "/receivables/"+detail.Receivables[1].ID.String()+"/pay", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestSalesHandler_ListSales(t *testing.T) {
	f := newAPIFixture(t)
	first := f.realize(t, f.approvedQuote(t, 10000), entryPlan())
	f.realize(t, f.approvedQuote(t, 8000), map[string]any{
		"total_amount": "8000", "payment_method": "CASH", "installment_count": 1,
	})
	w := f.do(t, http.MethodPost, "/sales/"+first.Sale.ID.String()+"/cancel", map[string]any{"reason": "desistencia"})
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodGet, "/sales", nil)
	require.Equal(t, http.StatusOK, w.Code)
	all := decode[[]salesapp.SaleResponse](t, w)
	assert.Len(t, all.Data, 2)
	assert.Equal(t, int64(2), all.Meta.Total)

	w = f.do(t, http.MethodGet, "/sales?status=CANCELLED", nil)
	require.Equal(t, http.StatusOK, w.Code)
	cancelled := decode[[]salesapp.SaleResponse](t, w)
	require.Len(t, cancelled.Data, 1)
	assert.Equal(t, first.Sale.ID, cancelled.Data[0].ID)

	w = f.do(t, http.MethodGet, "/sales?status=LOST", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSalesHandler_Receivables(t *testing.T) {
	f := newAPIFixture(t)
	detail := f.realize(t, f.approvedQuote(t, 10000), entryPlan())
	path := "/sales/" + detail.Sale.ID.String() + "/receivables"

	w := f.do(t, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	items := decode[[]salesapp.ReceivableResponse](t, w).Data
	require.Len(t, items, 4)
	total := decimal.Zero
	for _, r := range items {
		total = total.Add(r.Amount)
	}
	assert.True(t, total.Equal(decimal.NewFromInt(10000)))

	w = f.do(t, http.MethodGet, path+"/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, export.XLSXContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), export.ReceivablesFileName(detail.Sale.SaleNumber))
	assert.NotZero(t, w.Body.Len())

	w = f.do(t, http.MethodGet, "/sales/"+uuid.NewString()+"/receivables/export", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "ERR_NOT_FOUND", errorCode(t, w))
}
