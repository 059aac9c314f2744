package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/solarerp/backend/internal/application/document"
	kitapp "github.com/solarerp/backend/internal/application/kit"
	projectapp "github.com/solarerp/backend/internal/application/project"
	salesapp "github.com/solarerp/backend/internal/application/sales"
	stockapp "github.com/solarerp/backend/internal/application/stock"
	"github.com/solarerp/backend/internal/domain/project"
	"github.com/solarerp/backend/internal/infrastructure/auth"
	"github.com/solarerp/backend/internal/infrastructure/identifier"
	"github.com/solarerp/backend/internal/infrastructure/storage"
	"github.com/solarerp/backend/internal/interfaces/http/dto"
	"github.com/solarerp/backend/internal/interfaces/http/middleware"
	"github.com/solarerp/backend/internal/testutil"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := middleware.SetupValidator(); err != nil {
		panic(err)
	}
}

// apiFixture wires every handler on in-memory repositories for one tenant
type apiFixture struct {
	tenantID    uuid.UUID
	materials   *testutil.MemMaterials
	movements   *testutil.MemMovements
	quotes      *testutil.MemQuotes
	projects    *testutil.MemProjects
	sales       *testutil.MemSales
	receivables *testutil.MemReceivables
	kits        *testutil.MemKits
	blacklist   *auth.InMemoryTokenBlacklist
	engine      *gin.Engine
	claims      *auth.Claims
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	f := &apiFixture{
		tenantID:    uuid.New(),
		materials:   testutil.NewMemMaterials(),
		movements:   testutil.NewMemMovements(),
		quotes:      testutil.NewMemQuotes(),
		projects:    testutil.NewMemProjects(),
		sales:       testutil.NewMemSales(),
		receivables: testutil.NewMemReceivables(),
		kits:        testutil.NewMemKits(),
		blacklist:   auth.NewInMemoryTokenBlacklist(),
	}
	f.claims = &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		TenantID: f.tenantID.String(),
		UserID:   uuid.NewString(),
		Username: "ana",
		Role:     auth.RoleAdmin,
	}

	stockService := stockapp.NewStockService(
		stockapp.NewNoOpTransactionScope(f.materials, f.movements, f.projects, f.quotes),
		f.materials, f.movements, nil)
	saleService := salesapp.NewSaleService(
		salesapp.NewNoOpTransactionScope(salesapp.Repositories{
			Sales:       f.sales,
			Receivables: f.receivables,
			Quotes:      f.quotes,
			Projects:    f.projects,
			Materials:   f.materials,
			Movements:   f.movements,
		}),
		f.sales, f.receivables, identifier.NewSaleNumberGenerator("V"), salesapp.Config{}, nil)
	kitService := kitapp.NewKitService(f.kits, f.materials, nil)
	projectService := projectapp.NewProjectService(f.quotes, f.projects, nil)
	documentService := document.NewDocumentService(storage.NewMemoryObjectStorage(), document.Config{MaxSizeBytes: 1 << 10}, nil)

	stockH := NewStockHandler(stockService)
	salesH := NewSalesHandler(saleService)
	kitH := NewKitHandler(kitService)
	projectH := NewProjectHandler(projectService)
	docH := NewDocumentHandler(documentService, 1<<10)
	authH := NewAuthHandler(f.blacklist)

	e := gin.New()
	e.Use(middleware.RequestID(), func(c *gin.Context) {
		if f.claims != nil {
			c.Set(middleware.ClaimsKey, f.claims)
		}
		c.Next()
	})
	api := e.Group("/api/v1")
	api.POST("/materials", stockH.CreateMaterial)
	api.GET("/materials", stockH.ListMaterials)
	api.GET("/materials/:id", stockH.GetMaterial)
	api.PUT("/materials/:id/prices", stockH.UpdateMaterialPrices)
	api.POST("/materials/:id/adjust", stockH.AdjustStock)
	api.GET("/materials/:id/movements", stockH.ListMovements)
	api.POST("/projects/:id/allocations", stockH.AllocateMaterial)
	api.GET("/projects/:id/allocations", stockH.ListAllocatedMaterials)
	api.GET("/projects/:id", projectH.GetProject)
	api.POST("/projects/:id/tasks", projectH.AddTask)
	api.POST("/quotes", projectH.CreateQuote)
	api.GET("/quotes/:id", projectH.GetQuote)
	api.POST("/quotes/:id/approve", projectH.ApproveQuote)
	api.POST("/sales", salesH.RealizeSale)
	api.GET("/sales", salesH.ListSales)
	api.GET("/sales/:id", salesH.GetSale)
	api.POST("/sales/:id/cancel", salesH.CancelSale)
	api.DELETE("/sales/:id", salesH.DeleteSale)
	api.GET("/sales/:id/receivables", salesH.ListReceivables)
	api.GET("/sales/:id/receivables/export", salesH.ExportReceivables)
	api.POST("/receivables/:id/pay", salesH.PayInstallment)
	api.POST("/kits", kitH.CreateKit)
	api.GET("/kits", kitH.ListKits)
	api.GET("/kits/:id", kitH.GetKit)
	api.PUT("/kits/:id", kitH.UpdateKit)
	api.DELETE("/kits/:id", kitH.DeleteKit)
	api.POST("/documents/:owner_type/:owner_id", docH.Upload)
	api.GET("/documents/:owner_type/:owner_id", docH.List)
	api.DELETE("/documents/:owner_type/:owner_id/:file_name", docH.Delete)
	api.POST("/auth/logout", authH.Logout)
	api.GET("/auth/me", authH.Me)
	f.engine = e
	return f
}

func (f *apiFixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, "/api/v1"+path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

// approvedQuote stores an approved quote for the fixture tenant
func (f *apiFixture) approvedQuote(t *testing.T, price int64) *project.Quote {
	t.Helper()
	q, err := project.NewQuote(f.tenantID, uuid.New(), "Residencia Souza", decimal.NewFromInt(price))
	require.NoError(t, err)
	require.NoError(t, q.Approve())
	require.NoError(t, f.quotes.Save(context.Background(), q))
	return q
}

// projectWithQuote stores a quote and its project
func (f *apiFixture) projectWithQuote(t *testing.T) *project.Project {
	t.Helper()
	q := f.approvedQuote(t, 20000)
	p, err := project.NewProjectForQuote(q)
	require.NoError(t, err)
	require.NoError(t, f.projects.Save(context.Background(), p))
	return p
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) APIResponse[T] {
	t.Helper()
	var resp APIResponse[T]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	resp := decode[json.RawMessage](t, w)
	require.NotNil(t, resp.Error, w.Body.String())
	return resp.Error.Code
}

func errorInfo(t *testing.T, w *httptest.ResponseRecorder) *dto.ErrorInfo {
	t.Helper()
	resp := decode[json.RawMessage](t, w)
	require.NotNil(t, resp.Error, w.Body.String())
	return resp.Error
}
