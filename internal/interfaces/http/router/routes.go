package router

import (
	"github.com/solarerp/backend/internal/infrastructure/auth"
	"github.com/solarerp/backend/internal/interfaces/http/handler"
)

// Handlers holds every API handler served under the versioned prefix
type Handlers struct {
	Stock    *handler.StockHandler
	Sales    *handler.SalesHandler
	Kits     *handler.KitHandler
	Projects *handler.ProjectHandler
	Docs     *handler.DocumentHandler
	Auth     *handler.AuthHandler
	System   *handler.SystemHandler
}

// DomainGroups maps each handler method to its path and capability
func (h Handlers) DomainGroups() []*DomainGroup {
	materials := NewDomainGroup("materials", "/materials")
	materials.POST("", auth.CapStockWrite, h.Stock.CreateMaterial)
	materials.GET("", auth.CapStockRead, h.Stock.ListMaterials)
	materials.GET("/:id", auth.CapStockRead, h.Stock.GetMaterial)
	materials.PUT("/:id/prices", auth.CapStockWrite, h.Stock.UpdateMaterialPrices)
	materials.POST("/:id/adjust", auth.CapStockWrite, h.Stock.AdjustStock)
	materials.GET("/:id/movements", auth.CapStockRead, h.Stock.ListMovements)

	projects := NewDomainGroup("projects", "/projects")
	projects.GET("/:id", auth.CapProjectsRead, h.Projects.GetProject)
	projects.POST("/:id/tasks", auth.CapProjectsWrite, h.Projects.AddTask)
	projects.POST("/:id/allocations", auth.CapStockAllocate, h.Stock.AllocateMaterial)
	projects.GET("/:id/allocations", auth.CapStockRead, h.Stock.ListAllocatedMaterials)

	quotes := NewDomainGroup("quotes", "/quotes")
	quotes.POST("", auth.CapProjectsWrite, h.Projects.CreateQuote)
	quotes.GET("/:id", auth.CapProjectsRead, h.Projects.GetQuote)
	quotes.POST("/:id/approve", auth.CapProjectsWrite, h.Projects.ApproveQuote)

	sales := NewDomainGroup("sales", "/sales")
	sales.POST("", auth.CapSalesCreate, h.Sales.RealizeSale)
	sales.GET("", auth.CapSalesRead, h.Sales.ListSales)
	sales.GET("/:id", auth.CapSalesRead, h.Sales.GetSale)
	sales.POST("/:id/cancel", auth.CapSalesCancel, h.Sales.CancelSale)
	sales.DELETE("/:id", auth.CapSalesDelete, h.Sales.DeleteSale)
	sales.GET("/:id/receivables", auth.CapSalesRead, h.Sales.ListReceivables)
	sales.GET("/:id/receivables/export", auth.CapSalesRead, h.Sales.ExportReceivables)

	receivables := NewDomainGroup("receivables", "/receivables")
	receivables.POST("/:id/pay", auth.CapReceivablesPay, h.Sales.PayInstallment)

	kits := NewDomainGroup("kits", "/kits")
	kits.POST("", auth.CapKitsWrite, h.Kits.CreateKit)
	kits.GET("", auth.CapKitsRead, h.Kits.ListKits)
	kits.GET("/:id", auth.CapKitsRead, h.Kits.GetKit)
	kits.PUT("/:id", auth.CapKitsWrite, h.Kits.UpdateKit)
	kits.DELETE("/:id", auth.CapKitsWrite, h.Kits.DeleteKit)

	documents := NewDomainGroup("documents", "/documents")
	documents.POST("/:owner_type/:owner_id", auth.CapDocumentsWrite, h.Docs.Upload)
	documents.GET("/:owner_type/:owner_id", auth.CapDocumentsRead, h.Docs.List)
	documents.DELETE("/:owner_type/:owner_id/:file_name", auth.CapDocumentsWrite, h.Docs.Delete)

	// any authenticated caller
	session := NewDomainGroup("auth", "/auth")
	session.POST("/logout", "", h.Auth.Logout)
	session.GET("/me", "", h.Auth.Me)

	system := NewDomainGroup("system", "/system")
	system.GET("/info", "", h.System.GetSystemInfo)

	return []*DomainGroup{materials, projects, quotes, sales, receivables, kits, documents, session, system}
}
