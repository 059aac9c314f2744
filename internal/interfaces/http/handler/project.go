package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	projectapp "github.com/solarerp/backend/internal/application/project"
)

// ProjectHandler serves the quote and project surface the sale flow builds on
type ProjectHandler struct {
	BaseHandler
	projectService *projectapp.ProjectService
}

// NewProjectHandler creates a new ProjectHandler
func NewProjectHandler(projectService *projectapp.ProjectService) *ProjectHandler {
	return &ProjectHandler{projectService: projectService}
}

// CreateQuoteRequest is the body of POST /quotes
// @Description Request body for registering a quote
type CreateQuoteRequest struct {
	ClientID  string          `json:"client_id" binding:"required,uuid"`
	Name      string          `json:"name" binding:"required,min=1,max=200" example:"Residencia Souza 6kWp"`
	SalePrice decimal.Decimal `json:"sale_price" binding:"decimal_gte0" swaggertype:"string" example:"30000.00"`
}

// AddTaskRequest is the body of POST /projects/:id/tasks
// @Description Request body for adding a task to a project
type AddTaskRequest struct {
	Title   string `json:"title" binding:"required,min=1,max=200" example:"Homologacao na concessionaria"`
	DueDate string `json:"due_date" binding:"omitempty,datetime=2006-01-02" example:"2026-11-30"`
}

// CreateQuote godoc
// @ID           createQuote
// @Summary      Register a quote
// @Tags         projects
// @Accept       json
// @Produce      json
// @Param        request body CreateQuoteRequest true "Quote"
// @Success      201 {object} APIResponse[projectapp.QuoteResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /quotes [post]
func (h *ProjectHandler) CreateQuote(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var req CreateQuoteRequest
	if !h.bind(c, &req) {
		return
	}

	q, err := h.projectService.CreateQuote(c.Request.Context(), tenantID, projectapp.CreateQuoteInput{
		ClientID:  uuid.MustParse(req.ClientID),
		Name:      req.Name,
		SalePrice: req.SalePrice,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, q)
}

// ApproveQuote godoc
// @ID           approveQuote
// @Summary      Approve a quote
// @Description  Only approved quotes can be turned into a sale.
// @Tags         projects
// @Produce      json
// @Param        id path string true "Quote ID" format(uuid)
// @Success      200 {object} APIResponse[projectapp.QuoteResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /quotes/{id}/approve [post]
func (h *ProjectHandler) ApproveQuote(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	q, err := h.projectService.ApproveQuote(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, q)
}

// GetQuote godoc
// @ID           getQuote
// @Summary      Get a quote
// @Tags         projects
// @Produce      json
// @Param        id path string true "Quote ID" format(uuid)
// @Success      200 {object} APIResponse[projectapp.QuoteResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /quotes/{id} [get]
func (h *ProjectHandler) GetQuote(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	q, err := h.projectService.GetQuote(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, q)
}

// GetProject godoc
// @ID           getProject
// @Summary      Get a project with its site and tasks
// @Tags         projects
// @Produce      json
// @Param        id path string true "Project ID" format(uuid)
// @Success      200 {object} APIResponse[projectapp.ProjectResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /projects/{id} [get]
func (h *ProjectHandler) GetProject(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	p, err := h.projectService.GetProject(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, p)
}

// AddTask godoc
// @ID           addProjectTask
// @Summary      Add a task to a project
// @Tags         projects
// @Accept       json
// @Produce      json
// @Param        id      path string         true "Project ID" format(uuid)
// @Param        request body AddTaskRequest true "Task"
// @Success      201 {object} APIResponse[projectapp.TaskResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse "Project is cancelled"
// @Security     BearerAuth
// @Router       /projects/{id}/tasks [post]
func (h *ProjectHandler) AddTask(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req AddTaskRequest
	if !h.bind(c, &req) {
		return
	}

	var due *time.Time
	if req.DueDate != "" {
		d, _ := time.Parse(time.DateOnly, req.DueDate)
		due = &d
	}
	task, err := h.projectService.AddTask(c.Request.Context(), tenantID, id, req.Title, due)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, task)
}
