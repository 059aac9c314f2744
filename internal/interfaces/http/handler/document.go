package handler

import (
	"fmt"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/solarerp/backend/internal/application/document"
	"github.com/solarerp/backend/internal/interfaces/http/dto"
)

// DocumentHandler serves files attached to sales, projects, quotes and kits
type DocumentHandler struct {
	BaseHandler
	documentService *document.DocumentService
	maxUploadSize   int64
}

// NewDocumentHandler creates a new DocumentHandler. Uploads larger than
// maxUploadSize bytes are refused before they reach the storage.
func NewDocumentHandler(documentService *document.DocumentService, maxUploadSize int64) *DocumentHandler {
	if maxUploadSize <= 0 {
		maxUploadSize = document.DefaultConfig().MaxSizeBytes
	}
	return &DocumentHandler{documentService: documentService, maxUploadSize: maxUploadSize}
}

func (h *DocumentHandler) owner(c *gin.Context) (document.Owner, bool) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return document.Owner{}, false
	}
	ownerID, ok := h.pathUUID(c, "owner_id")
	if !ok {
		return document.Owner{}, false
	}
	return document.Owner{TenantID: tenantID, Type: c.Param("owner_type"), ID: ownerID}, true
}

// Upload godoc
// @ID           uploadDocument
// @Summary      Upload a document
// @Description  Stores the file under the owner, replacing a file with the same name.
// @Tags         documents
// @Accept       multipart/form-data
// @Produce      json
// @Param        owner_type path     string true "Owner type" Enums(sale, project, quote, kit)
// @Param        owner_id   path     string true "Owner ID" format(uuid)
// @Param        file       formData file   true "File"
// @Success      201 {object} APIResponse[document.DocumentResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      413 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /documents/{owner_type}/{owner_id} [post]
func (h *DocumentHandler) Upload(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}
	header, err := c.FormFile("file")
	if err != nil {
		h.BadRequest(c, "Missing file")
		return
	}
	if header.Size > h.maxUploadSize {
		h.fail(c, dto.ErrCodeFileTooLarge, fmt.Sprintf("File exceeds the %d byte limit", h.maxUploadSize))
		return
	}

	f, err := header.Open()
	if err != nil {
		h.HandleError(c, fmt.Errorf("open upload: %w", err))
		return
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, h.maxUploadSize+1))
	if err != nil {
		h.HandleError(c, fmt.Errorf("read upload: %w", err))
		return
	}

	doc, err := h.documentService.Upload(c.Request.Context(), owner, document.UploadInput{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, doc)
}

// List godoc
// @ID           listDocuments
// @Summary      List the documents of an owner
// @Tags         documents
// @Produce      json
// @Param        owner_type path string true "Owner type" Enums(sale, project, quote, kit)
// @Param        owner_id   path string true "Owner ID" format(uuid)
// @Success      200 {object} APIResponse[[]document.DocumentResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /documents/{owner_type}/{owner_id} [get]
func (h *DocumentHandler) List(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}

	docs, err := h.documentService.List(c.Request.Context(), owner)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, docs)
}

// Delete godoc
// @ID           deleteDocument
// @Summary      Delete a document
// @Tags         documents
// @Param        owner_type path string true "Owner type" Enums(sale, project, quote, kit)
// @Param        owner_id   path string true "Owner ID" format(uuid)
// @Param        file_name  path string true "File name"
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /documents/{owner_type}/{owner_id}/{file_name} [delete]
func (h *DocumentHandler) Delete(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}

	if err := h.documentService.Delete(c.Request.Context(), owner, c.Param("file_name")); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
