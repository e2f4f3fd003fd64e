package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"docflow/internal/middleware"
	"docflow/internal/model"
	"docflow/internal/service"
	"docflow/pkg/pagination"
	"docflow/pkg/response"
)

type DocumentHandler struct {
	documentService   service.DocumentService
	conversionService service.ConversionService
}

func NewDocumentHandler(documentService service.DocumentService, conversionService service.ConversionService) *DocumentHandler {
	return &DocumentHandler{
		documentService:   documentService,
		conversionService: conversionService,
	}
}

func (h *DocumentHandler) RegisterRoutes(router *gin.RouterGroup) {
	anyone := middleware.RequireRole(middleware.AllRoles...)

	documents := router.Group("/api/documents")
	{
		documents.POST("", anyone, h.CreateDocument)
		documents.GET("", anyone, h.ListDocuments)
		documents.GET("/:id", anyone, h.GetDocument)
		documents.PATCH("/:id", anyone, h.UpdateDocument)
		documents.DELETE("/:id", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.DeleteDocument)
		documents.POST("/:id/convert", anyone, h.ConvertDocument)
		documents.GET("/:id/chain", anyone, h.GetConversionChain)
	}
}

// CreateDocument creates a draft document with its items
// @Summary      Create document
// @Description  Prices the items, allocates a document number and stores the document as draft
// @Tags         documents
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateDocumentRequest  true  "Create Document Payload"
// @Success      201      {object}  response.Response{data=service.DocumentResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/documents [post]
func (h *DocumentHandler) CreateDocument(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req service.CreateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	doc, err := h.documentService.Create(c.Request.Context(), req, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, doc))
}

// ListDocuments returns a page of documents, newest first
// @Summary      List documents
// @Description  Retrieves a paginated list of documents filtered by customer, type, status or approval status
// @Tags         documents
// @Security     BearerAuth
// @Produce      json
// @Param        customer_id      query     string  false  "Customer ID"
// @Param        document_type    query     string  false  "temp_proforma, proforma, invoice, return_invoice, receipt, other"
// @Param        status           query     string  false  "draft, pending, approved, rejected, cancelled"
// @Param        approval_status  query     string  false  "not_required, pending, approved, rejected"
// @Param        page             query     int     false  "Page number (default 1)"
// @Param        limit            query     int     false  "Number of items per page (default 10, max 100)"
// @Success      200              {object}  response.Response{data=pagination.Page[service.DocumentResponse]}
// @Failure      400              {object}  response.Response
// @Router       /api/documents [get]
func (h *DocumentHandler) ListDocuments(c *gin.Context) {
	var filter service.DocumentListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		badRequest(c, "Invalid query: "+err.Error())
		return
	}

	page, err := h.documentService.FindAll(c.Request.Context(), filter, pagination.Parse(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, page))
}

// GetDocument returns one document with its items
// @Summary      Get document
// @Tags         documents
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Document ID"
// @Success      200  {object}  response.Response{data=service.DocumentResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/documents/{id} [get]
func (h *DocumentHandler) GetDocument(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	doc, err := h.documentService.FindOne(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, doc))
}

// UpdateDocument applies one tagged patch
// @Summary      Update document
// @Description  kind=items replaces items and/or discount, kind=fields edits descriptive fields, kind=status changes the status
// @Tags         documents
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                         true  "Document ID"
// @Param        payload  body      service.UpdateDocumentRequest  true  "Update Document Payload"
// @Success      200      {object}  response.Response{data=service.DocumentResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/documents/{id} [patch]
func (h *DocumentHandler) UpdateDocument(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req service.UpdateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}
	patch, err := req.Patch()
	if err != nil {
		respondError(c, err)
		return
	}

	doc, err := h.documentService.Update(c.Request.Context(), id, patch, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, doc))
}

// DeleteDocument removes a document that was never approved
// @Summary      Delete document
// @Tags         documents
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Document ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/documents/{id} [delete]
func (h *DocumentHandler) DeleteDocument(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.documentService.Remove(c.Request.Context(), id, userID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Message(http.StatusOK, "Document deleted"))
}

// ConvertDocument creates the next document of the conversion pipeline
// @Summary      Convert document
// @Description  temp_proforma becomes proforma, proforma becomes invoice
// @Tags         documents
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Document ID"
// @Success      201  {object}  response.Response{data=service.DocumentResponse}
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/documents/{id}/convert [post]
func (h *DocumentHandler) ConvertDocument(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	doc, err := h.conversionService.Convert(c.Request.Context(), id, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, doc))
}

// GetConversionChain lists the conversion chain the document belongs to
// @Summary      Get conversion chain
// @Description  Returns the chain ordered from the root document to the newest successor
// @Tags         documents
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Document ID"
// @Success      200  {object}  response.Response{data=[]service.ChainEntry}
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/documents/{id}/chain [get]
func (h *DocumentHandler) GetConversionChain(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	chain, err := h.conversionService.GetConversionChain(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, chain))
}
