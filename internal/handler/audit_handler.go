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

type AuditHandler struct {
	auditService service.AuditService
}

func NewAuditHandler(auditService service.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/api/audit-logs")
	group.Use(middleware.RequireRole(model.RoleAdmin, model.RoleManager))
	{
		group.GET("", h.GetAuditLogs)
	}
}

// GetAuditLogs lists audit entries newest first
// @Summary      Get audit logs
// @Description  Retrieves the document audit trail, optionally for one document or one action
// @Tags         audit
// @Security     BearerAuth
// @Produce      json
// @Param        entity_id  query     string  false  "Document ID"
// @Param        action     query     string  false  "CREATE_DOCUMENT, UPDATE_DOCUMENT, DELETE_DOCUMENT, CONVERT_DOCUMENT, REQUEST_APPROVAL, APPROVE_DOCUMENT, REJECT_DOCUMENT"
// @Param        page       query     int     false  "Page number (default 1)"
// @Param        limit      query     int     false  "Number of items per page (default 10, max 100)"
// @Success      200        {object}  response.Response{data=pagination.Page[service.AuditLogResponse]}
// @Failure      400        {object}  response.Response
// @Router       /api/audit-logs [get]
func (h *AuditHandler) GetAuditLogs(c *gin.Context) {
	var filter service.AuditLogFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		badRequest(c, "Invalid query: "+err.Error())
		return
	}

	page, err := h.auditService.GetAuditLogs(c.Request.Context(), filter, pagination.Parse(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, page))
}
