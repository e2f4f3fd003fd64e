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

// approverRoles may decide documents and see the approval queue.
var approverRoles = []string{model.RoleAdmin, model.RoleManager, model.RoleSupervisor}

type ApprovalHandler struct {
	approvalService service.ApprovalService
}

func NewApprovalHandler(approvalService service.ApprovalService) *ApprovalHandler {
	return &ApprovalHandler{approvalService: approvalService}
}

func (h *ApprovalHandler) RegisterRoutes(router *gin.RouterGroup) {
	approvers := middleware.RequireRole(approverRoles...)

	documents := router.Group("/api/documents")
	{
		documents.POST("/:id/request-approval", middleware.RequireRole(middleware.AllRoles...), h.RequestApproval)
		documents.POST("/:id/approve", approvers, h.ApproveDocument)
		documents.POST("/:id/reject", approvers, h.RejectDocument)
	}

	approvals := router.Group("/api/approvals")
	approvals.Use(approvers)
	{
		approvals.GET("/pending", h.GetPendingApprovals)
		approvals.GET("/history", h.GetApprovalHistory)
	}
}

// RequestApproval submits a draft document for approval
// @Summary      Request approval
// @Tags         approvals
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Document ID"
// @Success      200  {object}  response.Response{data=service.DocumentResponse}
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/documents/{id}/request-approval [post]
func (h *ApprovalHandler) RequestApproval(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	doc, err := h.approvalService.RequestApproval(c.Request.Context(), id, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, doc))
}

// ApproveDocument approves a pending document within the caller's approval limit
// @Summary      Approve document
// @Tags         approvals
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Document ID"
// @Success      200  {object}  response.Response{data=service.DocumentResponse}
// @Failure      400  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/documents/{id}/approve [post]
func (h *ApprovalHandler) ApproveDocument(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	doc, err := h.approvalService.Approve(c.Request.Context(), id, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, doc))
}

// RejectDocument rejects a pending document with a reason
// @Summary      Reject document
// @Tags         approvals
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                         true  "Document ID"
// @Param        payload  body      service.RejectDocumentRequest  true  "Reason, at least 10 characters"
// @Success      200      {object}  response.Response{data=service.DocumentResponse}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/documents/{id}/reject [post]
func (h *ApprovalHandler) RejectDocument(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req service.RejectDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	doc, err := h.approvalService.Reject(c.Request.Context(), id, userID, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, doc))
}

// GetPendingApprovals lists pending documents the caller may decide
// @Summary      Pending approvals
// @Tags         approvals
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Number of items per page (default 10, max 100)"
// @Success      200    {object}  response.Response{data=pagination.Page[service.DocumentResponse]}
// @Failure      403    {object}  response.Response
// @Router       /api/approvals/pending [get]
func (h *ApprovalHandler) GetPendingApprovals(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	page, err := h.approvalService.GetPendingApprovals(c.Request.Context(), userID, pagination.Parse(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, page))
}

// GetApprovalHistory lists documents the caller approved or rejected
// @Summary      Approval history
// @Tags         approvals
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Number of items per page (default 10, max 100)"
// @Success      200    {object}  response.Response{data=pagination.Page[service.DocumentResponse]}
// @Router       /api/approvals/history [get]
func (h *ApprovalHandler) GetApprovalHistory(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	page, err := h.approvalService.GetApprovalHistory(c.Request.Context(), userID, pagination.Parse(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, page))
}
