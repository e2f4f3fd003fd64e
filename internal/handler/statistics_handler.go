package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"docflow/internal/middleware"
	"docflow/internal/model"
	"docflow/internal/service"
	"docflow/pkg/response"
)

type StatisticsHandler struct {
	statisticsService service.StatisticsService
	now               func() time.Time
}

func NewStatisticsHandler(statisticsService service.StatisticsService) *StatisticsHandler {
	return &StatisticsHandler{statisticsService: statisticsService, now: time.Now}
}

func (h *StatisticsHandler) RegisterRoutes(router *gin.RouterGroup) {
	statsGroup := router.Group("/api/statistics")
	{
		statsGroup.GET("/documents", middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleSupervisor), h.GetDocumentStatistics)
	}
}

// GetDocumentStatistics aggregates documents created in a time range
// @Summary      Get document statistics
// @Description  Counts documents by type and status, pending approvals, and approved amount and profit
// @Tags         statistics
// @Security     BearerAuth
// @Produce      json
// @Param        start_date  query     string  false  "Start Date (RFC3339), default start of the current month"
// @Param        end_date    query     string  false  "End Date (RFC3339), default now"
// @Success      200         {object}  response.Response{data=model.DocumentStatistics}
// @Failure      400         {object}  response.Response  "Invalid date format"
// @Router       /api/statistics/documents [get]
func (h *StatisticsHandler) GetDocumentStatistics(c *gin.Context) {
	startDateStr := c.Query("start_date")
	endDateStr := c.Query("end_date")

	var startDate, endDate time.Time
	var err error

	// Default to current month if no dates are provided
	now := h.now().UTC()
	if startDateStr == "" {
		startDate = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	} else {
		startDate, err = time.Parse(time.RFC3339, startDateStr)
		if err != nil {
			badRequest(c, "invalid start_date format, expected RFC3339")
			return
		}
	}

	if endDateStr == "" {
		endDate = now
	} else {
		endDate, err = time.Parse(time.RFC3339, endDateStr)
		if err != nil {
			badRequest(c, "invalid end_date format, expected RFC3339")
			return
		}
	}

	stats, err := h.statisticsService.GetDocumentStatistics(c.Request.Context(), startDate, endDate)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, stats))
}
