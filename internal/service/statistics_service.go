package service

import (
	"context"
	"time"

	"docflow/internal/model"
	"docflow/internal/repository"
)

type StatisticsService interface {
	GetDocumentStatistics(ctx context.Context, startDate, endDate time.Time) (model.DocumentStatistics, error)
}

type statisticsService struct {
	repo repository.StatisticsRepository
}

func NewStatisticsService(repo repository.StatisticsRepository) StatisticsService {
	return &statisticsService{repo: repo}
}

// GetDocumentStatistics aggregates documents created within [startDate, endDate].
func (s *statisticsService) GetDocumentStatistics(ctx context.Context, startDate, endDate time.Time) (model.DocumentStatistics, error) {
	if endDate.Before(startDate) {
		return model.DocumentStatistics{}, badRequest("end_date cannot be before start_date")
	}

	stats := model.DocumentStatistics{
		TimeRangeStartDate: startDate,
		TimeRangeEndDate:   endDate,
	}

	var err error
	if stats.TotalDocuments, err = s.repo.CountDocuments(ctx, startDate, endDate); err != nil {
		return model.DocumentStatistics{}, err
	}
	if stats.PendingApprovals, err = s.repo.CountPendingApprovals(ctx, startDate, endDate); err != nil {
		return model.DocumentStatistics{}, err
	}
	if stats.ByType, err = s.repo.CountByColumn(ctx, "document_type", startDate, endDate); err != nil {
		return model.DocumentStatistics{}, err
	}
	if stats.ByStatus, err = s.repo.CountByColumn(ctx, "status", startDate, endDate); err != nil {
		return model.DocumentStatistics{}, err
	}

	approved, err := s.repo.SumApproved(ctx, startDate, endDate)
	if err != nil {
		return model.DocumentStatistics{}, err
	}
	stats.ApprovedFinalAmount = approved.FinalAmount.InexactFloat64()
	stats.ApprovedProfit = approved.Profit.InexactFloat64()

	if stats.ByType == nil {
		stats.ByType = []model.GroupedCount{}
	}
	if stats.ByStatus == nil {
		stats.ByStatus = []model.GroupedCount{}
	}
	return stats, nil
}
