package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"docflow/internal/model"
)

// ApprovedTotals sums the money of approved documents.
type ApprovedTotals struct {
	FinalAmount decimal.Decimal
	Profit      decimal.Decimal
}

type StatisticsRepository interface {
	CountDocuments(ctx context.Context, start, end time.Time) (int64, error)
	CountPendingApprovals(ctx context.Context, start, end time.Time) (int64, error)
	CountByColumn(ctx context.Context, column string, start, end time.Time) ([]model.GroupedCount, error)
	SumApproved(ctx context.Context, start, end time.Time) (ApprovedTotals, error)
}

type statisticsRepository struct {
	db *gorm.DB
}

func NewStatisticsRepository(db *gorm.DB) StatisticsRepository {
	return &statisticsRepository{db: db}
}

func (r *statisticsRepository) inRange(ctx context.Context, start, end time.Time) *gorm.DB {
	return GetDB(ctx, r.db).Model(&model.Document{}).
		Where("created_at >= ? AND created_at <= ?", start, end)
}

func (r *statisticsRepository) CountDocuments(ctx context.Context, start, end time.Time) (int64, error) {
	var count int64
	if err := r.inRange(ctx, start, end).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return count, nil
}

func (r *statisticsRepository) CountPendingApprovals(ctx context.Context, start, end time.Time) (int64, error) {
	var count int64
	err := r.inRange(ctx, start, end).
		Where("approval_status = ? AND requires_approval = ?", model.ApprovalPending, true).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count pending approvals: %w", err)
	}
	return count, nil
}

// CountByColumn groups documents by document_type or status.
func (r *statisticsRepository) CountByColumn(ctx context.Context, column string, start, end time.Time) ([]model.GroupedCount, error) {
	switch column {
	case "document_type", "status", "approval_status":
	default:
		return nil, fmt.Errorf("cannot group documents by %q", column)
	}

	var rows []model.GroupedCount
	err := r.inRange(ctx, start, end).
		Select(column + " AS group_key, COUNT(*) AS group_count").
		Group(column).
		Order(column).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to group documents by %s: %w", column, err)
	}
	return rows, nil
}

func (r *statisticsRepository) SumApproved(ctx context.Context, start, end time.Time) (ApprovedTotals, error) {
	var totals ApprovedTotals
	err := r.inRange(ctx, start, end).
		Select("COALESCE(SUM(final_amount), 0) AS final_amount, COALESCE(SUM(total_profit_amount), 0) AS profit").
		Where("approval_status = ?", model.ApprovalApproved).
		Scan(&totals).Error
	if err != nil {
		return ApprovedTotals{}, fmt.Errorf("failed to sum approved documents: %w", err)
	}
	return totals, nil
}
