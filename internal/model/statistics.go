package model

import (
	"time"
)

// DocumentStatistics aggregates document counts and amounts over a time range
type DocumentStatistics struct {
	TotalDocuments      int64          `json:"total_documents"`
	PendingApprovals    int64          `json:"pending_approvals"`
	ApprovedFinalAmount float64        `json:"approved_final_amount"`
	ApprovedProfit      float64        `json:"approved_profit"`
	ByType              []GroupedCount `json:"by_type"`
	ByStatus            []GroupedCount `json:"by_status"`
	TimeRangeStartDate  time.Time      `json:"time_range_start_date"`
	TimeRangeEndDate    time.Time      `json:"time_range_end_date"`
}

// GroupedCount is a count of documents sharing one key (type or status)
type GroupedCount struct {
	Key   string `gorm:"column:group_key" json:"key"`
	Count int64  `gorm:"column:group_count" json:"count"`
}
