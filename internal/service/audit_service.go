package service

import (
	"context"

	"docflow/internal/repository"
	"docflow/pkg/pagination"
)

// AuditLogFilter narrows the audit listing to one document or one action.
type AuditLogFilter struct {
	EntityID string `form:"entity_id" json:"entity_id" validate:"omitempty,uuid"`
	Action   string `form:"action" json:"action" validate:"omitempty,oneof=CREATE_DOCUMENT UPDATE_DOCUMENT DELETE_DOCUMENT CONVERT_DOCUMENT REQUEST_APPROVAL APPROVE_DOCUMENT REJECT_DOCUMENT"`
}

type AuditService interface {
	GetAuditLogs(ctx context.Context, filter AuditLogFilter, p pagination.Params) (pagination.Page[AuditLogResponse], error)
}

type auditService struct {
	repo repository.AuditRepository
}

// NewAuditService creates a new AuditService instance
func NewAuditService(repo repository.AuditRepository) AuditService {
	return &auditService{repo: repo}
}

// GetAuditLogs returns one page of audit entries, newest first.
func (s *auditService) GetAuditLogs(ctx context.Context, filter AuditLogFilter, p pagination.Params) (pagination.Page[AuditLogResponse], error) {
	if err := validateStruct(filter); err != nil {
		return pagination.Page[AuditLogResponse]{}, err
	}
	p = pagination.New(p.Page, p.Limit)

	logs, total, err := s.repo.List(ctx, repository.AuditFilter{EntityID: filter.EntityID, Action: filter.Action}, p)
	if err != nil {
		return pagination.Page[AuditLogResponse]{}, err
	}

	res := make([]AuditLogResponse, 0, len(logs))
	for i := range logs {
		res = append(res, toAuditLogResponse(&logs[i]))
	}
	return pagination.Page[AuditLogResponse]{Data: res, Meta: pagination.NewMeta(p, total)}, nil
}
