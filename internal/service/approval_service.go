package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"docflow/internal/model"
	"docflow/internal/repository"
	"docflow/pkg/pagination"
)

const minRejectionReasonLength = 10

type ApprovalService interface {
	RequestApproval(ctx context.Context, id uuid.UUID, userID uuid.UUID) (DocumentResponse, error)
	Approve(ctx context.Context, id uuid.UUID, approverID uuid.UUID) (DocumentResponse, error)
	Reject(ctx context.Context, id uuid.UUID, approverID uuid.UUID, reason string) (DocumentResponse, error)
	GetPendingApprovals(ctx context.Context, approverID uuid.UUID, p pagination.Params) (pagination.Page[DocumentResponse], error)
	GetApprovalHistory(ctx context.Context, approverID uuid.UUID, p pagination.Params) (pagination.Page[DocumentResponse], error)
}

type approvalService struct {
	*engine
}

func NewApprovalService(deps Dependencies) ApprovalService {
	return &approvalService{engine: newEngine(deps)}
}

// RequestApproval submits a draft document to the approval queue.
func (s *approvalService) RequestApproval(ctx context.Context, id uuid.UUID, userID uuid.UUID) (DocumentResponse, error) {
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		doc, err := s.lockDocument(txCtx, id)
		if err != nil {
			return err
		}
		if doc.Status != model.DocStatusDraft {
			return badRequest("Only draft documents can be submitted for approval (status is %s)", doc.Status)
		}
		if doc.ApprovalStatus != model.ApprovalNotRequired && doc.ApprovalStatus != model.ApprovalPending {
			return badRequest("Document approval is already %s", doc.ApprovalStatus)
		}

		doc.ApprovalStatus = model.ApprovalPending
		doc.RequiresApproval = true
		doc.Status = model.DocStatusPending
		if err := s.docs.Update(txCtx, doc); err != nil {
			return err
		}
		return s.record(txCtx, userID, model.ActionRequestApproval, doc, map[string]interface{}{
			"final_amount": doc.FinalAmount.String(),
		})
	})
	if err != nil {
		return DocumentResponse{}, err
	}

	doc, err := s.findDocument(ctx, id)
	if err != nil {
		return DocumentResponse{}, err
	}
	s.log.Info("approval requested",
		zap.String("document_id", doc.ID.String()),
		zap.String("document_number", doc.DocumentNumber),
	)
	s.publish(EventDocumentApprovalRequested, doc, userID)
	return toDocumentResponse(doc), nil
}

func (s *approvalService) Approve(ctx context.Context, id uuid.UUID, approverID uuid.UUID) (DocumentResponse, error) {
	return s.decide(ctx, id, approverID, nil)
}

func (s *approvalService) Reject(ctx context.Context, id uuid.UUID, approverID uuid.UUID, reason string) (DocumentResponse, error) {
	reason = strings.TrimSpace(reason)
	if utf8.RuneCountInString(reason) < minRejectionReasonLength {
		return DocumentResponse{}, badRequest("Rejection reason must be at least %d characters", minRejectionReasonLength)
	}
	return s.decide(ctx, id, approverID, &reason)
}

// decide approves the document, or rejects it when reason is set. The final
// write only applies while the document is still pending, so two concurrent
// decisions cannot both succeed.
func (s *approvalService) decide(ctx context.Context, id uuid.UUID, approverID uuid.UUID, reason *string) (DocumentResponse, error) {
	approve := reason == nil

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		doc, err := s.lockDocument(txCtx, id)
		if err != nil {
			return err
		}
		if doc.ApprovalStatus != model.ApprovalPending {
			return badRequest("Document is not pending approval (approval status is %s)", doc.ApprovalStatus)
		}

		approver, err := s.findUser(txCtx, approverID)
		if err != nil {
			return err
		}
		if err := s.policy.Authorize(approver, doc.FinalAmount); err != nil {
			s.log.Warn("approval refused",
				zap.String("document_id", doc.ID.String()),
				zap.String("approver_id", approverID.String()),
				zap.String("final_amount", doc.FinalAmount.String()),
				zap.Error(err),
			)
			return err
		}

		transition := repository.ApprovalTransition{
			ApprovalStatus: model.ApprovalApproved,
			Status:         model.DocStatusApproved,
			ApprovedBy:     approverID,
			ApprovedAt:     s.clock(),
		}
		action := model.ActionApproveDocument
		details := map[string]interface{}{"final_amount": doc.FinalAmount.String()}
		if !approve {
			transition.ApprovalStatus = model.ApprovalRejected
			transition.Status = model.DocStatusRejected
			transition.RejectionReason = reason
			action = model.ActionRejectDocument
			details["reason"] = *reason
		}

		ok, err := s.docs.TransitionApproval(txCtx, id, transition)
		if err != nil {
			return err
		}
		if !ok {
			return badRequest("Document was already processed")
		}
		return s.record(txCtx, approverID, action, doc, details)
	})
	if err != nil {
		return DocumentResponse{}, err
	}

	doc, err := s.findDocument(ctx, id)
	if err != nil {
		return DocumentResponse{}, err
	}

	event := EventDocumentApproved
	if !approve {
		event = EventDocumentRejected
	}
	s.log.Info("approval decided",
		zap.String("document_id", doc.ID.String()),
		zap.String("document_number", doc.DocumentNumber),
		zap.String("approval_status", doc.ApprovalStatus),
		zap.String("approver_id", approverID.String()),
	)
	s.publish(event, doc, approverID)
	return toDocumentResponse(doc), nil
}

// GetPendingApprovals lists the queue the approver may act on: documents
// above the approver's ceiling are left out.
func (s *approvalService) GetPendingApprovals(ctx context.Context, approverID uuid.UUID, p pagination.Params) (pagination.Page[DocumentResponse], error) {
	p = pagination.New(p.Page, p.Limit)
	approver, err := s.findUser(ctx, approverID)
	if err != nil {
		return pagination.Page[DocumentResponse]{}, err
	}
	if !s.policy.Capability(approver.Role).CanApprove {
		return pagination.Page[DocumentResponse]{}, forbidden("Role %q has no approval queue", approver.Role)
	}

	docs, total, err := s.docs.ListPending(ctx, s.policy.Ceiling(approver), p)
	if err != nil {
		return pagination.Page[DocumentResponse]{}, err
	}
	return pagination.Page[DocumentResponse]{Data: toDocumentResponses(docs), Meta: pagination.NewMeta(p, total)}, nil
}

// GetApprovalHistory lists what the approver approved or rejected, latest first.
func (s *approvalService) GetApprovalHistory(ctx context.Context, approverID uuid.UUID, p pagination.Params) (pagination.Page[DocumentResponse], error) {
	p = pagination.New(p.Page, p.Limit)
	if _, err := s.findUser(ctx, approverID); err != nil {
		return pagination.Page[DocumentResponse]{}, err
	}

	docs, total, err := s.docs.ListHistory(ctx, approverID, p)
	if err != nil {
		return pagination.Page[DocumentResponse]{}, err
	}
	return pagination.Page[DocumentResponse]{Data: toDocumentResponses(docs), Meta: pagination.NewMeta(p, total)}, nil
}
