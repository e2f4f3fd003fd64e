package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"docflow/internal/model"
	"docflow/internal/repository"
	"docflow/pkg/pagination"
)

type DocumentService interface {
	Create(ctx context.Context, req CreateDocumentRequest, creatorID uuid.UUID) (DocumentResponse, error)
	FindOne(ctx context.Context, id uuid.UUID) (DocumentResponse, error)
	FindAll(ctx context.Context, filter DocumentListFilter, p pagination.Params) (pagination.Page[DocumentResponse], error)
	Update(ctx context.Context, id uuid.UUID, patch UpdatePatch, editorID uuid.UUID) (DocumentResponse, error)
	Remove(ctx context.Context, id uuid.UUID, userID uuid.UUID) error
}

type documentService struct {
	*engine
}

func NewDocumentService(deps Dependencies) DocumentService {
	return &documentService{engine: newEngine(deps)}
}

func (s *documentService) Create(ctx context.Context, req CreateDocumentRequest, creatorID uuid.UUID) (DocumentResponse, error) {
	if err := validateStruct(req); err != nil {
		return DocumentResponse{}, err
	}

	issueDate, err := parseDate("issue_date", req.IssueDate)
	if err != nil {
		return DocumentResponse{}, err
	}
	dueDate, err := parseOptionalDate("due_date", req.DueDate)
	if err != nil {
		return DocumentResponse{}, err
	}
	if dueDate != nil && dueDate.Before(issueDate) {
		return DocumentResponse{}, badRequest("due_date cannot be before issue_date")
	}

	totals := CalculateTotals(req.Items, req.DiscountAmount)
	if err := checkDiscount(totals.TotalAmount, totals.DiscountAmount); err != nil {
		return DocumentResponse{}, err
	}

	if _, err := s.customers.GetByID(ctx, req.CustomerID); err != nil {
		return DocumentResponse{}, lookupError(err, "Customer not found")
	}
	creator, err := s.findUser(ctx, creatorID)
	if err != nil {
		return DocumentResponse{}, err
	}

	requiresApproval := s.policy.RequiresApproval(creator, totals.FinalAmount)
	if req.RequiresApproval != nil {
		requiresApproval = *req.RequiresApproval
	}
	approvalStatus := model.ApprovalNotRequired
	if requiresApproval {
		approvalStatus = model.ApprovalPending
	}

	var docID uuid.UUID
	err = s.runNumbered(ctx, func(txCtx context.Context) error {
		number, err := s.numbers.Allocate(txCtx, req.DocumentType, s.clock().Year())
		if err != nil {
			return err
		}

		doc := model.Document{
			DocumentNumber:      number,
			DocumentType:        req.DocumentType,
			CustomerID:          req.CustomerID,
			CreatedBy:           creatorID,
			IssueDate:           issueDate,
			DueDate:             dueDate,
			TotalAmount:         totals.TotalAmount,
			DiscountAmount:      totals.DiscountAmount,
			FinalAmount:         totals.FinalAmount,
			TotalPurchaseAmount: totals.TotalPurchaseAmount,
			TotalProfitAmount:   totals.TotalProfitAmount,
			Status:              model.DocStatusDraft,
			ApprovalStatus:      approvalStatus,
			RequiresApproval:    requiresApproval,
			Notes:               req.Notes,
			Attachment:          req.Attachment,
			Items:               totals.Items,
		}
		if req.DefaultProfitPercentage != nil {
			doc.DefaultProfitPercentage = decimal.NewNullDecimal(*req.DefaultProfitPercentage)
		}

		if err := s.docs.Create(txCtx, &doc); err != nil {
			return fmt.Errorf("failed to create document: %w", err)
		}
		docID = doc.ID

		return s.record(txCtx, creatorID, model.ActionCreateDocument, &doc, map[string]interface{}{
			"document_type":     doc.DocumentType,
			"final_amount":      doc.FinalAmount.String(),
			"requires_approval": doc.RequiresApproval,
			"items":             len(doc.Items),
		})
	})
	if err != nil {
		return DocumentResponse{}, err
	}

	doc, err := s.findDocument(ctx, docID)
	if err != nil {
		return DocumentResponse{}, err
	}
	s.log.Info("document created",
		zap.String("document_id", doc.ID.String()),
		zap.String("document_number", doc.DocumentNumber),
		zap.Bool("requires_approval", doc.RequiresApproval),
	)
	s.publish(EventDocumentCreated, doc, creatorID)
	return toDocumentResponse(doc), nil
}

func (s *documentService) FindOne(ctx context.Context, id uuid.UUID) (DocumentResponse, error) {
	doc, err := s.findDocument(ctx, id)
	if err != nil {
		return DocumentResponse{}, err
	}
	return toDocumentResponse(doc), nil
}

func (s *documentService) FindAll(ctx context.Context, filter DocumentListFilter, p pagination.Params) (pagination.Page[DocumentResponse], error) {
	if err := validateStruct(filter); err != nil {
		return pagination.Page[DocumentResponse]{}, err
	}
	p = pagination.New(p.Page, p.Limit)

	repoFilter := repository.DocumentFilter{
		DocumentType:   filter.DocumentType,
		Status:         filter.Status,
		ApprovalStatus: filter.ApprovalStatus,
	}
	if filter.CustomerID != "" {
		id := uuid.MustParse(filter.CustomerID)
		repoFilter.CustomerID = &id
	}

	docs, total, err := s.docs.List(ctx, repoFilter, p)
	if err != nil {
		return pagination.Page[DocumentResponse]{}, err
	}
	return pagination.Page[DocumentResponse]{
		Data: toDocumentResponses(docs),
		Meta: pagination.NewMeta(p, total),
	}, nil
}

func (s *documentService) Update(ctx context.Context, id uuid.UUID, patch UpdatePatch, editorID uuid.UUID) (DocumentResponse, error) {
	if patch == nil {
		return DocumentResponse{}, badRequest("Nothing to update")
	}
	if err := validateStruct(patch); err != nil {
		return DocumentResponse{}, err
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		doc, err := s.lockDocument(txCtx, id)
		if err != nil {
			return err
		}
		if doc.IsApproved() {
			return badRequest("Approved documents cannot be modified")
		}

		details := map[string]interface{}{"kind": patch.patchKind()}

		switch p := patch.(type) {
		case ItemsPatch:
			if err := s.applyItems(txCtx, doc, p, details); err != nil {
				return err
			}
		case FieldsPatch:
			if err := applyFields(doc, p, details); err != nil {
				return err
			}
		case StatusPatch:
			if err := applyStatus(doc, p, details); err != nil {
				return err
			}
		default:
			return badRequest("Unsupported update")
		}

		if err := s.docs.Update(txCtx, doc); err != nil {
			return fmt.Errorf("failed to update document: %w", err)
		}
		return s.record(txCtx, editorID, model.ActionUpdateDocument, doc, details)
	})
	if err != nil {
		return DocumentResponse{}, err
	}

	doc, err := s.findDocument(ctx, id)
	if err != nil {
		return DocumentResponse{}, err
	}
	s.log.Info("document updated",
		zap.String("document_id", doc.ID.String()),
		zap.String("kind", patch.patchKind()),
	)
	s.publish(EventDocumentUpdated, doc, editorID)
	return toDocumentResponse(doc), nil
}

func requireDraft(doc *model.Document) error {
	if doc.Status != model.DocStatusDraft {
		return badRequest("Only draft documents can be edited (status is %s)", doc.Status)
	}
	return nil
}

// applyItems recomputes totals from the new items, or from the stored
// totals when only the discount changes.
func (s *documentService) applyItems(ctx context.Context, doc *model.Document, p ItemsPatch, details map[string]interface{}) error {
	if err := requireDraft(doc); err != nil {
		return err
	}

	discount := doc.DiscountAmount
	if p.DiscountAmount != nil {
		discount = *p.DiscountAmount
	}

	if p.Items != nil {
		totals := CalculateTotals(p.Items, discount)
		if err := checkDiscount(totals.TotalAmount, discount); err != nil {
			return err
		}
		if err := s.docs.ReplaceItems(ctx, doc.ID, totals.Items); err != nil {
			return err
		}
		doc.TotalAmount = totals.TotalAmount
		doc.TotalPurchaseAmount = totals.TotalPurchaseAmount
		doc.TotalProfitAmount = totals.TotalProfitAmount
		details["items"] = len(totals.Items)
	} else if err := checkDiscount(doc.TotalAmount, discount); err != nil {
		return err
	}

	doc.DiscountAmount = discount
	doc.FinalAmount = doc.TotalAmount.Sub(discount)
	details["final_amount"] = doc.FinalAmount.String()

	// A bigger total may now need sign-off the creator cannot give.
	if doc.ApprovalStatus == model.ApprovalNotRequired {
		creator, err := s.users.GetByID(ctx, doc.CreatedBy)
		if err == nil && s.policy.RequiresApproval(creator, doc.FinalAmount) {
			doc.RequiresApproval = true
			doc.ApprovalStatus = model.ApprovalPending
			details["requires_approval"] = true
		}
	}
	return nil
}

func applyFields(doc *model.Document, p FieldsPatch, details map[string]interface{}) error {
	if err := requireDraft(doc); err != nil {
		return err
	}

	changed := make([]string, 0, 6)
	if p.IssueDate != nil {
		d, err := parseDate("issue_date", *p.IssueDate)
		if err != nil {
			return err
		}
		doc.IssueDate = d
		changed = append(changed, "issue_date")
	}
	if p.ClearDueDate {
		doc.DueDate = nil
		changed = append(changed, "due_date")
	} else if p.DueDate != nil {
		d, err := parseOptionalDate("due_date", p.DueDate)
		if err != nil {
			return err
		}
		doc.DueDate = d
		changed = append(changed, "due_date")
	}
	if doc.DueDate != nil && doc.DueDate.Before(doc.IssueDate) {
		return badRequest("due_date cannot be before issue_date")
	}
	if p.Notes != nil {
		doc.Notes = *p.Notes
		changed = append(changed, "notes")
	}
	if p.Attachment != nil {
		doc.Attachment = *p.Attachment
		changed = append(changed, "attachment")
	}
	if p.DefaultProfitPercentage != nil {
		doc.DefaultProfitPercentage = decimal.NewNullDecimal(*p.DefaultProfitPercentage)
		changed = append(changed, "default_profit_percentage")
	}

	if len(changed) == 0 {
		return badRequest("Nothing to update")
	}
	details["fields"] = changed
	return nil
}

// applyStatus handles the manual transitions. Approval outcomes and
// submission go through the approval workflow instead.
func applyStatus(doc *model.Document, p StatusPatch, details map[string]interface{}) error {
	from, to := doc.Status, p.Status
	details["from"] = from
	details["to"] = to

	switch {
	case from == to:
		return badRequest("Document is already %s", to)

	case to == model.DocStatusCancelled && (from == model.DocStatusDraft || from == model.DocStatusPending):
		doc.Status = model.DocStatusCancelled
		if doc.ApprovalStatus == model.ApprovalPending {
			doc.ApprovalStatus = model.ApprovalNotRequired
		}

	case to == model.DocStatusDraft && from == model.DocStatusPending:
		doc.Status = model.DocStatusDraft

	case to == model.DocStatusDraft && from == model.DocStatusRejected:
		doc.Status = model.DocStatusDraft
		doc.ApprovalStatus = model.ApprovalNotRequired
		if doc.RequiresApproval {
			doc.ApprovalStatus = model.ApprovalPending
		}
		doc.RejectionReason = nil
		doc.ApprovedBy = nil
		doc.ApprovedAt = nil

	case to == model.DocStatusPending:
		return badRequest("Use request-approval to submit a document")

	case to == model.DocStatusApproved || to == model.DocStatusRejected:
		return badRequest("Documents are approved or rejected through the approval workflow")

	default:
		return badRequest("Cannot change status from %s to %s", from, to)
	}
	return nil
}

func (s *documentService) Remove(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	var removed model.Document
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		doc, err := s.lockDocument(txCtx, id)
		if err != nil {
			return err
		}
		if doc.IsApproved() {
			return badRequest("Approved documents cannot be deleted")
		}
		if err := s.docs.Delete(txCtx, id); err != nil {
			return lookupError(err, "Document not found")
		}
		removed = *doc
		return s.record(txCtx, userID, model.ActionDeleteDocument, doc, map[string]interface{}{
			"document_type": doc.DocumentType,
			"status":        doc.Status,
		})
	})
	if err != nil {
		return err
	}

	s.log.Info("document deleted",
		zap.String("document_id", removed.ID.String()),
		zap.String("document_number", removed.DocumentNumber),
	)
	s.publish(EventDocumentDeleted, &removed, userID)
	return nil
}
