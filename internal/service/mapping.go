package service

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"docflow/internal/model"
)

func uuidPtrString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func timePtrString(t *time.Time, layout string) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(layout)
	return &s
}

func toDocumentResponse(d *model.Document) DocumentResponse {
	resp := DocumentResponse{
		ID:                  d.ID.String(),
		DocumentNumber:      d.DocumentNumber,
		DocumentType:        d.DocumentType,
		CustomerID:          d.CustomerID.String(),
		CreatedBy:           d.CreatedBy.String(),
		ApprovedBy:          uuidPtrString(d.ApprovedBy),
		ConvertedFromID:     uuidPtrString(d.ConvertedFromID),
		IssueDate:           d.IssueDate.Format(dateLayout),
		DueDate:             timePtrString(d.DueDate, dateLayout),
		TotalAmount:         d.TotalAmount.InexactFloat64(),
		DiscountAmount:      d.DiscountAmount.InexactFloat64(),
		FinalAmount:         d.FinalAmount.InexactFloat64(),
		TotalPurchaseAmount: d.TotalPurchaseAmount.InexactFloat64(),
		TotalProfitAmount:   d.TotalProfitAmount.InexactFloat64(),
		Status:              d.Status,
		ApprovalStatus:      d.ApprovalStatus,
		RequiresApproval:    d.RequiresApproval,
		RejectionReason:     d.RejectionReason,
		ApprovedAt:          timePtrString(d.ApprovedAt, time.RFC3339),
		Notes:               d.Notes,
		Attachment:          d.Attachment,
		Items:               make([]DocumentItemResponse, 0, len(d.Items)),
		CreatedAt:           d.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:           d.UpdatedAt.UTC().Format(time.RFC3339),
	}

	if d.DefaultProfitPercentage.Valid {
		v := d.DefaultProfitPercentage.Decimal.InexactFloat64()
		resp.DefaultProfitPercentage = &v
	}
	if d.Customer != nil {
		resp.CustomerName = d.Customer.Name
	}
	if d.Creator != nil {
		resp.CreatedByName = d.Creator.DisplayName()
	}
	if d.Approver != nil {
		name := d.Approver.DisplayName()
		resp.ApprovedByName = &name
	}

	for _, it := range d.Items {
		resp.Items = append(resp.Items, DocumentItemResponse{
			ID:               it.ID.String(),
			Position:         it.Position,
			Description:      it.Description,
			Quantity:         it.Quantity.InexactFloat64(),
			UnitPrice:        it.UnitPrice.InexactFloat64(),
			TotalPrice:       it.TotalPrice.InexactFloat64(),
			PurchasePrice:    it.PurchasePrice.InexactFloat64(),
			ProfitAmount:     it.ProfitAmount.InexactFloat64(),
			ProfitPercentage: it.ProfitPercentage.InexactFloat64(),
			IsManualPrice:    it.IsManualPrice,
		})
	}

	return resp
}

func toDocumentResponses(docs []model.Document) []DocumentResponse {
	out := make([]DocumentResponse, 0, len(docs))
	for i := range docs {
		out = append(out, toDocumentResponse(&docs[i]))
	}
	return out
}

func toDocumentEvent(d *model.Document, actor uuid.UUID) DocumentEvent {
	return DocumentEvent{
		DocumentID:     d.ID.String(),
		DocumentNumber: d.DocumentNumber,
		DocumentType:   d.DocumentType,
		Status:         d.Status,
		ApprovalStatus: d.ApprovalStatus,
		FinalAmount:    d.FinalAmount.InexactFloat64(),
		ActorID:        actor.String(),
		SourceID:       uuidPtrString(d.ConvertedFromID),
	}
}

func toAuditLogResponse(a *model.AuditLog) AuditLogResponse {
	resp := AuditLogResponse{
		ID:         a.ID.String(),
		UserID:     uuidPtrString(a.UserID),
		UserName:   "System",
		Action:     a.Action,
		EntityID:   a.EntityID,
		EntityName: a.EntityName,
		CreatedAt:  a.CreatedAt.UTC().Format(time.RFC3339),
	}
	if a.User != nil {
		resp.UserName = a.User.DisplayName()
	}
	if len(a.Details) > 0 {
		var details interface{}
		if err := json.Unmarshal(a.Details, &details); err == nil {
			resp.Details = details
		}
	}
	return resp
}
