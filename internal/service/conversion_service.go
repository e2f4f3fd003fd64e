package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"docflow/internal/model"
	"docflow/internal/repository"
)

// conversionTargets is the only way documents change type.
var conversionTargets = map[string]string{
	model.DocTypeTempProforma: model.DocTypeProforma,
	model.DocTypeProforma:     model.DocTypeInvoice,
}

// NextDocumentType returns the type a document converts into.
func NextDocumentType(docType string) (string, bool) {
	next, ok := conversionTargets[docType]
	return next, ok
}

type ConversionService interface {
	Convert(ctx context.Context, id uuid.UUID, userID uuid.UUID) (DocumentResponse, error)
	GetConversionChain(ctx context.Context, id uuid.UUID) ([]ChainEntry, error)
}

type conversionService struct {
	*engine
}

func NewConversionService(deps Dependencies) ConversionService {
	return &conversionService{engine: newEngine(deps)}
}

func (s *conversionService) Convert(ctx context.Context, id uuid.UUID, userID uuid.UUID) (DocumentResponse, error) {
	if _, err := s.findUser(ctx, userID); err != nil {
		return DocumentResponse{}, err
	}

	var newID uuid.UUID
	err := s.runNumbered(ctx, func(txCtx context.Context) error {
		if _, err := s.lockDocument(txCtx, id); err != nil {
			return err
		}
		src, err := s.findDocument(txCtx, id)
		if err != nil {
			return err
		}

		target, ok := NextDocumentType(src.DocumentType)
		if !ok {
			return badRequest("Documents of type %s cannot be converted", src.DocumentType)
		}
		if src.Status == model.DocStatusCancelled || src.Status == model.DocStatusRejected {
			return badRequest("A %s document cannot be converted", src.Status)
		}
		if src.DocumentType == model.DocTypeTempProforma && src.RequiresApproval && src.ApprovalStatus != model.ApprovalApproved {
			return badRequest("Document has not been approved yet")
		}

		next, err := s.docs.FindSuccessor(txCtx, src.ID)
		switch {
		case err == nil:
			return badRequest("Document was already converted to %s", next.DocumentNumber)
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return fmt.Errorf("check successor: %w", err)
		}

		number, err := s.numbers.Allocate(txCtx, target, s.clock().Year())
		if err != nil {
			return err
		}

		doc := convertedDocument(src, target, number, userID)
		if err := s.docs.Create(txCtx, doc); err != nil {
			return fmt.Errorf("failed to create converted document: %w", err)
		}
		newID = doc.ID

		return s.record(txCtx, userID, model.ActionConvertDocument, doc, map[string]interface{}{
			"source_id":     src.ID.String(),
			"source_number": src.DocumentNumber,
			"from_type":     src.DocumentType,
			"to_type":       target,
		})
	})
	if err != nil {
		return DocumentResponse{}, err
	}

	doc, err := s.findDocument(ctx, newID)
	if err != nil {
		return DocumentResponse{}, err
	}
	s.log.Info("document converted",
		zap.String("source_id", id.String()),
		zap.String("document_id", doc.ID.String()),
		zap.String("document_number", doc.DocumentNumber),
	)
	s.publish(EventDocumentConverted, doc, userID)
	return toDocumentResponse(doc), nil
}

// convertedDocument derives the successor of src. Purchase and profit data
// is carried only into a proforma; invoices do not expose it.
func convertedDocument(src *model.Document, target, number string, userID uuid.UUID) *model.Document {
	keepProfit := target == model.DocTypeProforma
	srcID := src.ID

	doc := &model.Document{
		DocumentNumber:      number,
		DocumentType:        target,
		CustomerID:          src.CustomerID,
		CreatedBy:           userID,
		ConvertedFromID:     &srcID,
		IssueDate:           src.IssueDate,
		TotalAmount:         src.TotalAmount,
		DiscountAmount:      src.DiscountAmount,
		FinalAmount:         src.FinalAmount,
		TotalPurchaseAmount: decimal.Zero,
		TotalProfitAmount:   decimal.Zero,
		Status:              model.DocStatusDraft,
		ApprovalStatus:      model.ApprovalNotRequired,
		RequiresApproval:    false,
		Notes:               src.Notes,
		Attachment:          src.Attachment,
		Items:               make([]model.DocumentItem, 0, len(src.Items)),
	}
	if src.DueDate != nil {
		due := *src.DueDate
		doc.DueDate = &due
	}
	if keepProfit {
		doc.TotalPurchaseAmount = src.TotalPurchaseAmount
		doc.TotalProfitAmount = src.TotalProfitAmount
		doc.DefaultProfitPercentage = src.DefaultProfitPercentage
	}

	for _, it := range src.Items {
		item := model.DocumentItem{
			Position:         it.Position,
			Description:      it.Description,
			Quantity:         it.Quantity,
			UnitPrice:        it.UnitPrice,
			TotalPrice:       it.TotalPrice,
			PurchasePrice:    decimal.Zero,
			ProfitAmount:     decimal.Zero,
			ProfitPercentage: decimal.Zero,
			IsManualPrice:    it.IsManualPrice,
		}
		if keepProfit {
			item.PurchasePrice = it.PurchasePrice
			item.ProfitAmount = it.ProfitAmount
			item.ProfitPercentage = it.ProfitPercentage
		}
		doc.Items = append(doc.Items, item)
	}
	return doc
}

// GetConversionChain walks back to the root and then forward to the newest
// successor. Both walks are bounded and refuse to revisit a document.
func (s *conversionService) GetConversionChain(ctx context.Context, id uuid.UUID) ([]ChainEntry, error) {
	start, err := s.docs.FindChainNode(ctx, id)
	if err != nil {
		return nil, lookupError(err, "Document not found")
	}

	visited := map[uuid.UUID]bool{start.ID: true}
	root := start
	for steps := 0; root.ConvertedFromID != nil; steps++ {
		if steps >= s.maxChainLength {
			return nil, conflict("Conversion chain of %s exceeds %d documents", start.DocumentNumber, s.maxChainLength)
		}
		parent, err := s.docs.FindChainNode(ctx, *root.ConvertedFromID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// The predecessor was deleted; the chain starts here.
			break
		}
		if err != nil {
			return nil, fmt.Errorf("load predecessor: %w", err)
		}
		if visited[parent.ID] {
			return nil, conflict("Conversion chain of %s contains a cycle", start.DocumentNumber)
		}
		visited[parent.ID] = true
		root = parent
	}

	chain := []ChainEntry{toChainEntry(root)}
	seen := map[uuid.UUID]bool{root.ID: true}
	current := root
	for {
		next, err := s.docs.FindSuccessor(ctx, current.ID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("load successor: %w", err)
		}
		if seen[next.ID] {
			return nil, conflict("Conversion chain of %s contains a cycle", start.DocumentNumber)
		}
		if len(chain) >= s.maxChainLength {
			return nil, conflict("Conversion chain of %s exceeds %d documents", start.DocumentNumber, s.maxChainLength)
		}
		seen[next.ID] = true
		chain = append(chain, toChainEntry(next))
		current = next
	}
	return chain, nil
}

func toChainEntry(n *repository.ChainNode) ChainEntry {
	return ChainEntry{
		ID:             n.ID.String(),
		DocumentNumber: n.DocumentNumber,
		DocumentType:   n.DocumentType,
		FinalAmount:    n.FinalAmount.InexactFloat64(),
		CreatedAt:      n.CreatedAt.UTC().Format(time.RFC3339),
	}
}
