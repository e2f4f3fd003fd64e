package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"docflow/internal/model"
	"docflow/internal/repository"
	"docflow/internal/testutil"
)

var fixedNow = time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)

type recordedEvent struct {
	Name    string
	Payload DocumentEvent
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *recordingPublisher) Publish(event string, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ev, _ := payload.(DocumentEvent)
	p.events = append(p.events, recordedEvent{Name: event, Payload: ev})
}

func (p *recordingPublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Name)
	}
	return out
}

type harness struct {
	t         *testing.T
	db        *gorm.DB
	deps      Dependencies
	events    *recordingPublisher
	documents DocumentService
	convert   ConversionService
	approvals ApprovalService
	customer  *model.Customer
}

func newHarness(t *testing.T) *harness {
	return newHarnessWith(t, nil)
}

// newHarnessWith builds the services over sqlite; seq overrides the
// sequence backend when set.
func newHarnessWith(t *testing.T, seq repository.SequenceRepository) *harness {
	db := testutil.NewDB(t)
	if seq == nil {
		seq = repository.NewSequenceRepository(db)
	}

	events := &recordingPublisher{}
	deps := Dependencies{
		Documents:           repository.NewDocumentRepository(db),
		Customers:           repository.NewCustomerRepository(db),
		Users:               repository.NewUserRepository(db),
		Audit:               repository.NewAuditRepository(db),
		TxManager:           repository.NewTransactionManager(db),
		Numbers:             NewNumberAllocator(seq),
		Policy:              DefaultAuthorityPolicy(),
		Events:              events,
		Logger:              zap.NewNop(),
		Clock:               func() time.Time { return fixedNow },
		NumberRetryAttempts: 3,
		MaxChainLength:      8,
	}

	return &harness{
		t:         t,
		db:        db,
		deps:      deps,
		events:    events,
		documents: NewDocumentService(deps),
		convert:   NewConversionService(deps),
		approvals: NewApprovalService(deps),
		customer:  testutil.CreateCustomer(t, db, "Acme Trading"),
	}
}

func (h *harness) user(role string, ceiling string) *model.User {
	if ceiling == "" {
		return testutil.CreateUser(h.t, h.db, role, nil)
	}
	return testutil.CreateUser(h.t, h.db, role, testutil.DecPtr(ceiling))
}

func item(qty, unit string, purchase string) ItemInput {
	in := ItemInput{
		Description: "Widget",
		Quantity:    decimal.RequireFromString(qty),
		UnitPrice:   decimal.RequireFromString(unit),
	}
	if purchase != "" {
		p := decimal.RequireFromString(purchase)
		in.PurchasePrice = &p
	}
	return in
}

func (h *harness) createRequest(docType string, items ...ItemInput) CreateDocumentRequest {
	return CreateDocumentRequest{
		DocumentType: docType,
		CustomerID:   h.customer.ID,
		IssueDate:    "2026-03-15",
		Items:        items,
	}
}

// create makes a document through the service and fails the test on error.
func (h *harness) create(creator *model.User, req CreateDocumentRequest) DocumentResponse {
	h.t.Helper()
	doc, err := h.documents.Create(context.Background(), req, creator.ID)
	require.NoError(h.t, err)
	return doc
}

func (h *harness) stored(id string) *model.Document {
	h.t.Helper()
	var doc model.Document
	require.NoError(h.t, h.db.Preload("Items").First(&doc, "id = ?", uuid.MustParse(id)).Error)
	return &doc
}

func (h *harness) auditActions(entityID string) []string {
	h.t.Helper()
	var logs []model.AuditLog
	require.NoError(h.t, h.db.Where("entity_id = ?", entityID).Order("created_at asc").Find(&logs).Error)
	out := make([]string, 0, len(logs))
	for _, l := range logs {
		out = append(out, l.Action)
	}
	return out
}
