package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"docflow/internal/model"
	"docflow/internal/repository"
)

const (
	defaultNumberRetryAttempts = 3
	defaultMaxChainLength      = 32
)

// Dependencies wires the document services. Zero values of the optional
// fields fall back to sensible defaults.
type Dependencies struct {
	Documents repository.DocumentRepository
	Customers repository.CustomerRepository
	Users     repository.UserRepository
	Audit     repository.AuditRepository
	TxManager repository.TransactionManager
	Numbers   *NumberAllocator

	Policy              AuthorityPolicy
	Events              EventPublisher
	Logger              *zap.Logger
	Clock               func() time.Time
	NumberRetryAttempts int
	MaxChainLength      int
}

// engine holds what every document service shares.
type engine struct {
	docs      repository.DocumentRepository
	customers repository.CustomerRepository
	users     repository.UserRepository
	audit     repository.AuditRepository
	txManager repository.TransactionManager
	numbers   *NumberAllocator
	policy    AuthorityPolicy
	events    EventPublisher
	log       *zap.Logger
	now       func() time.Time

	numberRetryAttempts int
	maxChainLength      int
}

func newEngine(d Dependencies) *engine {
	e := &engine{
		docs:                d.Documents,
		customers:           d.Customers,
		users:               d.Users,
		audit:               d.Audit,
		txManager:           d.TxManager,
		numbers:             d.Numbers,
		policy:              d.Policy,
		events:              d.Events,
		log:                 d.Logger,
		now:                 d.Clock,
		numberRetryAttempts: d.NumberRetryAttempts,
		maxChainLength:      d.MaxChainLength,
	}
	if e.policy.roles == nil {
		e.policy = DefaultAuthorityPolicy()
	}
	if e.events == nil {
		e.events = nopPublisher{}
	}
	if e.log == nil {
		e.log = zap.NewNop()
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.numberRetryAttempts < 1 {
		e.numberRetryAttempts = defaultNumberRetryAttempts
	}
	if e.maxChainLength < 2 {
		e.maxChainLength = defaultMaxChainLength
	}
	return e
}

func (e *engine) clock() time.Time {
	return e.now().UTC()
}

// runNumbered runs fn in a transaction and retries the whole transaction
// when the insert hits the unique document number index.
func (e *engine) runNumbered(ctx context.Context, fn func(txCtx context.Context) error) error {
	for attempt := 1; ; attempt++ {
		err := e.txManager.RunInTx(ctx, fn)
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}
		if attempt >= e.numberRetryAttempts {
			e.log.Error("document number collision, giving up", zap.Int("attempts", attempt))
			return conflict("Could not allocate a unique document number, please retry")
		}
		e.log.Warn("document number collision, retrying", zap.Int("attempt", attempt))
	}
}

func (e *engine) findDocument(ctx context.Context, id uuid.UUID) (*model.Document, error) {
	doc, err := e.docs.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "Document not found")
	}
	return doc, nil
}

func (e *engine) lockDocument(ctx context.Context, id uuid.UUID) (*model.Document, error) {
	doc, err := e.docs.FindByIDForUpdate(ctx, id)
	if err != nil {
		return nil, lookupError(err, "Document not found")
	}
	return doc, nil
}

func (e *engine) findUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := e.users.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "User not found")
	}
	return user, nil
}

// record writes an audit row in the caller's transaction.
func (e *engine) record(ctx context.Context, userID uuid.UUID, action string, doc *model.Document, details map[string]interface{}) error {
	payload, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("marshal audit details: %w", err)
	}
	uid := userID
	entry := &model.AuditLog{
		UserID:     &uid,
		Action:     action,
		EntityID:   doc.ID.String(),
		EntityName: doc.DocumentNumber,
		Details:    datatypes.JSON(payload),
	}
	if err := e.audit.Log(ctx, entry); err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}

// reload fetches the committed document with relations for the response.
func (e *engine) reload(ctx context.Context, id uuid.UUID) (DocumentResponse, error) {
	doc, err := e.findDocument(ctx, id)
	if err != nil {
		return DocumentResponse{}, err
	}
	return toDocumentResponse(doc), nil
}

func (e *engine) publish(event string, doc *model.Document, actor uuid.UUID) {
	e.events.Publish(event, toDocumentEvent(doc, actor))
}
