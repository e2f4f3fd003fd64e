package service

// Lifecycle events broadcast after a change commits.
const (
	EventDocumentCreated           = "document.created"
	EventDocumentUpdated           = "document.updated"
	EventDocumentDeleted           = "document.deleted"
	EventDocumentConverted         = "document.converted"
	EventDocumentApprovalRequested = "document.approval_requested"
	EventDocumentApproved          = "document.approved"
	EventDocumentRejected          = "document.rejected"
)

// EventPublisher delivers lifecycle events to live subscribers.
// Publish must not block.
type EventPublisher interface {
	Publish(event string, payload interface{})
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, interface{}) {}

// DocumentEvent is the payload of every document.* event.
type DocumentEvent struct {
	DocumentID     string  `json:"document_id"`
	DocumentNumber string  `json:"document_number"`
	DocumentType   string  `json:"document_type"`
	Status         string  `json:"status"`
	ApprovalStatus string  `json:"approval_status"`
	FinalAmount    float64 `json:"final_amount"`
	ActorID        string  `json:"actor_id"`
	SourceID       *string `json:"source_id,omitempty"`
}
