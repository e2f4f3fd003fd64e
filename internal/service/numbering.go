package service

import (
	"context"
	"fmt"

	"docflow/internal/model"
	"docflow/internal/repository"
)

var documentPrefixes = map[string]string{
	model.DocTypeTempProforma:  "TMP",
	model.DocTypeProforma:      "PRF",
	model.DocTypeInvoice:       "INV",
	model.DocTypeReturnInvoice: "RTN",
	model.DocTypeReceipt:       "RCP",
	model.DocTypeOther:         "DOC",
}

// NumberAllocator issues document numbers of the form PREFIX-YEAR-000001.
// Sequences are per (document type, year).
type NumberAllocator struct {
	sequences repository.SequenceRepository
}

func NewNumberAllocator(sequences repository.SequenceRepository) *NumberAllocator {
	return &NumberAllocator{sequences: sequences}
}

// Allocate reserves the next number for docType in year. Call it inside the
// transaction that inserts the document.
func (a *NumberAllocator) Allocate(ctx context.Context, docType string, year int) (string, error) {
	prefix, ok := documentPrefixes[docType]
	if !ok {
		return "", badRequest("Unknown document type %q", docType)
	}

	seq, err := a.sequences.Next(ctx, docType, year)
	if err != nil {
		return "", fmt.Errorf("allocate document number: %w", err)
	}
	return FormatDocumentNumber(prefix, year, seq), nil
}

func FormatDocumentNumber(prefix string, year int, seq int64) string {
	return fmt.Sprintf("%s-%d-%06d", prefix, year, seq)
}
