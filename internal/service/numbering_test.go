package service

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docflow/internal/model"
)

type stubSequence struct {
	next  map[string]int64
	fixed int64
	err   error
}

func (s *stubSequence) Next(_ context.Context, docType string, year int) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	if s.fixed > 0 {
		return s.fixed, nil
	}
	if s.next == nil {
		s.next = map[string]int64{}
	}
	s.next[docType]++
	return s.next[docType], nil
}

var documentNumberPattern = regexp.MustCompile(`^[A-Z]+-\d{4}-\d{6}$`)

func TestNumberAllocator_Allocate(t *testing.T) {
	alloc := NewNumberAllocator(&stubSequence{})
	ctx := context.Background()

	want := map[string]string{
		model.DocTypeTempProforma:  "TMP-2026-000001",
		model.DocTypeProforma:      "PRF-2026-000001",
		model.DocTypeInvoice:       "INV-2026-000001",
		model.DocTypeReturnInvoice: "RTN-2026-000001",
		model.DocTypeReceipt:       "RCP-2026-000001",
		model.DocTypeOther:         "DOC-2026-000001",
	}
	for _, docType := range model.DocumentTypes {
		got, err := alloc.Allocate(ctx, docType, 2026)
		require.NoError(t, err)
		assert.Equal(t, want[docType], got)
		assert.Regexp(t, documentNumberPattern, got)
	}

	second, err := alloc.Allocate(ctx, model.DocTypeInvoice, 2026)
	require.NoError(t, err)
	assert.Equal(t, "INV-2026-000002", second)
}

func TestNumberAllocator_Errors(t *testing.T) {
	_, err := NewNumberAllocator(&stubSequence{}).Allocate(context.Background(), "quote", 2026)
	assert.ErrorIs(t, err, ErrBadRequest)

	storeDown := errors.New("store down")
	_, err = NewNumberAllocator(&stubSequence{err: storeDown}).Allocate(context.Background(), model.DocTypeInvoice, 2026)
	assert.ErrorIs(t, err, storeDown)
}

func TestFormatDocumentNumber(t *testing.T) {
	assert.Equal(t, "INV-2026-000042", FormatDocumentNumber("INV", 2026, 42))
	assert.Equal(t, "DOC-2030-1234567", FormatDocumentNumber("DOC", 2030, 1234567))
}
