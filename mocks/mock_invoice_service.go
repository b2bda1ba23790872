package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"invoicegen/internal/domain"
	"invoicegen/internal/parser"
	"invoicegen/internal/service"
)

// MockInvoiceService is a mock implementation of service.InvoiceService.
type MockInvoiceService struct {
	mock.Mock
}

func (m *MockInvoiceService) GenerateSingle(ctx context.Context, form parser.Form) (*service.Document, error) {
	args := m.Called(ctx, form)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Document), args.Error(1)
}

func (m *MockInvoiceService) GenerateBatch(ctx context.Context, input service.BatchInput) (*service.BatchOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.BatchOutput), args.Error(1)
}

func (m *MockInvoiceService) ValidateBatch(ctx context.Context, input service.BatchInput) (*domain.ValidationReport, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ValidationReport), args.Error(1)
}
