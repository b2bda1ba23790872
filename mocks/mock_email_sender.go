package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"invoicegen/internal/port"
)

// MockEmailSender is a mock implementation of port.EmailSender.
type MockEmailSender struct {
	mock.Mock
}

func (m *MockEmailSender) SendBatchReadyEmail(ctx context.Context, toEmail string, msg port.BatchReadyEmail) error {
	args := m.Called(ctx, toEmail, msg)
	return args.Error(0)
}
