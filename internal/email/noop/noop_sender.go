package noop

import (
	"context"

	"go.uber.org/zap"

	"invoicegen/internal/port"
)

type noopSender struct {
	log *zap.Logger
}

// NewNoopSender creates an EmailSender that only logs what it would send.
func NewNoopSender(log *zap.Logger) port.EmailSender {
	if log == nil {
		log = zap.NewNop()
	}
	return &noopSender{log: log}
}

func (s *noopSender) SendBatchReadyEmail(_ context.Context, toEmail string, msg port.BatchReadyEmail) error {
	s.log.Info("noop email: batch ready",
		zap.String("to", toEmail),
		zap.String("batch_id", msg.BatchID),
		zap.String("url", msg.URL),
		zap.Int("succeeded", msg.Succeeded),
		zap.Int("failed", msg.Failed),
	)
	return nil
}
