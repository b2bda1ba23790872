package port

import (
	"context"
	"time"
)

// BatchReadyEmail describes a published batch archive.
type BatchReadyEmail struct {
	BatchID   string
	URL       string
	ExpiresAt time.Time
	Succeeded int
	Failed    int
}

// EmailSender defines the contract for sending emails.
type EmailSender interface {
	SendBatchReadyEmail(ctx context.Context, toEmail string, msg BatchReadyEmail) error
}
