package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"go.uber.org/zap"

	"invoicegen/internal/archive"
	"invoicegen/internal/batch"
	"invoicegen/internal/config"
	"invoicegen/internal/domain"
	"invoicegen/internal/logger"
	"invoicegen/internal/parser"
	"invoicegen/internal/port"
	"invoicegen/internal/rowsource"
)

// ArchiveName is the file name of a batch archive.
const ArchiveName = "invoices.zip"

// Document is one rendered invoice.
type Document struct {
	Name      string
	InvoiceNo string
	Data      []byte
}

// BatchInput is the DTO for batch requests.
type BatchInput struct {
	FileName string
	Reader   io.Reader
	// Size is the declared upload size, or 0 when unknown.
	Size        int64
	Publish     bool
	NotifyEmail string
}

// BatchOutput is the result of a batch run. URL is set only when the
// archive was published.
type BatchOutput struct {
	Summary   domain.BatchSummary
	Archive   []byte
	URL       string
	ExpiresAt time.Time
	Notified  bool
}

// NoDocumentsError reports a batch in which every row failed.
type NoDocumentsError struct {
	Summary domain.BatchSummary
}

func (e *NoDocumentsError) Error() string {
	return fmt.Sprintf("%s: %d of %d rows failed", domain.ErrNoDocuments, e.Summary.Failed, e.Summary.Total)
}

func (e *NoDocumentsError) Unwrap() error { return domain.ErrNoDocuments }

// InvoiceService defines the invoice generation contract.
type InvoiceService interface {
	GenerateSingle(ctx context.Context, form parser.Form) (*Document, error)
	GenerateBatch(ctx context.Context, input BatchInput) (*BatchOutput, error)
	ValidateBatch(ctx context.Context, input BatchInput) (*domain.ValidationReport, error)
}

// Options carries the settings the service needs from configuration.
type Options struct {
	MaxUploadBytes int64
	Bucket         string
	PresignExpiry  int64
	Publish        config.PublishConfig
}

// OptionsFromConfig extracts service options from cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		MaxUploadBytes: cfg.Batch.MaxUploadMB * 1024 * 1024,
		Bucket:         cfg.S3.Bucket,
		PresignExpiry:  cfg.S3.PresignExpiry,
		Publish:        cfg.Publish,
	}
}

type invoiceService struct {
	processor *batch.Processor
	storage   port.ObjectStorage
	email     port.EmailSender
	opts      Options
	log       *zap.Logger
	now       func() time.Time
}

// NewInvoiceService creates a new InvoiceService implementation. storage
// and email may be nil when publishing is disabled.
func NewInvoiceService(
	processor *batch.Processor,
	storage port.ObjectStorage,
	email port.EmailSender,
	opts Options,
	log *zap.Logger,
) InvoiceService {
	return &invoiceService{
		processor: processor,
		storage:   storage,
		email:     email,
		opts:      opts,
		log:       logger.OrNop(log),
		now:       time.Now,
	}
}

func (s *invoiceService) GenerateSingle(ctx context.Context, form parser.Form) (*Document, error) {
	inv, err := s.processor.Parser().ParseForm(form)
	if err != nil {
		return nil, err
	}
	data, err := s.processor.Document(ctx, inv)
	if err != nil {
		return nil, err
	}

	name := "invoice.pdf"
	if clean := archive.SanitizeFilename(inv.Number); clean != "" {
		name = "invoice_" + clean + ".pdf"
	}
	logger.FromContextOr(ctx, s.log).Info("invoice generated",
		zap.String("invoice_no", inv.Number), zap.Int("bytes", len(data)))
	return &Document{Name: name, InvoiceNo: inv.Number, Data: data}, nil
}

func (s *invoiceService) GenerateBatch(ctx context.Context, input BatchInput) (*BatchOutput, error) {
	if input.Publish && !s.canPublish() {
		return nil, domain.ErrPublishDisabled
	}
	rows, err := s.readRows(input)
	if err != nil {
		return nil, err
	}

	res, err := s.processor.Process(ctx, rows)
	if err != nil {
		return nil, fmt.Errorf("processing batch: %w", err)
	}
	if res.Archive == nil {
		return nil, &NoDocumentsError{Summary: res.Summary}
	}

	out := &BatchOutput{Summary: res.Summary, Archive: res.Archive}
	if !input.Publish {
		return out, nil
	}

	if err := s.publish(ctx, out); err != nil {
		return nil, err
	}
	if input.NotifyEmail != "" {
		out.Notified = s.notify(ctx, input.NotifyEmail, out)
	}
	return out, nil
}

func (s *invoiceService) ValidateBatch(ctx context.Context, input BatchInput) (*domain.ValidationReport, error) {
	rows, err := s.readRows(input)
	if err != nil {
		return nil, err
	}
	return s.processor.Validate(ctx, rows)
}

// readRows buffers the upload so its size can be enforced before parsing.
func (s *invoiceService) readRows(input BatchInput) ([]parser.Row, error) {
	limit := s.opts.MaxUploadBytes
	if limit > 0 && input.Size > limit {
		return nil, domain.ErrFileTooLarge
	}
	r := input.Reader
	if limit > 0 {
		r = io.LimitReader(r, limit+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	if limit > 0 && int64(len(data)) > limit {
		return nil, domain.ErrFileTooLarge
	}
	return rowsource.Read(input.FileName, bytes.NewReader(data))
}

func (s *invoiceService) canPublish() bool {
	return s.opts.Publish.Enabled && s.storage != nil && s.opts.Bucket != ""
}

func (s *invoiceService) publish(ctx context.Context, out *BatchOutput) error {
	key := path.Join(s.opts.Publish.Prefix, out.Summary.BatchID, ArchiveName)
	log := logger.FromContextOr(ctx, s.log).With(zap.String("batch_id", out.Summary.BatchID), zap.String("s3_key", key))

	if _, err := s.storage.Upload(ctx, port.UploadInput{
		Bucket:      s.opts.Bucket,
		Key:         key,
		Body:        bytes.NewReader(out.Archive),
		ContentType: "application/zip",
		Size:        int64(len(out.Archive)),
		Filename:    ArchiveName,
	}); err != nil {
		log.Error("archive upload failed", zap.Error(err))
		return fmt.Errorf("%w: %v", domain.ErrPublishFailed, err)
	}

	url, err := s.storage.GetPresignedURL(ctx, s.opts.Bucket, key, s.opts.PresignExpiry)
	if err != nil {
		log.Error("presigning archive failed", zap.Error(err))
		if delErr := s.storage.Delete(ctx, s.opts.Bucket, key); delErr != nil {
			log.Warn("removing unpublished archive failed", zap.Error(delErr))
		}
		return fmt.Errorf("%w: %v", domain.ErrPublishFailed, err)
	}

	out.URL = url
	out.ExpiresAt = s.now().Add(time.Duration(s.opts.PresignExpiry) * time.Second)
	log.Info("archive published", zap.Int("bytes", len(out.Archive)))
	return nil
}

// notify mails the download link. A failed mail does not fail the batch
// since the archive is already published.
func (s *invoiceService) notify(ctx context.Context, to string, out *BatchOutput) bool {
	if s.email == nil {
		return false
	}
	err := s.email.SendBatchReadyEmail(ctx, to, port.BatchReadyEmail{
		BatchID:   out.Summary.BatchID,
		URL:       out.URL,
		ExpiresAt: out.ExpiresAt,
		Succeeded: out.Summary.Succeeded,
		Failed:    out.Summary.Failed,
	})
	if err != nil {
		logger.FromContextOr(ctx, s.log).Warn("batch notification failed",
			zap.String("batch_id", out.Summary.BatchID), zap.Error(err))
		return false
	}
	return true
}
