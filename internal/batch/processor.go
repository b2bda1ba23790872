// Package batch turns many input rows into one archive of invoices.
package batch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"invoicegen/internal/archive"
	"invoicegen/internal/assets"
	"invoicegen/internal/csvexport"
	"invoicegen/internal/domain"
	"invoicegen/internal/layout"
	"invoicegen/internal/parser"
	"invoicegen/internal/render"
	"invoicegen/internal/tax"
)

// Batch states, logged as they are entered.
const (
	StateParsing   = "parsing"
	StateRendering = "rendering"
	StatePackaging = "packaging"
	StateDone      = "done"
)

// Options configures a Processor.
type Options struct {
	Layout             layout.PageConfig
	Concurrency        int
	IncludeErrorReport bool
	// ArchiveTime stamps every archive entry. Zero selects the earliest
	// time a zip entry can carry.
	ArchiveTime time.Time
}

// Result is the outcome of one batch. Archive is nil when no row
// produced a document.
type Result struct {
	Summary domain.BatchSummary
	Archive []byte
}

// Processor runs the parse, aggregate, layout and render pipeline.
// It is safe for concurrent use.
type Processor struct {
	parser   *parser.Parser
	renderer *render.Renderer
	assets   assets.Provider
	opts     Options
	log      *zap.Logger
}

// New creates a Processor. It fails when the layout configuration is invalid.
func New(p *parser.Parser, r *render.Renderer, provider assets.Provider, opts Options, log *zap.Logger) (*Processor, error) {
	if err := opts.Layout.Validate(); err != nil {
		return nil, fmt.Errorf("layout config: %w", err)
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Processor{parser: p, renderer: r, assets: provider, opts: opts, log: log}, nil
}

// Parser returns the parser rows are validated with.
func (p *Processor) Parser() *parser.Parser { return p.parser }

// Document renders one validated invoice.
func (p *Processor) Document(ctx context.Context, inv *domain.Invoice) ([]byte, error) {
	cfg, err := p.pageConfig(ctx)
	if err != nil {
		return nil, err
	}
	return p.document(ctx, inv, cfg)
}

func (p *Processor) document(ctx context.Context, inv *domain.Invoice, cfg layout.PageConfig) ([]byte, error) {
	b := tax.Aggregate(inv.Items, tax.Scale(inv.Currency))
	plan, err := layout.Layout(inv, b, cfg)
	if err != nil {
		return nil, err
	}
	return p.renderer.Render(ctx, plan, p.assets)
}

// pageConfig reserves the logo box only when a logo asset exists.
func (p *Processor) pageConfig(ctx context.Context) (layout.PageConfig, error) {
	cfg := p.opts.Layout
	_, err := p.assets.Get(ctx, assets.Logo)
	switch {
	case err == nil:
		cfg.Logo = true
	case errors.Is(err, assets.ErrNotFound):
		cfg.Logo = false
	default:
		return cfg, fmt.Errorf("looking up logo: %w", err)
	}
	return cfg, nil
}

// slot holds the outcome of one row, indexed by input position.
type slot struct {
	row  parser.Row
	inv  *domain.Invoice
	data []byte
	err  *domain.RowError
}

// Process renders every row it can. Rows that fail are reported in the
// summary and never abort the batch. Only context cancellation does.
func (p *Processor) Process(ctx context.Context, rows []parser.Row) (*Result, error) {
	batchID := uuid.NewString()
	log := p.log.With(zap.String("batch_id", batchID))
	start := time.Now()

	cfg, err := p.pageConfig(ctx)
	if err != nil {
		return nil, err
	}

	log.Debug("batch state", zap.String("state", StateParsing), zap.Int("rows", len(rows)))
	slots, err := p.parse(ctx, rows)
	if err != nil {
		return nil, err
	}

	log.Debug("batch state", zap.String("state", StateRendering))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Concurrency)
	for i := range slots {
		s := &slots[i]
		if s.inv == nil {
			continue
		}
		g.Go(func() error {
			data, err := p.document(gctx, s.inv, cfg)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				s.err = &domain.RowError{
					Row:       s.row.Number,
					InvoiceNo: s.inv.Number,
					Kind:      domain.RowErrorRender,
					Detail:    err.Error(),
				}
				log.Debug("row failed", zap.Int("row", s.row.Number), zap.Error(err))
				return nil
			}
			s.data = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	log.Debug("batch state", zap.String("state", StatePackaging))
	res, err := p.pack(batchID, slots)
	if err != nil {
		return nil, err
	}

	log.Debug("batch state", zap.String("state", StateDone))
	log.Info("batch processed",
		zap.Int("total", res.Summary.Total),
		zap.Int("succeeded", res.Summary.Succeeded),
		zap.Int("failed", res.Summary.Failed),
		zap.Duration("elapsed", time.Since(start)),
	)
	return res, nil
}

// Validate runs the parse and duplicate checks without rendering.
func (p *Processor) Validate(ctx context.Context, rows []parser.Row) (*domain.ValidationReport, error) {
	slots, err := p.parse(ctx, rows)
	if err != nil {
		return nil, err
	}
	report := &domain.ValidationReport{Total: len(rows), Errors: []domain.RowError{}}
	for i := range slots {
		if slots[i].err != nil {
			report.Errors = append(report.Errors, *slots[i].err)
		}
	}
	report.Invalid = len(report.Errors)
	report.Valid = report.Total - report.Invalid
	return report, nil
}

// parse validates rows in input order. A repeated invoice number fails
// every row after the first one that used it.
func (p *Processor) parse(ctx context.Context, rows []parser.Row) ([]slot, error) {
	slots := make([]slot, len(rows))
	seen := make(map[string]int, len(rows))
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		slots[i].row = row
		inv, err := p.parser.Parse(row)
		if err != nil {
			slots[i].err = validationError(row, err)
			continue
		}
		if first, dup := seen[inv.Number]; dup {
			slots[i].err = &domain.RowError{
				Row:       row.Number,
				InvoiceNo: inv.Number,
				Kind:      domain.RowErrorDuplicate,
				Detail:    fmt.Sprintf("invoice_no already used by row %d", first),
			}
			continue
		}
		seen[inv.Number] = row.Number
		slots[i].inv = inv
	}
	return slots, nil
}

func (p *Processor) pack(batchID string, slots []slot) (*Result, error) {
	summary := domain.BatchSummary{
		BatchID: batchID,
		Total:   len(slots),
		Entries: []domain.ArchiveEntry{},
		Errors:  []domain.RowError{},
	}
	w := archive.NewWriter(p.opts.ArchiveTime)
	for i := range slots {
		s := &slots[i]
		if s.err != nil {
			summary.Errors = append(summary.Errors, *s.err)
			continue
		}
		name := archive.UniqueName(archive.DocumentName(s.inv.Number, s.row.Number), s.row.Number, w.Has)
		if err := w.Add(name, s.data); err != nil {
			return nil, fmt.Errorf("adding %s: %w", name, err)
		}
		summary.Entries = append(summary.Entries, domain.ArchiveEntry{
			Row:       s.row.Number,
			InvoiceNo: s.inv.Number,
			Name:      name,
			Size:      len(s.data),
		})
	}
	summary.Succeeded = len(summary.Entries)
	summary.Failed = len(summary.Errors)

	res := &Result{Summary: summary}
	if summary.Succeeded == 0 {
		return res, nil
	}
	if p.opts.IncludeErrorReport && summary.Failed > 0 {
		report, err := csvexport.Report(summary.Errors)
		if err != nil {
			return nil, fmt.Errorf("building error report: %w", err)
		}
		if err := w.Add(csvexport.ReportName, report); err != nil {
			return nil, fmt.Errorf("adding error report: %w", err)
		}
	}
	data, err := w.Close()
	if err != nil {
		return nil, fmt.Errorf("closing archive: %w", err)
	}
	res.Archive = data
	return res, nil
}

func validationError(row parser.Row, err error) *domain.RowError {
	re := &domain.RowError{
		Row:       row.Number,
		InvoiceNo: row.Get(parser.ColInvoiceNo),
		Kind:      domain.RowErrorValidation,
		Detail:    err.Error(),
	}
	var fe *domain.FieldErrors
	if errors.As(err, &fe) {
		re.Fields = fe.Fields
	}
	return re
}
