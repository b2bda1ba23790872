// Package render draws a layout plan into a PDF document.
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/go-pdf/fpdf"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"

	"invoicegen/internal/assets"
	"invoicegen/internal/domain"
	"invoicegen/internal/layout"
)

const (
	family         = "invoice"
	fallbackFamily = "Helvetica"
	creator        = "invoicegen"
)

// Renderer turns plans into PDF bytes. It holds no per-document state and
// is safe for concurrent use.
type Renderer struct {
	log *zap.Logger
}

// New creates a Renderer. A nil logger disables logging.
func New(log *zap.Logger) *Renderer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Renderer{log: log}
}

// Render draws plan using fonts and images from provider. Failures are
// *domain.RenderError values.
func (r *Renderer) Render(ctx context.Context, plan *layout.Plan, provider assets.Provider) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: plan.Width, Ht: plan.Height},
	})
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(plan.Created)
	pdf.SetModificationDate(plan.Created)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	pdf.SetLineWidth(0.2)

	text, err := r.loadFonts(ctx, pdf, plan, provider)
	if err != nil {
		return nil, err
	}
	pdf.SetTitle(plan.Title, true)
	pdf.SetAuthor(plan.Author, true)
	pdf.SetCreator(creator, false)

	logo, err := r.loadLogo(ctx, pdf, plan, provider)
	if err != nil {
		return nil, err
	}

	for _, page := range plan.Pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pdf.AddPage()
		for _, img := range page.Images {
			if img.Asset == layout.LogoAsset && logo == "" {
				continue
			}
			pdf.ImageOptions(img.Asset, img.X, img.Y, img.W, img.H, false, fpdf.ImageOptions{ImageType: logo}, 0, "")
		}
		for _, rl := range page.Rules {
			pdf.Line(rl.X1, rl.Y1, rl.X2, rl.Y2)
		}
		for _, t := range page.Texts {
			style := ""
			if t.Bold {
				style = "B"
			}
			pdf.SetFont(text.family, style, t.Size)
			pdf.SetXY(t.X, t.Y)
			pdf.CellFormat(t.W, t.H, text.conv(t.Text), "", 0, alignStr(t.Align)+"M", false, 0, "")
		}
	}

	if pdf.Err() {
		return nil, domain.NewRenderError(domain.RenderInvalidAsset, "drawing document: %v", pdf.Error())
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("writing pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// textMode describes how strings reach the PDF.
type textMode struct {
	family string
	conv   func(string) string
}

// loadFonts registers the embedded font family. Without a regular font
// the core Helvetica face is used, which only covers Windows-1252 text.
func (r *Renderer) loadFonts(ctx context.Context, pdf *fpdf.Fpdf, plan *layout.Plan, provider assets.Provider) (textMode, error) {
	regular, err := provider.Get(ctx, assets.FontRegular)
	switch {
	case errors.Is(err, assets.ErrNotFound):
		if s, ok := firstUnencodable(plan.Strings()); ok {
			return textMode{}, domain.NewRenderError(domain.RenderMissingFont,
				"no %s asset and %q needs glyphs outside Windows-1252", assets.FontRegular, s)
		}
		r.log.Debug("font asset missing, using core font", zap.String("family", fallbackFamily))
		return textMode{
			family: fallbackFamily,
			conv:   pdf.UnicodeTranslatorFromDescriptor(""),
		}, nil
	case err != nil:
		return textMode{}, fmt.Errorf("loading %s: %w", assets.FontRegular, err)
	}

	bold, err := provider.Get(ctx, assets.FontBold)
	switch {
	case errors.Is(err, assets.ErrNotFound):
		bold = regular
	case err != nil:
		return textMode{}, fmt.Errorf("loading %s: %w", assets.FontBold, err)
	}

	if err := addFont(pdf, "", regular); err != nil {
		return textMode{}, err
	}
	if err := addFont(pdf, "B", bold); err != nil {
		return textMode{}, err
	}
	return textMode{family: family, conv: func(s string) string { return s }}, nil
}

func addFont(pdf *fpdf.Fpdf, style string, a *assets.Asset) (err error) {
	if !isTrueType(a.Data) {
		return domain.NewRenderError(domain.RenderInvalidAsset, "%s is not a TrueType font", a.Name)
	}
	defer func() {
		if p := recover(); p != nil {
			err = domain.NewRenderError(domain.RenderInvalidAsset, "%s could not be parsed: %v", a.Name, p)
		}
	}()
	pdf.AddUTF8FontFromBytes(family, style, a.Data)
	if pdf.Err() {
		return domain.NewRenderError(domain.RenderInvalidAsset, "%s could not be parsed: %v", a.Name, pdf.Error())
	}
	return nil
}

// loadLogo registers the logo image when the plan places one. It returns
// the fpdf image type, or "" when there is no logo to draw.
func (r *Renderer) loadLogo(ctx context.Context, pdf *fpdf.Fpdf, plan *layout.Plan, provider assets.Provider) (string, error) {
	if !placesLogo(plan) {
		return "", nil
	}
	a, err := provider.Get(ctx, assets.Logo)
	if errors.Is(err, assets.ErrNotFound) {
		r.log.Debug("logo placed but no logo asset, omitting")
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("loading %s: %w", assets.Logo, err)
	}

	typ := imageType(a.Data)
	if typ == "" {
		return "", domain.NewRenderError(domain.RenderInvalidAsset, "%s is neither PNG nor JPEG", a.Name)
	}
	pdf.RegisterImageOptionsReader(layout.LogoAsset, fpdf.ImageOptions{ImageType: typ}, bytes.NewReader(a.Data))
	if pdf.Err() {
		return "", domain.NewRenderError(domain.RenderInvalidAsset, "%s could not be decoded: %v", a.Name, pdf.Error())
	}
	return typ, nil
}

func placesLogo(plan *layout.Plan) bool {
	for _, p := range plan.Pages {
		for _, img := range p.Images {
			if img.Asset == layout.LogoAsset {
				return true
			}
		}
	}
	return false
}

// firstUnencodable returns the first string that Windows-1252 cannot
// represent.
func firstUnencodable(strs []string) (string, bool) {
	enc := charmap.Windows1252.NewEncoder()
	for _, s := range strs {
		if _, err := enc.String(s); err != nil {
			return s, true
		}
	}
	return "", false
}

func isTrueType(b []byte) bool {
	if len(b) < 12 {
		return false
	}
	magic := string(b[:4])
	return magic == "\x00\x01\x00\x00" || magic == "true"
}

func imageType(b []byte) string {
	switch {
	case bytes.HasPrefix(b, []byte("\x89PNG\r\n\x1a\n")):
		return "PNG"
	case bytes.HasPrefix(b, []byte{0xFF, 0xD8, 0xFF}):
		return "JPG"
	default:
		return ""
	}
}

func alignStr(a layout.Align) string {
	switch a {
	case layout.AlignRight:
		return "R"
	case layout.AlignCenter:
		return "C"
	default:
		return "L"
	}
}
