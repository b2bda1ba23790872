package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"invoicegen/internal/parser"
	"invoicegen/internal/service"
)

// InvoiceHandler handles invoice generation endpoints.
type InvoiceHandler struct {
	invoiceService service.InvoiceService
}

// NewInvoiceHandler creates a new InvoiceHandler.
func NewInvoiceHandler(invoiceService service.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService}
}

// Generate handles POST /api/v1/invoices
// @Summary Generate one invoice
// @Description Render a single invoice as PDF from a JSON body or an HTML form. Form posts send line items as repeated item_desc, item_qty, item_unit and item_rate fields.
// @Tags invoices
// @Accept json,x-www-form-urlencoded,multipart/form-data
// @Produce application/pdf,json
// @Param request body parser.Form true "Invoice data"
// @Success 200 {file} file "Invoice PDF"
// @Failure 400 {object} ErrorResponseBody "Malformed request body"
// @Failure 422 {object} ErrorResponseBody "Validation failed, missing font or layout overflow"
// @Failure 500 {object} ErrorResponseBody "Internal error"
// @Router /invoices [post]
func (h *InvoiceHandler) Generate(c *gin.Context) {
	form, ok := bindForm(c)
	if !ok {
		return
	}

	doc, err := h.invoiceService.GenerateSingle(c.Request.Context(), form)
	if err != nil {
		HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Name))
	c.Data(http.StatusOK, "application/pdf", doc.Data)
}

// GenerateBatch handles POST /api/v1/invoices/batch
// @Summary Generate invoices from a spreadsheet
// @Description Render every row of a CSV or XLSX upload. The archive is returned directly, or published to object storage when publish=true.
// @Tags invoices
// @Accept multipart/form-data
// @Produce application/zip,json
// @Param file formData file true "Rows as .csv or .xlsx"
// @Param publish formData bool false "Upload the archive and return a download link"
// @Param notify_email formData string false "Mail the download link to this address (requires publish)"
// @Success 200 {file} file "Zip archive of invoice PDFs"
// @Success 201 {object} Response{data=BatchPublishedResponse} "Archive published"
// @Failure 400 {object} ErrorResponseBody "Missing file, unsupported type or bad header"
// @Failure 413 {object} ErrorResponseBody "File too large"
// @Failure 422 {object} ErrorResponseBody "No row could be rendered"
// @Failure 502 {object} ErrorResponseBody "Publishing failed"
// @Router /invoices/batch [post]
func (h *InvoiceHandler) GenerateBatch(c *gin.Context) {
	input, cleanup, ok := batchInput(c)
	if !ok {
		return
	}
	defer cleanup()

	if v := c.PostForm("publish"); v != "" {
		publish, err := strconv.ParseBool(v)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "publish must be a boolean")
			return
		}
		input.Publish = publish
	}
	input.NotifyEmail = strings.TrimSpace(c.PostForm("notify_email"))
	if input.NotifyEmail != "" {
		if err := binding.Validator.ValidateStruct(notifyRequest{Email: input.NotifyEmail}); err != nil {
			RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "notify_email must be a valid email address")
			return
		}
	}

	out, err := h.invoiceService.GenerateBatch(c.Request.Context(), input)
	if err != nil {
		HandleError(c, err)
		return
	}

	if out.URL != "" {
		RespondCreated(c, BatchPublishedResponse{
			BatchID:   out.Summary.BatchID,
			URL:       out.URL,
			ExpiresAt: out.ExpiresAt,
			Succeeded: out.Summary.Succeeded,
			Failed:    out.Summary.Failed,
			Notified:  out.Notified,
			Errors:    out.Summary.Errors,
		})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", service.ArchiveName))
	c.Header("X-Batch-ID", out.Summary.BatchID)
	c.Header("X-Batch-Succeeded", strconv.Itoa(out.Summary.Succeeded))
	c.Header("X-Batch-Failed", strconv.Itoa(out.Summary.Failed))
	c.Data(http.StatusOK, "application/zip", out.Archive)
}

// ValidateBatch handles POST /api/v1/invoices/batch/validate
// @Summary Validate a spreadsheet without rendering
// @Description Parse every row of a CSV or XLSX upload and report per-row field errors.
// @Tags invoices
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Rows as .csv or .xlsx"
// @Success 200 {object} Response{data=domain.ValidationReport} "Validation report"
// @Failure 400 {object} ErrorResponseBody "Missing file, unsupported type or bad header"
// @Failure 413 {object} ErrorResponseBody "File too large"
// @Router /invoices/batch/validate [post]
func (h *InvoiceHandler) ValidateBatch(c *gin.Context) {
	input, cleanup, ok := batchInput(c)
	if !ok {
		return
	}
	defer cleanup()

	report, err := h.invoiceService.ValidateBatch(c.Request.Context(), input)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, report)
}

type notifyRequest struct {
	Email string `binding:"required,email"`
}

// batchInput opens the uploaded file. On failure the error response is
// already written.
func batchInput(c *gin.Context) (service.BatchInput, func(), bool) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "file field is required")
		return service.BatchInput{}, nil, false
	}
	return service.BatchInput{
		FileName: header.Filename,
		Reader:   file,
		Size:     header.Size,
	}, func() { _ = file.Close() }, true
}

// bindForm reads a single-invoice request from JSON or form fields. On
// failure the error response is already written.
func bindForm(c *gin.Context) (parser.Form, bool) {
	var form parser.Form
	if err := c.ShouldBind(&form); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "request body could not be decoded")
		return form, false
	}
	if c.ContentType() != binding.MIMEJSON {
		form.Items = formItems(c)
	}
	return form, true
}

// formItems zips the repeated item fields of an HTML form by position.
func formItems(c *gin.Context) []parser.FormItem {
	desc := c.PostFormArray("item_desc")
	qty := c.PostFormArray("item_qty")
	unit := c.PostFormArray("item_unit")
	rate := c.PostFormArray("item_rate")

	n := max(len(desc), len(qty), len(unit), len(rate))
	items := make([]parser.FormItem, n)
	for i := range items {
		items[i] = parser.FormItem{
			Description: at(desc, i),
			Quantity:    at(qty, i),
			UnitPrice:   at(unit, i),
			TaxRate:     at(rate, i),
		}
	}
	return items
}

func at(s []string, i int) string {
	if i < len(s) {
		return s[i]
	}
	return ""
}
