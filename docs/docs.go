// Package docs registers the OpenAPI document served under /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/invoices": {
            "post": {
                "description": "Render a single invoice as PDF from a JSON body or an HTML form.",
                "consumes": ["application/json", "application/x-www-form-urlencoded", "multipart/form-data"],
                "produces": ["application/pdf", "application/json"],
                "tags": ["invoices"],
                "summary": "Generate one invoice",
                "parameters": [
                    {"description": "Invoice data", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/parser.Form"}}
                ],
                "responses": {
                    "200": {"description": "Invoice PDF", "schema": {"type": "file"}},
                    "400": {"description": "Malformed request body", "schema": {"$ref": "#/definitions/handler.ErrorResponseBody"}},
                    "422": {"description": "Validation failed, missing font or layout overflow", "schema": {"$ref": "#/definitions/handler.ErrorResponseBody"}}
                }
            }
        },
        "/invoices/batch": {
            "post": {
                "description": "Render every row of a CSV or XLSX upload.",
                "consumes": ["multipart/form-data"],
                "produces": ["application/zip", "application/json"],
                "tags": ["invoices"],
                "summary": "Generate invoices from a spreadsheet",
                "parameters": [
                    {"type": "file", "description": "Rows as .csv or .xlsx", "name": "file", "in": "formData", "required": true},
                    {"type": "boolean", "description": "Upload the archive and return a download link", "name": "publish", "in": "formData"},
                    {"type": "string", "description": "Mail the download link to this address", "name": "notify_email", "in": "formData"}
                ],
                "responses": {
                    "200": {"description": "Zip archive of invoice PDFs", "schema": {"type": "file"}},
                    "201": {"description": "Archive published", "schema": {"$ref": "#/definitions/handler.BatchPublishedResponse"}},
                    "400": {"description": "Missing file, unsupported type or bad header", "schema": {"$ref": "#/definitions/handler.ErrorResponseBody"}},
                    "413": {"description": "File too large", "schema": {"$ref": "#/definitions/handler.ErrorResponseBody"}},
                    "422": {"description": "No row could be rendered", "schema": {"$ref": "#/definitions/handler.ErrorResponseBody"}}
                }
            }
        },
        "/invoices/batch/validate": {
            "post": {
                "description": "Parse every row of a CSV or XLSX upload and report per-row field errors.",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["invoices"],
                "summary": "Validate a spreadsheet without rendering",
                "parameters": [
                    {"type": "file", "description": "Rows as .csv or .xlsx", "name": "file", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {"description": "Validation report", "schema": {"$ref": "#/definitions/domain.ValidationReport"}},
                    "400": {"description": "Missing file, unsupported type or bad header", "schema": {"$ref": "#/definitions/handler.ErrorResponseBody"}}
                }
            }
        }
    },
    "definitions": {
        "parser.FormItem": {
            "type": "object",
            "properties": {
                "description": {"type": "string"},
                "quantity": {"type": "string"},
                "unit_price": {"type": "string"},
                "tax_rate": {"type": "string"}
            }
        },
        "parser.Form": {
            "type": "object",
            "properties": {
                "invoice_no": {"type": "string"},
                "date": {"type": "string"},
                "due_date": {"type": "string"},
                "seller_name": {"type": "string"},
                "seller_address": {"type": "string"},
                "seller_email": {"type": "string"},
                "seller_phone": {"type": "string"},
                "buyer_name": {"type": "string"},
                "buyer_address": {"type": "string"},
                "buyer_email": {"type": "string"},
                "buyer_phone": {"type": "string"},
                "currency": {"type": "string"},
                "tax_rate": {"type": "string"},
                "note": {"type": "string"},
                "registration_id": {"type": "string"},
                "items": {"type": "array", "items": {"$ref": "#/definitions/parser.FormItem"}}
            }
        },
        "domain.FieldError": {
            "type": "object",
            "properties": {
                "field": {"type": "string"},
                "reason": {"type": "string"},
                "value": {"type": "string"}
            }
        },
        "domain.RowError": {
            "type": "object",
            "properties": {
                "row": {"type": "integer"},
                "invoice_no": {"type": "string"},
                "kind": {"type": "string"},
                "detail": {"type": "string"},
                "fields": {"type": "array", "items": {"$ref": "#/definitions/domain.FieldError"}}
            }
        },
        "domain.ValidationReport": {
            "type": "object",
            "properties": {
                "total": {"type": "integer"},
                "valid": {"type": "integer"},
                "invalid": {"type": "integer"},
                "errors": {"type": "array", "items": {"$ref": "#/definitions/domain.RowError"}}
            }
        },
        "handler.APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "details": {}
            }
        },
        "handler.ErrorResponseBody": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean", "example": false},
                "error": {"$ref": "#/definitions/handler.APIError"}
            }
        },
        "handler.BatchPublishedResponse": {
            "type": "object",
            "properties": {
                "batch_id": {"type": "string"},
                "url": {"type": "string"},
                "expires_at": {"type": "string"},
                "succeeded": {"type": "integer"},
                "failed": {"type": "integer"},
                "notified": {"type": "boolean"},
                "errors": {"type": "array", "items": {"$ref": "#/definitions/domain.RowError"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "invoicegen API",
	Description:      "Renders invoices as PDF, one at a time or in batches from CSV and XLSX uploads.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
