package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"invoicegen/internal/domain"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig
	Log     LogConfig
	Invoice InvoiceConfig
	Layout  LayoutConfig
	Batch   BatchConfig
	Assets  AssetsConfig
	S3      S3Config
	Publish PublishConfig
	Email   EmailConfig
	CORS    CORSConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// InvoiceConfig holds input parsing rules.
type InvoiceConfig struct {
	DefaultCurrency string           `mapstructure:"default_currency"`
	DateFormat      string           `mapstructure:"date_format"`
	TaxRates        []domain.TaxRate `mapstructure:"tax_rates"`
}

// LayoutConfig points at an optional YAML page profile.
type LayoutConfig struct {
	Profile string `mapstructure:"profile"`
}

// BatchConfig holds batch processing settings.
type BatchConfig struct {
	Concurrency        int   `mapstructure:"concurrency"`
	MaxUploadMB        int64 `mapstructure:"max_upload_mb"`
	IncludeErrorReport bool  `mapstructure:"include_error_report"`
}

// AssetsConfig tells where fonts and the logo come from.
type AssetsConfig struct {
	Source      string `mapstructure:"source"` // "dir" or "s3"
	Dir         string `mapstructure:"dir"`
	RegularFont string `mapstructure:"regular_font"`
	BoldFont    string `mapstructure:"bold_font"`
	Logo        string `mapstructure:"logo"`
	S3Prefix    string `mapstructure:"s3_prefix"`
}

// Files maps logical asset names to file names.
func (a *AssetsConfig) Files() map[string]string {
	files := map[string]string{}
	if a.RegularFont != "" {
		files["font/regular"] = a.RegularFont
	}
	if a.BoldFont != "" {
		files["font/bold"] = a.BoldFont
	}
	if a.Logo != "" {
		files["logo"] = a.Logo
	}
	return files
}

// S3Config holds AWS S3 settings.
type S3Config struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	PresignExpiry int64  `mapstructure:"presign_expiry"`
}

// PublishConfig controls uploading batch archives to S3.
type PublishConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Prefix  string `mapstructure:"prefix"`
}

// EmailConfig holds email delivery settings.
type EmailConfig struct {
	Provider    string `mapstructure:"provider"`
	Region      string `mapstructure:"region"`
	FromAddress string `mapstructure:"from_address"`
	FromName    string `mapstructure:"from_name"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Load reads configuration from environment variables with the INVOICEGEN_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("INVOICEGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.environment", "development")

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stdout")

	// Invoice defaults
	v.SetDefault("invoice.default_currency", "JPY")
	v.SetDefault("invoice.date_format", "2006-01-02")
	v.SetDefault("invoice.tax_rates", "0,8,10")

	v.SetDefault("layout.profile", "")

	// Batch defaults
	v.SetDefault("batch.concurrency", 1)
	v.SetDefault("batch.max_upload_mb", 10)
	v.SetDefault("batch.include_error_report", true)

	// Asset defaults
	v.SetDefault("assets.source", "dir")
	v.SetDefault("assets.dir", "fonts")
	v.SetDefault("assets.regular_font", "NotoSansJP-Regular.ttf")
	v.SetDefault("assets.bold_font", "NotoSansJP-Bold.ttf")
	v.SetDefault("assets.logo", "logo.png")
	v.SetDefault("assets.s3_prefix", "assets/")

	// S3 defaults
	v.SetDefault("s3.region", "ap-northeast-1")
	v.SetDefault("s3.bucket", "invoicegen")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.presign_expiry", 86400)

	v.SetDefault("publish.enabled", false)
	v.SetDefault("publish.prefix", "batches/")

	// Email defaults
	v.SetDefault("email.provider", "noop")
	v.SetDefault("email.region", "ap-northeast-1")
	v.SetDefault("email.from_address", "noreply@invoicegen.local")
	v.SetDefault("email.from_name", "Invoice Generator")

	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                "INVOICEGEN_SERVER_PORT",
		"server.read_timeout":        "INVOICEGEN_SERVER_READ_TIMEOUT",
		"server.write_timeout":       "INVOICEGEN_SERVER_WRITE_TIMEOUT",
		"server.environment":         "INVOICEGEN_SERVER_ENVIRONMENT",
		"log.level":                  "INVOICEGEN_LOG_LEVEL",
		"log.format":                 "INVOICEGEN_LOG_FORMAT",
		"log.output":                 "INVOICEGEN_LOG_OUTPUT",
		"invoice.default_currency":   "INVOICEGEN_INVOICE_DEFAULT_CURRENCY",
		"invoice.date_format":        "INVOICEGEN_INVOICE_DATE_FORMAT",
		"invoice.tax_rates":          "INVOICEGEN_INVOICE_TAX_RATES",
		"layout.profile":             "INVOICEGEN_LAYOUT_PROFILE",
		"batch.concurrency":          "INVOICEGEN_BATCH_CONCURRENCY",
		"batch.max_upload_mb":        "INVOICEGEN_BATCH_MAX_UPLOAD_MB",
		"batch.include_error_report": "INVOICEGEN_BATCH_INCLUDE_ERROR_REPORT",
		"assets.source":              "INVOICEGEN_ASSETS_SOURCE",
		"assets.dir":                 "INVOICEGEN_ASSETS_DIR",
		"assets.regular_font":        "INVOICEGEN_ASSETS_REGULAR_FONT",
		"assets.bold_font":           "INVOICEGEN_ASSETS_BOLD_FONT",
		"assets.logo":                "INVOICEGEN_ASSETS_LOGO",
		"assets.s3_prefix":           "INVOICEGEN_ASSETS_S3_PREFIX",
		"s3.region":                  "INVOICEGEN_S3_REGION",
		"s3.bucket":                  "INVOICEGEN_S3_BUCKET",
		"s3.endpoint":                "INVOICEGEN_S3_ENDPOINT",
		"s3.access_key":              "INVOICEGEN_S3_ACCESS_KEY",
		"s3.secret_key":              "INVOICEGEN_S3_SECRET_KEY",
		"s3.presign_expiry":          "INVOICEGEN_S3_PRESIGN_EXPIRY",
		"publish.enabled":            "INVOICEGEN_PUBLISH_ENABLED",
		"publish.prefix":             "INVOICEGEN_PUBLISH_PREFIX",
		"email.provider":             "INVOICEGEN_EMAIL_PROVIDER",
		"email.region":               "INVOICEGEN_EMAIL_REGION",
		"email.from_address":         "INVOICEGEN_EMAIL_FROM_ADDRESS",
		"email.from_name":            "INVOICEGEN_EMAIL_FROM_NAME",
		"cors.allowed_origins":       "INVOICEGEN_CORS_ALLOWED_ORIGINS",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Hosting platforms set PORT. Use it if INVOICEGEN_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("INVOICEGEN_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
		Output: v.GetString("log.output"),
	}

	rates, err := parseTaxRates(v.GetString("invoice.tax_rates"))
	if err != nil {
		return nil, err
	}
	cfg.Invoice = InvoiceConfig{
		DefaultCurrency: strings.ToUpper(v.GetString("invoice.default_currency")),
		DateFormat:      v.GetString("invoice.date_format"),
		TaxRates:        rates,
	}
	cfg.Layout = LayoutConfig{
		Profile: v.GetString("layout.profile"),
	}

	cfg.Batch = BatchConfig{
		Concurrency:        v.GetInt("batch.concurrency"),
		MaxUploadMB:        v.GetInt64("batch.max_upload_mb"),
		IncludeErrorReport: v.GetBool("batch.include_error_report"),
	}
	if cfg.Batch.Concurrency < 1 {
		cfg.Batch.Concurrency = 1
	}

	cfg.Assets = AssetsConfig{
		Source:      v.GetString("assets.source"),
		Dir:         v.GetString("assets.dir"),
		RegularFont: v.GetString("assets.regular_font"),
		BoldFont:    v.GetString("assets.bold_font"),
		Logo:        v.GetString("assets.logo"),
		S3Prefix:    v.GetString("assets.s3_prefix"),
	}
	if s := cfg.Assets.Source; s != "dir" && s != "s3" {
		return nil, fmt.Errorf("assets.source must be dir or s3, got %q", s)
	}

	cfg.S3 = S3Config{
		Region:        v.GetString("s3.region"),
		Bucket:        v.GetString("s3.bucket"),
		Endpoint:      v.GetString("s3.endpoint"),
		AccessKey:     v.GetString("s3.access_key"),
		SecretKey:     v.GetString("s3.secret_key"),
		PresignExpiry: v.GetInt64("s3.presign_expiry"),
	}
	cfg.Publish = PublishConfig{
		Enabled: v.GetBool("publish.enabled"),
		Prefix:  v.GetString("publish.prefix"),
	}

	cfg.Email = EmailConfig{
		Provider:    v.GetString("email.provider"),
		Region:      v.GetString("email.region"),
		FromAddress: v.GetString("email.from_address"),
		FromName:    v.GetString("email.from_name"),
	}

	// Parse CORS allowed origins from comma-separated string
	cfg.CORS = CORSConfig{
		AllowedOrigins: splitList(v.GetString("cors.allowed_origins")),
	}

	return cfg, nil
}

// parseTaxRates reads a comma-separated list of percentages ("0,8,10").
func parseTaxRates(s string) ([]domain.TaxRate, error) {
	var rates []domain.TaxRate
	for _, part := range splitList(s) {
		if !strings.HasSuffix(part, "%") {
			part += "%"
		}
		r, err := domain.ParseTaxRate(part)
		if err != nil {
			return nil, fmt.Errorf("invoice.tax_rates: %w", err)
		}
		rates = append(rates, r)
	}
	if len(rates) == 0 {
		return nil, fmt.Errorf("invoice.tax_rates must list at least one rate")
	}
	return rates, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
