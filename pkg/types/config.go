package types

import "time"

// LogConfig selects the structured log handler.
type LogConfig struct {
	// Level is one of debug, info, warn, error (default info).
	Level string `json:"level" yaml:"level"`

	// Format is text or json (default text).
	Format string `json:"format" yaml:"format"`
}

// LedgerConfig holds settings for the conversion ledger.
type LedgerConfig struct {
	// Path is the SQLite database file (default .docutils/ledger.db).
	Path string `json:"path" yaml:"path"`

	// Disabled turns the ledger off; every input is then converted.
	Disabled bool `json:"disabled" yaml:"disabled"`
}

// JSON2ExcelConfig holds settings for the json2excel command.
type JSON2ExcelConfig struct {
	// Pattern is the glob matched relative to the input directory (default *.json).
	Pattern string `json:"pattern" yaml:"pattern"`

	// Force reconverts inputs the ledger reports as unchanged.
	Force bool `json:"force" yaml:"force"`
}

// RasterBackend identifies the PDF page rasterizer.
type RasterBackend string

const (
	RasterPdftoppm RasterBackend = "pdftoppm"
	RasterMutool   RasterBackend = "mutool"
)

// PDFImageConfig holds settings for the pdf2image command.
type PDFImageConfig struct {
	// DPI is the render resolution (default 300).
	DPI int `json:"dpi" yaml:"dpi"`

	// Backend forces a rasterizer; empty means detect.
	Backend RasterBackend `json:"backend,omitempty" yaml:"backend,omitempty"`

	// Force re-renders PDFs the ledger reports as unchanged.
	Force bool `json:"force" yaml:"force"`
}

// DocPDFConfig holds settings for the doc2pdf command.
type DocPDFConfig struct {
	// Extensions lists the file extensions to convert (default .doc, .docx).
	Extensions []string `json:"extensions" yaml:"extensions"`

	// Timeout bounds a single office conversion (default 2m).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// Force reconverts documents whose PDF already exists.
	Force bool `json:"force" yaml:"force"`
}

// HarmCategory names a Gemini safety category.
type HarmCategory string

const (
	HarmHateSpeech       HarmCategory = "HARM_CATEGORY_HATE_SPEECH"
	HarmDangerousContent HarmCategory = "HARM_CATEGORY_DANGEROUS_CONTENT"
	HarmHarassment       HarmCategory = "HARM_CATEGORY_HARASSMENT"
	HarmSexuallyExplicit HarmCategory = "HARM_CATEGORY_SEXUALLY_EXPLICIT"
	HarmCivicIntegrity   HarmCategory = "HARM_CATEGORY_CIVIC_INTEGRITY"
)

// HarmBlockThreshold is the blocking level applied to a HarmCategory.
type HarmBlockThreshold string

const (
	BlockNone HarmBlockThreshold = "BLOCK_NONE"
)

// SafetySetting pairs a harm category with its threshold.
type SafetySetting struct {
	Category  HarmCategory       `json:"category" yaml:"category"`
	Threshold HarmBlockThreshold `json:"threshold" yaml:"threshold"`
}

// AgentConfig holds settings for the agent command.
type AgentConfig struct {
	// Model is the Gemini model name (default gemini-2.5-flash).
	Model string `json:"model" yaml:"model"`

	// Location is the Vertex AI region (default europe-west1).
	Location string `json:"location" yaml:"location"`

	// Temperature controls sampling randomness (default 0).
	Temperature float64 `json:"temperature" yaml:"temperature"`

	// ThinkingBudget is the token budget for model thinking (default 0).
	ThinkingBudget int `json:"thinking_budget" yaml:"thinking_budget"`

	// Retries is the number of attempts for failed model calls (default 10).
	Retries int `json:"retries" yaml:"retries"`

	// CredentialsPath points at a service-account JSON file. Empty means
	// GOOGLE_APPLICATION_CREDENTIALS.
	CredentialsPath string `json:"credentials_path,omitempty" yaml:"credentials_path,omitempty"`
}

// UploadConfig holds settings for uploading produced files to object storage.
type UploadConfig struct {
	Enabled   bool   `json:"enabled" yaml:"enabled"`
	Provider  string `json:"provider" yaml:"provider"`
	Endpoint  string `json:"endpoint" yaml:"endpoint"`
	Bucket    string `json:"bucket" yaml:"bucket"`
	Prefix    string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	Region    string `json:"region,omitempty" yaml:"region,omitempty"`
	Secure    bool   `json:"secure" yaml:"secure"`
	AccessKey string `json:"-" yaml:"-"`
	SecretKey string `json:"-" yaml:"-"`
}

// Settings returns the provider configuration map.
func (c UploadConfig) Settings() map[string]any {
	m := map[string]any{
		"endpoint":   c.Endpoint,
		"access_key": c.AccessKey,
		"secret_key": c.SecretKey,
		"bucket":     c.Bucket,
		"secure":     c.Secure,
	}
	if c.Prefix != "" {
		m["prefix"] = c.Prefix
	}
	if c.Region != "" {
		m["region"] = c.Region
	}
	return m
}
