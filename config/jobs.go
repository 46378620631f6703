package config

import "strings"

// Hard limits shared with the domain layer.
const (
	maxBulkIDs       = 10000
	maxPreviewSample = 100
)

// JobsConfig controls job listing and params validation.
type JobsConfig struct {
	ListDefaultLimit int `env:"LIST_DEFAULT_LIMIT" envDefault:"10"`
	ListMaxLimit     int `env:"LIST_MAX_LIMIT"     envDefault:"50"`
	// PermalinkDomains restricts fetch_permalink URLs. Empty allows any host.
	PermalinkDomains []string `env:"PERMALINK_DOMAINS" envSeparator:","`
}

// Sanitize keeps 1 <= default <= max and normalises domains.
func (c *JobsConfig) Sanitize() {
	if c.ListMaxLimit < 1 {
		c.ListMaxLimit = 50
	}
	if c.ListDefaultLimit < 1 {
		c.ListDefaultLimit = 10
	}
	if c.ListDefaultLimit > c.ListMaxLimit {
		c.ListDefaultLimit = c.ListMaxLimit
	}
	domains := trimList(c.PermalinkDomains)
	for i, d := range domains {
		domains[i] = strings.ToLower(strings.TrimPrefix(d, "."))
	}
	c.PermalinkDomains = domains
}

// BulkConfig controls bulk query resolution and the apply rate limit.
type BulkConfig struct {
	MaxIDs        int `env:"MAX_IDS"        envDefault:"10000"`
	PreviewSample int `env:"PREVIEW_SAMPLE" envDefault:"20"`
	// ApplyRate is the sustained apply requests per second per process. Zero disables limiting.
	ApplyRate  float64 `env:"APPLY_RATE"  envDefault:"2"`
	ApplyBurst int     `env:"APPLY_BURST" envDefault:"4"`
}

// Sanitize clamps the id cap and preview sample to their hard limits.
func (c *BulkConfig) Sanitize() {
	if c.MaxIDs < 1 || c.MaxIDs > maxBulkIDs {
		c.MaxIDs = maxBulkIDs
	}
	if c.PreviewSample < 1 {
		c.PreviewSample = 20
	}
	if c.PreviewSample > maxPreviewSample {
		c.PreviewSample = maxPreviewSample
	}
	if c.ApplyRate < 0 {
		c.ApplyRate = 0
	}
	if c.ApplyBurst < 1 {
		c.ApplyBurst = 1
	}
}

// RateLimited reports whether bulk apply requests are limited.
func (c *BulkConfig) RateLimited() bool { return c.ApplyRate > 0 }
