// Package config centralizes the engine's tunables: sandbox timeout, job
// resource defaults, and the construction-time guardrails (graph size,
// scatter width) that protect a host running untrusted workflow documents.
package config

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// Config holds workflow engine configuration. All tunables are centralized
// here instead of scattered as package-level constants.
type Config struct {
	// SandboxTimeout bounds a single expression evaluation (spec §4.4.1).
	SandboxTimeout time.Duration `validate:"gte=0"`

	// DefaultCPU and DefaultMem populate job.allocatedResources (spec §4.5
	// step 1) for every process invocation.
	DefaultCPU int `validate:"gte=0"`
	DefaultMem int `validate:"gte=0"`

	// MaxScatterWidth caps the number of elements §4.3 step 6 will fan out
	// over; 0 means unlimited.
	MaxScatterWidth int `validate:"gte=0"`

	// MaxGraphNodes and MaxGraphEdges cap workflow construction (spec
	// §4.6.1); 0 means unlimited.
	MaxGraphNodes int `validate:"gte=0"`
	MaxGraphEdges int `validate:"gte=0"`

	// WorkDirRoot is the parent directory under which each process
	// invocation gets a fresh working directory (spec §4.5 step 4). Empty
	// means the host's default temp directory.
	WorkDirRoot string

	// AllowedSchemes restricts which URL schemes the document loader will
	// resolve relative imports against (e.g. "file", "https"). Empty means
	// "file" only.
	AllowedSchemes []string

	// StrictSchemaValidation, if true, makes a docschema validation
	// failure abort the load; otherwise it is only logged.
	StrictSchemaValidation bool
}

// Default returns a Config with conservative, production-ready values.
func Default() *Config {
	return &Config{
		SandboxTimeout:         5 * time.Second,
		DefaultCPU:             1,
		DefaultMem:             2048,
		MaxScatterWidth:        10000,
		MaxGraphNodes:          5000,
		MaxGraphEdges:          20000,
		WorkDirRoot:            "",
		AllowedSchemes:         []string{"file"},
		StrictSchemaValidation: true,
	}
}

// Development relaxes guardrails for local iteration against documents that
// haven't been schema-validated yet.
func Development() *Config {
	cfg := Default()
	cfg.StrictSchemaValidation = false
	cfg.MaxScatterWidth = 0
	cfg.MaxGraphNodes = 0
	cfg.MaxGraphEdges = 0
	return cfg
}

// Production keeps every Default() guardrail as-is; it exists so call
// sites can name the profile they intend explicitly.
func Production() *Config {
	return Default()
}

// Testing shortens the sandbox timeout so a genuinely hung expression
// fails a test suite quickly instead of stalling it for 5 seconds.
func Testing() *Config {
	cfg := Default()
	cfg.SandboxTimeout = 500 * time.Millisecond
	cfg.StrictSchemaValidation = false
	return cfg
}

var validate = validator.New()

// Validate checks the configuration for internally-inconsistent values.
// It runs the struct-tag validator first, then the hand-written checks
// that don't reduce to a simple tag (cross-field or semantic rules).
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return Wrap(ErrInvalidConfig, err)
	}
	if c.DefaultCPU == 0 && c.DefaultMem == 0 {
		return ErrZeroResources
	}
	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	if c.AllowedSchemes != nil {
		clone.AllowedSchemes = make([]string, len(c.AllowedSchemes))
		copy(clone.AllowedSchemes, c.AllowedSchemes)
	}
	return &clone
}
