// Package config loads the handful of knobs that govern arena construction
// and the tail-call lowering pass from a single YAML document.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/martty/shady-go/internal/errors"
	"github.com/martty/shady-go/internal/ir"
	"github.com/martty/shady-go/internal/lower"
)

// CompilerConfig is the top-level YAML document. Field names mirror the
// C compiler's CompilerConfig: check_types/allow_fold gate the arena, the
// rest gate the tail-call lowering pass.
type CompilerConfig struct {
	CheckTypes bool `yaml:"check_types"`
	AllowFold  bool `yaml:"allow_fold"`

	// DynamicScheduling mirrors lower_tailcalls.c's `dynamic_scheduling`
	// flag. It is loaded and printed, but neither LowerConfig nor
	// cmd/shadyc acts on it: LowerTailCalls rewrites non-leaf functions
	// into a dispatcher whatever its value, and no configuration error is
	// raised when it is false.
	DynamicScheduling bool `yaml:"dynamic_scheduling"`

	// MaxTopIterations bounds the generated dispatcher loop; zero means
	// unbounded (the dispatcher runs until a Return reaches the top).
	MaxTopIterations int `yaml:"max_top_iterations"`

	// GodFunctionTracing names per-iteration tracing of the generated
	// dispatcher ("the god function" in the original compiler's
	// terminology). Nothing here emits such a trace; cmd/shadyc only
	// prints a warning that no trace is available when it is set.
	GodFunctionTracing bool `yaml:"god_function_tracing"`
}

// Default returns the configuration the arena and lowering pass use when no
// YAML file is given: type checking and folding on, dynamic scheduling
// off, no iteration bound, no tracing.
func Default() CompilerConfig {
	return CompilerConfig{CheckTypes: true, AllowFold: true}
}

// Load reads and validates a CompilerConfig from a YAML file.
func Load(path string) (*CompilerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Configuration("config", "reading %s: %v", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Configuration("config", "parsing %s: %v", path, err)
	}

	if cfg.MaxTopIterations < 0 {
		return nil, errors.Configuration("config", "max_top_iterations must not be negative, got %d", cfg.MaxTopIterations)
	}

	return &cfg, nil
}

// ArenaConfig projects the subset of fields ir.NewArena consumes.
func (c CompilerConfig) ArenaConfig() ir.Config {
	return ir.Config{CheckTypes: c.CheckTypes, AllowFold: c.AllowFold}
}

// LowerConfig projects the subset of fields lower.LowerTailCalls consumes.
func (c CompilerConfig) LowerConfig() lower.Config {
	return lower.Config{MaxTopIterations: c.MaxTopIterations}
}

// String renders the configuration the way cmd/shadyc prints it in its
// startup banner.
func (c CompilerConfig) String() string {
	return fmt.Sprintf(
		"check_types=%t allow_fold=%t dynamic_scheduling=%t max_top_iterations=%d god_function_tracing=%t",
		c.CheckTypes, c.AllowFold, c.DynamicScheduling, c.MaxTopIterations, c.GodFunctionTracing,
	)
}
