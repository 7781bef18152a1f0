// Package config holds cmd/grustc's flag/environment-driven knobs
// (SPEC_FULL.md §4.9): input/output paths, warnings-as-errors, the
// #[weight(N%)] hint toggle (spec.md §6), and verbosity. It never
// depends on internal/compiler — the CLI wires config values into
// compiler.Options itself.
package config

import (
	"flag"
	"fmt"
	"os"
)

const envPrefix = "GRUSTC_"

// Config is the resolved set of CLI knobs, after flags and the GRUSTC_*
// environment are both applied (flags win on conflict).
type Config struct {
	// InputPath is the pre-parsed AST (JSON) to compile. "-" means stdin.
	InputPath string
	// OutputPath is where the emitted plan.Artifact (JSON) is written.
	// "" means stdout.
	OutputPath string
	// WarningsAsErrors promotes warning-severity diagnostics to a
	// nonzero exit code.
	WarningsAsErrors bool
	// WeightHints is the #[weight(N%)] external-symbol hint toggle
	// (spec.md §6). It is parsed and shown in the CLI's startup log line;
	// no pass reads it, and no weight attribute is reported as a
	// diagnostic whether it is set or not.
	WeightHints bool
	// Verbose raises the CLI logger from Warn to Info/Debug.
	Verbose bool
}

// Parse builds a Config from args (normally os.Args[1:]), applying the
// GRUSTC_* environment as defaults that flags override. Matches yaegi's
// Options/env-prefix split: environment entries are parsed first as
// defaults, then explicit flags take precedence.
func Parse(args []string) (Config, error) {
	cfg := Config{}
	fs := flag.NewFlagSet("grustc", flag.ContinueOnError)

	fs.StringVar(&cfg.InputPath, "in", envOr("IN", "-"), "path to the pre-parsed AST JSON file (\"-\" for stdin)")
	fs.StringVar(&cfg.OutputPath, "out", envOr("OUT", ""), "path to write the emitted plan JSON (\"\" for stdout)")
	fs.BoolVar(&cfg.WarningsAsErrors, "warnings-as-errors", envBoolOr("WARNINGS_AS_ERRORS", false), "treat warning-severity diagnostics as fatal")
	fs.BoolVar(&cfg.WeightHints, "weight-hints", envBoolOr("WEIGHT_HINTS", false), "#[weight(N%)] hint toggle (shown in the startup log only)")
	fs.BoolVar(&cfg.Verbose, "v", envBoolOr("VERBOSE", false), "verbose logging")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func envOr(key, def string) string {
	if v, ok := os.LookupEnv(envPrefix + key); ok {
		return v
	}
	return def
}

func envBoolOr(key string, def bool) bool {
	v, ok := os.LookupEnv(envPrefix + key)
	if !ok {
		return def
	}
	return v != "" && v != "0" && v != "false"
}

// String renders cfg for a startup log line.
func (cfg Config) String() string {
	return fmt.Sprintf("in=%s out=%s warnings-as-errors=%t weight-hints=%t v=%t",
		displayPath(cfg.InputPath), displayPath(cfg.OutputPath), cfg.WarningsAsErrors, cfg.WeightHints, cfg.Verbose)
}

func displayPath(p string) string {
	if p == "" {
		return "<stdout>"
	}
	return p
}
