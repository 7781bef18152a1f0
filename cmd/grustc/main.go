// Command grustc is the thin CLI driver (SPEC_FULL.md §6): it reads a
// pre-parsed AST as JSON (a real driver would call the external parser
// instead), runs internal/compiler, and either writes the emitted
// plan.Artifact(s) as JSON or prints the diagnostic bag and exits
// non-zero. Code emission formatting stays external per the Non-goals —
// this is the minimal "hand the artifact to a downstream backend" step.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/langrust/grust/internal/ast"
	"github.com/langrust/grust/internal/compiler"
	"github.com/langrust/grust/internal/config"
	"github.com/langrust/grust/internal/plan"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, err := config.Parse(args)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: logLevel(cfg.Verbose)}))
	logger.Info("starting compilation", "config", cfg.String())

	file, err := readFile(cfg.InputPath, stdin)
	if err != nil {
		logger.Warn("failed to read input AST", "error", err)
		fmt.Fprintln(stderr, err)
		return 2
	}

	c := compiler.New(compiler.Options{Logger: logger})
	res := c.Compile(file)

	for _, r := range res.Diagnostics.All() {
		fmt.Fprintln(stderr, r.String())
	}

	if res.Diagnostics.HasErrors() {
		return 1
	}
	if cfg.WarningsAsErrors && len(res.Diagnostics.Warnings()) > 0 {
		return 1
	}

	if err := writeArtifacts(cfg.OutputPath, stdout, res.Artifacts); err != nil {
		logger.Warn("failed to write artifact", "error", err)
		fmt.Fprintln(stderr, err)
		return 2
	}
	return 0
}

func logLevel(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	return slog.LevelWarn
}

func readFile(path string, stdin io.Reader) (*ast.File, error) {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", path, err)
		}
		defer f.Close()
		r = f
	}

	var file ast.File
	if err := json.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("decoding AST JSON: %w", err)
	}
	return &file, nil
}

func writeArtifacts(path string, stdout io.Writer, artifacts []*plan.Artifact) error {
	var w io.Writer = stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
		defer f.Close()
		w = f
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(artifacts)
}
