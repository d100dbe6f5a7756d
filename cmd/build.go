package cmd

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chriserin/vero/internal/compiler"
	"github.com/chriserin/vero/internal/config"
	"github.com/chriserin/vero/internal/db"
	"github.com/chriserin/vero/internal/transpiler"
	"github.com/chriserin/vero/internal/ui"
)

var buildCmd = &cobra.Command{
	Use:   "build [files...]",
	Short: "Generate Playwright tests from .vero files",
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunBuild(cmd.OutOrStdout(), args)
	},
}

func init() {
	rootCmd.AddCommand(buildCmd)
}

func RunBuild(w io.Writer, args []string) error {
	cfg, err := projectOrDefault(len(args) > 0)
	if err != nil {
		return err
	}
	files, err := resolveFiles(cfg, args)
	if err != nil {
		return err
	}

	results, total, err := compileAll(cfg, files, compiler.Compile)
	if err != nil {
		return err
	}
	if !total.Valid {
		for _, c := range results {
			ui.Diagnostics(w, c.file, c.result.Result)
		}
		ui.CheckSummary(w, len(files), total)
		return fmt.Errorf("build blocked: %s", total.Summary())
	}

	generated, err := mergeOutputs(cfg, results)
	if err != nil {
		return err
	}

	paths := make([]string, 0, len(generated))
	for p := range generated {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		dest := filepath.Join(cfg.OutputPath(), filepath.FromSlash(p))
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", filepath.Dir(dest), err)
		}
		if err := os.WriteFile(dest, []byte(generated[p].content), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", p, err)
		}
		ui.WroteLine(w, path.Join(cfg.Output.Dir, p))
	}

	if err := linkTests(w, cfg, results); err != nil {
		return err
	}
	ui.CheckSummary(w, len(files), total)
	return nil
}

type generatedFile struct {
	content string
	source  string
}

// mergeOutputs collects the modules of every source. Two sources may not
// generate the same module with different content. The runtime module is
// rendered once from the union of helpers.
func mergeOutputs(cfg *config.Config, results []compiled) (map[string]generatedFile, error) {
	out := make(map[string]generatedFile)
	var helpers []string
	seen := make(map[string]bool)
	folded := make(map[string]string)

	for _, c := range results {
		if c.result.GenErr != nil {
			return nil, fmt.Errorf("generating %s: %w", c.file, c.result.GenErr)
		}
		for _, f := range c.result.Output.Files() {
			if f.Path == transpiler.RuntimePath {
				continue
			}
			if prev, ok := out[f.Path]; ok && prev.content != f.Content {
				return nil, fmt.Errorf("%s is generated by both %s and %s", f.Path, prev.source, c.file)
			}
			key := strings.ToLower(f.Path)
			if other, ok := folded[key]; ok && other != f.Path {
				return nil, fmt.Errorf("%s and %s differ only in case (from %s and %s)", other, f.Path, out[other].source, c.file)
			}
			folded[key] = f.Path
			out[f.Path] = generatedFile{content: f.Content, source: c.file}
		}
		for _, h := range c.result.Output.Helpers {
			if !seen[h] {
				seen[h] = true
				helpers = append(helpers, h)
			}
		}
	}

	if cfg.Codegen.RuntimeImport == transpiler.DefaultRuntimeImport && len(helpers) > 0 {
		out[transpiler.RuntimePath] = generatedFile{content: transpiler.RuntimeModule(helpers)}
	}
	return out, nil
}

// linkTests records where each indexed scenario's test was generated.
// Nothing is linked when the project was never initialized.
func linkTests(w io.Writer, cfg *config.Config, results []compiled) error {
	if _, err := os.Stat(cfg.IndexPath()); err != nil {
		return nil
	}
	sqlDB, err := db.Open(cfg.IndexPath())
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer sqlDB.Close()

	total := 0
	for _, c := range results {
		var links []db.TestLink
		for _, t := range c.result.Output.Tests {
			links = append(links, db.TestLink{
				Feature:  t.Feature,
				Scenario: t.Scenario,
				Path:     path.Join(cfg.Output.Dir, t.Path),
				Line:     t.Line,
			})
		}
		n, err := db.LinkTests(sqlDB, c.file, links)
		if err != nil {
			return err
		}
		total += n
	}
	if total > 0 {
		ui.LinkedLine(w, total)
	}
	return nil
}
