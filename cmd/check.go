package cmd

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/chriserin/vero/internal/compiler"
	"github.com/chriserin/vero/internal/config"
	"github.com/chriserin/vero/internal/diag"
	"github.com/chriserin/vero/internal/ui"
)

var checkCmd = &cobra.Command{
	Use:   "check [files...]",
	Short: "Report diagnostics for .vero files",
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunCheck(cmd.OutOrStdout(), args)
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

// compiled is the result of one source file.
type compiled struct {
	file   string
	result *compiler.Result
}

func RunCheck(w io.Writer, args []string) error {
	cfg, err := projectOrDefault(len(args) > 0)
	if err != nil {
		return err
	}
	files, err := resolveFiles(cfg, args)
	if err != nil {
		return err
	}

	results, total, err := compileAll(cfg, files, compiler.Check)
	if err != nil {
		return err
	}
	for _, c := range results {
		ui.Diagnostics(w, c.file, c.result.Result)
	}
	ui.CheckSummary(w, len(files), total)

	if !total.Valid {
		return fmt.Errorf("check failed: %s", total.Summary())
	}
	return nil
}

// projectOrDefault loads vero.toml. With explicit files a project is
// optional and the working directory stands in for its root.
func projectOrDefault(explicit bool) (*config.Config, error) {
	cfg, err := config.FindAndLoad(".")
	if err != nil {
		return nil, err
	}
	if cfg != nil {
		return cfg, nil
	}
	if !explicit {
		return nil, fmt.Errorf("run `vero init` first")
	}
	cfg = config.Default()
	if cfg.Dir, err = filepath.Abs("."); err != nil {
		return nil, err
	}
	return cfg, nil
}

// compileAll runs run on every file and merges the diagnostics of all
// files into one result.
func compileAll(cfg *config.Config, files []string, run func(string, compiler.Options) *compiler.Result) ([]compiled, diag.ValidationResult, error) {
	opts := cfg.CompilerOptions()
	var out []compiled
	var all []diag.Diagnostic
	for _, file := range files {
		source, err := readSource(cfg, file)
		if err != nil {
			return nil, diag.ValidationResult{}, err
		}
		r := run(source, opts)
		log.Infof("%s: %s", file, r.Result.Summary())
		out = append(out, compiled{file: file, result: r})
		all = append(all, r.Result.Diagnostics...)
	}
	return out, diag.NewValidationResult(all), nil
}
