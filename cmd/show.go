package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/chriserin/vero/internal/compiler"
	"github.com/chriserin/vero/internal/ui"
)

var showCmd = &cobra.Command{
	Use:   "show <file>",
	Short: "Preview the code generated for a .vero file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunShow(cmd.OutOrStdout(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func RunShow(w io.Writer, file string) error {
	cfg, err := projectOrDefault(true)
	if err != nil {
		return err
	}
	files, err := resolveFiles(cfg, []string{file})
	if err != nil {
		return err
	}
	source, err := readSource(cfg, files[0])
	if err != nil {
		return err
	}

	r := compiler.Compile(source, cfg.CompilerOptions())
	if !r.Valid() {
		ui.Diagnostics(w, files[0], r.Result)
		return fmt.Errorf("cannot preview %s: %s", files[0], r.Result.Summary())
	}
	if r.GenErr != nil {
		return fmt.Errorf("generating %s: %w", files[0], r.GenErr)
	}

	for i, f := range r.Output.Files() {
		if i > 0 {
			fmt.Fprintln(w)
		}
		ui.ShowHeader(w, f.Path)
		ui.ShowCode(w, f.Content)
	}
	return nil
}
