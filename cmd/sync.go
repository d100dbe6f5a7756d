package cmd

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/chriserin/vero/internal/compiler"
	"github.com/chriserin/vero/internal/db"
	"github.com/chriserin/vero/internal/parser"
	"github.com/chriserin/vero/internal/ui"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Index the features and scenarios of every .vero file",
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunSync(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func RunSync(w io.Writer) error {
	cfg, err := project()
	if err != nil {
		return err
	}

	sqlDB, err := db.Open(cfg.IndexPath())
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer sqlDB.Close()

	files, err := sourceFiles(cfg)
	if err != nil {
		return err
	}

	opts := cfg.CompilerOptions()
	for _, file := range files {
		source, err := readSource(cfg, file)
		if err != nil {
			return err
		}
		summary := summarize(file, source, opts)
		status, err := db.SyncFile(sqlDB, file, contentHash(source), summary)
		if err != nil {
			return err
		}
		log.Infof("%s %s: %d scenarios", status, file, len(summary.Scenarios))

		switch status {
		case db.Added:
			ui.NewLine(w, file)
		case db.Updated:
			ui.UpdLine(w, file)
		default:
			ui.TrkLine(w, file)
			continue
		}
		if n := len(summary.Errors); n > 0 {
			ui.ErrorFile(w, file, n)
		}
	}

	removed, err := db.RemoveMissing(sqlDB, files)
	if err != nil {
		return err
	}
	for _, file := range removed {
		ui.DelLine(w, file)
	}

	ui.SummaryLine(w, len(files))
	return nil
}

func summarize(file, source string, opts compiler.Options) *parser.FileSummary {
	r := compiler.Check(source, opts)
	return parser.Summarize(r.Program, file, r.Result.Diagnostics)
}

func contentHash(source string) string {
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])
}
