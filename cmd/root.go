package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	"github.com/tliron/commonlog/simple"

	"github.com/chriserin/vero/internal/config"
)

// Version is reported by the language server.
var Version = "0.1.0"

var verbosity int

var log = commonlog.GetLogger("vero.cmd")

var rootCmd = &cobra.Command{
	Use:           "vero",
	Short:         "vero — compile Vero browser tests to Playwright",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		configureLogging(verbosity)
	},
}

func init() {
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (-v info, -vv debug)")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// configureLogging sends logs to stderr unbuffered. Without -v only
// notices and above are shown.
func configureLogging(verbosity int) {
	backend := simple.NewBackend()
	backend.Buffered = false
	commonlog.SetBackend(backend)
	commonlog.Configure(verbosity, nil)
}

// project loads vero.toml from the working directory or a parent.
func project() (*config.Config, error) {
	cfg, err := config.FindAndLoad(".")
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("run `vero init` first")
	}
	return cfg, nil
}

// sourceFiles lists every .vero file under the configured source
// directories, relative to the project root and sorted.
func sourceFiles(cfg *config.Config) ([]string, error) {
	var files []string
	for _, dir := range cfg.SourceDirPaths() {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			log.Warningf("source directory %s does not exist", dir)
			continue
		}
		err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || filepath.Ext(path) != ".vero" {
				return nil
			}
			rel, err := filepath.Rel(cfg.Dir, path)
			if err != nil {
				return err
			}
			files = append(files, filepath.ToSlash(rel))
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", dir, err)
		}
	}
	sort.Strings(files)
	return files, nil
}

// resolveFiles returns args relative to the project root, or every
// source file when args is empty.
func resolveFiles(cfg *config.Config, args []string) ([]string, error) {
	if len(args) == 0 {
		return sourceFiles(cfg)
	}
	var files []string
	for _, arg := range args {
		abs, err := filepath.Abs(arg)
		if err != nil {
			return nil, err
		}
		rel, err := filepath.Rel(cfg.Dir, abs)
		if err != nil || strings.HasPrefix(rel, "..") {
			return nil, fmt.Errorf("%s is outside the project", arg)
		}
		files = append(files, filepath.ToSlash(rel))
	}
	return files, nil
}

func readSource(cfg *config.Config, file string) (string, error) {
	data, err := os.ReadFile(filepath.Join(cfg.Dir, filepath.FromSlash(file)))
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", file, err)
	}
	return string(data), nil
}
