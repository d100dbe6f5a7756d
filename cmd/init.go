package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chriserin/vero/internal/config"
	"github.com/chriserin/vero/internal/db"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a Vero project in the current directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunInit(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}

const indexPath = ".vero/index.db"

func RunInit(w io.Writer) error {
	// vero.toml
	if _, err := os.Stat(config.FileName); err == nil {
		fmt.Fprintf(w, "%s already exists\n", config.FileName)
	} else {
		if err := os.WriteFile(config.FileName, []byte(defaultConfig()), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", config.FileName, err)
		}
		fmt.Fprintf(w, "%s created\n", config.FileName)
	}

	cfg, err := config.Load(".")
	if err != nil {
		return err
	}

	// source directories
	for _, dir := range cfg.Source.Dirs {
		_, err := os.Stat(dir)
		exists := err == nil
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s directory: %w", dir, err)
		}
		if exists {
			fmt.Fprintf(w, "%s/ already exists\n", dir)
		} else {
			fmt.Fprintf(w, "%s/ created\n", dir)
		}
	}

	// index
	_, err = os.Stat(indexPath)
	dbExists := err == nil
	sqlDB, err := db.Open(indexPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	sqlDB.Close()
	if dbExists {
		fmt.Fprintf(w, "%s already exists\n", indexPath)
	} else {
		fmt.Fprintf(w, "%s created\n", indexPath)
	}

	// gitignore
	msgs, err := ensureGitignore()
	if err != nil {
		return fmt.Errorf("updating .gitignore: %w", err)
	}
	for _, msg := range msgs {
		fmt.Fprintln(w, msg)
	}

	return nil
}

func defaultConfig() string {
	name := "vero"
	if wd, err := os.Getwd(); err == nil {
		name = filepath.Base(wd)
	}
	d := config.Default()
	return fmt.Sprintf(`[project]
name = %q

[source]
dirs = [%q]

[output]
dir = %q
screenshots = %q
`, name, d.Source.Dirs[0], d.Output.Dir, d.Output.Screenshots)
}

func ensureGitignore() ([]string, error) {
	const entry = ".vero/"

	data, err := os.ReadFile(".gitignore")
	if os.IsNotExist(err) {
		if err := os.WriteFile(".gitignore", []byte(entry+"\n"), 0o644); err != nil {
			return nil, err
		}
		return []string{".gitignore created", ".vero/ added to .gitignore"}, nil
	}
	if err != nil {
		return nil, err
	}

	lines := strings.Split(string(data), "\n")
	for _, line := range lines {
		if strings.TrimSpace(line) == entry {
			return []string{".vero/ already in .gitignore"}, nil
		}
	}

	content := string(data)
	if len(content) > 0 && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	content += entry + "\n"

	if err := os.WriteFile(".gitignore", []byte(content), 0o644); err != nil {
		return nil, err
	}
	return []string{".vero/ added to .gitignore"}, nil
}
