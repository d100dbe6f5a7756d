package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/chriserin/vero/internal/db"
	"github.com/chriserin/vero/internal/ui"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show scenario counts per tag and files with errors",
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunStatus(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func RunStatus(w io.Writer) error {
	cfg, err := project()
	if err != nil {
		return err
	}

	sqlDB, err := db.Open(cfg.IndexPath())
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer sqlDB.Close()

	var files, features, scenarios int
	err = sqlDB.QueryRow(`
		SELECT
			(SELECT COUNT(*) FROM files),
			(SELECT COUNT(*) FROM features),
			(SELECT COUNT(*) FROM scenarios)
	`).Scan(&files, &features, &scenarios)
	if err != nil {
		return fmt.Errorf("counting scenarios: %w", err)
	}

	fmt.Fprintf(w, "Files: %d\n", files)
	fmt.Fprintf(w, "Features: %d\n", features)
	fmt.Fprintf(w, "Scenarios: %d\n", scenarios)

	if scenarios > 0 {
		rows, err := sqlDB.Query(`
			SELECT COALESCE(t.tag, 'untagged') AS label, COUNT(*) AS cnt
			FROM scenarios s
			LEFT JOIN scenario_tags t ON t.scenario_id = s.id
			GROUP BY label
			ORDER BY CASE WHEN label = 'untagged' THEN 1 ELSE 0 END, cnt DESC, label
		`)
		if err != nil {
			return fmt.Errorf("querying tag counts: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var tag string
			var cnt int
			if err := rows.Scan(&tag, &cnt); err != nil {
				return fmt.Errorf("scanning tag row: %w", err)
			}
			ui.TagCount(w, tag, cnt)
		}
		if err := rows.Err(); err != nil {
			return err
		}
		rows.Close()
	}

	rows, err := sqlDB.Query(`SELECT file_path, error_count FROM files WHERE error_count > 0 ORDER BY file_path`)
	if err != nil {
		return fmt.Errorf("querying files with errors: %w", err)
	}
	defer rows.Close()

	header := false
	for rows.Next() {
		var path string
		var cnt int
		if err := rows.Scan(&path, &cnt); err != nil {
			return fmt.Errorf("scanning file row: %w", err)
		}
		if !header {
			fmt.Fprintln(w, "Files with errors:")
			header = true
		}
		ui.ErrorFile(w, path, cnt)
	}

	return rows.Err()
}
