package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chriserin/vero/internal/db"
	"github.com/chriserin/vero/internal/ui"
)

var testsCmd = &cobra.Command{
	Use:   "tests <id>",
	Short: "List generated tests linked to a scenario",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunTests(cmd.OutOrStdout(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(testsCmd)
}

func RunTests(w io.Writer, rawID string) error {
	rawID = strings.TrimPrefix(rawID, "#")
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid scenario ID: %s", rawID)
	}

	cfg, err := project()
	if err != nil {
		return err
	}

	sqlDB, err := db.Open(cfg.IndexPath())
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer sqlDB.Close()

	var existingID int64
	err = sqlDB.QueryRow(`SELECT id FROM scenarios WHERE id = ?`, id).Scan(&existingID)
	if err != nil {
		return fmt.Errorf("scenario %d not found", id)
	}

	rows, err := sqlDB.Query(`SELECT file_path, line_number FROM test_links WHERE scenario_id = ? ORDER BY file_path, line_number`, id)
	if err != nil {
		return fmt.Errorf("querying test links: %w", err)
	}
	defer rows.Close()

	var found bool
	for rows.Next() {
		var filePath string
		var lineNumber int
		if err := rows.Scan(&filePath, &lineNumber); err != nil {
			return fmt.Errorf("scanning test link: %w", err)
		}
		ui.TestLink(w, filePath, lineNumber)
		found = true
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating test links: %w", err)
	}

	if !found {
		fmt.Fprintf(w, "no generated tests for #%d, run `vero build`\n", id)
	}

	return nil
}
