package cmd

import (
	"database/sql"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/chriserin/vero/internal/db"
	"github.com/chriserin/vero/internal/ui"
)

var (
	tagFlag     string
	featureFlag string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List indexed scenarios",
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunList(cmd.OutOrStdout(), tagFlag, featureFlag)
	},
}

func init() {
	listCmd.Flags().StringVar(&tagFlag, "tag", "", "Only scenarios carrying this tag")
	listCmd.Flags().StringVar(&featureFlag, "feature", "", "Only scenarios of this feature")
	rootCmd.AddCommand(listCmd)
}

type listRow struct {
	id       int64
	fileName string
	feature  string
	name     string
	tags     []string
}

func RunList(w io.Writer, tag, feature string) error {
	cfg, err := project()
	if err != nil {
		return err
	}

	sqlDB, err := db.Open(cfg.IndexPath())
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer sqlDB.Close()

	if tag != "" && tag[0] != '@' {
		tag = "@" + tag
	}

	rows, err := sqlDB.Query(`
		SELECT s.id, fl.file_path, f.name, s.name
		FROM scenarios s
		JOIN features f ON s.feature_id = f.id
		JOIN files fl ON f.file_id = fl.id
		WHERE (? = '' OR f.name = ?)
		  AND (? = '' OR EXISTS (SELECT 1 FROM scenario_tags t WHERE t.scenario_id = s.id AND t.tag = ?))
		ORDER BY fl.file_path, s.line, s.id
	`, feature, feature, tag, tag)
	if err != nil {
		return fmt.Errorf("querying scenarios: %w", err)
	}
	defer rows.Close()

	var results []listRow
	for rows.Next() {
		var r listRow
		var filePath string
		if err := rows.Scan(&r.id, &filePath, &r.feature, &r.name); err != nil {
			return fmt.Errorf("scanning row: %w", err)
		}
		r.fileName = filepath.Base(filePath)
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating rows: %w", err)
	}
	rows.Close()

	if len(results) == 0 {
		return nil
	}

	tags, err := scenarioTags(sqlDB)
	if err != nil {
		return err
	}

	// Compute column widths
	idWidth, fileWidth, featureWidth := 0, 0, 0
	for i := range results {
		r := &results[i]
		r.tags = tags[r.id]
		if n := len(fmt.Sprintf("#%d", r.id)); n > idWidth {
			idWidth = n
		}
		if len(r.fileName) > fileWidth {
			fileWidth = len(r.fileName)
		}
		if len(r.feature) > featureWidth {
			featureWidth = len(r.feature)
		}
	}

	for _, r := range results {
		ui.ListRow(w, r.id, r.fileName, r.feature, r.name, r.tags, idWidth, fileWidth, featureWidth)
	}

	return nil
}

func scenarioTags(sqlDB *sql.DB) (map[int64][]string, error) {
	rows, err := sqlDB.Query(`SELECT scenario_id, tag FROM scenario_tags ORDER BY scenario_id, tag`)
	if err != nil {
		return nil, fmt.Errorf("querying tags: %w", err)
	}
	defer rows.Close()

	out := make(map[int64][]string)
	for rows.Next() {
		var id int64
		var tag string
		if err := rows.Scan(&id, &tag); err != nil {
			return nil, fmt.Errorf("scanning tag: %w", err)
		}
		out[id] = append(out[id], tag)
	}
	return out, rows.Err()
}
