package db

import (
	"database/sql"
	"fmt"
	"sort"

	"github.com/chriserin/vero/internal/parser"
)

// SyncStatus says what SyncFile did with a file.
type SyncStatus int

const (
	Tracked SyncStatus = iota // unchanged since the last sync
	Added
	Updated
)

func (s SyncStatus) String() string {
	switch s {
	case Added:
		return "new"
	case Updated:
		return "upd"
	default:
		return "trk"
	}
}

// TestLink places a generated test for a scenario.
type TestLink struct {
	Feature  string
	Scenario string
	Path     string
	Line     int
}

type scenarioKey struct {
	feature string
	name    string
}

// SyncFile indexes fs under path. A file whose hash is unchanged is left
// alone. Otherwise its features, scenarios and tags are replaced in one
// transaction; scenarios keep their id while their feature and name match.
func SyncFile(db *sql.DB, path, hash string, fs *parser.FileSummary) (SyncStatus, error) {
	var fileID int64
	var oldHash string
	status := Updated
	err := db.QueryRow(`SELECT id, hash FROM files WHERE file_path = ?`, path).Scan(&fileID, &oldHash)
	switch {
	case err == sql.ErrNoRows:
		status = Added
	case err != nil:
		return Tracked, fmt.Errorf("querying %s: %w", path, err)
	case oldHash == hash:
		return Tracked, nil
	}

	tx, err := db.Begin()
	if err != nil {
		return Tracked, fmt.Errorf("beginning sync of %s: %w", path, err)
	}

	if status == Added {
		res, err := tx.Exec(`INSERT INTO files (file_path, hash, error_count) VALUES (?, ?, ?)`, path, hash, len(fs.Errors))
		if err != nil {
			tx.Rollback()
			return Tracked, fmt.Errorf("inserting %s: %w", path, err)
		}
		if fileID, err = res.LastInsertId(); err != nil {
			tx.Rollback()
			return Tracked, fmt.Errorf("inserting %s: %w", path, err)
		}
	} else {
		_, err := tx.Exec(`UPDATE files SET hash = ?, error_count = ?, updated_at = datetime('now') WHERE id = ?`,
			hash, len(fs.Errors), fileID)
		if err != nil {
			tx.Rollback()
			return Tracked, fmt.Errorf("updating %s: %w", path, err)
		}
	}

	if err := replaceScenarios(tx, fileID, fs); err != nil {
		tx.Rollback()
		return Tracked, fmt.Errorf("indexing %s: %w", path, err)
	}
	if err := tx.Commit(); err != nil {
		return Tracked, fmt.Errorf("committing %s: %w", path, err)
	}
	return status, nil
}

func replaceScenarios(tx *sql.Tx, fileID int64, fs *parser.FileSummary) error {
	features, err := existingFeatures(tx, fileID)
	if err != nil {
		return err
	}
	scenarios, err := existingScenarios(tx, fileID)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM scenario_tags WHERE scenario_id IN (
		SELECT s.id FROM scenarios s JOIN features f ON s.feature_id = f.id WHERE f.file_id = ?
	)`, fileID); err != nil {
		return fmt.Errorf("clearing tags: %w", err)
	}

	keepFeatures := make(map[string]bool)
	for _, name := range fs.Features {
		keepFeatures[name] = true
		if _, ok := features[name]; ok {
			continue
		}
		res, err := tx.Exec(`INSERT INTO features (file_id, name) VALUES (?, ?)`, fileID, name)
		if err != nil {
			return fmt.Errorf("inserting feature %s: %w", name, err)
		}
		if features[name], err = res.LastInsertId(); err != nil {
			return err
		}
	}

	claimed := make(map[int64]bool)
	for _, s := range fs.Scenarios {
		id, err := upsertScenario(tx, features[s.Feature], scenarios[scenarioKey{s.Feature, s.Name}], claimed, s)
		if err != nil {
			return err
		}
		claimed[id] = true
		for _, tag := range s.Tags {
			if _, err := tx.Exec(`INSERT OR IGNORE INTO scenario_tags (scenario_id, tag) VALUES (?, ?)`, id, tag); err != nil {
				return fmt.Errorf("tagging %s: %w", s.Name, err)
			}
		}
	}

	for _, ids := range scenarios {
		for _, id := range ids {
			if !claimed[id] {
				if err := deleteScenario(tx, id); err != nil {
					return err
				}
			}
		}
	}
	for name, id := range features {
		if !keepFeatures[name] {
			if _, err := tx.Exec(`DELETE FROM features WHERE id = ?`, id); err != nil {
				return fmt.Errorf("deleting feature %s: %w", name, err)
			}
		}
	}
	return nil
}

// upsertScenario reuses the first unclaimed id among candidates, or
// inserts a new scenario row.
func upsertScenario(tx *sql.Tx, featureID int64, candidates []int64, claimed map[int64]bool, s parser.ScenarioSummary) (int64, error) {
	for _, id := range candidates {
		if claimed[id] {
			continue
		}
		_, err := tx.Exec(`UPDATE scenarios SET line = ?, steps = ?, updated_at = datetime('now') WHERE id = ?`,
			s.Line, s.Steps, id)
		if err != nil {
			return 0, fmt.Errorf("updating scenario %s: %w", s.Name, err)
		}
		return id, nil
	}
	res, err := tx.Exec(`INSERT INTO scenarios (feature_id, name, line, steps) VALUES (?, ?, ?, ?)`,
		featureID, s.Name, s.Line, s.Steps)
	if err != nil {
		return 0, fmt.Errorf("inserting scenario %s: %w", s.Name, err)
	}
	return res.LastInsertId()
}

func existingFeatures(tx *sql.Tx, fileID int64) (map[string]int64, error) {
	rows, err := tx.Query(`SELECT id, name FROM features WHERE file_id = ?`, fileID)
	if err != nil {
		return nil, fmt.Errorf("querying features: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("scanning feature: %w", err)
		}
		out[name] = id
	}
	return out, rows.Err()
}

func existingScenarios(tx *sql.Tx, fileID int64) (map[scenarioKey][]int64, error) {
	rows, err := tx.Query(`
		SELECT s.id, f.name, s.name
		FROM scenarios s
		JOIN features f ON s.feature_id = f.id
		WHERE f.file_id = ?
		ORDER BY s.line, s.id
	`, fileID)
	if err != nil {
		return nil, fmt.Errorf("querying scenarios: %w", err)
	}
	defer rows.Close()

	out := make(map[scenarioKey][]int64)
	for rows.Next() {
		var id int64
		var k scenarioKey
		if err := rows.Scan(&id, &k.feature, &k.name); err != nil {
			return nil, fmt.Errorf("scanning scenario: %w", err)
		}
		out[k] = append(out[k], id)
	}
	return out, rows.Err()
}

func deleteScenario(tx *sql.Tx, id int64) error {
	for _, q := range []string{
		`DELETE FROM test_links WHERE scenario_id = ?`,
		`DELETE FROM scenario_tags WHERE scenario_id = ?`,
		`DELETE FROM scenarios WHERE id = ?`,
	} {
		if _, err := tx.Exec(q, id); err != nil {
			return fmt.Errorf("deleting scenario %d: %w", id, err)
		}
	}
	return nil
}

// RemoveMissing drops every indexed file not listed in present and
// returns the removed paths, sorted.
func RemoveMissing(db *sql.DB, present []string) ([]string, error) {
	keep := make(map[string]bool, len(present))
	for _, p := range present {
		keep[p] = true
	}

	rows, err := db.Query(`SELECT id, file_path FROM files`)
	if err != nil {
		return nil, fmt.Errorf("querying files: %w", err)
	}
	stale := make(map[string]int64)
	for rows.Next() {
		var id int64
		var path string
		if err := rows.Scan(&id, &path); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning file: %w", err)
		}
		if !keep[path] {
			stale[path] = id
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating files: %w", err)
	}

	var removed []string
	for path, id := range stale {
		tx, err := db.Begin()
		if err != nil {
			return nil, fmt.Errorf("beginning removal of %s: %w", path, err)
		}
		if err := replaceScenarios(tx, id, &parser.FileSummary{}); err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("removing %s: %w", path, err)
		}
		if _, err := tx.Exec(`DELETE FROM files WHERE id = ?`, id); err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("removing %s: %w", path, err)
		}
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("committing removal of %s: %w", path, err)
		}
		removed = append(removed, path)
	}
	sort.Strings(removed)
	return removed, nil
}

// LinkTests replaces the test links of every scenario indexed under
// source with links. Links naming a scenario that is not indexed are
// skipped. It returns the number of links stored.
func LinkTests(db *sql.DB, source string, links []TestLink) (int, error) {
	var fileID int64
	err := db.QueryRow(`SELECT id FROM files WHERE file_path = ?`, source).Scan(&fileID)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("querying %s: %w", source, err)
	}

	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning link of %s: %w", source, err)
	}
	scenarios, err := existingScenarios(tx, fileID)
	if err != nil {
		tx.Rollback()
		return 0, err
	}
	if _, err := tx.Exec(`DELETE FROM test_links WHERE scenario_id IN (
		SELECT s.id FROM scenarios s JOIN features f ON s.feature_id = f.id WHERE f.file_id = ?
	)`, fileID); err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("clearing links of %s: %w", source, err)
	}

	next := make(map[scenarioKey]int)
	count := 0
	for _, l := range links {
		k := scenarioKey{l.Feature, l.Scenario}
		ids := scenarios[k]
		if next[k] >= len(ids) {
			continue
		}
		id := ids[next[k]]
		next[k]++
		if _, err := tx.Exec(`INSERT INTO test_links (scenario_id, file_path, line_number) VALUES (?, ?, ?)`,
			id, l.Path, l.Line); err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("linking %s: %w", l.Scenario, err)
		}
		count++
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing links of %s: %w", source, err)
	}
	return count, nil
}
