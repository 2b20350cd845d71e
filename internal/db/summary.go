package db

import "fmt"

// TableSummary describes the rows a loaded script produced in one table
type TableSummary struct {
	Table  string   `json:"table" yaml:"table"`
	Rows   int      `json:"rows" yaml:"rows"`
	Owners []string `json:"owners" yaml:"owners"`
}

// Summarize counts rows and distinct user_id values in each table
func (db *DB) Summarize(tables []string) ([]TableSummary, error) {
	summaries := make([]TableSummary, 0, len(tables))

	for _, table := range tables {
		if !schemaPattern.MatchString(table) {
			return nil, fmt.Errorf("invalid table name %q", table)
		}
		qualified := db.schema + "." + table

		summary := TableSummary{Table: table, Owners: []string{}}
		if err := db.QueryRow("SELECT COUNT(*) FROM " + qualified).Scan(&summary.Rows); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", qualified, err)
		}

		rows, err := db.Query("SELECT DISTINCT user_id FROM " + qualified + " ORDER BY user_id")
		if err != nil {
			return nil, fmt.Errorf("failed to query owners of %s: %w", qualified, err)
		}
		for rows.Next() {
			var owner string
			if err := rows.Scan(&owner); err != nil {
				rows.Close()
				return nil, fmt.Errorf("failed to scan owner of %s: %w", qualified, err)
			}
			summary.Owners = append(summary.Owners, owner)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, fmt.Errorf("error iterating owners of %s: %w", qualified, err)
		}
		rows.Close()

		summaries = append(summaries, summary)
	}

	return summaries, nil
}
