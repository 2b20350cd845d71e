// Package export turns per-table CSV exports into a SQL script of INSERT
// statements that re-home one user's rows under a placeholder user id.
package export

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/lherron/fitmigrate/internal/config"
	"github.com/lherron/fitmigrate/internal/parse"
)

// ErrSourceMissing is returned in strict mode when a table's export file
// does not exist
var ErrSourceMissing = errors.New("source file missing")

// TableResult summarizes one table of a run
type TableResult struct {
	Table       string `json:"table" yaml:"table"`
	File        string `json:"file" yaml:"file"`
	Present     bool   `json:"present" yaml:"present"`
	RowsRead    int    `json:"rows_read" yaml:"rows_read"`
	RowsEmitted int    `json:"rows_emitted" yaml:"rows_emitted"`
}

// Report summarizes a run
type Report struct {
	OutputPath    string        `json:"output_path,omitempty" yaml:"output_path,omitempty"`
	SourceUserID  string        `json:"source_user_id" yaml:"source_user_id"`
	PlaceholderID string        `json:"placeholder_id" yaml:"placeholder_id"`
	Tables        []TableResult `json:"tables" yaml:"tables"`
}

// Emitted returns the total number of INSERT statements written
func (r *Report) Emitted() int {
	total := 0
	for _, t := range r.Tables {
		total += t.RowsEmitted
	}
	return total
}

// Exporter writes the migration script for one configuration
type Exporter struct {
	cfg    *config.Config
	tables []Table
	logger *slog.Logger
}

// New creates an Exporter for cfg. A nil logger discards log output.
func New(cfg *config.Config, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Exporter{
		cfg:    cfg,
		tables: Tables(cfg.Schema, cfg.SourceUserID, cfg.PlaceholderID),
		logger: logger,
	}
}

// Tables returns the table definitions the exporter drives
func (e *Exporter) Tables() []Table {
	return e.tables
}

// Header returns the comment lines that open every script
func Header(placeholderID string) string {
	return "-- SQL script to populate migrated fitness data\n" +
		fmt.Sprintf("-- IMPORTANT: Replace '%s' with the new account's user UID before running.\n", placeholderID) +
		"\n"
}

// Generate writes the script to the configured output path. The output
// file is opened once for the whole run; a failure partway through leaves
// what was written so far in place.
func (e *Exporter) Generate() (*Report, error) {
	path := e.cfg.OutputPath
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}

	report, runErr := e.Run(f)
	closeErr := f.Close()
	if runErr != nil {
		return nil, runErr
	}
	if closeErr != nil {
		return nil, fmt.Errorf("failed to close output file: %w", closeErr)
	}

	report.OutputPath = path
	return report, nil
}

// Run writes the header and every table's INSERT statements to w, in table
// order, each followed by a blank line. Missing source files contribute no
// statements unless strict mode is on.
func (e *Exporter) Run(w io.Writer) (*Report, error) {
	bw := bufio.NewWriter(w)
	// Flush even on failure so partial output reaches w
	defer bw.Flush()

	report := &Report{
		SourceUserID:  e.cfg.SourceUserID,
		PlaceholderID: e.cfg.PlaceholderID,
	}

	if _, err := bw.WriteString(Header(e.cfg.PlaceholderID)); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	for _, table := range e.tables {
		result, err := e.exportFile(bw, table)
		if err != nil {
			return nil, err
		}
		report.Tables = append(report.Tables, result)

		if _, err := bw.WriteString("\n"); err != nil {
			return nil, fmt.Errorf("failed to write separator after %s: %w", table.Name, err)
		}
	}

	if err := bw.Flush(); err != nil {
		return nil, fmt.Errorf("failed to flush output: %w", err)
	}

	return report, nil
}

func (e *Exporter) exportFile(w io.Writer, table Table) (TableResult, error) {
	path := e.cfg.SourcePath(table.File)
	result := TableResult{Table: table.Name, File: path}

	if _, err := os.Stat(path); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return result, fmt.Errorf("failed to stat %s: %w", path, err)
		}
		if e.cfg.Strict {
			return result, fmt.Errorf("%s: %w: %s", table.Name, ErrSourceMissing, path)
		}
		e.logger.Debug("source file not found, skipping table", "table", table.Name, "file", path)
		return result, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return result, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	tableResult, err := e.ExportTable(w, table, f)
	tableResult.File = path
	if err != nil {
		return tableResult, fmt.Errorf("%s (%s): %w", table.Name, path, err)
	}

	e.logger.Info("exported table",
		"table", table.Name,
		"rows_read", tableResult.RowsRead,
		"rows_emitted", tableResult.RowsEmitted)

	return tableResult, nil
}

// ExportTable streams src through the table's filter and column transforms,
// writing one INSERT line per matching row.
func (e *Exporter) ExportTable(w io.Writer, table Table, src io.Reader) (TableResult, error) {
	result := TableResult{Table: table.Name, Present: true}

	reader, err := parse.NewReader(src)
	if err != nil {
		return result, err
	}

	err = reader.Each(func(row parse.Row) error {
		result.RowsRead++
		if !table.Filter(row) {
			return nil
		}

		if _, err := io.WriteString(w, table.Insert(row)+"\n"); err != nil {
			return fmt.Errorf("failed to write row at line %d: %w", row.Line(), err)
		}
		result.RowsEmitted++
		return nil
	})

	return result, err
}
