package cli

import (
	"io"
	"strconv"

	"github.com/lherron/fitmigrate/internal/config"
	"github.com/lherron/fitmigrate/internal/export"
	"github.com/lherron/fitmigrate/internal/render"
)

func presence(present bool) string {
	if present {
		return "present"
	}
	return "missing"
}

// newRenderer builds a renderer for the configured format and porcelain mode
func newRenderer(w io.Writer, cfg *config.Config) (*render.Renderer, error) {
	f, err := render.ParseFormat(cfg.Output)
	if err != nil {
		return nil, err
	}
	return render.NewRenderer(w, render.Options{Format: f, Porcelain: cfg.Porcelain}), nil
}

// renderReport writes the per-table summary of a run
func renderReport(w io.Writer, cfg *config.Config, report *export.Report) error {
	r, err := newRenderer(w, cfg)
	if err != nil {
		return err
	}

	headers := []string{"Table", "Source", "File", "Read", "Emitted"}
	rows := make([][]string, 0, len(report.Tables))
	for _, t := range report.Tables {
		rows = append(rows, []string{
			t.Table,
			presence(t.Present),
			t.File,
			strconv.Itoa(t.RowsRead),
			strconv.Itoa(t.RowsEmitted),
		})
	}

	return r.Render(report, headers, rows)
}
