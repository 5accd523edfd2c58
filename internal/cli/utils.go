// Package cli provides CLI output utilities for formfill.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dsillex/formfill/internal/history"
	"github.com/dsillex/formfill/internal/models"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat maps a flag value to an OutputFormat.
func ParseOutputFormat(v string) (OutputFormat, error) {
	switch v {
	case "text", "":
		return OutputText, nil
	case "json":
		return OutputJSON, nil
	}
	return "", fmt.Errorf("unknown output format %q; use text or json", v)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteAnalysis writes a document analysis to w in the given format.
func WriteAnalysis(w io.Writer, result *models.AnalysisResult, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, result)
	}
	fmt.Fprintf(w, "\nFound %d fillable fields (%d pages)\n\n", len(result.Fields), result.Pages)
	for _, f := range result.Fields {
		required := ""
		if f.Required {
			required = " (required)"
		}
		fmt.Fprintf(w, "  %-30s %s%s\n", f.ID, f.Type, required)
		if f.Name != "" && f.Name != f.ID {
			fmt.Fprintf(w, "      label: %s\n", f.Name)
		}
		if len(f.Options) > 0 {
			fmt.Fprintf(w, "      options: %v\n", f.Options)
		}
	}
	return nil
}

// WriteFillResult writes a fill outcome to w in the given format.
func WriteFillResult(w io.Writer, result *models.FillResult, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, result)
	}
	if result.Success {
		fmt.Fprintf(w, "Filled document written to %s\n", result.OutputPath)
	} else {
		fmt.Fprintf(w, "Fill failed: %s\n", result.Error)
	}
	for _, warning := range result.Warnings {
		fmt.Fprintf(w, "  warning: %s\n", warning)
	}
	return nil
}

// WriteBatchSummary writes a batch outcome to w in the given format.
func WriteBatchSummary(w io.Writer, summary *models.BatchSummary, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, summary)
	}
	fmt.Fprintf(w, "\nBatch finished: %d total, %d succeeded, %d failed\n\n",
		summary.Total, summary.Succeeded, summary.Failed)
	for _, r := range summary.Results {
		if r.Success {
			fmt.Fprintf(w, "  [%d] ok      %s", r.Index, r.OutputPath)
			if len(r.Warnings) > 0 {
				fmt.Fprintf(w, " (%d warnings)", len(r.Warnings))
			}
			fmt.Fprintln(w)
		} else {
			fmt.Fprintf(w, "  [%d] failed  %s\n", r.Index, r.Error)
		}
	}
	return nil
}

// WriteTemplates writes a template listing to w in the given format.
func WriteTemplates(w io.Writer, templates []*models.Template, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, templates)
	}
	if len(templates) == 0 {
		fmt.Fprintln(w, "No templates.")
		return nil
	}
	for _, t := range templates {
		fmt.Fprintf(w, "%s  v%d  %-5s %s\n", t.ID, t.Version, t.DocumentType, t.Name)
	}
	return nil
}

// WriteHistory writes fill history entries to w in the given format.
func WriteHistory(w io.Writer, entries []*history.Entry, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(w, "No fill history.")
		return nil
	}
	for _, e := range entries {
		status := "ok"
		if !e.Success {
			status = "failed"
		}
		fmt.Fprintf(w, "%s  %-6s %-5s %s", e.CreatedAt.Format("2006-01-02 15:04:05"), status, e.DocumentType, e.OutputPath)
		if e.WarningCount > 0 {
			fmt.Fprintf(w, " (%d warnings)", e.WarningCount)
		}
		if e.Error != "" {
			fmt.Fprintf(w, " %s", e.Error)
		}
		fmt.Fprintln(w)
	}
	return nil
}
