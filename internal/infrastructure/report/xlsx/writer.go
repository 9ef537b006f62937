// Package xlsx renders the method comparison as a workbook with a detail
// sheet and a per-method summary.
package xlsx

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/paper-evidence/internal/core/domain"
)

const (
	ResultsSheet = "Results"
	SummarySheet = "Summary"
)

var resultHeader = []any{"rubric_id", "question", "method", "precision_at_5", "recall_at_10", "latency_sec", "evidence_ids"}
var summaryHeader = []any{"method", "queries", "mean_precision_at_5", "mean_recall_at_10", "mean_latency_sec"}

type Writer struct {
	path string
}

func NewWriter(path string) *Writer {
	return &Writer{path: path}
}

func (w *Writer) WriteComparison(_ context.Context, rows []domain.MethodComparison) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ResultsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(SummarySheet); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	if err := writeRow(f, ResultsSheet, 1, resultHeader); err != nil {
		return err
	}
	for i, r := range rows {
		values := []any{r.RubricID, r.Question, string(r.Method), metric(r.PrecisionAt5), metric(r.RecallAt10), r.LatencySec, strings.Join(r.EvidenceIDs, ";")}
		if err := writeRow(f, ResultsSheet, i+2, values); err != nil {
			return err
		}
	}

	if err := writeRow(f, SummarySheet, 1, summaryHeader); err != nil {
		return err
	}
	for i, s := range Summarize(rows) {
		values := []any{string(s.Method), s.Queries, s.MeanPrecisionAt5, s.MeanRecallAt10, s.MeanLatencySec}
		if err := writeRow(f, SummarySheet, i+2, values); err != nil {
			return err
		}
	}

	for _, sheet := range []string{ResultsSheet, SummarySheet} {
		if err := f.SetCellStyle(sheet, "A1", "G1", bold); err != nil {
			return fmt.Errorf("style header: %w", err)
		}
	}
	if err := f.SetColWidth(ResultsSheet, "B", "B", 60); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	if err := f.SaveAs(w.path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

type MethodSummary struct {
	Method           domain.Method
	Queries          int
	MeanPrecisionAt5 float64
	MeanRecallAt10   float64
	MeanLatencySec   float64
}

// Summarize averages evaluable rows per method, in the canonical method order.
func Summarize(rows []domain.MethodComparison) []MethodSummary {
	out := make([]MethodSummary, 0, len(domain.Methods))
	for _, method := range domain.Methods {
		s := MethodSummary{Method: method}
		for _, r := range rows {
			if r.Method != method || r.PrecisionAt5 < 0 {
				continue
			}
			s.Queries++
			s.MeanPrecisionAt5 += r.PrecisionAt5
			s.MeanRecallAt10 += r.RecallAt10
			s.MeanLatencySec += r.LatencySec
		}
		if s.Queries == 0 {
			continue
		}
		n := float64(s.Queries)
		s.MeanPrecisionAt5 /= n
		s.MeanRecallAt10 /= n
		s.MeanLatencySec /= n
		out = append(out, s)
	}
	return out
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("cell name: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func metric(v float64) any {
	if v < 0 {
		return "N/A"
	}
	return v
}
