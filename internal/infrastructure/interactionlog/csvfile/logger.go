// Package csvfile appends interactions to a CSV file for offline analysis.
package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/kirillkom/paper-evidence/internal/core/domain"
)

const maxQueryRunes = 100

var Header = []string{
	"timestamp",
	"query",
	"retrieval_mode",
	"latency_sec",
	"precision_at_5",
	"recall_at_10",
	"evidence_ids",
}

type Logger struct {
	path string
	mu   sync.Mutex
}

// New makes sure the file exists and starts with the header row.
func New(path string) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	l := &Logger{path: path}
	info, err := os.Stat(path)
	if err == nil && info.Size() > 0 {
		return l, nil
	}
	if err := l.append(Header); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	return l, nil
}

func (l *Logger) Record(_ context.Context, in domain.Interaction) error {
	return l.append(Row(in))
}

// Row formats one interaction. Metrics below zero are written as N/A.
func Row(in domain.Interaction) []string {
	return []string{
		in.Timestamp.Format("2006-01-02T15:04:05.000000"),
		sanitizeQuery(in.Query),
		string(in.Mode),
		strconv.FormatFloat(in.LatencySec, 'f', 4, 64),
		formatMetric(in.PrecisionAt5),
		formatMetric(in.RecallAt10),
		strings.Join(in.EvidenceIDs, ";"),
	}
}

func (l *Logger) append(row []string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open csv log: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(row); err != nil {
		return fmt.Errorf("write csv row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv row: %w", err)
	}
	return nil
}

func sanitizeQuery(q string) string {
	if r := []rune(q); len(r) > maxQueryRunes {
		q = string(r[:maxQueryRunes])
	}
	return strings.ReplaceAll(q, "\n", " ")
}

func formatMetric(v float64) string {
	if v < 0 {
		return "N/A"
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}
