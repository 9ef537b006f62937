package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/kirillkom/paper-evidence/internal/core/domain"
)

const schemaLockID = int64(2026101901)

// InteractionRepository archives query round trips. The -1 evaluation
// sentinel is stored as NULL.
type InteractionRepository struct {
	db *sql.DB
}

func NewInteractionRepository(db *sql.DB) *InteractionRepository {
	return &InteractionRepository{db: db}
}

func (r *InteractionRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, schemaLockID); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS interactions (
	id TEXT PRIMARY KEY,
	ts TIMESTAMPTZ NOT NULL,
	query TEXT NOT NULL,
	retrieval_mode TEXT NOT NULL,
	latency_sec DOUBLE PRECISION NOT NULL,
	precision_at_5 DOUBLE PRECISION,
	recall_at_10 DOUBLE PRECISION,
	evidence_ids JSONB NOT NULL DEFAULT '[]'::jsonb
);

CREATE INDEX IF NOT EXISTS idx_interactions_ts ON interactions(ts DESC);
CREATE INDEX IF NOT EXISTS idx_interactions_mode ON interactions(retrieval_mode);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

// Record is idempotent on the interaction id, so redelivered events are harmless.
func (r *InteractionRepository) Record(ctx context.Context, in domain.Interaction) error {
	ids := in.EvidenceIDs
	if ids == nil {
		ids = []string{}
	}
	idsJSON, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("marshal evidence ids: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO interactions (
	id, ts, query, retrieval_mode, latency_sec, precision_at_5, recall_at_10, evidence_ids
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (id) DO NOTHING
`,
		in.ID, in.Timestamp, in.Query, string(in.Mode), in.LatencySec,
		metricParam(in.PrecisionAt5), metricParam(in.RecallAt10), idsJSON,
	)
	if err != nil {
		return fmt.Errorf("insert interaction: %w", err)
	}
	return nil
}

func (r *InteractionRepository) ListRecent(ctx context.Context, limit int) ([]domain.Interaction, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, ts, query, retrieval_mode, latency_sec, precision_at_5, recall_at_10, evidence_ids
FROM interactions
ORDER BY ts DESC, id
LIMIT $1
`, limit)
	if err != nil {
		return nil, fmt.Errorf("query interactions: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Interaction, 0, limit)
	for rows.Next() {
		var (
			in      domain.Interaction
			mode    string
			p5, r10 sql.NullFloat64
			idsRaw  []byte
		)
		if err := rows.Scan(&in.ID, &in.Timestamp, &in.Query, &mode, &in.LatencySec, &p5, &r10, &idsRaw); err != nil {
			return nil, fmt.Errorf("scan interaction: %w", err)
		}
		if err := json.Unmarshal(idsRaw, &in.EvidenceIDs); err != nil {
			return nil, fmt.Errorf("unmarshal evidence ids: %w", err)
		}
		in.Mode = domain.Method(mode)
		in.PrecisionAt5 = metricValue(p5)
		in.RecallAt10 = metricValue(r10)
		out = append(out, in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate interactions: %w", err)
	}
	return out, nil
}

func metricParam(v float64) sql.NullFloat64 {
	if v < 0 {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func metricValue(v sql.NullFloat64) float64 {
	if !v.Valid {
		return domain.NotEvaluable
	}
	return v.Float64
}
