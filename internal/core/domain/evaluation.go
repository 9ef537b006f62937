package domain

import "time"

// NotEvaluable is reported for both metrics when no rubric matches the query.
const NotEvaluable = -1.0

type Rubric struct {
	ID       string   `json:"id" yaml:"id"`
	Question string   `json:"question" yaml:"question"`
	MustHave []string `json:"must_have_keywords" yaml:"must_have_keywords"`
	Optional []string `json:"optional_keywords,omitempty" yaml:"optional_keywords"`
}

type Evaluation struct {
	RubricID     string  `json:"rubric_id,omitempty"`
	PrecisionAt5 float64 `json:"precision_at_5"`
	RecallAt10   float64 `json:"recall_at_10"`
}

func (e Evaluation) Evaluable() bool {
	return e.PrecisionAt5 != NotEvaluable || e.RecallAt10 != NotEvaluable
}

func NotEvaluated() Evaluation {
	return Evaluation{PrecisionAt5: NotEvaluable, RecallAt10: NotEvaluable}
}

type QueryResult struct {
	Query      string         `json:"query"`
	Method     Method         `json:"method"`
	Answer     string         `json:"answer"`
	Evidence   []EvidenceItem `json:"evidence"`
	Evaluation Evaluation     `json:"evaluation"`
	Latency    time.Duration  `json:"latency_ns"`
}

// Interaction is one logged query round trip.
type Interaction struct {
	ID           string    `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	Query        string    `json:"query"`
	Mode         Method    `json:"retrieval_mode"`
	LatencySec   float64   `json:"latency_sec"`
	PrecisionAt5 float64   `json:"precision_at_5"`
	RecallAt10   float64   `json:"recall_at_10"`
	EvidenceIDs  []string  `json:"evidence_ids"`
}

// MethodComparison is one cell row of the method comparison report.
type MethodComparison struct {
	RubricID     string   `json:"rubric_id"`
	Question     string   `json:"question"`
	Method       Method   `json:"method"`
	PrecisionAt5 float64  `json:"precision_at_5"`
	RecallAt10   float64  `json:"recall_at_10"`
	LatencySec   float64  `json:"latency_sec"`
	EvidenceIDs  []string `json:"evidence_ids"`
}
