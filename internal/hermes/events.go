package hermes

import "time"

type EvaluationCompletedEvent struct {
	EvaluationID    string    `json:"evaluation_id"`
	Filename        string    `json:"filename"`
	Alternatives    int       `json:"alternatives"`
	Criteria        int       `json:"criteria"`
	BestAlternative string    `json:"best_alternative,omitempty"`
	Frontier        []string  `json:"frontier,omitempty"`
	DurationMs      float64   `json:"duration_ms"`
	Timestamp       time.Time `json:"timestamp"`
}

type EvaluationFailedEvent struct {
	EvaluationID string    `json:"evaluation_id"`
	Filename     string    `json:"filename"`
	Kind         string    `json:"kind"`
	Error        string    `json:"error"`
	Timestamp    time.Time `json:"timestamp"`
}

type ResultDeliveredEvent struct {
	EvaluationID string    `json:"evaluation_id"`
	Recipient    string    `json:"recipient"`
	Delivered    bool      `json:"delivered"`
	Error        string    `json:"error,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}
