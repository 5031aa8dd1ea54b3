package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type EvaluationStatus string

const (
	StatusCompleted EvaluationStatus = "completed"
	StatusFailed    EvaluationStatus = "failed"
)

// Evaluation is one submitted decision table and its outcome.
type Evaluation struct {
	ID       uuid.UUID `json:"evaluation_id"`
	Filename string    `json:"filename"`
	Weights  string    `json:"weights"`
	Impacts  string    `json:"impacts"`
	Email    string    `json:"email,omitempty"`

	Status    EvaluationStatus `json:"status"`
	ErrorKind string           `json:"error_kind,omitempty"`
	Error     string           `json:"error,omitempty"`

	Columns         []string  `json:"columns,omitempty"`
	Labels          []string  `json:"labels,omitempty"`
	Criteria        int       `json:"criteria"`
	Scores          []float64 `json:"scores,omitempty"`
	Ranks           []int     `json:"ranks,omitempty"`
	BestAlternative string    `json:"best_alternative,omitempty"`
	// Frontier lists the labels of the non-dominated alternatives.
	Frontier        []string  `json:"frontier,omitempty"`

	// Result is the scored table rendered as CSV.
	Result []byte `json:"-"`

	// Delivery
	Delivered     bool   `json:"delivered"`
	DeliveryError string `json:"delivery_error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

type EvaluationFilter struct {
	Status *EvaluationStatus
	Email  string
	Limit  int
	Offset int
}

type EvaluationStats struct {
	TotalCompleted int            `json:"total_completed"`
	TotalFailed    int            `json:"total_failed"`
	FailuresByKind map[string]int `json:"failures_by_kind"`
	TotalDelivered int            `json:"total_delivered"`
}

type Store interface {
	CreateEvaluation(ctx context.Context, e *Evaluation) error
	GetEvaluation(ctx context.Context, id uuid.UUID) (*Evaluation, error)
	ListEvaluations(ctx context.Context, filter EvaluationFilter) ([]*Evaluation, error)
	UpdateDelivery(ctx context.Context, id uuid.UUID, delivered bool, deliveryErr string) error
	GetStats(ctx context.Context) (*EvaluationStats, error)
	Close() error
}
