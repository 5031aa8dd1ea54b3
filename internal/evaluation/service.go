// Package evaluation runs submitted decision tables through the TOPSIS core,
// records the outcome and delivers results.
package evaluation

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Topsis/internal/csvio"
	"github.com/MikeSquared-Agency/Topsis/internal/hermes"
	"github.com/MikeSquared-Agency/Topsis/internal/mailer"
	"github.com/MikeSquared-Agency/Topsis/internal/metrics"
	"github.com/MikeSquared-Agency/Topsis/internal/store"
	"github.com/MikeSquared-Agency/Topsis/internal/topsis"
)

var ErrUnsupportedFile = errors.New("only .csv files are accepted")

// Error kinds recorded for submissions that fail before reaching the core.
const (
	KindEmptyFile     = "empty_file"
	KindMalformedFile = "malformed_file"
)

const defaultPublishTimeout = time.Second

const mailBody = "Please find attached the result of your TOPSIS analysis."

type Submission struct {
	Filename string
	Body     io.Reader
	Weights  string
	Impacts  string
	// Email, when set, receives the result CSV as an attachment.
	Email string
}

// Result is the stored evaluation plus, on success, the scored table.
type Result struct {
	Evaluation *store.Evaluation
	Table      *topsis.ScoredTable
}

type Service struct {
	store   store.Store
	hermes  hermes.Client
	mailer  mailer.Sender
	subject string
	logger  *slog.Logger
	now     func() time.Time

	publishTimeout time.Duration
}

// NewService wires the evaluation pipeline. h and m may be nil, which
// disables events and email delivery respectively.
func NewService(s store.Store, h hermes.Client, m mailer.Sender, subject string, logger *slog.Logger) *Service {
	if subject == "" {
		subject = "TOPSIS Result"
	}
	return &Service{
		store:   s,
		hermes:  h,
		mailer:  m,
		subject: subject,
		logger:  logger,
		now:     time.Now,

		publishTimeout: defaultPublishTimeout,
	}
}

// Submit evaluates one uploaded table. Validation failures are stored as
// failed evaluations and returned as an error wrapping the cause; the
// stored record is still returned alongside it.
func (s *Service) Submit(ctx context.Context, sub Submission) (*Result, error) {
	name := filepath.Base(sub.Filename)
	if !strings.EqualFold(filepath.Ext(name), ".csv") {
		return nil, ErrUnsupportedFile
	}

	eval := &store.Evaluation{
		ID:        uuid.New(),
		Filename:  name,
		Weights:   sub.Weights,
		Impacts:   sub.Impacts,
		Email:     strings.TrimSpace(sub.Email),
		CreatedAt: s.now().UTC(),
	}

	start := s.now()
	table, err := csvio.Read(sub.Body)
	if err != nil {
		kind := KindMalformedFile
		if errors.Is(err, csvio.ErrEmpty) {
			kind = KindEmptyFile
		}
		return s.fail(ctx, eval, kind, err)
	}

	scored, err := topsis.Evaluate(table, sub.Weights, sub.Impacts)
	if err != nil {
		kind, ok := topsis.KindOf(err)
		if !ok {
			return nil, err
		}
		return s.fail(ctx, eval, string(kind), err)
	}
	elapsed := s.now().Sub(start)

	var buf bytes.Buffer
	if err := csvio.Write(&buf, scored); err != nil {
		return nil, fmt.Errorf("render result: %w", err)
	}

	eval.Status = store.StatusCompleted
	eval.Columns = scored.Header()
	eval.Criteria = table.Criteria()
	eval.Labels = make([]string, len(scored.Rows))
	for i, row := range scored.Rows {
		eval.Labels[i] = row[0]
	}
	eval.Scores = scored.Scores
	eval.Ranks = scored.Ranks
	if best := scored.Best(); best >= 0 {
		eval.BestAlternative = eval.Labels[best]
	}
	for _, i := range scored.Frontier() {
		eval.Frontier = append(eval.Frontier, eval.Labels[i])
	}
	eval.Result = buf.Bytes()

	if err := s.store.CreateEvaluation(ctx, eval); err != nil {
		return nil, fmt.Errorf("store evaluation: %w", err)
	}

	metrics.EvaluationsTotal.WithLabelValues(string(store.StatusCompleted), "").Inc()
	metrics.EvaluationDuration.Observe(elapsed.Seconds())
	metrics.AlternativesEvaluated.Observe(float64(len(scored.Rows)))

	s.logger.Info("evaluation completed",
		"evaluation_id", eval.ID,
		"filename", eval.Filename,
		"alternatives", len(scored.Rows),
		"criteria", eval.Criteria,
		"best", eval.BestAlternative,
		"frontier", len(eval.Frontier),
	)
	s.publish(ctx, hermes.SubjectEvaluationCompleted(eval.ID.String()), hermes.EvaluationCompletedEvent{
		EvaluationID:    eval.ID.String(),
		Filename:        eval.Filename,
		Alternatives:    len(scored.Rows),
		Criteria:        eval.Criteria,
		BestAlternative: eval.BestAlternative,
		Frontier:        eval.Frontier,
		DurationMs:      float64(elapsed.Microseconds()) / 1000,
		Timestamp:       s.now().UTC(),
	})

	if eval.Email != "" {
		s.deliver(ctx, eval)
	}
	return &Result{Evaluation: eval, Table: scored}, nil
}

func (s *Service) fail(ctx context.Context, eval *store.Evaluation, kind string, cause error) (*Result, error) {
	eval.Status = store.StatusFailed
	eval.ErrorKind = kind
	eval.Error = cause.Error()

	if err := s.store.CreateEvaluation(ctx, eval); err != nil {
		return nil, fmt.Errorf("store evaluation: %w", err)
	}
	metrics.EvaluationsTotal.WithLabelValues(string(store.StatusFailed), kind).Inc()

	s.logger.Info("evaluation rejected",
		"evaluation_id", eval.ID,
		"filename", eval.Filename,
		"kind", kind,
		"error", cause,
	)
	s.publish(ctx, hermes.SubjectEvaluationFailed(eval.ID.String()), hermes.EvaluationFailedEvent{
		EvaluationID: eval.ID.String(),
		Filename:     eval.Filename,
		Kind:         kind,
		Error:        eval.Error,
		Timestamp:    s.now().UTC(),
	})
	return &Result{Evaluation: eval}, cause
}

// deliver mails the result. Failures are recorded on the evaluation and
// never fail the submission.
func (s *Service) deliver(ctx context.Context, eval *store.Evaluation) {
	var sendErr error
	if s.mailer == nil {
		sendErr = mailer.ErrNotConfigured
	} else {
		sendErr = s.mailer.Send(ctx, mailer.Message{
			To:      eval.Email,
			Subject: s.subject,
			Body:    mailBody,
			Attachments: []mailer.Attachment{{
				Filename:    "result_" + eval.Filename,
				ContentType: "text/csv",
				Data:        eval.Result,
			}},
		})
	}

	switch {
	case sendErr == nil:
		eval.Delivered = true
		metrics.DeliveriesTotal.WithLabelValues("sent").Inc()
		s.logger.Info("result delivered", "evaluation_id", eval.ID, "recipient", eval.Email)
	case errors.Is(sendErr, mailer.ErrNotConfigured):
		eval.DeliveryError = sendErr.Error()
		metrics.DeliveriesTotal.WithLabelValues("skipped").Inc()
		s.logger.Warn("email delivery skipped", "evaluation_id", eval.ID, "recipient", eval.Email, "reason", sendErr)
	default:
		eval.DeliveryError = sendErr.Error()
		metrics.DeliveriesTotal.WithLabelValues("failed").Inc()
		s.logger.Error("email delivery failed", "evaluation_id", eval.ID, "recipient", eval.Email, "error", sendErr)
	}

	if err := s.store.UpdateDelivery(ctx, eval.ID, eval.Delivered, eval.DeliveryError); err != nil {
		s.logger.Error("failed to record delivery", "evaluation_id", eval.ID, "error", err)
	}
	s.publish(ctx, hermes.SubjectResultDelivered(eval.ID.String()), hermes.ResultDeliveredEvent{
		EvaluationID: eval.ID.String(),
		Recipient:    eval.Email,
		Delivered:    eval.Delivered,
		Error:        eval.DeliveryError,
		Timestamp:    s.now().UTC(),
	})
}

// publish is best effort. Each event gets at most publishTimeout of the
// caller's time so a slow or unreachable broker cannot stall a request.
func (s *Service) publish(ctx context.Context, subject string, event interface{}) {
	if s.hermes == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, s.publishTimeout)
	defer cancel()
	if err := s.hermes.Publish(ctx, subject, event); err != nil {
		s.logger.Warn("failed to publish event", "subject", subject, "error", err)
	}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*store.Evaluation, error) {
	return s.store.GetEvaluation(ctx, id)
}

func (s *Service) List(ctx context.Context, filter store.EvaluationFilter) ([]*store.Evaluation, error) {
	return s.store.ListEvaluations(ctx, filter)
}

func (s *Service) Stats(ctx context.Context) (*store.EvaluationStats, error) {
	return s.store.GetStats(ctx)
}

// Calculate scores a table without storing it or delivering anything.
func (s *Service) Calculate(table topsis.DecisionTable, weights, impacts string) (*topsis.ScoredTable, error) {
	start := s.now()
	scored, err := topsis.Evaluate(table, weights, impacts)
	if err != nil {
		kind, _ := topsis.KindOf(err)
		metrics.EvaluationsTotal.WithLabelValues(string(store.StatusFailed), string(kind)).Inc()
		return nil, err
	}
	metrics.EvaluationsTotal.WithLabelValues(string(store.StatusCompleted), "").Inc()
	metrics.EvaluationDuration.Observe(s.now().Sub(start).Seconds())
	metrics.AlternativesEvaluated.Observe(float64(len(scored.Rows)))
	return scored, nil
}
