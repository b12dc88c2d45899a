package interview

import (
	"context"
	"errors"
	"time"

	"github.com/pavelanni/interviewer/internal/i18n"
	"github.com/pavelanni/interviewer/internal/model"
)

// Evaluator scores one answer to one question.
type Evaluator interface {
	Evaluate(ctx context.Context, req model.EvaluationRequest) (*model.Evaluation, error)
}

type aggregator struct {
	eval    Evaluator
	timeout time.Duration
	newID   func() string
	now     func() time.Time
	metrics *Metrics
}

// score evaluates the answer of a scored turn. On success the evaluation is
// attached to the turn and folded into the session statistics. On failure the
// statistics are left untouched and placeholder feedback is recorded instead.
func (a *aggregator) score(ctx context.Context, s *Session, t *model.Turn) error {
	eval, err := a.call(ctx, t)
	if err != nil {
		feedback := i18n.T(ctx, "FeedbackUnavailable")
		t.Feedback = feedback
		s.Ledger.RecordFeedback(feedback)
		return &EvaluationError{Seq: t.Seq, Err: err}
	}

	eval.ID = a.newID()
	eval.CreatedAt = a.now()
	t.Evaluation = eval
	t.Feedback = eval.Comments
	s.Stats.Add(eval.Score)
	a.metrics.score(eval.Score)
	s.Ledger.RecordFeedback(eval.Comments)
	return nil
}

func (a *aggregator) call(ctx context.Context, t *model.Turn) (*model.Evaluation, error) {
	if t.Question.Placeholder {
		return nil, errPlaceholderQuestion
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	eval, err := a.eval.Evaluate(ctx, model.EvaluationRequest{
		Question: t.Question.Text,
		Answer:   t.Answer.Text,
	})
	a.metrics.observeCall("evaluator", err, time.Since(start))
	if err != nil {
		return nil, err
	}
	if eval == nil {
		return nil, errors.New("evaluator returned no result")
	}
	return eval, nil
}
