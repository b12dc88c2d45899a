package interview

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/pavelanni/interviewer/internal/llm/prompts"
	"github.com/pavelanni/interviewer/internal/model"
)

// QuestionGenerator produces the next interviewer message.
type QuestionGenerator interface {
	NextQuestion(ctx context.Context, req model.QuestionRequest) (*model.GeneratedQuestion, error)
}

type generatorAdapter struct {
	gen     QuestionGenerator
	timeout time.Duration
	preview int
	metrics *Metrics
}

// next asks the generator for the question of the given phase. A question
// repeating an earlier one is retried once; any failure is a GenerationError.
func (a *generatorAdapter) next(ctx context.Context, s *Session, phase model.Phase, difficulty model.Difficulty) (*model.GeneratedQuestion, error) {
	req := model.QuestionRequest{
		Phase:          phase,
		AnswerCount:    s.Ledger.AnswerCount(),
		LastAnswer:     prompts.Preview(s.Ledger.LastAnswer(), a.preview),
		LastFeedback:   prompts.Preview(s.Ledger.LastFeedback(), a.preview),
		Difficulty:     difficulty,
		PriorQuestions: s.PriorQuestions(),
		Conversation:   s.Conversation(),
	}

	for attempt := 0; attempt < 2; attempt++ {
		q, err := a.call(ctx, req)
		if err != nil {
			return nil, &GenerationError{Phase: phase, Err: err}
		}
		if q.Finished || !s.isDuplicate(*q.Question) {
			return q, nil
		}
		slog.Warn("generator repeated a question", "session_id", s.ID, "attempt", attempt+1)
		req.RejectDuplicate = *q.Question
	}
	return nil, &GenerationError{Phase: phase, Err: ErrDuplicateQuestion}
}

func (a *generatorAdapter) call(ctx context.Context, req model.QuestionRequest) (*model.GeneratedQuestion, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	q, err := a.gen.NextQuestion(ctx, req)
	a.metrics.observeCall("generator", err, time.Since(start))
	if err != nil {
		return nil, err
	}
	if q == nil || (!q.Finished && q.Question == nil) {
		return nil, errors.New("generator returned no question")
	}
	return q, nil
}
