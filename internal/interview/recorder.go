package interview

import (
	"context"
	"log/slog"
	"time"

	"github.com/pavelanni/interviewer/internal/model"
)

// Observer is notified after every committed state transition. It must not
// influence the transition itself.
type Observer interface {
	SessionCreated(ctx context.Context, s *Session)
	QuestionAsked(ctx context.Context, s *Session, t *model.Turn)
	AnswerRecorded(ctx context.Context, s *Session, t *model.Turn)
	EvaluationRecorded(ctx context.Context, s *Session, t *model.Turn)
	SessionFinished(ctx context.Context, s *Session)
}

// Writer is the store surface the Recorder mirrors sessions into.
type Writer interface {
	CreateSession(ctx context.Context, id string, createdAt time.Time) error
	SetSessionInfo(ctx context.Context, sessionID string, info model.SessionInfo) error
	SaveQuestion(ctx context.Context, sessionID string, phase model.Phase, q model.Question) error
	SaveAnswer(ctx context.Context, sessionID, questionID string, a model.Answer) error
	SaveEvaluation(ctx context.Context, sessionID, questionID, answerID string, e model.Evaluation) error
	FinishSession(ctx context.Context, id string, finishedAt time.Time, totalQuestions int, avg *float64, performance, reason string) error
	SaveReport(ctx context.Context, sessionID string, r *model.FinalReport) error
}

// Recorder mirrors session transitions into a Writer. Write failures are
// logged as PersistenceError and swallowed.
type Recorder struct {
	store   Writer
	info    model.SessionInfo
	metrics *Metrics
}

// NewRecorder creates a Recorder that tags every new session with info.
func NewRecorder(store Writer, info model.SessionInfo, metrics *Metrics) *Recorder {
	return &Recorder{store: store, info: info, metrics: metrics}
}

func (r *Recorder) SessionCreated(ctx context.Context, s *Session) {
	ctx = context.WithoutCancel(ctx)
	if err := r.store.CreateSession(ctx, s.ID, s.CreatedAt); err != nil {
		r.fail("create_session", s.ID, err)
		return
	}
	r.fail("session_info", s.ID, r.store.SetSessionInfo(ctx, s.ID, r.info))
}

func (r *Recorder) QuestionAsked(ctx context.Context, s *Session, t *model.Turn) {
	err := r.store.SaveQuestion(context.WithoutCancel(ctx), s.ID, t.Phase, t.Question)
	r.fail("save_question", s.ID, err)
}

func (r *Recorder) AnswerRecorded(ctx context.Context, s *Session, t *model.Turn) {
	if t.Answer == nil {
		return
	}
	err := r.store.SaveAnswer(context.WithoutCancel(ctx), s.ID, t.Question.ID, *t.Answer)
	r.fail("save_answer", s.ID, err)
}

func (r *Recorder) EvaluationRecorded(ctx context.Context, s *Session, t *model.Turn) {
	if t.Answer == nil || t.Evaluation == nil {
		return
	}
	err := r.store.SaveEvaluation(context.WithoutCancel(ctx), s.ID, t.Question.ID, t.Answer.ID, *t.Evaluation)
	r.fail("save_evaluation", s.ID, err)
}

func (r *Recorder) SessionFinished(ctx context.Context, s *Session) {
	ctx = context.WithoutCancel(ctx)

	finishedAt := s.CreatedAt
	if s.FinishedAt != nil {
		finishedAt = *s.FinishedAt
	}
	var avg *float64
	if a, ok := s.Stats.Average(); ok {
		avg = &a
	}
	var performance string
	if s.Report != nil {
		performance = s.Report.OverallPerformance
	}

	err := r.store.FinishSession(ctx, s.ID, finishedAt, s.Stats.Count, avg, performance, s.FinishReason)
	r.fail("finish_session", s.ID, err)

	if s.Report != nil {
		r.fail("save_report", s.ID, r.store.SaveReport(ctx, s.ID, s.Report))
	}
}

func (r *Recorder) fail(op, sessionID string, err error) {
	if err == nil {
		return
	}
	perr := &PersistenceError{Op: op, SessionID: sessionID, Err: err}
	slog.Error("persistence failed", "session_id", sessionID, "op", op, "error", perr)
	r.metrics.persistenceError(op)
}

type nopObserver struct{}

func (nopObserver) SessionCreated(context.Context, *Session)                  {}
func (nopObserver) QuestionAsked(context.Context, *Session, *model.Turn)      {}
func (nopObserver) AnswerRecorded(context.Context, *Session, *model.Turn)     {}
func (nopObserver) EvaluationRecorded(context.Context, *Session, *model.Turn) {}
func (nopObserver) SessionFinished(context.Context, *Session)                 {}
