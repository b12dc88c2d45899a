package interview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pavelanni/interviewer/internal/i18n"
	"github.com/pavelanni/interviewer/internal/model"
)

// Reader is the store surface used to serve sessions that are no longer in memory.
type Reader interface {
	SessionExists(ctx context.Context, id string) (bool, error)
	GetReport(ctx context.Context, sessionID string) (*model.FinalReport, error)
	GetTranscript(ctx context.Context, sessionID string) (*model.Transcript, error)
}

// Deps holds the collaborators of a Manager. Generator, Evaluator and
// Reporter are required; the rest are optional.
type Deps struct {
	Generator QuestionGenerator
	Evaluator Evaluator
	Reporter  ReportGenerator
	Observer  Observer
	Reader    Reader
	Metrics   *Metrics
	Now       func() time.Time
	NewID     func() string
}

// Manager drives interview sessions from creation to the final report.
type Manager struct {
	policy   Policy
	registry *Registry
	gen      *generatorAdapter
	agg      *aggregator
	reports  *reportAssembler
	observer Observer
	reader   Reader
	metrics  *Metrics
	now      func() time.Time
	newID    func() string
}

// NewManager validates cfg and wires a Manager.
func NewManager(cfg model.InterviewConfig, deps Deps) (*Manager, error) {
	if deps.Generator == nil || deps.Evaluator == nil || deps.Reporter == nil {
		return nil, errors.New("generator, evaluator and reporter are required")
	}
	if cfg.MinQuestions < 1 || cfg.MaxQuestions < cfg.MinQuestions {
		return nil, fmt.Errorf("invalid question bounds: min %d, max %d", cfg.MinQuestions, cfg.MaxQuestions)
	}
	if cfg.AdequateScore > cfg.ExcellentScore {
		return nil, fmt.Errorf("adequate score %.1f exceeds excellent score %.1f", cfg.AdequateScore, cfg.ExcellentScore)
	}

	defaults := model.DefaultInterviewConfig()
	if cfg.GenerateTimeout <= 0 {
		cfg.GenerateTimeout = defaults.GenerateTimeout
	}
	if cfg.EvaluateTimeout <= 0 {
		cfg.EvaluateTimeout = defaults.EvaluateTimeout
	}
	if cfg.ReportTimeout <= 0 {
		cfg.ReportTimeout = defaults.ReportTimeout
	}
	if cfg.PreviewLength <= 0 {
		cfg.PreviewLength = defaults.PreviewLength
	}
	if cfg.SessionCacheSize <= 0 {
		cfg.SessionCacheSize = defaults.SessionCacheSize
	}
	if cfg.Topic == "" {
		cfg.Topic = defaults.Topic
	}

	m := &Manager{
		policy:   NewPolicy(cfg),
		observer: deps.Observer,
		reader:   deps.Reader,
		metrics:  deps.Metrics,
		now:      deps.Now,
		newID:    deps.NewID,
	}
	if m.observer == nil {
		m.observer = nopObserver{}
	}
	if m.now == nil {
		m.now = func() time.Time { return time.Now().UTC() }
	}
	if m.newID == nil {
		m.newID = uuid.NewString
	}

	registry, err := NewRegistry(cfg.SessionCacheSize, func(id string) {
		slog.Info("session evicted from memory", "session_id", id)
	})
	if err != nil {
		return nil, err
	}
	m.registry = registry

	m.gen = &generatorAdapter{
		gen:     deps.Generator,
		timeout: cfg.GenerateTimeout,
		preview: cfg.PreviewLength,
		metrics: deps.Metrics,
	}
	m.agg = &aggregator{
		eval:    deps.Evaluator,
		timeout: cfg.EvaluateTimeout,
		newID:   m.newID,
		now:     m.now,
		metrics: deps.Metrics,
	}
	m.reports = &reportAssembler{
		gen:     deps.Reporter,
		timeout: cfg.ReportTimeout,
		topic:   cfg.Topic,
		now:     m.now,
		metrics: deps.Metrics,
	}
	return m, nil
}

// Start creates a session and returns its introduction message.
func (m *Manager) Start(ctx context.Context) (*View, error) {
	s := newSession(m.newID(), m.now())
	e := m.registry.add(s)
	m.metrics.setActive(m.registry.Len())

	e.mu.Lock()
	defer e.mu.Unlock()

	m.metrics.sessionStarted()
	m.observer.SessionCreated(ctx, s)
	slog.Info("session started", "session_id", s.ID)

	m.advance(ctx, s, model.PhaseIntro, "")
	return viewOf(s, m.message(s)), nil
}

// Submit records the candidate's answer to the open question and advances
// the session. It returns ErrNoActiveQuestion when nothing awaits an answer.
func (m *Manager) Submit(ctx context.Context, id, text string) (*View, error) {
	e, ok := m.registry.get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.session
	t := s.OpenTurn()
	if s.Finished() || t == nil {
		return nil, ErrNoActiveQuestion
	}

	t.Answer = &model.Answer{ID: m.newID(), Text: text, CreatedAt: m.now()}
	s.Ledger.RecordAnswer(text)
	m.metrics.answer(string(t.Phase))
	m.observer.AnswerRecorded(ctx, s, t)
	slog.Debug("answer recorded", "session_id", s.ID, "seq", t.Seq, "phase", t.Phase)

	switch t.Phase {
	case model.PhaseIntro:
		m.advance(ctx, s, model.PhaseProfile, "")
	case model.PhaseProfile:
		m.advance(ctx, s, model.PhaseScored, SelectDifficulty(s.Stats))
	case model.PhaseScored:
		m.scoreAndContinue(ctx, s, t)
	}
	return viewOf(s, m.message(s)), nil
}

// Continue returns the session view without submitting an answer.
func (m *Manager) Continue(ctx context.Context, id string) (*View, error) {
	e, ok := m.registry.get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session.Finished() {
		return viewOf(e.session, m.message(e.session)), nil
	}
	return viewOf(e.session, i18n.T(ctx, "WaitingForResponse")), nil
}

// State returns a snapshot of a live session.
func (m *Manager) State(_ context.Context, id string) (*State, error) {
	e, ok := m.registry.get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	return stateOf(e.session, m.message(e.session)), nil
}

// Report returns the final report of a finished session. Sessions no longer
// in memory are served from the store.
func (m *Manager) Report(ctx context.Context, id string) (*model.FinalReport, error) {
	if e, ok := m.registry.get(id); ok {
		e.mu.Lock()
		defer e.mu.Unlock()
		if !e.session.Finished() || e.session.Report == nil {
			return nil, ErrReportUnavailable
		}
		return e.session.Report, nil
	}

	if m.reader == nil {
		return nil, ErrSessionNotFound
	}
	report, err := m.reader.GetReport(ctx, id)
	if err != nil {
		return nil, &PersistenceError{Op: "get_report", SessionID: id, Err: err}
	}
	if report != nil {
		return report, nil
	}
	exists, err := m.reader.SessionExists(ctx, id)
	if err != nil {
		return nil, &PersistenceError{Op: "session_exists", SessionID: id, Err: err}
	}
	if exists {
		return nil, ErrReportUnavailable
	}
	return nil, ErrSessionNotFound
}

// Transcript returns the nested transcript of a session. With a store it is
// rebuilt from stored rows only; without one the in-memory session is used.
func (m *Manager) Transcript(ctx context.Context, id string) (*model.Transcript, error) {
	if m.reader == nil {
		e, ok := m.registry.get(id)
		if !ok {
			return nil, ErrSessionNotFound
		}
		e.mu.Lock()
		defer e.mu.Unlock()
		tr := TranscriptOf(e.session)
		return &tr, nil
	}

	tr, err := m.reader.GetTranscript(ctx, id)
	if err != nil {
		return nil, &PersistenceError{Op: "get_transcript", SessionID: id, Err: err}
	}
	if tr == nil {
		return nil, ErrSessionNotFound
	}
	return tr, nil
}

func (m *Manager) scoreAndContinue(ctx context.Context, s *Session, t *model.Turn) {
	if err := m.agg.score(ctx, s, t); err != nil {
		if !errors.Is(err, errPlaceholderQuestion) {
			m.metrics.failure("evaluator")
		}
		slog.Warn("evaluation failed", "session_id", s.ID, "seq", t.Seq, "error", err)
	} else {
		m.observer.EvaluationRecorded(ctx, s, t)
	}

	out := m.policy.Decide(s.Stats, s.ExtraGranted, s.scoredAsked)
	if out.Finish {
		m.finish(ctx, s, out.Reason, "")
		return
	}
	if out.GrantExtra {
		s.ExtraGranted = true
	}
	m.advance(ctx, s, model.PhaseScored, SelectDifficulty(s.Stats))
}

// advance generates the next question of phase. A scored question records the
// generator's difficulty label when it gave one and the target otherwise. A
// generation failure opens a placeholder turn so the candidate can keep going.
func (m *Manager) advance(ctx context.Context, s *Session, phase model.Phase, difficulty model.Difficulty) {
	q, err := m.gen.next(ctx, s, phase, difficulty)
	if err != nil {
		m.metrics.failure("generator")
		slog.Warn("question generation failed", "session_id", s.ID, "phase", phase, "error", err)
		m.ask(ctx, s, phase, i18n.T(ctx, "NoQuestionProvided"), difficulty, true)
		return
	}
	if q.Finished {
		var closing string
		if q.Question != nil {
			closing = *q.Question
		}
		m.finish(ctx, s, ReasonGenerator, closing)
		return
	}
	if phase == model.PhaseScored && q.Difficulty != nil {
		difficulty = *q.Difficulty
	}
	m.ask(ctx, s, phase, *q.Question, difficulty, false)
}

func (m *Manager) ask(ctx context.Context, s *Session, phase model.Phase, text string, difficulty model.Difficulty, placeholder bool) {
	seq := len(s.Turns) + 1
	s.Turns = append(s.Turns, model.Turn{
		Seq:   seq,
		Phase: phase,
		Question: model.Question{
			ID:          m.newID(),
			Text:        text,
			Difficulty:  difficulty,
			Order:       seq,
			Placeholder: placeholder,
			CreatedAt:   m.now(),
		},
	})
	s.Phase = phase
	if phase == model.PhaseScored {
		s.scoredAsked++
	}
	m.observer.QuestionAsked(ctx, s, s.LastTurn())
}

// finish closes the session, assembles its report and notifies the observer.
func (m *Manager) finish(ctx context.Context, s *Session, reason, closing string) {
	if closing == "" {
		closing = i18n.T(ctx, "InterviewClosing")
	}
	now := m.now()
	seq := len(s.Turns) + 1
	s.Turns = append(s.Turns, model.Turn{
		Seq:   seq,
		Phase: model.PhaseFinished,
		Question: model.Question{
			ID:        m.newID(),
			Text:      closing,
			Order:     seq,
			Closing:   true,
			CreatedAt: now,
		},
	})
	s.Phase = model.PhaseFinished
	s.FinishedAt = &now
	s.FinishReason = reason
	m.observer.QuestionAsked(ctx, s, s.LastTurn())

	s.Report = m.reports.assemble(ctx, s)
	m.observer.SessionFinished(ctx, s)
	m.metrics.sessionFinished(reason)

	avg, _ := s.Stats.Average()
	slog.Info("session finished",
		"session_id", s.ID,
		"reason", reason,
		"scored", s.Stats.Count,
		"average", avg,
		"fallback_report", s.Report.Fallback,
	)
}

// message is the text shown to the candidate for the current state.
func (m *Manager) message(s *Session) string {
	if t := s.LastTurn(); t != nil {
		return t.Question.Text
	}
	return ""
}
