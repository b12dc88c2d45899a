package interview

import (
	"strings"
	"time"

	"github.com/pavelanni/interviewer/internal/model"
)

// Session is the in-memory state of one interview.
type Session struct {
	ID         string
	CreatedAt  time.Time
	FinishedAt *time.Time
	Phase      model.Phase
	Turns      []model.Turn
	Stats      model.RunningStats
	Report     *model.FinalReport
	Ledger     Ledger

	// ExtraGranted is set once the adequate band granted one more question.
	ExtraGranted bool
	FinishReason string

	scoredAsked int
}

func newSession(id string, now time.Time) *Session {
	return &Session{
		ID:        id,
		CreatedAt: now,
		Phase:     model.PhaseCreated,
	}
}

// Finished reports whether the session reached its terminal state.
func (s *Session) Finished() bool {
	return s.Phase == model.PhaseFinished
}

// OpenTurn returns the turn awaiting an answer, or nil.
func (s *Session) OpenTurn() *model.Turn {
	if len(s.Turns) == 0 {
		return nil
	}
	t := &s.Turns[len(s.Turns)-1]
	if !t.Open() {
		return nil
	}
	return t
}

// LastTurn returns the most recent turn, or nil.
func (s *Session) LastTurn() *model.Turn {
	if len(s.Turns) == 0 {
		return nil
	}
	return &s.Turns[len(s.Turns)-1]
}

// PriorQuestions returns the text of every question asked so far, excluding
// placeholders.
func (s *Session) PriorQuestions() []string {
	qs := make([]string, 0, len(s.Turns))
	for _, t := range s.Turns {
		if t.Question.Placeholder {
			continue
		}
		qs = append(qs, t.Question.Text)
	}
	return qs
}

// Conversation returns the chat history as alternating interviewer and
// candidate messages.
func (s *Session) Conversation() []model.Message {
	msgs := make([]model.Message, 0, 2*len(s.Turns))
	for _, t := range s.Turns {
		msgs = append(msgs, model.Message{Role: model.RoleInterviewer, Content: t.Question.Text})
		if t.Answer != nil {
			msgs = append(msgs, model.Message{Role: model.RoleCandidate, Content: t.Answer.Text})
		}
	}
	return msgs
}

// ScoredAnswers returns the evaluated scored turns for the report digest.
func (s *Session) ScoredAnswers() []model.ScoredAnswer {
	var out []model.ScoredAnswer
	for _, t := range s.Turns {
		if t.Evaluation == nil {
			continue
		}
		out = append(out, model.ScoredAnswer{
			Question: t.Question.Text,
			Score:    t.Evaluation.Score,
			Comments: t.Evaluation.Comments,
		})
	}
	return out
}

// isDuplicate reports whether text matches an earlier question after case
// and whitespace normalisation.
func (s *Session) isDuplicate(text string) bool {
	norm := normalizeQuestion(text)
	for _, q := range s.PriorQuestions() {
		if normalizeQuestion(q) == norm {
			return true
		}
	}
	return false
}

func normalizeQuestion(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// TranscriptOf builds the nested transcript view of an in-memory session.
// For a session whose every write was persisted it matches the transcript
// read back from the store, apart from metadata.
func TranscriptOf(s *Session) model.Transcript {
	tr := model.Transcript{
		SessionID:  s.ID,
		CreatedAt:  s.CreatedAt,
		FinishedAt: s.FinishedAt,
		IsFinished: s.Finished(),
		Questions:  make([]model.TranscriptQuestion, 0, len(s.Turns)),
	}
	if s.Finished() {
		tr.TotalQuestions = s.Stats.Count
		if avg, ok := s.Stats.Average(); ok {
			tr.AverageScore = &avg
		}
		if s.Report != nil {
			perf := s.Report.OverallPerformance
			tr.OverallPerformance = &perf
		}
		if s.FinishReason != "" {
			reason := s.FinishReason
			tr.FinishReason = &reason
		}
	}

	for _, t := range s.Turns {
		q := model.TranscriptQuestion{
			QuestionID:    t.Question.ID,
			QuestionText:  t.Question.Text,
			Phase:         t.Phase,
			QuestionOrder: t.Question.Order,
			CreatedAt:     t.Question.CreatedAt,
			Answers:       []model.TranscriptAnswer{},
		}
		if t.Question.Difficulty != "" {
			d := string(t.Question.Difficulty)
			q.Difficulty = &d
		}
		if t.Answer != nil {
			a := model.TranscriptAnswer{
				AnswerID:    t.Answer.ID,
				AnswerText:  t.Answer.Text,
				CreatedAt:   t.Answer.CreatedAt,
				Evaluations: []model.TranscriptEvaluation{},
			}
			if e := t.Evaluation; e != nil {
				a.Evaluations = append(a.Evaluations, model.TranscriptEvaluation{
					EvaluationID:   e.ID,
					Score:          e.Score,
					Comments:       e.Comments,
					DetailedReport: e.DetailedReport,
					CreatedAt:      e.CreatedAt,
				})
			}
			q.Answers = append(q.Answers, a)
		}
		tr.Questions = append(tr.Questions, q)
	}
	return tr
}
