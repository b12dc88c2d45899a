package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pavelanni/interviewer/internal/model"
)

// GetTranscript reconstructs the nested session record from stored rows.
// It returns nil, nil when the session does not exist.
func (s *Store) GetTranscript(ctx context.Context, sessionID string) (*model.Transcript, error) {
	var (
		tr       model.Transcript
		finished sql.NullTime
		avg      sql.NullFloat64
		perf     sql.NullString
		reason   sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, finished_at, is_finished, total_questions, average_score, overall_performance, finish_reason
		 FROM interview_sessions WHERE id = ?`, sessionID,
	).Scan(&tr.SessionID, &tr.CreatedAt, &finished, &tr.IsFinished, &tr.TotalQuestions, &avg, &perf, &reason)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", sessionID, err)
	}
	if finished.Valid {
		t := finished.Time
		tr.FinishedAt = &t
	}
	if avg.Valid {
		tr.AverageScore = &avg.Float64
	}
	if perf.Valid {
		tr.OverallPerformance = &perf.String
	}
	if reason.Valid {
		tr.FinishReason = &reason.String
	}

	if tr.Metadata, err = s.GetMetadata(ctx, sessionID); err != nil {
		return nil, fmt.Errorf("get metadata %s: %w", sessionID, err)
	}

	questions, err := s.transcriptQuestions(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	answers, err := s.transcriptAnswers(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	evals, err := s.transcriptEvaluations(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	for i := range answers {
		a := &answers[i]
		a.answer.Evaluations = evals[a.answer.AnswerID]
		if a.answer.Evaluations == nil {
			a.answer.Evaluations = []model.TranscriptEvaluation{}
		}
	}
	byQuestion := make(map[string][]model.TranscriptAnswer)
	for _, a := range answers {
		byQuestion[a.questionID] = append(byQuestion[a.questionID], a.answer)
	}
	for i := range questions {
		questions[i].Answers = byQuestion[questions[i].QuestionID]
		if questions[i].Answers == nil {
			questions[i].Answers = []model.TranscriptAnswer{}
		}
	}
	tr.Questions = questions
	return &tr, nil
}

func (s *Store) transcriptQuestions(ctx context.Context, sessionID string) ([]model.TranscriptQuestion, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, question_text, difficulty, phase, question_order, created_at
		 FROM questions WHERE session_id = ? ORDER BY question_order, rowid`, sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()
	questions := []model.TranscriptQuestion{}
	for rows.Next() {
		var (
			q          model.TranscriptQuestion
			difficulty sql.NullString
		)
		if err := rows.Scan(&q.QuestionID, &q.QuestionText, &difficulty, &q.Phase, &q.QuestionOrder, &q.CreatedAt); err != nil {
			return nil, err
		}
		if difficulty.Valid {
			q.Difficulty = &difficulty.String
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

type storedAnswer struct {
	questionID string
	answer     model.TranscriptAnswer
}

func (s *Store) transcriptAnswers(ctx context.Context, sessionID string) ([]storedAnswer, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, question_id, answer_text, created_at
		 FROM answers WHERE session_id = ? ORDER BY rowid`, sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	defer rows.Close()
	var answers []storedAnswer
	for rows.Next() {
		var a storedAnswer
		if err := rows.Scan(&a.answer.AnswerID, &a.questionID, &a.answer.AnswerText, &a.answer.CreatedAt); err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

func (s *Store) transcriptEvaluations(ctx context.Context, sessionID string) (map[string][]model.TranscriptEvaluation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, answer_id, score, comments, detailed_report, created_at
		 FROM evaluations WHERE session_id = ? ORDER BY rowid`, sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list evaluations: %w", err)
	}
	defer rows.Close()
	evals := make(map[string][]model.TranscriptEvaluation)
	for rows.Next() {
		var (
			e        model.TranscriptEvaluation
			answerID string
			report   sql.NullString
		)
		if err := rows.Scan(&e.EvaluationID, &answerID, &e.Score, &e.Comments, &report, &e.CreatedAt); err != nil {
			return nil, err
		}
		if report.Valid && report.String != "" {
			if err := json.Unmarshal([]byte(report.String), &e.DetailedReport); err != nil {
				return nil, fmt.Errorf("decode detailed report %s: %w", e.EvaluationID, err)
			}
		}
		evals[answerID] = append(evals[answerID], e)
	}
	return evals, rows.Err()
}

// ExportAllTranscripts builds transcripts for every stored session.
func (s *Store) ExportAllTranscripts(ctx context.Context) (*model.TranscriptExport, error) {
	ids, err := s.ListSessionIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	export := &model.TranscriptExport{
		ExportedAt: time.Now().UTC(),
		Sessions:   []model.Transcript{},
	}
	for _, id := range ids {
		tr, err := s.GetTranscript(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("get transcript %s: %w", id, err)
		}
		if tr == nil {
			continue
		}
		export.Sessions = append(export.Sessions, *tr)
	}
	export.NumSessions = len(export.Sessions)
	return export, nil
}
