package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pavelanni/interviewer/internal/model"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS interview_sessions (
		id TEXT PRIMARY KEY,
		created_at DATETIME NOT NULL,
		finished_at DATETIME,
		is_finished INTEGER NOT NULL DEFAULT 0,
		total_questions INTEGER NOT NULL DEFAULT 0,
		average_score REAL,
		overall_performance TEXT,
		finish_reason TEXT
	);

	CREATE TABLE IF NOT EXISTS questions (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		question_text TEXT NOT NULL,
		difficulty TEXT,
		phase TEXT NOT NULL,
		question_order INTEGER NOT NULL,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (session_id) REFERENCES interview_sessions(id)
	);

	CREATE TABLE IF NOT EXISTS answers (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		question_id TEXT NOT NULL,
		answer_text TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (session_id) REFERENCES interview_sessions(id),
		FOREIGN KEY (question_id) REFERENCES questions(id)
	);

	CREATE TABLE IF NOT EXISTS evaluations (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		question_id TEXT NOT NULL,
		answer_id TEXT NOT NULL,
		score INTEGER NOT NULL,
		comments TEXT NOT NULL,
		detailed_report TEXT,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (session_id) REFERENCES interview_sessions(id),
		FOREIGN KEY (question_id) REFERENCES questions(id),
		FOREIGN KEY (answer_id) REFERENCES answers(id)
	);

	CREATE TABLE IF NOT EXISTS final_reports (
		session_id TEXT PRIMARY KEY,
		report TEXT NOT NULL,
		generated_at DATETIME NOT NULL,
		FOREIGN KEY (session_id) REFERENCES interview_sessions(id)
	);

	CREATE TABLE IF NOT EXISTS session_metadata (
		session_id TEXT NOT NULL,
		key TEXT NOT NULL,
		value TEXT NOT NULL,
		PRIMARY KEY (session_id, key),
		FOREIGN KEY (session_id) REFERENCES interview_sessions(id)
	);

	CREATE INDEX IF NOT EXISTS idx_questions_session ON questions(session_id, question_order);
	CREATE INDEX IF NOT EXISTS idx_answers_session ON answers(session_id);
	CREATE INDEX IF NOT EXISTS idx_evaluations_session ON evaluations(session_id);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return s.addColumn("interview_sessions", "finish_reason", "TEXT")
}

// addColumn adds a column to a table created by an older schema.
func (s *Store) addColumn(table, column, typ string) error {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`, table, column,
	).Scan(&n)
	if err != nil {
		return fmt.Errorf("inspect %s: %w", table, err)
	}
	if n > 0 {
		return nil
	}
	_, err = s.db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, typ))
	return err
}

// CreateSession stores a new, unfinished session.
func (s *Store) CreateSession(ctx context.Context, id string, createdAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO interview_sessions (id, created_at) VALUES (?, ?)`,
		id, createdAt,
	)
	return err
}

// SessionExists reports whether a session row exists.
func (s *Store) SessionExists(ctx context.Context, id string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM interview_sessions WHERE id = ?`, id).Scan(&n)
	return n > 0, err
}

// SaveQuestion stores a question emitted in the given phase.
func (s *Store) SaveQuestion(ctx context.Context, sessionID string, phase model.Phase, q model.Question) error {
	var difficulty *string
	if q.Difficulty != "" {
		d := string(q.Difficulty)
		difficulty = &d
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO questions (id, session_id, question_text, difficulty, phase, question_order, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		q.ID, sessionID, q.Text, difficulty, phase, q.Order, q.CreatedAt,
	)
	return err
}

// SaveAnswer stores the candidate's reply to a question.
func (s *Store) SaveAnswer(ctx context.Context, sessionID, questionID string, a model.Answer) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO answers (id, session_id, question_id, answer_text, created_at) VALUES (?, ?, ?, ?, ?)`,
		a.ID, sessionID, questionID, a.Text, a.CreatedAt,
	)
	return err
}

// SaveEvaluation stores the score of an answer.
func (s *Store) SaveEvaluation(ctx context.Context, sessionID, questionID, answerID string, e model.Evaluation) error {
	var report *string
	if e.DetailedReport != nil {
		b, err := json.Marshal(e.DetailedReport)
		if err != nil {
			return fmt.Errorf("marshal detailed report: %w", err)
		}
		r := string(b)
		report = &r
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO evaluations (id, session_id, question_id, answer_id, score, comments, detailed_report, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, sessionID, questionID, answerID, e.Score, e.Comments, report, e.CreatedAt,
	)
	return err
}

// FinishSession marks a session finished and records its totals and the
// rule that ended it. A nil average means no answer was scored.
func (s *Store) FinishSession(ctx context.Context, id string, finishedAt time.Time, totalQuestions int, avg *float64, performance, reason string) error {
	var finishReason *string
	if reason != "" {
		finishReason = &reason
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE interview_sessions
		 SET is_finished = 1, finished_at = ?, total_questions = ?, average_score = ?, overall_performance = ?, finish_reason = ?
		 WHERE id = ?`,
		finishedAt, totalQuestions, avg, performance, finishReason, id,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("finish session %s: %w", id, sql.ErrNoRows)
	}
	return nil
}

// SaveReport stores the final report of a session as JSON.
func (s *Store) SaveReport(ctx context.Context, sessionID string, r *model.FinalReport) error {
	b, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO final_reports (session_id, report, generated_at) VALUES (?, ?, ?)
		 ON CONFLICT(session_id) DO UPDATE SET report = excluded.report, generated_at = excluded.generated_at`,
		sessionID, string(b), r.GeneratedAt,
	)
	return err
}

// GetReport returns the stored final report, or nil if none exists.
func (s *Store) GetReport(ctx context.Context, sessionID string) (*model.FinalReport, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT report FROM final_reports WHERE session_id = ?`, sessionID,
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var r model.FinalReport
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return nil, fmt.Errorf("decode report %s: %w", sessionID, err)
	}
	return &r, nil
}

// ListSessionIDs returns all session ids, oldest first.
func (s *Store) ListSessionIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM interview_sessions ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
