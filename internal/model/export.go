package model

import "time"

// Transcript is the nested session record reconstructed from stored rows.
type Transcript struct {
	SessionID          string               `json:"session_id"`
	CreatedAt          time.Time            `json:"created_at"`
	FinishedAt         *time.Time           `json:"finished_at"`
	IsFinished         bool                 `json:"is_finished"`
	TotalQuestions     int                  `json:"total_questions"`
	AverageScore       *float64             `json:"average_score"`
	OverallPerformance *string              `json:"overall_performance"`
	FinishReason       *string              `json:"finish_reason,omitempty"`
	Metadata           map[string]string    `json:"metadata,omitempty"`
	Questions          []TranscriptQuestion `json:"questions"`
}

// TranscriptQuestion holds a stored question with its answers.
type TranscriptQuestion struct {
	QuestionID    string             `json:"question_id"`
	QuestionText  string             `json:"question_text"`
	Difficulty    *string            `json:"difficulty"`
	Phase         Phase              `json:"phase"`
	QuestionOrder int                `json:"question_order"`
	CreatedAt     time.Time          `json:"created_at"`
	Answers       []TranscriptAnswer `json:"answers"`
}

// TranscriptAnswer holds a stored answer with its evaluations.
type TranscriptAnswer struct {
	AnswerID    string                 `json:"answer_id"`
	AnswerText  string                 `json:"answer_text"`
	CreatedAt   time.Time              `json:"created_at"`
	Evaluations []TranscriptEvaluation `json:"evaluations"`
}

// TranscriptEvaluation is a stored evaluation row.
type TranscriptEvaluation struct {
	EvaluationID   string         `json:"evaluation_id"`
	Score          int            `json:"score"`
	Comments       string         `json:"comments"`
	DetailedReport map[string]any `json:"detailed_report"`
	CreatedAt      time.Time      `json:"created_at"`
}

// TranscriptExport is the top-level JSON structure for exporting all sessions.
type TranscriptExport struct {
	ExportedAt  time.Time    `json:"exported_at"`
	NumSessions int          `json:"num_sessions"`
	Sessions    []Transcript `json:"sessions"`
}

// SessionInfo describes how a session was configured. It is stored as
// session metadata at creation time.
type SessionInfo struct {
	Topic        string `json:"topic"`
	Language     string `json:"language"`
	LLMProvider  string `json:"llm_provider"`
	LLMModel     string `json:"llm_model"`
	MinQuestions int    `json:"min_questions"`
	MaxQuestions int    `json:"max_questions"`
	ProbeWeak    bool   `json:"probe_weak"`
}
