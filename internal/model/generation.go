package model

// Role represents a chat message role in the interview conversation.
type Role string

const (
	RoleCandidate   Role = "candidate"
	RoleInterviewer Role = "interviewer"
)

// Message is one entry of the conversation handed to the generator for continuity.
type Message struct {
	Role    Role
	Content string
}

// QuestionRequest is the context payload sent to the question generator.
type QuestionRequest struct {
	Phase           Phase
	AnswerCount     int
	LastAnswer      string // preview, already truncated
	LastFeedback    string // preview, already truncated
	Difficulty      Difficulty
	PriorQuestions  []string
	Conversation    []Message
	RejectDuplicate string // non-empty when retrying after a repeated question
}

// GeneratedQuestion is the validated result of the question generator.
type GeneratedQuestion struct {
	Question   *string
	Difficulty *Difficulty
	Finished   bool
}

// EvaluationRequest is the input of the evaluation service.
type EvaluationRequest struct {
	Question string
	Answer   string
}

// ScoredAnswer pairs a scored question with its evaluation for report digests.
type ScoredAnswer struct {
	Question string
	Score    int
	Comments string
}

// ReportRequest is the input of the report generator.
type ReportRequest struct {
	SessionID string
	Answers   []string
	Stats     RunningStats
	Scored    []ScoredAnswer
}
