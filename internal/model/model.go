package model

import (
	"time"
)

// Phase represents the stage of an interview session.
type Phase string

const (
	PhaseCreated  Phase = "created"
	PhaseIntro    Phase = "intro"
	PhaseProfile  Phase = "candidate_profile"
	PhaseScored   Phase = "scored_qa"
	PhaseFinished Phase = "finished"
)

// Scored reports whether answers given in this phase are evaluated and counted.
func (p Phase) Scored() bool {
	return p == PhaseScored
}

// Difficulty represents question difficulty level.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// ParseDifficulty returns the difficulty for s, or false if s is not a known level.
func ParseDifficulty(s string) (Difficulty, bool) {
	switch Difficulty(s) {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return Difficulty(s), true
	}
	return "", false
}

// Question is a message emitted by the interviewer for one turn.
type Question struct {
	ID         string     `json:"id"`
	Text       string     `json:"text"`
	Difficulty Difficulty `json:"difficulty,omitempty"`
	Order      int        `json:"order"`
	// Placeholder is set when the generator failed and Text is a stand-in.
	Placeholder bool `json:"placeholder,omitempty"`
	// Closing marks the final message of a finished session.
	Closing   bool      `json:"closing,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Answer is the candidate's reply to a question, stored verbatim.
type Answer struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Evaluation holds the score and commentary for a single answer.
type Evaluation struct {
	ID             string         `json:"id"`
	Score          int            `json:"score"`
	Comments       string         `json:"comments"`
	DetailedReport map[string]any `json:"detailed_report,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

// Turn is one question/answer/evaluation unit within a session.
type Turn struct {
	Seq        int         `json:"seq"`
	Phase      Phase       `json:"phase"`
	Question   Question    `json:"question"`
	Answer     *Answer     `json:"answer,omitempty"`
	Evaluation *Evaluation `json:"evaluation,omitempty"`
	Feedback   string      `json:"feedback,omitempty"`
}

// Open reports whether the turn still awaits an answer.
func (t *Turn) Open() bool {
	return t.Answer == nil && !t.Question.Closing
}

// RunningStats aggregates scored-turn results.
type RunningStats struct {
	Count      int `json:"count"`
	Cumulative int `json:"cumulative"`
	Min        int `json:"min"`
	Max        int `json:"max"`
}

// Add folds a score into the statistics.
func (s *RunningStats) Add(score int) {
	if s.Count == 0 || score < s.Min {
		s.Min = score
	}
	if s.Count == 0 || score > s.Max {
		s.Max = score
	}
	s.Count++
	s.Cumulative += score
}

// Average returns cumulative/count. ok is false when no score has been recorded.
func (s RunningStats) Average() (avg float64, ok bool) {
	if s.Count == 0 {
		return 0, false
	}
	return float64(s.Cumulative) / float64(s.Count), true
}

// Analysis field names of FinalReport.DetailedAnalysis.
const (
	AnalysisInterviewFlow              = "interview_flow"
	AnalysisPerformanceConsistency     = "performance_consistency"
	AnalysisKnowledgeDepth             = "knowledge_depth"
	AnalysisPracticalApplication       = "practical_application"
	AnalysisCommunicationEffectiveness = "communication_effectiveness"
	AnalysisRoleRelevance              = "role_relevance"
)

// AnalysisFields lists the fixed DetailedAnalysis keys in display order.
var AnalysisFields = []string{
	AnalysisInterviewFlow,
	AnalysisPerformanceConsistency,
	AnalysisKnowledgeDepth,
	AnalysisPracticalApplication,
	AnalysisCommunicationEffectiveness,
	AnalysisRoleRelevance,
}

// FinalReport is the summary produced once per finished session.
type FinalReport struct {
	SessionID           string            `json:"session_id"`
	TotalQuestions      int               `json:"total_questions"`
	AverageScore        float64           `json:"average_score"`
	OverallPerformance  string            `json:"overall_performance"`
	ConversationSummary string            `json:"conversation_summary"`
	DetailedAnalysis    map[string]string `json:"detailed_analysis"`
	Strengths           []string          `json:"strengths"`
	AreasForImprovement []string          `json:"areas_for_improvement"`
	Recommendations     []string          `json:"recommendations"`
	GeneratedAt         time.Time         `json:"generated_at"`
	Fallback            bool              `json:"fallback,omitempty"`
	// FinishReason names the rule that ended the session, e.g. "question_budget".
	FinishReason string `json:"finish_reason,omitempty"`
}

// InterviewConfig holds runtime interview parameters set via CLI flags.
type InterviewConfig struct {
	MinQuestions     int     // never terminate before this many scored answers
	MaxQuestions     int     // hard cap on scored answers
	ExcellentScore   float64 // average at or above ends the interview
	AdequateScore    float64 // average at or above (and below excellent) grants one more question
	ProbeWeak        bool    // keep asking weak candidates until MaxQuestions
	PreviewLength    int     // rune limit for answer/feedback previews in generator context
	GenerateTimeout  time.Duration
	EvaluateTimeout  time.Duration
	ReportTimeout    time.Duration
	SessionCacheSize int
	BasePath         string // URL prefix for sub-path deployments
	Language         string
	Topic            string // subject area the interviewer asks about
	LLMProvider      string
	LLMModel         string
}

// DefaultInterviewConfig returns the standard interview policy.
func DefaultInterviewConfig() InterviewConfig {
	return InterviewConfig{
		MinQuestions:     4,
		MaxQuestions:     7,
		ExcellentScore:   8,
		AdequateScore:    6,
		PreviewLength:    100,
		GenerateTimeout:  60 * time.Second,
		EvaluateTimeout:  60 * time.Second,
		ReportTimeout:    120 * time.Second,
		SessionCacheSize: 1024,
		Language:         "en",
		Topic:            "Microsoft Excel",
	}
}
