package interview

import "github.com/pavelanni/interviewer/internal/model"

// HistoryEntry is one message of the conversation view returned to clients.
type HistoryEntry struct {
	Type    string `json:"type"` // "question" or "answer"
	Content string `json:"content"`
}

// View is the result of creating or advancing a session.
type View struct {
	SessionID           string         `json:"session_id"`
	Message             string         `json:"message"`
	Finished            bool           `json:"finished"`
	ConversationHistory []HistoryEntry `json:"conversation_history"`
}

// DebugInfo carries ledger counters for diagnostics.
type DebugInfo struct {
	TotalAnswers   int `json:"total_answers"`
	TotalFeedback  int `json:"total_feedback"`
	TotalQuestions int `json:"total_questions"`
}

// State is a snapshot of a session for inspection.
type State struct {
	View
	Phase        model.Phase        `json:"phase"`
	Difficulty   model.Difficulty   `json:"difficulty,omitempty"`
	Stats        model.RunningStats `json:"stats"`
	AverageScore *float64           `json:"average_score"`
	FinishReason string             `json:"finish_reason,omitempty"`
	DebugInfo    DebugInfo          `json:"debug_info"`
}

func history(s *Session) []HistoryEntry {
	h := make([]HistoryEntry, 0, 2*len(s.Turns))
	for _, m := range s.Conversation() {
		typ := "question"
		if m.Role == model.RoleCandidate {
			typ = "answer"
		}
		h = append(h, HistoryEntry{Type: typ, Content: m.Content})
	}
	return h
}

func viewOf(s *Session, message string) *View {
	return &View{
		SessionID:           s.ID,
		Message:             message,
		Finished:            s.Finished(),
		ConversationHistory: history(s),
	}
}

func stateOf(s *Session, message string) *State {
	st := &State{
		View:         *viewOf(s, message),
		Phase:        s.Phase,
		Stats:        s.Stats,
		FinishReason: s.FinishReason,
		DebugInfo: DebugInfo{
			TotalAnswers:   s.Ledger.AnswerCount(),
			TotalFeedback:  s.Ledger.FeedbackCount(),
			TotalQuestions: len(s.Turns),
		},
	}
	if avg, ok := s.Stats.Average(); ok {
		st.AverageScore = &avg
	}
	if t := s.LastTurn(); t != nil {
		st.Difficulty = t.Question.Difficulty
	}
	return st
}
