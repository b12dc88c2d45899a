package interview

// Ledger is the append-only record of candidate answers and the feedback
// given on them, in submission order.
type Ledger struct {
	answers  []string
	feedback []string
}

// RecordAnswer appends a verbatim answer.
func (l *Ledger) RecordAnswer(text string) {
	l.answers = append(l.answers, text)
}

// RecordFeedback appends feedback for the most recent scored answer.
func (l *Ledger) RecordFeedback(text string) {
	l.feedback = append(l.feedback, text)
}

// Answers returns a copy of all answers.
func (l *Ledger) Answers() []string {
	return append([]string(nil), l.answers...)
}

// AnswerCount returns the number of recorded answers.
func (l *Ledger) AnswerCount() int { return len(l.answers) }

// FeedbackCount returns the number of recorded feedback entries.
func (l *Ledger) FeedbackCount() int { return len(l.feedback) }

// LastAnswer returns the most recent answer, or "".
func (l *Ledger) LastAnswer() string {
	if len(l.answers) == 0 {
		return ""
	}
	return l.answers[len(l.answers)-1]
}

// LastFeedback returns the most recent feedback, or "".
func (l *Ledger) LastFeedback() string {
	if len(l.feedback) == 0 {
		return ""
	}
	return l.feedback[len(l.feedback)-1]
}
