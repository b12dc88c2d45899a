package interview

import "github.com/pavelanni/interviewer/internal/model"

// Finish reasons, also used as metric label values.
const (
	ReasonExcellent      = "excellent"
	ReasonWeak           = "weak"
	ReasonExtraAnswered  = "extra_answered"
	ReasonMaxQuestions   = "max_questions"
	ReasonQuestionBudget = "question_budget"
	ReasonGenerator      = "generator"
)

// budgetSlack bounds how many scored-phase questions may be asked beyond
// MaxQuestions when evaluations keep failing and the scored count stalls.
const budgetSlack = 3

// Policy decides termination and difficulty from the running statistics.
type Policy struct {
	MinQuestions   int
	MaxQuestions   int
	ExcellentScore float64
	AdequateScore  float64
	ProbeWeak      bool
}

// NewPolicy builds a Policy from the interview configuration.
func NewPolicy(cfg model.InterviewConfig) Policy {
	return Policy{
		MinQuestions:   cfg.MinQuestions,
		MaxQuestions:   cfg.MaxQuestions,
		ExcellentScore: cfg.ExcellentScore,
		AdequateScore:  cfg.AdequateScore,
		ProbeWeak:      cfg.ProbeWeak,
	}
}

// Outcome is the result of one policy evaluation.
type Outcome struct {
	Finish     bool
	Reason     string
	GrantExtra bool
}

// Decide is applied once per answered scored turn. extraGranted reports
// whether an earlier decision already granted the one extra question, and
// asked is the number of scored-phase questions asked so far.
func (p Policy) Decide(stats model.RunningStats, extraGranted bool, asked int) Outcome {
	n := stats.Count
	switch {
	case n >= p.MaxQuestions:
		return Outcome{Finish: true, Reason: ReasonMaxQuestions}
	case extraGranted:
		return Outcome{Finish: true, Reason: ReasonExtraAnswered}
	case asked >= p.MaxQuestions+budgetSlack:
		return Outcome{Finish: true, Reason: ReasonQuestionBudget}
	case n < p.MinQuestions:
		return Outcome{}
	}

	avg, _ := stats.Average()
	switch {
	case avg >= p.ExcellentScore:
		return Outcome{Finish: true, Reason: ReasonExcellent}
	case avg >= p.AdequateScore:
		return Outcome{GrantExtra: true}
	case p.ProbeWeak:
		return Outcome{}
	default:
		return Outcome{Finish: true, Reason: ReasonWeak}
	}
}

// SelectDifficulty returns the target difficulty for the next scored question.
func SelectDifficulty(stats model.RunningStats) model.Difficulty {
	avg, ok := stats.Average()
	switch {
	case !ok:
		return model.DifficultyMedium
	case avg < 4:
		return model.DifficultyEasy
	case avg < 7:
		return model.DifficultyMedium
	default:
		return model.DifficultyHard
	}
}
