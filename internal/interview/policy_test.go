package interview

import (
	"testing"

	"github.com/pavelanni/interviewer/internal/model"
)

func statsOf(scores ...int) model.RunningStats {
	var s model.RunningStats
	for _, sc := range scores {
		s.Add(sc)
	}
	return s
}

func TestDecide(t *testing.T) {
	p := NewPolicy(model.DefaultInterviewConfig())

	tests := []struct {
		name   string
		scores []int
		extra  bool
		asked  int
		want   Outcome
	}{
		{"no scores", nil, false, 1, Outcome{}},
		{"below floor high", []int{10, 10, 10}, false, 3, Outcome{}},
		{"below floor low", []int{1, 1, 1}, false, 3, Outcome{}},
		{"excellent at floor", []int{9, 9, 9, 9}, false, 4, Outcome{Finish: true, Reason: ReasonExcellent}},
		{"exactly eight", []int{8, 8, 8, 8}, false, 4, Outcome{Finish: true, Reason: ReasonExcellent}},
		{"adequate band", []int{7, 7, 6, 7}, false, 4, Outcome{GrantExtra: true}},
		{"exactly six", []int{6, 6, 6, 6}, false, 4, Outcome{GrantExtra: true}},
		{"extra answered low", []int{7, 7, 6, 7, 1}, true, 5, Outcome{Finish: true, Reason: ReasonExtraAnswered}},
		{"extra answered high", []int{7, 7, 6, 7, 10}, true, 5, Outcome{Finish: true, Reason: ReasonExtraAnswered}},
		{"weak at floor", []int{5, 5, 5, 5}, false, 4, Outcome{Finish: true, Reason: ReasonWeak}},
		{"cap", []int{5, 5, 5, 5, 5, 5, 5}, false, 7, Outcome{Finish: true, Reason: ReasonMaxQuestions}},
		{"budget exhausted", []int{5, 5}, false, 10, Outcome{Finish: true, Reason: ReasonQuestionBudget}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.Decide(statsOf(tt.scores...), tt.extra, tt.asked)
			if got != tt.want {
				t.Errorf("Decide() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDecideProbeWeak(t *testing.T) {
	cfg := model.DefaultInterviewConfig()
	cfg.ProbeWeak = true
	p := NewPolicy(cfg)

	for n := 4; n < 7; n++ {
		scores := make([]int, n)
		for i := range scores {
			scores[i] = 5
		}
		if got := p.Decide(statsOf(scores...), false, n); got.Finish || got.GrantExtra {
			t.Errorf("n=%d: Decide() = %+v, want continue", n, got)
		}
	}

	got := p.Decide(statsOf(5, 5, 5, 5, 5, 5, 5), false, 7)
	if !got.Finish || got.Reason != ReasonMaxQuestions {
		t.Errorf("n=7: Decide() = %+v, want finish at cap", got)
	}

	if got := p.Decide(statsOf(9, 9, 9, 9), false, 4); !got.Finish {
		t.Error("probe-weak must not delay an excellent finish")
	}
}

func TestDecideCustomThresholds(t *testing.T) {
	p := Policy{MinQuestions: 2, MaxQuestions: 3, ExcellentScore: 9, AdequateScore: 5}

	if got := p.Decide(statsOf(8, 8), false, 2); !got.GrantExtra {
		t.Errorf("Decide() = %+v, want extra question", got)
	}
	if got := p.Decide(statsOf(8, 8, 8), false, 3); got.Reason != ReasonMaxQuestions {
		t.Errorf("Decide() = %+v, want cap", got)
	}
}

func TestSelectDifficulty(t *testing.T) {
	tests := []struct {
		name   string
		scores []int
		want   model.Difficulty
	}{
		{"no average", nil, model.DifficultyMedium},
		{"low", []int{1, 3}, model.DifficultyEasy},
		{"just below four", []int{3, 4, 4}, model.DifficultyEasy},
		{"four", []int{4}, model.DifficultyMedium},
		{"mid", []int{5, 7}, model.DifficultyMedium},
		{"just below seven", []int{7, 7, 6}, model.DifficultyMedium},
		{"seven", []int{7}, model.DifficultyHard},
		{"high", []int{9, 10}, model.DifficultyHard},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SelectDifficulty(statsOf(tt.scores...)); got != tt.want {
				t.Errorf("SelectDifficulty() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRunningStatsAverage(t *testing.T) {
	var s model.RunningStats
	if _, ok := s.Average(); ok {
		t.Error("average of empty stats should be undefined")
	}
	s.Add(6)
	s.Add(9)
	s.Add(3)
	avg, ok := s.Average()
	if !ok || avg != 6 {
		t.Errorf("Average() = %v, %v; want 6, true", avg, ok)
	}
	if s.Min != 3 || s.Max != 9 || s.Cumulative != 18 {
		t.Errorf("unexpected stats: %+v", s)
	}
}
