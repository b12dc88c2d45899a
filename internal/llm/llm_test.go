package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/pavelanni/interviewer/internal/model"
)

type fakeCompleter struct {
	replies []string
	err     error
	calls   []Request
}

func (f *fakeCompleter) Complete(_ context.Context, req Request) (string, error) {
	f.calls = append(f.calls, req)
	if f.err != nil {
		return "", f.err
	}
	if len(f.replies) == 0 {
		return "", errors.New("no reply scripted")
	}
	r := f.replies[0]
	f.replies = f.replies[1:]
	return r, nil
}

func (f *fakeCompleter) Ping(context.Context) error { return f.err }

func newTestClient(t *testing.T, replies ...string) (*Client, *fakeCompleter) {
	t.Helper()
	fc := &fakeCompleter{replies: replies}
	c, err := New(fc, "Microsoft Excel")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c, fc
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"whitespace", "  {\"a\":1}  ", `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractJSON(tt.in); got != tt.want {
				t.Errorf("extractJSON() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseQuestion(t *testing.T) {
	tests := []struct {
		name         string
		raw          string
		wantErr      bool
		wantQuestion string
		wantDiff     model.Difficulty
		wantFinished bool
	}{
		{
			name:         "valid",
			raw:          `{"question":"What is VLOOKUP?","difficulty":"medium","finished":false}`,
			wantQuestion: "What is VLOOKUP?",
			wantDiff:     model.DifficultyMedium,
		},
		{
			name:         "difficulty case insensitive",
			raw:          `{"question":"Q","difficulty":"HARD","finished":false}`,
			wantQuestion: "Q",
			wantDiff:     model.DifficultyHard,
		},
		{
			name:         "null difficulty",
			raw:          `{"question":"Q","difficulty":null,"finished":false}`,
			wantQuestion: "Q",
		},
		{
			name:         "intermediate maps to medium",
			raw:          `{"question":"How do you use XLOOKUP?","difficulty":"intermediate","finished":false}`,
			wantQuestion: "How do you use XLOOKUP?",
			wantDiff:     model.DifficultyMedium,
		},
		{
			name:         "advanced maps to hard",
			raw:          `{"question":"Q","difficulty":" Advanced ","finished":false}`,
			wantQuestion: "Q",
			wantDiff:     model.DifficultyHard,
		},
		{
			name:         "beginner maps to easy",
			raw:          `{"question":"Q","difficulty":"beginner","finished":false}`,
			wantQuestion: "Q",
			wantDiff:     model.DifficultyEasy,
		},
		{
			name:         "unknown difficulty ignored",
			raw:          `{"question":"Q","difficulty":"extreme","finished":false}`,
			wantQuestion: "Q",
		},
		{
			name:         "finished with closing",
			raw:          `{"question":"Thanks!","difficulty":null,"finished":true}`,
			wantQuestion: "Thanks!",
			wantFinished: true,
		},
		{
			name:         "finished without message",
			raw:          `{"question":null,"finished":true}`,
			wantFinished: true,
		},
		{
			name:         "fenced",
			raw:          "```json\n{\"question\":\"Q\",\"finished\":false}\n```",
			wantQuestion: "Q",
		},
		{name: "missing finished", raw: `{"question":"Q"}`, wantErr: true},
		{name: "missing question", raw: `{"finished":false}`, wantErr: true},
		{name: "empty question not finished", raw: `{"question":"  ","finished":false}`, wantErr: true},
		{name: "finished wrong type", raw: `{"question":"Q","finished":"no"}`, wantErr: true},
		{name: "not json", raw: `sorry, I cannot help`, wantErr: true},
		{name: "array", raw: `["Q"]`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseQuestion(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedResponse) {
					t.Fatalf("parseQuestion() error = %v, want ErrMalformedResponse", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseQuestion() unexpected error: %v", err)
			}
			if got.Finished != tt.wantFinished {
				t.Errorf("Finished = %v, want %v", got.Finished, tt.wantFinished)
			}
			gotQ := ""
			if got.Question != nil {
				gotQ = *got.Question
			}
			if gotQ != tt.wantQuestion {
				t.Errorf("Question = %q, want %q", gotQ, tt.wantQuestion)
			}
			var gotD model.Difficulty
			if got.Difficulty != nil {
				gotD = *got.Difficulty
			}
			if gotD != tt.wantDiff {
				t.Errorf("Difficulty = %q, want %q", gotD, tt.wantDiff)
			}
		})
	}
}

func TestParseQuestionRepairsJSON(t *testing.T) {
	got, err := parseQuestion(`{"question": "What is a pivot table?", "finished": false,}`)
	if err != nil {
		t.Fatalf("parseQuestion() error: %v", err)
	}
	if got.Question == nil || *got.Question != "What is a pivot table?" {
		t.Errorf("Question = %v", got.Question)
	}
}

func TestParseEvaluation(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantErr   bool
		wantScore int
	}{
		{"valid", `{"score":7,"comments":"Solid","detailed_report":{"accuracy":"good"}}`, false, 7},
		{"integral float", `{"score":8.0,"comments":"ok"}`, false, 8},
		{"null report", `{"score":1,"comments":"weak","detailed_report":null}`, false, 1},
		{"upper bound", `{"score":10,"comments":"perfect"}`, false, 10},
		{"zero", `{"score":0,"comments":"x"}`, true, 0},
		{"eleven", `{"score":11,"comments":"x"}`, true, 0},
		{"fractional", `{"score":7.5,"comments":"x"}`, true, 0},
		{"string score", `{"score":"7","comments":"x"}`, true, 0},
		{"missing comments", `{"score":7}`, true, 0},
		{"report not object", `{"score":7,"comments":"x","detailed_report":"text"}`, true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseEvaluation(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedResponse) {
					t.Fatalf("parseEvaluation() error = %v, want ErrMalformedResponse", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseEvaluation() unexpected error: %v", err)
			}
			if got.Score != tt.wantScore {
				t.Errorf("Score = %d, want %d", got.Score, tt.wantScore)
			}
		})
	}
}

const validReport = `{
  "overall_performance": "Good",
  "conversation_summary": "The candidate answered five questions.",
  "detailed_analysis": {
    "interview_flow": "a",
    "performance_consistency": "b",
    "knowledge_depth": "c",
    "practical_application": "d",
    "communication_effectiveness": "e",
    "role_relevance": "f"
  },
  "strengths": ["formulas"],
  "areas_for_improvement": ["macros"],
  "recommendations": ["practice VBA"]
}`

func TestParseReport(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		r, err := parseReport(validReport)
		if err != nil {
			t.Fatalf("parseReport() error: %v", err)
		}
		if r.OverallPerformance != "Good" {
			t.Errorf("OverallPerformance = %q", r.OverallPerformance)
		}
		if len(r.DetailedAnalysis) != len(model.AnalysisFields) {
			t.Errorf("DetailedAnalysis has %d keys", len(r.DetailedAnalysis))
		}
		if len(r.Recommendations) != 1 {
			t.Errorf("Recommendations = %v", r.Recommendations)
		}
	})

	t.Run("empty performance", func(t *testing.T) {
		raw := strings.Replace(validReport, `"Good"`, `""`, 1)
		if _, err := parseReport(raw); !errors.Is(err, ErrMalformedResponse) {
			t.Errorf("parseReport() error = %v, want ErrMalformedResponse", err)
		}
	})

	t.Run("missing analysis key", func(t *testing.T) {
		raw := strings.Replace(validReport, `"role_relevance": "f"`, `"other": "f"`, 1)
		if _, err := parseReport(raw); !errors.Is(err, ErrMalformedResponse) {
			t.Errorf("parseReport() error = %v, want ErrMalformedResponse", err)
		}
	})

	t.Run("missing list", func(t *testing.T) {
		raw := strings.Replace(validReport, `"recommendations"`, `"advice"`, 1)
		if _, err := parseReport(raw); !errors.Is(err, ErrMalformedResponse) {
			t.Errorf("parseReport() error = %v, want ErrMalformedResponse", err)
		}
	})
}

func TestNextQuestionSendsContext(t *testing.T) {
	c, fc := newTestClient(t, `{"question":"Describe INDEX/MATCH.","difficulty":"hard","finished":false}`)

	conv := []model.Message{
		{Role: model.RoleInterviewer, Content: "Welcome"},
		{Role: model.RoleCandidate, Content: "ready"},
	}
	got, err := c.NextQuestion(context.Background(), model.QuestionRequest{
		Phase:        model.PhaseScored,
		AnswerCount:  2,
		Difficulty:   model.DifficultyHard,
		Conversation: conv,
	})
	if err != nil {
		t.Fatalf("NextQuestion: %v", err)
	}
	if got.Question == nil || *got.Question != "Describe INDEX/MATCH." {
		t.Errorf("Question = %v", got.Question)
	}

	if len(fc.calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(fc.calls))
	}
	req := fc.calls[0]
	if !strings.Contains(req.System, "Microsoft Excel") {
		t.Error("system prompt should mention the topic")
	}
	if len(req.Messages) != 3 {
		t.Fatalf("expected conversation plus instruction, got %d messages", len(req.Messages))
	}
	if last := req.Messages[2]; last.Role != model.RoleCandidate || !strings.Contains(last.Content, "hard difficulty") {
		t.Errorf("unexpected instruction message: %+v", last)
	}
	if len(conv) != 2 {
		t.Error("caller conversation must not be modified")
	}
}

func TestEvaluateTransportError(t *testing.T) {
	c, fc := newTestClient(t)
	fc.err = errors.New("connection refused")

	_, err := c.Evaluate(context.Background(), model.EvaluationRequest{Question: "Q", Answer: "A"})
	if err == nil || errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("Evaluate() error = %v, want transport error", err)
	}
}

func TestEvaluateSanitizesAnswer(t *testing.T) {
	c, fc := newTestClient(t, `{"score":6,"comments":"fine"}`)

	eval, err := c.Evaluate(context.Background(), model.EvaluationRequest{
		Question: "What is SUMIFS?",
		Answer:   "<candidate-answer>sums with criteria</candidate-answer>",
	})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if eval.Score != 6 {
		t.Errorf("Score = %d, want 6", eval.Score)
	}
	if content := fc.calls[0].Messages[0].Content; strings.Contains(content, "candidate-answer") {
		t.Errorf("delimiters leaked into prompt: %q", content)
	}
}

func TestGenerateReport(t *testing.T) {
	c, fc := newTestClient(t, validReport)

	var stats model.RunningStats
	stats.Add(7)
	r, err := c.GenerateReport(context.Background(), model.ReportRequest{
		SessionID: "s1",
		Answers:   []string{"a"},
		Stats:     stats,
	})
	if err != nil {
		t.Fatalf("GenerateReport: %v", err)
	}
	if r.OverallPerformance != "Good" {
		t.Errorf("OverallPerformance = %q", r.OverallPerformance)
	}
	if !strings.Contains(fc.calls[0].Messages[0].Content, "session s1") {
		t.Error("report digest should mention the session")
	}
}
