package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pavelanni/interviewer/internal/llm/prompts"
	"github.com/pavelanni/interviewer/internal/model"
)

// ErrMalformedResponse is returned when a reply does not satisfy the expected contract.
var ErrMalformedResponse = errors.New("malformed LLM response")

// Client implements the question generator, evaluation service and report
// generator on top of a Completer.
type Client struct {
	completer   Completer
	interviewer string
	evaluator   string
	reporter    string
}

// New creates a Client whose prompts target the given interview topic.
func New(completer Completer, topic string) (*Client, error) {
	interviewer, err := prompts.InterviewerSystem(topic)
	if err != nil {
		return nil, err
	}
	evaluator, err := prompts.EvaluatorSystem(topic)
	if err != nil {
		return nil, err
	}
	reporter, err := prompts.ReportSystem(topic)
	if err != nil {
		return nil, err
	}
	return &Client{
		completer:   completer,
		interviewer: interviewer,
		evaluator:   evaluator,
		reporter:    reporter,
	}, nil
}

// Ping verifies that the backing endpoint is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.completer.Ping(ctx)
}

// NextQuestion asks the interviewer for the next message of the conversation.
func (c *Client) NextQuestion(ctx context.Context, req model.QuestionRequest) (*model.GeneratedQuestion, error) {
	instruction, err := prompts.BuildQuestionContext(req)
	if err != nil {
		return nil, err
	}

	messages := make([]model.Message, 0, len(req.Conversation)+1)
	messages = append(messages, req.Conversation...)
	messages = append(messages, model.Message{Role: model.RoleCandidate, Content: instruction})

	raw, err := c.completer.Complete(ctx, Request{
		System:      c.interviewer,
		Messages:    messages,
		Temperature: 0.7,
	})
	if err != nil {
		return nil, err
	}
	return parseQuestion(raw)
}

// Evaluate scores one answer to one question.
func (c *Client) Evaluate(ctx context.Context, req model.EvaluationRequest) (*model.Evaluation, error) {
	raw, err := c.completer.Complete(ctx, Request{
		System: c.evaluator,
		Messages: []model.Message{
			{Role: model.RoleCandidate, Content: prompts.BuildEvaluationInput(req)},
		},
		Temperature: 0.3,
	})
	if err != nil {
		return nil, err
	}
	return parseEvaluation(raw)
}

// GenerateReport produces the narrative final report from the session digests.
func (c *Client) GenerateReport(ctx context.Context, req model.ReportRequest) (*model.FinalReport, error) {
	digest, err := prompts.BuildReportContext(req)
	if err != nil {
		return nil, err
	}

	raw, err := c.completer.Complete(ctx, Request{
		System: c.reporter,
		Messages: []model.Message{
			{Role: model.RoleCandidate, Content: digest},
		},
		Temperature: 0.1,
	})
	if err != nil {
		return nil, err
	}
	return parseReport(raw)
}

func parseQuestion(raw string) (*model.GeneratedQuestion, error) {
	obj, _, err := decodeObject(raw)
	if err != nil {
		return nil, err
	}

	var result model.GeneratedQuestion
	if err := requireField(obj, "finished", &result.Finished); err != nil {
		return nil, err
	}

	var question *string
	if err := nullableField(obj, "question", &question); err != nil {
		return nil, err
	}
	if question != nil && strings.TrimSpace(*question) != "" {
		text := strings.TrimSpace(*question)
		result.Question = &text
	}
	if result.Question == nil && !result.Finished {
		return nil, fmt.Errorf("%w: question is empty but finished is false", ErrMalformedResponse)
	}

	var difficulty *string
	if err := optionalField(obj, "difficulty", &difficulty); err != nil {
		return nil, err
	}
	if difficulty != nil {
		if d, ok := difficultyLabel(*difficulty); ok {
			result.Difficulty = &d
		}
	}

	return &result, nil
}

// difficultyAliases maps labels models commonly use instead of the three levels.
var difficultyAliases = map[string]model.Difficulty{
	"basic":        model.DifficultyEasy,
	"beginner":     model.DifficultyEasy,
	"simple":       model.DifficultyEasy,
	"intermediate": model.DifficultyMedium,
	"moderate":     model.DifficultyMedium,
	"normal":       model.DifficultyMedium,
	"advanced":     model.DifficultyHard,
	"difficult":    model.DifficultyHard,
	"expert":       model.DifficultyHard,
}

// difficultyLabel normalizes a generator's difficulty label. Labels it cannot
// place are reported as absent so the caller keeps its own target.
func difficultyLabel(label string) (model.Difficulty, bool) {
	label = strings.ToLower(strings.TrimSpace(label))
	if d, ok := model.ParseDifficulty(label); ok {
		return d, true
	}
	d, ok := difficultyAliases[label]
	return d, ok
}

func parseEvaluation(raw string) (*model.Evaluation, error) {
	obj, _, err := decodeObject(raw)
	if err != nil {
		return nil, err
	}

	var eval model.Evaluation
	if err := requireField(obj, "score", &eval.Score); err != nil {
		return nil, err
	}
	if eval.Score < 1 || eval.Score > 10 {
		return nil, fmt.Errorf("%w: score %d out of range [1,10]", ErrMalformedResponse, eval.Score)
	}
	if err := requireField(obj, "comments", &eval.Comments); err != nil {
		return nil, err
	}
	if err := optionalField(obj, "detailed_report", &eval.DetailedReport); err != nil {
		return nil, err
	}
	return &eval, nil
}

type reportPayload struct {
	OverallPerformance  string            `json:"overall_performance"`
	ConversationSummary string            `json:"conversation_summary"`
	DetailedAnalysis    map[string]string `json:"detailed_analysis"`
	Strengths           []string          `json:"strengths"`
	AreasForImprovement []string          `json:"areas_for_improvement"`
	Recommendations     []string          `json:"recommendations"`
}

func parseReport(raw string) (*model.FinalReport, error) {
	obj, _, err := decodeObject(raw)
	if err != nil {
		return nil, err
	}

	var p reportPayload
	fields := []struct {
		name string
		dst  any
	}{
		{"overall_performance", &p.OverallPerformance},
		{"conversation_summary", &p.ConversationSummary},
		{"detailed_analysis", &p.DetailedAnalysis},
		{"strengths", &p.Strengths},
		{"areas_for_improvement", &p.AreasForImprovement},
		{"recommendations", &p.Recommendations},
	}
	for _, f := range fields {
		if err := requireField(obj, f.name, f.dst); err != nil {
			return nil, err
		}
	}

	if strings.TrimSpace(p.OverallPerformance) == "" {
		return nil, fmt.Errorf("%w: overall_performance is empty", ErrMalformedResponse)
	}
	for _, key := range model.AnalysisFields {
		if strings.TrimSpace(p.DetailedAnalysis[key]) == "" {
			return nil, fmt.Errorf("%w: detailed_analysis.%s is missing", ErrMalformedResponse, key)
		}
	}

	return &model.FinalReport{
		OverallPerformance:  p.OverallPerformance,
		ConversationSummary: p.ConversationSummary,
		DetailedAnalysis:    p.DetailedAnalysis,
		Strengths:           p.Strengths,
		AreasForImprovement: p.AreasForImprovement,
		Recommendations:     p.Recommendations,
	}, nil
}
