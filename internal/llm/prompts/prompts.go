package prompts

import (
	"bytes"
	"embed"
	"fmt"
	"regexp"
	"strings"
	"text/template"
	"unicode/utf8"

	"github.com/pavelanni/interviewer/internal/model"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

const maxAnswerRunes = 10000

var (
	candidateAnswerRegex    = regexp.MustCompile(`(?i)</?\s*candidate-answer\b[^>]*>`)
	systemInstructionsRegex = regexp.MustCompile(`(?i)</?\s*system-instructions\b[^>]*>`)
)

var templates = template.Must(
	template.New("prompts").
		Funcs(template.FuncMap{"inc": func(i int) int { return i + 1 }}).
		ParseFS(templateFS, "templates/*.tmpl"),
)

type systemData struct {
	Topic string
}

type questionData struct {
	Phase           string
	AnswerCount     int
	LastAnswer      string
	LastFeedback    string
	Difficulty      string
	PriorQuestions  []string
	RejectDuplicate string
}

type reportData struct {
	SessionID string
	Answers   []string
	Count     int
	Average   float64
	Min       int
	Max       int
	Scored    []model.ScoredAnswer
}

// InterviewerSystem returns the system prompt of the question generator.
func InterviewerSystem(topic string) (string, error) {
	return execute("interviewer.tmpl", systemData{Topic: topic})
}

// EvaluatorSystem returns the system prompt of the evaluation service.
func EvaluatorSystem(topic string) (string, error) {
	return execute("evaluator.tmpl", systemData{Topic: topic})
}

// ReportSystem returns the system prompt of the report generator.
func ReportSystem(topic string) (string, error) {
	return execute("report.tmpl", systemData{Topic: topic})
}

// BuildQuestionContext renders the per-turn instruction for the question generator.
func BuildQuestionContext(req model.QuestionRequest) (string, error) {
	return execute("question_context.tmpl", questionData{
		Phase:           string(req.Phase),
		AnswerCount:     req.AnswerCount,
		LastAnswer:      req.LastAnswer,
		LastFeedback:    req.LastFeedback,
		Difficulty:      string(req.Difficulty),
		PriorQuestions:  req.PriorQuestions,
		RejectDuplicate: req.RejectDuplicate,
	})
}

// BuildEvaluationInput renders the question and answer pair for scoring.
func BuildEvaluationInput(req model.EvaluationRequest) string {
	return "Question: " + req.Question + "\nAnswer: " + SanitizeAnswer(req.Answer)
}

// BuildReportContext renders the conversation and evaluation digests for the report generator.
func BuildReportContext(req model.ReportRequest) (string, error) {
	answers := make([]string, len(req.Answers))
	for i, a := range req.Answers {
		answers[i] = SanitizeAnswer(a)
	}
	avg, _ := req.Stats.Average()
	return execute("report_context.tmpl", reportData{
		SessionID: req.SessionID,
		Answers:   answers,
		Count:     req.Stats.Count,
		Average:   avg,
		Min:       req.Stats.Min,
		Max:       req.Stats.Max,
		Scored:    req.Scored,
	})
}

// Preview shortens s to limit runes, appending an ellipsis when truncated.
func Preview(s string, limit int) string {
	s = strings.TrimSpace(s)
	if limit <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit]) + "..."
}

// SanitizeAnswer strips prompt delimiters from candidate text and bounds its length.
func SanitizeAnswer(answer string) string {
	answer = candidateAnswerRegex.ReplaceAllString(answer, "")
	answer = systemInstructionsRegex.ReplaceAllString(answer, "")
	answer = strings.TrimSpace(answer)

	if answer == "" {
		return "[No answer provided]"
	}

	if utf8.RuneCountInString(answer) > maxAnswerRunes {
		runes := []rune(answer)
		answer = string(runes[:maxAnswerRunes]) + "\n\n[Answer truncated due to length]"
	}

	return answer
}

func execute(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}
