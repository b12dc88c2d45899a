package interview

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/pavelanni/interviewer/internal/i18n"
	"github.com/pavelanni/interviewer/internal/model"
)

// ReportGenerator writes the narrative final report.
type ReportGenerator interface {
	GenerateReport(ctx context.Context, req model.ReportRequest) (*model.FinalReport, error)
}

type reportAssembler struct {
	gen     ReportGenerator
	timeout time.Duration
	topic   string
	now     func() time.Time
	metrics *Metrics
}

// assemble produces the final report of a finished session. It always
// returns a valid report; generator failures fall back to static text.
func (a *reportAssembler) assemble(ctx context.Context, s *Session) *model.FinalReport {
	report := a.build(ctx, s)
	report.FinishReason = s.FinishReason
	return report
}

func (a *reportAssembler) build(ctx context.Context, s *Session) *model.FinalReport {
	if s.Stats.Count == 0 {
		a.metrics.reportFallback("no_evaluations")
		return a.fallback(ctx, s)
	}

	report, err := a.generate(ctx, s)
	if err != nil {
		slog.Warn("report generation failed, using fallback", "session_id", s.ID, "error", err)
		a.metrics.reportFallback("generator_error")
		return a.fallback(ctx, s)
	}
	return report
}

func (a *reportAssembler) generate(ctx context.Context, s *Session) (*model.FinalReport, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	report, err := a.gen.GenerateReport(ctx, model.ReportRequest{
		SessionID: s.ID,
		Answers:   s.Ledger.Answers(),
		Stats:     s.Stats,
		Scored:    s.ScoredAnswers(),
	})
	a.metrics.observeCall("report", err, time.Since(start))
	if err == nil && report == nil {
		err = errors.New("generator returned no report")
	}
	if err != nil {
		return nil, &ReportGenerationError{SessionID: s.ID, Err: err}
	}

	avg, _ := s.Stats.Average()
	report.SessionID = s.ID
	report.TotalQuestions = s.Stats.Count
	report.AverageScore = avg
	report.GeneratedAt = a.now()
	report.Fallback = false
	return report, nil
}

// fallback builds the deterministic report used when no narrative is available.
func (a *reportAssembler) fallback(ctx context.Context, s *Session) *model.FinalReport {
	topic := map[string]any{"Topic": a.topic}
	avg, _ := s.Stats.Average()

	summary := i18n.Tp(ctx, "FallbackSummary", s.Stats.Count, topic)
	if s.Stats.Count == 0 {
		summary = i18n.T(ctx, "NoScoredAnswersSummary")
	}

	return &model.FinalReport{
		SessionID:           s.ID,
		TotalQuestions:      s.Stats.Count,
		AverageScore:        avg,
		OverallPerformance:  i18n.T(ctx, "AssessmentCompleted"),
		ConversationSummary: summary,
		DetailedAnalysis: map[string]string{
			model.AnalysisInterviewFlow:              i18n.T(ctx, "FallbackInterviewFlow"),
			model.AnalysisPerformanceConsistency:     i18n.T(ctx, "FallbackPerformanceConsistency"),
			model.AnalysisKnowledgeDepth:             i18n.Td(ctx, "FallbackKnowledgeDepth", topic),
			model.AnalysisPracticalApplication:       i18n.Td(ctx, "FallbackPracticalApplication", topic),
			model.AnalysisCommunicationEffectiveness: i18n.T(ctx, "FallbackCommunicationEffectiveness"),
			model.AnalysisRoleRelevance:              i18n.T(ctx, "FallbackRoleRelevance"),
		},
		Strengths: []string{
			i18n.T(ctx, "FallbackStrengthCompleted"),
			i18n.Td(ctx, "FallbackStrengthKnowledge", topic),
		},
		AreasForImprovement: []string{
			i18n.Td(ctx, "FallbackImprovePractice", topic),
		},
		Recommendations: []string{
			i18n.Td(ctx, "FallbackRecommendAdvanced", topic),
			i18n.T(ctx, "FallbackRecommendPractice"),
		},
		GeneratedAt: a.now(),
		Fallback:    true,
	}
}

// PerformanceBand returns the localized band label for an average score.
func PerformanceBand(ctx context.Context, avg float64) string {
	switch {
	case avg >= 8:
		return i18n.T(ctx, "PerformanceExcellent")
	case avg >= 6:
		return i18n.T(ctx, "PerformanceGood")
	default:
		return i18n.T(ctx, "PerformanceNeedsImprovement")
	}
}
