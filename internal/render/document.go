// Package render turns a final report into a downloadable document.
package render

import (
	"context"
	"fmt"

	"github.com/pavelanni/interviewer/internal/i18n"
	"github.com/pavelanni/interviewer/internal/model"
)

// block is a labelled group of paragraphs or bullet items.
type block struct {
	Label      string
	Paragraphs []string
	Items      []string
}

type section struct {
	Heading string
	Blocks  []block
}

// document is the localized layout shared by the PDF and HTML renderers.
type document struct {
	Title    string
	Subtitle string
	Sections []section
	Notice   string
	Footer   string
}

var analysisLabels = map[string]string{
	model.AnalysisInterviewFlow:              "AnalysisInterviewFlow",
	model.AnalysisPerformanceConsistency:     "AnalysisPerformanceConsistency",
	model.AnalysisKnowledgeDepth:             "AnalysisKnowledgeDepth",
	model.AnalysisPracticalApplication:       "AnalysisPracticalApplication",
	model.AnalysisCommunicationEffectiveness: "AnalysisCommunicationEffectiveness",
	model.AnalysisRoleRelevance:              "AnalysisRoleRelevance",
}

func layout(ctx context.Context, r *model.FinalReport, topic string) document {
	topicData := map[string]any{"Topic": topic}
	doc := document{
		Title:    i18n.Td(ctx, "ReportTitle", topicData),
		Subtitle: i18n.Td(ctx, "ReportSessionID", map[string]any{"ID": r.SessionID}),
		Footer:   i18n.T(ctx, "ReportFooter"),
	}
	if r.Fallback {
		doc.Notice = i18n.T(ctx, "FallbackNotice")
	}

	summary := r.ConversationSummary
	if summary == "" {
		summary = i18n.Td(ctx, "ExecutiveSummaryDefault", topicData)
	}
	doc.Sections = append(doc.Sections, section{
		Heading: i18n.T(ctx, "ExecutiveSummary"),
		Blocks:  []block{{Paragraphs: []string{summary}}},
	})

	overview := block{Label: i18n.T(ctx, "PerformanceOverview")}
	for _, k := range model.AnalysisFields {
		if v := r.DetailedAnalysis[k]; v != "" {
			overview.Paragraphs = append(overview.Paragraphs, i18n.T(ctx, analysisLabels[k])+": "+v)
		}
	}
	doc.Sections = append(doc.Sections, section{
		Heading: i18n.T(ctx, "CandidateAssessment"),
		Blocks:  []block{overview},
	})

	var lists []block
	for _, l := range []struct {
		id    string
		items []string
	}{
		{"KeyStrengths", r.Strengths},
		{"AreasForDevelopment", r.AreasForImprovement},
		{"Recommendations", r.Recommendations},
	} {
		if len(l.items) > 0 {
			lists = append(lists, block{Label: i18n.T(ctx, l.id), Items: l.items})
		}
	}
	doc.Sections = append(doc.Sections, section{
		Heading: i18n.T(ctx, "StrengthsAndDevelopment"),
		Blocks:  lists,
	})

	performance := r.OverallPerformance
	if performance == "" {
		performance = i18n.T(ctx, "AssessmentCompleted")
	}
	doc.Sections = append(doc.Sections, section{
		Heading: i18n.T(ctx, "FinalAssessment"),
		Blocks: []block{{Paragraphs: []string{
			i18n.Td(ctx, "OverallPerformanceLine", map[string]any{"Value": performance}),
			i18n.Td(ctx, "AverageScoreLine", map[string]any{"Score": fmt.Sprintf("%.1f", r.AverageScore)}),
			i18n.Td(ctx, "TotalQuestionsLine", map[string]any{"Count": r.TotalQuestions}),
			i18n.Td(ctx, "GeneratedLine", map[string]any{"Time": r.GeneratedAt.UTC().Format("2006-01-02 15:04 UTC")}),
		}}},
	})
	return doc
}

// Filename is the attachment name of a report download.
func Filename(sessionID, ext string) string {
	short := sessionID
	if len(short) > 8 {
		short = short[:8]
	}
	return "interview_report_" + short + "." + ext
}
