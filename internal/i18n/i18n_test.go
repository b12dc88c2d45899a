package i18n

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func initLang(t *testing.T, lang string) context.Context {
	t.Helper()
	if err := Init(lang); err != nil {
		t.Fatalf("Init(%q): %v", lang, err)
	}
	loc := NewLocalizer(lang)
	return WithLocalizer(context.Background(), loc)
}

func TestTranslateEnglish(t *testing.T) {
	ctx := initLang(t, "en")

	got := T(ctx, "NoQuestionProvided")
	if got != "No question provided" {
		t.Errorf("T(NoQuestionProvided) = %q, want 'No question provided'", got)
	}

	got = T(ctx, "AssessmentCompleted")
	if got != "Assessment completed" {
		t.Errorf("T(AssessmentCompleted) = %q, want 'Assessment completed'", got)
	}
}

func TestTranslateRussian(t *testing.T) {
	ctx := initLang(t, "ru")

	got := T(ctx, "PerformanceGood")
	if got != "Хорошо" {
		t.Errorf("T(PerformanceGood) = %q, want 'Хорошо'", got)
	}
}

func TestPluralTranslation(t *testing.T) {
	ctx := initLang(t, "en")
	topic := map[string]any{"Topic": "Excel"}

	got1 := Tp(ctx, "FallbackSummary", 1, topic)
	want1 := "Interview completed with 1 question answered. Candidate demonstrated Excel knowledge through their responses."
	if got1 != want1 {
		t.Errorf("Tp(FallbackSummary, 1) = %q, want %q", got1, want1)
	}

	got5 := Tp(ctx, "FallbackSummary", 5, topic)
	want5 := "Interview completed with 5 questions answered. Candidate demonstrated Excel knowledge through their responses."
	if got5 != want5 {
		t.Errorf("Tp(FallbackSummary, 5) = %q, want %q", got5, want5)
	}
}

func TestTemplateDataTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	got := Td(ctx, "ReportSessionID", map[string]any{"ID": "abc"})
	if got != "Session ID: abc" {
		t.Errorf("Td(ReportSessionID, ID=abc) = %q, want 'Session ID: abc'", got)
	}
}

func TestMissingKey(t *testing.T) {
	ctx := initLang(t, "en")

	got := T(ctx, "NonExistentKey")
	if got != "NonExistentKey" {
		t.Errorf("T(NonExistentKey) = %q, want 'NonExistentKey'", got)
	}
}

func TestContextWithoutLocalizerUsesDefault(t *testing.T) {
	initLang(t, "en")

	if got := T(context.Background(), "PerformanceExcellent"); got != "Excellent" {
		t.Errorf("T(PerformanceExcellent) = %q, want 'Excellent'", got)
	}
	if got := T(Background(), "PerformanceExcellent"); got != "Excellent" {
		t.Errorf("T(Background(), PerformanceExcellent) = %q, want 'Excellent'", got)
	}
}

func TestMiddlewareNegotiatesLanguage(t *testing.T) {
	initLang(t, "en")

	tests := []struct {
		name   string
		url    string
		accept string
		want   string
	}{
		{"default", "/", "", "Good"},
		{"accept header", "/", "ru-RU,ru;q=0.9", "Хорошо"},
		{"query wins", "/?lang=en", "ru", "Good"},
		{"unknown falls back", "/", "fr", "Good"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := Middleware("en")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = T(r.Context(), "PerformanceGood")
			}))
			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			if tt.accept != "" {
				req.Header.Set("Accept-Language", tt.accept)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)
			if got != tt.want {
				t.Errorf("translation = %q, want %q", got, tt.want)
			}
		})
	}
}
