package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	appI18n "github.com/pavelanni/interviewer/internal/i18n"
	"github.com/pavelanni/interviewer/internal/interview"
	"github.com/pavelanni/interviewer/internal/model"
)

func TestMain(m *testing.M) {
	if err := appI18n.Init("en"); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	os.Exit(m.Run())
}

// stubLLM answers every generator, evaluator and report call.
type stubLLM struct {
	score int
}

func (s *stubLLM) NextQuestion(_ context.Context, req model.QuestionRequest) (*model.GeneratedQuestion, error) {
	q := fmt.Sprintf("Question after %d answers", req.AnswerCount)
	return &model.GeneratedQuestion{Question: &q}, nil
}

func (s *stubLLM) Evaluate(context.Context, model.EvaluationRequest) (*model.Evaluation, error) {
	return &model.Evaluation{Score: s.score, Comments: "ok"}, nil
}

func (s *stubLLM) GenerateReport(context.Context, model.ReportRequest) (*model.FinalReport, error) {
	analysis := map[string]string{}
	for _, k := range model.AnalysisFields {
		analysis[k] = "fine"
	}
	return &model.FinalReport{
		OverallPerformance:  "Excellent",
		ConversationSummary: "Strong interview.",
		DetailedAnalysis:    analysis,
		Strengths:           []string{"speed"},
		AreasForImprovement: []string{"charts"},
		Recommendations:     []string{"keep going"},
	}, nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	llm := &stubLLM{score: 9}
	reg := prometheus.NewRegistry()
	mgr, err := interview.NewManager(model.DefaultInterviewConfig(), interview.Deps{
		Generator: llm,
		Evaluator: llm,
		Reporter:  llm,
		Metrics:   interview.MustNewMetrics(reg),
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return newServer(t, mgr, reg)
}

func newServer(t *testing.T, s Sessions, reg prometheus.Gatherer) *httptest.Server {
	t.Helper()
	h, err := New(s, model.DefaultInterviewConfig(), reg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	r := chi.NewRouter()
	r.Use(appI18n.Middleware("en"))
	h.Routes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func postInterview(t *testing.T, srv *httptest.Server, body string) (*http.Response, interview.View) {
	t.Helper()
	resp, err := http.Post(srv.URL+"/interview/", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST /interview/: %v", err)
	}
	defer resp.Body.Close()
	var v interview.View
	if resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
			t.Fatalf("decode view: %v", err)
		}
	}
	return resp, v
}

func TestInterviewFlowOverHTTP(t *testing.T) {
	srv := newTestServer(t)

	resp, v := postInterview(t, srv, `{}`)
	if resp.StatusCode != http.StatusOK || v.SessionID == "" {
		t.Fatalf("create: status %d, view %+v", resp.StatusCode, v)
	}
	id := v.SessionID

	_, waiting := postInterview(t, srv, fmt.Sprintf(`{"session_id":%q}`, id))
	if waiting.Message != "Waiting for your response..." {
		t.Errorf("waiting message = %q", waiting.Message)
	}

	for i := 0; !v.Finished; i++ {
		if i > 10 {
			t.Fatal("interview did not finish")
		}
		resp, v = postInterview(t, srv, fmt.Sprintf(`{"session_id":%q,"user_input":"answer %d"}`, id, i))
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("submit %d: status %d", i, resp.StatusCode)
		}
	}
	if len(v.ConversationHistory) == 0 {
		t.Error("conversation history should be returned")
	}

	resp, _ = postInterview(t, srv, fmt.Sprintf(`{"session_id":%q,"user_input":"late"}`, id))
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("submit after finish: status %d, want 409", resp.StatusCode)
	}

	state, err := http.Get(srv.URL + "/interview/" + id)
	if err != nil {
		t.Fatalf("GET state: %v", err)
	}
	defer state.Body.Close()
	var st interview.State
	if err := json.NewDecoder(state.Body).Decode(&st); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if !st.Finished || st.Phase != model.PhaseFinished || st.FinishReason != interview.ReasonExcellent {
		t.Errorf("state = %+v", st)
	}

	pdf, err := http.Get(srv.URL + "/report/" + id)
	if err != nil {
		t.Fatalf("GET report: %v", err)
	}
	defer pdf.Body.Close()
	if ct := pdf.Header.Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := pdf.Header.Get("Content-Disposition"); !strings.Contains(cd, "interview_report_") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	var buf bytes.Buffer
	buf.ReadFrom(pdf.Body)
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Error("report body is not a PDF")
	}

	html, err := http.Get(srv.URL + "/report/" + id + "?format=html")
	if err != nil {
		t.Fatalf("GET html report: %v", err)
	}
	defer html.Body.Close()
	buf.Reset()
	buf.ReadFrom(html.Body)
	if !strings.Contains(buf.String(), "Strong interview.") {
		t.Error("HTML report should contain the summary")
	}

	tr, err := http.Get(srv.URL + "/transcript/" + id)
	if err != nil {
		t.Fatalf("GET transcript: %v", err)
	}
	defer tr.Body.Close()
	var transcript model.Transcript
	if err := json.NewDecoder(tr.Body).Decode(&transcript); err != nil {
		t.Fatalf("decode transcript: %v", err)
	}
	if transcript.SessionID != id || !transcript.IsFinished || transcript.TotalQuestions != 4 {
		t.Errorf("transcript header = %+v", transcript)
	}

	metrics, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET metrics: %v", err)
	}
	defer metrics.Body.Close()
	buf.Reset()
	buf.ReadFrom(metrics.Body)
	if !strings.Contains(buf.String(), `interviewer_sessions_finished_total{reason="excellent"} 1`) {
		t.Errorf("metrics missing finished counter:\n%s", buf.String())
	}
}

// errSessions fails every call with err.
type errSessions struct {
	err error
}

func (s errSessions) Start(context.Context) (*interview.View, error) { return nil, s.err }
func (s errSessions) Submit(context.Context, string, string) (*interview.View, error) {
	return nil, s.err
}
func (s errSessions) Continue(context.Context, string) (*interview.View, error) { return nil, s.err }
func (s errSessions) State(context.Context, string) (*interview.State, error)   { return nil, s.err }
func (s errSessions) Report(context.Context, string) (*model.FinalReport, error) {
	return nil, s.err
}
func (s errSessions) Transcript(context.Context, string) (*model.Transcript, error) {
	return nil, s.err
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", interview.ErrSessionNotFound, http.StatusNotFound},
		{"no active question", interview.ErrNoActiveQuestion, http.StatusConflict},
		{"report unavailable", fmt.Errorf("wrapped: %w", interview.ErrReportUnavailable), http.StatusConflict},
		{"persistence", &interview.PersistenceError{Op: "get_report", SessionID: "s", Err: errors.New("locked")}, http.StatusServiceUnavailable},
		{"wrapped persistence", fmt.Errorf("report: %w", &interview.PersistenceError{Op: "session_exists", SessionID: "s", Err: errors.New("locked")}), http.StatusServiceUnavailable},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newServer(t, errSessions{err: tt.err}, prometheus.NewRegistry())
			for _, path := range []string{"/interview/s1", "/report/s1", "/transcript/s1"} {
				resp, err := http.Get(srv.URL + path)
				if err != nil {
					t.Fatalf("GET %s: %v", path, err)
				}
				resp.Body.Close()
				if resp.StatusCode != tt.want {
					t.Errorf("GET %s: status %d, want %d", path, resp.StatusCode, tt.want)
				}
			}
		})
	}
}

func TestInvalidBody(t *testing.T) {
	srv := newServer(t, errSessions{}, prometheus.NewRegistry())
	resp, _ := postInterview(t, srv, `{"session_id":`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status %d, want 400", resp.StatusCode)
	}
}

func TestEmptyBodyStartsSession(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Post(srv.URL+"/interview/", "application/json", nil)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status %d, want 200", resp.StatusCode)
	}
}

func TestReportBeforeFinish(t *testing.T) {
	srv := newTestServer(t)
	_, v := postInterview(t, srv, `{}`)

	resp, err := http.Get(srv.URL + "/report/" + v.SessionID)
	if err != nil {
		t.Fatalf("GET report: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("status %d, want 409", resp.StatusCode)
	}
}

func TestHealthz(t *testing.T) {
	srv := newServer(t, errSessions{}, prometheus.NewRegistry())
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status %d, want 200", resp.StatusCode)
	}
}

func TestNewRequiresSessions(t *testing.T) {
	if _, err := New(nil, model.DefaultInterviewConfig(), nil); err == nil {
		t.Error("New(nil) should fail")
	}
}
