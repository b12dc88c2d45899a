package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pavelanni/interviewer/internal/handler"
	appI18n "github.com/pavelanni/interviewer/internal/i18n"
	"github.com/pavelanni/interviewer/internal/interview"
	"github.com/pavelanni/interviewer/internal/llm"
	"github.com/pavelanni/interviewer/internal/model"
	"github.com/pavelanni/interviewer/internal/store"
)

//go:generate templ generate -path ../../internal/render

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "load .env:", err)
	}
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "interviewer",
		Short: "Adaptive interview service powered by LLMs",
	}

	serve := serveCmd()
	root.AddCommand(serve, transcriptCmd(), exportCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `interviewer --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP interview server",
		RunE:  runServe,
	}
	d := model.DefaultInterviewConfig()
	f := cmd.Flags()
	f.StringP("addr", "a", ":8000", "HTTP listen address")
	f.String("db", "interviews.db", "SQLite database path")
	f.String("llm-provider", "openai", "LLM backend (openai, gemini)")
	f.String("llm-url", "https://api.openai.com/v1", "OpenAI-compatible API base URL")
	f.String("llm-key", "", "API key for the LLM backend")
	f.String("llm-model", "", "LLM model name (provider default when empty)")
	f.StringP("lang", "l", d.Language, "Language of static texts and reports (en, ru)")
	f.StringP("topic", "t", d.Topic, "Subject area of the interview")
	f.Int("min-questions", d.MinQuestions, "Scored answers required before the interview may end")
	f.Int("max-questions", d.MaxQuestions, "Hard cap on scored answers")
	f.Float64("excellent-score", d.ExcellentScore, "Average score that ends the interview early")
	f.Float64("adequate-score", d.AdequateScore, "Average score that earns one extra question")
	f.Bool("probe-weak", d.ProbeWeak, "Keep asking weak candidates until max-questions")
	f.Int("preview-length", d.PreviewLength, "Characters of the last answer and feedback passed to the generator")
	f.Duration("generate-timeout", d.GenerateTimeout, "Timeout of a question generation call")
	f.Duration("evaluate-timeout", d.EvaluateTimeout, "Timeout of an evaluation call")
	f.Duration("report-timeout", d.ReportTimeout, "Timeout of the final report call")
	f.Int("session-cache-size", d.SessionCacheSize, "Sessions kept in memory")
	f.String("base-path", "", "URL prefix for sub-path deployments (e.g. /interview-app)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func transcriptCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transcript",
		Short: "Print the stored transcript of one session as JSON",
		RunE:  runTranscript,
	}
	f := cmd.Flags()
	f.String("db", "interviews.db", "SQLite database path")
	f.String("session-id", "", "Session to print (required)")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")

	_ = cmd.MarkFlagRequired("session-id")

	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all stored transcripts as JSON",
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.String("db", "interviews.db", "SQLite database path")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("INTERVIEWER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("interviewer")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/interviewer")
	v.AddConfigPath("/etc/interviewer")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Debug("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

// interviewConfig gathers the interview parameters from flags, environment
// and config file.
func interviewConfig(v *viper.Viper) model.InterviewConfig {
	basePath := strings.TrimRight(v.GetString("base-path"), "/")
	if basePath != "" && !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	return model.InterviewConfig{
		MinQuestions:     v.GetInt("min-questions"),
		MaxQuestions:     v.GetInt("max-questions"),
		ExcellentScore:   v.GetFloat64("excellent-score"),
		AdequateScore:    v.GetFloat64("adequate-score"),
		ProbeWeak:        v.GetBool("probe-weak"),
		PreviewLength:    v.GetInt("preview-length"),
		GenerateTimeout:  v.GetDuration("generate-timeout"),
		EvaluateTimeout:  v.GetDuration("evaluate-timeout"),
		ReportTimeout:    v.GetDuration("report-timeout"),
		SessionCacheSize: v.GetInt("session-cache-size"),
		BasePath:         basePath,
		Language:         v.GetString("lang"),
		Topic:            v.GetString("topic"),
		LLMProvider:      strings.ToLower(strings.TrimSpace(v.GetString("llm-provider"))),
		LLMModel:         v.GetString("llm-model"),
	}
}

// newCompleter builds the chat backend selected by cfg.LLMProvider.
func newCompleter(ctx context.Context, cfg model.InterviewConfig, v *viper.Viper) (llm.Completer, error) {
	switch cfg.LLMProvider {
	case "", "openai":
		return llm.NewOpenAI(v.GetString("llm-url"), v.GetString("llm-key"), cfg.LLMModel), nil
	case "gemini":
		return llm.NewGemini(ctx, v.GetString("llm-key"), cfg.LLMModel)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLMProvider)
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	cfg := interviewConfig(v)

	if err := appI18n.Init(cfg.Language); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	completer, err := newCompleter(ctx, cfg, v)
	if err != nil {
		return fmt.Errorf("create LLM backend: %w", err)
	}
	llmClient, err := llm.New(completer, cfg.Topic)
	if err != nil {
		return fmt.Errorf("create LLM client: %w", err)
	}
	if err := llmClient.Ping(ctx); err != nil {
		return fmt.Errorf("LLM health check: %w", err)
	}
	slog.Info("LLM endpoint OK", "provider", cfg.LLMProvider, "model", cfg.LLMModel)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := interview.MustNewMetrics(reg)

	info := model.SessionInfo{
		Topic:        cfg.Topic,
		Language:     cfg.Language,
		LLMProvider:  cfg.LLMProvider,
		LLMModel:     cfg.LLMModel,
		MinQuestions: cfg.MinQuestions,
		MaxQuestions: cfg.MaxQuestions,
		ProbeWeak:    cfg.ProbeWeak,
	}
	mgr, err := interview.NewManager(cfg, interview.Deps{
		Generator: llmClient,
		Evaluator: llmClient,
		Reporter:  llmClient,
		Observer:  interview.NewRecorder(db, info, metrics),
		Reader:    db,
		Metrics:   metrics,
	})
	if err != nil {
		return fmt.Errorf("create interview manager: %w", err)
	}

	h, err := handler.New(mgr, cfg, reg)
	if err != nil {
		return fmt.Errorf("create handler: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware(cfg.Language))

	if cfg.BasePath != "" {
		r.Route(cfg.BasePath, h.Routes)
	} else {
		h.Routes(r)
	}

	srv := &http.Server{
		Addr:              v.GetString("addr"),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	slog.Info("starting server",
		"addr", srv.Addr,
		"provider", cfg.LLMProvider,
		"model", cfg.LLMModel,
		"lang", cfg.Language,
		"topic", cfg.Topic,
		"min_questions", cfg.MinQuestions,
		"max_questions", cfg.MaxQuestions,
		"probe_weak", cfg.ProbeWeak,
		"base_path", cfg.BasePath,
	)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runTranscript(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	id := v.GetString("session-id")
	tr, err := db.GetTranscript(cmd.Context(), id)
	if err != nil {
		return fmt.Errorf("get transcript: %w", err)
	}
	if tr == nil {
		return fmt.Errorf("session %s not found", id)
	}
	return writeOutput(v.GetString("output"), tr)
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	export, err := db.ExportAllTranscripts(cmd.Context())
	if err != nil {
		return fmt.Errorf("export sessions: %w", err)
	}
	slog.Info("exported sessions", "count", export.NumSessions)
	return writeOutput(v.GetString("output"), export)
}

// writeOutput writes v as indented JSON to path, or to stdout for "-".
func writeOutput(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	var w io.Writer
	if path == "" || path == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	// Ensure trailing newline.
	_, _ = fmt.Fprintln(w)
	return nil
}
