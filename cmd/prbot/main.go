package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/hathansen/pr-review-bot/internal/adapter/cli"
	"github.com/hathansen/pr-review-bot/internal/adapter/git"
	githubadapter "github.com/hathansen/pr-review-bot/internal/adapter/github"
	"github.com/hathansen/pr-review-bot/internal/adapter/llm"
	"github.com/hathansen/pr-review-bot/internal/adapter/llm/blackbox"
	llmhttp "github.com/hathansen/pr-review-bot/internal/adapter/llm/http"
	"github.com/hathansen/pr-review-bot/internal/adapter/observability"
	jsonout "github.com/hathansen/pr-review-bot/internal/adapter/output/json"
	"github.com/hathansen/pr-review-bot/internal/adapter/output/markdown"
	sarifout "github.com/hathansen/pr-review-bot/internal/adapter/output/sarif"
	storeadapter "github.com/hathansen/pr-review-bot/internal/adapter/store"
	"github.com/hathansen/pr-review-bot/internal/adapter/store/sqlite"
	"github.com/hathansen/pr-review-bot/internal/analyzer"
	"github.com/hathansen/pr-review-bot/internal/config"
	"github.com/hathansen/pr-review-bot/internal/domain"
	"github.com/hathansen/pr-review-bot/internal/redaction"
	"github.com/hathansen/pr-review-bot/internal/usecase/interact"
	"github.com/hathansen/pr-review-bot/internal/usecase/pipeline"
	"github.com/hathansen/pr-review-bot/internal/usecase/review"
	"github.com/hathansen/pr-review-bot/internal/version"
)

func main() {
	if err := run(); err != nil {
		// Redact API keys from URLs in error messages before logging
		log.Println(llmhttp.RedactURLSecrets(err.Error()))
		os.Exit(1)
	}
}

func run() error {
	// Create cancellable context with signal handling for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(config.LoaderOptions{
		ConfigPaths: defaultConfigPaths(),
		FileName:    ".pr-review-bot",
		EnvPrefix:   "PRBOT",
	})
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}
	if !cfg.Enabled {
		log.Println("pr-review-bot is disabled via configuration")
		return nil
	}

	httpLogger := llmhttp.NewDefaultLogger(
		llmhttp.ParseLogLevel(cfg.Logging.Level),
		llmhttp.ParseLogFormat(resolveLogFormat(cfg.Logging.Format)),
		cfg.Logging.RedactAPIKeys,
	)
	app := &application{
		cfg:      cfg,
		logger:   observability.NewUsecaseLogger(httpLogger),
		scrubber: redaction.NewScrubber(),
	}

	if cfg.Blackbox.Enabled && cfg.Blackbox.APIKey != "" {
		app.remote = buildRemoteClient(cfg, httpLogger)
	} else {
		log.Println("blackbox: no API key provided, falling back to local analysis only")
	}

	if cfg.Store.Enabled {
		storeDir := filepath.Dir(cfg.Store.Path)
		if err := os.MkdirAll(storeDir, 0o755); err != nil {
			log.Printf("warning: failed to create store directory: %v", err)
		} else if sqliteStore, err := sqlite.NewStore(cfg.Store.Path); err != nil {
			log.Printf("warning: failed to initialize store: %v", err)
		} else {
			app.store = storeadapter.NewBridge(sqliteStore)
			defer sqliteStore.Close()
		}
	}

	root := cli.NewRootCommand(cli.Dependencies{
		PullReviewer:  app,
		LocalReviewer: app,
		Responder:     app,
		DefaultOutput: cfg.Output.Directory,
		DefaultBase:   cfg.Git.BaseRef,
		DefaultRepo:   cfg.Git.RepositoryDir,
		Version:       version.Value(),
	})

	if err := root.ExecuteContext(ctx); err != nil {
		if errors.Is(err, cli.ErrVersionRequested) {
			return nil
		}
		return fmt.Errorf("command failed: %w", err)
	}
	return nil
}

// application wires the configured adapters into the CLI ports. The
// hosting client and git provider are built per invocation because
// their targets come from command flags.
type application struct {
	cfg      config.Config
	logger   *observability.UsecaseLogger
	remote   *blackbox.Client
	scrubber *redaction.Scrubber
	store    *storeadapter.Bridge
}

// ReviewPull reviews one pull request on GitHub.
func (a *application) ReviewPull(ctx context.Context, req cli.PullRequest) (review.Result, error) {
	client, err := a.githubClient()
	if err != nil {
		return review.Result{}, err
	}
	orchestrator := a.newOrchestrator(client, req.OutputDir, req.SARIFPath)
	return orchestrator.Run(ctx, req.Number, "")
}

// ReviewLocal reviews a branch diff in a local repository, rendering
// comments to stdout instead of posting them.
func (a *application) ReviewLocal(ctx context.Context, req cli.LocalRequest) (review.Result, error) {
	include := req.IncludeUncommitted || a.cfg.Git.IncludeUncommitted
	provider := git.NewProvider(req.RepoDir, req.BaseRef, req.TargetRef, include, os.Stdout)
	orchestrator := a.newOrchestrator(provider, req.OutputDir, req.SARIFPath)
	return orchestrator.Run(ctx, 0, req.TargetRef)
}

// CurrentBranch reports the checked out branch of the repository.
func (a *application) CurrentBranch(ctx context.Context, repoDir string) (string, error) {
	return git.NewProvider(repoDir, "", "", false, nil).CurrentBranch(ctx)
}

// Respond routes one comment event through the conversation router and
// posts the reply back to the thread.
func (a *application) Respond(ctx context.Context, req cli.RespondRequest) (cli.RespondResult, error) {
	if a.remote == nil {
		return cli.RespondResult{}, fmt.Errorf("responding requires the remote analysis service; set blackbox.apiKey")
	}
	client, err := a.githubClient()
	if err != nil {
		return cli.RespondResult{}, err
	}

	var fixes interact.FixStore = noopDecisionStore{}
	var ignores interact.IgnoreStore = noopDecisionStore{}
	if a.store != nil {
		fixes = a.store
		ignores = a.store
	}

	caller := llm.NewScrubbedCaller(a.scrubber, a.remote)
	router := interact.NewRouter(a.cfg.Bot.Handle, caller, githubadapter.NewThreadFetcher(client), fixes, ignores, a.logger)
	reply, handled := router.ProcessMessage(ctx, interact.Message{
		Thread: req.Thread,
		Author: req.Author,
		Body:   req.Body,
		File:   req.File,
		Line:   req.Line,
	})
	if !handled {
		return cli.RespondResult{}, nil
	}

	if req.Post {
		if err := client.CreateComment(ctx, req.Thread, reply); err != nil {
			return cli.RespondResult{}, fmt.Errorf("posting reply to PR %d: %w", req.Thread, err)
		}
	}
	if a.store != nil {
		if err := a.store.SaveConversation(ctx, req.Thread, req.File, req.Line, req.Body, reply); err != nil {
			log.Printf("warning: failed to record conversation: %v", err)
		}
	}
	return cli.RespondResult{Handled: true, Reply: reply}, nil
}

func (a *application) newOrchestrator(host review.Host, outputDir, sarifPath string) *review.Orchestrator {
	analyzers := analyzer.DefaultRegistry().Enabled(a.cfg.Review.Analyzers)
	threshold := domain.ParseSeverity(a.cfg.Review.SeverityThreshold)
	pipelineSvc := pipeline.NewService(analyzers, threshold, a.cfg.Review.MaxIssuesPerFile, a.logger)

	var remote review.RemoteAnalyzer
	if a.remote != nil {
		remote = llm.NewScrubbedReviewer(a.scrubber, a.remote)
	}
	var runStore review.Store
	if a.store != nil {
		runStore = a.store
	}
	var docs review.DocLinker
	if a.cfg.Review.DocLinks {
		docs = analyzer.NewDocLinker(analyzer.DefaultDocMappings())
	}

	sink := &resultSink{json: jsonout.NewWriter(outputDir)}
	if sarifPath == "" {
		sarifPath = a.cfg.Output.SARIFPath
	}
	if sarifPath != "" {
		sink.sarif = sarifout.NewWriter(sarifPath)
	}

	return review.NewOrchestrator(host, remote, pipelineSvc, markdown.NewFormatter(), docs, runStore, sink, a.logger, review.Config{
		Threshold:      threshold,
		MaxComments:    a.cfg.Review.MaxComments,
		IgnorePatterns: a.cfg.Review.IgnorePatterns,
		AutoComment:    a.cfg.Review.AutoComment,
		Summarize:      a.cfg.Review.Summarize,
		AttentionLabel: a.cfg.Review.AttentionLabel,
		CleanLabel:     a.cfg.Review.CleanLabel,
	})
}

func (a *application) githubClient() (*githubadapter.Client, error) {
	gh := a.cfg.GitHub
	if gh.Token == "" || gh.Owner == "" || gh.Repo == "" {
		return nil, fmt.Errorf("github.token, github.owner and github.repo must be configured")
	}
	client := githubadapter.NewClient(gh.Token, gh.Owner, gh.Repo)
	if d := parseDuration(a.cfg.HTTP.Timeout, 0); d > 0 {
		client.SetTimeout(d)
	}
	if a.cfg.HTTP.MaxRetries > 0 {
		client.SetMaxRetries(a.cfg.HTTP.MaxRetries)
	}
	if d := parseDuration(a.cfg.HTTP.InitialBackoff, 0); d > 0 {
		client.SetInitialBackoff(d)
	}
	if d := parseDuration(a.cfg.HTTP.RateInterval, 0); d > 0 {
		client.SetRateInterval(d)
	}
	return client, nil
}

func buildRemoteClient(cfg config.Config, logger llmhttp.Logger) *blackbox.Client {
	opts := []blackbox.Option{
		blackbox.WithRetryConfig(retryConfig(cfg.HTTP)),
		blackbox.WithLogger(logger),
	}
	if cfg.Blackbox.BaseURL != "" {
		opts = append(opts, blackbox.WithBaseURL(cfg.Blackbox.BaseURL))
	}
	if d := parseDuration(cfg.HTTP.Timeout, 0); d > 0 {
		opts = append(opts, blackbox.WithTimeout(d))
	}
	if d := parseDuration(cfg.HTTP.RateInterval, 0); d > 0 {
		opts = append(opts, blackbox.WithMinInterval(d))
	}
	return blackbox.NewClient(cfg.Blackbox.APIKey, opts...)
}

func retryConfig(cfg config.HTTPConfig) llmhttp.RetryConfig {
	conf := llmhttp.DefaultRetryConfig()
	if cfg.MaxRetries > 0 {
		conf.MaxRetries = cfg.MaxRetries
	}
	if d := parseDuration(cfg.InitialBackoff, 0); d > 0 {
		conf.InitialBackoff = d
	}
	if d := parseDuration(cfg.MaxBackoff, 0); d > 0 {
		conf.MaxBackoff = d
	}
	if cfg.BackoffMultiplier > 0 {
		conf.Multiplier = cfg.BackoffMultiplier
	}
	return conf
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("warning: invalid duration %q, using default %s", value, fallback)
		return fallback
	}
	return d
}

// resolveLogFormat maps "auto" to human output on a terminal and JSON
// when the process is piped, as in CI.
func resolveLogFormat(format string) string {
	if format != "" && format != "auto" {
		return format
	}
	if term.IsTerminal(int(os.Stderr.Fd())) {
		return "human"
	}
	return "json"
}

func defaultConfigPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "prbot"))
	}
	return paths
}

// resultSink fans the run result out to the JSON file and, when
// configured, a SARIF report. The returned path is the JSON file.
type resultSink struct {
	json  *jsonout.Writer
	sarif *sarifout.Writer
}

func (s *resultSink) WriteResults(ctx context.Context, result review.Result) (string, error) {
	path, err := s.json.WriteResults(ctx, result)
	if err != nil {
		return "", err
	}
	if s.sarif != nil {
		if _, err := s.sarif.Write(ctx, result); err != nil {
			return "", err
		}
	}
	return path, nil
}

// noopDecisionStore stands in for the persistence bridge when the
// store is disabled; decisions are acknowledged but not recorded.
type noopDecisionStore struct{}

func (noopDecisionStore) SavePendingFix(context.Context, int, string, string) error { return nil }
func (noopDecisionStore) SaveIgnoreDecision(context.Context, int, string, int, string) error {
	return nil
}

// Compile-time interface compliance checks
var _ review.Host = (*githubadapter.Client)(nil)
var _ review.Host = (*git.Provider)(nil)
var _ review.RemoteAnalyzer = (*blackbox.Client)(nil)
var _ interact.Caller = (*blackbox.Client)(nil)
var _ review.RemoteAnalyzer = (*llm.ScrubbedReviewer)(nil)
var _ interact.Caller = (*llm.ScrubbedCaller)(nil)
var _ interact.ContentFetcher = (*githubadapter.ThreadFetcher)(nil)
var _ review.Formatter = (*markdown.Formatter)(nil)
var _ review.Store = (*storeadapter.Bridge)(nil)
var _ interact.FixStore = (*storeadapter.Bridge)(nil)
var _ interact.IgnoreStore = (*storeadapter.Bridge)(nil)
var _ review.ResultWriter = (*resultSink)(nil)
var _ cli.PullReviewer = (*application)(nil)
var _ cli.LocalReviewer = (*application)(nil)
var _ cli.Responder = (*application)(nil)
