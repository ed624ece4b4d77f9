package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hathansen/pr-review-bot/internal/usecase/review"
)

// ErrVersionRequested indicates the user requested the CLI version and no further work should be done.
var ErrVersionRequested = errors.New("version requested")

// PullReviewer runs a review against a hosted pull request.
type PullReviewer interface {
	ReviewPull(ctx context.Context, req PullRequest) (review.Result, error)
}

// PullRequest carries the settings for one hosted review run.
type PullRequest struct {
	Number    int
	OutputDir string
	SARIFPath string
}

// LocalReviewer runs a review over a local branch diff without
// touching the hosting service.
type LocalReviewer interface {
	ReviewLocal(ctx context.Context, req LocalRequest) (review.Result, error)
	CurrentBranch(ctx context.Context, repoDir string) (string, error)
}

// LocalRequest carries the settings for one local review run.
type LocalRequest struct {
	RepoDir            string
	BaseRef            string
	TargetRef          string
	IncludeUncommitted bool
	OutputDir          string
	SARIFPath          string
}

// Responder handles one inbound pull-request comment event.
type Responder interface {
	Respond(ctx context.Context, req RespondRequest) (RespondResult, error)
}

// RespondRequest is one comment event delivered from the hosting
// service. File and Line are zero-valued for top-level comments.
type RespondRequest struct {
	Thread int
	File   string
	Line   int
	Author string
	Body   string
	Post   bool
}

// RespondResult reports what the router did with the comment.
type RespondResult struct {
	Handled bool
	Reply   string
}

// Arguments encapsulates IO writers injected from the host process.
type Arguments struct {
	OutWriter io.Writer
	ErrWriter io.Writer
}

// Dependencies captures the collaborators for the CLI.
type Dependencies struct {
	PullReviewer  PullReviewer
	LocalReviewer LocalReviewer
	Responder     Responder
	Args          Arguments
	DefaultOutput string
	DefaultBase   string
	DefaultRepo   string
	Version       string
}

// NewRootCommand constructs the root Cobra command.
func NewRootCommand(deps Dependencies) *cobra.Command {
	versionString := deps.Version
	if versionString == "" {
		versionString = "v0.0.0"
	}

	root := &cobra.Command{
		Use:   "prbot",
		Short: "Automated pull request review bot",
	}
	root.SilenceUsage = true
	root.SilenceErrors = true

	outWriter := deps.Args.OutWriter
	if outWriter == nil {
		outWriter = os.Stdout
	}
	errWriter := deps.Args.ErrWriter
	if errWriter == nil {
		errWriter = os.Stderr
	}
	root.SetOut(outWriter)
	root.SetErr(errWriter)

	reviewCmd := &cobra.Command{
		Use:   "review",
		Short: "Run a code review",
	}
	reviewCmd.AddCommand(pullCommand(deps.PullReviewer, deps.DefaultOutput))
	reviewCmd.AddCommand(localCommand(deps.LocalReviewer, deps.DefaultOutput, deps.DefaultBase, deps.DefaultRepo))
	root.AddCommand(reviewCmd)
	root.AddCommand(respondCommand(deps.Responder))

	var showVersion bool
	root.PersistentFlags().BoolVarP(&showVersion, "version", "v", false, "Show version and exit")
	versionHandler := func(cmd *cobra.Command, args []string) error {
		if showVersion {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), versionString)
			return ErrVersionRequested
		}
		return nil
	}
	root.PersistentPreRunE = versionHandler
	root.PreRunE = versionHandler
	root.RunE = func(cmd *cobra.Command, args []string) error {
		if err := versionHandler(cmd, args); err != nil {
			return err
		}
		return cmd.Help()
	}

	return root
}

func pullCommand(reviewer PullReviewer, defaultOutput string) *cobra.Command {
	var prNumber int
	var outputDir string
	var sarifPath string

	cmd := &cobra.Command{
		Use:   "pull [number]",
		Short: "Review a pull request on the hosting service",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				parsed, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid pull request number %q", args[0])
				}
				prNumber = parsed
			}
			if prNumber <= 0 {
				return fmt.Errorf("pull request number not specified; pass as an argument or use --pr")
			}

			result, err := reviewer.ReviewPull(cmd.Context(), PullRequest{
				Number:    prNumber,
				OutputDir: outputDir,
				SARIFPath: sarifPath,
			})
			if err != nil {
				return err
			}
			printResult(cmd.OutOrStdout(), result)
			return nil
		},
	}

	cmd.Flags().IntVar(&prNumber, "pr", 0, "Pull request number (overrides positional)")
	cmd.Flags().StringVar(&outputDir, "output", firstNonEmpty(defaultOutput, "."), "Directory to write the JSON results file")
	cmd.Flags().StringVar(&sarifPath, "sarif", "", "Optional path to write a SARIF report")

	return cmd
}

func localCommand(reviewer LocalReviewer, defaultOutput, defaultBase, defaultRepo string) *cobra.Command {
	var baseRef string
	var targetRef string
	var repoDir string
	var includeUncommitted bool
	var detectTarget bool
	var outputDir string
	var sarifPath string

	cmd := &cobra.Command{
		Use:   "local [target]",
		Short: "Review a local branch against a base reference",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				targetRef = args[0]
			}
			ctx := cmd.Context()
			if targetRef == "" && detectTarget {
				resolved, err := reviewer.CurrentBranch(ctx, repoDir)
				if err != nil {
					return fmt.Errorf("detect target branch: %w", err)
				}
				targetRef = resolved
			}
			if targetRef == "" {
				return fmt.Errorf("target branch not specified; pass as an argument, use --target, or disable --detect-target")
			}

			result, err := reviewer.ReviewLocal(ctx, LocalRequest{
				RepoDir:            repoDir,
				BaseRef:            baseRef,
				TargetRef:          targetRef,
				IncludeUncommitted: includeUncommitted,
				OutputDir:          outputDir,
				SARIFPath:          sarifPath,
			})
			if err != nil {
				return err
			}
			printResult(cmd.OutOrStdout(), result)
			return nil
		},
	}

	cmd.Flags().StringVar(&baseRef, "base", firstNonEmpty(defaultBase, "main"), "Base reference to diff against")
	cmd.Flags().StringVar(&targetRef, "target", "", "Target branch to review (overrides positional)")
	cmd.Flags().StringVar(&repoDir, "repo-dir", firstNonEmpty(defaultRepo, "."), "Path to the git repository")
	cmd.Flags().BoolVar(&includeUncommitted, "include-uncommitted", false, "Include uncommitted changes on the target branch")
	cmd.Flags().BoolVar(&detectTarget, "detect-target", true, "Automatically detect the checked out branch when no target is provided")
	cmd.Flags().StringVar(&outputDir, "output", firstNonEmpty(defaultOutput, "."), "Directory to write the JSON results file")
	cmd.Flags().StringVar(&sarifPath, "sarif", "", "Optional path to write a SARIF report")

	return cmd
}

func respondCommand(responder Responder) *cobra.Command {
	var prNumber int
	var file string
	var line int
	var author string
	var body string
	var noPost bool

	cmd := &cobra.Command{
		Use:   "respond",
		Short: "Handle one pull request comment addressed to the bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			if prNumber <= 0 {
				return fmt.Errorf("--pr must be a positive integer")
			}
			if strings.TrimSpace(body) == "" {
				return fmt.Errorf("--body is required")
			}

			result, err := responder.Respond(cmd.Context(), RespondRequest{
				Thread: prNumber,
				File:   file,
				Line:   line,
				Author: author,
				Body:   body,
				Post:   !noPost,
			})
			if err != nil {
				return err
			}
			if !result.Handled {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "comment not addressed to the bot; nothing to do")
				return nil
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), result.Reply)
			return nil
		},
	}

	cmd.Flags().IntVar(&prNumber, "pr", 0, "Pull request number the comment belongs to")
	cmd.Flags().StringVar(&file, "file", "", "File path for inline comments")
	cmd.Flags().IntVar(&line, "line", 0, "Line number for inline comments")
	cmd.Flags().StringVar(&author, "author", "", "Comment author login")
	cmd.Flags().StringVar(&body, "body", "", "Comment body text")
	cmd.Flags().BoolVar(&noPost, "no-post", false, "Print the reply instead of posting it back to the thread")

	return cmd
}

func printResult(w io.Writer, result review.Result) {
	_, _ = fmt.Fprintf(w, "reviewed %d files, found %d issues\n", result.TotalFiles, result.TotalIssues)
}

// firstNonEmpty returns the first non-empty string.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
