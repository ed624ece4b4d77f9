// Package config defines the bot configuration and its file/env loader.
package config

// Config is the merged bot configuration.
type Config struct {
	Enabled  bool           `mapstructure:"enabled"`
	GitHub   GitHubConfig   `mapstructure:"github"`
	Blackbox BlackboxConfig `mapstructure:"blackbox"`
	Review   ReviewConfig   `mapstructure:"review"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Store    StoreConfig    `mapstructure:"store"`
	Output   OutputConfig   `mapstructure:"output"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Bot      BotConfig      `mapstructure:"bot"`
	Git      GitConfig      `mapstructure:"git"`
}

// GitHubConfig identifies the repository the bot operates on.
type GitHubConfig struct {
	Token string `mapstructure:"token"`
	Owner string `mapstructure:"owner"`
	Repo  string `mapstructure:"repo"`
}

// BlackboxConfig configures the remote analysis service.
type BlackboxConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"apiKey"`
	BaseURL string `mapstructure:"baseUrl"`
}

// ReviewConfig controls what a run reports.
type ReviewConfig struct {
	// Analyzers toggles individual analyzers by name. Absent names
	// default to enabled.
	Analyzers         map[string]bool `mapstructure:"analyzers"`
	SeverityThreshold string          `mapstructure:"severityThreshold"`
	MaxComments       int             `mapstructure:"maxComments"`
	MaxIssuesPerFile  int             `mapstructure:"maxIssuesPerFile"`
	IgnorePatterns    []string        `mapstructure:"ignorePatterns"`
	DocLinks          bool            `mapstructure:"docLinks"`
	AutoComment       bool            `mapstructure:"autoComment"`
	Summarize         bool            `mapstructure:"summarize"`
	AttentionLabel    string          `mapstructure:"attentionLabel"`
	CleanLabel        string          `mapstructure:"cleanLabel"`
}

// HTTPConfig carries the shared retry, rate-limit and timeout settings.
type HTTPConfig struct {
	Timeout           string  `mapstructure:"timeout"`
	MaxRetries        int     `mapstructure:"maxRetries"`
	InitialBackoff    string  `mapstructure:"initialBackoff"`
	MaxBackoff        string  `mapstructure:"maxBackoff"`
	BackoffMultiplier float64 `mapstructure:"backoffMultiplier"`
	RateInterval      string  `mapstructure:"rateInterval"`
}

// StoreConfig configures the sqlite persistence.
type StoreConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// OutputConfig configures the machine-readable artifacts.
type OutputConfig struct {
	Directory string `mapstructure:"directory"`
	SARIFPath string `mapstructure:"sarifPath"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level         string `mapstructure:"level"`
	Format        string `mapstructure:"format"`
	RedactAPIKeys bool   `mapstructure:"redactAPIKeys"`
}

// BotConfig configures the conversational surface.
type BotConfig struct {
	Handle string `mapstructure:"handle"`
}

// GitConfig configures local-branch reviews.
type GitConfig struct {
	RepositoryDir      string `mapstructure:"repositoryDir"`
	BaseRef            string `mapstructure:"baseRef"`
	IncludeUncommitted bool   `mapstructure:"includeUncommitted"`
}

// Merge overlays configurations left to right; later values win where
// set. Used to layer repository config over global defaults.
func Merge(configs ...Config) Config {
	var result Config
	for i, cfg := range configs {
		if i == 0 {
			result = cfg
			continue
		}
		result = merge(result, cfg)
	}
	return result
}

func merge(base, overlay Config) Config {
	out := base
	out.Enabled = base.Enabled || overlay.Enabled

	if overlay.GitHub.Token != "" {
		out.GitHub.Token = overlay.GitHub.Token
	}
	if overlay.GitHub.Owner != "" {
		out.GitHub.Owner = overlay.GitHub.Owner
	}
	if overlay.GitHub.Repo != "" {
		out.GitHub.Repo = overlay.GitHub.Repo
	}

	if overlay.Blackbox.APIKey != "" {
		out.Blackbox.APIKey = overlay.Blackbox.APIKey
	}
	if overlay.Blackbox.BaseURL != "" {
		out.Blackbox.BaseURL = overlay.Blackbox.BaseURL
	}
	out.Blackbox.Enabled = base.Blackbox.Enabled || overlay.Blackbox.Enabled

	out.Review = mergeReview(base.Review, overlay.Review)

	if overlay.HTTP.Timeout != "" {
		out.HTTP.Timeout = overlay.HTTP.Timeout
	}
	if overlay.HTTP.MaxRetries != 0 {
		out.HTTP.MaxRetries = overlay.HTTP.MaxRetries
	}
	if overlay.HTTP.InitialBackoff != "" {
		out.HTTP.InitialBackoff = overlay.HTTP.InitialBackoff
	}
	if overlay.HTTP.MaxBackoff != "" {
		out.HTTP.MaxBackoff = overlay.HTTP.MaxBackoff
	}
	if overlay.HTTP.BackoffMultiplier != 0 {
		out.HTTP.BackoffMultiplier = overlay.HTTP.BackoffMultiplier
	}
	if overlay.HTTP.RateInterval != "" {
		out.HTTP.RateInterval = overlay.HTTP.RateInterval
	}

	if overlay.Store.Path != "" {
		out.Store.Path = overlay.Store.Path
	}
	out.Store.Enabled = base.Store.Enabled || overlay.Store.Enabled

	if overlay.Output.Directory != "" {
		out.Output.Directory = overlay.Output.Directory
	}
	if overlay.Output.SARIFPath != "" {
		out.Output.SARIFPath = overlay.Output.SARIFPath
	}

	if overlay.Logging.Level != "" {
		out.Logging.Level = overlay.Logging.Level
	}
	if overlay.Logging.Format != "" {
		out.Logging.Format = overlay.Logging.Format
	}
	out.Logging.RedactAPIKeys = base.Logging.RedactAPIKeys || overlay.Logging.RedactAPIKeys

	if overlay.Bot.Handle != "" {
		out.Bot.Handle = overlay.Bot.Handle
	}

	if overlay.Git.RepositoryDir != "" {
		out.Git.RepositoryDir = overlay.Git.RepositoryDir
	}
	if overlay.Git.BaseRef != "" {
		out.Git.BaseRef = overlay.Git.BaseRef
	}
	out.Git.IncludeUncommitted = base.Git.IncludeUncommitted || overlay.Git.IncludeUncommitted

	return out
}

func mergeReview(base, overlay ReviewConfig) ReviewConfig {
	out := base
	if len(overlay.Analyzers) > 0 {
		if out.Analyzers == nil {
			out.Analyzers = make(map[string]bool, len(overlay.Analyzers))
		}
		for name, enabled := range overlay.Analyzers {
			out.Analyzers[name] = enabled
		}
	}
	if overlay.SeverityThreshold != "" {
		out.SeverityThreshold = overlay.SeverityThreshold
	}
	if overlay.MaxComments != 0 {
		out.MaxComments = overlay.MaxComments
	}
	if overlay.MaxIssuesPerFile != 0 {
		out.MaxIssuesPerFile = overlay.MaxIssuesPerFile
	}
	if len(overlay.IgnorePatterns) > 0 {
		out.IgnorePatterns = overlay.IgnorePatterns
	}
	out.DocLinks = base.DocLinks || overlay.DocLinks
	out.AutoComment = base.AutoComment || overlay.AutoComment
	out.Summarize = base.Summarize || overlay.Summarize
	if overlay.AttentionLabel != "" {
		out.AttentionLabel = overlay.AttentionLabel
	}
	if overlay.CleanLabel != "" {
		out.CleanLabel = overlay.CleanLabel
	}
	return out
}
