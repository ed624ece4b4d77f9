package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/viper"
)

// LoaderOptions describes how configuration should be discovered.
type LoaderOptions struct {
	ConfigPaths []string
	FileName    string
	EnvPrefix   string
}

// Load returns the merged configuration from file and environment.
// Environment variables use the PRBOT_ prefix with underscores, e.g.
// PRBOT_GITHUB_TOKEN overrides github.token.
func Load(opts LoaderOptions) (Config, error) {
	v := viper.New()

	name := opts.FileName
	if name == "" {
		name = ".pr-review-bot"
	}

	configFile := locateConfigFile(name, opts.ConfigPaths)
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(name)
	}

	prefix := opts.EnvPrefix
	if prefix == "" {
		prefix = "PRBOT"
	}
	v.SetEnvPrefix(prefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AllowEmptyEnv(true)

	setDefaults(v)

	if configFile != "" {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	return expandEnvVars(cfg), nil
}

// expandEnvVars expands ${VAR} and $VAR syntax in string settings so
// secrets can be referenced from config files without embedding them.
func expandEnvVars(cfg Config) Config {
	cfg.GitHub.Token = expandEnvString(cfg.GitHub.Token)
	cfg.GitHub.Owner = expandEnvString(cfg.GitHub.Owner)
	cfg.GitHub.Repo = expandEnvString(cfg.GitHub.Repo)

	cfg.Blackbox.APIKey = expandEnvString(cfg.Blackbox.APIKey)
	cfg.Blackbox.BaseURL = expandEnvString(cfg.Blackbox.BaseURL)

	cfg.HTTP.Timeout = expandEnvString(cfg.HTTP.Timeout)
	cfg.HTTP.InitialBackoff = expandEnvString(cfg.HTTP.InitialBackoff)
	cfg.HTTP.MaxBackoff = expandEnvString(cfg.HTTP.MaxBackoff)
	cfg.HTTP.RateInterval = expandEnvString(cfg.HTTP.RateInterval)

	cfg.Store.Path = expandEnvString(cfg.Store.Path)
	cfg.Output.Directory = expandEnvString(cfg.Output.Directory)
	cfg.Output.SARIFPath = expandEnvString(cfg.Output.SARIFPath)
	cfg.Logging.Level = expandEnvString(cfg.Logging.Level)
	cfg.Logging.Format = expandEnvString(cfg.Logging.Format)
	cfg.Bot.Handle = expandEnvString(cfg.Bot.Handle)
	cfg.Git.RepositoryDir = expandEnvString(cfg.Git.RepositoryDir)
	cfg.Git.BaseRef = expandEnvString(cfg.Git.BaseRef)
	cfg.Review.IgnorePatterns = expandEnvStringSlice(cfg.Review.IgnorePatterns)

	return cfg
}

var (
	bracedVarRe = regexp.MustCompile(`\$\{([A-Z_][A-Z0-9_]*)\}`)
	bareVarRe   = regexp.MustCompile(`\$([A-Z_][A-Z0-9_]*)`)
)

// expandEnvString replaces ${VAR} or $VAR with environment values,
// leaving unknown references untouched.
func expandEnvString(s string) string {
	if s == "" {
		return s
	}

	s = bracedVarRe.ReplaceAllStringFunc(s, func(match string) string {
		if val := os.Getenv(match[2 : len(match)-1]); val != "" {
			return val
		}
		return match
	})
	return bareVarRe.ReplaceAllStringFunc(s, func(match string) string {
		if val := os.Getenv(match[1:]); val != "" {
			return val
		}
		return match
	})
}

func expandEnvStringSlice(slice []string) []string {
	if len(slice) == 0 {
		return slice
	}
	result := make([]string, len(slice))
	for i, s := range slice {
		result[i] = expandEnvString(s)
	}
	return result
}

func locateConfigFile(name string, paths []string) string {
	searchPaths := append([]string{}, paths...)
	searchPaths = append(searchPaths, ".")
	for _, dir := range searchPaths {
		if dir == "" {
			continue
		}
		for _, ext := range []string{".yaml", ".yml", ".json"} {
			candidate := filepath.Join(dir, name+ext)
			info, err := os.Stat(candidate)
			if err == nil && !info.IsDir() {
				return candidate
			}
		}
	}
	return ""
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("enabled", true)

	v.SetDefault("blackbox.enabled", true)

	v.SetDefault("review.severityThreshold", "low")
	v.SetDefault("review.maxComments", 50)
	v.SetDefault("review.ignorePatterns", []string{"*.md", "*.txt", "package-lock.json", "yarn.lock"})
	v.SetDefault("review.docLinks", true)
	v.SetDefault("review.autoComment", true)
	v.SetDefault("review.summarize", true)
	v.SetDefault("review.attentionLabel", "needs-attention")
	v.SetDefault("review.cleanLabel", "reviewed")

	v.SetDefault("http.timeout", "60s")
	v.SetDefault("http.maxRetries", 3)
	v.SetDefault("http.initialBackoff", "2s")
	v.SetDefault("http.maxBackoff", "32s")
	v.SetDefault("http.backoffMultiplier", 2.0)
	v.SetDefault("http.rateInterval", "500ms")

	v.SetDefault("store.enabled", true)
	v.SetDefault("store.path", defaultStorePath())

	v.SetDefault("output.directory", ".")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "auto")
	v.SetDefault("logging.redactAPIKeys", true)

	v.SetDefault("bot.handle", "@pr-review-bot")

	v.SetDefault("git.baseRef", "main")
}

func defaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./prbot.db"
	}
	return filepath.Join(home, ".config", "prbot", "prbot.db")
}
