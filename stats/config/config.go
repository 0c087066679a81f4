package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/goccy/go-yaml"
)

// BirthDateLayout is the date format accepted for the
// birth_date setting.
const BirthDateLayout = "2006-01-02"

// Template pairs a template file with its rendered
// output path.
type Template struct {
	// Source is the template file path.
	Source string `yaml:"source"`
	// Target is the rendered output path.
	Target string `yaml:"target"`
}

// Config holds every setting for a stats run. Secrets
// come from the environment; layout settings come from
// an optional YAML file with sensible defaults.
type Config struct {
	// AccessToken is the fine-grained personal access
	// token. Required.
	AccessToken string `env:"ACCESS_TOKEN,required,notEmpty" yaml:"-"`

	// UserName is the GitHub login whose stats are
	// collected. Required.
	UserName string `env:"USER_NAME,required,notEmpty" yaml:"-"`

	// EnableArchive folds in stats preserved from
	// deleted repositories.
	EnableArchive bool `env:"ENABLE_ARCHIVE" envDefault:"true" yaml:"-"`

	// BirthDate is the profile owner's birth date in
	// YYYY-MM-DD form, shown as the account age line.
	BirthDate string `env:"-" yaml:"birth_date"`

	// CacheDir is the LOC cache directory.
	CacheDir string `env:"-" yaml:"cache_dir"`

	// CommentLines is the cache file comment block
	// size.
	CommentLines int `env:"-" yaml:"comment_lines"`

	// SVGFiles are the stat cards rewritten each run.
	SVGFiles []string `env:"-" yaml:"svg_files"`

	// Templates are extra files rendered from the
	// collected stats.
	Templates []Template `env:"-" yaml:"templates"`

	// Branch is the branch the run commits to.
	Branch string `env:"-" yaml:"branch"`

	// Push controls whether the commit is pushed to
	// the remote. Disable to keep commits local.
	Push bool `env:"-" yaml:"push"`

	// AuthorName is the fixed commit author name.
	AuthorName string `env:"-" yaml:"author_name"`

	// AuthorEmail is the fixed commit author email.
	AuthorEmail string `env:"-" yaml:"author_email"`

	// Parallelism bounds concurrent LOC re-fetches.
	Parallelism int `env:"-" yaml:"parallelism"`

	// EnterpriseHost targets a GitHub Enterprise
	// installation instead of github.com.
	EnterpriseHost string `env:"-" yaml:"enterprise_host"`

	// APIEndpoint overrides the GraphQL endpoint.
	// Empty means the public API.
	APIEndpoint string `env:"-" yaml:"api_endpoint"`
}

// defaults returns the built-in configuration.
func defaults() Config {
	return Config{
		BirthDate:    "2005-02-14",
		CacheDir:     "cache",
		CommentLines: 7,
		SVGFiles: []string{
			"dark_mode.svg",
			"light_mode.svg",
		},
		Branch:      "main",
		Push:        true,
		AuthorName:  "github-actions[bot]",
		AuthorEmail: "41898282+github-actions[bot]@users.noreply.github.com",
		Parallelism: 1,
	}
}

// Load builds the run configuration: defaults, then the
// YAML file at path (skipped when path is empty or the
// file does not exist), then environment variables.
func Load(path string) (Config, error) {
	const errCtx = "loading config"

	cfg := defaults()

	if path != "" {
		raw, err := os.ReadFile(path) //nolint:gosec // path from CLI flag
		if err != nil && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf(
				"%s: read %s: %w", errCtx, path, err,
			)
		}

		if err == nil {
			if err := yaml.Unmarshal(
				raw, &cfg,
			); err != nil {
				return Config{}, fmt.Errorf(
					"%s: parse %s: %w",
					errCtx, path, err,
				)
			}
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf(
			"%s: %w", errCtx, err,
		)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf(
			"%s: %w", errCtx, err,
		)
	}

	return cfg, nil
}

// validate checks the settings that env tags cannot.
func (c Config) validate() error {
	if _, err := c.Birth(); err != nil {
		return err
	}

	if c.CommentLines < 0 {
		return fmt.Errorf(
			"comment_lines must not be negative, got %d",
			c.CommentLines,
		)
	}

	if c.Parallelism < 1 {
		return fmt.Errorf(
			"parallelism must be at least 1, got %d",
			c.Parallelism,
		)
	}

	return nil
}

// Birth parses the configured birth date.
func (c Config) Birth() (time.Time, error) {
	ts, err := time.Parse(
		BirthDateLayout, c.BirthDate,
	)
	if err != nil {
		return time.Time{}, fmt.Errorf(
			"parsing birth_date %q: %w",
			c.BirthDate, err,
		)
	}

	return ts, nil
}
