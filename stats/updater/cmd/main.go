// Command update_stats refreshes the GitHub profile
// statistics: it collects stats over the GitHub API,
// rewrites the SVG stat cards and templates, and commits
// and pushes the result when anything changed.
//
// Secrets come from the environment (ACCESS_TOKEN,
// USER_NAME, ENABLE_ARCHIVE); layout settings from an
// optional YAML file.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/Sriram-PR/Sriram-PR/stats/config"
	ghpre "github.com/Sriram-PR/Sriram-PR/stats/github"
	"github.com/Sriram-PR/Sriram-PR/stats/updater"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	const errCtx = "running update_stats"

	configPath := flag.String(
		"config", "stats.yaml",
		"Optional YAML config file",
	)
	repoDir := flag.String(
		"repo_dir", "",
		"Checkout to commit in (default: cwd)",
	)
	dryRun := flag.Bool(
		"dry_run", false,
		"Skip commit and push",
	)
	forceCache := flag.Bool(
		"force_cache", false,
		"Rebuild the LOC cache from scratch",
	)
	skipPreflight := flag.Bool(
		"skip_preflight", false,
		"Skip the REST token preflight",
	)
	verbose := flag.Bool(
		"verbose", false,
		"Enable debug logging",
	)

	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}

	slog.SetDefault(slog.New(
		slog.NewTextHandler(
			os.Stderr,
			&slog.HandlerOptions{Level: level},
		),
	))

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	birth, err := cfg.Birth()
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	var preflight updater.Preflighter

	if !*skipPreflight {
		pf, err := ghpre.NewPreflight(ghpre.Config{
			AccessToken:    cfg.AccessToken,
			EnterpriseHost: cfg.EnterpriseHost,
		})
		if err != nil {
			return fmt.Errorf(
				"%s: %w", errCtx, err,
			)
		}

		preflight = pf
	}

	runCfg := updater.Config{
		Login:         cfg.UserName,
		Token:         cfg.AccessToken,
		BirthDate:     birth,
		CacheDir:      cfg.CacheDir,
		CommentLines:  cfg.CommentLines,
		SVGFiles:      cfg.SVGFiles,
		Templates:     cfg.Templates,
		RepoDir:       *repoDir,
		Branch:        cfg.Branch,
		SkipPush:      !cfg.Push,
		AuthorName:    cfg.AuthorName,
		AuthorEmail:   cfg.AuthorEmail,
		EnableArchive: cfg.EnableArchive,
		ForceCache:    *forceCache,
		DryRun:        *dryRun,
		Parallelism:   cfg.Parallelism,
		APIEndpoint:   cfg.APIEndpoint,
		Preflight:     preflight,
	}

	if err := updater.Run(
		context.Background(), runCfg,
	); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}
