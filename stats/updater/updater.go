package updater

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/Sriram-PR/Sriram-PR/render"
	"github.com/Sriram-PR/Sriram-PR/stats/age"
	"github.com/Sriram-PR/Sriram-PR/stats/collect"
	"github.com/Sriram-PR/Sriram-PR/stats/commitmsg"
	"github.com/Sriram-PR/Sriram-PR/stats/config"
	"github.com/Sriram-PR/Sriram-PR/stats/git"
	ghpre "github.com/Sriram-PR/Sriram-PR/stats/github"
	"github.com/Sriram-PR/Sriram-PR/stats/gql"
	"github.com/Sriram-PR/Sriram-PR/stats/loccache"
	"github.com/Sriram-PR/Sriram-PR/svgwrite"
)

// lockPath returns the per-user run lock location. The
// lock lives in the system temp dir so it never shows up
// as a change in the checkout being committed.
func lockPath(login string) string {
	return filepath.Join(
		os.TempDir(),
		"update-stats-"+
			loccache.HashName(login)[:12]+".lock",
	)
}

// Preflighter validates the token and reports the rate
// budget before the collectors start.
type Preflighter interface {
	Check(
		ctx context.Context,
		wantLogin string,
	) (ghpre.Budget, error)
}

// Config holds all settings for one stats run. Use a
// Config struct instead of many arguments.
type Config struct {
	// Login is the GitHub login whose stats are
	// collected.
	Login string

	// Token is the personal access token.
	Token string

	// BirthDate feeds the account age line.
	BirthDate time.Time

	// CacheDir holds the LOC cache and the archive
	// file.
	CacheDir string

	// CommentLines is the cache comment block size.
	CommentLines int

	// SVGFiles are the stat cards rewritten in place.
	SVGFiles []string

	// Templates are extra files rendered from the
	// stats context.
	Templates []config.Template

	// RepoDir is the checkout the run commits in.
	// Empty means the current working directory.
	RepoDir string

	// Branch is pushed after a successful commit.
	Branch string

	// SkipPush keeps the commit local instead of
	// pushing it.
	SkipPush bool

	// AuthorName is the fixed commit author name.
	AuthorName string

	// AuthorEmail is the fixed commit author email.
	AuthorEmail string

	// EnableArchive folds in stats preserved from
	// deleted repositories.
	EnableArchive bool

	// ForceCache rebuilds the LOC cache from scratch.
	ForceCache bool

	// DryRun skips the commit and push step.
	DryRun bool

	// Parallelism bounds concurrent LOC re-fetches.
	Parallelism int

	// APIEndpoint overrides the GraphQL endpoint,
	// mainly for tests.
	APIEndpoint string

	// Preflight validates the token before the run.
	// Nil skips the preflight.
	Preflight Preflighter
}

// Stats is the full result of a collection pass, before
// it is written into cards and templates.
type Stats struct {
	// Age is the rendered account age line.
	Age string
	// Commits is the own-commit total.
	Commits int
	// Stars is the stargazer total.
	Stars int
	// Repos is the owned repository count.
	Repos int
	// Contributed is the contributed-to repo count.
	Contributed int
	// Followers is the follower count.
	Followers int
	// LOCAdded is the total lines added.
	LOCAdded int
	// LOCDeleted is the total lines deleted.
	LOCDeleted int
	// LOCNet is LOCAdded minus LOCDeleted.
	LOCNet int
}

// Run executes a full stats update: collect, rewrite,
// and persist. It returns after pushing the commit, or
// earlier when nothing changed or DryRun is set.
func Run(ctx context.Context, cfg Config) error {
	const errCtx = "running stats update"

	started := time.Now()

	lock, err := AcquireLock(lockPath(cfg.Login))
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	defer lock.Release()

	if cfg.Preflight != nil {
		budget, err := cfg.Preflight.Check(
			ctx, cfg.Login,
		)
		if err != nil {
			return fmt.Errorf(
				"%s: preflight: %w", errCtx, err,
			)
		}

		slog.Info(
			"graphql budget",
			"login", budget.Login,
			"remaining", budget.Remaining,
			"limit", budget.Limit,
			"reset_at", budget.ResetAt,
		)
	}

	var opts []gql.Option
	if cfg.APIEndpoint != "" {
		opts = append(
			opts, gql.WithEndpoint(cfg.APIEndpoint),
		)
	}

	client := gql.New(cfg.Token, opts...)

	st, err := collectStats(ctx, cfg, client)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	if err := writeOutputs(cfg, st); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	logSummary(client, started)

	if cfg.DryRun {
		slog.Info("dry run: skipping commit and push")

		return nil
	}

	if err := persist(cfg); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// collectStats runs every collector and merges in the
// archive when enabled.
func collectStats(
	ctx context.Context,
	cfg Config,
	client *gql.Client,
) (Stats, error) {
	const errCtx = "collecting stats"

	col := collect.New(client, cfg.Login)

	acc, err := timed(
		"account",
		func() (collect.Account, error) {
			return col.Account(ctx)
		},
	)
	if err != nil {
		return Stats{}, fmt.Errorf(
			"%s: %w", errCtx, err,
		)
	}

	st := Stats{
		Age: age.Since(cfg.BirthDate, time.Now()),
	}

	heads, err := timed(
		"repo heads",
		func() ([]collect.RepoHead, error) {
			return col.Repos(
				ctx, collect.AllContributed,
			)
		},
	)
	if err != nil {
		return Stats{}, fmt.Errorf(
			"%s: %w", errCtx, err,
		)
	}

	cache := loccache.New(
		cfg.CacheDir, cfg.CommentLines,
	)
	cache.Parallelism = cfg.Parallelism

	fetch := func(
		fctx context.Context,
		owner string,
		name string,
	) (collect.LOC, error) {
		return col.RepoLOC(fctx, owner, name, acc.ID)
	}

	totals, err := timed(
		"loc cache",
		func() (loccache.Totals, error) {
			return cache.Build(
				ctx,
				cfg.Login,
				heads,
				fetch,
				cfg.ForceCache,
			)
		},
	)
	if err != nil {
		return Stats{}, fmt.Errorf(
			"%s: %w", errCtx, err,
		)
	}

	if totals.Cached {
		slog.Info("loc cache hit")
	} else {
		slog.Info("loc cache rebuilt")
	}

	st.LOCAdded = totals.Additions
	st.LOCDeleted = totals.Deletions
	st.LOCNet = totals.Net

	st.Commits, err = cache.CommitTotal(cfg.Login)
	if err != nil {
		return Stats{}, fmt.Errorf(
			"%s: %w", errCtx, err,
		)
	}

	st.Stars, err = timed(
		"stars",
		func() (int, error) {
			return col.Stars(ctx, collect.OwnerOnly)
		},
	)
	if err != nil {
		return Stats{}, fmt.Errorf(
			"%s: %w", errCtx, err,
		)
	}

	st.Repos, err = timed(
		"repo count",
		func() (int, error) {
			return col.RepoCount(
				ctx, collect.OwnerOnly,
			)
		},
	)
	if err != nil {
		return Stats{}, fmt.Errorf(
			"%s: %w", errCtx, err,
		)
	}

	st.Contributed, err = timed(
		"contributed count",
		func() (int, error) {
			return col.RepoCount(
				ctx, collect.AllContributed,
			)
		},
	)
	if err != nil {
		return Stats{}, fmt.Errorf(
			"%s: %w", errCtx, err,
		)
	}

	st.Followers, err = timed(
		"followers",
		func() (int, error) {
			return col.Followers(ctx)
		},
	)
	if err != nil {
		return Stats{}, fmt.Errorf(
			"%s: %w", errCtx, err,
		)
	}

	if cfg.EnableArchive {
		arch, err := loccache.ReadArchive(cfg.CacheDir)
		if err != nil {
			return Stats{}, fmt.Errorf(
				"%s: %w", errCtx, err,
			)
		}

		st.LOCAdded += arch.Additions
		st.LOCDeleted += arch.Deletions
		st.LOCNet += arch.Net
		st.Commits += arch.Commits
		st.Contributed += arch.Repos
	}

	return st, nil
}

// writeOutputs rewrites the SVG cards and renders the
// configured templates.
func writeOutputs(cfg Config, st Stats) error {
	const errCtx = "writing outputs"

	for _, svg := range cfg.SVGFiles {
		if err := svgwrite.Update(svg, svgwrite.Stats{
			Age:         st.Age,
			Commits:     st.Commits,
			Stars:       st.Stars,
			Repos:       st.Repos,
			Contributed: st.Contributed,
			Followers:   st.Followers,
			LOCAdded:    st.LOCAdded,
			LOCDeleted:  st.LOCDeleted,
			LOCNet:      st.LOCNet,
		}); err != nil {
			return fmt.Errorf(
				"%s: %w", errCtx, err,
			)
		}
	}

	if len(cfg.Templates) == 0 {
		return nil
	}

	tctx := render.NewContext()
	tctx.Set("age", st.Age)
	tctx.SetInt("commits", st.Commits)
	tctx.SetInt("stars", st.Stars)
	tctx.SetInt("repos", st.Repos)
	tctx.SetInt("contributed", st.Contributed)
	tctx.SetInt("followers", st.Followers)
	tctx.SetInt("loc_added", st.LOCAdded)
	tctx.SetInt("loc_deleted", st.LOCDeleted)
	tctx.SetInt("loc_net", st.LOCNet)

	for _, tpl := range cfg.Templates {
		if err := render.File(
			tpl.Source, tpl.Target, tctx,
		); err != nil {
			return fmt.Errorf(
				"%s: %w", errCtx, err,
			)
		}
	}

	return nil
}

// persist commits and pushes the refreshed files. A
// clean tree means the stats did not change and nothing
// is committed.
func persist(cfg Config) error {
	const errCtx = "persisting outputs"

	repo, err := git.Open(cfg.RepoDir)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	if err := repo.SetIdentity(
		cfg.AuthorName, cfg.AuthorEmail,
	); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	if prev := commitmsg.ExtractFiles(
		repo.LastCommitMessage(),
	); len(prev) > 0 {
		slog.Debug(
			"previous run refreshed",
			"files", prev,
		)
	}

	changed := repo.ChangedFiles()

	msg := commitmsg.Generate(time.Now(), changed)

	committed, err := repo.Commit(msg)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	if !committed {
		slog.Info("no changes, skipping commit")

		return nil
	}

	if cfg.SkipPush {
		slog.Info(
			"push disabled, keeping commit local",
		)

		return nil
	}

	if err := repo.Push(cfg.Branch); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	slog.Info(
		"pushed stats update",
		"branch", cfg.Branch,
		"files", changed,
	)

	return nil
}

// timed runs fn and logs how long the step took.
func timed[T any](
	step string,
	fn func() (T, error),
) (T, error) {
	start := time.Now()

	out, err := fn()

	slog.Info(
		"step finished",
		"step", step,
		"took", time.Since(start).Round(
			time.Millisecond,
		),
	)

	return out, err
}

// logSummary reports total run time and API usage.
func logSummary(
	client *gql.Client,
	started time.Time,
) {
	counts := client.Counts()

	args := []any{
		"total_time", time.Since(started).Round(
			time.Millisecond,
		),
		"api_calls", client.TotalCalls(),
	}

	for _, name := range client.CountNames() {
		args = append(args, "calls_"+name, counts[name])
	}

	slog.Info("run summary", args...)
}
