package updater_test

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/beevik/etree"
	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sriram-PR/Sriram-PR/stats/config"
	"github.com/Sriram-PR/Sriram-PR/stats/exec"
	"github.com/Sriram-PR/Sriram-PR/stats/updater"
)

const testOwnerID = "MDQ6VXNlcjE="

// fakeGitHub serves canned GraphQL responses keyed on
// the query shape.
func fakeGitHub(t *testing.T) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				Query string `json:"query"`
			}

			err := json.NewDecoder(r.Body).Decode(&req)
			require.NoError(t, err)

			var resp string

			switch {
			case strings.Contains(req.Query, "createdAt"):
				resp = `{"data":{"user":{` +
					`"id":"` + testOwnerID + `",` +
					`"createdAt":"2020-05-01T10:00:00Z"}}}`

			case strings.Contains(req.Query, "followers"):
				resp = `{"data":{"user":{"followers":` +
					`{"totalCount":150}}}}`

			case strings.Contains(req.Query, "first: 60"):
				resp = `{"data":{"user":{"repositories":{` +
					`"edges":[{"node":{` +
					`"nameWithOwner":"octocat/hello",` +
					`"defaultBranchRef":{"target":` +
					`{"history":{"totalCount":3}}}}}],` +
					`"pageInfo":{"endCursor":"",` +
					`"hasNextPage":false}}}}}`

			case strings.Contains(req.Query, "history(first: 100"):
				resp = `{"data":{"repository":{` +
					`"defaultBranchRef":{"target":{"history":{` +
					`"totalCount":3,"edges":[` +
					`{"node":{"author":{"user":{"id":"` +
					testOwnerID + `"}},` +
					`"additions":120,"deletions":20}},` +
					`{"node":{"author":{"user":{"id":"` +
					testOwnerID + `"}},` +
					`"additions":30,"deletions":10}},` +
					`{"node":{"author":{"user":` +
					`{"id":"someone-else"}},` +
					`"additions":9,"deletions":9}}],` +
					`"pageInfo":{"endCursor":"",` +
					`"hasNextPage":false}}}}}}}`

			case strings.Contains(req.Query, "stargazers"):
				resp = `{"data":{"user":{"repositories":{` +
					`"totalCount":24,"edges":[` +
					`{"node":{"nameWithOwner":"octocat/hello",` +
					`"stargazers":{"totalCount":87}}}],` +
					`"pageInfo":{"endCursor":"",` +
					`"hasNextPage":false}}}}}`

			default:
				t.Errorf(
					"unexpected query: %s", req.Query,
				)

				resp = `{"data":{}}`
			}

			_, _ = w.Write([]byte(resp))
		},
	))

	t.Cleanup(srv.Close)

	return srv
}

const cardTemplate = `<svg xmlns="http://www.w3.org/2000/svg">
  <text>
    <tspan id="age_data">?</tspan>
    <tspan id="commit_data">?</tspan>
    <tspan id="star_data">?</tspan>
    <tspan id="repo_data">?</tspan>
    <tspan id="contrib_data">?</tspan>
    <tspan id="follower_data">?</tspan>
    <tspan id="loc_data">?</tspan>
    <tspan id="loc_add">?</tspan>
    <tspan id="loc_del">?</tspan>
  </text>
</svg>
`

// setupCheckout initialises a work repo with a stat card
// and a bare origin it can push to.
func setupCheckout(t *testing.T) (string, string) {
	t.Helper()

	base := t.TempDir()

	remote := filepath.Join(base, "remote.git")
	require.NoError(t, os.Mkdir(remote, 0o755))
	exec.MustRun(
		remote, "git", "init", "--bare", "-b", "main",
	)

	work := filepath.Join(base, "work")
	require.NoError(t, os.Mkdir(work, 0o755))
	exec.MustRun(work, "git", "init", "-b", "main")
	exec.MustRun(
		work, "git",
		"config", "--local", "user.name", "seed",
	)
	exec.MustRun(
		work, "git",
		"config", "--local",
		"user.email", "seed@example.com",
	)
	exec.MustRun(
		work, "git", "remote", "add", "origin", remote,
	)

	card := filepath.Join(work, "card.svg")

	//nolint:gosec // test file
	err := os.WriteFile(
		card, []byte(cardTemplate), 0o644,
	)
	require.NoError(t, err)

	exec.MustRun(work, "git", "add", ".")
	exec.MustRun(work, "git", "commit", "-m", "seed")

	return work, remote
}

// cardText reads the text of one element in the card.
func cardText(t *testing.T, path, id string) string {
	t.Helper()

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromFile(path))

	el := doc.FindElement("//*[@id='" + id + "']")
	require.NotNil(t, el)

	return el.Text()
}

func runConfig(
	t *testing.T,
	srvURL string,
	work string,
	login string,
) updater.Config {
	t.Helper()

	return updater.Config{
		Login: login,
		Token: "tok",
		BirthDate: time.Date(
			2005, time.February, 14,
			0, 0, 0, 0, time.UTC,
		),
		CacheDir:     filepath.Join(work, "cache"),
		CommentLines: 7,
		SVGFiles: []string{
			filepath.Join(work, "card.svg"),
		},
		RepoDir:     work,
		Branch:      "main",
		AuthorName:  "stats-bot",
		AuthorEmail: "stats-bot@example.com",
		Parallelism: 2,
		APIEndpoint: srvURL,
	}
}

func TestRun_commits_and_pushes(t *testing.T) {
	t.Parallel()

	srv := fakeGitHub(t)
	work, remote := setupCheckout(t)

	cfg := runConfig(t, srv.URL, work, "octocat-push")

	err := updater.Run(context.Background(), cfg)
	require.NoError(t, err)

	card := filepath.Join(work, "card.svg")

	// Own commits on the single repo: 2 of 3.
	assert.Equal(t, "2", cardText(t, card, "commit_data"))
	assert.Equal(t, "87", cardText(t, card, "star_data"))
	assert.Equal(t, "24", cardText(t, card, "repo_data"))
	assert.Equal(
		t, "150", cardText(t, card, "follower_data"),
	)
	// LOC: +150 -30 = 120 net.
	assert.Equal(t, "150", cardText(t, card, "loc_add"))
	assert.Equal(t, "30", cardText(t, card, "loc_del"))
	assert.Equal(t, "120", cardText(t, card, "loc_data"))

	// Exactly one stats commit on top of the seed, with
	// the run date in the subject.
	subject, err := exec.Run(
		work, "git", "log", "-1", "--pretty=%s",
	)
	require.NoError(t, err)
	assert.Contains(t, subject, "Update GitHub stats: ")
	assert.Contains(
		t,
		subject,
		time.Now().Format("2006-01-02"),
	)

	// The commit was pushed to origin.
	remoteHead, err := exec.Run(
		remote, "git", "log", "-1", "--pretty=%s", "main",
	)
	require.NoError(t, err)
	assert.Equal(t, subject, remoteHead)

	// Fixed author identity.
	author, err := exec.Run(
		work, "git", "log", "-1", "--pretty=%an <%ae>",
	)
	require.NoError(t, err)
	assert.Equal(
		t,
		"stats-bot <stats-bot@example.com>",
		author,
	)
}

func TestRun_no_changes_no_commit(t *testing.T) {
	t.Parallel()

	srv := fakeGitHub(t)
	work, _ := setupCheckout(t)

	cfg := runConfig(t, srv.URL, work, "octocat-idem")

	require.NoError(
		t, updater.Run(context.Background(), cfg),
	)

	countAfterFirst, err := exec.Run(
		work, "git", "rev-list", "--count", "HEAD",
	)
	require.NoError(t, err)

	// A second run with identical upstream stats must
	// not create another commit (the push is skipped on
	// a clean tree, so no remote is needed).
	require.NoError(
		t, updater.Run(context.Background(), cfg),
	)

	countAfterSecond, err := exec.Run(
		work, "git", "rev-list", "--count", "HEAD",
	)
	require.NoError(t, err)

	assert.Equal(t, countAfterFirst, countAfterSecond)
}

// Not parallel: swaps the default logger to capture
// output.
func TestRun_logs_previous_refresh(t *testing.T) {
	srv := fakeGitHub(t)
	work, _ := setupCheckout(t)

	cfg := runConfig(t, srv.URL, work, "octocat-prev")
	cfg.SkipPush = true

	require.NoError(
		t, updater.Run(context.Background(), cfg),
	)

	var buf bytes.Buffer

	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(
		&buf,
		&slog.HandlerOptions{Level: slog.LevelDebug},
	)))

	defer slog.SetDefault(prev)

	// The second run finds the first run's commit and
	// reports what it refreshed.
	require.NoError(
		t, updater.Run(context.Background(), cfg),
	)

	assert.Contains(t, buf.String(), "card.svg")
}

func TestRun_skip_push_keeps_commit_local(
	t *testing.T,
) {
	t.Parallel()

	srv := fakeGitHub(t)
	work, remote := setupCheckout(t)

	cfg := runConfig(t, srv.URL, work, "octocat-local")
	cfg.SkipPush = true

	require.NoError(
		t, updater.Run(context.Background(), cfg),
	)

	count, err := exec.Run(
		work, "git", "rev-list", "--count", "HEAD",
	)
	require.NoError(t, err)
	assert.Equal(t, "2", count)

	// Nothing reached the remote.
	_, err = exec.Run(
		remote, "git",
		"rev-parse", "--verify", "main",
	)
	assert.Error(t, err)
}

func TestRun_dry_run_skips_commit(t *testing.T) {
	t.Parallel()

	srv := fakeGitHub(t)
	work, _ := setupCheckout(t)

	cfg := runConfig(t, srv.URL, work, "octocat-dry")
	cfg.DryRun = true

	require.NoError(
		t, updater.Run(context.Background(), cfg),
	)

	count, err := exec.Run(
		work, "git", "rev-list", "--count", "HEAD",
	)
	require.NoError(t, err)
	assert.Equal(t, "1", count)

	// But the card was still rewritten.
	card := filepath.Join(work, "card.svg")
	assert.Equal(t, "87", cardText(t, card, "star_data"))
}

func TestRun_renders_templates(t *testing.T) {
	t.Parallel()

	srv := fakeGitHub(t)
	work, _ := setupCheckout(t)

	tpl := filepath.Join(work, "README.md.tpl")

	//nolint:gosec // test file
	err := os.WriteFile(
		tpl,
		[]byte("Stars: {{stars}}, Commits: {{commits}}\n"),
		0o644,
	)
	require.NoError(t, err)

	cfg := runConfig(t, srv.URL, work, "octocat-tpl")
	cfg.DryRun = true
	cfg.Templates = []config.Template{
		{
			Source: tpl,
			Target: filepath.Join(work, "README.md"),
		},
	}

	require.NoError(
		t, updater.Run(context.Background(), cfg),
	)

	raw, err := os.ReadFile(
		filepath.Join(work, "README.md"),
	)
	require.NoError(t, err)

	assert.Equal(
		t,
		"Stars: 87, Commits: 2\n",
		string(raw),
	)
}
