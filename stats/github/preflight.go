package github

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	gh "github.com/google/go-github/v68/github"
)

// Config holds the settings needed to create a GitHub
// REST preflight client.
type Config struct {
	// AccessToken is the personal access token the run
	// authenticates with.
	AccessToken string
	// EnterpriseHost is an optional GitHub Enterprise
	// hostname. Leave empty for github.com.
	EnterpriseHost string
}

// Preflight validates the access token and reports the
// remaining GraphQL rate budget before a stats run
// starts burning queries.
type Preflight struct {
	client *gh.Client
}

// NewPreflight validates cfg and returns a ready
// Preflight.
func NewPreflight(cfg Config) (*Preflight, error) {
	const errCtx = "creating github preflight"

	if cfg.AccessToken == "" {
		return nil, fmt.Errorf(
			"%s: access token must be set", errCtx,
		)
	}

	client := gh.NewClient(nil).
		WithAuthToken(cfg.AccessToken)

	if cfg.EnterpriseHost != "" {
		baseURL := "https://" +
			cfg.EnterpriseHost + "/api/v3/"
		uploadURL := "https://" +
			cfg.EnterpriseHost + "/api/uploads/"

		var err error

		client, err = client.WithEnterpriseURLs(
			baseURL, uploadURL,
		)
		if err != nil {
			return nil, fmt.Errorf(
				"%s: enterprise urls: %w",
				errCtx, err,
			)
		}
	}

	return &Preflight{client: client}, nil
}

// Budget is the GraphQL rate budget left on the token.
type Budget struct {
	// Login is the login the token authenticates as.
	Login string
	// Remaining is the number of GraphQL points left.
	Remaining int
	// Limit is the hourly GraphQL point allowance.
	Limit int
	// ResetAt is when the allowance refills.
	ResetAt time.Time
}

// Check fetches the authenticated user and the GraphQL
// rate budget. A token that authenticates as a different
// login than wantLogin is logged as a warning, not an
// error, since read queries still work.
func (p *Preflight) Check(
	ctx context.Context,
	wantLogin string,
) (Budget, error) {
	const errCtx = "running github preflight"

	user, _, err := p.client.Users.Get(ctx, "")
	if err != nil {
		return Budget{}, fmt.Errorf(
			"%s: validate token: %w", errCtx, err,
		)
	}

	if user.GetLogin() != wantLogin {
		slog.Warn(
			"token login differs from target user",
			"token_login", user.GetLogin(),
			"target", wantLogin,
		)
	}

	limits, _, err := p.client.RateLimit.Get(ctx)
	if err != nil {
		return Budget{}, fmt.Errorf(
			"%s: rate limits: %w", errCtx, err,
		)
	}

	budget := Budget{Login: user.GetLogin()}

	if gl := limits.GetGraphQL(); gl != nil {
		budget.Remaining = gl.Remaining
		budget.Limit = gl.Limit
		budget.ResetAt = gl.Reset.Time
	}

	return budget, nil
}
