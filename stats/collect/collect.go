package collect

import (
	"context"
	"fmt"
	"time"

	"github.com/Sriram-PR/Sriram-PR/stats/gql"
)

// Affiliation filter sets used across queries.
var (
	// OwnerOnly selects repositories owned by the user.
	OwnerOnly = []string{"OWNER"}

	// AllContributed selects every repository the user
	// contributes to.
	AllContributed = []string{
		"OWNER",
		"COLLABORATOR",
		"ORGANIZATION_MEMBER",
	}
)

// Collector runs the profile stat queries for one user.
type Collector struct {
	cl    *gql.Client
	login string
}

// New returns a Collector for the given login.
func New(cl *gql.Client, login string) *Collector {
	return &Collector{
		cl:    cl,
		login: login,
	}
}

// Account identifies the profile owner on the API side.
type Account struct {
	// ID is the GraphQL node ID used to attribute
	// commits to the owner.
	ID string
	// CreatedAt is the account creation time.
	CreatedAt time.Time
}

const accountQuery = `
query($login: String!){
    user(login: $login) {
        id
        createdAt
    }
}`

// Account fetches the owner's node ID and account
// creation date.
func (c *Collector) Account(
	ctx context.Context,
) (Account, error) {
	const errCtx = "fetching account"

	var out struct {
		User struct {
			ID        string    `json:"id"`
			CreatedAt time.Time `json:"createdAt"`
		} `json:"user"`
	}

	err := c.cl.Do(
		ctx,
		"account",
		accountQuery,
		map[string]any{"login": c.login},
		&out,
	)
	if err != nil {
		return Account{}, fmt.Errorf(
			"%s: %w", errCtx, err,
		)
	}

	return Account{
		ID:        out.User.ID,
		CreatedAt: out.User.CreatedAt,
	}, nil
}

const followersQuery = `
query($login: String!){
    user(login: $login) {
        followers {
            totalCount
        }
    }
}`

// Followers fetches the user's follower count.
func (c *Collector) Followers(
	ctx context.Context,
) (int, error) {
	const errCtx = "fetching followers"

	var out struct {
		User struct {
			Followers struct {
				TotalCount int `json:"totalCount"`
			} `json:"followers"`
		} `json:"user"`
	}

	err := c.cl.Do(
		ctx,
		"followers",
		followersQuery,
		map[string]any{"login": c.login},
		&out,
	)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", errCtx, err)
	}

	return out.User.Followers.TotalCount, nil
}

const contributionsQuery = `
query($start_date: DateTime!, $end_date: DateTime!, $login: String!) {
    user(login: $login) {
        contributionsCollection(from: $start_date, to: $end_date) {
            contributionCalendar {
                totalContributions
            }
        }
    }
}`

// Contributions fetches the contribution calendar total
// between two dates.
func (c *Collector) Contributions(
	ctx context.Context,
	from time.Time,
	to time.Time,
) (int, error) {
	const errCtx = "fetching contributions"

	var out struct {
		User struct {
			ContributionsCollection struct {
				ContributionCalendar struct {
					TotalContributions int `json:"totalContributions"`
				} `json:"contributionCalendar"`
			} `json:"contributionsCollection"`
		} `json:"user"`
	}

	err := c.cl.Do(
		ctx,
		"contributions",
		contributionsQuery,
		map[string]any{
			"start_date": from.Format(time.RFC3339),
			"end_date":   to.Format(time.RFC3339),
			"login":      c.login,
		},
		&out,
	)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", errCtx, err)
	}

	return out.User.
		ContributionsCollection.
		ContributionCalendar.
		TotalContributions, nil
}

const repoStarsQuery = `
query ($owner_affiliation: [RepositoryAffiliation], $login: String!, $cursor: String) {
    user(login: $login) {
        repositories(first: 100, after: $cursor, ownerAffiliations: $owner_affiliation) {
            totalCount
            edges {
                node {
                    ... on Repository {
                        nameWithOwner
                        stargazers {
                            totalCount
                        }
                    }
                }
            }
            pageInfo {
                endCursor
                hasNextPage
            }
        }
    }
}`

// repoStarsPage mirrors one page of the repository/star
// listing.
type repoStarsPage struct {
	User struct {
		Repositories struct {
			TotalCount int `json:"totalCount"`
			Edges      []struct {
				Node struct {
					NameWithOwner string `json:"nameWithOwner"`
					Stargazers    struct {
						TotalCount int `json:"totalCount"`
					} `json:"stargazers"`
				} `json:"node"`
			} `json:"edges"`
			PageInfo pageInfo `json:"pageInfo"`
		} `json:"repositories"`
	} `json:"user"`
}

// pageInfo is the standard GraphQL pagination cursor.
type pageInfo struct {
	EndCursor   string `json:"endCursor"`
	HasNextPage bool   `json:"hasNextPage"`
}

// RepoCount fetches the number of repositories matching
// the affiliation filter.
func (c *Collector) RepoCount(
	ctx context.Context,
	affiliations []string,
) (int, error) {
	const errCtx = "fetching repo count"

	var out repoStarsPage

	err := c.cl.Do(
		ctx,
		"repo_count",
		repoStarsQuery,
		c.pageVars(affiliations, nil),
		&out,
	)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", errCtx, err)
	}

	return out.User.Repositories.TotalCount, nil
}

// Stars sums the stargazer counts across every
// repository page matching the affiliation filter.
func (c *Collector) Stars(
	ctx context.Context,
	affiliations []string,
) (int, error) {
	const errCtx = "fetching stars"

	total := 0

	var cursor *string

	for {
		var out repoStarsPage

		err := c.cl.Do(
			ctx,
			"stars",
			repoStarsQuery,
			c.pageVars(affiliations, cursor),
			&out,
		)
		if err != nil {
			return 0, fmt.Errorf(
				"%s: %w", errCtx, err,
			)
		}

		repos := out.User.Repositories

		for _, edge := range repos.Edges {
			total += edge.Node.Stargazers.TotalCount
		}

		if !repos.PageInfo.HasNextPage {
			break
		}

		next := repos.PageInfo.EndCursor
		cursor = &next
	}

	return total, nil
}

// pageVars builds the shared variable map for paginated
// repository queries. A nil cursor requests page one.
func (c *Collector) pageVars(
	affiliations []string,
	cursor *string,
) map[string]any {
	vars := map[string]any{
		"owner_affiliation": affiliations,
		"login":             c.login,
	}

	if cursor != nil {
		vars["cursor"] = *cursor
	} else {
		vars["cursor"] = nil
	}

	return vars
}
