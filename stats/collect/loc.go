package collect

import (
	"context"
	"fmt"
)

// RepoHead is the default-branch summary of a single
// repository, used to detect stale cache lines.
type RepoHead struct {
	// NameWithOwner is "owner/name".
	NameWithOwner string
	// Commits is the default-branch history length.
	// Zero for empty repositories.
	Commits int
	// Empty is true when the repository has no default
	// branch.
	Empty bool
}

const repoHeadsQuery = `
query ($owner_affiliation: [RepositoryAffiliation], $login: String!, $cursor: String) {
    user(login: $login) {
        repositories(first: 60, after: $cursor, ownerAffiliations: $owner_affiliation) {
            edges {
                node {
                    ... on Repository {
                        nameWithOwner
                        defaultBranchRef {
                            target {
                                ... on Commit {
                                    history {
                                        totalCount
                                    }
                                }
                            }
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

// repoHeadsPage mirrors one page of the repository
// listing with default-branch history counts.
type repoHeadsPage struct {
	User struct {
		Repositories struct {
			Edges []struct {
				Node struct {
					NameWithOwner    string `json:"nameWithOwner"`
					DefaultBranchRef *struct {
						Target struct {
							History struct {
								TotalCount int `json:"totalCount"`
							} `json:"history"`
						} `json:"target"`
					} `json:"defaultBranchRef"`
				} `json:"node"`
			} `json:"edges"`
			PageInfo pageInfo `json:"pageInfo"`
		} `json:"repositories"`
	} `json:"user"`
}

// Repos lists every repository matching the affiliation
// filter together with its default-branch commit count.
func (c *Collector) Repos(
	ctx context.Context,
	affiliations []string,
) ([]RepoHead, error) {
	const errCtx = "listing repositories"

	var (
		heads  []RepoHead
		cursor *string
	)

	for {
		var out repoHeadsPage

		err := c.cl.Do(
			ctx,
			"repo_heads",
			repoHeadsQuery,
			c.pageVars(affiliations, cursor),
			&out,
		)
		if err != nil {
			return nil, fmt.Errorf(
				"%s: %w", errCtx, err,
			)
		}

		repos := out.User.Repositories

		for _, edge := range repos.Edges {
			head := RepoHead{
				NameWithOwner: edge.Node.NameWithOwner,
			}

			if edge.Node.DefaultBranchRef == nil {
				head.Empty = true
			} else {
				head.Commits = edge.Node.
					DefaultBranchRef.
					Target.History.TotalCount
			}

			heads = append(heads, head)
		}

		if !repos.PageInfo.HasNextPage {
			break
		}

		next := repos.PageInfo.EndCursor
		cursor = &next
	}

	return heads, nil
}

// LOC is the line-of-code contribution of the profile
// owner to a single repository.
type LOC struct {
	// Additions is the total lines added in commits
	// authored by the owner.
	Additions int
	// Deletions is the total lines deleted in commits
	// authored by the owner.
	Deletions int
	// Commits is the number of commits authored by the
	// owner.
	Commits int
}

const repoLOCQuery = `
query ($repo_name: String!, $owner: String!, $cursor: String) {
    repository(name: $repo_name, owner: $owner) {
        defaultBranchRef {
            target {
                ... on Commit {
                    history(first: 100, after: $cursor) {
                        totalCount
                        edges {
                            node {
                                ... on Commit {
                                    committedDate
                                }
                                author {
                                    user {
                                        id
                                    }
                                }
                                deletions
                                additions
                            }
                        }
                        pageInfo {
                            endCursor
                            hasNextPage
                        }
                    }
                }
            }
        }
    }
}`

// repoLOCPage mirrors one page of a repository's
// default-branch commit history.
type repoLOCPage struct {
	Repository struct {
		DefaultBranchRef *struct {
			Target struct {
				History struct {
					TotalCount int `json:"totalCount"`
					Edges      []struct {
						Node struct {
							Author *struct {
								User *struct {
									ID string `json:"id"`
								} `json:"user"`
							} `json:"author"`
							Additions int `json:"additions"`
							Deletions int `json:"deletions"`
						} `json:"node"`
					} `json:"edges"`
					PageInfo pageInfo `json:"pageInfo"`
				} `json:"history"`
			} `json:"target"`
		} `json:"defaultBranchRef"`
	} `json:"repository"`
}

// RepoLOC walks the full default-branch history of one
// repository and accumulates additions, deletions, and
// commit count for commits authored by authorID. A
// repository without a default branch yields zeros.
func (c *Collector) RepoLOC(
	ctx context.Context,
	owner string,
	name string,
	authorID string,
) (LOC, error) {
	const errCtx = "fetching repo loc"

	var (
		loc    LOC
		cursor *string
	)

	for {
		var out repoLOCPage

		vars := map[string]any{
			"repo_name": name,
			"owner":     owner,
		}

		if cursor != nil {
			vars["cursor"] = *cursor
		} else {
			vars["cursor"] = nil
		}

		err := c.cl.Do(
			ctx, "repo_loc", repoLOCQuery, vars, &out,
		)
		if err != nil {
			return loc, fmt.Errorf(
				"%s: %s/%s: %w",
				errCtx, owner, name, err,
			)
		}

		ref := out.Repository.DefaultBranchRef
		if ref == nil {
			return LOC{}, nil
		}

		history := ref.Target.History

		for _, edge := range history.Edges {
			author := edge.Node.Author
			if author == nil || author.User == nil {
				continue
			}

			if author.User.ID != authorID {
				continue
			}

			loc.Commits++
			loc.Additions += edge.Node.Additions
			loc.Deletions += edge.Node.Deletions
		}

		if len(history.Edges) == 0 ||
			!history.PageInfo.HasNextPage {
			break
		}

		next := history.PageInfo.EndCursor
		cursor = &next
	}

	return loc, nil
}
