// Package collect runs the GitHub GraphQL queries that feed a stats
// run: account identity, follower count, repository and star counts,
// contribution calendar totals, and per-repository lines-of-code
// history attributed to the profile owner.
//
// Star listings and commit histories paginate 100 at a time; the
// repository head listing carries a nested history count per node, so
// it uses pages of 60 to stay under the API's node limits.
package collect
