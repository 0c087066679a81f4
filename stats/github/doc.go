// Package github wraps the GitHub REST API for the preflight step of a
// stats run: it proves the access token works and reports how much
// GraphQL rate budget is left before the collectors start spending it.
// Configure with a Config containing the personal access token; set
// EnterpriseHost for GitHub Enterprise installations.
package github
