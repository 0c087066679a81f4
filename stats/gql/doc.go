// Package gql is the GraphQL transport for the stats collectors. It
// posts queries to the GitHub v4 API with a retrying HTTP client,
// surfaces the undocumented HTTP 403 anti-abuse limit as ErrRateAbuse,
// and keeps per-query call counters for the run summary.
package gql
