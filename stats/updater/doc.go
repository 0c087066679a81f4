// Package updater orchestrates a full profile stats refresh. Run takes
// an exclusive run lock, preflights the token, collects every stat
// through the GraphQL collectors with the LOC cache in front of the
// heavy history queries, rewrites the SVG cards and templates, and
// commits and pushes the result when anything changed.
//
// The main entry point is Run, which accepts a Config struct with all
// parameters for the workflow.
package updater
