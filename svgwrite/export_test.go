package svgwrite

// Exported aliases for testing unexported helpers from
// the svgwrite_test package.

// DotLeaderForTest exposes dotLeader.
var DotLeaderForTest = dotLeader
