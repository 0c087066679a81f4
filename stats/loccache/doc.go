// Package loccache maintains the on-disk lines-of-code cache that lets
// a stats run skip repositories whose history has not moved. Each user
// gets one file named by the SHA256 of the login, holding a preserved
// comment block followed by one record per repository:
//
//	<sha256(owner/name)> <commits> <myCommits> <additions> <deletions>
//
// A record goes stale when the live default-branch commit count differs
// from the recorded one; stale records are re-fetched with bounded
// parallelism and the file is rewritten even when a fetch fails, so a
// crashed run never loses the progress it made.
//
// The package also reads the companion repository_archive.txt file,
// which preserves contributions from repositories deleted from GitHub.
package loccache
