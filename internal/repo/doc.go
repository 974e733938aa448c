// Package repo resolves the repository URL and revision used to link
// rendered records back to their source.
//
// Detect walks up from a path to the enclosing git checkout and reads the
// origin remote and HEAD with go-git. NormalizeRemoteURL turns ssh and
// scp-style remotes into browsable https URLs. A checkout without commits
// links to DefaultRevision.
package repo
