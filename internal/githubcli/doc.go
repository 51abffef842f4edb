// Package githubcli wraps the GitHub CLI with typed operations for code
// search, repository metadata lookup, branch creation, file commits, and
// pull request creation. All remote access happens through gh so the
// operator's existing authentication and proxy setup is reused.
package githubcli
