// Package migrate implements the CodeQL Action upgrade pipeline: it searches
// GitHub for repositories whose workflows still pin codeql-action@v2, clones
// each match, rewrites the pinned references to v3, and opens a pull request
// with the updated workflow files. Repositories are processed independently
// through a bounded worker pool and every repository yields an outcome record
// regardless of where its pipeline stopped.
package migrate
