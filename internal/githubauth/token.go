// Package githubauth resolves GitHub authentication tokens from the
// environment so commands can fail fast before touching the network.
package githubauth

import (
	"errors"
	"os"
	"strings"
)

// Environment variable names used by GitHub authentication helpers.
const (
	EnvGitHubCLIToken = "GH_TOKEN"
	EnvGitHubToken    = "GITHUB_TOKEN"
	EnvGitHubAPIToken = "GITHUB_API_TOKEN"
)

const missingTokenMessageConstant = "no GitHub token found; set GH_TOKEN, GITHUB_TOKEN, or GITHUB_API_TOKEN"

// ErrTokenNotFound indicates none of the recognized environment variables held a token.
var ErrTokenNotFound = errors.New(missingTokenMessageConstant)

var tokenPreference = []string{
	EnvGitHubCLIToken,
	EnvGitHubToken,
	EnvGitHubAPIToken,
}

// ResolveToken returns the first non-empty GitHub authentication token observed
// in the provided environment map or the process environment.
func ResolveToken(environment map[string]string) (string, bool) {
	for _, key := range tokenPreference {
		if value, ok := lookup(environment, key); ok {
			return value, true
		}
	}
	for _, key := range tokenPreference {
		if value, ok := os.LookupEnv(key); ok {
			value = strings.TrimSpace(value)
			if len(value) > 0 {
				return value, true
			}
		}
	}
	return "", false
}

// RequireToken resolves a token and converts absence into ErrTokenNotFound.
func RequireToken(environment map[string]string) (string, error) {
	token, found := ResolveToken(environment)
	if !found {
		return "", ErrTokenNotFound
	}
	return token, nil
}

func lookup(environment map[string]string, key string) (string, bool) {
	if environment == nil {
		return "", false
	}
	value, exists := environment[key]
	if !exists {
		return "", false
	}
	value = strings.TrimSpace(value)
	if len(value) == 0 {
		return "", false
	}
	return value, true
}
