// Package githubapi opens and finds sync pull requests through the GitHub REST API.
package githubapi
