package githubapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/debsync/internal/githubapi"
)

const (
	testOwnerConstant      = "robots"
	testRepositoryConstant = "arm"
	testBaseBranchConstant = "debian/jazzy/noble/pkg"
	testHeadBranchConstant = "sync-debian-jazzy-noble-pkg-abc1234"
	testPullRequestsPath   = "/repos/robots/arm/pulls"
)

func newTestProvider(testInstance *testing.T, handler http.Handler) *githubapi.Provider {
	testInstance.Helper()
	server := httptest.NewServer(handler)
	testInstance.Cleanup(server.Close)

	provider, creationError := githubapi.NewProviderWithHTTPClient(githubapi.Configuration{
		Owner:      testOwnerConstant,
		Repository: testRepositoryConstant,
		BaseURL:    server.URL,
	}, server.Client())
	require.NoError(testInstance, creationError)
	return provider
}

func TestNewProviderValidation(testInstance *testing.T) {
	testCases := []struct {
		name          string
		configuration githubapi.Configuration
		expectedError error
	}{
		{
			name:          "missing_token",
			configuration: githubapi.Configuration{Owner: testOwnerConstant, Repository: testRepositoryConstant},
			expectedError: githubapi.ErrTokenRequired,
		},
		{
			name:          "missing_repository",
			configuration: githubapi.Configuration{Token: "secret", Owner: testOwnerConstant},
			expectedError: githubapi.ErrRepositoryRequired,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			provider, creationError := githubapi.NewProvider(testCase.configuration)
			require.ErrorIs(testInstance, creationError, testCase.expectedError)
			require.Nil(testInstance, provider)
		})
	}

	provider, creationError := githubapi.NewProvider(githubapi.Configuration{Token: "secret", Owner: testOwnerConstant, Repository: testRepositoryConstant})
	require.NoError(testInstance, creationError)
	require.Equal(testInstance, "robots/arm", provider.Repository())
}

func TestCreatePullRequest(testInstance *testing.T) {
	var receivedPayload map[string]any
	provider := newTestProvider(testInstance, http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
		require.Equal(testInstance, http.MethodPost, request.Method)
		require.Equal(testInstance, testPullRequestsPath, request.URL.Path)
		require.NoError(testInstance, json.NewDecoder(request.Body).Decode(&receivedPayload))
		responseWriter.WriteHeader(http.StatusCreated)
		_, _ = responseWriter.Write([]byte(`{"number":17,"html_url":"https://github.com/robots/arm/pull/17"}`))
	}))

	pullRequest, createError := provider.CreatePullRequest(context.Background(), githubapi.PullRequestRequest{
		BaseBranch: testBaseBranchConstant,
		HeadBranch: testHeadBranchConstant,
		Title:      "Auto-sync: abc1234",
		Body:       "Source commit: abc",
	})
	require.NoError(testInstance, createError)
	require.Equal(testInstance, githubapi.PullRequest{Number: 17, URL: "https://github.com/robots/arm/pull/17"}, pullRequest)
	require.Equal(testInstance, testBaseBranchConstant, receivedPayload["base"])
	require.Equal(testInstance, testHeadBranchConstant, receivedPayload["head"])
	require.Equal(testInstance, "Auto-sync: abc1234", receivedPayload["title"])
}

func TestCreatePullRequestFailure(testInstance *testing.T) {
	provider := newTestProvider(testInstance, http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
		responseWriter.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = responseWriter.Write([]byte(`{"message":"Validation Failed"}`))
	}))

	_, createError := provider.CreatePullRequest(context.Background(), githubapi.PullRequestRequest{BaseBranch: testBaseBranchConstant, HeadBranch: testHeadBranchConstant, Title: "t"})
	var operationError githubapi.OperationError
	require.ErrorAs(testInstance, createError, &operationError)
	require.Equal(testInstance, testOwnerConstant, operationError.Owner)
}

func TestFindOpenPullRequest(testInstance *testing.T) {
	testCases := []struct {
		name          string
		responseBody  string
		expectedFound bool
		expected      githubapi.PullRequest
	}{
		{
			name:          "existing_pull_request",
			responseBody:  `[{"number":9,"html_url":"https://github.com/robots/arm/pull/9"}]`,
			expectedFound: true,
			expected:      githubapi.PullRequest{Number: 9, URL: "https://github.com/robots/arm/pull/9"},
		},
		{
			name:         "no_pull_request",
			responseBody: `[]`,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			provider := newTestProvider(testInstance, http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
				require.Equal(testInstance, http.MethodGet, request.Method)
				require.Equal(testInstance, testPullRequestsPath, request.URL.Path)
				require.Equal(testInstance, "open", request.URL.Query().Get("state"))
				require.Equal(testInstance, testBaseBranchConstant, request.URL.Query().Get("base"))
				require.Equal(testInstance, testOwnerConstant+":"+testHeadBranchConstant, request.URL.Query().Get("head"))
				_, _ = responseWriter.Write([]byte(testCase.responseBody))
			}))

			pullRequest, found, findError := provider.FindOpenPullRequest(context.Background(), testBaseBranchConstant, testHeadBranchConstant)
			require.NoError(testInstance, findError)
			require.Equal(testInstance, testCase.expectedFound, found)
			require.Equal(testInstance, testCase.expected, pullRequest)
		})
	}
}
