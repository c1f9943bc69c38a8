package gitrepo

import (
	"fmt"
	"strings"
)

const (
	sshProtocolPrefixConstant           = "ssh://"
	sshUserDelimiterConstant            = "@"
	sshPathDelimiterConstant            = ":"
	httpsProtocolPrefixConstant         = "https://"
	httpProtocolPrefixConstant          = "http://"
	urlPathSeparatorConstant            = "/"
	gitSuffixConstant                   = ".git"
	remoteURLParseErrorTemplateConstant = "%s: %s"
	invalidRemoteURLMessageConstant     = "invalid remote url"
)

// RemoteProtocol enumerates supported git remote protocols.
type RemoteProtocol string

// Supported remote protocols.
const (
	RemoteProtocolSSH   RemoteProtocol = RemoteProtocol("ssh")
	RemoteProtocolHTTPS RemoteProtocol = RemoteProtocol("https")
)

// RemoteURL represents a structured git remote URL.
type RemoteURL struct {
	Protocol   RemoteProtocol
	Host       string
	Owner      string
	Repository string
}

// RemoteURLParseError indicates a remote string could not be parsed.
type RemoteURLParseError struct {
	Input   string
	Message string
}

// Error describes the parse failure.
func (parseError RemoteURLParseError) Error() string {
	return fmt.Sprintf(remoteURLParseErrorTemplateConstant, parseError.Input, parseError.Message)
}

// ParseRemoteURL converts scp-like, ssh:// and http(s):// remotes into a structured representation.
func ParseRemoteURL(remote string) (RemoteURL, error) {
	trimmedRemote := strings.TrimSpace(remote)
	if len(trimmedRemote) == 0 {
		return RemoteURL{}, RemoteURLParseError{Input: remote, Message: requiredValueMessageConstant}
	}

	switch {
	case strings.HasPrefix(trimmedRemote, sshProtocolPrefixConstant):
		return parseSSHURLRemote(remote, strings.TrimPrefix(trimmedRemote, sshProtocolPrefixConstant))
	case strings.HasPrefix(trimmedRemote, httpsProtocolPrefixConstant):
		return parseHTTPRemote(remote, strings.TrimPrefix(trimmedRemote, httpsProtocolPrefixConstant))
	case strings.HasPrefix(trimmedRemote, httpProtocolPrefixConstant):
		return parseHTTPRemote(remote, strings.TrimPrefix(trimmedRemote, httpProtocolPrefixConstant))
	case strings.Contains(trimmedRemote, sshUserDelimiterConstant) && strings.Contains(trimmedRemote, sshPathDelimiterConstant):
		return parseSCPRemote(remote, trimmedRemote)
	}

	return RemoteURL{}, RemoteURLParseError{Input: remote, Message: invalidRemoteURLMessageConstant}
}

// parseSCPRemote handles "git@github.com:owner/repo.git".
func parseSCPRemote(originalInput string, remote string) (RemoteURL, error) {
	hostAndPath := remote[strings.Index(remote, sshUserDelimiterConstant)+1:]
	pathSplitIndex := strings.Index(hostAndPath, sshPathDelimiterConstant)
	if pathSplitIndex <= 0 {
		return RemoteURL{}, RemoteURLParseError{Input: originalInput, Message: invalidRemoteURLMessageConstant}
	}
	return buildRemoteURL(originalInput, RemoteProtocolSSH, hostAndPath[:pathSplitIndex], hostAndPath[pathSplitIndex+1:])
}

// parseSSHURLRemote handles "ssh://git@github.com[:port]/owner/repo.git".
func parseSSHURLRemote(originalInput string, remote string) (RemoteURL, error) {
	if userSplitIndex := strings.Index(remote, sshUserDelimiterConstant); userSplitIndex >= 0 {
		remote = remote[userSplitIndex+1:]
	}
	slashIndex := strings.Index(remote, urlPathSeparatorConstant)
	if slashIndex <= 0 {
		return RemoteURL{}, RemoteURLParseError{Input: originalInput, Message: invalidRemoteURLMessageConstant}
	}
	host := remote[:slashIndex]
	if portIndex := strings.Index(host, sshPathDelimiterConstant); portIndex >= 0 {
		host = host[:portIndex]
	}
	return buildRemoteURL(originalInput, RemoteProtocolSSH, host, remote[slashIndex+1:])
}

// parseHTTPRemote handles "https://[user@]github.com/owner/repo[.git]".
func parseHTTPRemote(originalInput string, remote string) (RemoteURL, error) {
	slashIndex := strings.Index(remote, urlPathSeparatorConstant)
	if slashIndex <= 0 {
		return RemoteURL{}, RemoteURLParseError{Input: originalInput, Message: invalidRemoteURLMessageConstant}
	}
	host := remote[:slashIndex]
	if credentialIndex := strings.LastIndex(host, sshUserDelimiterConstant); credentialIndex >= 0 {
		host = host[credentialIndex+1:]
	}
	return buildRemoteURL(originalInput, RemoteProtocolHTTPS, host, remote[slashIndex+1:])
}

func buildRemoteURL(originalInput string, protocol RemoteProtocol, host string, path string) (RemoteURL, error) {
	segments := strings.Split(strings.Trim(path, urlPathSeparatorConstant), urlPathSeparatorConstant)
	if len(host) == 0 || len(segments) != 2 || len(segments[0]) == 0 {
		return RemoteURL{}, RemoteURLParseError{Input: originalInput, Message: invalidRemoteURLMessageConstant}
	}
	repository := strings.TrimSuffix(segments[1], gitSuffixConstant)
	if len(repository) == 0 {
		return RemoteURL{}, RemoteURLParseError{Input: originalInput, Message: invalidRemoteURLMessageConstant}
	}
	return RemoteURL{Protocol: protocol, Host: host, Owner: segments[0], Repository: repository}, nil
}
