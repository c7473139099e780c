// Package urlutil provides URL parsing utilities.
package urlutil

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	apiPrefix = "https://api.github.com/repos/"
	webPrefix = "https://github.com/"
)

// ExtractIssueNumber extracts the issue/PR number from the API URL.
func ExtractIssueNumber(apiURL string) (int, error) {
	// URL format: https://api.github.com/repos/owner/repo/issues/123
	// or: https://api.github.com/repos/owner/repo/pulls/123
	parts := strings.Split(apiURL, "/")
	if len(parts) < 2 {
		return 0, fmt.Errorf("invalid API URL format: %s", apiURL)
	}

	numStr := parts[len(parts)-1]
	num, err := strconv.Atoi(numStr)
	if err != nil {
		return 0, fmt.Errorf("failed to parse issue number from URL %s: %w", apiURL, err)
	}

	return num, nil
}

// SubjectRef labels a notification subject as "owner/repo#N", or just the
// repository when the subject has no number (commits, releases).
func SubjectRef(repository, apiURL string) string {
	if !strings.HasPrefix(apiURL, apiPrefix) {
		return repository
	}
	n, err := ExtractIssueNumber(apiURL)
	if err != nil {
		return repository
	}
	return repository + "#" + strconv.Itoa(n)
}

// WebURL maps a REST subject URL from a notification to the page a browser
// should open. Pull request paths use "pull" on the web, and commits and
// releases fall back to the repository page. URLs that are not API URLs are
// returned unchanged.
func WebURL(apiURL string) string {
	rest, ok := strings.CutPrefix(apiURL, apiPrefix)
	if !ok {
		return apiURL
	}

	parts := strings.Split(rest, "/")
	if len(parts) < 2 {
		return apiURL
	}
	repo := webPrefix + parts[0] + "/" + parts[1]
	if len(parts) < 4 {
		return repo
	}

	switch parts[2] {
	case "pulls":
		return repo + "/pull/" + parts[3]
	case "issues":
		return repo + "/issues/" + parts[3]
	default:
		return repo
	}
}
