package fetch

import (
	_ "embed"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spiffcs/prwatch/internal/constants"
)

//go:embed queries/notifications.jq
var notificationsFilter string

const (
	openPRFields   = "number,title,url,updatedAt,createdAt,isDraft,repository"
	closedPRFields = "number,title,url,updatedAt,createdAt,isDraft,repository,closedAt"
	reviewFields   = "number,title,url,updatedAt,author,repository"
	issueFields    = "number,title,url,commentsCount,updatedAt,repository"
	detailFields   = "mergeable,reviewDecision,statusCheckRollup,comments,reviews,reviewRequests"
	previewFields  = "additions,deletions,files,reviewRequests,latestReviews,statusCheckRollup,createdAt,updatedAt"
)

var limit = strconv.Itoa(constants.SearchLimit)

func usernameArgs() []string {
	return []string{"api", "user", "--jq", ".login"}
}

func openPRArgs() []string {
	return []string{"search", "prs", "--author=@me", "--state=open", "--json", openPRFields, "--limit", limit}
}

func mergedPRArgs(since time.Time) []string {
	return []string{"search", "prs", "--author=@me", "--merged", "--merged-at=>=" + day(since), "--json", closedPRFields, "--limit", limit}
}

func closedPRArgs(since time.Time) []string {
	return []string{"search", "prs", "--author=@me", "--state=closed", "--closed=>=" + day(since), "--json", closedPRFields, "--limit", limit}
}

func reviewRequestArgs() []string {
	return []string{"search", "prs", "--review-requested=@me", "--state=open", "--json", reviewFields, "--limit", limit}
}

func issueArgs(since time.Time) []string {
	return []string{"search", "issues", "--involves=@me", "--state=open", "--updated=>=" + instant(since), "--json", issueFields, "--limit", limit}
}

func notificationArgs(since time.Time) []string {
	return []string{"api", "notifications", "--paginate", "-X", "GET", "-f", "since=" + instant(since), "--jq", compactFilter(notificationsFilter)}
}

func prDetailArgs(repo string, number int) []string {
	return []string{"pr", "view", strconv.Itoa(number), "--repo", repo, "--json", detailFields}
}

func previewArgs(repo string, number int) []string {
	return []string{"pr", "view", strconv.Itoa(number), "--repo", repo, "--json", previewFields}
}

// REST list endpoints are fetched in full; --slurp wraps the pages in an
// outer array, see DecodePages.
func issueCommentsArgs(repo string, number int) []string {
	return []string{"api", "--paginate", "--slurp", fmt.Sprintf("repos/%s/issues/%d/comments?per_page=%d", repo, number, constants.RESTPageSize)}
}

func prReviewsArgs(repo string, number int) []string {
	return []string{"api", "--paginate", "--slurp", fmt.Sprintf("repos/%s/pulls/%d/reviews?per_page=%d", repo, number, constants.RESTPageSize)}
}

func day(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}

func instant(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05Z")
}

// compactFilter joins a multi-line jq program onto one line.
func compactFilter(filter string) string {
	return strings.Join(strings.Fields(filter), " ")
}
