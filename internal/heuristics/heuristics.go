// Package heuristics holds the pure classification rules applied to PRs and
// their activity.
package heuristics

import (
	"strings"

	"github.com/spiffcs/prwatch/internal/model"
)

// botMarkers are substrings that identify well-known automation accounts.
// Accounts containing one of these are never treated as human even when the
// API reports them as type "User".
var botMarkers = []string{
	"dependabot",
	"renovate",
	"codecov",
	"github-actions",
	"mergify",
	"semantic-release",
	"vercel",
	"netlify",
}

// CIStatusFrom aggregates status checks. Failure takes precedence over
// pending; success requires every check to pass.
func CIStatusFrom(checks []model.StatusCheck) model.CIStatus {
	if len(checks) == 0 {
		return model.CIUnknown
	}

	allSuccess := true
	for _, c := range checks {
		if c.Failed() {
			return model.CIFailure
		}
		if !c.Succeeded() {
			allSuccess = false
		}
	}
	if allSuccess {
		return model.CISuccess
	}
	return model.CIPending
}

// ReviewStatusFrom maps a reviewDecision value.
func ReviewStatusFrom(decision string) model.ReviewStatus {
	switch decision {
	case "APPROVED":
		return model.ReviewApproved
	case "CHANGES_REQUESTED":
		return model.ReviewChangesRequested
	case "REVIEW_REQUIRED":
		return model.ReviewPending
	default:
		return model.ReviewUnknown
	}
}

// IsRealUser reports whether login looks like a human other than self.
func IsRealUser(login, self string) bool {
	if login == "" {
		return false
	}
	l := strings.ToLower(login)
	if self != "" && l == strings.ToLower(self) {
		return false
	}
	if strings.HasSuffix(l, "[bot]") || strings.HasSuffix(l, "-bot") {
		return false
	}
	for _, marker := range botMarkers {
		if strings.Contains(l, marker) {
			return false
		}
	}
	return true
}

// AttentionReasons returns the ordered reasons a PR needs attention.
func AttentionReasons(mergeable string, checks []model.StatusCheck) []model.AttentionReason {
	var reasons []model.AttentionReason
	if mergeable == model.MergeableConflicting {
		reasons = append(reasons, model.ReasonConflicts)
	}
	if CIStatusFrom(checks) == model.CIFailure {
		reasons = append(reasons, model.ReasonCIFailure)
	}
	return reasons
}

// FailingCheck returns the name of the first failing check in rollup order.
func FailingCheck(checks []model.StatusCheck) string {
	for _, c := range checks {
		if c.Failed() {
			return c.DisplayName()
		}
	}
	return ""
}

// Mentions reports whether body contains a literal @username mention. The
// match is case-sensitive.
func Mentions(body, username string) bool {
	if username == "" {
		return false
	}
	return strings.Contains(body, "@"+username)
}
