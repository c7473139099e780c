package model

// CIStatus is the aggregate outcome of a PR's checks.
type CIStatus string

const (
	CIUnknown CIStatus = "unknown"
	CIPending CIStatus = "pending"
	CISuccess CIStatus = "success"
	CIFailure CIStatus = "failure"
)

// ReviewStatus is the normalized reviewDecision.
type ReviewStatus string

const (
	ReviewUnknown          ReviewStatus = "unknown"
	ReviewPending          ReviewStatus = "pending"
	ReviewApproved         ReviewStatus = "approved"
	ReviewChangesRequested ReviewStatus = "changesRequested"
)

// AttentionReason explains why a PR is flagged.
type AttentionReason string

const (
	ReasonConflicts AttentionReason = "conflicts"
	ReasonCIFailure AttentionReason = "ci_failure"
)

// Display returns a short human label.
func (r AttentionReason) Display() string {
	switch r {
	case ReasonConflicts:
		return "merge conflicts"
	case ReasonCIFailure:
		return "CI failing"
	default:
		return string(r)
	}
}
