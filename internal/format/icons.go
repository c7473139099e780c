package format

import "github.com/spiffcs/prwatch/internal/model"

// Icon strings for display (renderers can apply their own styling)
const (
	// AttentionIcon marks a PR that needs the author's attention.
	// Using U+26A0 + U+FE0F to force emoji presentation for consistent 2-column width.
	AttentionIcon = "\u26A0\uFE0F" // ⚠️

	// MutedIcon marks a muted PR.
	MutedIcon = "\U0001F515" // 🔕

	// CISuccessIcon, CIFailureIcon and CIPendingIcon describe the rollup.
	CISuccessIcon = "\u2713" // ✓
	CIFailureIcon = "\u2717" // ✗
	CIPendingIcon = "\u25CB" // ○

	// IconWidth is the display width reserved for the icon column (emoji=2 + space=1).
	IconWidth = 3
)

// CIIcon returns the glyph for a CI status, or "" when unknown.
func CIIcon(s model.CIStatus) string {
	switch s {
	case model.CISuccess:
		return CISuccessIcon
	case model.CIFailure:
		return CIFailureIcon
	case model.CIPending:
		return CIPendingIcon
	default:
		return ""
	}
}

// ReviewLabel returns a short label for a review status, or "" when unknown.
func ReviewLabel(s model.ReviewStatus) string {
	switch s {
	case model.ReviewApproved:
		return "approved"
	case model.ReviewChangesRequested:
		return "changes"
	case model.ReviewPending:
		return "review"
	default:
		return ""
	}
}

// RowIcon decides which icon (if any) leads a PR row. Muted takes precedence
// over attention so a muted PR never looks actionable.
func RowIcon(pr model.PullRequest, muted bool) string {
	if muted {
		return MutedIcon
	}
	if pr.NeedsAttention {
		return AttentionIcon
	}
	return ""
}
