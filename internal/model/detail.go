package model

import "time"

// PRDetail is the payload of `gh pr view --json mergeable,reviewDecision,
// statusCheckRollup,comments,reviews,reviewRequests`.
type PRDetail struct {
	Mergeable         string          `json:"mergeable"`
	ReviewDecision    string          `json:"reviewDecision"`
	StatusCheckRollup []StatusCheck   `json:"statusCheckRollup"`
	Comments          []DetailComment `json:"comments"`
	Reviews           []DetailReview  `json:"reviews"`
	ReviewRequests    []Requestee     `json:"reviewRequests"`
}

// DetailComment is a PR conversation comment from gh pr view.
type DetailComment struct {
	Author    Actor     `json:"author"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

// DetailReview is a review from gh pr view.
type DetailReview struct {
	Author      Actor      `json:"author"`
	State       string     `json:"state"`
	Body        string     `json:"body,omitempty"`
	SubmittedAt *time.Time `json:"submittedAt,omitempty"`
}

// Review states.
const (
	ReviewStateApproved         = "APPROVED"
	ReviewStateChangesRequested = "CHANGES_REQUESTED"
	ReviewStateCommented        = "COMMENTED"
)

// Requestee is a pending review request: a user (login) or a team (name).
type Requestee struct {
	Login string `json:"login,omitempty"`
	Name  string `json:"name,omitempty"`
}

// Key returns the login for users and the name for teams.
func (r Requestee) Key() string {
	if r.Login != "" {
		return r.Login
	}
	return r.Name
}

// PreviewPayload is the payload of `gh pr view --json additions,deletions,
// files,reviewRequests,latestReviews,statusCheckRollup,createdAt,updatedAt`.
type PreviewPayload struct {
	Additions         int            `json:"additions"`
	Deletions         int            `json:"deletions"`
	Files             []ChangedFile  `json:"files"`
	ReviewRequests    []Requestee    `json:"reviewRequests"`
	LatestReviews     []DetailReview `json:"latestReviews"`
	StatusCheckRollup []StatusCheck  `json:"statusCheckRollup"`
	CreatedAt         time.Time      `json:"createdAt"`
	UpdatedAt         time.Time      `json:"updatedAt"`
}

// ChangedFile is one file touched by a PR.
type ChangedFile struct {
	Path      string `json:"path"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
}

// Total is additions plus deletions.
func (f ChangedFile) Total() int {
	return f.Additions + f.Deletions
}

// PreviewDetails is the on-demand detail shown for a focused PR.
type PreviewDetails struct {
	Additions        int               `json:"additions"`
	Deletions        int               `json:"deletions"`
	Files            []ChangedFile     `json:"files"`
	PendingReviewers []string          `json:"pendingReviewers"`
	Reviews          []CompletedReview `json:"reviews"`
	FailedRuns       []FailedRun       `json:"failedRuns"`
	Mentions         []MentionComment  `json:"mentions"`
	CreatedAt        time.Time         `json:"createdAt"`
	UpdatedAt        time.Time         `json:"updatedAt"`
}

// CompletedReview is a submitted review shown in a preview.
type CompletedReview struct {
	Author      string    `json:"author"`
	State       string    `json:"state"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// FailedRun is a failing check with a link to its logs.
type FailedRun struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// MentionComment is a comment that mentions the user.
type MentionComment struct {
	Author    string    `json:"author"`
	Body      string    `json:"body"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"createdAt"`
}
