package model

import (
	"maps"
	"slices"
	"time"
)

// Snapshot is the complete state produced by one refresh cycle. Published
// snapshots are never mutated; consumers receive clones.
type Snapshot struct {
	OpenPRs        []PullRequest   `json:"openPRs"`
	MergedPRs      []PullRequest   `json:"mergedPRs"`
	ClosedPRs      []PullRequest   `json:"closedPRs"`
	ReviewRequests []ReviewRequest `json:"reviewRequests"`
	Notifications  []Notification  `json:"notifications"`
	Issues         []Issue         `json:"issues"`

	Loading     bool                 `json:"loading"`
	LastError   string               `json:"lastError,omitempty"`
	LastUpdated time.Time            `json:"lastUpdated"`
	Username    string               `json:"username,omitempty"`
	Muted       map[string]time.Time `json:"muted,omitempty"`
}

// Clone returns a copy that shares no slices or maps with s.
func (s Snapshot) Clone() Snapshot {
	c := s
	c.OpenPRs = clonePRs(s.OpenPRs)
	c.MergedPRs = clonePRs(s.MergedPRs)
	c.ClosedPRs = clonePRs(s.ClosedPRs)
	c.ReviewRequests = slices.Clone(s.ReviewRequests)
	c.Notifications = slices.Clone(s.Notifications)
	c.Issues = slices.Clone(s.Issues)
	c.Muted = maps.Clone(s.Muted)
	return c
}

func clonePRs(prs []PullRequest) []PullRequest {
	if prs == nil {
		return nil
	}
	out := make([]PullRequest, len(prs))
	for i, pr := range prs {
		pr.StatusChecks = slices.Clone(pr.StatusChecks)
		pr.AttentionReasons = slices.Clone(pr.AttentionReasons)
		out[i] = pr
	}
	return out
}

// IsMuted reports whether the PR identity is muted in this snapshot.
func (s Snapshot) IsMuted(id string) bool {
	_, ok := s.Muted[id]
	return ok
}

// AttentionPRs returns open PRs that need attention and are not muted.
func (s Snapshot) AttentionPRs() []PullRequest {
	var out []PullRequest
	for _, pr := range s.OpenPRs {
		if pr.NeedsAttention && !s.IsMuted(pr.ID()) {
			out = append(out, pr)
		}
	}
	return out
}

// Summary holds the derived counts shown as badges.
type Summary struct {
	Attention      int `json:"attention"`
	Open           int `json:"open"`
	ReviewRequests int `json:"reviewRequests"`
	Notifications  int `json:"notifications"`
	Issues         int `json:"issues"`
	Merged         int `json:"merged"`
	Closed         int `json:"closed"`
	Muted          int `json:"muted"`
}

// Total is the number of items asking for the user: attention PRs plus
// review requests.
func (s Summary) Total() int {
	return s.Attention + s.ReviewRequests
}

// Summary computes derived counts.
func (s Snapshot) Summary() Summary {
	return Summary{
		Attention:      len(s.AttentionPRs()),
		Open:           len(s.OpenPRs),
		ReviewRequests: len(s.ReviewRequests),
		Notifications:  len(s.Notifications),
		Issues:         len(s.Issues),
		Merged:         len(s.MergedPRs),
		Closed:         len(s.ClosedPRs),
		Muted:          len(s.Muted),
	}
}

// Change describes what moved between two snapshots.
type Change struct {
	// NewAttention are PR ids that need attention now but did not before.
	NewAttention []string
	// NewReviewRequests are review request ids not present before.
	NewReviewRequests []string
	// Resolved are PR ids that needed attention before but no longer do.
	Resolved []string
	// CountsChanged is set when any derived count differs.
	CountsChanged bool
	// StatusChanged is set when loading or the error message differs.
	StatusChanged bool
}

// Any reports whether anything changed.
func (c Change) Any() bool {
	return c.CountsChanged || c.StatusChanged ||
		len(c.NewAttention) > 0 || len(c.NewReviewRequests) > 0 || len(c.Resolved) > 0
}

// Changed diffs two snapshots so consumers can react to transitions without
// holding onto their own derived state.
func Changed(prev, next Snapshot) Change {
	prevAttention := idSet(prev.AttentionPRs())
	nextAttention := idSet(next.AttentionPRs())
	prevReviews := idSet(prev.ReviewRequests)

	var c Change
	for _, pr := range next.AttentionPRs() {
		if _, ok := prevAttention[pr.ID()]; !ok {
			c.NewAttention = append(c.NewAttention, pr.ID())
		}
	}
	for _, pr := range prev.AttentionPRs() {
		if _, ok := nextAttention[pr.ID()]; !ok {
			c.Resolved = append(c.Resolved, pr.ID())
		}
	}
	for _, rr := range next.ReviewRequests {
		if _, ok := prevReviews[rr.ID()]; !ok {
			c.NewReviewRequests = append(c.NewReviewRequests, rr.ID())
		}
	}
	c.CountsChanged = prev.Summary() != next.Summary()
	c.StatusChanged = prev.Loading != next.Loading || prev.LastError != next.LastError
	return c
}

func idSet[T Identifiable](items []T) map[string]struct{} {
	m := make(map[string]struct{}, len(items))
	for _, item := range items {
		m[item.ID()] = struct{}{}
	}
	return m
}
