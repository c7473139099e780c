// Package model contains the records prwatch aggregates. Field tags match the
// JSON that gh emits so payloads decode without an intermediate layer.
package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Repository identifies a repository by its owner/name slug.
type Repository struct {
	NameWithOwner string `json:"nameWithOwner"`
}

// Mergeable states reported by gh.
const (
	MergeableConflicting = "CONFLICTING"
	MergeableMergeable   = "MERGEABLE"
	MergeableUnknown     = "UNKNOWN"
)

// PullRequest is a PR authored by the user. Core fields come from search;
// the enrichment and merged sections stay zero until those stages run.
type PullRequest struct {
	Number     int        `json:"number"`
	Title      string     `json:"title"`
	URL        string     `json:"url"`
	UpdatedAt  time.Time  `json:"updatedAt"`
	CreatedAt  *time.Time `json:"createdAt,omitempty"`
	IsDraft    bool       `json:"isDraft"`
	Repository Repository `json:"repository"`

	// Enrichment
	Enriched         bool              `json:"enriched,omitempty"`
	Mergeable        string            `json:"mergeable,omitempty"`
	ReviewDecision   string            `json:"reviewDecision,omitempty"`
	StatusChecks     []StatusCheck     `json:"statusCheckRollup,omitempty"`
	NeedsAttention   bool              `json:"needsAttention,omitempty"`
	AttentionReasons []AttentionReason `json:"attentionReasons,omitempty"`
	CommentCount     int               `json:"commentCount,omitempty"`
	ApprovalsCount   int               `json:"approvalsCount,omitempty"`
	ReviewersCount   int               `json:"reviewersCount,omitempty"`
	FailingCheck     string            `json:"failingCheck,omitempty"`

	// Merged
	MergedAt            *time.Time `json:"mergedAt,omitempty"`
	Additions           int        `json:"additions,omitempty"`
	Deletions           int        `json:"deletions,omitempty"`
	HasExternalActivity Tristate   `json:"hasExternalActivity,omitempty"`

	// Closed
	ClosedAt *time.Time `json:"closedAt,omitempty"`
}

// ID returns the stable identity "owner/name#number".
func (p PullRequest) ID() string {
	return FormatID(p.Repository.NameWithOwner, p.Number)
}

// Repo returns the repository slug.
func (p PullRequest) Repo() string {
	return p.Repository.NameWithOwner
}

// SortTime is mergedAt when known, else updatedAt.
func (p PullRequest) SortTime() time.Time {
	if p.MergedAt != nil {
		return *p.MergedAt
	}
	return p.UpdatedAt
}

// ReviewRequest is an open PR on which the user's review was requested.
type ReviewRequest struct {
	Number     int        `json:"number"`
	Title      string     `json:"title"`
	URL        string     `json:"url"`
	UpdatedAt  time.Time  `json:"updatedAt"`
	Author     Actor      `json:"author"`
	Repository Repository `json:"repository"`
}

// ID returns the same identity format as PullRequest.
func (r ReviewRequest) ID() string {
	return FormatID(r.Repository.NameWithOwner, r.Number)
}

// Actor is a GitHub account as gh reports it in --json output.
type Actor struct {
	Login string `json:"login"`
}

// FormatID builds a PR identity.
func FormatID(repo string, number int) string {
	return fmt.Sprintf("%s#%d", repo, number)
}

// ParseID splits a PR identity into its repository slug and number.
func ParseID(id string) (string, int, error) {
	i := strings.LastIndex(id, "#")
	if i <= 0 || i == len(id)-1 {
		return "", 0, fmt.Errorf("invalid pull request id %q: expected owner/name#number", id)
	}
	repo := id[:i]
	if !strings.Contains(repo, "/") {
		return "", 0, fmt.Errorf("invalid pull request id %q: repository must be owner/name", id)
	}
	n, err := strconv.Atoi(id[i+1:])
	if err != nil || n <= 0 {
		return "", 0, fmt.Errorf("invalid pull request id %q: bad number", id)
	}
	return repo, n, nil
}

// Identifiable is implemented by every collection record.
type Identifiable interface {
	ID() string
}

// Dedupe drops records whose identity has already been seen. The first
// occurrence wins and order is preserved.
func Dedupe[T Identifiable](items []T) []T {
	seen := make(map[string]struct{}, len(items))
	out := make([]T, 0, len(items))
	for _, item := range items {
		id := item.ID()
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, item)
	}
	return out
}
