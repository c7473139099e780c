// Package constants provides a centralized location for default values and
// magic numbers used throughout prwatch.
package constants

import "time"

// Settings defaults
const (
	// DefaultRefreshIntervalMinutes is how often the watcher refreshes.
	DefaultRefreshIntervalMinutes = 5

	// DefaultMergedDays is the lookback window for merged and closed PRs.
	DefaultMergedDays = 3

	// DefaultNotificationHours is the lookback window for notifications and issues.
	DefaultNotificationHours = 24

	// MinRefreshInterval is the smallest interval the scheduler accepts.
	MinRefreshInterval = time.Minute
)

// Subprocess limits
const (
	// DefaultMaxConcurrency caps concurrent gh processes.
	DefaultMaxConcurrency = 8

	// DefaultCommandTimeout bounds a single gh invocation.
	DefaultCommandTimeout = 30 * time.Second
)

// Search limits
const (
	// SearchLimit is the --limit passed to gh search commands.
	SearchLimit = 100

	// RESTPageSize is the per_page of each page of raw comment and review fetches.
	RESTPageSize = 100
)

// Preview constants
const (
	// PreviewTopFiles is how many changed files a preview keeps.
	PreviewTopFiles = 5

	// PreviewMentionComments is how many mentioning comments a preview keeps.
	PreviewMentionComments = 3

	// FocusGracePeriod delays clearing the focused preview so moving between
	// adjacent rows does not flicker.
	FocusGracePeriod = 150 * time.Millisecond
)

// Persisted state keys
const (
	// KeyMutedPRs holds the set of muted PR identities.
	KeyMutedPRs = "mutedPRs"

	// KeyMuteTimestamps holds identity -> epoch seconds of the mute.
	KeyMuteTimestamps = "muteTimestamps"
)
