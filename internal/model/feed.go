package model

import (
	"fmt"
	"time"
)

// Notification is one entry of the user's notification feed. The feed is
// display-only, so the identity is a composite rather than a server id.
type Notification struct {
	Reason     string    `json:"reason"`
	Title      string    `json:"title"`
	Type       string    `json:"type"`
	Repository string    `json:"repository"`
	URL        string    `json:"url"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (n Notification) ID() string {
	return fmt.Sprintf("%s|%s|%d", n.Reason, n.Title, n.UpdatedAt.Unix())
}

// Issue is an open issue involving the user.
type Issue struct {
	Number        int        `json:"number"`
	Title         string     `json:"title"`
	URL           string     `json:"url"`
	CommentsCount int        `json:"commentsCount"`
	UpdatedAt     time.Time  `json:"updatedAt"`
	Repository    Repository `json:"repository"`
}

func (i Issue) ID() string {
	return i.URL
}
