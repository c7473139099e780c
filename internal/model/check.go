package model

import "strings"

// Check outcomes. gh reports CheckRuns with a conclusion and StatusContexts
// with a state, so both fields are consulted.
const (
	CheckFailure = "FAILURE"
	CheckSuccess = "SUCCESS"
)

// StatusCheck is one entry of statusCheckRollup.
type StatusCheck struct {
	Name       string `json:"name,omitempty"`
	Context    string `json:"context,omitempty"`
	Status     string `json:"status,omitempty"`
	State      string `json:"state,omitempty"`
	Conclusion string `json:"conclusion,omitempty"`
	DetailsURL string `json:"detailsUrl,omitempty"`
	TargetURL  string `json:"targetUrl,omitempty"`
}

// DisplayName returns the check run name, or the status context for legacy
// commit statuses.
func (c StatusCheck) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return c.Context
}

// Link returns the best URL for the check.
func (c StatusCheck) Link() string {
	if c.DetailsURL != "" {
		return c.DetailsURL
	}
	return c.TargetURL
}

// Failed reports whether conclusion or state is FAILURE.
func (c StatusCheck) Failed() bool {
	return strings.EqualFold(c.Conclusion, CheckFailure) || strings.EqualFold(c.State, CheckFailure)
}

// Succeeded reports whether conclusion or state is SUCCESS.
func (c StatusCheck) Succeeded() bool {
	return strings.EqualFold(c.Conclusion, CheckSuccess) || strings.EqualFold(c.State, CheckSuccess)
}
