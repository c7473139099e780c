package output

import (
	"encoding/json"
	"io"
	"slices"
	"time"

	"github.com/spiffcs/prwatch/internal/model"
)

// JSONFormatter formats output as JSON
type JSONFormatter struct {
	Pretty bool
}

// JSONOutput wraps the snapshot with its derived counts.
type JSONOutput struct {
	model.Snapshot
	Summary   model.Summary       `json:"summary"`
	Attention []model.PullRequest `json:"attention"`
}

// Format outputs the snapshot and its summary as JSON
func (f *JSONFormatter) Format(snap model.Snapshot, w io.Writer) error {
	attn := snap.AttentionPRs()
	if attn == nil {
		attn = []model.PullRequest{}
	}
	return f.encode(w, JSONOutput{
		Snapshot:  snap,
		Summary:   snap.Summary(),
		Attention: attn,
	})
}

// FormatPreview outputs preview details as JSON
func (f *JSONFormatter) FormatPreview(id string, d model.PreviewDetails, w io.Writer) error {
	return f.encode(w, struct {
		ID string `json:"id"`
		model.PreviewDetails
	}{id, d})
}

// MutedEntry is one muted PR in JSON output.
type MutedEntry struct {
	ID      string     `json:"id"`
	MutedAt *time.Time `json:"mutedAt,omitempty"`
}

// FormatMuted outputs the muted set as JSON, sorted by id
func (f *JSONFormatter) FormatMuted(muted map[string]time.Time, w io.Writer) error {
	entries := make([]MutedEntry, 0, len(muted))
	for _, id := range sortedIDs(muted) {
		e := MutedEntry{ID: id}
		if at := muted[id]; !at.IsZero() {
			e.MutedAt = &at
		}
		entries = append(entries, e)
	}
	return f.encode(w, entries)
}

func (f *JSONFormatter) encode(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	if f.Pretty {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(v)
}

func sortedIDs(muted map[string]time.Time) []string {
	ids := make([]string, 0, len(muted))
	for id := range muted {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
