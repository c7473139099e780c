// Package output renders snapshots, previews and mute lists for the
// non-interactive commands.
package output

import (
	"fmt"
	"io"
	"time"

	"github.com/spiffcs/prwatch/internal/model"
)

// Format represents the output format
type Format string

const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatText, FormatJSON, FormatMarkdown:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown output format %q (must be text, json or markdown)", s)
	}
}

// Formatter defines the interface for output formatters
type Formatter interface {
	Format(snap model.Snapshot, w io.Writer) error
	FormatPreview(id string, d model.PreviewDetails, w io.Writer) error
	FormatMuted(muted map[string]time.Time, w io.Writer) error
}

// NewFormatter creates a formatter for the specified format
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Pretty: true}
	case FormatMarkdown:
		return &MarkdownFormatter{}
	default:
		return &TextFormatter{}
	}
}

func nowOr(now func() time.Time) time.Time {
	if now != nil {
		return now()
	}
	return time.Now()
}
