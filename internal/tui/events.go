package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/spiffcs/prwatch/internal/model"
)

// snapshotMsg carries a newly published snapshot.
type snapshotMsg model.Snapshot

// previewLoadedMsg signals that a preview finished loading.
type previewLoadedMsg string

// refreshDoneMsg reports the outcome of a manual refresh.
type refreshDoneMsg struct {
	err error
}

// clearStatusMsg is a message to clear the status
type clearStatusMsg struct{}

// waitForSnapshot creates a command that waits for the next snapshot.
func waitForSnapshot(ch <-chan model.Snapshot) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		snap, ok := <-ch
		if !ok {
			return nil
		}
		return snapshotMsg(snap)
	}
}

// waitForPreview creates a command that waits for the next loaded preview.
func waitForPreview(ch <-chan string) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		id, ok := <-ch
		if !ok {
			return nil
		}
		return previewLoadedMsg(id)
	}
}

// refresh runs a manual refresh off the update loop.
func refresh(ctx context.Context, b Backend) tea.Cmd {
	return func() tea.Msg {
		return refreshDoneMsg{err: b.Refresh(ctx)}
	}
}

// clearStatusAfter returns a command that clears the status after a delay
func clearStatusAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return clearStatusMsg{}
	})
}
