package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/onehit/internal/models"
	"github.com/desertthunder/onehit/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgProgressUpdate MsgKind = iota
	MsgHitFound
	MsgDiscoveryComplete
	MsgHitsSaved
	MsgBrowserOpened
)

// discoveryResult is the payload of [MsgDiscoveryComplete].
type discoveryResult struct {
	hits    []models.Hit
	outcome tasks.Outcome
	err     error
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// hitFoundMsg is the constructor for [MsgHitFound]
func hitFoundMsg(hit models.Hit) Msg {
	return Msg{kind: MsgHitFound, data: hit}
}

// discoveryCompleteMsg is the constructor for [MsgDiscoveryComplete]
func discoveryCompleteMsg(hits []models.Hit, outcome tasks.Outcome, err error) Msg {
	return Msg{kind: MsgDiscoveryComplete, data: discoveryResult{hits: hits, outcome: outcome, err: err}}
}

// hitsSavedMsg is the constructor for [MsgHitsSaved]; data is the error, if any.
func hitsSavedMsg(err error) Msg {
	return Msg{kind: MsgHitsSaved, data: err}
}

// browserOpenedMsg is the constructor for [MsgBrowserOpened]; data is the error, if any.
func browserOpenedMsg(err error) Msg {
	return Msg{kind: MsgBrowserOpened, data: err}
}

// errData extracts an error payload, which may be nil.
func errData(m Msg) error {
	err, _ := m.data.(error)
	return err
}
