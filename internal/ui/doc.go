// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a three-view workflow for one-hit-wonder discovery:
//  1. [QueryView] : Enter an artist or tag
//  2. [DiscoverView] : Watch hits arrive while candidates are checked, with a spinner and progress bar
//  3. [ResultView] : Browse the hits, open a video in the browser, or save them to the playlist
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Hits and progress updates flow through channels from the discovery stream; stopping or quitting cancels it.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, s, r, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
