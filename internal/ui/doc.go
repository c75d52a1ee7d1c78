// Package ui implements the interactive review interface using bubbletea's Elm architecture.
//
// The TUI walks every unresolved track from the local library:
//  1. [ReviewListView] : Browse tracks that have no store entry or no confident match
//  2. [CandidateView] : Inspect Spotify search candidates for the selected track
//  3. [InputView] : Enter a track URI by hand
//  4. [SummaryView] : Review the decisions made this session
//
// The [Model] implements bubbletea's standard Init/Update/View pattern. Each
// decision (accept candidate, manual URI, mark "not on Spotify", skip) is
// collected on the model; the command layer applies them to the URI store
// after the program exits.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, n, m, s, q)
// with contextual help displayed via charmbracelet/bubbles/help.
package ui
