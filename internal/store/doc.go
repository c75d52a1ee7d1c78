// Package store persists sync state as flat JSON files.
//
// The central type is [URIStore], a versioned mapping from a local track key
// to its Spotify URI. An entry may hold an explicit null, meaning the track
// was searched and is not on Spotify; such keys are never searched again.
// The on-disk file is the source of truth and is intended to be hand-editable:
// edits made between runs are surfaced through [URIStore.DetectEdits] against
// a mirror of the values the program last wrote.
//
// [Reports] writes the per-run JSON report files (search results, diff
// reports, artwork reports) into the data folder.
package store
