// Package models defines the domain entities for the playlist sync tool.
//
//   - [Track] : Song metadata carrying a local path, a Spotify URI, or both
//   - [Playlist] : Playlist metadata from either the local library or Spotify
//   - [PlaylistExport] : Playlist with complete track listing
//
// Tracks derive their URI store key via [Track.Key]: the file path relative
// to the library root, slash-separated and lowercased. Persistence lives in
// internal/repositories and internal/store; this package stays dependency-free.
package models
