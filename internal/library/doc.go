// Package library reads the local music collection: .m3u playlists and the
// audio files they reference.
//
// A [Scanner] walks the configured playlist folder, parses each .m3u into an
// ordered track list, and reads embedded tags (title, artist, album, track
// number, artwork presence) from the referenced files. Files listed in a
// playlist but missing on disk are skipped and reported, never fatal.
//
// Playlists written on other machines are supported through path remapping:
// foreign library roots from the config are rewritten onto the local library
// folder before the file is probed.
package library
