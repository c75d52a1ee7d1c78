// package repositories provides the sqlite persistence layer.
//
// Two tables back the sync pipelines: search_cache stores serialized Spotify
// search responses with a TTL so re-runs skip API calls, and uri_mirror stores
// the last URI value the program wrote per track key so manual edits to the
// URI file can be detected and reported.
package repositories
