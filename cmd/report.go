package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/soniclist/spotsync/internal/artwork"
	"github.com/soniclist/spotsync/internal/shared"
	"github.com/soniclist/spotsync/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Diff compares local playlists against their Spotify counterparts by
// resolved URI and prints the extra and missing sets.
func (r *Runner) Diff(ctx context.Context, cmd *cli.Command) error {
	if r.spotify == nil {
		return fmt.Errorf("%w: Spotify service not initialized, run 'spotsync spotify auth'", shared.ErrServiceUnavailable)
	}

	engine, err := r.buildEngine()
	if err != nil {
		return err
	}

	progress, stop := r.startProgress()
	result, err := engine.Differences(ctx, progress)
	stop()

	if err != nil {
		reauthed, authErr := r.handleSpotifyAuthError(ctx, err)
		if !reauthed {
			return err
		}
		if authErr != nil {
			return authErr
		}

		progress, stop = r.startProgress()
		result, err = engine.Differences(ctx, progress)
		stop()
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, cmd.Bool("pretty"))
	}

	if len(result.Extra) == 0 && len(result.Missing) == 0 {
		r.writePlain("✓ No differences found\n")
		return nil
	}

	r.writePlainHeader("Playlist Differences")

	for _, name := range sortedKeys(result.Missing) {
		r.writePlain("%s: %d missing on Spotify\n", name, len(result.Missing[name]))
		for _, uri := range result.Missing[name] {
			r.writePlain("  - %s\n", uri)
		}
	}

	for _, name := range sortedKeys(result.Extra) {
		r.writePlain("%s: %d extra on Spotify\n", name, len(result.Extra[name]))
		for _, uri := range result.Extra[name] {
			r.writePlain("  + %s\n", uri)
		}
	}

	return nil
}

// Simplecheck summarizes per-playlist resolution state from the store alone.
// Never touches the network.
func (r *Runner) Simplecheck(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.buildEngine()
	if err != nil {
		return err
	}

	progress, stop := r.startProgress()
	checks, err := engine.Check(progress)
	stop()
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(checks, cmd.Bool("pretty"))
	}

	r.writePlainHeader("Resolution State")

	for _, check := range checks {
		r.writePlain("%s\n", check.Name)
		r.writePlain("  Tracks: %d\n", check.Total)
		r.writePlain("  Resolved: %d\n", check.Resolved)
		if check.NotOnSpotify > 0 {
			r.writePlain("  Not on Spotify: %d\n", check.NotOnSpotify)
		}
		if len(check.Unresolved) > 0 {
			r.writePlain("  Unresolved: %d\n", len(check.Unresolved))
			if cmd.Bool("unresolved") {
				for _, track := range check.Unresolved {
					r.writePlain("    - %s - %s\n", track.Artist, track.Title)
				}
			}
		}
		r.writePlain("\n")
	}

	return nil
}

// ArtworkEmbed embeds the largest Spotify album image into every resolved
// local file that lacks embedded artwork.
func (r *Runner) ArtworkEmbed(ctx context.Context, cmd *cli.Command) error {
	if r.spotify == nil {
		return fmt.Errorf("%w: Spotify service not initialized, run 'spotsync spotify auth'", shared.ErrServiceUnavailable)
	}

	engine, err := r.buildEngine()
	if err != nil {
		return err
	}

	opts := tasks.ArtworkOpts{
		NumWorkers: cmd.Int("workers"),
		RateLimit:  r.config.Search.RateLimit,
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = r.config.Search.Workers
	}

	progress, stop := r.startProgress()
	result, err := engine.EmbedArtwork(ctx, progress, opts)
	stop()

	if err != nil {
		reauthed, authErr := r.handleSpotifyAuthError(ctx, err)
		if !reauthed {
			return err
		}
		if authErr != nil {
			return authErr
		}

		progress, stop = r.startProgress()
		result, err = engine.EmbedArtwork(ctx, progress, opts)
		stop()
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, cmd.Bool("pretty"))
	}

	r.writePlainHeader("Artwork Embed")
	r.writePlain("Files considered: %d\n", result.Processed)
	r.writePlain("Images embedded: %d\n", result.Embedded)
	r.writePlain("Skipped (already has artwork): %d\n", result.SkippedHas)
	r.writePlain("Skipped (no resolved URI): %d\n", result.SkippedURI)
	if len(result.Failures) > 0 {
		r.writePlain("Failures: %d\n", len(result.Failures))
		for _, failure := range result.Failures {
			r.writePlain("  %s: %s\n", failure.Path, failure.Error)
		}
	}

	return nil
}

// ArtworkExtract writes a file's embedded artwork to an image file next to it.
func (r *Runner) ArtworkExtract(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: audio file path", shared.ErrMissingArgument)
	}

	out, err := artwork.ExtractToFile(path)
	if err != nil {
		return err
	}

	r.writePlain("✓ Artwork written to %s\n", out)
	return nil
}

// ArtworkMissing reports library files lacking embedded artwork, grouped by album.
func (r *Runner) ArtworkMissing(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.buildEngine()
	if err != nil {
		return err
	}

	progress, stop := r.startProgress()
	groups, err := engine.NoImages(progress)
	stop()
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(groups, cmd.Bool("pretty"))
	}

	if len(groups) == 0 {
		r.writePlain("✓ Every file carries embedded artwork\n")
		return nil
	}

	r.writePlainHeader("Files Without Artwork")

	albums := make([]string, 0, len(groups))
	for album := range groups {
		albums = append(albums, album)
	}
	sort.Strings(albums)

	total := 0
	for _, album := range albums {
		tracks := groups[album]
		total += len(tracks)
		r.writePlain("%s (%d)\n", album, len(tracks))
		for _, track := range tracks {
			r.writePlain("  - %s - %s\n", track.Artist, track.Title)
		}
	}
	r.writePlain("\nTotal: %d files\n", total)

	return nil
}

// sortedKeys returns the map's keys in sorted order for deterministic output.
func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
