package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/soniclist/spotsync/internal/formatter"
	"github.com/soniclist/spotsync/internal/models"
	"github.com/soniclist/spotsync/internal/shared"
	"github.com/urfave/cli/v3"
)

// ExtractLocal dumps every local m3u playlist with its file tags in the
// requested format.
func (r *Runner) ExtractLocal(ctx context.Context, cmd *cli.Command) error {
	format := cmd.String("format")
	if !formatter.ValidFormat(format) {
		return fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, format)
	}

	engine, err := r.buildEngine()
	if err != nil {
		return err
	}

	progress, stop := r.startProgress()
	scan, err := engine.ExtractLocal(progress)
	stop()
	if err != nil {
		return err
	}

	return r.renderGroups(cmd, format, "Local Library", scan.Playlists)
}

// ExtractSpotify dumps every Spotify playlist with its full track listing in
// the requested format.
func (r *Runner) ExtractSpotify(ctx context.Context, cmd *cli.Command) error {
	format := cmd.String("format")
	if !formatter.ValidFormat(format) {
		return fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, format)
	}

	if r.spotify == nil {
		return fmt.Errorf("%w: Spotify service not initialized, run 'spotsync spotify auth'", shared.ErrServiceUnavailable)
	}

	engine, err := r.buildEngine()
	if err != nil {
		return err
	}

	progress, stop := r.startProgress()
	dump, err := engine.ExtractSpotify(ctx, progress)
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
		dump, err = engine.ExtractSpotify(ctx, progress)
		stop()
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
		}
	}

	return r.renderGroups(cmd, format, "Spotify Playlists", dump)
}

// Normalize rewrites local m3u files in place with remapped library paths,
// dropping entries whose files no longer exist.
func (r *Runner) Normalize(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.buildEngine()
	if err != nil {
		return err
	}

	progress, stop := r.startProgress()
	results, err := engine.Normalize(progress)
	stop()
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(results, cmd.Bool("pretty"))
	}

	r.writePlainHeader("Playlists Rewritten")

	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		result := results[name]
		r.writePlain("%s: %d tracks", name, result.Final)
		if result.Removed > 0 {
			r.writePlain(" (%d dropped)", result.Removed)
		}
		r.writePlain("\n")
	}

	return nil
}

// renderGroups renders playlist groups in the named format, writing to the
// --output file when given, otherwise to the runner's output.
func (r *Runner) renderGroups(cmd *cli.Command, format, title string, groups map[string][]models.Track) error {
	rendered, err := formatter.RenderGroups(format, title, groups)
	if err != nil {
		return err
	}

	outputFile := cmd.String("output")
	if outputFile == "" {
		if _, err := r.output.Write(rendered); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}

	if err := os.WriteFile(outputFile, rendered, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	r.writePlain("✓ Exported %d playlists to %s\n", len(groups), outputFile)
	return nil
}
