package main

import (
	"context"
	"fmt"

	"github.com/soniclist/spotsync/internal/shared"
	"github.com/soniclist/spotsync/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Update resolves local playlists and appends only missing tracks remotely.
func (r *Runner) Update(ctx context.Context, cmd *cli.Command) error {
	return r.runSync(ctx, cmd, tasks.ModeUpdate)
}

// Refresh resolves local playlists and rebuilds each remote playlist from scratch.
func (r *Runner) Refresh(ctx context.Context, cmd *cli.Command) error {
	return r.runSync(ctx, cmd, tasks.ModeRefresh)
}

// runSync executes the full sync pipeline in the given mode, retrying once
// after reauthorization when the access token has expired.
func (r *Runner) runSync(ctx context.Context, cmd *cli.Command, mode tasks.SyncMode) error {
	if r.spotify == nil {
		return fmt.Errorf("%w: Spotify service not initialized, run 'spotsync spotify auth'", shared.ErrServiceUnavailable)
	}

	engine, err := r.buildEngine()
	if err != nil {
		return err
	}

	r.logger.Info("starting sync", "mode", mode.String())

	progress, stop := r.startProgress()
	result, err := engine.Sync(ctx, progress, mode)
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
		result, err = engine.Sync(ctx, progress, mode)
		stop()
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("Sync complete (%s)", result.Mode))

	if len(result.Edits) > 0 {
		r.writePlain("⚠ %d store entries were edited by hand, disk values kept\n\n", len(result.Edits))
	}

	for _, pr := range result.Playlists {
		r.writePlain("%s\n", pr.Name)
		r.writePlain("  Tracks: %d\n", pr.Total)
		r.writePlain("  Resolved: %d\n", pr.Resolved)
		if pr.NotOnSpotify > 0 {
			r.writePlain("  Not on Spotify: %d\n", pr.NotOnSpotify)
		}
		if pr.Unmatched > 0 {
			r.writePlain("  No confident match: %d\n", pr.Unmatched)
		}
		r.writePlain("  Added remotely: %d\n\n", pr.AddedRemote)
	}

	r.writePlain("Spotify searches this run: %d\n", result.Searched)

	return nil
}
