package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/soniclist/spotsync/internal/matcher"
	"github.com/soniclist/spotsync/internal/shared"
	"github.com/soniclist/spotsync/internal/ui"
	"github.com/urfave/cli/v3"
)

// Check launches the interactive review TUI over every unresolved track and
// applies the collected decisions to the URI store.
func (r *Runner) Check(ctx context.Context, cmd *cli.Command) error {
	if r.spotify == nil {
		return fmt.Errorf("%w: Spotify service not initialized, run 'spotsync spotify auth'", shared.ErrServiceUnavailable)
	}

	engine, err := r.buildEngine()
	if err != nil {
		return err
	}

	// No progress channel: the terminal belongs to the TUI.
	checks, err := engine.Check(nil)
	if err != nil {
		return err
	}

	root := r.config.Paths.LibraryFolder
	var reviews []ui.ReviewTrack
	for _, check := range checks {
		for _, track := range check.Unresolved {
			reviews = append(reviews, ui.ReviewTrack{
				Playlist: check.Name,
				Key:      track.Key(root),
				Track:    track,
			})
		}
	}

	if len(reviews) == 0 {
		r.writePlain("✓ Every playlist track is resolved\n")
		return nil
	}

	model := ui.NewModel(ctx, r.spotify, matcher.New(r.config.Search.Threshold), reviews)
	program := tea.NewProgram(model, tea.WithAltScreen())

	finalModel, err := program.Run()
	if err != nil {
		return fmt.Errorf("review session failed: %w", err)
	}

	reviewed, ok := finalModel.(*ui.Model)
	if !ok {
		return fmt.Errorf("unexpected model type from review session")
	}
	if reviewed.Err() != nil {
		return reviewed.Err()
	}

	decisions := reviewed.Decisions()
	if len(decisions) == 0 {
		r.writePlain("No decisions made\n")
		return nil
	}

	if r.uriStore == nil {
		return fmt.Errorf("%w: URI store not initialized", shared.ErrInvalidConfig)
	}

	for _, decision := range decisions {
		r.uriStore.Upsert(decision.Key, decision.URI)
		if r.mirror != nil {
			if err := r.mirror.Record(decision.Key, decision.URI); err != nil {
				r.logger.Warn("failed to mirror store write", "key", decision.Key, "error", err)
			}
		}
	}

	if err := r.uriStore.Save(); err != nil {
		return fmt.Errorf("failed to save store: %w", err)
	}

	r.writePlain("✓ Saved %d decisions to %s\n", len(decisions), r.uriStore.Path())
	return nil
}
