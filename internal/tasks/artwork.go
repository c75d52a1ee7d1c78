package tasks

import (
	"context"
	"fmt"
	"sync"

	"github.com/soniclist/spotsync/internal/artwork"
	"github.com/soniclist/spotsync/internal/formatter"
	"github.com/soniclist/spotsync/internal/models"
	"github.com/soniclist/spotsync/internal/services"
	"github.com/soniclist/spotsync/internal/shared"
	"github.com/soniclist/spotsync/internal/store"
	"golang.org/x/time/rate"
)

// ArtworkOpts contains configuration for the artwork embed pipeline.
type ArtworkOpts struct {
	NumWorkers int     // Concurrent embed workers (default: 4)
	RateLimit  float64 // Image lookups per second (default: 3)

	// FetchImage overrides the image fetcher, used in tests. The default
	// asks Spotify for the track's album images and downloads the largest.
	FetchImage func(ctx context.Context, trackID string) ([]byte, error)

	// Embed overrides the tag writer, used in tests. Defaults to artwork.Embed.
	Embed func(path string, data []byte) error
}

// ArtworkFailure records one file the pipeline could not update.
type ArtworkFailure struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// ArtworkResult summarizes an artwork embed run.
type ArtworkResult struct {
	Processed  int              `json:"processed"`   // Files considered
	Embedded   int              `json:"embedded"`    // Files that received an image
	SkippedURI int              `json:"skipped_uri"` // Files without a resolved URI
	SkippedHas int              `json:"skipped_has"` // Files that already carry artwork
	Failures   []ArtworkFailure `json:"failures,omitempty"`
}

type artworkJob struct {
	path string
	uri  string
}

// EmbedArtwork walks the library and embeds the largest Spotify album image
// into every resolved track that lacks embedded artwork. Image lookups run
// through a bounded worker pool behind a shared rate limiter; tracks without
// a resolved URI are skipped.
func (e *SyncEngine) EmbedArtwork(ctx context.Context, progress chan<- ProgressUpdate, opts ArtworkOpts) (*ArtworkResult, error) {
	if e.service == nil && opts.FetchImage == nil {
		return nil, fmt.Errorf("%w: service not initialized", shared.ErrServiceUnavailable)
	}

	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 4
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 3.0
	}
	if opts.FetchImage == nil {
		opts.FetchImage = e.fetchLargestImage
	}
	if opts.Embed == nil {
		opts.Embed = artwork.Embed
	}

	tracks, err := e.scanner.ScanFiles()
	if err != nil {
		return nil, err
	}

	if err := e.store.Load(); err != nil {
		return nil, err
	}

	result := &ArtworkResult{Processed: len(tracks)}

	var jobs []artworkJob
	root := e.scanner.LibraryFolder()
	for _, track := range tracks {
		if track.HasImage {
			result.SkippedHas++
			continue
		}

		entry, ok := e.store.Get(track.Key(root))
		if !ok || entry.NotOnSpotify() {
			result.SkippedURI++
			continue
		}

		jobs = append(jobs, artworkJob{path: track.Path, uri: *entry.URI})
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	jobCh := make(chan artworkJob, len(jobs))
	resultCh := make(chan ArtworkFailure, len(jobs))

	var embedded int
	var mu sync.Mutex

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobCh {
				if err := limiter.Wait(ctx); err != nil {
					resultCh <- ArtworkFailure{Path: job.path, Error: err.Error()}
					continue
				}

				data, err := opts.FetchImage(ctx, services.TrackIDFromURI(job.uri))
				if err != nil {
					resultCh <- ArtworkFailure{Path: job.path, Error: err.Error()}
					continue
				}

				if err := opts.Embed(job.path, data); err != nil {
					resultCh <- ArtworkFailure{Path: job.path, Error: err.Error()}
					continue
				}

				mu.Lock()
				embedded++
				mu.Unlock()
			}
		}()
	}

	for i, job := range jobs {
		e.sendProgress(progress, embedArtworkUpdate(i+1, len(jobs), job.path))
		select {
		case <-ctx.Done():
			close(jobCh)
			wg.Wait()
			return nil, ctx.Err()
		case jobCh <- job:
		}
	}
	close(jobCh)
	wg.Wait()
	close(resultCh)

	result.Embedded = embedded
	for failure := range resultCh {
		e.logger.Warn("artwork embed failed", "path", failure.Path, "error", failure.Error)
		result.Failures = append(result.Failures, failure)
	}

	return result, nil
}

// fetchLargestImage asks Spotify for a track's album images and downloads the
// one with the greatest pixel area.
func (e *SyncEngine) fetchLargestImage(ctx context.Context, trackID string) ([]byte, error) {
	images, err := e.service.TrackImages(ctx, trackID)
	if err != nil {
		return nil, err
	}

	largest := services.LargestImage(images)
	if largest == nil {
		return nil, fmt.Errorf("%w: track %s has no album images", shared.ErrTrackNotFound, trackID)
	}

	return formatter.DownloadImage(largest.URL)
}

// NoImages walks the library and writes the report of files lacking embedded
// artwork, grouped by album.
func (e *SyncEngine) NoImages(progress chan<- ProgressUpdate) (map[string][]models.Track, error) {
	e.sendProgress(progress, scanLibraryUpdate(1, 1))

	tracks, err := e.scanner.ScanFiles()
	if err != nil {
		return nil, err
	}

	groups := make(map[string][]models.Track)
	for _, track := range tracks {
		if track.HasImage {
			continue
		}
		album := track.Album
		if album == "" {
			album = "unknown"
		}
		groups[album] = append(groups[album], track)
	}

	if err := e.reports.WriteTrackGroups(store.NoImagesFile, groups); err != nil {
		return nil, fmt.Errorf("failed to write no-images report: %w", err)
	}

	return groups, nil
}
