// package matcher scores Spotify search candidates against local track metadata.
//
// Matching is a tunable heuristic, not a correctness guarantee: the weights
// below trade a little recall for precision so that bad matches land in the
// not-found report instead of in a playlist.
package matcher

import (
	"regexp"
	"strings"

	"github.com/soniclist/spotsync/internal/models"
)

// DefaultThreshold is the minimum accepted score when the config leaves it unset.
const DefaultThreshold = 0.66

// Component weights. Duration weight is redistributed when either side has
// no known duration.
const (
	titleWeight    = 0.45
	artistWeight   = 0.30
	albumWeight    = 0.10
	durationWeight = 0.15

	karaokePenalty = 0.4
)

var (
	bracketRe = regexp.MustCompile(`[(\[{][^)\]}]*[)\]}]`)
	punctRe   = regexp.MustCompile(`[^a-z0-9 ]+`)
	spaceRe   = regexp.MustCompile(`\s+`)
	featRe    = regexp.MustCompile(`\b(feat|ft|featuring)\b.*$`)

	karaokeMarkers = []string{"karaoke", "made famous by", "originally performed"}
)

// Normalize lowercases a metadata field, drops bracketed qualifiers
// ("(Remastered 2011)", "[Live]"), trailing feat. credits, and punctuation,
// and collapses whitespace.
func Normalize(s string) string {
	s = strings.ToLower(s)
	s = bracketRe.ReplaceAllString(s, " ")
	s = featRe.ReplaceAllString(s, " ")
	s = punctRe.ReplaceAllString(s, " ")
	s = spaceRe.ReplaceAllString(strings.TrimSpace(s), " ")
	return s
}

// NormalizeKey builds a stable "title|artist" key for map-based comparison.
func NormalizeKey(title, artist string) string {
	return Normalize(title) + "|" + Normalize(artist)
}

// Matcher scores candidates and selects the best match above a threshold.
type Matcher struct {
	threshold float64
}

// New creates a Matcher. A non-positive threshold falls back to [DefaultThreshold].
func New(threshold float64) *Matcher {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Matcher{threshold: threshold}
}

// Threshold returns the configured minimum score.
func (m *Matcher) Threshold() float64 { return m.threshold }

// Score rates a candidate against the local track in [0, 1].
func (m *Matcher) Score(local, candidate models.Track) float64 {
	var score, weight float64

	score += titleWeight * similarity(Normalize(local.Title), Normalize(candidate.Title))
	weight += titleWeight

	score += artistWeight * similarity(Normalize(local.Artist), Normalize(candidate.Artist))
	weight += artistWeight

	if local.Album != "" && candidate.Album != "" {
		score += albumWeight * similarity(Normalize(local.Album), Normalize(candidate.Album))
		weight += albumWeight
	}

	if local.Duration > 0 && candidate.Duration > 0 {
		score += durationWeight * durationScore(local.Duration, candidate.Duration)
		weight += durationWeight
	}

	if weight == 0 {
		return 0
	}
	score /= weight

	if isKaraoke(candidate) && !isKaraoke(local) {
		score -= karaokePenalty
	}
	if score < 0 {
		score = 0
	}
	return score
}

// Best returns the highest-scoring candidate at or above the threshold, with
// its score. Candidates arrive in Spotify popularity order, so ties keep the
// earlier one. Returns nil when nothing clears the threshold.
func (m *Matcher) Best(local models.Track, candidates []models.Track) (*models.Track, float64) {
	var best *models.Track
	var bestScore float64

	for i := range candidates {
		s := m.Score(local, candidates[i])
		if s > bestScore {
			best = &candidates[i]
			bestScore = s
		}
	}

	if best == nil || bestScore < m.threshold {
		return nil, bestScore
	}
	return best, bestScore
}

// similarity compares two normalized strings: exact match scores 1,
// otherwise the Jaccard index over their token sets.
func similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}

	setA := tokenSet(a)
	setB := tokenSet(b)

	var inter, union int
	for t := range setA {
		if _, ok := setB[t]; ok {
			inter++
		}
	}
	union = len(setA) + len(setB) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, t := range strings.Fields(s) {
		set[t] = struct{}{}
	}
	return set
}

// durationScore decays linearly: identical durations score 1, a 15 second
// difference scores 0.
func durationScore(a, b int) float64 {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	if diff >= 15 {
		return 0
	}
	return 1 - float64(diff)/15
}

func isKaraoke(t models.Track) bool {
	haystack := strings.ToLower(t.Title + " " + t.Artist + " " + t.Album)
	for _, marker := range karaokeMarkers {
		if strings.Contains(haystack, marker) {
			return true
		}
	}
	return false
}
