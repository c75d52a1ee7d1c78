package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/soniclist/spotsync/internal/models"
)

var (
	_ list.Item = reviewItem{}
	_ list.Item = candidateItem{}
)

// reviewItem wraps an unresolved local track to implement [list.Item].
type reviewItem struct {
	playlist string
	key      string
	track    models.Track
}

func (i reviewItem) FilterValue() string { return i.track.Title }
func (i reviewItem) Title() string {
	if i.track.Artist == "" {
		return i.track.Title
	}
	return fmt.Sprintf("%s - %s", i.track.Artist, i.track.Title)
}
func (i reviewItem) Description() string {
	return fmt.Sprintf("%s • %s", i.playlist, i.key)
}

// candidateItem wraps a scored Spotify search candidate to implement [list.Item].
type candidateItem struct {
	track models.Track
	score float64
}

func (i candidateItem) FilterValue() string { return i.track.Title }
func (i candidateItem) Title() string {
	return fmt.Sprintf("%s - %s", i.track.Artist, i.track.Title)
}
func (i candidateItem) Description() string {
	desc := fmt.Sprintf("score %.2f", i.score)
	if i.track.Album != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.track.Album)
	}
	return desc
}
