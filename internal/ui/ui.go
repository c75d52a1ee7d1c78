package ui

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/soniclist/spotsync/internal/matcher"
	"github.com/soniclist/spotsync/internal/models"
	"github.com/soniclist/spotsync/internal/services"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	ReviewListView ViewState = iota
	CandidateView
	InputView
	SummaryView
)

// ReviewTrack is one unresolved track queued for review.
type ReviewTrack struct {
	Playlist string
	Key      string
	Track    models.Track
}

// Decision records the review outcome for one store key. A nil URI marks the
// track as not on Spotify; skipped tracks produce no decision at all.
type Decision struct {
	Key string
	URI *string
}

type candidatesFetchedMsg struct {
	items []list.Item
	err   error
}

// Model represents the review TUI state.
type Model struct {
	ctx           context.Context
	view          ViewState
	service       services.Service
	matcher       *matcher.Matcher
	width         int
	height        int
	reviewList    list.Model
	candidateList list.Model
	input         textinput.Model
	current       *reviewItem
	decisions     []Decision
	err           error
	help          help.Model
	keys          keyMap
}

// NewModel creates a review model over the given unresolved tracks.
func NewModel(ctx context.Context, service services.Service, m *matcher.Matcher, tracks []ReviewTrack) *Model {
	if m == nil {
		m = matcher.New(0)
	}

	items := make([]list.Item, len(tracks))
	for i, rt := range tracks {
		items[i] = reviewItem{playlist: rt.Playlist, key: rt.Key, track: rt.Track}
	}

	reviewList := list.New(items, list.NewDefaultDelegate(), 0, 0)
	reviewList.Title = "Unresolved Tracks"

	input := textinput.New()
	input.Placeholder = "spotify:track:..."
	input.CharLimit = 64

	return &Model{
		ctx:        ctx,
		view:       ReviewListView,
		service:    service,
		matcher:    m,
		reviewList: reviewList,
		input:      input,
		help:       help.New(),
		keys:       newKeyMap(),
	}
}

// Decisions returns the outcomes collected this session, sorted by key.
func (m *Model) Decisions() []Decision {
	sorted := make([]Decision, len(m.decisions))
	copy(sorted, m.decisions)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })
	return sorted
}

// Err returns the fatal error that ended the session, if any.
func (m *Model) Err() error { return m.err }

func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.reviewList.SetSize(msg.Width-4, msg.Height-8)
		m.candidateList.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case ReviewListView:
			return m.handleReviewKeys(msg)
		case CandidateView:
			return m.handleCandidateKeys(msg)
		case InputView:
			return m.handleInputKeys(msg)
		case SummaryView:
			return m.handleSummaryKeys(msg)
		}

	case candidatesFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.candidateList = list.New(msg.items, list.NewDefaultDelegate(), m.width-4, m.height-8)
		m.candidateList.Title = fmt.Sprintf("Candidates for '%s'", m.current.track.Title)
		m.view = CandidateView
		return m, nil
	}

	return m.updateLists(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case ReviewListView:
		return m.renderReviewList()
	case CandidateView:
		return m.renderCandidates()
	case InputView:
		return m.renderInput()
	case SummaryView:
		return m.renderSummary()
	default:
		return ""
	}
}

func (m *Model) handleReviewKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "enter":
		if item, ok := m.reviewList.SelectedItem().(reviewItem); ok {
			m.current = &item
			return m, m.fetchCandidates(item.track)
		}
	case "n":
		if item, ok := m.reviewList.SelectedItem().(reviewItem); ok {
			m.decide(item, nil)
		}
		return m, nil
	case "m":
		if item, ok := m.reviewList.SelectedItem().(reviewItem); ok {
			m.current = &item
			m.input.SetValue("")
			m.input.Focus()
			m.view = InputView
		}
		return m, nil
	case "s":
		if item, ok := m.reviewList.SelectedItem().(reviewItem); ok {
			m.dismiss(item)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.reviewList, cmd = m.reviewList.Update(msg)
	return m, cmd
}

func (m *Model) handleCandidateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = ReviewListView
		return m, nil
	case "n":
		m.decide(*m.current, nil)
		m.view = ReviewListView
		return m, nil
	case "enter":
		if item, ok := m.candidateList.SelectedItem().(candidateItem); ok {
			uri := item.track.URI
			m.decide(*m.current, &uri)
			m.view = ReviewListView
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.candidateList, cmd = m.candidateList.Update(msg)
	return m, cmd
}

func (m *Model) handleInputKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.input.Blur()
		m.view = ReviewListView
		return m, nil
	case "enter":
		uri := strings.TrimSpace(m.input.Value())
		m.input.Blur()
		if uri != "" {
			uri = services.TrackURI(uri)
			m.decide(*m.current, &uri)
		}
		m.view = ReviewListView
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleSummaryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "enter":
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case ReviewListView:
		m.reviewList, cmd = m.reviewList.Update(msg)
	case CandidateView:
		m.candidateList, cmd = m.candidateList.Update(msg)
	case InputView:
		m.input, cmd = m.input.Update(msg)
	}
	return m, cmd
}

// decide records the outcome and removes the track from the queue.
func (m *Model) decide(item reviewItem, uri *string) {
	m.decisions = append(m.decisions, Decision{Key: item.key, URI: uri})
	m.dismiss(item)
}

// dismiss drops the track from the review list, moving to the summary when
// nothing is left.
func (m *Model) dismiss(item reviewItem) {
	for i, li := range m.reviewList.Items() {
		if ri, ok := li.(reviewItem); ok && ri.key == item.key {
			m.reviewList.RemoveItem(i)
			break
		}
	}
	if len(m.reviewList.Items()) == 0 {
		m.view = SummaryView
	}
}

// fetchCandidates searches Spotify and scores each candidate against the
// local track.
func (m *Model) fetchCandidates(track models.Track) tea.Cmd {
	return func() tea.Msg {
		candidates, err := m.service.SearchTrack(m.ctx, track.Title, track.Artist)
		if err != nil {
			return candidatesFetchedMsg{err: err}
		}

		items := make([]list.Item, 0, len(candidates))
		for _, c := range candidates {
			items = append(items, candidateItem{track: c, score: m.matcher.Score(track, c)})
		}
		sort.Slice(items, func(i, j int) bool {
			return items[i].(candidateItem).score > items[j].(candidateItem).score
		})

		return candidatesFetchedMsg{items: items}
	}
}

func (m *Model) renderReviewList() string {
	remaining := len(m.reviewList.Items())
	header := styles.title.Render(fmt.Sprintf("Review: %d tracks left", remaining))
	return fmt.Sprintf("%s\n%s\n%s", header, m.reviewList.View(), styles.help.Render(m.help.View(m.keys)))
}

func (m *Model) renderCandidates() string {
	if len(m.candidateList.Items()) == 0 {
		return fmt.Sprintf(
			"%s\n\n%s\n\n%s",
			styles.title.Render(fmt.Sprintf("No candidates for '%s'", m.current.track.Title)),
			styles.warn.Render("Spotify returned nothing for this track."),
			styles.help.Render("n: not on spotify • m: manual uri • esc: back"),
		)
	}
	return fmt.Sprintf("%s\n%s", m.candidateList.View(), styles.help.Render("enter: accept • n: not on spotify • esc: back"))
}

func (m *Model) renderInput() string {
	return fmt.Sprintf(
		"%s\n\n%s\n\n%s",
		styles.title.Render(fmt.Sprintf("URI for '%s'", m.current.track.Title)),
		m.input.View(),
		styles.help.Render("enter: save • esc: cancel"),
	)
}

func (m *Model) renderSummary() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("Review complete"))
	b.WriteString("\n\n")

	resolved, nulled := 0, 0
	for _, d := range m.decisions {
		if d.URI == nil {
			nulled++
		} else {
			resolved++
		}
	}

	b.WriteString(styles.ok.Render(fmt.Sprintf("✓ %d resolved", resolved)))
	b.WriteString("\n")
	b.WriteString(styles.warn.Render(fmt.Sprintf("∅ %d marked not on Spotify", nulled)))
	b.WriteString("\n\n")
	b.WriteString(styles.help.Render("press q to save and exit"))

	return b.String()
}
