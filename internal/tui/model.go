package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"jobrec/internal/domain"
	"jobrec/internal/service"
	"jobrec/internal/snippet"
)

// Recommender is the TUI-facing subset of the recommendation service.
type Recommender interface {
	RecommendText(ctx context.Context, text string, opts ...service.Option) ([]domain.Result, error)
}

// Model is the Bubble Tea model for the TUI application.
type Model struct {
	rec       Recommender
	opts      []service.Option
	input     textinput.Model
	viewport  viewport.Model
	results   []domain.Result
	summary   string
	status    string
	cursor    int
	ready     bool
	lastQuery string
}

// New creates a new TUI model instance. summary is shown under the header;
// opts apply to every query.
func New(rec Recommender, summary string, opts ...service.Option) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type your skills and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		rec:      rec,
		opts:     opts,
		input:    ti,
		viewport: vp,
		summary:  summary,
		status:   "Index loaded. Type skills to get recommendations.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		// account for frames around result and query boxes
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		totalHeaderLines := 2                                    // header + summary
		totalFooterLines := 1                                    // status
		reserved := totalHeaderLines + totalFooterLines + qh + 1 // 1 spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.viewport.SetContent(m.renderResults())
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD || msg.Type == tea.KeyEsc {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q != "" {
				res, err := m.rec.RecommendText(context.Background(), q, m.opts...)
				if err != nil {
					m.status = "Error: " + err.Error()
					m.results = nil
				} else {
					m.status = fmt.Sprintf("%d jobs for %q", len(res), q)
					m.results = res
					m.cursor = 0
					m.lastQuery = q
				}
				m.viewport.SetContent(m.renderResults())
				return m, nil
			}
		case "down":
			if len(m.results) > 0 {
				m.cursor = (m.cursor + 1) % len(m.results)
				m.viewport.SetContent(m.renderResults())
				return m, nil
			}
		case "up":
			if len(m.results) > 0 {
				m.cursor = (m.cursor - 1 + len(m.results)) % len(m.results)
				m.viewport.SetContent(m.renderResults())
				return m, nil
			}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the TUI layout and current results.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Job Recommendations")
	summary := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(m.summary)
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	results := resultBoxStyle.Render(m.viewport.View())
	return header + "\n" + summary + "\n" + results + "\n" + input + "\n" + status
}

// renderResults lists every match and expands the selected one.
func (m Model) renderResults() string {
	if m.lastQuery == "" {
		return "No results yet."
	}
	if len(m.results) == 0 {
		return "No jobs above the similarity threshold."
	}
	var b strings.Builder
	for i, r := range m.results {
		line := fmt.Sprintf("%2d. %-40s %.3f  #%d", i+1, r.Title, r.Score, r.ID)
		if i == m.cursor {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(highlightBestSentence(m.results[m.cursor].DisplayText, m.lastQuery))
	return b.String()
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	selectedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
)

// highlightBestSentence renders text with the sentence sharing the most
// distinct words with query highlighted. Earlier sentences win ties.
func highlightBestSentence(text, query string) string {
	sentences := snippet.Sentences(text)
	if len(sentences) == 0 {
		return strings.TrimSpace(text)
	}
	terms := make(map[string]struct{})
	for _, tok := range snippet.Tokens(query) {
		terms[tok] = struct{}{}
	}

	best, bestHits := -1, 0
	for i, sent := range sentences {
		if hits := overlap(terms, sent); hits > bestHits {
			best, bestHits = i, hits
		}
	}
	if best >= 0 {
		sentences[best] = highlightStyle.Render(sentences[best])
	}
	return strings.Join(sentences, " ")
}

// overlap counts the distinct words of sentence found in terms.
func overlap(terms map[string]struct{}, sentence string) int {
	seen := make(map[string]struct{})
	for _, tok := range snippet.Tokens(sentence) {
		if _, ok := terms[tok]; ok {
			seen[tok] = struct{}{}
		}
	}
	return len(seen)
}
