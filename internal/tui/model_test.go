package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"jobrec/internal/domain"
	"jobrec/internal/service"
)

type fakeRecommender struct {
	results []domain.Result
	err     error
	queries []string
}

func (f *fakeRecommender) RecommendText(_ context.Context, text string, _ ...service.Option) ([]domain.Result, error) {
	f.queries = append(f.queries, text)
	return f.results, f.err
}

func submit(t *testing.T, m Model, query string) Model {
	t.Helper()
	m.input.SetValue(query)
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return next.(Model)
}

func sized(m Model) Model {
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return next.(Model)
}

func TestModel_Query(t *testing.T) {
	rec := &fakeRecommender{results: []domain.Result{
		{ID: 1, Title: "Frontend Engineer", DisplayText: "React JavaScript CSS", Score: 0.8},
		{ID: 2, Title: "Backend Engineer", DisplayText: "API database Node", Score: 0.1},
	}}
	m := sized(New(rec, "tfidf, 2 jobs"))
	m = submit(t, m, "  react  ")

	if len(rec.queries) != 1 || rec.queries[0] != "react" {
		t.Fatalf("queries = %q", rec.queries)
	}
	if len(m.results) != 2 || m.cursor != 0 {
		t.Fatalf("unexpected state: %d results, cursor %d", len(m.results), m.cursor)
	}
	if !strings.Contains(m.status, "2 jobs") {
		t.Errorf("status = %q", m.status)
	}
	out := m.renderResults()
	if !strings.Contains(out, "Frontend Engineer") || !strings.Contains(out, "Backend Engineer") {
		t.Errorf("results not listed: %q", out)
	}
	if !strings.Contains(m.View(), "Job Recommendations") {
		t.Error("header missing from view")
	}
}

func TestModel_Navigation(t *testing.T) {
	rec := &fakeRecommender{results: []domain.Result{{ID: 1}, {ID: 2}, {ID: 3}}}
	m := submit(t, sized(New(rec, "")), "go")

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m = next.(Model)
	if m.cursor != 2 {
		t.Errorf("up from first should wrap to last, got %d", m.cursor)
	}
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = next.(Model)
	if m.cursor != 0 {
		t.Errorf("down from last should wrap to first, got %d", m.cursor)
	}
}

func TestModel_Error(t *testing.T) {
	rec := &fakeRecommender{err: domain.ErrNotReady}
	m := submit(t, sized(New(rec, "")), "react")

	if m.results != nil || !strings.Contains(m.status, domain.ErrNotReady.Error()) {
		t.Errorf("unexpected state: %v %q", m.results, m.status)
	}
}

func TestModel_BlankQueryIgnored(t *testing.T) {
	rec := &fakeRecommender{err: errors.New("should not be called")}
	submit(t, sized(New(rec, "")), "   ")
	if len(rec.queries) != 0 {
		t.Errorf("blank query reached the recommender: %q", rec.queries)
	}
}

func TestModel_EmptyMatch(t *testing.T) {
	rec := &fakeRecommender{results: []domain.Result{}}
	m := submit(t, sized(New(rec, "")), "quantum")
	if got := m.renderResults(); !strings.Contains(got, "No jobs above") {
		t.Errorf("got %q", got)
	}
}

func TestHighlightBestSentence(t *testing.T) {
	text := "We build web apps. You know React well. Lunch is free."
	got := highlightBestSentence(text, "react")
	if !strings.Contains(got, "You know React well.") {
		t.Errorf("best sentence missing: %q", got)
	}
	if got := highlightBestSentence("   ", "react"); got != "" {
		t.Errorf("blank text: got %q", got)
	}
	if got := highlightBestSentence("Go and Rust", ""); got != "Go and Rust" {
		t.Errorf("no-query text changed: %q", got)
	}
}

func TestHighlightBestSentence_UnpunctuatedTail(t *testing.T) {
	got := highlightBestSentence("Remote friendly team. Strong Go and PostgreSQL skills", "go postgresql")
	if !strings.Contains(got, "Remote friendly team.") || !strings.Contains(got, "Strong Go and PostgreSQL skills") {
		t.Errorf("sentence dropped: %q", got)
	}
}
