// Package corpus provides the job record sources an index is built from.
package corpus

import (
	"context"
	"strings"

	"jobrec/internal/domain"
)

// Static serves a fixed set of records.
type Static struct {
	name string
	jobs []domain.JobRecord
}

var _ domain.CorpusProvider = (*Static)(nil)

// NewStatic creates a provider over a copy of jobs.
func NewStatic(name string, jobs []domain.JobRecord) *Static {
	return &Static{name: name, jobs: append([]domain.JobRecord(nil), jobs...)}
}

// Name returns the provider name.
func (s *Static) Name() string { return s.name }

// Jobs returns a copy of the records.
func (s *Static) Jobs(context.Context) ([]domain.JobRecord, error) {
	return append([]domain.JobRecord(nil), s.jobs...), nil
}

// JoinFields joins the non-blank fields with single spaces.
func JoinFields(fields ...string) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			parts = append(parts, f)
		}
	}
	return strings.Join(parts, " ")
}
