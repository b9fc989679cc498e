package corpus

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"jobrec/internal/domain"
)

// CSV reads job records from a file with a jobId,title,skills header.
// Column order is free and extra columns are ignored.
type CSV struct {
	path string
}

var _ domain.CorpusProvider = (*CSV)(nil)

// NewCSV creates a provider reading path on every Jobs call.
func NewCSV(path string) *CSV { return &CSV{path: path} }

// Name returns the provider name.
func (c *CSV) Name() string { return "csv" }

// Jobs reads and parses the file.
func (c *CSV) Jobs(_ context.Context) ([]domain.JobRecord, error) {
	f, err := os.Open(c.path)
	if err != nil {
		return nil, fmt.Errorf("open jobs file: %w", err)
	}
	defer func() { _ = f.Close() }()
	return ReadCSV(f)
}

// ReadCSV parses job records from r.
func ReadCSV(r io.Reader) ([]domain.JobRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := map[string]int{}
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	idCol, okID := cols["jobid"]
	titleCol, okTitle := cols["title"]
	skillsCol, okSkills := cols["skills"]
	if !okID || !okTitle || !okSkills {
		return nil, fmt.Errorf("header %v: need jobId, title and skills columns", header)
	}

	var jobs []domain.JobRecord
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		line, _ := reader.FieldPos(0)
		field := func(i int) string {
			if i < len(row) {
				return strings.TrimSpace(row[i])
			}
			return ""
		}
		id, err := strconv.ParseInt(field(idCol), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid jobId %q", line, field(idCol))
		}
		jobs = append(jobs, domain.JobRecord{ID: id, Title: field(titleCol), Text: field(skillsCol)})
	}
	return jobs, nil
}
