package memory

import (
	"context"
	"fmt"
	"time"

	"jobrec/internal/domain"
)

// Entry pairs a job record with its vector.
type Entry struct {
	Record domain.JobRecord
	Vector domain.Vector
}

// Index is an immutable in-memory corpus index searched by brute force.
// Entries keep the order records were given to Build.
type Index struct {
	entries []Entry
	encoder domain.Encoder
	builtAt time.Time
}

// Build encodes every record with encoder and returns a new index.
func Build(ctx context.Context, records []domain.JobRecord, encoder domain.Encoder) (*Index, error) {
	if len(records) == 0 {
		return nil, domain.ErrEmptyCorpus
	}
	seen := make(map[int64]struct{}, len(records))
	texts := make([]string, len(records))
	for i, r := range records {
		if _, ok := seen[r.ID]; ok {
			return nil, fmt.Errorf("job %d: %w", r.ID, domain.ErrDuplicateRecord)
		}
		seen[r.ID] = struct{}{}
		texts[i] = r.Text
	}

	vectors, err := encoder.EncodeBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("encode corpus: %w", err)
	}
	if len(vectors) != len(records) {
		return nil, fmt.Errorf("encoder returned %d vectors for %d records", len(vectors), len(records))
	}

	dim := encoder.Dimension()
	entries := make([]Entry, len(records))
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("job %d: vector has %d dimensions, want %d: %w",
				records[i].ID, len(v), dim, domain.ErrDimensionMismatch)
		}
		entries[i] = Entry{Record: records[i], Vector: v}
	}
	return &Index{entries: entries, encoder: encoder, builtAt: time.Now()}, nil
}

// Size returns the number of indexed records.
func (x *Index) Size() int { return len(x.entries) }

// Entries returns the indexed entries in insertion order. Callers must not modify them.
func (x *Index) Entries() []Entry { return x.entries }

// Encoder returns the encoder the index was built with.
func (x *Index) Encoder() domain.Encoder { return x.encoder }

// BuiltAt returns when the index was built.
func (x *Index) BuiltAt() time.Time { return x.builtAt }

// Records returns a copy of the indexed records in insertion order.
func (x *Index) Records() []domain.JobRecord {
	out := make([]domain.JobRecord, len(x.entries))
	for i, e := range x.entries {
		out[i] = e.Record
	}
	return out
}
