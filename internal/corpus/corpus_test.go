package corpus

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"jobrec/internal/domain"
)

func TestReadCSV(t *testing.T) {
	data := `jobId,title,skills,location
1,Frontend Developer,"React, JavaScript, CSS",remote
2, Backend Developer ,Node API database,berlin
`
	got, err := ReadCSV(strings.NewReader(data))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	want := []domain.JobRecord{
		{ID: 1, Title: "Frontend Developer", Text: "React, JavaScript, CSS"},
		{ID: 2, Title: "Backend Developer", Text: "Node API database"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestReadCSV_ColumnOrderAndCase(t *testing.T) {
	data := "Skills,JOBID,Title\ngo rust,42,Systems Engineer\n"
	got, err := ReadCSV(strings.NewReader(data))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	want := []domain.JobRecord{{ID: 42, Title: "Systems Engineer", Text: "go rust"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestReadCSV_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"missing column", "jobId,title\n1,x\n", "need jobId, title and skills"},
		{"bad id", "jobId,title,skills\n1,a,b\nabc,c,d\n", "line 3: invalid jobId"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.data))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestReadCSV_Empty(t *testing.T) {
	got, err := ReadCSV(strings.NewReader(""))
	if err != nil || len(got) != 0 {
		t.Errorf("expected no records and no error, got %v, %v", got, err)
	}
}

func TestCSV_Jobs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.csv")
	if err := os.WriteFile(path, []byte("jobId,title,skills\n3,Data Engineer,Python SQL\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	p := NewCSV(path)
	if p.Name() != "csv" {
		t.Errorf("Name() = %q", p.Name())
	}
	got, err := p.Jobs(context.Background())
	if err != nil {
		t.Fatalf("Jobs: %v", err)
	}
	if len(got) != 1 || got[0].ID != 3 {
		t.Errorf("unexpected records: %+v", got)
	}

	if _, err := NewCSV(filepath.Join(t.TempDir(), "missing.csv")).Jobs(context.Background()); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestStatic_ReturnsCopy(t *testing.T) {
	jobs := []domain.JobRecord{{ID: 1, Title: "a", Text: "go"}}
	p := NewStatic("request", jobs)
	jobs[0].Text = "mutated"

	got, _ := p.Jobs(context.Background())
	got[0].Title = "changed"
	again, _ := p.Jobs(context.Background())
	if again[0].Text != "go" || again[0].Title != "a" {
		t.Errorf("static provider leaked mutation: %+v", again[0])
	}
	if p.Name() != "request" {
		t.Errorf("Name() = %q", p.Name())
	}
}

func TestPostgresConfig_ResolveURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JOB_DB_URL", "")
	t.Setenv("DB_URL", "postgres://fallback")
	t.Setenv("JOBREC_TEST_DB", "")

	url, err := PostgresConfig{URLEnv: "JOBREC_TEST_DB"}.ResolveURL()
	if err != nil || url != "postgres://fallback" {
		t.Errorf("got %q, %v; want last fallback", url, err)
	}

	t.Setenv("JOB_DB_URL", "postgres://job")
	if url, _ := (PostgresConfig{}).ResolveURL(); url != "postgres://job" {
		t.Errorf("got %q, want JOB_DB_URL", url)
	}

	t.Setenv("JOBREC_TEST_DB", "postgres://custom")
	if url, _ := (PostgresConfig{URLEnv: "JOBREC_TEST_DB"}).ResolveURL(); url != "postgres://custom" {
		t.Errorf("got %q, want configured env", url)
	}

	if url, _ := (PostgresConfig{URL: "postgres://explicit"}).ResolveURL(); url != "postgres://explicit" {
		t.Errorf("got %q, want explicit URL", url)
	}

	t.Setenv("JOB_DB_URL", "")
	t.Setenv("DB_URL", "")
	if _, err := (PostgresConfig{}).ResolveURL(); err == nil {
		t.Error("expected error when no URL is set")
	}
}

// --- fake pgx rows ---

type fakeRows struct {
	data [][]any
	pos  int
}

func (r *fakeRows) Close() {}
func (r *fakeRows) Err() error { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) Values() ([]any, error) { return r.data[r.pos-1], nil }
func (r *fakeRows) RawValues() [][]byte { return nil }
func (r *fakeRows) Conn() *pgx.Conn { return nil }

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.data) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.data[r.pos-1]
	for i, d := range dest {
		switch p := d.(type) {
		case *int64:
			*p = row[i].(int64)
		case **string:
			if row[i] == nil {
				*p = nil
				continue
			}
			s := row[i].(string)
			*p = &s
		default:
			return errors.New("unsupported scan target")
		}
	}
	return nil
}

type fakeDB struct {
	rows  *fakeRows
	err   error
	query string
}

func (f *fakeDB) Query(_ context.Context, sql string, _ ...any) (pgx.Rows, error) {
	f.query = sql
	if f.err != nil {
		return nil, f.err
	}
	return f.rows, nil
}

func TestPostgres_Jobs(t *testing.T) {
	db := &fakeDB{rows: &fakeRows{data: [][]any{
		{int64(1), "Frontend Engineer", "Build UIs in React.", "frontend"},
		{int64(2), "Backend Engineer", nil, nil},
	}}}
	p := &Postgres{db: db, query: DefaultQuery}

	got, err := p.Jobs(context.Background())
	if err != nil {
		t.Fatalf("Jobs: %v", err)
	}
	want := []domain.JobRecord{
		{ID: 1, Title: "Frontend Engineer", Text: "Frontend Engineer frontend Build UIs in React."},
		{ID: 2, Title: "Backend Engineer", Text: "Backend Engineer"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %+v, want %+v", got, want)
	}
	if db.query != DefaultQuery {
		t.Errorf("query = %q", db.query)
	}
}

func TestPostgres_QueryError(t *testing.T) {
	boom := errors.New("relation \"jobs\" does not exist")
	p := &Postgres{db: &fakeDB{err: boom}, query: DefaultQuery}
	if _, err := p.Jobs(context.Background()); !errors.Is(err, boom) {
		t.Errorf("expected wrapped query error, got %v", err)
	}
}
