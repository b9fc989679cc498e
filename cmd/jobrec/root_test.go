package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeFixture(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	jobs := filepath.Join(dir, "jobs.csv")
	if err := os.WriteFile(jobs, []byte("jobId,title,skills\n1,Frontend Engineer,React JavaScript CSS\n2,Backend Engineer,API database Node\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg := filepath.Join(dir, "config.yaml")
	body := "corpus:\n  source: csv\n  csv:\n    path: " + jobs + "\nrecommend:\n  max_results: 3\n"
	if err := os.WriteFile(cfg, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	prev := cfgFile
	cfgFile = cfg
	t.Cleanup(func() { cfgFile = prev })
}

func TestNewApp_BuildsPipeline(t *testing.T) {
	writeFixture(t)
	ctx := context.Background()

	a, err := newApp(ctx, true)
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	defer a.close()

	if a.provider.Name() != "csv" {
		t.Errorf("provider = %q", a.provider.Name())
	}
	idx, err := a.refresher.Refresh(ctx)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if idx.Size() != 2 {
		t.Errorf("Size() = %d, want 2", idx.Size())
	}
	results, err := a.rec.Recommend(ctx, []string{"React"}, a.queryOptions()...)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(results) != 1 || results[0].ID != 1 {
		t.Errorf("results = %+v", results)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"react", 10, "react"},
		{"react", 0, "react"},
		{"javascript", 4, "java…"},
		{"привет мир", 6, "привет…"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}
