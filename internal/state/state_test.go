package state

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "weibosync.db")
	st, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func TestOpen_CreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "weibosync.db")
	st, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	_ = st.Close()
}

func TestOpen_EmptyPath(t *testing.T) {
	if _, err := Open(""); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestWatermark_AbsentOnFreshDatabase(t *testing.T) {
	st := openTestStore(t)

	_, ok, err := st.Watermark(context.Background())
	if err != nil {
		t.Fatalf("read watermark: %v", err)
	}
	if ok {
		t.Fatal("fresh database reported a watermark")
	}
}

func TestWatermark_RoundTrip(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	if err := st.SetWatermark(ctx, 1680755474); err != nil {
		t.Fatalf("set watermark: %v", err)
	}
	ts, ok, err := st.Watermark(ctx)
	if err != nil {
		t.Fatalf("read watermark: %v", err)
	}
	if !ok || ts != 1680755474 {
		t.Fatalf("watermark = %d ok = %v", ts, ok)
	}

	// Overwrite keeps a single row.
	if err := st.SetWatermark(ctx, 1680760000); err != nil {
		t.Fatalf("overwrite watermark: %v", err)
	}
	ts, ok, err = st.Watermark(ctx)
	if err != nil {
		t.Fatalf("reread watermark: %v", err)
	}
	if !ok || ts != 1680760000 {
		t.Fatalf("watermark after overwrite = %d ok = %v", ts, ok)
	}
}

func TestRecordRun(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2023, 4, 6, 12, 0, 0, 0, time.UTC)
	runs := []Run{
		{StartedAt: base, Fetched: 5, Published: 3, Skipped: 1, Failed: 1, Watermark: 100, Advanced: true},
		{StartedAt: base.Add(time.Hour), Fetched: 2, Skipped: 2},
		{StartedAt: base.Add(2 * time.Hour), Fetched: 0},
	}
	for _, run := range runs {
		if err := st.RecordRun(ctx, run); err != nil {
			t.Fatalf("record run: %v", err)
		}
	}

	got, err := st.RecentRuns(ctx, 10)
	if err != nil {
		t.Fatalf("recent runs: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d runs, want 3", len(got))
	}

	// Newest first.
	if !got[0].StartedAt.Equal(base.Add(2 * time.Hour)) {
		t.Errorf("first run started at %v, want newest", got[0].StartedAt)
	}

	last := got[2]
	if last.Fetched != 5 || last.Published != 3 || last.Skipped != 1 || last.Failed != 1 {
		t.Errorf("oldest run = %+v", last)
	}
	if !last.Advanced || last.Watermark != 100 {
		t.Errorf("oldest run watermark = %d advanced = %v", last.Watermark, last.Advanced)
	}
	if got[1].Advanced {
		t.Error("run without advance came back advanced")
	}
}

func TestRecordRun_RequiresStartedAt(t *testing.T) {
	st := openTestStore(t)

	if err := st.RecordRun(context.Background(), Run{Fetched: 1}); err == nil {
		t.Fatal("expected error for zero started_at")
	}
}

func TestRecentRuns_Limit(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2023, 4, 6, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		if err := st.RecordRun(ctx, Run{StartedAt: base.Add(time.Duration(i) * time.Minute)}); err != nil {
			t.Fatalf("record run %d: %v", i, err)
		}
	}

	got, err := st.RecentRuns(ctx, 2)
	if err != nil {
		t.Fatalf("recent runs: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d runs, want 2", len(got))
	}
	if !got[0].StartedAt.Equal(base.Add(4 * time.Minute)) {
		t.Errorf("limit did not keep the newest runs: %v", got[0].StartedAt)
	}
}

func TestRecentRuns_EmptyDatabase(t *testing.T) {
	st := openTestStore(t)

	got, err := st.RecentRuns(context.Background(), 10)
	if err != nil {
		t.Fatalf("recent runs: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("got %d runs, want 0", len(got))
	}
}

func TestReopen_KeepsState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weibosync.db")

	st, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := st.SetWatermark(context.Background(), 42); err != nil {
		t.Fatalf("set watermark: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	st, err = Open(path)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer func() { _ = st.Close() }()

	ts, ok, err := st.Watermark(context.Background())
	if err != nil {
		t.Fatalf("read watermark: %v", err)
	}
	if !ok || ts != 42 {
		t.Fatalf("watermark after reopen = %d ok = %v", ts, ok)
	}
}
